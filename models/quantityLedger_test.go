package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func orderLines(qtys ...int64) []PurchaseOrderDetail {
	lines := make([]PurchaseOrderDetail, 0, len(qtys))
	for i, q := range qtys {
		lines = append(lines, PurchaseOrderDetail{ID: i + 1, Quantity: decimal.NewFromInt(q)})
	}
	return lines
}

func converted(byLine map[int]int64) func(PurchaseOrderDetail) (decimal.Decimal, error) {
	return func(line PurchaseOrderDetail) (decimal.Decimal, error) {
		return decimal.NewFromInt(byLine[line.ID]), nil
	}
}

func TestDeriveProgress(t *testing.T) {
	tests := []struct {
		name         string
		lines        []PurchaseOrderDetail
		convertedQty map[int]int64
		allCovered   bool
		anyConverted bool
	}{
		{"nothing converted", orderLines(10, 4), map[int]int64{}, false, false},
		{"one line partially converted", orderLines(10, 4), map[int]int64{1: 6}, false, true},
		{"one line fully, one untouched", orderLines(10, 4), map[int]int64{1: 10}, false, true},
		{"all lines fully converted", orderLines(10, 4), map[int]int64{1: 10, 2: 4}, true, true},
		{"over-converted still counts as covered", orderLines(10), map[int]int64{1: 12}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allCovered, anyConverted, err := deriveProgress(tt.lines, converted(tt.convertedQty))
			if err != nil {
				t.Fatalf("deriveProgress: %v", err)
			}
			if allCovered != tt.allCovered || anyConverted != tt.anyConverted {
				t.Fatalf("got allCovered=%v anyConverted=%v, want %v %v",
					allCovered, anyConverted, tt.allCovered, tt.anyConverted)
			}
		})
	}
}

// an order with no lines must never report progress
func TestDeriveProgressEmptyOrder(t *testing.T) {
	allCovered, anyConverted, err := deriveProgress(nil, converted(nil))
	if err != nil {
		t.Fatalf("deriveProgress: %v", err)
	}
	if allCovered || anyConverted {
		t.Fatalf("empty order reported progress: allCovered=%v anyConverted=%v", allCovered, anyConverted)
	}
}

func TestCountedStatusSets(t *testing.T) {
	if len(receiptCountedStatuses) != 3 {
		t.Fatalf("expected 3 receipt-counted statuses, got %v", receiptCountedStatuses)
	}
	for _, s := range receiptCountedStatuses {
		if s == GoodsReceiptStatusDraft || s == GoodsReceiptStatusCancelled {
			t.Fatalf("draft/cancelled receipts must not count: %v", receiptCountedStatuses)
		}
	}
	for _, s := range invoiceCountedStatuses {
		if s == APInvoiceStatusDraft || s == APInvoiceStatusCancelled {
			t.Fatalf("draft/cancelled invoices must not count: %v", invoiceCountedStatuses)
		}
	}
	for _, s := range returnCountedStatuses {
		if s == GoodsReturnStatusDraft || s == GoodsReturnStatusCancelled {
			t.Fatalf("draft/cancelled returns must not count: %v", returnCountedStatuses)
		}
	}
}
