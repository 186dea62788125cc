package models_test

import (
	"testing"

	"bitbucket.org/mmdatafocus/procurement_backend/models"
)

func TestParsePurchaseQuotationStatus(t *testing.T) {
	for _, valid := range []string{"Draft", "Open", "Sent", "Expired", "Converted", "Closed", "Cancelled"} {
		status, err := models.ParsePurchaseQuotationStatus(valid)
		if err != nil {
			t.Fatalf("ParsePurchaseQuotationStatus(%q): %v", valid, err)
		}
		if string(status) != valid {
			t.Fatalf("expected %q back, got %q", valid, status)
		}
	}
	if _, err := models.ParsePurchaseQuotationStatus("Received"); err == nil {
		t.Fatal("expected error for status outside the quotation lifecycle")
	}
}

func TestQuotationStatusBlocksConversion(t *testing.T) {
	blocking := []models.PurchaseQuotationStatus{
		models.PurchaseQuotationStatusExpired,
		models.PurchaseQuotationStatusConverted,
		models.PurchaseQuotationStatusClosed,
		models.PurchaseQuotationStatusCancelled,
	}
	for _, s := range blocking {
		if !s.BlocksConversion() {
			t.Fatalf("%s must block conversion", s)
		}
	}
	convertible := []models.PurchaseQuotationStatus{
		models.PurchaseQuotationStatusDraft,
		models.PurchaseQuotationStatusOpen,
		models.PurchaseQuotationStatusSent,
	}
	for _, s := range convertible {
		if s.BlocksConversion() {
			t.Fatalf("%s must not block conversion", s)
		}
	}
}

func TestOrderStatusBlocksConversion(t *testing.T) {
	if !models.PurchaseOrderStatusClosed.BlocksConversion() {
		t.Fatal("Closed order must block conversion")
	}
	if !models.PurchaseOrderStatusCancelled.BlocksConversion() {
		t.Fatal("Cancelled order must block conversion")
	}
	if models.PurchaseOrderStatusOpen.BlocksConversion() {
		t.Fatal("Open order must stay convertible")
	}
	if models.PurchaseOrderStatusDraft.BlocksConversion() {
		t.Fatal("Draft order must stay convertible")
	}
}

func TestOrderDisplayStatus(t *testing.T) {
	cases := []struct {
		name        string
		current     models.PurchaseOrderStatus
		fulfillment models.OrderFulfillmentStatus
		billing     models.OrderBillingStatus
		expected    string
	}{
		{"fresh order", models.PurchaseOrderStatusOpen, models.OrderFulfillmentStatusOpen, models.OrderBillingStatusOpen, "Open"},
		{"partially received", models.PurchaseOrderStatusOpen, models.OrderFulfillmentStatusPartiallyReceived, models.OrderBillingStatusOpen, "Partially Received"},
		{"received wins over billing", models.PurchaseOrderStatusOpen, models.OrderFulfillmentStatusReceived, models.OrderBillingStatusPartiallyInvoiced, "Received"},
		{"billing shows when unfulfilled", models.PurchaseOrderStatusOpen, models.OrderFulfillmentStatusOpen, models.OrderBillingStatusInvoiced, "Invoiced"},
		{"cancelled wins over progress", models.PurchaseOrderStatusCancelled, models.OrderFulfillmentStatusReceived, models.OrderBillingStatusInvoiced, "Cancelled"},
		{"closed wins over progress", models.PurchaseOrderStatusClosed, models.OrderFulfillmentStatusPartiallyReceived, models.OrderBillingStatusOpen, "Closed"},
		{"draft hides progress", models.PurchaseOrderStatusDraft, models.OrderFulfillmentStatusOpen, models.OrderBillingStatusOpen, "Draft"},
	}
	for _, tc := range cases {
		po := models.PurchaseOrder{
			CurrentStatus:     tc.current,
			FulfillmentStatus: tc.fulfillment,
			BillingStatus:     tc.billing,
		}
		if got := po.DisplayStatus(); got != tc.expected {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.expected, got)
		}
	}
}

func TestParseReturnQuantityPolicy(t *testing.T) {
	cases := map[string]models.ReturnQuantityPolicy{
		"Full Quantity":      models.ReturnFullQuantity,
		"full":               models.ReturnFullQuantity,
		"Remaining Quantity": models.ReturnRemainingQuantity,
		"remaining":          models.ReturnRemainingQuantity,
	}
	for in, expected := range cases {
		got, err := models.ParseReturnQuantityPolicy(in)
		if err != nil {
			t.Fatalf("ParseReturnQuantityPolicy(%q): %v", in, err)
		}
		if got != expected {
			t.Fatalf("ParseReturnQuantityPolicy(%q) expected %s, got %s", in, expected, got)
		}
	}
	if _, err := models.ParseReturnQuantityPolicy("all"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func TestParseGoodsReceiptStatusRejectsInvoiceStatuses(t *testing.T) {
	if _, err := models.ParseGoodsReceiptStatus("Partially Paid"); err == nil {
		t.Fatal("expected error for payment status on a goods receipt")
	}
	if _, err := models.ParseAPInvoiceStatus("Partially Received"); err == nil {
		t.Fatal("expected error for receiving status on an AP invoice")
	}
}
