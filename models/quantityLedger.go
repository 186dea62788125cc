package models

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Statuses on a downstream document that still count toward an upstream
// line's converted quantity. Cancelled and closed documents release their
// quantity back to the source.
var (
	receiptCountedStatuses = []GoodsReceiptStatus{
		GoodsReceiptStatusOpen,
		GoodsReceiptStatusPartiallyReceived,
		GoodsReceiptStatusReceived,
	}
	invoiceCountedStatuses = []APInvoiceStatus{
		APInvoiceStatusOpen,
		APInvoiceStatusPartiallyPaid,
		APInvoiceStatusPaid,
	}
	returnCountedStatuses = []GoodsReturnStatus{
		GoodsReturnStatusOpen,
		GoodsReturnStatusReturned,
	}
)

// ConvertedReceiptQty sums goods-receipt quantity already carried from an
// order line, counting only receipts whose status still holds the quantity.
// excludeReceiptId skips one in-progress receipt when recomputing during an
// update-in-place; pass 0 to count everything.
func ConvertedReceiptQty(tx *gorm.DB, ctx context.Context, orderLineId int, excludeReceiptId int) (decimal.Decimal, error) {
	var total decimal.Decimal
	dbCtx := tx.WithContext(ctx).Model(&GoodsReceiptDetail{}).
		Joins("JOIN goods_receipts ON goods_receipts.id = goods_receipt_details.goods_receipt_id").
		Where("goods_receipt_details.purchase_order_item_id = ?", orderLineId).
		Where("goods_receipts.current_status IN ?", receiptCountedStatuses)
	if excludeReceiptId > 0 {
		dbCtx = dbCtx.Where("goods_receipts.id != ?", excludeReceiptId)
	}
	err := dbCtx.
		Select("COALESCE(SUM(goods_receipt_details.quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// ConvertedInvoiceQtyFromOrderLine sums invoiced quantity carried directly
// from an order line. Inactive invoice lines are soft-excluded.
func ConvertedInvoiceQtyFromOrderLine(tx *gorm.DB, ctx context.Context, orderLineId int, excludeInvoiceId int) (decimal.Decimal, error) {
	var total decimal.Decimal
	dbCtx := tx.WithContext(ctx).Model(&APInvoiceDetail{}).
		Joins("JOIN ap_invoices ON ap_invoices.id = ap_invoice_details.ap_invoice_id").
		Where("ap_invoice_details.purchase_order_item_id = ?", orderLineId).
		Where("ap_invoice_details.is_active = ?", true).
		Where("ap_invoices.current_status IN ?", invoiceCountedStatuses)
	if excludeInvoiceId > 0 {
		dbCtx = dbCtx.Where("ap_invoices.id != ?", excludeInvoiceId)
	}
	err := dbCtx.
		Select("COALESCE(SUM(ap_invoice_details.quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// ConvertedInvoiceQtyFromReceiptLine sums invoiced quantity carried from a
// goods-receipt line.
func ConvertedInvoiceQtyFromReceiptLine(tx *gorm.DB, ctx context.Context, receiptLineId int, excludeInvoiceId int) (decimal.Decimal, error) {
	var total decimal.Decimal
	dbCtx := tx.WithContext(ctx).Model(&APInvoiceDetail{}).
		Joins("JOIN ap_invoices ON ap_invoices.id = ap_invoice_details.ap_invoice_id").
		Where("ap_invoice_details.goods_receipt_item_id = ?", receiptLineId).
		Where("ap_invoice_details.is_active = ?", true).
		Where("ap_invoices.current_status IN ?", invoiceCountedStatuses)
	if excludeInvoiceId > 0 {
		dbCtx = dbCtx.Where("ap_invoices.id != ?", excludeInvoiceId)
	}
	err := dbCtx.
		Select("COALESCE(SUM(ap_invoice_details.quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// ConvertedReturnQtyFromReceiptLine sums returned quantity carried from a
// goods-receipt line.
func ConvertedReturnQtyFromReceiptLine(tx *gorm.DB, ctx context.Context, receiptLineId int, excludeReturnId int) (decimal.Decimal, error) {
	var total decimal.Decimal
	dbCtx := tx.WithContext(ctx).Model(&GoodsReturnDetail{}).
		Joins("JOIN goods_returns ON goods_returns.id = goods_return_details.goods_return_id").
		Where("goods_return_details.goods_receipt_item_id = ?", receiptLineId).
		Where("goods_returns.current_status IN ?", returnCountedStatuses)
	if excludeReturnId > 0 {
		dbCtx = dbCtx.Where("goods_returns.id != ?", excludeReturnId)
	}
	err := dbCtx.
		Select("COALESCE(SUM(goods_return_details.quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// ConvertedReturnQtyFromOrderLine sums returned quantity carried directly
// from an order line (direct order returns, no receipt in between).
func ConvertedReturnQtyFromOrderLine(tx *gorm.DB, ctx context.Context, orderLineId int, excludeReturnId int) (decimal.Decimal, error) {
	var total decimal.Decimal
	dbCtx := tx.WithContext(ctx).Model(&GoodsReturnDetail{}).
		Joins("JOIN goods_returns ON goods_returns.id = goods_return_details.goods_return_id").
		Where("goods_return_details.purchase_order_item_id = ?", orderLineId).
		Where("goods_returns.current_status IN ?", returnCountedStatuses)
	if excludeReturnId > 0 {
		dbCtx = dbCtx.Where("goods_returns.id != ?", excludeReturnId)
	}
	err := dbCtx.
		Select("COALESCE(SUM(goods_return_details.quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// RemainingReceiptQty is how much of an order line can still be received.
func RemainingReceiptQty(tx *gorm.DB, ctx context.Context, line PurchaseOrderDetail, excludeReceiptId int) (decimal.Decimal, error) {
	converted, err := ConvertedReceiptQty(tx, ctx, line.ID, excludeReceiptId)
	if err != nil {
		return decimal.Zero, err
	}
	return line.Quantity.Sub(converted), nil
}

// RemainingInvoiceQtyFromOrderLine is how much of an order line can still be invoiced.
func RemainingInvoiceQtyFromOrderLine(tx *gorm.DB, ctx context.Context, line PurchaseOrderDetail, excludeInvoiceId int) (decimal.Decimal, error) {
	converted, err := ConvertedInvoiceQtyFromOrderLine(tx, ctx, line.ID, excludeInvoiceId)
	if err != nil {
		return decimal.Zero, err
	}
	return line.Quantity.Sub(converted), nil
}

// RemainingInvoiceQtyFromReceiptLine is how much of a receipt line can still be invoiced.
func RemainingInvoiceQtyFromReceiptLine(tx *gorm.DB, ctx context.Context, line GoodsReceiptDetail, excludeInvoiceId int) (decimal.Decimal, error) {
	converted, err := ConvertedInvoiceQtyFromReceiptLine(tx, ctx, line.ID, excludeInvoiceId)
	if err != nil {
		return decimal.Zero, err
	}
	return line.Quantity.Sub(converted), nil
}

// RemainingReturnQtyFromReceiptLine is how much of a receipt line can still be returned.
func RemainingReturnQtyFromReceiptLine(tx *gorm.DB, ctx context.Context, line GoodsReceiptDetail, excludeReturnId int) (decimal.Decimal, error) {
	converted, err := ConvertedReturnQtyFromReceiptLine(tx, ctx, line.ID, excludeReturnId)
	if err != nil {
		return decimal.Zero, err
	}
	return line.Quantity.Sub(converted), nil
}

// RemainingReturnQtyFromOrderLine is how much of an order line can still be
// returned directly.
func RemainingReturnQtyFromOrderLine(tx *gorm.DB, ctx context.Context, line PurchaseOrderDetail, excludeReturnId int) (decimal.Decimal, error) {
	converted, err := ConvertedReturnQtyFromOrderLine(tx, ctx, line.ID, excludeReturnId)
	if err != nil {
		return decimal.Zero, err
	}
	return line.Quantity.Sub(converted), nil
}

// deriveProgress folds per-line converted quantities into one of the three
// progress values: every line fully covered, some quantity converted, or
// nothing converted yet.
func deriveProgress(lines []PurchaseOrderDetail, convertedFor func(PurchaseOrderDetail) (decimal.Decimal, error)) (allCovered bool, anyConverted bool, err error) {
	if len(lines) == 0 {
		return false, false, nil
	}
	allCovered = true
	for _, line := range lines {
		converted, cerr := convertedFor(line)
		if cerr != nil {
			return false, false, cerr
		}
		if converted.IsPositive() {
			anyConverted = true
		}
		if converted.LessThan(line.Quantity) {
			allCovered = false
		}
	}
	return allCovered, anyConverted, nil
}

// ChangeOrderFulfillmentStatus re-derives an order's receipt progress from
// the ledger and persists it. Runs inside the caller's transaction.
func ChangeOrderFulfillmentStatus(tx *gorm.DB, ctx context.Context, businessId string, poId int) (*PurchaseOrder, error) {

	var purchaseOrder PurchaseOrder
	err := tx.WithContext(ctx).Preload("Details").
		Where("business_id = ? AND id = ?", businessId, poId).
		First(&purchaseOrder).Error
	if err != nil {
		return nil, errors.New("purchase order not found")
	}

	allCovered, anyConverted, err := deriveProgress(purchaseOrder.Details, func(line PurchaseOrderDetail) (decimal.Decimal, error) {
		return ConvertedReceiptQty(tx, ctx, line.ID, 0)
	})
	if err != nil {
		return nil, err
	}

	status := OrderFulfillmentStatusOpen
	if allCovered {
		status = OrderFulfillmentStatusReceived
	} else if anyConverted {
		status = OrderFulfillmentStatusPartiallyReceived
	}

	if err := tx.WithContext(ctx).Model(&purchaseOrder).
		UpdateColumn("FulfillmentStatus", status).Error; err != nil {
		return nil, err
	}
	purchaseOrder.FulfillmentStatus = status
	return &purchaseOrder, nil
}

// ChangeOrderBillingStatus re-derives an order's invoice progress from the
// ledger and persists it. Invoices created from receipts roll up through the
// receipt line's order reference, so both direct and indirect billing count.
func ChangeOrderBillingStatus(tx *gorm.DB, ctx context.Context, businessId string, poId int) (*PurchaseOrder, error) {

	var purchaseOrder PurchaseOrder
	err := tx.WithContext(ctx).Preload("Details").
		Where("business_id = ? AND id = ?", businessId, poId).
		First(&purchaseOrder).Error
	if err != nil {
		return nil, errors.New("purchase order not found")
	}

	allCovered, anyConverted, err := deriveProgress(purchaseOrder.Details, func(line PurchaseOrderDetail) (decimal.Decimal, error) {
		return ConvertedInvoiceQtyFromOrderLine(tx, ctx, line.ID, 0)
	})
	if err != nil {
		return nil, err
	}

	status := OrderBillingStatusOpen
	if allCovered {
		status = OrderBillingStatusInvoiced
	} else if anyConverted {
		status = OrderBillingStatusPartiallyInvoiced
	}

	if err := tx.WithContext(ctx).Model(&purchaseOrder).
		UpdateColumn("BillingStatus", status).Error; err != nil {
		return nil, err
	}
	purchaseOrder.BillingStatus = status
	return &purchaseOrder, nil
}
