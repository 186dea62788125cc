package workflow

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/models"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// fetchOrderForConversion loads an order with its lines inside the conversion
// transaction and applies the shared eligibility guards.
func fetchOrderForConversion(tx *gorm.DB, ctx context.Context, businessId string, orderId int) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	err := tx.WithContext(ctx).Preload("Details").
		Where("business_id = ? AND id = ?", businessId, orderId).
		First(&order).Error
	if err != nil {
		return nil, errors.New("purchase order not found")
	}
	if order.CurrentStatus.BlocksConversion() {
		return nil, utils.NewStateError("cannot convert a " + string(order.CurrentStatus) + " purchase order")
	}
	if len(order.Details) == 0 {
		return nil, utils.NewStateError("purchase order has no lines to convert")
	}
	return &order, nil
}

// ConvertOrderToReceipt creates a goods receipt carrying every order line's
// not-yet-received quantity. Lines with nothing left are skipped; when no
// line has anything left the order is fully received and the call fails.
func ConvertOrderToReceipt(ctx context.Context, orderId int) (*models.GoodsReceipt, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	lock, err := obtainConversionLock(ctx, businessId, "purchase_order", orderId)
	if err != nil {
		return nil, err
	}
	defer releaseConversionLock(ctx, lock)

	tx := db.Begin()

	order, err := fetchOrderForConversion(tx, ctx, businessId, orderId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	var details []models.GoodsReceiptDetail
	var lineTotals []decimal.Decimal
	for _, line := range order.Details {
		remaining, err := models.RemainingReceiptQty(tx, ctx, line, 0)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if !remaining.IsPositive() {
			continue
		}
		detail := models.GoodsReceiptDetail{
			PurchaseOrderItemId: line.ID,
			ItemCode:            line.ItemCode,
			ItemName:            line.ItemName,
			Quantity:            remaining,
			UnitPrice:           line.UnitPrice,
			TotalAmount:         utils.CalculateLineTotal(remaining, line.UnitPrice),
			Uom:                 line.Uom,
			Remarks:             line.Remarks,
		}
		lineTotals = append(lineTotals, detail.TotalAmount)
		details = append(details, detail)
	}
	if len(details) == 0 {
		tx.Rollback()
		return nil, utils.NewStateError("purchase order is already fully received")
	}

	total, payable, due := utils.CalculateHeaderTotals(lineTotals, order.DiscountAmount, decimal.Zero)

	receipt := models.GoodsReceipt{
		BusinessId:             businessId,
		SupplierId:             order.SupplierId,
		BranchId:               order.BranchId,
		ReferenceNumber:        order.OrderNumber,
		ReceiptDate:            time.Now(),
		PurchaseOrderId:        order.ID,
		ContactPersonId:        order.ContactPersonId,
		BillingAddress:         order.BillingAddress,
		ShippingAddress:        order.ShippingAddress,
		CurrencyId:             order.CurrencyId,
		PaymentTerms:           order.PaymentTerms,
		PaymentTermsCustomDays: order.PaymentTermsCustomDays,
		DiscountAmount:         order.DiscountAmount,
		TaxAmount:              order.TaxAmount,
		TotalAmount:            total,
		PayableAmount:          payable,
		PaidAmount:             decimal.Zero,
		DueAmount:              due,
		Remarks:                order.Remarks,
		EmployeeName:           order.EmployeeName,
		CurrentStatus:          models.GoodsReceiptStatusOpen,
		Details:                details,
	}

	seqNo, receiptNumber, err := models.NextDocumentNumber[models.GoodsReceipt](ctx, businessId, order.BranchId, "Goods Receipt")
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	receipt.SequenceNo = seqNo
	receipt.ReceiptNumber = receiptNumber

	if err := tx.WithContext(ctx).Create(&receipt).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if _, err := models.ChangeOrderFulfillmentStatus(tx, ctx, businessId, order.ID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := models.CreateHistory(tx.WithContext(ctx), "Create", receipt.ID, "goods_receipts", nil, receipt,
		"Converted purchase order "+order.OrderNumber+" to goods receipt "+receipt.ReceiptNumber); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := models.RemoveRedisBoth(*order); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ConvertOrderToInvoice creates an AP invoice for every order line's
// not-yet-invoiced quantity. The invoice due date comes from the order's
// payment terms.
func ConvertOrderToInvoice(ctx context.Context, orderId int) (*models.APInvoice, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	lock, err := obtainConversionLock(ctx, businessId, "purchase_order", orderId)
	if err != nil {
		return nil, err
	}
	defer releaseConversionLock(ctx, lock)

	tx := db.Begin()

	order, err := fetchOrderForConversion(tx, ctx, businessId, orderId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	isActive := true
	var details []models.APInvoiceDetail
	var lineTotals []decimal.Decimal
	for _, line := range order.Details {
		remaining, err := models.RemainingInvoiceQtyFromOrderLine(tx, ctx, line, 0)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if !remaining.IsPositive() {
			continue
		}
		detail := models.APInvoiceDetail{
			PurchaseOrderItemId: line.ID,
			ItemCode:            line.ItemCode,
			ItemName:            line.ItemName,
			Quantity:            remaining,
			UnitPrice:           line.UnitPrice,
			TotalAmount:         utils.CalculateLineTotal(remaining, line.UnitPrice),
			Uom:                 line.Uom,
			Remarks:             line.Remarks,
			IsActive:            &isActive,
		}
		lineTotals = append(lineTotals, detail.TotalAmount)
		details = append(details, detail)
	}
	if len(details) == 0 {
		tx.Rollback()
		return nil, utils.NewStateError("purchase order is already fully invoiced")
	}

	total, payable, due := utils.CalculateHeaderTotals(lineTotals, order.DiscountAmount, decimal.Zero)
	invoiceDate := time.Now()

	invoice := models.APInvoice{
		BusinessId:             businessId,
		SupplierId:             order.SupplierId,
		BranchId:               order.BranchId,
		ReferenceNumber:        order.OrderNumber,
		InvoiceDate:            invoiceDate,
		DueDate:                models.CalculateDueDate(invoiceDate, order.PaymentTerms, order.PaymentTermsCustomDays),
		PurchaseOrderId:        order.ID,
		ContactPersonId:        order.ContactPersonId,
		BillingAddress:         order.BillingAddress,
		ShippingAddress:        order.ShippingAddress,
		CurrencyId:             order.CurrencyId,
		PaymentTerms:           order.PaymentTerms,
		PaymentTermsCustomDays: order.PaymentTermsCustomDays,
		DiscountAmount:         order.DiscountAmount,
		TaxAmount:              order.TaxAmount,
		TotalAmount:            total,
		PayableAmount:          payable,
		PaidAmount:             decimal.Zero,
		DueAmount:              due,
		Remarks:                order.Remarks,
		EmployeeName:           order.EmployeeName,
		CurrentStatus:          models.APInvoiceStatusOpen,
		Details:                details,
	}

	seqNo, invoiceNumber, err := models.NextDocumentNumber[models.APInvoice](ctx, businessId, order.BranchId, "AP Invoice")
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	invoice.SequenceNo = seqNo
	invoice.InvoiceNumber = invoiceNumber

	if err := tx.WithContext(ctx).Create(&invoice).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if _, err := models.ChangeOrderBillingStatus(tx, ctx, businessId, order.ID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := models.CreateHistory(tx.WithContext(ctx), "Create", invoice.ID, "ap_invoices", nil, invoice,
		"Converted purchase order "+order.OrderNumber+" to AP invoice "+invoice.InvoiceNumber); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := models.RemoveRedisBoth(*order); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// ConvertOrderToReturn creates a goods return directly from an order, with no
// goods receipt in between. How line quantities are sized depends on the
// policy: Full Quantity copies each ordered quantity as-is, Remaining
// Quantity copies only what has not been returned yet. An empty policy falls
// back to the configured default.
func ConvertOrderToReturn(ctx context.Context, orderId int, policy models.ReturnQuantityPolicy) (*models.GoodsReturn, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if policy == "" {
		parsed, err := models.ParseReturnQuantityPolicy(config.OrderDirectReturnPolicy())
		if err != nil {
			return nil, err
		}
		policy = parsed
	} else if _, err := models.ParseReturnQuantityPolicy(string(policy)); err != nil {
		return nil, err
	}

	lock, err := obtainConversionLock(ctx, businessId, "purchase_order", orderId)
	if err != nil {
		return nil, err
	}
	defer releaseConversionLock(ctx, lock)

	tx := db.Begin()

	order, err := fetchOrderForConversion(tx, ctx, businessId, orderId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	var details []models.GoodsReturnDetail
	var lineTotals []decimal.Decimal
	for _, line := range order.Details {
		qty := line.Quantity
		if policy == models.ReturnRemainingQuantity {
			remaining, err := models.RemainingReturnQtyFromOrderLine(tx, ctx, line, 0)
			if err != nil {
				tx.Rollback()
				return nil, err
			}
			if !remaining.IsPositive() {
				continue
			}
			qty = remaining
		}
		detail := models.GoodsReturnDetail{
			PurchaseOrderItemId: line.ID,
			ItemCode:            line.ItemCode,
			ItemName:            line.ItemName,
			Quantity:            qty,
			UnitPrice:           line.UnitPrice,
			TotalAmount:         utils.CalculateLineTotal(qty, line.UnitPrice),
			Uom:                 line.Uom,
			Remarks:             line.Remarks,
		}
		lineTotals = append(lineTotals, detail.TotalAmount)
		details = append(details, detail)
	}
	if len(details) == 0 {
		tx.Rollback()
		return nil, utils.NewStateError("purchase order is already fully returned")
	}

	total, payable, due := utils.CalculateHeaderTotals(lineTotals, order.DiscountAmount, decimal.Zero)

	goodsReturn := models.GoodsReturn{
		BusinessId:      businessId,
		SupplierId:      order.SupplierId,
		BranchId:        order.BranchId,
		ReferenceNumber: order.OrderNumber,
		ReturnDate:      time.Now(),
		PurchaseOrderId: order.ID,
		ContactPersonId: order.ContactPersonId,
		BillingAddress:  order.BillingAddress,
		ShippingAddress: order.ShippingAddress,
		CurrencyId:      order.CurrencyId,
		DiscountAmount:  order.DiscountAmount,
		TaxAmount:       order.TaxAmount,
		TotalAmount:     total,
		PayableAmount:   payable,
		PaidAmount:      decimal.Zero,
		DueAmount:       due,
		Remarks:         order.Remarks,
		EmployeeName:    order.EmployeeName,
		CurrentStatus:   models.GoodsReturnStatusOpen,
		Details:         details,
	}

	seqNo, returnNumber, err := models.NextDocumentNumber[models.GoodsReturn](ctx, businessId, order.BranchId, "Goods Return")
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	goodsReturn.SequenceNo = seqNo
	goodsReturn.ReturnNumber = returnNumber

	if err := tx.WithContext(ctx).Create(&goodsReturn).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := models.CreateHistory(tx.WithContext(ctx), "Create", goodsReturn.ID, "goods_returns", nil, goodsReturn,
		"Converted purchase order "+order.OrderNumber+" to goods return "+goodsReturn.ReturnNumber); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &goodsReturn, nil
}
