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

func fetchReceiptForConversion(tx *gorm.DB, ctx context.Context, businessId string, receiptId int) (*models.GoodsReceipt, error) {
	var receipt models.GoodsReceipt
	err := tx.WithContext(ctx).Preload("Details").
		Where("business_id = ? AND id = ?", businessId, receiptId).
		First(&receipt).Error
	if err != nil {
		return nil, errors.New("goods receipt not found")
	}
	if receipt.CurrentStatus.BlocksConversion() {
		return nil, utils.NewStateError("cannot convert a " + string(receipt.CurrentStatus) + " goods receipt")
	}
	if len(receipt.Details) == 0 {
		return nil, utils.NewStateError("goods receipt has no lines to convert")
	}
	return &receipt, nil
}

// ConvertReceiptToInvoice creates an AP invoice for every receipt line's
// not-yet-invoiced quantity. Each invoice line keeps the receipt line's
// order line reference too, so the order's billing progress rolls up without
// walking through the receipt.
func ConvertReceiptToInvoice(ctx context.Context, receiptId int) (*models.APInvoice, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	lock, err := obtainConversionLock(ctx, businessId, "goods_receipt", receiptId)
	if err != nil {
		return nil, err
	}
	defer releaseConversionLock(ctx, lock)

	tx := db.Begin()

	receipt, err := fetchReceiptForConversion(tx, ctx, businessId, receiptId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	isActive := true
	var details []models.APInvoiceDetail
	var lineTotals []decimal.Decimal
	for _, line := range receipt.Details {
		remaining, err := models.RemainingInvoiceQtyFromReceiptLine(tx, ctx, line, 0)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if !remaining.IsPositive() {
			continue
		}
		detail := models.APInvoiceDetail{
			GoodsReceiptItemId:  line.ID,
			PurchaseOrderItemId: line.PurchaseOrderItemId,
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
		return nil, utils.NewStateError("goods receipt is already fully invoiced")
	}

	total, payable, due := utils.CalculateHeaderTotals(lineTotals, receipt.DiscountAmount, decimal.Zero)
	invoiceDate := time.Now()

	invoice := models.APInvoice{
		BusinessId:             businessId,
		SupplierId:             receipt.SupplierId,
		BranchId:               receipt.BranchId,
		ReferenceNumber:        receipt.ReceiptNumber,
		InvoiceDate:            invoiceDate,
		DueDate:                models.CalculateDueDate(invoiceDate, receipt.PaymentTerms, receipt.PaymentTermsCustomDays),
		PurchaseOrderId:        receipt.PurchaseOrderId,
		GoodsReceiptId:         receipt.ID,
		ContactPersonId:        receipt.ContactPersonId,
		BillingAddress:         receipt.BillingAddress,
		ShippingAddress:        receipt.ShippingAddress,
		CurrencyId:             receipt.CurrencyId,
		PaymentTerms:           receipt.PaymentTerms,
		PaymentTermsCustomDays: receipt.PaymentTermsCustomDays,
		DiscountAmount:         receipt.DiscountAmount,
		TaxAmount:              receipt.TaxAmount,
		TotalAmount:            total,
		PayableAmount:          payable,
		PaidAmount:             decimal.Zero,
		DueAmount:              due,
		Remarks:                receipt.Remarks,
		EmployeeName:           receipt.EmployeeName,
		CurrentStatus:          models.APInvoiceStatusOpen,
		Details:                details,
	}

	seqNo, invoiceNumber, err := models.NextDocumentNumber[models.APInvoice](ctx, businessId, receipt.BranchId, "AP Invoice")
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

	// walk the invoice's line-level order refs too; a receipt line can point
	// at an order line even when the receipt header carries no order
	if err := models.RefreshBillingForInvoice(tx, ctx, businessId, &invoice); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := models.CreateHistory(tx.WithContext(ctx), "Create", invoice.ID, "ap_invoices", nil, invoice,
		"Converted goods receipt "+receipt.ReceiptNumber+" to AP invoice "+invoice.InvoiceNumber); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := models.RemoveRedisBoth(*receipt); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// ConvertReceiptToReturn creates a goods return for every receipt line's
// not-yet-returned quantity.
func ConvertReceiptToReturn(ctx context.Context, receiptId int, returnReason string) (*models.GoodsReturn, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	lock, err := obtainConversionLock(ctx, businessId, "goods_receipt", receiptId)
	if err != nil {
		return nil, err
	}
	defer releaseConversionLock(ctx, lock)

	tx := db.Begin()

	receipt, err := fetchReceiptForConversion(tx, ctx, businessId, receiptId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	var details []models.GoodsReturnDetail
	var lineTotals []decimal.Decimal
	for _, line := range receipt.Details {
		remaining, err := models.RemainingReturnQtyFromReceiptLine(tx, ctx, line, 0)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if !remaining.IsPositive() {
			continue
		}
		detail := models.GoodsReturnDetail{
			GoodsReceiptItemId:  line.ID,
			PurchaseOrderItemId: line.PurchaseOrderItemId,
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
		return nil, utils.NewStateError("goods receipt is already fully returned")
	}

	total, payable, due := utils.CalculateHeaderTotals(lineTotals, receipt.DiscountAmount, decimal.Zero)

	goodsReturn := models.GoodsReturn{
		BusinessId:      businessId,
		SupplierId:      receipt.SupplierId,
		BranchId:        receipt.BranchId,
		ReferenceNumber: receipt.ReceiptNumber,
		ReturnDate:      time.Now(),
		ReturnReason:    returnReason,
		PurchaseOrderId: receipt.PurchaseOrderId,
		GoodsReceiptId:  receipt.ID,
		WarehouseId:     receipt.WarehouseId,
		ContactPersonId: receipt.ContactPersonId,
		BillingAddress:  receipt.BillingAddress,
		ShippingAddress: receipt.ShippingAddress,
		CurrencyId:      receipt.CurrencyId,
		DiscountAmount:  receipt.DiscountAmount,
		TaxAmount:       receipt.TaxAmount,
		TotalAmount:     total,
		PayableAmount:   payable,
		PaidAmount:      decimal.Zero,
		DueAmount:       due,
		Remarks:         receipt.Remarks,
		EmployeeName:    receipt.EmployeeName,
		CurrentStatus:   models.GoodsReturnStatusOpen,
		Details:         details,
	}

	seqNo, returnNumber, err := models.NextDocumentNumber[models.GoodsReturn](ctx, businessId, receipt.BranchId, "Goods Return")
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
		"Converted goods receipt "+receipt.ReceiptNumber+" to goods return "+goodsReturn.ReturnNumber); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := models.RemoveRedisBoth(*receipt); err != nil {
		return nil, err
	}
	return &goodsReturn, nil
}
