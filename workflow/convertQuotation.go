package workflow

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/models"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
	"github.com/shopspring/decimal"
)

// ConvertQuotationToOrder turns an accepted quotation into a purchase order.
// This is an all-or-nothing conversion: every line is carried at its full
// quantity and the quotation is stamped Converted, after which it can never
// convert again. The quotation's valid-until date becomes the order's
// expected delivery date.
func ConvertQuotationToOrder(ctx context.Context, quotationId int) (*models.PurchaseOrder, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	lock, err := obtainConversionLock(ctx, businessId, "purchase_quotation", quotationId)
	if err != nil {
		return nil, err
	}
	defer releaseConversionLock(ctx, lock)

	tx := db.Begin()

	var quotation models.PurchaseQuotation
	err = tx.WithContext(ctx).Preload("Details").
		Where("business_id = ? AND id = ?", businessId, quotationId).
		First(&quotation).Error
	if err != nil {
		tx.Rollback()
		return nil, errors.New("purchase quotation not found")
	}

	if quotation.CurrentStatus.BlocksConversion() {
		tx.Rollback()
		return nil, utils.NewStateError("cannot convert a " + string(quotation.CurrentStatus) + " purchase quotation")
	}
	if len(quotation.Details) == 0 {
		tx.Rollback()
		return nil, utils.NewStateError("purchase quotation has no lines to convert")
	}

	var details []models.PurchaseOrderDetail
	var lineTotals []decimal.Decimal
	for _, line := range quotation.Details {
		detail := models.PurchaseOrderDetail{
			ItemCode:    line.ItemCode,
			ItemName:    line.ItemName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			TotalAmount: utils.CalculateLineTotal(line.Quantity, line.UnitPrice),
			Uom:         line.Uom,
			Remarks:     line.Remarks,
		}
		lineTotals = append(lineTotals, detail.TotalAmount)
		details = append(details, detail)
	}

	total, payable, due := utils.CalculateHeaderTotals(lineTotals, quotation.DiscountAmount, decimal.Zero)

	order := models.PurchaseOrder{
		BusinessId:             businessId,
		SupplierId:             quotation.SupplierId,
		BranchId:               quotation.BranchId,
		ReferenceNumber:        quotation.QuotationNumber,
		OrderDate:              time.Now(),
		DeliveryDate:           quotation.ValidUntil,
		ContactPersonId:        quotation.ContactPersonId,
		BillingAddress:         quotation.BillingAddress,
		ShippingAddress:        quotation.ShippingAddress,
		CurrencyId:             quotation.CurrencyId,
		PaymentTerms:           quotation.PaymentTerms,
		PaymentTermsCustomDays: quotation.PaymentTermsCustomDays,
		DiscountAmount:         quotation.DiscountAmount,
		TaxAmount:              quotation.TaxAmount,
		TotalAmount:            total,
		PayableAmount:          payable,
		PaidAmount:             decimal.Zero,
		DueAmount:              due,
		Remarks:                quotation.Remarks,
		EmployeeName:           quotation.EmployeeName,
		CurrentStatus:          models.PurchaseOrderStatusOpen,
		FulfillmentStatus:      models.OrderFulfillmentStatusOpen,
		BillingStatus:          models.OrderBillingStatusOpen,
		Details:                details,
	}

	seqNo, orderNumber, err := models.NextDocumentNumber[models.PurchaseOrder](ctx, businessId, quotation.BranchId, "Purchase Order")
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	order.SequenceNo = seqNo
	order.OrderNumber = orderNumber

	if err := tx.WithContext(ctx).Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.WithContext(ctx).Model(&quotation).
		UpdateColumn("CurrentStatus", models.PurchaseQuotationStatusConverted).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := models.CreateHistory(tx.WithContext(ctx), "Create", order.ID, "purchase_orders", nil, order,
		"Converted purchase quotation "+quotation.QuotationNumber+" to purchase order "+order.OrderNumber); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := models.RemoveRedisBoth(quotation); err != nil {
		return nil, err
	}
	return &order, nil
}
