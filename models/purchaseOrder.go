package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseOrder struct {
	ID                     int                    `gorm:"primary_key" json:"id"`
	BusinessId             string                 `gorm:"index;not null" json:"business_id" binding:"required"`
	SupplierId             int                    `gorm:"index;not null" json:"supplier_id" binding:"required"`
	BranchId               int                    `gorm:"index;not null" json:"branch_id"`
	OrderNumber            string                 `gorm:"size:255;not null" json:"order_number"`
	SequenceNo             decimal.Decimal        `gorm:"type:decimal(15);not null" json:"sequence_no"`
	ReferenceNumber        string                 `gorm:"size:255;default:null" json:"reference_number"`
	OrderDate              time.Time              `gorm:"not null" json:"order_date" binding:"required"`
	DeliveryDate           *time.Time             `gorm:"default:null" json:"delivery_date"`
	ContactPersonId        int                    `gorm:"default:null" json:"contact_person_id"`
	BillingAddress         string                 `gorm:"type:text;default:null" json:"billing_address"`
	ShippingAddress        string                 `gorm:"type:text;default:null" json:"shipping_address"`
	CurrencyId             int                    `gorm:"not null" json:"currency_id" binding:"required"`
	PaymentTerms           PaymentTerms           `gorm:"type:enum('Net15','Net30','Net45','Net60','DueMonthEnd','DueNextMonthEnd','DueOnReceipt','Custom');not null" json:"payment_terms" binding:"required"`
	PaymentTermsCustomDays int                    `gorm:"default:0" json:"payment_terms_custom_days"`
	DiscountAmount         decimal.Decimal        `gorm:"type:decimal(20,2);default:0" json:"discount_amount"`
	TaxAmount              decimal.Decimal        `gorm:"type:decimal(20,2);default:0" json:"tax_amount"`
	TotalAmount            decimal.Decimal        `gorm:"type:decimal(20,2);default:0" json:"total_amount"`
	PayableAmount          decimal.Decimal        `gorm:"type:decimal(20,2);default:0" json:"payable_amount"`
	PaidAmount             decimal.Decimal        `gorm:"type:decimal(20,2);default:0" json:"paid_amount"`
	DueAmount              decimal.Decimal        `gorm:"type:decimal(20,2);default:0" json:"due_amount"`
	PaymentModeId          int                    `gorm:"default:null" json:"payment_mode_id"`
	PaymentReference       string                 `gorm:"size:255;default:null" json:"payment_reference"`
	PaymentDate            *time.Time             `gorm:"default:null" json:"payment_date"`
	Remarks                string                 `gorm:"type:text;default:null" json:"remarks"`
	EmployeeName           string                 `gorm:"size:100;default:null" json:"employee_name"`
	CurrentStatus          PurchaseOrderStatus    `gorm:"type:enum('Draft','Open','Closed','Cancelled');not null" json:"current_status"`
	FulfillmentStatus      OrderFulfillmentStatus `gorm:"type:enum('Open','Partially Received','Received');not null;default:'Open'" json:"fulfillment_status"`
	BillingStatus          OrderBillingStatus     `gorm:"type:enum('Open','Partially Invoiced','Invoiced');not null;default:'Open'" json:"billing_status"`
	Details                []PurchaseOrderDetail  `json:"details"`
	CreatedAt              time.Time              `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time              `gorm:"autoUpdateTime" json:"updated_at"`
}

type PurchaseOrderDetail struct {
	ID              int             `gorm:"primary_key" json:"id"`
	PurchaseOrderId int             `gorm:"index;not null" json:"purchase_order_id"`
	ItemCode        string          `gorm:"size:100;not null" json:"item_code" binding:"required"`
	ItemName        string          `gorm:"size:255" json:"item_name"`
	Quantity        decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"quantity" binding:"required"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"unit_price"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"total_amount"`
	Uom             string          `gorm:"size:50;default:null" json:"uom"`
	Remarks         string          `gorm:"type:text;default:null" json:"remarks"`
}

type NewPurchaseOrder struct {
	SupplierId             int                      `json:"supplier_id" binding:"required"`
	BranchId               int                      `json:"branch_id" binding:"required"`
	ReferenceNumber        string                   `json:"reference_number"`
	OrderDate              time.Time                `json:"order_date" binding:"required"`
	DeliveryDate           *time.Time               `json:"delivery_date"`
	ContactPersonId        int                      `json:"contact_person_id"`
	BillingAddress         string                   `json:"billing_address"`
	ShippingAddress        string                   `json:"shipping_address"`
	CurrencyId             int                      `json:"currency_id" binding:"required"`
	PaymentTerms           PaymentTerms             `json:"payment_terms" binding:"required"`
	PaymentTermsCustomDays int                      `json:"payment_terms_custom_days"`
	DiscountAmount         decimal.Decimal          `json:"discount_amount"`
	TaxAmount              decimal.Decimal          `json:"tax_amount"`
	PaidAmount             decimal.Decimal          `json:"paid_amount"`
	PaymentModeId          int                      `json:"payment_mode_id"`
	PaymentReference       string                   `json:"payment_reference"`
	PaymentDate            *time.Time               `json:"payment_date"`
	Remarks                string                   `json:"remarks"`
	EmployeeName           string                   `json:"employee_name"`
	CurrentStatus          PurchaseOrderStatus      `json:"current_status"`
	Details                []NewPurchaseOrderDetail `json:"details"`
}

type NewPurchaseOrderDetail struct {
	DetailId      int             `json:"detail_id"`
	ItemCode      string          `json:"item_code" binding:"required"`
	ItemName      string          `json:"item_name"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Uom           string          `json:"uom"`
	Remarks       string          `json:"remarks"`
	IsDeletedItem *bool           `json:"is_deleted_item"`
}

// DisplayStatus folds the lifecycle and the two progress dimensions into the
// single status callers show on a document list. Terminal lifecycle wins,
// then fulfillment progress, then billing progress.
func (po PurchaseOrder) DisplayStatus() string {
	if po.CurrentStatus == PurchaseOrderStatusClosed || po.CurrentStatus == PurchaseOrderStatusCancelled || po.CurrentStatus == PurchaseOrderStatusDraft {
		return string(po.CurrentStatus)
	}
	if po.FulfillmentStatus != OrderFulfillmentStatusOpen {
		return string(po.FulfillmentStatus)
	}
	if po.BillingStatus != OrderBillingStatusOpen {
		return string(po.BillingStatus)
	}
	return string(po.CurrentStatus)
}

// an order with receipts or invoices against it can no longer be edited or
// deleted; cancel downstream documents first
func (po PurchaseOrder) hasConversionProgress() bool {
	return po.FulfillmentStatus != OrderFulfillmentStatusOpen ||
		po.BillingStatus != OrderBillingStatusOpen
}

// enforceOrderLineFloor refuses shrinking or deleting an order line below the
// quantity downstream receipts and invoices already drew from it. Deletes pass
// decimal.Zero as the new quantity.
func enforceOrderLineFloor(tx *gorm.DB, ctx context.Context, line PurchaseOrderDetail, newQty decimal.Decimal) error {
	received, err := ConvertedReceiptQty(tx, ctx, line.ID, 0)
	if err != nil {
		return err
	}
	if newQty.LessThan(received) {
		return utils.NewStateError("order qty cannot drop below already received qty")
	}
	invoiced, err := ConvertedInvoiceQtyFromOrderLine(tx, ctx, line.ID, 0)
	if err != nil {
		return err
	}
	if newQty.LessThan(invoiced) {
		return utils.NewStateError("order qty cannot drop below already invoiced qty")
	}
	return nil
}

func (input NewPurchaseOrder) validate(ctx context.Context, businessId string, _ int) error {

	// exists supplier
	if err := utils.ValidateResourceId[Supplier](ctx, businessId, input.SupplierId); err != nil {
		return errors.New("supplier not found")
	}
	// exists branch
	if err := utils.ValidateResourceId[Branch](ctx, businessId, input.BranchId); err != nil {
		return errors.New("branch not found")
	}
	// exists currency
	if err := utils.ValidateResourceId[Currency](ctx, businessId, input.CurrencyId); err != nil {
		return errors.New("currency not found")
	}
	if _, err := ParsePaymentTerms(string(input.PaymentTerms)); err != nil {
		return err
	}
	if input.CurrentStatus != "" {
		if _, err := ParsePurchaseOrderStatus(string(input.CurrentStatus)); err != nil {
			return err
		}
	}
	for _, detail := range input.Details {
		if detail.IsDeletedItem != nil && *detail.IsDeletedItem {
			continue
		}
		if err := validateLineInput(detail.ItemCode, detail.Quantity, detail.UnitPrice); err != nil {
			return err
		}
	}
	return nil
}

func CreatePurchaseOrder(ctx context.Context, input *NewPurchaseOrder) (*PurchaseOrder, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	var details []PurchaseOrderDetail
	var lineTotals []decimal.Decimal
	for _, item := range input.Details {
		detail := PurchaseOrderDetail{
			ItemCode:    item.ItemCode,
			ItemName:    item.ItemName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalAmount: utils.CalculateLineTotal(item.Quantity, item.UnitPrice),
			Uom:         item.Uom,
			Remarks:     item.Remarks,
		}
		lineTotals = append(lineTotals, detail.TotalAmount)
		details = append(details, detail)
	}

	total, payable, due := utils.CalculateHeaderTotals(lineTotals, input.DiscountAmount, input.PaidAmount)

	status := input.CurrentStatus
	if status == "" {
		status = PurchaseOrderStatusDraft
	}

	purchaseOrder := PurchaseOrder{
		BusinessId:             businessId,
		SupplierId:             input.SupplierId,
		BranchId:               input.BranchId,
		ReferenceNumber:        input.ReferenceNumber,
		OrderDate:              input.OrderDate,
		DeliveryDate:           input.DeliveryDate,
		ContactPersonId:        input.ContactPersonId,
		BillingAddress:         input.BillingAddress,
		ShippingAddress:        input.ShippingAddress,
		CurrencyId:             input.CurrencyId,
		PaymentTerms:           input.PaymentTerms,
		PaymentTermsCustomDays: input.PaymentTermsCustomDays,
		DiscountAmount:         input.DiscountAmount,
		TaxAmount:              input.TaxAmount,
		TotalAmount:            total,
		PayableAmount:          payable,
		PaidAmount:             input.PaidAmount,
		DueAmount:              due,
		PaymentModeId:          input.PaymentModeId,
		PaymentReference:       input.PaymentReference,
		PaymentDate:            input.PaymentDate,
		Remarks:                input.Remarks,
		EmployeeName:           input.EmployeeName,
		CurrentStatus:          status,
		FulfillmentStatus:      OrderFulfillmentStatusOpen,
		BillingStatus:          OrderBillingStatusOpen,
		Details:                details,
	}

	tx := db.Begin()

	seqNo, err := utils.GetSequence[PurchaseOrder](ctx, businessId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	prefix, err := getTransactionPrefix(ctx, input.BranchId, "Purchase Order")
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	purchaseOrder.SequenceNo = decimal.NewFromInt(seqNo)
	purchaseOrder.OrderNumber = prefix + fmt.Sprint(seqNo)

	if err := tx.WithContext(ctx).Create(&purchaseOrder).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := createHistory(tx.WithContext(ctx), "Create", purchaseOrder.ID, "purchase_orders", nil, purchaseOrder, "Created purchase order "+purchaseOrder.OrderNumber); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &purchaseOrder, nil
}

func UpdatePurchaseOrder(ctx context.Context, id int, input *NewPurchaseOrder) (*PurchaseOrder, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	existing, err := utils.FetchModel[PurchaseOrder](ctx, businessId, id, "Details")
	if err != nil {
		return nil, err
	}

	if existing.CurrentStatus.BlocksConversion() {
		return nil, utils.NewStateError("cannot edit a " + string(existing.CurrentStatus) + " purchase order")
	}
	// strict mode forbids editing a converted-from order outright; the default
	// mode allows it but floors each line at its converted quantity below
	if existing.hasConversionProgress() && config.StrictConvertedDocImmutability() {
		return nil, utils.NewStateError("purchase orders with receipts or invoices against them cannot be edited")
	}

	existing.SupplierId = input.SupplierId
	existing.BranchId = input.BranchId
	existing.ReferenceNumber = input.ReferenceNumber
	existing.OrderDate = input.OrderDate
	existing.DeliveryDate = input.DeliveryDate
	existing.ContactPersonId = input.ContactPersonId
	existing.BillingAddress = input.BillingAddress
	existing.ShippingAddress = input.ShippingAddress
	existing.CurrencyId = input.CurrencyId
	existing.PaymentTerms = input.PaymentTerms
	existing.PaymentTermsCustomDays = input.PaymentTermsCustomDays
	existing.DiscountAmount = input.DiscountAmount
	existing.TaxAmount = input.TaxAmount
	existing.PaidAmount = input.PaidAmount
	existing.PaymentModeId = input.PaymentModeId
	existing.PaymentReference = input.PaymentReference
	existing.PaymentDate = input.PaymentDate
	existing.Remarks = input.Remarks
	existing.EmployeeName = input.EmployeeName

	tx := db.Begin()

	for _, updated := range input.Details {
		var existingItem *PurchaseOrderDetail
		existingIndex := -1
		for i := range existing.Details {
			if existing.Details[i].ID == updated.DetailId {
				existingItem = &existing.Details[i]
				existingIndex = i
				break
			}
		}

		if existingItem == nil {
			if updated.IsDeletedItem != nil && *updated.IsDeletedItem {
				continue
			}
			newItem := PurchaseOrderDetail{
				PurchaseOrderId: id,
				ItemCode:        updated.ItemCode,
				ItemName:        updated.ItemName,
				Quantity:        updated.Quantity,
				UnitPrice:       updated.UnitPrice,
				TotalAmount:     utils.CalculateLineTotal(updated.Quantity, updated.UnitPrice),
				Uom:             updated.Uom,
				Remarks:         updated.Remarks,
			}
			if err := tx.WithContext(ctx).Create(&newItem).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
			existing.Details = append(existing.Details, newItem)
			continue
		}

		if updated.IsDeletedItem != nil && *updated.IsDeletedItem {
			if err := enforceOrderLineFloor(tx, ctx, *existingItem, decimal.Zero); err != nil {
				tx.Rollback()
				return nil, err
			}
			if err := tx.WithContext(ctx).Delete(existingItem).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
			existing.Details = append(existing.Details[:existingIndex], existing.Details[existingIndex+1:]...)
			continue
		}

		if updated.Quantity.LessThan(existingItem.Quantity) {
			if err := enforceOrderLineFloor(tx, ctx, *existingItem, updated.Quantity); err != nil {
				tx.Rollback()
				return nil, err
			}
		}
		existingItem.ItemCode = updated.ItemCode
		existingItem.ItemName = updated.ItemName
		existingItem.Quantity = updated.Quantity
		existingItem.UnitPrice = updated.UnitPrice
		existingItem.TotalAmount = utils.CalculateLineTotal(updated.Quantity, updated.UnitPrice)
		existingItem.Uom = updated.Uom
		existingItem.Remarks = updated.Remarks
		if err := tx.WithContext(ctx).Save(existingItem).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	var lineTotals []decimal.Decimal
	for _, detail := range existing.Details {
		lineTotals = append(lineTotals, detail.TotalAmount)
	}
	existing.TotalAmount, existing.PayableAmount, existing.DueAmount =
		utils.CalculateHeaderTotals(lineTotals, existing.DiscountAmount, existing.PaidAmount)

	if err := tx.WithContext(ctx).Save(&existing).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// line quantities moved, so the coverage thresholds did too
	refreshed, err := ChangeOrderFulfillmentStatus(tx, ctx, businessId, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	existing.FulfillmentStatus = refreshed.FulfillmentStatus
	refreshed, err = ChangeOrderBillingStatus(tx, ctx, businessId, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	existing.BillingStatus = refreshed.BillingStatus

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func DeletePurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	result, err := utils.FetchModel[PurchaseOrder](ctx, businessId, id, "Details")
	if err != nil {
		return nil, err
	}

	if result.CurrentStatus == PurchaseOrderStatusClosed {
		return nil, utils.NewStateError("cannot delete purchase order that is already closed")
	}
	if result.hasConversionProgress() {
		return nil, utils.NewStateError("purchase orders with receipts or invoices against them cannot be deleted")
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(&result).Association("Details").Unscoped().Clear(); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Delete(&result).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*result); err != nil {
		return nil, err
	}
	return result, nil
}

func GetPurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[PurchaseOrder](ctx, businessId, id, "Details")
}

func GetPurchaseOrders(ctx context.Context, orderNumber *string) ([]*PurchaseOrder, error) {
	db := config.GetDB()
	var results []*PurchaseOrder

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if orderNumber != nil && len(*orderNumber) > 0 {
		dbCtx = dbCtx.Where("order_number LIKE ?", "%"+*orderNumber+"%")
	}
	err := dbCtx.
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func UpdateStatusPurchaseOrder(ctx context.Context, id int, status string) (*PurchaseOrder, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	newStatus, err := ParsePurchaseOrderStatus(status)
	if err != nil {
		return nil, err
	}

	po, err := utils.FetchModel[PurchaseOrder](ctx, businessId, id, "Details")
	if err != nil {
		return nil, err
	}

	if po.CurrentStatus == PurchaseOrderStatusClosed {
		return nil, utils.NewStateError("cannot update purchase order that is already closed")
	}
	if newStatus == PurchaseOrderStatusCancelled && po.hasConversionProgress() {
		return nil, utils.NewStateError("purchase orders with receipts or invoices against them cannot be cancelled")
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(&po).UpdateColumn("CurrentStatus", newStatus).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := createHistory(tx.WithContext(ctx), "Update", id, "purchase_orders", nil, nil, "Updated current status to "+status); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	po.CurrentStatus = newStatus
	if err := RemoveRedisBoth(*po); err != nil {
		return nil, err
	}
	return po, nil
}
