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

type GoodsReceipt struct {
	ID                     int                  `gorm:"primary_key" json:"id"`
	BusinessId             string               `gorm:"index;not null" json:"business_id" binding:"required"`
	SupplierId             int                  `gorm:"index;not null" json:"supplier_id" binding:"required"`
	BranchId               int                  `gorm:"index;not null" json:"branch_id"`
	ReceiptNumber          string               `gorm:"size:255;not null" json:"receipt_number"`
	SequenceNo             decimal.Decimal      `gorm:"type:decimal(15);not null" json:"sequence_no"`
	ReferenceNumber        string               `gorm:"size:255;default:null" json:"reference_number"`
	ReceiptDate            time.Time            `gorm:"not null" json:"receipt_date" binding:"required"`
	PostingDate            *time.Time           `gorm:"default:null" json:"posting_date"`
	PurchaseOrderId        int                  `gorm:"index;default:null" json:"purchase_order_id"`
	WarehouseId            int                  `gorm:"default:null" json:"warehouse_id"`
	ContactPersonId        int                  `gorm:"default:null" json:"contact_person_id"`
	BillingAddress         string               `gorm:"type:text;default:null" json:"billing_address"`
	ShippingAddress        string               `gorm:"type:text;default:null" json:"shipping_address"`
	CurrencyId             int                  `gorm:"not null" json:"currency_id" binding:"required"`
	PaymentTerms           PaymentTerms         `gorm:"type:enum('Net15','Net30','Net45','Net60','DueMonthEnd','DueNextMonthEnd','DueOnReceipt','Custom');not null" json:"payment_terms" binding:"required"`
	PaymentTermsCustomDays int                  `gorm:"default:0" json:"payment_terms_custom_days"`
	DiscountAmount         decimal.Decimal      `gorm:"type:decimal(20,2);default:0" json:"discount_amount"`
	TaxAmount              decimal.Decimal      `gorm:"type:decimal(20,2);default:0" json:"tax_amount"`
	TotalAmount            decimal.Decimal      `gorm:"type:decimal(20,2);default:0" json:"total_amount"`
	PayableAmount          decimal.Decimal      `gorm:"type:decimal(20,2);default:0" json:"payable_amount"`
	PaidAmount             decimal.Decimal      `gorm:"type:decimal(20,2);default:0" json:"paid_amount"`
	DueAmount              decimal.Decimal      `gorm:"type:decimal(20,2);default:0" json:"due_amount"`
	PaymentModeId          int                  `gorm:"default:null" json:"payment_mode_id"`
	PaymentReference       string               `gorm:"size:255;default:null" json:"payment_reference"`
	PaymentDate            *time.Time           `gorm:"default:null" json:"payment_date"`
	Remarks                string               `gorm:"type:text;default:null" json:"remarks"`
	EmployeeName           string               `gorm:"size:100;default:null" json:"employee_name"`
	CurrentStatus          GoodsReceiptStatus   `gorm:"type:enum('Draft','Open','Partially Received','Received','Closed','Cancelled');not null" json:"current_status"`
	Details                []GoodsReceiptDetail `json:"details"`
	CreatedAt              time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

type GoodsReceiptDetail struct {
	ID                  int             `gorm:"primary_key" json:"id"`
	GoodsReceiptId      int             `gorm:"index;not null" json:"goods_receipt_id"`
	PurchaseOrderItemId int             `gorm:"index;default:null" json:"purchase_order_item_id"`
	ItemCode            string          `gorm:"size:100;not null" json:"item_code" binding:"required"`
	ItemName            string          `gorm:"size:255" json:"item_name"`
	Quantity            decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"quantity" binding:"required"`
	UnitPrice           decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"unit_price"`
	TotalAmount         decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"total_amount"`
	Uom                 string          `gorm:"size:50;default:null" json:"uom"`
	Remarks             string          `gorm:"type:text;default:null" json:"remarks"`
}

type NewGoodsReceipt struct {
	SupplierId             int                     `json:"supplier_id" binding:"required"`
	BranchId               int                     `json:"branch_id" binding:"required"`
	ReferenceNumber        string                  `json:"reference_number"`
	ReceiptDate            time.Time               `json:"receipt_date" binding:"required"`
	PostingDate            *time.Time              `json:"posting_date"`
	PurchaseOrderId        int                     `json:"purchase_order_id"`
	WarehouseId            int                     `json:"warehouse_id"`
	ContactPersonId        int                     `json:"contact_person_id"`
	BillingAddress         string                  `json:"billing_address"`
	ShippingAddress        string                  `json:"shipping_address"`
	CurrencyId             int                     `json:"currency_id" binding:"required"`
	PaymentTerms           PaymentTerms            `json:"payment_terms" binding:"required"`
	PaymentTermsCustomDays int                     `json:"payment_terms_custom_days"`
	DiscountAmount         decimal.Decimal         `json:"discount_amount"`
	TaxAmount              decimal.Decimal         `json:"tax_amount"`
	PaidAmount             decimal.Decimal         `json:"paid_amount"`
	PaymentModeId          int                     `json:"payment_mode_id"`
	PaymentReference       string                  `json:"payment_reference"`
	PaymentDate            *time.Time              `json:"payment_date"`
	Remarks                string                  `json:"remarks"`
	EmployeeName           string                  `json:"employee_name"`
	CurrentStatus          GoodsReceiptStatus      `json:"current_status"`
	Details                []NewGoodsReceiptDetail `json:"details"`
}

type NewGoodsReceiptDetail struct {
	DetailId            int             `json:"detail_id"`
	PurchaseOrderItemId int             `json:"purchase_order_item_id"`
	ItemCode            string          `json:"item_code" binding:"required"`
	ItemName            string          `json:"item_name"`
	Quantity            decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	Uom                 string          `json:"uom"`
	Remarks             string          `json:"remarks"`
	IsDeletedItem       *bool           `json:"is_deleted_item"`
}

// receipt lines with invoices or returns against them pin the receipt;
// cancelling it would un-count quantity that downstream documents rely on
func (gr GoodsReceipt) hasDownstreamDocuments(tx *gorm.DB, ctx context.Context) (bool, error) {
	for _, detail := range gr.Details {
		invoiced, err := ConvertedInvoiceQtyFromReceiptLine(tx, ctx, detail.ID, 0)
		if err != nil {
			return false, err
		}
		if invoiced.IsPositive() {
			return true, nil
		}
		returned, err := ConvertedReturnQtyFromReceiptLine(tx, ctx, detail.ID, 0)
		if err != nil {
			return false, err
		}
		if returned.IsPositive() {
			return true, nil
		}
	}
	return false, nil
}

// enforceReceiptLineFloor refuses shrinking or deleting a receipt line below
// the quantity downstream invoices and returns already drew from it. Deletes
// pass decimal.Zero as the new quantity.
func enforceReceiptLineFloor(tx *gorm.DB, ctx context.Context, line GoodsReceiptDetail, newQty decimal.Decimal) error {
	invoiced, err := ConvertedInvoiceQtyFromReceiptLine(tx, ctx, line.ID, 0)
	if err != nil {
		return err
	}
	if newQty.LessThan(invoiced) {
		return utils.NewStateError("receipt qty cannot drop below already invoiced qty")
	}
	returned, err := ConvertedReturnQtyFromReceiptLine(tx, ctx, line.ID, 0)
	if err != nil {
		return err
	}
	if newQty.LessThan(returned) {
		return utils.NewStateError("receipt qty cannot drop below already returned qty")
	}
	return nil
}

func (input NewGoodsReceipt) validate(ctx context.Context, businessId string, _ int) error {

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
	if input.WarehouseId > 0 {
		if err := utils.ValidateResourceId[Warehouse](ctx, businessId, input.WarehouseId); err != nil {
			return errors.New("warehouse not found")
		}
	}
	if _, err := ParsePaymentTerms(string(input.PaymentTerms)); err != nil {
		return err
	}
	if input.CurrentStatus != "" {
		if _, err := ParseGoodsReceiptStatus(string(input.CurrentStatus)); err != nil {
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

// enforceReceiptQtyCap rejects any receipt line that would push the summed
// counted receipt quantity past its order line's quantity. excludeReceiptId
// carves out the receipt being updated in place.
func enforceReceiptQtyCap(tx *gorm.DB, ctx context.Context, detail NewGoodsReceiptDetail, excludeReceiptId int) error {
	if detail.PurchaseOrderItemId <= 0 {
		return nil
	}
	var poLine PurchaseOrderDetail
	if err := tx.WithContext(ctx).First(&poLine, detail.PurchaseOrderItemId).Error; err != nil {
		return errors.New("purchase order item not found")
	}
	remaining, err := RemainingReceiptQty(tx, ctx, poLine, excludeReceiptId)
	if err != nil {
		return err
	}
	if detail.Quantity.GreaterThan(remaining) {
		return errors.New("receipt qty must be equal or less than purchase order qty")
	}
	return nil
}

func CreateGoodsReceipt(ctx context.Context, input *NewGoodsReceipt) (*GoodsReceipt, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	// a receipt against a closed or cancelled order is refused
	if input.PurchaseOrderId > 0 {
		po, err := utils.FetchModel[PurchaseOrder](ctx, businessId, input.PurchaseOrderId)
		if err != nil {
			return nil, errors.New("purchase order not found")
		}
		if po.CurrentStatus.BlocksConversion() {
			return nil, utils.NewStateError("cannot receive against a " + string(po.CurrentStatus) + " purchase order")
		}
	}

	status := input.CurrentStatus
	if status == "" {
		status = GoodsReceiptStatusDraft
	}

	tx := db.Begin()

	var details []GoodsReceiptDetail
	var lineTotals []decimal.Decimal
	for _, item := range input.Details {
		if err := enforceReceiptQtyCap(tx, ctx, item, 0); err != nil {
			tx.Rollback()
			return nil, err
		}
		detail := GoodsReceiptDetail{
			PurchaseOrderItemId: item.PurchaseOrderItemId,
			ItemCode:            item.ItemCode,
			ItemName:            item.ItemName,
			Quantity:            item.Quantity,
			UnitPrice:           item.UnitPrice,
			TotalAmount:         utils.CalculateLineTotal(item.Quantity, item.UnitPrice),
			Uom:                 item.Uom,
			Remarks:             item.Remarks,
		}
		lineTotals = append(lineTotals, detail.TotalAmount)
		details = append(details, detail)
	}

	total, payable, due := utils.CalculateHeaderTotals(lineTotals, input.DiscountAmount, input.PaidAmount)

	receipt := GoodsReceipt{
		BusinessId:             businessId,
		SupplierId:             input.SupplierId,
		BranchId:               input.BranchId,
		ReferenceNumber:        input.ReferenceNumber,
		ReceiptDate:            input.ReceiptDate,
		PostingDate:            input.PostingDate,
		PurchaseOrderId:        input.PurchaseOrderId,
		WarehouseId:            input.WarehouseId,
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
		Details:                details,
	}

	seqNo, err := utils.GetSequence[GoodsReceipt](ctx, businessId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	prefix, err := getTransactionPrefix(ctx, input.BranchId, "Goods Receipt")
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	receipt.SequenceNo = decimal.NewFromInt(seqNo)
	receipt.ReceiptNumber = prefix + fmt.Sprint(seqNo)

	if err := tx.WithContext(ctx).Create(&receipt).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// a counted receipt moves the order's fulfillment needle
	if input.PurchaseOrderId > 0 {
		if _, err := ChangeOrderFulfillmentStatus(tx, ctx, businessId, input.PurchaseOrderId); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := createHistory(tx.WithContext(ctx), "Create", receipt.ID, "goods_receipts", nil, receipt, "Created goods receipt "+receipt.ReceiptNumber); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

func UpdateGoodsReceipt(ctx context.Context, id int, input *NewGoodsReceipt) (*GoodsReceipt, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	existing, err := utils.FetchModel[GoodsReceipt](ctx, businessId, id, "Details")
	if err != nil {
		return nil, err
	}

	if existing.CurrentStatus.BlocksConversion() {
		return nil, utils.NewStateError("cannot edit a " + string(existing.CurrentStatus) + " goods receipt")
	}

	tx := db.Begin()

	// strict mode forbids editing a receipt that invoices or returns already
	// draw on; the default mode allows it but floors each line at its
	// converted quantity below
	if config.StrictConvertedDocImmutability() {
		downstream, err := existing.hasDownstreamDocuments(tx, ctx)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if downstream {
			tx.Rollback()
			return nil, utils.NewStateError("goods receipts with invoices or returns against them cannot be edited")
		}
	}

	existing.SupplierId = input.SupplierId
	existing.BranchId = input.BranchId
	existing.ReferenceNumber = input.ReferenceNumber
	existing.ReceiptDate = input.ReceiptDate
	existing.PostingDate = input.PostingDate
	existing.WarehouseId = input.WarehouseId
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

	for _, updated := range input.Details {
		var existingItem *GoodsReceiptDetail
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
			if err := enforceReceiptQtyCap(tx, ctx, updated, id); err != nil {
				tx.Rollback()
				return nil, err
			}
			newItem := GoodsReceiptDetail{
				GoodsReceiptId:      id,
				PurchaseOrderItemId: updated.PurchaseOrderItemId,
				ItemCode:            updated.ItemCode,
				ItemName:            updated.ItemName,
				Quantity:            updated.Quantity,
				UnitPrice:           updated.UnitPrice,
				TotalAmount:         utils.CalculateLineTotal(updated.Quantity, updated.UnitPrice),
				Uom:                 updated.Uom,
				Remarks:             updated.Remarks,
			}
			if err := tx.WithContext(ctx).Create(&newItem).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
			existing.Details = append(existing.Details, newItem)
			continue
		}

		if updated.IsDeletedItem != nil && *updated.IsDeletedItem {
			if err := enforceReceiptLineFloor(tx, ctx, *existingItem, decimal.Zero); err != nil {
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
			if err := enforceReceiptLineFloor(tx, ctx, *existingItem, updated.Quantity); err != nil {
				tx.Rollback()
				return nil, err
			}
		}
		if err := enforceReceiptQtyCap(tx, ctx, updated, id); err != nil {
			tx.Rollback()
			return nil, err
		}
		existingItem.PurchaseOrderItemId = updated.PurchaseOrderItemId
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

	if existing.PurchaseOrderId > 0 {
		if _, err := ChangeOrderFulfillmentStatus(tx, ctx, businessId, existing.PurchaseOrderId); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func GetGoodsReceipt(ctx context.Context, id int) (*GoodsReceipt, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[GoodsReceipt](ctx, businessId, id, "Details")
}

func GetGoodsReceipts(ctx context.Context, receiptNumber *string) ([]*GoodsReceipt, error) {
	db := config.GetDB()
	var results []*GoodsReceipt

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if receiptNumber != nil && len(*receiptNumber) > 0 {
		dbCtx = dbCtx.Where("receipt_number LIKE ?", "%"+*receiptNumber+"%")
	}
	err := dbCtx.
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// UpdateStatusGoodsReceipt sets a caller-chosen status. Conversions never
// re-derive a receipt's own status; this is the only way it moves. Moving in
// or out of a counted status shifts the source order's fulfillment progress,
// so that is re-derived here too.
func UpdateStatusGoodsReceipt(ctx context.Context, id int, status string) (*GoodsReceipt, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	newStatus, err := ParseGoodsReceiptStatus(status)
	if err != nil {
		return nil, err
	}

	receipt, err := utils.FetchModel[GoodsReceipt](ctx, businessId, id, "Details")
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()

	if newStatus == GoodsReceiptStatusCancelled {
		downstream, err := receipt.hasDownstreamDocuments(tx, ctx)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if downstream {
			tx.Rollback()
			return nil, utils.NewStateError("goods receipts with invoices or returns against them cannot be cancelled")
		}
	}

	if err := tx.WithContext(ctx).Model(&receipt).UpdateColumn("CurrentStatus", newStatus).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	receipt.CurrentStatus = newStatus

	if receipt.PurchaseOrderId > 0 {
		if _, err := ChangeOrderFulfillmentStatus(tx, ctx, businessId, receipt.PurchaseOrderId); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := createHistory(tx.WithContext(ctx), "Update", id, "goods_receipts", nil, nil, "Updated current status to "+status); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}
