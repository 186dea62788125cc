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

type GoodsReturn struct {
	ID              int                 `gorm:"primary_key" json:"id"`
	BusinessId      string              `gorm:"index;not null" json:"business_id" binding:"required"`
	SupplierId      int                 `gorm:"index;not null" json:"supplier_id" binding:"required"`
	BranchId        int                 `gorm:"index;not null" json:"branch_id"`
	ReturnNumber    string              `gorm:"size:255;not null" json:"return_number"`
	SequenceNo      decimal.Decimal     `gorm:"type:decimal(15);not null" json:"sequence_no"`
	ReferenceNumber string              `gorm:"size:255;default:null" json:"reference_number"`
	ReturnDate      time.Time           `gorm:"not null" json:"return_date" binding:"required"`
	ReturnReason    string              `gorm:"type:text;default:null" json:"return_reason"`
	PurchaseOrderId int                 `gorm:"index;default:null" json:"purchase_order_id"`
	GoodsReceiptId  int                 `gorm:"index;default:null" json:"goods_receipt_id"`
	WarehouseId     int                 `gorm:"default:null" json:"warehouse_id"`
	ContactPersonId int                 `gorm:"default:null" json:"contact_person_id"`
	BillingAddress  string              `gorm:"type:text;default:null" json:"billing_address"`
	ShippingAddress string              `gorm:"type:text;default:null" json:"shipping_address"`
	CurrencyId      int                 `gorm:"not null" json:"currency_id" binding:"required"`
	DiscountAmount  decimal.Decimal     `gorm:"type:decimal(20,2);default:0" json:"discount_amount"`
	TaxAmount       decimal.Decimal     `gorm:"type:decimal(20,2);default:0" json:"tax_amount"`
	TotalAmount     decimal.Decimal     `gorm:"type:decimal(20,2);default:0" json:"total_amount"`
	PayableAmount   decimal.Decimal     `gorm:"type:decimal(20,2);default:0" json:"payable_amount"`
	PaidAmount      decimal.Decimal     `gorm:"type:decimal(20,2);default:0" json:"paid_amount"`
	DueAmount       decimal.Decimal     `gorm:"type:decimal(20,2);default:0" json:"due_amount"`
	Remarks         string              `gorm:"type:text;default:null" json:"remarks"`
	EmployeeName    string              `gorm:"size:100;default:null" json:"employee_name"`
	CurrentStatus   GoodsReturnStatus   `gorm:"type:enum('Draft','Open','Returned','Closed','Cancelled');not null" json:"current_status"`
	Details         []GoodsReturnDetail `json:"details"`
	CreatedAt       time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type GoodsReturnDetail struct {
	ID                  int             `gorm:"primary_key" json:"id"`
	GoodsReturnId       int             `gorm:"index;not null" json:"goods_return_id"`
	GoodsReceiptItemId  int             `gorm:"index;default:null" json:"goods_receipt_item_id"`
	PurchaseOrderItemId int             `gorm:"index;default:null" json:"purchase_order_item_id"`
	ItemCode            string          `gorm:"size:100;not null" json:"item_code" binding:"required"`
	ItemName            string          `gorm:"size:255" json:"item_name"`
	Quantity            decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"quantity" binding:"required"`
	UnitPrice           decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"unit_price"`
	TotalAmount         decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"total_amount"`
	Uom                 string          `gorm:"size:50;default:null" json:"uom"`
	Remarks             string          `gorm:"type:text;default:null" json:"remarks"`
}

type NewGoodsReturn struct {
	SupplierId      int                    `json:"supplier_id" binding:"required"`
	BranchId        int                    `json:"branch_id" binding:"required"`
	ReferenceNumber string                 `json:"reference_number"`
	ReturnDate      time.Time              `json:"return_date" binding:"required"`
	ReturnReason    string                 `json:"return_reason"`
	PurchaseOrderId int                    `json:"purchase_order_id"`
	GoodsReceiptId  int                    `json:"goods_receipt_id"`
	WarehouseId     int                    `json:"warehouse_id"`
	ContactPersonId int                    `json:"contact_person_id"`
	BillingAddress  string                 `json:"billing_address"`
	ShippingAddress string                 `json:"shipping_address"`
	CurrencyId      int                    `json:"currency_id" binding:"required"`
	DiscountAmount  decimal.Decimal        `json:"discount_amount"`
	TaxAmount       decimal.Decimal        `json:"tax_amount"`
	PaidAmount      decimal.Decimal        `json:"paid_amount"`
	Remarks         string                 `json:"remarks"`
	EmployeeName    string                 `json:"employee_name"`
	CurrentStatus   GoodsReturnStatus      `json:"current_status"`
	Details         []NewGoodsReturnDetail `json:"details"`
}

type NewGoodsReturnDetail struct {
	DetailId            int             `json:"detail_id"`
	GoodsReceiptItemId  int             `json:"goods_receipt_item_id"`
	PurchaseOrderItemId int             `json:"purchase_order_item_id"`
	ItemCode            string          `json:"item_code" binding:"required"`
	ItemName            string          `json:"item_name"`
	Quantity            decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	Uom                 string          `json:"uom"`
	Remarks             string          `json:"remarks"`
	IsDeletedItem       *bool           `json:"is_deleted_item"`
}

func (input NewGoodsReturn) validate(ctx context.Context, businessId string, _ int) error {

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
	if input.CurrentStatus != "" {
		if _, err := ParseGoodsReturnStatus(string(input.CurrentStatus)); err != nil {
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

// enforceReturnQtyCap caps a return line referencing a receipt line at the
// receipt line's not-yet-returned quantity. Lines referencing only an order
// line are uncapped; the full-quantity return policy depends on that.
func enforceReturnQtyCap(tx *gorm.DB, ctx context.Context, detail NewGoodsReturnDetail, excludeReturnId int) error {
	if detail.GoodsReceiptItemId <= 0 {
		return nil
	}
	var receiptLine GoodsReceiptDetail
	if err := tx.WithContext(ctx).First(&receiptLine, detail.GoodsReceiptItemId).Error; err != nil {
		return errors.New("goods receipt item not found")
	}
	remaining, err := RemainingReturnQtyFromReceiptLine(tx, ctx, receiptLine, excludeReturnId)
	if err != nil {
		return err
	}
	if detail.Quantity.GreaterThan(remaining) {
		return errors.New("return qty must be equal or less than goods receipt qty")
	}
	return nil
}

func mapNewGoodsReturnDetail(item NewGoodsReturnDetail) GoodsReturnDetail {
	return GoodsReturnDetail{
		GoodsReceiptItemId:  item.GoodsReceiptItemId,
		PurchaseOrderItemId: item.PurchaseOrderItemId,
		ItemCode:            item.ItemCode,
		ItemName:            item.ItemName,
		Quantity:            item.Quantity,
		UnitPrice:           item.UnitPrice,
		TotalAmount:         utils.CalculateLineTotal(item.Quantity, item.UnitPrice),
		Uom:                 item.Uom,
		Remarks:             item.Remarks,
	}
}

func CreateGoodsReturn(ctx context.Context, input *NewGoodsReturn) (*GoodsReturn, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	if input.GoodsReceiptId > 0 {
		gr, err := utils.FetchModel[GoodsReceipt](ctx, businessId, input.GoodsReceiptId)
		if err != nil {
			return nil, errors.New("goods receipt not found")
		}
		if gr.CurrentStatus.BlocksConversion() {
			return nil, utils.NewStateError("cannot return against a " + string(gr.CurrentStatus) + " goods receipt")
		}
	}
	if input.PurchaseOrderId > 0 {
		po, err := utils.FetchModel[PurchaseOrder](ctx, businessId, input.PurchaseOrderId)
		if err != nil {
			return nil, errors.New("purchase order not found")
		}
		if po.CurrentStatus.BlocksConversion() {
			return nil, utils.NewStateError("cannot return against a " + string(po.CurrentStatus) + " purchase order")
		}
	}

	status := input.CurrentStatus
	if status == "" {
		status = GoodsReturnStatusDraft
	}

	tx := db.Begin()

	var details []GoodsReturnDetail
	var lineTotals []decimal.Decimal
	for _, item := range input.Details {
		if err := enforceReturnQtyCap(tx, ctx, item, 0); err != nil {
			tx.Rollback()
			return nil, err
		}
		detail := mapNewGoodsReturnDetail(item)
		lineTotals = append(lineTotals, detail.TotalAmount)
		details = append(details, detail)
	}

	total, payable, due := utils.CalculateHeaderTotals(lineTotals, input.DiscountAmount, input.PaidAmount)

	goodsReturn := GoodsReturn{
		BusinessId:      businessId,
		SupplierId:      input.SupplierId,
		BranchId:        input.BranchId,
		ReferenceNumber: input.ReferenceNumber,
		ReturnDate:      input.ReturnDate,
		ReturnReason:    input.ReturnReason,
		PurchaseOrderId: input.PurchaseOrderId,
		GoodsReceiptId:  input.GoodsReceiptId,
		WarehouseId:     input.WarehouseId,
		ContactPersonId: input.ContactPersonId,
		BillingAddress:  input.BillingAddress,
		ShippingAddress: input.ShippingAddress,
		CurrencyId:      input.CurrencyId,
		DiscountAmount:  input.DiscountAmount,
		TaxAmount:       input.TaxAmount,
		TotalAmount:     total,
		PayableAmount:   payable,
		PaidAmount:      input.PaidAmount,
		DueAmount:       due,
		Remarks:         input.Remarks,
		EmployeeName:    input.EmployeeName,
		CurrentStatus:   status,
		Details:         details,
	}

	seqNo, err := utils.GetSequence[GoodsReturn](ctx, businessId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	prefix, err := getTransactionPrefix(ctx, input.BranchId, "Goods Return")
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	goodsReturn.SequenceNo = decimal.NewFromInt(seqNo)
	goodsReturn.ReturnNumber = prefix + fmt.Sprint(seqNo)

	if err := tx.WithContext(ctx).Create(&goodsReturn).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := createHistory(tx.WithContext(ctx), "Create", goodsReturn.ID, "goods_returns", nil, goodsReturn, "Created goods return "+goodsReturn.ReturnNumber); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &goodsReturn, nil
}

func UpdateGoodsReturn(ctx context.Context, id int, input *NewGoodsReturn) (*GoodsReturn, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	existing, err := utils.FetchModel[GoodsReturn](ctx, businessId, id, "Details")
	if err != nil {
		return nil, err
	}

	if existing.CurrentStatus == GoodsReturnStatusClosed || existing.CurrentStatus == GoodsReturnStatusCancelled {
		return nil, utils.NewStateError("cannot edit a " + string(existing.CurrentStatus) + " goods return")
	}

	existing.SupplierId = input.SupplierId
	existing.BranchId = input.BranchId
	existing.ReferenceNumber = input.ReferenceNumber
	existing.ReturnDate = input.ReturnDate
	existing.ReturnReason = input.ReturnReason
	existing.WarehouseId = input.WarehouseId
	existing.ContactPersonId = input.ContactPersonId
	existing.BillingAddress = input.BillingAddress
	existing.ShippingAddress = input.ShippingAddress
	existing.CurrencyId = input.CurrencyId
	existing.DiscountAmount = input.DiscountAmount
	existing.TaxAmount = input.TaxAmount
	existing.PaidAmount = input.PaidAmount
	existing.Remarks = input.Remarks
	existing.EmployeeName = input.EmployeeName

	tx := db.Begin()

	for _, updated := range input.Details {
		var existingItem *GoodsReturnDetail
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
			if err := enforceReturnQtyCap(tx, ctx, updated, id); err != nil {
				tx.Rollback()
				return nil, err
			}
			newItem := mapNewGoodsReturnDetail(updated)
			newItem.GoodsReturnId = id
			if err := tx.WithContext(ctx).Create(&newItem).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
			existing.Details = append(existing.Details, newItem)
			continue
		}

		if updated.IsDeletedItem != nil && *updated.IsDeletedItem {
			if err := tx.WithContext(ctx).Delete(existingItem).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
			existing.Details = append(existing.Details[:existingIndex], existing.Details[existingIndex+1:]...)
			continue
		}

		if err := enforceReturnQtyCap(tx, ctx, updated, id); err != nil {
			tx.Rollback()
			return nil, err
		}
		existingItem.GoodsReceiptItemId = updated.GoodsReceiptItemId
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

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func GetGoodsReturn(ctx context.Context, id int) (*GoodsReturn, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[GoodsReturn](ctx, businessId, id, "Details")
}

func GetGoodsReturns(ctx context.Context, returnNumber *string) ([]*GoodsReturn, error) {
	db := config.GetDB()
	var results []*GoodsReturn

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if returnNumber != nil && len(*returnNumber) > 0 {
		dbCtx = dbCtx.Where("return_number LIKE ?", "%"+*returnNumber+"%")
	}
	err := dbCtx.
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func UpdateStatusGoodsReturn(ctx context.Context, id int, status string) (*GoodsReturn, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	newStatus, err := ParseGoodsReturnStatus(status)
	if err != nil {
		return nil, err
	}

	goodsReturn, err := utils.FetchModel[GoodsReturn](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	tx := db.Begin()

	if err := tx.WithContext(ctx).Model(&goodsReturn).UpdateColumn("CurrentStatus", newStatus).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	goodsReturn.CurrentStatus = newStatus

	if err := createHistory(tx.WithContext(ctx), "Update", id, "goods_returns", nil, nil, "Updated current status to "+status); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*goodsReturn); err != nil {
		return nil, err
	}
	return goodsReturn, nil
}
