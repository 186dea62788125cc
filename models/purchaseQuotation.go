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

type PurchaseQuotation struct {
	ID                      int                       `gorm:"primary_key" json:"id"`
	BusinessId              string                    `gorm:"index;not null" json:"business_id" binding:"required"`
	SupplierId              int                       `gorm:"index;not null" json:"supplier_id" binding:"required"`
	BranchId                int                       `gorm:"index;not null" json:"branch_id"`
	QuotationNumber         string                    `gorm:"size:255;not null" json:"quotation_number"`
	SequenceNo              decimal.Decimal           `gorm:"type:decimal(15);not null" json:"sequence_no"`
	ReferenceNumber         string                    `gorm:"size:255;default:null" json:"reference_number"`
	QuotationDate           time.Time                 `gorm:"not null" json:"quotation_date" binding:"required"`
	ValidUntil              *time.Time                `gorm:"default:null" json:"valid_until"`
	ContactPersonId         int                       `gorm:"default:null" json:"contact_person_id"`
	BillingAddress          string                    `gorm:"type:text;default:null" json:"billing_address"`
	ShippingAddress         string                    `gorm:"type:text;default:null" json:"shipping_address"`
	CurrencyId              int                       `gorm:"not null" json:"currency_id" binding:"required"`
	PaymentTerms            PaymentTerms              `gorm:"type:enum('Net15','Net30','Net45','Net60','DueMonthEnd','DueNextMonthEnd','DueOnReceipt','Custom');not null" json:"payment_terms" binding:"required"`
	PaymentTermsCustomDays  int                       `gorm:"default:0" json:"payment_terms_custom_days"`
	DiscountAmount          decimal.Decimal           `gorm:"type:decimal(20,2);default:0" json:"discount_amount"`
	TaxAmount               decimal.Decimal           `gorm:"type:decimal(20,2);default:0" json:"tax_amount"`
	TotalAmount             decimal.Decimal           `gorm:"type:decimal(20,2);default:0" json:"total_amount"`
	PayableAmount           decimal.Decimal           `gorm:"type:decimal(20,2);default:0" json:"payable_amount"`
	PaidAmount              decimal.Decimal           `gorm:"type:decimal(20,2);default:0" json:"paid_amount"`
	DueAmount               decimal.Decimal           `gorm:"type:decimal(20,2);default:0" json:"due_amount"`
	PaymentModeId           int                       `gorm:"default:null" json:"payment_mode_id"`
	PaymentReference        string                    `gorm:"size:255;default:null" json:"payment_reference"`
	PaymentDate             *time.Time                `gorm:"default:null" json:"payment_date"`
	Remarks                 string                    `gorm:"type:text;default:null" json:"remarks"`
	EmployeeName            string                    `gorm:"size:100;default:null" json:"employee_name"`
	CurrentStatus           PurchaseQuotationStatus   `gorm:"type:enum('Draft','Open','Sent','Expired','Converted','Closed','Cancelled');not null" json:"current_status"`
	Details                 []PurchaseQuotationDetail `json:"details"`
	CreatedAt               time.Time                 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time                 `gorm:"autoUpdateTime" json:"updated_at"`
}

type PurchaseQuotationDetail struct {
	ID                  int             `gorm:"primary_key" json:"id"`
	PurchaseQuotationId int             `gorm:"index;not null" json:"purchase_quotation_id"`
	ItemCode            string          `gorm:"size:100;not null" json:"item_code" binding:"required"`
	ItemName            string          `gorm:"size:255" json:"item_name"`
	Quantity            decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"quantity" binding:"required"`
	UnitPrice           decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"unit_price"`
	TotalAmount         decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"total_amount"`
	Uom                 string          `gorm:"size:50;default:null" json:"uom"`
	Remarks             string          `gorm:"type:text;default:null" json:"remarks"`
}

type NewPurchaseQuotation struct {
	SupplierId             int                          `json:"supplier_id" binding:"required"`
	BranchId               int                          `json:"branch_id" binding:"required"`
	ReferenceNumber        string                       `json:"reference_number"`
	QuotationDate          time.Time                    `json:"quotation_date" binding:"required"`
	ValidUntil             *time.Time                   `json:"valid_until"`
	ContactPersonId        int                          `json:"contact_person_id"`
	BillingAddress         string                       `json:"billing_address"`
	ShippingAddress        string                       `json:"shipping_address"`
	CurrencyId             int                          `json:"currency_id" binding:"required"`
	PaymentTerms           PaymentTerms                 `json:"payment_terms" binding:"required"`
	PaymentTermsCustomDays int                          `json:"payment_terms_custom_days"`
	DiscountAmount         decimal.Decimal              `json:"discount_amount"`
	TaxAmount              decimal.Decimal              `json:"tax_amount"`
	PaidAmount             decimal.Decimal              `json:"paid_amount"`
	PaymentModeId          int                          `json:"payment_mode_id"`
	PaymentReference       string                       `json:"payment_reference"`
	PaymentDate            *time.Time                   `json:"payment_date"`
	Remarks                string                       `json:"remarks"`
	EmployeeName           string                       `json:"employee_name"`
	CurrentStatus          PurchaseQuotationStatus      `json:"current_status"`
	Details                []NewPurchaseQuotationDetail `json:"details"`
}

type NewPurchaseQuotationDetail struct {
	DetailId      int             `json:"detail_id"`
	ItemCode      string          `json:"item_code" binding:"required"`
	ItemName      string          `json:"item_name"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Uom           string          `json:"uom"`
	Remarks       string          `json:"remarks"`
	IsDeletedItem *bool           `json:"is_deleted_item"`
}

func (input NewPurchaseQuotation) validate(ctx context.Context, businessId string, _ int) error {

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
		if _, err := ParsePurchaseQuotationStatus(string(input.CurrentStatus)); err != nil {
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

func CreatePurchaseQuotation(ctx context.Context, input *NewPurchaseQuotation) (*PurchaseQuotation, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	var details []PurchaseQuotationDetail
	var lineTotals []decimal.Decimal
	for _, item := range input.Details {
		detail := PurchaseQuotationDetail{
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
		status = PurchaseQuotationStatusDraft
	}

	quotation := PurchaseQuotation{
		BusinessId:             businessId,
		SupplierId:             input.SupplierId,
		BranchId:               input.BranchId,
		ReferenceNumber:        input.ReferenceNumber,
		QuotationDate:          input.QuotationDate,
		ValidUntil:             input.ValidUntil,
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

	tx := db.Begin()

	seqNo, err := utils.GetSequence[PurchaseQuotation](ctx, businessId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	prefix, err := getTransactionPrefix(ctx, input.BranchId, "Purchase Quotation")
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	quotation.SequenceNo = decimal.NewFromInt(seqNo)
	quotation.QuotationNumber = prefix + fmt.Sprint(seqNo)

	if err := tx.WithContext(ctx).Create(&quotation).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := createHistory(tx.WithContext(ctx), "Create", quotation.ID, "purchase_quotations", nil, quotation, "Created purchase quotation "+quotation.QuotationNumber); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &quotation, nil
}

func UpdatePurchaseQuotation(ctx context.Context, id int, input *NewPurchaseQuotation) (*PurchaseQuotation, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	existing, err := utils.FetchModel[PurchaseQuotation](ctx, businessId, id, "Details")
	if err != nil {
		return nil, err
	}

	if existing.CurrentStatus.BlocksConversion() {
		return nil, utils.NewStateError("cannot edit a " + string(existing.CurrentStatus) + " purchase quotation")
	}

	existing.SupplierId = input.SupplierId
	existing.BranchId = input.BranchId
	existing.ReferenceNumber = input.ReferenceNumber
	existing.QuotationDate = input.QuotationDate
	existing.ValidUntil = input.ValidUntil
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

	if err := upsertQuotationDetails(ctx, tx, existing, input.Details); err != nil {
		tx.Rollback()
		return nil, err
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

// insert new details, update or delete existing ones, keeping existing.Details
// and each line's total in sync
func upsertQuotationDetails(ctx context.Context, tx *gorm.DB, existing *PurchaseQuotation, inputs []NewPurchaseQuotationDetail) error {
	for _, updated := range inputs {
		var existingItem *PurchaseQuotationDetail
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
			newItem := PurchaseQuotationDetail{
				PurchaseQuotationId: existing.ID,
				ItemCode:            updated.ItemCode,
				ItemName:            updated.ItemName,
				Quantity:            updated.Quantity,
				UnitPrice:           updated.UnitPrice,
				TotalAmount:         utils.CalculateLineTotal(updated.Quantity, updated.UnitPrice),
				Uom:                 updated.Uom,
				Remarks:             updated.Remarks,
			}
			if err := tx.WithContext(ctx).Create(&newItem).Error; err != nil {
				return err
			}
			existing.Details = append(existing.Details, newItem)
			continue
		}

		if updated.IsDeletedItem != nil && *updated.IsDeletedItem {
			if err := tx.WithContext(ctx).Delete(existingItem).Error; err != nil {
				return err
			}
			existing.Details = append(existing.Details[:existingIndex], existing.Details[existingIndex+1:]...)
			continue
		}

		existingItem.ItemCode = updated.ItemCode
		existingItem.ItemName = updated.ItemName
		existingItem.Quantity = updated.Quantity
		existingItem.UnitPrice = updated.UnitPrice
		existingItem.TotalAmount = utils.CalculateLineTotal(updated.Quantity, updated.UnitPrice)
		existingItem.Uom = updated.Uom
		existingItem.Remarks = updated.Remarks
		if err := tx.WithContext(ctx).Save(existingItem).Error; err != nil {
			return err
		}
	}
	return nil
}

func DeletePurchaseQuotation(ctx context.Context, id int) (*PurchaseQuotation, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	result, err := utils.FetchModel[PurchaseQuotation](ctx, businessId, id, "Details")
	if err != nil {
		return nil, err
	}

	if result.CurrentStatus == PurchaseQuotationStatusConverted {
		return nil, utils.NewStateError("cannot delete a converted purchase quotation")
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

func GetPurchaseQuotation(ctx context.Context, id int) (*PurchaseQuotation, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[PurchaseQuotation](ctx, businessId, id, "Details")
}

func GetPurchaseQuotations(ctx context.Context, quotationNumber *string) ([]*PurchaseQuotation, error) {
	db := config.GetDB()
	var results []*PurchaseQuotation

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if quotationNumber != nil && len(*quotationNumber) > 0 {
		dbCtx = dbCtx.Where("quotation_number LIKE ?", "%"+*quotationNumber+"%")
	}
	err := dbCtx.
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func UpdateStatusPurchaseQuotation(ctx context.Context, id int, status string) (*PurchaseQuotation, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	newStatus, err := ParsePurchaseQuotationStatus(status)
	if err != nil {
		return nil, err
	}

	quotation, err := utils.FetchModel[PurchaseQuotation](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	// converted and cancelled are terminal
	if quotation.CurrentStatus == PurchaseQuotationStatusConverted {
		return nil, utils.NewStateError("cannot change status of a converted purchase quotation")
	}
	if quotation.CurrentStatus == PurchaseQuotationStatusCancelled {
		return nil, utils.NewStateError("cannot change status of a cancelled purchase quotation")
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(&quotation).UpdateColumn("CurrentStatus", newStatus).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := createHistory(tx.WithContext(ctx), "Update", id, "purchase_quotations", nil, nil, "Updated current status to "+status); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	quotation.CurrentStatus = newStatus
	if err := RemoveRedisBoth(*quotation); err != nil {
		return nil, err
	}
	return quotation, nil
}
