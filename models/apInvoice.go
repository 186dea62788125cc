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

type APInvoice struct {
	ID                     int               `gorm:"primary_key" json:"id"`
	BusinessId             string            `gorm:"index;not null" json:"business_id" binding:"required"`
	SupplierId             int               `gorm:"index;not null" json:"supplier_id" binding:"required"`
	BranchId               int               `gorm:"index;not null" json:"branch_id"`
	InvoiceNumber          string            `gorm:"size:255;not null" json:"invoice_number"`
	SequenceNo             decimal.Decimal   `gorm:"type:decimal(15);not null" json:"sequence_no"`
	ReferenceNumber        string            `gorm:"size:255;default:null" json:"reference_number"`
	InvoiceDate            time.Time         `gorm:"not null" json:"invoice_date" binding:"required"`
	PostingDate            *time.Time        `gorm:"default:null" json:"posting_date"`
	DueDate                *time.Time        `gorm:"default:null" json:"due_date"`
	PurchaseOrderId        int               `gorm:"index;default:null" json:"purchase_order_id"`
	GoodsReceiptId         int               `gorm:"index;default:null" json:"goods_receipt_id"`
	ContactPersonId        int               `gorm:"default:null" json:"contact_person_id"`
	BillingAddress         string            `gorm:"type:text;default:null" json:"billing_address"`
	ShippingAddress        string            `gorm:"type:text;default:null" json:"shipping_address"`
	CurrencyId             int               `gorm:"not null" json:"currency_id" binding:"required"`
	PaymentTerms           PaymentTerms      `gorm:"type:enum('Net15','Net30','Net45','Net60','DueMonthEnd','DueNextMonthEnd','DueOnReceipt','Custom');not null" json:"payment_terms" binding:"required"`
	PaymentTermsCustomDays int               `gorm:"default:0" json:"payment_terms_custom_days"`
	DiscountAmount         decimal.Decimal   `gorm:"type:decimal(20,2);default:0" json:"discount_amount"`
	TaxAmount              decimal.Decimal   `gorm:"type:decimal(20,2);default:0" json:"tax_amount"`
	TotalAmount            decimal.Decimal   `gorm:"type:decimal(20,2);default:0" json:"total_amount"`
	PayableAmount          decimal.Decimal   `gorm:"type:decimal(20,2);default:0" json:"payable_amount"`
	PaidAmount             decimal.Decimal   `gorm:"type:decimal(20,2);default:0" json:"paid_amount"`
	DueAmount              decimal.Decimal   `gorm:"type:decimal(20,2);default:0" json:"due_amount"`
	PaymentModeId          int               `gorm:"default:null" json:"payment_mode_id"`
	PaymentReference       string            `gorm:"size:255;default:null" json:"payment_reference"`
	PaymentDate            *time.Time        `gorm:"default:null" json:"payment_date"`
	Remarks                string            `gorm:"type:text;default:null" json:"remarks"`
	EmployeeName           string            `gorm:"size:100;default:null" json:"employee_name"`
	CurrentStatus          APInvoiceStatus   `gorm:"type:enum('Draft','Open','Partially Paid','Paid','Overdue','Cancelled');not null" json:"current_status"`
	Details                []APInvoiceDetail `json:"details"`
	CreatedAt              time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (APInvoice) TableName() string {
	return "ap_invoices"
}

type APInvoiceDetail struct {
	ID                  int             `gorm:"primary_key" json:"id"`
	APInvoiceId         int             `gorm:"column:ap_invoice_id;index;not null" json:"ap_invoice_id"`
	PurchaseOrderItemId int             `gorm:"index;default:null" json:"purchase_order_item_id"`
	GoodsReceiptItemId  int             `gorm:"index;default:null" json:"goods_receipt_item_id"`
	ItemCode            string          `gorm:"size:100;not null" json:"item_code" binding:"required"`
	ItemName            string          `gorm:"size:255" json:"item_name"`
	Quantity            decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"quantity" binding:"required"`
	UnitPrice           decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"unit_price"`
	TotalAmount         decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"total_amount"`
	Uom                 string          `gorm:"size:50;default:null" json:"uom"`
	Remarks             string          `gorm:"type:text;default:null" json:"remarks"`
	IsActive            *bool           `gorm:"default:true" json:"is_active"`
}

func (APInvoiceDetail) TableName() string {
	return "ap_invoice_details"
}

type NewAPInvoice struct {
	SupplierId             int                  `json:"supplier_id" binding:"required"`
	BranchId               int                  `json:"branch_id" binding:"required"`
	ReferenceNumber        string               `json:"reference_number"`
	InvoiceDate            time.Time            `json:"invoice_date" binding:"required"`
	PostingDate            *time.Time           `json:"posting_date"`
	DueDate                *time.Time           `json:"due_date"`
	PurchaseOrderId        int                  `json:"purchase_order_id"`
	GoodsReceiptId         int                  `json:"goods_receipt_id"`
	ContactPersonId        int                  `json:"contact_person_id"`
	BillingAddress         string               `json:"billing_address"`
	ShippingAddress        string               `json:"shipping_address"`
	CurrencyId             int                  `json:"currency_id" binding:"required"`
	PaymentTerms           PaymentTerms         `json:"payment_terms" binding:"required"`
	PaymentTermsCustomDays int                  `json:"payment_terms_custom_days"`
	DiscountAmount         decimal.Decimal      `json:"discount_amount"`
	TaxAmount              decimal.Decimal      `json:"tax_amount"`
	PaidAmount             decimal.Decimal      `json:"paid_amount"`
	PaymentModeId          int                  `json:"payment_mode_id"`
	PaymentReference       string               `json:"payment_reference"`
	PaymentDate            *time.Time           `json:"payment_date"`
	Remarks                string               `json:"remarks"`
	EmployeeName           string               `json:"employee_name"`
	CurrentStatus          APInvoiceStatus      `json:"current_status"`
	Details                []NewAPInvoiceDetail `json:"details"`
}

type NewAPInvoiceDetail struct {
	DetailId            int             `json:"detail_id"`
	PurchaseOrderItemId int             `json:"purchase_order_item_id"`
	GoodsReceiptItemId  int             `json:"goods_receipt_item_id"`
	ItemCode            string          `json:"item_code" binding:"required"`
	ItemName            string          `json:"item_name"`
	Quantity            decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	Uom                 string          `json:"uom"`
	Remarks             string          `json:"remarks"`
	IsActive            *bool           `json:"is_active"`
	IsDeletedItem       *bool           `json:"is_deleted_item"`
}

func (input NewAPInvoice) validate(ctx context.Context, businessId string, _ int) error {

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
	if input.PaymentModeId > 0 {
		if err := utils.ValidateResourceId[PaymentMode](ctx, businessId, input.PaymentModeId); err != nil {
			return errors.New("payment mode not found")
		}
	}
	if _, err := ParsePaymentTerms(string(input.PaymentTerms)); err != nil {
		return err
	}
	if input.CurrentStatus != "" {
		if _, err := ParseAPInvoiceStatus(string(input.CurrentStatus)); err != nil {
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

// enforceInvoiceQtyCap caps an invoice line at the un-invoiced quantity of
// the upstream line it bills. A line carrying both refs came through a goods
// receipt; the receipt line is the one that controls.
func enforceInvoiceQtyCap(tx *gorm.DB, ctx context.Context, detail NewAPInvoiceDetail, excludeInvoiceId int) error {
	if detail.GoodsReceiptItemId > 0 {
		var receiptLine GoodsReceiptDetail
		if err := tx.WithContext(ctx).First(&receiptLine, detail.GoodsReceiptItemId).Error; err != nil {
			return errors.New("goods receipt item not found")
		}
		remaining, err := RemainingInvoiceQtyFromReceiptLine(tx, ctx, receiptLine, excludeInvoiceId)
		if err != nil {
			return err
		}
		if detail.Quantity.GreaterThan(remaining) {
			return errors.New("invoice qty must be equal or less than goods receipt qty")
		}
		return nil
	}
	if detail.PurchaseOrderItemId > 0 {
		var poLine PurchaseOrderDetail
		if err := tx.WithContext(ctx).First(&poLine, detail.PurchaseOrderItemId).Error; err != nil {
			return errors.New("purchase order item not found")
		}
		remaining, err := RemainingInvoiceQtyFromOrderLine(tx, ctx, poLine, excludeInvoiceId)
		if err != nil {
			return err
		}
		if detail.Quantity.GreaterThan(remaining) {
			return errors.New("invoice qty must be equal or less than purchase order qty")
		}
	}
	return nil
}

func mapNewAPInvoiceDetail(item NewAPInvoiceDetail) APInvoiceDetail {
	isActive := true
	if item.IsActive != nil {
		isActive = *item.IsActive
	}
	return APInvoiceDetail{
		PurchaseOrderItemId: item.PurchaseOrderItemId,
		GoodsReceiptItemId:  item.GoodsReceiptItemId,
		ItemCode:            item.ItemCode,
		ItemName:            item.ItemName,
		Quantity:            item.Quantity,
		UnitPrice:           item.UnitPrice,
		TotalAmount:         utils.CalculateLineTotal(item.Quantity, item.UnitPrice),
		Uom:                 item.Uom,
		Remarks:             item.Remarks,
		IsActive:            &isActive,
	}
}

// activeLineTotals folds inactive lines out of the header aggregation. An
// inactive line stays on the invoice but contributes nothing.
func activeLineTotals(details []APInvoiceDetail) []decimal.Decimal {
	var lineTotals []decimal.Decimal
	for _, detail := range details {
		if detail.IsActive != nil && !*detail.IsActive {
			continue
		}
		lineTotals = append(lineTotals, detail.TotalAmount)
	}
	return lineTotals
}

func CreateAPInvoice(ctx context.Context, input *NewAPInvoice) (*APInvoice, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	if input.PurchaseOrderId > 0 {
		po, err := utils.FetchModel[PurchaseOrder](ctx, businessId, input.PurchaseOrderId)
		if err != nil {
			return nil, errors.New("purchase order not found")
		}
		if po.CurrentStatus.BlocksConversion() {
			return nil, utils.NewStateError("cannot invoice against a " + string(po.CurrentStatus) + " purchase order")
		}
	}
	if input.GoodsReceiptId > 0 {
		gr, err := utils.FetchModel[GoodsReceipt](ctx, businessId, input.GoodsReceiptId)
		if err != nil {
			return nil, errors.New("goods receipt not found")
		}
		if gr.CurrentStatus.BlocksConversion() {
			return nil, utils.NewStateError("cannot invoice against a " + string(gr.CurrentStatus) + " goods receipt")
		}
	}

	status := input.CurrentStatus
	if status == "" {
		status = APInvoiceStatusDraft
	}

	// an explicit due date always wins over the payment terms
	dueDate := input.DueDate
	if dueDate == nil {
		dueDate = calculateDueDate(input.InvoiceDate, input.PaymentTerms, input.PaymentTermsCustomDays)
	}

	tx := db.Begin()

	var details []APInvoiceDetail
	for _, item := range input.Details {
		if err := enforceInvoiceQtyCap(tx, ctx, item, 0); err != nil {
			tx.Rollback()
			return nil, err
		}
		details = append(details, mapNewAPInvoiceDetail(item))
	}

	total, payable, due := utils.CalculateHeaderTotals(activeLineTotals(details), input.DiscountAmount, input.PaidAmount)

	invoice := APInvoice{
		BusinessId:             businessId,
		SupplierId:             input.SupplierId,
		BranchId:               input.BranchId,
		ReferenceNumber:        input.ReferenceNumber,
		InvoiceDate:            input.InvoiceDate,
		PostingDate:            input.PostingDate,
		DueDate:                dueDate,
		PurchaseOrderId:        input.PurchaseOrderId,
		GoodsReceiptId:         input.GoodsReceiptId,
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

	seqNo, err := utils.GetSequence[APInvoice](ctx, businessId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	prefix, err := getTransactionPrefix(ctx, input.BranchId, "AP Invoice")
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	invoice.SequenceNo = decimal.NewFromInt(seqNo)
	invoice.InvoiceNumber = prefix + fmt.Sprint(seqNo)

	if err := tx.WithContext(ctx).Create(&invoice).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := RefreshBillingForInvoice(tx, ctx, businessId, &invoice); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := createHistory(tx.WithContext(ctx), "Create", invoice.ID, "ap_invoices", nil, invoice, "Created AP invoice "+invoice.InvoiceNumber); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// RefreshBillingForInvoice re-derives the billing status of every purchase
// order this invoice's lines roll up to. Invoices cut from a receipt carry
// the receipt line's order line ref, so the header PurchaseOrderId alone is
// not enough.
func RefreshBillingForInvoice(tx *gorm.DB, ctx context.Context, businessId string, invoice *APInvoice) error {
	orderIds := map[int]bool{}
	if invoice.PurchaseOrderId > 0 {
		orderIds[invoice.PurchaseOrderId] = true
	}
	for _, detail := range invoice.Details {
		if detail.PurchaseOrderItemId <= 0 {
			continue
		}
		var poLine PurchaseOrderDetail
		if err := tx.WithContext(ctx).First(&poLine, detail.PurchaseOrderItemId).Error; err != nil {
			return err
		}
		orderIds[poLine.PurchaseOrderId] = true
	}
	for orderId := range orderIds {
		if _, err := ChangeOrderBillingStatus(tx, ctx, businessId, orderId); err != nil {
			return err
		}
	}
	return nil
}

func UpdateAPInvoice(ctx context.Context, id int, input *NewAPInvoice) (*APInvoice, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	existing, err := utils.FetchModel[APInvoice](ctx, businessId, id, "Details")
	if err != nil {
		return nil, err
	}

	if existing.CurrentStatus == APInvoiceStatusPaid || existing.CurrentStatus == APInvoiceStatusCancelled {
		return nil, utils.NewStateError("cannot edit a " + string(existing.CurrentStatus) + " AP invoice")
	}

	existing.SupplierId = input.SupplierId
	existing.BranchId = input.BranchId
	existing.ReferenceNumber = input.ReferenceNumber
	existing.InvoiceDate = input.InvoiceDate
	existing.PostingDate = input.PostingDate
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
	if input.DueDate != nil {
		existing.DueDate = input.DueDate
	} else if existing.DueDate == nil {
		existing.DueDate = calculateDueDate(input.InvoiceDate, input.PaymentTerms, input.PaymentTermsCustomDays)
	}

	tx := db.Begin()

	for _, updated := range input.Details {
		var existingItem *APInvoiceDetail
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
			if err := enforceInvoiceQtyCap(tx, ctx, updated, id); err != nil {
				tx.Rollback()
				return nil, err
			}
			newItem := mapNewAPInvoiceDetail(updated)
			newItem.APInvoiceId = id
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

		if err := enforceInvoiceQtyCap(tx, ctx, updated, id); err != nil {
			tx.Rollback()
			return nil, err
		}
		existingItem.PurchaseOrderItemId = updated.PurchaseOrderItemId
		existingItem.GoodsReceiptItemId = updated.GoodsReceiptItemId
		existingItem.ItemCode = updated.ItemCode
		existingItem.ItemName = updated.ItemName
		existingItem.Quantity = updated.Quantity
		existingItem.UnitPrice = updated.UnitPrice
		existingItem.TotalAmount = utils.CalculateLineTotal(updated.Quantity, updated.UnitPrice)
		existingItem.Uom = updated.Uom
		existingItem.Remarks = updated.Remarks
		if updated.IsActive != nil {
			existingItem.IsActive = updated.IsActive
		}
		if err := tx.WithContext(ctx).Save(existingItem).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	existing.TotalAmount, existing.PayableAmount, existing.DueAmount =
		utils.CalculateHeaderTotals(activeLineTotals(existing.Details), existing.DiscountAmount, existing.PaidAmount)

	if err := tx.WithContext(ctx).Save(&existing).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := RefreshBillingForInvoice(tx, ctx, businessId, existing); err != nil {
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

// ToggleAPInvoiceLine flips a line's IsActive flag and reflows the header
// totals from the lines that remain active. The quantity ledger reads the
// same flag, so billing progress on the source order is re-derived too.
func ToggleAPInvoiceLine(ctx context.Context, id int, detailId int, isActive bool) (*APInvoice, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	invoice, err := utils.FetchModel[APInvoice](ctx, businessId, id, "Details")
	if err != nil {
		return nil, err
	}

	if invoice.CurrentStatus == APInvoiceStatusPaid || invoice.CurrentStatus == APInvoiceStatusCancelled {
		return nil, utils.NewStateError("cannot edit a " + string(invoice.CurrentStatus) + " AP invoice")
	}

	var line *APInvoiceDetail
	for i := range invoice.Details {
		if invoice.Details[i].ID == detailId {
			line = &invoice.Details[i]
			break
		}
	}
	if line == nil {
		return nil, errors.New("AP invoice item not found")
	}

	tx := db.Begin()

	line.IsActive = &isActive
	if err := tx.WithContext(ctx).Model(line).UpdateColumn("IsActive", isActive).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	invoice.TotalAmount, invoice.PayableAmount, invoice.DueAmount =
		utils.CalculateHeaderTotals(activeLineTotals(invoice.Details), invoice.DiscountAmount, invoice.PaidAmount)
	if err := tx.WithContext(ctx).Model(&invoice).
		UpdateColumns(map[string]interface{}{
			"total_amount":   invoice.TotalAmount,
			"payable_amount": invoice.PayableAmount,
			"due_amount":     invoice.DueAmount,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := RefreshBillingForInvoice(tx, ctx, businessId, invoice); err != nil {
		tx.Rollback()
		return nil, err
	}

	action := "*INACTIVE*"
	if isActive {
		action = "*ACTIVE*"
	}
	if err := createHistory(tx.WithContext(ctx), "Update", id, "ap_invoices", nil, nil, action); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

func GetAPInvoice(ctx context.Context, id int) (*APInvoice, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[APInvoice](ctx, businessId, id, "Details")
}

func GetAPInvoices(ctx context.Context, invoiceNumber *string) ([]*APInvoice, error) {
	db := config.GetDB()
	var results []*APInvoice

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if invoiceNumber != nil && len(*invoiceNumber) > 0 {
		dbCtx = dbCtx.Where("invoice_number LIKE ?", "%"+*invoiceNumber+"%")
	}
	err := dbCtx.
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// UpdateStatusAPInvoice moves the invoice's own lifecycle. Draft and
// Cancelled invoices do not count toward billed quantity, so the source
// orders are re-derived whenever the status crosses that line.
func UpdateStatusAPInvoice(ctx context.Context, id int, status string) (*APInvoice, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	newStatus, err := ParseAPInvoiceStatus(status)
	if err != nil {
		return nil, err
	}

	invoice, err := utils.FetchModel[APInvoice](ctx, businessId, id, "Details")
	if err != nil {
		return nil, err
	}

	tx := db.Begin()

	if err := tx.WithContext(ctx).Model(&invoice).UpdateColumn("CurrentStatus", newStatus).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	invoice.CurrentStatus = newStatus

	if err := RefreshBillingForInvoice(tx, ctx, businessId, invoice); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := createHistory(tx.WithContext(ctx), "Update", id, "ap_invoices", nil, nil, "Updated current status to "+status); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}
