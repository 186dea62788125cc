package models

import (
	"context"
	"errors"

	"time"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

type Supplier struct {
	ID                             int              `gorm:"primary_key" json:"id"`
	BusinessId                     string           `gorm:"index;not null" json:"business_id" binding:"required"`
	Name                           string           `gorm:"size:100;not null" json:"name" binding:"required"`
	Email                          string           `gorm:"size:100" json:"email"`
	Phone                          string           `gorm:"size:20" json:"phone"`
	Mobile                         string           `gorm:"size:20" json:"mobile"`
	CurrencyId                     int              `gorm:"not null" json:"currency_id" binding:"required"`
	SupplierPaymentTerms           PaymentTerms     `gorm:"type:enum('Net15', 'Net30', 'Net45', 'Net60', 'DueMonthEnd', 'DueNextMonthEnd', 'DueOnReceipt', 'Custom');not null;default:'DueOnReceipt'" json:"supplier_payment_terms" binding:"required"`
	SupplierPaymentTermsCustomDays int              `gorm:"default:0" json:"supplier_payment_terms_custom_days"`
	Notes                          string           `gorm:"type:text" json:"notes"`
	BillingAddress                 BillingAddress   `gorm:"polymorphic:Reference" json:"-"`
	ShippingAddress                ShippingAddress  `gorm:"polymorphic:Reference" json:"-"`
	ContactPersons                 []*ContactPerson `gorm:"polymorphic:Reference" json:"-"`
	IsActive                       *bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt                      time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplier struct {
	Name                           string              `json:"name" binding:"required"`
	Email                          string              `json:"email"`
	Phone                          string              `json:"phone"`
	Mobile                         string              `json:"mobile"`
	CurrencyId                     int                 `json:"currency_id" binding:"required"`
	SupplierPaymentTerms           PaymentTerms        `json:"supplier_payment_terms" binding:"required"`
	SupplierPaymentTermsCustomDays int                 `json:"supplier_payment_terms_custom_days"`
	Notes                          string              `json:"notes"`
	BillingAddress                 *NewBillingAddress  `json:"billing_address"`
	ShippingAddress                *NewShippingAddress `json:"shipping_address"`
	ContactPersons                 []*NewContactPerson `json:"contact_persons"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewSupplier) validate(ctx context.Context, businessId string, id int) error {
	// validate unique name
	if err := utils.ValidateUnique[Supplier](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	// validate email
	if input.Email != "" {
		if !utils.IsValidEmail(input.Email) {
			return errors.New("invalid email")
		}
		if err := utils.ValidateUnique[Supplier](ctx, businessId, "email", input.Email, id); err != nil {
			return err
		}
	}
	// validate phone
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return err
		}
		if err := utils.ValidateUnique[Supplier](ctx, businessId, "phone", input.Phone, id); err != nil {
			return err
		}
	}
	if input.Mobile != "" {
		if err := utils.ValidatePhoneNumber(input.Mobile, utils.CountryCode); err != nil {
			return err
		}
	}
	// validate currency
	if err := utils.ValidateResourceId[Currency](ctx, businessId, input.CurrencyId); err != nil {
		return errors.New("currency not found")
	}
	if _, err := ParsePaymentTerms(string(input.SupplierPaymentTerms)); err != nil {
		return err
	}
	return nil
}

func CreateSupplier(ctx context.Context, input *NewSupplier) (*Supplier, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	contactPersons := mapNewContactPersons(input.ContactPersons, "suppliers", 0)
	supplier := Supplier{
		BusinessId:                     businessId,
		Name:                           input.Name,
		Email:                          input.Email,
		Phone:                          input.Phone,
		Mobile:                         input.Mobile,
		CurrencyId:                     input.CurrencyId,
		SupplierPaymentTerms:           input.SupplierPaymentTerms,
		SupplierPaymentTermsCustomDays: input.SupplierPaymentTermsCustomDays,
		Notes:                          input.Notes,
		IsActive:                       utils.NewTrue(),
		// associations
		ContactPersons: contactPersons,
	}

	if input.BillingAddress != nil {
		supplier.BillingAddress = mapBillingAddressInput(*input.BillingAddress)
	}
	if input.ShippingAddress != nil {
		supplier.ShippingAddress = mapShippingAddressInput(*input.ShippingAddress)
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&supplier).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &supplier, nil
}

func UpdateSupplier(ctx context.Context, id int, input *NewSupplier) (*Supplier, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	supplier, err := utils.FetchModel[Supplier](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	tx := db.Begin()
	err = tx.WithContext(ctx).Model(supplier).
		Updates(map[string]interface{}{
			"Name":                           input.Name,
			"Email":                          input.Email,
			"Phone":                          input.Phone,
			"Mobile":                         input.Mobile,
			"CurrencyId":                     input.CurrencyId,
			"SupplierPaymentTerms":           input.SupplierPaymentTerms,
			"SupplierPaymentTermsCustomDays": input.SupplierPaymentTermsCustomDays,
			"Notes":                          input.Notes,
		}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// upserting association
	if input.BillingAddress != nil {
		if err := upsertBillingAddress(tx, ctx, *input.BillingAddress, "suppliers", id); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if input.ShippingAddress != nil {
		if err := upsertShippingAddress(tx, ctx, *input.ShippingAddress, "suppliers", id); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if _, err := upsertContactPersons(ctx, tx, input.ContactPersons, "suppliers", id); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	// clear cache
	if err := RemoveRedisBoth(*supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

func DeleteSupplier(ctx context.Context, id int) (*Supplier, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	result, err := utils.FetchModel[Supplier](ctx, businessId, id)
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	count, err := utils.ResourceCountWhere[PurchaseQuotation](ctx, businessId, "supplier_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("purchase quotation associated with supplier exists")
	}

	count, err = utils.ResourceCountWhere[PurchaseOrder](ctx, businessId, "supplier_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("purchase order associated with supplier exists")
	}

	count, err = utils.ResourceCountWhere[GoodsReceipt](ctx, businessId, "supplier_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("goods receipt associated with supplier exists")
	}

	count, err = utils.ResourceCountWhere[GoodsReturn](ctx, businessId, "supplier_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("goods return associated with supplier exists")
	}

	count, err = utils.ResourceCountWhere[APInvoice](ctx, businessId, "supplier_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("invoice associated with supplier exists")
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Delete(&result).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// clearing associated data
	// using Unscoped() to delete actual records instead of setting null value
	if err := tx.WithContext(ctx).Model(&result).Association("BillingAddress").Unscoped().Clear(); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Model(&result).Association("ShippingAddress").Unscoped().Clear(); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Model(&result).Association("ContactPersons").Unscoped().Clear(); err != nil {
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

func GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	return GetResource[Supplier](ctx, id)
}

func GetSuppliers(ctx context.Context, name *string) ([]*Supplier, error) {
	db := config.GetDB()
	var results []*Supplier

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	err := dbCtx.
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func ToggleActiveSupplier(ctx context.Context, id int, isActive bool) (*Supplier, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	return ToggleActiveModel[Supplier](ctx, businessId, id, isActive)
}
