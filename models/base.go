package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
	"github.com/shopspring/decimal"
)

// NextDocumentNumber allocates the next sequence number for a document type
// and renders it with the branch's configured prefix.
func NextDocumentNumber[T any](ctx context.Context, businessId string, branchId int, moduleName string) (decimal.Decimal, string, error) {
	seqNo, err := utils.GetSequence[T](ctx, businessId)
	if err != nil {
		return decimal.Zero, "", err
	}
	prefix, err := getTransactionPrefix(ctx, branchId, moduleName)
	if err != nil {
		return decimal.Zero, "", err
	}
	return decimal.NewFromInt(seqNo), prefix + fmt.Sprint(seqNo), nil
}

// common line checks shared by every document type
func validateLineInput(itemCode string, quantity decimal.Decimal, unitPrice decimal.Decimal) error {
	if itemCode == "" {
		return errors.New("item code is required")
	}
	if !quantity.IsPositive() {
		return errors.New("quantity must be greater than zero")
	}
	if unitPrice.IsNegative() {
		return errors.New("unit price cannot be negative")
	}
	return nil
}

func calculateDueDate(date time.Time, paymentTerms PaymentTerms, customDays int) *time.Time {
	var dueDate time.Time
	switch terms := paymentTerms; terms {
	case PaymentTermsDueOnReceipt:
		dueDate = date
	case PaymentTermsNet15:
		dueDate = date.AddDate(0, 0, 15)
	case PaymentTermsNet30:
		dueDate = date.AddDate(0, 0, 30)
	case PaymentTermsNet45:
		dueDate = date.AddDate(0, 0, 45)
	case PaymentTermsNet60:
		dueDate = date.AddDate(0, 0, 60)
	case PaymentTermsDueEndOfMonth:
		year, month, _ := date.Date()
		firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, date.Location())
		dueDate = firstOfMonth.AddDate(0, 1, -1)
	case PaymentTermsDueEndOfNextMonth:
		year, month, _ := date.Date()
		firstOfNextMonth := time.Date(year, month+1, 1, 0, 0, 0, 0, date.Location())
		dueDate = firstOfNextMonth.AddDate(0, 1, -1)
	case PaymentTermsCustom:
		dueDate = date.AddDate(0, 0, customDays)
	}
	return &dueDate
}

// CalculateDueDate derives a payable-document due date from its document
// date and payment terms. Exposed for conversion workflows.
func CalculateDueDate(date time.Time, paymentTerms PaymentTerms, customDays int) *time.Time {
	return calculateDueDate(date, paymentTerms, customDays)
}

// get transactionPrefix for module, redis or db
func getTransactionPrefix(ctx context.Context, branchId int, moduleName string) (string, error) {
	transactionPrefixes := make(map[string]string, 0) // moduleName => prefix
	redisKey := "tnsPrefixMap:" + fmt.Sprint(branchId)
	exists, err := config.GetRedisObject(redisKey, &transactionPrefixes)
	if err != nil {
		return "", err
	}
	if !exists {

		// retrieves moduleName:prefix map of the branch from db
		db := config.GetDB()
		var tnsId int
		if err := db.WithContext(ctx).Model(&Branch{}).
			Where("id = ?", branchId).Select("transaction_number_series_id").Scan(&tnsId).Error; err != nil {
			return "", err
		}
		var tnsModules []*TransactionNumberSeriesModule
		if err := db.WithContext(ctx).Model(&TransactionNumberSeriesModule{}).
			Where("series_id = ?", tnsId).Find(&tnsModules).Error; err != nil {
			return "", err
		}

		for _, modulePrefix := range tnsModules {
			transactionPrefixes[modulePrefix.ModuleName] = modulePrefix.Prefix
		}
		if err := config.SetRedisObject(redisKey, &transactionPrefixes, 0); err != nil {
			return "", err
		}
	}

	prefix, ok := transactionPrefixes[moduleName]
	if !ok || prefix == "" {
		return "", nil
	}
	return prefix, nil
}
