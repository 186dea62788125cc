package models

import (
	"context"
	"errors"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

type TransactionNumberSeries struct {
	ID         int                             `gorm:"primary_key" json:"id"`
	BusinessId string                          `gorm:"index;not null" json:"business_id" binding:"required"`
	Name       string                          `gorm:"size:100;not null" json:"name" binding:"required"`
	Modules    []TransactionNumberSeriesModule `gorm:"foreignKey:SeriesId" json:"modules"`
	CreatedAt  time.Time                       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time                       `gorm:"autoUpdateTime" json:"updated_at"`
}

type TransactionNumberSeriesModule struct {
	SeriesId   int    `gorm:"primaryKey;autoIncrement:false" json:"series_id" binding:"required"`
	ModuleName string `gorm:"primaryKey;autoIncrement:false" json:"module_name" binding:"required"`
	Prefix     string `gorm:"size:10" json:"prefix"`
}

type NewTransactionNumberSeries struct {
	Name    string                             `json:"name" binding:"required"`
	Modules []NewTransactionNumberSeriesModule `json:"modules"`
}

type NewTransactionNumberSeriesModule struct {
	ModuleName string `json:"module_name" binding:"required"`
	Prefix     string `json:"prefix"`
}

func (input *NewTransactionNumberSeries) validate(ctx context.Context, businessId string, id int) error {
	// name
	if err := utils.ValidateUnique[TransactionNumberSeries](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	return nil
}

func mapTransactionNumberSeriesModule(input []NewTransactionNumberSeriesModule) []TransactionNumberSeriesModule {
	modules := make([]TransactionNumberSeriesModule, 0)
	for _, m := range input {
		modules = append(modules, TransactionNumberSeriesModule{
			ModuleName: m.ModuleName,
			Prefix:     m.Prefix,
		})
	}
	return modules
}

func CreateTransactionNumberSeries(ctx context.Context, input *NewTransactionNumberSeries) (*TransactionNumberSeries, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	// validate name
	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	series := TransactionNumberSeries{
		BusinessId: businessId,
		Name:       input.Name,
		Modules:    mapTransactionNumberSeriesModule(input.Modules),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&series).Error; err != nil {
		return nil, err
	}

	// branch prefix maps are cached per branch; drop any stale entries
	var branchIds []int
	if err := db.WithContext(ctx).Model(&Branch{}).Where("transaction_number_series_id = ?", series.ID).Select("id").Scan(&branchIds).Error; err == nil {
		for _, branchId := range branchIds {
			_ = config.RemoveRedisKey("tnsPrefixMap:" + strconv.Itoa(branchId))
		}
	}

	return &series, nil
}

func GetTransactionNumberSeriesList(ctx context.Context) ([]*TransactionNumberSeries, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchAllModels[TransactionNumberSeries](ctx, businessId, "Modules")
}
