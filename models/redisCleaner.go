package models

import (
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

type RedisCleaner interface {
	RemoveInstanceRedis() error // remove one
	RemoveAllRedis() error      // remove list if exists
}

// remove both item & list
func RemoveRedisBoth[T RedisCleaner](obj T) error {
	if err := obj.RemoveInstanceRedis(); err != nil {
		return err
	}
	if err := obj.RemoveAllRedis(); err != nil {
		return err
	}
	return nil
}

func (obj Branch) RemoveInstanceRedis() error {
	return utils.RemoveRedisItem[Branch](obj.ID)
}

func (obj Branch) RemoveAllRedis() error {
	return utils.RemoveRedisList[Branch](obj.BusinessId)
}

func (obj Currency) RemoveInstanceRedis() error {
	return utils.RemoveRedisItem[Currency](obj.ID)
}

func (obj Currency) RemoveAllRedis() error {
	return utils.RemoveRedisList[Currency](obj.BusinessId)
}

func (obj PaymentMode) RemoveInstanceRedis() error {
	return utils.RemoveRedisItem[PaymentMode](obj.ID)
}

func (obj PaymentMode) RemoveAllRedis() error {
	return utils.RemoveRedisList[PaymentMode](obj.BusinessId)
}

func (obj Supplier) RemoveInstanceRedis() error {
	return utils.RemoveRedisItem[Supplier](obj.ID)
}

func (obj Supplier) RemoveAllRedis() error {
	return utils.RemoveRedisList[Supplier](obj.BusinessId)
}

func (obj Warehouse) RemoveInstanceRedis() error {
	return utils.RemoveRedisItem[Warehouse](obj.ID)
}

func (obj Warehouse) RemoveAllRedis() error {
	return utils.RemoveRedisList[Warehouse](obj.BusinessId)
}

func (obj PurchaseQuotation) RemoveInstanceRedis() error {
	return utils.RemoveRedisItem[PurchaseQuotation](obj.ID)
}

// documents are never list-cached, only instance-cached
func (obj PurchaseQuotation) RemoveAllRedis() error {
	return nil
}

func (obj PurchaseOrder) RemoveInstanceRedis() error {
	return utils.RemoveRedisItem[PurchaseOrder](obj.ID)
}

func (obj PurchaseOrder) RemoveAllRedis() error {
	return nil
}

func (obj GoodsReceipt) RemoveInstanceRedis() error {
	return utils.RemoveRedisItem[GoodsReceipt](obj.ID)
}

func (obj GoodsReceipt) RemoveAllRedis() error {
	return nil
}

func (obj GoodsReturn) RemoveInstanceRedis() error {
	return utils.RemoveRedisItem[GoodsReturn](obj.ID)
}

func (obj GoodsReturn) RemoveAllRedis() error {
	return nil
}

func (obj APInvoice) RemoveInstanceRedis() error {
	return utils.RemoveRedisItem[APInvoice](obj.ID)
}

func (obj APInvoice) RemoveAllRedis() error {
	return nil
}
