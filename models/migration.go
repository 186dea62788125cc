package models

import (
	"bitbucket.org/mmdatafocus/procurement_backend/config"
)

func MigrateTable() error {
	db := config.GetDB()
	return db.AutoMigrate(
		&Branch{},
		&Currency{},
		&PaymentMode{},
		&Warehouse{},
		&TransactionNumberSeries{},
		&TransactionNumberSeriesModule{},
		&Supplier{},
		&ContactPerson{},
		&BillingAddress{},
		&ShippingAddress{},
		&PurchaseQuotation{},
		&PurchaseQuotationDetail{},
		&PurchaseOrder{},
		&PurchaseOrderDetail{},
		&GoodsReceipt{},
		&GoodsReceiptDetail{},
		&GoodsReturn{},
		&GoodsReturnDetail{},
		&APInvoice{},
		&APInvoiceDetail{},
		&History{},
	)
}
