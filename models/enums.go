package models

import (
	"fmt"
)

type PaymentTerms string

const (
	PaymentTermsNet15             PaymentTerms = "Net15"
	PaymentTermsNet30             PaymentTerms = "Net30"
	PaymentTermsNet45             PaymentTerms = "Net45"
	PaymentTermsNet60             PaymentTerms = "Net60"
	PaymentTermsDueEndOfMonth     PaymentTerms = "DueMonthEnd"
	PaymentTermsDueEndOfNextMonth PaymentTerms = "DueNextMonthEnd"
	PaymentTermsDueOnReceipt      PaymentTerms = "DueOnReceipt"
	PaymentTermsCustom            PaymentTerms = "Custom"
)

func ParsePaymentTerms(str string) (PaymentTerms, error) {
	paymentTerms := map[string]PaymentTerms{
		"Net15":           PaymentTermsNet15,
		"Net30":           PaymentTermsNet30,
		"Net45":           PaymentTermsNet45,
		"Net60":           PaymentTermsNet60,
		"DueMonthEnd":     PaymentTermsDueEndOfMonth,
		"DueNextMonthEnd": PaymentTermsDueEndOfNextMonth,
		"DueOnReceipt":    PaymentTermsDueOnReceipt,
		"Custom":          PaymentTermsCustom,
	}
	v, ok := paymentTerms[str]
	if !ok {
		return "", fmt.Errorf("%s is not a valid payment terms value", str)
	}
	return v, nil
}

type PurchaseQuotationStatus string

const (
	PurchaseQuotationStatusDraft     PurchaseQuotationStatus = "Draft"
	PurchaseQuotationStatusOpen      PurchaseQuotationStatus = "Open"
	PurchaseQuotationStatusSent      PurchaseQuotationStatus = "Sent"
	PurchaseQuotationStatusExpired   PurchaseQuotationStatus = "Expired"
	PurchaseQuotationStatusConverted PurchaseQuotationStatus = "Converted"
	PurchaseQuotationStatusClosed    PurchaseQuotationStatus = "Closed"
	PurchaseQuotationStatusCancelled PurchaseQuotationStatus = "Cancelled"
)

func ParsePurchaseQuotationStatus(str string) (PurchaseQuotationStatus, error) {
	quotationStatus := map[string]PurchaseQuotationStatus{
		"Draft":     PurchaseQuotationStatusDraft,
		"Open":      PurchaseQuotationStatusOpen,
		"Sent":      PurchaseQuotationStatusSent,
		"Expired":   PurchaseQuotationStatusExpired,
		"Converted": PurchaseQuotationStatusConverted,
		"Closed":    PurchaseQuotationStatusClosed,
		"Cancelled": PurchaseQuotationStatusCancelled,
	}
	v, ok := quotationStatus[str]
	if !ok {
		return "", fmt.Errorf("%s is not a valid purchase quotation status", str)
	}
	return v, nil
}

// BlocksConversion reports whether a quotation in this status may no longer
// become an order. A quotation converts at most once.
func (s PurchaseQuotationStatus) BlocksConversion() bool {
	switch s {
	case PurchaseQuotationStatusExpired,
		PurchaseQuotationStatusConverted,
		PurchaseQuotationStatusClosed,
		PurchaseQuotationStatusCancelled:
		return true
	}
	return false
}

// PurchaseOrderStatus is the order's document lifecycle only. Receipt and
// billing progress are tracked on their own fields (OrderFulfillmentStatus,
// OrderBillingStatus) so the two dimensions can never overwrite each other.
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft     PurchaseOrderStatus = "Draft"
	PurchaseOrderStatusOpen      PurchaseOrderStatus = "Open"
	PurchaseOrderStatusClosed    PurchaseOrderStatus = "Closed"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "Cancelled"
)

func ParsePurchaseOrderStatus(str string) (PurchaseOrderStatus, error) {
	purchaseOrderStatus := map[string]PurchaseOrderStatus{
		"Draft":     PurchaseOrderStatusDraft,
		"Open":      PurchaseOrderStatusOpen,
		"Closed":    PurchaseOrderStatusClosed,
		"Cancelled": PurchaseOrderStatusCancelled,
	}
	v, ok := purchaseOrderStatus[str]
	if !ok {
		return "", fmt.Errorf("%s is not a valid purchase order status", str)
	}
	return v, nil
}

func (s PurchaseOrderStatus) BlocksConversion() bool {
	return s == PurchaseOrderStatusClosed || s == PurchaseOrderStatusCancelled
}

type OrderFulfillmentStatus string

const (
	OrderFulfillmentStatusOpen              OrderFulfillmentStatus = "Open"
	OrderFulfillmentStatusPartiallyReceived OrderFulfillmentStatus = "Partially Received"
	OrderFulfillmentStatusReceived          OrderFulfillmentStatus = "Received"
)

type OrderBillingStatus string

const (
	OrderBillingStatusOpen              OrderBillingStatus = "Open"
	OrderBillingStatusPartiallyInvoiced OrderBillingStatus = "Partially Invoiced"
	OrderBillingStatusInvoiced          OrderBillingStatus = "Invoiced"
)

type GoodsReceiptStatus string

const (
	GoodsReceiptStatusDraft             GoodsReceiptStatus = "Draft"
	GoodsReceiptStatusOpen              GoodsReceiptStatus = "Open"
	GoodsReceiptStatusPartiallyReceived GoodsReceiptStatus = "Partially Received"
	GoodsReceiptStatusReceived          GoodsReceiptStatus = "Received"
	GoodsReceiptStatusClosed            GoodsReceiptStatus = "Closed"
	GoodsReceiptStatusCancelled         GoodsReceiptStatus = "Cancelled"
)

func ParseGoodsReceiptStatus(str string) (GoodsReceiptStatus, error) {
	goodsReceiptStatus := map[string]GoodsReceiptStatus{
		"Draft":              GoodsReceiptStatusDraft,
		"Open":               GoodsReceiptStatusOpen,
		"Partially Received": GoodsReceiptStatusPartiallyReceived,
		"Received":           GoodsReceiptStatusReceived,
		"Closed":             GoodsReceiptStatusClosed,
		"Cancelled":          GoodsReceiptStatusCancelled,
	}
	v, ok := goodsReceiptStatus[str]
	if !ok {
		return "", fmt.Errorf("%s is not a valid goods receipt status", str)
	}
	return v, nil
}

func (s GoodsReceiptStatus) BlocksConversion() bool {
	return s == GoodsReceiptStatusClosed || s == GoodsReceiptStatusCancelled
}

type GoodsReturnStatus string

const (
	GoodsReturnStatusDraft     GoodsReturnStatus = "Draft"
	GoodsReturnStatusOpen      GoodsReturnStatus = "Open"
	GoodsReturnStatusReturned  GoodsReturnStatus = "Returned"
	GoodsReturnStatusClosed    GoodsReturnStatus = "Closed"
	GoodsReturnStatusCancelled GoodsReturnStatus = "Cancelled"
)

func ParseGoodsReturnStatus(str string) (GoodsReturnStatus, error) {
	goodsReturnStatus := map[string]GoodsReturnStatus{
		"Draft":     GoodsReturnStatusDraft,
		"Open":      GoodsReturnStatusOpen,
		"Returned":  GoodsReturnStatusReturned,
		"Closed":    GoodsReturnStatusClosed,
		"Cancelled": GoodsReturnStatusCancelled,
	}
	v, ok := goodsReturnStatus[str]
	if !ok {
		return "", fmt.Errorf("%s is not a valid goods return status", str)
	}
	return v, nil
}

type APInvoiceStatus string

const (
	APInvoiceStatusDraft         APInvoiceStatus = "Draft"
	APInvoiceStatusOpen          APInvoiceStatus = "Open"
	APInvoiceStatusPartiallyPaid APInvoiceStatus = "Partially Paid"
	APInvoiceStatusPaid          APInvoiceStatus = "Paid"
	APInvoiceStatusOverdue       APInvoiceStatus = "Overdue"
	APInvoiceStatusCancelled     APInvoiceStatus = "Cancelled"
)

func ParseAPInvoiceStatus(str string) (APInvoiceStatus, error) {
	apInvoiceStatus := map[string]APInvoiceStatus{
		"Draft":          APInvoiceStatusDraft,
		"Open":           APInvoiceStatusOpen,
		"Partially Paid": APInvoiceStatusPartiallyPaid,
		"Paid":           APInvoiceStatusPaid,
		"Overdue":        APInvoiceStatusOverdue,
		"Cancelled":      APInvoiceStatusCancelled,
	}
	v, ok := apInvoiceStatus[str]
	if !ok {
		return "", fmt.Errorf("%s is not a valid AP invoice status", str)
	}
	return v, nil
}

// ReturnQuantityPolicy picks how a direct order -> return conversion sizes
// its lines. The legacy behavior copies the full ordered quantity; the
// consistent behavior copies only what has not been returned yet.
type ReturnQuantityPolicy string

const (
	ReturnFullQuantity      ReturnQuantityPolicy = "Full Quantity"
	ReturnRemainingQuantity ReturnQuantityPolicy = "Remaining Quantity"
)

func ParseReturnQuantityPolicy(str string) (ReturnQuantityPolicy, error) {
	returnQuantityPolicy := map[string]ReturnQuantityPolicy{
		"Full Quantity":      ReturnFullQuantity,
		"Remaining Quantity": ReturnRemainingQuantity,
		"full":               ReturnFullQuantity,
		"remaining":          ReturnRemainingQuantity,
	}
	v, ok := returnQuantityPolicy[str]
	if !ok {
		return "", fmt.Errorf("%s is not a valid return quantity policy", str)
	}
	return v, nil
}
