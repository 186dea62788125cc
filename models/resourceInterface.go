package models

func (b Branch) GetBusinessId() string {
	return b.BusinessId
}

func (c Currency) GetBusinessId() string {
	return c.BusinessId
}

func (p PaymentMode) GetBusinessId() string {
	return p.BusinessId
}

func (s Supplier) GetBusinessId() string {
	return s.BusinessId
}

func (w Warehouse) GetBusinessId() string {
	return w.BusinessId
}

func (q PurchaseQuotation) GetBusinessId() string {
	return q.BusinessId
}

func (po PurchaseOrder) GetBusinessId() string {
	return po.BusinessId
}

func (g GoodsReceipt) GetBusinessId() string {
	return g.BusinessId
}

func (g GoodsReturn) GetBusinessId() string {
	return g.BusinessId
}

func (i APInvoice) GetBusinessId() string {
	return i.BusinessId
}

func (t TransactionNumberSeries) GetBusinessId() string {
	return t.BusinessId
}

func (h History) GetBusinessId() string {
	return h.BusinessId
}
