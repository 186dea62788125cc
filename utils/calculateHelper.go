package utils

import (
	"github.com/shopspring/decimal"
)

// Fractional digits carried by each kind of amount. Quantities and line
// totals keep six digits so partial-unit conversions never lose precision;
// header money fields are presented at two.
const (
	QtyScale   = 6
	MoneyScale = 2
)

// CalculateLineTotal values one document line: quantity x unit price,
// rounded half-up at line scale.
func CalculateLineTotal(quantity decimal.Decimal, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Round(QtyScale)
}

func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MoneyScale)
}

// CalculateHeaderTotals derives the three header financial fields from the
// sum of line totals:
//
//	total   = sum(line totals)
//	payable = total - discount
//	due     = payable - paid
//
// A negative due amount is allowed (overpayment); nothing is clamped here.
func CalculateHeaderTotals(lineTotals []decimal.Decimal, discountAmount decimal.Decimal, paidAmount decimal.Decimal) (total decimal.Decimal, payable decimal.Decimal, due decimal.Decimal) {
	for _, lineTotal := range lineTotals {
		total = total.Add(lineTotal)
	}
	total = RoundMoney(total)
	payable = RoundMoney(total.Sub(discountAmount))
	due = RoundMoney(payable.Sub(paidAmount))
	return total, payable, due
}
