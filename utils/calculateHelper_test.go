package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCalculateLineTotal_RoundsHalfUpAtSixDigits(t *testing.T) {
	cases := []struct {
		qty      string
		price    string
		expected string
	}{
		{"2", "10.50", "21"},
		{"0.5", "0.000001", "0.000001"},      // product 0.0000005, the half case rounds up
		{"1.5", "0.0000005", "0.000001"},     // 0.00000075 rounds up
		{"3.333333", "3", "9.999999"},        // exact at six digits, untouched
		{"0.333333", "0.333333", "0.111111"}, // 0.111110888889 rounds up
		{"7", "0.142857", "0.999999"},
		{"1000000", "0.0000001", "0.1"},
	}
	for _, tc := range cases {
		got := CalculateLineTotal(dec(tc.qty), dec(tc.price))
		if got.Cmp(dec(tc.expected)) != 0 {
			t.Fatalf("CalculateLineTotal(%s, %s) expected %s, got %s", tc.qty, tc.price, tc.expected, got.String())
		}
	}
}

func TestCalculateHeaderTotals_Identities(t *testing.T) {
	lineTotals := []decimal.Decimal{dec("100.123456"), dec("49.876544"), dec("0.000001")}

	total, payable, due := CalculateHeaderTotals(lineTotals, dec("10"), dec("20"))

	if total.Cmp(dec("150.00")) != 0 {
		t.Fatalf("expected total 150.00, got %s", total.String())
	}
	if payable.Cmp(total.Sub(dec("10"))) != 0 {
		t.Fatalf("payable must equal total - discount, got %s", payable.String())
	}
	if due.Cmp(payable.Sub(dec("20"))) != 0 {
		t.Fatalf("due must equal payable - paid, got %s", due.String())
	}
}

func TestCalculateHeaderTotals_OverpaymentGoesNegative(t *testing.T) {
	_, payable, due := CalculateHeaderTotals([]decimal.Decimal{dec("50")}, decimal.Zero, dec("80"))

	if payable.Cmp(dec("50.00")) != 0 {
		t.Fatalf("expected payable 50.00, got %s", payable.String())
	}
	if due.Cmp(dec("-30.00")) != 0 {
		t.Fatalf("overpayment must yield negative due, got %s", due.String())
	}
}

func TestCalculateHeaderTotals_EmptyLines(t *testing.T) {
	total, payable, due := CalculateHeaderTotals(nil, dec("5"), decimal.Zero)

	if !total.IsZero() {
		t.Fatalf("expected zero total, got %s", total.String())
	}
	if payable.Cmp(dec("-5.00")) != 0 {
		t.Fatalf("expected payable -5.00, got %s", payable.String())
	}
	if due.Cmp(dec("-5.00")) != 0 {
		t.Fatalf("expected due -5.00, got %s", due.String())
	}
}

func TestCalculateHeaderTotals_Idempotent(t *testing.T) {
	lineTotals := []decimal.Decimal{dec("33.333333"), dec("66.666667")}

	total1, payable1, due1 := CalculateHeaderTotals(lineTotals, dec("1.5"), dec("2.25"))
	total2, payable2, due2 := CalculateHeaderTotals(lineTotals, dec("1.5"), dec("2.25"))

	if total1.Cmp(total2) != 0 || payable1.Cmp(payable2) != 0 || due1.Cmp(due2) != 0 {
		t.Fatalf("recomputation changed results: %s/%s/%s vs %s/%s/%s",
			total1, payable1, due1, total2, payable2, due2)
	}
}
