package models_test

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/procurement_backend/models"
)

func TestCalculateDueDate(t *testing.T) {
	base := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		terms      models.PaymentTerms
		customDays int
		expected   time.Time
	}{
		{models.PaymentTermsDueOnReceipt, 0, base},
		{models.PaymentTermsNet15, 0, base.AddDate(0, 0, 15)},
		{models.PaymentTermsNet30, 0, base.AddDate(0, 0, 30)},
		{models.PaymentTermsNet45, 0, base.AddDate(0, 0, 45)},
		{models.PaymentTermsNet60, 0, base.AddDate(0, 0, 60)},
		{models.PaymentTermsDueEndOfMonth, 0, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)},
		{models.PaymentTermsDueEndOfNextMonth, 0, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)},
		{models.PaymentTermsCustom, 7, base.AddDate(0, 0, 7)},
	}
	for _, tc := range cases {
		got := models.CalculateDueDate(base, tc.terms, tc.customDays)
		if got == nil {
			t.Fatalf("%s: expected a due date, got nil", tc.terms)
		}
		if !got.Equal(tc.expected) {
			t.Fatalf("%s: expected %s, got %s", tc.terms, tc.expected.Format("2006-01-02"), got.Format("2006-01-02"))
		}
	}
}

func TestCalculateDueDateMonthEndAcrossYearBoundary(t *testing.T) {
	base := time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC)

	endOfMonth := models.CalculateDueDate(base, models.PaymentTermsDueEndOfMonth, 0)
	if !endOfMonth.Equal(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected 2025-12-31, got %s", endOfMonth.Format("2006-01-02"))
	}

	endOfNextMonth := models.CalculateDueDate(base, models.PaymentTermsDueEndOfNextMonth, 0)
	if !endOfNextMonth.Equal(time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected 2026-01-31, got %s", endOfNextMonth.Format("2006-01-02"))
	}
}
