package config

import "testing"

func TestOrderDirectReturnPolicy(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"", "full"},
		{"full", "full"},
		{"remaining", "remaining"},
		{" REMAINING ", "remaining"},
		{"bogus", "full"},
	}
	for _, tt := range tests {
		t.Setenv("ORDER_DIRECT_RETURN_POLICY", tt.value)
		if got := OrderDirectReturnPolicy(); got != tt.want {
			t.Fatalf("OrderDirectReturnPolicy() with %q = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestStrictConvertedDocImmutability(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{"0", false},
		{"off", false},
	}
	for _, tt := range tests {
		t.Setenv("STRICT_CONVERTED_DOC_IMMUTABLE", tt.value)
		if got := StrictConvertedDocImmutability(); got != tt.want {
			t.Fatalf("StrictConvertedDocImmutability() with %q = %v, want %v", tt.value, got, tt.want)
		}
	}
}
