package utils

import "testing"

func TestValidatePhoneNumber(t *testing.T) {
	tests := []struct {
		name        string
		phone       string
		countryCode string
		wantErr     bool
	}{
		{"international number ignores default region", "+442070313000", CountryCode, false},
		{"garbage input", "not-a-number", CountryCode, true},
		{"national format needs a region", "0912345678", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePhoneNumber(tt.phone, tt.countryCode)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePhoneNumber(%q, %q) = %v, wantErr %v", tt.phone, tt.countryCode, err, tt.wantErr)
			}
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	if !IsValidEmail("supplier@example.com") {
		t.Fatal("expected valid email to pass")
	}
	if IsValidEmail("not-an-email") {
		t.Fatal("expected invalid email to fail")
	}
}
