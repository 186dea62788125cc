package config

import (
	"os"
	"strings"
)

// OrderDirectReturnPolicy selects how a direct purchase-order -> goods-return
// conversion decides line quantities.
//
// The legacy system copied the full ordered quantity on a direct return even
// when part of the order had already been returned; every other conversion
// path copies only the remaining quantity. Until the product owner settles the
// intended behavior, both are supported and the default stays on the legacy
// side.
//
// Set via env:
// - ORDER_DIRECT_RETURN_POLICY=full | remaining
func OrderDirectReturnPolicy() string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("ORDER_DIRECT_RETURN_POLICY")))
	if v == "remaining" {
		return "remaining"
	}
	return "full"
}

// StrictConvertedDocImmutability enables guardrails: documents that downstream
// documents were generated from cannot be edited; they must be cancelled and
// recreated.
//
// Set via env:
// - STRICT_CONVERTED_DOC_IMMUTABLE=true
func StrictConvertedDocImmutability() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_CONVERTED_DOC_IMMUTABLE")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
