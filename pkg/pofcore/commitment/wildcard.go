// Copyright 2025 Certen Protocol

package commitment

import "github.com/consensys/gnark-crypto/ecc/bn254/fr"

// EnforceWildcardEquality reports whether value satisfies required
// under wildcard-equality semantics: required == 0 means "any value is
// accepted", otherwise value must equal required exactly. This is the
// single generic gadget both currency_code and custodian_id checks
// reduce to — the original constraint system has one enforce_currency
// and one enforce_custodian function that both call this same rule.
func EnforceWildcardEquality(value, required fr.Element) bool {
	var zero fr.Element
	if required.Equal(&zero) {
		return true
	}
	return value.Equal(&required)
}
