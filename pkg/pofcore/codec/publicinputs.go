// Copyright 2025 Certen Protocol
//
// Package codec encodes and decodes the public-input vector shared by
// every rail circuit and by the wire-level ProofBundle envelope.

package codec

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// FieldOrderVersion tags the fixed ordering PublicInputs is encoded in.
// Bumping it is a breaking change to every circuit's public-input layout.
const FieldOrderVersion = 1

// PublicInputs is the 8-slot vector every rail circuit exposes as public
// input and every ProofBundle carries alongside its proof.
type PublicInputs struct {
	BalanceThreshold    fr.Element
	CurrencyCode        fr.Element
	CustodianID         fr.Element
	EpochID             fr.Element
	Nullifier           fr.Element
	CustodianPubkeyHash fr.Element
	PolicyID            fr.Element
	// VerifierScopeID is the domain separator binding a proof to a
	// specific verifier. It is a public input, not a witness: a prover
	// cannot submit the same circuit assignment under a different
	// scope without the in-circuit nullifier (which hashes this field)
	// changing too.
	VerifierScopeID fr.Element
}

// MarshalJSON makes PublicInputs itself serialize as its canonical hex
// wire form, so any struct that embeds it (ProofBundle's HTTP envelope
// included) gets the same format MarshalCanonicalJSON produces instead
// of fr.Element's raw limb representation.
func (p PublicInputs) MarshalJSON() ([]byte, error) {
	return MarshalCanonicalJSON(p)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (p *PublicInputs) UnmarshalJSON(data []byte) error {
	decoded, err := UnmarshalCanonicalJSON(data)
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}

// EncodeFieldOrder returns the eight field elements in the fixed order
// every rail circuit's Define method consumes them in.
func EncodeFieldOrder(p PublicInputs) [8]fr.Element {
	return [8]fr.Element{
		p.BalanceThreshold,
		p.CurrencyCode,
		p.CustodianID,
		p.EpochID,
		p.Nullifier,
		p.CustodianPubkeyHash,
		p.PolicyID,
		p.VerifierScopeID,
	}
}

// DecodeFieldOrder rebuilds a PublicInputs from the fixed field order.
func DecodeFieldOrder(elems [8]fr.Element) PublicInputs {
	return PublicInputs{
		BalanceThreshold:    elems[0],
		CurrencyCode:        elems[1],
		CustodianID:         elems[2],
		EpochID:             elems[3],
		Nullifier:           elems[4],
		CustodianPubkeyHash: elems[5],
		PolicyID:            elems[6],
		VerifierScopeID:     elems[7],
	}
}

// wireInputs is the canonical JSON shape: hex-encoded field elements so
// the envelope round-trips exactly and sorts deterministically when
// embedded in a larger canonical document.
type wireInputs struct {
	Version             int    `json:"version"`
	BalanceThreshold    string `json:"balance_threshold"`
	CurrencyCode        string `json:"currency_code"`
	CustodianID         string `json:"custodian_id"`
	EpochID             string `json:"epoch_id"`
	Nullifier           string `json:"nullifier"`
	CustodianPubkeyHash string `json:"custodian_pubkey_hash"`
	PolicyID            string `json:"policy_id"`
	VerifierScopeID     string `json:"verifier_scope_id"`
}

// MarshalCanonicalJSON encodes PublicInputs as its canonical wire form.
func MarshalCanonicalJSON(p PublicInputs) ([]byte, error) {
	w := wireInputs{
		Version:             FieldOrderVersion,
		BalanceThreshold:    p.BalanceThreshold.String(),
		CurrencyCode:        p.CurrencyCode.String(),
		CustodianID:         p.CustodianID.String(),
		EpochID:             p.EpochID.String(),
		Nullifier:           p.Nullifier.String(),
		CustodianPubkeyHash: p.CustodianPubkeyHash.String(),
		PolicyID:            p.PolicyID.String(),
		VerifierScopeID:     p.VerifierScopeID.String(),
	}
	return json.Marshal(w)
}

// UnmarshalCanonicalJSON decodes PublicInputs from its canonical wire form.
func UnmarshalCanonicalJSON(data []byte) (PublicInputs, error) {
	var w wireInputs
	if err := json.Unmarshal(data, &w); err != nil {
		return PublicInputs{}, fmt.Errorf("codec: decode public inputs: %w", err)
	}
	if w.Version != FieldOrderVersion {
		return PublicInputs{}, fmt.Errorf("codec: unsupported field order version %d", w.Version)
	}

	var p PublicInputs
	type field struct {
		dst  *fr.Element
		s    string
		name string
	}
	fields := []field{
		{&p.BalanceThreshold, w.BalanceThreshold, "balance_threshold"},
		{&p.CurrencyCode, w.CurrencyCode, "currency_code"},
		{&p.CustodianID, w.CustodianID, "custodian_id"},
		{&p.EpochID, w.EpochID, "epoch_id"},
		{&p.Nullifier, w.Nullifier, "nullifier"},
		{&p.CustodianPubkeyHash, w.CustodianPubkeyHash, "custodian_pubkey_hash"},
		{&p.PolicyID, w.PolicyID, "policy_id"},
		{&p.VerifierScopeID, w.VerifierScopeID, "verifier_scope_id"},
	}

	for _, f := range fields {
		if _, err := f.dst.SetString(f.s); err != nil {
			return PublicInputs{}, fmt.Errorf("codec: field %s: %w", f.name, err)
		}
	}
	return p, nil
}

// sortedKeys returns m's keys in ascending order. Nothing in this
// module calls it.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
