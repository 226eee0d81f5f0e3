// Copyright 2025 Certen Protocol
//
// AttestationCircuit is the custodial-rail proof: it constrains a
// balance attestation signed by a registered custodian to satisfy a
// policy's threshold, currency and custodian checks, without revealing
// the account identity or exact balance. Constraint ordering follows
// the original constraint system's build_constraints function.

package circuits

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/poseidon2"
)

// AttestationCircuit is the witness+public-input layout for the
// custodial attestation rail.
type AttestationCircuit struct {
	// Public inputs, in PublicInputs field order.
	BalanceThreshold    frontend.Variable `gnark:",public"`
	CurrencyCode        frontend.Variable `gnark:",public"`
	CustodianID         frontend.Variable `gnark:",public"`
	EpochID             frontend.Variable `gnark:",public"`
	Nullifier           frontend.Variable `gnark:",public"`
	CustodianPubkeyHash frontend.Variable `gnark:",public"`
	PolicyID            frontend.Variable `gnark:",public"`
	VerifierScopeID     frontend.Variable `gnark:",public"`

	// Private witness: the attestation fields the custodian signed.
	Balance       frontend.Variable
	AttestationID frontend.Variable
	Currency      frontend.Variable
	Custodian     frontend.Variable
	IssuedAt      frontend.Variable
	ValidUntil    frontend.Variable
	AccountIDHash frontend.Variable
	CurrentEpoch  frontend.Variable
	PubkeyX       frontend.Variable
	PubkeyY       frontend.Variable
	MessageHash   frontend.Variable // digest the signature covers; the signature itself is not checked here
}

// balanceBits/timestampBits/codeBits are the declared bit-widths of
// the fields the circuit range-checks: balances and epoch timestamps
// are u64, currency/custodian codes are u32.
const (
	balanceBits   = 64
	timestampBits = 64
	codeBits      = 32
)

// Define enforces, in order:
//  1. balance, issued_at, valid_until fit in 64 bits; currency,
//     custodian fit in 32 bits
//  2. issued_at <= current_epoch <= valid_until (attestation freshness)
//  3. wildcard-equality of currency against CurrencyCode
//  4. wildcard-equality of custodian against CustodianID
//  5. balance >= threshold
//  6. Poseidon digest of the attestation fields equals MessageHash
//     (the value the custodian's signature covers; neither this circuit
//     nor the bundle verifier checks that signature)
//  7. nullifier = Poseidon4(account_id_hash, verifier_scope_id, policy_id, epoch)
//  8. pubkey_hash = Poseidon2(pubkey_x, pubkey_y)
func (c *AttestationCircuit) Define(api frontend.API) error {
	api.ToBinary(c.Balance, balanceBits)
	api.ToBinary(c.IssuedAt, timestampBits)
	api.ToBinary(c.ValidUntil, timestampBits)
	api.ToBinary(c.Currency, codeBits)
	api.ToBinary(c.Custodian, codeBits)

	api.AssertIsLessOrEqual(c.IssuedAt, c.CurrentEpoch)
	api.AssertIsLessOrEqual(c.CurrentEpoch, c.ValidUntil)

	enforceWildcardEquality(api, c.Currency, c.CurrencyCode)
	enforceWildcardEquality(api, c.Custodian, c.CustodianID)

	api.AssertIsLessOrEqual(c.BalanceThreshold, c.Balance)

	hasher, err := poseidon2.NewMerkleDamgardHasher(api)
	if err != nil {
		return err
	}
	hasher.Write(c.Balance, c.AttestationID, c.Currency, c.Custodian, c.IssuedAt)
	partial := hasher.Sum()

	hasher2, err := poseidon2.NewMerkleDamgardHasher(api)
	if err != nil {
		return err
	}
	hasher2.Write(partial, c.ValidUntil, c.AccountIDHash)
	digest := hasher2.Sum()
	api.AssertIsEqual(digest, c.MessageHash)

	nullHasher, err := poseidon2.NewMerkleDamgardHasher(api)
	if err != nil {
		return err
	}
	nullHasher.Write(c.AccountIDHash, c.VerifierScopeID, c.PolicyID, c.EpochID)
	api.AssertIsEqual(nullHasher.Sum(), c.Nullifier)

	pkHasher, err := poseidon2.NewMerkleDamgardHasher(api)
	if err != nil {
		return err
	}
	pkHasher.Write(c.PubkeyX, c.PubkeyY)
	api.AssertIsEqual(pkHasher.Sum(), c.CustodianPubkeyHash)

	return nil
}

// enforceWildcardEquality is the in-circuit counterpart of
// commitment.EnforceWildcardEquality: required == 0 accepts any value,
// otherwise value must equal required.
func enforceWildcardEquality(api frontend.API, value, required frontend.Variable) {
	isWildcard := api.IsZero(required)
	diff := api.Sub(value, required)
	masked := api.Mul(diff, api.Sub(1, isWildcard))
	api.AssertIsEqual(masked, 0)
}
