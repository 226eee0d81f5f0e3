// Copyright 2025 Certen Protocol

package commitment

import "github.com/consensys/gnark-crypto/ecc/bn254/fr"

// DeriveNullifier computes nullifier = Poseidon4(accountIDHash,
// verifierScope, policyID, epoch) — the same four-ary hash the
// attestation circuit enforces in-circuit, so a bundle's
// declared public nullifier must equal this value computed from the
// witness fields it claims to derive from.
func DeriveNullifier(accountIDHash, verifierScope, policyID, epoch fr.Element) fr.Element {
	return PoseidonHash(accountIDHash, verifierScope, policyID, epoch)
}

// DeriveAttestationDigest hashes the fields a custodian attestation
// signs over, in the fixed order balance, attestationID, currency,
// custodian, issuedAt, validUntil, accountIDHash. The circuit checks
// this digest against the message hash the signature covers.
//
// The seven fields are hashed in two passes, as the attestation circuit
// does: the first five are hashed into an intermediate digest, which is
// then hashed together with the remaining two.
func DeriveAttestationDigest(balance, attestationID, currency, custodian, issuedAt, validUntil, accountIDHash fr.Element) fr.Element {
	first := PoseidonHash(balance, attestationID, currency, custodian, issuedAt)
	return PoseidonHash(first, validUntil, accountIDHash)
}

// DerivePubkeyHash computes pubkey_hash = Poseidon2(x, y) for a
// custodian's ECDSA public key coordinates — the value a ProofBundle's
// custodian_pubkey_hash public input must match.
func DerivePubkeyHash(x, y fr.Element) fr.Element {
	return PoseidonHash(x, y)
}

// DeriveFvkCommitment commits to a shielded-rail full viewing key, so
// the nullifier can bind to "this holder" without revealing fvk
// itself or which notes it owns.
func DeriveFvkCommitment(fvk fr.Element) fr.Element {
	return PoseidonHash(fvk)
}

// DeriveShieldedNullifier computes the shielded rail's rail-level
// nullifier: Poseidon4(fvk_commitment, policy_id, scope_id, epoch).
func DeriveShieldedNullifier(fvkCommitment, policyID, scopeID, epoch fr.Element) fr.Element {
	return PoseidonHash(fvkCommitment, policyID, scopeID, epoch)
}

// DeriveAccountSetCommitment folds a rollup rail's account-hash list
// into a single commitment via sequential Poseidon folding from zero.
// It folds exactly the hashes it is given and adds no padding; the
// rollup circuit folds all RollupMaxAccounts slots, with zero for each
// inactive one.
func DeriveAccountSetCommitment(accountHashes []fr.Element) fr.Element {
	var acc fr.Element
	for _, h := range accountHashes {
		acc = PoseidonHash(acc, h)
	}
	return acc
}

// DeriveRollupNullifier computes the L2-account rail's rail-level
// nullifier: Poseidon4(account_set_commitment, scope_id, policy_id, epoch).
func DeriveRollupNullifier(accountSetCommitment, scopeID, policyID, epoch fr.Element) fr.Element {
	return PoseidonHash(accountSetCommitment, scopeID, policyID, epoch)
}
