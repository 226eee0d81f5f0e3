// Copyright 2025 Certen Protocol
//
// Package errs provides the sentinel error kinds returned by proof-bundle
// verification. Callers classify failures with errors.Is against this set
// rather than string-matching messages.
package errs

import "errors"

// Sentinel errors for proof-bundle verification and state-transition
// operations. Never return nil, nil for a failed-but-not-erroring
// condition; return the matching sentinel instead.
var (
	// ErrSchemaInvalid is returned when a ProofBundle fails structural or
	// field-range validation before any cryptographic check runs.
	ErrSchemaInvalid = errors.New("proof bundle schema invalid")

	// ErrVerificationFailed is returned when the groth16 proof does not
	// verify against its declared verifying key and public inputs.
	ErrVerificationFailed = errors.New("proof verification failed")

	// ErrNullifierReplay is returned when the bundle's nullifier has
	// already been recorded for its (scope_id, policy_id) pair.
	ErrNullifierReplay = errors.New("nullifier already spent")

	// ErrPolicyMismatch is returned when the bundle's public inputs do
	// not satisfy the policy named by policy_id.
	ErrPolicyMismatch = errors.New("public inputs do not satisfy policy")

	// ErrPolicyNotFound is returned when policy_id has no registered policy.
	ErrPolicyNotFound = errors.New("policy not found")

	// ErrStateMismatch is returned when a BlockDelta does not apply
	// cleanly against the keeper's current WalletState.
	ErrStateMismatch = errors.New("wallet state mismatch")

	// ErrAlreadyFinalized is returned when a shard or epoch tick is
	// re-submitted after it has already been finalized.
	ErrAlreadyFinalized = errors.New("already finalized")

	// ErrEpochWindowExpired is returned when a proof's epoch_id falls
	// outside the policy's accepted epoch window.
	ErrEpochWindowExpired = errors.New("epoch window expired")

	// ErrRailUnsupported is returned when a ProofBundle names a rail tag
	// with no registered circuit.
	ErrRailUnsupported = errors.New("rail unsupported")

	// ErrScopeMismatch is returned when a ProofBundle's declared
	// scope_id does not match the verifier_scope_id its circuit was
	// proven against.
	ErrScopeMismatch = errors.New("scope id does not match circuit's verifier scope")

	// ErrNullifierCollision is returned when two shards report the same
	// nullifier within an epoch — a fatal cross-shard double-spend.
	ErrNullifierCollision = errors.New("nullifier collision across shards")

	// ErrUnknownNoteCommitment is returned when a BlockDelta spends a
	// nullifier whose note commitment the keeper never recorded as
	// added — spending a note the shard never owned.
	ErrUnknownNoteCommitment = errors.New("nullifier spends an unknown note commitment")
)
