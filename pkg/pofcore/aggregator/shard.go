// Copyright 2025 Certen Protocol
//
// Package aggregator folds a shard's sequence of block tachystamps
// into a running per-shard accumulator — an incrementally verifiable
// computation: verifying the next tachystamp only ever depends on the
// previous accumulator, never the full history. Generalizes the batch
// processor's request/result accumulation shape from anchor batches to
// tachystamp folding, with a mandatory cross-submission nullifier
// uniqueness check a batch processor never needed.

package aggregator

import (
	"crypto/sha256"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/certen/independant-validator/pkg/pofcore/commitment"
	"github.com/certen/independant-validator/pkg/pofcore/errs"
)

// Tachystamp is the keeper's proof that one block transitioned a
// shard's wallet state from prev_commitment to new_commitment,
// together with every nullifier the block spent — the unit the
// aggregator folds and the epoch aggregator checks for cross-shard
// collisions.
type Tachystamp struct {
	Epoch          uint64
	ShardID        string
	PrevCommitment fr.Element
	NewCommitment  fr.Element
	DeltaDigest    fr.Element
	Nullifiers     []fr.Element
	// Proof binds (shard_verifying_key, prev_commitment, new_commitment,
	// delta_digest) with a keyed Poseidon hash. It stands in for a
	// recursive SNARK folding proof: the backend-agnostic IVC surface
	// names the commitments a real fold must bind but does not pin a
	// specific curve cycle, so this keeps the binding and drops the
	// recursion.
	Proof fr.Element
}

// TransitionProof computes the keyed Poseidon hash a Tachystamp's
// Proof field must equal: Poseidon(verifying_key, prev_commitment,
// new_commitment, delta_digest). Exported so the keeper can build a
// Tachystamp the aggregator will accept.
func TransitionProof(verifyingKey, prev, next, deltaDigest fr.Element) fr.Element {
	return commitment.PoseidonHash(verifyingKey, prev, next, deltaDigest)
}

// ShardVerifyingKey deterministically derives a shard's transition-
// proof key from its id, so every validator computing it independently
// agrees without a distributed key-generation ceremony.
func ShardVerifyingKey(shardID string) fr.Element {
	digest := sha256.Sum256([]byte(shardID))
	var vk fr.Element
	vk.SetBytes(digest[:])
	return vk
}

// ShardAggregator folds successive tachystamps for one shard and
// rejects any that replay a nullifier the shard has already spent.
type ShardAggregator struct {
	shardID        string
	verifyingKey   fr.Element
	accumulator    fr.Element
	height         uint64
	seenNullifiers map[string]struct{}
}

// NewShardAggregator starts a fresh fold for shardID at the zero
// accumulator.
func NewShardAggregator(shardID string) *ShardAggregator {
	return &ShardAggregator{
		shardID:        shardID,
		verifyingKey:   ShardVerifyingKey(shardID),
		seenNullifiers: make(map[string]struct{}),
	}
}

// VerifyingKey returns the shard's derived transition-proof key.
func (a *ShardAggregator) VerifyingKey() fr.Element {
	return a.verifyingKey
}

// Accumulator returns the shard's current folded commitment.
func (a *ShardAggregator) Accumulator() fr.Element {
	return a.accumulator
}

// Height returns the number of tachystamps folded in so far.
func (a *ShardAggregator) Height() uint64 {
	return a.height
}

// Submit verifies and folds the next tachystamp into the shard's
// running state:
//  1. its prev_commitment must equal the shard's current accumulator
//     (no gaps, no reordering);
//  2. its proof must equal TransitionProof(verifying_key,
//     prev_commitment, new_commitment, delta_digest);
//  3. none of its nullifiers may have been spent by an earlier
//     tachystamp on this shard.
//
// Only once all three hold does the accumulator advance.
func (a *ShardAggregator) Submit(t Tachystamp) error {
	if t.ShardID != a.shardID {
		return fmt.Errorf("aggregator: tachystamp shard %q does not match aggregator shard %q", t.ShardID, a.shardID)
	}
	if !t.PrevCommitment.Equal(&a.accumulator) {
		return fmt.Errorf("%w: tachystamp prev_commitment does not chain from shard accumulator", errs.ErrStateMismatch)
	}

	expectedProof := TransitionProof(a.verifyingKey, t.PrevCommitment, t.NewCommitment, t.DeltaDigest)
	if !expectedProof.Equal(&t.Proof) {
		return fmt.Errorf("%w: shard transition proof does not verify", errs.ErrVerificationFailed)
	}

	for _, n := range t.Nullifiers {
		if _, spent := a.seenNullifiers[n.String()]; spent {
			return fmt.Errorf("%w: nullifier %s already spent on shard %s", errs.ErrNullifierReplay, n.String(), a.shardID)
		}
	}

	for _, n := range t.Nullifiers {
		a.seenNullifiers[n.String()] = struct{}{}
	}
	a.accumulator = t.NewCommitment
	a.height++

	return nil
}
