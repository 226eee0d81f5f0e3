// Copyright 2025 Certen Protocol
//
// Package keeper implements the wallet-state transition engine:
// applying a BlockDelta to a WalletState folds its new notes and spent
// nullifiers into running accumulators and advances the state
// commitment. Fold semantics mirror the original wallet-state crate's
// compute_notes_root/compute_nullifiers_root exactly.

package keeper

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/certen/independant-validator/pkg/pofcore/commitment"
)

// WalletStateVersion tags the commitment layout below. Bumping it is a
// breaking change to every persisted WalletState.
const WalletStateVersion = 1

// WalletState is the keeper's per-shard state: a running record of
// height, external anchor, and the two fold accumulators.
type WalletState struct {
	Height         uint64
	Anchor         fr.Element
	NotesRoot      fr.Element
	NullifiersRoot fr.Element
	Version        uint64
}

// Genesis returns the all-zero starting state at height 0.
func Genesis() WalletState {
	return WalletState{Height: 0, Version: WalletStateVersion}
}

// Commitment computes S = H(height, anchor, notes_root, nullifiers_root, version).
func (s WalletState) Commitment() fr.Element {
	var height, version fr.Element
	height.SetUint64(s.Height)
	version.SetUint64(s.Version)
	return commitment.PoseidonHash(height, s.Anchor, s.NotesRoot, s.NullifiersRoot, version)
}

// NoteIdentifier is one shielded note added by a block.
type NoteIdentifier struct {
	Commitment fr.Element
	Value      fr.Element
	Position   uint64
}

// NullifierIdentifier is one nullifier spent by a block.
type NullifierIdentifier struct {
	Nullifier      fr.Element
	NoteCommitment fr.Element
}

// BlockDelta is the unit of state transition the keeper applies.
type BlockDelta struct {
	BlockHeight     uint64
	AnchorNew       fr.Element
	NewNotes        []NoteIdentifier
	SpentNullifiers []NullifierIdentifier
}

// AccumulatorFold sequentially folds a sequence of items into a running
// accumulator starting from start: acc = H(acc, item...).
// This is the one fold primitive both compute_notes_root and
// compute_nullifiers_root reduce to.
func AccumulatorFold(start fr.Element, items [][]fr.Element) fr.Element {
	acc := start
	for _, fields := range items {
		args := make([]fr.Element, 0, len(fields)+1)
		args = append(args, acc)
		args = append(args, fields...)
		acc = commitment.PoseidonHash(args...)
	}
	return acc
}

func computeNotesRoot(prev fr.Element, notes []NoteIdentifier) fr.Element {
	items := make([][]fr.Element, len(notes))
	for i, n := range notes {
		var pos fr.Element
		pos.SetUint64(n.Position)
		items[i] = []fr.Element{n.Commitment, n.Value, pos}
	}
	return AccumulatorFold(prev, items)
}

func computeNullifiersRoot(prev fr.Element, nulls []NullifierIdentifier) fr.Element {
	items := make([][]fr.Element, len(nulls))
	for i, n := range nulls {
		items[i] = []fr.Element{n.Nullifier, n.NoteCommitment}
	}
	return AccumulatorFold(prev, items)
}
