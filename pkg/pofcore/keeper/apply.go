// Copyright 2025 Certen Protocol

package keeper

import (
	"fmt"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/certen/independant-validator/pkg/pofcore/aggregator"
	"github.com/certen/independant-validator/pkg/pofcore/commitment"
	"github.com/certen/independant-validator/pkg/pofcore/errs"
)

// Keeper applies BlockDeltas against a shard's WalletState, one block
// at a time and in height order, persisting each resulting state via
// the supplied KV store. Every applied delta also produces a
// Tachystamp, queued until the epoch scheduler says it is time to hand
// the batch to the shard aggregator.
type Keeper struct {
	mu           sync.Mutex
	shardID      string
	state        WalletState
	kv           KV
	notes        map[string]struct{}
	verifyingKey fr.Element
	pending      []aggregator.Tachystamp
	scheduler    EpochScheduler
	currentEpoch uint64
}

// KV is the persisted key/value layout the keeper reads and writes
// through, following the ledger store's byte-key-layout conventions.
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
}

// New constructs a Keeper starting from genesis for shardID, finalizing
// an epoch every 100 blocks. Callers that are resuming from a
// persisted state should use Restore instead.
func New(shardID string, kv KV) *Keeper {
	return NewWithScheduler(shardID, kv, FixedIntervalScheduler{Interval: 100})
}

// NewWithScheduler is New with an explicit epoch-cut policy.
func NewWithScheduler(shardID string, kv KV, scheduler EpochScheduler) *Keeper {
	return &Keeper{
		shardID:      shardID,
		state:        Genesis(),
		kv:           kv,
		notes:        make(map[string]struct{}),
		verifyingKey: aggregator.ShardVerifyingKey(shardID),
		scheduler:    scheduler,
	}
}

// Restore constructs a Keeper from an already-known WalletState, for
// resuming after a restart. The in-memory note-ownership set starts
// empty; noteKnown falls back to the KV store for notes folded in
// before the restart.
func Restore(shardID string, state WalletState, kv KV) *Keeper {
	return &Keeper{
		shardID:      shardID,
		state:        state,
		kv:           kv,
		notes:        make(map[string]struct{}),
		verifyingKey: aggregator.ShardVerifyingKey(shardID),
		scheduler:    FixedIntervalScheduler{Interval: 100},
	}
}

// State returns the keeper's current WalletState.
func (k *Keeper) State() WalletState {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.state
}

// PendingTachystamps returns every tachystamp folded since the last
// FinalizeEpoch call, without clearing them.
func (k *Keeper) PendingTachystamps() []aggregator.Tachystamp {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]aggregator.Tachystamp, len(k.pending))
	copy(out, k.pending)
	return out
}

// ShouldFinalizeEpoch reports whether the keeper's scheduler says the
// current height should close out an epoch.
func (k *Keeper) ShouldFinalizeEpoch() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.scheduler.ShouldFinalize(k.state.Height)
}

// FinalizeEpoch hands back every tachystamp folded in since the last
// call, tagged with the epoch number that is now closing, and advances
// the keeper to the next epoch.
func (k *Keeper) FinalizeEpoch() ([]aggregator.Tachystamp, uint64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	stamps := k.pending
	k.pending = nil
	epoch := k.currentEpoch
	k.currentEpoch++
	return stamps, epoch
}

// ApplyBlockDelta validates and applies delta against the current
// state, advancing height by exactly one, folding new notes and spent
// nullifiers into the running accumulators, and returning the
// Tachystamp the shard aggregator will later verify and fold.
func (k *Keeper) ApplyBlockDelta(delta BlockDelta) (aggregator.Tachystamp, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if delta.BlockHeight <= k.state.Height {
		return aggregator.Tachystamp{}, fmt.Errorf("%w: delta height %d not after state height %d", errs.ErrAlreadyFinalized, delta.BlockHeight, k.state.Height)
	}
	if delta.BlockHeight != k.state.Height+1 {
		return aggregator.Tachystamp{}, fmt.Errorf("%w: delta height %d does not follow state height %d", errs.ErrStateMismatch, delta.BlockHeight, k.state.Height)
	}

	for _, nf := range delta.SpentNullifiers {
		known, err := k.noteKnown(nf.NoteCommitment)
		if err != nil {
			return aggregator.Tachystamp{}, err
		}
		if !known {
			return aggregator.Tachystamp{}, fmt.Errorf("%w: %s", errs.ErrUnknownNoteCommitment, nf.NoteCommitment.String())
		}
	}

	prevCommitment := k.state.Commitment()

	next := WalletState{
		Height:         delta.BlockHeight,
		Anchor:         delta.AnchorNew,
		NotesRoot:      computeNotesRoot(k.state.NotesRoot, delta.NewNotes),
		NullifiersRoot: computeNullifiersRoot(k.state.NullifiersRoot, delta.SpentNullifiers),
		Version:        WalletStateVersion,
	}
	newCommitment := next.Commitment()

	if k.kv != nil {
		if err := k.persist(next); err != nil {
			return aggregator.Tachystamp{}, err
		}
		for _, n := range delta.NewNotes {
			if err := k.kv.Set(noteKey(k.shardID, n.Commitment.String()), []byte{1}); err != nil {
				return aggregator.Tachystamp{}, fmt.Errorf("keeper: persist note commitment: %w", err)
			}
		}
	}
	for _, n := range delta.NewNotes {
		k.notes[n.Commitment.String()] = struct{}{}
	}

	digest := computeDeltaDigest(delta)
	nullifiers := make([]fr.Element, len(delta.SpentNullifiers))
	for i, nf := range delta.SpentNullifiers {
		nullifiers[i] = nf.Nullifier
	}

	stamp := aggregator.Tachystamp{
		Epoch:          k.currentEpoch,
		ShardID:        k.shardID,
		PrevCommitment: prevCommitment,
		NewCommitment:  newCommitment,
		DeltaDigest:    digest,
		Nullifiers:     nullifiers,
		Proof:          aggregator.TransitionProof(k.verifyingKey, prevCommitment, newCommitment, digest),
	}

	k.pending = append(k.pending, stamp)
	k.state = next
	return stamp, nil
}

// noteKnown reports whether commitment was previously folded in by
// ApplyBlockDelta as a new note, checking the in-memory set first and
// falling back to the KV store so a keeper resumed from a persisted
// WalletState still rejects nullifiers over notes it never owned.
func (k *Keeper) noteKnown(commitment fr.Element) (bool, error) {
	key := commitment.String()
	if _, ok := k.notes[key]; ok {
		return true, nil
	}
	if k.kv == nil {
		return false, nil
	}
	val, err := k.kv.Get(noteKey(k.shardID, key))
	if err != nil {
		return false, fmt.Errorf("keeper: lookup note commitment: %w", err)
	}
	return val != nil, nil
}

// computeDeltaDigest hashes a block delta's own contribution —
// independent of the state it is about to fold into — so the same
// delta always produces the same digest regardless of when it is
// applied.
func computeDeltaDigest(delta BlockDelta) fr.Element {
	var zero, height fr.Element
	height.SetUint64(delta.BlockHeight)
	notesContribution := computeNotesRoot(zero, delta.NewNotes)
	nullifiersContribution := computeNullifiersRoot(zero, delta.SpentNullifiers)
	return commitment.PoseidonHash(height, delta.AnchorNew, notesContribution, nullifiersContribution)
}
