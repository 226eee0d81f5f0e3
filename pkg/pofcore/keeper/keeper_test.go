package keeper

import (
	"errors"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/certen/independant-validator/pkg/pofcore/errs"
)

type memKV struct {
	data map[string][]byte
}

func newMemKV() *memKV { return &memKV{data: make(map[string][]byte)} }

func (m *memKV) Get(key []byte) ([]byte, error) {
	return m.data[string(key)], nil
}

func (m *memKV) Set(key, value []byte) error {
	m.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func feltT(v uint64) fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return e
}

func TestGenesisIsAllZero(t *testing.T) {
	g := Genesis()
	if g.Height != 0 || g.Version != WalletStateVersion {
		t.Fatalf("unexpected genesis state: %+v", g)
	}
	var zero fr.Element
	if !g.Anchor.Equal(&zero) || !g.NotesRoot.Equal(&zero) || !g.NullifiersRoot.Equal(&zero) {
		t.Fatal("genesis fields must all be zero")
	}
}

func TestApplyBlockDeltaAdvancesState(t *testing.T) {
	kv := newMemKV()
	k := New("shard-0", kv)

	delta := BlockDelta{
		BlockHeight: 1,
		AnchorNew:   feltT(11),
		NewNotes: []NoteIdentifier{
			{Commitment: feltT(1), Value: feltT(500), Position: 0},
		},
		SpentNullifiers: nil,
	}

	stamp, err := k.ApplyBlockDelta(delta)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if stamp.ShardID != "shard-0" {
		t.Fatalf("unexpected tachystamp shard id: %q", stamp.ShardID)
	}

	var zero fr.Element
	genesisCommitment := Genesis().Commitment()
	if !stamp.PrevCommitment.Equal(&genesisCommitment) {
		t.Fatal("first tachystamp's prev_commitment must be the genesis commitment")
	}
	if stamp.NewCommitment.Equal(&zero) {
		t.Fatal("new_commitment should have changed after folding a note")
	}

	next := k.State()
	if next.Height != 1 {
		t.Fatalf("expected height 1, got %d", next.Height)
	}
	nextCommitment := next.Commitment()
	if !nextCommitment.Equal(&stamp.NewCommitment) {
		t.Fatal("tachystamp new_commitment must equal the keeper's resulting state commitment")
	}

	persisted, err := LoadState("shard-0", kv)
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if persisted != next {
		t.Fatalf("persisted state %+v does not match applied state %+v", persisted, next)
	}

	pending := k.PendingTachystamps()
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending tachystamp, got %d", len(pending))
	}
}

func TestApplyBlockDeltaRejectsOutOfOrder(t *testing.T) {
	kv := newMemKV()
	k := New("shard-0", kv)

	if _, err := k.ApplyBlockDelta(BlockDelta{BlockHeight: 1}); err != nil {
		t.Fatalf("apply height 1: %v", err)
	}

	if _, err := k.ApplyBlockDelta(BlockDelta{BlockHeight: 1}); err == nil {
		t.Fatal("expected error re-applying the same height")
	}

	if _, err := k.ApplyBlockDelta(BlockDelta{BlockHeight: 3}); err == nil {
		t.Fatal("expected error skipping a height")
	}
}

func TestApplyBlockDeltaRejectsSpendingUnknownNote(t *testing.T) {
	kv := newMemKV()
	k := New("shard-0", kv)

	delta := BlockDelta{
		BlockHeight: 1,
		AnchorNew:   feltT(1),
		SpentNullifiers: []NullifierIdentifier{
			{Nullifier: feltT(99), NoteCommitment: feltT(1234)},
		},
	}

	_, err := k.ApplyBlockDelta(delta)
	if err == nil {
		t.Fatal("expected error spending a nullifier over a note the shard never recorded")
	}
	if !errors.Is(err, errs.ErrUnknownNoteCommitment) {
		t.Fatalf("expected ErrUnknownNoteCommitment, got %v", err)
	}
}

func TestApplyBlockDeltaAcceptsSpendingKnownNote(t *testing.T) {
	kv := newMemKV()
	k := New("shard-0", kv)

	noteCommitment := feltT(77)
	if _, err := k.ApplyBlockDelta(BlockDelta{
		BlockHeight: 1,
		AnchorNew:   feltT(1),
		NewNotes: []NoteIdentifier{
			{Commitment: noteCommitment, Value: feltT(500), Position: 0},
		},
	}); err != nil {
		t.Fatalf("apply note-adding delta: %v", err)
	}

	_, err := k.ApplyBlockDelta(BlockDelta{
		BlockHeight: 2,
		AnchorNew:   feltT(2),
		SpentNullifiers: []NullifierIdentifier{
			{Nullifier: feltT(1), NoteCommitment: noteCommitment},
		},
	})
	if err != nil {
		t.Fatalf("expected spending a known note commitment to succeed, got: %v", err)
	}
}

func TestApplyBlockDeltaRestoredKeeperChecksPersistedNotes(t *testing.T) {
	kv := newMemKV()
	k := New("shard-0", kv)
	noteCommitment := feltT(42)
	if _, err := k.ApplyBlockDelta(BlockDelta{
		BlockHeight: 1,
		AnchorNew:   feltT(1),
		NewNotes: []NoteIdentifier{
			{Commitment: noteCommitment, Value: feltT(500), Position: 0},
		},
	}); err != nil {
		t.Fatalf("apply note-adding delta: %v", err)
	}

	state := k.State()
	restored := Restore("shard-0", state, kv)

	_, err := restored.ApplyBlockDelta(BlockDelta{
		BlockHeight: 2,
		AnchorNew:   feltT(2),
		SpentNullifiers: []NullifierIdentifier{
			{Nullifier: feltT(1), NoteCommitment: noteCommitment},
		},
	})
	if err != nil {
		t.Fatalf("expected restored keeper to recognize a note persisted before restart, got: %v", err)
	}
}

func TestFinalizeEpochDrainsPendingAndAdvances(t *testing.T) {
	kv := newMemKV()
	k := New("shard-0", kv)

	if _, err := k.ApplyBlockDelta(BlockDelta{BlockHeight: 1, AnchorNew: feltT(1)}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := k.ApplyBlockDelta(BlockDelta{BlockHeight: 2, AnchorNew: feltT(2)}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	stamps, epoch := k.FinalizeEpoch()
	if epoch != 0 {
		t.Fatalf("expected first finalized epoch to be 0, got %d", epoch)
	}
	if len(stamps) != 2 {
		t.Fatalf("expected 2 tachystamps handed off, got %d", len(stamps))
	}
	if len(k.PendingTachystamps()) != 0 {
		t.Fatal("expected pending tachystamps to be drained after FinalizeEpoch")
	}

	if _, err := k.ApplyBlockDelta(BlockDelta{BlockHeight: 3, AnchorNew: feltT(3)}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	_, nextEpoch := k.FinalizeEpoch()
	if nextEpoch != 1 {
		t.Fatalf("expected second finalized epoch to be 1, got %d", nextEpoch)
	}
}

func TestFixedIntervalSchedulerFinalizesOnMultiples(t *testing.T) {
	s := FixedIntervalScheduler{Interval: 2}
	if s.ShouldFinalize(0) {
		t.Fatal("height 0 must never finalize")
	}
	if !s.ShouldFinalize(2) || !s.ShouldFinalize(4) {
		t.Fatal("expected multiples of the interval to finalize")
	}
	if s.ShouldFinalize(3) {
		t.Fatal("expected non-multiples of the interval not to finalize")
	}
}

func TestAccumulatorFoldOrderSensitive(t *testing.T) {
	var zero fr.Element
	a := AccumulatorFold(zero, [][]fr.Element{{feltT(1)}, {feltT(2)}})
	b := AccumulatorFold(zero, [][]fr.Element{{feltT(2)}, {feltT(1)}})
	if a.Equal(&b) {
		t.Fatal("fold must be sensitive to item order")
	}
}
