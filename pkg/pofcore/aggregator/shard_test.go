package aggregator

import (
	"errors"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/certen/independant-validator/pkg/pofcore/errs"
)

func feltT(v uint64) fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return e
}

func validTachystamp(shardID string, vk, prev, next, delta fr.Element, nullifiers ...fr.Element) Tachystamp {
	return Tachystamp{
		ShardID:        shardID,
		PrevCommitment: prev,
		NewCommitment:  next,
		DeltaDigest:    delta,
		Nullifiers:     nullifiers,
		Proof:          TransitionProof(vk, prev, next, delta),
	}
}

func TestSubmitFoldsSequentially(t *testing.T) {
	a := NewShardAggregator("shard-0")
	vk := a.VerifyingKey()

	var zero fr.Element
	first := validTachystamp("shard-0", vk, zero, feltT(10), feltT(1))
	if err := a.Submit(first); err != nil {
		t.Fatalf("submit first tachystamp: %v", err)
	}
	if a.Height() != 1 || !a.Accumulator().Equal(&first.NewCommitment) {
		t.Fatalf("unexpected aggregator state after first submit: height=%d accumulator=%v", a.Height(), a.Accumulator())
	}

	second := validTachystamp("shard-0", vk, first.NewCommitment, feltT(20), feltT(2))
	if err := a.Submit(second); err != nil {
		t.Fatalf("submit second tachystamp: %v", err)
	}
	if a.Height() != 2 || !a.Accumulator().Equal(&second.NewCommitment) {
		t.Fatalf("unexpected aggregator state after second submit: height=%d accumulator=%v", a.Height(), a.Accumulator())
	}
}

func TestSubmitRejectsBrokenChain(t *testing.T) {
	a := NewShardAggregator("shard-0")
	vk := a.VerifyingKey()

	wrongPrev := feltT(999)
	stamp := validTachystamp("shard-0", vk, wrongPrev, feltT(10), feltT(1))
	if err := a.Submit(stamp); err == nil {
		t.Fatal("expected error submitting a tachystamp whose prev_commitment does not chain")
	}
}

func TestSubmitRejectsForgedProof(t *testing.T) {
	a := NewShardAggregator("shard-0")
	var zero fr.Element
	stamp := Tachystamp{
		ShardID:        "shard-0",
		PrevCommitment: zero,
		NewCommitment:  feltT(10),
		DeltaDigest:    feltT(1),
		Proof:          feltT(0xdead),
	}
	if err := a.Submit(stamp); err == nil {
		t.Fatal("expected error submitting a tachystamp with a forged transition proof")
	}
}

func TestSubmitRejectsNullifierReplayWithinShard(t *testing.T) {
	a := NewShardAggregator("shard-0")
	vk := a.VerifyingKey()
	nullifierV := feltT(77)

	var zero fr.Element
	first := validTachystamp("shard-0", vk, zero, feltT(10), feltT(1), nullifierV)
	if err := a.Submit(first); err != nil {
		t.Fatalf("submit first tachystamp: %v", err)
	}

	second := validTachystamp("shard-0", vk, first.NewCommitment, feltT(20), feltT(2), nullifierV)
	err := a.Submit(second)
	if err == nil {
		t.Fatal("expected error replaying a nullifier already spent on this shard")
	}
	if !errors.Is(err, errs.ErrNullifierReplay) {
		t.Fatalf("expected ErrNullifierReplay, got %v", err)
	}
}
