package epoch

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/certen/independant-validator/pkg/pofcore/aggregator"
	"github.com/certen/independant-validator/pkg/pofcore/errs"
)

func feltT(v uint64) fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return e
}

func stamp(shardID string, v uint64, nullifiers ...fr.Element) aggregator.Tachystamp {
	return aggregator.Tachystamp{ShardID: shardID, NewCommitment: feltT(v), Nullifiers: nullifiers}
}

func TestAggregateRejectsEmptyInput(t *testing.T) {
	if _, err := Aggregate(1, nil); err == nil {
		t.Fatal("expected error aggregating zero shard tachystamps")
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	stamps := []aggregator.Tachystamp{
		stamp("shard-b", 20),
		stamp("shard-a", 10),
	}
	reordered := []aggregator.Tachystamp{stamps[1], stamps[0]}

	proof1, err := Aggregate(7, stamps)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	proof2, err := Aggregate(7, reordered)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if !bytes.Equal(proof1.Root, proof2.Root) {
		t.Fatal("epoch root must not depend on shard arrival order")
	}
	if len(proof1.ShardRoots) != 2 {
		t.Fatalf("expected 2 shard roots, got %d", len(proof1.ShardRoots))
	}
}

func TestAggregateDistinctForDifferentAccumulators(t *testing.T) {
	proof1, err := Aggregate(1, []aggregator.Tachystamp{stamp("shard-a", 10)})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	proof2, err := Aggregate(1, []aggregator.Tachystamp{stamp("shard-a", 11)})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if bytes.Equal(proof1.Root, proof2.Root) {
		t.Fatal("epoch roots must differ for distinct shard accumulators")
	}
}

// TestAggregateRejectsCrossShardNullifierCollision exercises the
// mandatory cross-shard double-spend check: the same nullifier
// reported by two different shards in the same epoch must withhold
// the whole epoch proof rather than silently fold both in.
func TestAggregateRejectsCrossShardNullifierCollision(t *testing.T) {
	shared := feltT(555)
	stamps := []aggregator.Tachystamp{
		stamp("shard-a", 10, shared),
		stamp("shard-b", 20, shared),
	}

	_, err := Aggregate(1, stamps)
	if err == nil {
		t.Fatal("expected error aggregating an epoch with a cross-shard nullifier collision")
	}
	if !errors.Is(err, errs.ErrNullifierCollision) {
		t.Fatalf("expected ErrNullifierCollision, got %v", err)
	}
}

func TestAggregateNullifierSetRootCoversAllShards(t *testing.T) {
	stamps := []aggregator.Tachystamp{
		stamp("shard-a", 10, feltT(1), feltT(2)),
		stamp("shard-b", 20, feltT(3)),
	}
	proof, err := Aggregate(1, stamps)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(proof.NullifierSetRoot) == 0 {
		t.Fatal("expected a non-empty nullifier set root when tachystamps carry nullifiers")
	}
}

func TestAggregateNullifierSetRootEmptyWithoutNullifiers(t *testing.T) {
	proof, err := Aggregate(1, []aggregator.Tachystamp{stamp("shard-a", 10)})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if proof.NullifierSetRoot != nil {
		t.Fatalf("expected nil nullifier set root with no nullifiers spent, got %x", proof.NullifierSetRoot)
	}
}

func TestAccumulateAnchorerRejectsNilClient(t *testing.T) {
	a := NewAccumulateAnchorer(nil)
	proof, err := Aggregate(1, []aggregator.Tachystamp{stamp("shard-a", 10)})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if _, err := a.AnchorEpochRoot(context.Background(), proof, "deadbeef"); err == nil {
		t.Fatal("expected error anchoring with an unconfigured client")
	}
}

func TestAccumulateAnchorerRejectsEmptyTxHash(t *testing.T) {
	a := NewAccumulateAnchorer(nil)
	proof, err := Aggregate(1, []aggregator.Tachystamp{stamp("shard-a", 10)})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if _, err := a.AnchorEpochRoot(context.Background(), proof, ""); err == nil {
		t.Fatal("expected error anchoring with no relayed transaction hash")
	}
}
