// Copyright 2025 Certen Protocol
//
// Package epoch Merkle-aggregates every shard's Tachystamp for an
// epoch tick into one EpochProof, the unit that gets anchored
// externally and relayed across chains.

package epoch

import (
	"fmt"
	"sort"

	"github.com/certen/independant-validator/pkg/pofcore/aggregator"
	"github.com/certen/independant-validator/pkg/pofcore/commitment"
	"github.com/certen/independant-validator/pkg/pofcore/errs"
	"github.com/certen/independant-validator/pkg/pofcore/metrics"
)

// EpochProof is the aggregate commitment for one epoch: the Merkle
// root of every participating shard's Tachystamp accumulator, and the
// Merkle root of every nullifier spent across all shards this epoch.
type EpochProof struct {
	EpochID          uint64
	ShardRoots       map[string][]byte
	Root             []byte
	NullifierSetRoot []byte
}

// Aggregate builds an EpochProof from a set of shard tachystamps,
// following the same MerkleRoot(sort(...)) construction the proof
// bundle's batch anchoring uses: shard ids are sorted so the root is
// independent of arrival order.
//
// Before folding anything, it enforces the one invariant that matters
// across shards: no nullifier may appear under more than one shard_id
// this epoch. Two shards reporting the same nullifier means the same
// note (or account) was proven spent twice in parallel, and the whole
// epoch is withheld rather than silently accepted.
func Aggregate(epochID uint64, stamps []aggregator.Tachystamp) (EpochProof, error) {
	if len(stamps) == 0 {
		return EpochProof{}, fmt.Errorf("epoch: cannot aggregate zero shard tachystamps")
	}

	sorted := append([]aggregator.Tachystamp(nil), stamps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ShardID < sorted[j].ShardID })

	owner := make(map[string]string)
	var nullifierLeaves [][]byte
	for _, s := range sorted {
		for _, n := range s.Nullifiers {
			key := n.String()
			if existing, seen := owner[key]; seen && existing != s.ShardID {
				return EpochProof{}, fmt.Errorf("%w: nullifier %s reported by shards %s and %s in epoch %d",
					errs.ErrNullifierCollision, key, existing, s.ShardID, epochID)
			}
			if _, seen := owner[key]; !seen {
				owner[key] = s.ShardID
				nullifierLeaves = append(nullifierLeaves, commitment.HashLeaf(n.Marshal()))
			}
		}
	}

	leaves := make([][]byte, len(sorted))
	shardRoots := make(map[string][]byte, len(sorted))
	for i, s := range sorted {
		leaf := commitment.HashLeaf(s.NewCommitment.Marshal())
		leaves[i] = leaf
		shardRoots[s.ShardID] = leaf
	}

	root, err := commitment.MerkleRoot(leaves)
	if err != nil {
		return EpochProof{}, fmt.Errorf("epoch: aggregate: %w", err)
	}

	var nullifierRoot []byte
	if len(nullifierLeaves) > 0 {
		sort.Slice(nullifierLeaves, func(i, j int) bool {
			return string(nullifierLeaves[i]) < string(nullifierLeaves[j])
		})
		nullifierRoot, err = commitment.MerkleRoot(nullifierLeaves)
		if err != nil {
			return EpochProof{}, fmt.Errorf("epoch: aggregate nullifier set: %w", err)
		}
	}

	metrics.EpochShardCount.Set(float64(len(sorted)))

	return EpochProof{EpochID: epochID, ShardRoots: shardRoots, Root: root, NullifierSetRoot: nullifierRoot}, nil
}
