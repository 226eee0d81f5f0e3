// Copyright 2025 Certen Protocol
//
// EpochScheduler decides when a shard's accumulated block tachystamps
// should be cut into an epoch and handed to the aggregator. Kept as an
// interface so a deployment can swap a fixed-height cadence for one
// driven by wall-clock time or an external signal without touching the
// keeper's apply path.

package keeper

// EpochScheduler reports whether the keeper should finalize the
// current epoch now that it has reached height.
type EpochScheduler interface {
	ShouldFinalize(height uint64) bool
}

// FixedIntervalScheduler finalizes an epoch every Interval blocks.
type FixedIntervalScheduler struct {
	Interval uint64
}

// ShouldFinalize reports true once height is a positive multiple of
// Interval. A zero Interval never finalizes on its own, leaving epoch
// cuts to an explicit external FinalizeEpoch call.
func (s FixedIntervalScheduler) ShouldFinalize(height uint64) bool {
	if s.Interval == 0 {
		return false
	}
	return height > 0 && height%s.Interval == 0
}
