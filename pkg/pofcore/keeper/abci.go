// Copyright 2025 Certen Protocol
//
// ABCI adapter: wraps a Keeper as a CometBFT application so a
// BlockDelta is applied exactly once per consensus-ordered block and
// every validator in the network converges on the same WalletState.
// Shape follows pkg/consensus/abci_validator.go's FinalizeBlock/Commit
// split, trimmed to what the keeper's single BlockDelta-per-block model
// needs.

package keeper

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"

	abcitypes "github.com/cometbft/cometbft/abci/types"
)

// ABCIApp adapts a Keeper to the CometBFT ABCI application interface.
// Each transaction delivered to FinalizeBlock is expected to be the
// canonical JSON encoding of one BlockDelta for this shard.
type ABCIApp struct {
	abcitypes.BaseApplication

	mu            sync.Mutex
	logger        *log.Logger
	keeper        *Keeper
	pendingDeltas []BlockDelta
}

// NewABCIApp wraps keeper as an ABCI application.
func NewABCIApp(keeper *Keeper) *ABCIApp {
	return &ABCIApp{
		logger: log.New(os.Stderr, "[keeper-abci] ", log.LstdFlags),
		keeper: keeper,
	}
}

type wireDelta struct {
	BlockHeight     uint64 `json:"block_height"`
	AnchorNew       string `json:"anchor_new"`
	NewNotes        []struct {
		Commitment string `json:"commitment"`
		Value      string `json:"value"`
		Position   uint64 `json:"position"`
	} `json:"new_notes"`
	SpentNullifiers []struct {
		Nullifier      string `json:"nullifier"`
		NoteCommitment string `json:"note_commitment"`
	} `json:"spent_nullifiers"`
}

// FinalizeBlock decodes each transaction as a BlockDelta and queues it
// for Commit, following the teacher's pattern of deferring state
// mutation to the Commit phase.
func (a *ABCIApp) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	resp := &abcitypes.ResponseFinalizeBlock{
		TxResults: make([]*abcitypes.ExecTxResult, len(req.Txs)),
	}

	for i, tx := range req.Txs {
		delta, err := decodeBlockDelta(tx)
		if err != nil {
			resp.TxResults[i] = &abcitypes.ExecTxResult{Code: 1, Log: err.Error()}
			continue
		}
		a.pendingDeltas = append(a.pendingDeltas, delta)
		resp.TxResults[i] = &abcitypes.ExecTxResult{Code: 0}
	}

	return resp, nil
}

// Commit applies every pending BlockDelta against the keeper in order,
// then hands the keeper's accumulated tachystamps off to FinalizeEpoch
// once the epoch scheduler says it is time.
func (a *ABCIApp) Commit(ctx context.Context, req *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, delta := range a.pendingDeltas {
		if _, err := a.keeper.ApplyBlockDelta(delta); err != nil {
			a.logger.Printf("block delta at height %d rejected: %v", delta.BlockHeight, err)
		}
	}
	a.pendingDeltas = a.pendingDeltas[:0]

	if a.keeper.ShouldFinalizeEpoch() {
		stamps, epoch := a.keeper.FinalizeEpoch()
		a.logger.Printf("epoch %d closed with %d tachystamps, ready for shard aggregation", epoch, len(stamps))
	}

	return &abcitypes.ResponseCommit{}, nil
}

func decodeBlockDelta(tx []byte) (BlockDelta, error) {
	var w wireDelta
	if err := json.Unmarshal(tx, &w); err != nil {
		return BlockDelta{}, fmt.Errorf("keeper: decode block delta: %w", err)
	}

	var delta BlockDelta
	delta.BlockHeight = w.BlockHeight
	if _, err := delta.AnchorNew.SetString(w.AnchorNew); err != nil {
		return BlockDelta{}, fmt.Errorf("keeper: decode anchor_new: %w", err)
	}

	for _, n := range w.NewNotes {
		var note NoteIdentifier
		if _, err := note.Commitment.SetString(n.Commitment); err != nil {
			return BlockDelta{}, fmt.Errorf("keeper: decode note commitment: %w", err)
		}
		if _, err := note.Value.SetString(n.Value); err != nil {
			return BlockDelta{}, fmt.Errorf("keeper: decode note value: %w", err)
		}
		note.Position = n.Position
		delta.NewNotes = append(delta.NewNotes, note)
	}

	for _, nf := range w.SpentNullifiers {
		var id NullifierIdentifier
		if _, err := id.Nullifier.SetString(nf.Nullifier); err != nil {
			return BlockDelta{}, fmt.Errorf("keeper: decode nullifier: %w", err)
		}
		if _, err := id.NoteCommitment.SetString(nf.NoteCommitment); err != nil {
			return BlockDelta{}, fmt.Errorf("keeper: decode nullifier note commitment: %w", err)
		}
		delta.SpentNullifiers = append(delta.SpentNullifiers, id)
	}

	return delta, nil
}
