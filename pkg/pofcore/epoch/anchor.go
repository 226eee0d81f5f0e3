// Copyright 2025 Certen Protocol
//
// External anchoring of epoch roots. The validator's Accumulate
// integration (pkg/accumulate.Client) is a read-only query surface —
// GetTransaction, GetBlock, SearchCertenTransactions — wired against
// the vendored lite client's v2 API, which itself only ever queries
// (see accumulate-lite-client-2/liteclient/backend). Submitting the
// WriteData transaction that records an epoch root is therefore the
// job of an external relayer holding the account's signing key, the
// same Relaying actor the cross-chain transport envelope already
// models; this package's AccumulateAnchorer confirms that relay by
// polling for the transaction the relayer reports, rather than
// inventing an unverified submission call.

package epoch

import (
	"context"
	"fmt"
	"time"

	"github.com/certen/independant-validator/pkg/accumulate"
)

// Anchorer submits (or confirms the submission of) an epoch root
// against an external ledger and reports the transaction hash that
// recorded it.
type Anchorer interface {
	AnchorEpochRoot(ctx context.Context, proof EpochProof, relayedTxHash string) (confirmed bool, err error)
}

// AccumulateAnchorer confirms that a relayer has anchored an epoch
// root by looking up the transaction it reports against the
// Accumulate network. It checks only that the transaction exists; the
// transaction's content is not compared with the epoch.
type AccumulateAnchorer struct {
	client accumulate.Client
}

// NewAccumulateAnchorer wraps an already-configured read-only
// Accumulate client.
func NewAccumulateAnchorer(client accumulate.Client) *AccumulateAnchorer {
	return &AccumulateAnchorer{client: client}
}

// AnchorEpochRoot looks up relayedTxHash and reports it confirmed once
// the transaction is found. It does not inspect the transaction's type
// or content, and it does not construct or submit any transaction itself.
func (a *AccumulateAnchorer) AnchorEpochRoot(ctx context.Context, proof EpochProof, relayedTxHash string) (bool, error) {
	if relayedTxHash == "" {
		return false, fmt.Errorf("epoch: no relayed transaction hash to confirm")
	}
	if a.client == nil {
		return false, fmt.Errorf("epoch: accumulate client not configured")
	}

	txn, err := a.client.GetTransaction(ctx, relayedTxHash)
	if err != nil {
		return false, fmt.Errorf("epoch: fetch anchor transaction %s: %w", relayedTxHash, err)
	}
	if txn == nil {
		return false, fmt.Errorf("epoch: anchor transaction %s not found", relayedTxHash)
	}

	return true, nil
}

// AwaitConfirmation polls AnchorEpochRoot until the relayed
// transaction is observed, the context is cancelled, or timeout
// elapses — giving the caller a bounded wait for Pending to become
// Confirmed.
func AwaitConfirmation(ctx context.Context, a Anchorer, proof EpochProof, relayedTxHash string, poll, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		confirmed, err := a.AnchorEpochRoot(ctx, proof, relayedTxHash)
		if err == nil && confirmed {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("epoch: anchor confirmation timed out for epoch %d: %w", proof.EpochID, ctx.Err())
		case <-ticker.C:
		}
	}
}
