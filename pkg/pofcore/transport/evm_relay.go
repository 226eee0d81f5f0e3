// Copyright 2025 Certen Protocol
//
// EVM relay adapter: moves a Pending envelope to Relaying by
// submitting its epoch root to a destination-chain contract, then to
// Confirmed once the submitting transaction reaches the configured
// confirmation depth. Built on pkg/ethereum/client.go's Client wrapper
// the same way pkg/execution/external_chain_observer.go tracks pending
// transactions toward finalization.

package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/certen/independant-validator/pkg/ethereum"
)

// EVMRelayConfig configures an EVMRelay.
type EVMRelayConfig struct {
	Client                *ethereum.Client
	ContractAddress       common.Address
	ContractABI           string
	RelayMethod           string
	RelayerPrivateKeyHex  string
	GasLimit              uint64
	RequiredConfirmations int
}

// EVMRelay submits a cross-chain envelope's epoch root to an EVM
// contract and reports relay/confirmation status back into a Store.
type EVMRelay struct {
	cfg EVMRelayConfig
}

// NewEVMRelay wraps an already-configured Ethereum client.
func NewEVMRelay(cfg EVMRelayConfig) *EVMRelay {
	return &EVMRelay{cfg: cfg}
}

// Relay submits the envelope's state root to the destination contract
// and transitions it from Pending to Relaying. The returned Ethereum
// transaction hash is the value a later confirmation poll looks up.
func (r *EVMRelay) Relay(ctx context.Context, store *Store, key Key, stateRoot [32]byte) (txHash string, err error) {
	if r.cfg.Client == nil {
		return "", fmt.Errorf("transport: evm relay has no configured client")
	}

	result, err := r.cfg.Client.SendContractTransaction(
		ctx,
		r.cfg.ContractAddress,
		r.cfg.ContractABI,
		r.cfg.RelayerPrivateKeyHex,
		r.cfg.RelayMethod,
		r.cfg.GasLimit,
		stateRoot,
	)
	if err != nil {
		if _, tErr := store.Transition(key, StatusFailed); tErr != nil {
			return "", fmt.Errorf("transport: relay submit failed and transition failed: %v / %v", err, tErr)
		}
		return "", fmt.Errorf("transport: submit relay transaction: %w", err)
	}

	if _, err := store.Transition(key, StatusRelaying); err != nil {
		return "", fmt.Errorf("transport: mark relaying: %w", err)
	}

	return result.TransactionHash, nil
}

// AwaitConfirmation polls the relay transaction's receipt until it has
// accumulated the configured confirmation depth, then moves the
// envelope to Confirmed with the given validity window, to Failed if
// the transaction reverts, or to Expired if the context is cancelled
// first.
func (r *EVMRelay) AwaitConfirmation(ctx context.Context, store *Store, key Key, txHash common.Hash, validityWindow time.Duration, poll time.Duration) error {
	if r.cfg.Client == nil {
		return fmt.Errorf("transport: evm relay has no configured client")
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		latest, err := r.cfg.Client.GetLatestBlockNumber(ctx)
		if err == nil {
			receiptBlock, confirmed, rErr := r.receiptStatus(ctx, txHash, latest)
			if rErr == nil {
				if confirmed {
					if _, err := store.Confirm(key, validityWindow); err != nil {
						return fmt.Errorf("transport: confirm: %w", err)
					}
					return nil
				}
				_ = receiptBlock // receipt seen but not yet at confirmation depth
			}
		}

		select {
		case <-ctx.Done():
			if _, err := store.Transition(key, StatusExpired); err != nil {
				return fmt.Errorf("transport: confirmation wait cancelled, expire failed: %w", err)
			}
			return fmt.Errorf("transport: confirmation wait cancelled: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (r *EVMRelay) receiptStatus(ctx context.Context, txHash common.Hash, latestBlock int64) (int64, bool, error) {
	client := r.cfg.Client.GetClient()
	if client == nil {
		return 0, false, fmt.Errorf("transport: underlying ethclient not available")
	}

	receipt, err := client.TransactionReceipt(ctx, txHash)
	if err != nil {
		return 0, false, err
	}

	confirmations := latestBlock - receipt.BlockNumber.Int64()
	return receipt.BlockNumber.Int64(), confirmations >= int64(r.cfg.RequiredConfirmations), nil
}
