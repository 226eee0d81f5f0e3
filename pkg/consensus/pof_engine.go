// Copyright 2025 Certen Protocol
//
// PoF shard consensus engine: wires a keeper.ABCIApp into the same
// CometBFT node bootstrap NewValidatorChainEngine uses for
// ValidatorBlock consensus, so each shard's WalletState advances
// through ordinary CometBFT block finalization instead of a bespoke
// consensus path.

package consensus

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	cometcfg "github.com/cometbft/cometbft/config"

	"github.com/certen/independant-validator/pkg/pofcore/keeper"
)

// NewPoFShardEngine creates a CometBFT engine for one shard's keeper,
// following NewValidatorChainEngine's config shape (dedicated
// RootDir/P2P/RPC per shard, goleveldb backend, kv tx indexing).
func NewPoFShardEngine(shardID string, k *keeper.Keeper, p2pPort, rpcPort int) (*RealCometBFTEngine, *keeper.ABCIApp, error) {
	logger := log.New(os.Stdout, fmt.Sprintf("[PoFShard-%s] ", shardID), log.LstdFlags|log.Lmicroseconds)

	app := keeper.NewABCIApp(k)

	cfg := cometcfg.DefaultConfig()
	cfg.RootDir = filepath.Join("/app", "data", "pof-shard", shardID)
	cfg.P2P.ListenAddress = fmt.Sprintf("tcp://0.0.0.0:%d", p2pPort)
	cfg.RPC.ListenAddress = fmt.Sprintf("tcp://0.0.0.0:%d", rpcPort)
	cfg.Moniker = shardID
	cfg.DBBackend = "goleveldb"
	cfg.TxIndex.Indexer = "kv"

	engine, err := NewRealCometBFTEngine(cfg, app, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create pof shard engine: %w", err)
	}

	logger.Printf("PoF shard consensus engine ready: shard=%s", shardID)

	return engine, app, nil
}
