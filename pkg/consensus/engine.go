// Copyright 2025 Certen Protocol
//
// RealCometBFTEngine wraps an in-process CometBFT node around a
// keeper.ABCIApp so a PoF shard's WalletState advances through
// ordinary CometBFT block finalization. Trimmed down from the
// validator-network bring-up code this package started from: the
// ValidatorBlock/Intent/BFTValidator/CertenApplication machinery built
// for multi-chain intent consensus has no PoF shard to drive it and
// was removed (see DESIGN.md).

package consensus

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	dbm "github.com/cometbft/cometbft-db"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/cometbft/cometbft/config"
	cmted25519 "github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/node"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/cometbft/cometbft/proxy"
	cmthttp "github.com/cometbft/cometbft/rpc/client/http"
	cmttypes "github.com/cometbft/cometbft/types"
)

// Logger is the minimal logging surface the engine needs, satisfied by
// *log.Logger.
type Logger interface {
	Printf(format string, args ...interface{})
}

// RealCometBFTEngine runs one CometBFT node in-process against an ABCI
// application (a keeper.ABCIApp for PoF shards).
type RealCometBFTEngine struct {
	cometCfg *config.Config
	app      abcitypes.Application
	logger   *log.Logger

	node      *node.Node
	rpcClient *cmthttp.HTTP

	mu      sync.RWMutex
	started bool

	validatorID string
	nodeID      string

	p2pPort int
	rpcPort int
}

// NewRealCometBFTEngine creates the CometBFT node and RPC client. It
// does not start the node; Start does that.
func NewRealCometBFTEngine(
	cometCfg *config.Config,
	app abcitypes.Application,
	logger *log.Logger,
) (*RealCometBFTEngine, error) {
	if cometCfg == nil {
		return nil, fmt.Errorf("cometCfg must not be nil")
	}
	if app == nil {
		return nil, fmt.Errorf("abci app must not be nil")
	}

	dbProvider := config.DBProvider(func(ctx *config.DBContext) (dbm.DB, error) {
		return dbm.NewDB(ctx.ID, dbm.BackendType(cometCfg.DBBackend), filepath.Join(cometCfg.RootDir, "data"))
	})

	pv := privval.LoadFilePV(
		cometCfg.PrivValidatorKeyFile(),
		cometCfg.PrivValidatorStateFile(),
	)
	nodeKey, err := p2p.LoadNodeKey(cometCfg.NodeKeyFile())
	if err != nil {
		return nil, fmt.Errorf("load node key: %w", err)
	}

	tempEngine := &RealCometBFTEngine{logger: logger}
	if err := tempEngine.writeDeterministicGenesisIfNeeded(cometCfg); err != nil {
		return nil, fmt.Errorf("write shared genesis: %w", err)
	}

	tmLogger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
	tmLogger = tmLogger.With("module", "cometbft")

	n, err := node.NewNode(
		cometCfg,
		pv,
		nodeKey,
		proxy.NewLocalClientCreator(app),
		node.DefaultGenesisDocProviderFunc(cometCfg),
		dbProvider,
		node.DefaultMetricsProvider(cometCfg.Instrumentation),
		tmLogger,
	)
	if err != nil {
		return nil, fmt.Errorf("create cometbft node: %w", err)
	}

	rpcAddr := cometCfg.RPC.ListenAddress
	if rpcAddr == "" {
		rpcAddr = "tcp://127.0.0.1:26657"
	} else {
		rpcAddr = strings.Replace(rpcAddr, "0.0.0.0", "127.0.0.1", 1)
	}
	rpcClient, err := cmthttp.New(rpcAddr, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("create cometbft rpc client: %w", err)
	}

	pubKey, err := pv.GetPubKey()
	if err != nil {
		return nil, fmt.Errorf("get validator public key: %w", err)
	}
	validatorID := fmt.Sprintf("%X", pubKey.Address())
	nodeID := string(nodeKey.ID())

	p2pPort := 26656
	rpcPort := 26657
	if cometCfg.P2P.ListenAddress != "" {
		if parts := strings.Split(cometCfg.P2P.ListenAddress, ":"); len(parts) > 0 {
			if port, err := fmt.Sscanf(parts[len(parts)-1], "%d", &p2pPort); port == 0 || err != nil {
				p2pPort = 26656
			}
		}
	}
	if cometCfg.RPC.ListenAddress != "" {
		if parts := strings.Split(cometCfg.RPC.ListenAddress, ":"); len(parts) > 0 {
			if port, err := fmt.Sscanf(parts[len(parts)-1], "%d", &rpcPort); port == 0 || err != nil {
				rpcPort = 26657
			}
		}
	}

	return &RealCometBFTEngine{
		cometCfg:    cometCfg,
		app:         app,
		logger:      logger,
		node:        n,
		rpcClient:   rpcClient,
		validatorID: validatorID,
		nodeID:      nodeID,
		p2pPort:     p2pPort,
		rpcPort:     rpcPort,
	}, nil
}

// Start boots the CometBFT node and its local RPC client. Idempotent.
func (e *RealCometBFTEngine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return nil
	}

	if err := e.node.Start(); err != nil {
		return fmt.Errorf("start cometbft node: %w", err)
	}

	time.Sleep(500 * time.Millisecond)

	if err := e.rpcClient.Start(); err != nil {
		e.logger.Printf("rpc client failed to start after node start: %v", err)
	}

	e.started = true
	return nil
}

// Stop shuts the node down. Idempotent.
func (e *RealCometBFTEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return nil
	}
	if err := e.node.Stop(); err != nil {
		return fmt.Errorf("stop cometbft node: %w", err)
	}
	e.started = false
	return nil
}

// IsRunning reports whether the node has been started.
func (e *RealCometBFTEngine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.started && e.node != nil
}

// GetValidatorInfo returns diagnostic metadata about this engine.
func (e *RealCometBFTEngine) GetValidatorInfo() map[string]interface{} {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return map[string]interface{}{
		"validator_id": e.validatorID,
		"is_running":   e.started && e.node != nil,
		"node_id":      e.nodeID,
		"p2p_port":     e.p2pPort,
		"rpc_port":     e.rpcPort,
		"engine_type":  "real_cometbft",
	}
}

// BroadcastAppTxSync submits a raw ABCI transaction (an encoded
// keeper.BlockDelta) to the in-process node and waits for CheckTx to
// pass.
func (e *RealCometBFTEngine) BroadcastAppTxSync(ctx context.Context, tx []byte) error {
	if err := e.Start(); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := e.rpcClient.BroadcastTxSync(ctx, tx)
	if err != nil {
		return fmt.Errorf("BroadcastTxSync via in-process engine: %w", err)
	}

	if res.Code != 0 {
		return fmt.Errorf("CheckTx failed: code=%d log=%s", res.Code, res.Log)
	}

	e.logger.Printf("abci tx accepted via in-process engine: %X", res.Hash)
	return nil
}

// writeDeterministicGenesisIfNeeded writes a shared genesis document
// the first time any shard node boots against cfg.RootDir.
func (engine *RealCometBFTEngine) writeDeterministicGenesisIfNeeded(cfg *config.Config) error {
	genFile := cfg.GenesisFile()

	if _, err := os.Stat(genFile); err == nil {
		engine.logger.Printf("using existing genesis: %s", genFile)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(genFile), 0755); err != nil {
		return fmt.Errorf("create genesis dir: %w", err)
	}

	genesisDoc, err := engine.createGenesisDocument()
	if err != nil {
		return fmt.Errorf("create genesis doc: %w", err)
	}

	if err := genesisDoc.SaveAs(genFile); err != nil {
		return fmt.Errorf("write genesis doc: %w", err)
	}

	engine.logger.Printf("wrote deterministic genesis: %s chain_id=%s validators=%d", genFile, genesisDoc.ChainID, len(genesisDoc.Validators))
	return nil
}

// createGenesisDocument builds a single-validator genesis for the
// shard this engine instance serves. Each PoF shard is its own
// CometBFT network, so unlike the teacher's 4-validator testnet
// genesis this only ever seats one validator.
func (engine *RealCometBFTEngine) createGenesisDocument() (*cmttypes.GenesisDoc, error) {
	validatorPubKey := generateDeterministicValidatorPublicKey(engine.cometCfg.Moniker)
	genesisValidator := cmttypes.GenesisValidator{
		Address: validatorPubKey.Address(),
		PubKey:  validatorPubKey,
		Power:   1,
		Name:    engine.cometCfg.Moniker,
	}

	deterministicGenesisTime := time.Date(2025, 11, 20, 12, 0, 0, 0, time.UTC)

	genesisDoc := &cmttypes.GenesisDoc{
		ChainID:         getChainIDFromEnv(),
		GenesisTime:     deterministicGenesisTime,
		InitialHeight:   1,
		ConsensusParams: cmttypes.DefaultConsensusParams(),
		Validators:      []cmttypes.GenesisValidator{genesisValidator},
		AppHash:         nil,
		AppState:        json.RawMessage(`{}`),
	}

	return genesisDoc, nil
}

// getChainIDFromEnv returns the chain ID every shard node on a given
// deployment must agree on.
func getChainIDFromEnv() string {
	chainID := os.Getenv("COMETBFT_CHAIN_ID")
	if chainID == "" {
		chainID = "certen-pof-testnet"
	}
	return chainID
}

// generateDeterministicNodeKey derives a fixed ed25519 key from the
// shard's chain ID and moniker, so every node of a given shard
// computes the same genesis validator key independently.
func generateDeterministicNodeKey(moniker string) cmted25519.PrivKey {
	seedStr := fmt.Sprintf("certen-pof-shard-key-%s-%s", getChainIDFromEnv(), moniker)
	seed := sha256.Sum256([]byte(seedStr))

	privateKey := ed25519.NewKeyFromSeed(seed[:])
	publicKey := privateKey.Public().(ed25519.PublicKey)

	combined := make([]byte, 64)
	copy(combined[:32], privateKey[:32])
	copy(combined[32:], publicKey)

	return cmted25519.PrivKey(combined)
}

// generateDeterministicValidatorPublicKey derives the public key for
// a shard's sole genesis validator, matching generateDeterministicNodeKey.
func generateDeterministicValidatorPublicKey(moniker string) cmted25519.PubKey {
	privKey := generateDeterministicNodeKey(moniker)
	pubKey := privKey.PubKey()

	ed25519PubKey, ok := pubKey.(cmted25519.PubKey)
	if !ok {
		return cmted25519.GenPrivKey().PubKey().(cmted25519.PubKey)
	}
	return ed25519PubKey
}
