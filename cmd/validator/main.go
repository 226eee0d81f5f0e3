// Copyright 2025 Certen Protocol
//
// Entry point for a proof-of-funds validator shard: loads
// configuration, wires the nullifier/policy/attestation-cache stores
// (each with an optional durable backend, falling back to in-memory in
// degraded mode, following the teacher's database/Firestore
// degradation pattern), constructs the verifier and keeper, boots the
// shard's CometBFT consensus engine, and serves /health, /metrics and
// the bundle-submission endpoint at /api/v1/verify.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/certen/independant-validator/pkg/config"
	"github.com/certen/independant-validator/pkg/consensus"
	"github.com/certen/independant-validator/pkg/database"
	"github.com/certen/independant-validator/pkg/firestore"
	"github.com/certen/independant-validator/pkg/kvdb"
	"github.com/certen/independant-validator/pkg/pofcore/cache"
	"github.com/certen/independant-validator/pkg/pofcore/circuits"
	"github.com/certen/independant-validator/pkg/pofcore/keeper"
	"github.com/certen/independant-validator/pkg/pofcore/metrics"
	"github.com/certen/independant-validator/pkg/pofcore/nullifier"
	"github.com/certen/independant-validator/pkg/pofcore/policy"
	"github.com/certen/independant-validator/pkg/pofcore/verifier"
	"github.com/certen/independant-validator/pkg/server"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	var (
		shardID = flag.String("shard-id", "", "Shard ID (overrides POF_SHARD_ID env var)")
		p2pPort = flag.Int("p2p-port", 26656, "CometBFT P2P listen port")
		rpcPort = flag.Int("rpc-port", 26657, "CometBFT RPC listen port")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}
	if *shardID != "" {
		cfg.ShardID = *shardID
	}

	logger := log.New(os.Stdout, fmt.Sprintf("[validator-%s] ", cfg.ShardID), log.LstdFlags|log.Lmicroseconds)
	logger.Printf("starting proof-of-funds validator shard %s", cfg.ShardID)

	nullifierStore := buildNullifierStore(cfg, logger)
	policyStore := buildPolicyStore(cfg, logger)
	attestationCache := buildAttestationCache(cfg, logger)

	vkeys := loadVerifyingKeys(cfg, logger)
	v := verifier.New(vkeys, nullifierStore, policyStore)
	verifyHandlers := server.NewVerifyHandlers(v, attestationCache, cfg.AttestationCacheTTL, cfg.ShardID, logger)

	kvDir := filepath.Join("/app", "data", "pof-shard-state", cfg.ShardID)
	if err := os.MkdirAll(kvDir, 0755); err != nil {
		logger.Fatalf("create shard state directory: %v", err)
	}
	kvDB, err := dbm.NewGoLevelDB("pof-shard-state", kvDir)
	if err != nil {
		logger.Fatalf("open shard state db: %v", err)
	}
	k := keeper.New(cfg.ShardID, kvdb.NewKVAdapter(kvDB))

	engine, _, err := consensus.NewPoFShardEngine(cfg.ShardID, k, *p2pPort, *rpcPort)
	if err != nil {
		logger.Fatalf("create shard consensus engine: %v", err)
	}
	if err := engine.Start(); err != nil {
		logger.Fatalf("start shard consensus engine: %v", err)
	}
	defer engine.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","shard_id":"` + cfg.ShardID + `"}`))
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/v1/verify", verifyHandlers.HandleVerifyBundle)

	httpServer := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		logger.Printf("serving /health, /metrics and /api/v1/verify on %s", cfg.MetricsAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("http server stopped: %v", err)
		}
	}()

	metrics.ShardsActive.Inc()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Printf("shutting down shard %s", cfg.ShardID)
	_ = httpServer.Shutdown(context.Background())
}

func buildNullifierStore(cfg *config.Config, logger *log.Logger) nullifier.Store {
	if cfg.NullifierBackend != "postgres" {
		logger.Printf("nullifier store: in-memory backend")
		return nullifier.NewMemoryStore()
	}

	dbClient, err := database.NewClient(cfg, database.WithLogger(
		log.New(log.Writer(), "[database] ", log.LstdFlags),
	))
	if err != nil {
		logger.Printf("nullifier store: postgres connection failed, falling back to in-memory: %v", err)
		return nullifier.NewMemoryStore()
	}
	if err := dbClient.MigrateUp(context.Background()); err != nil {
		logger.Printf("nullifier store: migration failed: %v", err)
	}
	logger.Printf("nullifier store: postgres backend")
	return nullifier.NewPostgresStore(dbClient)
}

func buildPolicyStore(cfg *config.Config, logger *log.Logger) policy.Store {
	if cfg.PolicyFilePath != "" {
		if store, err := policy.LoadYAMLFile(cfg.PolicyFilePath); err == nil {
			logger.Printf("policy store: yaml file %s", cfg.PolicyFilePath)
			return store
		} else {
			logger.Printf("policy store: failed to load %s, starting empty: %v", cfg.PolicyFilePath, err)
		}
	}
	return policy.NewYAMLStore()
}

func buildAttestationCache(cfg *config.Config, logger *log.Logger) cache.Store {
	if cfg.AttestationCacheBackend != "firestore" {
		logger.Printf("attestation cache: in-memory backend")
		return cache.NewMemoryStore()
	}

	fsClient, err := firestore.NewClient(context.Background(), &firestore.ClientConfig{
		ProjectID:       cfg.FirebaseProjectID,
		CredentialsFile: cfg.FirebaseCredentialsFile,
		Enabled:         cfg.FirestoreEnabled,
	})
	if err != nil {
		logger.Printf("attestation cache: firestore connection failed, falling back to in-memory: %v", err)
		return cache.NewMemoryStore()
	}
	logger.Printf("attestation cache: firestore backend")
	return cache.NewFirestoreStore(fsClient)
}

// loadVerifyingKeys loads one groth16 verifying key per registered
// rail from cfg.RailVerifyingKeyDir/<rail>.vk, following
// BLSZKProver.InitializeFromKeys's os.Open+ReadFrom pattern. A rail
// with no key file on disk is simply not offered for verification,
// logged rather than treated as fatal — an operator may run a shard
// that only accepts a subset of rails.
func loadVerifyingKeys(cfg *config.Config, logger *log.Logger) map[circuits.RailTag]groth16.VerifyingKey {
	vkeys := make(map[circuits.RailTag]groth16.VerifyingKey)
	for _, rail := range circuits.Tags() {
		path := filepath.Join(cfg.RailVerifyingKeyDir, string(rail)+".vk")
		f, err := os.Open(path)
		if err != nil {
			logger.Printf("verifying key: %s not found at %s, rail disabled", rail, path)
			continue
		}
		defer f.Close()

		vk := groth16.NewVerifyingKey(ecc.BN254)
		if _, err := vk.ReadFrom(f); err != nil {
			logger.Printf("verifying key: failed to read %s: %v", path, err)
			continue
		}
		vkeys[rail] = vk
		logger.Printf("verifying key: loaded %s from %s", rail, path)
	}
	return vkeys
}
