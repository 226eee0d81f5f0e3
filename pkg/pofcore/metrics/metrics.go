// Copyright 2025 Certen Protocol
//
// Package metrics registers the validator's Prometheus gauges and
// counters against the default registry, served by the /metrics HTTP
// endpoint. Shape follows the health-logging service's
// gauge/counter-per-concern registration style.

package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ShardsActive is the number of shard consensus engines running in
	// this process.
	ShardsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pof",
		Name:      "shards_active",
		Help:      "Number of shard consensus engines running in this process.",
	})

	// BundlesVerified counts ProofBundle verifications, labeled by rail
	// and outcome (accepted/rejected).
	BundlesVerified = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pof",
		Name:      "bundles_verified_total",
		Help:      "Total ProofBundle verifications by rail and outcome.",
	}, []string{"rail", "outcome"})

	// NullifierReplays counts rejected nullifier replays, labeled by
	// scope.
	NullifierReplays = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pof",
		Name:      "nullifier_replays_total",
		Help:      "Total nullifier replay rejections by scope.",
	}, []string{"scope_id"})

	// EpochShardCount observes how many shard tachystamps were folded
	// into the most recently published epoch proof.
	EpochShardCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pof",
		Name:      "epoch_shard_count",
		Help:      "Number of shards folded into the most recently published epoch proof.",
	})
)

func init() {
	prometheus.MustRegister(ShardsActive, BundlesVerified, NullifierReplays, EpochShardCount)
}
