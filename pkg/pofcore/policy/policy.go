// Copyright 2025 Certen Protocol
//
// Package policy maps policy_id to the rules a ProofBundle's public
// inputs must satisfy: balance threshold, currency/custodian allow-list,
// and epoch window. Default store is a YAML file on disk; an optional
// Firestore-backed store supports multi-instance deployments.

package policy

import (
	"fmt"

	"github.com/certen/independant-validator/pkg/pofcore/codec"
	"github.com/certen/independant-validator/pkg/pofcore/errs"
)

// Policy is the rule set a bundle's public inputs are checked against.
type Policy struct {
	ID                  string   `yaml:"id"`
	MinBalanceThreshold uint64   `yaml:"min_balance_threshold"`
	AllowedCurrencies   []uint64 `yaml:"allowed_currencies"` // empty means any (wildcard 0)
	AllowedCustodians   []uint64 `yaml:"allowed_custodians"` // empty means any (wildcard 0)
	EpochWindowStart    uint64   `yaml:"epoch_window_start"`
	EpochWindowEnd      uint64   `yaml:"epoch_window_end"`
}

// Matches checks a bundle's public inputs against the policy. The
// wildcard semantics here mirror the in-circuit check: an empty
// allow-list accepts any currency/custodian, a non-empty list requires
// membership.
func (p Policy) Matches(pub codec.PublicInputs) error {
	threshold := pub.BalanceThreshold.Uint64()
	if threshold < p.MinBalanceThreshold {
		return fmt.Errorf("balance threshold %d below policy minimum %d", threshold, p.MinBalanceThreshold)
	}

	if len(p.AllowedCurrencies) > 0 {
		if !containsUint64(p.AllowedCurrencies, pub.CurrencyCode.Uint64()) {
			return fmt.Errorf("currency %d not allowed by policy %s", pub.CurrencyCode.Uint64(), p.ID)
		}
	}
	if len(p.AllowedCustodians) > 0 {
		if !containsUint64(p.AllowedCustodians, pub.CustodianID.Uint64()) {
			return fmt.Errorf("custodian %d not allowed by policy %s", pub.CustodianID.Uint64(), p.ID)
		}
	}

	epoch := pub.EpochID.Uint64()
	if epoch < p.EpochWindowStart || epoch > p.EpochWindowEnd {
		return fmt.Errorf("%w: epoch %d outside [%d,%d]", errs.ErrEpochWindowExpired, epoch, p.EpochWindowStart, p.EpochWindowEnd)
	}

	return nil
}

func containsUint64(list []uint64, v uint64) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// Store looks up a Policy by id.
type Store interface {
	Lookup(policyID string) (Policy, error)
	Put(p Policy) error
}
