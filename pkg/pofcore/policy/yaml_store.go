// Copyright 2025 Certen Protocol

package policy

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/certen/independant-validator/pkg/pofcore/errs"
)

// YAMLStore is the default policy store: an in-memory map loaded from
// a YAML document on disk at startup, writable at runtime via Put for
// operator-driven policy updates.
type YAMLStore struct {
	mu       sync.RWMutex
	policies map[string]Policy
}

type yamlDocument struct {
	Policies []Policy `yaml:"policies"`
}

// NewYAMLStore returns an empty store.
func NewYAMLStore() *YAMLStore {
	return &YAMLStore{policies: make(map[string]Policy)}
}

// LoadYAMLFile populates a new YAMLStore from a policy document on disk.
func LoadYAMLFile(path string) (*YAMLStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policy: read %s: %w", path, err)
	}
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("policy: parse %s: %w", path, err)
	}

	store := NewYAMLStore()
	for _, p := range doc.Policies {
		store.policies[p.ID] = p
	}
	return store, nil
}

// Lookup returns the policy registered under policyID.
func (s *YAMLStore) Lookup(policyID string) (Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[policyID]
	if !ok {
		return Policy{}, fmt.Errorf("%w: %s", errs.ErrPolicyNotFound, policyID)
	}
	return p, nil
}

// Put registers or replaces a policy.
func (s *YAMLStore) Put(p Policy) error {
	if p.ID == "" {
		return fmt.Errorf("policy: id must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[p.ID] = p
	return nil
}
