// Copyright 2025 Certen Protocol
//
// Custodian registry: an id -> pubkey table. It ships with no entries:
// NewRegistry returns an empty table and keys are added only through
// Register. Nothing in this module registers a key, and the proof-bundle
// verifier does not consult the registry.

package commitment

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
)

// ErrCustodianNotFound is returned when an id has no registered entry.
var ErrCustodianNotFound = errors.New("commitment: custodian not found")

// CustodianEntry binds a custodian id to its registered signing key.
type CustodianEntry struct {
	ID     uint64
	Pubkey *ecdsa.PublicKey
}

// Registry is a read-mostly id -> CustodianEntry table. It is safe for
// concurrent reads; Register should only be called during startup wiring.
type Registry struct {
	entries map[uint64]CustodianEntry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[uint64]CustodianEntry)}
}

// Register adds or replaces the entry for id.
func (r *Registry) Register(id uint64, pubkey *ecdsa.PublicKey) {
	r.entries[id] = CustodianEntry{ID: id, Pubkey: pubkey}
}

// Lookup returns the registered entry for id.
func (r *Registry) Lookup(id uint64) (CustodianEntry, error) {
	e, ok := r.entries[id]
	if !ok {
		return CustodianEntry{}, fmt.Errorf("%w: id %d", ErrCustodianNotFound, id)
	}
	return e, nil
}

// AllowedIDs returns every registered custodian id, in no particular
// order.
func (r *Registry) AllowedIDs() []uint64 {
	ids := make([]uint64, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}
