// Copyright 2025 Certen Protocol
//
// FirestoreStore is the durable, multi-instance-safe policy store: it
// reads and writes Policy documents through the shared Firestore client
// rather than a local file, so operators running more than one
// validator instance see consistent policy updates. Built on the same
// Client the audit trail service uses.

package policy

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	certenfirestore "github.com/certen/independant-validator/pkg/firestore"
	"github.com/certen/independant-validator/pkg/pofcore/errs"
)

const policyCollection = "pof_policies"

// FirestoreStore backs Store with a Firestore collection.
type FirestoreStore struct {
	client *certenfirestore.Client
}

// NewFirestoreStore wraps an already-configured Firestore client. If
// the client is disabled (client.IsEnabled() == false), every call is a
// no-op returning errs.ErrPolicyNotFound / nil respectively, so callers
// can wire this store unconditionally in environments without Firestore
// credentials.
func NewFirestoreStore(client *certenfirestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// Lookup fetches a policy document by id.
func (s *FirestoreStore) Lookup(policyID string) (Policy, error) {
	if s.client == nil || !s.client.IsEnabled() {
		return Policy{}, fmt.Errorf("%w: %s", errs.ErrPolicyNotFound, policyID)
	}

	ctx := context.Background()
	snap, err := s.client.Collection(policyCollection).Doc(policyID).Get(ctx)
	if err != nil {
		return Policy{}, fmt.Errorf("%w: %s: %v", errs.ErrPolicyNotFound, policyID, err)
	}

	var p Policy
	if err := snap.DataTo(&p); err != nil {
		return Policy{}, fmt.Errorf("policy: decode firestore document %s: %w", policyID, err)
	}
	return p, nil
}

// Put writes a policy document, creating or overwriting it.
func (s *FirestoreStore) Put(p Policy) error {
	if p.ID == "" {
		return fmt.Errorf("policy: id must not be empty")
	}
	if s.client == nil || !s.client.IsEnabled() {
		return nil
	}

	ctx := context.Background()
	_, err := s.client.Collection(policyCollection).Doc(p.ID).Set(ctx, p, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("policy: write firestore document %s: %w", p.ID, err)
	}
	return nil
}
