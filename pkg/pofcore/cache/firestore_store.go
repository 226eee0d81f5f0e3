// Copyright 2025 Certen Protocol
//
// FirestoreStore is the durable attestation cache: it stores cached
// verification outcomes as Firestore documents keyed by the composite
// (custodian_id, account_id_hash, epoch_id) triple, so a fleet of
// validator instances shares one cache instead of each re-verifying
// the same bundle. Built the same way policy.FirestoreStore wraps the
// shared Firestore client.

package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	certenfirestore "github.com/certen/independant-validator/pkg/firestore"
)

const attestationCacheCollection = "pof_attestation_cache"

// FirestoreStore backs Store with a Firestore collection.
type FirestoreStore struct {
	client *certenfirestore.Client
}

// NewFirestoreStore wraps an already-configured Firestore client. If
// the client is disabled, Get always misses and Put is a no-op, so
// this store can be wired unconditionally.
func NewFirestoreStore(client *certenfirestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

type firestoreEntry struct {
	PolicyID  string `firestore:"policy_id"`
	BundleID  string `firestore:"bundle_id"`
	CachedAt  int64  `firestore:"cached_at"`
	ExpiresAt int64  `firestore:"expires_at"`
}

func docID(key Key) string {
	return strings.Join([]string{key.CustodianID, key.AccountIDHash, key.EpochID}, ":")
}

// Get fetches a cached entry, treating an unexpired Firestore document
// as a hit and an expired one as a miss without deleting it — expiry
// cleanup is left to the next Put for that key.
func (s *FirestoreStore) Get(key Key) (Entry, bool, error) {
	if s.client == nil || !s.client.IsEnabled() {
		return Entry{}, false, nil
	}

	ctx := context.Background()
	snap, err := s.client.Collection(attestationCacheCollection).Doc(docID(key)).Get(ctx)
	if err != nil {
		return Entry{}, false, nil
	}

	var fe firestoreEntry
	if err := snap.DataTo(&fe); err != nil {
		return Entry{}, false, fmt.Errorf("cache: decode firestore document %s: %w", docID(key), err)
	}

	expiresAt := time.Unix(fe.ExpiresAt, 0).UTC()
	if time.Now().After(expiresAt) {
		return Entry{}, false, nil
	}

	entry := Entry{
		PolicyID:  fe.PolicyID,
		BundleID:  fe.BundleID,
		CachedAt:  time.Unix(fe.CachedAt, 0).UTC(),
		ExpiresAt: expiresAt,
	}
	return entry, true, nil
}

// Put writes the cache entry as a Firestore document.
func (s *FirestoreStore) Put(key Key, entry Entry) error {
	if s.client == nil || !s.client.IsEnabled() {
		return nil
	}

	ctx := context.Background()
	fe := firestoreEntry{
		PolicyID:  entry.PolicyID,
		BundleID:  entry.BundleID,
		CachedAt:  entry.CachedAt.Unix(),
		ExpiresAt: entry.ExpiresAt.Unix(),
	}
	_, err := s.client.Collection(attestationCacheCollection).Doc(docID(key)).Set(ctx, fe, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("cache: write firestore document %s: %w", docID(key), err)
	}
	return nil
}

var _ Store = (*FirestoreStore)(nil)
