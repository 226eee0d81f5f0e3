package cache

import (
	"testing"
	"time"
)

func TestMemoryStoreMissThenHit(t *testing.T) {
	s := NewMemoryStore()
	key := Key{CustodianID: "7", AccountIDHash: "abc", EpochID: "150"}

	if _, ok, err := s.Get(key); err != nil || ok {
		t.Fatalf("expected miss on empty store, got ok=%v err=%v", ok, err)
	}

	entry := Entry{PolicyID: "policy-1", BundleID: "bundle-1", CachedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
	if err := s.Put(key, entry); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := s.Get(key)
	if err != nil || !ok {
		t.Fatalf("expected hit after put, got ok=%v err=%v", ok, err)
	}
	if got.PolicyID != entry.PolicyID || got.BundleID != entry.BundleID {
		t.Fatalf("unexpected cached entry: %+v", got)
	}
}

func TestMemoryStoreExpiresEntries(t *testing.T) {
	s := NewMemoryStore()
	fakeNow := time.Now()
	s.now = func() time.Time { return fakeNow }

	key := Key{CustodianID: "7", AccountIDHash: "abc", EpochID: "150"}
	if err := s.Put(key, Entry{PolicyID: "policy-1", CachedAt: fakeNow, ExpiresAt: fakeNow.Add(time.Minute)}); err != nil {
		t.Fatalf("put: %v", err)
	}

	s.now = func() time.Time { return fakeNow.Add(2 * time.Minute) }
	if _, ok, err := s.Get(key); err != nil || ok {
		t.Fatalf("expected expired entry to miss, got ok=%v err=%v", ok, err)
	}
}

func TestKeysAreDistinctPerEpoch(t *testing.T) {
	s := NewMemoryStore()
	base := Key{CustodianID: "7", AccountIDHash: "abc", EpochID: "150"}
	other := base
	other.EpochID = "151"

	if err := s.Put(base, Entry{PolicyID: "policy-1", CachedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok, err := s.Get(other); err != nil || ok {
		t.Fatal("expected a different epoch_id to miss the cache")
	}
}
