package transport

import (
	"testing"
	"time"
)

func testKey() Key {
	return Key{TargetChain: "ethereum-sepolia", HolderBinding: [32]byte{1, 2, 3}, PolicyID: "policy-1", Epoch: 42}
}

func TestOpenStartsPending(t *testing.T) {
	s := NewStore()
	e, err := s.Open(Envelope{SourceChain: "accumulate", TargetChain: "ethereum-sepolia", HolderBinding: testKey().HolderBinding, PolicyID: "policy-1", Epoch: 42})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if e.Status != StatusPending {
		t.Fatalf("expected pending, got %s", e.Status)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	s := NewStore()
	key := testKey()
	env := Envelope{TargetChain: key.TargetChain, HolderBinding: key.HolderBinding, PolicyID: key.PolicyID, Epoch: key.Epoch}

	first, err := s.Open(env)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Transition(key, StatusRelaying); err != nil {
		t.Fatalf("transition: %v", err)
	}

	second, err := s.Open(env)
	if err != nil {
		t.Fatalf("re-open: %v", err)
	}
	if second.Status != StatusRelaying {
		t.Fatalf("re-opening an existing envelope must not reset its state, got %s (first was %s)", second.Status, first.Status)
	}
}

func TestLegalTransitionSequence(t *testing.T) {
	s := NewStore()
	key := testKey()
	if _, err := s.Open(Envelope{TargetChain: key.TargetChain, HolderBinding: key.HolderBinding, PolicyID: key.PolicyID, Epoch: key.Epoch}); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Transition(key, StatusRelaying); err != nil {
		t.Fatalf("pending->relaying: %v", err)
	}
	if _, err := s.Confirm(key, time.Hour); err != nil {
		t.Fatalf("relaying->confirmed: %v", err)
	}
	if _, err := s.Transition(key, StatusRevoked); err != nil {
		t.Fatalf("confirmed->revoked: %v", err)
	}
}

func TestIllegalTransitionRejected(t *testing.T) {
	s := NewStore()
	key := testKey()
	if _, err := s.Open(Envelope{TargetChain: key.TargetChain, HolderBinding: key.HolderBinding, PolicyID: key.PolicyID, Epoch: key.Epoch}); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Confirm(key, time.Hour); err == nil {
		t.Fatal("expected pending->confirmed to be rejected (must pass through relaying)")
	}
}

func TestConfirmIsIdempotent(t *testing.T) {
	s := NewStore()
	key := testKey()
	if _, err := s.Open(Envelope{TargetChain: key.TargetChain, HolderBinding: key.HolderBinding, PolicyID: key.PolicyID, Epoch: key.Epoch}); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Transition(key, StatusRelaying); err != nil {
		t.Fatalf("transition: %v", err)
	}
	first, err := s.Confirm(key, time.Hour)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	second, err := s.Confirm(key, 2*time.Hour)
	if err != nil {
		t.Fatalf("re-confirm: %v", err)
	}
	if !first.ExpiresAt.Equal(second.ExpiresAt) {
		t.Fatal("confirming an already-confirmed envelope must be idempotent, not extend validity")
	}
}

func TestHasValidAttestation(t *testing.T) {
	s := NewStore()
	key := testKey()
	if _, err := s.Open(Envelope{TargetChain: key.TargetChain, HolderBinding: key.HolderBinding, PolicyID: key.PolicyID, Epoch: key.Epoch}); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Transition(key, StatusRelaying); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if _, err := s.Confirm(key, time.Hour); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if !s.HasValidAttestation(key.HolderBinding, key.PolicyID, time.Now()) {
		t.Fatal("expected a confirmed, unexpired envelope to be a valid attestation")
	}
	if s.HasValidAttestation(key.HolderBinding, key.PolicyID, time.Now().Add(2*time.Hour)) {
		t.Fatal("expected a validity window in the past to be invalid")
	}
}

func TestRevokedEnvelopeIsNeverValid(t *testing.T) {
	s := NewStore()
	key := testKey()
	if _, err := s.Open(Envelope{TargetChain: key.TargetChain, HolderBinding: key.HolderBinding, PolicyID: key.PolicyID, Epoch: key.Epoch}); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Transition(key, StatusRelaying); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if _, err := s.Confirm(key, time.Hour); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := s.Revoke(key); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if s.HasValidAttestation(key.HolderBinding, key.PolicyID, time.Now()) {
		t.Fatal("a revoked envelope must never count as a valid attestation")
	}
}

func TestSweepExpiredTransitionsPastDeadlines(t *testing.T) {
	s := NewStore()
	fakeNow := time.Now()
	s.now = func() time.Time { return fakeNow }

	key := testKey()
	if _, err := s.Open(Envelope{TargetChain: key.TargetChain, HolderBinding: key.HolderBinding, PolicyID: key.PolicyID, Epoch: key.Epoch}); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Transition(key, StatusRelaying); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if _, err := s.Confirm(key, time.Minute); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	s.now = func() time.Time { return fakeNow.Add(2 * time.Minute) }
	if n := s.SweepExpired(); n != 1 {
		t.Fatalf("expected 1 envelope swept, got %d", n)
	}

	e, err := s.Transition(key, StatusRevoked)
	if err != nil {
		t.Fatalf("expired->revoked: %v", err)
	}
	if e.Status != StatusRevoked {
		t.Fatalf("expected revoked, got %s", e.Status)
	}
}
