package policy

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/certen/independant-validator/pkg/pofcore/codec"
)

func felt(v uint64) fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return e
}

func TestPolicyMatchesThresholdAndCurrency(t *testing.T) {
	p := Policy{
		ID:                  "pol-1",
		MinBalanceThreshold: 1000,
		AllowedCurrencies:   []uint64{840},
		EpochWindowStart:    1,
		EpochWindowEnd:      100,
	}

	pub := codec.PublicInputs{
		BalanceThreshold: felt(1500),
		CurrencyCode:     felt(840),
		EpochID:          felt(50),
	}
	if err := p.Matches(pub); err != nil {
		t.Fatalf("expected match, got %v", err)
	}

	pub.CurrencyCode = felt(978)
	if err := p.Matches(pub); err == nil {
		t.Fatal("expected currency mismatch to fail")
	}
}

func TestPolicyMatchesEpochWindow(t *testing.T) {
	p := Policy{ID: "pol-2", EpochWindowStart: 10, EpochWindowEnd: 20}
	pub := codec.PublicInputs{EpochID: felt(5)}
	if err := p.Matches(pub); err == nil {
		t.Fatal("expected epoch window violation to fail")
	}
}

func TestYAMLStorePutAndLookup(t *testing.T) {
	store := NewYAMLStore()
	if err := store.Put(Policy{ID: "pol-3", MinBalanceThreshold: 1}); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Lookup("pol-3")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.ID != "pol-3" {
		t.Fatalf("unexpected policy id %s", got.ID)
	}

	if _, err := store.Lookup("missing"); err == nil {
		t.Fatal("expected error for missing policy")
	}
}
