package circuits

import (
	"testing"

	"github.com/consensys/gnark/frontend"
)

type stubCircuit struct{}

func (s *stubCircuit) Define(api frontend.API) error { return nil }

func TestLookupKnownRails(t *testing.T) {
	for _, tag := range []RailTag{RailAttestation, RailShielded, RailRollup} {
		ctor, err := Lookup(tag)
		if err != nil {
			t.Fatalf("lookup %s: %v", tag, err)
		}
		if ctor() == nil {
			t.Fatalf("constructor for %s returned nil circuit", tag)
		}
	}
}

func TestLookupUnknownRail(t *testing.T) {
	if _, err := Lookup("quantum"); err == nil {
		t.Fatal("expected error for unregistered rail")
	}
}

func TestRegisterNewRail(t *testing.T) {
	Register("custom", func() frontend.Circuit { return &stubCircuit{} })
	ctor, err := Lookup("custom")
	if err != nil {
		t.Fatalf("lookup custom: %v", err)
	}
	if ctor() == nil {
		t.Fatal("expected non-nil circuit from registered constructor")
	}
}
