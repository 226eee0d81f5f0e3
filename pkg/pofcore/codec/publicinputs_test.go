package codec

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

func elemFromUint(v uint64) fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return e
}

func TestFieldOrderRoundTrip(t *testing.T) {
	p := PublicInputs{
		BalanceThreshold:    elemFromUint(1000),
		CurrencyCode:        elemFromUint(840),
		CustodianID:         elemFromUint(1337),
		EpochID:             elemFromUint(42),
		Nullifier:           elemFromUint(9001),
		CustodianPubkeyHash: elemFromUint(55),
		PolicyID:            elemFromUint(7),
		VerifierScopeID:     elemFromUint(3),
	}

	elems := EncodeFieldOrder(p)
	got := DecodeFieldOrder(elems)
	if got != p {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, p)
	}
}

func TestCanonicalJSONRoundTrip(t *testing.T) {
	p := PublicInputs{
		BalanceThreshold:    elemFromUint(1000),
		CurrencyCode:        elemFromUint(0),
		CustodianID:         elemFromUint(1337),
		EpochID:             elemFromUint(42),
		Nullifier:           elemFromUint(9001),
		CustodianPubkeyHash: elemFromUint(55),
		PolicyID:            elemFromUint(7),
		VerifierScopeID:     elemFromUint(3),
	}

	data, err := MarshalCanonicalJSON(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := UnmarshalCanonicalJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != p {
		t.Fatalf("json round trip mismatch: got %+v, want %+v", got, p)
	}
}

func TestUnmarshalCanonicalJSONRejectsWrongVersion(t *testing.T) {
	_, err := UnmarshalCanonicalJSON([]byte(`{"version":99}`))
	if err == nil {
		t.Fatal("expected error for unsupported field order version")
	}
}
