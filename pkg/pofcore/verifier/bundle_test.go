package verifier

import (
	"bytes"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/certen/independant-validator/pkg/pofcore/circuits"
	"github.com/certen/independant-validator/pkg/pofcore/codec"
	"github.com/certen/independant-validator/pkg/pofcore/commitment"
	"github.com/certen/independant-validator/pkg/pofcore/nullifier"
	"github.com/certen/independant-validator/pkg/pofcore/policy"
)

func feltV(v uint64) fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return e
}

// attestationFixture builds a self-consistent witness for
// AttestationCircuit: every hash relation the circuit enforces is
// computed host-side with the same commitment.PoseidonHash the circuit
// uses, so a valid proof should verify.
type attestationFixture struct {
	assignment circuits.AttestationCircuit
	pub        codec.PublicInputs
	scopeID    fr.Element
}

func newAttestationFixture() attestationFixture {
	balance := feltV(500)
	attestationID := feltV(42)
	currency := feltV(840) // USD
	custodian := feltV(7)
	issuedAt := feltV(100)
	validUntil := feltV(200)
	accountIDHash := feltV(99)
	verifierScope := feltV(1)
	policyID := feltV(3)
	epoch := feltV(150)
	pubkeyX := feltV(11)
	pubkeyY := feltV(22)

	partial := commitment.PoseidonHash(balance, attestationID, currency, custodian, issuedAt)
	digest := commitment.PoseidonHash(partial, validUntil, accountIDHash)
	nullifierV := commitment.DeriveNullifier(accountIDHash, verifierScope, policyID, epoch)
	pubkeyHash := commitment.DerivePubkeyHash(pubkeyX, pubkeyY)

	threshold := feltV(100)

	assignment := circuits.AttestationCircuit{
		BalanceThreshold:    threshold,
		CurrencyCode:        currency,
		CustodianID:         custodian,
		EpochID:             epoch,
		Nullifier:           nullifierV,
		CustodianPubkeyHash: pubkeyHash,
		PolicyID:            policyID,
		VerifierScopeID:     verifierScope,

		Balance:       balance,
		AttestationID: attestationID,
		Currency:      currency,
		Custodian:     custodian,
		IssuedAt:      issuedAt,
		ValidUntil:    validUntil,
		AccountIDHash: accountIDHash,
		CurrentEpoch:  epoch,
		PubkeyX:       pubkeyX,
		PubkeyY:       pubkeyY,
		MessageHash:   digest,
	}

	pub := codec.PublicInputs{
		BalanceThreshold:    threshold,
		CurrencyCode:        currency,
		CustodianID:         custodian,
		EpochID:             epoch,
		Nullifier:           nullifierV,
		CustodianPubkeyHash: pubkeyHash,
		PolicyID:            policyID,
		VerifierScopeID:     verifierScope,
	}

	return attestationFixture{assignment: assignment, pub: pub, scopeID: verifierScope}
}

func compileAndProve(t *testing.T, assignment *circuits.AttestationCircuit) (constraint.ConstraintSystem, groth16.ProvingKey, groth16.VerifyingKey, groth16.Proof) {
	t.Helper()

	var circuit circuits.AttestationCircuit
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		t.Fatalf("compile attestation circuit: %v", err)
	}

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		t.Fatalf("groth16 setup: %v", err)
	}

	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		t.Fatalf("build witness: %v", err)
	}

	proof, err := groth16.Prove(ccs, pk, witness)
	if err != nil {
		t.Fatalf("groth16 prove: %v", err)
	}

	return ccs, pk, vk, proof
}

func TestVerifyBundleAcceptsValidProof(t *testing.T) {
	fixture := newAttestationFixture()
	_, _, vk, proof := compileAndProve(t, &fixture.assignment)

	var proofBytes bytes.Buffer
	if _, err := proof.WriteTo(&proofBytes); err != nil {
		t.Fatalf("serialize proof: %v", err)
	}

	policies := policy.NewYAMLStore()
	if err := policies.Put(policy.Policy{
		ID:                  fixture.pub.PolicyID.String(),
		MinBalanceThreshold: 100,
		EpochWindowStart:    0,
		EpochWindowEnd:      1000,
	}); err != nil {
		t.Fatalf("put policy: %v", err)
	}

	v := New(map[circuits.RailTag]groth16.VerifyingKey{circuits.RailAttestation: vk}, nullifier.NewMemoryStore(), policies)

	bundle := ProofBundle{
		SchemaVersion: BundleSchemaVersion,
		BundleID:      "bundle-1",
		Rail:          circuits.RailAttestation,
		ScopeID:       fixture.scopeID.String(),
		PublicInputs:  fixture.pub,
		Proof:         proofBytes.Bytes(),
	}

	result, err := v.VerifyBundle(bundle)
	if err != nil {
		t.Fatalf("expected valid bundle to verify, got: %v", err)
	}
	if result.BundleID != "bundle-1" || result.PolicyID != fixture.pub.PolicyID.String() {
		t.Fatalf("unexpected verification result: %+v", result)
	}

	// Replaying the same bundle must be rejected by the nullifier store.
	if _, err := v.VerifyBundle(bundle); err == nil {
		t.Fatal("expected nullifier replay to be rejected")
	}
}

func TestVerifyBundleRejectsUnknownRail(t *testing.T) {
	fixture := newAttestationFixture()
	_, _, vk, proof := compileAndProve(t, &fixture.assignment)

	var proofBytes bytes.Buffer
	if _, err := proof.WriteTo(&proofBytes); err != nil {
		t.Fatalf("serialize proof: %v", err)
	}

	v := New(map[circuits.RailTag]groth16.VerifyingKey{circuits.RailAttestation: vk}, nullifier.NewMemoryStore(), policy.NewYAMLStore())

	bundle := ProofBundle{
		SchemaVersion: BundleSchemaVersion,
		BundleID:      "bundle-2",
		Rail:          circuits.RailShielded,
		ScopeID:       fixture.scopeID.String(),
		PublicInputs:  fixture.pub,
		Proof:         proofBytes.Bytes(),
	}

	if _, err := v.VerifyBundle(bundle); err == nil {
		t.Fatal("expected verification to fail for a rail with no registered verifying key")
	}
}

func TestVerifyBundleRejectsMissingBundleID(t *testing.T) {
	fixture := newAttestationFixture()
	v := New(map[circuits.RailTag]groth16.VerifyingKey{}, nullifier.NewMemoryStore(), policy.NewYAMLStore())

	bundle := ProofBundle{
		SchemaVersion: BundleSchemaVersion,
		Rail:          circuits.RailAttestation,
		ScopeID:       fixture.scopeID.String(),
		PublicInputs:  fixture.pub,
		Proof:         []byte("not-empty"),
	}

	if _, err := v.VerifyBundle(bundle); err == nil {
		t.Fatal("expected schema validation to reject a bundle with no bundle_id")
	}
}
