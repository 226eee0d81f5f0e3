// Copyright 2025 Certen Protocol
//
// Package verifier implements end-to-end ProofBundle verification:
// schema check, rail dispatch, groth16 verification, nullifier
// check-and-insert, and policy match. Envelope shape follows the
// teacher's versioned proof-bundle format.

package verifier

import (
	"bytes"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"

	"github.com/certen/independant-validator/pkg/pofcore/circuits"
	"github.com/certen/independant-validator/pkg/pofcore/codec"
	"github.com/certen/independant-validator/pkg/pofcore/errs"
	"github.com/certen/independant-validator/pkg/pofcore/metrics"
	"github.com/certen/independant-validator/pkg/pofcore/nullifier"
	"github.com/certen/independant-validator/pkg/pofcore/policy"
)

// BundleSchemaVersion tags the ProofBundle envelope's wire format.
const BundleSchemaVersion = 1

// ProofBundle is the stable envelope a prover submits to the validator:
// a groth16 proof, the public inputs it was produced against, and the
// rail/scope metadata the verifier needs to dispatch and check it.
type ProofBundle struct {
	SchemaVersion int                `json:"schema_version"`
	BundleID      string             `json:"bundle_id"`
	Rail          circuits.RailTag   `json:"rail"`
	ScopeID       string             `json:"scope_id"`
	PublicInputs  codec.PublicInputs `json:"public_inputs"`
	// RailRoot carries the rail-specific public commitment the codec's
	// fixed 8-slot PublicInputs has no room for: the notes-commitment
	// root for the shielded rail, the L2 state root for the rollup
	// rail. The attestation rail leaves this empty.
	RailRoot string `json:"rail_root,omitempty"`
	// RailAux carries a second rail-specific public commitment: only
	// the rollup rail uses it, for its price-vector commitment.
	RailAux string `json:"rail_aux,omitempty"`
	Proof   []byte `json:"proof"`
}

// VerificationResult is returned on a successful end-to-end verification.
type VerificationResult struct {
	BundleID string
	Rail     circuits.RailTag
	PolicyID string
}

// Verifier owns the per-rail verifying keys, the nullifier store and
// the policy store, and implements VerifyBundle.
type Verifier struct {
	vkeys       map[circuits.RailTag]groth16.VerifyingKey
	nullifiers  nullifier.Store
	policies    policy.Store
}

// New constructs a Verifier. vkeys must contain an entry for every rail
// tag the deployment accepts proofs for.
func New(vkeys map[circuits.RailTag]groth16.VerifyingKey, nullifiers nullifier.Store, policies policy.Store) *Verifier {
	return &Verifier{vkeys: vkeys, nullifiers: nullifiers, policies: policies}
}

// VerifyBundle runs the full pipeline described in SPEC_FULL.md's C4.
func (v *Verifier) VerifyBundle(bundle ProofBundle) (VerificationResult, error) {
	result, err := v.verifyBundle(bundle)
	outcome := "accepted"
	if err != nil {
		outcome = "rejected"
	}
	metrics.BundlesVerified.WithLabelValues(string(bundle.Rail), outcome).Inc()
	return result, err
}

func (v *Verifier) verifyBundle(bundle ProofBundle) (VerificationResult, error) {
	if err := validateSchema(bundle); err != nil {
		return VerificationResult{}, fmt.Errorf("%w: %v", errs.ErrSchemaInvalid, err)
	}

	vk, ok := v.vkeys[bundle.Rail]
	if !ok {
		return VerificationResult{}, fmt.Errorf("%w: %s", errs.ErrRailUnsupported, bundle.Rail)
	}

	var scopeID fr.Element
	if _, err := scopeID.SetString(bundle.ScopeID); err != nil {
		return VerificationResult{}, fmt.Errorf("%w: decode scope_id: %v", errs.ErrSchemaInvalid, err)
	}
	if !scopeID.Equal(&bundle.PublicInputs.VerifierScopeID) {
		return VerificationResult{}, errs.ErrScopeMismatch
	}

	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(bundle.Proof)); err != nil {
		return VerificationResult{}, fmt.Errorf("%w: decode proof: %v", errs.ErrSchemaInvalid, err)
	}

	publicWitness, err := buildPublicWitness(bundle.Rail, bundle.PublicInputs, bundle.RailRoot, bundle.RailAux)
	if err != nil {
		return VerificationResult{}, fmt.Errorf("%w: %v", errs.ErrSchemaInvalid, err)
	}

	if err := groth16.Verify(proof, vk, publicWitness); err != nil {
		return VerificationResult{}, fmt.Errorf("%w: %v", errs.ErrVerificationFailed, err)
	}

	policyID := bundle.PublicInputs.PolicyID.String()
	pol, err := v.policies.Lookup(policyID)
	if err != nil {
		return VerificationResult{}, err
	}
	if err := pol.Matches(bundle.PublicInputs); err != nil {
		return VerificationResult{}, fmt.Errorf("%w: %v", errs.ErrPolicyMismatch, err)
	}

	nullHex := bundle.PublicInputs.Nullifier.String()
	inserted, err := v.nullifiers.CheckAndInsert(bundle.ScopeID, policyID, nullHex)
	if err != nil {
		return VerificationResult{}, err
	}
	if !inserted {
		metrics.NullifierReplays.WithLabelValues(bundle.ScopeID).Inc()
		return VerificationResult{}, errs.ErrNullifierReplay
	}

	return VerificationResult{BundleID: bundle.BundleID, Rail: bundle.Rail, PolicyID: policyID}, nil
}

func validateSchema(bundle ProofBundle) error {
	if bundle.SchemaVersion != BundleSchemaVersion {
		return fmt.Errorf("unsupported schema version %d", bundle.SchemaVersion)
	}
	if bundle.BundleID == "" {
		return fmt.Errorf("missing bundle_id")
	}
	if bundle.ScopeID == "" {
		return fmt.Errorf("missing scope_id")
	}
	if len(bundle.Proof) == 0 {
		return fmt.Errorf("missing proof bytes")
	}
	return nil
}
