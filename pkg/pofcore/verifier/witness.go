// Copyright 2025 Certen Protocol

package verifier

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"

	"github.com/certen/independant-validator/pkg/pofcore/circuits"
	"github.com/certen/independant-validator/pkg/pofcore/codec"
)

func scalarField() *big.Int {
	return ecc.BN254.ScalarField()
}

// buildPublicWitness builds the public-only gnark witness for a rail,
// combining the fixed 8-slot PublicInputs with the rail's extra public
// commitments (notes root / L2 state root, and for the rollup rail the
// price-vector commitment carried in railAux) where applicable.
func buildPublicWitness(rail circuits.RailTag, pub codec.PublicInputs, railRoot, railAux string) (witness.Witness, error) {
	var root fr.Element
	if railRoot != "" {
		if _, err := root.SetString(railRoot); err != nil {
			return nil, fmt.Errorf("verifier: decode rail root: %w", err)
		}
	}
	var aux fr.Element
	if railAux != "" {
		if _, err := aux.SetString(railAux); err != nil {
			return nil, fmt.Errorf("verifier: decode rail aux: %w", err)
		}
	}

	var assignment frontend.Circuit
	switch rail {
	case circuits.RailAttestation:
		assignment = &circuits.AttestationCircuit{
			BalanceThreshold:    pub.BalanceThreshold,
			CurrencyCode:        pub.CurrencyCode,
			CustodianID:         pub.CustodianID,
			EpochID:             pub.EpochID,
			Nullifier:           pub.Nullifier,
			CustodianPubkeyHash: pub.CustodianPubkeyHash,
			PolicyID:            pub.PolicyID,
			VerifierScopeID:     pub.VerifierScopeID,
		}
	case circuits.RailShielded:
		assignment = &circuits.ShieldedCircuit{
			BalanceThreshold:    pub.BalanceThreshold,
			CurrencyCode:        pub.CurrencyCode,
			CustodianID:         pub.CustodianID,
			EpochID:             pub.EpochID,
			Nullifier:           pub.Nullifier,
			CustodianPubkeyHash: pub.CustodianPubkeyHash,
			PolicyID:            pub.PolicyID,
			VerifierScopeID:     pub.VerifierScopeID,
			NotesRoot:           root,
		}
	case circuits.RailRollup:
		assignment = &circuits.RollupCircuit{
			BalanceThreshold:      pub.BalanceThreshold,
			CurrencyCode:          pub.CurrencyCode,
			CustodianID:           pub.CustodianID,
			EpochID:               pub.EpochID,
			Nullifier:             pub.Nullifier,
			CustodianPubkeyHash:   pub.CustodianPubkeyHash,
			PolicyID:              pub.PolicyID,
			VerifierScopeID:       pub.VerifierScopeID,
			L2StateRoot:           root,
			PriceVectorCommitment: aux,
		}
	default:
		return nil, fmt.Errorf("verifier: unsupported rail %q", rail)
	}

	full, err := frontend.NewWitness(assignment, scalarField())
	if err != nil {
		return nil, fmt.Errorf("verifier: build witness: %w", err)
	}
	pubOnly, err := full.Public()
	if err != nil {
		return nil, fmt.Errorf("verifier: extract public witness: %w", err)
	}
	return pubOnly, nil
}
