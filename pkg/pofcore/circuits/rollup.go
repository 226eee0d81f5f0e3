// Copyright 2025 Certen Protocol
//
// RollupCircuit is the L2 rail: it proves a bounded set of account-
// state leaves are included in an L2 rollup's state root and their
// (optionally USD-weighted) balances sum to at least the policy
// threshold, without naming any individual account.

package circuits

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/poseidon2"
)

// RollupMaxAccounts (N_MAX) bounds how many accounts a single rollup
// proof can sum over.
const RollupMaxAccounts = 4

// ShieldedMerkleDepth reuses the shielded rail's tree-depth bound for
// the rollup account-state trie proof.
const ShieldedMerkleDepth = MerkleDepth

// RollupCircuit is the witness+public-input layout for the L2 rollup
// inclusion rail.
type RollupCircuit struct {
	BalanceThreshold    frontend.Variable `gnark:",public"`
	CurrencyCode        frontend.Variable `gnark:",public"`
	CustodianID         frontend.Variable `gnark:",public"`
	EpochID             frontend.Variable `gnark:",public"`
	Nullifier           frontend.Variable `gnark:",public"`
	CustodianPubkeyHash frontend.Variable `gnark:",public"`
	PolicyID            frontend.Variable `gnark:",public"`
	VerifierScopeID     frontend.Variable `gnark:",public"`

	L2StateRoot frontend.Variable `gnark:",public"`

	// PriceVectorCommitment is zero when the policy does not declare
	// USD-valuation (every account is counted in native units) and
	// otherwise the Poseidon fold of the per-account price weights
	// actually used, binding the externally supplied price vector to
	// the proof instead of letting a prover pick favorable weights.
	PriceVectorCommitment frontend.Variable `gnark:",public"`

	AccountLeaf  [RollupMaxAccounts]frontend.Variable
	AccountValue [RollupMaxAccounts]frontend.Variable
	AccountHash  [RollupMaxAccounts]frontend.Variable
	PriceWeight  [RollupMaxAccounts]frontend.Variable
	Active       [RollupMaxAccounts]frontend.Variable
	PathElements [RollupMaxAccounts][ShieldedMerkleDepth]frontend.Variable
	PathIndices  [RollupMaxAccounts][ShieldedMerkleDepth]frontend.Variable
}

// Define enforces, per spec's L2-account rail rules:
//  1. Each active account's Merkle path resolves to L2StateRoot.
//  2. The weighted sum of active accounts' values is at least
//     BalanceThreshold: weight is forced to 1 (native units) when
//     PriceVectorCommitment is zero, otherwise the prover's supplied
//     weights are bound by a Poseidon commitment check.
//  3. nullifier = Poseidon4(account_set_commitment, verifier_scope_id, policy_id, epoch).
func (c *RollupCircuit) Define(api frontend.API) error {
	nativeValuation := api.IsZero(c.PriceVectorCommitment)

	sum := frontend.Variable(0)
	priceFold := frontend.Variable(0)
	setFold := frontend.Variable(0)

	for i := 0; i < RollupMaxAccounts; i++ {
		api.AssertIsBoolean(c.Active[i])

		current := c.AccountLeaf[i]
		for d := 0; d < ShieldedMerkleDepth; d++ {
			left := api.Select(c.PathIndices[i][d], c.PathElements[i][d], current)
			right := api.Select(c.PathIndices[i][d], current, c.PathElements[i][d])

			h, err := poseidon2.NewMerkleDamgardHasher(api)
			if err != nil {
				return err
			}
			h.Write(left, right)
			current = h.Sum()
		}
		gatedRoot := api.Select(c.Active[i], current, c.L2StateRoot)
		api.AssertIsEqual(gatedRoot, c.L2StateRoot)

		weight := api.Select(nativeValuation, 1, c.PriceWeight[i])
		weighted := api.Mul(c.AccountValue[i], weight)
		sum = api.Add(sum, api.Select(c.Active[i], weighted, 0))

		foldInput := api.Select(c.Active[i], c.AccountHash[i], 0)
		setHasher, err := poseidon2.NewMerkleDamgardHasher(api)
		if err != nil {
			return err
		}
		setHasher.Write(setFold, foldInput)
		setFold = setHasher.Sum()

		priceHasher, err := poseidon2.NewMerkleDamgardHasher(api)
		if err != nil {
			return err
		}
		priceHasher.Write(priceFold, c.PriceWeight[i])
		priceFold = priceHasher.Sum()
	}

	api.AssertIsLessOrEqual(c.BalanceThreshold, sum)

	gatedPriceCommitment := api.Select(nativeValuation, c.PriceVectorCommitment, priceFold)
	api.AssertIsEqual(gatedPriceCommitment, c.PriceVectorCommitment)

	nullHasher, err := poseidon2.NewMerkleDamgardHasher(api)
	if err != nil {
		return err
	}
	nullHasher.Write(setFold, c.VerifierScopeID, c.PolicyID, c.EpochID)
	api.AssertIsEqual(nullHasher.Sum(), c.Nullifier)

	return nil
}
