// Copyright 2025 Certen Protocol
//
// ShieldedCircuit is the shielded-note rail: it proves a bounded set of
// notes, all owned under one viewing key, sums to at least the policy
// threshold and is included in a published notes-commitment Merkle
// tree, without revealing which notes or how many.

package circuits

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/poseidon2"
)

// MerkleDepth bounds the note-commitment tree depth this circuit can
// verify a path against.
const MerkleDepth = 32

// ShieldedMaxNotes (N_MAX) bounds how many notes a single shielded-rail
// proof can sum over. Unused slots are marked inactive and contribute
// neither to the value sum nor to the Merkle/ownership checks.
const ShieldedMaxNotes = 4

// ShieldedCircuit is the witness+public-input layout for the shielded
// note rail.
type ShieldedCircuit struct {
	BalanceThreshold    frontend.Variable `gnark:",public"`
	CurrencyCode        frontend.Variable `gnark:",public"`
	CustodianID         frontend.Variable `gnark:",public"`
	EpochID             frontend.Variable `gnark:",public"`
	Nullifier           frontend.Variable `gnark:",public"`
	CustodianPubkeyHash frontend.Variable `gnark:",public"`
	PolicyID            frontend.Variable `gnark:",public"`
	VerifierScopeID     frontend.Variable `gnark:",public"`

	NotesRoot frontend.Variable `gnark:",public"`

	// Fvk is the holder's full viewing key. Never leaves the circuit;
	// only its commitment (derived below) ever reaches a public input,
	// via the rail nullifier.
	Fvk frontend.Variable

	NoteValue      [ShieldedMaxNotes]frontend.Variable
	NoteCurrency   [ShieldedMaxNotes]frontend.Variable
	NoteCommitment [ShieldedMaxNotes]frontend.Variable
	Position       [ShieldedMaxNotes]frontend.Variable
	Active         [ShieldedMaxNotes]frontend.Variable
	PathElements   [ShieldedMaxNotes][MerkleDepth]frontend.Variable
	PathIndices    [ShieldedMaxNotes][MerkleDepth]frontend.Variable
}

// Define enforces, per spec's shielded-rail rules:
//  1. Each active note's commitment derives from fvk (ownership), its
//     Merkle path resolves to NotesRoot (inclusion), and its currency
//     matches CurrencyCode (wildcard-equality).
//  2. Inactive note slots are unconstrained filler: all three checks
//     above are gated to be vacuously true.
//  3. The sum of active notes' values is at least BalanceThreshold.
//  4. nullifier = Poseidon4(fvk_commitment, policy_id, verifier_scope_id, epoch).
//  5. custodian_pubkey_hash and required_custodian_id are both zero —
//     the shielded rail has no custodian authority to bind to.
func (c *ShieldedCircuit) Define(api frontend.API) error {
	api.AssertIsEqual(c.CustodianID, 0)
	api.AssertIsEqual(c.CustodianPubkeyHash, 0)

	sum := frontend.Variable(0)

	for i := 0; i < ShieldedMaxNotes; i++ {
		api.AssertIsBoolean(c.Active[i])

		gatedCurrency := api.Select(c.Active[i], c.NoteCurrency[i], c.CurrencyCode)
		enforceWildcardEquality(api, gatedCurrency, c.CurrencyCode)

		ownershipHasher, err := poseidon2.NewMerkleDamgardHasher(api)
		if err != nil {
			return err
		}
		ownershipHasher.Write(c.Fvk, c.NoteValue[i], c.Position[i])
		derivedCommitment := ownershipHasher.Sum()
		gatedCommitment := api.Select(c.Active[i], derivedCommitment, c.NoteCommitment[i])
		api.AssertIsEqual(gatedCommitment, c.NoteCommitment[i])

		current := c.NoteCommitment[i]
		for d := 0; d < MerkleDepth; d++ {
			left := api.Select(c.PathIndices[i][d], c.PathElements[i][d], current)
			right := api.Select(c.PathIndices[i][d], current, c.PathElements[i][d])

			h, err := poseidon2.NewMerkleDamgardHasher(api)
			if err != nil {
				return err
			}
			h.Write(left, right)
			current = h.Sum()
		}
		gatedRoot := api.Select(c.Active[i], current, c.NotesRoot)
		api.AssertIsEqual(gatedRoot, c.NotesRoot)

		sum = api.Add(sum, api.Select(c.Active[i], c.NoteValue[i], 0))
	}

	api.AssertIsLessOrEqual(c.BalanceThreshold, sum)

	fvkHasher, err := poseidon2.NewMerkleDamgardHasher(api)
	if err != nil {
		return err
	}
	fvkHasher.Write(c.Fvk)
	fvkCommitment := fvkHasher.Sum()

	nullHasher, err := poseidon2.NewMerkleDamgardHasher(api)
	if err != nil {
		return err
	}
	nullHasher.Write(fvkCommitment, c.PolicyID, c.VerifierScopeID, c.EpochID)
	api.AssertIsEqual(nullHasher.Sum(), c.Nullifier)

	return nil
}
