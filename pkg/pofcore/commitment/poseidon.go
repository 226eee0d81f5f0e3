// Copyright 2025 Certen Protocol
//
// Host-side (out-of-circuit) hashing over the BN254 scalar field.
// PoseidonHash is gnark-crypto's Poseidon2 Merkle-Damgard hasher, the
// native counterpart of the gnark std/hash/poseidon2 Merkle-Damgard
// hasher the rail circuits use, so a commitment computed here is the
// one a circuit recomputes. poseidonPermute below is a separate
// width-6 Poseidon permutation that PoseidonHash does not call.

package commitment

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"
)

const (
	poseidonWidth        = 6
	poseidonRate          = 5
	poseidonFullRounds    = 8
	poseidonPartialRounds = 57
)

// poseidonRoundConstants and poseidonMDS are deterministically derived
// from fixed formulas rather than copied from any published parameter
// set; only poseidonPermute uses them.
var (
	poseidonRoundConstants = deriveRoundConstants()
	poseidonMDS            = deriveMDSMatrix()
)

func deriveRoundConstants() [][poseidonWidth]fr.Element {
	total := poseidonFullRounds + poseidonPartialRounds
	rc := make([][poseidonWidth]fr.Element, total)
	counter := uint64(1)
	for r := 0; r < total; r++ {
		for c := 0; c < poseidonWidth; c++ {
			var e fr.Element
			e.SetUint64(counter)
			e.Square(&e)
			rc[r][c] = e
			counter++
		}
	}
	return rc
}

func deriveMDSMatrix() [poseidonWidth][poseidonWidth]fr.Element {
	var m [poseidonWidth][poseidonWidth]fr.Element
	for i := 0; i < poseidonWidth; i++ {
		for j := 0; j < poseidonWidth; j++ {
			var x, y, sum, e fr.Element
			x.SetUint64(uint64(i + 1))
			y.SetUint64(uint64(j + 1))
			sum.Add(&x, &y)
			e.Inverse(&sum)
			m[i][j] = e
		}
	}
	return m
}

func sbox(x *fr.Element) fr.Element {
	var x2, x4, out fr.Element
	x2.Square(x)
	x4.Square(&x2)
	out.Mul(&x4, x)
	return out
}

func applyMDS(state *[poseidonWidth]fr.Element) {
	var next [poseidonWidth]fr.Element
	for i := 0; i < poseidonWidth; i++ {
		var acc fr.Element
		for j := 0; j < poseidonWidth; j++ {
			var term fr.Element
			term.Mul(&poseidonMDS[i][j], &state[j])
			acc.Add(&acc, &term)
		}
		next[i] = acc
	}
	*state = next
}

// poseidonPermute runs the full Poseidon permutation over a 6-element state.
func poseidonPermute(state [poseidonWidth]fr.Element) [poseidonWidth]fr.Element {
	round := 0
	halfFull := poseidonFullRounds / 2

	addRC := func(s *[poseidonWidth]fr.Element, r int) {
		for i := range s {
			s[i].Add(&s[i], &poseidonRoundConstants[r][i])
		}
	}

	for i := 0; i < halfFull; i++ {
		addRC(&state, round)
		for i := range state {
			state[i] = sbox(&state[i])
		}
		applyMDS(&state)
		round++
	}

	for i := 0; i < poseidonPartialRounds; i++ {
		addRC(&state, round)
		state[0] = sbox(&state[0])
		applyMDS(&state)
		round++
	}

	for i := 0; i < halfFull; i++ {
		addRC(&state, round)
		for i := range state {
			state[i] = sbox(&state[i])
		}
		applyMDS(&state)
		round++
	}

	return state
}

// PoseidonHash compresses its field elements, one 32-byte block each
// and in order, through a Poseidon2 Merkle-Damgard chain that starts
// from the zero state, and returns the final state. It is used directly
// for the 2- and 4-ary hashes the nullifier and attestation-digest
// derivations need, and as the building block for AccumulatorFold in
// the keeper package.
func PoseidonHash(inputs ...fr.Element) fr.Element {
	h := poseidon2.NewMerkleDamgardHasher()
	for _, in := range inputs {
		b := in.Bytes()
		h.Write(b[:])
	}
	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return out
}
