// Copyright 2025 Certen Protocol
//
// Rail registry: maps a bundle's rail tag to the frontend.Circuit
// constructor the verifier needs, so new rails register here instead
// of touching the verifier's dispatch logic. Shape follows the
// teacher's pluggable attestation-strategy interface.

package circuits

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
)

// RailTag names one of the three proof rails a ProofBundle can declare.
type RailTag string

const (
	RailAttestation RailTag = "attestation"
	RailShielded    RailTag = "shielded"
	RailRollup      RailTag = "rollup"
)

// RailCircuit constructs a fresh, zero-valued circuit instance suitable
// for frontend.Compile or as the assignment target for a witness.
type RailCircuit func() frontend.Circuit

var railRegistry = map[RailTag]RailCircuit{
	RailAttestation: func() frontend.Circuit { return &AttestationCircuit{} },
	RailShielded:    func() frontend.Circuit { return &ShieldedCircuit{} },
	RailRollup:      func() frontend.Circuit { return &RollupCircuit{} },
}

// Lookup returns the circuit constructor registered for tag.
func Lookup(tag RailTag) (RailCircuit, error) {
	ctor, ok := railRegistry[tag]
	if !ok {
		return nil, fmt.Errorf("circuits: unsupported rail %q", tag)
	}
	return ctor, nil
}

// Register adds or replaces the constructor for tag, allowing a new
// rail to be wired in without modifying this package.
func Register(tag RailTag, ctor RailCircuit) {
	railRegistry[tag] = ctor
}

// Tags returns every currently registered rail tag.
func Tags() []RailTag {
	tags := make([]RailTag, 0, len(railRegistry))
	for t := range railRegistry {
		tags = append(tags, t)
	}
	return tags
}
