// Copyright 2025 Certen Protocol
//
// Host-side ECDSA-secp256k1 verification for custodian attestation
// signatures, outside the gnark circuit. VerifyCustodianSignature checks
// a signature against the public key it is given; the proof-bundle
// verifier does not call it, so bundle verification checks neither a
// custodian signature nor a registry entry.

package commitment

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var ErrInvalidSignature = errors.New("commitment: invalid ecdsa signature")

// VerifyCustodianSignature verifies that sig (64-byte r||s, no recovery
// byte) is a valid ECDSA-secp256k1 signature over digest by pub.
func VerifyCustodianSignature(pub *ecdsa.PublicKey, digest []byte, sig []byte) error {
	if len(sig) != 64 {
		return fmt.Errorf("%w: expected 64 bytes, got %d", ErrInvalidSignature, len(sig))
	}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])
	if !ecdsa.Verify(pub, digest, r, s) {
		return ErrInvalidSignature
	}
	return nil
}

// PubkeyCoordinates returns the affine (x, y) coordinates of pub as
// big-endian byte slices, the inputs to DerivePubkeyHash.
func PubkeyCoordinates(pub *ecdsa.PublicKey) (x, y []byte) {
	return pub.X.Bytes(), pub.Y.Bytes()
}

// ParsePubkeyHex parses an uncompressed or compressed secp256k1 public
// key from a hex string, following the key-handling convention of the
// Ethereum client wrapper this module is adapted from.
func ParsePubkeyHex(hexKey string) (*ecdsa.PublicKey, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("commitment: decode pubkey hex: %w", err)
	}
	return gethcrypto.UnmarshalPubkey(raw)
}
