package commitment

import (
	"bytes"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

func felt(v uint64) fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return e
}

func TestPoseidonHashDeterministic(t *testing.T) {
	a := PoseidonHash(felt(1), felt(2), felt(3))
	b := PoseidonHash(felt(1), felt(2), felt(3))
	if !a.Equal(&b) {
		t.Fatal("poseidon hash is not deterministic for identical inputs")
	}

	c := PoseidonHash(felt(1), felt(2), felt(4))
	if a.Equal(&c) {
		t.Fatal("poseidon hash collided for distinct inputs")
	}
}

func TestDeriveNullifierDistinctEpochs(t *testing.T) {
	account := felt(100)
	scope := felt(200)
	policy := felt(300)

	n1 := DeriveNullifier(account, scope, policy, felt(1))
	n2 := DeriveNullifier(account, scope, policy, felt(2))
	if n1.Equal(&n2) {
		t.Fatal("nullifier must differ across epochs")
	}
}

func TestEnforceWildcardEquality(t *testing.T) {
	zero := felt(0)
	value := felt(840)
	if !EnforceWildcardEquality(value, zero) {
		t.Fatal("zero required must accept any value")
	}
	if !EnforceWildcardEquality(value, value) {
		t.Fatal("matching required value must be accepted")
	}
	if EnforceWildcardEquality(value, felt(978)) {
		t.Fatal("mismatched non-zero required value must be rejected")
	}
}

func TestMerkleInclusionProof(t *testing.T) {
	leaves := [][]byte{
		HashLeaf([]byte("a")),
		HashLeaf([]byte("b")),
		HashLeaf([]byte("c")),
		HashLeaf([]byte("d")),
	}
	tree, err := BuildMerkleTree(leaves)
	if err != nil {
		t.Fatalf("build tree: %v", err)
	}

	for i, leaf := range leaves {
		proof, err := tree.GenerateProof(i)
		if err != nil {
			t.Fatalf("generate proof %d: %v", i, err)
		}
		ok, err := VerifyInclusionProof(leaf, proof, tree.Root())
		if err != nil {
			t.Fatalf("verify proof %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("proof %d did not verify", i)
		}
	}

	tamperedProof, _ := tree.GenerateProof(0)
	ok, err := VerifyInclusionProof(HashLeaf([]byte("z")), tamperedProof, tree.Root())
	if err != nil {
		t.Fatalf("verify tampered proof: %v", err)
	}
	if ok {
		t.Fatal("inclusion proof verified for a leaf not in the tree")
	}
}

func TestMerkleRootOddLeafCount(t *testing.T) {
	leaves := [][]byte{HashLeaf([]byte("a")), HashLeaf([]byte("b")), HashLeaf([]byte("c"))}
	root, err := MerkleRoot(leaves)
	if err != nil {
		t.Fatalf("merkle root: %v", err)
	}
	if len(root) != 32 {
		t.Fatalf("expected 32-byte root, got %d", len(root))
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Lookup(1337)
	if err == nil {
		t.Fatal("expected error for unregistered id")
	}

	// a freshly generated key, for round-trip purposes only
	key := testSigningKey(t)
	reg.Register(1337, &key.PublicKey)

	entry, err := reg.Lookup(1337)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if entry.ID != 1337 {
		t.Fatalf("unexpected entry id %d", entry.ID)
	}

	ids := reg.AllowedIDs()
	if len(ids) != 1 || ids[0] != 1337 {
		t.Fatalf("unexpected allowed ids %v", ids)
	}
}

func TestVerifyCustodianSignature(t *testing.T) {
	key := testSigningKey(t)
	digest := HashLeaf([]byte("attestation digest"))

	sig := testSign(t, key, digest)
	if err := VerifyCustodianSignature(&key.PublicKey, digest, sig); err != nil {
		t.Fatalf("expected signature to verify: %v", err)
	}

	tampered := append([]byte(nil), digest...)
	tampered[0] ^= 0xFF
	if err := VerifyCustodianSignature(&key.PublicKey, tampered, sig); err == nil {
		t.Fatal("expected signature verification to fail for tampered digest")
	}
}

func TestHashLeafHexMatchesHashLeaf(t *testing.T) {
	data := []byte("leaf data")
	if HashLeafHex(data) == "" {
		t.Fatal("expected non-empty hex string")
	}
	if !bytes.Equal(HashLeaf(data), HashLeaf(data)) {
		t.Fatal("hash leaf must be deterministic")
	}
}
