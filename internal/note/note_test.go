package note

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func randBytes32(t *testing.T) [32]byte {
	t.Helper()
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		t.Fatal(err)
	}
	return b
}

// Commitment determinism: same inputs produce the same commitment;
// changing any single input changes the output.
func TestCommitmentDeterminism(t *testing.T) {
	owner := randBytes32(t)
	randomness := randBytes32(t)
	value := uint64(123456789)

	cm1, err := ComputeCommitment(value, owner, randomness)
	if err != nil {
		t.Fatal(err)
	}
	cm2, err := ComputeCommitment(value, owner, randomness)
	if err != nil {
		t.Fatal(err)
	}
	if cm1 != cm2 {
		t.Fatal("commitment is not deterministic for identical inputs")
	}

	if cmOther, _ := ComputeCommitment(value+1, owner, randomness); cmOther == cm1 {
		t.Fatal("changing value must change the commitment")
	}
	otherOwner := randBytes32(t)
	if cmOther, _ := ComputeCommitment(value, otherOwner, randomness); cmOther == cm1 {
		t.Fatal("changing owner must change the commitment")
	}
	otherRand := randBytes32(t)
	if cmOther, _ := ComputeCommitment(value, owner, otherRand); cmOther == cm1 {
		t.Fatal("changing randomness must change the commitment")
	}
}

// Epoch-scoped nullifier: same (commitment, nullifier_key) but
// different epoch/leaf_index must diverge.
func TestNullifierEpochScoped(t *testing.T) {
	cm := randBytes32(t)
	nk := randBytes32(t)

	n1, err := ComputeNullifier(cm, nk, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	n2, err := ComputeNullifier(cm, nk, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	n3, err := ComputeNullifier(cm, nk, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if n1 == n2 {
		t.Fatal("distinct leaf_index must produce distinct nullifiers")
	}
	if n1 == n3 {
		t.Fatal("distinct epoch must produce distinct nullifiers")
	}
	if n2 == n3 {
		t.Fatal("distinct (epoch, leaf_index) pairs must not collide")
	}
}

func TestNullifierDeterministic(t *testing.T) {
	cm := randBytes32(t)
	nk := randBytes32(t)
	a, err := ComputeNullifier(cm, nk, 7, 42)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ComputeNullifier(cm, nk, 7, 42)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("nullifier must be byte-identical across repeated calls")
	}
}

func TestPlaintextRoundTrip(t *testing.T) {
	owner := randBytes32(t)
	token := AssetId(randBytes32(t))
	n, err := New(1000, token, owner)
	if err != nil {
		t.Fatal(err)
	}
	n.Memo = "hello shielded pool"

	buf := EncodePlaintext(n)
	got, err := DecodePlaintext(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Value != n.Value || got.Token != n.Token || got.Owner != n.Owner ||
		got.Blinding != n.Blinding || got.Memo != n.Memo {
		t.Fatal("plaintext did not round-trip")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	owner := randBytes32(t)
	var token AssetId
	n, err := New(42, token, owner)
	if err != nil {
		t.Fatal(err)
	}
	viewingKey := randBytes32(t)

	ct, err := Encrypt(n, viewingKey)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decrypt(ct, viewingKey)
	if err != nil {
		t.Fatal(err)
	}
	if got.Value != n.Value || got.Owner != n.Owner {
		t.Fatal("decrypted note does not match original")
	}

	wrongKey := randBytes32(t)
	if _, err := Decrypt(ct, wrongKey); err != ErrNotMine {
		t.Fatalf("expected ErrNotMine for wrong key, got %v", err)
	}
}

func TestEncryptNonceIsRandomPerCall(t *testing.T) {
	owner := randBytes32(t)
	var token AssetId
	n, _ := New(1, token, owner)
	viewingKey := randBytes32(t)

	ct1, _ := Encrypt(n, viewingKey)
	ct2, _ := Encrypt(n, viewingKey)
	if bytes.Equal(ct1, ct2) {
		t.Fatal("two encryptions of the same note must not be byte-identical")
	}
}
