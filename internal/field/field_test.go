package field

import (
	"bytes"
	"math/big"
	"testing"
)

func TestFromBytes32RejectsOversizedInput(t *testing.T) {
	if _, err := FromBytes32(make([]byte, 33)); err != ErrNotInField {
		t.Fatalf("expected ErrNotInField for 33 bytes, got %v", err)
	}
}

func TestFromBytes32ReducesModulus(t *testing.T) {
	over := new(big.Int).Add(Modulus, big.NewInt(5))
	buf := over.Bytes()
	e, err := FromBytes32(buf)
	if err != nil {
		t.Fatal(err)
	}
	if e.BigInt().Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("expected p+5 to reduce to 5, got %s", e)
	}
}

func TestBytes32RoundTrip(t *testing.T) {
	e := FromUint64(0xDEADBEEF)
	b := e.Bytes32()
	back, err := FromBytes32(b[:])
	if err != nil {
		t.Fatal(err)
	}
	if !e.Equal(back) {
		t.Fatal("Bytes32/FromBytes32 did not round-trip")
	}
	if b[31] != 0xEF || b[28] != 0xDE {
		t.Fatalf("expected big-endian serialization, got %x", b)
	}
}

func TestFromUint64LEPlacesLowBytesFirst(t *testing.T) {
	e := FromUint64LE(1)
	b := e.Bytes32()
	// 0x01 in buffer position 0, big-endian interpreted: 1 << 248, which
	// is below p and therefore survives reduction unchanged.
	want := new(big.Int).Lsh(big.NewInt(1), 248)
	if e.BigInt().Cmp(want) != 0 {
		t.Fatalf("FromUint64LE(1) = %s, want 2^248", e)
	}
	if b[0] != 0x01 || !bytes.Equal(b[1:], make([]byte, 31)) {
		t.Fatalf("unexpected serialization %x", b)
	}
}

func TestZeroAndIsZero(t *testing.T) {
	if !Zero().IsZero() {
		t.Fatal("Zero() must report IsZero")
	}
	if FromUint64(1).IsZero() {
		t.Fatal("one must not report IsZero")
	}
}

func TestStringIsDecimal(t *testing.T) {
	if got := FromUint64(123456789).String(); got != "123456789" {
		t.Fatalf("String() = %q, want decimal 123456789", got)
	}
}
