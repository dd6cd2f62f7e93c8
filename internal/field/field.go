// Package field implements BN254 scalar field helpers shared by the
// Poseidon permutation, note commitments, and witness encoding.
package field

import (
	"errors"
	"math/big"
)

// ErrNotInField is returned when a byte value does not reduce to the
// canonical BN254 scalar representation expected by the caller.
var ErrNotInField = errors.New("field: value not canonically reduced")

// Modulus is the BN254 scalar field prime p.
var Modulus, _ = new(big.Int).SetString(
	"21888242871839275222246405745257275088548364400416034343698204186575808495617", 10,
)

// Element is a field element, always kept reduced modulo Modulus.
type Element struct {
	v big.Int
}

// Zero returns the additive identity.
func Zero() Element {
	return Element{}
}

// FromBigInt reduces x modulo p and wraps it.
func FromBigInt(x *big.Int) Element {
	var e Element
	e.v.Mod(x, Modulus)
	return e
}

// FromBytes32 interprets b as a big-endian integer, reduced mod p.
// b may be shorter than 32 bytes; it is treated as left-zero-padded.
func FromBytes32(b []byte) (Element, error) {
	if len(b) > 32 {
		return Element{}, ErrNotInField
	}
	x := new(big.Int).SetBytes(b)
	return FromBigInt(x), nil
}

// FromUint64 wraps n as the field element with the same numeric value.
func FromUint64(n uint64) Element {
	var e Element
	e.v.SetUint64(n)
	return e
}

// FromUint64LE encodes n little-endian into the low (index-0) bytes of a
// 32-byte buffer and reduces that buffer mod p, matching the nullifier
// epoch/leaf_index encoding fixed by the circuit: the buffer's first
// 8 bytes hold n in little-endian order, the remaining 24 bytes are zero,
// and the whole 32 bytes are read as one big-endian field element.
func FromUint64LE(n uint64) Element {
	var buf [32]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(n >> (8 * i))
	}
	e, _ := FromBytes32(buf[:])
	return e
}

// Bytes32 serializes the element as 32 bytes, big-endian.
func (e Element) Bytes32() [32]byte {
	var out [32]byte
	b := e.v.Bytes()
	copy(out[32-len(b):], b)
	return out
}

// BigInt returns a copy of the underlying integer.
func (e Element) BigInt() *big.Int {
	return new(big.Int).Set(&e.v)
}

// Equal reports whether two elements are the same residue.
func (e Element) Equal(o Element) bool {
	return e.v.Cmp(&o.v) == 0
}

// IsZero reports whether e is the additive identity.
func (e Element) IsZero() bool {
	return e.v.Sign() == 0
}

// String returns the base-10 decimal representation, the form circuit
// witnesses expect for frontend.Variable assignment.
func (e Element) String() string {
	return e.v.String()
}
