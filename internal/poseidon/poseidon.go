// Package poseidon wraps the circomlib-parameter Poseidon permutation over
// BN254 used by every circuit this pool's notes are proved against: note
// commitments, nullifiers, and the epoch Merkle forest all hash through
// here. Width t ∈ {2,3,4} takes 1, 2, or 3 field elements respectively and
// always returns a single field element.
//
// The round-constant (ARK) and MDS-matrix tables come from
// github.com/iden3/go-iden3-crypto/poseidon, the parameterization
// circom-compiled Groth16 circuits are built against. Swapping in any
// other constant set breaks consensus with the on-chain verifier.
package poseidon

import (
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"

	"github.com/shieldpool/core/internal/field"
)

// ErrUnsupportedWidth is returned for any width outside {2,3,4}.
var ErrUnsupportedWidth = fmt.Errorf("poseidon: unsupported width")

// Hash runs the Poseidon permutation over 1..3 inputs, where width = len(inputs)+1.
// A width outside {2,3,4} is a programmer error and returns ErrUnsupportedWidth.
func Hash(inputs ...field.Element) (field.Element, error) {
	n := len(inputs)
	if n < 1 || n > 3 {
		return field.Element{}, ErrUnsupportedWidth
	}
	ints := make([]*big.Int, n)
	for i, in := range inputs {
		ints[i] = in.BigInt()
	}
	out, err := poseidon.Hash(ints)
	if err != nil {
		return field.Element{}, fmt.Errorf("poseidon: %w", err)
	}
	return field.FromBigInt(out), nil
}

// Hash2 is Poseidon with width t=2 (one input).
func Hash2(a field.Element) (field.Element, error) { return Hash(a) }

// Hash3 is Poseidon with width t=3 (two inputs) — the tree combiner and
// the inner (commitment, nullifier key) step of the nullifier.
func Hash3(a, b field.Element) (field.Element, error) { return Hash(a, b) }

// Hash4 is Poseidon with width t=4 (three inputs) — the commitment hash
// and the outer step of the nullifier.
func Hash4(a, b, c field.Element) (field.Element, error) { return Hash(a, b, c) }

// HashBytes mirrors poseidon_hash_bytes: each input is up to 32 bytes,
// big-endian, reduced mod p before entering the permutation.
func HashBytes(inputs ...[]byte) (field.Element, error) {
	elems := make([]field.Element, len(inputs))
	for i, b := range inputs {
		e, err := field.FromBytes32(b)
		if err != nil {
			return field.Element{}, err
		}
		elems[i] = e
	}
	return Hash(elems...)
}

// HashNodes is the Merkle tree combiner: Poseidon3(left, right).
func HashNodes(left, right [32]byte) [32]byte {
	l, _ := field.FromBytes32(left[:])
	r, _ := field.FromBytes32(right[:])
	out, err := Hash3(l, r)
	if err != nil {
		// Hash3 always passes exactly 2 inputs; ErrUnsupportedWidth can't
		// occur here. A failure means the library itself misbehaved.
		panic(fmt.Sprintf("poseidon: hash_nodes invariant violated: %v", err))
	}
	return out.Bytes32()
}
