// Package witness assembles the private and public signal tables the
// withdraw, transfer, and renew circuits expect, including merkle-path
// orientation and dummy-note handling for transfer's two-in/two-out
// shape. It never imports gnark or any circuit definition: witness
// assembly is pure value plumbing, kept on the near side of the Prover
// seam. The public-input ordering emitted per circuit is normative and
// must not be reordered.
package witness

import (
	"github.com/shieldpool/core/internal/field"
	"github.com/shieldpool/core/internal/merkle"
)

// CircuitKind identifies which of the three circuits a witness targets.
type CircuitKind int

const (
	WithdrawCircuit CircuitKind = iota
	TransferCircuit
	RenewCircuit
)

func (k CircuitKind) String() string {
	switch k {
	case WithdrawCircuit:
		return "withdraw"
	case TransferCircuit:
		return "transfer"
	case RenewCircuit:
		return "renew"
	default:
		return "unknown"
	}
}

// MerkleOrder selects the sibling/index ordering a circuit expects.
type MerkleOrder string

const (
	BottomUp MerkleOrder = "bottom_up"
	TopDown  MerkleOrder = "top_down"
)

// Depth is the fixed merkle-proof depth every witness carries.
const Depth = merkle.Depth

// orientedPath reorders a bottom-up MerkleProof (index 0 = leaf's
// sibling) into the convention a circuit expects: bottom-up as-is, or
// reversed for top-down. leftIsOne flips every index bit, matching a
// circuit compiled with the "left sibling = 1" convention instead of
// the default "left sibling = 0".
func orientedPath(proof *merkle.MerkleProof, order MerkleOrder, leftIsOne bool) (siblings [Depth]field.Element, indices [Depth]int, err error) {
	for i := 0; i < Depth; i++ {
		b := (proof.LeafIndex >> uint(i)) & 1
		if leftIsOne {
			b ^= 1
		}
		indices[i] = int(b)
		siblings[i], err = field.FromBytes32(proof.Siblings[i][:])
		if err != nil {
			return siblings, indices, err
		}
	}
	if order == TopDown {
		for i, j := 0, Depth-1; i < j; i, j = i+1, j-1 {
			siblings[i], siblings[j] = siblings[j], siblings[i]
			indices[i], indices[j] = indices[j], indices[i]
		}
	}
	return siblings, indices, nil
}

// reduceBytes32 applies the same canonical BN254 reduction every
// 32-byte public input gets before leaving this package, so two
// structurally-equal byte strings always witness as the same field
// element regardless of whether they happened to already be
// sub-modulus.
func reduceBytes32(b [32]byte) [32]byte {
	e, err := field.FromBytes32(b[:])
	if err != nil {
		return [32]byte{}
	}
	return e.Bytes32()
}
