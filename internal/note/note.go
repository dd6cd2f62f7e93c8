// Package note implements the Note type, commitment and nullifier
// derivation, canonical serialization, and authenticated note encryption.
//
// Poseidon widths are fixed to t in {2,3,4}, i.e. 1..3 field inputs per
// permutation. A commitment's 3 inputs (value, owner, randomness) fit one
// width-4 call. A nullifier binds 4 inputs (commitment, nullifier key,
// epoch, leaf index), which exceeds every allowed width, so it chains two
// calls: first commitment with the nullifier key, then that digest with
// epoch and leaf index. The chaining order is load-bearing; the circuits
// recompute the same chain.
package note

import (
	"github.com/shieldpool/core/internal/field"
	"github.com/shieldpool/core/internal/keys"
	"github.com/shieldpool/core/internal/poseidon"
)

// AssetId identifies the fungible asset a note denominates, 32 bytes.
type AssetId [32]byte

// NullSentinel is the placeholder nullifier value for notes whose
// epoch/leaf_index are not yet known.
var NullSentinel [32]byte

// Note is a single hidden UTXO. Value/token/owner/randomness/blinding are
// immutable at creation; epoch/leaf_index/nullifier/spent/expired are
// assigned once the note is confirmed on-chain.
type Note struct {
	Value      uint64
	Token      AssetId
	Owner      keys.ShieldedAddress
	Randomness [32]byte
	Blinding   [32]byte
	Memo       string

	Commitment [32]byte

	Epoch     *uint64
	LeafIndex *uint32
	Nullifier [32]byte

	Spent   bool
	Expired bool
}

// valueField reduces a uint64 value into a field element the way a
// 32-byte big-endian encoding of it would reduce.
func valueField(v uint64) field.Element {
	return field.FromUint64(v)
}

// ComputeCommitment implements cm = Poseidon(value, owner, randomness)
// (the width-4, 3-input permutation; see the package doc for why).
func ComputeCommitment(value uint64, owner keys.ShieldedAddress, randomness [32]byte) ([32]byte, error) {
	ownerF, err := field.FromBytes32(owner[:])
	if err != nil {
		return [32]byte{}, err
	}
	randF, err := field.FromBytes32(randomness[:])
	if err != nil {
		return [32]byte{}, err
	}
	out, err := poseidon.Hash4(valueField(value), ownerF, randF)
	if err != nil {
		return [32]byte{}, err
	}
	return out.Bytes32(), nil
}

// ComputeNullifier implements
// nf = Poseidon(Poseidon(commitment, nullifier_key), epoch_le, leaf_index_le)
// (see the package doc for the width-chaining resolution).
func ComputeNullifier(commitment [32]byte, nullifierKey [32]byte, epoch uint64, leafIndex uint32) ([32]byte, error) {
	cmF, err := field.FromBytes32(commitment[:])
	if err != nil {
		return [32]byte{}, err
	}
	nkF, err := field.FromBytes32(nullifierKey[:])
	if err != nil {
		return [32]byte{}, err
	}
	inner, err := poseidon.Hash3(cmF, nkF)
	if err != nil {
		return [32]byte{}, err
	}
	epochF := field.FromUint64LE(epoch)
	leafF := field.FromUint64LE(uint64(leafIndex))
	out, err := poseidon.Hash4(inner, epochF, leafF)
	if err != nil {
		return [32]byte{}, err
	}
	return out.Bytes32(), nil
}
