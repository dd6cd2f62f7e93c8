package witness

import (
	"github.com/shieldpool/core/internal/field"
	"github.com/shieldpool/core/internal/merkle"
	"github.com/shieldpool/core/internal/note"
)

// RenewPrivate holds the renew circuit's private signals.
type RenewPrivate struct {
	Value         uint64
	Owner         field.Element
	OldRandomness field.Element
	NewRandomness field.Element
	NullifierKey  field.Element
	LeafIndex     uint32
	MerkleProof   [Depth]field.Element
	MerkleIndices [Depth]int
}

// RenewPublic is the renew circuit's public signals, in the normative
// order: old_root, nullifier, new_commitment, old_epoch, new_epoch,
// tx_anchor, pool_id, chain_id.
//
// This ordering is taken as specified; re-verify it against a shipped
// verification key before wiring a real circuit, since it was the one
// genuinely underspecified public-input order in the source document.
type RenewPublic struct {
	OldRoot        [32]byte
	Nullifier      [32]byte
	NewCommitment  [32]byte
	OldEpoch       [32]byte
	NewEpoch       [32]byte
	TxAnchor       [32]byte
	PoolID         [32]byte
	ChainID        [32]byte
}

// Ordered returns the public signals as the 8-element slice a Prover
// call expects.
func (p RenewPublic) Ordered() [8][32]byte {
	return [8][32]byte{p.OldRoot, p.Nullifier, p.NewCommitment, p.OldEpoch, p.NewEpoch, p.TxAnchor, p.PoolID, p.ChainID}
}

// RenewWitness is the full signal table for one renew proof.
type RenewWitness struct {
	Private RenewPrivate
	Public  RenewPublic
}

// Kind identifies this witness to a Prover.
func (w *RenewWitness) Kind() CircuitKind { return RenewCircuit }

// PublicInputs returns the ordered public signals as a slice.
func (w *RenewWitness) PublicInputs() [][32]byte {
	arr := w.Public.Ordered()
	return arr[:]
}

// BuildRenew assembles a renew witness migrating oldNote into newEpoch
// under newRandomness, without changing its value. oldProof is the
// note's inclusion proof in its old epoch's tree.
func BuildRenew(
	oldNote *note.Note,
	newCommitment [32]byte,
	newRandomness [32]byte,
	newEpoch uint64,
	nullifierKey [32]byte,
	oldProof *merkle.MerkleProof,
	poolID, chainID, txAnchor [32]byte,
	order MerkleOrder,
	leftIsOne bool,
) (*RenewWitness, error) {
	if oldNote.Epoch == nil || oldNote.LeafIndex == nil {
		return nil, ErrNoteMissingEpochOrIndex
	}
	if oldProof == nil {
		return nil, ErrMissingMerkleProof
	}

	ownerF, err := field.FromBytes32(oldNote.Owner[:])
	if err != nil {
		return nil, err
	}
	oldRandF, err := field.FromBytes32(oldNote.Randomness[:])
	if err != nil {
		return nil, err
	}
	newRandF, err := field.FromBytes32(newRandomness[:])
	if err != nil {
		return nil, err
	}
	nkF, err := field.FromBytes32(nullifierKey[:])
	if err != nil {
		return nil, err
	}
	siblings, indices, err := orientedPath(oldProof, order, leftIsOne)
	if err != nil {
		return nil, err
	}

	priv := RenewPrivate{
		Value:         oldNote.Value,
		Owner:         ownerF,
		OldRandomness: oldRandF,
		NewRandomness: newRandF,
		NullifierKey:  nkF,
		LeafIndex:     *oldNote.LeafIndex,
		MerkleProof:   siblings,
		MerkleIndices: indices,
	}

	pub := RenewPublic{
		OldRoot:       reduceBytes32(oldProof.Root),
		Nullifier:     reduceBytes32(oldNote.Nullifier),
		NewCommitment: reduceBytes32(newCommitment),
		OldEpoch:      field.FromUint64LE(*oldNote.Epoch).Bytes32(),
		NewEpoch:      field.FromUint64LE(newEpoch).Bytes32(),
		TxAnchor:      reduceBytes32(txAnchor),
		PoolID:        reduceBytes32(poolID),
		ChainID:       reduceBytes32(chainID),
	}

	return &RenewWitness{Private: priv, Public: pub}, nil
}
