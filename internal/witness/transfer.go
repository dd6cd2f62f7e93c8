package witness

import (
	"github.com/shieldpool/core/internal/field"
	"github.com/shieldpool/core/internal/keys"
	"github.com/shieldpool/core/internal/merkle"
	"github.com/shieldpool/core/internal/note"
	"github.com/shieldpool/core/internal/poseidon"
)

// TransferOutput describes one output note before it has a commitment:
// the value, owner, and randomness a caller wants to place in the
// current epoch.
type TransferOutput struct {
	Value      uint64
	Owner      [32]byte
	Randomness [32]byte
}

// TransferInput is one input slot's private signals.
type TransferInput struct {
	Value         uint64
	Owner         field.Element
	Randomness    field.Element
	LeafIndex     uint32
	MerkleProof   [Depth]field.Element
	MerkleIndices [Depth]int
	IsDummy       bool
}

// TransferOutputPrivate is one output slot's private signals.
type TransferOutputPrivate struct {
	Value      uint64
	Owner      field.Element
	Randomness field.Element
	IsDummy    bool
}

// TransferPrivate holds the transfer circuit's private signals: two
// input slots, shared nullifier_key, two output slots.
type TransferPrivate struct {
	Inputs       [2]TransferInput
	NullifierKey field.Element
	Outputs      [2]TransferOutputPrivate
}

// TransferPublic is the transfer circuit's public signals, in the
// normative order: merkle_root, nullifier_1, nullifier_2,
// output_commitment_1, output_commitment_2, tx_anchor, pool_id, chain_id.
type TransferPublic struct {
	MerkleRoot         [32]byte
	Nullifier1         [32]byte
	Nullifier2         [32]byte
	OutputCommitment1  [32]byte
	OutputCommitment2  [32]byte
	TxAnchor           [32]byte
	PoolID             [32]byte
	ChainID            [32]byte
}

// Ordered returns the public signals as the 8-element slice a Prover
// call expects.
func (p TransferPublic) Ordered() [8][32]byte {
	return [8][32]byte{
		p.MerkleRoot, p.Nullifier1, p.Nullifier2,
		p.OutputCommitment1, p.OutputCommitment2,
		p.TxAnchor, p.PoolID, p.ChainID,
	}
}

// TransferWitness is the full signal table for one transfer proof. The
// commitments assigned to real output slots (OutputCommitments,
// parallel to Public.OutputCommitment1/2) are what the caller inserts
// as new pending notes once the request this witness feeds is
// submitted.
type TransferWitness struct {
	Private           TransferPrivate
	Public            TransferPublic
	OutputCommitments [2][32]byte
	OutputsDummy      [2]bool
}

// Kind identifies this witness to a Prover.
func (w *TransferWitness) Kind() CircuitKind { return TransferCircuit }

// PublicInputs returns the ordered public signals as a slice.
func (w *TransferWitness) PublicInputs() [][32]byte {
	arr := w.Public.Ordered()
	return arr[:]
}

// BuildTransfer assembles a two-in/two-out transfer witness. inputNotes
// and inputProofs are parallel slices of length 1 or 2 (a length-1 input
// is padded with a canonical dummy in the second slot); outputs is
// length 1 or 2 similarly padded. The circuit's is_dummy path means a
// dummy slot's proof/indices are never checked, so they're left zeroed.
//
// When both input slots are real and anchor different epochs, this
// tree resolves the circuit's single merkle_root public signal (a slot
// too narrow for the transfer's own premise of mixed-epoch inputs) by
// folding both roots through one Poseidon call, the same chunk-then-hash
// technique the note commitment/nullifier chain already uses for
// inputs wider than a single permutation.
func BuildTransfer(
	inputNotes []*note.Note,
	inputProofs []*merkle.MerkleProof,
	outputs []TransferOutput,
	nullifierKey [32]byte,
	poolID, chainID, txAnchor [32]byte,
	order MerkleOrder,
	leftIsOne bool,
) (*TransferWitness, error) {
	if len(inputNotes) == 0 || len(inputNotes) > 2 || len(outputs) == 0 || len(outputs) > 2 {
		return nil, ErrTransferSlotCount
	}
	if len(inputProofs) != len(inputNotes) {
		return nil, ErrTransferSlotCount
	}

	nkF, err := field.FromBytes32(nullifierKey[:])
	if err != nil {
		return nil, err
	}

	var inSum, outSum uint64
	for _, n := range inputNotes {
		inSum += n.Value
	}
	for _, o := range outputs {
		outSum += o.Value
	}
	if inSum != outSum {
		return nil, ErrValueImbalance
	}

	var priv TransferPrivate
	priv.NullifierKey = nkF

	var nullifiers [2][32]byte
	var roots []field.Element

	for i := 0; i < 2; i++ {
		if i >= len(inputNotes) {
			priv.Inputs[i] = TransferInput{IsDummy: true}
			nullifiers[i] = [32]byte{}
			continue
		}
		n := inputNotes[i]
		proof := inputProofs[i]
		if n.Epoch == nil || n.LeafIndex == nil {
			return nil, ErrNoteMissingEpochOrIndex
		}
		if proof == nil {
			return nil, ErrMissingMerkleProof
		}
		ownerF, err := field.FromBytes32(n.Owner[:])
		if err != nil {
			return nil, err
		}
		randF, err := field.FromBytes32(n.Randomness[:])
		if err != nil {
			return nil, err
		}
		siblings, indices, err := orientedPath(proof, order, leftIsOne)
		if err != nil {
			return nil, err
		}
		priv.Inputs[i] = TransferInput{
			Value:         n.Value,
			Owner:         ownerF,
			Randomness:    randF,
			LeafIndex:     *n.LeafIndex,
			MerkleProof:   siblings,
			MerkleIndices: indices,
		}
		nullifiers[i] = reduceBytes32(n.Nullifier)
		rootF, err := field.FromBytes32(proof.Root[:])
		if err != nil {
			return nil, err
		}
		roots = append(roots, rootF)
	}

	var mergedRoot [32]byte
	switch len(roots) {
	case 0:
		mergedRoot = [32]byte{}
	case 1:
		mergedRoot = roots[0].Bytes32()
	default:
		if roots[0].Equal(roots[1]) {
			mergedRoot = roots[0].Bytes32()
		} else {
			combined, err := poseidon.Hash3(roots[0], roots[1])
			if err != nil {
				return nil, err
			}
			mergedRoot = combined.Bytes32()
		}
	}

	var outCommitments [2][32]byte
	var outDummy [2]bool
	for i := 0; i < 2; i++ {
		if i >= len(outputs) {
			priv.Outputs[i] = TransferOutputPrivate{IsDummy: true}
			outCommitments[i] = [32]byte{}
			outDummy[i] = true
			continue
		}
		o := outputs[i]
		ownerF, err := field.FromBytes32(o.Owner[:])
		if err != nil {
			return nil, err
		}
		randF, err := field.FromBytes32(o.Randomness[:])
		if err != nil {
			return nil, err
		}
		priv.Outputs[i] = TransferOutputPrivate{Value: o.Value, Owner: ownerF, Randomness: randF}
		cm, err := note.ComputeCommitment(o.Value, keys.ShieldedAddress(o.Owner), o.Randomness)
		if err != nil {
			return nil, err
		}
		outCommitments[i] = cm
	}

	pub := TransferPublic{
		MerkleRoot:        mergedRoot,
		Nullifier1:        nullifiers[0],
		Nullifier2:        nullifiers[1],
		OutputCommitment1: outCommitments[0],
		OutputCommitment2: outCommitments[1],
		TxAnchor:          reduceBytes32(txAnchor),
		PoolID:            reduceBytes32(poolID),
		ChainID:           reduceBytes32(chainID),
	}

	return &TransferWitness{
		Private:           priv,
		Public:            pub,
		OutputCommitments: outCommitments,
		OutputsDummy:      outDummy,
	}, nil
}
