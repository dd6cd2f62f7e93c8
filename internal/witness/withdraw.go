package witness

import (
	"github.com/shieldpool/core/internal/field"
	"github.com/shieldpool/core/internal/merkle"
	"github.com/shieldpool/core/internal/note"
)

// WithdrawPrivate holds the withdraw circuit's private signals.
type WithdrawPrivate struct {
	Value          uint64
	RecipientField field.Element
	Owner          field.Element
	Randomness     field.Element
	NullifierKey   field.Element
	LeafIndex      uint32
	MerkleProof    [Depth]field.Element
	MerkleIndices  [Depth]int
}

// WithdrawPublic is the withdraw circuit's public signals, in the
// normative order: merkle_root, nullifier, amount, epoch, tx_anchor,
// pool_id, chain_id.
type WithdrawPublic struct {
	MerkleRoot [32]byte
	Nullifier  [32]byte
	Amount     [32]byte
	Epoch      [32]byte
	TxAnchor   [32]byte
	PoolID     [32]byte
	ChainID    [32]byte
}

// Ordered returns the public signals as the 7-element slice a Prover
// call and the request's public_inputs array expect.
func (p WithdrawPublic) Ordered() [7][32]byte {
	return [7][32]byte{p.MerkleRoot, p.Nullifier, p.Amount, p.Epoch, p.TxAnchor, p.PoolID, p.ChainID}
}

// WithdrawWitness is the full signal table for one withdraw proof.
type WithdrawWitness struct {
	Private WithdrawPrivate
	Public  WithdrawPublic
}

// Kind identifies this witness to a Prover.
func (w *WithdrawWitness) Kind() CircuitKind { return WithdrawCircuit }

// PublicInputs returns the ordered public signals as a slice, the shape
// a Prover call and the submitted request both expect.
func (w *WithdrawWitness) PublicInputs() [][32]byte {
	arr := w.Public.Ordered()
	return arr[:]
}

// BuildWithdraw assembles a withdraw witness for n, spending it to
// recipient. proof must be n's inclusion proof at its confirmed
// epoch/leaf_index. txAnchor and chainID may be the zero value when the
// caller has none to bind.
func BuildWithdraw(
	n *note.Note,
	nullifierKey [32]byte,
	recipient [32]byte,
	proof *merkle.MerkleProof,
	poolID, chainID, txAnchor [32]byte,
	order MerkleOrder,
	leftIsOne bool,
) (*WithdrawWitness, error) {
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
	nkF, err := field.FromBytes32(nullifierKey[:])
	if err != nil {
		return nil, err
	}
	recipientF, err := field.FromBytes32(recipient[:])
	if err != nil {
		return nil, err
	}
	siblings, indices, err := orientedPath(proof, order, leftIsOne)
	if err != nil {
		return nil, err
	}

	priv := WithdrawPrivate{
		Value:          n.Value,
		RecipientField: recipientF,
		Owner:          ownerF,
		Randomness:     randF,
		NullifierKey:   nkF,
		LeafIndex:      *n.LeafIndex,
		MerkleProof:    siblings,
		MerkleIndices:  indices,
	}

	pub := WithdrawPublic{
		MerkleRoot: reduceBytes32(proof.Root),
		Nullifier:  reduceBytes32(n.Nullifier),
		// Amount is the plain numeric value, matching the encoding the
		// commitment's value input uses; Epoch carries the LE-buffer
		// encoding the in-circuit nullifier recomputation consumes.
		Amount: field.FromUint64(n.Value).Bytes32(),
		Epoch:  field.FromUint64LE(*n.Epoch).Bytes32(),
		TxAnchor:   reduceBytes32(txAnchor),
		PoolID:     reduceBytes32(poolID),
		ChainID:    reduceBytes32(chainID),
	}

	return &WithdrawWitness{Private: priv, Public: pub}, nil
}
