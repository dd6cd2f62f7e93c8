package request

import (
	"context"
	"fmt"

	"github.com/shieldpool/core/internal/merkle"
	"github.com/shieldpool/core/internal/note"
	"github.com/shieldpool/core/internal/witness"
)

// NullifierChecker probes whether an input nullifier's on-chain marker
// already exists, the double-spend check RequestBuilder runs before
// ever calling the prover. A nil checker skips this check entirely
// (most unit tests have no chain to ask).
type NullifierChecker interface {
	MarkerExists(ctx context.Context, marker [32]byte) (bool, error)
}

// Request is the fully assembled payload a proved operation submits to
// the chain program.
type Request struct {
	CircuitKind        witness.CircuitKind
	ProofBytes         [ProofSize]byte
	PublicInputs       [][32]byte
	EpochAddresses     map[uint64][32]byte
	NullifierMarkers   [][32]byte
	LeafChunkAddresses [][32]byte
	Trailing           []byte

	// OutputCommitments and OutputsDummy are only populated by
	// BuildTransfer, letting the caller turn real output slots into new
	// pending notes without re-deriving commitments itself.
	OutputCommitments [2][32]byte
	OutputsDummy      [2]bool
}

// RequestBuilder assembles Requests for one pool, checking for expired
// input epochs and double-spent nullifiers before ever invoking the
// prover.
type RequestBuilder struct {
	scheme       AddressScheme
	chainID      [32]byte
	checker      NullifierChecker
	currentEpoch uint64
	expiryEpochs uint64
}

// NewRequestBuilder creates a builder scoped to poolID/chainID. checker
// may be nil to skip the double-spend check.
func NewRequestBuilder(poolID, chainID [32]byte, checker NullifierChecker, currentEpoch, expiryEpochs uint64) *RequestBuilder {
	return &RequestBuilder{
		scheme:       NewAddressScheme(poolID),
		chainID:      chainID,
		checker:      checker,
		currentEpoch: currentEpoch,
		expiryEpochs: expiryEpochs,
	}
}

func (b *RequestBuilder) isExpired(epoch uint64) bool {
	if b.currentEpoch < epoch {
		return false
	}
	return b.currentEpoch-epoch > b.expiryEpochs
}

func (b *RequestBuilder) checkInput(ctx context.Context, epoch uint64, nullifier [32]byte) error {
	if b.isExpired(epoch) {
		return fmt.Errorf("%w: epoch %d", ErrEpochExpired, epoch)
	}
	if b.checker == nil {
		return nil
	}
	marker := b.scheme.NullifierMarkerAddress(epoch, nullifier)
	exists, err := b.checker.MarkerExists(ctx, marker)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: nullifier %x", ErrDoubleSpend, nullifier)
	}
	return nil
}

// BuildWithdraw checks n, builds its witness, proves it, and assembles
// the submittable request.
func (b *RequestBuilder) BuildWithdraw(
	ctx context.Context,
	prover Prover,
	n *note.Note,
	nullifierKey [32]byte,
	recipient [32]byte,
	proof *merkle.MerkleProof,
	txAnchor [32]byte,
	order witness.MerkleOrder,
	leftIsOne bool,
) (*Request, error) {
	if n.Epoch == nil || n.LeafIndex == nil {
		return nil, ErrMissingEpochOrIndex
	}
	if err := b.checkInput(ctx, *n.Epoch, n.Nullifier); err != nil {
		return nil, err
	}

	w, err := witness.BuildWithdraw(n, nullifierKey, recipient, proof, b.scheme.PoolID, b.chainID, txAnchor, order, leftIsOne)
	if err != nil {
		return nil, err
	}
	proofBytes, publicInputs, err := prover.Prove(ctx, w)
	if err != nil {
		return nil, err
	}

	trailing := append(u64LE(n.Value), u64LE(*n.Epoch)...)
	trailing = append(trailing, u32LE(*n.LeafIndex)...)

	return &Request{
		CircuitKind:      witness.WithdrawCircuit,
		ProofBytes:       proofBytes,
		PublicInputs:     publicInputs,
		EpochAddresses:   map[uint64][32]byte{*n.Epoch: b.scheme.EpochAddress(*n.Epoch)},
		NullifierMarkers: [][32]byte{b.scheme.NullifierMarkerAddress(*n.Epoch, n.Nullifier)},
		Trailing:         trailing,
	}, nil
}

// BuildTransfer checks inputs, builds the transfer witness, proves it,
// and assembles the request. nextLeafIndices gives the current
// epoch's next free leaf index for each output slot in outputs (used
// to derive leaf-chunk addresses and written into Trailing, not echoed
// into the witness).
func (b *RequestBuilder) BuildTransfer(
	ctx context.Context,
	prover Prover,
	inputs []*note.Note,
	inputProofs []*merkle.MerkleProof,
	outputs []witness.TransferOutput,
	nextLeafIndices []uint32,
	outputEpoch uint64,
	nullifierKey [32]byte,
	txAnchor [32]byte,
	order witness.MerkleOrder,
	leftIsOne bool,
) (*Request, error) {
	for _, n := range inputs {
		if n.Epoch == nil || n.LeafIndex == nil {
			return nil, ErrMissingEpochOrIndex
		}
		if err := b.checkInput(ctx, *n.Epoch, n.Nullifier); err != nil {
			return nil, err
		}
	}

	w, err := witness.BuildTransfer(inputs, inputProofs, outputs, nullifierKey, b.scheme.PoolID, b.chainID, txAnchor, order, leftIsOne)
	if err != nil {
		return nil, err
	}
	proofBytes, publicInputs, err := prover.Prove(ctx, w)
	if err != nil {
		return nil, err
	}

	epochAddrs := map[uint64][32]byte{outputEpoch: b.scheme.EpochAddress(outputEpoch)}
	markers := make([][32]byte, 0, len(inputs))
	for _, n := range inputs {
		epochAddrs[*n.Epoch] = b.scheme.EpochAddress(*n.Epoch)
		markers = append(markers, b.scheme.NullifierMarkerAddress(*n.Epoch, n.Nullifier))
	}
	leafChunks := make([][32]byte, 0, len(outputs))
	for i := range outputs {
		if w.OutputsDummy[i] {
			continue
		}
		var next uint32
		if i < len(nextLeafIndices) {
			next = nextLeafIndices[i]
		}
		leafChunks = append(leafChunks, b.scheme.LeafChunkAddress(outputEpoch, next))
	}

	trailing := u64LE(outputEpoch)
	for i := range outputs {
		var next uint32
		if i < len(nextLeafIndices) {
			next = nextLeafIndices[i]
		}
		trailing = append(trailing, u32LE(next)...)
	}

	return &Request{
		CircuitKind:        witness.TransferCircuit,
		ProofBytes:         proofBytes,
		PublicInputs:       publicInputs,
		EpochAddresses:     epochAddrs,
		NullifierMarkers:   markers,
		LeafChunkAddresses: leafChunks,
		Trailing:           trailing,
		OutputCommitments:  w.OutputCommitments,
		OutputsDummy:       w.OutputsDummy,
	}, nil
}

// BuildRenew checks oldNote, builds the renew witness, proves it, and
// assembles the request. nextLeafIndex is the new epoch's next free
// leaf index, used to derive the leaf-chunk address and written into
// Trailing.
func (b *RequestBuilder) BuildRenew(
	ctx context.Context,
	prover Prover,
	oldNote *note.Note,
	newCommitment [32]byte,
	newRandomness [32]byte,
	newEpoch uint64,
	nextLeafIndex uint32,
	nullifierKey [32]byte,
	oldProof *merkle.MerkleProof,
	txAnchor [32]byte,
	order witness.MerkleOrder,
	leftIsOne bool,
) (*Request, error) {
	if oldNote.Epoch == nil || oldNote.LeafIndex == nil {
		return nil, ErrMissingEpochOrIndex
	}
	if err := b.checkInput(ctx, *oldNote.Epoch, oldNote.Nullifier); err != nil {
		return nil, err
	}

	w, err := witness.BuildRenew(oldNote, newCommitment, newRandomness, newEpoch, nullifierKey, oldProof, b.scheme.PoolID, b.chainID, txAnchor, order, leftIsOne)
	if err != nil {
		return nil, err
	}
	proofBytes, publicInputs, err := prover.Prove(ctx, w)
	if err != nil {
		return nil, err
	}

	trailing := append(u64LE(*oldNote.Epoch), u64LE(newEpoch)...)
	trailing = append(trailing, u32LE(nextLeafIndex)...)

	return &Request{
		CircuitKind:  witness.RenewCircuit,
		ProofBytes:   proofBytes,
		PublicInputs: publicInputs,
		EpochAddresses: map[uint64][32]byte{
			*oldNote.Epoch: b.scheme.EpochAddress(*oldNote.Epoch),
			newEpoch:       b.scheme.EpochAddress(newEpoch),
		},
		NullifierMarkers:   [][32]byte{b.scheme.NullifierMarkerAddress(*oldNote.Epoch, oldNote.Nullifier)},
		LeafChunkAddresses: [][32]byte{b.scheme.LeafChunkAddress(newEpoch, nextLeafIndex)},
		Trailing:           trailing,
	}, nil
}
