// Package scanner decodes the tagged event-record wire format and
// applies each event's effect to a notemanager.Manager: promoting
// pending notes to confirmed, marking notes spent by nullifier, and
// firing epoch-lifecycle callbacks. Records are best-effort: a
// malformed payload is skipped and logged, never fatal.
package scanner

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

const tagLen = 8

// EventKind identifies a decoded record's effect.
type EventKind int

const (
	DepositEvent EventKind = iota
	WithdrawEvent
	TransferEvent
	RenewEvent
	EpochRolloverEvent
	EpochFinalizedEvent
	DepositEventV1
	WithdrawEventV1
	ShieldedTransferEventV1
)

func (k EventKind) String() string {
	switch k {
	case DepositEvent:
		return "DepositEvent"
	case WithdrawEvent:
		return "WithdrawEvent"
	case TransferEvent:
		return "TransferEvent"
	case RenewEvent:
		return "RenewEvent"
	case EpochRolloverEvent:
		return "EpochRolloverEvent"
	case EpochFinalizedEvent:
		return "EpochFinalizedEvent"
	case DepositEventV1:
		return "DepositEventV1"
	case WithdrawEventV1:
		return "WithdrawEventV1"
	case ShieldedTransferEventV1:
		return "ShieldedTransferEventV1"
	default:
		return "Unknown"
	}
}

var eventNames = map[EventKind]string{
	DepositEvent:            "DepositEvent",
	WithdrawEvent:           "WithdrawEvent",
	TransferEvent:           "TransferEvent",
	RenewEvent:              "RenewEvent",
	EpochRolloverEvent:      "EpochRolloverEvent",
	EpochFinalizedEvent:     "EpochFinalizedEvent",
	DepositEventV1:          "DepositEventV1",
	WithdrawEventV1:         "WithdrawEventV1",
	ShieldedTransferEventV1: "ShieldedTransferEventV1",
}

var tagToKind map[[tagLen]byte]EventKind

func eventTag(name string) [tagLen]byte {
	sum := sha256.Sum256([]byte("event:" + name))
	var tag [tagLen]byte
	copy(tag[:], sum[:tagLen])
	return tag
}

func init() {
	tagToKind = make(map[[tagLen]byte]EventKind, len(eventNames))
	for kind, name := range eventNames {
		tagToKind[eventTag(name)] = kind
	}
}

// byteReader reads fixed and length-prefixed fields off a record payload
// in the order the wire format defines, returning ErrMalformedRecord on
// any short read.
type byteReader struct {
	buf []byte
	pos int
}

func newByteReader(b []byte) *byteReader { return &byteReader{buf: b} }

func (r *byteReader) remaining() int { return len(r.buf) - r.pos }

func (r *byteReader) take(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, ErrMalformedRecord
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *byteReader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *byteReader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *byteReader) bytes32() ([32]byte, error) {
	var out [32]byte
	b, err := r.take(32)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// lenPrefixed reads a u32-LE length followed by that many bytes.
func (r *byteReader) lenPrefixed() ([]byte, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	return r.take(int(n))
}

func (r *byteReader) done() bool { return r.remaining() == 0 }

// record is a decoded tagged record ready for Scanner.apply.
type record struct {
	kind      EventKind
	deposit   *depositPayload
	withdraw  *withdrawPayload
	transfer  *transferPayload
	renew     *renewPayload
	rollover  *rolloverPayload
	finalized *finalizedPayload
}

type depositPayload struct {
	Epoch      uint64
	PoolID     [32]byte
	Commitment [32]byte
	LeafIndex  uint64
	NewRoot    [32]byte
	EncNote    []byte
}

type withdrawPayload struct {
	Epoch     uint64
	PoolID    [32]byte
	Nullifier [32]byte
	Amount    uint64
	Recipient [32]byte
}

type transferPayload struct {
	OutputEpoch uint64
	PoolID      [32]byte
	Nullifiers  [][32]byte
	InputEpochs []uint64
	Commitments [][32]byte
	LeafIndices []uint64
}

type renewPayload struct {
	OldEpoch      uint64
	NewEpoch      uint64
	PoolID        [32]byte
	OldNullifier  [32]byte
	NewCommitment [32]byte
	NewLeafIndex  uint64
}

type rolloverPayload struct {
	OldEpoch uint64
	NewEpoch uint64
	Slot     uint64
}

type finalizedPayload struct {
	Epoch     uint64
	FinalRoot [32]byte
	Slot      uint64
}

// decodeRecord splits tag from payload and parses the payload according
// to the tag's event kind.
func decodeRecord(raw []byte) (*record, error) {
	if len(raw) < tagLen {
		return nil, ErrMalformedRecord
	}
	var tag [tagLen]byte
	copy(tag[:], raw[:tagLen])
	kind, ok := tagToKind[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %x", ErrUnknownTag, tag)
	}
	payload := raw[tagLen:]

	switch kind {
	case DepositEventV1, WithdrawEventV1, ShieldedTransferEventV1:
		// Legacy records carry a 1-byte version plus a 32-byte legacy
		// chain id ahead of the same fields their V2 counterpart uses.
		if len(payload) < 1+32 {
			return nil, ErrMalformedRecord
		}
		payload = payload[1+32:]
		switch kind {
		case DepositEventV1:
			kind = DepositEvent
		case WithdrawEventV1:
			kind = WithdrawEvent
		case ShieldedTransferEventV1:
			kind = TransferEvent
		}
	}

	r := newByteReader(payload)
	rec := &record{kind: kind}
	var err error
	switch kind {
	case DepositEvent:
		rec.deposit, err = decodeDeposit(r)
	case WithdrawEvent:
		rec.withdraw, err = decodeWithdraw(r)
	case TransferEvent:
		rec.transfer, err = decodeTransfer(r)
	case RenewEvent:
		rec.renew, err = decodeRenew(r)
	case EpochRolloverEvent:
		rec.rollover, err = decodeRollover(r)
	case EpochFinalizedEvent:
		rec.finalized, err = decodeFinalized(r)
	default:
		return nil, ErrUnknownTag
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func decodeDeposit(r *byteReader) (*depositPayload, error) {
	p := &depositPayload{}
	var err error
	if p.Epoch, err = r.u64(); err != nil {
		return nil, err
	}
	if p.PoolID, err = r.bytes32(); err != nil {
		return nil, err
	}
	if p.Commitment, err = r.bytes32(); err != nil {
		return nil, err
	}
	if p.LeafIndex, err = r.u64(); err != nil {
		return nil, err
	}
	if p.NewRoot, err = r.bytes32(); err != nil {
		return nil, err
	}
	if p.EncNote, err = r.lenPrefixed(); err != nil {
		return nil, err
	}
	return p, nil
}

func decodeWithdraw(r *byteReader) (*withdrawPayload, error) {
	p := &withdrawPayload{}
	var err error
	if p.Epoch, err = r.u64(); err != nil {
		return nil, err
	}
	if p.PoolID, err = r.bytes32(); err != nil {
		return nil, err
	}
	if p.Nullifier, err = r.bytes32(); err != nil {
		return nil, err
	}
	if p.Amount, err = r.u64(); err != nil {
		return nil, err
	}
	if p.Recipient, err = r.bytes32(); err != nil {
		return nil, err
	}
	return p, nil
}

func decodeTransfer(r *byteReader) (*transferPayload, error) {
	p := &transferPayload{}
	var err error
	if p.OutputEpoch, err = r.u64(); err != nil {
		return nil, err
	}
	if p.PoolID, err = r.bytes32(); err != nil {
		return nil, err
	}
	nullCount, err := r.u32()
	if err != nil {
		return nil, err
	}
	p.Nullifiers = make([][32]byte, nullCount)
	for i := range p.Nullifiers {
		if p.Nullifiers[i], err = r.bytes32(); err != nil {
			return nil, err
		}
	}
	epochCount, err := r.u32()
	if err != nil {
		return nil, err
	}
	p.InputEpochs = make([]uint64, epochCount)
	for i := range p.InputEpochs {
		if p.InputEpochs[i], err = r.u64(); err != nil {
			return nil, err
		}
	}
	cmCount, err := r.u32()
	if err != nil {
		return nil, err
	}
	p.Commitments = make([][32]byte, cmCount)
	for i := range p.Commitments {
		if p.Commitments[i], err = r.bytes32(); err != nil {
			return nil, err
		}
	}
	leafCount, err := r.u32()
	if err != nil {
		return nil, err
	}
	p.LeafIndices = make([]uint64, leafCount)
	for i := range p.LeafIndices {
		if p.LeafIndices[i], err = r.u64(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func decodeRenew(r *byteReader) (*renewPayload, error) {
	p := &renewPayload{}
	var err error
	if p.OldEpoch, err = r.u64(); err != nil {
		return nil, err
	}
	if p.NewEpoch, err = r.u64(); err != nil {
		return nil, err
	}
	if p.PoolID, err = r.bytes32(); err != nil {
		return nil, err
	}
	if p.OldNullifier, err = r.bytes32(); err != nil {
		return nil, err
	}
	if p.NewCommitment, err = r.bytes32(); err != nil {
		return nil, err
	}
	if p.NewLeafIndex, err = r.u64(); err != nil {
		return nil, err
	}
	return p, nil
}

func decodeRollover(r *byteReader) (*rolloverPayload, error) {
	p := &rolloverPayload{}
	var err error
	if p.OldEpoch, err = r.u64(); err != nil {
		return nil, err
	}
	if p.NewEpoch, err = r.u64(); err != nil {
		return nil, err
	}
	if p.Slot, err = r.u64(); err != nil {
		return nil, err
	}
	return p, nil
}

func decodeFinalized(r *byteReader) (*finalizedPayload, error) {
	p := &finalizedPayload{}
	var err error
	if p.Epoch, err = r.u64(); err != nil {
		return nil, err
	}
	if p.FinalRoot, err = r.bytes32(); err != nil {
		return nil, err
	}
	if p.Slot, err = r.u64(); err != nil {
		return nil, err
	}
	return p, nil
}
