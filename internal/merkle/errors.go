package merkle

import "errors"

var (
	// ErrEpochFull is returned when an insert would exceed the tree's
	// 4096-leaf capacity.
	ErrEpochFull = errors.New("merkle: epoch tree is full")
	// ErrEpochNotActive is returned when inserting into a non-Active tree.
	ErrEpochNotActive = errors.New("merkle: epoch is not active")
	// ErrUnknownEpoch is returned for operations against an epoch the
	// forest has no tree for.
	ErrUnknownEpoch = errors.New("merkle: unknown epoch")
	// ErrCorruptChunk is returned by sync_epoch when a persisted chunk's
	// leaf count exceeds what was stored — treated as corruption, aborts.
	ErrCorruptChunk = errors.New("merkle: truncated or corrupt leaf chunk")
	// ErrLeafNotFound is returned when get_proof targets an unassigned index.
	ErrLeafNotFound = errors.New("merkle: no leaf at that index")
)
