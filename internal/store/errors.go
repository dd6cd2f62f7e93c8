package store

import "errors"

var (
	// ErrLockTimeout is returned when the advisory directory lock could
	// not be acquired within the retry budget.
	ErrLockTimeout = errors.New("store: lock timeout")
	// ErrCorrupt is returned by Snapshot.DecodeConfirmed/DecodePending
	// for a malformed note record. It is never returned from Load, which
	// treats a snapshot that can't be decoded as "no data".
	ErrCorrupt = errors.New("store: corrupt snapshot")
)
