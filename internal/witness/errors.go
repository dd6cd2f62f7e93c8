package witness

import "errors"

// ErrMissingMerkleProof is returned when a builder is given a real (non-
// dummy) note that carries no inclusion proof to anchor it.
var ErrMissingMerkleProof = errors.New("witness: missing merkle proof for non-dummy note")

// ErrNoteMissingEpochOrIndex is returned when a note lacks the
// epoch/leaf_index pair a builder needs to derive its nullifier or
// merkle indices.
var ErrNoteMissingEpochOrIndex = errors.New("witness: note missing epoch or leaf_index")

// ErrTransferSlotCount is returned when a transfer is built with more
// than two real inputs or two real outputs; excess slots have no dummy
// fallback to displace.
var ErrTransferSlotCount = errors.New("witness: transfer accepts at most two inputs and two outputs")

// ErrValueImbalance is returned when a transfer's input values do not
// sum to its output values; the circuit itself would reject this, but
// callers should fail before ever invoking the prover.
var ErrValueImbalance = errors.New("witness: transfer input/output value sum mismatch")
