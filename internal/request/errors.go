package request

import "errors"

// ErrMissingEpochOrIndex mirrors witness.ErrNoteMissingEpochOrIndex at the
// request layer: a note without epoch/leaf_index cannot anchor a proof.
var ErrMissingEpochOrIndex = errors.New("request: input note missing epoch or leaf_index")

// ErrEpochExpired is returned when an input note's epoch has already
// aged past the configured expiry window.
var ErrEpochExpired = errors.New("request: input epoch already expired")

// ErrDoubleSpend is returned when an input nullifier's on-chain marker
// already exists.
var ErrDoubleSpend = errors.New("request: input nullifier marker already exists")

// ErrArtifactsUnavailable is returned when a circuit's wasm/zkey files
// are not present at their configured paths.
var ErrArtifactsUnavailable = errors.New("request: circuit artifacts unavailable")

// ErrProverFailed is returned when a proving backend produces something
// the request layer cannot use (wrong curve, malformed proof object).
var ErrProverFailed = errors.New("request: prover failed")
