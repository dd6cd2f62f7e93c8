package note

import "errors"

var (
	// ErrNotMine is returned when a sealed note fails authentication under
	// the local viewing key; callers treat it as "not addressed to me".
	ErrNotMine = errors.New("note: decryption failed, not addressed to this viewing key")
	// ErrMalformed is returned when decrypted plaintext doesn't match the
	// canonical note encoding.
	ErrMalformed = errors.New("note: malformed plaintext")
)
