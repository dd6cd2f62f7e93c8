package notemanager

import "errors"

var (
	// ErrInsufficientBalance is returned when no combination of unspent
	// notes reaches the requested amount.
	ErrInsufficientBalance = errors.New("notemanager: insufficient balance")
	// ErrInsufficientNoteCount is returned when the balance suffices but
	// fewer than min_notes distinct notes are available.
	ErrInsufficientNoteCount = errors.New("notemanager: insufficient note count")
	// ErrNoteMissingEpochOrIndex is returned when an operation needs a
	// note's epoch/leaf_index but confirmation hasn't assigned them yet.
	ErrNoteMissingEpochOrIndex = errors.New("notemanager: note missing epoch or leaf_index")
)
