package shieldpool

import "errors"

var (
	// ErrWithdrawRequiresExactNote is returned when the first note the
	// greedy selection picks does not equal the requested withdraw
	// amount. The withdraw circuit has one input and no change output,
	// so a partial-value note can't cover it.
	ErrWithdrawRequiresExactNote = errors.New("shieldpool: withdraw requires a single note of the exact amount")

	// ErrTooManyInputsForTransfer is returned when the greedy selection
	// covering a transfer's amount needs more than the two input slots
	// the transfer circuit has.
	ErrTooManyInputsForTransfer = errors.New("shieldpool: transfer would need more than two input notes")
)
