package keys

import "errors"

var (
	// ErrInvalidMnemonic is returned when a phrase fails the BIP39 checksum.
	ErrInvalidMnemonic = errors.New("keys: invalid mnemonic")
	// ErrInvalidSeedLength is returned when a raw seed is not exactly 32 bytes.
	ErrInvalidSeedLength = errors.New("keys: seed must be exactly 32 bytes")
	// ErrInvalidAddress is returned when a decoded address is not exactly 32 bytes.
	ErrInvalidAddress = errors.New("keys: invalid shielded address")
)
