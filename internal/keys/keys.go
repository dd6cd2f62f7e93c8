// Package keys implements deterministic derivation from a BIP39 mnemonic
// or raw 32-byte seed down to the four domain-separated secrets a
// shielded wallet needs, plus base58 address encoding.
package keys

import (
	"crypto/rand"
	"crypto/sha256"

	"github.com/cosmos/go-bip39"
	"github.com/mr-tron/base58"
)

// ShieldedAddress is the 32-byte public identifier derived from a
// wallet's spending key.
type ShieldedAddress [32]byte

// KeyManager holds the four 32-byte secrets derived from a seed.
type KeyManager struct {
	seed         [32]byte
	SpendingKey  [32]byte
	ViewingKey   [32]byte
	NullifierKey [32]byte
	Address      ShieldedAddress
}

func domainTag(tag string, input []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(tag))
	h.Write(input)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func deriveFromSeed(seed [32]byte) *KeyManager {
	km := &KeyManager{seed: seed}
	km.SpendingKey = domainTag("spending", seed[:])
	km.ViewingKey = domainTag("viewing", seed[:])
	km.NullifierKey = domainTag("nullifier", seed[:])
	km.Address = ShieldedAddress(domainTag("address", km.SpendingKey[:]))
	return km
}

// Generate produces a fresh 128-bit BIP39 mnemonic, stretches it to a
// 64-byte seed (empty passphrase), collapses that to 32 bytes via
// SLIP-0010 along m/44'/501'/0'/0', and derives keys from the result.
// Returns the mnemonic alongside the manager so the caller can display it
// for backup exactly once.
func Generate() (mnemonic string, km *KeyManager, err error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return "", nil, err
	}
	mnemonic, err = bip39.NewMnemonic(entropy)
	if err != nil {
		return "", nil, err
	}
	km, err = FromMnemonic(mnemonic)
	if err != nil {
		return "", nil, err
	}
	return mnemonic, km, nil
}

// FromMnemonic validates the BIP39 checksum and derives keys from it.
func FromMnemonic(phrase string) (*KeyManager, error) {
	if !bip39.IsMnemonicValid(phrase) {
		return nil, ErrInvalidMnemonic
	}
	seed64 := bip39.NewSeed(phrase, "")
	collapsed := derivePath(seed64, defaultPath)
	return deriveFromSeed(collapsed), nil
}

// FromSeed uses the given 32 bytes directly as the wallet seed, skipping
// mnemonic/SLIP-0010 collapse entirely.
func FromSeed(seed []byte) (*KeyManager, error) {
	if len(seed) != 32 {
		return nil, ErrInvalidSeedLength
	}
	var s [32]byte
	copy(s[:], seed)
	return deriveFromSeed(s), nil
}

// RandomSeed returns 32 bytes of uniform randomness, suitable as input to
// FromSeed for ephemeral/test wallets.
func RandomSeed() ([32]byte, error) {
	var s [32]byte
	_, err := rand.Read(s[:])
	return s, err
}

// EncodeAddress returns the base58 representation of the shielded address.
func (km *KeyManager) EncodeAddress() string {
	return base58.Encode(km.Address[:])
}

// DecodeAddress parses a base58-encoded shielded address, failing if the
// decoded payload is not exactly 32 bytes.
func DecodeAddress(s string) (ShieldedAddress, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return ShieldedAddress{}, ErrInvalidAddress
	}
	if len(b) != 32 {
		return ShieldedAddress{}, ErrInvalidAddress
	}
	var addr ShieldedAddress
	copy(addr[:], b)
	return addr, nil
}
