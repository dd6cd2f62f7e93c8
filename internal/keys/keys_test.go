package keys

import "testing"

func TestFromSeedDeterministic(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}
	a, err := FromSeed(seed)
	if err != nil {
		t.Fatal(err)
	}
	b, err := FromSeed(seed)
	if err != nil {
		t.Fatal(err)
	}
	if a.SpendingKey != b.SpendingKey || a.ViewingKey != b.ViewingKey ||
		a.NullifierKey != b.NullifierKey || a.Address != b.Address {
		t.Fatal("key derivation is not deterministic for a fixed seed")
	}
}

func TestFromSeedDistinctKeys(t *testing.T) {
	seed := make([]byte, 32)
	km, err := FromSeed(seed)
	if err != nil {
		t.Fatal(err)
	}
	if km.SpendingKey == km.ViewingKey || km.ViewingKey == km.NullifierKey ||
		km.SpendingKey == km.NullifierKey {
		t.Fatal("domain-separated keys must differ")
	}
}

func TestFromSeedInvalidLength(t *testing.T) {
	if _, err := FromSeed(make([]byte, 31)); err != ErrInvalidSeedLength {
		t.Fatalf("expected ErrInvalidSeedLength, got %v", err)
	}
}

func TestAddressRoundTrip(t *testing.T) {
	seed := make([]byte, 32)
	seed[0] = 0x42
	km, err := FromSeed(seed)
	if err != nil {
		t.Fatal(err)
	}
	encoded := km.EncodeAddress()
	decoded, err := DecodeAddress(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if decoded != km.Address {
		t.Fatal("address did not round-trip through base58")
	}
}

func TestDecodeAddressInvalid(t *testing.T) {
	if _, err := DecodeAddress("not-base58-!!!"); err == nil {
		t.Fatal("expected error for invalid base58")
	}
}

func TestGenerateProducesValidMnemonic(t *testing.T) {
	mnemonic, km, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	if mnemonic == "" {
		t.Fatal("expected non-empty mnemonic")
	}
	km2, err := FromMnemonic(mnemonic)
	if err != nil {
		t.Fatal(err)
	}
	if km.Address != km2.Address {
		t.Fatal("regenerating from the same mnemonic must be deterministic")
	}
}

func TestRandomSeedFeedsFromSeed(t *testing.T) {
	seed, err := RandomSeed()
	if err != nil {
		t.Fatal(err)
	}
	km, err := FromSeed(seed[:])
	if err != nil {
		t.Fatal(err)
	}
	if km.Address == (ShieldedAddress{}) {
		t.Fatal("expected a nonzero address from a random seed")
	}
}

func TestFromMnemonicInvalid(t *testing.T) {
	if _, err := FromMnemonic("not a valid mnemonic phrase at all"); err != ErrInvalidMnemonic {
		t.Fatalf("expected ErrInvalidMnemonic, got %v", err)
	}
}
