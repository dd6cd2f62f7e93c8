package request

import "crypto/sha256"

// addressTag computes a domain-separated 32-byte address the chain
// program would recognize, the same style of derivation
// internal/keys and internal/scanner use for their own domain tags:
// SHA-256 over a label plus the caller-supplied fields, never a
// circuit-facing Poseidon hash (addresses are program bookkeeping, not
// witness inputs).
func addressTag(label string, parts ...[]byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(label))
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// AddressScheme derives the epoch-tree, nullifier-marker, and
// leaf-chunk addresses a request's routing keys need, all scoped under
// one pool id.
type AddressScheme struct {
	PoolID [32]byte
}

// NewAddressScheme creates a scheme scoped to poolID.
func NewAddressScheme(poolID [32]byte) AddressScheme {
	return AddressScheme{PoolID: poolID}
}

func u64LE(n uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(n >> (8 * i))
	}
	return b
}

func u32LE(n uint32) []byte {
	b := make([]byte, 4)
	for i := 0; i < 4; i++ {
		b[i] = byte(n >> (8 * i))
	}
	return b
}

// EpochAddress derives the address of an epoch's tree handle.
func (s AddressScheme) EpochAddress(epoch uint64) [32]byte {
	return addressTag("epoch", s.PoolID[:], u64LE(epoch))
}

// NullifierMarkerAddress derives the address of the on-chain marker an
// input nullifier's spend is recorded under, address = hash of
// (pool, epoch, nullifier).
func (s AddressScheme) NullifierMarkerAddress(epoch uint64, nullifier [32]byte) [32]byte {
	return addressTag("nullifier", s.PoolID[:], u64LE(epoch), nullifier[:])
}

// LeafChunkAddress derives the address of the on-chain chunk an output
// at nextLeafIndex lands in, address = hash of
// (pool, output_epoch, floor(next_leaf_index/256)).
func (s AddressScheme) LeafChunkAddress(outputEpoch uint64, nextLeafIndex uint32) [32]byte {
	chunkIndex := nextLeafIndex / 256
	return addressTag("leaf_chunk", s.PoolID[:], u64LE(outputEpoch), u32LE(chunkIndex))
}
