package keys

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
)

// slip10 implements the ed25519-flavored SLIP-0010 hardened-only
// derivation scheme over crypto/hmac + crypto/sha512.

const slip10Seed = "ed25519 seed"

type slip10Node struct {
	key       [32]byte
	chainCode [32]byte
}

func slip10Master(seed []byte) slip10Node {
	mac := hmac.New(sha512.New, []byte(slip10Seed))
	mac.Write(seed)
	i := mac.Sum(nil)
	var n slip10Node
	copy(n.key[:], i[:32])
	copy(n.chainCode[:], i[32:])
	return n
}

// hardened derives the child at the given index, always hardened
// (index | 0x80000000) per SLIP-0010's ed25519 restriction.
func (n slip10Node) hardened(index uint32) slip10Node {
	data := make([]byte, 1+32+4)
	data[0] = 0x00
	copy(data[1:33], n.key[:])
	binary.BigEndian.PutUint32(data[33:], index|0x80000000)

	mac := hmac.New(sha512.New, n.chainCode[:])
	mac.Write(data)
	i := mac.Sum(nil)

	var child slip10Node
	copy(child.key[:], i[:32])
	copy(child.chainCode[:], i[32:])
	return child
}

// derivePath walks m/44'/501'/0'/0' and returns the final 32-byte key,
// used as the collapsed wallet seed.
func derivePath(seed []byte, path []uint32) [32]byte {
	node := slip10Master(seed)
	for _, idx := range path {
		node = node.hardened(idx)
	}
	return node.key
}

// defaultPath is m/44'/501'/0'/0' (the indices themselves; hardened is
// applied by derivePath regardless of the apostrophe already implied).
var defaultPath = []uint32{44, 501, 0, 0}
