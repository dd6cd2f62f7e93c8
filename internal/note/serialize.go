package note

import (
	"encoding/binary"
)

// plaintextFixedLen is the fixed portion of the canonical note encoding:
// value(32) || token(32) || owner(32) || blinding(32) || memo_len(2).
const plaintextFixedLen = 32 + 32 + 32 + 32 + 2

// EncodePlaintext serializes a note's spendable fields into the canonical
// 130+memo_len byte layout used as the encryption plaintext.
func EncodePlaintext(n *Note) []byte {
	buf := make([]byte, plaintextFixedLen+len(n.Memo))
	var valueBytes [32]byte
	binary.BigEndian.PutUint64(valueBytes[24:], n.Value)
	copy(buf[0:32], valueBytes[:])
	copy(buf[32:64], n.Token[:])
	copy(buf[64:96], n.Owner[:])
	copy(buf[96:128], n.Blinding[:])
	binary.LittleEndian.PutUint16(buf[128:130], uint16(len(n.Memo)))
	copy(buf[130:], n.Memo)
	return buf
}

// DecodePlaintext parses a canonical note plaintext back into fields,
// leaving Commitment/Epoch/LeafIndex/Nullifier/Spent/Expired unset — the
// scanner's deposit handler fills in Commitment/Epoch/LeafIndex, and the
// nullifier is recomputed once the note is confirmed.
func DecodePlaintext(buf []byte) (*Note, error) {
	if len(buf) < plaintextFixedLen {
		return nil, ErrMalformed
	}
	memoLen := binary.LittleEndian.Uint16(buf[128:130])
	if len(buf) != plaintextFixedLen+int(memoLen) {
		return nil, ErrMalformed
	}
	n := &Note{}
	n.Value = binary.BigEndian.Uint64(buf[24:32])
	copy(n.Token[:], buf[32:64])
	copy(n.Owner[:], buf[64:96])
	copy(n.Blinding[:], buf[96:128])
	n.Randomness = n.Blinding
	if memoLen > 0 {
		n.Memo = string(buf[130 : 130+memoLen])
	}
	return n, nil
}
