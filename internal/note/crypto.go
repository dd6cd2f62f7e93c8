package note

import (
	"crypto/rand"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceLen = 24

// Encrypt seals a note's canonical plaintext under the recipient's viewing
// key using XSalsa20-Poly1305, with a fresh uniform nonce per call.
func Encrypt(n *Note, viewingKey [32]byte) ([]byte, error) {
	var nonce [nonceLen]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	plaintext := EncodePlaintext(n)
	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, &viewingKey)
	return sealed, nil
}

// Decrypt opens a sealed note under the given viewing key. On
// authentication failure it returns ErrNotMine — a failed decryption means
// the note is not addressed to this key, not that something is broken.
func Decrypt(ciphertext []byte, viewingKey [32]byte) (*Note, error) {
	if len(ciphertext) < nonceLen+secretbox.Overhead {
		return nil, ErrNotMine
	}
	var nonce [nonceLen]byte
	copy(nonce[:], ciphertext[:nonceLen])
	plaintext, ok := secretbox.Open(nil, ciphertext[nonceLen:], &nonce, &viewingKey)
	if !ok {
		return nil, ErrNotMine
	}
	n, err := DecodePlaintext(plaintext)
	if err != nil {
		return nil, err
	}
	return n, nil
}
