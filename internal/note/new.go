package note

import "crypto/rand"

// New creates a note with fresh uniform randomness and computes its
// commitment. Epoch/LeafIndex are left unset — the caller tags a
// tentative epoch and leaves leaf_index nil until confirmation.
func New(value uint64, token AssetId, owner [32]byte) (*Note, error) {
	var randomness [32]byte
	if _, err := rand.Read(randomness[:]); err != nil {
		return nil, err
	}
	cm, err := ComputeCommitment(value, owner, randomness)
	if err != nil {
		return nil, err
	}
	return &Note{
		Value:      value,
		Token:      token,
		Owner:      owner,
		Randomness: randomness,
		Blinding:   randomness,
		Commitment: cm,
	}, nil
}
