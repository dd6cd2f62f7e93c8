package request

import (
	"context"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// MockProver returns zeroed proof bytes and canonically-reduced public
// inputs without ever invoking groth16.Setup/Prove, for tests and the
// demo binary (MOCK_PROOFS=1). Public inputs are still passed through
// gnark-crypto's own BN254 scalar-field type so a mock-proved request
// carries exactly the same canonical 32-byte encoding a real prover's
// output would.
type MockProver struct{}

// Prove implements Prover.
func (MockProver) Prove(ctx context.Context, w Witness) (proof [ProofSize]byte, publicInputs [][32]byte, err error) {
	raw := w.PublicInputs()
	publicInputs = make([][32]byte, len(raw))
	for i, in := range raw {
		var e fr.Element
		e.SetBytes(in[:])
		b := e.Bytes()
		publicInputs[i] = b
	}
	return proof, publicInputs, nil
}
