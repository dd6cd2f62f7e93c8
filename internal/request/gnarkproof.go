package request

import (
	"github.com/consensys/gnark/backend/groth16"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"
)

// EncodeGnarkProof packs a gnark Groth16 proof over BN254 into the
// fixed 256-byte on-chain layout: pi_a (64) || pi_b (128) || pi_c (64),
// with each G2 coordinate's limb pair written imaginary-first (y,x) as
// the pairing precompile consumes it. A real Prover implementation
// backed by gnark runs its proof through this before handing bytes to
// RequestBuilder; the limb order here and the verifier's must agree or
// every proof fails pairing.
func EncodeGnarkProof(p groth16.Proof) ([ProofSize]byte, error) {
	var out [ProofSize]byte
	bp, ok := p.(*groth16bn254.Proof)
	if !ok {
		return out, ErrProverFailed
	}

	ax := bp.Ar.X.Bytes()
	ay := bp.Ar.Y.Bytes()
	copy(out[0:32], ax[:])
	copy(out[32:64], ay[:])

	bx1 := bp.Bs.X.A1.Bytes()
	bx0 := bp.Bs.X.A0.Bytes()
	by1 := bp.Bs.Y.A1.Bytes()
	by0 := bp.Bs.Y.A0.Bytes()
	copy(out[64:96], bx1[:])
	copy(out[96:128], bx0[:])
	copy(out[128:160], by1[:])
	copy(out[160:192], by0[:])

	cx := bp.Krs.X.Bytes()
	cy := bp.Krs.Y.Bytes()
	copy(out[192:224], cx[:])
	copy(out[224:256], cy[:])

	return out, nil
}
