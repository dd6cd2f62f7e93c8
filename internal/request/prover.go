// Package request assembles the on-chain-bound payload a proved
// operation submits: the 256-byte proof, its ordered public inputs,
// and the epoch/nullifier-marker/leaf-chunk addresses the chain program
// needs to locate the state the proof is about. It also defines the
// Prover capability and a MockProver for tests and the demo binary.
// No real Prover implementation ships here; implementations live behind
// the Prover interface, and EncodeGnarkProof only converts an already
// generated gnark Groth16 proof into the 256-byte wire layout.
package request

import (
	"context"
	"os"

	"github.com/shieldpool/core/internal/config"
	"github.com/shieldpool/core/internal/witness"
)

// ProofSize is the fixed on-chain proof byte layout: pi_a (64 bytes)
// || pi_b (128 bytes, each G2 limb pair written y,x rather than x,y
// per BN254 pairing convention) || pi_c (64 bytes).
const ProofSize = 256

const (
	piAOffset = 0
	piASize   = 64
	piBOffset = piAOffset + piASize
	piBSize   = 128
	piCOffset = piBOffset + piBSize
	piCSize   = 64
)

// Proof is a decoded 256-byte Groth16 proof in the layout ProofSize
// documents.
type Proof struct {
	A [piASize]byte
	B [piBSize]byte
	C [piCSize]byte
}

// Bytes packs the proof into the fixed 256-byte wire layout.
func (p Proof) Bytes() [ProofSize]byte {
	var out [ProofSize]byte
	copy(out[piAOffset:], p.A[:])
	copy(out[piBOffset:], p.B[:])
	copy(out[piCOffset:], p.C[:])
	return out
}

// DecodeProof splits a raw 256-byte proof into its pi_a/pi_b/pi_c parts.
func DecodeProof(raw [ProofSize]byte) Proof {
	var p Proof
	copy(p.A[:], raw[piAOffset:piAOffset+piASize])
	copy(p.B[:], raw[piBOffset:piBOffset+piBSize])
	copy(p.C[:], raw[piCOffset:piCOffset+piCSize])
	return p
}

// Witness is the shape RequestBuilder and Prover need from any of
// witness.WithdrawWitness, witness.TransferWitness, witness.RenewWitness.
type Witness interface {
	Kind() witness.CircuitKind
	PublicInputs() [][32]byte
}

// Prover is the proving capability the core calls through. Public
// inputs returned by Prove MUST come directly from the prover's own
// computation, never recomputed independently, so the submitted
// request stays byte-exact with what the verifier checks.
type Prover interface {
	Prove(ctx context.Context, w Witness) (proof [ProofSize]byte, publicInputs [][32]byte, err error)
}

// CheckArtifacts verifies a circuit's wasm/zkey files exist at their
// configured paths, the check a real Prover runs before attempting to
// load them.
func CheckArtifacts(paths config.CircuitPaths) error {
	if _, err := os.Stat(paths.WasmPath); err != nil {
		return ErrArtifactsUnavailable
	}
	if _, err := os.Stat(paths.ZkeyPath); err != nil {
		return ErrArtifactsUnavailable
	}
	return nil
}
