package request

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shieldpool/core/internal/config"
)

func TestProofBytesRoundTrip(t *testing.T) {
	var raw [ProofSize]byte
	for i := range raw {
		raw[i] = byte(i)
	}
	p := DecodeProof(raw)
	if p.Bytes() != raw {
		t.Fatal("DecodeProof/Bytes did not round-trip the 256-byte layout")
	}
	if p.A[0] != 0 || p.B[0] != 64 || p.C[0] != 192 {
		t.Fatalf("pi_a/pi_b/pi_c offsets wrong: a[0]=%d b[0]=%d c[0]=%d", p.A[0], p.B[0], p.C[0])
	}
}

func TestCheckArtifactsMissingFiles(t *testing.T) {
	paths := config.CircuitPaths{
		WasmPath: filepath.Join(t.TempDir(), "absent.wasm"),
		ZkeyPath: filepath.Join(t.TempDir(), "absent.zkey"),
	}
	if err := CheckArtifacts(paths); !errors.Is(err, ErrArtifactsUnavailable) {
		t.Fatalf("expected ErrArtifactsUnavailable, got %v", err)
	}
}

func TestCheckArtifactsPresentFiles(t *testing.T) {
	dir := t.TempDir()
	wasm := filepath.Join(dir, "c.wasm")
	zkey := filepath.Join(dir, "c_final.zkey")
	for _, p := range []string{wasm, zkey} {
		if err := os.WriteFile(p, []byte{0}, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := CheckArtifacts(config.CircuitPaths{WasmPath: wasm, ZkeyPath: zkey}); err != nil {
		t.Fatalf("expected artifacts to be found, got %v", err)
	}
}
