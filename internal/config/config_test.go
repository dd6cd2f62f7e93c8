package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultWhenMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file to be created: %v", err)
	}
	if cfg.MerkleOrder != "bottom_up" {
		t.Fatalf("expected default merkle order bottom_up, got %q", cfg.MerkleOrder)
	}
}

func TestLoadRoundTripsSavedValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := Default()
	cfg.MerkleOrder = "top_down"
	cfg.NoteStorePath = "custom.enc"
	if err := Save(cfg, path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.MerkleOrder != "top_down" || loaded.NoteStorePath != "custom.enc" {
		t.Fatalf("loaded config does not match saved values: %+v", loaded)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := Save(Default(), path); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ZK_MERKLE_ORDER", "top_down")
	t.Setenv("MOCK_PROOFS", "1")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MerkleOrder != "top_down" {
		t.Fatalf("expected env override to win, got %q", cfg.MerkleOrder)
	}
	if !cfg.MockProofs {
		t.Fatal("expected MOCK_PROOFS=1 to set MockProofs")
	}
}

func TestEnvOverridesCircuitPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := Save(Default(), path); err != nil {
		t.Fatal(err)
	}

	t.Setenv("WITHDRAW_WASM_PATH", "/custom/withdraw.wasm")
	t.Setenv("WITHDRAW_ZKEY_PATH", "/custom/withdraw_final.zkey")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.WithdrawCircuit.WasmPath != "/custom/withdraw.wasm" {
		t.Fatalf("expected WITHDRAW_WASM_PATH override, got %q", cfg.WithdrawCircuit.WasmPath)
	}
	if cfg.WithdrawCircuit.ZkeyPath != "/custom/withdraw_final.zkey" {
		t.Fatalf("expected WITHDRAW_ZKEY_PATH override, got %q", cfg.WithdrawCircuit.ZkeyPath)
	}
}

func TestValidateRejectsBadMerkleOrder(t *testing.T) {
	cfg := Default()
	cfg.MerkleOrder = "sideways"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected Validate to reject an unknown merkle order")
	}
}

func TestExpiryEpochsDivides(t *testing.T) {
	cfg := Default()
	cfg.EpochDurationSlots = 100
	cfg.ExpirySlots = 2600
	if got := cfg.ExpiryEpochs(); got != 26 {
		t.Fatalf("ExpiryEpochs() = %d, want 26", got)
	}
}
