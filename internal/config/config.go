// Package config implements client configuration: circuit artifact
// paths, the ZK_MERKLE_ORDER/ZK_MERKLE_LEFT_IS_ONE/MOCK_PROOFS witness
// flags, epoch tuning, and note store paths. Load stats the JSON file,
// writes defaults if absent, then applies environment overrides on top
// (env wins).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// CircuitPaths is the wasm/zkey pair a Groth16 circuit needs.
type CircuitPaths struct {
	WasmPath string `json:"wasm_path"`
	ZkeyPath string `json:"zkey_path"`
}

// Config is the client's full runtime configuration.
type Config struct {
	// Circuit artifacts, one pair per proved operation.
	WithdrawCircuit CircuitPaths `json:"withdraw_circuit"`
	TransferCircuit CircuitPaths `json:"transfer_circuit"`
	RenewCircuit    CircuitPaths `json:"renew_circuit"`

	// Witness/proving flags.
	MerkleOrder      string `json:"zk_merkle_order"`       // "bottom_up" or "top_down"
	MerkleLeftIsOne  bool   `json:"zk_merkle_left_is_one"` // sibling-bit polarity
	MockProofs       bool   `json:"mock_proofs"`           // MOCK_PROOFS=1

	// Epoch tuning.
	EpochDurationSlots uint64 `json:"epoch_duration_slots"`
	ExpirySlots        uint64 `json:"expiry_slots"`
	WarningEpochs      uint64 `json:"warning_epochs"`

	// NoteStore paths.
	NoteStorePath string `json:"note_store_path"`

	// Logging.
	LogLevel  string `json:"log_level"`
	LogFile   string `json:"log_file"`
	AuditFile string `json:"audit_file"`
}

// Default returns the configuration a fresh wallet starts with.
func Default() *Config {
	return &Config{
		WithdrawCircuit:    CircuitPaths{WasmPath: "circuits/withdraw.wasm", ZkeyPath: "circuits/withdraw_final.zkey"},
		TransferCircuit:    CircuitPaths{WasmPath: "circuits/transfer.wasm", ZkeyPath: "circuits/transfer_final.zkey"},
		RenewCircuit:       CircuitPaths{WasmPath: "circuits/renew.wasm", ZkeyPath: "circuits/renew_final.zkey"},
		MerkleOrder:        "bottom_up",
		MerkleLeftIsOne:    false,
		MockProofs:         false,
		EpochDurationSlots: 432000, // ~2 days at 400ms slots
		ExpirySlots:        432000 * 26,
		WarningEpochs:      2,
		NoteStorePath:      "notes.enc",
		LogLevel:           "info",
		LogFile:            "",
		AuditFile:          "",
	}
}

// Load reads config from path, creating and persisting Default() if the
// file does not exist yet, then applies environment overrides (env wins
// over the file, matching the runtime witness-flag override convention).
func Load(path string) (*Config, error) {
	cfg, err := loadOrDefault(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); err == nil {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: open: %w", err)
		}
		defer f.Close()

		var cfg Config
		if err := json.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("config: decode: %w", err)
		}
		return &cfg, nil
	}

	cfg := Default()
	if err := Save(cfg, path); err != nil {
		return nil, fmt.Errorf("config: save default: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path as indented JSON, creating parent directories
// as needed.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: mkdir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v, ok := os.LookupEnv("WITHDRAW_WASM_PATH"); ok {
		c.WithdrawCircuit.WasmPath = v
	}
	if v, ok := os.LookupEnv("WITHDRAW_ZKEY_PATH"); ok {
		c.WithdrawCircuit.ZkeyPath = v
	}
	if v, ok := os.LookupEnv("TRANSFER_WASM_PATH"); ok {
		c.TransferCircuit.WasmPath = v
	}
	if v, ok := os.LookupEnv("TRANSFER_ZKEY_PATH"); ok {
		c.TransferCircuit.ZkeyPath = v
	}
	if v, ok := os.LookupEnv("RENEW_WASM_PATH"); ok {
		c.RenewCircuit.WasmPath = v
	}
	if v, ok := os.LookupEnv("RENEW_ZKEY_PATH"); ok {
		c.RenewCircuit.ZkeyPath = v
	}
	if v, ok := os.LookupEnv("ZK_MERKLE_ORDER"); ok {
		c.MerkleOrder = v
	}
	if v, ok := os.LookupEnv("ZK_MERKLE_LEFT_IS_ONE"); ok {
		c.MerkleLeftIsOne = v == "1" || v == "true"
	}
	if v, ok := os.LookupEnv("MOCK_PROOFS"); ok {
		c.MockProofs = v == "1" || v == "true"
	}
	if v, ok := os.LookupEnv("SHIELDPOOL_NOTE_STORE_PATH"); ok {
		c.NoteStorePath = v
	}
	if v, ok := os.LookupEnv("SHIELDPOOL_LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv("SHIELDPOOL_EPOCH_DURATION_SLOTS"); ok {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.EpochDurationSlots = n
		}
	}
}

// Validate checks the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.MerkleOrder != "bottom_up" && c.MerkleOrder != "top_down" {
		return fmt.Errorf("config: zk_merkle_order must be bottom_up or top_down, got %q", c.MerkleOrder)
	}
	if c.EpochDurationSlots == 0 {
		return fmt.Errorf("config: epoch_duration_slots must be positive")
	}
	if c.ExpirySlots == 0 {
		return fmt.Errorf("config: expiry_slots must be positive")
	}
	if c.ExpirySlots < c.EpochDurationSlots {
		return fmt.Errorf("config: expiry_slots must be at least one epoch")
	}
	if c.NoteStorePath == "" {
		return fmt.Errorf("config: note_store_path must not be empty")
	}
	return nil
}

// ExpiryEpochs converts expiry_slots/epoch_duration_slots into the
// epoch-count unit NoteManager works in.
func (c *Config) ExpiryEpochs() uint64 {
	return c.ExpirySlots / c.EpochDurationSlots
}
