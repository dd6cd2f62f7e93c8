package store

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	lockStaleAfter   = 5 * time.Second
	lockRetryPeriod  = 50 * time.Millisecond
	lockAcquireLimit = 10 * time.Second
	fileNonceLen     = 24
)

// EncryptedFileStore persists a Snapshot to a single file, sealed under a
// 32-byte viewing key: nonce(24) || ciphertext. Writers serialize through
// an advisory lock directory (mkdir is atomic on every POSIX filesystem)
// rather than an flock, so the lock is visible and recoverable from
// outside the process.
type EncryptedFileStore struct {
	path       string
	viewingKey [32]byte
}

// NewEncryptedFileStore builds a store writing to path under key.
func NewEncryptedFileStore(path string, viewingKey [32]byte) *EncryptedFileStore {
	return &EncryptedFileStore{path: path, viewingKey: viewingKey}
}

func (s *EncryptedFileStore) lockDir() string {
	return s.path + ".lock"
}

// acquireLock creates the lock directory, evicting a stale one first.
// Retries every 50ms until lockAcquireLimit elapses or ctx is done.
func (s *EncryptedFileStore) acquireLock(ctx context.Context) error {
	deadline := time.Now().Add(lockAcquireLimit)
	lockDir := s.lockDir()

	for {
		s.evictStaleLock(lockDir)
		err := os.Mkdir(lockDir, 0o700)
		if err == nil {
			return nil
		}
		if !os.IsExist(err) {
			return fmt.Errorf("store: create lock dir: %w", err)
		}
		if time.Now().After(deadline) {
			return ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryPeriod):
		}
	}
}

func (s *EncryptedFileStore) evictStaleLock(lockDir string) {
	info, err := os.Stat(lockDir)
	if err != nil {
		return
	}
	if time.Since(info.ModTime()) > lockStaleAfter {
		_ = os.Remove(lockDir)
	}
}

func (s *EncryptedFileStore) releaseLock() {
	_ = os.Remove(s.lockDir())
}

// Save seals snapshot under the viewing key and writes it atomically
// (write-temp-then-rename) while holding the advisory lock.
func (s *EncryptedFileStore) Save(ctx context.Context, snapshot *Snapshot) error {
	if err := s.acquireLock(ctx); err != nil {
		return err
	}
	defer s.releaseLock()

	plaintext, err := marshalSnapshot(snapshot)
	if err != nil {
		return err
	}

	var nonce [fileNonceLen]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("store: nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, &s.viewingKey)

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("store: mkdir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("store: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("store: chmod temp: %w", err)
	}
	if _, err := tmp.Write(sealed); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("store: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("store: close temp: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("store: rename: %w", err)
	}
	return nil
}

// Load reads and opens the sealed file. A missing file, a wrong key, a
// truncated/corrupt ciphertext, or a version mismatch all produce
// (nil, nil): "no data" rather than an error, matching the store's
// documented contract.
func (s *EncryptedFileStore) Load(ctx context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, nil
	}
	if len(data) < fileNonceLen+secretbox.Overhead {
		return nil, nil
	}
	var nonce [fileNonceLen]byte
	copy(nonce[:], data[:fileNonceLen])
	plaintext, ok := secretbox.Open(nil, data[fileNonceLen:], &nonce, &s.viewingKey)
	if !ok {
		return nil, nil
	}
	snapshot, err := unmarshalSnapshot(plaintext)
	if err != nil {
		return nil, nil
	}
	return snapshot, nil
}
