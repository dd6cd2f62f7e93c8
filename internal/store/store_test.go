package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shieldpool/core/internal/note"
)

func sampleNote(t *testing.T, value uint64) *note.Note {
	t.Helper()
	var owner [32]byte
	owner[0] = byte(value)
	n, err := note.New(value, note.AssetId{}, owner)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestInMemoryStoreRoundTrip(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if snap, err := s.Load(ctx); err != nil || snap != nil {
		t.Fatalf("expected (nil, nil) from empty store, got (%v, %v)", snap, err)
	}

	n := sampleNote(t, 777)
	snapshot := BuildSnapshot(1700000000, 3, []*note.Note{n}, nil)
	if err := s.Save(ctx, snapshot); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil {
		t.Fatal("expected a snapshot after save")
	}
	notes, err := loaded.DecodeConfirmed()
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].Commitment != n.Commitment || notes[0].Value != n.Value {
		t.Fatalf("round-tripped note does not match original: %+v", notes)
	}

	// Mutating the snapshot after Save must not reach the stored copy.
	snapshot.CurrentEpoch = 99
	snapshot.Notes = nil
	again, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if again.CurrentEpoch != 3 || len(again.Notes) != 1 {
		t.Fatal("mutating the saved snapshot leaked into the store")
	}
}

func TestEncryptedFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.enc")
	var key [32]byte
	key[0] = 0x42

	s := NewEncryptedFileStore(path, key)
	ctx := context.Background()

	n := sampleNote(t, 555)
	snapshot := BuildSnapshot(1700000000, 9, nil, []*note.Note{n})
	if err := s.Save(ctx, snapshot); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil {
		t.Fatal("expected a snapshot after save")
	}
	pending, err := loaded.DecodePending()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Commitment != n.Commitment {
		t.Fatalf("round-tripped pending note does not match original: %+v", pending)
	}

	if _, err := os.Stat(path + ".lock"); !os.IsNotExist(err) {
		t.Fatal("expected the lock directory to be released after Save")
	}
}

func TestEncryptedFileStoreWrongKeyReturnsNoData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.enc")
	var key [32]byte
	key[0] = 0x01
	ctx := context.Background()

	s := NewEncryptedFileStore(path, key)
	if err := s.Save(ctx, BuildSnapshot(1, 0, nil, nil)); err != nil {
		t.Fatal(err)
	}

	var wrongKey [32]byte
	wrongKey[0] = 0x02
	other := NewEncryptedFileStore(path, wrongKey)
	snap, err := other.Load(ctx)
	if err != nil {
		t.Fatalf("expected no error for a wrong key, got %v", err)
	}
	if snap != nil {
		t.Fatal("expected (nil, nil) for a wrong key, got a decoded snapshot")
	}

	// The on-disk bytes must be sealed, not recognizable JSON.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if json.Unmarshal(raw, &decoded) == nil {
		t.Fatal("on-disk bytes parse as JSON; the snapshot is not encrypted")
	}
}

func TestEncryptedFileStoreMissingFileReturnsNoData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "absent.enc")
	var key [32]byte

	s := NewEncryptedFileStore(path, key)
	snap, err := s.Load(context.Background())
	if err != nil || snap != nil {
		t.Fatalf("expected (nil, nil) for a missing file, got (%v, %v)", snap, err)
	}
}

func TestEncryptedFileStoreCorruptBytesReturnNoData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "junk.enc")
	if err := os.WriteFile(path, []byte("not a valid sealed snapshot at all"), 0o600); err != nil {
		t.Fatal(err)
	}
	var key [32]byte
	s := NewEncryptedFileStore(path, key)
	snap, err := s.Load(context.Background())
	if err != nil || snap != nil {
		t.Fatalf("expected (nil, nil) for corrupt bytes, got (%v, %v)", snap, err)
	}
}
