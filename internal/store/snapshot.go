// Package store implements the encrypted note store: a versioned
// snapshot format and two NoteStore implementations, an in-memory one
// for tests/demos and a disk-backed one sealed with XSalsa20-Poly1305.
// A missing, corrupt, or wrong-key file means "no data" on load rather
// than an error; writes go through a directory lock and an
// atomic-rename temp file.
package store

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shieldpool/core/internal/note"
)

// SnapshotVersion is the only version this store currently emits or
// accepts.
const SnapshotVersion = 1

// noteRecord is the wire encoding of a Note: byte arrays as hex, the
// value as a decimal string so arbitrarily large values survive a
// future widening without a JSON-number precision loss.
type noteRecord struct {
	Value      string  `json:"value"`
	Token      string  `json:"token"`
	Owner      string  `json:"owner"`
	Randomness string  `json:"randomness"`
	Blinding   string  `json:"blinding"`
	Memo       string  `json:"memo,omitempty"`
	Commitment string  `json:"commitment"`
	Epoch      *uint64 `json:"epoch,omitempty"`
	LeafIndex  *uint32 `json:"leaf_index,omitempty"`
	Nullifier  string  `json:"nullifier"`
	Spent      bool    `json:"spent"`
	Expired    bool    `json:"expired"`
}

func encodeNote(n *note.Note) noteRecord {
	return noteRecord{
		Value:      strconv.FormatUint(n.Value, 10),
		Token:      hex.EncodeToString(n.Token[:]),
		Owner:      hex.EncodeToString(n.Owner[:]),
		Randomness: hex.EncodeToString(n.Randomness[:]),
		Blinding:   hex.EncodeToString(n.Blinding[:]),
		Memo:       n.Memo,
		Commitment: hex.EncodeToString(n.Commitment[:]),
		Epoch:      n.Epoch,
		LeafIndex:  n.LeafIndex,
		Nullifier:  hex.EncodeToString(n.Nullifier[:]),
		Spent:      n.Spent,
		Expired:    n.Expired,
	}
}

func decodeNote(r noteRecord) (*note.Note, error) {
	value, err := strconv.ParseUint(r.Value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: value: %v", ErrCorrupt, err)
	}
	n := &note.Note{Value: value, Memo: r.Memo, Epoch: r.Epoch, LeafIndex: r.LeafIndex, Spent: r.Spent, Expired: r.Expired}
	fields := []struct {
		dst []byte
		src string
	}{
		{n.Token[:], r.Token},
		{n.Owner[:], r.Owner},
		{n.Randomness[:], r.Randomness},
		{n.Blinding[:], r.Blinding},
		{n.Commitment[:], r.Commitment},
		{n.Nullifier[:], r.Nullifier},
	}
	for _, f := range fields {
		b, err := hex.DecodeString(f.src)
		if err != nil || len(b) != len(f.dst) {
			return nil, fmt.Errorf("%w: malformed hex field", ErrCorrupt)
		}
		copy(f.dst, b)
	}
	return n, nil
}

// Snapshot is the full persisted state of a wallet's note tables.
type Snapshot struct {
	Version      int          `json:"version"`
	UpdatedAt    int64        `json:"updated_at"`
	CurrentEpoch uint64       `json:"current_epoch"`
	Notes        []noteRecord `json:"notes"`
	PendingNotes []noteRecord `json:"pending_notes"`
}

// BuildSnapshot encodes the given confirmed/pending notes and current
// epoch into a Snapshot ready to serialize, stamped with updatedAt
// (typically time.Now().Unix(), supplied by the caller so this package
// stays free of wall-clock reads).
func BuildSnapshot(updatedAt int64, currentEpoch uint64, confirmed, pending []*note.Note) *Snapshot {
	s := &Snapshot{
		Version:      SnapshotVersion,
		UpdatedAt:    updatedAt,
		CurrentEpoch: currentEpoch,
		Notes:        make([]noteRecord, len(confirmed)),
		PendingNotes: make([]noteRecord, len(pending)),
	}
	for i, n := range confirmed {
		s.Notes[i] = encodeNote(n)
	}
	for i, n := range pending {
		s.PendingNotes[i] = encodeNote(n)
	}
	return s
}

// DecodeConfirmed decodes the confirmed note set.
func (s *Snapshot) DecodeConfirmed() ([]*note.Note, error) { return decodeAll(s.Notes) }

// DecodePending decodes the pending note set.
func (s *Snapshot) DecodePending() ([]*note.Note, error) { return decodeAll(s.PendingNotes) }

func decodeAll(records []noteRecord) ([]*note.Note, error) {
	out := make([]*note.Note, 0, len(records))
	for _, r := range records {
		n, err := decodeNote(r)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func marshalSnapshot(s *Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

func unmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, s.Version)
	}
	return &s, nil
}

// NoteStore persists and restores a wallet's note tables. Load returns
// (nil, nil) when there is no usable data — missing file, wrong key,
// corruption, or a version mismatch are all "no data", never an error.
type NoteStore interface {
	Save(ctx context.Context, snapshot *Snapshot) error
	Load(ctx context.Context) (*Snapshot, error)
}
