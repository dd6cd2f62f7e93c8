// Package notemanager owns the confirmed/pending note tables, epoch-aware
// balance views, greedy spend selection, and renewal detection. Both
// tables are keyed by commitment for uniqueness and guarded by a single
// mutex; all external access goes through Manager's methods.
package notemanager

import (
	"sort"
	"sync"

	"github.com/shieldpool/core/internal/keys"
	"github.com/shieldpool/core/internal/logx"
	"github.com/shieldpool/core/internal/note"
)

// DefaultWarningEpochs is how many epochs before expiry a note is
// considered "expiring" unless configured otherwise.
const DefaultWarningEpochs = 2

// Manager owns the confirmed and pending note tables, keyed by
// commitment. All access is through its methods.
type Manager struct {
	mu sync.Mutex

	confirmed map[[32]byte]*note.Note
	pending   map[[32]byte]*note.Note

	currentEpoch  uint64
	expiryEpochs  uint64
	warningEpochs uint64

	nullifierKey keys.ShieldedAddress
	logger       logx.Logger

	onDirty func()
}

// New creates an empty Manager. expiryEpochs is expiry_slots /
// epoch_duration_slots, precomputed by the caller from chain config;
// warningEpochs is how far short of expiry a note counts as expiring
// (0 falls back to DefaultWarningEpochs). onDirty, if non-nil, is
// invoked after any mutation that should schedule a debounced
// NoteStore.save().
func New(nullifierKey [32]byte, expiryEpochs, warningEpochs uint64, logger logx.Logger, onDirty func()) *Manager {
	if logger == nil {
		logger = logx.Nop{}
	}
	if warningEpochs == 0 {
		warningEpochs = DefaultWarningEpochs
	}
	return &Manager{
		confirmed:     make(map[[32]byte]*note.Note),
		pending:       make(map[[32]byte]*note.Note),
		expiryEpochs:  expiryEpochs,
		warningEpochs: warningEpochs,
		nullifierKey:  keys.ShieldedAddress(nullifierKey),
		logger:        logger,
		onDirty:       onDirty,
	}
}

func (m *Manager) markDirty() {
	if m.onDirty != nil {
		m.onDirty()
	}
}

// CreateNote builds a fresh note tentatively tagged with the current
// epoch; leaf_index stays nil until confirmation, and its nullifier is a
// placeholder until RecomputeNullifier runs.
func (m *Manager) CreateNote(value uint64, token note.AssetId, owner [32]byte) (*note.Note, error) {
	n, err := note.New(value, token, owner)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	epoch := m.currentEpoch
	m.mu.Unlock()
	n.Epoch = &epoch
	n.Nullifier = note.NullSentinel
	return n, nil
}

// RecomputeNullifier recomputes a note's nullifier once epoch and
// leaf_index are both known; it is a no-op error if either is missing.
func (m *Manager) RecomputeNullifier(n *note.Note) error {
	if n.Epoch == nil || n.LeafIndex == nil {
		return ErrNoteMissingEpochOrIndex
	}
	nf, err := note.ComputeNullifier(n.Commitment, m.nullifierKey, *n.Epoch, *n.LeafIndex)
	if err != nil {
		return err
	}
	n.Nullifier = nf
	return nil
}

// AddConfirmed inserts or merges a confirmed note, idempotent on
// commitment: if a match already exists, missing epoch/leaf_index fields
// are filled in. Any matching pending note is removed.
func (m *Manager) AddConfirmed(n *note.Note) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.confirmed[n.Commitment]; ok {
		if existing.Epoch == nil && n.Epoch != nil {
			existing.Epoch = n.Epoch
		}
		if existing.LeafIndex == nil && n.LeafIndex != nil {
			existing.LeafIndex = n.LeafIndex
		}
	} else {
		m.confirmed[n.Commitment] = n
		m.logger.Debug("notemanager: confirmed note %x (value %d)", n.Commitment[:4], n.Value)
	}
	delete(m.pending, n.Commitment)
	m.markDirty()
}

// AddPending inserts a pending note, idempotent on commitment.
func (m *Manager) AddPending(n *note.Note) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pending[n.Commitment]; ok {
		return
	}
	m.pending[n.Commitment] = n
	m.markDirty()
}

// PendingByCommitment returns the pending note matching commitment, if
// any, so a caller can fill in epoch/leaf_index before calling
// AddConfirmed to promote it.
func (m *Manager) PendingByCommitment(commitment [32]byte) (*note.Note, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.pending[commitment]
	return n, ok
}

// ConfirmedSnapshot returns a stable slice of every confirmed note, for
// building a persistence snapshot.
func (m *Manager) ConfirmedSnapshot() []*note.Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*note.Note, 0, len(m.confirmed))
	for _, n := range m.confirmed {
		out = append(out, n)
	}
	return out
}

// PendingSnapshot returns a stable slice of every pending note, for
// building a persistence snapshot.
func (m *Manager) PendingSnapshot() []*note.Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*note.Note, 0, len(m.pending))
	for _, n := range m.pending {
		out = append(out, n)
	}
	return out
}

// CurrentEpoch returns the manager's view of "now".
func (m *Manager) CurrentEpoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentEpoch
}

// MarkSpent sets spent=true on the first confirmed note matching
// commitment.
func (m *Manager) MarkSpent(commitment [32]byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.confirmed[commitment]; ok {
		n.Spent = true
		m.markDirty()
		return true
	}
	return false
}

// MarkSpentByNullifier sets spent=true on the first confirmed note whose
// nullifier matches, optionally restricted to a given epoch. The null
// sentinel never matches: a transfer record's dummy input slot carries a
// zero nullifier, which must not spend a note whose real nullifier
// hasn't been computed yet.
func (m *Manager) MarkSpentByNullifier(nullifier [32]byte, epoch *uint64) bool {
	if nullifier == note.NullSentinel {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.confirmed {
		if n.Nullifier != nullifier {
			continue
		}
		if epoch != nil && (n.Epoch == nil || *n.Epoch != *epoch) {
			continue
		}
		n.Spent = true
		m.logger.Debug("notemanager: note %x spent via nullifier", n.Commitment[:4])
		m.markDirty()
		return true
	}
	return false
}

// SetCurrentEpoch updates the manager's view of "now", reclassifying
// notes as expiring/expired on subsequent balance queries.
func (m *Manager) SetCurrentEpoch(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentEpoch = epoch
	m.markDirty()
}

func (m *Manager) isExpiredLocked(n *note.Note) bool {
	if n.Epoch == nil {
		return false
	}
	if m.currentEpoch < *n.Epoch {
		return false
	}
	return m.currentEpoch-*n.Epoch > m.expiryEpochs
}

func (m *Manager) isExpiringLocked(n *note.Note) bool {
	if n.Epoch == nil || m.isExpiredLocked(n) {
		return false
	}
	if m.currentEpoch < *n.Epoch {
		return false
	}
	age := m.currentEpoch - *n.Epoch
	return age+m.warningEpochs >= m.expiryEpochs
}

// Balance sums value over confirmed, non-spent, non-expired notes.
func (m *Manager) Balance() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total uint64
	for _, n := range m.confirmed {
		if n.Spent || m.isExpiredLocked(n) {
			continue
		}
		total += n.Value
	}
	return total
}

// BalanceInfo is the structured balance breakdown, preserving
// spendable + pending + expiring == total.
type BalanceInfo struct {
	Total     uint64
	Spendable uint64
	Pending   uint64
	Expiring  uint64
	Expired   uint64

	TotalCount     int
	SpendableCount int
	PendingCount   int
	ExpiringCount  int
	ExpiredCount   int
}

// BalanceInfo computes the full breakdown across confirmed and pending
// tables. Total counts everything still live (spendable + pending +
// expiring); expired value is reported separately and never part of
// Total.
func (m *Manager) BalanceInfo() BalanceInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	var info BalanceInfo
	for _, n := range m.confirmed {
		if n.Spent {
			continue
		}
		switch {
		case m.isExpiredLocked(n):
			info.Expired += n.Value
			info.ExpiredCount++
		case m.isExpiringLocked(n):
			info.Expiring += n.Value
			info.ExpiringCount++
		default:
			info.Spendable += n.Value
			info.SpendableCount++
		}
	}
	for _, n := range m.pending {
		info.Pending += n.Value
		info.PendingCount++
	}
	info.Total = info.Spendable + info.Pending + info.Expiring
	info.TotalCount = info.SpendableCount + info.PendingCount + info.ExpiringCount
	return info
}

// noteEntry carries the commitment alongside the note so selection can
// sort deterministically instead of depending on Go's randomized map
// ordering.
type noteEntry struct {
	commitment [32]byte
	n          *note.Note
}

func (m *Manager) unspentSortedLocked() []noteEntry {
	entries := make([]noteEntry, 0, len(m.confirmed))
	for cm, n := range m.confirmed {
		if n.Spent || m.isExpiredLocked(n) {
			continue
		}
		entries = append(entries, noteEntry{cm, n})
	}
	sort.Slice(entries, func(i, j int) bool {
		ei, ej := entries[i].n, entries[j].n
		epochI, epochJ := uint64(0), uint64(0)
		if ei.Epoch != nil {
			epochI = *ei.Epoch
		}
		if ej.Epoch != nil {
			epochJ = *ej.Epoch
		}
		if epochI != epochJ {
			return epochI < epochJ
		}
		if ei.Value != ej.Value {
			return ei.Value > ej.Value
		}
		return lessBytes(entries[i].commitment, entries[j].commitment)
	})
	return entries
}

func lessBytes(a, b [32]byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// SelectForSpend greedily selects unspent, non-expired notes ordered by
// ascending epoch then descending value, stopping once the cumulative sum
// reaches amount and the count reaches min_notes.
func (m *Manager) SelectForSpend(amount uint64, minNotes int) ([]*note.Note, error) {
	m.mu.Lock()
	entries := m.unspentSortedLocked()
	m.mu.Unlock()

	var sum uint64
	selected := make([]*note.Note, 0, minNotes)
	for _, e := range entries {
		selected = append(selected, e.n)
		sum += e.n.Value
		if sum >= amount && len(selected) >= minNotes {
			return selected, nil
		}
	}
	if sum < amount {
		return nil, ErrInsufficientBalance
	}
	return nil, ErrInsufficientNoteCount
}

// SelectForRenewal returns expiring notes ordered by ascending epoch,
// truncated to maxNotes.
func (m *Manager) SelectForRenewal(maxNotes int) []*note.Note {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]noteEntry, 0)
	for cm, n := range m.confirmed {
		if n.Spent || !m.isExpiringLocked(n) {
			continue
		}
		entries = append(entries, noteEntry{cm, n})
	}
	sort.Slice(entries, func(i, j int) bool {
		ei, ej := entries[i].n, entries[j].n
		epochI, epochJ := uint64(0), uint64(0)
		if ei.Epoch != nil {
			epochI = *ei.Epoch
		}
		if ej.Epoch != nil {
			epochJ = *ej.Epoch
		}
		return epochI < epochJ
	})
	if len(entries) > maxNotes {
		entries = entries[:maxNotes]
	}
	out := make([]*note.Note, len(entries))
	for i, e := range entries {
		out[i] = e.n
	}
	return out
}
