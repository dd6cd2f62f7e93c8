package scanner

import (
	"context"
	"sync"

	"github.com/shieldpool/core/internal/logx"
	"github.com/shieldpool/core/internal/merkle"
	"github.com/shieldpool/core/internal/note"
	"github.com/shieldpool/core/internal/notemanager"
)

// EpochCallback is invoked when the scanner decodes an epoch-lifecycle
// transition: (old_epoch, Frozen) then (new_epoch, Active) on rollover,
// (epoch, Finalized) on finalization.
type EpochCallback func(epoch uint64, state merkle.EpochState)

// Source is the chain-read boundary the scanner uses to fetch records
// for a single transaction (rescan) or a batch of recent ones
// (scan_history). Implementations live outside this module — fetching
// and transaction framing are not this package's concern.
type Source interface {
	FetchTransaction(ctx context.Context, signature string) ([][]byte, error)
	FetchRecentTransactions(ctx context.Context, limit int) ([][][]byte, error)
}

// Scanner applies decoded event records to a NoteManager and fires
// epoch-lifecycle callbacks.
type Scanner struct {
	mu         sync.Mutex
	manager    *notemanager.Manager
	viewingKey [32]byte
	logger     logx.Logger
	source     Source
	callbacks  []EpochCallback
}

// New creates a Scanner applying records to manager, decrypting deposit
// notes under viewingKey. source may be nil if the caller only ever
// calls Process directly (e.g. tests, or a caller that fetches records
// itself).
func New(manager *notemanager.Manager, viewingKey [32]byte, logger logx.Logger, source Source) *Scanner {
	if logger == nil {
		logger = logx.Nop{}
	}
	return &Scanner{manager: manager, viewingKey: viewingKey, logger: logger, source: source}
}

// RegisterEpochCallback adds a callback fired on every epoch-lifecycle
// transition this scanner decodes.
func (s *Scanner) RegisterEpochCallback(cb EpochCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, cb)
}

func (s *Scanner) fireCallbacks(epoch uint64, state merkle.EpochState) {
	s.mu.Lock()
	cbs := make([]EpochCallback, len(s.callbacks))
	copy(cbs, s.callbacks)
	s.mu.Unlock()
	for _, cb := range cbs {
		cb(epoch, state)
	}
}

// Process decodes and applies each record in order. A malformed or
// unrecognized record is logged at debug and skipped; it never aborts
// the rest of the batch.
func (s *Scanner) Process(records [][]byte) {
	for _, raw := range records {
		rec, err := decodeRecord(raw)
		if err != nil {
			s.logger.Debug("scanner: skipping malformed record: %v", err)
			continue
		}
		s.apply(rec)
	}
}

func (s *Scanner) apply(rec *record) {
	switch rec.kind {
	case DepositEvent:
		s.applyDeposit(rec.deposit)
	case WithdrawEvent:
		s.applyWithdraw(rec.withdraw)
	case TransferEvent:
		s.applyTransfer(rec.transfer)
	case RenewEvent:
		s.applyRenew(rec.renew)
	case EpochRolloverEvent:
		s.applyRollover(rec.rollover)
	case EpochFinalizedEvent:
		s.applyFinalized(rec.finalized)
	}
}

func (s *Scanner) applyDeposit(p *depositPayload) {
	epoch := p.Epoch
	leafIndex := uint32(p.LeafIndex)

	if pending, ok := s.manager.PendingByCommitment(p.Commitment); ok {
		pending.Epoch = &epoch
		pending.LeafIndex = &leafIndex
		s.manager.AddConfirmed(pending)
		return
	}

	n, err := note.Decrypt(p.EncNote, s.viewingKey)
	if err != nil {
		s.logger.Debug("scanner: deposit enc_note is not addressed to this wallet")
		return
	}
	n.Commitment = p.Commitment
	n.Epoch = &epoch
	n.LeafIndex = &leafIndex
	s.manager.AddConfirmed(n)
}

func (s *Scanner) applyWithdraw(p *withdrawPayload) {
	epoch := p.Epoch
	s.manager.MarkSpentByNullifier(p.Nullifier, &epoch)
}

func (s *Scanner) applyTransfer(p *transferPayload) {
	if len(p.Nullifiers) != len(p.InputEpochs) || len(p.Commitments) != len(p.LeafIndices) {
		s.logger.Debug("scanner: transfer record has mismatched vector lengths, skipping")
		return
	}
	for i, nf := range p.Nullifiers {
		epoch := p.InputEpochs[i]
		s.manager.MarkSpentByNullifier(nf, &epoch)
	}
	outputEpoch := p.OutputEpoch
	for i, cm := range p.Commitments {
		leafIndex := uint32(p.LeafIndices[i])
		if pending, ok := s.manager.PendingByCommitment(cm); ok {
			pending.Epoch = &outputEpoch
			pending.LeafIndex = &leafIndex
			s.manager.AddConfirmed(pending)
		}
	}
}

func (s *Scanner) applyRenew(p *renewPayload) {
	oldEpoch := p.OldEpoch
	s.manager.MarkSpentByNullifier(p.OldNullifier, &oldEpoch)

	newEpoch := p.NewEpoch
	newLeafIndex := uint32(p.NewLeafIndex)
	if pending, ok := s.manager.PendingByCommitment(p.NewCommitment); ok {
		pending.Epoch = &newEpoch
		pending.LeafIndex = &newLeafIndex
		s.manager.AddConfirmed(pending)
	}
}

func (s *Scanner) applyRollover(p *rolloverPayload) {
	s.fireCallbacks(p.OldEpoch, merkle.Frozen)
	s.fireCallbacks(p.NewEpoch, merkle.Active)
}

func (s *Scanner) applyFinalized(p *finalizedPayload) {
	s.fireCallbacks(p.Epoch, merkle.Finalized)
}

// Rescan fetches and replays the records of a single transaction,
// identified by signature — the path used to promote a note emitted by
// the request just submitted.
func (s *Scanner) Rescan(ctx context.Context, signature string) error {
	records, err := s.source.FetchTransaction(ctx, signature)
	if err != nil {
		return err
	}
	s.Process(records)
	return nil
}

// ScanHistory fetches and replays the last limit pool-related
// transactions, used on wallet re-open.
func (s *Scanner) ScanHistory(ctx context.Context, limit int) error {
	txs, err := s.source.FetchRecentTransactions(ctx, limit)
	if err != nil {
		return err
	}
	for _, records := range txs {
		s.Process(records)
	}
	return nil
}
