// Package shieldpool is the client engine for a privacy-preserving UTXO
// pool: note lifecycle (deposit/transfer/renew/withdraw), epoch-segmented
// Merkle sync, encrypted local persistence, and proof/request assembly,
// wired together behind one Client. All dependencies (prover, chain
// reader, note store, logger) are injected at construction; the package
// holds no global state.
package shieldpool

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/shieldpool/core/internal/config"
	"github.com/shieldpool/core/internal/keys"
	"github.com/shieldpool/core/internal/logx"
	"github.com/shieldpool/core/internal/merkle"
	"github.com/shieldpool/core/internal/note"
	"github.com/shieldpool/core/internal/notemanager"
	"github.com/shieldpool/core/internal/request"
	"github.com/shieldpool/core/internal/scanner"
	"github.com/shieldpool/core/internal/store"
	"github.com/shieldpool/core/internal/witness"
)

// Client is a single wallet's view of one pool: its keys, its note
// tables, the epoch forest it syncs against, and the store it persists
// to. Transfer/Withdraw/Renew run the same strict sequence: sync the
// forest, select/build, prove, assemble the request, then update local
// state only once the request exists. Deposit syncs and builds a new
// pending note; it has no proof and no request.
type Client struct {
	cfg     *config.Config
	logger  logx.Logger
	keys    *keys.KeyManager
	manager *notemanager.Manager
	forest  *merkle.EpochForest
	scanner *scanner.Scanner
	prover  request.Prover
	checker request.NullifierChecker

	poolID    [32]byte
	chainID   [32]byte
	order     witness.MerkleOrder
	leftIsOne bool

	persist *debouncer
}

// NewClient loads any persisted note snapshot, wires a Manager/Scanner/
// EpochForest scoped to km, and returns a ready Client. checker and
// prover may be nil/MockProver respectively for a demo or test wallet;
// reader and source back the forest sync and scanner rescans.
func NewClient(
	ctx context.Context,
	cfg *config.Config,
	km *keys.KeyManager,
	logger logx.Logger,
	reader merkle.ChainReader,
	source scanner.Source,
	checker request.NullifierChecker,
	st store.NoteStore,
	prover request.Prover,
	poolID, chainID [32]byte,
) (*Client, error) {
	if logger == nil {
		logger = logx.Nop{}
	}
	if prover == nil && cfg.MockProofs {
		prover = request.MockProver{}
	}

	var mgr *notemanager.Manager
	flush := func() {
		snap := store.BuildSnapshot(time.Now().Unix(), mgr.CurrentEpoch(), mgr.ConfirmedSnapshot(), mgr.PendingSnapshot())
		if err := st.Save(context.Background(), snap); err != nil {
			logger.Warn("shieldpool: persist failed: %v", err)
		}
	}
	persist := newDebouncer(2*time.Second, flush)
	mgr = notemanager.New(km.NullifierKey, cfg.ExpiryEpochs(), cfg.WarningEpochs, logger, persist.Trigger)

	snap, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("shieldpool: loading note store: %w", err)
	}
	if snap != nil {
		confirmed, err := snap.DecodeConfirmed()
		if err != nil {
			return nil, fmt.Errorf("shieldpool: decoding confirmed notes: %w", err)
		}
		pending, err := snap.DecodePending()
		if err != nil {
			return nil, fmt.Errorf("shieldpool: decoding pending notes: %w", err)
		}
		for _, n := range confirmed {
			mgr.AddConfirmed(n)
		}
		for _, n := range pending {
			mgr.AddPending(n)
		}
		mgr.SetCurrentEpoch(snap.CurrentEpoch)
	}

	forest := merkle.NewEpochForest(reader)
	scn := scanner.New(mgr, km.ViewingKey, logger, source)

	order := witness.BottomUp
	if cfg.MerkleOrder == "top_down" {
		order = witness.TopDown
	}

	c := &Client{
		cfg:       cfg,
		logger:    logger,
		keys:      km,
		manager:   mgr,
		forest:    forest,
		scanner:   scn,
		prover:    prover,
		checker:   checker,
		poolID:    poolID,
		chainID:   chainID,
		order:     order,
		leftIsOne: cfg.MerkleLeftIsOne,
		persist:   persist,
	}

	scn.RegisterEpochCallback(func(epoch uint64, state merkle.EpochState) {
		switch state {
		case merkle.Active:
			forest.SetActiveEpoch(epoch)
			mgr.SetCurrentEpoch(epoch)
		case merkle.Frozen:
			forest.GetOrCreate(epoch).Freeze()
		}
	})

	return c, nil
}

// OpenNoteStore returns the persistent store the configuration names:
// the encrypted file store at note_store_path, sealed under the
// wallet's viewing key.
func OpenNoteStore(cfg *config.Config, viewingKey [32]byte) store.NoteStore {
	return store.NewEncryptedFileStore(cfg.NoteStorePath, viewingKey)
}

func (c *Client) requestBuilder() *request.RequestBuilder {
	return request.NewRequestBuilder(c.poolID, c.chainID, c.checker, c.manager.CurrentEpoch(), c.cfg.ExpiryEpochs())
}

func randBytes32() ([32]byte, error) {
	var b [32]byte
	_, err := rand.Read(b[:])
	return b, err
}

// proofFor returns n's inclusion proof from its own confirmed epoch's
// synced tree.
func (c *Client) proofFor(n *note.Note) (*merkle.MerkleProof, error) {
	if n.Epoch == nil || n.LeafIndex == nil {
		return nil, notemanager.ErrNoteMissingEpochOrIndex
	}
	return c.forest.Proof(*n.Epoch, *n.LeafIndex)
}

// Sync refreshes the forest's active and recent epoch trees from chain
// state, without touching note tables.
func (c *Client) Sync(ctx context.Context) error {
	return c.forest.Sync(ctx)
}

// Balance sums spendable value across confirmed, non-spent,
// non-expired notes.
func (c *Client) Balance() uint64 {
	return c.manager.Balance()
}

// BalanceInfo returns the full spendable/pending/expiring/expired
// breakdown.
func (c *Client) BalanceInfo() notemanager.BalanceInfo {
	return c.manager.BalanceInfo()
}

// Notes returns a snapshot of the wallet's confirmed notes.
func (c *Client) Notes() []*note.Note {
	return c.manager.ConfirmedSnapshot()
}

// PendingNotes returns a snapshot of notes awaiting on-chain
// confirmation.
func (c *Client) PendingNotes() []*note.Note {
	return c.manager.PendingSnapshot()
}

// PersistNow is a synchronous barrier: it cancels any pending debounced
// save and writes the current state to the store immediately.
func (c *Client) PersistNow() {
	c.persist.Flush()
}

// DepositResult is what Deposit hands back: the freshly created pending
// note and its viewing-key-encrypted form, which the caller embeds in
// the on-chain deposit transaction so any device holding the viewing
// key can later discover it during a rescan.
type DepositResult struct {
	Note    *note.Note
	EncNote []byte
}

// Deposit creates a new note of value/token owned by this wallet,
// leaving it pending until a rescan confirms its epoch/leaf_index.
// Deposits need no proof: the amount is public and the note has no
// prior history to hide.
func (c *Client) Deposit(ctx context.Context, value uint64, token note.AssetId, memo string) (*DepositResult, error) {
	if err := c.forest.Sync(ctx); err != nil {
		return nil, fmt.Errorf("shieldpool: deposit sync: %w", err)
	}
	n, err := c.manager.CreateNote(value, token, c.keys.Address)
	if err != nil {
		return nil, err
	}
	n.Memo = memo
	encNote, err := note.Encrypt(n, c.keys.ViewingKey)
	if err != nil {
		return nil, err
	}
	c.manager.AddPending(n)
	c.logger.Audit("deposit_created", map[string]interface{}{
		"commitment": fmt.Sprintf("%x", n.Commitment),
		"value":      value,
	})
	return &DepositResult{Note: n, EncNote: encNote}, nil
}

// Withdraw spends a single confirmed note worth exactly amount to
// recipient. The withdraw circuit has one input and no change output,
// so a note that only partially or more-than covers amount can't be
// used; ErrWithdrawRequiresExactNote surfaces that instead of silently
// over- or under-spending. Only the first note of the manager's greedy
// selection is checked: another spendable note of exactly amount is not
// looked for when that first note's value differs.
func (c *Client) Withdraw(ctx context.Context, amount uint64, recipient [32]byte, txAnchor [32]byte) (*request.Request, error) {
	if err := c.forest.Sync(ctx); err != nil {
		return nil, fmt.Errorf("shieldpool: withdraw sync: %w", err)
	}
	selected, err := c.manager.SelectForSpend(amount, 1)
	if err != nil {
		return nil, err
	}
	if len(selected) != 1 || selected[0].Value != amount {
		return nil, ErrWithdrawRequiresExactNote
	}
	n := selected[0]
	proof, err := c.proofFor(n)
	if err != nil {
		return nil, err
	}

	req, err := c.requestBuilder().BuildWithdraw(ctx, c.prover, n, c.keys.NullifierKey, recipient, proof, txAnchor, c.order, c.leftIsOne)
	if err != nil {
		return nil, err
	}

	// Mark the spent note immediately, not on confirmation: re-selecting
	// it into a second in-flight request before this one lands would
	// double-spend the same nullifier.
	c.manager.MarkSpent(n.Commitment)
	c.persist.Flush()
	c.logger.Audit("withdraw_built", map[string]interface{}{
		"commitment": fmt.Sprintf("%x", n.Commitment),
		"amount":     amount,
	})
	return req, nil
}

// Transfer moves amount to recipient, drawing up to two input notes and
// returning any leftover as a change note back to this wallet.
// ErrTooManyInputsForTransfer surfaces when the manager's greedy
// selection needs more than two notes to cover amount — the transfer
// circuit has exactly two input slots. Other combinations of at most two
// notes are not tried.
func (c *Client) Transfer(ctx context.Context, recipient [32]byte, amount uint64, txAnchor [32]byte) (*request.Request, error) {
	if err := c.forest.Sync(ctx); err != nil {
		return nil, fmt.Errorf("shieldpool: transfer sync: %w", err)
	}
	selected, err := c.manager.SelectForSpend(amount, 1)
	if err != nil {
		return nil, err
	}
	if len(selected) > 2 {
		return nil, ErrTooManyInputsForTransfer
	}

	proofs := make([]*merkle.MerkleProof, len(selected))
	var inSum uint64
	for i, n := range selected {
		proof, err := c.proofFor(n)
		if err != nil {
			return nil, err
		}
		proofs[i] = proof
		inSum += n.Value
	}

	recipientRand, err := randBytes32()
	if err != nil {
		return nil, err
	}
	outputs := []witness.TransferOutput{{Value: amount, Owner: recipient, Randomness: recipientRand}}

	ownedIdx := -1
	if change := inSum - amount; change > 0 {
		changeRand, err := randBytes32()
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, witness.TransferOutput{Value: change, Owner: c.keys.Address, Randomness: changeRand})
		ownedIdx = 1
	}

	outputEpoch := c.forest.ActiveEpoch()
	tree := c.forest.GetOrCreate(outputEpoch)
	nextLeafIndices := make([]uint32, len(outputs))
	for i := range outputs {
		nextLeafIndices[i] = tree.NextIndex + uint32(i)
	}

	req, err := c.requestBuilder().BuildTransfer(ctx, c.prover, selected, proofs, outputs, nextLeafIndices, outputEpoch, c.keys.NullifierKey, txAnchor, c.order, c.leftIsOne)
	if err != nil {
		return nil, err
	}

	for _, n := range selected {
		c.manager.MarkSpent(n.Commitment)
	}
	if ownedIdx >= 0 && !req.OutputsDummy[ownedIdx] {
		epoch := outputEpoch
		changeNote := &note.Note{
			Value:      outputs[ownedIdx].Value,
			Token:      selected[0].Token,
			Owner:      outputs[ownedIdx].Owner,
			Randomness: outputs[ownedIdx].Randomness,
			Blinding:   outputs[ownedIdx].Randomness,
			Commitment: req.OutputCommitments[ownedIdx],
			Epoch:      &epoch,
		}
		c.manager.AddPending(changeNote)
	}
	c.persist.Flush()
	c.logger.Audit("transfer_built", map[string]interface{}{
		"amount": amount,
		"inputs": len(selected),
	})
	return req, nil
}

func (c *Client) renewOne(ctx context.Context, n *note.Note, txAnchor [32]byte) (*request.Request, error) {
	proof, err := c.proofFor(n)
	if err != nil {
		return nil, err
	}
	newRandomness, err := randBytes32()
	if err != nil {
		return nil, err
	}
	newCommitment, err := note.ComputeCommitment(n.Value, n.Owner, newRandomness)
	if err != nil {
		return nil, err
	}

	newEpoch := c.forest.ActiveEpoch()
	nextLeafIndex := c.forest.GetOrCreate(newEpoch).NextIndex

	req, err := c.requestBuilder().BuildRenew(ctx, c.prover, n, newCommitment, newRandomness, newEpoch, nextLeafIndex, c.keys.NullifierKey, proof, txAnchor, c.order, c.leftIsOne)
	if err != nil {
		return nil, err
	}

	c.manager.MarkSpent(n.Commitment)
	epoch := newEpoch
	c.manager.AddPending(&note.Note{
		Value:      n.Value,
		Token:      n.Token,
		Owner:      n.Owner,
		Randomness: newRandomness,
		Blinding:   newRandomness,
		Commitment: newCommitment,
		Epoch:      &epoch,
	})
	c.logger.Audit("renew_built", map[string]interface{}{
		"old_commitment": fmt.Sprintf("%x", n.Commitment),
		"new_commitment": fmt.Sprintf("%x", newCommitment),
	})
	return req, nil
}

// Renew migrates n into the forest's current active epoch under fresh
// randomness, preserving its value.
func (c *Client) Renew(ctx context.Context, n *note.Note, txAnchor [32]byte) (*request.Request, error) {
	if err := c.forest.Sync(ctx); err != nil {
		return nil, fmt.Errorf("shieldpool: renew sync: %w", err)
	}
	req, err := c.renewOne(ctx, n, txAnchor)
	if err != nil {
		return nil, err
	}
	c.persist.Flush()
	return req, nil
}

// RenewExpiring renews up to maxNotes notes flagged as expiring,
// returning every request built before the first error (if any).
func (c *Client) RenewExpiring(ctx context.Context, maxNotes int, txAnchor [32]byte) ([]*request.Request, error) {
	if err := c.forest.Sync(ctx); err != nil {
		return nil, fmt.Errorf("shieldpool: renew sync: %w", err)
	}
	notes := c.manager.SelectForRenewal(maxNotes)
	reqs := make([]*request.Request, 0, len(notes))
	for _, n := range notes {
		req, err := c.renewOne(ctx, n, txAnchor)
		if err != nil {
			c.persist.Flush()
			return reqs, err
		}
		reqs = append(reqs, req)
	}
	c.persist.Flush()
	return reqs, nil
}

// ConfirmSubmission replays signature's on-chain records, re-syncs the
// forest so the new leaves are reflected, and recomputes the nullifier
// of any confirmed note still carrying the placeholder — the sequence
// every Deposit/Transfer/Renew/Withdraw caller runs once a submission
// lands.
func (c *Client) ConfirmSubmission(ctx context.Context, signature string) error {
	if err := c.scanner.Rescan(ctx, signature); err != nil {
		return fmt.Errorf("shieldpool: rescan: %w", err)
	}
	if err := c.forest.Sync(ctx); err != nil {
		return fmt.Errorf("shieldpool: post-confirm sync: %w", err)
	}
	for _, n := range c.manager.ConfirmedSnapshot() {
		if n.Nullifier == note.NullSentinel {
			if err := c.manager.RecomputeNullifier(n); err != nil {
				c.logger.Warn("shieldpool: recomputing nullifier for %x: %v", n.Commitment, err)
			}
		}
	}
	c.persist.Flush()
	return nil
}

// ScanHistory replays the last limit pool transactions and re-syncs the
// forest, the path used on wallet re-open before any chain-state
// listener is attached.
func (c *Client) ScanHistory(ctx context.Context, limit int) error {
	if err := c.scanner.ScanHistory(ctx, limit); err != nil {
		return fmt.Errorf("shieldpool: scan history: %w", err)
	}
	return c.forest.Sync(ctx)
}
