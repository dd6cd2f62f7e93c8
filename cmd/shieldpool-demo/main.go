// shieldpool-demo walks one wallet through the full note lifecycle
// against an in-process simulated chain: deposit, shielded transfer
// with change, epoch rollover, renewal, and a final withdraw. Proofs
// come from the mock prover and state lives in an in-memory store, so
// the binary runs with no chain, artifacts, or disk state at all.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"log"
	"sync"

	shieldpool "github.com/shieldpool/core"
	"github.com/shieldpool/core/internal/config"
	"github.com/shieldpool/core/internal/keys"
	"github.com/shieldpool/core/internal/logx"
	"github.com/shieldpool/core/internal/merkle"
	"github.com/shieldpool/core/internal/note"
	"github.com/shieldpool/core/internal/request"
	"github.com/shieldpool/core/internal/store"
	"github.com/shieldpool/core/internal/witness"
)

// localnet simulates the pool program's on-chain state: per-epoch leaf
// logs served back in chunks, epoch lifecycle headers, nullifier
// markers, and the event records each submitted request would emit. It
// backs all three chain-facing capabilities the client takes.
type localnet struct {
	mu      sync.Mutex
	states  map[uint64]merkle.EpochState
	leaves  map[uint64][][32]byte
	txs     map[string][][]byte
	markers map[[32]byte]bool
	seq     int
}

func newLocalnet() *localnet {
	return &localnet{
		states:  map[uint64]merkle.EpochState{0: merkle.Active},
		leaves:  make(map[uint64][][32]byte),
		txs:     make(map[string][][]byte),
		markers: make(map[[32]byte]bool),
	}
}

func (l *localnet) EpochHeader(ctx context.Context, epoch uint64) (merkle.EpochHeader, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	state, ok := l.states[epoch]
	if !ok {
		state = merkle.Active
	}
	return merkle.EpochHeader{State: state}, nil
}

func (l *localnet) LeafCount(ctx context.Context, epoch uint64) (uint32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return uint32(len(l.leaves[epoch])), nil
}

func (l *localnet) LeafChunk(ctx context.Context, epoch uint64, chunkIndex uint32) ([][32]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	leaves := l.leaves[epoch]
	start := int(chunkIndex) * merkle.ChunkSize
	if start >= len(leaves) {
		return nil, nil
	}
	end := start + merkle.ChunkSize
	if end > len(leaves) {
		end = len(leaves)
	}
	out := make([][32]byte, end-start)
	copy(out, leaves[start:end])
	return out, nil
}

func (l *localnet) FetchTransaction(ctx context.Context, signature string) ([][]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.txs[signature], nil
}

func (l *localnet) FetchRecentTransactions(ctx context.Context, limit int) ([][][]byte, error) {
	return nil, nil
}

func (l *localnet) MarkerExists(ctx context.Context, marker [32]byte) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.markers[marker], nil
}

func (l *localnet) record(records ...[]byte) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	sig := fmt.Sprintf("tx-%04d", l.seq)
	l.txs[sig] = records
	return sig
}

func (l *localnet) appendLeaf(epoch uint64, leaf [32]byte) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.leaves[epoch] = append(l.leaves[epoch], leaf)
	return uint64(len(l.leaves[epoch]) - 1)
}

func (l *localnet) setMarkers(markers [][32]byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range markers {
		l.markers[m] = true
	}
}

func (l *localnet) rollover(oldEpoch, newEpoch uint64) string {
	l.mu.Lock()
	l.states[oldEpoch] = merkle.Frozen
	l.states[newEpoch] = merkle.Active
	l.mu.Unlock()

	buf := tagged("EpochRolloverEvent")
	buf = appendU64(buf, oldEpoch)
	buf = appendU64(buf, newEpoch)
	buf = appendU64(buf, 0) // slot
	return l.record(buf)
}

// submitDeposit plays the chain's side of a deposit: the commitment
// joins the epoch's leaf log and a DepositEvent record carries the
// encrypted note back to any scanning wallet.
func (l *localnet) submitDeposit(epoch uint64, poolID [32]byte, res *shieldpool.DepositResult) string {
	leafIndex := l.appendLeaf(epoch, res.Note.Commitment)

	buf := tagged("DepositEvent")
	buf = appendU64(buf, epoch)
	buf = append(buf, poolID[:]...)
	buf = append(buf, res.Note.Commitment[:]...)
	buf = appendU64(buf, leafIndex)
	buf = append(buf, make([]byte, 32)...) // new_root: unchecked by the scanner
	buf = appendLenPrefixed(buf, res.EncNote)
	return l.record(buf)
}

// submitTransfer records the input nullifier markers, appends the real
// output commitments, and emits the TransferEvent pairing them up.
func (l *localnet) submitTransfer(poolID [32]byte, req *request.Request, inputEpochs []uint64, outputEpoch uint64) string {
	l.setMarkers(req.NullifierMarkers)

	// Public input order: root, nullifier_1, nullifier_2, out_cm_1,
	// out_cm_2, tx_anchor, pool_id, chain_id.
	nullifiers := req.PublicInputs[1:3]

	var commitments [][32]byte
	var leafIndices []uint64
	for i, cm := range req.OutputCommitments {
		if req.OutputsDummy[i] {
			continue
		}
		commitments = append(commitments, cm)
		leafIndices = append(leafIndices, l.appendLeaf(outputEpoch, cm))
	}

	buf := tagged("TransferEvent")
	buf = appendU64(buf, outputEpoch)
	buf = append(buf, poolID[:]...)
	buf = appendU32(buf, uint32(len(nullifiers)))
	for _, n := range nullifiers {
		buf = append(buf, n[:]...)
	}
	buf = appendU32(buf, uint32(len(inputEpochs)))
	for _, e := range inputEpochs {
		buf = appendU64(buf, e)
	}
	buf = appendU32(buf, uint32(len(commitments)))
	for _, cm := range commitments {
		buf = append(buf, cm[:]...)
	}
	buf = appendU32(buf, uint32(len(leafIndices)))
	for _, li := range leafIndices {
		buf = appendU64(buf, li)
	}
	return l.record(buf)
}

func (l *localnet) submitRenew(poolID [32]byte, req *request.Request, oldEpoch, newEpoch uint64) string {
	l.setMarkers(req.NullifierMarkers)

	// Public input order: old_root, nullifier, new_commitment, ...
	oldNullifier := req.PublicInputs[1]
	newCommitment := req.PublicInputs[2]
	leafIndex := l.appendLeaf(newEpoch, newCommitment)

	buf := tagged("RenewEvent")
	buf = appendU64(buf, oldEpoch)
	buf = appendU64(buf, newEpoch)
	buf = append(buf, poolID[:]...)
	buf = append(buf, oldNullifier[:]...)
	buf = append(buf, newCommitment[:]...)
	buf = appendU64(buf, leafIndex)
	return l.record(buf)
}

func (l *localnet) submitWithdraw(poolID [32]byte, req *request.Request, epoch uint64, amount uint64, recipient [32]byte) string {
	l.setMarkers(req.NullifierMarkers)

	// Public input order: root, nullifier, amount, ...
	nullifier := req.PublicInputs[1]

	buf := tagged("WithdrawEvent")
	buf = appendU64(buf, epoch)
	buf = append(buf, poolID[:]...)
	buf = append(buf, nullifier[:]...)
	buf = appendU64(buf, amount)
	buf = append(buf, recipient[:]...)
	return l.record(buf)
}

func tagged(eventName string) []byte {
	sum := sha256.Sum256([]byte("event:" + eventName))
	return append([]byte{}, sum[:8]...)
}

func appendU64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func appendU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendLenPrefixed(buf []byte, v []byte) []byte {
	buf = appendU32(buf, uint32(len(v)))
	return append(buf, v...)
}

func printBalance(label string, c *shieldpool.Client) {
	info := c.BalanceInfo()
	fmt.Printf("%-28s spendable=%d pending=%d expiring=%d expired=%d (total %d)\n",
		label+":", info.Spendable, info.Pending, info.Expiring, info.Expired, info.Total)
}

func main() {
	ctx := context.Background()
	cfg := config.Default()
	logger, err := logx.New(logx.ParseLevel(cfg.LogLevel), cfg.LogFile, cfg.AuditFile)
	if err != nil {
		log.Fatal(err)
	}

	mnemonic, km, err := keys.Generate()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("mnemonic:", mnemonic)
	fmt.Println("address: ", km.EncodeAddress())

	var poolID [32]byte
	poolID[31] = 1
	net := newLocalnet()

	client, err := shieldpool.NewClient(ctx, cfg, km, logger, net, net, net, store.NewInMemoryStore(), request.MockProver{}, poolID, [32]byte{})
	if err != nil {
		log.Fatal(err)
	}

	// Deposit 5000 into epoch 0 and confirm it from the emitted record.
	res, err := client.Deposit(ctx, 5000, note.AssetId{}, "first deposit")
	if err != nil {
		log.Fatal(err)
	}
	printBalance("after deposit (pending)", client)
	if err := client.ConfirmSubmission(ctx, net.submitDeposit(0, poolID, res)); err != nil {
		log.Fatal(err)
	}
	printBalance("after deposit confirmed", client)

	// Transfer 1200 to another wallet; 3800 comes back as change.
	_, peer, err := keys.Generate()
	if err != nil {
		log.Fatal(err)
	}
	transferReq, err := client.Transfer(ctx, [32]byte(peer.Address), 1200, [32]byte{})
	if err != nil {
		log.Fatal(err)
	}
	if transferReq.CircuitKind != witness.TransferCircuit || len(transferReq.PublicInputs) != 8 {
		log.Fatalf("unexpected transfer request shape: %d public inputs", len(transferReq.PublicInputs))
	}
	sig := net.submitTransfer(poolID, transferReq, []uint64{0, 0}, 0)
	if err := client.ConfirmSubmission(ctx, sig); err != nil {
		log.Fatal(err)
	}
	printBalance("after transfer confirmed", client)

	// Roll the pool into epoch 1, then renew the change note into it.
	if err := client.ConfirmSubmission(ctx, net.rollover(0, 1)); err != nil {
		log.Fatal(err)
	}
	change := pickSpendable(client)
	renewReq, err := client.Renew(ctx, change, [32]byte{})
	if err != nil {
		log.Fatal(err)
	}
	sig = net.submitRenew(poolID, renewReq, 0, 1)
	if err := client.ConfirmSubmission(ctx, sig); err != nil {
		log.Fatal(err)
	}
	printBalance("after renew confirmed", client)

	// Withdraw the renewed note to a transparent recipient.
	var recipient [32]byte
	recipient[0] = 0xaa
	withdrawReq, err := client.Withdraw(ctx, change.Value, recipient, [32]byte{})
	if err != nil {
		log.Fatal(err)
	}
	sig = net.submitWithdraw(poolID, withdrawReq, 1, change.Value, recipient)
	if err := client.ConfirmSubmission(ctx, sig); err != nil {
		log.Fatal(err)
	}
	printBalance("after withdraw confirmed", client)
	client.PersistNow()
}

// pickSpendable returns the wallet's single confirmed unspent note; the
// demo's flow keeps exactly one alive between steps.
func pickSpendable(c *shieldpool.Client) *note.Note {
	for _, n := range c.Notes() {
		if !n.Spent && !n.Expired {
			return n
		}
	}
	log.Fatal("no spendable note")
	return nil
}
