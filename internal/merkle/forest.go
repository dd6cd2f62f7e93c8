package merkle

import (
	"context"
	"fmt"
	"sync"
)

// EpochHeader is the on-chain-read view of one epoch's lifecycle state,
// the boundary data sync/sync_epoch consume. Fetching headers and
// leaf chunks is explicitly out of scope for the core — ChainReader
// is the narrow interface the core calls through.
type EpochHeader struct {
	State     EpochState
	FinalRoot *[32]byte
}

// ChainReader is the chain-state-read capability. Implementations live outside
// this module.
type ChainReader interface {
	EpochHeader(ctx context.Context, epoch uint64) (EpochHeader, error)
	// LeafChunk returns the leaves stored in the chunk
	// [chunkIndex*ChunkSize, (chunkIndex+1)*ChunkSize) for the given epoch.
	// A chunk that doesn't exist yet returns (nil, nil).
	LeafChunk(ctx context.Context, epoch uint64, chunkIndex uint32) ([][32]byte, error)
	// LeafCount returns the number of leaves the chain reports as
	// confirmed for the epoch, used to detect truncated chunks.
	LeafCount(ctx context.Context, epoch uint64) (uint32, error)
}

// EpochForest owns one EpochTree per epoch and the currently active epoch
// number.
type EpochForest struct {
	mu          sync.Mutex
	trees       map[uint64]*EpochTree
	activeEpoch uint64
	reader      ChainReader
	syncing     bool
}

// NewEpochForest creates a forest reading chain state through reader.
func NewEpochForest(reader ChainReader) *EpochForest {
	return &EpochForest{
		trees:  make(map[uint64]*EpochTree),
		reader: reader,
	}
}

// GetOrCreate returns the tree for epoch, creating an empty Active one if
// absent.
func (f *EpochForest) GetOrCreate(epoch uint64) *EpochTree {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getOrCreateLocked(epoch)
}

func (f *EpochForest) getOrCreateLocked(epoch uint64) *EpochTree {
	t, ok := f.trees[epoch]
	if !ok {
		t = NewEpochTree(epoch)
		f.trees[epoch] = t
	}
	return t
}

// ActiveEpoch returns the forest's currently tracked active epoch.
func (f *EpochForest) ActiveEpoch() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activeEpoch
}

// SetActiveEpoch updates the forest's view of which epoch is current.
func (f *EpochForest) SetActiveEpoch(epoch uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activeEpoch = epoch
}

// Sync refreshes the active epoch and the last 5 previous epochs from
// chunked chain storage. A single sync runs at a time: a call made
// while another sync is in flight returns nil at once, without waiting
// for that sync to finish and without seeing its result.
func (f *EpochForest) Sync(ctx context.Context) error {
	f.mu.Lock()
	if f.syncing {
		f.mu.Unlock()
		return nil
	}
	f.syncing = true
	active := f.activeEpoch
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.syncing = false
		f.mu.Unlock()
	}()

	epochs := []uint64{active}
	for i := uint64(1); i <= 5 && i <= active; i++ {
		epochs = append(epochs, active-i)
	}
	for _, e := range epochs {
		if err := f.syncEpoch(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// SyncEpoch refreshes exactly one epoch's tree.
func (f *EpochForest) SyncEpoch(ctx context.Context, epoch uint64) error {
	return f.syncEpoch(ctx, epoch)
}

func (f *EpochForest) syncEpoch(ctx context.Context, epoch uint64) error {
	header, err := f.reader.EpochHeader(ctx, epoch)
	if err != nil {
		return fmt.Errorf("merkle: epoch header for %d: %w", epoch, err)
	}
	leafCount, err := f.reader.LeafCount(ctx, epoch)
	if err != nil {
		return fmt.Errorf("merkle: leaf count for %d: %w", epoch, err)
	}

	f.mu.Lock()
	tree := f.getOrCreateLocked(epoch)
	f.mu.Unlock()

	numChunks := (leafCount + ChunkSize - 1) / ChunkSize
	leaves := make([][32]byte, 0, leafCount)
	for chunkIdx := uint32(0); chunkIdx < numChunks; chunkIdx++ {
		chunk, err := f.reader.LeafChunk(ctx, epoch, chunkIdx)
		if err != nil {
			return fmt.Errorf("merkle: leaf chunk %d/%d: %w", epoch, chunkIdx, err)
		}
		want := ChunkSize
		if chunkIdx == numChunks-1 {
			want = int(leafCount) - int(chunkIdx)*ChunkSize
		}
		if len(chunk) > want {
			return ErrCorruptChunk
		}
		leaves = append(leaves, chunk...)
	}
	// The chain reported more leaves than its chunks actually store:
	// a truncated chunk, and inserting a partial prefix would shift
	// every later leaf index.
	if uint32(len(leaves)) != leafCount {
		return ErrCorruptChunk
	}

	// Only the tail past what's already inserted is new: re-syncing
	// the same epoch (every operation does) must not replay leaves the
	// tree already has, or it would double-insert them on every call.
	alreadySynced := tree.NextIndex
	if uint32(len(leaves)) > alreadySynced {
		if _, _, err := tree.InsertMany(leaves[alreadySynced:]); err != nil {
			return fmt.Errorf("merkle: replaying leaves for epoch %d: %w", epoch, err)
		}
	}

	switch header.State {
	case Finalized:
		if header.FinalRoot != nil {
			tree.Finalize(*header.FinalRoot)
		}
	case Frozen:
		tree.Freeze()
	}
	return nil
}

// FindCommitment scans known trees for a commitment, returning its
// (epoch, leaf_index) if found.
func (f *EpochForest) FindCommitment(commitment [32]byte) (epoch uint64, leafIndex uint32, found bool) {
	f.mu.Lock()
	trees := make([]*EpochTree, 0, len(f.trees))
	for _, t := range f.trees {
		trees = append(trees, t)
	}
	f.mu.Unlock()

	for _, t := range trees {
		if idx, ok := t.FindLeaf(commitment); ok {
			return t.Epoch, idx, true
		}
	}
	return 0, 0, false
}

// Tree returns the tree for epoch if the forest has synced it.
func (f *EpochForest) Tree(epoch uint64) (*EpochTree, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trees[epoch]
	return t, ok
}

// Proof returns an inclusion proof for the leaf at leafIndex in epoch's
// tree, or ErrUnknownEpoch if the forest has never synced that epoch.
func (f *EpochForest) Proof(epoch uint64, leafIndex uint32) (*MerkleProof, error) {
	t, ok := f.Tree(epoch)
	if !ok {
		return nil, ErrUnknownEpoch
	}
	return t.GetProof(leafIndex)
}
