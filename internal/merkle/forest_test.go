package merkle

import (
	"context"
	"errors"
	"testing"
)

// stubReader serves leaves from fixed per-epoch slices, with an
// optional reported leaf count override to simulate truncated chunks.
type stubReader struct {
	leaves        map[uint64][][32]byte
	states        map[uint64]EpochState
	finalRoots    map[uint64][32]byte
	countOverride map[uint64]uint32
}

func newStubReader() *stubReader {
	return &stubReader{
		leaves:        make(map[uint64][][32]byte),
		states:        make(map[uint64]EpochState),
		finalRoots:    make(map[uint64][32]byte),
		countOverride: make(map[uint64]uint32),
	}
}

func (r *stubReader) EpochHeader(ctx context.Context, epoch uint64) (EpochHeader, error) {
	h := EpochHeader{State: Active}
	if s, ok := r.states[epoch]; ok {
		h.State = s
	}
	if fr, ok := r.finalRoots[epoch]; ok {
		root := fr
		h.FinalRoot = &root
	}
	return h, nil
}

func (r *stubReader) LeafCount(ctx context.Context, epoch uint64) (uint32, error) {
	if c, ok := r.countOverride[epoch]; ok {
		return c, nil
	}
	return uint32(len(r.leaves[epoch])), nil
}

func (r *stubReader) LeafChunk(ctx context.Context, epoch uint64, chunkIndex uint32) ([][32]byte, error) {
	leaves := r.leaves[epoch]
	start := int(chunkIndex) * ChunkSize
	if start >= len(leaves) {
		return nil, nil
	}
	end := start + ChunkSize
	if end > len(leaves) {
		end = len(leaves)
	}
	return leaves[start:end], nil
}

func TestSyncEpochRebuildsLeavesInOrder(t *testing.T) {
	reader := newStubReader()
	for i := byte(1); i <= 5; i++ {
		reader.leaves[0] = append(reader.leaves[0], leafBytes(i))
	}
	f := NewEpochForest(reader)

	if err := f.SyncEpoch(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	tree, ok := f.Tree(0)
	if !ok {
		t.Fatal("expected a tree for epoch 0 after sync")
	}
	if tree.NextIndex != 5 {
		t.Fatalf("next index = %d, want 5", tree.NextIndex)
	}
	for i := byte(1); i <= 5; i++ {
		idx, found := tree.FindLeaf(leafBytes(i))
		if !found || idx != uint32(i-1) {
			t.Fatalf("leaf %d at index %d (found=%v), want index %d", i, idx, found, i-1)
		}
	}
}

func TestSyncEpochIsIdempotentAcrossRepeats(t *testing.T) {
	reader := newStubReader()
	reader.leaves[0] = [][32]byte{leafBytes(1), leafBytes(2)}
	f := NewEpochForest(reader)
	ctx := context.Background()

	if err := f.SyncEpoch(ctx, 0); err != nil {
		t.Fatal(err)
	}
	if err := f.SyncEpoch(ctx, 0); err != nil {
		t.Fatal(err)
	}
	tree, _ := f.Tree(0)
	if tree.NextIndex != 2 {
		t.Fatalf("re-sync double-inserted leaves: next index = %d, want 2", tree.NextIndex)
	}
}

func TestSyncEpochAbsentEpochYieldsEmptyTree(t *testing.T) {
	f := NewEpochForest(newStubReader())
	if err := f.SyncEpoch(context.Background(), 7); err != nil {
		t.Fatal(err)
	}
	tree, ok := f.Tree(7)
	if !ok || tree.NextIndex != 0 {
		t.Fatal("expected an empty tree for a never-seen epoch")
	}
}

func TestSyncEpochTruncatedChunkIsCorruption(t *testing.T) {
	reader := newStubReader()
	reader.leaves[0] = [][32]byte{leafBytes(1)}
	reader.countOverride[0] = 10 // chain claims more leaves than stored
	f := NewEpochForest(reader)

	err := f.SyncEpoch(context.Background(), 0)
	if !errors.Is(err, ErrCorruptChunk) {
		t.Fatalf("expected ErrCorruptChunk for a truncated chunk, got %v", err)
	}
}

func TestSyncEpochAppliesFinalizedHeader(t *testing.T) {
	reader := newStubReader()
	reader.leaves[3] = [][32]byte{leafBytes(1)}
	reader.states[3] = Finalized
	var final [32]byte
	final[0] = 0xEE
	reader.finalRoots[3] = final
	f := NewEpochForest(reader)

	if err := f.SyncEpoch(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
	tree, _ := f.Tree(3)
	if tree.ComputeRoot() != final {
		t.Fatal("finalized epoch must report the header's final root")
	}
}

func TestSyncCoversActiveAndRecentEpochs(t *testing.T) {
	reader := newStubReader()
	for e := uint64(0); e <= 8; e++ {
		reader.leaves[e] = [][32]byte{leafBytes(byte(e + 1))}
	}
	f := NewEpochForest(reader)
	f.SetActiveEpoch(8)

	if err := f.Sync(context.Background()); err != nil {
		t.Fatal(err)
	}
	for e := uint64(3); e <= 8; e++ {
		if _, ok := f.Tree(e); !ok {
			t.Fatalf("expected epoch %d (active or within 5 back) to be synced", e)
		}
	}
	if _, ok := f.Tree(2); ok {
		t.Fatal("epoch 2 is beyond the 5-epoch sync window and must not be synced")
	}
}

func TestFindCommitmentAcrossEpochs(t *testing.T) {
	reader := newStubReader()
	reader.leaves[1] = [][32]byte{leafBytes(1)}
	reader.leaves[2] = [][32]byte{leafBytes(2), leafBytes(3)}
	f := NewEpochForest(reader)
	ctx := context.Background()
	f.SyncEpoch(ctx, 1)
	f.SyncEpoch(ctx, 2)

	epoch, idx, found := f.FindCommitment(leafBytes(3))
	if !found || epoch != 2 || idx != 1 {
		t.Fatalf("FindCommitment = (%d, %d, %v), want (2, 1, true)", epoch, idx, found)
	}
	if _, _, found := f.FindCommitment(leafBytes(99)); found {
		t.Fatal("expected an unknown commitment not to be found")
	}
}

func TestProofUnknownEpoch(t *testing.T) {
	f := NewEpochForest(newStubReader())
	if _, err := f.Proof(42, 0); !errors.Is(err, ErrUnknownEpoch) {
		t.Fatalf("expected ErrUnknownEpoch, got %v", err)
	}
}
