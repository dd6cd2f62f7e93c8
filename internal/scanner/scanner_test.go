package scanner

import (
	"encoding/binary"
	"testing"

	"github.com/shieldpool/core/internal/merkle"
	"github.com/shieldpool/core/internal/note"
	"github.com/shieldpool/core/internal/notemanager"
)

func appendU64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func appendBytes32(buf []byte, v [32]byte) []byte {
	return append(buf, v[:]...)
}

func appendLenPrefixed(buf []byte, v []byte) []byte {
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(v)))
	buf = append(buf, n[:]...)
	return append(buf, v...)
}

func buildDepositRecord(t *testing.T, epoch uint64, poolID, commitment [32]byte, leafIndex uint64, newRoot [32]byte, encNote []byte) []byte {
	t.Helper()
	tag := eventTag("DepositEvent")
	buf := append([]byte{}, tag[:]...)
	buf = appendU64(buf, epoch)
	buf = appendBytes32(buf, poolID)
	buf = appendBytes32(buf, commitment)
	buf = appendU64(buf, leafIndex)
	buf = appendBytes32(buf, newRoot)
	buf = appendLenPrefixed(buf, encNote)
	return buf
}

func buildWithdrawRecord(epoch uint64, poolID, nullifier [32]byte, amount uint64, recipient [32]byte) []byte {
	tag := eventTag("WithdrawEvent")
	buf := append([]byte{}, tag[:]...)
	buf = appendU64(buf, epoch)
	buf = appendBytes32(buf, poolID)
	buf = appendBytes32(buf, nullifier)
	buf = appendU64(buf, amount)
	buf = appendBytes32(buf, recipient)
	return buf
}

func buildRolloverRecord(oldEpoch, newEpoch, slot uint64) []byte {
	tag := eventTag("EpochRolloverEvent")
	buf := append([]byte{}, tag[:]...)
	buf = appendU64(buf, oldEpoch)
	buf = appendU64(buf, newEpoch)
	buf = appendU64(buf, slot)
	return buf
}

func TestProcessDepositPromotesMatchingPending(t *testing.T) {
	m := notemanager.New([32]byte{9}, 100, 2, nil, nil)
	var owner [32]byte
	n, err := note.New(1000, note.AssetId{}, owner)
	if err != nil {
		t.Fatal(err)
	}
	m.AddPending(n)

	s := New(m, [32]byte{}, nil, nil)
	rec := buildDepositRecord(t, 5, [32]byte{}, n.Commitment, 3, [32]byte{}, nil)
	s.Process([][]byte{rec})

	info := m.BalanceInfo()
	if info.PendingCount != 0 {
		t.Fatalf("expected the pending note to be promoted, pending count = %d", info.PendingCount)
	}
	if info.TotalCount != 1 || info.Total != 1000 {
		t.Fatalf("expected 1 confirmed note worth 1000, got count=%d total=%d", info.TotalCount, info.Total)
	}
}

func TestProcessDepositDecryptsUnmatchedNote(t *testing.T) {
	m := notemanager.New([32]byte{9}, 100, 2, nil, nil)
	var owner [32]byte
	n, err := note.New(2500, note.AssetId{}, owner)
	if err != nil {
		t.Fatal(err)
	}
	viewingKey := [32]byte{7}
	ct, err := note.Encrypt(n, viewingKey)
	if err != nil {
		t.Fatal(err)
	}

	s := New(m, viewingKey, nil, nil)
	rec := buildDepositRecord(t, 1, [32]byte{}, n.Commitment, 0, [32]byte{}, ct)
	s.Process([][]byte{rec})

	if got := m.Balance(); got != 2500 {
		t.Fatalf("balance = %d, want 2500", got)
	}
}

func TestProcessDepositWithWrongKeyIsIgnored(t *testing.T) {
	m := notemanager.New([32]byte{9}, 100, 2, nil, nil)
	var owner [32]byte
	n, _ := note.New(10, note.AssetId{}, owner)
	ct, err := note.Encrypt(n, [32]byte{1})
	if err != nil {
		t.Fatal(err)
	}

	s := New(m, [32]byte{2}, nil, nil) // wrong key
	rec := buildDepositRecord(t, 1, [32]byte{}, n.Commitment, 0, [32]byte{}, ct)
	s.Process([][]byte{rec})

	if got := m.Balance(); got != 0 {
		t.Fatalf("balance = %d, want 0 (note not addressed to this wallet)", got)
	}
}

func TestProcessWithdrawMarksSpent(t *testing.T) {
	m := notemanager.New([32]byte{9}, 100, 2, nil, nil)
	var owner [32]byte
	n, _ := note.New(500, note.AssetId{}, owner)
	epoch := uint64(2)
	n.Epoch = &epoch
	idx := uint32(0)
	n.LeafIndex = &idx
	if err := m.RecomputeNullifier(n); err != nil {
		t.Fatal(err)
	}
	m.AddConfirmed(n)

	s := New(m, [32]byte{}, nil, nil)
	rec := buildWithdrawRecord(2, [32]byte{}, n.Nullifier, 500, [32]byte{})
	s.Process([][]byte{rec})

	if got := m.Balance(); got != 0 {
		t.Fatalf("balance after withdraw = %d, want 0", got)
	}
}

func TestProcessSkipsMalformedRecordWithoutAborting(t *testing.T) {
	m := notemanager.New([32]byte{9}, 100, 2, nil, nil)
	s := New(m, [32]byte{}, nil, nil)

	var owner [32]byte
	n, _ := note.New(42, note.AssetId{}, owner)
	m.AddPending(n)

	good := buildDepositRecord(t, 1, [32]byte{}, n.Commitment, 0, [32]byte{}, nil)
	malformed := []byte{1, 2, 3} // too short to contain even a tag
	s.Process([][]byte{malformed, good})

	if got := m.Balance(); got != 42 {
		t.Fatalf("expected the valid record to still apply, balance = %d", got)
	}
}

func TestProcessEpochRolloverFiresCallbacksInOrder(t *testing.T) {
	m := notemanager.New([32]byte{9}, 100, 2, nil, nil)
	s := New(m, [32]byte{}, nil, nil)

	var events []struct {
		epoch uint64
		state merkle.EpochState
	}
	s.RegisterEpochCallback(func(epoch uint64, state merkle.EpochState) {
		events = append(events, struct {
			epoch uint64
			state merkle.EpochState
		}{epoch, state})
	})

	s.Process([][]byte{buildRolloverRecord(7, 8, 12345)})

	if len(events) != 2 {
		t.Fatalf("expected 2 callback firings, got %d", len(events))
	}
	if events[0].epoch != 7 || events[0].state != merkle.Frozen {
		t.Fatalf("expected (7, Frozen) first, got (%d, %v)", events[0].epoch, events[0].state)
	}
	if events[1].epoch != 8 || events[1].state != merkle.Active {
		t.Fatalf("expected (8, Active) second, got (%d, %v)", events[1].epoch, events[1].state)
	}
}
