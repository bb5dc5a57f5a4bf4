package state

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"

	"escrowswap/core/types"
	"escrowswap/storage"
)

func newTestManager(t *testing.T) (*Manager, *storage.MemDB) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	return NewManager(db), db
}

func testKey(fill byte) solana.PublicKey {
	var key solana.PublicKey
	copy(key[:], bytes.Repeat([]byte{fill}, 32))
	return key
}

func TestManagerAccountRoundTrip(t *testing.T) {
	mgr, _ := newTestManager(t)
	key := testKey(0x01)
	owner := testKey(0x02)

	if acc, err := mgr.GetAccount(key); err != nil || acc != nil {
		t.Fatalf("expected missing account, got %v %v", acc, err)
	}

	want := &types.Account{Lamports: 42, Owner: owner, Data: []byte{1, 2, 3}}
	if err := mgr.PutAccount(key, want); err != nil {
		t.Fatalf("PutAccount: %v", err)
	}
	got, err := mgr.GetAccount(key)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if got.Lamports != 42 || got.Owner != owner || !bytes.Equal(got.Data, want.Data) {
		t.Fatalf("unexpected account: %+v", got)
	}
}

func TestManagerCommitDeletesDrainedAccounts(t *testing.T) {
	mgr, db := newTestManager(t)
	key := testKey(0x03)
	if err := mgr.PutAccount(key, &types.Account{Lamports: 1, Owner: solana.SystemProgramID}); err != nil {
		t.Fatalf("PutAccount: %v", err)
	}
	if err := mgr.Commit(map[solana.PublicKey]*types.Account{key: {Lamports: 0, Data: make([]byte, 8)}}, nil); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if acc, _ := mgr.GetAccount(key); acc != nil {
		t.Fatalf("expected account to be removed, got %+v", acc)
	}
	if db.Len() != 0 {
		t.Fatalf("expected empty database, got %d keys", db.Len())
	}
}

func TestManagerRejectsReplayedTransaction(t *testing.T) {
	mgr, _ := newTestManager(t)
	hash := [32]byte{0xAA}
	if err := mgr.Commit(nil, &hash); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	seen, err := mgr.HasTransaction(hash)
	if err != nil || !seen {
		t.Fatalf("expected transaction to be recorded: %v", err)
	}
	if err := mgr.Commit(nil, &hash); !errors.Is(err, ErrDuplicateTx) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestManagerAirdrop(t *testing.T) {
	mgr, _ := newTestManager(t)
	key := testKey(0x04)
	if err := mgr.Airdrop(key, 10); err != nil {
		t.Fatalf("Airdrop: %v", err)
	}
	if err := mgr.Airdrop(key, 5); err != nil {
		t.Fatalf("Airdrop: %v", err)
	}
	acc, err := mgr.GetAccount(key)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if acc.Lamports != 15 || acc.Owner != solana.SystemProgramID {
		t.Fatalf("unexpected account: %+v", acc)
	}
	if err := mgr.Airdrop(key, math.MaxUint64); !errors.Is(err, ErrLamportOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}
