package state

import (
	"errors"
	"fmt"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"escrowswap/core/types"
	"escrowswap/storage"
)

var (
	ErrLamportOverflow   = errors.New("state: lamport balance overflow")
	ErrDuplicateTx       = errors.New("state: transaction already processed")
	errNilDatabase       = errors.New("state: database not configured")
	errInvalidAccountKey = errors.New("state: account key must not be zero")
)

var (
	accountPrefix = []byte("account:")
	txPrefix      = []byte("tx:")
)

// Manager reads and writes committed ledger accounts. Reads always go to the
// backing database; writes only happen through Commit so a transaction's
// effects land in a single batch.
type Manager struct {
	db storage.Database
	mu sync.RWMutex
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

type storedAccount struct {
	Lamports   uint64
	Owner      solana.PublicKey
	Executable bool
	Data       []byte
}

func accountKey(key solana.PublicKey) []byte {
	buf := make([]byte, len(accountPrefix)+len(key))
	copy(buf, accountPrefix)
	copy(buf[len(accountPrefix):], key[:])
	return ethcrypto.Keccak256(buf)
}

func txKey(hash [32]byte) []byte {
	buf := make([]byte, len(txPrefix)+len(hash))
	copy(buf, txPrefix)
	copy(buf[len(txPrefix):], hash[:])
	return ethcrypto.Keccak256(buf)
}

// GetAccount returns the committed account stored under key, or nil when no
// such account exists.
func (m *Manager) GetAccount(key solana.PublicKey) (*types.Account, error) {
	if m == nil || m.db == nil {
		return nil, errNilDatabase
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadAccount(key)
}

func (m *Manager) loadAccount(key solana.PublicKey) (*types.Account, error) {
	data, err := m.db.Get(accountKey(key))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	stored := new(storedAccount)
	if err := rlp.DecodeBytes(data, stored); err != nil {
		return nil, fmt.Errorf("state: decode account %s: %w", key, err)
	}
	return &types.Account{
		Lamports:   stored.Lamports,
		Owner:      stored.Owner,
		Executable: stored.Executable,
		Data:       stored.Data,
	}, nil
}

// Commit writes every supplied account in one batch. Accounts without lamports
// are removed, which is how closed accounts disappear from the ledger. When
// txHash is non-nil the hash is recorded so the transaction cannot be replayed.
func (m *Manager) Commit(accounts map[solana.PublicKey]*types.Account, txHash *[32]byte) error {
	if m == nil || m.db == nil {
		return errNilDatabase
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commitLocked(accounts, txHash)
}

func (m *Manager) commitLocked(accounts map[solana.PublicKey]*types.Account, txHash *[32]byte) error {
	batch := storage.NewBatch()
	for key, acc := range accounts {
		if key.IsZero() {
			return errInvalidAccountKey
		}
		if acc == nil || acc.Lamports == 0 {
			batch.Delete(accountKey(key))
			continue
		}
		encoded, err := rlp.EncodeToBytes(&storedAccount{
			Lamports:   acc.Lamports,
			Owner:      acc.Owner,
			Executable: acc.Executable,
			Data:       acc.Data,
		})
		if err != nil {
			return err
		}
		batch.Put(accountKey(key), encoded)
	}
	if txHash != nil {
		seen, err := m.hasTransaction(*txHash)
		if err != nil {
			return err
		}
		if seen {
			return ErrDuplicateTx
		}
		batch.Put(txKey(*txHash), []byte{1})
	}
	return m.db.Write(batch)
}

// HasTransaction reports whether a transaction with the given hash committed.
func (m *Manager) HasTransaction(hash [32]byte) (bool, error) {
	if m == nil || m.db == nil {
		return false, errNilDatabase
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hasTransaction(hash)
}

func (m *Manager) hasTransaction(hash [32]byte) (bool, error) {
	_, err := m.db.Get(txKey(hash))
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// PutAccount stores a single account outside of any transaction. It is meant
// for genesis and test fixtures.
func (m *Manager) PutAccount(key solana.PublicKey, acc *types.Account) error {
	return m.Commit(map[solana.PublicKey]*types.Account{key: acc}, nil)
}

// Airdrop credits lamports to a system-owned account, creating it if needed.
func (m *Manager) Airdrop(key solana.PublicKey, lamports uint64) error {
	if m == nil || m.db == nil {
		return errNilDatabase
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, err := m.loadAccount(key)
	if err != nil {
		return err
	}
	if acc == nil {
		acc = &types.Account{Owner: solana.SystemProgramID}
	}
	sum, overflow := new(uint256.Int).AddOverflow(uint256.NewInt(acc.Lamports), uint256.NewInt(lamports))
	if overflow || !sum.IsUint64() {
		return ErrLamportOverflow
	}
	acc.Lamports = sum.Uint64()
	return m.commitLocked(map[solana.PublicKey]*types.Account{key: acc}, nil)
}
