// Package ledgertest builds in-memory ledgers with the custody programs
// installed, for tests of programs that move assets.
package ledgertest

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"escrowswap/core/runtime"
	"escrowswap/core/state"
	"escrowswap/core/types"
	"escrowswap/native/token"
	"escrowswap/storage"
)

// Ledger is a runtime with the custody and associated holding programs
// registered.
type Ledger struct {
	t testing.TB
	// DB is set when the ledger runs on a MemDB.
	DB      *storage.MemDB
	Store   storage.Database
	Runtime *runtime.Runtime
	Custody solana.PublicKey
	nonce   atomic.Uint64
}

// New returns a fresh ledger. The database is closed when the test ends.
func New(t testing.TB) *Ledger {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	l := Open(t, db)
	l.DB = db
	return l
}

// Open returns a ledger over an existing store. The caller owns db.
func Open(t testing.TB, db storage.Database) *Ledger {
	t.Helper()
	rt := runtime.New(state.NewManager(db))
	rt.Register(token.ProgramID, token.NewProgram())
	rt.Register(token.AssociatedProgramID, token.AssociatedProgram{})
	return &Ledger{t: t, Store: db, Runtime: rt, Custody: token.ProgramID}
}

// Fund creates a new keypair holding lamports.
func (l *Ledger) Fund(lamports uint64) solana.PrivateKey {
	l.t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(l.t, err)
	require.NoError(l.t, l.Runtime.State().Airdrop(key.PublicKey(), lamports))
	return key
}

// Tx builds and signs a transaction with a fresh nonce.
func (l *Ledger) Tx(signers []solana.PrivateKey, ixs ...types.Instruction) *types.Transaction {
	l.t.Helper()
	tx := &types.Transaction{Nonce: l.nonce.Add(1), Instructions: ixs}
	for _, key := range signers {
		tx.Signers = append(tx.Signers, key.PublicKey())
	}
	require.NoError(l.t, tx.Sign(signers...))
	return tx
}

// Exec signs and executes ixs.
func (l *Ledger) Exec(signers []solana.PrivateKey, ixs ...types.Instruction) (*runtime.Receipt, error) {
	l.t.Helper()
	return l.Runtime.Execute(context.Background(), l.Tx(signers, ixs...))
}

// MustExec is Exec that fails the test on error.
func (l *Ledger) MustExec(signers []solana.PrivateKey, ixs ...types.Instruction) *runtime.Receipt {
	l.t.Helper()
	receipt, err := l.Exec(signers, ixs...)
	require.NoError(l.t, err)
	return receipt
}

// CreateMint allocates and initializes a mint controlled by authority, which
// also pays for it.
func (l *Ledger) CreateMint(authority solana.PrivateKey, decimals uint8) solana.PublicKey {
	l.t.Helper()
	mint, err := solana.NewRandomPrivateKey()
	require.NoError(l.t, err)
	rent := l.Runtime.Rent().MinimumBalance(token.MintSize)
	l.MustExec([]solana.PrivateKey{authority, mint},
		runtime.CreateAccount(authority.PublicKey(), mint.PublicKey(), rent, token.MintSize, l.Custody),
		token.InitializeMint2(l.Custody, mint.PublicKey(), decimals, authority.PublicKey()),
	)
	return mint.PublicKey()
}

// CreateHolding creates owner's associated holding for mint, paid by payer.
func (l *Ledger) CreateHolding(payer solana.PrivateKey, owner, mint solana.PublicKey) solana.PublicKey {
	l.t.Helper()
	ix, err := token.CreateAssociatedHolding(payer.PublicKey(), owner, mint, l.Custody)
	require.NoError(l.t, err)
	l.MustExec([]solana.PrivateKey{payer}, ix)
	return ix.Accounts[1].PublicKey
}

// MintTo issues amount of mint into destination.
func (l *Ledger) MintTo(authority solana.PrivateKey, mint, destination solana.PublicKey, amount uint64) {
	l.t.Helper()
	l.MustExec([]solana.PrivateKey{authority},
		token.MintTo(l.Custody, mint, destination, authority.PublicKey(), amount))
}

// Account returns the committed account or nil.
func (l *Ledger) Account(key solana.PublicKey) *types.Account {
	l.t.Helper()
	acc, err := l.Runtime.Account(key)
	require.NoError(l.t, err)
	return acc
}

// Lamports returns the committed balance of key.
func (l *Ledger) Lamports(key solana.PublicKey) uint64 {
	l.t.Helper()
	if acc := l.Account(key); acc != nil {
		return acc.Lamports
	}
	return 0
}

// Balance returns the asset amount of a holding, or 0 if it does not exist.
func (l *Ledger) Balance(holding solana.PublicKey) uint64 {
	l.t.Helper()
	acc := l.Account(holding)
	if acc == nil {
		return 0
	}
	h, err := token.UnpackHolding(acc.Data)
	require.NoError(l.t, err)
	return h.Amount
}
