package runtime

import (
	"github.com/gagliardetto/solana-go"

	"escrowswap/core/types"
)

// AccountInfo is a program's view of one account for the duration of an
// invocation. Mutations go straight to the transaction's working set; the
// runtime checks them against the ownership rules when the program returns.
type AccountInfo struct {
	key      solana.PublicKey
	signer   bool
	writable bool
	acc      *types.Account
}

func (a *AccountInfo) Key() solana.PublicKey   { return a.key }
func (a *AccountInfo) IsSigner() bool          { return a.signer }
func (a *AccountInfo) IsWritable() bool        { return a.writable }
func (a *AccountInfo) Lamports() uint64        { return a.acc.Lamports }
func (a *AccountInfo) Owner() solana.PublicKey { return a.acc.Owner }
func (a *AccountInfo) Executable() bool        { return a.acc.Executable }

// Data returns the live account data. Writes through the slice are visible to
// later instructions in the same transaction.
func (a *AccountInfo) Data() []byte { return a.acc.Data }

// IsOwnedBy reports whether program owns the account.
func (a *AccountInfo) IsOwnedBy(program solana.PublicKey) bool {
	return a.acc.Owner == program
}

// SetLamports overwrites the balance.
func (a *AccountInfo) SetLamports(lamports uint64) { a.acc.Lamports = lamports }

// Allocate replaces the data with size zero bytes.
func (a *AccountInfo) Allocate(size uint64) { a.acc.Data = make([]byte, size) }

// Assign transfers ownership to program.
func (a *AccountInfo) Assign(program solana.PublicKey) { a.acc.Owner = program }
