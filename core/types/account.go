package types

import "github.com/gagliardetto/solana-go"

// Account is a ledger account: a lamport balance, the program that owns it and
// the raw data the owner manages. Only the owner may change Data or debit
// Lamports; anyone may credit Lamports.
type Account struct {
	Lamports   uint64           `json:"lamports"`
	Owner      solana.PublicKey `json:"owner"`
	Executable bool             `json:"executable"`
	Data       []byte           `json:"data"`
}

// Clone returns a deep copy of the account so callers can mutate the copy
// without affecting the stored instance.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	clone.Data = append([]byte(nil), a.Data...)
	return &clone
}

// IsEmpty reports whether the account holds neither lamports nor data. Empty
// accounts are not persisted.
func (a *Account) IsEmpty() bool {
	return a == nil || (a.Lamports == 0 && len(a.Data) == 0)
}
