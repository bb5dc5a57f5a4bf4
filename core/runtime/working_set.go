package runtime

import (
	"bytes"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"escrowswap/core/state"
	"escrowswap/core/types"
)

// NativeLoaderID owns the synthetic accounts of built-in programs.
var NativeLoaderID = solana.MustPublicKeyFromBase58("NativeLoader1111111111111111111111111111111")

// workingSet holds every account a transaction has touched. Nothing reaches
// the state manager until the whole transaction succeeds.
type workingSet struct {
	state    *state.Manager
	programs map[solana.PublicKey]Program
	accounts map[solana.PublicKey]*types.Account
	original map[solana.PublicKey]*types.Account
}

func newWorkingSet(st *state.Manager, programs map[solana.PublicKey]Program) *workingSet {
	return &workingSet{
		state:    st,
		programs: programs,
		accounts: make(map[solana.PublicKey]*types.Account),
		original: make(map[solana.PublicKey]*types.Account),
	}
}

func (w *workingSet) load(key solana.PublicKey) (*types.Account, error) {
	if acc, ok := w.accounts[key]; ok {
		return acc, nil
	}
	stored, err := w.state.GetAccount(key)
	if err != nil {
		return nil, fmt.Errorf("runtime: load %s: %w", key, err)
	}
	if stored == nil {
		if _, ok := w.programs[key]; ok {
			stored = &types.Account{Lamports: 1, Owner: NativeLoaderID, Executable: true}
		} else {
			stored = &types.Account{Owner: solana.SystemProgramID}
		}
	}
	w.original[key] = stored.Clone()
	w.accounts[key] = stored
	return stored, nil
}

// dirty returns the accounts whose state differs from what was loaded.
func (w *workingSet) dirty() map[solana.PublicKey]*types.Account {
	out := make(map[solana.PublicKey]*types.Account)
	for key, acc := range w.accounts {
		orig := w.original[key]
		if orig.Lamports == acc.Lamports && orig.Owner == acc.Owner &&
			orig.Executable == acc.Executable && bytes.Equal(orig.Data, acc.Data) {
			continue
		}
		out[key] = acc
	}
	return out
}

// checkRent rejects the transaction if it leaves a live account holding data
// below the rent exemption threshold.
func (w *workingSet) checkRent(rent Rent) error {
	for key, acc := range w.dirty() {
		if acc.Lamports == 0 || len(acc.Data) == 0 {
			continue
		}
		if !rent.IsExempt(acc.Lamports, len(acc.Data)) {
			return fmt.Errorf("%w: %s", ErrInsufficientFundsForRent, key)
		}
	}
	return nil
}
