package token

import (
	"github.com/gagliardetto/solana-go"

	"escrowswap/core/runtime"
	"escrowswap/core/types"
)

// AssociatedProgramID is the address of the program that creates associated
// holdings.
var AssociatedProgramID = solana.SPLAssociatedTokenAccountProgramID

// AssociatedHoldingAddress derives the canonical holding of owner for mint
// under the custody program custody.
func AssociatedHoldingAddress(owner, custody, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{owner[:], custody[:], mint[:]}, AssociatedProgramID)
}

// CreateAssociatedHolding builds the instruction that allocates and
// initializes owner's associated holding for mint, funded by payer.
func CreateAssociatedHolding(payer, owner, mint, custody solana.PublicKey) (types.Instruction, error) {
	holding, _, err := AssociatedHoldingAddress(owner, custody, mint)
	if err != nil {
		return types.Instruction{}, err
	}
	return types.Instruction{
		ProgramID: AssociatedProgramID,
		Accounts: []types.AccountMeta{
			types.Meta(payer, true, true),
			types.Meta(holding, true, false),
			types.Meta(owner, false, false),
			types.Meta(mint, false, false),
			types.Meta(solana.SystemProgramID, false, false),
			types.Meta(custody, false, false),
		},
	}, nil
}

// AssociatedProgram creates holdings at their derived addresses. It signs the
// allocation with the derivation seeds, so nobody holds a key for them.
type AssociatedProgram struct{}

// Process implements runtime.Program.
func (AssociatedProgram) Process(ctx *runtime.Context, accounts []*runtime.AccountInfo, _ []byte) error {
	if len(accounts) < 6 {
		return runtime.ErrNotEnoughAccountKeys
	}
	payer, holding, owner, mint, system, custody := accounts[0], accounts[1], accounts[2], accounts[3], accounts[4], accounts[5]
	if system.Key() != solana.SystemProgramID {
		return runtime.ErrIncorrectProgramID
	}
	expected, bump, err := AssociatedHoldingAddress(owner.Key(), custody.Key(), mint.Key())
	if err != nil || expected != holding.Key() {
		return runtime.ErrInvalidSeeds
	}
	if !mint.IsOwnedBy(custody.Key()) {
		return runtime.ErrIncorrectProgramID
	}
	if holding.IsOwnedBy(custody.Key()) {
		return ErrAlreadyInUse
	}
	rent := ctx.Rent().MinimumBalance(HoldingSize)
	seeds := [][]byte{owner.Key().Bytes(), custody.Key().Bytes(), mint.Key().Bytes(), {bump}}
	if err := ctx.InvokeSigned(runtime.CreateAccount(payer.Key(), holding.Key(), rent, HoldingSize, custody.Key()), seeds); err != nil {
		return err
	}
	ctx.Log("Initialize the associated holding")
	return ctx.Invoke(InitializeAccount3(custody.Key(), holding.Key(), mint.Key(), owner.Key()))
}
