package escrow

import (
	"github.com/gagliardetto/solana-go"

	"escrowswap/core/runtime"
	"escrowswap/native/token"
)

func (p *Program) processMake(ctx *runtime.Context, accounts []*runtime.AccountInfo, amount, seed uint64) error {
	acc, err := parseMakeAccounts(accounts)
	if err != nil {
		return err
	}
	if !acc.maker.IsSigner() {
		return runtime.ErrMissingRequiredSignature
	}
	if acc.system.Key() != solana.SystemProgramID {
		return runtime.ErrIncorrectProgramID
	}
	if acc.custody.Key() != p.custody {
		return ErrInvalidTokenProgram
	}
	maker := acc.maker.Key()
	escrowKey, bump, err := FindEscrowAddress(p.id, maker, seed)
	if err != nil || escrowKey != acc.escrow.Key() {
		return ErrInvalidEscrowAccount
	}
	if amount == 0 {
		return ErrInvalidInstruction
	}
	rent := ctx.Rent()
	escrowRent := rent.MinimumBalance(RecordSize)
	vaultRent := rent.MinimumBalance(token.HoldingSize)
	if acc.maker.Lamports() < escrowRent || acc.maker.Lamports()-escrowRent < vaultRent {
		return ErrNotRentExempt
	}
	receive, _, err := token.AssociatedHoldingAddress(maker, p.custody, acc.mintB.Key())
	if err != nil {
		return ErrInvalidTokenMint
	}

	if err := ctx.InvokeSigned(
		runtime.CreateAccount(maker, escrowKey, escrowRent, RecordSize, p.id),
		withBump(escrowSeeds(maker, seed), bump),
	); err != nil {
		return err
	}
	record := &Record{
		Maker:          maker,
		MintA:          acc.mintA.Key(),
		MintB:          acc.mintB.Key(),
		ReceiveAccount: receive,
		Amount:         amount,
		Bump:           bump,
	}
	if err := record.Pack(acc.escrow.Data()); err != nil {
		return err
	}

	vaultKey, vaultBump, err := FindVaultAddress(p.id, escrowKey)
	if err != nil || vaultKey != acc.vault.Key() {
		return ErrInvalidEscrowAccount
	}
	if err := ctx.InvokeSigned(
		runtime.CreateAccount(maker, vaultKey, vaultRent, token.HoldingSize, p.custody),
		withBump(vaultSeeds(escrowKey), vaultBump),
	); err != nil {
		return err
	}
	if err := ctx.Invoke(token.InitializeAccount3(p.custody, vaultKey, record.MintA, vaultKey)); err != nil {
		return err
	}
	if err := ctx.Invoke(token.Transfer(p.custody, acc.makerHoldingA.Key(), vaultKey, maker, amount)); err != nil {
		return err
	}

	ctx.Emit(newMadeEvent(escrowKey, vaultKey, record, seed))
	return nil
}
