package escrow

import (
	"escrowswap/core/runtime"
	"escrowswap/native/token"
)

func (p *Program) processTake(ctx *runtime.Context, accounts []*runtime.AccountInfo, amount, seed uint64) error {
	acc, err := parseTakeAccounts(accounts)
	if err != nil {
		return err
	}
	if !acc.taker.IsSigner() {
		return runtime.ErrMissingRequiredSignature
	}
	if acc.custody.Key() != p.custody {
		return ErrInvalidTokenProgram
	}
	record, err := p.loadOpen(acc.escrow)
	if err != nil {
		return err
	}
	if record.Maker != acc.maker.Key() {
		return ErrInvalidAuthority
	}
	if record.MintA != acc.mintA.Key() || record.MintB != acc.mintB.Key() {
		return ErrInvalidTokenMint
	}
	if record.ReceiveAccount != acc.makerHoldingB.Key() {
		return runtime.ErrInvalidAccountData
	}
	if record.Amount != amount {
		return ErrExpectedAmountMismatch
	}
	escrowKey, vaultKey := acc.escrow.Key(), acc.vault.Key()
	vaultBump, err := p.verifyAddresses(record, seed, escrowKey, vaultKey)
	if err != nil {
		return err
	}
	held, err := p.vaultBalance(acc.vault)
	if err != nil {
		return err
	}
	taker := acc.taker.Key()
	signer := withBump(vaultSeeds(escrowKey), vaultBump)

	// B leg to the maker, then A leg out of the vault.
	if err := ctx.Invoke(token.Transfer(p.custody, acc.takerHoldingB.Key(), record.ReceiveAccount, taker, record.Amount)); err != nil {
		return err
	}
	if err := ctx.InvokeSigned(token.Transfer(p.custody, vaultKey, acc.takerHoldingA.Key(), vaultKey, record.Amount), signer); err != nil {
		return err
	}
	// Anything donated on top of the locked amount follows the A leg so the
	// vault can be closed.
	if held > record.Amount {
		surplus := held - record.Amount
		if err := ctx.InvokeSigned(token.Transfer(p.custody, vaultKey, acc.takerHoldingA.Key(), vaultKey, surplus), signer); err != nil {
			return err
		}
	}
	if err := ctx.InvokeSigned(token.CloseAccount(p.custody, vaultKey, taker, vaultKey), signer); err != nil {
		return err
	}
	if err := closeEscrow(acc.escrow, acc.taker); err != nil {
		return err
	}

	ctx.Emit(newClosedEvent(EventTypeTaken, escrowKey, record, taker))
	return nil
}
