package escrow

import (
	"escrowswap/core/runtime"
	"escrowswap/native/token"
)

func (p *Program) processRefund(ctx *runtime.Context, accounts []*runtime.AccountInfo, amount, seed uint64) error {
	acc, err := parseRefundAccounts(accounts)
	if err != nil {
		return err
	}
	if !acc.maker.IsSigner() {
		return runtime.ErrMissingRequiredSignature
	}
	if acc.custody.Key() != p.custody {
		return ErrInvalidTokenProgram
	}
	record, err := p.loadOpen(acc.escrow)
	if err != nil {
		return err
	}
	maker := acc.maker.Key()
	if record.Maker != maker {
		return ErrInvalidAuthority
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
	signer := withBump(vaultSeeds(escrowKey), vaultBump)

	if err := ctx.InvokeSigned(token.Transfer(p.custody, vaultKey, acc.makerHoldingA.Key(), vaultKey, held), signer); err != nil {
		return err
	}
	if err := ctx.InvokeSigned(token.CloseAccount(p.custody, vaultKey, maker, vaultKey), signer); err != nil {
		return err
	}
	if err := closeEscrow(acc.escrow, acc.maker); err != nil {
		return err
	}

	ctx.Emit(newClosedEvent(EventTypeRefunded, escrowKey, record, maker))
	return nil
}
