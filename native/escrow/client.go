package escrow

import (
	"github.com/gagliardetto/solana-go"

	"escrowswap/core/types"
	"escrowswap/native/token"
)

// MakeParams describes a new escrow.
type MakeParams struct {
	Maker  solana.PublicKey
	MintA  solana.PublicKey
	MintB  solana.PublicKey
	Amount uint64
	Seed   uint64
	// MakerHoldingA defaults to the maker's associated holding of MintA.
	MakerHoldingA solana.PublicKey
}

// TakeParams describes the acceptance of an escrow.
type TakeParams struct {
	Taker  solana.PublicKey
	Maker  solana.PublicKey
	MintA  solana.PublicKey
	MintB  solana.PublicKey
	Amount uint64
	Seed   uint64
	// Zero holdings default to the associated holdings of their owner.
	TakerHoldingA solana.PublicKey
	TakerHoldingB solana.PublicKey
	MakerHoldingB solana.PublicKey
}

// RefundParams describes the cancellation of an escrow.
type RefundParams struct {
	Maker  solana.PublicKey
	MintA  solana.PublicKey
	Amount uint64
	Seed   uint64
	// MakerHoldingA defaults to the maker's associated holding of MintA.
	MakerHoldingA solana.PublicKey
}

// Client builds escrow instructions for a deployment.
type Client struct {
	ProgramID solana.PublicKey
	Custody   solana.PublicKey
}

func (c Client) holding(explicit, owner, mint solana.PublicKey) (solana.PublicKey, error) {
	if !explicit.IsZero() {
		return explicit, nil
	}
	addr, _, err := token.AssociatedHoldingAddress(owner, c.Custody, mint)
	return addr, err
}

// Addresses returns the escrow and vault addresses of maker's seed.
func (c Client) Addresses(maker solana.PublicKey, seed uint64) (escrow, vault solana.PublicKey, err error) {
	escrow, _, err = FindEscrowAddress(c.ProgramID, maker, seed)
	if err != nil {
		return
	}
	vault, _, err = FindVaultAddress(c.ProgramID, escrow)
	return
}

// Make builds a Make instruction.
func (c Client) Make(p MakeParams) (types.Instruction, error) {
	escrow, vault, err := c.Addresses(p.Maker, p.Seed)
	if err != nil {
		return types.Instruction{}, err
	}
	source, err := c.holding(p.MakerHoldingA, p.Maker, p.MintA)
	if err != nil {
		return types.Instruction{}, err
	}
	return types.Instruction{
		ProgramID: c.ProgramID,
		Accounts: []types.AccountMeta{
			types.Meta(p.Maker, true, true),
			types.Meta(p.MintA, false, false),
			types.Meta(p.MintB, false, false),
			types.Meta(source, true, false),
			types.Meta(escrow, true, false),
			types.Meta(vault, true, false),
			types.Meta(c.Custody, false, false),
			types.Meta(solana.SystemProgramID, false, false),
		},
		Data: Instruction{Op: OpMake, Amount: p.Amount, Seed: p.Seed}.Encode(),
	}, nil
}

// Take builds a Take instruction.
func (c Client) Take(p TakeParams) (types.Instruction, error) {
	escrow, vault, err := c.Addresses(p.Maker, p.Seed)
	if err != nil {
		return types.Instruction{}, err
	}
	takerA, err := c.holding(p.TakerHoldingA, p.Taker, p.MintA)
	if err != nil {
		return types.Instruction{}, err
	}
	takerB, err := c.holding(p.TakerHoldingB, p.Taker, p.MintB)
	if err != nil {
		return types.Instruction{}, err
	}
	makerB, err := c.holding(p.MakerHoldingB, p.Maker, p.MintB)
	if err != nil {
		return types.Instruction{}, err
	}
	return types.Instruction{
		ProgramID: c.ProgramID,
		Accounts: []types.AccountMeta{
			types.Meta(p.Taker, true, true),
			types.Meta(p.Maker, false, false),
			types.Meta(escrow, true, false),
			types.Meta(vault, true, false),
			types.Meta(p.MintA, false, false),
			types.Meta(p.MintB, false, false),
			types.Meta(takerA, true, false),
			types.Meta(takerB, true, false),
			types.Meta(makerB, true, false),
			types.Meta(c.Custody, false, false),
		},
		Data: Instruction{Op: OpTake, Amount: p.Amount, Seed: p.Seed}.Encode(),
	}, nil
}

// Refund builds a Refund instruction.
func (c Client) Refund(p RefundParams) (types.Instruction, error) {
	escrow, vault, err := c.Addresses(p.Maker, p.Seed)
	if err != nil {
		return types.Instruction{}, err
	}
	dest, err := c.holding(p.MakerHoldingA, p.Maker, p.MintA)
	if err != nil {
		return types.Instruction{}, err
	}
	return types.Instruction{
		ProgramID: c.ProgramID,
		Accounts: []types.AccountMeta{
			types.Meta(p.Maker, true, true),
			types.Meta(escrow, true, false),
			types.Meta(vault, true, false),
			types.Meta(dest, true, false),
			types.Meta(c.Custody, false, false),
		},
		Data: Instruction{Op: OpRefund, Amount: p.Amount, Seed: p.Seed}.Encode(),
	}, nil
}
