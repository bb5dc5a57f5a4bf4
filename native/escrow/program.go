package escrow

import (
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"escrowswap/core/runtime"
	"escrowswap/native/token"
)

// DefaultProgramID is the address the escrow program is deployed at unless
// configured otherwise.
var DefaultProgramID = solana.MustPublicKeyFromBase58("EscrowSwap111111111111111111111111111111111")

// Program is the atomic swap escrow. Its identity and the custody program it
// trusts are fixed at construction and passed into every derivation.
type Program struct {
	id      solana.PublicKey
	custody solana.PublicKey
	logger  *slog.Logger
}

// NewProgram creates the escrow program deployed at id that holds assets in
// custody.
func NewProgram(id, custody solana.PublicKey) *Program {
	return &Program{id: id, custody: custody, logger: slog.Default()}
}

// ID returns the program's address.
func (p *Program) ID() solana.PublicKey { return p.id }

// Custody returns the trusted custody program.
func (p *Program) Custody() solana.PublicKey { return p.custody }

// SetLogger overrides the logger. Passing nil restores slog.Default().
func (p *Program) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	p.logger = logger
}

// Process implements runtime.Program.
func (p *Program) Process(ctx *runtime.Context, accounts []*runtime.AccountInfo, data []byte) error {
	if ctx.ProgramID() != p.id {
		return runtime.ErrIncorrectProgramID
	}
	ix, err := DecodeInstruction(data)
	if err != nil {
		return err
	}
	ctx.Log("Instruction: %s", ix.Op)
	switch ix.Op {
	case OpMake:
		err = p.processMake(ctx, accounts, ix.Amount, ix.Seed)
	case OpTake:
		err = p.processTake(ctx, accounts, ix.Amount, ix.Seed)
	case OpRefund:
		err = p.processRefund(ctx, accounts, ix.Amount, ix.Seed)
	default:
		err = ErrInvalidInstruction
	}
	if err != nil {
		p.logger.Debug("escrow instruction failed", "op", ix.Op.String(), "seed", ix.Seed, "error", err.Error())
	}
	return err
}

// loadOpen returns the open record held by info. Storage that is not owned by
// the program or has the wrong size is InvalidAccountData; anything else
// without the discriminator is InvalidState.
func (p *Program) loadOpen(info *runtime.AccountInfo) (*Record, error) {
	if len(info.Data()) == 0 {
		return nil, ErrInvalidState
	}
	if !info.IsOwnedBy(p.id) {
		return nil, runtime.ErrInvalidAccountData
	}
	record, state, err := ParseRecord(info.Data())
	if err != nil {
		return nil, err
	}
	if state != StateOpen {
		return nil, ErrInvalidState
	}
	return record, nil
}

// verifyAddresses checks that escrow and vault are the accounts derived from
// the stored maker, the declared seed and the stored bump. It returns the
// vault bump for signing.
func (p *Program) verifyAddresses(record *Record, seed uint64, escrow, vault solana.PublicKey) (uint8, error) {
	expected, err := escrowAddressWithBump(p.id, record.Maker, seed, record.Bump)
	if err != nil || expected != escrow {
		return 0, ErrInvalidEscrowAccount
	}
	expectedVault, vaultBump, err := FindVaultAddress(p.id, escrow)
	if err != nil || expectedVault != vault {
		return 0, ErrInvalidEscrowAccount
	}
	return vaultBump, nil
}

// vaultBalance reads the asset A balance of a vault already checked by
// verifyAddresses. The balance may exceed the recorded amount since anyone
// can transfer into the vault.
func (p *Program) vaultBalance(vault *runtime.AccountInfo) (uint64, error) {
	if !vault.IsOwnedBy(p.custody) {
		return 0, runtime.ErrInvalidAccountData
	}
	holding, err := token.UnpackHolding(vault.Data())
	if err != nil {
		return 0, runtime.ErrInvalidAccountData
	}
	return holding.Amount, nil
}

// closeEscrow zeroes the record and moves its whole balance to dest.
func closeEscrow(escrow, dest *runtime.AccountInfo) error {
	sum, overflow := new(uint256.Int).AddOverflow(uint256.NewInt(dest.Lamports()), uint256.NewInt(escrow.Lamports()))
	if overflow || !sum.IsUint64() {
		return ErrAmountOverflow
	}
	dest.SetLamports(sum.Uint64())
	escrow.SetLamports(0)
	ClearRecord(escrow.Data())
	return nil
}
