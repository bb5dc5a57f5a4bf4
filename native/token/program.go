package token

import (
	"log/slog"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"escrowswap/core/runtime"
)

// ProgramID is the default address of the custody program.
var ProgramID = solana.TokenProgramID

// Program is the custody program: mints and per-owner holdings of fungible
// assets.
type Program struct {
	logger *slog.Logger
}

// NewProgram returns a custody program logging through slog.Default().
func NewProgram() *Program {
	return &Program{logger: slog.Default()}
}

// SetLogger overrides the logger. Passing nil restores slog.Default().
func (p *Program) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	p.logger = logger
}

func (p *Program) log() *slog.Logger {
	if p.logger == nil {
		return slog.Default()
	}
	return p.logger
}

// Process implements runtime.Program.
func (p *Program) Process(ctx *runtime.Context, accounts []*runtime.AccountInfo, data []byte) error {
	if len(data) == 0 {
		return ErrInvalidInstruction
	}
	dec := bin.NewBinDecoder(data[1:])
	switch data[0] {
	case TagInitializeMint2:
		decimals, err := dec.ReadUint8()
		if err != nil {
			return ErrInvalidInstruction
		}
		raw, err := dec.ReadNBytes(solana.PublicKeyLength)
		if err != nil {
			return ErrInvalidInstruction
		}
		ctx.Log("Instruction: InitializeMint2")
		return p.initializeMint(ctx, accounts, decimals, solana.PublicKeyFromBytes(raw))
	case TagInitializeAccount3:
		raw, err := dec.ReadNBytes(solana.PublicKeyLength)
		if err != nil {
			return ErrInvalidInstruction
		}
		ctx.Log("Instruction: InitializeAccount3")
		return p.initializeHolding(ctx, accounts, solana.PublicKeyFromBytes(raw))
	case TagTransfer:
		amount, err := dec.ReadUint64(bin.LE)
		if err != nil {
			return ErrInvalidInstruction
		}
		ctx.Log("Instruction: Transfer")
		return p.transfer(ctx, accounts, amount)
	case TagMintTo:
		amount, err := dec.ReadUint64(bin.LE)
		if err != nil {
			return ErrInvalidInstruction
		}
		ctx.Log("Instruction: MintTo")
		return p.mintTo(ctx, accounts, amount)
	case TagCloseAccount:
		ctx.Log("Instruction: CloseAccount")
		return p.closeAccount(ctx, accounts)
	default:
		return ErrInvalidInstruction
	}
}

func (p *Program) owned(ctx *runtime.Context, info *runtime.AccountInfo) error {
	if !info.IsOwnedBy(ctx.ProgramID()) {
		return runtime.ErrIncorrectProgramID
	}
	return nil
}

func (p *Program) initializeMint(ctx *runtime.Context, accounts []*runtime.AccountInfo, decimals uint8, authority solana.PublicKey) error {
	if len(accounts) < 1 {
		return runtime.ErrNotEnoughAccountKeys
	}
	mint := accounts[0]
	if err := p.owned(ctx, mint); err != nil {
		return err
	}
	if len(mint.Data()) != MintSize {
		return ErrInvalidMint
	}
	if mintInitialized(mint.Data()) {
		return ErrAlreadyInUse
	}
	if !ctx.Rent().IsExempt(mint.Lamports(), MintSize) {
		return ErrNotRentExempt
	}
	m := &Mint{Authority: &authority, Decimals: decimals, IsInitialized: true}
	copy(mint.Data(), m.Pack())
	return nil
}

func (p *Program) initializeHolding(ctx *runtime.Context, accounts []*runtime.AccountInfo, owner solana.PublicKey) error {
	if len(accounts) < 2 {
		return runtime.ErrNotEnoughAccountKeys
	}
	holding, mint := accounts[0], accounts[1]
	if err := p.owned(ctx, holding); err != nil {
		return err
	}
	if len(holding.Data()) != HoldingSize {
		return ErrInvalidInstruction
	}
	if holdingState(holding.Data()) != HoldingUninitialized {
		return ErrAlreadyInUse
	}
	if !ctx.Rent().IsExempt(holding.Lamports(), HoldingSize) {
		return ErrNotRentExempt
	}
	if !mint.IsOwnedBy(ctx.ProgramID()) {
		return ErrInvalidMint
	}
	if _, err := UnpackMint(mint.Data()); err != nil {
		return ErrInvalidMint
	}
	h := &Holding{Mint: mint.Key(), Owner: owner, State: HoldingInitialized}
	copy(holding.Data(), h.Pack())
	return nil
}

func (p *Program) loadHolding(ctx *runtime.Context, info *runtime.AccountInfo) (*Holding, error) {
	if err := p.owned(ctx, info); err != nil {
		return nil, err
	}
	return UnpackHolding(info.Data())
}

func authorize(info *runtime.AccountInfo, expected solana.PublicKey) error {
	if info.Key() != expected {
		return ErrOwnerMismatch
	}
	if !info.IsSigner() {
		return runtime.ErrMissingRequiredSignature
	}
	return nil
}

func checkedAdd(a, b uint64) (uint64, error) {
	sum, overflow := new(uint256.Int).AddOverflow(uint256.NewInt(a), uint256.NewInt(b))
	if overflow || !sum.IsUint64() {
		return 0, ErrOverflow
	}
	return sum.Uint64(), nil
}

func (p *Program) transfer(ctx *runtime.Context, accounts []*runtime.AccountInfo, amount uint64) error {
	if len(accounts) < 3 {
		return runtime.ErrNotEnoughAccountKeys
	}
	srcInfo, dstInfo, authority := accounts[0], accounts[1], accounts[2]
	src, err := p.loadHolding(ctx, srcInfo)
	if err != nil {
		return err
	}
	dst, err := p.loadHolding(ctx, dstInfo)
	if err != nil {
		return err
	}
	if src.Mint != dst.Mint {
		return ErrMintMismatch
	}
	if err := authorize(authority, src.Owner); err != nil {
		return err
	}
	if src.Amount < amount {
		return ErrInsufficientFunds
	}
	if srcInfo.Key() == dstInfo.Key() {
		return nil
	}
	credited, err := checkedAdd(dst.Amount, amount)
	if err != nil {
		return err
	}
	src.Amount -= amount
	dst.Amount = credited
	copy(srcInfo.Data(), src.Pack())
	copy(dstInfo.Data(), dst.Pack())
	p.log().Debug("custody transfer",
		"mint", src.Mint.String(),
		"from", srcInfo.Key().String(),
		"to", dstInfo.Key().String(),
		"amount", amount)
	return nil
}

func (p *Program) mintTo(ctx *runtime.Context, accounts []*runtime.AccountInfo, amount uint64) error {
	if len(accounts) < 3 {
		return runtime.ErrNotEnoughAccountKeys
	}
	mintInfo, dstInfo, authority := accounts[0], accounts[1], accounts[2]
	if err := p.owned(ctx, mintInfo); err != nil {
		return err
	}
	mint, err := UnpackMint(mintInfo.Data())
	if err != nil {
		return err
	}
	dst, err := p.loadHolding(ctx, dstInfo)
	if err != nil {
		return err
	}
	if dst.Mint != mintInfo.Key() {
		return ErrMintMismatch
	}
	if mint.Authority == nil {
		return ErrOwnerMismatch
	}
	if err := authorize(authority, *mint.Authority); err != nil {
		return err
	}
	if mint.Supply, err = checkedAdd(mint.Supply, amount); err != nil {
		return err
	}
	if dst.Amount, err = checkedAdd(dst.Amount, amount); err != nil {
		return err
	}
	copy(mintInfo.Data(), mint.Pack())
	copy(dstInfo.Data(), dst.Pack())
	return nil
}

func (p *Program) closeAccount(ctx *runtime.Context, accounts []*runtime.AccountInfo) error {
	if len(accounts) < 3 {
		return runtime.ErrNotEnoughAccountKeys
	}
	holdingInfo, dest, authority := accounts[0], accounts[1], accounts[2]
	if holdingInfo.Key() == dest.Key() {
		return runtime.ErrInvalidAccountData
	}
	holding, err := p.loadHolding(ctx, holdingInfo)
	if err != nil {
		return err
	}
	if holding.Amount != 0 {
		return ErrNonNativeHasBalance
	}
	if err := authorize(authority, holding.Owner); err != nil {
		return err
	}
	credited, err := checkedAdd(dest.Lamports(), holdingInfo.Lamports())
	if err != nil {
		return err
	}
	dest.SetLamports(credited)
	holdingInfo.SetLamports(0)
	clear(holdingInfo.Data())
	return nil
}
