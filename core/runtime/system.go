package runtime

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"escrowswap/core/types"
)

const (
	systemCreateAccount uint32 = 0
	systemTransfer      uint32 = 2
)

// CreateAccount builds a system instruction funding and allocating a new
// account. Both from and newAccount must sign. A newAccount that already
// holds lamports but no data is topped up to lamports rather than rejected.
func CreateAccount(from, newAccount solana.PublicKey, lamports, space uint64, owner solana.PublicKey) types.Instruction {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	_ = enc.WriteUint32(systemCreateAccount, bin.LE)
	_ = enc.WriteUint64(lamports, bin.LE)
	_ = enc.WriteUint64(space, bin.LE)
	_ = enc.WriteBytes(owner[:], false)
	return types.Instruction{
		ProgramID: solana.SystemProgramID,
		Accounts: []types.AccountMeta{
			types.Meta(from, true, true),
			types.Meta(newAccount, true, true),
		},
		Data: buf.Bytes(),
	}
}

// Transfer builds a system instruction moving lamports out of a system owned
// account.
func Transfer(from, to solana.PublicKey, lamports uint64) types.Instruction {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	_ = enc.WriteUint32(systemTransfer, bin.LE)
	_ = enc.WriteUint64(lamports, bin.LE)
	return types.Instruction{
		ProgramID: solana.SystemProgramID,
		Accounts: []types.AccountMeta{
			types.Meta(from, true, true),
			types.Meta(to, true, false),
		},
		Data: buf.Bytes(),
	}
}

// SystemProgram creates accounts and moves lamports between them.
type SystemProgram struct{}

// Process implements Program.
func (SystemProgram) Process(ctx *Context, accounts []*AccountInfo, data []byte) error {
	dec := bin.NewBinDecoder(data)
	tag, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return ErrInvalidInstructionData
	}
	switch tag {
	case systemCreateAccount:
		lamports, err := dec.ReadUint64(bin.LE)
		if err != nil {
			return ErrInvalidInstructionData
		}
		space, err := dec.ReadUint64(bin.LE)
		if err != nil {
			return ErrInvalidInstructionData
		}
		raw, err := dec.ReadNBytes(solana.PublicKeyLength)
		if err != nil {
			return ErrInvalidInstructionData
		}
		return createAccount(ctx, accounts, lamports, space, solana.PublicKeyFromBytes(raw))
	case systemTransfer:
		lamports, err := dec.ReadUint64(bin.LE)
		if err != nil {
			return ErrInvalidInstructionData
		}
		return transfer(ctx, accounts, lamports)
	default:
		return ErrInvalidInstructionData
	}
}

// MaxAccountDataSize caps the space CreateAccount may allocate.
const MaxAccountDataSize = 10 * 1024 * 1024

func createAccount(ctx *Context, accounts []*AccountInfo, lamports, space uint64, owner solana.PublicKey) error {
	if len(accounts) < 2 {
		return ErrNotEnoughAccountKeys
	}
	from, target := accounts[0], accounts[1]
	if !from.IsSigner() || !target.IsSigner() {
		return ErrMissingRequiredSignature
	}
	if len(target.Data()) != 0 || !target.IsOwnedBy(solana.SystemProgramID) {
		ctx.Log("Create Account: account %s already in use", target.Key())
		return ErrAccountAlreadyInUse
	}
	if space > MaxAccountDataSize {
		return ErrInvalidArgument
	}
	// A target that was sent lamports before creation is only topped up to
	// the requested balance.
	if held := target.Lamports(); held < lamports {
		if err := debit(ctx, from, target, lamports-held); err != nil {
			return err
		}
	}
	target.Allocate(space)
	target.Assign(owner)
	return nil
}

func transfer(ctx *Context, accounts []*AccountInfo, lamports uint64) error {
	if len(accounts) < 2 {
		return ErrNotEnoughAccountKeys
	}
	from, to := accounts[0], accounts[1]
	if !from.IsSigner() {
		return ErrMissingRequiredSignature
	}
	if len(from.Data()) != 0 {
		return fmt.Errorf("%w: transfer source carries data", ErrInvalidArgument)
	}
	return debit(ctx, from, to, lamports)
}

func debit(ctx *Context, from, to *AccountInfo, lamports uint64) error {
	if from.Lamports() < lamports {
		ctx.Log("Transfer: insufficient lamports %d, need %d", from.Lamports(), lamports)
		return ErrInsufficientFunds
	}
	if from.Key() == to.Key() {
		return nil
	}
	sum, overflow := new(uint256.Int).AddOverflow(uint256.NewInt(to.Lamports()), uint256.NewInt(lamports))
	if overflow || !sum.IsUint64() {
		return ErrArithmeticOverflow
	}
	from.SetLamports(from.Lamports() - lamports)
	to.SetLamports(sum.Uint64())
	return nil
}
