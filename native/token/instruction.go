package token

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"escrowswap/core/types"
)

// Instruction tags understood by the custody program.
const (
	TagTransfer           uint8 = 3
	TagMintTo             uint8 = 7
	TagCloseAccount       uint8 = 9
	TagInitializeAccount3 uint8 = 18
	TagInitializeMint2    uint8 = 20
)

func encode(write func(enc *bin.Encoder)) []byte {
	buf := new(bytes.Buffer)
	write(bin.NewBinEncoder(buf))
	return buf.Bytes()
}

// InitializeMint2 sets up mint with the given decimals and mint authority.
func InitializeMint2(programID, mint solana.PublicKey, decimals uint8, authority solana.PublicKey) types.Instruction {
	return types.Instruction{
		ProgramID: programID,
		Accounts:  []types.AccountMeta{types.Meta(mint, true, false)},
		Data: encode(func(enc *bin.Encoder) {
			_ = enc.WriteUint8(TagInitializeMint2)
			_ = enc.WriteUint8(decimals)
			_ = enc.WriteBytes(authority[:], false)
			_ = enc.WriteUint8(0)
		}),
	}
}

// InitializeAccount3 binds holding to mint and owner.
func InitializeAccount3(programID, holding, mint, owner solana.PublicKey) types.Instruction {
	return types.Instruction{
		ProgramID: programID,
		Accounts: []types.AccountMeta{
			types.Meta(holding, true, false),
			types.Meta(mint, false, false),
		},
		Data: encode(func(enc *bin.Encoder) {
			_ = enc.WriteUint8(TagInitializeAccount3)
			_ = enc.WriteBytes(owner[:], false)
		}),
	}
}

// Transfer moves amount between two holdings of the same mint. authority
// must own source and sign.
func Transfer(programID, source, destination, authority solana.PublicKey, amount uint64) types.Instruction {
	return types.Instruction{
		ProgramID: programID,
		Accounts: []types.AccountMeta{
			types.Meta(source, true, false),
			types.Meta(destination, true, false),
			types.Meta(authority, false, true),
		},
		Data: encode(func(enc *bin.Encoder) {
			_ = enc.WriteUint8(TagTransfer)
			_ = enc.WriteUint64(amount, bin.LE)
		}),
	}
}

// MintTo issues new supply into destination.
func MintTo(programID, mint, destination, authority solana.PublicKey, amount uint64) types.Instruction {
	return types.Instruction{
		ProgramID: programID,
		Accounts: []types.AccountMeta{
			types.Meta(mint, true, false),
			types.Meta(destination, true, false),
			types.Meta(authority, false, true),
		},
		Data: encode(func(enc *bin.Encoder) {
			_ = enc.WriteUint8(TagMintTo)
			_ = enc.WriteUint64(amount, bin.LE)
		}),
	}
}

// CloseAccount empties an emptied holding's lamports into destination.
func CloseAccount(programID, holding, destination, authority solana.PublicKey) types.Instruction {
	return types.Instruction{
		ProgramID: programID,
		Accounts: []types.AccountMeta{
			types.Meta(holding, true, false),
			types.Meta(destination, true, false),
			types.Meta(authority, false, true),
		},
		Data: []byte{TagCloseAccount},
	}
}
