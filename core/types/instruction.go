package types

import "github.com/gagliardetto/solana-go"

// AccountMeta names one account an instruction touches, in positional order.
type AccountMeta struct {
	PublicKey  solana.PublicKey `json:"pubkey"`
	IsSigner   bool             `json:"isSigner"`
	IsWritable bool             `json:"isWritable"`
}

// Meta builds an AccountMeta.
func Meta(key solana.PublicKey, writable, signer bool) AccountMeta {
	return AccountMeta{PublicKey: key, IsSigner: signer, IsWritable: writable}
}

// Instruction is a single program invocation: the callee, its accounts and an
// opaque payload interpreted by the callee.
type Instruction struct {
	ProgramID solana.PublicKey `json:"programId"`
	Accounts  []AccountMeta    `json:"accounts"`
	Data      []byte           `json:"data"`
}
