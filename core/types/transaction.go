package types

import (
	"errors"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/gagliardetto/solana-go"
)

var (
	ErrNoInstructions    = errors.New("transaction: no instructions")
	ErrSignatureCount    = errors.New("transaction: signature count does not match signers")
	ErrInvalidSignature  = errors.New("transaction: invalid signature")
	ErrMissingSigningKey = errors.New("transaction: missing signing key")
)

// Transaction bundles instructions that commit or abort together. Every key in
// Signers must provide a signature over the message; Signatures[i] belongs to
// Signers[i].
type Transaction struct {
	Nonce        uint64             `json:"nonce"`
	Signers      []solana.PublicKey `json:"signers"`
	Instructions []Instruction      `json:"instructions"`
	Signatures   []solana.Signature `json:"signatures"`
}

type messageMeta struct {
	PublicKey  solana.PublicKey
	IsSigner   bool
	IsWritable bool
}

type messageInstruction struct {
	ProgramID solana.PublicKey
	Accounts  []messageMeta
	Data      []byte
}

type message struct {
	Nonce        uint64
	Signers      []solana.PublicKey
	Instructions []messageInstruction
}

// Message returns the canonical RLP encoding of everything the signatures
// cover.
func (tx *Transaction) Message() ([]byte, error) {
	msg := message{
		Nonce:        tx.Nonce,
		Signers:      tx.Signers,
		Instructions: make([]messageInstruction, len(tx.Instructions)),
	}
	for i, ix := range tx.Instructions {
		metas := make([]messageMeta, len(ix.Accounts))
		for j, m := range ix.Accounts {
			metas[j] = messageMeta{PublicKey: m.PublicKey, IsSigner: m.IsSigner, IsWritable: m.IsWritable}
		}
		msg.Instructions[i] = messageInstruction{ProgramID: ix.ProgramID, Accounts: metas, Data: ix.Data}
	}
	return rlp.EncodeToBytes(&msg)
}

// Hash identifies the transaction by the keccak256 digest of its message.
func (tx *Transaction) Hash() ([32]byte, error) {
	msg, err := tx.Message()
	if err != nil {
		return [32]byte{}, err
	}
	var out [32]byte
	copy(out[:], ethcrypto.Keccak256(msg))
	return out, nil
}

// Sign fills Signatures using the supplied keys. Every entry of Signers must
// have a matching key.
func (tx *Transaction) Sign(keys ...solana.PrivateKey) error {
	msg, err := tx.Message()
	if err != nil {
		return err
	}
	byKey := make(map[solana.PublicKey]solana.PrivateKey, len(keys))
	for _, k := range keys {
		byKey[k.PublicKey()] = k
	}
	sigs := make([]solana.Signature, len(tx.Signers))
	for i, signer := range tx.Signers {
		key, ok := byKey[signer]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingSigningKey, signer)
		}
		sig, err := key.Sign(msg)
		if err != nil {
			return err
		}
		sigs[i] = sig
	}
	tx.Signatures = sigs
	return nil
}

// VerifySignatures checks every signer's signature over the message.
func (tx *Transaction) VerifySignatures() error {
	if len(tx.Instructions) == 0 {
		return ErrNoInstructions
	}
	if len(tx.Signatures) != len(tx.Signers) {
		return ErrSignatureCount
	}
	msg, err := tx.Message()
	if err != nil {
		return err
	}
	for i, signer := range tx.Signers {
		if !tx.Signatures[i].Verify(signer, msg) {
			return fmt.Errorf("%w: %s", ErrInvalidSignature, signer)
		}
	}
	return nil
}

// HasSigner reports whether key is one of the declared signers.
func (tx *Transaction) HasSigner(key solana.PublicKey) bool {
	for _, s := range tx.Signers {
		if s == key {
			return true
		}
	}
	return false
}
