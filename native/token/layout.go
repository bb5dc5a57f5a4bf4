package token

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	// MintSize is the length of a mint account's data.
	MintSize = 82
	// HoldingSize is the length of a holding account's data.
	HoldingSize = 165
)

// Holding account offsets.
const (
	holdingMintOffset   = 0
	holdingOwnerOffset  = 32
	holdingAmountOffset = 64
	holdingStateOffset  = 108
)

// HoldingState is the lifecycle byte of a holding account.
type HoldingState uint8

const (
	HoldingUninitialized HoldingState = 0
	HoldingInitialized   HoldingState = 1
	HoldingFrozen        HoldingState = 2
)

// Mint describes a fungible asset.
type Mint struct {
	Authority     *solana.PublicKey
	Supply        uint64
	Decimals      uint8
	IsInitialized bool
}

// Holding is one owner's balance of one mint.
type Holding struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
	State  HoldingState
}

func writeOptionKey(enc *bin.Encoder, key *solana.PublicKey) {
	if key == nil {
		_ = enc.WriteUint32(0, bin.LE)
		_ = enc.WriteBytes(make([]byte, solana.PublicKeyLength), false)
		return
	}
	_ = enc.WriteUint32(1, bin.LE)
	_ = enc.WriteBytes(key[:], false)
}

func readOptionKey(dec *bin.Decoder) (*solana.PublicKey, error) {
	tag, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return nil, err
	}
	raw, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return nil, err
	}
	if tag == 0 {
		return nil, nil
	}
	key := solana.PublicKeyFromBytes(raw)
	return &key, nil
}

// Pack encodes the mint into its 82-byte account representation.
func (m *Mint) Pack() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, MintSize))
	enc := bin.NewBinEncoder(buf)
	writeOptionKey(enc, m.Authority)
	_ = enc.WriteUint64(m.Supply, bin.LE)
	_ = enc.WriteUint8(m.Decimals)
	_ = enc.WriteBool(m.IsInitialized)
	// No freeze authority.
	writeOptionKey(enc, nil)
	return buf.Bytes()
}

// UnpackMint decodes an initialized mint.
func UnpackMint(data []byte) (*Mint, error) {
	if len(data) != MintSize {
		return nil, ErrInvalidMint
	}
	dec := bin.NewBinDecoder(data)
	authority, err := readOptionKey(dec)
	if err != nil {
		return nil, ErrInvalidMint
	}
	m := &Mint{Authority: authority}
	if m.Supply, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, ErrInvalidMint
	}
	if m.Decimals, err = dec.ReadUint8(); err != nil {
		return nil, ErrInvalidMint
	}
	if m.IsInitialized, err = dec.ReadBool(); err != nil {
		return nil, ErrInvalidMint
	}
	if !m.IsInitialized {
		return nil, ErrUninitializedState
	}
	return m, nil
}

// Pack encodes the holding into its 165-byte account representation. The
// delegate, native and close-authority fields are always empty.
func (h *Holding) Pack() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, HoldingSize))
	enc := bin.NewBinEncoder(buf)
	_ = enc.WriteBytes(h.Mint[:], false)
	_ = enc.WriteBytes(h.Owner[:], false)
	_ = enc.WriteUint64(h.Amount, bin.LE)
	writeOptionKey(enc, nil) // delegate
	_ = enc.WriteUint8(uint8(h.State))
	_ = enc.WriteUint32(0, bin.LE) // is_native
	_ = enc.WriteUint64(0, bin.LE)
	_ = enc.WriteUint64(0, bin.LE) // delegated_amount
	writeOptionKey(enc, nil)       // close_authority
	return buf.Bytes()
}

// UnpackHolding decodes an initialized holding account.
func UnpackHolding(data []byte) (*Holding, error) {
	if len(data) != HoldingSize {
		return nil, ErrInvalidInstruction
	}
	dec := bin.NewBinDecoder(data)
	h := &Holding{}
	raw, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return nil, ErrUninitializedState
	}
	h.Mint = solana.PublicKeyFromBytes(raw)
	if raw, err = dec.ReadNBytes(solana.PublicKeyLength); err != nil {
		return nil, ErrUninitializedState
	}
	h.Owner = solana.PublicKeyFromBytes(raw)
	if h.Amount, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, ErrUninitializedState
	}
	if _, err = readOptionKey(dec); err != nil {
		return nil, ErrUninitializedState
	}
	state, err := dec.ReadUint8()
	if err != nil {
		return nil, ErrUninitializedState
	}
	h.State = HoldingState(state)
	if h.State == HoldingUninitialized {
		return nil, ErrUninitializedState
	}
	return h, nil
}

func holdingState(data []byte) HoldingState {
	if len(data) != HoldingSize {
		return HoldingUninitialized
	}
	return HoldingState(data[holdingStateOffset])
}

func mintInitialized(data []byte) bool {
	return len(data) == MintSize && data[45] != 0
}
