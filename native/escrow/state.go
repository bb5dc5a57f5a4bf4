package escrow

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"escrowswap/core/runtime"
)

// RecordSize is the length of an escrow record account.
const RecordSize = 145

// Record field offsets.
const (
	discriminatorOffset  = 0
	makerOffset          = 8
	mintAOffset          = 40
	mintBOffset          = 72
	receiveAccountOffset = 104
	amountOffset         = 136
	bumpOffset           = 144
)

var errBadRecordSize = fmt.Errorf("escrow: record must be %d bytes: %w", RecordSize, runtime.ErrInvalidAccountData)

// Discriminator tags an open escrow record.
var Discriminator = [8]byte{139, 11, 230, 78, 92, 65, 103, 116}

// State is the lifecycle position of an escrow account.
type State uint8

const (
	// StateUninitialized means the account has never held a record.
	StateUninitialized State = iota
	// StateOpen means the record is live and its vault funded.
	StateOpen
	// StateClosed means the storage exists but carries no valid record,
	// either because it was taken or refunded or because it is garbage.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "uninitialized"
	}
}

// Record is an open escrow.
type Record struct {
	Maker          solana.PublicKey
	MintA          solana.PublicKey
	MintB          solana.PublicKey
	ReceiveAccount solana.PublicKey
	Amount         uint64
	Bump           uint8
}

// ParseRecord classifies data and, when it holds an open record, decodes it.
// A length other than zero or RecordSize is reported as errBadRecordSize.
func ParseRecord(data []byte) (*Record, State, error) {
	if len(data) == 0 {
		return nil, StateUninitialized, nil
	}
	if len(data) != RecordSize {
		return nil, StateClosed, errBadRecordSize
	}
	if !bytes.Equal(data[discriminatorOffset:makerOffset], Discriminator[:]) {
		return nil, StateClosed, nil
	}
	return &Record{
		Maker:          solana.PublicKeyFromBytes(data[makerOffset:mintAOffset]),
		MintA:          solana.PublicKeyFromBytes(data[mintAOffset:mintBOffset]),
		MintB:          solana.PublicKeyFromBytes(data[mintBOffset:receiveAccountOffset]),
		ReceiveAccount: solana.PublicKeyFromBytes(data[receiveAccountOffset:amountOffset]),
		Amount:         binary.LittleEndian.Uint64(data[amountOffset:bumpOffset]),
		Bump:           data[bumpOffset],
	}, StateOpen, nil
}

// Pack writes the record, discriminator included, into dst, which must be
// RecordSize bytes long.
func (r *Record) Pack(dst []byte) error {
	if len(dst) != RecordSize {
		return errBadRecordSize
	}
	copy(dst[discriminatorOffset:], Discriminator[:])
	copy(dst[makerOffset:], r.Maker[:])
	copy(dst[mintAOffset:], r.MintA[:])
	copy(dst[mintBOffset:], r.MintB[:])
	copy(dst[receiveAccountOffset:], r.ReceiveAccount[:])
	binary.LittleEndian.PutUint64(dst[amountOffset:], r.Amount)
	dst[bumpOffset] = r.Bump
	return nil
}

// Bytes returns the packed record.
func (r *Record) Bytes() []byte {
	out := make([]byte, RecordSize)
	_ = r.Pack(out)
	return out
}

// ClearRecord zeroes the storage, which leaves it Closed.
func ClearRecord(data []byte) {
	clear(data)
}
