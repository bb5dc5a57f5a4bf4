package escrow

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	"escrowswap/core/runtime"
)

func sampleRecord() *Record {
	return &Record{
		Maker:          solana.NewWallet().PublicKey(),
		MintA:          solana.NewWallet().PublicKey(),
		MintB:          solana.NewWallet().PublicKey(),
		ReceiveAccount: solana.NewWallet().PublicKey(),
		Amount:         100,
		Bump:           254,
	}
}

func TestRecordLayout(t *testing.T) {
	r := sampleRecord()
	data := r.Bytes()
	if len(data) != RecordSize {
		t.Fatalf("record size %d", len(data))
	}
	if !bytes.Equal(data[0:8], Discriminator[:]) {
		t.Fatalf("discriminator bytes %v", data[0:8])
	}
	checks := []struct {
		name   string
		offset int
		key    solana.PublicKey
	}{
		{"maker", 8, r.Maker},
		{"mint_a", 40, r.MintA},
		{"mint_b", 72, r.MintB},
		{"receive_account", 104, r.ReceiveAccount},
	}
	for _, c := range checks {
		if !bytes.Equal(data[c.offset:c.offset+32], c.key[:]) {
			t.Fatalf("%s not at offset %d", c.name, c.offset)
		}
	}
	if got := binary.LittleEndian.Uint64(data[136:144]); got != 100 {
		t.Fatalf("amount at 136: got %d", got)
	}
	if data[144] != 254 {
		t.Fatalf("bump at 144: got %d", data[144])
	}
}

func TestParseRecordStates(t *testing.T) {
	r := sampleRecord()
	parsed, state, err := ParseRecord(r.Bytes())
	if err != nil || state != StateOpen {
		t.Fatalf("open record: state=%s err=%v", state, err)
	}
	if *parsed != *r {
		t.Fatalf("parsed %+v want %+v", parsed, r)
	}

	if _, state, err := ParseRecord(nil); err != nil || state != StateUninitialized {
		t.Fatalf("empty storage: state=%s err=%v", state, err)
	}

	cleared := r.Bytes()
	ClearRecord(cleared)
	if !bytes.Equal(cleared, make([]byte, RecordSize)) {
		t.Fatalf("ClearRecord left non-zero bytes")
	}
	if rec, state, err := ParseRecord(cleared); err != nil || state != StateClosed || rec != nil {
		t.Fatalf("cleared record: rec=%v state=%s err=%v", rec, state, err)
	}

	tampered := r.Bytes()
	tampered[3] ^= 0xff
	if _, state, _ := ParseRecord(tampered); state != StateClosed {
		t.Fatalf("tampered discriminator parsed as %s", state)
	}

	if _, _, err := ParseRecord(make([]byte, RecordSize-1)); !errors.Is(err, runtime.ErrInvalidAccountData) {
		t.Fatalf("short record: expected InvalidAccountData, got %v", err)
	}
	if err := r.Pack(make([]byte, 10)); !errors.Is(err, runtime.ErrInvalidAccountData) {
		t.Fatalf("pack into short buffer: %v", err)
	}
}
