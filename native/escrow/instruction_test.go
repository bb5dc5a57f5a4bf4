package escrow

import (
	"errors"
	"math"
	"testing"
)

func TestInstructionRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 100, 1 << 32, math.MaxUint64 - 1, math.MaxUint64}
	for _, op := range []Opcode{OpMake, OpTake, OpRefund} {
		for _, amount := range values {
			for _, seed := range values {
				in := Instruction{Op: op, Amount: amount, Seed: seed}
				data := in.Encode()
				if len(data) != InstructionSize {
					t.Fatalf("encoded length %d", len(data))
				}
				out, err := DecodeInstruction(data)
				if err != nil {
					t.Fatalf("decode %+v: %v", in, err)
				}
				if out != in {
					t.Fatalf("round trip mismatch: got %+v want %+v", out, in)
				}
			}
		}
	}
}

func TestInstructionWireLayout(t *testing.T) {
	data := Instruction{Op: OpTake, Amount: 0x0807060504030201, Seed: 1}.Encode()
	want := []byte{1, 1, 2, 3, 4, 5, 6, 7, 8, 1, 0, 0, 0, 0, 0, 0, 0}
	if string(data) != string(want) {
		t.Fatalf("wire bytes: got %v want %v", data, want)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	valid := Instruction{Op: OpRefund, Amount: 5, Seed: 9}.Encode()
	cases := map[string][]byte{
		"empty":          nil,
		"opcode only":    {0},
		"sixteen bytes":  valid[:16],
		"unknown opcode": append([]byte{3}, valid[1:]...),
		"high opcode":    append([]byte{0xff}, valid[1:]...),
	}
	for name, data := range cases {
		if _, err := DecodeInstruction(data); !errors.Is(err, ErrInvalidInstruction) {
			t.Fatalf("%s: expected ErrInvalidInstruction, got %v", name, err)
		}
	}
}

func TestDecodeIgnoresTrailingBytes(t *testing.T) {
	in := Instruction{Op: OpMake, Amount: 100, Seed: 1}
	out, err := DecodeInstruction(append(in.Encode(), 0xAA, 0xBB))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Fatalf("got %+v want %+v", out, in)
	}
}
