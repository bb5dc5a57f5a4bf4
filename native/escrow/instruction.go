package escrow

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// Opcode selects the escrow transition.
type Opcode uint8

const (
	OpMake Opcode = iota
	OpTake
	OpRefund
)

func (o Opcode) String() string {
	switch o {
	case OpMake:
		return "make"
	case OpTake:
		return "take"
	case OpRefund:
		return "refund"
	default:
		return fmt.Sprintf("opcode(%d)", uint8(o))
	}
}

// InstructionSize is the length of an encoded instruction. Longer payloads
// are accepted and the excess ignored.
const InstructionSize = 17

// Instruction is a decoded escrow instruction payload.
type Instruction struct {
	Op     Opcode
	Amount uint64
	Seed   uint64
}

// Encode returns the 17-byte wire form: opcode, amount and seed, integers
// little-endian.
func (ix Instruction) Encode() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, InstructionSize))
	enc := bin.NewBinEncoder(buf)
	_ = enc.WriteUint8(uint8(ix.Op))
	_ = enc.WriteUint64(ix.Amount, bin.LE)
	_ = enc.WriteUint64(ix.Seed, bin.LE)
	return buf.Bytes()
}

// DecodeInstruction parses an instruction payload.
func DecodeInstruction(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return Instruction{}, ErrInvalidInstruction
	}
	op := Opcode(data[0])
	if op > OpRefund || len(data) < InstructionSize {
		return Instruction{}, ErrInvalidInstruction
	}
	dec := bin.NewBinDecoder(data[1:InstructionSize])
	amount, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return Instruction{}, ErrInvalidInstruction
	}
	seed, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return Instruction{}, ErrInvalidInstruction
	}
	return Instruction{Op: op, Amount: amount, Seed: seed}, nil
}
