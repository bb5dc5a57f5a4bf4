package escrow

import (
	"fmt"

	"escrowswap/core/runtime"
)

// Error enumerates the escrow program's own failures.
type Error uint32

const (
	ErrInvalidInstruction Error = iota
	ErrNotRentExempt
	ErrExpectedAmountMismatch
	ErrAmountOverflow
	ErrInvalidState
	ErrInvalidAuthority
	ErrInvalidTokenProgram
	ErrInvalidTokenMint
	ErrInvalidEscrowAccount
)

var errorMessages = map[Error]string{
	ErrInvalidInstruction:     "invalid instruction",
	ErrNotRentExempt:          "lamport balance below rent-exempt threshold",
	ErrExpectedAmountMismatch: "declared amount does not match escrow",
	ErrAmountOverflow:         "amount overflow",
	ErrInvalidState:           "escrow is not open",
	ErrInvalidAuthority:       "signer is not the escrow maker",
	ErrInvalidTokenProgram:    "unexpected custody program",
	ErrInvalidTokenMint:       "mint does not match escrow",
	ErrInvalidEscrowAccount:   "derived address mismatch",
}

// boundaryCodes maps every escrow error onto the code reported to callers.
var boundaryCodes = map[Error]runtime.ProgramError{
	ErrInvalidInstruction:     runtime.Custom(0),
	ErrNotRentExempt:          runtime.Custom(1),
	ErrExpectedAmountMismatch: runtime.Custom(2),
	ErrAmountOverflow:         runtime.Custom(3),
	ErrInvalidState:           runtime.Custom(4),
	ErrInvalidAuthority:       runtime.Custom(5),
	ErrInvalidTokenProgram:    runtime.Custom(6),
	ErrInvalidTokenMint:       runtime.Custom(7),
	ErrInvalidEscrowAccount:   runtime.Custom(8),
}

func (e Error) Error() string {
	if msg, ok := errorMessages[e]; ok {
		return "escrow: " + msg
	}
	return fmt.Sprintf("escrow: unknown error %d", uint32(e))
}

// ProgramError implements runtime.Coder.
func (e Error) ProgramError() runtime.ProgramError {
	if code, ok := boundaryCodes[e]; ok {
		return code
	}
	return runtime.ErrInvalidArgument
}
