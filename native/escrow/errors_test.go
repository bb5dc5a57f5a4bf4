package escrow

import (
	"testing"

	"escrowswap/core/runtime"
)

func TestEveryErrorHasBoundaryCode(t *testing.T) {
	all := []Error{
		ErrInvalidInstruction,
		ErrNotRentExempt,
		ErrExpectedAmountMismatch,
		ErrAmountOverflow,
		ErrInvalidState,
		ErrInvalidAuthority,
		ErrInvalidTokenProgram,
		ErrInvalidTokenMint,
		ErrInvalidEscrowAccount,
	}
	if len(all) != len(boundaryCodes) || len(all) != len(errorMessages) {
		t.Fatalf("tables out of sync: %d errors, %d codes, %d messages", len(all), len(boundaryCodes), len(errorMessages))
	}
	for i, e := range all {
		code := e.ProgramError()
		if code != runtime.Custom(uint32(i)) {
			t.Fatalf("%v: got %v want custom %d", e, code, i)
		}
		if got := runtime.AsProgramError(e); got != code {
			t.Fatalf("AsProgramError(%v) = %v", e, got)
		}
	}
	if Error(99).ProgramError() != runtime.ErrInvalidArgument {
		t.Fatalf("unknown error should map to InvalidArgument")
	}
}
