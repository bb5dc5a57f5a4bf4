package token

import (
	"fmt"

	"escrowswap/core/runtime"
)

// Error is a custody program failure. Its value is the custom code reported
// at the transaction boundary.
type Error uint32

const (
	ErrNotRentExempt       Error = 0
	ErrInsufficientFunds   Error = 1
	ErrInvalidMint         Error = 2
	ErrMintMismatch        Error = 3
	ErrOwnerMismatch       Error = 4
	ErrAlreadyInUse        Error = 6
	ErrUninitializedState  Error = 9
	ErrNonNativeHasBalance Error = 11
	ErrInvalidInstruction  Error = 12
	ErrOverflow            Error = 14
)

var errorNames = map[Error]string{
	ErrNotRentExempt:       "lamport balance below rent-exempt threshold",
	ErrInsufficientFunds:   "insufficient funds",
	ErrInvalidMint:         "invalid mint",
	ErrMintMismatch:        "account not associated with this mint",
	ErrOwnerMismatch:       "owner does not match",
	ErrAlreadyInUse:        "account or token already in use",
	ErrUninitializedState:  "state is uninitialized",
	ErrNonNativeHasBalance: "non-native account can only be closed if its balance is zero",
	ErrInvalidInstruction:  "invalid instruction",
	ErrOverflow:            "operation overflowed",
}

func (e Error) Error() string {
	if name, ok := errorNames[e]; ok {
		return "token: " + name
	}
	return fmt.Sprintf("token: error %d", uint32(e))
}

// ProgramError implements runtime.Coder.
func (e Error) ProgramError() runtime.ProgramError {
	return runtime.Custom(uint32(e))
}
