package runtime

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ErrorKind enumerates the failure classes the ledger reports at its boundary.
type ErrorKind uint8

const (
	KindCustom ErrorKind = iota
	KindInvalidArgument
	KindInvalidInstructionData
	KindInvalidAccountData
	KindInsufficientFunds
	KindIncorrectProgramID
	KindMissingRequiredSignature
	KindAccountAlreadyInitialized
	KindUninitializedAccount
	KindNotEnoughAccountKeys
	KindMissingAccount
	KindPrivilegeEscalation
	KindInvalidSeeds
	KindExternalAccountDataModified
	KindExternalAccountLamportSpend
	KindReadonlyDataModified
	KindReadonlyLamportChange
	KindModifiedProgramID
	KindUnbalancedInstruction
	KindInsufficientFundsForRent
	KindUnsupportedProgram
	KindCallDepth
	KindArithmeticOverflow
	KindAccountAlreadyInUse
	KindAlreadyProcessed
)

var kindNames = map[ErrorKind]string{
	KindCustom:                      "custom program error",
	KindInvalidArgument:             "invalid argument",
	KindInvalidInstructionData:      "invalid instruction data",
	KindInvalidAccountData:          "invalid account data",
	KindInsufficientFunds:           "insufficient funds",
	KindIncorrectProgramID:          "incorrect program id",
	KindMissingRequiredSignature:    "missing required signature",
	KindAccountAlreadyInitialized:   "account already initialized",
	KindUninitializedAccount:        "uninitialized account",
	KindNotEnoughAccountKeys:        "not enough account keys",
	KindMissingAccount:              "missing account",
	KindPrivilegeEscalation:         "privilege escalation",
	KindInvalidSeeds:                "invalid seeds",
	KindExternalAccountDataModified: "external account data modified",
	KindExternalAccountLamportSpend: "external account lamport spend",
	KindReadonlyDataModified:        "readonly data modified",
	KindReadonlyLamportChange:       "readonly lamport change",
	KindModifiedProgramID:           "modified program id",
	KindUnbalancedInstruction:       "unbalanced instruction",
	KindInsufficientFundsForRent:    "insufficient funds for rent",
	KindUnsupportedProgram:          "unsupported program",
	KindCallDepth:                   "call depth exceeded",
	KindArithmeticOverflow:          "arithmetic overflow",
	KindAccountAlreadyInUse:         "account already in use",
	KindAlreadyProcessed:            "transaction already processed",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ProgramError is the single tagged error code a transaction reports to its
// caller. Values are comparable so errors.Is matches on kind and code.
type ProgramError struct {
	Kind ErrorKind
	Code uint32
}

func (e ProgramError) Error() string {
	if e.Kind == KindCustom {
		return fmt.Sprintf("custom program error: %#x", e.Code)
	}
	return e.Kind.String()
}

// Custom returns the boundary error for a program-defined code.
func Custom(code uint32) ProgramError {
	return ProgramError{Kind: KindCustom, Code: code}
}

var (
	ErrInvalidArgument             = ProgramError{Kind: KindInvalidArgument}
	ErrInvalidInstructionData      = ProgramError{Kind: KindInvalidInstructionData}
	ErrInvalidAccountData          = ProgramError{Kind: KindInvalidAccountData}
	ErrInsufficientFunds           = ProgramError{Kind: KindInsufficientFunds}
	ErrIncorrectProgramID          = ProgramError{Kind: KindIncorrectProgramID}
	ErrMissingRequiredSignature    = ProgramError{Kind: KindMissingRequiredSignature}
	ErrAccountAlreadyInitialized   = ProgramError{Kind: KindAccountAlreadyInitialized}
	ErrUninitializedAccount        = ProgramError{Kind: KindUninitializedAccount}
	ErrNotEnoughAccountKeys        = ProgramError{Kind: KindNotEnoughAccountKeys}
	ErrMissingAccount              = ProgramError{Kind: KindMissingAccount}
	ErrPrivilegeEscalation         = ProgramError{Kind: KindPrivilegeEscalation}
	ErrInvalidSeeds                = ProgramError{Kind: KindInvalidSeeds}
	ErrExternalAccountDataModified = ProgramError{Kind: KindExternalAccountDataModified}
	ErrExternalAccountLamportSpend = ProgramError{Kind: KindExternalAccountLamportSpend}
	ErrReadonlyDataModified        = ProgramError{Kind: KindReadonlyDataModified}
	ErrReadonlyLamportChange       = ProgramError{Kind: KindReadonlyLamportChange}
	ErrModifiedProgramID           = ProgramError{Kind: KindModifiedProgramID}
	ErrUnbalancedInstruction       = ProgramError{Kind: KindUnbalancedInstruction}
	ErrInsufficientFundsForRent    = ProgramError{Kind: KindInsufficientFundsForRent}
	ErrUnsupportedProgram          = ProgramError{Kind: KindUnsupportedProgram}
	ErrCallDepth                   = ProgramError{Kind: KindCallDepth}
	ErrArithmeticOverflow          = ProgramError{Kind: KindArithmeticOverflow}
	ErrAccountAlreadyInUse         = ProgramError{Kind: KindAccountAlreadyInUse}
	ErrAlreadyProcessed            = ProgramError{Kind: KindAlreadyProcessed}
)

// Coder is implemented by program error types that map themselves onto a
// boundary ProgramError.
type Coder interface {
	ProgramError() ProgramError
}

// AsProgramError resolves the boundary code for err. Program-defined codes
// take precedence over builtin kinds found deeper in the chain; anything
// unrecognised becomes ErrInvalidArgument.
func AsProgramError(err error) ProgramError {
	if err == nil {
		return ProgramError{}
	}
	var coder Coder
	if errors.As(err, &coder) {
		return coder.ProgramError()
	}
	var pe ProgramError
	if errors.As(err, &pe) {
		return pe
	}
	return ErrInvalidArgument
}

// TransactionError reports why a transaction was aborted. Index is the
// position of the failing top-level instruction, or -1 when the transaction
// was rejected outside any single instruction.
type TransactionError struct {
	Index   int
	Program solana.PublicKey
	Code    ProgramError
	Cause   error
}

func (e *TransactionError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("transaction rejected: %v", e.Cause)
	}
	return fmt.Sprintf("instruction %d (%s) failed: %v", e.Index, e.Program, e.Cause)
}

// Unwrap exposes both the boundary code and the original cause to errors.Is.
func (e *TransactionError) Unwrap() []error {
	return []error{e.Code, e.Cause}
}
