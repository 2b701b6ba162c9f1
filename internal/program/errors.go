package program

import (
	"fmt"
)

type ErrorCode uint32

// Codes are stable and surface in API responses.
const (
	ErrCodeTermsMismatch ErrorCode = 6000 + iota
	ErrCodeAlreadyExists
	ErrCodeInsufficientFunds
	ErrCodeAssetMismatch
	ErrCodeExpiryInThePast
	ErrCodeDerivationExhausted
	ErrCodeUnauthorized
	ErrCodeAccountNotFound
	ErrCodeInvalidAmount
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTermsMismatch:
		return "TermsMismatch"
	case ErrCodeAlreadyExists:
		return "AlreadyExists"
	case ErrCodeInsufficientFunds:
		return "InsufficientFunds"
	case ErrCodeAssetMismatch:
		return "AssetMismatch"
	case ErrCodeExpiryInThePast:
		return "ExpiryInThePast"
	case ErrCodeDerivationExhausted:
		return "DerivationExhausted"
	case ErrCodeUnauthorized:
		return "Unauthorized"
	case ErrCodeAccountNotFound:
		return "AccountNotFound"
	case ErrCodeInvalidAmount:
		return "InvalidAmount"
	default:
		return fmt.Sprintf("ErrorCode(%d)", uint32(c))
	}
}

// Error is a rejected instruction. Field names the offending account or
// argument when there is one.
type Error struct {
	Code    ErrorCode
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s (%s): %s", e.Code, e.Field, e.Message)
}

// Is matches any *Error with the same code, so errors.Is(err, ErrAlreadyExists)
// holds regardless of field and message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrTermsMismatch       = &Error{Code: ErrCodeTermsMismatch, Message: "account does not match the derived address"}
	ErrAlreadyExists       = &Error{Code: ErrCodeAlreadyExists, Message: "account already exists"}
	ErrInsufficientFunds   = &Error{Code: ErrCodeInsufficientFunds, Message: "funding account balance too low"}
	ErrAssetMismatch       = &Error{Code: ErrCodeAssetMismatch, Message: "token account does not hold the base mint"}
	ErrExpiryInThePast     = &Error{Code: ErrCodeExpiryInThePast, Message: "expiry must be after the current time"}
	ErrDerivationExhausted = &Error{Code: ErrCodeDerivationExhausted, Message: "no viable bump for the escrow address"}
	ErrUnauthorized        = &Error{Code: ErrCodeUnauthorized, Message: "missing or invalid authority"}
	ErrAccountNotFound     = &Error{Code: ErrCodeAccountNotFound, Message: "account not found"}
	ErrInvalidAmount       = &Error{Code: ErrCodeInvalidAmount, Message: "invalid amount"}
)

func newError(code ErrorCode, field, format string, args ...interface{}) *Error {
	return &Error{Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}
