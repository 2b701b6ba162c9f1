package ledger

import "errors"

var (
	ErrAccountInUse      = errors.New("account already in use")
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrMintMismatch      = errors.New("account not associated with this mint")
	ErrDecimalsMismatch  = errors.New("mint decimals mismatch")
	ErrOwnerMismatch     = errors.New("owner does not match")
	ErrMissingSignature  = errors.New("missing required signature")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrOverflow          = errors.New("operation overflowed")
)
