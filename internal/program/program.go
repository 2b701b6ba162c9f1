// Package program holds the covered call instruction logic. It validates an
// initialization against a Runtime and performs the resulting writes through
// it; atomicity is the caller's job, usually by binding the Runtime to a
// database transaction.
package program

import (
	"errors"

	"github.com/goatnetwork/covered-call/internal/db"
	"github.com/goatnetwork/covered-call/internal/derive"
	"github.com/goatnetwork/covered-call/internal/ledger"
	"github.com/goatnetwork/covered-call/internal/types"
	goerrors "github.com/go-errors/errors"
	log "github.com/sirupsen/logrus"
)

// Runtime is the slice of the ledger the program reads and writes.
type Runtime interface {
	Now() int64
	AccountExists(address types.Pubkey) (bool, error)
	GetMint(address types.Pubkey) (*db.Mint, error)
	GetTokenAccount(address types.Pubkey) (*db.TokenAccount, error)
	CreateProgramAccount(address, owner types.Pubkey, kind string, data []byte) error
	CreateTokenAccount(address, mint, owner types.Pubkey) error
	TransferChecked(from, to, mint, authority types.Pubkey, amount uint64, decimals uint8, signers ledger.Signers) error
}

var _ Runtime = (*ledger.Ledger)(nil)

type Program struct {
	id     types.Pubkey
	logger *log.Entry
}

func NewProgram(id types.Pubkey) *Program {
	return &Program{
		id:     id,
		logger: log.WithFields(log.Fields{"module": "program"}),
	}
}

func (p *Program) ID() types.Pubkey {
	return p.id
}

// VerifyCoveredCall decodes a stored covered call and checks that address is
// the one its own terms and bump derive to.
func (p *Program) VerifyCoveredCall(address types.Pubkey, data []byte) (*types.CoveredCall, error) {
	var record types.CoveredCall
	if err := record.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	derived, err := derive.CoveredCallAddressWithBump(p.id, record.Terms(), record.Bump)
	if err != nil {
		return nil, newError(ErrCodeTermsMismatch, "escrow", "stored bump %d does not derive: %v", record.Bump, err)
	}
	if derived != address {
		return nil, newError(ErrCodeTermsMismatch, "escrow", "stored terms derive %s", derived)
	}
	return &record, nil
}

// ledgerError maps a token or account failure onto an instruction error.
// Anything unrecognised is a storage failure and keeps its stack.
func ledgerError(err error, field string) error {
	var code ErrorCode
	switch {
	case errors.Is(err, ledger.ErrAccountInUse):
		code = ErrCodeAlreadyExists
	case errors.Is(err, ledger.ErrAccountNotFound):
		code = ErrCodeAccountNotFound
	case errors.Is(err, ledger.ErrInsufficientFunds):
		code = ErrCodeInsufficientFunds
	case errors.Is(err, ledger.ErrMintMismatch), errors.Is(err, ledger.ErrDecimalsMismatch):
		code = ErrCodeAssetMismatch
	case errors.Is(err, ledger.ErrOwnerMismatch), errors.Is(err, ledger.ErrMissingSignature):
		code = ErrCodeUnauthorized
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrOverflow):
		code = ErrCodeInvalidAmount
	default:
		return goerrors.Wrap(err, 1)
	}
	return &Error{Code: code, Field: field, Message: err.Error()}
}
