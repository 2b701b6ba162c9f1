package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goatnetwork/covered-call/internal/db"
	"github.com/goatnetwork/covered-call/internal/ledger"
	"github.com/goatnetwork/covered-call/internal/metrics"
	"github.com/goatnetwork/covered-call/internal/program"
	"github.com/goatnetwork/covered-call/internal/types"
	goerrors "github.com/go-errors/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type CoveredCallStore interface {
	InitializeCoveredCall(ctx context.Context, accts program.InitializeAccounts, args program.InitializeArgs, signers ledger.Signers) (*db.CoveredCall, error)
	GetCoveredCall(address types.Pubkey) (*CoveredCallView, error)
	ListCoveredCalls(filter CoveredCallFilter) ([]*db.CoveredCall, error)
	GetTokenAccount(address types.Pubkey) (*db.TokenAccount, *db.Mint, error)
	ListTokenAccountsByOwner(owner types.Pubkey) ([]*db.TokenAccount, error)
}

// CoveredCallView is a covered call as stored: the queryable row, the decoded
// program account and its raw bytes.
type CoveredCallView struct {
	Row    *db.CoveredCall
	Record *types.CoveredCall
	Data   []byte
}

type CoveredCallFilter struct {
	Seller *types.Pubkey
	Buyer  *types.Pubkey
	Limit  int
	Offset int
}

/*
InitializeCoveredCall
runs the initialize instruction and writes the covered call projection inside one
transaction, nothing is persisted unless every step succeeds
*/
func (s *State) InitializeCoveredCall(ctx context.Context, accts program.InitializeAccounts, args program.InitializeArgs, signers ledger.Signers) (*db.CoveredCall, error) {
	start := time.Now()

	// a supplied escrow that is not the derived one is rejected before any write
	unlock := s.escrowLocks.Lock(accts.Escrow)
	defer unlock()

	var row *db.CoveredCall
	err := s.dbm.GetLedgerDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.program.Initialize(ctx, ledger.New(tx, s.clock), accts, args, signers)
		if err != nil {
			return err
		}

		row = coveredCallRow(accts.Escrow, accts.Vault, record)
		if err := tx.Create(row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &program.Error{Code: program.ErrCodeAlreadyExists, Field: "escrow", Message: err.Error()}
			}
			return goerrors.Wrap(err, 0)
		}
		return nil
	})
	took := time.Since(start)

	logger := s.logger.WithFields(log.Fields{
		"escrow": accts.Escrow.String(),
		"seller": accts.Seller.String(),
	})
	if err != nil {
		var perr *program.Error
		if errors.As(err, &perr) {
			s.metrics.ObserveInitialize(metrics.RESULT_REJECTED, took)
			logger.Warnf("Covered call rejected: %v", err)
			return nil, err
		}
		s.metrics.ObserveInitialize(metrics.RESULT_ERROR, took)
		var stackErr *goerrors.Error
		if errors.As(err, &stackErr) {
			logger.Errorf("Covered call initialize failed: %s", stackErr.ErrorStack())
		} else {
			logger.Errorf("Covered call initialize failed: %v", err)
		}
		return nil, err
	}

	s.metrics.ObserveInitialize(metrics.RESULT_OK, took)
	s.metrics.AddLockedBase(row.MintBase, row.AmountBase)
	logger.Infof("Covered call initialized, vault %s, amount_base %d, expiry %d, took %v", row.Vault, row.AmountBase, row.TimestampExpiry, took)

	s.EventBus.Publish(CoveredCallInitialized, *row)
	return row, nil
}

func coveredCallRow(escrow, vault types.Pubkey, record *types.CoveredCall) *db.CoveredCall {
	return &db.CoveredCall{
		Address:          escrow.String(),
		Seller:           record.Seller.String(),
		Buyer:            record.Buyer.String(),
		MintBase:         record.MintBase.String(),
		MintQuote:        record.MintQuote.String(),
		AmountBase:       record.AmountBase,
		AmountQuote:      record.AmountQuote,
		AmountPremium:    record.AmountPremium,
		TimestampCreated: record.TimestampCreated,
		TimestampExpiry:  record.TimestampExpiry,
		IsExercised:      record.IsExercised,
		Bump:             record.Bump,
		Vault:            vault.String(),
		Status:           db.COVERED_CALL_STATUS_OPEN,
	}
}

// GetCoveredCall loads a covered call and re-derives its address from the stored
// terms and bump before returning it.
func (s *State) GetCoveredCall(address types.Pubkey) (*CoveredCallView, error) {
	account, err := s.reader().GetProgramAccount(address)
	if err != nil {
		return nil, err
	}
	if account.Kind != db.ACCOUNT_KIND_COVERED_CALL || account.Owner != s.program.ID().String() {
		return nil, fmt.Errorf("%w: %s is not a covered call", ledger.ErrAccountNotFound, address)
	}

	record, err := s.program.VerifyCoveredCall(address, account.Data)
	if err != nil {
		return nil, err
	}

	var row db.CoveredCall
	if err := s.dbm.GetLedgerDB().Where("address = ?", address.String()).First(&row).Error; err != nil {
		return nil, err
	}
	return &CoveredCallView{Row: &row, Record: record, Data: account.Data}, nil
}

func (s *State) ListCoveredCalls(filter CoveredCallFilter) ([]*db.CoveredCall, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	query := s.dbm.GetLedgerDB().Model(&db.CoveredCall{})
	if filter.Seller != nil {
		query = query.Where("seller = ?", filter.Seller.String())
	}
	if filter.Buyer != nil {
		query = query.Where("buyer = ?", filter.Buyer.String())
	}

	var calls []*db.CoveredCall
	err := query.Order("id desc").Limit(limit).Offset(filter.Offset).Find(&calls).Error
	if err != nil {
		return nil, err
	}
	return calls, nil
}

func (s *State) GetTokenAccount(address types.Pubkey) (*db.TokenAccount, *db.Mint, error) {
	l := s.reader()
	account, err := l.GetTokenAccount(address)
	if err != nil {
		return nil, nil, err
	}
	mintKey, err := types.PubkeyFromBase58(account.Mint)
	if err != nil {
		return nil, nil, err
	}
	mint, err := l.GetMint(mintKey)
	if err != nil {
		return nil, nil, err
	}
	return account, mint, nil
}

func (s *State) ListTokenAccountsByOwner(owner types.Pubkey) ([]*db.TokenAccount, error) {
	return s.reader().ListTokenAccountsByOwner(owner)
}
