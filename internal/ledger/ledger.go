// Package ledger is the local account store the covered call program runs
// against: a clock, program owned accounts and a minimal token program. A
// Ledger is bound to one gorm handle, normally an open transaction, so every
// mutation it makes commits or rolls back with its caller.
package ledger

import (
	"errors"
	"fmt"

	"github.com/goatnetwork/covered-call/internal/db"
	"github.com/goatnetwork/covered-call/internal/types"
	"gorm.io/gorm"
)

type Ledger struct {
	db    *gorm.DB
	clock Clock
}

func New(tx *gorm.DB, clock Clock) *Ledger {
	return &Ledger{db: tx, clock: clock}
}

func (l *Ledger) Now() int64 {
	return l.clock.Now()
}

// AccountExists reports whether any kind of account lives at address.
func (l *Ledger) AccountExists(address types.Pubkey) (bool, error) {
	addr := address.String()
	for _, model := range []interface{}{&db.Mint{}, &db.TokenAccount{}, &db.ProgramAccount{}} {
		var count int64
		if err := l.db.Model(model).Where("address = ?", addr).Count(&count).Error; err != nil {
			return false, err
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (l *Ledger) ensureFree(address types.Pubkey) error {
	exists, err := l.AccountExists(address)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrAccountInUse, address)
	}
	return nil
}

// CreateProgramAccount allocates data at address under owner. It fails with
// ErrAccountInUse when anything already lives there.
func (l *Ledger) CreateProgramAccount(address, owner types.Pubkey, kind string, data []byte) error {
	if err := l.ensureFree(address); err != nil {
		return err
	}
	account := &db.ProgramAccount{
		Address: address.String(),
		Owner:   owner.String(),
		Kind:    kind,
		Data:    data,
	}
	return translateDuplicate(l.db.Create(account).Error, address)
}

func (l *Ledger) GetProgramAccount(address types.Pubkey) (*db.ProgramAccount, error) {
	var account db.ProgramAccount
	if err := l.first(&account, address, "program account"); err != nil {
		return nil, err
	}
	return &account, nil
}

func (l *Ledger) first(dest interface{}, address types.Pubkey, what string) error {
	result := l.db.Where("address = ?", address.String()).Limit(1).Find(dest)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s %s", ErrAccountNotFound, what, address)
	}
	return nil
}

// translateDuplicate maps a lost creation race on the unique address index.
func translateDuplicate(err error, address types.Pubkey) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", ErrAccountInUse, address)
	}
	return err
}
