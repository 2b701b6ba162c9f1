package ledger

import (
	"fmt"
	"math"

	"github.com/goatnetwork/covered-call/internal/db"
	"github.com/goatnetwork/covered-call/internal/derive"
	"github.com/goatnetwork/covered-call/internal/types"
	"gorm.io/gorm"
)

func (l *Ledger) InitializeMint(address, authority types.Pubkey, decimals uint8) error {
	if err := l.ensureFree(address); err != nil {
		return err
	}
	mint := &db.Mint{
		Address:       address.String(),
		MintAuthority: authority.String(),
		Decimals:      decimals,
	}
	return translateDuplicate(l.db.Create(mint).Error, address)
}

func (l *Ledger) GetMint(address types.Pubkey) (*db.Mint, error) {
	var mint db.Mint
	if err := l.first(&mint, address, "mint"); err != nil {
		return nil, err
	}
	return &mint, nil
}

// CreateTokenAccount opens an empty balance of mint for owner at address.
func (l *Ledger) CreateTokenAccount(address, mint, owner types.Pubkey) error {
	if _, err := l.GetMint(mint); err != nil {
		return err
	}
	if err := l.ensureFree(address); err != nil {
		return err
	}
	account := &db.TokenAccount{
		Address: address.String(),
		Mint:    mint.String(),
		Owner:   owner.String(),
	}
	return translateDuplicate(l.db.Create(account).Error, address)
}

// CreateAssociatedTokenAccount opens the canonical token account of owner for mint.
func (l *Ledger) CreateAssociatedTokenAccount(owner, mint types.Pubkey) (types.Pubkey, error) {
	address, _, err := derive.FindVaultAddress(owner, mint)
	if err != nil {
		return types.Pubkey{}, err
	}
	if err := l.CreateTokenAccount(address, mint, owner); err != nil {
		return types.Pubkey{}, err
	}
	return address, nil
}

func (l *Ledger) GetTokenAccount(address types.Pubkey) (*db.TokenAccount, error) {
	var account db.TokenAccount
	if err := l.first(&account, address, "token account"); err != nil {
		return nil, err
	}
	return &account, nil
}

func (l *Ledger) ListTokenAccountsByOwner(owner types.Pubkey) ([]*db.TokenAccount, error) {
	var accounts []*db.TokenAccount
	err := l.db.Where("owner = ?", owner.String()).Order("id asc").Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// MintTo issues new units of mint into dest. The mint authority must sign.
func (l *Ledger) MintTo(mint, dest, authority types.Pubkey, amount uint64, signers Signers) error {
	if amount == 0 {
		return fmt.Errorf("%w: mint amount is zero", ErrInvalidAmount)
	}
	m, err := l.GetMint(mint)
	if err != nil {
		return err
	}
	account, err := l.GetTokenAccount(dest)
	if err != nil {
		return err
	}
	if account.Mint != m.Address {
		return fmt.Errorf("%w: %s holds %s", ErrMintMismatch, dest, account.Mint)
	}
	if m.MintAuthority != authority.String() {
		return fmt.Errorf("%w: mint authority is %s", ErrOwnerMismatch, m.MintAuthority)
	}
	if !signers.Contains(authority) {
		return fmt.Errorf("%w: %s", ErrMissingSignature, authority)
	}
	if m.Supply > math.MaxUint64-amount || account.Amount > math.MaxUint64-amount {
		return ErrOverflow
	}

	if err := l.db.Model(&db.Mint{}).Where("id = ?", m.ID).Update("supply", gorm.Expr("supply + ?", amount)).Error; err != nil {
		return err
	}
	return l.credit(account.ID, amount)
}

// TransferChecked moves exactly amount of mint from one token account to
// another. Both accounts must hold mint, decimals must match the mint and the
// source owner must have signed. Nothing is written unless every check passes.
func (l *Ledger) TransferChecked(from, to, mint, authority types.Pubkey, amount uint64, decimals uint8, signers Signers) error {
	m, err := l.GetMint(mint)
	if err != nil {
		return err
	}
	source, err := l.GetTokenAccount(from)
	if err != nil {
		return err
	}
	dest, err := l.GetTokenAccount(to)
	if err != nil {
		return err
	}

	if source.Mint != m.Address {
		return fmt.Errorf("%w: source %s holds %s", ErrMintMismatch, from, source.Mint)
	}
	if dest.Mint != m.Address {
		return fmt.Errorf("%w: destination %s holds %s", ErrMintMismatch, to, dest.Mint)
	}
	if m.Decimals != decimals {
		return fmt.Errorf("%w: mint has %d, got %d", ErrDecimalsMismatch, m.Decimals, decimals)
	}
	if source.Owner != authority.String() {
		return fmt.Errorf("%w: %s is owned by %s", ErrOwnerMismatch, from, source.Owner)
	}
	if !signers.Contains(authority) {
		return fmt.Errorf("%w: %s", ErrMissingSignature, authority)
	}
	if source.Amount < amount {
		return fmt.Errorf("%w: balance %d, need %d", ErrInsufficientFunds, source.Amount, amount)
	}
	if source.ID == dest.ID {
		return nil
	}
	if dest.Amount > math.MaxUint64-amount {
		return ErrOverflow
	}

	if err := l.debit(source.ID, amount); err != nil {
		return err
	}
	return l.credit(dest.ID, amount)
}

// debit re-checks the balance in the update itself so concurrent transactions
// on the same source cannot both pass a stale read.
func (l *Ledger) debit(id uint, amount uint64) error {
	result := l.db.Model(&db.TokenAccount{}).
		Where("id = ? AND amount >= ?", id, amount).
		Update("amount", gorm.Expr("amount - ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

func (l *Ledger) credit(id uint, amount uint64) error {
	return l.db.Model(&db.TokenAccount{}).Where("id = ?", id).Update("amount", gorm.Expr("amount + ?", amount)).Error
}
