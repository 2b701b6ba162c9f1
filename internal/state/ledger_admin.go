package state

import (
	"context"

	"github.com/goatnetwork/covered-call/internal/db"
	"github.com/goatnetwork/covered-call/internal/ledger"
	"github.com/goatnetwork/covered-call/internal/types"
	"gorm.io/gorm"
)

// LedgerAdmin seeds the local ledger. Callers are trusted operators, so the
// mint authority signature is implied by the call itself.
type LedgerAdmin interface {
	CreateMint(ctx context.Context, address, authority types.Pubkey, decimals uint8) (*db.Mint, error)
	OpenTokenAccount(ctx context.Context, owner, mint types.Pubkey) (*db.TokenAccount, error)
	MintTo(ctx context.Context, mint, dest types.Pubkey, amount uint64) (*db.TokenAccount, error)
}

func (s *State) withLedger(ctx context.Context, fn func(l *ledger.Ledger) error) error {
	return s.dbm.GetLedgerDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ledger.New(tx, s.clock))
	})
}

func (s *State) CreateMint(ctx context.Context, address, authority types.Pubkey, decimals uint8) (*db.Mint, error) {
	var mint *db.Mint
	err := s.withLedger(ctx, func(l *ledger.Ledger) error {
		if err := l.InitializeMint(address, authority, decimals); err != nil {
			return err
		}
		var err error
		mint, err = l.GetMint(address)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infof("Mint created, address %s, authority %s, decimals %d", address, authority, decimals)
	return mint, nil
}

// OpenTokenAccount opens the associated token account of owner for mint.
func (s *State) OpenTokenAccount(ctx context.Context, owner, mint types.Pubkey) (*db.TokenAccount, error) {
	var account *db.TokenAccount
	err := s.withLedger(ctx, func(l *ledger.Ledger) error {
		address, err := l.CreateAssociatedTokenAccount(owner, mint)
		if err != nil {
			return err
		}
		account, err = l.GetTokenAccount(address)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infof("Token account opened, address %s, owner %s, mint %s", account.Address, owner, mint)
	return account, nil
}

func (s *State) MintTo(ctx context.Context, mint, dest types.Pubkey, amount uint64) (*db.TokenAccount, error) {
	var account *db.TokenAccount
	err := s.withLedger(ctx, func(l *ledger.Ledger) error {
		m, err := l.GetMint(mint)
		if err != nil {
			return err
		}
		authority, err := types.PubkeyFromBase58(m.MintAuthority)
		if err != nil {
			return err
		}
		if err := l.MintTo(mint, dest, authority, amount, ledger.NewSigners(authority)); err != nil {
			return err
		}
		account, err = l.GetTokenAccount(dest)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infof("Minted %d of %s to %s, balance %d", amount, mint, dest, account.Amount)
	return account, nil
}
