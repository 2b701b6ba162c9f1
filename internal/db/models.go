package db

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// Addresses are stored as base58 strings. Ledger balances are uint64 columns,
// which sqlite and postgres bound at math.MaxInt64. Covered call terms are
// not balances and may use the full uint64 range, so the projection stores
// them as decimal text.

// Mint model
type Mint struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Address       string    `gorm:"not null;uniqueIndex" json:"address"`
	MintAuthority string    `gorm:"not null" json:"mint_authority"`
	Decimals      uint8     `gorm:"not null" json:"decimals"`
	Supply        uint64    `gorm:"not null" json:"supply"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

// TokenAccount model, a balance of one mint held by one owner
type TokenAccount struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Address   string    `gorm:"not null;uniqueIndex" json:"address"`
	Mint      string    `gorm:"not null;index" json:"mint"`
	Owner     string    `gorm:"not null;index" json:"owner"`
	Amount    uint64    `gorm:"not null" json:"amount"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// ProgramAccount model, raw data owned by a program
type ProgramAccount struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Address   string    `gorm:"not null;uniqueIndex" json:"address"`
	Owner     string    `gorm:"not null;index" json:"owner"` // program id
	Kind      string    `gorm:"not null" json:"kind"`
	Data      []byte    `gorm:"not null" json:"data"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// CoveredCall model, queryable projection of the covered call program account
type CoveredCall struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Address          string    `gorm:"not null;uniqueIndex" json:"address"`
	Seller           string    `gorm:"not null;index" json:"seller"`
	Buyer            string    `gorm:"not null;index" json:"buyer"`
	MintBase         string    `gorm:"not null" json:"mint_base"`
	MintQuote        string    `gorm:"not null" json:"mint_quote"`
	AmountBase       uint64    `gorm:"not null;type:varchar(20);serializer:json" json:"amount_base"`
	AmountQuote      uint64    `gorm:"not null;type:varchar(20);serializer:json" json:"amount_quote"`
	AmountPremium    *uint64   `gorm:"type:varchar(20);serializer:json" json:"amount_premium"`
	TimestampCreated int64     `gorm:"not null" json:"timestamp_created"`
	TimestampExpiry  int64     `gorm:"not null;index" json:"timestamp_expiry"`
	IsExercised      bool      `gorm:"not null" json:"is_exercised"`
	Bump             uint8     `gorm:"not null" json:"bump"`
	Vault            string    `gorm:"not null" json:"vault"`
	Status           string    `gorm:"not null" json:"status"` // "open"
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
}

func (dm *DatabaseManager) autoMigrate() error {
	if err := dm.ledgerDb.AutoMigrate(&Mint{}, &TokenAccount{}, &ProgramAccount{}, &CoveredCall{}); err != nil {
		return fmt.Errorf("migrate ledger database: %w", err)
	}
	if err := dm.runMigrations(); err != nil {
		log.Errorf("Failed to run ledger migrations: %v", err)
		return err
	}
	return nil
}
