package migrations

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migration is the record of one applied step.
type Migration struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"uniqueIndex;not null"`
	AppliedAt time.Time `gorm:"not null"`
}

// Step is a named schema change that runs once per database.
type Step struct {
	Name string
	Up   func(tx *gorm.DB) error
}

// LedgerSteps run in order after AutoMigrate on every open.
var LedgerSteps = []Step{
	{Name: "20241020_add_covered_call_vault_index", Up: AddCoveredCallVaultIndex},
	{Name: "20241021_add_token_account_owner_mint_index", Up: AddTokenAccountOwnerMintIndex},
}

type MigrationManager struct {
	db *gorm.DB
}

func NewMigrationManager(db *gorm.DB) *MigrationManager {
	return &MigrationManager{db: db}
}

func (m *MigrationManager) EnsureMigrationTable() error {
	if m.db.Migrator().HasTable(&Migration{}) {
		return nil
	}
	log.Debugf("Creating migrations table")
	return m.db.AutoMigrate(&Migration{})
}

// Applied reports whether the named step has been recorded.
func (m *MigrationManager) Applied(name string) (bool, error) {
	var count int64
	if err := m.db.Model(&Migration{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check migration %s: %w", name, err)
	}
	return count > 0, nil
}

// Run applies every step not yet recorded. Each step and its record commit
// in one transaction, so a failed step is retried on the next open.
func (m *MigrationManager) Run(steps []Step) error {
	if err := m.EnsureMigrationTable(); err != nil {
		return err
	}
	for _, step := range steps {
		if err := m.run(step); err != nil {
			return err
		}
	}
	return nil
}

func (m *MigrationManager) run(step Step) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Migration{}).Where("name = ?", step.Name).Count(&count).Error; err != nil {
			return fmt.Errorf("check migration %s: %w", step.Name, err)
		}
		if count > 0 {
			log.Debugf("Migration %s has already been applied, skipping", step.Name)
			return nil
		}

		log.Debugf("Running migration: %s", step.Name)
		if err := step.Up(tx); err != nil {
			return fmt.Errorf("migration %s failed: %w", step.Name, err)
		}
		if err := tx.Create(&Migration{Name: step.Name, AppliedAt: time.Now()}).Error; err != nil {
			return fmt.Errorf("record migration %s: %w", step.Name, err)
		}
		log.Debugf("Recorded migration: %s", step.Name)
		return nil
	})
}
