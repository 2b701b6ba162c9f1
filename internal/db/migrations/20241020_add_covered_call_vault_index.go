package migrations

import (
	"gorm.io/gorm"
)

// AddCoveredCallVaultIndex indexes covered calls by vault so a vault can be
// traced back to its escrow without scanning.
func AddCoveredCallVaultIndex(tx *gorm.DB) error {
	return tx.Exec("CREATE UNIQUE INDEX IF NOT EXISTS covered_call_vault_index ON covered_calls (vault)").Error
}
