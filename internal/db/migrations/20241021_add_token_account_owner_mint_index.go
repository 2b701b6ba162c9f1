package migrations

import (
	"gorm.io/gorm"
)

// AddTokenAccountOwnerMintIndex serves owner listings grouped by mint.
func AddTokenAccountOwnerMintIndex(tx *gorm.DB) error {
	return tx.Exec("CREATE INDEX IF NOT EXISTS token_account_owner_mint_index ON token_accounts (owner, mint)").Error
}
