package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goatnetwork/covered-call/internal/config"
	"github.com/goatnetwork/covered-call/internal/db/migrations"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const ledgerDbName = "ledger.db"

type DatabaseManager struct {
	ledgerDb *gorm.DB
}

func NewDatabaseManager() *DatabaseManager {
	dm, err := OpenDatabaseManager(config.AppConfig)
	if err != nil {
		log.Fatalf("Failed to init ledger database: %v", err)
	}
	return dm
}

// OpenDatabaseManager opens and migrates the ledger database described by cfg.
func OpenDatabaseManager(cfg config.Config) (*DatabaseManager, error) {
	ledgerDb, err := openLedgerDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect ledger database: %w", err)
	}
	dm := &DatabaseManager{ledgerDb: ledgerDb}
	log.Debugf("Ledger database connected successfully, type: %s", cfg.DbType)

	if err := dm.autoMigrate(); err != nil {
		return nil, err
	}
	log.Debugf("Database migration completed successfully")
	return dm, nil
}

func openLedgerDB(cfg config.Config) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		// unique violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
	}

	switch cfg.DbType {
	case config.DB_TYPE_POSTGRES:
		return gorm.Open(postgres.Open(cfg.DbDSN), gormConfig)
	case config.DB_TYPE_SQLITE, "":
		if err := os.MkdirAll(cfg.DbDir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		ledgerPath := filepath.Join(cfg.DbDir, ledgerDbName)
		ledgerDb, err := gorm.Open(sqlite.Open(ledgerPath+"?_busy_timeout=5000&_foreign_keys=on"), gormConfig)
		if err != nil {
			return nil, err
		}
		// sqlite allows one writer, serialize at the pool instead of failing with SQLITE_BUSY
		sqlDb, err := ledgerDb.DB()
		if err != nil {
			return nil, err
		}
		sqlDb.SetMaxOpenConns(1)
		return ledgerDb, nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.DbType)
	}
}

func (dm *DatabaseManager) runMigrations() error {
	return migrations.NewMigrationManager(dm.ledgerDb).Run(migrations.LedgerSteps)
}

func (dm *DatabaseManager) GetLedgerDB() *gorm.DB {
	return dm.ledgerDb
}

// Ping reports whether the ledger database still answers.
func (dm *DatabaseManager) Ping() error {
	sqlDb, err := dm.ledgerDb.DB()
	if err != nil {
		return err
	}
	return sqlDb.Ping()
}

func (dm *DatabaseManager) Close() error {
	sqlDb, err := dm.ledgerDb.DB()
	if err != nil {
		return err
	}
	return sqlDb.Close()
}
