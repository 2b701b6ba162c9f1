package config

import (
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goatnetwork/covered-call/internal/types"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	DB_TYPE_SQLITE   = "sqlite"
	DB_TYPE_POSTGRES = "postgres"

	// DefaultProgramID is sha256("covered-call-program") in base58.
	DefaultProgramID = "BAxqKFiW9oUQcdHw7DKf4FsJ4EmuKwjDKaffiVhbwM1t"
)

var AppConfig Config

func InitConfig() {
	// .env is optional, real env vars take precedence
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("Failed to load .env file: %v", err)
	}
	viper.AutomaticEnv()

	// Default config
	viper.SetDefault("HTTP_PORT", "8080")
	viper.SetDefault("RPC_PORT", "50051")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_TYPE", DB_TYPE_SQLITE)
	viper.SetDefault("DB_DIR", "/app/db")
	viper.SetDefault("DB_DSN", "")
	viper.SetDefault("PROGRAM_ID", DefaultProgramID)
	viper.SetDefault("ENABLE_ADMIN", false)
	viper.SetDefault("ADMIN_JWT_SECRET", "")
	viper.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	logLevel, err := logrus.ParseLevel(strings.ToLower(viper.GetString("LOG_LEVEL")))
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}

	programID, err := types.PubkeyFromBase58(viper.GetString("PROGRAM_ID"))
	if err != nil {
		logrus.Fatalf("Failed to parse program id: %v", err)
	}

	dbType := strings.ToLower(viper.GetString("DB_TYPE"))
	if dbType != DB_TYPE_SQLITE && dbType != DB_TYPE_POSTGRES {
		logrus.Fatalf("Unsupported DB_TYPE %q", dbType)
	}

	AppConfig = Config{
		HTTPPort:        viper.GetString("HTTP_PORT"),
		RPCPort:         viper.GetString("RPC_PORT"),
		LogLevel:        logLevel,
		DbType:          dbType,
		DbDir:           viper.GetString("DB_DIR"),
		DbDSN:           viper.GetString("DB_DSN"),
		ProgramID:       programID,
		EnableAdmin:     viper.GetBool("ENABLE_ADMIN"),
		AdminJwtSecret:  common.FromHex(viper.GetString("ADMIN_JWT_SECRET")),
		ShutdownTimeout: viper.GetDuration("SHUTDOWN_TIMEOUT"),
	}

	if AppConfig.DbType == DB_TYPE_POSTGRES && AppConfig.DbDSN == "" {
		logrus.Fatalf("DB_DSN is required when DB_TYPE is postgres")
	}
	if AppConfig.EnableAdmin && len(AppConfig.AdminJwtSecret) < 32 {
		logrus.Fatalf("ADMIN_JWT_SECRET must be at least 32 bytes of hex when ENABLE_ADMIN is set, got %d", len(AppConfig.AdminJwtSecret))
	}

	logrus.Infof("Init config, ProgramID %s, DbType %s, EnableAdmin %v", AppConfig.ProgramID, AppConfig.DbType, AppConfig.EnableAdmin)

	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(AppConfig.LogLevel)
}

type Config struct {
	HTTPPort        string
	RPCPort         string
	LogLevel        logrus.Level
	DbType          string
	DbDir           string
	DbDSN           string
	ProgramID       types.Pubkey
	EnableAdmin     bool
	AdminJwtSecret  []byte
	ShutdownTimeout time.Duration
}
