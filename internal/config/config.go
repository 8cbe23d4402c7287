package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mamadbah2/cryptoants/internal/currency"
)

const (
	// Wei per ether, the smallest currency unit the economy settles in.
	Ether = currency.WeiPerEther

	ClockSystem = "system"
	ClockManual = "manual"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Economy   EconomyConfig
	Bank      BankConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
	MongoDB   MongoDBConfig
	Journal   JournalConfig
	Webhook   WebhookConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port     string
	LogLevel string
}

// EconomyConfig holds the constants fixed at engine construction.
type EconomyConfig struct {
	Authority        string        `yaml:"authority"`
	EggPrice         *big.Int      `yaml:"-"`
	AntSalePrice     *big.Int      `yaml:"-"`
	Cooldown         time.Duration `yaml:"cooldown"`
	CooldownFromMint bool          `yaml:"cooldown_from_mint"`
	YieldMin         uint64        `yaml:"yield_min"`
	YieldMax         uint64        `yaml:"yield_max"`
	DeathPercent     uint64        `yaml:"death_percent"`
	Clock            string        `yaml:"clock"`
	Seed             uint64        `yaml:"seed"`
}

// BankConfig configures the in-memory currency ledger.
type BankConfig struct {
	TreasuryReserve *big.Int
	FaucetEnabled   bool
}

// SheetsConfig contains configuration required to interact with Google Sheets.
// Leaving both fields empty disables the export.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
}

// MongoDBConfig holds settings for MongoDB. An empty URI disables it.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// JournalConfig configures the local SQLite event journal.
type JournalConfig struct {
	SQLitePath string
	BufferSize int
}

// WebhookConfig configures the outbound ledger event notifier.
type WebhookConfig struct {
	URL     string
	Secret  string
	Timeout time.Duration
}

// DefaultEconomy returns the constants of the original deployment.
func DefaultEconomy() EconomyConfig {
	return EconomyConfig{
		Authority:    "cryptoants",
		EggPrice:     big.NewInt(Ether / 100),
		AntSalePrice: big.NewInt(Ether / 250),
		Cooldown:     10 * time.Minute,
		YieldMin:     1,
		YieldMax:     20,
		DeathPercent: 10,
		Clock:        ClockSystem,
	}
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	economy := DefaultEconomy()
	if path := os.Getenv("ECONOMY_FILE"); path != "" {
		if err := LoadEconomyFile(path, &economy); err != nil {
			return nil, err
		}
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	economy.Authority = getenvWithDefault("ECONOMY_AUTHORITY", economy.Authority)
	economy.Clock = strings.ToLower(getenvWithDefault("ECONOMY_CLOCK", economy.Clock))
	collect(getenvWei("EGG_PRICE_WEI", &economy.EggPrice))
	collect(getenvWei("ANT_SALE_PRICE_WEI", &economy.AntSalePrice))
	collect(getenvDuration("LAY_COOLDOWN", &economy.Cooldown))
	collect(getenvBool("COOLDOWN_FROM_MINT", &economy.CooldownFromMint))
	collect(getenvUint("EGG_YIELD_MIN", &economy.YieldMin))
	collect(getenvUint("EGG_YIELD_MAX", &economy.YieldMax))
	collect(getenvUint("ANT_DEATH_PERCENT", &economy.DeathPercent))
	collect(getenvUint("RANDOM_SEED", &economy.Seed))

	bank := BankConfig{TreasuryReserve: big.NewInt(Ether)}
	collect(getenvWei("TREASURY_RESERVE_WEI", &bank.TreasuryReserve))
	collect(getenvBool("FAUCET_ENABLED", &bank.FaucetEnabled))

	journal := JournalConfig{
		SQLitePath: os.Getenv("JOURNAL_SQLITE_PATH"),
		BufferSize: 1024,
	}
	collect(getenvInt("EVENT_BUFFER_SIZE", &journal.BufferSize))

	webhook := WebhookConfig{
		URL:     os.Getenv("EVENT_WEBHOOK_URL"),
		Secret:  os.Getenv("EVENT_WEBHOOK_SECRET"),
		Timeout: 10 * time.Second,
	}
	collect(getenvDuration("EVENT_WEBHOOK_TIMEOUT", &webhook.Timeout))

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     getenvWithDefault("APP_PORT", "8080"),
			LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "UTC"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "cryptoants"),
		},
		Economy: economy,
		Bank:    bank,
		Journal: journal,
		Webhook: webhook,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if err := c.Economy.Validate(); err != nil {
		return err
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be provided together")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}
	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Reporting.Timezone, err)
	}

	if c.MongoDB.URI != "" && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided with MONGODB_URI")
	}

	if c.Journal.BufferSize <= 0 {
		return errors.New("EVENT_BUFFER_SIZE must be positive")
	}

	return nil
}

// Validate checks the economy constants for internal consistency.
func (e EconomyConfig) Validate() error {
	switch {
	case e.Authority == "":
		return errors.New("ECONOMY_AUTHORITY must be provided")
	case e.EggPrice == nil || e.EggPrice.Sign() <= 0:
		return errors.New("EGG_PRICE_WEI must be positive")
	case e.AntSalePrice == nil || e.AntSalePrice.Sign() <= 0:
		return errors.New("ANT_SALE_PRICE_WEI must be positive")
	case e.Cooldown < 0:
		return errors.New("LAY_COOLDOWN must not be negative")
	case e.YieldMin == 0:
		return errors.New("EGG_YIELD_MIN must be at least 1")
	case e.YieldMax < e.YieldMin:
		return errors.New("EGG_YIELD_MAX must not be below EGG_YIELD_MIN")
	case e.DeathPercent > 100:
		return errors.New("ANT_DEATH_PERCENT must be between 0 and 100")
	}

	if e.Clock != ClockSystem && e.Clock != ClockManual {
		return fmt.Errorf("ECONOMY_CLOCK must be %q or %q, got %q", ClockSystem, ClockManual, e.Clock)
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvUint(key string, dst *uint64) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(strings.ReplaceAll(raw, "_", ""), 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = v
	return nil
}

func getenvWei(key string, dst **big.Int) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	v, err := currency.ParseWei(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = v
	return nil
}

func getenvInt(key string, dst *int) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = v
	return nil
}

func getenvBool(key string, dst *bool) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = v
	return nil
}

func getenvDuration(key string, dst *time.Duration) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = v
	return nil
}
