package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	"jopacoin/database"
	"jopacoin/domain/entities"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseName string `env:"DATABASE_NAME"`

	// NATS configuration
	NATSServers string `env:"NATS_SERVERS" envDefault:"nats://nats:4222"`
	NATSEnabled bool   `env:"NATS_ENABLED" envDefault:"true"`

	// Status API
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// Economy
	StartingBalance       int64   `env:"STARTING_BALANCE" envDefault:"3"`
	MaxDebt               int64   `env:"MAX_DEBT" envDefault:"500"`
	LeverageTiers         []int64 `env:"LEVERAGE_TIERS" envSeparator:"," envDefault:"2,3,5"`
	HousePayoutMultiplier float64 `env:"HOUSE_PAYOUT_MULTIPLIER" envDefault:"1.0"`
	DefaultBettingMode    string  `env:"DEFAULT_BETTING_MODE" envDefault:"pool"`
	BetLockSeconds        int     `env:"BET_LOCK_SECONDS" envDefault:"900"`

	// Auto-liquidity blind bets
	AutoBlindEnabled       bool    `env:"AUTO_BLIND_ENABLED" envDefault:"true"`
	AutoBlindThreshold     int64   `env:"AUTO_BLIND_THRESHOLD" envDefault:"50"`
	AutoBlindPercentage    float64 `env:"AUTO_BLIND_PERCENTAGE" envDefault:"0.05"`
	BombPotBlindPercentage float64 `env:"BOMB_POT_BLIND_PERCENTAGE" envDefault:"0.10"`
	BombPotAnte            int64   `env:"BOMB_POT_ANTE" envDefault:"10"`

	// Per-guild overrides loaded at startup
	GuildSettingsFile string `env:"GUILD_SETTINGS_FILE"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// OpenTelemetry metrics
	OTelEnabled              bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTelExporterType         string `env:"OTEL_EXPORTER_TYPE" envDefault:"none"`
	OTelOTLPEndpoint         string `env:"OTEL_OTLP_ENDPOINT" envDefault:"otel-collector:4317"`
	OTelServiceName          string `env:"OTEL_SERVICE_NAME" envDefault:"jopacoin"`
	OTelExportIntervalMillis int    `env:"OTEL_EXPORT_INTERVAL_MS" envDefault:"60000"`

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			// In test environment, use a default test config instead of panicking
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.Environment != "test" {
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
		// If DatabaseName is provided, ensure it's not empty
		if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
			return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	if c.MaxDebt < 0 {
		return fmt.Errorf("MAX_DEBT must not be negative")
	}
	if !validHouseMultiplier(c.HousePayoutMultiplier) {
		return fmt.Errorf("HOUSE_PAYOUT_MULTIPLIER must be between 0 and %v, got %v", entities.MaxHouseMultiplier, c.HousePayoutMultiplier)
	}
	for _, tier := range c.LeverageTiers {
		if tier < 2 {
			return fmt.Errorf("LEVERAGE_TIERS entries must be at least 2, got %d", tier)
		}
	}
	switch c.DefaultBettingMode {
	case "pool", "house":
	default:
		return fmt.Errorf("DEFAULT_BETTING_MODE must be pool or house, got %q", c.DefaultBettingMode)
	}
	if c.BetLockSeconds <= 0 {
		return fmt.Errorf("BET_LOCK_SECONDS must be positive")
	}

	return nil
}

func validHouseMultiplier(m float64) bool {
	return !math.IsNaN(m) && m >= 0 && m <= entities.MaxHouseMultiplier
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:            "test",
		StartingBalance:        3,
		MaxDebt:                500,
		LeverageTiers:          []int64{2, 3, 5},
		HousePayoutMultiplier:  1.0,
		DefaultBettingMode:     "pool",
		BetLockSeconds:         900,
		AutoBlindEnabled:       true,
		AutoBlindThreshold:     50,
		AutoBlindPercentage:    0.05,
		BombPotBlindPercentage: 0.10,
		BombPotAnte:            10,
		LogLevel:               "info",
		LogFormat:              "text",
		OTelExporterType:       "none",
		OTelServiceName:        "jopacoin",
	}
}
