package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the bridge API server configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Bridge    BridgeConfig    `mapstructure:"bridge"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Chains    []ChainConfig   `mapstructure:"chains"`
	Tokens    []TokenConfig   `mapstructure:"tokens"`
	Relayer   RelayerConfig   `mapstructure:"relayer"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// BridgeConfig contains bridge orchestration settings
type BridgeConfig struct {
	FeeRate            string        `mapstructure:"fee_rate"`
	MaxTransferAmount  string        `mapstructure:"max_transfer_amount"`
	DefaultSourceChain int64         `mapstructure:"default_source_chain"`
	GasEstimateWei     string        `mapstructure:"gas_estimate_wei"`
	ReconcileDelay     time.Duration `mapstructure:"reconcile_delay"`
	StaleAfter         time.Duration `mapstructure:"stale_after"`
	SweepInterval      time.Duration `mapstructure:"sweep_interval"`
}

// RateLimitConfig contains admission control settings for the initiate path
type RateLimitConfig struct {
	Window      time.Duration `mapstructure:"window"`
	MaxRequests int           `mapstructure:"max_requests"`
}

// ChainConfig describes one supported chain and how to reach it
type ChainConfig struct {
	ID              int64  `mapstructure:"id"`
	Name            string `mapstructure:"name"`
	Symbol          string `mapstructure:"symbol"`
	RPCURL          string `mapstructure:"rpc_url"`
	BlockTime       int    `mapstructure:"block_time"`
	ConfirmedBlocks int    `mapstructure:"confirmed_blocks"`
	Testnet         bool   `mapstructure:"testnet"`
}

// TokenConfig describes one bridgeable token
type TokenConfig struct {
	Address  string  `mapstructure:"address"`
	Name     string  `mapstructure:"name"`
	Symbol   string  `mapstructure:"symbol"`
	Decimals int     `mapstructure:"decimals"`
	Chains   []int64 `mapstructure:"chains"`
	Native   bool    `mapstructure:"native"`
}

// RelayerConfig contains settings for the relayer gateway that owns
// chain submission and signing
type RelayerConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.database", "bridge_api")

	// Bridge defaults
	viper.SetDefault("bridge.fee_rate", "0.01")
	viper.SetDefault("bridge.max_transfer_amount", "1000")
	viper.SetDefault("bridge.default_source_chain", 1)
	viper.SetDefault("bridge.gas_estimate_wei", "10000000000000000")
	viper.SetDefault("bridge.reconcile_delay", "30s")
	viper.SetDefault("bridge.stale_after", "5m")
	viper.SetDefault("bridge.sweep_interval", "1m")

	// Rate limit defaults
	viper.SetDefault("rate_limit.window", "15m")
	viper.SetDefault("rate_limit.max_requests", 10)

	// Relayer defaults
	viper.SetDefault("relayer.request_timeout", "30s")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output_path", "stdout")
}

func validate(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if config.Relayer.BaseURL == "" {
		return fmt.Errorf("relayer.base_url is required")
	}
	if config.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if config.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("rate_limit.max_requests must be positive")
	}
	return nil
}

// GetConnectionString returns a PostgreSQL connection string
func (c *DatabaseConfig) GetConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
