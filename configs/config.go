package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the client and the development backend
type Config struct {
	API        APIConfig        `yaml:"api"`
	CoinGecko  CoinGeckoConfig  `yaml:"coingecko"`
	Onboarding OnboardingConfig `yaml:"onboarding"`
	State      StateConfig      `yaml:"state"`
	Refresh    RefreshConfig    `yaml:"refresh"`
	Console    ConsoleConfig    `yaml:"console"`
	Log        LogConfig        `yaml:"log"`
	Server     ServerConfig     `yaml:"server"`
}

// APIConfig holds backend client configuration
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// CoinGeckoConfig holds coin search configuration
type CoinGeckoConfig struct {
	BaseURL string `yaml:"base_url"`
}

// OnboardingConfig holds onboarding behaviour
type OnboardingConfig struct {
	// OtherPolicy is one of require, raw, omit
	OtherPolicy string `yaml:"other_policy"`
}

// StateConfig holds durable client storage configuration
type StateConfig struct {
	Path string `yaml:"path"`
}

// RefreshConfig holds the auto refresh schedule; empty Schedule disables it
type RefreshConfig struct {
	Schedule string `yaml:"schedule"`
	Sections string `yaml:"sections"`
}

// ConsoleConfig holds the local console API configuration
type ConsoleConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text|json
}

// ServerConfig holds development backend configuration
type ServerConfig struct {
	Port        string        `yaml:"port"`
	Env         string        `yaml:"env"`
	DatabaseURL string        `yaml:"database_url"`
	DBMaxConns  int32         `yaml:"db_max_conns"`
	JWTSecret   string        `yaml:"jwt_secret"`
	JWTTTL      time.Duration `yaml:"jwt_ttl"`
	Timezone    string        `yaml:"timezone"`
	// LivePrices serves the prices section from CoinGecko instead of fixtures
	LivePrices bool `yaml:"live_prices"`
}

// Other asset policies
const (
	OtherPolicyRequire = "require"
	OtherPolicyRaw     = "raw"
	OtherPolicyOmit    = "omit"
)

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
		},
		CoinGecko: CoinGeckoConfig{
			BaseURL: "https://api.coingecko.com/api/v3",
		},
		Onboarding: OnboardingConfig{
			OtherPolicy: OtherPolicyOmit,
		},
		State: StateConfig{
			Path: defaultStatePath(),
		},
		Refresh: RefreshConfig{
			Sections: "prices,news",
		},
		Console: ConsoleConfig{
			Addr: "127.0.0.1:8090",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Port:       "8000",
			Env:        "development",
			JWTSecret:  "default-secret-change-in-production",
			JWTTTL:     time.Hour,
			Timezone:   "UTC",
			DBMaxConns: 5,
		},
	}
}

// Load loads configuration from defaults, the optional YAML file named by
// CRYPTODASH_CONFIG and then environment variables
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CRYPTODASH_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.API.BaseURL = getEnv("CRYPTODASH_API_URL", getEnv("VITE_API_URL", cfg.API.BaseURL))
	cfg.CoinGecko.BaseURL = getEnv("COINGECKO_API_URL", cfg.CoinGecko.BaseURL)
	cfg.Onboarding.OtherPolicy = getEnv("ONBOARDING_OTHER_POLICY", cfg.Onboarding.OtherPolicy)
	cfg.State.Path = getEnv("CRYPTODASH_STATE_PATH", cfg.State.Path)
	cfg.Refresh.Schedule = getEnv("CRYPTODASH_AUTO_REFRESH", cfg.Refresh.Schedule)
	cfg.Refresh.Sections = getEnv("CRYPTODASH_AUTO_REFRESH_SECTIONS", cfg.Refresh.Sections)
	cfg.Console.Addr = getEnv("CONSOLE_ADDR", cfg.Console.Addr)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.Env = getEnv("GO_ENV", cfg.Server.Env)
	cfg.Server.DatabaseURL = getEnv("DATABASE_URL", cfg.Server.DatabaseURL)
	cfg.Server.JWTSecret = getEnv("JWT_SECRET", cfg.Server.JWTSecret)
	cfg.Server.Timezone = getEnv("TZ", cfg.Server.Timezone)
	if v := os.Getenv("DEV_LIVE_PRICES"); v != "" {
		cfg.Server.LivePrices = v == "1" || strings.EqualFold(v, "true")
	}

	var err error
	if cfg.API.Timeout, err = getDuration("CRYPTODASH_HTTP_TIMEOUT", cfg.API.Timeout); err != nil {
		return nil, err
	}
	if cfg.Server.JWTTTL, err = getDuration("JWT_TTL", cfg.Server.JWTTTL); err != nil {
		return nil, err
	}
	if v := os.Getenv("DB_MAX_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid DB_MAX_CONNS %q", v)
		}
		cfg.Server.DBMaxConns = int32(n)
	}

	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	cfg.CoinGecko.BaseURL = strings.TrimRight(cfg.CoinGecko.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have a fixed set of choices
func (c *Config) Validate() error {
	switch c.Onboarding.OtherPolicy {
	case OtherPolicyRequire, OtherPolicyRaw, OtherPolicyOmit:
	default:
		return fmt.Errorf("invalid ONBOARDING_OTHER_POLICY %q (want require, raw or omit)", c.Onboarding.OtherPolicy)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("CRYPTODASH_API_URL is required")
	}
	return nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".cryptodash", "state.db")
	}
	return filepath.Join(home, ".cryptodash", "state.db")
}
