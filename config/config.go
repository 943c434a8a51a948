package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Store backends understood by storage.Open.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// CreatureConfig holds the creature data API settings.
type CreatureConfig struct {
	BaseURL    string  `json:"base_url" toml:"base_url"`
	MaxID      int     `json:"max_id" toml:"max_id"` // identifiers are drawn from [1, MaxID]
	TimeoutMS  int     `json:"timeout_ms" toml:"timeout_ms"`
	RatePerSec float64 `json:"rate_per_sec" toml:"rate_per_sec"`
}

// StoreConfig selects and configures the key-value backend holding scores and the player name.
type StoreConfig struct {
	Backend     string `json:"backend" toml:"backend"`
	FilePath    string `json:"file_path" toml:"file_path"`
	WatchFile   bool   `json:"watch_file" toml:"watch_file"`
	SQLitePath  string `json:"sqlite_path" toml:"sqlite_path"`
	DatabaseURL string `json:"database_url" toml:"database_url"`
	RedisAddr   string `json:"redis_addr" toml:"redis_addr"`
	RedisPrefix string `json:"redis_key_prefix" toml:"redis_key_prefix"`
}

// Config holds all configurable parameters.
type Config struct {
	Port            int    `json:"port" toml:"port"`
	MismatchDelayMS int    `json:"mismatch_delay_ms" toml:"mismatch_delay_ms"`
	TickIntervalMS  int    `json:"tick_interval_ms" toml:"tick_interval_ms"`
	MaxNameLength   int    `json:"max_name_length" toml:"max_name_length"`
	DefaultName     string `json:"default_player_name" toml:"default_player_name"`

	// RecordWins stores a score record whenever a session's round is won.
	RecordWins bool `json:"record_wins" toml:"record_wins"`

	SessionIdleTimeoutSec int `json:"session_idle_timeout_sec" toml:"session_idle_timeout_sec"`
	JanitorIntervalSec    int `json:"janitor_interval_sec" toml:"janitor_interval_sec"`

	// NeonAuthBaseURL enables the optional auth message; empty disables it.
	NeonAuthBaseURL string `json:"neon_auth_base_url" toml:"neon_auth_base_url"`
	LogLevel        string `json:"log_level" toml:"log_level"`

	Creature CreatureConfig `json:"creature" toml:"creature"`
	Store    StoreConfig    `json:"store" toml:"store"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		Port:                  8080,
		MismatchDelayMS:       1000,
		TickIntervalMS:        1000,
		MaxNameLength:         20,
		DefaultName:           "Pokemon Trainer",
		RecordWins:            true,
		SessionIdleTimeoutSec: 1800,
		JanitorIntervalSec:    60,
		LogLevel:              "info",
		Creature: CreatureConfig{
			BaseURL:    "https://pokeapi.co/api/v2",
			MaxID:      151,
			TimeoutMS:  5000,
			RatePerSec: 10,
		},
		Store: StoreConfig{
			Backend:    BackendFile,
			FilePath:   "data/pokematch.json",
			WatchFile:  true,
			SQLitePath: "data/pokematch.db",
		},
	}
}

// MismatchDelay is how long a mismatched pair stays face-up.
func (c *Config) MismatchDelay() time.Duration {
	return time.Duration(c.MismatchDelayMS) * time.Millisecond
}

// TickInterval is the period of the round clock.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// SessionIdleTimeout is how long a session may go without activity before it is reaped.
func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleTimeoutSec) * time.Second
}

// JanitorInterval is the period of the idle session sweep.
func (c *Config) JanitorInterval() time.Duration {
	return time.Duration(c.JanitorIntervalSec) * time.Second
}

// Load reads configuration from an optional config.toml or config.json file,
// then applies environment variable overrides. Fields not set
// in either source retain their default values.
func Load() *Config {
	cfg := Defaults()

	if data, err := os.ReadFile("config.toml"); err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			slog.Warn("failed to parse config.toml", "tag", "config", "err", err)
		}
	} else if f, err := os.Open("config.json"); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			slog.Warn("failed to parse config.json", "tag", "config", "err", err)
		}
	}

	overrideInt(&cfg.Port, "PORT")
	overrideInt(&cfg.MismatchDelayMS, "MISMATCH_DELAY_MS")
	overrideInt(&cfg.TickIntervalMS, "TICK_INTERVAL_MS")
	overrideInt(&cfg.MaxNameLength, "MAX_NAME_LENGTH")
	overrideString(&cfg.DefaultName, "DEFAULT_PLAYER_NAME")
	overrideBool(&cfg.RecordWins, "RECORD_WINS")
	overrideInt(&cfg.SessionIdleTimeoutSec, "SESSION_IDLE_TIMEOUT_SEC")
	overrideInt(&cfg.JanitorIntervalSec, "JANITOR_INTERVAL_SEC")
	overrideString(&cfg.NeonAuthBaseURL, "NEON_AUTH_BASE_URL")
	overrideString(&cfg.LogLevel, "LOG_LEVEL")

	overrideString(&cfg.Creature.BaseURL, "CREATURE_API_URL")
	overrideInt(&cfg.Creature.MaxID, "CREATURE_MAX_ID")
	overrideInt(&cfg.Creature.TimeoutMS, "CREATURE_TIMEOUT_MS")
	overrideFloat(&cfg.Creature.RatePerSec, "CREATURE_RATE_PER_SEC")

	overrideString(&cfg.Store.Backend, "STORE_BACKEND")
	overrideString(&cfg.Store.FilePath, "STORE_FILE")
	overrideBool(&cfg.Store.WatchFile, "STORE_WATCH_FILE")
	overrideString(&cfg.Store.SQLitePath, "SQLITE_PATH")
	overrideString(&cfg.Store.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.Store.RedisAddr, "REDIS_ADDR")
	overrideString(&cfg.Store.RedisPrefix, "REDIS_KEY_PREFIX")

	return cfg
}

// SlogLevel parses LogLevel, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			slog.Warn("invalid value", "tag", "config", "key", envKey, "value", val)
		}
	}
}

func overrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*field = f
		} else {
			slog.Warn("invalid value", "tag", "config", "key", envKey, "value", val)
		}
	}
}

func overrideBool(field *bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*field = b
		} else {
			slog.Warn("invalid value", "tag", "config", "key", envKey, "value", val)
		}
	}
}

func overrideString(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}
