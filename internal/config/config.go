// Package config provides configuration management for alertdesk.
// It uses Viper to load settings from a .env file, config files and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration for alertdesk.
type Config struct {
	// ── Server ───────────────────────────────────────────────────────────────
	ServerHost     string        `mapstructure:"server_host"`
	ServerPort     int           `mapstructure:"server_port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// IngestToken, when set, must be presented as "Authorization: Bearer <token>"
	// on POST /alerts/. Empty leaves ingestion open.
	IngestToken string `mapstructure:"ingest_token"`

	// ── Database ─────────────────────────────────────────────────────────────
	// DatabaseURL selects the hosted Postgres store; empty means embedded SQLite at DBPath.
	DatabaseURL    string `mapstructure:"database_url"`
	DBPath         string `mapstructure:"db_path"`
	DBMaxOpenConns int    `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns int    `mapstructure:"db_max_idle_conns"`

	// ── Events ───────────────────────────────────────────────────────────────
	// RedisAddr enables publishing saved alerts; empty disables it.
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisChannel  string `mapstructure:"redis_channel"`

	// ── Logging ──────────────────────────────────────────────────────────────
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // console | json

	// ── Agent ────────────────────────────────────────────────────────────────
	AgentServerAddr string  `mapstructure:"agent_server_addr"`
	AgentInterval   int     `mapstructure:"agent_interval_seconds"`
	AgentToken      string  `mapstructure:"agent_token"`
	AgentCPU        float64 `mapstructure:"agent_cpu_threshold"`
	AgentMem        float64 `mapstructure:"agent_mem_threshold"`
	AgentDisk       float64 `mapstructure:"agent_disk_threshold"`
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// Load reads .env (if present), then ./config.yaml or ~/.alertdesk/config.yaml,
// and falls back to defaults. Environment variables with prefix ALERTDESK_
// override file values; DATABASE_URL is also honored without the prefix.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.alertdesk")
	if err := v.ReadInConfig(); err != nil {
		// config file is optional
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("ALERTDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database_url", "ALERTDESK_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", 8000)
	v.SetDefault("request_timeout", 10*time.Second)
	v.SetDefault("ingest_token", "")

	v.SetDefault("database_url", "")
	v.SetDefault("db_path", "monitor.db")
	v.SetDefault("db_max_open_conns", 10)
	v.SetDefault("db_max_idle_conns", 5)

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_channel", "alert_events")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	v.SetDefault("agent_server_addr", "127.0.0.1:8000")
	v.SetDefault("agent_interval_seconds", 30)
	v.SetDefault("agent_token", "")
	v.SetDefault("agent_cpu_threshold", 90.0)
	v.SetDefault("agent_mem_threshold", 90.0)
	v.SetDefault("agent_disk_threshold", 90.0)
}
