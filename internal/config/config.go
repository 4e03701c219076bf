package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Log      LogConfig      `yaml:"log" toml:"log"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Data     DataConfig     `yaml:"data" toml:"data"`
	Watcher  WatcherConfig  `yaml:"watcher" toml:"watcher"`
	Stream   StreamConfig   `yaml:"stream" toml:"stream"`
	Sync     SyncConfig     `yaml:"sync" toml:"sync"`
	Auth     AuthConfig     `yaml:"auth" toml:"auth"`
	Telegram TelegramConfig `yaml:"telegram" toml:"telegram"`
}

type LogConfig struct {
	Level      string `yaml:"level" toml:"level"`
	Format     string `yaml:"format" toml:"format"`
	File       string `yaml:"file" toml:"file"`
	Console    bool   `yaml:"console" toml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" toml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" toml:"max_age_days"`
}

type ServerConfig struct {
	Port        int      `yaml:"port" toml:"port"`
	CORSOrigins []string `yaml:"cors_origins" toml:"cors_origins"`
}

// DatabaseConfig selects the store backend. Driver "sqlite" (default) uses
// Path; driver "mysql" uses the network fields.
type DatabaseConfig struct {
	Driver   string `yaml:"driver" toml:"driver"`
	Path     string `yaml:"path" toml:"path"`
	Host     string `yaml:"host" toml:"host"`
	Port     int    `yaml:"port" toml:"port"`
	User     string `yaml:"user" toml:"user"`
	Password string `yaml:"password" toml:"password"`
	Name     string `yaml:"name" toml:"name"`
	// BusyTimeoutMS bounds how long a sqlite reader waits on the writer lock.
	BusyTimeoutMS int `yaml:"busy_timeout_ms" toml:"busy_timeout_ms"`
}

// DataConfig points at the root directory holding the flat-file logs.
type DataConfig struct {
	Root string `yaml:"root" toml:"root"`
}

type WatcherConfig struct {
	Enabled      bool     `yaml:"enabled" toml:"enabled"`
	Stability    Duration `yaml:"stability" toml:"stability"`
	PollInterval Duration `yaml:"poll_interval" toml:"poll_interval"`
}

type StreamConfig struct {
	KeepAlive Duration `yaml:"keepalive" toml:"keepalive"`
	Buffer    int      `yaml:"buffer" toml:"buffer"`
}

type SyncConfig struct {
	// Cron is a standard five-field schedule. Empty disables scheduled sync.
	Cron    string `yaml:"cron" toml:"cron"`
	OnStart bool   `yaml:"on_start" toml:"on_start"`
}

// AuthConfig enables bearer-token auth on the API when Secret is set.
type AuthConfig struct {
	Secret       string   `yaml:"secret" toml:"secret"`
	Username     string   `yaml:"username" toml:"username"`
	PasswordHash string   `yaml:"password_hash" toml:"password_hash"`
	TokenTTL     Duration `yaml:"token_ttl" toml:"token_ttl"`
}

type TelegramConfig struct {
	Token  string `yaml:"token" toml:"token"`
	ChatID int64  `yaml:"chat_id" toml:"chat_id"`
}

// Duration accepts "500ms"-style strings in both yaml and toml files.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 3000, CORSOrigins: []string{"*"}},
		Log:    LogConfig{Level: "info", Format: "json", Console: true, MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 30},
		Database: DatabaseConfig{
			Driver:        "sqlite",
			Path:          "./data/mission-control.db",
			Port:          3306,
			Name:          "mission_control",
			BusyTimeoutMS: 5000,
		},
		Data: DataConfig{Root: "/home/clawdbot/clawd"},
		Watcher: WatcherConfig{
			Enabled:      true,
			Stability:    Duration{500 * time.Millisecond},
			PollInterval: Duration{100 * time.Millisecond},
		},
		Stream: StreamConfig{KeepAlive: Duration{30 * time.Second}, Buffer: 64},
		Sync:   SyncConfig{Cron: "*/15 * * * *", OnStart: true},
		Auth:   AuthConfig{TokenTTL: Duration{7 * 24 * time.Hour}},
	}
}

// Load reads the first config file found (or configFile when given) over the
// defaults, then applies environment overrides. Files ending in .toml are
// decoded as TOML, everything else as YAML.
func Load(configFile string) (*Config, error) {
	c := Default()

	paths := []string{"etc/config-dev.yaml", "etc/config-dev.toml", "/etc/mission-control/config.yaml"}
	if configFile != "" {
		paths = []string{configFile}
	}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := decode(path, data, c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		break
	}

	envOverride(&c.Data.Root, "CLAWD_PATH")
	envOverride(&c.Database.Driver, "DB_DRIVER")
	envOverride(&c.Database.Path, "DB_PATH")
	envOverride(&c.Database.Host, "MYSQL_HOST")
	envOverride(&c.Database.User, "MYSQL_USER")
	envOverride(&c.Database.Password, "MYSQL_PASSWORD")
	envOverride(&c.Database.Name, "MYSQL_DATABASE")
	envOverride(&c.Log.Level, "LOG_LEVEL")
	envOverride(&c.Log.File, "LOG_FILE")
	envOverride(&c.Sync.Cron, "SYNC_CRON")
	envOverride(&c.Auth.Secret, "AUTH_SECRET")
	envOverride(&c.Telegram.Token, "TG_TOKEN")
	envOverrideInt(&c.Server.Port, "PORT")
	envOverrideInt(&c.Database.Port, "MYSQL_PORT")
	envOverrideInt64(&c.Telegram.ChatID, "TG_CHAT_ID")

	return c, nil
}

func decode(path string, data []byte, c *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err := toml.Decode(string(data), c)
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envOverrideInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}
