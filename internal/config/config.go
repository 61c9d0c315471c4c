// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"telegram-dating-onboarding/internal/domain/registration"
)

type RuntimeConfig struct {
	Dev     bool
	Migrate bool
}

type BotConfig struct {
	Token    string `yaml:"token"`
	Username string `yaml:"username"`
	Workers  int    `yaml:"workers"` // update dispatch workers
	Language string `yaml:"language"`
	// SendRate caps outgoing messages per second across all chats.
	SendRate  float64 `yaml:"send_rate"`
	SendBurst int     `yaml:"send_burst"`
	// CommandLimit is the number of commands a user may send per CommandWindow.
	CommandLimit  int           `yaml:"command_limit"`
	CommandWindow time.Duration `yaml:"command_window"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	PublicURL      string        `yaml:"public_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StorageConfig struct {
	// URL is the base of a Supabase-compatible storage REST API, e.g.
	// https://<project>.supabase.co/storage/v1
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Bucket  string        `yaml:"bucket"`
	DiskDir string        `yaml:"disk_dir"` // dev mode target
	Timeout time.Duration `yaml:"timeout"`
}

type RegistrationConfig struct {
	DraftTTL       time.Duration `yaml:"draft_ttl"`
	LockTTL        time.Duration `yaml:"lock_ttl"`
	UploadAttempts int           `yaml:"upload_attempts"`
	UploadDelay    time.Duration `yaml:"upload_delay"`
	SubmitTimeout  time.Duration `yaml:"submit_timeout"`
	ProbeInterval  time.Duration `yaml:"probe_interval"`
}

type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

func (g GoogleConfig) Enabled() bool { return g.ClientID != "" && g.ClientSecret != "" }

type SecurityConfig struct {
	EncryptionKey string        `yaml:"encryption_key"`
	JWTSecret     string        `yaml:"jwt_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
}

type Config struct {
	Bot          BotConfig          `yaml:"bot"`
	Log          LogConfig          `yaml:"log"`
	HTTP         HTTPConfig         `yaml:"http"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Storage      StorageConfig      `yaml:"storage"`
	Registration RegistrationConfig `yaml:"registration"`
	Google       GoogleConfig       `yaml:"google"`
	Security     SecurityConfig     `yaml:"security"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig parses the command line flags and loads the YAML file they name.
func LoadConfig() (*Config, error) {
	var configPath string
	var dev, migrate bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode (in-memory drafts, disk photo bucket)")
	flag.BoolVar(&migrate, "migrate", false, "apply database migrations before starting")
	flag.Parse()

	cfg, err := Load(configPath, dev)
	if err != nil {
		return nil, err
	}
	cfg.Runtime.Migrate = migrate
	return cfg, nil
}

// Load reads path, expanding ${VAR} references from the environment. A .env
// file in the working directory is loaded first when present.
func Load(path string, dev bool) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

// Parse decodes raw YAML, applies defaults and validates the result.
func Parse(raw []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)

	// Minimal validation. Dev mode runs without a bot token on a logging stub.
	if !dev {
		if cfg.Bot.Token == "" {
			return nil, errors.New("bot.token is required")
		}
		if cfg.Database.URL == "" {
			return nil, errors.New("database.url is required")
		}
		if cfg.Redis.URL == "" {
			return nil, errors.New("redis.url is required")
		}
		if cfg.Storage.URL == "" {
			return nil, errors.New("storage.url is required")
		}
		if cfg.Security.JWTSecret == "" {
			return nil, errors.New("security.jwt_secret is required")
		}
	}
	if cfg.Security.EncryptionKey != "" && len(cfg.Security.EncryptionKey) != 32 {
		return nil, errors.New("security.encryption_key must be 32 bytes")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.Language == "" {
		cfg.Bot.Language = "en"
	}
	if cfg.Bot.SendRate <= 0 {
		cfg.Bot.SendRate = 25
	}
	if cfg.Bot.SendBurst <= 0 {
		cfg.Bot.SendBurst = 5
	}
	if cfg.Bot.CommandLimit <= 0 {
		cfg.Bot.CommandLimit = 20
	}
	cfg.Bot.CommandWindow = orDefault(cfg.Bot.CommandWindow, time.Minute)
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = 8080
	}
	cfg.HTTP.RequestTimeout = orDefault(cfg.HTTP.RequestTimeout, 15*time.Second)
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "profile-photos"
	}
	if cfg.Storage.DiskDir == "" {
		cfg.Storage.DiskDir = "./data/photos"
	}
	cfg.Storage.Timeout = orDefault(cfg.Storage.Timeout, 30*time.Second)

	r := &cfg.Registration
	r.DraftTTL = orDefault(r.DraftTTL, 24*time.Hour)
	r.LockTTL = orDefault(r.LockTTL, 11*time.Minute)
	if r.UploadAttempts <= 0 {
		r.UploadAttempts = 3
	}
	r.UploadDelay = orDefault(r.UploadDelay, 2*time.Second)
	r.SubmitTimeout = orDefault(r.SubmitTimeout, 10*time.Second)
	r.ProbeInterval = orDefault(r.ProbeInterval, 15*time.Second)
	if budget := FinalizeBudget(cfg); r.LockTTL < budget {
		r.LockTTL = budget
	}

	cfg.Security.SessionTTL = orDefault(cfg.Security.SessionTTL, 30*24*time.Hour)
}

// FinalizeBudget is the longest a finalize can hold the registration lock:
// every photo exhausting its upload attempts, then the submit, plus slack.
// A shorter lock would let a second action start while the first still runs.
func FinalizeBudget(cfg *Config) time.Duration {
	r := cfg.Registration
	perPhoto := time.Duration(r.UploadAttempts)*cfg.Storage.Timeout +
		time.Duration(r.UploadAttempts-1)*r.UploadDelay
	return time.Duration(registration.MaxPhotos)*perPhoto + r.SubmitTimeout + 30*time.Second
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
