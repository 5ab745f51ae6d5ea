package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot transport settings.
// envconfig resolves TELEGRAM_BOT_TOKEN first and falls back to BOT_TOKEN.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN" validate:"required"`
	BotID   string `yaml:"bot_id" envconfig:"BOT_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS" validate:"gte=0"`
}

// AccessConfig lists who may talk to the bot besides the whitelist.
// AdminIDs is filled from ADMIN_IDS by Load; invalid entries end up in Config.Warnings.
type AccessConfig struct {
	OwnerID  int64   `yaml:"owner_id" envconfig:"USER_ID"`
	AdminIDs []int64 `yaml:"admin_ids" ignored:"true"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"PORT"`
	// Secret is echoed by Telegram in X-Telegram-Bot-Api-Secret-Token.
	Secret string `yaml:"secret" envconfig:"WEBHOOK_SECRET"`
}

// MetricsConfig enables the Prometheus listener when Listen is set, e.g. ":9090".
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// StorageConfig selects where whitelist, events and media are persisted.
type StorageConfig struct {
	Driver  string `yaml:"driver" envconfig:"STORAGE_DRIVER" validate:"oneof=json postgres"`
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
}

// DatabaseConfig holds Postgres connection settings used by the postgres storage driver.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	MigrationsDir  string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
}

// AIConfig configures the chat-completion endpoint used for post generation.
// An empty APIKey disables generation; handlers answer with an apology.
type AIConfig struct {
	APIKey       string `yaml:"api_key" envconfig:"AI_API_KEY"`
	BaseURL      string `yaml:"base_url" envconfig:"AI_BASE_URL" validate:"omitempty,url"`
	Model        string `yaml:"model" envconfig:"AI_MODEL"`
	SystemPrompt string `yaml:"system_prompt" envconfig:"AI_SYSTEM_PROMPT"`
}

// WatermarkConfig controls photo annotation.
type WatermarkConfig struct {
	LogoPath  string  `yaml:"logo_path" envconfig:"LOGO_PATH"`
	Scale     float64 `yaml:"scale" envconfig:"WATERMARK_SCALE" validate:"gt=0,lte=1"`
	Corner    string  `yaml:"corner" envconfig:"WATERMARK_CORNER" validate:"oneof=top-left top-right bottom-left bottom-right"`
	Margin    int     `yaml:"margin" envconfig:"WATERMARK_MARGIN" validate:"gte=0"`
	MaxPhotos int     `yaml:"max_photos" envconfig:"MAX_PHOTOS" validate:"gte=1"`
	Workers   int     `yaml:"workers" envconfig:"WATERMARK_WORKERS" validate:"gte=1"`
}

// ControlPlaneConfig points at the agent that manages the bot process.
type ControlPlaneConfig struct {
	URL string `yaml:"url" envconfig:"BOTHOST_AGENT_URL" validate:"required,url"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// StorageJSON keeps collections in JSON documents under Storage.DataDir.
	StorageJSON = "json"
	// StoragePostgres keeps collections in Postgres tables.
	StoragePostgres = "postgres"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
	// UpdateInlineQuery identifies inline query updates for rate limit exclusions.
	UpdateInlineQuery = "inline_query"
)

// Defaults applied by Normalize when a value is left empty.
const (
	DefaultAgentURL   = "http://agent:8000"
	DefaultDataDir    = "data"
	DefaultMaxPhotos  = 10
	DefaultScale      = 0.2
	DefaultCorner     = "bottom-right"
	DefaultMargin     = 20
	DefaultAIModel    = "gpt-4o-mini"
	DefaultWorkers    = 4
	DefaultMigrations = "migrations"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
// - "inline_query": inline query updates
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS" validate:"gte=0"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the whole process configuration.
type Config struct {
	Telegram     TelegramConfig     `yaml:"telegram"`
	Access       AccessConfig       `yaml:"access"`
	Webhook      WebhookConfig      `yaml:"webhook"`
	Logging      LoggingConfig      `yaml:"logging"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Storage      StorageConfig      `yaml:"storage"`
	Database     DatabaseConfig     `yaml:"database"`
	AI           AIConfig           `yaml:"ai"`
	Watermark    WatermarkConfig    `yaml:"watermark"`
	ControlPlane ControlPlaneConfig `yaml:"control_plane"`
	Metrics      MetricsConfig      `yaml:"metrics"`

	// Warnings collects non-fatal problems found while loading, logged once the logger is up.
	Warnings []string `yaml:"-" ignored:"true"`
}

// Load reads an optional .env file and YAML config, then overlays environment variables.
// A missing YAML file is not an error: the bot is normally configured through the environment alone.
func Load(path string) (*Config, error) {
	var cfg Config

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("failed to load .env: %v", err))
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse YAML config: %w", err)
			}
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if raw, ok := os.LookupEnv("ADMIN_IDS"); ok {
		ids, bad := ParseAdminIDs(raw)
		cfg.Access.AdminIDs = ids
		for _, b := range bad {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ADMIN_IDS: skipping invalid entry %q", b))
		}
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize fills defaults, resolves aliases and validates the result.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram token is required (BOT_TOKEN or TELEGRAM_BOT_TOKEN)")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			cfg.Webhook.Listen = "0.0.0.0"
		}
		if cfg.Webhook.Port <= 0 {
			cfg.Webhook.Port = 3000
		}
	case RunModeLongpoll:
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if len(cfg.Access.AdminIDs) == 0 && cfg.Access.OwnerID != 0 {
		cfg.Access.AdminIDs = []int64{cfg.Access.OwnerID}
	}

	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageJSON
	}
	if strings.TrimSpace(cfg.Storage.DataDir) == "" {
		cfg.Storage.DataDir = DefaultDataDir
	}
	if cfg.Database.MigrationsDir == "" {
		cfg.Database.MigrationsDir = DefaultMigrations
	}

	if strings.TrimSpace(cfg.ControlPlane.URL) == "" {
		cfg.ControlPlane.URL = DefaultAgentURL
	}
	cfg.ControlPlane.URL = strings.TrimRight(cfg.ControlPlane.URL, "/")

	if strings.TrimSpace(cfg.AI.Model) == "" {
		cfg.AI.Model = DefaultAIModel
	}

	wm := &cfg.Watermark
	if wm.Scale == 0 {
		wm.Scale = DefaultScale
	}
	wm.Corner = strings.ToLower(strings.TrimSpace(wm.Corner))
	if wm.Corner == "" {
		wm.Corner = DefaultCorner
	}
	if wm.Margin == 0 {
		wm.Margin = DefaultMargin
	}
	if wm.MaxPhotos == 0 {
		wm.MaxPhotos = DefaultMaxPhotos
	}
	if wm.Workers == 0 {
		wm.Workers = DefaultWorkers
	}

	allowed := map[string]struct{}{
		UpdateCallback:    {},
		UpdateMessage:     {},
		UpdateInlineQuery: {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message, inline_query", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}

	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// IsAdmin reports whether id belongs to the configured admin set.
func (c *Config) IsAdmin(id int64) bool {
	if c == nil || id == 0 {
		return false
	}
	for _, a := range c.Access.AdminIDs {
		if a == id {
			return true
		}
	}
	return false
}
