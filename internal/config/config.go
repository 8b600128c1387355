package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"budget-meal-planner/internal/prompt"
)

// ConfigFileEnv names an optional YAML/JSON/TOML file layered under the
// environment.
const ConfigFileEnv = "MEALPLANNER_CONFIG"

const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"

	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"

	InstructionsRequire   = "require"
	InstructionsFabricate = "fabricate"
)

// Timeouts bounds every external call by its expected latency.
type Timeouts struct {
	Plan         time.Duration `mapstructure:"plan"`
	Replacement  time.Duration `mapstructure:"replacement"`
	Recipe       time.Duration `mapstructure:"recipe"`
	ShoppingList time.Duration `mapstructure:"shopping_list"`
	Image        time.Duration `mapstructure:"image"`
	Barcode      time.Duration `mapstructure:"barcode"`
}

// Config holds the configuration for the application.
type Config struct {
	LLMProvider       string `mapstructure:"llm_provider"`
	GeminiAPIKey      string `mapstructure:"gemini_api_key"`
	GeminiModel       string `mapstructure:"gemini_model"`
	GeminiVisionModel string `mapstructure:"gemini_vision_model"`
	GroqAPIKey        string `mapstructure:"groq_api_key"`
	GroqModel         string `mapstructure:"groq_model"`

	DataDir       string `mapstructure:"data_dir"`
	StorageDriver string `mapstructure:"storage_driver"`
	DatabasePath  string `mapstructure:"database_path"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix"`

	Timeouts          Timeouts `mapstructure:"timeouts"`
	PrefetchBatchSize int      `mapstructure:"prefetch_batch_size"`
	InstructionPolicy string   `mapstructure:"instruction_policy"`
	BarcodeAPIURL     string   `mapstructure:"barcode_api_url"`

	LogLevel    string `mapstructure:"log_level"`
	LogRingSize int    `mapstructure:"log_ring_size"`

	BudgetTiers prompt.TierTable `mapstructure:"budget_tiers"`

	// Telegram Config
	TelegramBotToken    string `mapstructure:"telegram_bot_token"`
	TelegramWebhookURL  string `mapstructure:"telegram_webhook_url"`
	TelegramAllowUserID int64  `mapstructure:"telegram_allow_user_id"`
	ListenAddr          string `mapstructure:"listen_addr"`
}

// envNames maps config keys to the environment variables that set them.
var envNames = map[string]string{
	"llm_provider":           "LLM_PROVIDER",
	"gemini_api_key":         "GEMINI_API_KEY",
	"gemini_model":           "GEMINI_MODEL",
	"gemini_vision_model":    "GEMINI_VISION_MODEL",
	"groq_api_key":           "GROQ_API_KEY",
	"groq_model":             "GROQ_MODEL",
	"data_dir":               "DATA_DIR",
	"storage_driver":         "STORAGE_DRIVER",
	"database_path":          "DATABASE_PATH",
	"redis_addr":             "REDIS_ADDR",
	"redis_password":         "REDIS_PASSWORD",
	"redis_db":               "REDIS_DB",
	"redis_prefix":           "REDIS_PREFIX",
	"prefetch_batch_size":    "PREFETCH_BATCH_SIZE",
	"instruction_policy":     "INSTRUCTION_POLICY",
	"barcode_api_url":        "BARCODE_API_URL",
	"log_level":              "LOG_LEVEL",
	"log_ring_size":          "LOG_RING_SIZE",
	"telegram_bot_token":     "TELEGRAM_BOT_TOKEN",
	"telegram_webhook_url":   "TELEGRAM_WEBHOOK_URL",
	"telegram_allow_user_id": "TELEGRAM_ALLOW_USER_ID",
	"listen_addr":            "PORT",
	"timeouts.plan":          "TIMEOUT_PLAN",
	"timeouts.replacement":   "TIMEOUT_REPLACEMENT",
	"timeouts.recipe":        "TIMEOUT_RECIPE",
	"timeouts.shopping_list": "TIMEOUT_SHOPPING_LIST",
	"timeouts.image":         "TIMEOUT_IMAGE",
	"timeouts.barcode":       "TIMEOUT_BARCODE",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm_provider", ProviderGemini)
	v.SetDefault("gemini_model", "gemini-2.0-flash")
	v.SetDefault("gemini_vision_model", "gemini-2.0-flash")
	v.SetDefault("groq_model", "llama-3.3-70b-versatile")

	v.SetDefault("data_dir", "data")
	v.SetDefault("storage_driver", StorageFile)
	v.SetDefault("database_path", "data/db/planner.db")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_prefix", "mealplanner:")

	v.SetDefault("timeouts.plan", "2m")
	v.SetDefault("timeouts.replacement", "30s")
	v.SetDefault("timeouts.recipe", "90s")
	v.SetDefault("timeouts.shopping_list", "3m")
	v.SetDefault("timeouts.image", "3m")
	v.SetDefault("timeouts.barcode", "15s")

	v.SetDefault("prefetch_batch_size", 3)
	v.SetDefault("instruction_policy", InstructionsRequire)
	v.SetDefault("barcode_api_url", "https://world.openfoodfacts.org")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_ring_size", 200)
	v.SetDefault("listen_addr", "8080")
}

// NewFromEnv creates a new Config from defaults, the optional config file
// named by MEALPLANNER_CONFIG and environment variables, in increasing
// precedence.
func NewFromEnv() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, env := range envNames {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	if len(cfg.BudgetTiers) == 0 {
		cfg.BudgetTiers = prompt.DefaultTiers()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields the selected provider and storage need.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY environment variable not set")
		}
	case ProviderGroq:
		if c.GroqAPIKey == "" {
			return errors.New("GROQ_API_KEY environment variable not set")
		}
		// Groq has no vision model; pantry photos still go to Gemini.
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	switch c.StorageDriver {
	case StorageFile, StorageSQLite:
	case StorageRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR must be set for the redis storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	switch c.InstructionPolicy {
	case InstructionsRequire, InstructionsFabricate:
	default:
		return fmt.Errorf("unknown INSTRUCTION_POLICY %q", c.InstructionPolicy)
	}

	if c.PrefetchBatchSize < 1 {
		return errors.New("PREFETCH_BATCH_SIZE must be at least 1")
	}
	if c.LogRingSize < 1 {
		return errors.New("LOG_RING_SIZE must be at least 1")
	}
	return c.BudgetTiers.Validate()
}

// VisionEnabled reports whether pantry photo analysis can run.
func (c *Config) VisionEnabled() bool {
	return c.GeminiAPIKey != ""
}
