package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv(t *testing.T) {
	// Helper function to set environment variables for a test
	setEnv := func(key, value string) {
		t.Helper()
		t.Setenv(key, value)
	}
	// empty variables count as unset
	reset := func() {
		for _, env := range envNames {
			t.Setenv(env, "")
		}
		t.Setenv(ConfigFileEnv, "")
	}

	t.Run("Defaults", func(t *testing.T) {
		reset()
		setEnv("GEMINI_API_KEY", "gemini_key")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, ProviderGemini, cfg.LLMProvider)
		assert.Equal(t, "gemini_key", cfg.GeminiAPIKey)
		assert.Equal(t, StorageFile, cfg.StorageDriver)
		assert.Equal(t, 3, cfg.PrefetchBatchSize)
		assert.Equal(t, InstructionsRequire, cfg.InstructionPolicy)
		assert.Equal(t, 30*time.Second, cfg.Timeouts.Replacement)
		assert.Equal(t, 3*time.Minute, cfg.Timeouts.Image)
		assert.Greater(t, cfg.Timeouts.ShoppingList, cfg.Timeouts.Replacement)
		require.Len(t, cfg.BudgetTiers, 3)
		assert.Equal(t, 100.0, cfg.BudgetTiers[0].MaxWeekly)
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		reset()
		setEnv("LLM_PROVIDER", "GROQ")
		setEnv("GROQ_API_KEY", "groq_key")
		setEnv("STORAGE_DRIVER", "redis")
		setEnv("REDIS_ADDR", "cache:6379")
		setEnv("TIMEOUT_REPLACEMENT", "5s")
		setEnv("TELEGRAM_ALLOW_USER_ID", "12345")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, ProviderGroq, cfg.LLMProvider)
		assert.Equal(t, StorageRedis, cfg.StorageDriver)
		assert.Equal(t, "cache:6379", cfg.RedisAddr)
		assert.Equal(t, 5*time.Second, cfg.Timeouts.Replacement)
		assert.Equal(t, int64(12345), cfg.TelegramAllowUserID)
		assert.False(t, cfg.VisionEnabled())
	})

	t.Run("ConfigFileTiers", func(t *testing.T) {
		reset()
		setEnv("GEMINI_API_KEY", "gemini_key")
		path := filepath.Join(t.TempDir(), "planner.yaml")
		yaml := `
prefetch_batch_size: 2
budget_tiers:
  - name: Lean
    max_weekly: 80
    serving_price: "$1 per serving"
    forbidden_foods: [steak]
  - name: Open
`
		require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
		setEnv(ConfigFileEnv, path)

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.PrefetchBatchSize)
		require.Len(t, cfg.BudgetTiers, 2)
		assert.Equal(t, "Lean", cfg.BudgetTiers.Lookup(80).Name)
		assert.Equal(t, "Open", cfg.BudgetTiers.Lookup(80.01).Name)
	})

	t.Run("MissingGeminiAPIKey", func(t *testing.T) {
		reset()
		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Equal(t, "GEMINI_API_KEY environment variable not set", err.Error())
	})

	t.Run("MissingGroqAPIKey", func(t *testing.T) {
		reset()
		setEnv("LLM_PROVIDER", "groq")
		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Equal(t, "GROQ_API_KEY environment variable not set", err.Error())
	})

	t.Run("UnknownStorageDriver", func(t *testing.T) {
		reset()
		setEnv("GEMINI_API_KEY", "gemini_key")
		setEnv("STORAGE_DRIVER", "postgres")
		_, err := NewFromEnv()
		assert.ErrorContains(t, err, "STORAGE_DRIVER")
	})
}
