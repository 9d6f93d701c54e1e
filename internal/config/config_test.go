package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{
		"TELEGRAM_BOT_TOKEN", "DATABASE_DRIVER", "DATABASE_URL", "TIMEZONE",
		"ROLLOVER_LOOKBACK_DAYS", "ROLLOVER_CRON", "ROLLOVER_WORKERS", "HTTP_ADDR",
	} {
		t.Setenv(key, "")
	}
	// пустая переменная не равна отсутствующей, поэтому задаем явные значения
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", ":memory:")
	t.Setenv("TIMEZONE", "Europe/Moscow")
	t.Setenv("ROLLOVER_LOOKBACK_DAYS", "30")
	t.Setenv("ROLLOVER_WORKERS", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, 30, cfg.RolloverLookbackDays)
	assert.Equal(t, 4, cfg.RolloverWorkers)
	assert.False(t, cfg.BotEnabled())
	assert.Equal(t, 500*time.Millisecond, cfg.RolloverRetryBase)
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("DATABASE_DRIVER", "POSTGRES")
	t.Setenv("DATABASE_URL", "host=localhost dbname=reports")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("ROLLOVER_LOOKBACK_DAYS", "7")
	t.Setenv("ROLLOVER_WORKERS", "0")
	t.Setenv("ROLLOVER_RETRY_BASE", "2s")
	t.Setenv("HTTP_CORS_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.BotEnabled())
	assert.Equal(t, DriverPostgres, cfg.DatabaseDriver)
	assert.Equal(t, 7, cfg.RolloverLookbackDays)
	assert.Equal(t, 1, cfg.RolloverWorkers)
	assert.Equal(t, 2*time.Second, cfg.RolloverRetryBase)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "x.db")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("ROLLOVER_LOOKBACK_DAYS", "30")

	t.Setenv("DATABASE_DRIVER", "mysql")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("TIMEZONE", "Mars/Olympus")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("ROLLOVER_LOOKBACK_DAYS", "-1")
	_, err = Load()
	assert.Error(t, err)
}
