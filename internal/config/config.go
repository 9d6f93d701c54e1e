package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type BotConfig struct {
	TelegramToken   string
	TelegramDebug   bool
	BaseAdminChatID int64

	DatabaseDriver string
	DatabaseURL    string

	// JSON производственного календаря, загружается при старте
	NonWorkingDaysFile string

	// Опорный часовой пояс: в нем считается "сегодня" для всех точек входа
	Timezone string

	RolloverLookbackDays int
	RolloverCron         string
	RolloverWorkers      int
	RolloverRetries      int
	RolloverRetryBase    time.Duration

	// Пустой адрес отключает HTTP API
	HTTPAddr    string
	CORSOrigins []string

	LogLevel  string
	LogFormat string
	LogFile   string
}

var instance *BotConfig
var once sync.Once

// GetBotConfig загружает конфиг один раз за время жизни процесса
func GetBotConfig() *BotConfig {
	once.Do(func() {
		cfg, err := Load()
		if err != nil {
			logrus.Fatalf("error loading config: %s", err.Error())
		}
		instance = cfg
	})

	return instance
}

// Load читает переменные окружения (и .env, если он есть) и проверяет их
func Load() (*BotConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading env variables: %w", err)
	}

	cfg := &BotConfig{
		TelegramToken:        getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramDebug:        getEnvAsBool("TELEGRAM_DEBUG", false),
		BaseAdminChatID:      getEnvAsInt("BASE_ADMIN_CHAT_ID", 0),
		DatabaseDriver:       strings.ToLower(getEnv("DATABASE_DRIVER", DriverSQLite)),
		DatabaseURL:          getEnv("DATABASE_URL", "daily_report.db"),
		Timezone:             getEnv("TIMEZONE", "Europe/Moscow"),
		NonWorkingDaysFile:   getEnv("NON_WORKING_DAYS_FILE", ""),
		RolloverLookbackDays: int(getEnvAsInt("ROLLOVER_LOOKBACK_DAYS", 30)),
		RolloverCron:         getEnv("ROLLOVER_CRON", "0 5 0 * * *"),
		RolloverWorkers:      int(getEnvAsInt("ROLLOVER_WORKERS", 4)),
		RolloverRetries:      int(getEnvAsInt("ROLLOVER_RETRIES", 2)),
		RolloverRetryBase:    getEnvAsDuration("ROLLOVER_RETRY_BASE", 500*time.Millisecond),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		CORSOrigins:          getEnvAsList("HTTP_CORS_ORIGINS", []string{"http://localhost:8080"}),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "text"),
		LogFile:              getEnv("LOG_FILE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *BotConfig) Validate() error {
	if c.DatabaseDriver != DriverSQLite && c.DatabaseDriver != DriverPostgres {
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("could not get db url")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.RolloverLookbackDays < 1 {
		return fmt.Errorf("ROLLOVER_LOOKBACK_DAYS must be positive, got %d", c.RolloverLookbackDays)
	}
	if c.RolloverWorkers < 1 {
		c.RolloverWorkers = 1
	}
	if c.RolloverRetries < 0 {
		c.RolloverRetries = 0
	}
	if c.RolloverRetryBase <= 0 {
		c.RolloverRetryBase = 500 * time.Millisecond
	}
	return nil
}

// BotEnabled - бот запускается только при заданном токене
func (c *BotConfig) BotEnabled() bool {
	return c.TelegramToken != ""
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valStr := getEnv(name, "")
	if val, err := time.ParseDuration(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsList(name string, defaultVal []string) []string {
	valStr := getEnv(name, "")
	if valStr == "" {
		return defaultVal
	}

	var out []string
	for _, v := range strings.Split(valStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
