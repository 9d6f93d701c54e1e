package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level  string
	Format string
	// Если задан, логи дублируются в файл с ротацией
	File string
}

var (
	mu      sync.RWMutex
	current Options   = Options{Level: "info", Format: "text"}
	output  io.Writer = os.Stderr
)

// Setup задает общие настройки логирования и применяет их к стандартному логгеру logrus
func Setup(opts Options) {
	mu.Lock()
	current = opts
	output = os.Stderr
	if opts.File != "" {
		output = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50, // мегабайт
			MaxBackups: 5,
			MaxAge:     30, // дней
			Compress:   true,
		})
	}
	mu.Unlock()

	configure(logrus.StandardLogger())
}

// New возвращает логгер для репозитория или сервиса с общими настройками
func New() *logrus.Logger {
	logger := logrus.New()
	configure(logger)
	return logger
}

func configure(logger *logrus.Logger) {
	mu.RLock()
	opts := current
	out := output
	mu.RUnlock()

	logger.SetOutput(out)
	logger.SetLevel(parseLevel(opts.Level))

	if strings.EqualFold(opts.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
		return
	}

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

func parseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
