package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"daily-report-bot/internal/config"
)

// Open открывает базу данных выбранного драйвера.
// Для SQLite пул ограничен одним соединением: транзакции переноса задач
// сериализуются, а ":memory:" остается одной и той же базой.
func Open(driver, dsn string) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true, // SQLite ограничения
		Logger:                                   logger.Default.LogMode(logger.Silent),
	}

	var dialector gorm.Dialector
	switch driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}

	switch driver {
	case config.DriverSQLite:
		sqlDB.SetMaxOpenConns(1)

		// Включаем поддержку внешних ключей (требуется для SQLite)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			logrus.Infof("Warning: Failed to enable foreign keys: %v", err)
		}
		if err := db.Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
			logrus.Infof("Warning: Failed to set busy timeout: %v", err)
		}
	case config.DriverPostgres:
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return db, nil
}

// Close закрывает соединение с БД
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
