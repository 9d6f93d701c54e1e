package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"daily-report-bot/internal/logging"
	"daily-report-bot/internal/models"
	"daily-report-bot/pkg/calendar"
)

type NonWorkingDayRepository interface {
	ReplaceYear(ctx context.Context, year int, days []models.NonWorkingDay) error
	ListRange(ctx context.Context, from, to time.Time) ([]string, error)
	IsNonWorkingDay(ctx context.Context, date time.Time) (bool, error)
	Years(ctx context.Context) ([]int, error)
}

type GormNonWorkingDayRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormNonWorkingDayRepository(db *gorm.DB) (*GormNonWorkingDayRepository, error) {
	logger := logging.New()

	// Автомиграция для таблицы non_working_days
	if err := db.AutoMigrate(&models.NonWorkingDay{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate non_working_days table")
		return nil, err
	}

	return &GormNonWorkingDayRepository{db: db, logger: logger}, nil
}

// ReplaceYear заменяет календарь года целиком в одной транзакции
func (r *GormNonWorkingDayRepository) ReplaceYear(ctx context.Context, year int, days []models.NonWorkingDay) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("year = ?", year).Delete(&models.NonWorkingDay{}).Error; err != nil {
			return fmt.Errorf("delete year: %w", err)
		}
		if len(days) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&days, 100).Error; err != nil {
			return fmt.Errorf("insert days: %w", err)
		}
		return nil
	})
	if err != nil {
		r.logger.WithError(err).WithField("year", year).Error("Failed to replace non-working days")
		return storeError("replace non-working days", err)
	}

	r.logger.WithFields(logrus.Fields{
		"year":  year,
		"count": len(days),
	}).Info("Non-working days replaced")

	return nil
}

// ListRange возвращает нерабочие дни периода (включительно) по возрастанию
func (r *GormNonWorkingDayRepository) ListRange(ctx context.Context, from, to time.Time) ([]string, error) {
	var keys []string

	err := r.db.WithContext(ctx).Model(&models.NonWorkingDay{}).
		Where("date BETWEEN ? AND ?", calendar.Format(from), calendar.Format(to)).
		Order("date ASC").
		Pluck("date", &keys).Error
	if err != nil {
		r.logger.WithError(err).Error("Failed to list non-working days")
		return nil, storeError("list non-working days", err)
	}

	return keys, nil
}

func (r *GormNonWorkingDayRepository) IsNonWorkingDay(ctx context.Context, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.NonWorkingDay{}).
		Where("date = ?", calendar.Format(date)).
		Count(&count).Error
	if err != nil {
		return false, storeError("check non-working day", err)
	}
	return count > 0, nil
}

// Years - годы, для которых загружен календарь
func (r *GormNonWorkingDayRepository) Years(ctx context.Context) ([]int, error) {
	var years []int
	err := r.db.WithContext(ctx).Model(&models.NonWorkingDay{}).
		Distinct("year").
		Order("year ASC").
		Pluck("year", &years).Error
	if err != nil {
		return nil, storeError("list calendar years", err)
	}
	return years, nil
}
