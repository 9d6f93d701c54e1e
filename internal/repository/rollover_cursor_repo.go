package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"daily-report-bot/internal/logging"
	"daily-report-bot/internal/models"
	"daily-report-bot/pkg/calendar"
)

type RolloverCursorRepository interface {
	GetCursor(ctx context.Context, userID uint) (time.Time, error)
	AdvanceCursor(ctx context.Context, userID uint, date time.Time) (bool, error)
}

type GormRolloverCursorRepository struct {
	db     *gorm.DB
	cal    *calendar.Calendar
	logger *logrus.Logger
}

func NewGormRolloverCursorRepository(db *gorm.DB, cal *calendar.Calendar) (*GormRolloverCursorRepository, error) {
	logger := logging.New()

	if err := db.AutoMigrate(&models.RolloverCursor{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate rollover_cursors table")
		return nil, err
	}

	return &GormRolloverCursorRepository{
		db:     db,
		cal:    cal,
		logger: logger,
	}, nil
}

// GetCursor возвращает день, по который перенос выполнен.
// Для пользователя без курсора - 1970-01-01.
func (r *GormRolloverCursorRepository) GetCursor(ctx context.Context, userID uint) (time.Time, error) {
	var cursor models.RolloverCursor
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&cursor)

	key := calendar.NeverDate
	switch {
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		r.logger.WithField("user_id", userID).Debug("Rollover cursor not found")
	case result.Error != nil:
		r.logger.WithError(result.Error).Error("Failed to get rollover cursor")
		return time.Time{}, storeError("get cursor", result.Error)
	default:
		key = cursor.LastRolloverDate
	}

	return r.cal.ParseKey(key)
}

// AdvanceCursor сдвигает курсор вперед одной командой INSERT ... ON CONFLICT DO UPDATE ... WHERE.
// Если новая дата не позже текущей, ничего не меняется и возвращается false.
func (r *GormRolloverCursorRepository) AdvanceCursor(ctx context.Context, userID uint, date time.Time) (bool, error) {
	key := calendar.Format(date)

	cursor := models.RolloverCursor{
		UserID:           userID,
		LastRolloverDate: key,
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_rollover_date": gorm.Expr("excluded.last_rollover_date"),
			"updated_at":         gorm.Expr("excluded.updated_at"),
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "rollover_cursors.last_rollover_date < excluded.last_rollover_date"},
		}},
	}).Create(&cursor)

	if result.Error != nil {
		r.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"date":    key,
		}).WithError(result.Error).Error("Failed to advance rollover cursor")
		return false, storeError("advance cursor", result.Error)
	}

	advanced := result.RowsAffected > 0
	r.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"date":     key,
		"advanced": advanced,
	}).Debug("Rollover cursor advance")

	return advanced, nil
}
