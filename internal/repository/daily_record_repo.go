package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"daily-report-bot/internal/logging"
	"daily-report-bot/internal/models"
	"daily-report-bot/pkg/calendar"
)

type DailyRecordRepository interface {
	GetRecord(ctx context.Context, userID uint, date time.Time) (*models.DailyWorkRecord, error)
	UpsertRecord(ctx context.Context, userID uint, date time.Time, patch models.RecordPatch) (*models.DailyWorkRecord, error)
	MoveTask(ctx context.Context, userID uint, from, to time.Time, taskID string) (bool, error)
	ListRange(ctx context.Context, userID uint, from, to time.Time) ([]*models.DailyWorkRecord, error)
}

type GormDailyRecordRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
	locks  *userLocks
}

func NewGormDailyRecordRepository(db *gorm.DB) (*GormDailyRecordRepository, error) {
	logger := logging.New()

	// Автомиграция
	if err := db.AutoMigrate(&models.DailyWorkRecord{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate daily_work_records table")
		return nil, err
	}

	logger.Info("Daily record repository initialized")

	return &GormDailyRecordRepository{
		db:     db,
		logger: logger,
		locks:  newUserLocks(),
	}, nil
}

func (r *GormDailyRecordRepository) GetRecord(ctx context.Context, userID uint, date time.Time) (*models.DailyWorkRecord, error) {
	key := calendar.Format(date)

	var record models.DailyWorkRecord
	result := r.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, key).First(&record)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"date":    key,
		}).Debug("Daily record not found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get daily record")
		return nil, storeError("get record", result.Error)
	}

	return &record, nil
}

// UpsertRecord создает запись дня, если ее нет, и применяет к ней изменения.
// Чтение и запись идут в одной транзакции под блокировкой строки.
func (r *GormDailyRecordRepository) UpsertRecord(ctx context.Context, userID uint, date time.Time, patch models.RecordPatch) (*models.DailyWorkRecord, error) {
	key := calendar.Format(date)
	fields := logrus.Fields{
		"user_id": userID,
		"date":    key,
	}

	unlock := r.locks.Lock(userID)
	defer unlock()

	var out *models.DailyWorkRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := r.ensureAndLock(tx, userID, key)
		if err != nil {
			return err
		}

		if record.Apply(patch) {
			if err := tx.Save(record).Error; err != nil {
				return fmt.Errorf("save record: %w", err)
			}
		}

		out = record
		return nil
	})
	if err != nil {
		r.logger.WithFields(fields).WithError(err).Error("Failed to upsert daily record")
		return nil, storeError("upsert record", err)
	}

	r.logger.WithFields(fields).WithFields(logrus.Fields{
		"assigned":  len(out.AssignedTasks),
		"completed": len(out.CompletedTasks),
	}).Debug("Daily record upserted")

	return out, nil
}

// MoveTask переносит задачу из назначенных дня from в назначенные дня to.
// Задача, выполненная в день from, или отсутствующая в его назначенных, не трогается.
// Возвращает true, если перенос выполнен.
func (r *GormDailyRecordRepository) MoveTask(ctx context.Context, userID uint, from, to time.Time, taskID string) (bool, error) {
	fromKey, toKey := calendar.Format(from), calendar.Format(to)
	fields := logrus.Fields{
		"user_id": userID,
		"from":    fromKey,
		"to":      toKey,
		"task_id": taskID,
	}

	if fromKey == toKey {
		return false, nil
	}

	unlock := r.locks.Lock(userID)
	defer unlock()

	moved := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		source, err := r.lockRecord(tx, userID, fromKey)
		if err != nil {
			return err
		}
		if source == nil ||
			!models.ContainsTask(source.AssignedTasks, taskID) ||
			models.ContainsTask(source.CompletedTasks, taskID) {
			return nil
		}

		target, err := r.ensureAndLock(tx, userID, toKey)
		if err != nil {
			return err
		}

		// сначала добавляем в новый день, потом убираем из старого
		if target.Apply(models.RecordPatch{Assigned: models.UnionPatch(taskID)}) {
			if err := tx.Save(target).Error; err != nil {
				return fmt.Errorf("save target record: %w", err)
			}
		}
		source.Apply(models.RecordPatch{Assigned: models.RemovePatch(taskID)})
		if err := tx.Save(source).Error; err != nil {
			return fmt.Errorf("save source record: %w", err)
		}

		moved = true
		return nil
	})
	if err != nil {
		r.logger.WithFields(fields).WithError(err).Error("Failed to move task")
		return false, storeError("move task", err)
	}

	if moved {
		r.logger.WithFields(fields).Debug("Task moved")
	}

	return moved, nil
}

func (r *GormDailyRecordRepository) ListRange(ctx context.Context, userID uint, from, to time.Time) ([]*models.DailyWorkRecord, error) {
	var records []*models.DailyWorkRecord

	result := r.db.WithContext(ctx).
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, calendar.Format(from), calendar.Format(to)).
		Order("date ASC").
		Find(&records)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to list daily records")
		return nil, storeError("list records", result.Error)
	}

	r.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"from":    calendar.Format(from),
		"to":      calendar.Format(to),
		"count":   len(records),
	}).Debug("Retrieved daily records")

	return records, nil
}

// ensureAndLock создает пустую запись, если ее нет (конфликт уникального ключа
// означает "уже есть"), и блокирует строку до конца транзакции
func (r *GormDailyRecordRepository) ensureAndLock(tx *gorm.DB, userID uint, key string) (*models.DailyWorkRecord, error) {
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoNothing: true,
	}).Create(models.NewDailyWorkRecord(userID, key)).Error
	if err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}

	record, err := r.lockRecord(tx, userID, key)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("record %d/%s not found after insert", userID, key)
	}

	return record, nil
}

// lockRecord читает запись с блокировкой строки (SELECT ... FOR UPDATE).
// SQLite блокировку строк не поддерживает, там транзакции сериализуются целиком.
func (r *GormDailyRecordRepository) lockRecord(tx *gorm.DB, userID uint, key string) (*models.DailyWorkRecord, error) {
	var record models.DailyWorkRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND date = ?", userID, key).
		First(&record).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock record: %w", err)
	}

	return &record, nil
}
