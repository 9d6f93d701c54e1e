package repository

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"daily-report-bot/internal/logging"
	"daily-report-bot/internal/models"
)

type RolloverExecutionRepository interface {
	Create(ctx context.Context, execution *models.RolloverExecution) error
	ListRecent(ctx context.Context, limit int) ([]*models.RolloverExecution, error)
	GetLatest(ctx context.Context) (*models.RolloverExecution, error)
}

type GormRolloverExecutionRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormRolloverExecutionRepository(db *gorm.DB) (*GormRolloverExecutionRepository, error) {
	logger := logging.New()

	if err := db.AutoMigrate(&models.RolloverExecution{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate rollover_executions table")
		return nil, err
	}

	return &GormRolloverExecutionRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormRolloverExecutionRepository) Create(ctx context.Context, execution *models.RolloverExecution) error {
	fields := logrus.Fields{
		"id":             execution.ID,
		"execution_date": execution.ExecutionDate,
		"success":        execution.SuccessCount,
		"errors":         execution.ErrorCount,
		"trigger":        execution.Trigger,
	}

	if err := r.db.WithContext(ctx).Create(execution).Error; err != nil {
		r.logger.WithFields(fields).WithError(err).Error("Failed to write rollover execution log")
		return storeError("create execution", err)
	}

	r.logger.WithFields(fields).Info("Rollover execution logged")
	return nil
}

func (r *GormRolloverExecutionRepository) ListRecent(ctx context.Context, limit int) ([]*models.RolloverExecution, error) {
	var executions []*models.RolloverExecution

	query := r.db.WithContext(ctx).Order("executed_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&executions).Error; err != nil {
		r.logger.WithError(err).Error("Failed to list rollover executions")
		return nil, storeError("list executions", err)
	}

	return executions, nil
}

func (r *GormRolloverExecutionRepository) GetLatest(ctx context.Context) (*models.RolloverExecution, error) {
	var execution models.RolloverExecution
	result := r.db.WithContext(ctx).Order("executed_at DESC").First(&execution)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get latest rollover execution")
		return nil, storeError("get latest execution", result.Error)
	}

	return &execution, nil
}
