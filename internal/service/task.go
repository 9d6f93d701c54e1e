package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"daily-report-bot/internal/logging"
	"daily-report-bot/internal/models"
	"daily-report-bot/internal/repository"
)

const maxTaskIDLength = 64

// TaskService - запись назначений и выполнения задач в записи дня.
// Выполненная задача остается в назначенных, она только добавляется в выполненные.
type TaskService struct {
	records  repository.DailyRecordRepository
	rollover *RolloverService
	logger   *logrus.Logger
}

func NewTaskService(records repository.DailyRecordRepository) *TaskService {
	return &TaskService{
		records: records,
		logger:  logging.New(),
	}
}

// WithRollover включает докатку задач, назначенных или переоткрытых
// на дне, который перенос уже прошел
func (s *TaskService) WithRollover(rollover *RolloverService) *TaskService {
	s.rollover = rollover
	return s
}

// NormalizeTaskID проверяет идентификатор задачи
func NormalizeTaskID(taskID string) (string, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" || utf8.RuneCountInString(taskID) > maxTaskIDLength {
		return "", fmt.Errorf("%w: %q", ErrInvalidTaskID, taskID)
	}
	return taskID, nil
}

// AssignTask назначает задачу на день
func (s *TaskService) AssignTask(ctx context.Context, userID uint, date time.Time, taskID string) (*models.DailyWorkRecord, error) {
	return s.patch(ctx, "assign", userID, date, taskID, true, func(id string) models.RecordPatch {
		return models.RecordPatch{Assigned: models.UnionPatch(id)}
	})
}

// UnassignTask убирает задачу из назначенных на день
func (s *TaskService) UnassignTask(ctx context.Context, userID uint, date time.Time, taskID string) (*models.DailyWorkRecord, error) {
	return s.patch(ctx, "unassign", userID, date, taskID, false, func(id string) models.RecordPatch {
		return models.RecordPatch{Assigned: models.RemovePatch(id)}
	})
}

// CompleteTask отмечает задачу выполненной в этот день
func (s *TaskService) CompleteTask(ctx context.Context, userID uint, date time.Time, taskID string) (*models.DailyWorkRecord, error) {
	return s.patch(ctx, "complete", userID, date, taskID, false, func(id string) models.RecordPatch {
		return models.RecordPatch{Completed: models.UnionPatch(id)}
	})
}

// ReopenTask снимает отметку о выполнении
func (s *TaskService) ReopenTask(ctx context.Context, userID uint, date time.Time, taskID string) (*models.DailyWorkRecord, error) {
	return s.patch(ctx, "reopen", userID, date, taskID, true, func(id string) models.RecordPatch {
		return models.RecordPatch{Completed: models.RemovePatch(id)}
	})
}

func (s *TaskService) patch(
	ctx context.Context,
	op string,
	userID uint,
	date time.Time,
	taskID string,
	carry bool,
	build func(id string) models.RecordPatch,
) (*models.DailyWorkRecord, error) {
	id, err := NormalizeTaskID(taskID)
	if err != nil {
		return nil, err
	}

	record, err := s.records.UpsertRecord(ctx, userID, date, build(id))
	if err != nil {
		return nil, fmt.Errorf("%s task: %w", op, err)
	}

	s.logger.WithFields(logrus.Fields{
		"op":      op,
		"user_id": userID,
		"date":    record.Date,
		"task_id": id,
	}).Info("Task updated")

	if carry {
		return s.carryForward(ctx, userID, date, id, record)
	}

	return record, nil
}

// carryForward переносит незавершенную задачу с дня, который перенос уже прошел.
// Возвращает запись дня после переноса.
func (s *TaskService) carryForward(ctx context.Context, userID uint, date time.Time, id string, record *models.DailyWorkRecord) (*models.DailyWorkRecord, error) {
	if s.rollover == nil ||
		!models.ContainsTask(record.AssignedTasks, id) ||
		models.ContainsTask(record.CompletedTasks, id) {
		return record, nil
	}

	moved, err := s.rollover.Backfill(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("carry task forward: %w", err)
	}
	if moved == 0 {
		return record, nil
	}

	updated, err := s.records.GetRecord(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("reload record: %w", err)
	}
	if updated == nil {
		return models.NewDailyWorkRecord(userID, record.Date), nil
	}

	return updated, nil
}
