package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"daily-report-bot/internal/logging"
	"daily-report-bot/internal/models"
	"daily-report-bot/internal/repository"
	"daily-report-bot/pkg/calendar"
)

// Формат: "0 5 0 * * *" = каждый день в 00:05:00 по опорному поясу
const DefaultRolloverSchedule = "0 5 0 * * *"

type ActiveUserLister interface {
	ListActiveIDs(ctx context.Context) ([]uint, error)
}

type SchedulerConfig struct {
	Schedule  string
	Workers   int
	Retries   int
	RetryBase time.Duration
	// Таймаут одного пакетного запуска по расписанию
	Timeout time.Duration
}

// RolloverScheduler раз в день переносит задачи всех активных пользователей
// и пишет одну запись в журнал на пакет.
type RolloverScheduler struct {
	cronScheduler *cron.Cron
	rollover      *RolloverService
	users         ActiveUserLister
	executions    repository.RolloverExecutionRepository
	cal           *calendar.Calendar
	cfg           SchedulerConfig

	mu      sync.Mutex
	jobID   cron.EntryID
	batchMu sync.Mutex
	logger  *logrus.Logger
}

func NewRolloverScheduler(
	rollover *RolloverService,
	users ActiveUserLister,
	executions repository.RolloverExecutionRepository,
	cfg SchedulerConfig,
) *RolloverScheduler {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultRolloverSchedule
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}

	logger := logging.New()
	cal := rollover.Calendar()

	return &RolloverScheduler{
		cronScheduler: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(cal.Location()),
			cron.WithChain(
				cron.Recover(cron.PrintfLogger(logger)),
				cron.SkipIfStillRunning(cron.PrintfLogger(logger)),
			),
		),
		rollover:   rollover,
		users:      users,
		executions: executions,
		cal:        cal,
		cfg:        cfg,
		logger:     logger,
	}
}

// Start регистрирует задачу по расписанию и запускает планировщик
func (s *RolloverScheduler) Start() error {
	if err := s.UpdateSchedule(s.cfg.Schedule); err != nil {
		return err
	}

	s.cronScheduler.Start()
	s.logger.WithFields(logrus.Fields{
		"schedule": s.cfg.Schedule,
		"timezone": s.cal.Location().String(),
		"next_run": s.NextRun(),
	}).Info("Rollover scheduler started")

	return nil
}

// Stop останавливает планировщик и ждет завершения текущего запуска
func (s *RolloverScheduler) Stop() {
	if s.cronScheduler != nil {
		<-s.cronScheduler.Stop().Done()
		s.logger.Info("Rollover scheduler stopped")
	}
}

// UpdateSchedule меняет расписание пакетного переноса
func (s *RolloverScheduler) UpdateSchedule(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cronScheduler.AddFunc(schedule, s.runScheduled)
	if err != nil {
		return fmt.Errorf("error scheduling rollover job: %w", err)
	}

	if s.jobID != 0 {
		s.cronScheduler.Remove(s.jobID)
	}
	s.jobID = id
	s.cfg.Schedule = schedule

	s.logger.WithField("schedule", schedule).Debug("Rollover schedule set")
	return nil
}

// NextRun - время следующего запуска по расписанию (нулевое, если планировщик не запущен)
func (s *RolloverScheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.jobID == 0 {
		return time.Time{}
	}
	return s.cronScheduler.Entry(s.jobID).Next
}

// RunNow выполняет пакетный перенос на сегодня по опорному календарю
func (s *RolloverScheduler) RunNow(ctx context.Context, trigger string) (*models.RolloverExecution, error) {
	return s.RunBatch(ctx, s.cal.Today(), trigger)
}

// RunBatch переносит задачи всех активных пользователей на дату date.
// Ошибка по одному пользователю не останавливает остальных, она учитывается в ErrorCount.
func (s *RolloverScheduler) RunBatch(ctx context.Context, date time.Time, trigger string) (*models.RolloverExecution, error) {
	date = s.cal.Day(date)
	if err := s.rollover.ValidateTarget(date); err != nil {
		return nil, err
	}

	s.batchMu.Lock()
	defer s.batchMu.Unlock()

	fields := logrus.Fields{
		"date":    calendar.Format(date),
		"trigger": trigger,
	}
	s.logger.WithFields(fields).Info("Running rollover batch")

	var userIDs []uint
	err := s.withRetry(ctx, func(ctx context.Context) error {
		ids, err := s.users.ListActiveIDs(ctx)
		userIDs = ids
		return err
	})
	if err != nil {
		s.logger.WithFields(fields).WithError(err).Error("Failed to list active users")
		return nil, fmt.Errorf("list active users: %w", err)
	}

	var success, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	for _, userID := range userIDs {
		g.Go(func() error {
			err := s.withRetry(ctx, func(ctx context.Context) error {
				_, err := s.rollover.RunRollover(ctx, userID, date)
				return err
			})
			if err != nil {
				failed.Add(1)
				s.logger.WithFields(fields).WithField("user_id", userID).WithError(err).Warn("User rollover failed")
				return nil
			}
			success.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	execution := models.NewRolloverExecution(calendar.Format(date), trigger, s.cal.Now())
	execution.SuccessCount = int(success.Load())
	execution.ErrorCount = int(failed.Load())

	// журнал пишется и после истечения таймаута пакета
	if err := s.executions.Create(context.WithoutCancel(ctx), execution); err != nil {
		return execution, fmt.Errorf("write execution log: %w", err)
	}

	s.logger.WithFields(fields).WithFields(logrus.Fields{
		"success": execution.SuccessCount,
		"errors":  execution.ErrorCount,
	}).Info("Rollover batch finished")

	return execution, nil
}

// withRetry повторяет операцию только при временных ошибках хранилища
func (s *RolloverScheduler) withRetry(ctx context.Context, f func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(uint64(s.cfg.Retries), retry.NewExponential(s.cfg.RetryBase))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := f(ctx)
		if repository.IsRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (s *RolloverScheduler) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	if _, err := s.RunNow(ctx, models.TriggerCron); err != nil {
		s.logger.WithError(err).Error("Scheduled rollover batch failed")
	}
}

// LatestExecution - последняя запись журнала или nil, если запусков еще не было
func (s *RolloverScheduler) LatestExecution(ctx context.Context) (*models.RolloverExecution, error) {
	return s.executions.GetLatest(ctx)
}

// RecentExecutions - последние записи журнала пакетных запусков
func (s *RolloverScheduler) RecentExecutions(ctx context.Context, limit int) ([]*models.RolloverExecution, error) {
	return s.executions.ListRecent(ctx, limit)
}
