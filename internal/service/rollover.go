package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"daily-report-bot/internal/logging"
	"daily-report-bot/internal/repository"
	"daily-report-bot/pkg/calendar"
)

const DefaultLookbackDays = 30

// RolloverOptions - параметры ручного запуска
type RolloverOptions struct {
	// Rescan игнорирует курсор и проходит все окно просмотра назад.
	// Курсор при этом все равно только растет.
	Rescan bool
}

// RolloverResult - итог прохода по дням одного пользователя
type RolloverResult struct {
	UserID      uint   `json:"user_id"`
	TargetDate  string `json:"target_date"`
	StartDate   string `json:"start_date"`
	Cursor      string `json:"cursor"`
	DaysScanned int    `json:"days_scanned"`
	TasksMoved  int    `json:"tasks_moved"`
	// Shared - результат получен от параллельного вызова с тем же ключом
	Shared bool `json:"shared"`
}

// RolloverService переносит невыполненные задачи пользователя день за днем
// до целевой даты (не включая ее) и двигает курсор.
type RolloverService struct {
	records  repository.DailyRecordRepository
	cursors  repository.RolloverCursorRepository
	cal      *calendar.Calendar
	lookback int
	group    singleflight.Group
	logger   *logrus.Logger
}

func NewRolloverService(
	records repository.DailyRecordRepository,
	cursors repository.RolloverCursorRepository,
	cal *calendar.Calendar,
	lookbackDays int,
) *RolloverService {
	if lookbackDays < 1 {
		lookbackDays = DefaultLookbackDays
	}

	return &RolloverService{
		records:  records,
		cursors:  cursors,
		cal:      cal,
		lookback: lookbackDays,
		logger:   logging.New(),
	}
}

// Calendar возвращает опорный календарь, по которому считается "сегодня"
func (s *RolloverService) Calendar() *calendar.Calendar {
	return s.cal
}

// RunRollover - единая точка входа для всех триггеров
func (s *RolloverService) RunRollover(ctx context.Context, userID uint, target time.Time) (*RolloverResult, error) {
	return s.Run(ctx, userID, target, RolloverOptions{})
}

// Run выполняет перенос. Одновременные вызовы с одинаковыми параметрами
// объединяются в один проход.
func (s *RolloverService) Run(ctx context.Context, userID uint, target time.Time, opts RolloverOptions) (*RolloverResult, error) {
	target = s.cal.Day(target)
	if err := s.ValidateTarget(target); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%d:%s:%t", userID, calendar.Format(target), opts.Rescan)
	// общий проход не должен обрываться, когда уходит один из ожидающих
	flight := s.group.DoChan(key, func() (interface{}, error) {
		return s.run(context.WithoutCancel(ctx), userID, target, opts)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-flight:
	}

	var result *RolloverResult
	if val, ok := res.Val.(*RolloverResult); ok && val != nil {
		copied := *val
		copied.Shared = res.Shared
		result = &copied
	}

	return result, res.Err
}

// ValidateTarget отклоняет даты позже сегодняшнего дня в опорном поясе
func (s *RolloverService) ValidateTarget(target time.Time) error {
	today := s.cal.Today()
	if s.cal.Day(target).After(today) {
		return fmt.Errorf("%w: %s is after today (%s)", ErrFutureDate,
			calendar.Format(s.cal.Day(target)), calendar.Format(today))
	}
	return nil
}

func (s *RolloverService) run(ctx context.Context, userID uint, target time.Time, opts RolloverOptions) (*RolloverResult, error) {
	last := calendar.AddDays(target, -1)

	cursor, err := s.cursors.GetCursor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get rollover cursor: %w", err)
	}

	windowStart := calendar.AddDays(target, -s.lookback)
	start := calendar.Later(calendar.AddDays(cursor, 1), windowStart)
	if opts.Rescan {
		start = windowStart
	}

	result := &RolloverResult{
		UserID:     userID,
		TargetDate: calendar.Format(target),
		StartDate:  calendar.Format(start),
		Cursor:     calendar.Format(cursor),
	}

	fields := logrus.Fields{
		"user_id": userID,
		"target":  result.TargetDate,
		"start":   result.StartDate,
		"cursor":  result.Cursor,
	}

	if start.After(last) {
		s.logger.WithFields(fields).Debug("Rollover already up to date")
		return result, nil
	}

	for d := start; !d.After(last); d = calendar.AddDays(d, 1) {
		moved, err := s.rollDay(ctx, userID, d)
		result.DaysScanned++
		result.TasksMoved += moved

		if err != nil {
			// курсор остается на последнем полностью перенесенном дне
			if d.After(start) {
				if advErr := s.advance(ctx, userID, calendar.AddDays(d, -1), result); advErr != nil {
					s.logger.WithFields(fields).WithError(advErr).Error("Failed to advance rollover cursor after partial run")
				}
			}

			s.logger.WithFields(fields).WithFields(logrus.Fields{
				"failed_day":  calendar.Format(d),
				"tasks_moved": result.TasksMoved,
			}).WithError(err).Error("Rollover failed")

			return result, fmt.Errorf("rollover user %d at %s: %w", userID, calendar.Format(d), err)
		}
	}

	if err := s.advance(ctx, userID, last, result); err != nil {
		return result, fmt.Errorf("advance rollover cursor: %w", err)
	}

	s.logger.WithFields(fields).WithFields(logrus.Fields{
		"days_scanned": result.DaysScanned,
		"tasks_moved":  result.TasksMoved,
		"new_cursor":   result.Cursor,
	}).Info("Rollover completed")

	return result, nil
}

// Backfill докатывает незавершенные задачи, появившиеся на уже пройденном дне from,
// до первого дня после курсора. Курсор не меняется.
func (s *RolloverService) Backfill(ctx context.Context, userID uint, from time.Time) (int, error) {
	from = s.cal.Day(from)
	fields := logrus.Fields{
		"user_id": userID,
		"from":    calendar.Format(from),
	}

	moved := 0
	d := from
	for {
		// курсор перечитывается: параллельный проход мог уйти вперед
		cursor, err := s.cursors.GetCursor(ctx, userID)
		if err != nil {
			return moved, fmt.Errorf("get rollover cursor: %w", err)
		}
		if d.After(cursor) {
			break
		}

		for ; !d.After(cursor); d = calendar.AddDays(d, 1) {
			n, err := s.rollDay(ctx, userID, d)
			moved += n
			if err != nil {
				s.logger.WithFields(fields).WithField("failed_day", calendar.Format(d)).WithError(err).Error("Backfill failed")
				return moved, fmt.Errorf("backfill user %d at %s: %w", userID, calendar.Format(d), err)
			}
		}
	}

	if moved > 0 {
		s.logger.WithFields(fields).WithField("tasks_moved", moved).Info("Backfill completed")
	}

	return moved, nil
}

// rollDay переносит невыполненные задачи дня d в день d+1
func (s *RolloverService) rollDay(ctx context.Context, userID uint, d time.Time) (int, error) {
	record, err := s.records.GetRecord(ctx, userID, d)
	if err != nil {
		return 0, err
	}
	if record == nil || len(record.AssignedTasks) == 0 {
		return 0, nil
	}

	unfinished := record.Unfinished()
	if len(unfinished) == 0 {
		return 0, nil
	}

	next := calendar.AddDays(d, 1)
	moved := 0
	for _, taskID := range unfinished {
		ok, err := s.records.MoveTask(ctx, userID, d, next, taskID)
		if err != nil {
			return moved, fmt.Errorf("move task %q: %w", taskID, err)
		}
		if ok {
			moved++
		}
	}

	return moved, nil
}

func (s *RolloverService) advance(ctx context.Context, userID uint, date time.Time, result *RolloverResult) error {
	advanced, err := s.cursors.AdvanceCursor(ctx, userID, date)
	if err != nil {
		return err
	}
	if advanced {
		result.Cursor = calendar.Format(date)
	}
	return nil
}
