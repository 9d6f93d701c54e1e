package service

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"daily-report-bot/internal/database"
	"daily-report-bot/internal/models"
	"daily-report-bot/internal/repository"
	"daily-report-bot/pkg/calendar"
)

var msk = time.FixedZone("MSK", 3*60*60)

// пятница, 2024-03-08 12:00 MSK
var testNow = time.Date(2024, 3, 8, 12, 0, 0, 0, msk)

type testEnv struct {
	db         *gorm.DB
	clock      *clockwork.FakeClock
	cal        *calendar.Calendar
	records    *repository.GormDailyRecordRepository
	cursors    *repository.GormRolloverCursorRepository
	executions *repository.GormRolloverExecutionRepository
	users      *repository.GormUserRepository
	absences   *repository.GormAbsencePeriodRepository
	rollover   *RolloverService
	tasks      *TaskService
}

func newTestEnv(t *testing.T, lookbackDays int) *testEnv {
	t.Helper()

	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	clock := clockwork.NewFakeClockAt(testNow)
	cal := calendar.New(clock, msk)

	records, err := repository.NewGormDailyRecordRepository(db)
	require.NoError(t, err)
	cursors, err := repository.NewGormRolloverCursorRepository(db, cal)
	require.NoError(t, err)
	executions, err := repository.NewGormRolloverExecutionRepository(db)
	require.NoError(t, err)
	users, err := repository.NewGormUserRepository(db)
	require.NoError(t, err)
	absences, err := repository.NewGormAbsencePeriodRepository(db)
	require.NoError(t, err)

	rollover := NewRolloverService(records, cursors, cal, lookbackDays)

	return &testEnv{
		db:         db,
		clock:      clock,
		cal:        cal,
		records:    records,
		cursors:    cursors,
		executions: executions,
		users:      users,
		absences:   absences,
		rollover:   rollover,
		tasks:      NewTaskService(records).WithRollover(rollover),
	}
}

func (e *testEnv) day(t *testing.T, key string) time.Time {
	t.Helper()

	d, err := e.cal.ParseKey(key)
	require.NoError(t, err)
	return d
}

func (e *testEnv) assign(t *testing.T, userID uint, key string, tasks ...string) {
	t.Helper()

	for _, task := range tasks {
		_, err := e.tasks.AssignTask(context.Background(), userID, e.day(t, key), task)
		require.NoError(t, err)
	}
}

func (e *testEnv) complete(t *testing.T, userID uint, key string, tasks ...string) {
	t.Helper()

	for _, task := range tasks {
		_, err := e.tasks.CompleteTask(context.Background(), userID, e.day(t, key), task)
		require.NoError(t, err)
	}
}

func (e *testEnv) record(t *testing.T, userID uint, key string) *models.DailyWorkRecord {
	t.Helper()

	record, err := e.records.GetRecord(context.Background(), userID, e.day(t, key))
	require.NoError(t, err)
	return record
}

func (e *testEnv) assigned(t *testing.T, userID uint, key string) []string {
	t.Helper()

	record := e.record(t, userID, key)
	if record == nil {
		return []string{}
	}
	return []string(record.AssignedTasks)
}

func (e *testEnv) completed(t *testing.T, userID uint, key string) []string {
	t.Helper()

	record := e.record(t, userID, key)
	if record == nil {
		return []string{}
	}
	return []string(record.CompletedTasks)
}

func (e *testEnv) cursor(t *testing.T, userID uint) string {
	t.Helper()

	cursor, err := e.cursors.GetCursor(context.Background(), userID)
	require.NoError(t, err)
	return calendar.Format(cursor)
}

func (e *testEnv) run(t *testing.T, userID uint, key string) *RolloverResult {
	t.Helper()

	result, err := e.rollover.RunRollover(context.Background(), userID, e.day(t, key))
	require.NoError(t, err)
	return result
}
