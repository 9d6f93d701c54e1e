package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-report-bot/internal/database"
	"daily-report-bot/internal/repository"
	"daily-report-bot/internal/service"
	"daily-report-bot/pkg/calendar"
)

var msk = time.FixedZone("MSK", 3*60*60)

type testServer struct {
	router http.Handler
	tasks  *service.TaskService
	cal    *calendar.Calendar
	userID uint
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 8, 12, 0, 0, 0, msk))
	cal := calendar.New(clock, msk)

	records, err := repository.NewGormDailyRecordRepository(db)
	require.NoError(t, err)
	cursors, err := repository.NewGormRolloverCursorRepository(db, cal)
	require.NoError(t, err)
	executions, err := repository.NewGormRolloverExecutionRepository(db)
	require.NoError(t, err)
	userRepo, err := repository.NewGormUserRepository(db)
	require.NoError(t, err)

	users := service.NewUserService(userRepo)
	rollover := service.NewRolloverService(records, cursors, cal, 30)
	tasks := service.NewTaskService(records).WithRollover(rollover)
	scheduler := service.NewRolloverScheduler(rollover, users, executions, service.SchedulerConfig{Workers: 2})

	user, err := users.CreateUser(42, "worker", "Анна", "")
	require.NoError(t, err)

	h := NewHandler(users, tasks, service.NewReportService(records, rollover), rollover, scheduler)

	return &testServer{
		router: NewRouter(h, []string{"*"}),
		tasks:  tasks,
		cal:    cal,
		userID: user.ID,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) assign(t *testing.T, key, task string) {
	t.Helper()

	d, err := s.cal.ParseKey(key)
	require.NoError(t, err)
	_, err = s.tasks.AssignTask(context.Background(), s.userID, d, task)
	require.NoError(t, err)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"today":"2024-03-08"`)
	assert.NotContains(t, rec.Body.String(), `"last_run"`)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/rollover/batch", nil).Code)

	rec = s.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"last_run":{`)
	assert.Contains(t, rec.Body.String(), `"executionDate":"2024-03-08"`)
}

func TestGetDayRollsOverFirst(t *testing.T) {
	s := newTestServer(t)
	s.assign(t, "2024-03-06", "T-1")

	rec := s.do(t, http.MethodGet, "/api/users/1/days/2024-03-08", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2024-03-08", resp.Record.Date)
	assert.Equal(t, []string{"T-1"}, resp.Record.AssignedTasks)
	assert.Equal(t, []string{"T-1"}, resp.Record.Unfinished)
	assert.False(t, resp.Stale)
	require.NotNil(t, resp.Rollover)
	assert.Equal(t, 2, resp.Rollover.TasksMoved)
}

func TestGetDayErrors(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/users/abc/days/2024-03-08", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/users/99/days/2024-03-08", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/users/1/days/not-a-date", nil).Code)
}

func TestUpdateTask(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/users/1/days/2024-03-08/tasks", TaskRequest{TaskID: "T-9", Action: "assign"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/users/1/days/2024-03-08/tasks", TaskRequest{TaskID: "T-9", Action: "complete"})
	require.Equal(t, http.StatusOK, rec.Code)

	var record RecordDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, []string{"T-9"}, record.CompletedTasks)
	assert.Empty(t, record.Unfinished)

	rec = s.do(t, http.MethodPost, "/api/users/1/days/2024-03-08/tasks", TaskRequest{TaskID: "T-9", Action: "drop"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTriggerRollover(t *testing.T) {
	s := newTestServer(t)
	s.assign(t, "2024-03-07", "T-1")

	rec := s.do(t, http.MethodPost, "/api/users/1/rollover", RolloverRequest{TargetDate: "2024-03-08"})
	require.Equal(t, http.StatusOK, rec.Code)

	var result service.RolloverResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.TasksMoved)
	assert.Equal(t, "2024-03-07", result.Cursor)

	// будущая дата и неверный формат отклоняются
	rec = s.do(t, http.MethodPost, "/api/users/1/rollover", RolloverRequest{TargetDate: "2024-03-09"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "позже сегодняшнего дня")
	assert.Equal(t, http.StatusBadRequest,
		s.do(t, http.MethodPost, "/api/users/1/rollover", RolloverRequest{TargetDate: "08.03.2024"}).Code)
	assert.Equal(t, http.StatusBadRequest,
		s.do(t, http.MethodPost, "/api/users/1/rollover", map[string]any{}).Code)
}

func TestBatchAndExecutions(t *testing.T) {
	s := newTestServer(t)
	s.assign(t, "2024-03-07", "T-1")

	rec := s.do(t, http.MethodPost, "/api/rollover/batch", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var execution ExecutionDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &execution))
	assert.Equal(t, "2024-03-08", execution.ExecutionDate)
	assert.Equal(t, 1, execution.SuccessCount)
	assert.Zero(t, execution.ErrorCount)
	assert.Equal(t, "http", execution.Trigger)

	rec = s.do(t, http.MethodPost, "/api/rollover/batch", BatchRequest{Date: "2024-03-07"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/rollover/executions?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []ExecutionDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Contains(t, rec.Body.String(), `"executionDate"`)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/rollover/executions?limit=0", nil).Code)
	assert.Equal(t, http.StatusBadRequest,
		s.do(t, http.MethodPost, "/api/rollover/batch", BatchRequest{Date: "2024-03-10"}).Code)
}

func TestAssignOnPassedDayIsCarriedForward(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK,
		s.do(t, http.MethodPost, "/api/users/1/rollover", RolloverRequest{TargetDate: "2024-03-08"}).Code)

	rec := s.do(t, http.MethodPost, "/api/users/1/days/2024-03-05/tasks", TaskRequest{TaskID: "LATE", Action: "assign"})
	require.Equal(t, http.StatusOK, rec.Code)

	var record RecordDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Empty(t, record.AssignedTasks)

	rec = s.do(t, http.MethodGet, "/api/users/1/days/2024-03-08", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"LATE"}, resp.Record.AssignedTasks)
}

func TestSummary(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodPost, "/api/users/1/days/2024-03-05/tasks", TaskRequest{TaskID: "A", Action: "complete"})

	rec := s.do(t, http.MethodGet, "/api/users/1/summary?from=2024-03-01&to=2024-03-08", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary service.PeriodSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.CompletedTasks)

	assert.Equal(t, http.StatusBadRequest,
		s.do(t, http.MethodGet, "/api/users/1/summary?from=2024-03-08&to=2024-03-01", nil).Code)
}
