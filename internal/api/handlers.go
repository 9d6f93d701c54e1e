package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"daily-report-bot/internal/logging"
	"daily-report-bot/internal/models"
	"daily-report-bot/internal/service"
	"daily-report-bot/pkg/calendar"
)

const (
	defaultExecutionsLimit = 20
	maxExecutionsLimit     = 200
)

// Handler - HTTP-обработчики поверх тех же сервисов, что и бот
type Handler struct {
	users     *service.UserService
	tasks     *service.TaskService
	reports   *service.ReportService
	rollover  *service.RolloverService
	scheduler *service.RolloverScheduler
	cal       *calendar.Calendar
	validate  *validator.Validate
	logger    *logrus.Logger
}

func NewHandler(
	users *service.UserService,
	tasks *service.TaskService,
	reports *service.ReportService,
	rollover *service.RolloverService,
	scheduler *service.RolloverScheduler,
) *Handler {
	return &Handler{
		users:     users,
		tasks:     tasks,
		reports:   reports,
		rollover:  rollover,
		scheduler: scheduler,
		cal:       rollover.Calendar(),
		validate:  validator.New(),
		logger:    logging.New(),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":   "ok",
		"today":    calendar.Format(h.cal.Today()),
		"timezone": h.cal.Location().String(),
		"next_run": h.scheduler.NextRun(),
	}

	latest, err := h.scheduler.LatestExecution(r.Context())
	if err != nil {
		h.logger.WithError(err).Warn("Health check: failed to read rollover journal")
		resp["status"] = "degraded"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	if latest != nil {
		resp["last_run"] = toExecutionDTO(latest)
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetDay переносит задачи до выбранного дня и возвращает его запись
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	user, ok := h.userParam(w, r)
	if !ok {
		return
	}

	date, err := h.cal.Parse(chi.URLParam(r, "date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	report, err := h.reports.Day(r.Context(), user.ID, date)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to build day report")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DayResponse{
		Record:   toRecordDTO(report.Record),
		Rollover: report.Rollover,
		Stale:    report.Stale,
	})
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := h.userParam(w, r)
	if !ok {
		return
	}

	date, err := h.cal.Parse(chi.URLParam(r, "date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var req TaskRequest
	if !h.decode(w, r, &req) {
		return
	}

	var action func(ctx context.Context, userID uint, date time.Time, taskID string) (*models.DailyWorkRecord, error)
	switch req.Action {
	case "assign":
		action = h.tasks.AssignTask
	case "unassign":
		action = h.tasks.UnassignTask
	case "complete":
		action = h.tasks.CompleteTask
	default:
		action = h.tasks.ReopenTask
	}

	record, err := action(r.Context(), user.ID, date, req.TaskID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecordDTO(record))
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := h.userParam(w, r)
	if !ok {
		return
	}

	to := h.cal.Today()
	from := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, h.cal.Location())

	var err error
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = h.cal.Parse(v); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = h.cal.Parse(v); err != nil {
			writeServiceError(w, err)
			return
		}
	}

	summary, err := h.reports.Summary(r.Context(), user.ID, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// TriggerRollover - ручной перенос задач пользователя до target_date
func (h *Handler) TriggerRollover(w http.ResponseWriter, r *http.Request) {
	user, ok := h.userParam(w, r)
	if !ok {
		return
	}

	var req RolloverRequest
	if !h.decode(w, r, &req) {
		return
	}

	target, err := h.cal.ParseKey(req.TargetDate)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result, err := h.rollover.Run(r.Context(), user.ID, target, service.RolloverOptions{Rescan: req.Rescan})
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": user.ID,
			"target":  req.TargetDate,
		}).Error("Rollover via API failed")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// TriggerBatch запускает пакетный перенос для всех активных пользователей
func (h *Handler) TriggerBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}

	date := h.cal.Today()
	if req.Date != "" {
		parsed, err := h.cal.ParseKey(req.Date)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		date = parsed
	}

	execution, err := h.scheduler.RunBatch(r.Context(), date, models.TriggerHTTP)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toExecutionDTO(execution))
}

func (h *Handler) ListExecutions(w http.ResponseWriter, r *http.Request) {
	limit := defaultExecutionsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxExecutionsLimit {
			writeError(w, http.StatusBadRequest, "invalid limit", err)
			return
		}
		limit = n
	}

	executions, err := h.scheduler.RecentExecutions(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]ExecutionDTO, 0, len(executions))
	for _, e := range executions {
		out = append(out, toExecutionDTO(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// userParam читает {id} и проверяет, что пользователь существует
func (h *Handler) userParam(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "invalid user id", err)
		return nil, false
	}

	user, err := h.users.GetByID(uint(id))
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}

	return user, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err)
		return false
	}
	return true
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		h.logger.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start).String(),
		}).Info("HTTP request")
	})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrFutureDate),
		errors.Is(err, service.ErrInvalidTaskID),
		errors.Is(err, service.ErrInvalidPeriod):
		writeError(w, http.StatusBadRequest, "invalid request", err)
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found", err)
	case errors.Is(err, service.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
