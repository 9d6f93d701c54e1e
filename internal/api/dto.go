package api

import (
	"time"

	"daily-report-bot/internal/models"
	"daily-report-bot/internal/service"
)

// RolloverRequest - ручной перенос задач одного пользователя
type RolloverRequest struct {
	TargetDate string `json:"target_date" validate:"required,datetime=2006-01-02"`
	Rescan     bool   `json:"rescan"`
}

// BatchRequest - пакетный перенос; пустая дата означает сегодня
type BatchRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// TaskRequest - изменение задачи в записи дня
type TaskRequest struct {
	TaskID string `json:"task_id" validate:"required,max=64"`
	Action string `json:"action" validate:"required,oneof=assign unassign complete reopen"`
}

type RecordDTO struct {
	Date           string     `json:"date"`
	AssignedTasks  []string   `json:"assigned_tasks"`
	CompletedTasks []string   `json:"completed_tasks"`
	Unfinished     []string   `json:"unfinished"`
	CheckInTime    *time.Time `json:"check_in_time,omitempty"`
	CheckOutTime   *time.Time `json:"check_out_time,omitempty"`
	IsAbsent       bool       `json:"is_absent"`
}

type DayResponse struct {
	Record   RecordDTO               `json:"record"`
	Rollover *service.RolloverResult `json:"rollover,omitempty"`
	Stale    bool                    `json:"stale"`
}

type ExecutionDTO struct {
	ID            string    `json:"id"`
	ExecutionDate string    `json:"executionDate"`
	SuccessCount  int       `json:"successCount"`
	ErrorCount    int       `json:"errorCount"`
	ExecutedAt    time.Time `json:"executedAt"`
	Trigger       string    `json:"trigger"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toRecordDTO(record *models.DailyWorkRecord) RecordDTO {
	return RecordDTO{
		Date:           record.Date,
		AssignedTasks:  append([]string{}, record.AssignedTasks...),
		CompletedTasks: append([]string{}, record.CompletedTasks...),
		Unfinished:     record.Unfinished(),
		CheckInTime:    record.CheckInTime,
		CheckOutTime:   record.CheckOutTime,
		IsAbsent:       record.IsAbsent,
	}
}

func toExecutionDTO(e *models.RolloverExecution) ExecutionDTO {
	return ExecutionDTO{
		ID:            e.ID.String(),
		ExecutionDate: e.ExecutionDate,
		SuccessCount:  e.SuccessCount,
		ErrorCount:    e.ErrorCount,
		ExecutedAt:    e.ExecutedAt,
		Trigger:       e.Trigger,
	}
}
