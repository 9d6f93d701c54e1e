package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TriggerCron   = "cron"
	TriggerHTTP   = "http"
	TriggerManual = "manual"
)

// RolloverExecution - журнал пакетного переноса задач по всем активным пользователям.
// Одна запись на пакет, не на пользователя.
type RolloverExecution struct {
	ID            uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	ExecutionDate string    `gorm:"type:varchar(10);not null;index" json:"execution_date"`
	SuccessCount  int       `gorm:"not null;default:0" json:"success_count"`
	ErrorCount    int       `gorm:"not null;default:0" json:"error_count"`
	ExecutedAt    time.Time `gorm:"not null;index" json:"executed_at"`
	Trigger       string    `gorm:"type:varchar(16);not null" json:"trigger"`
}

func (RolloverExecution) TableName() string {
	return "rollover_executions"
}

// NewRolloverExecution создает запись журнала с новым идентификатором
func NewRolloverExecution(date, trigger string, executedAt time.Time) *RolloverExecution {
	return &RolloverExecution{
		ID:            uuid.New(),
		ExecutionDate: date,
		ExecutedAt:    executedAt,
		Trigger:       trigger,
	}
}
