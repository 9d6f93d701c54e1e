// internal/models/absence_period.go
package models

import (
	"time"
)

// AbsencePeriod - период отсутствия (отпуск, больничный, отгул).
// Каждый день периода помечается в DailyWorkRecord как IsAbsent.
type AbsencePeriod struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	StartDate string    `gorm:"type:varchar(10);not null;index" json:"start_date"` // ГГГГ-ММ-ДД
	EndDate   string    `gorm:"type:varchar(10);not null" json:"end_date"`
	Type      string    `gorm:"type:varchar(20);not null" json:"type"` // vacation, sick_leave, day_off
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AbsencePeriod) TableName() string {
	return "absence_periods"
}

const (
	AbsenceTypeVacation  = "vacation"
	AbsenceTypeSickLeave = "sick_leave"
	AbsenceTypeDayOff    = "day_off"
)

// IsValidAbsenceType проверяет тип отсутствия
func IsValidAbsenceType(t string) bool {
	switch t {
	case AbsenceTypeVacation, AbsenceTypeSickLeave, AbsenceTypeDayOff:
		return true
	}
	return false
}

// AbsenceTypeTitle возвращает название типа для сообщений
func AbsenceTypeTitle(t string) string {
	switch t {
	case AbsenceTypeVacation:
		return "Отпуск"
	case AbsenceTypeSickLeave:
		return "Больничный"
	case AbsenceTypeDayOff:
		return "Отгул"
	default:
		return t
	}
}

// Covers проверяет, попадает ли день в период
func (p *AbsencePeriod) Covers(date string) bool {
	return p.StartDate <= date && date <= p.EndDate
}
