package models

import "time"

// RolloverCursor - последний день, по который перенос задач пользователя
// полностью выполнен. Значение только растет.
type RolloverCursor struct {
	UserID           uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	LastRolloverDate string    `gorm:"type:varchar(10);not null" json:"last_rollover_date"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RolloverCursor) TableName() string {
	return "rollover_cursors"
}
