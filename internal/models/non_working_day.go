package models

import "time"

// NonWorkingDay - нерабочий день производственного календаря
type NonWorkingDay struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      string    `gorm:"type:varchar(10);uniqueIndex;not null" json:"date"` // ГГГГ-ММ-ДД
	Year      int       `gorm:"index" json:"year"`
	Month     int       `gorm:"index" json:"month"`
	Day       int       `json:"day"`
	CreatedAt time.Time `json:"created_at"`
}

func (NonWorkingDay) TableName() string {
	return "non_working_days"
}
