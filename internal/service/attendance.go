package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"daily-report-bot/internal/logging"
	"daily-report-bot/internal/models"
	"daily-report-bot/internal/repository"
	"daily-report-bot/pkg/calendar"
)

// AttendanceService - отметки прихода и ухода в записи дня
type AttendanceService struct {
	records repository.DailyRecordRepository
	cal     *calendar.Calendar
	logger  *logrus.Logger
}

func NewAttendanceService(records repository.DailyRecordRepository, cal *calendar.Calendar) *AttendanceService {
	return &AttendanceService{
		records: records,
		cal:     cal,
		logger:  logging.New(),
	}
}

// CheckIn отмечает начало рабочего дня
func (s *AttendanceService) CheckIn(ctx context.Context, userID uint, at time.Time) (*models.DailyWorkRecord, error) {
	day := s.cal.Day(at)
	s.logger.WithFields(logrus.Fields{
		"user_id":       userID,
		"date":          calendar.Format(day),
		"check_in_time": at.In(s.cal.Location()).Format("15:04"),
	}).Info("User checking in")

	record, err := s.records.GetRecord(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	if record != nil && record.CheckInTime != nil {
		return nil, ErrAlreadyCheckedIn
	}

	return s.records.UpsertRecord(ctx, userID, day, models.RecordPatch{CheckInTime: &at})
}

// CheckOut отмечает окончание рабочего дня
func (s *AttendanceService) CheckOut(ctx context.Context, userID uint, at time.Time) (*models.DailyWorkRecord, error) {
	day := s.cal.Day(at)
	s.logger.WithFields(logrus.Fields{
		"user_id":        userID,
		"date":           calendar.Format(day),
		"check_out_time": at.In(s.cal.Location()).Format("15:04"),
	}).Info("User checking out")

	record, err := s.records.GetRecord(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	if record == nil || record.CheckInTime == nil {
		return nil, ErrNotCheckedIn
	}
	if record.CheckOutTime != nil {
		return nil, ErrAlreadyCheckedOut
	}
	if at.Before(*record.CheckInTime) {
		return nil, fmt.Errorf("время ухода раньше времени прихода")
	}

	return s.records.UpsertRecord(ctx, userID, day, models.RecordPatch{CheckOutTime: &at})
}

// WorkedDuration - отработанное время по записи дня
func WorkedDuration(record *models.DailyWorkRecord) time.Duration {
	if record == nil || record.CheckInTime == nil || record.CheckOutTime == nil {
		return 0
	}
	return record.CheckOutTime.Sub(*record.CheckInTime)
}
