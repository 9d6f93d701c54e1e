// internal/service/absence_service.go
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

const maxAbsenceDays = 366

// AbsenceService ведет периоды отсутствия и помечает их дни в записях.
// Отсутствие не отменяет перенос задач.
type AbsenceService struct {
	absenceRepo repository.AbsencePeriodRepository
	records     repository.DailyRecordRepository
	cal         *calendar.Calendar
	logger      *logrus.Logger
}

func NewAbsenceService(
	absenceRepo repository.AbsencePeriodRepository,
	records repository.DailyRecordRepository,
	cal *calendar.Calendar,
) *AbsenceService {
	return &AbsenceService{
		absenceRepo: absenceRepo,
		records:     records,
		cal:         cal,
		logger:      logging.New(),
	}
}

// AddAbsence добавляет период отсутствия и помечает каждый его день
func (s *AbsenceService) AddAbsence(ctx context.Context, userID uint, absenceType string, startDate, endDate time.Time) (*models.AbsencePeriod, error) {
	if !models.IsValidAbsenceType(absenceType) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAbsenceType, absenceType)
	}

	// Нормализуем даты (оставляем только дату)
	startDate = s.cal.Day(startDate)
	endDate = s.cal.Day(endDate)

	// Проверяем, что даты корректны
	if endDate.Before(startDate) {
		return nil, ErrInvalidPeriod
	}
	if calendar.DaysBetween(startDate, endDate) >= maxAbsenceDays {
		return nil, fmt.Errorf("%w: период длиннее %d дней", ErrInvalidPeriod, maxAbsenceDays)
	}

	// Проверяем пересечения с существующими периодами
	conflicts, err := s.absenceRepo.CheckPeriodConflict(userID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки конфликтов: %w", err)
	}
	if conflicts {
		return nil, ErrAbsenceConflict
	}

	period := &models.AbsencePeriod{
		UserID:    userID,
		StartDate: calendar.Format(startDate),
		EndDate:   calendar.Format(endDate),
		Type:      absenceType,
	}

	if err := s.absenceRepo.Create(period); err != nil {
		return nil, fmt.Errorf("ошибка создания периода: %w", err)
	}

	if err := s.markDays(ctx, userID, startDate, endDate, true); err != nil {
		// Откатываем создание периода, если не удалось пометить дни
		s.markDays(ctx, userID, startDate, endDate, false)
		s.absenceRepo.Delete(period.ID)
		return nil, fmt.Errorf("ошибка отметки дней отсутствия: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"id":      period.ID,
		"user_id": userID,
		"type":    absenceType,
		"from":    period.StartDate,
		"to":      period.EndDate,
	}).Info("Absence period created")

	return period, nil
}

// DeleteAbsence удаляет период отсутствия и снимает отметки с его дней
func (s *AbsenceService) DeleteAbsence(ctx context.Context, userID, periodID uint) error {
	period, err := s.absenceRepo.GetByID(periodID)
	if err != nil {
		return err
	}
	if period == nil || period.UserID != userID {
		return ErrAbsenceNotFound
	}

	startDate, err := s.cal.ParseKey(period.StartDate)
	if err != nil {
		return err
	}
	endDate, err := s.cal.ParseKey(period.EndDate)
	if err != nil {
		return err
	}

	if err := s.absenceRepo.Delete(periodID); err != nil {
		return err
	}

	if err := s.markDays(ctx, userID, startDate, endDate, false); err != nil {
		return fmt.Errorf("ошибка снятия отметок отсутствия: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"id":      periodID,
		"user_id": userID,
	}).Info("Absence period deleted")
	return nil
}

// GetUserAbsences возвращает все периоды отсутствия пользователя
func (s *AbsenceService) GetUserAbsences(userID uint) ([]models.AbsencePeriod, error) {
	return s.absenceRepo.GetByUserID(userID)
}

// GetCurrentAbsence возвращает период отсутствия, в который попадает дата
func (s *AbsenceService) GetCurrentAbsence(userID uint, date time.Time) (*models.AbsencePeriod, error) {
	return s.absenceRepo.GetCurrentAbsence(userID, s.cal.Day(date))
}

func (s *AbsenceService) markDays(ctx context.Context, userID uint, startDate, endDate time.Time, absent bool) error {
	for date := startDate; !date.After(endDate); date = calendar.AddDays(date, 1) {
		flag := absent
		if _, err := s.records.UpsertRecord(ctx, userID, date, models.RecordPatch{IsAbsent: &flag}); err != nil {
			return fmt.Errorf("%s: %w", calendar.Format(date), err)
		}
	}
	return nil
}
