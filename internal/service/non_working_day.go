package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"daily-report-bot/internal/logging"
	"daily-report-bot/internal/models"
	"daily-report-bot/internal/repository"
	"daily-report-bot/pkg/calendar"
	"daily-report-bot/pkg/weekends"
)

// NonWorkingDayService ведет производственный календарь.
// Для годов без загруженного календаря нерабочими считаются суббота и воскресенье.
// На перенос задач календарь не влияет: задачи переходят каждый календарный день.
type NonWorkingDayService struct {
	repo   repository.NonWorkingDayRepository
	logger *logrus.Logger
}

func NewNonWorkingDayService(repo repository.NonWorkingDayRepository) *NonWorkingDayService {
	return &NonWorkingDayService{
		repo:   repo,
		logger: logging.New(),
	}
}

// LoadFromFile загружает календарь года из JSON-файла, заменяя прежний
func (s *NonWorkingDayService) LoadFromFile(ctx context.Context, filePath string) (int, error) {
	year, parsed, err := weekends.ParseFile(filePath)
	if err != nil {
		return 0, err
	}

	days := make([]models.NonWorkingDay, 0, len(parsed))
	for _, d := range parsed {
		days = append(days, models.NonWorkingDay{
			Date:  d.Key,
			Year:  d.Year,
			Month: d.Month,
			Day:   d.Day,
		})
	}

	if err := s.repo.ReplaceYear(ctx, year, days); err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{
		"file":  filePath,
		"year":  year,
		"count": len(days),
	}).Info("Production calendar loaded")

	return len(days), nil
}

// IsNonWorkingDay проверяет, является ли дата выходным днем
func (s *NonWorkingDayService) IsNonWorkingDay(ctx context.Context, date time.Time) (bool, error) {
	years, err := s.loadedYears(ctx)
	if err != nil {
		return false, err
	}
	if _, ok := years[date.Year()]; !ok {
		return isWeekend(date), nil
	}
	return s.repo.IsNonWorkingDay(ctx, date)
}

// CountWorkingDays - число рабочих дней в периоде (включительно)
func (s *NonWorkingDayService) CountWorkingDays(ctx context.Context, from, to time.Time) (int, error) {
	years, err := s.loadedYears(ctx)
	if err != nil {
		return 0, err
	}

	off := make(map[string]struct{})
	if len(years) > 0 {
		keys, err := s.repo.ListRange(ctx, from, to)
		if err != nil {
			return 0, err
		}
		for _, k := range keys {
			off[k] = struct{}{}
		}
	}

	count := 0
	for d := from; !d.After(to); d = calendar.AddDays(d, 1) {
		if _, ok := years[d.Year()]; !ok {
			if !isWeekend(d) {
				count++
			}
			continue
		}
		if _, ok := off[calendar.Format(d)]; !ok {
			count++
		}
	}

	return count, nil
}

func (s *NonWorkingDayService) loadedYears(ctx context.Context) (map[int]struct{}, error) {
	list, err := s.repo.Years(ctx)
	if err != nil {
		return nil, err
	}

	years := make(map[int]struct{}, len(list))
	for _, y := range list {
		years[y] = struct{}{}
	}
	return years, nil
}

func isWeekend(d time.Time) bool {
	return d.Weekday() == time.Saturday || d.Weekday() == time.Sunday
}
