package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"daily-report-bot/internal/logging"
	"daily-report-bot/internal/models"
	"daily-report-bot/internal/repository"
	"daily-report-bot/pkg/calendar"
)

// DayReport - запись дня в том виде, в котором ее видит пользователь
type DayReport struct {
	Date       string                  `json:"date"`
	Record     *models.DailyWorkRecord `json:"record"`
	Unfinished []string                `json:"unfinished"`
	Rollover   *RolloverResult         `json:"rollover,omitempty"`
	// Stale - перенос не удался, данные могут быть неактуальны
	Stale      bool `json:"stale"`
	NonWorking bool `json:"non_working"`
}

// PeriodSummary - сводка по записям за период
type PeriodSummary struct {
	From           string `json:"from"`
	To             string `json:"to"`
	PlannedDays    int    `json:"planned_days"`
	WorkedDays     int    `json:"worked_days"`
	AbsentDays     int    `json:"absent_days"`
	CompletedTasks int    `json:"completed_tasks"`
	OpenTasks      int    `json:"open_tasks"`
	WorkedMinutes  int    `json:"worked_minutes"`
}

type ReportService struct {
	records    repository.DailyRecordRepository
	rollover   *RolloverService
	nonWorking *NonWorkingDayService
	cal        *calendar.Calendar
	logger     *logrus.Logger
}

func NewReportService(records repository.DailyRecordRepository, rollover *RolloverService) *ReportService {
	return &ReportService{
		records:  records,
		rollover: rollover,
		cal:      rollover.Calendar(),
		logger:   logging.New(),
	}
}

// WithNonWorkingDays подключает производственный календарь к отчетам
func (s *ReportService) WithNonWorkingDays(nonWorking *NonWorkingDayService) *ReportService {
	s.nonWorking = nonWorking
	return s
}

// Day сначала переносит задачи до выбранного дня, затем читает запись.
// Для будущих дат перенос выполняется только по сегодняшний день.
func (s *ReportService) Day(ctx context.Context, userID uint, date time.Time) (*DayReport, error) {
	date = s.cal.Day(date)
	report := &DayReport{Date: calendar.Format(date)}

	target := date
	if today := s.cal.Today(); target.After(today) {
		target = today
	}

	result, err := s.rollover.RunRollover(ctx, userID, target)
	report.Rollover = result
	if err != nil {
		report.Stale = true
		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"date":    report.Date,
		}).WithError(err).Warn("Rollover before day view failed, showing stale data")
	}

	record, err := s.records.GetRecord(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = models.NewDailyWorkRecord(userID, report.Date)
	}

	report.Record = record
	report.Unfinished = record.Unfinished()

	if s.nonWorking != nil {
		off, err := s.nonWorking.IsNonWorkingDay(ctx, date)
		if err != nil {
			return nil, err
		}
		report.NonWorking = off
	}

	return report, nil
}

// Summary считает сводку по записям за период (включительно)
func (s *ReportService) Summary(ctx context.Context, userID uint, from, to time.Time) (*PeriodSummary, error) {
	from, to = s.cal.Day(from), s.cal.Day(to)
	if to.Before(from) {
		return nil, ErrInvalidPeriod
	}

	records, err := s.records.ListRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	summary := &PeriodSummary{
		From: calendar.Format(from),
		To:   calendar.Format(to),
	}

	for _, record := range records {
		if record.IsAbsent {
			summary.AbsentDays++
		} else {
			summary.CompletedTasks += len(record.CompletedTasks)
		}
		if record.CheckInTime != nil {
			summary.WorkedDays++
			summary.WorkedMinutes += int(WorkedDuration(record).Minutes())
		}
		if record.Date == summary.To {
			summary.OpenTasks = len(record.Unfinished())
		}
	}

	if s.nonWorking != nil {
		planned, err := s.nonWorking.CountWorkingDays(ctx, from, to)
		if err != nil {
			return nil, err
		}
		summary.PlannedDays = planned
	}

	return summary, nil
}

// FormatDayReport форматирует запись дня для вывода в чат
func (s *ReportService) FormatDayReport(report *DayReport) string {
	var lines []string

	date, err := s.cal.ParseKey(report.Date)
	title := report.Date
	if err == nil {
		title = date.Format("02.01.2006")
	}

	lines = append(lines, fmt.Sprintf("📅 %s", title))
	if report.Stale {
		lines = append(lines, "⚠️ Перенос задач не выполнен, данные могут быть неактуальны. Повторите запрос.")
	}
	if report.NonWorking {
		lines = append(lines, "🎉 Нерабочий день")
	}
	if report.Record.IsAbsent {
		lines = append(lines, "🏖 День отмечен как отсутствие")
	}

	loc := s.cal.Location()
	if report.Record.CheckInTime != nil {
		lines = append(lines, fmt.Sprintf("🟢 Приход: %s", report.Record.CheckInTime.In(loc).Format("15:04")))
	}
	if report.Record.CheckOutTime != nil {
		lines = append(lines, fmt.Sprintf("🔴 Уход: %s", report.Record.CheckOutTime.In(loc).Format("15:04")))
	}

	lines = append(lines, "")
	if len(report.Record.AssignedTasks) == 0 && len(report.Record.CompletedTasks) == 0 {
		lines = append(lines, "📭 Задач нет")
		return strings.Join(lines, "\n")
	}

	lines = append(lines, "📋 Задачи:")
	for _, task := range report.Record.AssignedTasks {
		mark := "⬜"
		if models.ContainsTask(report.Record.CompletedTasks, task) {
			mark = "✅"
		}
		lines = append(lines, fmt.Sprintf("%s %s", mark, task))
	}
	for _, task := range report.Record.CompletedTasks {
		if !models.ContainsTask(report.Record.AssignedTasks, task) {
			lines = append(lines, fmt.Sprintf("✅ %s", task))
		}
	}

	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("Выполнено: %d, осталось: %d",
		len(report.Record.CompletedTasks), len(report.Unfinished)))

	return strings.Join(lines, "\n")
}

// FormatSummary форматирует сводку за период
func (s *ReportService) FormatSummary(summary *PeriodSummary) string {
	worked := fmt.Sprintf("🏢 Рабочих дней: %d", summary.WorkedDays)
	if summary.PlannedDays > 0 {
		worked += fmt.Sprintf(" из %d по календарю", summary.PlannedDays)
	}

	lines := []string{
		fmt.Sprintf("📊 Сводка %s - %s", summary.From, summary.To),
		"",
		worked,
		fmt.Sprintf("⏱ Отработано: %dч %dм", summary.WorkedMinutes/60, summary.WorkedMinutes%60),
		fmt.Sprintf("🏖 Дней отсутствия: %d", summary.AbsentDays),
		fmt.Sprintf("✅ Выполнено задач: %d", summary.CompletedTasks),
		fmt.Sprintf("⬜ Открытых задач на конец периода: %d", summary.OpenTasks),
	}
	return strings.Join(lines, "\n")
}
