package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"daily-report-bot/internal/models"
	"daily-report-bot/internal/service"
	"daily-report-bot/pkg/calendar"
)

// errorText превращает ошибку сервиса в текст для пользователя
func errorText(err error) string {
	switch {
	case errors.Is(err, service.ErrStoreUnavailable):
		return "❌ Хранилище временно недоступно, попробуйте позже."
	case errors.Is(err, service.ErrStoreFailure):
		return "❌ Ошибка при сохранении данных. Попробуйте позже."
	case errors.Is(err, service.ErrFutureDate):
		return "❌ Дата не может быть позже сегодняшнего дня."
	case errors.Is(err, service.ErrInvalidDate):
		return "❌ Неверная дата. Используйте формат 25.12.2026 или 2026-12-25."
	default:
		return "❌ " + err.Error()
	}
}

// showDay показывает задачи дня, перед этим перенося незавершенные задачи
func (h *Handler) showDay(ctx context.Context, message *tgbotapi.Message, args string) {
	user, ok := h.currentUser(message)
	if !ok {
		return
	}

	date, err := h.parseDay(args)
	if err != nil {
		h.reply(message.Chat.ID, errorText(err))
		return
	}

	report, err := h.reportService.Day(ctx, user.ID, date)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to build day report")
		h.reply(message.Chat.ID, errorText(err))
		return
	}

	h.reply(message.Chat.ID, h.reportService.FormatDayReport(report))
}

// parseTaskArgs разбирает "ID [дата]"
func (h *Handler) parseTaskArgs(args string) (string, time.Time, error) {
	parts := strings.Fields(args)
	if len(parts) == 0 || len(parts) > 2 {
		return "", time.Time{}, service.ErrInvalidTaskID
	}

	date := h.cal.Today()
	if len(parts) == 2 {
		parsed, err := h.cal.Parse(parts[1])
		if err != nil {
			return "", time.Time{}, err
		}
		date = parsed
	}

	return parts[0], date, nil
}

type taskAction func(ctx context.Context, userID uint, date time.Time, taskID string) (*models.DailyWorkRecord, error)

func (h *Handler) runTaskAction(ctx context.Context, message *tgbotapi.Message, args, usage, done string, action taskAction) {
	user, ok := h.currentUser(message)
	if !ok {
		return
	}
	chatID := message.Chat.ID

	taskID, date, err := h.parseTaskArgs(args)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTaskID) {
			h.reply(chatID, "❌ Неверный формат. Используйте: "+usage)
			return
		}
		h.reply(chatID, errorText(err))
		return
	}

	record, err := action(ctx, user.ID, date, taskID)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": user.ID,
			"task_id": taskID,
		}).Error("Task command failed")
		h.reply(chatID, errorText(err))
		return
	}

	h.reply(chatID, fmt.Sprintf("%s %s (%s)\nОсталось задач на день: %d",
		done, taskID, formatDay(date), len(record.Unfinished())))
}

func (h *Handler) assignTask(ctx context.Context, message *tgbotapi.Message, args string) {
	h.runTaskAction(ctx, message, args, "/assign ID [дата]", "📌 Задача назначена:", h.taskService.AssignTask)
}

func (h *Handler) unassignTask(ctx context.Context, message *tgbotapi.Message, args string) {
	h.runTaskAction(ctx, message, args, "/unassign ID [дата]", "🗑 Задача снята:", h.taskService.UnassignTask)
}

func (h *Handler) completeTask(ctx context.Context, message *tgbotapi.Message, args string) {
	h.runTaskAction(ctx, message, args, "/done ID [дата]", "✅ Задача выполнена:", h.taskService.CompleteTask)
}

func (h *Handler) reopenTask(ctx context.Context, message *tgbotapi.Message, args string) {
	h.runTaskAction(ctx, message, args, "/reopen ID [дата]", "↩️ Задача возвращена в работу:", h.taskService.ReopenTask)
}

// showSummary показывает сводку за период. Без аргументов - с начала месяца по сегодня.
func (h *Handler) showSummary(ctx context.Context, message *tgbotapi.Message, args string) {
	user, ok := h.currentUser(message)
	if !ok {
		return
	}
	chatID := message.Chat.ID

	to := h.cal.Today()
	from := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, h.cal.Location())

	parts := strings.Fields(args)
	if len(parts) > 2 {
		h.reply(chatID, "❌ Неверный формат. Используйте: /summary [с] [по]")
		return
	}
	if len(parts) >= 1 {
		parsed, err := h.cal.Parse(parts[0])
		if err != nil {
			h.reply(chatID, errorText(err))
			return
		}
		from = parsed
	}
	if len(parts) == 2 {
		parsed, err := h.cal.Parse(parts[1])
		if err != nil {
			h.reply(chatID, errorText(err))
			return
		}
		to = parsed
	}

	summary, err := h.reportService.Summary(ctx, user.ID, from, to)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": user.ID,
			"from":    calendar.Format(from),
			"to":      calendar.Format(to),
		}).Error("Failed to build summary")
		h.reply(chatID, errorText(err))
		return
	}

	h.reply(chatID, h.reportService.FormatSummary(summary))
}

// checkWorkingDay проверяет день по производственному календарю
func (h *Handler) checkWorkingDay(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	date, err := h.parseDay(args)
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}

	off, err := h.nonWorkingService.IsNonWorkingDay(ctx, date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to check working day")
		h.reply(chatID, errorText(err))
		return
	}

	if off {
		h.reply(chatID, fmt.Sprintf("🎉 %s - нерабочий день", formatDay(date)))
		return
	}
	h.reply(chatID, fmt.Sprintf("🏢 %s - рабочий день", formatDay(date)))
}
