package handler

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daily-report-bot/internal/service"
)

// checkIn отмечает приход
func (h *Handler) checkIn(ctx context.Context, message *tgbotapi.Message) {
	user, ok := h.currentUser(message)
	if !ok {
		return
	}

	now := h.cal.Now()
	if _, err := h.attendanceService.CheckIn(ctx, user.ID, now); err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID).Warn("Check-in failed")
		h.reply(message.Chat.ID, errorText(err))
		return
	}

	h.reply(message.Chat.ID, fmt.Sprintf("🟢 Приход отмечен: %s\nЗадачи на сегодня: /day", now.Format("15:04")))
}

// checkOut отмечает уход
func (h *Handler) checkOut(ctx context.Context, message *tgbotapi.Message) {
	user, ok := h.currentUser(message)
	if !ok {
		return
	}

	now := h.cal.Now()
	record, err := h.attendanceService.CheckOut(ctx, user.ID, now)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID).Warn("Check-out failed")
		h.reply(message.Chat.ID, errorText(err))
		return
	}

	worked := service.WorkedDuration(record)
	text := fmt.Sprintf("🔴 Уход отмечен: %s\n⏱ Отработано: %dч %dм",
		now.Format("15:04"), int(worked.Hours()), int(worked.Minutes())%60)
	if left := len(record.Unfinished()); left > 0 {
		text += fmt.Sprintf("\n⬜ Незавершенных задач: %d, они перейдут на следующий день", left)
	}

	h.reply(message.Chat.ID, text)
}
