package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daily-report-bot/internal/models"
	"daily-report-bot/pkg/calendar"
)

var absenceCommands = map[string]string{
	models.AbsenceTypeVacation:  "/vacation",
	models.AbsenceTypeSickLeave: "/sick",
	models.AbsenceTypeDayOff:    "/dayoff",
}

// addAbsence добавляет период отсутствия: "дата_начала [дата_окончания]"
func (h *Handler) addAbsence(ctx context.Context, message *tgbotapi.Message, args, absenceType string) {
	user, ok := h.currentUser(message)
	if !ok {
		return
	}
	chatID := message.Chat.ID
	command := absenceCommands[absenceType]

	parts := strings.Fields(args)
	if len(parts) == 0 || len(parts) > 2 {
		h.reply(chatID, fmt.Sprintf("❌ Неверный формат. Используйте: %s дата_начала [дата_окончания]\nПример: %s 01.07.2026 14.07.2026", command, command))
		return
	}

	startDate, err := h.cal.Parse(parts[0])
	if err != nil {
		h.reply(chatID, "❌ Ошибка парсинга даты начала: "+err.Error())
		return
	}

	endDate := startDate
	if len(parts) == 2 {
		endDate, err = h.cal.Parse(parts[1])
		if err != nil {
			h.reply(chatID, "❌ Ошибка парсинга даты окончания: "+err.Error())
			return
		}
	}

	period, err := h.absenceService.AddAbsence(ctx, user.ID, absenceType, startDate, endDate)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to add absence")
		h.reply(chatID, "❌ Ошибка добавления: "+err.Error())
		return
	}

	days := calendar.DaysBetween(startDate, endDate) + 1
	h.reply(chatID, fmt.Sprintf(`✅ %s добавлен!

📅 Период: %s - %s
📆 Дней: %d
🆔 ID: %d

💡 Задачи на эти дни продолжат переноситься.`,
		models.AbsenceTypeTitle(absenceType),
		formatDay(startDate), formatDay(endDate), days, period.ID))
}

// showMyAbsences показывает мои отпуска/больничные/отгулы
func (h *Handler) showMyAbsences(message *tgbotapi.Message) {
	user, ok := h.currentUser(message)
	if !ok {
		return
	}
	chatID := message.Chat.ID

	periods, err := h.absenceService.GetUserAbsences(user.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get user absences")
		h.reply(chatID, "❌ Ошибка получения данных: "+err.Error())
		return
	}

	if len(periods) == 0 {
		h.reply(chatID, "📭 У вас нет отпусков, больничных или отгулов.")
		return
	}

	var lines []string
	lines = append(lines, "📋 Мои периоды отсутствия:", "")

	totals := make(map[string]int)
	for _, period := range periods {
		start, errStart := h.cal.ParseKey(period.StartDate)
		end, errEnd := h.cal.ParseKey(period.EndDate)
		if errStart != nil || errEnd != nil {
			continue
		}
		days := calendar.DaysBetween(start, end) + 1
		totals[period.Type] += days

		lines = append(lines, fmt.Sprintf("• [%d] %s: %s - %s (%d дн.)",
			period.ID, models.AbsenceTypeTitle(period.Type), formatDay(start), formatDay(end), days))
	}

	lines = append(lines, "", "📊 Статистика:")
	lines = append(lines, fmt.Sprintf("• Всего отпускных дней: %d", totals[models.AbsenceTypeVacation]))
	lines = append(lines, fmt.Sprintf("• Всего больничных дней: %d", totals[models.AbsenceTypeSickLeave]))
	lines = append(lines, fmt.Sprintf("• Всего отгулов: %d", totals[models.AbsenceTypeDayOff]))

	h.reply(chatID, strings.Join(lines, "\n"))
}

// deleteAbsence удаляет свой период отсутствия по ID
func (h *Handler) deleteAbsence(ctx context.Context, message *tgbotapi.Message, args string) {
	user, ok := h.currentUser(message)
	if !ok {
		return
	}
	chatID := message.Chat.ID

	periodID, err := strconv.ParseUint(strings.TrimSpace(args), 10, 64)
	if err != nil {
		h.reply(chatID, "❌ Укажите ID периода.\nПример: /deleteabsence 3 (ID есть в /myabsences)")
		return
	}

	if err := h.absenceService.DeleteAbsence(ctx, user.ID, uint(periodID)); err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to delete absence")
		h.reply(chatID, "❌ Ошибка удаления: "+err.Error())
		return
	}

	h.reply(chatID, fmt.Sprintf("✅ Период %d удален.", periodID))
}
