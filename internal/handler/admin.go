package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"daily-report-bot/internal/models"
	"daily-report-bot/internal/service"
	"daily-report-bot/pkg/calendar"
)

const recentExecutionsLimit = 10

// runRollover вручную переносит свои задачи до даты: /rollover [дата] [rescan]
func (h *Handler) runRollover(ctx context.Context, message *tgbotapi.Message, args string) {
	if !h.requireAdmin(message) {
		return
	}
	user, ok := h.currentUser(message)
	if !ok {
		return
	}
	chatID := message.Chat.ID

	target := h.cal.Today()
	var opts service.RolloverOptions

	for _, arg := range strings.Fields(args) {
		if strings.EqualFold(arg, "rescan") {
			opts.Rescan = true
			continue
		}
		parsed, err := h.cal.Parse(arg)
		if err != nil {
			h.reply(chatID, errorText(err))
			return
		}
		target = parsed
	}

	result, err := h.rolloverService.Run(ctx, user.ID, target, opts)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": user.ID,
			"target":  calendar.Format(target),
		}).Error("Manual rollover failed")
		h.reply(chatID, errorText(err))
		return
	}

	h.reply(chatID, fmt.Sprintf(`🔄 Перенос выполнен до %s

📆 Просмотрено дней: %d
📦 Перенесено задач: %d
📍 Курсор: %s`,
		formatDay(target), result.DaysScanned, result.TasksMoved, result.Cursor))
}

// runBatch запускает пакетный перенос для всех активных пользователей
func (h *Handler) runBatch(ctx context.Context, message *tgbotapi.Message) {
	if !h.requireAdmin(message) {
		return
	}
	chatID := message.Chat.ID

	execution, err := h.scheduler.RunNow(ctx, models.TriggerManual)
	if err != nil {
		h.logger.WithError(err).Error("Manual rollover batch failed")
		h.reply(chatID, errorText(err))
		return
	}

	h.reply(chatID, fmt.Sprintf("✅ Пакетный перенос на %s завершен\n👥 Успешно: %d\n⚠️ С ошибками: %d",
		execution.ExecutionDate, execution.SuccessCount, execution.ErrorCount))
}

// showExecutions показывает журнал пакетных запусков
func (h *Handler) showExecutions(ctx context.Context, message *tgbotapi.Message) {
	if !h.requireAdmin(message) {
		return
	}
	chatID := message.Chat.ID

	executions, err := h.scheduler.RecentExecutions(ctx, recentExecutionsLimit)
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}

	var lines []string
	lines = append(lines, "📜 Последние запуски переноса:", "")
	if len(executions) == 0 {
		lines = append(lines, "📭 Запусков еще не было")
	}
	for _, e := range executions {
		lines = append(lines, fmt.Sprintf("• %s [%s] ✅ %d ⚠️ %d (%s)",
			e.ExecutionDate, e.Trigger, e.SuccessCount, e.ErrorCount,
			e.ExecutedAt.In(h.cal.Location()).Format("02.01 15:04")))
	}

	if next := h.scheduler.NextRun(); !next.IsZero() {
		lines = append(lines, "", "⏭ Следующий запуск: "+next.In(h.cal.Location()).Format(time.DateTime))
	}

	h.reply(chatID, strings.Join(lines, "\n"))
}

// showAllUsers показывает всех пользователей
func (h *Handler) showAllUsers(message *tgbotapi.Message) {
	if !h.requireAdmin(message) {
		return
	}

	allUsers, err := h.userService.FormatAllUsers()
	if err != nil {
		h.reply(message.Chat.ID, "❌ Ошибка получения списка пользователей: "+err.Error())
		return
	}

	h.reply(message.Chat.ID, allUsers)
}

// showStats показывает статистику (только для админов)
func (h *Handler) showStats(message *tgbotapi.Message) {
	if !h.requireAdmin(message) {
		return
	}

	total, admins, err := h.userService.GetStats()
	if err != nil {
		h.reply(message.Chat.ID, "❌ Ошибка получения статистики: "+err.Error())
		return
	}

	h.reply(message.Chat.ID, fmt.Sprintf(`📊 Статистика бота:

👥 Всего пользователей: %d
👑 Администраторов: %d
👤 Клиентов: %d`,
		total, admins, total-admins))
}

// parseTargetChatID разбирает ID пользователя из аргументов команды
func (h *Handler) parseTargetChatID(chatID int64, args, command string) (int64, bool) {
	args = strings.TrimSpace(args)
	if args == "" {
		h.reply(chatID, fmt.Sprintf("❌ Укажите ID пользователя.\nПример: /%s 123456789", command))
		return 0, false
	}

	targetChatID, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		h.reply(chatID, "❌ Неверный формат ID.\nID должен быть числом.")
		return 0, false
	}

	return targetChatID, true
}

func (h *Handler) isBaseAdmin(chatID int64) bool {
	return h.config != nil && h.config.BaseAdminChatID != 0 && chatID == h.config.BaseAdminChatID
}

// promoteToAdmin назначает пользователя администратором
func (h *Handler) promoteToAdmin(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	if !h.requireAdmin(message) {
		return
	}

	targetChatID, ok := h.parseTargetChatID(chatID, args, "promote")
	if !ok {
		return
	}

	if err := h.userService.UpdateRole(chatID, targetChatID, models.Role(models.RoleAdmin)); err != nil {
		h.reply(chatID, "❌ Ошибка назначения администратора: "+err.Error())
		return
	}

	h.reply(chatID, fmt.Sprintf("✅ Пользователь с ID %d теперь администратор!", targetChatID))
}

// demoteToClient снимает пользователя с должности администратора
func (h *Handler) demoteToClient(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	if !h.requireAdmin(message) {
		return
	}

	targetChatID, ok := h.parseTargetChatID(chatID, args, "demote")
	if !ok {
		return
	}

	// Не позволяем снять главного администратора из конфига
	if h.isBaseAdmin(targetChatID) {
		h.reply(chatID, "❌ Нельзя снять главного администратора, заданного в конфигурации!")
		return
	}

	if err := h.userService.UpdateRole(chatID, targetChatID, models.Role(models.RoleClient)); err != nil {
		h.reply(chatID, "❌ Ошибка снятия администратора: "+err.Error())
		return
	}

	h.reply(chatID, fmt.Sprintf("✅ Пользователь с ID %d теперь клиент!", targetChatID))
}

// setUserActive включает или выключает пользователя в плановом переносе
func (h *Handler) setUserActive(message *tgbotapi.Message, args string, active bool) {
	chatID := message.Chat.ID
	if !h.requireAdmin(message) {
		return
	}

	command := "deactivate"
	if active {
		command = "activate"
	}

	targetChatID, ok := h.parseTargetChatID(chatID, args, command)
	if !ok {
		return
	}

	if err := h.userService.SetActive(chatID, targetChatID, active); err != nil {
		h.reply(chatID, "❌ Ошибка изменения статуса: "+err.Error())
		return
	}

	if active {
		h.reply(chatID, fmt.Sprintf("✅ Пользователь с ID %d снова участвует в плановом переносе.", targetChatID))
		return
	}
	h.reply(chatID, fmt.Sprintf("⛔ Пользователь с ID %d отключен от планового переноса.", targetChatID))
}
