package handler

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daily-report-bot/internal/models"
)

func (h *Handler) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()
	args := message.CommandArguments()

	switch command {
	case "start", "help":
		h.sendHelpMessage(message)
	case "helpadmin":
		h.sendAdminHelpMessage(message)

	// Профиль
	case "createprofile":
		h.startProfileCreation(message)
	case "myprofile":
		h.showProfile(message)
	case "updateprofile":
		h.startProfileUpdate(message)
	case "deleteprofile":
		h.deleteProfile(message)

	// Задачи дня (все пользователи)
	case "day", "today":
		h.showDay(ctx, message, args)
	case "assign":
		h.assignTask(ctx, message, args)
	case "unassign":
		h.unassignTask(ctx, message, args)
	case "done":
		h.completeTask(ctx, message, args)
	case "reopen":
		h.reopenTask(ctx, message, args)
	case "summary":
		h.showSummary(ctx, message, args)
	case "checkday":
		h.checkWorkingDay(ctx, message, args)

	// Приход/уход
	case "in":
		h.checkIn(ctx, message)
	case "out":
		h.checkOut(ctx, message)

	// Отпуска/больничные/отгулы
	case "vacation":
		h.addAbsence(ctx, message, args, models.AbsenceTypeVacation)
	case "sick", "sickleave":
		h.addAbsence(ctx, message, args, models.AbsenceTypeSickLeave)
	case "dayoff":
		h.addAbsence(ctx, message, args, models.AbsenceTypeDayOff)
	case "myabsences":
		h.showMyAbsences(message)
	case "deleteabsence":
		h.deleteAbsence(ctx, message, args)

	// Администрирование
	case "rollover":
		h.runRollover(ctx, message, args)
	case "runall":
		h.runBatch(ctx, message)
	case "runs":
		h.showExecutions(ctx, message)
	case "allusers":
		h.showAllUsers(message)
	case "stats":
		h.showStats(message)
	case "promote":
		h.promoteToAdmin(message, args)
	case "demote":
		h.demoteToClient(message, args)
	case "activate":
		h.setUserActive(message, args, true)
	case "deactivate":
		h.setUserActive(message, args, false)

	default:
		h.sendUnknownCommand(message)
	}
}

func (h *Handler) sendUnknownCommand(message *tgbotapi.Message) {
	h.reply(message.Chat.ID, "❌ Неизвестная команда. Используйте /help для списка команд.")
}

func (h *Handler) sendHelpMessage(message *tgbotapi.Message) {
	text := `📋 Доступные команды:

👤 Профиль:
/createprofile - Создать профиль (ФИО)
/myprofile - Показать мой профиль
/updateprofile - Обновить профиль
/deleteprofile - Удалить профиль

📝 Задачи:
/day [дата] - Задачи дня (по умолчанию сегодня)
/assign ID [дата] - Назначить задачу на день
/unassign ID [дата] - Снять задачу с дня
/done ID [дата] - Отметить задачу выполненной
/reopen ID [дата] - Вернуть задачу в работу
/summary [с] [по] - Сводка за период (по умолчанию текущий месяц)
/checkday [дата] - Проверить, является ли день рабочим

⏰ Учет рабочего времени:
/in - Отметить приход
/out - Отметить уход

🏖️ Отпуска/Больничные/Отгулы:
/vacation дата_начала [дата_окончания] - Добавить отпуск
/sick дата_начала [дата_окончания] - Добавить больничный
/dayoff дата - Добавить отгул
/myabsences - Мои периоды отсутствия
/deleteabsence ID - Удалить период отсутствия

💡 Невыполненные задачи автоматически переносятся на следующий день.
Даты: 25.12.2026, 25-12-2026, 2026-12-25 или 25.12`

	h.reply(message.Chat.ID, text)
}

func (h *Handler) sendAdminHelpMessage(message *tgbotapi.Message) {
	if !h.requireAdmin(message) {
		return
	}

	text := `📋 Команды администратора:

🔄 Перенос задач:
/rollover [дата] [rescan] - Перенести свои задачи до даты
/runall - Запустить перенос для всех активных пользователей
/runs - Последние запуски переноса

👑 Пользователи:
/allusers - Показать всех пользователей
/stats - Статистика бота
/promote [ID] - Назначить администратора
/demote [ID] - Снять администратора
/activate [ID] - Включить плановый перенос
/deactivate [ID] - Выключить плановый перенос`

	if h.config != nil && h.config.BaseAdminChatID != 0 {
		text += fmt.Sprintf("\n\n🔧 ID главного администратора: %d", h.config.BaseAdminChatID)
	}

	h.reply(message.Chat.ID, text)
}
