package handler

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	stateAwaitingFirstName = "awaiting_first_name"
	stateAwaitingLastName  = "awaiting_last_name:"
	stateAwaitingUpdate    = "awaiting_update"
)

// startProfileCreation начинает процесс создания профиля
func (h *Handler) startProfileCreation(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	// Проверяем, есть ли уже профиль
	user, err := h.userService.GetUser(chatID)
	if err == nil && user != nil {
		h.reply(chatID, "❌ У вас уже есть профиль!\nИспользуйте /myprofile чтобы посмотреть его или /updateprofile чтобы изменить.")
		return
	}

	h.setState(chatID, stateAwaitingFirstName)

	h.reply(chatID, `👤 Создание профиля

Шаг 1 из 2:
✏️ Пожалуйста, отправьте ваше имя:`)
}

// handleProfileState обрабатывает состояния создания/обновления профиля
func (h *Handler) handleProfileState(message *tgbotapi.Message, state string) {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	username := ""
	if message.From != nil {
		username = message.From.UserName
	}

	switch {
	case state == stateAwaitingFirstName:
		if text == "" {
			h.reply(chatID, "❌ Имя не может быть пустым. Отправьте ваше имя:")
			return
		}
		h.setState(chatID, stateAwaitingLastName+text)

		h.reply(chatID, fmt.Sprintf(`Шаг 2 из 2:
✅ Имя сохранено: %s
✏️ Теперь отправьте вашу фамилию (если нет фамилии, отправьте "-"):`, text))

	case strings.HasPrefix(state, stateAwaitingLastName):
		firstName := strings.TrimPrefix(state, stateAwaitingLastName)
		lastName := text
		if lastName == "-" {
			lastName = ""
		}

		h.clearState(chatID)

		user, err := h.userService.CreateUser(chatID, username, firstName, lastName)
		if err != nil {
			h.reply(chatID, "❌ Ошибка создания профиля: "+err.Error())
			return
		}

		h.reply(chatID, fmt.Sprintf("🎉 Профиль успешно создан!\n\n%s\n\nТеперь назначьте задачи командой /assign.",
			h.userService.FormatUserInfo(user)))

	case state == stateAwaitingUpdate:
		h.clearState(chatID)

		parts := strings.Fields(text)
		if len(parts) < 1 {
			h.reply(chatID, "❌ Неверный формат. Пожалуйста, отправьте имя и фамилию.")
			return
		}

		firstName := parts[0]
		lastName := ""
		if len(parts) > 1 {
			lastName = parts[1]
		}

		user, err := h.userService.UpdateUser(chatID, username, firstName, lastName)
		if err != nil {
			h.reply(chatID, "❌ Ошибка обновления профиля: "+err.Error())
			return
		}

		h.reply(chatID, "✅ Профиль успешно обновлен!\n\n"+h.userService.FormatUserInfo(user))

	default:
		h.clearState(chatID)
	}
}

// showProfile показывает профиль пользователя
func (h *Handler) showProfile(message *tgbotapi.Message) {
	user, ok := h.currentUser(message)
	if !ok {
		return
	}

	h.reply(message.Chat.ID, h.userService.FormatUserInfo(user))
}

// startProfileUpdate начинает процесс обновления профиля
func (h *Handler) startProfileUpdate(message *tgbotapi.Message) {
	if _, ok := h.currentUser(message); !ok {
		return
	}

	h.setState(message.Chat.ID, stateAwaitingUpdate)

	h.reply(message.Chat.ID, `✏️ Обновление профиля

Отправьте новые данные в формате:
Имя Фамилия

Например: Иван Иванов
Или просто: Иван (если нужно обновить только имя)`)
}

// deleteProfile спрашивает подтверждение удаления профиля
func (h *Handler) deleteProfile(message *tgbotapi.Message) {
	if _, ok := h.currentUser(message); !ok {
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Да, удалить", "confirm_delete"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Нет, отменить", "cancel_delete"),
		),
	)

	msg := tgbotapi.NewMessage(message.Chat.ID, "⚠️ Вы уверены, что хотите удалить свой профиль?\nЗаписи дней сохранятся, но перенос задач прекратится.")
	msg.ReplyMarkup = keyboard
	if _, err := h.client.Send(msg); err != nil {
		h.logger.WithError(err).Error("Failed to send delete confirmation")
	}
}
