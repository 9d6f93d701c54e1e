package handler

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"daily-report-bot/internal/config"
	"daily-report-bot/internal/logging"
	"daily-report-bot/internal/models"
	"daily-report-bot/internal/service"
	"daily-report-bot/pkg/calendar"
)

// Sender - то, через что бот отправляет сообщения (telegram.Client в проде)
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Handler struct {
	client            Sender
	userService       *service.UserService
	taskService       *service.TaskService
	attendanceService *service.AttendanceService
	absenceService    *service.AbsenceService
	reportService     *service.ReportService
	nonWorkingService *service.NonWorkingDayService
	rolloverService   *service.RolloverService
	scheduler         *service.RolloverScheduler
	cal               *calendar.Calendar

	statesMu   sync.Mutex
	userStates map[int64]string

	config *config.BotConfig
	logger *logrus.Logger
}

func NewHandler(
	client Sender,
	userService *service.UserService,
	taskService *service.TaskService,
	attendanceService *service.AttendanceService,
	absenceService *service.AbsenceService,
	reportService *service.ReportService,
	nonWorkingService *service.NonWorkingDayService,
	rolloverService *service.RolloverService,
	scheduler *service.RolloverScheduler,
	cfg *config.BotConfig,
) *Handler {
	return &Handler{
		client:            client,
		userService:       userService,
		taskService:       taskService,
		attendanceService: attendanceService,
		absenceService:    absenceService,
		reportService:     reportService,
		nonWorkingService: nonWorkingService,
		rolloverService:   rolloverService,
		scheduler:         scheduler,
		cal:               rolloverService.Calendar(),
		userStates:        make(map[int64]string),
		config:            cfg,
		logger:            logging.New(),
	}
}

// HandleUpdates обрабатывает обновления, пока канал не закроется или не отменится ctx
func (h *Handler) HandleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.HandleUpdate(ctx, update)
		}
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	// Обработка callback query (для inline кнопок)
	if update.CallbackQuery != nil {
		h.handleCallbackQuery(update.CallbackQuery)
		return
	}

	if update.Message == nil {
		return
	}

	h.handleMessage(ctx, update.Message)
}

// handleCallbackQuery обрабатывает inline кнопки
func (h *Handler) handleCallbackQuery(callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID

	// Удаляем клавиатуру
	editMsg := tgbotapi.NewEditMessageReplyMarkup(chatID, callback.Message.MessageID, tgbotapi.NewInlineKeyboardMarkup())
	h.client.Send(editMsg)

	switch callback.Data {
	case "confirm_delete":
		if err := h.userService.DeleteUser(chatID); err != nil {
			h.reply(chatID, "❌ Ошибка удаления профиля: "+err.Error())
		} else {
			h.reply(chatID, "✅ Ваш профиль успешно удален!")
		}

	case "cancel_delete":
		h.reply(chatID, "❌ Удаление профиля отменено.")
	}

	// Отвечаем на callback (убираем "часики" у кнопки)
	h.client.Send(tgbotapi.NewCallback(callback.ID, ""))
}

func (h *Handler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil {
		return
	}

	username := ""
	if message.From != nil {
		username = message.From.UserName
	}
	h.logger.Infof("[%s] %s", username, message.Text)

	chatID := message.Chat.ID

	// Проверяем, находится ли пользователь в процессе создания/обновления профиля
	if state, exists := h.getState(chatID); exists && !message.IsCommand() {
		h.handleProfileState(message, state)
		return
	}

	if message.IsCommand() {
		h.clearState(chatID)
		h.handleCommand(ctx, message)
		return
	}

	h.reply(chatID, "💬 Я понимаю только команды. Используйте /help для списка команд.")
}

func (h *Handler) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.client.Send(msg); err != nil {
		h.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}

// currentUser возвращает профиль отправителя или сообщает, что его нет
func (h *Handler) currentUser(message *tgbotapi.Message) (*models.User, bool) {
	chatID := message.Chat.ID

	user, err := h.userService.GetUser(chatID)
	if err != nil || user == nil {
		h.logger.WithField("chat_id", chatID).Debug("User not found")
		h.reply(chatID, "❌ Профиль не найден.\nИспользуйте /createprofile чтобы создать профиль.")
		return nil, false
	}

	return user, true
}

// requireAdmin проверяет права администратора и сообщает об отказе
func (h *Handler) requireAdmin(message *tgbotapi.Message) bool {
	chatID := message.Chat.ID

	isAdmin, err := h.userService.IsAdmin(chatID)
	if err != nil {
		h.reply(chatID, "❌ Ошибка проверки прав доступа: "+err.Error())
		return false
	}

	if !isAdmin {
		h.reply(chatID, "❌ Доступ запрещен. Эта команда только для администраторов.")
		return false
	}

	return true
}

func (h *Handler) getState(chatID int64) (string, bool) {
	h.statesMu.Lock()
	defer h.statesMu.Unlock()

	state, ok := h.userStates[chatID]
	return state, ok
}

func (h *Handler) setState(chatID int64, state string) {
	h.statesMu.Lock()
	h.userStates[chatID] = state
	h.statesMu.Unlock()
}

func (h *Handler) clearState(chatID int64) {
	h.statesMu.Lock()
	delete(h.userStates, chatID)
	h.statesMu.Unlock()
}

// parseDay разбирает необязательную дату; пустая строка - сегодня
func (h *Handler) parseDay(arg string) (time.Time, error) {
	if arg == "" {
		return h.cal.Today(), nil
	}
	return h.cal.Parse(arg)
}

func formatDay(t time.Time) string {
	return t.Format("02.01.2006")
}
