package service

import (
	"context"
	"fmt"
	"strings"

	"daily-report-bot/internal/models"
	"daily-report-bot/internal/repository"
)

type UserService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// CreateUser создает нового пользователя с ролью client по умолчанию
func (s *UserService) CreateUser(chatID int64, username, firstName, lastName string) (*models.User, error) {
	// Проверяем валидность данных
	if strings.TrimSpace(firstName) == "" {
		return nil, fmt.Errorf("имя не может быть пустым")
	}

	user := &models.User{
		ChatID:    chatID,
		Username:  username,
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Role:      models.RoleClient, // По умолчанию client
		IsActive:  true,
	}

	if err := s.repo.Create(user); err != nil {
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	return user, nil
}

// GetUser возвращает пользователя по chatID
func (s *UserService) GetUser(chatID int64) (*models.User, error) {
	user, err := s.repo.GetByChatID(chatID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}

	if user == nil {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// GetByID возвращает пользователя по внутреннему идентификатору
func (s *UserService) GetByID(id uint) (*models.User, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}

	if user == nil {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// ListActiveIDs - идентификаторы пользователей, участвующих в плановом переносе
func (s *UserService) ListActiveIDs(ctx context.Context) ([]uint, error) {
	return s.repo.ListActiveIDs(ctx)
}

// SetActive включает или выключает пользователя (только для админов)
func (s *UserService) SetActive(adminChatID, targetChatID int64, active bool) error {
	if err := s.requireAdmin(adminChatID); err != nil {
		return err
	}
	return s.repo.SetActive(targetChatID, active)
}

// UpdateRole обновляет роль пользователя (только для админов)
func (s *UserService) UpdateRole(adminChatID, targetChatID int64, role models.Role) error {
	if err := s.requireAdmin(adminChatID); err != nil {
		return err
	}
	return s.repo.UpdateRole(targetChatID, role)
}

func (s *UserService) requireAdmin(chatID int64) error {
	admin, err := s.repo.GetByChatID(chatID)
	if err != nil {
		return fmt.Errorf("ошибка проверки админа: %w", err)
	}

	if admin == nil || !admin.IsAdmin() {
		return fmt.Errorf("доступ запрещен: команда только для администраторов")
	}

	return nil
}

// FormatUserInfo форматирует информацию о пользователе для вывода
func (s *UserService) FormatUserInfo(user *models.User) string {
	var lines []string

	lines = append(lines, "👤 Профиль пользователя:")
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("🆔 ID чата: %d", user.ChatID))

	if user.Username != "" {
		lines = append(lines, fmt.Sprintf("📛 Никнейм: @%s", user.Username))
	}

	lines = append(lines, fmt.Sprintf("👨‍💼 Имя: %s", user.FirstName))

	if user.LastName != "" {
		lines = append(lines, fmt.Sprintf("👨‍💼 Фамилия: %s", user.LastName))
	}

	// Добавляем информацию о роли
	roleEmoji := "👤"
	if user.IsAdmin() {
		roleEmoji = "👑"
	}
	lines = append(lines, fmt.Sprintf("%s Роль: %s", roleEmoji, user.Role))

	status := "✅ Активен"
	if !user.IsActive {
		status = "⛔ Отключен от планового переноса"
	}
	lines = append(lines, status)

	return strings.Join(lines, "\n")
}

// IsAdmin проверяет, является ли пользователь администратором
func (s *UserService) IsAdmin(chatID int64) (bool, error) {
	user, err := s.repo.GetByChatID(chatID)
	if err != nil {
		return false, err
	}

	return user != nil && user.IsAdmin(), nil
}

// InitializeAdmin инициализирует администратора из конфига
func (s *UserService) InitializeAdmin(adminChatID int64) error {
	if adminChatID == 0 {
		return nil // Админ не задан в конфиге
	}

	existingUser, err := s.repo.GetByChatID(adminChatID)
	if err != nil {
		return err
	}

	if existingUser != nil {
		// Если пользователь существует, обновляем его роль на админа
		return s.repo.UpdateRole(adminChatID, models.Role(models.RoleAdmin))
	}

	adminUser := &models.User{
		ChatID:    adminChatID,
		Username:  "admin",
		FirstName: "Администратор",
		Role:      models.RoleAdmin,
		IsActive:  true,
	}

	return s.repo.Create(adminUser)
}

// UpdateUser обновляет данные пользователя
func (s *UserService) UpdateUser(chatID int64, username, firstName, lastName string) (*models.User, error) {
	user, err := s.GetUser(chatID)
	if err != nil {
		return nil, err
	}

	// Обновляем поля (кроме роли)
	if username != "" {
		user.Username = username
	}
	if firstName != "" {
		user.FirstName = firstName
	}
	if lastName != "" {
		user.LastName = lastName
	}

	if err := s.repo.Update(user); err != nil {
		return nil, fmt.Errorf("ошибка обновления пользователя: %w", err)
	}

	return user, nil
}

// DeleteUser удаляет пользователя. Записи дней остаются как история.
func (s *UserService) DeleteUser(chatID int64) error {
	exists, err := s.repo.Exists(chatID)
	if err != nil {
		return fmt.Errorf("ошибка проверки пользователя: %w", err)
	}

	if !exists {
		return ErrUserNotFound
	}

	return s.repo.Delete(chatID)
}

// GetStats возвращает количество пользователей и администраторов
func (s *UserService) GetStats() (int, int, error) {
	return s.repo.GetStats()
}

// FormatAllUsers форматирует список всех пользователей
func (s *UserService) FormatAllUsers() (string, error) {
	users, err := s.repo.GetAll()
	if err != nil {
		return "", err
	}

	if len(users) == 0 {
		return "📭 Список пользователей пуст.", nil
	}

	var lines []string
	lines = append(lines, "📋 Все пользователи:")
	lines = append(lines, "")

	for i, user := range users {
		roleEmoji := "👤"
		if user.IsAdmin() {
			roleEmoji = "👑"
		}

		userInfo := fmt.Sprintf("%d. %s %s", i+1, roleEmoji, user.FullName())
		if user.Username != "" {
			userInfo += fmt.Sprintf(" (@%s)", user.Username)
		}
		userInfo += fmt.Sprintf(" - ID: %d", user.ChatID)
		if !user.IsActive {
			userInfo += " ⛔"
		}
		lines = append(lines, userInfo)
	}

	total, admins, _ := s.GetStats()
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("📊 Всего пользователей: %d", total))
	lines = append(lines, fmt.Sprintf("👑 Администраторов: %d", admins))

	return strings.Join(lines, "\n"), nil
}
