package repository

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"daily-report-bot/internal/logging"
	"daily-report-bot/internal/models"
)

var (
	ErrUserExists   = errors.New("пользователь уже существует")
	ErrUserNotFound = errors.New("пользователь не найден")
)

type UserRepository interface {
	Create(user *models.User) error
	GetByChatID(chatID int64) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	Update(user *models.User) error
	Delete(chatID int64) error
	Exists(chatID int64) (bool, error)
	GetAll() ([]*models.User, error)
	ListActiveIDs(ctx context.Context) ([]uint, error)
	SetActive(chatID int64, active bool) error
	UpdateRole(chatID int64, role models.Role) error
	GetAdmins() ([]*models.User, error)
	GetStats() (int, int, error)
}

type GormUserRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormUserRepository(db *gorm.DB) (*GormUserRepository, error) {
	logger := logging.New()

	// Автомиграция - создает таблицы если их нет
	if err := db.AutoMigrate(&models.User{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate users table")
		return nil, err
	}

	return &GormUserRepository{db: db, logger: logger}, nil
}

func (r *GormUserRepository) Create(user *models.User) error {
	// Проверяем, существует ли уже пользователь
	exists, err := r.Exists(user.ChatID)
	if err != nil {
		return err
	}
	if exists {
		return ErrUserExists
	}

	if err := r.db.Create(user).Error; err != nil {
		r.logger.WithError(err).WithField("chat_id", user.ChatID).Error("Failed to create user")
		return storeError("create user", err)
	}

	r.logger.WithFields(logrus.Fields{
		"id":      user.ID,
		"chat_id": user.ChatID,
	}).Info("User created")
	return nil
}

func (r *GormUserRepository) GetByChatID(chatID int64) (*models.User, error) {
	var user models.User
	result := r.db.Where("chat_id = ?", chatID).First(&user)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		return nil, storeError("get user", result.Error)
	}

	return &user, nil
}

func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	result := r.db.First(&user, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		return nil, storeError("get user", result.Error)
	}

	return &user, nil
}

func (r *GormUserRepository) Update(user *models.User) error {
	// Проверяем существование пользователя
	existing, err := r.GetByChatID(user.ChatID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrUserNotFound
	}

	if err := r.db.Save(user).Error; err != nil {
		return storeError("update user", err)
	}

	return nil
}

func (r *GormUserRepository) Delete(chatID int64) error {
	result := r.db.Where("chat_id = ?", chatID).Delete(&models.User{})

	if result.Error != nil {
		return storeError("delete user", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *GormUserRepository) Exists(chatID int64) (bool, error) {
	var count int64
	result := r.db.Model(&models.User{}).Where("chat_id = ?", chatID).Count(&count)

	if result.Error != nil {
		return false, storeError("check user", result.Error)
	}

	return count > 0, nil
}

func (r *GormUserRepository) GetAll() ([]*models.User, error) {
	var users []*models.User
	result := r.db.Order("id ASC").Find(&users)

	if result.Error != nil {
		return nil, storeError("list users", result.Error)
	}

	return users, nil
}

// ListActiveIDs возвращает идентификаторы активных пользователей для планового переноса
func (r *GormUserRepository) ListActiveIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("is_active = ?", true).
		Order("id ASC").
		Pluck("id", &ids)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to list active users")
		return nil, storeError("list active users", result.Error)
	}

	return ids, nil
}

func (r *GormUserRepository) SetActive(chatID int64, active bool) error {
	result := r.db.Model(&models.User{}).
		Where("chat_id = ?", chatID).
		Update("is_active", active)

	if result.Error != nil {
		return storeError("set user active", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	r.logger.WithFields(logrus.Fields{
		"chat_id": chatID,
		"active":  active,
	}).Info("User activity changed")
	return nil
}

func (r *GormUserRepository) UpdateRole(chatID int64, role models.Role) error {
	result := r.db.Model(&models.User{}).
		Where("chat_id = ?", chatID).
		Update("role", string(role))

	if result.Error != nil {
		return storeError("update role", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *GormUserRepository) GetAdmins() ([]*models.User, error) {
	var admins []*models.User
	result := r.db.Where("role = ?", models.RoleAdmin).Find(&admins)

	if result.Error != nil {
		return nil, storeError("list admins", result.Error)
	}

	return admins, nil
}

func (r *GormUserRepository) GetStats() (int, int, error) {
	var total int64
	var admins int64

	// Получаем общее количество пользователей
	result := r.db.Model(&models.User{}).Count(&total)
	if result.Error != nil {
		return 0, 0, storeError("count users", result.Error)
	}

	// Получаем количество администраторов
	result = r.db.Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&admins)
	if result.Error != nil {
		return 0, 0, storeError("count admins", result.Error)
	}

	return int(total), int(admins), nil
}
