package models

import "strings"

type Role string

const (
	RoleClient string = "client"
	RoleAdmin  string = "admin"
)

type User struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
	ChatID    int64  `gorm:"uniqueIndex;not null" json:"chat_id"`
	Username  string `json:"username"`
	FirstName string `gorm:"not null" json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `gorm:"default:'client'" json:"role"`
	// Неактивные пользователи пропускаются плановым переносом задач
	IsActive bool `gorm:"not null;default:true;index" json:"is_active"`
}

// IsAdmin проверяет, является ли пользователь администратором
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// SetRole устанавливает роль
func (u *User) SetRole(role Role) {
	u.Role = string(role)
}

// FullName возвращает имя и фамилию
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// TableName задает имя таблицы в БД
func (User) TableName() string {
	return "users"
}
