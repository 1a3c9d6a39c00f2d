package models

import (
	"strings"
	"time"
)

// User представляет пользователя CRM-системы
type User struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`

	// Основные поля
	Username string `json:"username" gorm:"uniqueIndex;not null;type:varchar(50)"`
	Email    string `json:"email" gorm:"uniqueIndex;not null;type:varchar(100)"`
	Password string `json:"-" gorm:"not null"` // Пароль хранится только как bcrypt-хеш

	// Флаги доступа. Единственный канонический признак администратора IsAdmin
	IsActive bool `json:"is_active" gorm:"default:true"`
	IsStaff  bool `json:"is_staff" gorm:"default:false"`
	IsAdmin  bool `json:"is_admin" gorm:"default:false"`

	// Профиль
	FirstName      string `json:"first_name" gorm:"type:varchar(50)"`
	LastName       string `json:"last_name" gorm:"type:varchar(50)"`
	Phone          string `json:"phone" gorm:"type:varchar(20)"`
	AlternatePhone string `json:"alternate_phone" gorm:"type:varchar(20)"`
	Address        string `json:"address" gorm:"type:text"`
	Department     string `json:"department" gorm:"type:varchar(100)"`
	UserType       string `json:"user_type" gorm:"type:varchar(30)"` // см. UserTypeChoices

	// Слабые ссылки на других пользователей, разрешаются при чтении.
	// При удалении пользователя ссылки обнуляются, записи не каскадируются
	AssignedToID *uint `json:"assigned_to_id" gorm:"index"`
	CreatedByID  *uint `json:"created_by_id"`
	ModifiedByID *uint `json:"modified_by_id"`
}

// TableName задает имя таблицы для модели User
func (User) TableName() string {
	return "users"
}

// FullName возвращает полное имя пользователя
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
