package models

import "time"

// Task представляет задачу в системе
type Task struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`

	// Основные поля
	Subject  string `json:"subject" gorm:"not null;type:varchar(200)"`
	Status   string `json:"status" gorm:"default:'Not Started';type:varchar(30)"` // см. TaskStatusChoices
	Priority string `json:"priority" gorm:"default:'Medium';type:varchar(10)"`    // см. TaskPriorityChoices

	StartDate *time.Time `json:"start_date"`
	DueDate   *time.Time `json:"due_date"`

	// Необязательная привязка к контактному лицу
	ContactID *uint    `json:"contact_id" gorm:"index"`
	Contact   *Contact `json:"-" gorm:"foreignKey:ContactID"`

	// Тип родительской сущности, к которой относится задача
	ParentType string `json:"parent_type" gorm:"type:varchar(30)"` // см. TaskParentChoices
	ParentID   *uint  `json:"parent_id"`

	Description string `json:"description" gorm:"type:text"`

	// Ответственный и аудит-поля
	AssignedToID *uint `json:"assigned_to_id" gorm:"index"`
	AssignedTo   *User `json:"-" gorm:"foreignKey:AssignedToID"`
	CreatedByID  *uint `json:"created_by_id"`
	ModifiedByID *uint `json:"modified_by_id"`

	// История обновлений задачи
	Updates []TaskUpdate `json:"updates,omitempty" gorm:"foreignKey:TaskID"`
}

// TableName задает имя таблицы для модели Task
func (Task) TableName() string {
	return "tasks"
}

// TaskUpdate представляет текстовое обновление по задаче
type TaskUpdate struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`

	TaskID      uint   `json:"task_id" gorm:"not null;index"`
	Text        string `json:"text" gorm:"not null;type:text"`
	CreatedByID *uint  `json:"created_by_id"`
}

// TableName задает имя таблицы для модели TaskUpdate
func (TaskUpdate) TableName() string {
	return "task_updates"
}
