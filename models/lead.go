package models

import "time"

// Lead представляет потенциального клиента
type Lead struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`

	// Основные поля
	Title        string `json:"title" gorm:"type:varchar(10)"` // см. LeadTitleChoices
	FirstName    string `json:"first_name" gorm:"not null;type:varchar(50)"`
	LastName     string `json:"last_name" gorm:"type:varchar(50)"`
	Company      string `json:"company" gorm:"type:varchar(200)"`
	EmailAddress string `json:"email_address" gorm:"type:varchar(100)"`
	Mobile       string `json:"mobile" gorm:"type:varchar(20)"`

	Status     string `json:"status" gorm:"default:'New';type:varchar(30)"` // см. LeadStatusChoices
	LeadSource string `json:"lead_source" gorm:"type:varchar(30)"`          // см. LeadSourceChoices

	// Необязательная ссылка на другой лид
	ReportsToID *uint `json:"reports_to_id" gorm:"index"`

	Description string `json:"description" gorm:"type:text"`

	// Ответственный и аудит-поля
	AssignedToID *uint `json:"assigned_to_id" gorm:"index"`
	AssignedTo   *User `json:"-" gorm:"foreignKey:AssignedToID"`
	CreatedByID  *uint `json:"created_by_id"`
	ModifiedByID *uint `json:"modified_by_id"`
}

// TableName задает имя таблицы для модели Lead
func (Lead) TableName() string {
	return "leads"
}
