package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Opportunity представляет сделку, привязанную к контрагенту
type Opportunity struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`

	// Основные поля
	Name string `json:"name" gorm:"not null;type:varchar(200)"`

	// Обязательная привязка к контрагенту. Удаляется вместе с ним
	AccountID uint     `json:"account_id" gorm:"not null;index"`
	Account   *Account `json:"-" gorm:"foreignKey:AccountID"`

	// Классификация
	SalesStage   string `json:"sales_stage" gorm:"default:'Prospecting';type:varchar(30)"` // см. SalesStageChoices
	BusinessType string `json:"business_type" gorm:"type:varchar(30)"`                     // см. BusinessTypeChoices
	LeadSource   string `json:"lead_source" gorm:"type:varchar(30)"`                       // см. LeadSourceChoices

	// Стоимость хранится как numeric
	Amount   decimal.Decimal `json:"amount" gorm:"type:decimal(15,2);default:0"`
	Currency string          `json:"currency" gorm:"default:'USD';type:varchar(3)"` // см. CurrencyChoices

	Probability       int        `json:"probability" gorm:"default:0"` // Процент 0-100
	ExpectedCloseDate *time.Time `json:"expected_close_date"`

	Description string `json:"description" gorm:"type:text"`

	// Ответственный и аудит-поля
	AssignedToID *uint `json:"assigned_to_id" gorm:"index"`
	AssignedTo   *User `json:"-" gorm:"foreignKey:AssignedToID"`
	CreatedByID  *uint `json:"created_by_id"`
	ModifiedByID *uint `json:"modified_by_id"`
}

// TableName задает имя таблицы для модели Opportunity
func (Opportunity) TableName() string {
	return "opportunities"
}
