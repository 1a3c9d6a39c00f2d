package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account представляет организацию-контрагента в системе
type Account struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`

	// Основные поля
	Name    string `json:"name" gorm:"not null;type:varchar(200)"`
	Email   string `json:"email" gorm:"type:varchar(100)"`
	Phone   string `json:"phone" gorm:"type:varchar(20)"`
	Website string `json:"website" gorm:"type:varchar(200)"`

	// Классификация
	AccountType  string `json:"account_type" gorm:"type:varchar(30)"`  // см. AccountTypeChoices
	IndustryType string `json:"industry_type" gorm:"type:varchar(50)"` // см. IndustryTypeChoices

	// Финансовые показатели
	AnnualRevenue decimal.Decimal `json:"annual_revenue" gorm:"type:decimal(15,2);default:0"`
	EmployeeCount int             `json:"employee_count" gorm:"default:0"`

	// Юридический адрес
	BillingStreet     string `json:"billing_street" gorm:"type:varchar(200)"`
	BillingCity       string `json:"billing_city" gorm:"type:varchar(100)"`
	BillingState      string `json:"billing_state" gorm:"type:varchar(100)"`
	BillingPostalCode string `json:"billing_postal_code" gorm:"type:varchar(20)"`
	BillingCountry    string `json:"billing_country" gorm:"type:varchar(100)"`

	// Адрес доставки
	ShippingStreet     string `json:"shipping_street" gorm:"type:varchar(200)"`
	ShippingCity       string `json:"shipping_city" gorm:"type:varchar(100)"`
	ShippingState      string `json:"shipping_state" gorm:"type:varchar(100)"`
	ShippingPostalCode string `json:"shipping_postal_code" gorm:"type:varchar(20)"`
	ShippingCountry    string `json:"shipping_country" gorm:"type:varchar(100)"`

	Description string `json:"description" gorm:"type:text"`

	// Ответственный и аудит-поля
	AssignedToID *uint `json:"assigned_to_id" gorm:"index"`
	AssignedTo   *User `json:"-" gorm:"foreignKey:AssignedToID"`
	CreatedByID  *uint `json:"created_by_id"`
	ModifiedByID *uint `json:"modified_by_id"`
}

// TableName задает имя таблицы для модели Account
func (Account) TableName() string {
	return "accounts"
}
