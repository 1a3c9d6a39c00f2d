package models

import "time"

// Contact представляет контактное лицо, привязанное к контрагенту
type Contact struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`

	// Основные поля
	FirstName string `json:"first_name" gorm:"not null;type:varchar(50)"`
	LastName  string `json:"last_name" gorm:"type:varchar(50)"`
	Email     string `json:"email" gorm:"type:varchar(100)"`
	Phone     string `json:"phone" gorm:"type:varchar(20)"`
	Mobile    string `json:"mobile" gorm:"type:varchar(20)"`

	// Обязательная привязка к контрагенту. Удаляется вместе с ним
	AccountID uint     `json:"account_id" gorm:"not null;index"`
	Account   *Account `json:"-" gorm:"foreignKey:AccountID"`

	// Необязательная привязка к лиду
	ReportsToID *uint `json:"reports_to_id" gorm:"index"`

	LeadSource string `json:"lead_source" gorm:"type:varchar(30)"` // см. LeadSourceChoices

	// Основной адрес
	PrimaryStreet     string `json:"primary_street" gorm:"type:varchar(200)"`
	PrimaryCity       string `json:"primary_city" gorm:"type:varchar(100)"`
	PrimaryState      string `json:"primary_state" gorm:"type:varchar(100)"`
	PrimaryPostalCode string `json:"primary_postal_code" gorm:"type:varchar(20)"`
	PrimaryCountry    string `json:"primary_country" gorm:"type:varchar(100)"`

	// Дополнительный адрес
	AlternateStreet     string `json:"alternate_street" gorm:"type:varchar(200)"`
	AlternateCity       string `json:"alternate_city" gorm:"type:varchar(100)"`
	AlternateState      string `json:"alternate_state" gorm:"type:varchar(100)"`
	AlternatePostalCode string `json:"alternate_postal_code" gorm:"type:varchar(20)"`
	AlternateCountry    string `json:"alternate_country" gorm:"type:varchar(100)"`

	Description string `json:"description" gorm:"type:text"`

	// Ответственный и аудит-поля
	AssignedToID *uint `json:"assigned_to_id" gorm:"index"`
	AssignedTo   *User `json:"-" gorm:"foreignKey:AssignedToID"`
	CreatedByID  *uint `json:"created_by_id"`
	ModifiedByID *uint `json:"modified_by_id"`
}

// TableName задает имя таблицы для модели Contact
func (Contact) TableName() string {
	return "contacts"
}
