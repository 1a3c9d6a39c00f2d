package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote представляет коммерческое предложение
type Quote struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`

	// Уникальный номер, генерируется сервером
	QuoteNumber string `json:"quote_number" gorm:"uniqueIndex;not null;type:varchar(50)"`
	Title       string `json:"title" gorm:"not null;type:varchar(200)"`

	// Необязательные привязки
	OpportunityID *uint        `json:"opportunity_id" gorm:"index"`
	Opportunity   *Opportunity `json:"-" gorm:"foreignKey:OpportunityID"`
	AccountID     *uint        `json:"account_id" gorm:"index"`
	Account       *Account     `json:"-" gorm:"foreignKey:AccountID"`
	ContactID     *uint        `json:"contact_id" gorm:"index"`
	Contact       *Contact     `json:"-" gorm:"foreignKey:ContactID"`

	// Денежная разбивка
	SubTotal    decimal.Decimal `json:"sub_total" gorm:"type:decimal(15,2);default:0"`
	Discount    decimal.Decimal `json:"discount" gorm:"type:decimal(15,2);default:0"`
	Shipping    decimal.Decimal `json:"shipping" gorm:"type:decimal(15,2);default:0"`
	ShippingTax decimal.Decimal `json:"shipping_tax" gorm:"type:decimal(15,2);default:0"`
	Tax         decimal.Decimal `json:"tax" gorm:"type:decimal(15,2);default:0"`
	GrandTotal  decimal.Decimal `json:"grand_total" gorm:"type:decimal(15,2);default:0"`

	// Статусы документа
	ApprovalStatus string `json:"approval_status" gorm:"default:'Not Approved';type:varchar(30)"` // см. ApprovalStatusChoices
	QuoteStage     string `json:"quote_stage" gorm:"default:'Draft';type:varchar(30)"`            // см. QuoteStageChoices
	InvoiceStatus  string `json:"invoice_status" gorm:"default:'Not Invoiced';type:varchar(30)"`  // см. InvoiceStatusChoices
	PaymentTerms   string `json:"payment_terms" gorm:"type:varchar(30)"`                          // см. PaymentTermsChoices

	ValidUntil  *time.Time `json:"valid_until"`
	Description string     `json:"description" gorm:"type:text"`

	// Ответственный и аудит-поля
	AssignedToID *uint `json:"assigned_to_id" gorm:"index"`
	AssignedTo   *User `json:"-" gorm:"foreignKey:AssignedToID"`
	CreatedByID  *uint `json:"created_by_id"`
	ModifiedByID *uint `json:"modified_by_id"`
}

// TableName задает имя таблицы для модели Quote
func (Quote) TableName() string {
	return "quotes"
}

// ComputeGrandTotal рассчитывает итоговую сумму по разбивке
func (q *Quote) ComputeGrandTotal() decimal.Decimal {
	return q.SubTotal.Sub(q.Discount).Add(q.Shipping).Add(q.ShippingTax).Add(q.Tax)
}
