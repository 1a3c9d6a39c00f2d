package models

import "time"

// Note представляет текстовую заметку, прикрепленную к другой сущности.
// Связь (related_to_type, related_to_id) слабая: тип проверяется по
// справочнику, существование записи по id хранилищем не гарантируется
type Note struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`

	Subject string `json:"subject" gorm:"not null;type:varchar(200)"`
	Body    string `json:"body" gorm:"type:text"`

	RelatedToType string `json:"related_to_type" gorm:"not null;index:idx_notes_related;type:varchar(30)"` // см. RelatedToTypeChoices
	RelatedToID   uint   `json:"related_to_id" gorm:"not null;index:idx_notes_related"`

	// Аудит-поля
	CreatedByID  *uint `json:"created_by_id"`
	ModifiedByID *uint `json:"modified_by_id"`
}

// TableName задает имя таблицы для модели Note
func (Note) TableName() string {
	return "notes"
}
