package models

import "time"

// ActivityLog представляет запись журнала действий пользователя.
// Создается только аудитором запросов, обычные потоки записи
// не изменяют и не удаляют
type ActivityLog struct {
	ID uint `json:"id" gorm:"primarykey"`

	// Обнуляется при удалении пользователя, сама запись сохраняется
	UserID *uint `json:"user_id" gorm:"index"`
	User   *User `json:"-" gorm:"foreignKey:UserID"`

	Action    string    `json:"action" gorm:"not null;type:varchar(300)"`
	Method    string    `json:"method" gorm:"not null;type:varchar(10)"`
	Endpoint  string    `json:"endpoint" gorm:"not null;type:varchar(200)"`
	Timestamp time.Time `json:"timestamp" gorm:"index"`
}

// TableName задает имя таблицы для модели ActivityLog
func (ActivityLog) TableName() string {
	return "activity_logs"
}
