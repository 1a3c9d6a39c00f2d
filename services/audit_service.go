package services

import (
	"fmt"
	"log"
	"time"

	"backend_crm/models"

	"gorm.io/gorm"
)

// AuditService записывает и выдает журнал действий пользователей.
// Запись работает по принципу best-effort: сбой журнала никогда
// не влияет на исходный запрос
type AuditService struct {
	db     *gorm.DB
	logger *log.Logger
}

// NewAuditService создает новый сервис аудита
func NewAuditService(db *gorm.DB, logger *log.Logger) *AuditService {
	return &AuditService{
		db:     db,
		logger: logger,
	}
}

// Log добавляет запись в журнал действий
func (as *AuditService) Log(userID uint, method, endpoint string) error {
	entry := &models.ActivityLog{
		UserID:    &userID,
		Action:    fmt.Sprintf("%s request to %s", method, endpoint),
		Method:    method,
		Endpoint:  endpoint,
		Timestamp: time.Now().UTC(),
	}

	if err := as.db.Create(entry).Error; err != nil {
		if as.logger != nil {
			as.logger.Printf("Failed to create activity log: %v", err)
		}
		return err
	}

	return nil
}

// GetUserLogs возвращает записи журнала одного пользователя, новые первыми
func (as *AuditService) GetUserLogs(userID uint, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = 10
	}

	var logs []models.ActivityLog
	err := as.db.Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}

	return logs, nil
}

// CleanupOldLogs удаляет записи старше заданного срока хранения.
// Вызывается оператором вручную, планировщика в системе нет
func (as *AuditService) CleanupOldLogs(retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	result := as.db.Where("timestamp < ?", cutoff).Delete(&models.ActivityLog{})
	if result.Error != nil {
		return 0, result.Error
	}

	if as.logger != nil {
		as.logger.Printf("Cleaned up %d activity logs older than %d days", result.RowsAffected, retentionDays)
	}

	return result.RowsAffected, nil
}
