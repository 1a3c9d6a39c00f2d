package api

import (
	"net/http"
	"strconv"
	"strings"

	"backend_crm/database"
	"backend_crm/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// getDB возвращает подключение к БД из контекста (его подставляют тесты)
// или глобальное подключение приложения
func getDB(c *gin.Context) *gorm.DB {
	if db, exists := c.Get("db"); exists {
		if gdb, ok := db.(*gorm.DB); ok {
			return gdb
		}
	}
	return database.GetDB()
}

// parseIDParam извлекает числовой идентификатор из параметра пути.
// При ошибке пишет ответ 400 и возвращает false
func parseIDParam(c *gin.Context, entityName string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Invalid " + entityName + " ID",
		})
		return 0, false
	}
	return uint(id), true
}

// paginationParams читает параметры пагинации page/limit из запроса
func paginationParams(c *gin.Context) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset = (page - 1) * limit
	return page, limit, offset
}

// listEnvelope формирует стандартный конверт для списков с пагинацией
func listEnvelope(items interface{}, total int64, page, limit int) gin.H {
	return gin.H{
		"items": items,
		"total": total,
		"page":  page,
		"limit": limit,
		"pages": (total + int64(limit) - 1) / int64(limit),
	}
}

// searchPattern нормализует строку поиска для LIKE-сравнения
func searchPattern(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// isUniqueViolation распознает нарушение уникальности по тексту ошибки драйвера.
// Тексты различаются: postgres пишет duplicate key, sqlite UNIQUE constraint.
// Прочие нарушения ограничений (NOT NULL, CHECK, FOREIGN KEY) сюда не попадают
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}

// usernameByID разрешает слабую ссылку на пользователя в его username.
// Возвращает nil, если ссылка пустая или пользователь удален
func usernameByID(db *gorm.DB, id *uint) *string {
	if id == nil {
		return nil
	}

	var user models.User
	if err := db.Select("username").First(&user, *id).Error; err != nil {
		return nil
	}
	return &user.Username
}

// accountNameByID разрешает ссылку на контрагента в его название
func accountNameByID(db *gorm.DB, id *uint) *string {
	if id == nil {
		return nil
	}

	var account models.Account
	if err := db.Select("name").First(&account, *id).Error; err != nil {
		return nil
	}
	return &account.Name
}

// userExists проверяет существование пользователя по идентификатору
func userExists(db *gorm.DB, id uint) bool {
	var count int64
	db.Model(&models.User{}).Where("id = ?", id).Count(&count)
	return count > 0
}

// leadExists проверяет существование лида
func leadExists(db *gorm.DB, id uint) bool {
	var count int64
	db.Model(&models.Lead{}).Where("id = ?", id).Count(&count)
	return count > 0
}

// contactExists проверяет существование контактного лица
func contactExists(db *gorm.DB, id uint) bool {
	var count int64
	db.Model(&models.Contact{}).Where("id = ?", id).Count(&count)
	return count > 0
}

// opportunityExists проверяет существование сделки
func opportunityExists(db *gorm.DB, id uint) bool {
	var count int64
	db.Model(&models.Opportunity{}).Where("id = ?", id).Count(&count)
	return count > 0
}
