package middleware

import (
	"strings"

	"backend_crm/services"

	"github.com/gin-gonic/gin"
)

// Пути, запросы к которым не попадают в журнал: сам журнал
// (во избежание зацикливания) и статические справочники
var excludedSuffixes = []string{"/activity-logs", "/choices"}

// ActivityLoggerMiddleware записывает в журнал успешные изменяющие
// запросы аутентифицированных пользователей. Запись выполняется после
// обработчика и никогда не меняет ответ
type ActivityLoggerMiddleware struct {
	audit *services.AuditService
}

// NewActivityLoggerMiddleware создает новый экземпляр ActivityLoggerMiddleware
func NewActivityLoggerMiddleware(audit *services.AuditService) *ActivityLoggerMiddleware {
	return &ActivityLoggerMiddleware{audit: audit}
}

// Handler возвращает middleware журналирования активности
func (alm *ActivityLoggerMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Сначала выполняем обработчик: журналируем только итоговое
		// состояние ответа, строго после фиксации изменения
		c.Next()

		// Неаутентифицированные запросы не журналируются
		user := GetCurrentUser(c)
		if user == nil {
			return
		}

		// Журналируются только изменяющие методы
		method := c.Request.Method
		if method != "POST" && method != "PUT" && method != "DELETE" {
			return
		}

		// Неуспешное изменение не фиксировалось, записи нет
		if c.Writer.Status() >= 400 {
			return
		}

		endpoint := normalizeEndpoint(c.Request.URL.Path)
		if isExcluded(endpoint) {
			return
		}

		// Best-effort: ошибка журнала не доходит до клиента
		_ = alm.audit.Log(user.ID, method, endpoint)
	}
}

// normalizeEndpoint убирает префикс шлюза из пути запроса
func normalizeEndpoint(path string) string {
	endpoint := strings.TrimPrefix(path, "/api")
	if endpoint == "" {
		endpoint = "/"
	}
	return endpoint
}

// isExcluded проверяет, входит ли путь в список исключений
func isExcluded(endpoint string) bool {
	trimmed := strings.TrimSuffix(endpoint, "/")
	for _, suffix := range excludedSuffixes {
		if strings.HasSuffix(trimmed, suffix) {
			return true
		}
	}
	return false
}
