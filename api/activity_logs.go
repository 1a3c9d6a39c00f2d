package api

import (
	"net/http"
	"strconv"

	"backend_crm/middleware"
	"backend_crm/services"

	"github.com/gin-gonic/gin"
)

// GetActivityLogs возвращает последние действия текущего пользователя.
// Чужой журнал через этот маршрут недоступен
func GetActivityLogs(c *gin.Context) {
	db := getDB(c)
	caller := middleware.GetCurrentUser(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 100 {
		limit = 10
	}

	logs, err := services.NewAuditService(db, nil).GetUserLogs(caller.ID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch activity logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   logs,
	})
}
