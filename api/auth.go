package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"backend_crm/middleware"
	"backend_crm/models"
	"backend_crm/services"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

var tokenService *services.TokenService

// SetTokenService подключает сервис токенов к обработчикам авторизации
func SetTokenService(ts *services.TokenService) {
	tokenService = ts
}

type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=3,max=64"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// Структурированное логирование для авторизации
func logAuthOperation(operation, username string, details map[string]interface{}) {
	logData := map[string]interface{}{
		"timestamp": time.Now().Format(time.RFC3339),
		"operation": operation,
		"username":  username,
	}

	for key, value := range details {
		logData[key] = value
	}

	logJSON, _ := json.Marshal(logData)
	log.Printf("AUTH_LOG: %s", string(logJSON))
}

// Login обменивает логин и пароль на пару access+refresh токенов
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logAuthOperation("login_validation_error", req.Username, map[string]interface{}{
			"status":     "failed",
			"ip_address": c.ClientIP(),
		})
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid username or password"})
		return
	}

	db := getDB(c)

	// Ищем пользователя и сверяем пароль. Неизвестное имя и неверный
	// пароль дают одинаковый ответ, чтобы не раскрывать наличие учетки
	var user models.User
	err := db.Where("username = ?", req.Username).First(&user).Error
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		logAuthOperation("login_failed", req.Username, map[string]interface{}{
			"status":     "failed",
			"ip_address": c.ClientIP(),
		})
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "error": "Invalid credentials"})
		return
	}

	if !user.IsActive {
		logAuthOperation("login_inactive_user", req.Username, map[string]interface{}{
			"status":     "failed",
			"ip_address": c.ClientIP(),
		})
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "error": "Invalid credentials"})
		return
	}

	pair, err := tokenService.IssuePair(user.ID)
	if err != nil {
		logAuthOperation("token_issue_error", req.Username, map[string]interface{}{
			"error":  err.Error(),
			"status": "failed",
		})
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to issue tokens"})
		return
	}

	logAuthOperation("login_success", req.Username, map[string]interface{}{
		"user_id":    user.ID,
		"is_admin":   user.IsAdmin,
		"status":     "success",
		"ip_address": c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{
		"access":    pair.Access,
		"refresh":   pair.Refresh,
		"is_admin":  user.IsAdmin,
		"is_active": user.IsActive,
	})
}

// RefreshToken меняет refresh-токен на новую пару токенов.
// Предъявленный refresh-токен отзывается
func RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Refresh token is required"})
		return
	}

	pair, err := tokenService.Rotate(req.Refresh)
	if err != nil {
		logAuthOperation("refresh_failed", "", map[string]interface{}{
			"status":     "failed",
			"ip_address": c.ClientIP(),
		})
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "error": "Invalid or expired refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access":  pair.Access,
		"refresh": pair.Refresh,
	})
}

// Logout не меняет состояние сервера: клиент сам выбрасывает токены
func Logout(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	if user != nil {
		logAuthOperation("logout", user.Username, map[string]interface{}{
			"user_id": user.ID,
			"status":  "success",
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Logged out successfully. Discard your token on the client.",
	})
}

// CurrentUser возвращает профиль и флаги текущего пользователя
func CurrentUser(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "error": "Authorization header is required"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"id":        user.ID,
			"username":  user.Username,
			"email":     user.Email,
			"full_name": user.FullName(),
			"user_type": user.UserType,
			"is_active": user.IsActive,
			"is_staff":  user.IsStaff,
			"is_admin":  user.IsAdmin,
		},
	})
}
