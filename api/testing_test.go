package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"backend_crm/config"
	"backend_crm/middleware"
	"backend_crm/models"
	"backend_crm/services"
	"backend_crm/testutils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestAPI создает тестовое API с in-memory базой данных.
// Возвращает роутер, базу, администратора и обычного пользователя.
// Текущий пользователь выбирается заголовком X-Test-User-ID
func setupTestAPI(t *testing.T) (*gin.Engine, *gorm.DB, *models.User, *models.User) {
	db := testutils.SetupTestDB(t)

	admin := testutils.CreateTestUser(t, db, "admin", true)
	regular := testutils.CreateTestUser(t, db, "manager", false)

	SetTokenService(services.NewTokenService(config.JWTConfig{
		Secret:           "test-secret-for-crm-backend-tests",
		ExpiresIn:        time.Hour,
		RefreshExpiresIn: 24 * time.Hour,
		Issuer:           "crm-backend",
	}, nil, nil))

	gin.SetMode(gin.TestMode)
	router := gin.New()

	// Подставляем базу и текущего пользователя в контекст
	router.Use(func(c *gin.Context) {
		c.Set("db", db)

		if idHeader := c.GetHeader("X-Test-User-ID"); idHeader != "" {
			if id, err := strconv.ParseUint(idHeader, 10, 32); err == nil {
				var user models.User
				if err := db.First(&user, uint(id)).Error; err == nil {
					c.Set("user", &user)
				}
			}
		}
		c.Next()
	})

	am := middleware.NewAuthMiddleware(nil, db)

	router.POST("/api/login", Login)
	router.POST("/api/refresh", RefreshToken)
	router.GET("/api/current-user", CurrentUser)
	router.GET("/api/dashboard-metrics", GetDashboardMetrics)
	router.GET("/api/activity-logs", GetActivityLogs)

	router.GET("/api/users", GetUsers)
	router.GET("/api/users/choices", GetUserChoices)
	adminGroup := router.Group("/api/users")
	adminGroup.Use(am.RequireAdmin())
	{
		adminGroup.POST("", CreateUser)
		adminGroup.GET("/:id", GetUser)
		adminGroup.PUT("/:id", UpdateUser)
		adminGroup.DELETE("/:id", DeleteUser)
	}

	router.GET("/api/accounts", GetAccounts)
	router.POST("/api/accounts", CreateAccount)
	router.GET("/api/accounts/choices", GetAccountChoices)
	router.GET("/api/accounts/export", ExportAccounts)
	router.GET("/api/accounts/:id", GetAccount)
	router.PUT("/api/accounts/:id", UpdateAccount)
	router.DELETE("/api/accounts/:id", DeleteAccount)

	router.GET("/api/contacts", GetContacts)
	router.POST("/api/contacts", CreateContact)
	router.GET("/api/contacts/:id", GetContact)
	router.PUT("/api/contacts/:id", UpdateContact)
	router.DELETE("/api/contacts/:id", DeleteContact)

	router.GET("/api/leads", GetLeads)
	router.POST("/api/leads", CreateLead)
	router.GET("/api/leads/choices", GetLeadChoices)
	router.GET("/api/leads/export", ExportLeads)
	router.GET("/api/leads/:id", GetLead)
	router.PUT("/api/leads/:id", UpdateLead)
	router.DELETE("/api/leads/:id", DeleteLead)

	router.GET("/api/opportunities", GetOpportunities)
	router.POST("/api/opportunities", CreateOpportunity)
	router.GET("/api/opportunities/:id", GetOpportunity)
	router.PUT("/api/opportunities/:id", UpdateOpportunity)
	router.DELETE("/api/opportunities/:id", DeleteOpportunity)

	router.GET("/api/tasks", GetTasks)
	router.POST("/api/tasks", CreateTask)
	router.GET("/api/tasks/choices", GetTaskChoices)
	router.GET("/api/tasks/:id", GetTask)
	router.PUT("/api/tasks/:id", UpdateTask)
	router.DELETE("/api/tasks/:id", DeleteTask)
	router.POST("/api/tasks/:id/updates", AddTaskUpdate)

	router.GET("/api/quotes", GetQuotes)
	router.POST("/api/quotes", CreateQuote)
	router.GET("/api/quotes/:id", GetQuote)
	router.PUT("/api/quotes/:id", UpdateQuote)
	router.DELETE("/api/quotes/:id", DeleteQuote)
	router.GET("/api/quotes/:id/pdf", GetQuotePDF)

	router.GET("/api/notes", GetNotes)
	router.POST("/api/notes", CreateNote)
	router.GET("/api/notes/:id", GetNote)
	router.PUT("/api/notes/:id", UpdateNote)
	router.DELETE("/api/notes/:id", DeleteNote)

	return router, db, admin, regular
}

// doRequest выполняет запрос от имени пользователя и разбирает JSON-ответ
func doRequest(t *testing.T, router *gin.Engine, user *models.User, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("X-Test-User-ID", strconv.FormatUint(uint64(user.ID), 10))
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	if len(w.Body.Bytes()) > 0 && w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	}

	return w, response
}

// dataField извлекает объект data из конверта ответа
func dataField(t *testing.T, response map[string]interface{}) map[string]interface{} {
	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %v", response)
	return data
}
