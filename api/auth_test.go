package api

import (
	"net/http"
	"testing"

	"backend_crm/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLogin тестирует обмен учетных данных на пару токенов
func TestLogin(t *testing.T) {
	router, db, admin, _ := setupTestAPI(t)

	t.Run("Успешный вход", func(t *testing.T) {
		w, response := doRequest(t, router, nil, "POST", "/api/login", map[string]interface{}{
			"username": "admin",
			"password": "password123",
		})

		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, response["access"])
		assert.NotEmpty(t, response["refresh"])
		assert.NotEqual(t, response["access"], response["refresh"])
		assert.Equal(t, true, response["is_admin"])
		assert.Equal(t, true, response["is_active"])
	})

	t.Run("Неверный пароль и неизвестное имя неразличимы", func(t *testing.T) {
		wBadPass, respBadPass := doRequest(t, router, nil, "POST", "/api/login", map[string]interface{}{
			"username": "admin",
			"password": "wrong-password",
		})
		wNoUser, respNoUser := doRequest(t, router, nil, "POST", "/api/login", map[string]interface{}{
			"username": "nobody-here",
			"password": "password123",
		})

		assert.Equal(t, http.StatusUnauthorized, wBadPass.Code)
		assert.Equal(t, http.StatusUnauthorized, wNoUser.Code)
		assert.Equal(t, respBadPass["error"], respNoUser["error"])
	})

	t.Run("Отключенный пользователь получает тот же отказ", func(t *testing.T) {
		require.NoError(t, db.Model(&models.User{}).Where("id = ?", admin.ID).
			Update("is_active", false).Error)
		defer db.Model(&models.User{}).Where("id = ?", admin.ID).Update("is_active", true)

		w, response := doRequest(t, router, nil, "POST", "/api/login", map[string]interface{}{
			"username": "admin",
			"password": "password123",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid credentials", response["error"])
	})
}

// TestRefreshToken тестирует ротацию refresh-токенов
func TestRefreshToken(t *testing.T) {
	router, _, _, _ := setupTestAPI(t)

	_, loginResp := doRequest(t, router, nil, "POST", "/api/login", map[string]interface{}{
		"username": "manager",
		"password": "password123",
	})
	refresh := loginResp["refresh"].(string)

	t.Run("Ротация выдает новую пару", func(t *testing.T) {
		w, response := doRequest(t, router, nil, "POST", "/api/refresh", map[string]interface{}{
			"refresh": refresh,
		})

		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, response["access"])
		assert.NotEmpty(t, response["refresh"])
		assert.NotEqual(t, refresh, response["refresh"])
	})

	t.Run("Повторное использование отозванного токена отклоняется", func(t *testing.T) {
		w, response := doRequest(t, router, nil, "POST", "/api/refresh", map[string]interface{}{
			"refresh": refresh,
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid or expired refresh token", response["error"])
	})

	t.Run("Access-токен не принимается вместо refresh", func(t *testing.T) {
		w, _ := doRequest(t, router, nil, "POST", "/api/refresh", map[string]interface{}{
			"refresh": loginResp["access"].(string),
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Мусор вместо токена отклоняется", func(t *testing.T) {
		w, _ := doRequest(t, router, nil, "POST", "/api/refresh", map[string]interface{}{
			"refresh": "not-a-jwt",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// TestCurrentUser тестирует выдачу профиля текущего пользователя
func TestCurrentUser(t *testing.T) {
	router, _, admin, _ := setupTestAPI(t)

	t.Run("Профиль аутентифицированного пользователя", func(t *testing.T) {
		w, response := doRequest(t, router, admin, "GET", "/api/current-user", nil)

		require.Equal(t, http.StatusOK, w.Code)
		data := dataField(t, response)
		assert.Equal(t, "admin", data["username"])
		assert.Equal(t, true, data["is_admin"])
	})

	t.Run("Без пользователя в контексте ответ 401", func(t *testing.T) {
		w, _ := doRequest(t, router, nil, "GET", "/api/current-user", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
