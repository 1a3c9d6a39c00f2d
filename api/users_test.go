package api

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"backend_crm/models"
	"backend_crm/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGetUsers тестирует общий список пользователей
func TestGetUsers(t *testing.T) {
	router, _, _, regular := setupTestAPI(t)

	t.Run("Список доступен обычному пользователю", func(t *testing.T) {
		w, response := doRequest(t, router, regular, "GET", "/api/users", nil)

		require.Equal(t, http.StatusOK, w.Code)
		data := dataField(t, response)
		assert.Equal(t, float64(2), data["total"])

		// Проекция сокращенная: без email и служебных полей
		items := data["items"].([]interface{})
		first := items[0].(map[string]interface{})
		assert.Contains(t, first, "username")
		assert.NotContains(t, first, "email")
		assert.NotContains(t, first, "is_admin")
	})
}

// TestUserAdminGating тестирует разграничение прав на операции с пользователями
func TestUserAdminGating(t *testing.T) {
	router, _, admin, regular := setupTestAPI(t)

	t.Run("Обычному пользователю операции записи запрещены", func(t *testing.T) {
		w, response := doRequest(t, router, regular, "POST", "/api/users", map[string]interface{}{
			"username": "newbie",
			"email":    "newbie@example.com",
			"password": "password123",
		})

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Administrator rights required", response["error"])

		w2, _ := doRequest(t, router, regular, "GET", fmt.Sprintf("/api/users/%d", admin.ID), nil)
		assert.Equal(t, http.StatusForbidden, w2.Code)

		w3, _ := doRequest(t, router, regular, "DELETE", fmt.Sprintf("/api/users/%d", admin.ID), nil)
		assert.Equal(t, http.StatusForbidden, w3.Code)
	})

	t.Run("Администратор создает пользователя", func(t *testing.T) {
		w, response := doRequest(t, router, admin, "POST", "/api/users", map[string]interface{}{
			"username":   "newbie",
			"email":      "newbie@example.com",
			"password":   "password123",
			"first_name": "New",
			"last_name":  "Employee",
			"user_type":  "Sales Representative",
		})

		require.Equal(t, http.StatusCreated, w.Code)
		data := dataField(t, response)
		assert.Equal(t, "newbie", data["username"])
		assert.Equal(t, "New Employee", data["full_name"])
		// Хеш пароля наружу не отдается
		assert.NotContains(t, data, "password")
	})

	t.Run("Дубликат username дает конфликт", func(t *testing.T) {
		w, response := doRequest(t, router, admin, "POST", "/api/users", map[string]interface{}{
			"username": "newbie",
			"email":    "other@example.com",
			"password": "password123",
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, response["error"], "already exists")
	})

	t.Run("Неизвестный user_type отклоняется", func(t *testing.T) {
		w, _ := doRequest(t, router, admin, "POST", "/api/users", map[string]interface{}{
			"username":  "typo",
			"email":     "typo@example.com",
			"password":  "password123",
			"user_type": "Overlord",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// TestDeleteUser тестирует обнуление ссылок при удалении пользователя
func TestDeleteUser(t *testing.T) {
	router, db, admin, _ := setupTestAPI(t)

	victim := testutils.CreateTestUser(t, db, "leaving", false)

	// Записи, созданные и закрепленные за удаляемым пользователем
	_, accResp := doRequest(t, router, victim, "POST", "/api/accounts", map[string]interface{}{
		"name":           "Orphaned Account",
		"assigned_to_id": victim.ID,
	})
	accountID := uint(dataField(t, accResp)["id"].(float64))

	_, leadResp := doRequest(t, router, victim, "POST", "/api/leads", map[string]interface{}{
		"first_name":     "Orphan",
		"assigned_to_id": victim.ID,
	})
	leadID := uint(dataField(t, leadResp)["id"].(float64))

	// Запись журнала, которую удаление должно обезличить
	require.NoError(t, db.Create(&models.ActivityLog{
		UserID:    &victim.ID,
		Action:    "POST request to /accounts",
		Method:    "POST",
		Endpoint:  "/accounts",
		Timestamp: time.Now().UTC(),
	}).Error)

	t.Run("Удаление обнуляет ссылки, записи остаются", func(t *testing.T) {
		w, _ := doRequest(t, router, admin, "DELETE", fmt.Sprintf("/api/users/%d", victim.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var account models.Account
		require.NoError(t, db.First(&account, accountID).Error)
		assert.Nil(t, account.AssignedToID)
		assert.Nil(t, account.CreatedByID)
		assert.Nil(t, account.ModifiedByID)

		var lead models.Lead
		require.NoError(t, db.First(&lead, leadID).Error)
		assert.Nil(t, lead.AssignedToID)

		// Записи журнала обезличены, но сохранены
		var orphanLogs int64
		db.Model(&models.ActivityLog{}).Where("user_id IS NULL").Count(&orphanLogs)
		assert.NotZero(t, orphanLogs)
	})

	t.Run("Разрешение ссылки на удаленного пользователя дает null", func(t *testing.T) {
		w, response := doRequest(t, router, admin, "GET", fmt.Sprintf("/api/accounts/%d", accountID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, dataField(t, response)["assigned_to_username"])
	})

	t.Run("Самоудаление запрещено", func(t *testing.T) {
		w, _ := doRequest(t, router, admin, "DELETE", fmt.Sprintf("/api/users/%d", admin.ID), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
