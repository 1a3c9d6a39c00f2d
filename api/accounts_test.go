package api

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"backend_crm/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCreateAccount тестирует создание контрагента
func TestCreateAccount(t *testing.T) {
	router, db, _, user := setupTestAPI(t)

	t.Run("Успешное создание контрагента", func(t *testing.T) {
		w, response := doRequest(t, router, user, "POST", "/api/accounts", map[string]interface{}{
			"name":           "Acme Corporation",
			"email":          "info@acme.example.com",
			"account_type":   "Customer",
			"industry_type":  "Technology",
			"assigned_to_id": user.ID,
		})

		require.Equal(t, http.StatusCreated, w.Code)
		data := dataField(t, response)
		assert.Equal(t, "Acme Corporation", data["name"])
		assert.Equal(t, "Customer", data["account_type"])
		assert.Equal(t, float64(user.ID), data["created_by_id"])
		assert.Equal(t, user.Username, *strPtr(data["assigned_to_username"]))

		// Чтение возвращает те же данные
		id := uint(data["id"].(float64))
		w2, response2 := doRequest(t, router, user, "GET", fmt.Sprintf("/api/accounts/%d", id), nil)
		require.Equal(t, http.StatusOK, w2.Code)
		data2 := dataField(t, response2)
		assert.Equal(t, data["name"], data2["name"])
		assert.Equal(t, data["email"], data2["email"])
	})

	t.Run("Неизвестный тип контрагента отклоняется", func(t *testing.T) {
		w, response := doRequest(t, router, user, "POST", "/api/accounts", map[string]interface{}{
			"name":           "Bad Type LLC",
			"account_type":   "Sponsor",
			"assigned_to_id": user.ID,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "error", response["status"])
	})

	t.Run("Несуществующий ответственный отклоняется", func(t *testing.T) {
		w, _ := doRequest(t, router, user, "POST", "/api/accounts", map[string]interface{}{
			"name":           "Orphan LLC",
			"assigned_to_id": 99999,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Создание без имени отклоняется", func(t *testing.T) {
		w, _ := doRequest(t, router, user, "POST", "/api/accounts", map[string]interface{}{
			"assigned_to_id": user.ID,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var count int64
		db.Model(&models.Account{}).Where("name = ?", "").Count(&count)
		assert.Zero(t, count)
	})
}

// TestUpdateAccount тестирует частичное обновление контрагента
func TestUpdateAccount(t *testing.T) {
	router, db, _, user := setupTestAPI(t)

	_, response := doRequest(t, router, user, "POST", "/api/accounts", map[string]interface{}{
		"name":           "Update Target",
		"email":          "before@example.com",
		"account_type":   "Prospect",
		"assigned_to_id": user.ID,
	})
	accountID := uint(dataField(t, response)["id"].(float64))

	var before models.Account
	require.NoError(t, db.First(&before, accountID).Error)

	t.Run("Меняются только переданные поля", func(t *testing.T) {
		time.Sleep(5 * time.Millisecond)

		w, response := doRequest(t, router, user, "PUT", fmt.Sprintf("/api/accounts/%d", accountID), map[string]interface{}{
			"account_type": "Customer",
		})

		require.Equal(t, http.StatusOK, w.Code)
		data := dataField(t, response)
		assert.Equal(t, "Customer", data["account_type"])
		assert.Equal(t, "Update Target", data["name"])
		assert.Equal(t, "before@example.com", data["email"])

		var after models.Account
		require.NoError(t, db.First(&after, accountID).Error)
		assert.True(t, after.ModifiedAt.After(before.ModifiedAt),
			"modified_at должен строго расти: %v -> %v", before.ModifiedAt, after.ModifiedAt)
		assert.Equal(t, user.ID, *after.ModifiedByID)
	})

	t.Run("Обновление несуществующего контрагента дает 404", func(t *testing.T) {
		w, _ := doRequest(t, router, user, "PUT", "/api/accounts/99999", map[string]interface{}{
			"name": "Ghost",
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

// TestDeleteAccount тестирует каскадное удаление контрагента
func TestDeleteAccount(t *testing.T) {
	router, db, _, user := setupTestAPI(t)

	_, response := doRequest(t, router, user, "POST", "/api/accounts", map[string]interface{}{
		"name":           "Cascade Corp",
		"assigned_to_id": user.ID,
	})
	accountID := uint(dataField(t, response)["id"].(float64))

	_, contactResp := doRequest(t, router, user, "POST", "/api/contacts", map[string]interface{}{
		"first_name": "Ivan",
		"account_id": accountID,
	})
	contactID := uint(dataField(t, contactResp)["id"].(float64))

	_, _ = doRequest(t, router, user, "POST", "/api/opportunities", map[string]interface{}{
		"name":       "Cascade Deal",
		"account_id": accountID,
	})

	// Задача с привязкой к контакту: ссылка должна обнулиться
	_, taskResp := doRequest(t, router, user, "POST", "/api/tasks", map[string]interface{}{
		"subject":    "Call Ivan",
		"contact_id": contactID,
	})
	taskID := uint(dataField(t, taskResp)["id"].(float64))

	t.Run("Удаление забирает контакты и сделки", func(t *testing.T) {
		w, _ := doRequest(t, router, user, "DELETE", fmt.Sprintf("/api/accounts/%d", accountID), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var contactCount, oppCount int64
		db.Model(&models.Contact{}).Where("account_id = ?", accountID).Count(&contactCount)
		db.Model(&models.Opportunity{}).Where("account_id = ?", accountID).Count(&oppCount)
		assert.Zero(t, contactCount)
		assert.Zero(t, oppCount)

		// Задача выживает, но без ссылки на удаленный контакт
		var task models.Task
		require.NoError(t, db.First(&task, taskID).Error)
		assert.Nil(t, task.ContactID)
	})

	t.Run("Повторное удаление дает 404", func(t *testing.T) {
		w, _ := doRequest(t, router, user, "DELETE", fmt.Sprintf("/api/accounts/%d", accountID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

// TestGetAccounts тестирует список с пагинацией и фильтрами
func TestGetAccounts(t *testing.T) {
	router, _, _, user := setupTestAPI(t)

	for i := 0; i < 25; i++ {
		accountType := "Customer"
		if i%2 == 0 {
			accountType = "Partner"
		}
		w, _ := doRequest(t, router, user, "POST", "/api/accounts", map[string]interface{}{
			"name":           fmt.Sprintf("Account %02d", i),
			"account_type":   accountType,
			"assigned_to_id": user.ID,
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	t.Run("Пагинация по умолчанию", func(t *testing.T) {
		w, response := doRequest(t, router, user, "GET", "/api/accounts", nil)
		require.Equal(t, http.StatusOK, w.Code)

		data := dataField(t, response)
		assert.Equal(t, float64(25), data["total"])
		assert.Equal(t, float64(1), data["page"])
		assert.Len(t, data["items"], 20)
		assert.Equal(t, float64(2), data["pages"])
	})

	t.Run("Фильтр по типу", func(t *testing.T) {
		w, response := doRequest(t, router, user, "GET", "/api/accounts?account_type=Partner", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(13), dataField(t, response)["total"])
	})

	t.Run("Поиск по названию", func(t *testing.T) {
		w, response := doRequest(t, router, user, "GET", "/api/accounts?search=account+07", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(1), dataField(t, response)["total"])
	})
}

// TestExportAccounts тестирует выгрузку в XLSX
func TestExportAccounts(t *testing.T) {
	router, _, _, user := setupTestAPI(t)

	_, _ = doRequest(t, router, user, "POST", "/api/accounts", map[string]interface{}{
		"name":           "Export Me",
		"assigned_to_id": user.ID,
	})

	w, _ := doRequest(t, router, user, "GET", "/api/accounts/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "accounts.xlsx")
	assert.NotEmpty(t, w.Body.Bytes())
}

// strPtr приводит значение из JSON-ответа к указателю на строку
func strPtr(v interface{}) *string {
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}
