package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCreateContact тестирует создание контактного лица
func TestCreateContact(t *testing.T) {
	router, _, _, user := setupTestAPI(t)

	_, accResp := doRequest(t, router, user, "POST", "/api/accounts", map[string]interface{}{
		"name":           "Employer",
		"assigned_to_id": user.ID,
	})
	accountID := uint(dataField(t, accResp)["id"].(float64))

	t.Run("Контакт привязывается к контрагенту", func(t *testing.T) {
		w, response := doRequest(t, router, user, "POST", "/api/contacts", map[string]interface{}{
			"first_name": "Anna",
			"last_name":  "Petrova",
			"account_id": accountID,
		})

		require.Equal(t, http.StatusCreated, w.Code)
		data := dataField(t, response)
		assert.Equal(t, "Employer", data["account_name"])
		assert.Equal(t, float64(user.ID), data["created_by_id"])
	})

	t.Run("Несуществующий контрагент отклоняется", func(t *testing.T) {
		w, _ := doRequest(t, router, user, "POST", "/api/contacts", map[string]interface{}{
			"first_name": "Ghost",
			"account_id": 99999,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Ссылка на несуществующего лида отклоняется", func(t *testing.T) {
		w, _ := doRequest(t, router, user, "POST", "/api/contacts", map[string]interface{}{
			"first_name":    "Dangling",
			"account_id":    accountID,
			"reports_to_id": 99999,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// TestUpdateContact тестирует частичное обновление контакта
func TestUpdateContact(t *testing.T) {
	router, _, _, user := setupTestAPI(t)

	_, accResp := doRequest(t, router, user, "POST", "/api/accounts", map[string]interface{}{
		"name":           "Updatable Inc",
		"assigned_to_id": user.ID,
	})
	accountID := uint(dataField(t, accResp)["id"].(float64))

	_, contactResp := doRequest(t, router, user, "POST", "/api/contacts", map[string]interface{}{
		"first_name": "Editable",
		"account_id": accountID,
	})
	contactID := uint(dataField(t, contactResp)["id"].(float64))

	_, leadResp := doRequest(t, router, user, "POST", "/api/leads", map[string]interface{}{
		"first_name": "Supervisor",
	})
	leadID := uint(dataField(t, leadResp)["id"].(float64))

	t.Run("Ссылка на существующего лида принимается", func(t *testing.T) {
		w, response := doRequest(t, router, user, "PUT", fmt.Sprintf("/api/contacts/%d", contactID), map[string]interface{}{
			"reports_to_id": leadID,
		})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(leadID), dataField(t, response)["reports_to_id"])
	})

	t.Run("Ссылка на несуществующего лида отклоняется", func(t *testing.T) {
		w, _ := doRequest(t, router, user, "PUT", fmt.Sprintf("/api/contacts/%d", contactID), map[string]interface{}{
			"reports_to_id": 99999,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
