package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCreateOpportunity тестирует создание сделки
func TestCreateOpportunity(t *testing.T) {
	router, _, _, user := setupTestAPI(t)

	_, accResp := doRequest(t, router, user, "POST", "/api/accounts", map[string]interface{}{
		"name":           "Deal Holder",
		"assigned_to_id": user.ID,
	})
	accountID := uint(dataField(t, accResp)["id"].(float64))

	t.Run("Стадия и валюта по умолчанию", func(t *testing.T) {
		w, response := doRequest(t, router, user, "POST", "/api/opportunities", map[string]interface{}{
			"name":       "Big Deal",
			"account_id": accountID,
			"amount":     "25000.00",
		})

		require.Equal(t, http.StatusCreated, w.Code)
		data := dataField(t, response)
		assert.Equal(t, "Prospecting", data["sales_stage"])
		assert.Equal(t, "USD", data["currency"])
		assert.Equal(t, "Deal Holder", *strPtr(data["account_name"]))
	})

	t.Run("Сделка без контрагента отклоняется", func(t *testing.T) {
		w, _ := doRequest(t, router, user, "POST", "/api/opportunities", map[string]interface{}{
			"name": "Orphan Deal",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Несуществующий контрагент отклоняется", func(t *testing.T) {
		w, _ := doRequest(t, router, user, "POST", "/api/opportunities", map[string]interface{}{
			"name":       "Ghost Deal",
			"account_id": 99999,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Вероятность за пределами 0-100 отклоняется", func(t *testing.T) {
		w, _ := doRequest(t, router, user, "POST", "/api/opportunities", map[string]interface{}{
			"name":        "Overconfident",
			"account_id":  accountID,
			"probability": 120,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Неизвестная стадия отклоняется", func(t *testing.T) {
		w, _ := doRequest(t, router, user, "POST", "/api/opportunities", map[string]interface{}{
			"name":        "Bad stage",
			"account_id":  accountID,
			"sales_stage": "Wishing",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// TestUpdateOpportunityStage тестирует смену стадии сделки
func TestUpdateOpportunityStage(t *testing.T) {
	router, _, _, user := setupTestAPI(t)

	_, accResp := doRequest(t, router, user, "POST", "/api/accounts", map[string]interface{}{
		"name":           "Pipeline Holder",
		"assigned_to_id": user.ID,
	})
	accountID := uint(dataField(t, accResp)["id"].(float64))

	_, oppResp := doRequest(t, router, user, "POST", "/api/opportunities", map[string]interface{}{
		"name":       "Moving Deal",
		"account_id": accountID,
	})
	oppID := uint(dataField(t, oppResp)["id"].(float64))

	w, response := doRequest(t, router, user, "PUT", fmt.Sprintf("/api/opportunities/%d", oppID), map[string]interface{}{
		"sales_stage": "Closed Won",
		"probability": 100,
	})

	require.Equal(t, http.StatusOK, w.Code)
	data := dataField(t, response)
	assert.Equal(t, "Closed Won", data["sales_stage"])
	assert.Equal(t, float64(100), data["probability"])
	assert.Equal(t, "Moving Deal", data["name"])
}
