package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDashboardEmpty тестирует сводку на пустом хранилище
func TestDashboardEmpty(t *testing.T) {
	router, _, admin, _ := setupTestAPI(t)

	w, response := doRequest(t, router, admin, "GET", "/api/dashboard-metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := dataField(t, response)
	assert.Equal(t, float64(0), data["customer_count"])
	assert.Equal(t, float64(0), data["deal_count"])
	assert.Empty(t, data["recent_leads"])

	// Счетчики присутствуют для каждого статуса, включая нулевые
	taskStats := data["task_stats"].(map[string]interface{})
	assert.Len(t, taskStats, 5)
	for status, count := range taskStats {
		assert.Equal(t, float64(0), count, "status %s", status)
	}

	byStatus := data["tasks_by_status"].(map[string]interface{})
	for status, sample := range byStatus {
		assert.Empty(t, sample, "status %s", status)
	}
}

// TestDashboardMetrics тестирует расчет метрик по данным
func TestDashboardMetrics(t *testing.T) {
	router, _, admin, user := setupTestAPI(t)

	// В customer_count попадают только клиенты
	_, custResp := doRequest(t, router, user, "POST", "/api/accounts", map[string]interface{}{
		"name":           "Paying Customer",
		"account_type":   "Customer",
		"assigned_to_id": user.ID,
	})
	customerID := uint(dataField(t, custResp)["id"].(float64))

	_, _ = doRequest(t, router, user, "POST", "/api/accounts", map[string]interface{}{
		"name":           "Still a Prospect",
		"account_type":   "Prospect",
		"assigned_to_id": user.ID,
	})

	for i := 0; i < 2; i++ {
		_, _ = doRequest(t, router, user, "POST", "/api/opportunities", map[string]interface{}{
			"name":       fmt.Sprintf("Deal %d", i),
			"account_id": customerID,
		})
	}

	for i := 0; i < 5; i++ {
		_, _ = doRequest(t, router, user, "POST", "/api/tasks", map[string]interface{}{
			"subject":        fmt.Sprintf("Finished %d", i),
			"status":         "Completed",
			"assigned_to_id": user.ID,
		})
	}

	for i := 0; i < 8; i++ {
		_, _ = doRequest(t, router, user, "POST", "/api/leads", map[string]interface{}{
			"first_name":    fmt.Sprintf("Lead%d", i),
			"email_address": fmt.Sprintf("lead%d@example.com", i),
			"mobile":        "+79990000000",
			"description":   "internal notes",
		})
	}

	t.Run("Администратор видит полную сводку", func(t *testing.T) {
		w, response := doRequest(t, router, admin, "GET", "/api/dashboard-metrics", nil)
		require.Equal(t, http.StatusOK, w.Code)

		data := dataField(t, response)
		assert.Equal(t, float64(1), data["customer_count"])
		assert.Equal(t, float64(2), data["deal_count"])

		// Свежих лидов не больше шести
		recentLeads := data["recent_leads"].([]interface{})
		assert.Len(t, recentLeads, 6)

		// Лид отдается сокращенной карточкой: контактные поля
		// переименованы в email и phone, служебные поля не попадают
		leadCard := recentLeads[0].(map[string]interface{})
		assert.Contains(t, leadCard, "status")
		assert.Contains(t, leadCard, "lead_source")
		assert.Contains(t, leadCard, "created_at")
		assert.Equal(t, "+79990000000", leadCard["phone"])
		assert.NotEmpty(t, leadCard["email"])
		assert.NotContains(t, leadCard, "email_address")
		assert.NotContains(t, leadCard, "mobile")
		assert.NotContains(t, leadCard, "description")
		assert.NotContains(t, leadCard, "reports_to_id")
		assert.NotContains(t, leadCard, "assigned_to_id")

		taskStats := data["task_stats"].(map[string]interface{})
		assert.Equal(t, float64(5), taskStats["Completed"])
		assert.Equal(t, float64(0), taskStats["Deferred"])

		// Образец ограничен тремя последними изменениями
		byStatus := data["tasks_by_status"].(map[string]interface{})
		completed := byStatus["Completed"].([]interface{})
		assert.Len(t, completed, 3)

		card := completed[0].(map[string]interface{})
		assert.Contains(t, card, "subject")
		assert.Contains(t, card, "priority")
		assert.Equal(t, user.Username, card["assigned_to"])
	})

	t.Run("Обычный пользователь не видит свежих лидов", func(t *testing.T) {
		w, response := doRequest(t, router, user, "GET", "/api/dashboard-metrics", nil)
		require.Equal(t, http.StatusOK, w.Code)

		data := dataField(t, response)
		assert.Empty(t, data["recent_leads"])
		// Остальные метрики совпадают
		assert.Equal(t, float64(1), data["customer_count"])
		assert.Equal(t, float64(2), data["deal_count"])
	})
}
