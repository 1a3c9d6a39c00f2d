package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestChoicesEndpoints тестирует выдачу справочников перечисляемых полей
func TestChoicesEndpoints(t *testing.T) {
	router, _, _, user := setupTestAPI(t)

	// Значение из каждого справочника, которое обязано присутствовать
	cases := []struct {
		path  string
		field string
		value string
	}{
		{"/api/users/choices", "user_type", "Sales Manager"},
		{"/api/accounts/choices", "account_type", "Customer"},
		{"/api/accounts/choices", "industry_type", "Technology"},
		{"/api/leads/choices", "status", "Converted"},
		{"/api/leads/choices", "lead_source", "Website"},
		{"/api/tasks/choices", "status", "Pending Input"},
		{"/api/tasks/choices", "priority", "High"},
	}

	for _, tc := range cases {
		t.Run(tc.path+" "+tc.field, func(t *testing.T) {
			w, response := doRequest(t, router, user, "GET", tc.path, nil)
			require.Equal(t, http.StatusOK, w.Code)

			field := dataField(t, response)[tc.field].([]interface{})
			found := false
			for _, raw := range field {
				choice := raw.(map[string]interface{})
				assert.Contains(t, choice, "value")
				assert.Contains(t, choice, "label")
				if choice["value"] == tc.value {
					found = true
				}
			}
			assert.True(t, found, "choice %q not found in %s.%s", tc.value, tc.path, tc.field)
		})
	}

	t.Run("Принятое значение справочника проходит валидацию", func(t *testing.T) {
		_, response := doRequest(t, router, user, "GET", "/api/leads/choices", nil)
		statuses := dataField(t, response)["status"].([]interface{})

		first := statuses[0].(map[string]interface{})["value"].(string)
		w, _ := doRequest(t, router, user, "POST", "/api/leads", map[string]interface{}{
			"first_name": "Round",
			"status":     first,
		})
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}
