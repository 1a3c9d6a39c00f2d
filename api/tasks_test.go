package api

import (
	"fmt"
	"net/http"
	"testing"

	"backend_crm/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCreateTask тестирует создание задачи
func TestCreateTask(t *testing.T) {
	router, _, _, user := setupTestAPI(t)

	t.Run("Статус и приоритет по умолчанию", func(t *testing.T) {
		w, response := doRequest(t, router, user, "POST", "/api/tasks", map[string]interface{}{
			"subject": "Prepare proposal",
		})

		require.Equal(t, http.StatusCreated, w.Code)
		data := dataField(t, response)
		assert.Equal(t, "Not Started", data["status"])
		assert.Equal(t, "Medium", data["priority"])
	})

	t.Run("Неизвестный статус отклоняется", func(t *testing.T) {
		w, _ := doRequest(t, router, user, "POST", "/api/tasks", map[string]interface{}{
			"subject": "Bad status",
			"status":  "Done",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Привязка к несуществующему контакту отклоняется", func(t *testing.T) {
		w, _ := doRequest(t, router, user, "POST", "/api/tasks", map[string]interface{}{
			"subject":    "Ghost contact",
			"contact_id": 99999,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// TestTaskStatusFilter тестирует фильтрацию задач по статусу
func TestTaskStatusFilter(t *testing.T) {
	router, _, _, user := setupTestAPI(t)

	for i := 0; i < 4; i++ {
		_, _ = doRequest(t, router, user, "POST", "/api/tasks", map[string]interface{}{
			"subject": fmt.Sprintf("Open task %d", i),
		})
	}
	for i := 0; i < 2; i++ {
		_, _ = doRequest(t, router, user, "POST", "/api/tasks", map[string]interface{}{
			"subject": fmt.Sprintf("Done task %d", i),
			"status":  "Completed",
		})
	}

	w, response := doRequest(t, router, user, "GET", "/api/tasks?status=Completed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), dataField(t, response)["total"])
}

// TestAddTaskUpdate тестирует добавление текстовых обновлений к задаче
func TestAddTaskUpdate(t *testing.T) {
	router, db, _, user := setupTestAPI(t)

	_, taskResp := doRequest(t, router, user, "POST", "/api/tasks", map[string]interface{}{
		"subject": "Task with history",
	})
	taskID := uint(dataField(t, taskResp)["id"].(float64))

	t.Run("Обновление добавляется и меняет отметку задачи", func(t *testing.T) {
		var before models.Task
		require.NoError(t, db.First(&before, taskID).Error)

		w, response := doRequest(t, router, user, "POST", fmt.Sprintf("/api/tasks/%d/updates", taskID), map[string]interface{}{
			"text": "Called the customer, waiting for reply",
		})

		require.Equal(t, http.StatusCreated, w.Code)
		data := dataField(t, response)
		assert.Equal(t, "Called the customer, waiting for reply", data["text"])
		assert.Equal(t, float64(user.ID), data["created_by_id"])

		var after models.Task
		require.NoError(t, db.First(&after, taskID).Error)
		assert.False(t, after.ModifiedAt.Before(before.ModifiedAt))
	})

	t.Run("История возвращается вместе с задачей", func(t *testing.T) {
		_, _ = doRequest(t, router, user, "POST", fmt.Sprintf("/api/tasks/%d/updates", taskID), map[string]interface{}{
			"text": "Customer replied",
		})

		w, response := doRequest(t, router, user, "GET", fmt.Sprintf("/api/tasks/%d", taskID), nil)
		require.Equal(t, http.StatusOK, w.Code)

		updates := dataField(t, response)["updates"].([]interface{})
		assert.Len(t, updates, 2)
	})

	t.Run("Пустой текст отклоняется", func(t *testing.T) {
		w, _ := doRequest(t, router, user, "POST", fmt.Sprintf("/api/tasks/%d/updates", taskID), map[string]interface{}{
			"text": "",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Обновление к несуществующей задаче дает 404", func(t *testing.T) {
		w, _ := doRequest(t, router, user, "POST", "/api/tasks/99999/updates", map[string]interface{}{
			"text": "Lost",
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

// TestDeleteTask тестирует удаление задачи вместе с историей
func TestDeleteTask(t *testing.T) {
	router, db, _, user := setupTestAPI(t)

	_, taskResp := doRequest(t, router, user, "POST", "/api/tasks", map[string]interface{}{
		"subject": "Doomed task",
	})
	taskID := uint(dataField(t, taskResp)["id"].(float64))

	_, _ = doRequest(t, router, user, "POST", fmt.Sprintf("/api/tasks/%d/updates", taskID), map[string]interface{}{
		"text": "Some note",
	})

	w, _ := doRequest(t, router, user, "DELETE", fmt.Sprintf("/api/tasks/%d", taskID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var updateCount int64
	db.Model(&models.TaskUpdate{}).Where("task_id = ?", taskID).Count(&updateCount)
	assert.Zero(t, updateCount)
}
