package services

import (
	"testing"
	"time"

	"backend_crm/models"
	"backend_crm/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAuditServiceLog тестирует запись и чтение журнала действий
func TestAuditServiceLog(t *testing.T) {
	db := testutils.SetupTestDB(t)
	user := testutils.CreateTestUser(t, db, "audited", false)
	as := NewAuditService(db, nil)

	t.Run("Запись формирует действие из метода и пути", func(t *testing.T) {
		require.NoError(t, as.Log(user.ID, "POST", "/accounts"))

		var entry models.ActivityLog
		require.NoError(t, db.First(&entry).Error)
		assert.Equal(t, "POST request to /accounts", entry.Action)
		assert.Equal(t, user.ID, *entry.UserID)
	})

	t.Run("Выдача ограничена и отсортирована, новые первыми", func(t *testing.T) {
		base := time.Now().UTC().Add(-time.Hour)
		for i := 0; i < 15; i++ {
			entry := models.ActivityLog{
				UserID:    &user.ID,
				Action:    "PUT request to /tasks",
				Method:    "PUT",
				Endpoint:  "/tasks",
				Timestamp: base.Add(time.Duration(i) * time.Minute),
			}
			require.NoError(t, db.Create(&entry).Error)
		}

		logs, err := as.GetUserLogs(user.ID, 0)
		require.NoError(t, err)
		// Лимит по умолчанию
		assert.Len(t, logs, 10)
		for i := 1; i < len(logs); i++ {
			assert.False(t, logs[i].Timestamp.After(logs[i-1].Timestamp))
		}

		logs5, err := as.GetUserLogs(user.ID, 5)
		require.NoError(t, err)
		assert.Len(t, logs5, 5)
	})

	t.Run("Чужие записи не выдаются", func(t *testing.T) {
		other := testutils.CreateTestUser(t, db, "other", false)
		logs, err := as.GetUserLogs(other.ID, 10)
		require.NoError(t, err)
		assert.Empty(t, logs)
	})
}

// TestCleanupOldLogs тестирует очистку журнала по сроку хранения
func TestCleanupOldLogs(t *testing.T) {
	db := testutils.SetupTestDB(t)
	user := testutils.CreateTestUser(t, db, "cleaner", false)
	as := NewAuditService(db, nil)

	old := models.ActivityLog{
		UserID:    &user.ID,
		Action:    "DELETE request to /notes/1",
		Method:    "DELETE",
		Endpoint:  "/notes/1",
		Timestamp: time.Now().UTC().AddDate(0, 0, -90),
	}
	fresh := models.ActivityLog{
		UserID:    &user.ID,
		Action:    "POST request to /notes",
		Method:    "POST",
		Endpoint:  "/notes",
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&fresh).Error)

	removed, err := as.CleanupOldLogs(30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	var remaining int64
	db.Model(&models.ActivityLog{}).Count(&remaining)
	assert.Equal(t, int64(1), remaining)
}
