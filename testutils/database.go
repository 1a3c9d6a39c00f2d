package testutils

import (
	"testing"

	"backend_crm/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB создает in-memory SQLite базу со всеми моделями
func SetupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Account{},
		&models.Contact{},
		&models.Lead{},
		&models.Opportunity{},
		&models.Task{},
		&models.TaskUpdate{},
		&models.Quote{},
		&models.Note{},
		&models.ActivityLog{},
	)
	require.NoError(t, err)

	return db
}

// CreateTestUser создает пользователя с паролем password123
func CreateTestUser(t *testing.T, db *gorm.DB, username string, isAdmin bool) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
		IsActive: true,
		IsAdmin:  isAdmin,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

// CreateTestAccount создает контрагента с минимальным набором полей
func CreateTestAccount(t *testing.T, db *gorm.DB, name string, assignedTo *models.User) *models.Account {
	account := models.Account{
		Name:        name,
		AccountType: "Customer",
	}
	if assignedTo != nil {
		account.AssignedToID = &assignedTo.ID
		account.CreatedByID = &assignedTo.ID
		account.ModifiedByID = &assignedTo.ID
	}
	require.NoError(t, db.Create(&account).Error)
	return &account
}
