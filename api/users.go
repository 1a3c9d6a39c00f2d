package api

import (
	"net/http"
	"time"

	"backend_crm/middleware"
	"backend_crm/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateUserRequest представляет запрос на создание пользователя
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=128"`

	IsActive *bool `json:"is_active"`
	IsStaff  bool  `json:"is_staff"`
	IsAdmin  bool  `json:"is_admin"`

	FirstName      string `json:"first_name" binding:"max=50"`
	LastName       string `json:"last_name" binding:"max=50"`
	Phone          string `json:"phone" binding:"max=20"`
	AlternatePhone string `json:"alternate_phone" binding:"max=20"`
	Address        string `json:"address"`
	Department     string `json:"department" binding:"max=100"`
	UserType       string `json:"user_type"`

	AssignedToID *uint `json:"assigned_to_id" binding:"omitempty,min=1"`
}

// UpdateUserRequest представляет частичное обновление пользователя
type UpdateUserRequest struct {
	Username *string `json:"username" binding:"omitempty,min=3,max=50"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=8,max=128"`

	IsActive *bool `json:"is_active"`
	IsStaff  *bool `json:"is_staff"`
	IsAdmin  *bool `json:"is_admin"`

	FirstName      *string `json:"first_name" binding:"omitempty,max=50"`
	LastName       *string `json:"last_name" binding:"omitempty,max=50"`
	Phone          *string `json:"phone" binding:"omitempty,max=20"`
	AlternatePhone *string `json:"alternate_phone" binding:"omitempty,max=20"`
	Address        *string `json:"address"`
	Department     *string `json:"department" binding:"omitempty,max=100"`
	UserType       *string `json:"user_type"`

	AssignedToID *uint `json:"assigned_to_id" binding:"omitempty,min=1"`
}

// UserResponse дополняет модель вычисляемыми полями
type UserResponse struct {
	models.User
	FullName string `json:"full_name"`
}

func newUserResponse(user models.User) UserResponse {
	return UserResponse{User: user, FullName: user.FullName()}
}

// UserListItem сокращенная проекция для общего списка пользователей.
// Полный профиль доступен только администраторам
type UserListItem struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	UserType  string `json:"user_type"`
	IsActive  bool   `json:"is_active"`
}

// GetUsers возвращает список пользователей в сокращенной проекции.
// Доступен любому аутентифицированному пользователю для выбора ответственного
func GetUsers(c *gin.Context) {
	db := getDB(c)
	page, limit, offset := paginationParams(c)

	query := db.Model(&models.User{})

	if search := c.Query("search"); search != "" {
		pattern := "%" + searchPattern(search) + "%"
		query = query.Where(
			"LOWER(username) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to count users"})
		return
	}

	var users []models.User
	if err := query.Order("username ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch users"})
		return
	}

	items := make([]UserListItem, len(users))
	for i, u := range users {
		items[i] = UserListItem{
			ID:        u.ID,
			Username:  u.Username,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			UserType:  u.UserType,
			IsActive:  u.IsActive,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   listEnvelope(items, total, page, limit),
	})
}

// GetUser возвращает полный профиль пользователя
func GetUser(c *gin.Context) {
	db := getDB(c)

	userID, ok := parseIDParam(c, "user")
	if !ok {
		return
	}

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   newUserResponse(user),
	})
}

// CreateUser создает нового пользователя
func CreateUser(c *gin.Context) {
	db := getDB(c)
	caller := middleware.GetCurrentUser(c)

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid request data: " + err.Error()})
		return
	}

	if req.UserType != "" && !models.UserTypeChoices.Contains(req.UserType) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid user_type value"})
		return
	}

	if req.AssignedToID != nil && !userExists(db, *req.AssignedToID) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Assigned user not found"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to hash password"})
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	now := time.Now().UTC()
	user := models.User{
		Username:       req.Username,
		Email:          req.Email,
		Password:       string(hash),
		IsActive:       isActive,
		IsStaff:        req.IsStaff,
		IsAdmin:        req.IsAdmin,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		AlternatePhone: req.AlternatePhone,
		Address:        req.Address,
		Department:     req.Department,
		UserType:       req.UserType,
		AssignedToID:   req.AssignedToID,
		CreatedByID:    &caller.ID,
		ModifiedByID:   &caller.ID,
		CreatedAt:      now,
		ModifiedAt:     now,
	}

	if err := db.Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "error": "User with this username or email already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   newUserResponse(user),
	})
}

// UpdateUser частично обновляет пользователя
func UpdateUser(c *gin.Context) {
	db := getDB(c)
	caller := middleware.GetCurrentUser(c)

	userID, ok := parseIDParam(c, "user")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid request data: " + err.Error()})
		return
	}

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch user"})
		return
	}

	if req.UserType != nil && *req.UserType != "" && !models.UserTypeChoices.Contains(*req.UserType) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid user_type value"})
		return
	}

	if req.AssignedToID != nil && !userExists(db, *req.AssignedToID) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Assigned user not found"})
		return
	}

	updates := map[string]interface{}{}
	if req.Username != nil {
		updates["username"] = *req.Username
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to hash password"})
			return
		}
		updates["password"] = string(hash)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.IsStaff != nil {
		updates["is_staff"] = *req.IsStaff
	}
	if req.IsAdmin != nil {
		updates["is_admin"] = *req.IsAdmin
	}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.AlternatePhone != nil {
		updates["alternate_phone"] = *req.AlternatePhone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Department != nil {
		updates["department"] = *req.Department
	}
	if req.UserType != nil {
		updates["user_type"] = *req.UserType
	}
	if req.AssignedToID != nil {
		updates["assigned_to_id"] = *req.AssignedToID
	}

	updates["modified_by_id"] = caller.ID
	updates["modified_at"] = time.Now().UTC()

	if err := db.Model(&user).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "error": "User with this username or email already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to update user"})
		return
	}

	if err := db.First(&user, user.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to load updated user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   newUserResponse(user),
	})
}

// DeleteUser удаляет пользователя и обнуляет все ссылки на него.
// Записи CRM при этом сохраняются
func DeleteUser(c *gin.Context) {
	db := getDB(c)
	caller := middleware.GetCurrentUser(c)

	userID, ok := parseIDParam(c, "user")
	if !ok {
		return
	}

	if caller != nil && caller.ID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Cannot delete your own account"})
		return
	}

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch user"})
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		// Таблицы со ссылками assigned_to_id / created_by_id / modified_by_id
		refTables := []interface{}{
			&models.User{}, &models.Account{}, &models.Contact{}, &models.Lead{},
			&models.Opportunity{}, &models.Task{}, &models.Quote{},
		}
		for _, model := range refTables {
			if err := tx.Model(model).Where("assigned_to_id = ?", user.ID).
				Update("assigned_to_id", nil).Error; err != nil {
				return err
			}
			if err := tx.Model(model).Where("created_by_id = ?", user.ID).
				Update("created_by_id", nil).Error; err != nil {
				return err
			}
			if err := tx.Model(model).Where("modified_by_id = ?", user.ID).
				Update("modified_by_id", nil).Error; err != nil {
				return err
			}
		}

		// У заметок и обновлений задач нет поля ответственного
		if err := tx.Model(&models.Note{}).Where("created_by_id = ?", user.ID).
			Update("created_by_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Note{}).Where("modified_by_id = ?", user.ID).
			Update("modified_by_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.TaskUpdate{}).Where("created_by_id = ?", user.ID).
			Update("created_by_id", nil).Error; err != nil {
			return err
		}

		// Журнал активности остается, авторство обезличивается
		if err := tx.Model(&models.ActivityLog{}).Where("user_id = ?", user.ID).
			Update("user_id", nil).Error; err != nil {
			return err
		}

		return tx.Delete(&user).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to delete user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "User deleted successfully",
	})
}

// GetUserChoices возвращает справочники перечисляемых полей пользователя
func GetUserChoices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"user_type": models.UserTypeChoices,
		},
	})
}
