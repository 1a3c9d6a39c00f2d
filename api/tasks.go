package api

import (
	"net/http"
	"time"

	"backend_crm/middleware"
	"backend_crm/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateTaskRequest представляет запрос на создание задачи
type CreateTaskRequest struct {
	Subject  string `json:"subject" binding:"required,max=200"`
	Status   string `json:"status"`
	Priority string `json:"priority"`

	StartDate *time.Time `json:"start_date"`
	DueDate   *time.Time `json:"due_date"`

	ContactID *uint `json:"contact_id" binding:"omitempty,min=1"`

	ParentType string `json:"parent_type"`
	ParentID   *uint  `json:"parent_id" binding:"omitempty,min=1"`

	Description  string `json:"description"`
	AssignedToID *uint  `json:"assigned_to_id" binding:"omitempty,min=1"`
}

// UpdateTaskRequest представляет частичное обновление задачи
type UpdateTaskRequest struct {
	Subject  *string `json:"subject" binding:"omitempty,max=200"`
	Status   *string `json:"status"`
	Priority *string `json:"priority"`

	StartDate *time.Time `json:"start_date"`
	DueDate   *time.Time `json:"due_date"`

	ContactID *uint `json:"contact_id" binding:"omitempty,min=1"`

	ParentType *string `json:"parent_type"`
	ParentID   *uint   `json:"parent_id" binding:"omitempty,min=1"`

	Description  *string `json:"description"`
	AssignedToID *uint   `json:"assigned_to_id" binding:"omitempty,min=1"`
}

// AddTaskUpdateRequest представляет текстовое обновление по задаче
type AddTaskUpdateRequest struct {
	Text string `json:"text" binding:"required"`
}

// TaskResponse дополняет модель вычисляемыми полями
type TaskResponse struct {
	models.Task
	AssignedToUsername *string `json:"assigned_to_username"`
	CreatedByUsername  *string `json:"created_by_username"`
	ModifiedByUsername *string `json:"modified_by_username"`
}

func newTaskResponse(db *gorm.DB, task models.Task) TaskResponse {
	return TaskResponse{
		Task:               task,
		AssignedToUsername: usernameByID(db, task.AssignedToID),
		CreatedByUsername:  usernameByID(db, task.CreatedByID),
		ModifiedByUsername: usernameByID(db, task.ModifiedByID),
	}
}

// validateTaskEnums проверяет перечисляемые поля задачи по справочникам
func validateTaskEnums(status, priority, parentType string) (string, bool) {
	if status != "" && !models.TaskStatusChoices.Contains(status) {
		return "Invalid status value", false
	}
	if priority != "" && !models.TaskPriorityChoices.Contains(priority) {
		return "Invalid priority value", false
	}
	if parentType != "" && !models.TaskParentChoices.Contains(parentType) {
		return "Invalid parent_type value", false
	}
	return "", true
}

// GetTasks возвращает список задач
func GetTasks(c *gin.Context) {
	db := getDB(c)
	page, limit, offset := paginationParams(c)

	query := db.Model(&models.Task{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	if assignedTo := c.Query("assigned_to_id"); assignedTo != "" {
		query = query.Where("assigned_to_id = ?", assignedTo)
	}

	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(subject) LIKE ?", "%"+searchPattern(search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to count tasks"})
		return
	}

	var tasks []models.Task
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&tasks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch tasks"})
		return
	}

	responses := make([]TaskResponse, len(tasks))
	for i, task := range tasks {
		responses[i] = newTaskResponse(db, task)
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   listEnvelope(responses, total, page, limit),
	})
}

// GetTask возвращает задачу вместе с историей обновлений
func GetTask(c *gin.Context) {
	db := getDB(c)

	taskID, ok := parseIDParam(c, "task")
	if !ok {
		return
	}

	var task models.Task
	if err := db.Preload("Updates", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).First(&task, taskID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   newTaskResponse(db, task),
	})
}

// CreateTask создает новую задачу
func CreateTask(c *gin.Context) {
	db := getDB(c)
	caller := middleware.GetCurrentUser(c)

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid request data: " + err.Error()})
		return
	}

	if msg, ok := validateTaskEnums(req.Status, req.Priority, req.ParentType); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": msg})
		return
	}

	if req.ContactID != nil {
		var count int64
		db.Model(&models.Contact{}).Where("id = ?", *req.ContactID).Count(&count)
		if count == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Contact not found"})
			return
		}
	}

	if req.AssignedToID != nil && !userExists(db, *req.AssignedToID) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Assigned user not found"})
		return
	}

	status := req.Status
	if status == "" {
		status = "Not Started"
	}
	priority := req.Priority
	if priority == "" {
		priority = "Medium"
	}

	now := time.Now().UTC()
	task := models.Task{
		Subject:      req.Subject,
		Status:       status,
		Priority:     priority,
		StartDate:    req.StartDate,
		DueDate:      req.DueDate,
		ContactID:    req.ContactID,
		ParentType:   req.ParentType,
		ParentID:     req.ParentID,
		Description:  req.Description,
		AssignedToID: req.AssignedToID,
		CreatedByID:  &caller.ID,
		ModifiedByID: &caller.ID,
		CreatedAt:    now,
		ModifiedAt:   now,
	}

	if err := db.Create(&task).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to create task"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   newTaskResponse(db, task),
	})
}

// UpdateTask частично обновляет задачу
func UpdateTask(c *gin.Context) {
	db := getDB(c)
	caller := middleware.GetCurrentUser(c)

	taskID, ok := parseIDParam(c, "task")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid request data: " + err.Error()})
		return
	}

	var task models.Task
	if err := db.First(&task, taskID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch task"})
		return
	}

	status := task.Status
	if req.Status != nil {
		status = *req.Status
	}
	priority := task.Priority
	if req.Priority != nil {
		priority = *req.Priority
	}
	parentType := task.ParentType
	if req.ParentType != nil {
		parentType = *req.ParentType
	}
	if msg, ok := validateTaskEnums(status, priority, parentType); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": msg})
		return
	}

	if req.ContactID != nil {
		var count int64
		db.Model(&models.Contact{}).Where("id = ?", *req.ContactID).Count(&count)
		if count == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Contact not found"})
			return
		}
	}

	if req.AssignedToID != nil && !userExists(db, *req.AssignedToID) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Assigned user not found"})
		return
	}

	updates := map[string]interface{}{}
	if req.Subject != nil {
		updates["subject"] = *req.Subject
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.StartDate != nil {
		updates["start_date"] = *req.StartDate
	}
	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	}
	if req.ContactID != nil {
		updates["contact_id"] = *req.ContactID
	}
	if req.ParentType != nil {
		updates["parent_type"] = *req.ParentType
	}
	if req.ParentID != nil {
		updates["parent_id"] = *req.ParentID
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.AssignedToID != nil {
		updates["assigned_to_id"] = *req.AssignedToID
	}

	updates["modified_by_id"] = caller.ID
	updates["modified_at"] = time.Now().UTC()

	if err := db.Model(&task).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to update task"})
		return
	}

	if err := db.First(&task, task.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to load updated task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   newTaskResponse(db, task),
	})
}

// DeleteTask удаляет задачу вместе с историей обновлений
func DeleteTask(c *gin.Context) {
	db := getDB(c)

	taskID, ok := parseIDParam(c, "task")
	if !ok {
		return
	}

	var task models.Task
	if err := db.First(&task, taskID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch task"})
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", task.ID).Delete(&models.TaskUpdate{}).Error; err != nil {
			return err
		}
		return tx.Delete(&task).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to delete task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Task deleted successfully",
	})
}

// AddTaskUpdate добавляет текстовое обновление к задаче.
// Отметка изменения задачи при этом обновляется
func AddTaskUpdate(c *gin.Context) {
	db := getDB(c)
	caller := middleware.GetCurrentUser(c)

	taskID, ok := parseIDParam(c, "task")
	if !ok {
		return
	}

	var req AddTaskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Update text is required"})
		return
	}

	var task models.Task
	if err := db.First(&task, taskID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch task"})
		return
	}

	update := models.TaskUpdate{
		TaskID:      task.ID,
		Text:        req.Text,
		CreatedByID: &caller.ID,
		CreatedAt:   time.Now().UTC(),
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&update).Error; err != nil {
			return err
		}
		return tx.Model(&task).Updates(map[string]interface{}{
			"modified_by_id": caller.ID,
			"modified_at":    time.Now().UTC(),
		}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to add task update"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   update,
	})
}

// GetTaskChoices возвращает справочники перечисляемых полей задачи
func GetTaskChoices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"status":      models.TaskStatusChoices,
			"priority":    models.TaskPriorityChoices,
			"parent_type": models.TaskParentChoices,
		},
	})
}
