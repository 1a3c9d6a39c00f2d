package api

import (
	"net/http"
	"time"

	"backend_crm/middleware"
	"backend_crm/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateNoteRequest представляет запрос на создание заметки
type CreateNoteRequest struct {
	Subject string `json:"subject" binding:"required,max=200"`
	Body    string `json:"body"`

	RelatedToType string `json:"related_to_type" binding:"required"`
	RelatedToID   uint   `json:"related_to_id" binding:"required,min=1"`
}

// UpdateNoteRequest представляет частичное обновление заметки
type UpdateNoteRequest struct {
	Subject *string `json:"subject" binding:"omitempty,max=200"`
	Body    *string `json:"body"`

	RelatedToType *string `json:"related_to_type"`
	RelatedToID   *uint   `json:"related_to_id" binding:"omitempty,min=1"`
}

// NoteResponse дополняет модель вычисляемыми полями
type NoteResponse struct {
	models.Note
	CreatedByUsername  *string `json:"created_by_username"`
	ModifiedByUsername *string `json:"modified_by_username"`
}

func newNoteResponse(db *gorm.DB, note models.Note) NoteResponse {
	return NoteResponse{
		Note:               note,
		CreatedByUsername:  usernameByID(db, note.CreatedByID),
		ModifiedByUsername: usernameByID(db, note.ModifiedByID),
	}
}

// GetNotes возвращает список заметок.
// Поддерживается фильтр по привязке related_to_type + related_to_id
func GetNotes(c *gin.Context) {
	db := getDB(c)
	page, limit, offset := paginationParams(c)

	query := db.Model(&models.Note{})

	if relatedType := c.Query("related_to_type"); relatedType != "" {
		query = query.Where("related_to_type = ?", relatedType)
	}
	if relatedID := c.Query("related_to_id"); relatedID != "" {
		query = query.Where("related_to_id = ?", relatedID)
	}

	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(subject) LIKE ?", "%"+searchPattern(search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to count notes"})
		return
	}

	var notes []models.Note
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&notes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch notes"})
		return
	}

	responses := make([]NoteResponse, len(notes))
	for i, note := range notes {
		responses[i] = newNoteResponse(db, note)
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   listEnvelope(responses, total, page, limit),
	})
}

// GetNote возвращает данные заметки
func GetNote(c *gin.Context) {
	db := getDB(c)

	noteID, ok := parseIDParam(c, "note")
	if !ok {
		return
	}

	var note models.Note
	if err := db.First(&note, noteID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Note not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch note"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   newNoteResponse(db, note),
	})
}

// CreateNote создает новую заметку.
// Существование записи по related_to_id не проверяется, связь слабая
func CreateNote(c *gin.Context) {
	db := getDB(c)
	caller := middleware.GetCurrentUser(c)

	var req CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid request data: " + err.Error()})
		return
	}

	if !models.RelatedToTypeChoices.Contains(req.RelatedToType) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid related_to_type value"})
		return
	}

	now := time.Now().UTC()
	note := models.Note{
		Subject:       req.Subject,
		Body:          req.Body,
		RelatedToType: req.RelatedToType,
		RelatedToID:   req.RelatedToID,
		CreatedByID:   &caller.ID,
		ModifiedByID:  &caller.ID,
		CreatedAt:     now,
		ModifiedAt:    now,
	}

	if err := db.Create(&note).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to create note"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   newNoteResponse(db, note),
	})
}

// UpdateNote частично обновляет заметку
func UpdateNote(c *gin.Context) {
	db := getDB(c)
	caller := middleware.GetCurrentUser(c)

	noteID, ok := parseIDParam(c, "note")
	if !ok {
		return
	}

	var req UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid request data: " + err.Error()})
		return
	}

	var note models.Note
	if err := db.First(&note, noteID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Note not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch note"})
		return
	}

	if req.RelatedToType != nil && !models.RelatedToTypeChoices.Contains(*req.RelatedToType) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid related_to_type value"})
		return
	}

	updates := map[string]interface{}{}
	if req.Subject != nil {
		updates["subject"] = *req.Subject
	}
	if req.Body != nil {
		updates["body"] = *req.Body
	}
	if req.RelatedToType != nil {
		updates["related_to_type"] = *req.RelatedToType
	}
	if req.RelatedToID != nil {
		updates["related_to_id"] = *req.RelatedToID
	}

	updates["modified_by_id"] = caller.ID
	updates["modified_at"] = time.Now().UTC()

	if err := db.Model(&note).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to update note"})
		return
	}

	if err := db.First(&note, note.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to load updated note"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   newNoteResponse(db, note),
	})
}

// DeleteNote удаляет заметку
func DeleteNote(c *gin.Context) {
	db := getDB(c)

	noteID, ok := parseIDParam(c, "note")
	if !ok {
		return
	}

	var note models.Note
	if err := db.First(&note, noteID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Note not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch note"})
		return
	}

	if err := db.Delete(&note).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to delete note"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Note deleted successfully",
	})
}

// GetNoteChoices возвращает справочники перечисляемых полей заметки
func GetNoteChoices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"related_to_type": models.RelatedToTypeChoices,
		},
	})
}
