package api

import (
	"net/http"
	"time"

	"backend_crm/middleware"
	"backend_crm/models"
	"backend_crm/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateLeadRequest представляет запрос на создание лида
type CreateLeadRequest struct {
	Title        string `json:"title"`
	FirstName    string `json:"first_name" binding:"required,max=50"`
	LastName     string `json:"last_name" binding:"max=50"`
	Company      string `json:"company" binding:"max=200"`
	EmailAddress string `json:"email_address" binding:"omitempty,email"`
	Mobile       string `json:"mobile" binding:"max=20"`

	Status     string `json:"status"`
	LeadSource string `json:"lead_source"`

	ReportsToID *uint `json:"reports_to_id" binding:"omitempty,min=1"`

	Description  string `json:"description"`
	AssignedToID *uint  `json:"assigned_to_id" binding:"omitempty,min=1"`
}

// UpdateLeadRequest представляет частичное обновление лида
type UpdateLeadRequest struct {
	Title        *string `json:"title"`
	FirstName    *string `json:"first_name" binding:"omitempty,max=50"`
	LastName     *string `json:"last_name" binding:"omitempty,max=50"`
	Company      *string `json:"company" binding:"omitempty,max=200"`
	EmailAddress *string `json:"email_address" binding:"omitempty,email"`
	Mobile       *string `json:"mobile"`

	Status     *string `json:"status"`
	LeadSource *string `json:"lead_source"`

	ReportsToID *uint `json:"reports_to_id" binding:"omitempty,min=1"`

	Description  *string `json:"description"`
	AssignedToID *uint   `json:"assigned_to_id" binding:"omitempty,min=1"`
}

// LeadResponse дополняет модель вычисляемыми полями
type LeadResponse struct {
	models.Lead
	AssignedToUsername *string `json:"assigned_to_username"`
	CreatedByUsername  *string `json:"created_by_username"`
	ModifiedByUsername *string `json:"modified_by_username"`
}

func newLeadResponse(db *gorm.DB, lead models.Lead) LeadResponse {
	return LeadResponse{
		Lead:               lead,
		AssignedToUsername: usernameByID(db, lead.AssignedToID),
		CreatedByUsername:  usernameByID(db, lead.CreatedByID),
		ModifiedByUsername: usernameByID(db, lead.ModifiedByID),
	}
}

// validateLeadEnums проверяет перечисляемые поля лида по справочникам
func validateLeadEnums(title, status, leadSource string) (string, bool) {
	if title != "" && !models.LeadTitleChoices.Contains(title) {
		return "Invalid title value", false
	}
	if status != "" && !models.LeadStatusChoices.Contains(status) {
		return "Invalid status value", false
	}
	if leadSource != "" && !models.LeadSourceChoices.Contains(leadSource) {
		return "Invalid lead_source value", false
	}
	return "", true
}

// GetLeads возвращает список лидов
func GetLeads(c *gin.Context) {
	db := getDB(c)
	page, limit, offset := paginationParams(c)

	query := db.Model(&models.Lead{})

	// Фильтр по статусу воронки
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	if search := c.Query("search"); search != "" {
		pattern := "%" + searchPattern(search) + "%"
		query = query.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(company) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to count leads"})
		return
	}

	var leads []models.Lead
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&leads).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch leads"})
		return
	}

	responses := make([]LeadResponse, len(leads))
	for i, lead := range leads {
		responses[i] = newLeadResponse(db, lead)
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   listEnvelope(responses, total, page, limit),
	})
}

// GetLead возвращает данные лида
func GetLead(c *gin.Context) {
	db := getDB(c)

	leadID, ok := parseIDParam(c, "lead")
	if !ok {
		return
	}

	var lead models.Lead
	if err := db.First(&lead, leadID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Lead not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch lead"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   newLeadResponse(db, lead),
	})
}

// CreateLead создает нового лида
func CreateLead(c *gin.Context) {
	db := getDB(c)
	caller := middleware.GetCurrentUser(c)

	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid request data: " + err.Error()})
		return
	}

	if msg, ok := validateLeadEnums(req.Title, req.Status, req.LeadSource); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": msg})
		return
	}

	if req.ReportsToID != nil && !leadExists(db, *req.ReportsToID) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Reports-to lead not found"})
		return
	}

	if req.AssignedToID != nil && !userExists(db, *req.AssignedToID) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Assigned user not found"})
		return
	}

	status := req.Status
	if status == "" {
		status = "New"
	}

	now := time.Now().UTC()
	lead := models.Lead{
		Title:        req.Title,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Company:      req.Company,
		EmailAddress: req.EmailAddress,
		Mobile:       req.Mobile,
		Status:       status,
		LeadSource:   req.LeadSource,
		ReportsToID:  req.ReportsToID,
		Description:  req.Description,
		AssignedToID: req.AssignedToID,
		CreatedByID:  &caller.ID,
		ModifiedByID: &caller.ID,
		CreatedAt:    now,
		ModifiedAt:   now,
	}

	if err := db.Create(&lead).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to create lead"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   newLeadResponse(db, lead),
	})
}

// UpdateLead частично обновляет лида
func UpdateLead(c *gin.Context) {
	db := getDB(c)
	caller := middleware.GetCurrentUser(c)

	leadID, ok := parseIDParam(c, "lead")
	if !ok {
		return
	}

	var req UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid request data: " + err.Error()})
		return
	}

	var lead models.Lead
	if err := db.First(&lead, leadID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Lead not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch lead"})
		return
	}

	title := lead.Title
	if req.Title != nil {
		title = *req.Title
	}
	status := lead.Status
	if req.Status != nil {
		status = *req.Status
	}
	leadSource := lead.LeadSource
	if req.LeadSource != nil {
		leadSource = *req.LeadSource
	}
	if msg, ok := validateLeadEnums(title, status, leadSource); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": msg})
		return
	}

	if req.ReportsToID != nil && !leadExists(db, *req.ReportsToID) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Reports-to lead not found"})
		return
	}

	if req.AssignedToID != nil && !userExists(db, *req.AssignedToID) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Assigned user not found"})
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Company != nil {
		updates["company"] = *req.Company
	}
	if req.EmailAddress != nil {
		updates["email_address"] = *req.EmailAddress
	}
	if req.Mobile != nil {
		updates["mobile"] = *req.Mobile
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.LeadSource != nil {
		updates["lead_source"] = *req.LeadSource
	}
	if req.ReportsToID != nil {
		updates["reports_to_id"] = *req.ReportsToID
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.AssignedToID != nil {
		updates["assigned_to_id"] = *req.AssignedToID
	}

	updates["modified_by_id"] = caller.ID
	updates["modified_at"] = time.Now().UTC()

	if err := db.Model(&lead).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to update lead"})
		return
	}

	if err := db.First(&lead, lead.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to load updated lead"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   newLeadResponse(db, lead),
	})
}

// DeleteLead удаляет лида и обнуляет ссылки на него
func DeleteLead(c *gin.Context) {
	db := getDB(c)

	leadID, ok := parseIDParam(c, "lead")
	if !ok {
		return
	}

	var lead models.Lead
	if err := db.First(&lead, leadID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Lead not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch lead"})
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Contact{}).Where("reports_to_id = ?", lead.ID).
			Update("reports_to_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Lead{}).Where("reports_to_id = ?", lead.ID).
			Update("reports_to_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&lead).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to delete lead"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Lead deleted successfully",
	})
}

// GetLeadChoices возвращает справочники перечисляемых полей лида
func GetLeadChoices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"title":       models.LeadTitleChoices,
			"status":      models.LeadStatusChoices,
			"lead_source": models.LeadSourceChoices,
		},
	})
}

// ExportLeads выгружает список лидов в XLSX
func ExportLeads(c *gin.Context) {
	db := getDB(c)

	var leads []models.Lead
	if err := db.Order("created_at DESC").Find(&leads).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch leads"})
		return
	}

	data, err := services.NewExportService(db).LeadsToXLSX(leads)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to generate export"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="leads.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
