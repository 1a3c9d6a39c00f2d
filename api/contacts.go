package api

import (
	"net/http"
	"time"

	"backend_crm/middleware"
	"backend_crm/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateContactRequest представляет запрос на создание контактного лица
type CreateContactRequest struct {
	FirstName string `json:"first_name" binding:"required,max=50"`
	LastName  string `json:"last_name" binding:"max=50"`
	Email     string `json:"email" binding:"omitempty,email"`
	Phone     string `json:"phone" binding:"max=20"`
	Mobile    string `json:"mobile" binding:"max=20"`

	AccountID   uint  `json:"account_id" binding:"required,min=1"`
	ReportsToID *uint `json:"reports_to_id" binding:"omitempty,min=1"`

	LeadSource string `json:"lead_source"`

	PrimaryStreet     string `json:"primary_street"`
	PrimaryCity       string `json:"primary_city"`
	PrimaryState      string `json:"primary_state"`
	PrimaryPostalCode string `json:"primary_postal_code"`
	PrimaryCountry    string `json:"primary_country"`

	AlternateStreet     string `json:"alternate_street"`
	AlternateCity       string `json:"alternate_city"`
	AlternateState      string `json:"alternate_state"`
	AlternatePostalCode string `json:"alternate_postal_code"`
	AlternateCountry    string `json:"alternate_country"`

	Description  string `json:"description"`
	AssignedToID *uint  `json:"assigned_to_id" binding:"omitempty,min=1"`
}

// UpdateContactRequest представляет частичное обновление контактного лица
type UpdateContactRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=50"`
	LastName  *string `json:"last_name" binding:"omitempty,max=50"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Phone     *string `json:"phone"`
	Mobile    *string `json:"mobile"`

	AccountID   *uint `json:"account_id" binding:"omitempty,min=1"`
	ReportsToID *uint `json:"reports_to_id" binding:"omitempty,min=1"`

	LeadSource *string `json:"lead_source"`

	PrimaryStreet     *string `json:"primary_street"`
	PrimaryCity       *string `json:"primary_city"`
	PrimaryState      *string `json:"primary_state"`
	PrimaryPostalCode *string `json:"primary_postal_code"`
	PrimaryCountry    *string `json:"primary_country"`

	AlternateStreet     *string `json:"alternate_street"`
	AlternateCity       *string `json:"alternate_city"`
	AlternateState      *string `json:"alternate_state"`
	AlternatePostalCode *string `json:"alternate_postal_code"`
	AlternateCountry    *string `json:"alternate_country"`

	Description  *string `json:"description"`
	AssignedToID *uint   `json:"assigned_to_id" binding:"omitempty,min=1"`
}

// ContactResponse дополняет модель вычисляемыми полями
type ContactResponse struct {
	models.Contact
	AccountName        *string `json:"account_name"`
	AssignedToUsername *string `json:"assigned_to_username"`
	CreatedByUsername  *string `json:"created_by_username"`
	ModifiedByUsername *string `json:"modified_by_username"`
}

func newContactResponse(db *gorm.DB, contact models.Contact) ContactResponse {
	return ContactResponse{
		Contact:            contact,
		AccountName:        accountNameByID(db, &contact.AccountID),
		AssignedToUsername: usernameByID(db, contact.AssignedToID),
		CreatedByUsername:  usernameByID(db, contact.CreatedByID),
		ModifiedByUsername: usernameByID(db, contact.ModifiedByID),
	}
}

// accountExists проверяет существование контрагента
func accountExists(db *gorm.DB, id uint) bool {
	var count int64
	db.Model(&models.Account{}).Where("id = ?", id).Count(&count)
	return count > 0
}

// GetContacts возвращает список контактных лиц
func GetContacts(c *gin.Context) {
	db := getDB(c)
	page, limit, offset := paginationParams(c)

	query := db.Model(&models.Contact{})

	// Фильтр по контрагенту
	if accountID := c.Query("account_id"); accountID != "" {
		query = query.Where("account_id = ?", accountID)
	}

	if search := c.Query("search"); search != "" {
		pattern := "%" + searchPattern(search) + "%"
		query = query.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to count contacts"})
		return
	}

	var contacts []models.Contact
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&contacts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch contacts"})
		return
	}

	responses := make([]ContactResponse, len(contacts))
	for i, contact := range contacts {
		responses[i] = newContactResponse(db, contact)
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   listEnvelope(responses, total, page, limit),
	})
}

// GetContact возвращает данные контактного лица
func GetContact(c *gin.Context) {
	db := getDB(c)

	contactID, ok := parseIDParam(c, "contact")
	if !ok {
		return
	}

	var contact models.Contact
	if err := db.First(&contact, contactID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Contact not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch contact"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   newContactResponse(db, contact),
	})
}

// CreateContact создает новое контактное лицо
func CreateContact(c *gin.Context) {
	db := getDB(c)
	caller := middleware.GetCurrentUser(c)

	var req CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid request data: " + err.Error()})
		return
	}

	if req.LeadSource != "" && !models.LeadSourceChoices.Contains(req.LeadSource) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid lead_source value"})
		return
	}

	// Контрагент обязателен и должен существовать
	if !accountExists(db, req.AccountID) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Account not found"})
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

	now := time.Now().UTC()
	contact := models.Contact{
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Email:               req.Email,
		Phone:               req.Phone,
		Mobile:              req.Mobile,
		AccountID:           req.AccountID,
		ReportsToID:         req.ReportsToID,
		LeadSource:          req.LeadSource,
		PrimaryStreet:       req.PrimaryStreet,
		PrimaryCity:         req.PrimaryCity,
		PrimaryState:        req.PrimaryState,
		PrimaryPostalCode:   req.PrimaryPostalCode,
		PrimaryCountry:      req.PrimaryCountry,
		AlternateStreet:     req.AlternateStreet,
		AlternateCity:       req.AlternateCity,
		AlternateState:      req.AlternateState,
		AlternatePostalCode: req.AlternatePostalCode,
		AlternateCountry:    req.AlternateCountry,
		Description:         req.Description,
		AssignedToID:        req.AssignedToID,
		CreatedByID:         &caller.ID,
		ModifiedByID:        &caller.ID,
		CreatedAt:           now,
		ModifiedAt:          now,
	}

	if err := db.Create(&contact).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to create contact"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   newContactResponse(db, contact),
	})
}

// UpdateContact частично обновляет контактное лицо
func UpdateContact(c *gin.Context) {
	db := getDB(c)
	caller := middleware.GetCurrentUser(c)

	contactID, ok := parseIDParam(c, "contact")
	if !ok {
		return
	}

	var req UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid request data: " + err.Error()})
		return
	}

	var contact models.Contact
	if err := db.First(&contact, contactID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Contact not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch contact"})
		return
	}

	if req.LeadSource != nil && *req.LeadSource != "" && !models.LeadSourceChoices.Contains(*req.LeadSource) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid lead_source value"})
		return
	}

	if req.AccountID != nil && !accountExists(db, *req.AccountID) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Account not found"})
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
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Mobile != nil {
		updates["mobile"] = *req.Mobile
	}
	if req.AccountID != nil {
		updates["account_id"] = *req.AccountID
	}
	if req.ReportsToID != nil {
		updates["reports_to_id"] = *req.ReportsToID
	}
	if req.LeadSource != nil {
		updates["lead_source"] = *req.LeadSource
	}
	if req.PrimaryStreet != nil {
		updates["primary_street"] = *req.PrimaryStreet
	}
	if req.PrimaryCity != nil {
		updates["primary_city"] = *req.PrimaryCity
	}
	if req.PrimaryState != nil {
		updates["primary_state"] = *req.PrimaryState
	}
	if req.PrimaryPostalCode != nil {
		updates["primary_postal_code"] = *req.PrimaryPostalCode
	}
	if req.PrimaryCountry != nil {
		updates["primary_country"] = *req.PrimaryCountry
	}
	if req.AlternateStreet != nil {
		updates["alternate_street"] = *req.AlternateStreet
	}
	if req.AlternateCity != nil {
		updates["alternate_city"] = *req.AlternateCity
	}
	if req.AlternateState != nil {
		updates["alternate_state"] = *req.AlternateState
	}
	if req.AlternatePostalCode != nil {
		updates["alternate_postal_code"] = *req.AlternatePostalCode
	}
	if req.AlternateCountry != nil {
		updates["alternate_country"] = *req.AlternateCountry
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.AssignedToID != nil {
		updates["assigned_to_id"] = *req.AssignedToID
	}

	updates["modified_by_id"] = caller.ID
	updates["modified_at"] = time.Now().UTC()

	if err := db.Model(&contact).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to update contact"})
		return
	}

	if err := db.First(&contact, contact.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to load updated contact"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   newContactResponse(db, contact),
	})
}

// DeleteContact удаляет контактное лицо и обнуляет ссылки из задач
func DeleteContact(c *gin.Context) {
	db := getDB(c)

	contactID, ok := parseIDParam(c, "contact")
	if !ok {
		return
	}

	var contact models.Contact
	if err := db.First(&contact, contactID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Contact not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch contact"})
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Task{}).Where("contact_id = ?", contact.ID).
			Update("contact_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&contact).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to delete contact"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Contact deleted successfully",
	})
}

// GetContactChoices возвращает справочники перечисляемых полей контакта
func GetContactChoices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"lead_source": models.LeadSourceChoices,
		},
	})
}
