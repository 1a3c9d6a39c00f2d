package api

import (
	"net/http"
	"time"

	"backend_crm/middleware"
	"backend_crm/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateOpportunityRequest представляет запрос на создание сделки
type CreateOpportunityRequest struct {
	Name      string `json:"name" binding:"required,max=200"`
	AccountID uint   `json:"account_id" binding:"required,min=1"`

	SalesStage   string `json:"sales_stage"`
	BusinessType string `json:"business_type"`
	LeadSource   string `json:"lead_source"`

	Amount   *decimal.Decimal `json:"amount"`
	Currency string           `json:"currency"`

	Probability       *int       `json:"probability" binding:"omitempty,min=0,max=100"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`

	Description  string `json:"description"`
	AssignedToID *uint  `json:"assigned_to_id" binding:"omitempty,min=1"`
}

// UpdateOpportunityRequest представляет частичное обновление сделки
type UpdateOpportunityRequest struct {
	Name      *string `json:"name" binding:"omitempty,max=200"`
	AccountID *uint   `json:"account_id" binding:"omitempty,min=1"`

	SalesStage   *string `json:"sales_stage"`
	BusinessType *string `json:"business_type"`
	LeadSource   *string `json:"lead_source"`

	Amount   *decimal.Decimal `json:"amount"`
	Currency *string          `json:"currency"`

	Probability       *int       `json:"probability" binding:"omitempty,min=0,max=100"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`

	Description  *string `json:"description"`
	AssignedToID *uint   `json:"assigned_to_id" binding:"omitempty,min=1"`
}

// OpportunityResponse дополняет модель вычисляемыми полями
type OpportunityResponse struct {
	models.Opportunity
	AccountName        *string `json:"account_name"`
	AssignedToUsername *string `json:"assigned_to_username"`
	CreatedByUsername  *string `json:"created_by_username"`
	ModifiedByUsername *string `json:"modified_by_username"`
}

func newOpportunityResponse(db *gorm.DB, opp models.Opportunity) OpportunityResponse {
	return OpportunityResponse{
		Opportunity:        opp,
		AccountName:        accountNameByID(db, &opp.AccountID),
		AssignedToUsername: usernameByID(db, opp.AssignedToID),
		CreatedByUsername:  usernameByID(db, opp.CreatedByID),
		ModifiedByUsername: usernameByID(db, opp.ModifiedByID),
	}
}

// validateOpportunityEnums проверяет перечисляемые поля сделки по справочникам
func validateOpportunityEnums(salesStage, businessType, leadSource, currency string) (string, bool) {
	if salesStage != "" && !models.SalesStageChoices.Contains(salesStage) {
		return "Invalid sales_stage value", false
	}
	if businessType != "" && !models.BusinessTypeChoices.Contains(businessType) {
		return "Invalid business_type value", false
	}
	if leadSource != "" && !models.LeadSourceChoices.Contains(leadSource) {
		return "Invalid lead_source value", false
	}
	if currency != "" && !models.CurrencyChoices.Contains(currency) {
		return "Invalid currency value", false
	}
	return "", true
}

// GetOpportunities возвращает список сделок
func GetOpportunities(c *gin.Context) {
	db := getDB(c)
	page, limit, offset := paginationParams(c)

	query := db.Model(&models.Opportunity{})

	if accountID := c.Query("account_id"); accountID != "" {
		query = query.Where("account_id = ?", accountID)
	}

	if salesStage := c.Query("sales_stage"); salesStage != "" {
		query = query.Where("sales_stage = ?", salesStage)
	}

	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+searchPattern(search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to count opportunities"})
		return
	}

	var opportunities []models.Opportunity
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&opportunities).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch opportunities"})
		return
	}

	responses := make([]OpportunityResponse, len(opportunities))
	for i, opp := range opportunities {
		responses[i] = newOpportunityResponse(db, opp)
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   listEnvelope(responses, total, page, limit),
	})
}

// GetOpportunity возвращает данные сделки
func GetOpportunity(c *gin.Context) {
	db := getDB(c)

	oppID, ok := parseIDParam(c, "opportunity")
	if !ok {
		return
	}

	var opp models.Opportunity
	if err := db.First(&opp, oppID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Opportunity not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch opportunity"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   newOpportunityResponse(db, opp),
	})
}

// CreateOpportunity создает новую сделку
func CreateOpportunity(c *gin.Context) {
	db := getDB(c)
	caller := middleware.GetCurrentUser(c)

	var req CreateOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid request data: " + err.Error()})
		return
	}

	if msg, ok := validateOpportunityEnums(req.SalesStage, req.BusinessType, req.LeadSource, req.Currency); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": msg})
		return
	}

	if !accountExists(db, req.AccountID) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Account not found"})
		return
	}

	if req.AssignedToID != nil && !userExists(db, *req.AssignedToID) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Assigned user not found"})
		return
	}

	salesStage := req.SalesStage
	if salesStage == "" {
		salesStage = "Prospecting"
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	now := time.Now().UTC()
	opp := models.Opportunity{
		Name:              req.Name,
		AccountID:         req.AccountID,
		SalesStage:        salesStage,
		BusinessType:      req.BusinessType,
		LeadSource:        req.LeadSource,
		Currency:          currency,
		ExpectedCloseDate: req.ExpectedCloseDate,
		Description:       req.Description,
		AssignedToID:      req.AssignedToID,
		CreatedByID:       &caller.ID,
		ModifiedByID:      &caller.ID,
		CreatedAt:         now,
		ModifiedAt:        now,
	}

	if req.Amount != nil {
		opp.Amount = *req.Amount
	}
	if req.Probability != nil {
		opp.Probability = *req.Probability
	}

	if err := db.Create(&opp).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to create opportunity"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   newOpportunityResponse(db, opp),
	})
}

// UpdateOpportunity частично обновляет сделку
func UpdateOpportunity(c *gin.Context) {
	db := getDB(c)
	caller := middleware.GetCurrentUser(c)

	oppID, ok := parseIDParam(c, "opportunity")
	if !ok {
		return
	}

	var req UpdateOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid request data: " + err.Error()})
		return
	}

	var opp models.Opportunity
	if err := db.First(&opp, oppID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Opportunity not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch opportunity"})
		return
	}

	salesStage := opp.SalesStage
	if req.SalesStage != nil {
		salesStage = *req.SalesStage
	}
	businessType := opp.BusinessType
	if req.BusinessType != nil {
		businessType = *req.BusinessType
	}
	leadSource := opp.LeadSource
	if req.LeadSource != nil {
		leadSource = *req.LeadSource
	}
	currency := opp.Currency
	if req.Currency != nil {
		currency = *req.Currency
	}
	if msg, ok := validateOpportunityEnums(salesStage, businessType, leadSource, currency); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": msg})
		return
	}

	if req.AccountID != nil && !accountExists(db, *req.AccountID) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Account not found"})
		return
	}

	if req.AssignedToID != nil && !userExists(db, *req.AssignedToID) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Assigned user not found"})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.AccountID != nil {
		updates["account_id"] = *req.AccountID
	}
	if req.SalesStage != nil {
		updates["sales_stage"] = *req.SalesStage
	}
	if req.BusinessType != nil {
		updates["business_type"] = *req.BusinessType
	}
	if req.LeadSource != nil {
		updates["lead_source"] = *req.LeadSource
	}
	if req.Amount != nil {
		updates["amount"] = *req.Amount
	}
	if req.Currency != nil {
		updates["currency"] = *req.Currency
	}
	if req.Probability != nil {
		updates["probability"] = *req.Probability
	}
	if req.ExpectedCloseDate != nil {
		updates["expected_close_date"] = *req.ExpectedCloseDate
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.AssignedToID != nil {
		updates["assigned_to_id"] = *req.AssignedToID
	}

	updates["modified_by_id"] = caller.ID
	updates["modified_at"] = time.Now().UTC()

	if err := db.Model(&opp).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to update opportunity"})
		return
	}

	if err := db.First(&opp, opp.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to load updated opportunity"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   newOpportunityResponse(db, opp),
	})
}

// DeleteOpportunity удаляет сделку
func DeleteOpportunity(c *gin.Context) {
	db := getDB(c)

	oppID, ok := parseIDParam(c, "opportunity")
	if !ok {
		return
	}

	var opp models.Opportunity
	if err := db.First(&opp, oppID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Opportunity not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch opportunity"})
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		// У привязанных коммерческих предложений обнуляем ссылку
		if err := tx.Model(&models.Quote{}).Where("opportunity_id = ?", opp.ID).
			Update("opportunity_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&opp).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to delete opportunity"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Opportunity deleted successfully",
	})
}

// GetOpportunityChoices возвращает справочники перечисляемых полей сделки
func GetOpportunityChoices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"sales_stage":   models.SalesStageChoices,
			"business_type": models.BusinessTypeChoices,
			"lead_source":   models.LeadSourceChoices,
			"currency":      models.CurrencyChoices,
		},
	})
}
