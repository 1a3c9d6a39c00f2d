package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"backend_crm/middleware"
	"backend_crm/models"
	"backend_crm/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateQuoteRequest представляет запрос на создание коммерческого предложения.
// Номер предложения клиентом не передается, его генерирует сервер
type CreateQuoteRequest struct {
	Title string `json:"title" binding:"required,max=200"`

	OpportunityID *uint `json:"opportunity_id" binding:"omitempty,min=1"`
	AccountID     *uint `json:"account_id" binding:"omitempty,min=1"`
	ContactID     *uint `json:"contact_id" binding:"omitempty,min=1"`

	SubTotal    *decimal.Decimal `json:"sub_total"`
	Discount    *decimal.Decimal `json:"discount"`
	Shipping    *decimal.Decimal `json:"shipping"`
	ShippingTax *decimal.Decimal `json:"shipping_tax"`
	Tax         *decimal.Decimal `json:"tax"`

	ApprovalStatus string `json:"approval_status"`
	QuoteStage     string `json:"quote_stage"`
	InvoiceStatus  string `json:"invoice_status"`
	PaymentTerms   string `json:"payment_terms"`

	ValidUntil   *time.Time `json:"valid_until"`
	Description  string     `json:"description"`
	AssignedToID *uint      `json:"assigned_to_id" binding:"omitempty,min=1"`
}

// UpdateQuoteRequest представляет частичное обновление предложения
type UpdateQuoteRequest struct {
	Title *string `json:"title" binding:"omitempty,max=200"`

	OpportunityID *uint `json:"opportunity_id" binding:"omitempty,min=1"`
	AccountID     *uint `json:"account_id" binding:"omitempty,min=1"`
	ContactID     *uint `json:"contact_id" binding:"omitempty,min=1"`

	SubTotal    *decimal.Decimal `json:"sub_total"`
	Discount    *decimal.Decimal `json:"discount"`
	Shipping    *decimal.Decimal `json:"shipping"`
	ShippingTax *decimal.Decimal `json:"shipping_tax"`
	Tax         *decimal.Decimal `json:"tax"`

	ApprovalStatus *string `json:"approval_status"`
	QuoteStage     *string `json:"quote_stage"`
	InvoiceStatus  *string `json:"invoice_status"`
	PaymentTerms   *string `json:"payment_terms"`

	ValidUntil   *time.Time `json:"valid_until"`
	Description  *string    `json:"description"`
	AssignedToID *uint      `json:"assigned_to_id" binding:"omitempty,min=1"`
}

// QuoteResponse дополняет модель вычисляемыми полями
type QuoteResponse struct {
	models.Quote
	AccountName        *string `json:"account_name"`
	AssignedToUsername *string `json:"assigned_to_username"`
	CreatedByUsername  *string `json:"created_by_username"`
	ModifiedByUsername *string `json:"modified_by_username"`
}

func newQuoteResponse(db *gorm.DB, quote models.Quote) QuoteResponse {
	return QuoteResponse{
		Quote:              quote,
		AccountName:        accountNameByID(db, quote.AccountID),
		AssignedToUsername: usernameByID(db, quote.AssignedToID),
		CreatedByUsername:  usernameByID(db, quote.CreatedByID),
		ModifiedByUsername: usernameByID(db, quote.ModifiedByID),
	}
}

// generateQuoteNumber формирует уникальный номер вида QUO-2026-3F2A9B1C
func generateQuoteNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("QUO-%d-%s", time.Now().UTC().Year(), suffix)
}

// validateQuoteEnums проверяет перечисляемые поля предложения по справочникам
func validateQuoteEnums(approvalStatus, quoteStage, invoiceStatus, paymentTerms string) (string, bool) {
	if approvalStatus != "" && !models.ApprovalStatusChoices.Contains(approvalStatus) {
		return "Invalid approval_status value", false
	}
	if quoteStage != "" && !models.QuoteStageChoices.Contains(quoteStage) {
		return "Invalid quote_stage value", false
	}
	if invoiceStatus != "" && !models.InvoiceStatusChoices.Contains(invoiceStatus) {
		return "Invalid invoice_status value", false
	}
	if paymentTerms != "" && !models.PaymentTermsChoices.Contains(paymentTerms) {
		return "Invalid payment_terms value", false
	}
	return "", true
}

// GetQuotes возвращает список коммерческих предложений
func GetQuotes(c *gin.Context) {
	db := getDB(c)
	page, limit, offset := paginationParams(c)

	query := db.Model(&models.Quote{})

	if stage := c.Query("quote_stage"); stage != "" {
		query = query.Where("quote_stage = ?", stage)
	}

	if accountID := c.Query("account_id"); accountID != "" {
		query = query.Where("account_id = ?", accountID)
	}

	if search := c.Query("search"); search != "" {
		pattern := "%" + searchPattern(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(quote_number) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to count quotes"})
		return
	}

	var quotes []models.Quote
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&quotes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch quotes"})
		return
	}

	responses := make([]QuoteResponse, len(quotes))
	for i, quote := range quotes {
		responses[i] = newQuoteResponse(db, quote)
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   listEnvelope(responses, total, page, limit),
	})
}

// GetQuote возвращает данные предложения
func GetQuote(c *gin.Context) {
	db := getDB(c)

	quoteID, ok := parseIDParam(c, "quote")
	if !ok {
		return
	}

	var quote models.Quote
	if err := db.First(&quote, quoteID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Quote not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch quote"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   newQuoteResponse(db, quote),
	})
}

// CreateQuote создает новое коммерческое предложение
func CreateQuote(c *gin.Context) {
	db := getDB(c)
	caller := middleware.GetCurrentUser(c)

	var req CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid request data: " + err.Error()})
		return
	}

	if msg, ok := validateQuoteEnums(req.ApprovalStatus, req.QuoteStage, req.InvoiceStatus, req.PaymentTerms); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": msg})
		return
	}

	if req.OpportunityID != nil && !opportunityExists(db, *req.OpportunityID) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Opportunity not found"})
		return
	}

	if req.AccountID != nil && !accountExists(db, *req.AccountID) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Account not found"})
		return
	}

	if req.ContactID != nil && !contactExists(db, *req.ContactID) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Contact not found"})
		return
	}

	if req.AssignedToID != nil && !userExists(db, *req.AssignedToID) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Assigned user not found"})
		return
	}

	approvalStatus := req.ApprovalStatus
	if approvalStatus == "" {
		approvalStatus = "Not Approved"
	}
	quoteStage := req.QuoteStage
	if quoteStage == "" {
		quoteStage = "Draft"
	}
	invoiceStatus := req.InvoiceStatus
	if invoiceStatus == "" {
		invoiceStatus = "Not Invoiced"
	}

	now := time.Now().UTC()
	quote := models.Quote{
		QuoteNumber:    generateQuoteNumber(),
		Title:          req.Title,
		OpportunityID:  req.OpportunityID,
		AccountID:      req.AccountID,
		ContactID:      req.ContactID,
		ApprovalStatus: approvalStatus,
		QuoteStage:     quoteStage,
		InvoiceStatus:  invoiceStatus,
		PaymentTerms:   req.PaymentTerms,
		ValidUntil:     req.ValidUntil,
		Description:    req.Description,
		AssignedToID:   req.AssignedToID,
		CreatedByID:    &caller.ID,
		ModifiedByID:   &caller.ID,
		CreatedAt:      now,
		ModifiedAt:     now,
	}

	if req.SubTotal != nil {
		quote.SubTotal = *req.SubTotal
	}
	if req.Discount != nil {
		quote.Discount = *req.Discount
	}
	if req.Shipping != nil {
		quote.Shipping = *req.Shipping
	}
	if req.ShippingTax != nil {
		quote.ShippingTax = *req.ShippingTax
	}
	if req.Tax != nil {
		quote.Tax = *req.Tax
	}

	// Итог всегда рассчитывается сервером по разбивке
	quote.GrandTotal = quote.ComputeGrandTotal()

	if err := db.Create(&quote).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "error": "Quote with this number already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to create quote"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   newQuoteResponse(db, quote),
	})
}

// UpdateQuote частично обновляет предложение. Номер изменить нельзя
func UpdateQuote(c *gin.Context) {
	db := getDB(c)
	caller := middleware.GetCurrentUser(c)

	quoteID, ok := parseIDParam(c, "quote")
	if !ok {
		return
	}

	var req UpdateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid request data: " + err.Error()})
		return
	}

	var quote models.Quote
	if err := db.First(&quote, quoteID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Quote not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch quote"})
		return
	}

	approvalStatus := quote.ApprovalStatus
	if req.ApprovalStatus != nil {
		approvalStatus = *req.ApprovalStatus
	}
	quoteStage := quote.QuoteStage
	if req.QuoteStage != nil {
		quoteStage = *req.QuoteStage
	}
	invoiceStatus := quote.InvoiceStatus
	if req.InvoiceStatus != nil {
		invoiceStatus = *req.InvoiceStatus
	}
	paymentTerms := quote.PaymentTerms
	if req.PaymentTerms != nil {
		paymentTerms = *req.PaymentTerms
	}
	if msg, ok := validateQuoteEnums(approvalStatus, quoteStage, invoiceStatus, paymentTerms); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": msg})
		return
	}

	if req.OpportunityID != nil && !opportunityExists(db, *req.OpportunityID) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Opportunity not found"})
		return
	}

	if req.AccountID != nil && !accountExists(db, *req.AccountID) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Account not found"})
		return
	}

	if req.ContactID != nil && !contactExists(db, *req.ContactID) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Contact not found"})
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
	if req.OpportunityID != nil {
		updates["opportunity_id"] = *req.OpportunityID
	}
	if req.AccountID != nil {
		updates["account_id"] = *req.AccountID
	}
	if req.ContactID != nil {
		updates["contact_id"] = *req.ContactID
	}
	if req.ApprovalStatus != nil {
		updates["approval_status"] = *req.ApprovalStatus
	}
	if req.QuoteStage != nil {
		updates["quote_stage"] = *req.QuoteStage
	}
	if req.InvoiceStatus != nil {
		updates["invoice_status"] = *req.InvoiceStatus
	}
	if req.PaymentTerms != nil {
		updates["payment_terms"] = *req.PaymentTerms
	}
	if req.ValidUntil != nil {
		updates["valid_until"] = *req.ValidUntil
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.AssignedToID != nil {
		updates["assigned_to_id"] = *req.AssignedToID
	}

	// Денежная разбивка пересчитывается вместе с итогом
	subTotal := quote.SubTotal
	if req.SubTotal != nil {
		subTotal = *req.SubTotal
		updates["sub_total"] = subTotal
	}
	discount := quote.Discount
	if req.Discount != nil {
		discount = *req.Discount
		updates["discount"] = discount
	}
	shipping := quote.Shipping
	if req.Shipping != nil {
		shipping = *req.Shipping
		updates["shipping"] = shipping
	}
	shippingTax := quote.ShippingTax
	if req.ShippingTax != nil {
		shippingTax = *req.ShippingTax
		updates["shipping_tax"] = shippingTax
	}
	tax := quote.Tax
	if req.Tax != nil {
		tax = *req.Tax
		updates["tax"] = tax
	}
	recomputed := models.Quote{
		SubTotal: subTotal, Discount: discount,
		Shipping: shipping, ShippingTax: shippingTax, Tax: tax,
	}
	updates["grand_total"] = recomputed.ComputeGrandTotal()

	updates["modified_by_id"] = caller.ID
	updates["modified_at"] = time.Now().UTC()

	if err := db.Model(&quote).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to update quote"})
		return
	}

	if err := db.First(&quote, quote.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to load updated quote"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   newQuoteResponse(db, quote),
	})
}

// DeleteQuote удаляет коммерческое предложение
func DeleteQuote(c *gin.Context) {
	db := getDB(c)

	quoteID, ok := parseIDParam(c, "quote")
	if !ok {
		return
	}

	var quote models.Quote
	if err := db.First(&quote, quoteID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Quote not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch quote"})
		return
	}

	if err := db.Delete(&quote).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to delete quote"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Quote deleted successfully",
	})
}

// GetQuoteChoices возвращает справочники перечисляемых полей предложения
func GetQuoteChoices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"approval_status": models.ApprovalStatusChoices,
			"quote_stage":     models.QuoteStageChoices,
			"invoice_status":  models.InvoiceStatusChoices,
			"payment_terms":   models.PaymentTermsChoices,
		},
	})
}

// GetQuotePDF формирует печатную форму предложения
func GetQuotePDF(c *gin.Context) {
	db := getDB(c)

	quoteID, ok := parseIDParam(c, "quote")
	if !ok {
		return
	}

	var quote models.Quote
	if err := db.First(&quote, quoteID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Quote not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch quote"})
		return
	}

	data, err := services.NewQuotePDFService(db).Render(quote)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to generate PDF"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, quote.QuoteNumber))
	c.Data(http.StatusOK, "application/pdf", data)
}
