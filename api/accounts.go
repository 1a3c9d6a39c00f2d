package api

import (
	"net/http"
	"time"

	"backend_crm/middleware"
	"backend_crm/models"
	"backend_crm/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateAccountRequest представляет запрос на создание контрагента
type CreateAccountRequest struct {
	Name    string `json:"name" binding:"required,max=200"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone" binding:"max=20"`
	Website string `json:"website" binding:"max=200"`

	AccountType  string `json:"account_type"`
	IndustryType string `json:"industry_type"`

	AnnualRevenue *decimal.Decimal `json:"annual_revenue"`
	EmployeeCount *int             `json:"employee_count"`

	BillingStreet     string `json:"billing_street"`
	BillingCity       string `json:"billing_city"`
	BillingState      string `json:"billing_state"`
	BillingPostalCode string `json:"billing_postal_code"`
	BillingCountry    string `json:"billing_country"`

	ShippingStreet     string `json:"shipping_street"`
	ShippingCity       string `json:"shipping_city"`
	ShippingState      string `json:"shipping_state"`
	ShippingPostalCode string `json:"shipping_postal_code"`
	ShippingCountry    string `json:"shipping_country"`

	Description  string `json:"description"`
	AssignedToID uint   `json:"assigned_to_id" binding:"required,min=1"`
}

// UpdateAccountRequest представляет частичное обновление контрагента.
// Меняются только переданные поля
type UpdateAccountRequest struct {
	Name    *string `json:"name" binding:"omitempty,max=200"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Phone   *string `json:"phone"`
	Website *string `json:"website"`

	AccountType  *string `json:"account_type"`
	IndustryType *string `json:"industry_type"`

	AnnualRevenue *decimal.Decimal `json:"annual_revenue"`
	EmployeeCount *int             `json:"employee_count"`

	BillingStreet     *string `json:"billing_street"`
	BillingCity       *string `json:"billing_city"`
	BillingState      *string `json:"billing_state"`
	BillingPostalCode *string `json:"billing_postal_code"`
	BillingCountry    *string `json:"billing_country"`

	ShippingStreet     *string `json:"shipping_street"`
	ShippingCity       *string `json:"shipping_city"`
	ShippingState      *string `json:"shipping_state"`
	ShippingPostalCode *string `json:"shipping_postal_code"`
	ShippingCountry    *string `json:"shipping_country"`

	Description  *string `json:"description"`
	AssignedToID *uint   `json:"assigned_to_id" binding:"omitempty,min=1"`
}

// AccountResponse дополняет модель вычисляемыми полями для отображения
type AccountResponse struct {
	models.Account
	AssignedToUsername *string `json:"assigned_to_username"`
	CreatedByUsername  *string `json:"created_by_username"`
	ModifiedByUsername *string `json:"modified_by_username"`
}

// newAccountResponse собирает ответ, разрешая слабые ссылки при чтении
func newAccountResponse(db *gorm.DB, account models.Account) AccountResponse {
	return AccountResponse{
		Account:            account,
		AssignedToUsername: usernameByID(db, account.AssignedToID),
		CreatedByUsername:  usernameByID(db, account.CreatedByID),
		ModifiedByUsername: usernameByID(db, account.ModifiedByID),
	}
}

// validateAccountEnums проверяет перечисляемые поля по справочникам
func validateAccountEnums(accountType, industryType string) (string, bool) {
	if accountType != "" && !models.AccountTypeChoices.Contains(accountType) {
		return "Invalid account_type value", false
	}
	if industryType != "" && !models.IndustryTypeChoices.Contains(industryType) {
		return "Invalid industry_type value", false
	}
	return "", true
}

// GetAccounts возвращает список контрагентов с фильтрацией и пагинацией
func GetAccounts(c *gin.Context) {
	db := getDB(c)
	page, limit, offset := paginationParams(c)

	query := db.Model(&models.Account{})

	// Фильтр по типу контрагента
	if accountType := c.Query("account_type"); accountType != "" {
		query = query.Where("account_type = ?", accountType)
	}

	// Поиск по названию
	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+searchPattern(search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to count accounts"})
		return
	}

	var accounts []models.Account
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&accounts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch accounts"})
		return
	}

	responses := make([]AccountResponse, len(accounts))
	for i, account := range accounts {
		responses[i] = newAccountResponse(db, account)
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   listEnvelope(responses, total, page, limit),
	})
}

// GetAccount возвращает данные конкретного контрагента
func GetAccount(c *gin.Context) {
	db := getDB(c)

	accountID, ok := parseIDParam(c, "account")
	if !ok {
		return
	}

	var account models.Account
	if err := db.First(&account, accountID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   newAccountResponse(db, account),
	})
}

// CreateAccount создает нового контрагента
func CreateAccount(c *gin.Context) {
	db := getDB(c)
	caller := middleware.GetCurrentUser(c)

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid request data: " + err.Error()})
		return
	}

	if msg, ok := validateAccountEnums(req.AccountType, req.IndustryType); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": msg})
		return
	}

	// Ответственный должен существовать
	if !userExists(db, req.AssignedToID) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Assigned user not found"})
		return
	}

	now := time.Now().UTC()
	account := models.Account{
		Name:               req.Name,
		Email:              req.Email,
		Phone:              req.Phone,
		Website:            req.Website,
		AccountType:        req.AccountType,
		IndustryType:       req.IndustryType,
		BillingStreet:      req.BillingStreet,
		BillingCity:        req.BillingCity,
		BillingState:       req.BillingState,
		BillingPostalCode:  req.BillingPostalCode,
		BillingCountry:     req.BillingCountry,
		ShippingStreet:     req.ShippingStreet,
		ShippingCity:       req.ShippingCity,
		ShippingState:      req.ShippingState,
		ShippingPostalCode: req.ShippingPostalCode,
		ShippingCountry:    req.ShippingCountry,
		Description:        req.Description,
		AssignedToID:       &req.AssignedToID,
		// Аудит-поля всегда проставляются сервером, значения клиента игнорируются
		CreatedByID:  &caller.ID,
		ModifiedByID: &caller.ID,
		CreatedAt:    now,
		ModifiedAt:   now,
	}

	if req.AnnualRevenue != nil {
		account.AnnualRevenue = *req.AnnualRevenue
	}
	if req.EmployeeCount != nil {
		account.EmployeeCount = *req.EmployeeCount
	}

	if err := db.Create(&account).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to create account"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   newAccountResponse(db, account),
	})
}

// UpdateAccount частично обновляет контрагента
func UpdateAccount(c *gin.Context) {
	db := getDB(c)
	caller := middleware.GetCurrentUser(c)

	accountID, ok := parseIDParam(c, "account")
	if !ok {
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid request data: " + err.Error()})
		return
	}

	var account models.Account
	if err := db.First(&account, accountID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch account"})
		return
	}

	accountType := account.AccountType
	if req.AccountType != nil {
		accountType = *req.AccountType
	}
	industryType := account.IndustryType
	if req.IndustryType != nil {
		industryType = *req.IndustryType
	}
	if msg, ok := validateAccountEnums(accountType, industryType); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": msg})
		return
	}

	if req.AssignedToID != nil && !userExists(db, *req.AssignedToID) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Assigned user not found"})
		return
	}

	// Переносим только переданные поля
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Website != nil {
		updates["website"] = *req.Website
	}
	if req.AccountType != nil {
		updates["account_type"] = *req.AccountType
	}
	if req.IndustryType != nil {
		updates["industry_type"] = *req.IndustryType
	}
	if req.AnnualRevenue != nil {
		updates["annual_revenue"] = *req.AnnualRevenue
	}
	if req.EmployeeCount != nil {
		updates["employee_count"] = *req.EmployeeCount
	}
	if req.BillingStreet != nil {
		updates["billing_street"] = *req.BillingStreet
	}
	if req.BillingCity != nil {
		updates["billing_city"] = *req.BillingCity
	}
	if req.BillingState != nil {
		updates["billing_state"] = *req.BillingState
	}
	if req.BillingPostalCode != nil {
		updates["billing_postal_code"] = *req.BillingPostalCode
	}
	if req.BillingCountry != nil {
		updates["billing_country"] = *req.BillingCountry
	}
	if req.ShippingStreet != nil {
		updates["shipping_street"] = *req.ShippingStreet
	}
	if req.ShippingCity != nil {
		updates["shipping_city"] = *req.ShippingCity
	}
	if req.ShippingState != nil {
		updates["shipping_state"] = *req.ShippingState
	}
	if req.ShippingPostalCode != nil {
		updates["shipping_postal_code"] = *req.ShippingPostalCode
	}
	if req.ShippingCountry != nil {
		updates["shipping_country"] = *req.ShippingCountry
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.AssignedToID != nil {
		updates["assigned_to_id"] = *req.AssignedToID
	}

	// Сервер заново проставляет отметки изменения
	updates["modified_by_id"] = caller.ID
	updates["modified_at"] = time.Now().UTC()

	if err := db.Model(&account).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to update account"})
		return
	}

	if err := db.First(&account, account.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to load updated account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   newAccountResponse(db, account),
	})
}

// DeleteAccount удаляет контрагента вместе с его контактами и сделками
func DeleteAccount(c *gin.Context) {
	db := getDB(c)

	accountID, ok := parseIDParam(c, "account")
	if !ok {
		return
	}

	var account models.Account
	if err := db.First(&account, accountID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch account"})
		return
	}

	// Каскад выполняется явно в транзакции, чтобы поведение не зависело
	// от настроек внешних ключей конкретного хранилища
	err := db.Transaction(func(tx *gorm.DB) error {
		// У задач, привязанных к удаляемым контактам, обнуляем ссылку
		var contactIDs []uint
		if err := tx.Model(&models.Contact{}).Where("account_id = ?", account.ID).Pluck("id", &contactIDs).Error; err != nil {
			return err
		}
		if len(contactIDs) > 0 {
			if err := tx.Model(&models.Task{}).Where("contact_id IN ?", contactIDs).
				Update("contact_id", nil).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("account_id = ?", account.ID).Delete(&models.Contact{}).Error; err != nil {
			return err
		}
		if err := tx.Where("account_id = ?", account.ID).Delete(&models.Opportunity{}).Error; err != nil {
			return err
		}
		return tx.Delete(&account).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to delete account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Account deleted successfully",
	})
}

// GetAccountChoices возвращает справочники перечисляемых полей контрагента
func GetAccountChoices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"account_type":  models.AccountTypeChoices,
			"industry_type": models.IndustryTypeChoices,
		},
	})
}

// ExportAccounts выгружает список контрагентов в XLSX
func ExportAccounts(c *gin.Context) {
	db := getDB(c)

	var accounts []models.Account
	if err := db.Order("created_at DESC").Find(&accounts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to fetch accounts"})
		return
	}

	data, err := services.NewExportService(db).AccountsToXLSX(accounts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to generate export"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="accounts.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
