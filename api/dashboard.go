package api

import (
	"net/http"
	"time"

	"backend_crm/middleware"
	"backend_crm/models"

	"github.com/gin-gonic/gin"
)

// dashboardLead краткая карточка лида для сводки. Контактные поля
// отдаются под именами email и phone
type dashboardLead struct {
	ID         uint      `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Status     string    `json:"status"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	CreatedAt  time.Time `json:"created_at"`
	LeadSource string    `json:"lead_source"`
}

// dashboardTask краткая карточка задачи для сводки
type dashboardTask struct {
	ID         uint       `json:"id"`
	Subject    string     `json:"subject"`
	Date       time.Time  `json:"date"`
	DueDate    *time.Time `json:"due_date"`
	Priority   string     `json:"priority"`
	AssignedTo *string    `json:"assigned_to"`
}

// GetDashboardMetrics возвращает сводку для главного экрана.
// Каждая метрика считается по актуальному состоянию хранилища
func GetDashboardMetrics(c *gin.Context) {
	db := getDB(c)
	caller := middleware.GetCurrentUser(c)

	var customerCount int64
	if err := db.Model(&models.Account{}).
		Where("account_type = ?", "Customer").
		Count(&customerCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to compute dashboard metrics"})
		return
	}

	var dealCount int64
	if err := db.Model(&models.Opportunity{}).Count(&dealCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to compute dashboard metrics"})
		return
	}

	// Свежие лиды показываются только администраторам
	recentLeads := []dashboardLead{}
	if caller != nil && caller.IsAdmin {
		var leads []models.Lead
		if err := db.Order("created_at DESC").Limit(6).Find(&leads).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to compute dashboard metrics"})
			return
		}
		for _, lead := range leads {
			recentLeads = append(recentLeads, dashboardLead{
				ID:         lead.ID,
				FirstName:  lead.FirstName,
				LastName:   lead.LastName,
				Status:     lead.Status,
				Email:      lead.EmailAddress,
				Phone:      lead.Mobile,
				CreatedAt:  lead.CreatedAt,
				LeadSource: lead.LeadSource,
			})
		}
	}

	// Разбивка задач по статусам: счетчики по всем значениям справочника
	// и до трех последних изменений на статус
	taskStats := gin.H{}
	tasksByStatus := gin.H{}
	for _, choice := range models.TaskStatusChoices {
		var count int64
		if err := db.Model(&models.Task{}).Where("status = ?", choice.Value).Count(&count).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to compute dashboard metrics"})
			return
		}
		taskStats[choice.Value] = count

		sample := []dashboardTask{}
		if count > 0 {
			var tasks []models.Task
			if err := db.Where("status = ?", choice.Value).
				Order("modified_at DESC").Limit(3).Find(&tasks).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to compute dashboard metrics"})
				return
			}
			for _, task := range tasks {
				sample = append(sample, dashboardTask{
					ID:         task.ID,
					Subject:    task.Subject,
					Date:       task.ModifiedAt,
					DueDate:    task.DueDate,
					Priority:   task.Priority,
					AssignedTo: usernameByID(db, task.AssignedToID),
				})
			}
		}
		tasksByStatus[choice.Value] = sample
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"customer_count":  customerCount,
			"deal_count":      dealCount,
			"recent_leads":    recentLeads,
			"task_stats":      taskStats,
			"tasks_by_status": tasksByStatus,
		},
	})
}
