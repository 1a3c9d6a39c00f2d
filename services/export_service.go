package services

import (
	"fmt"
	"time"

	"backend_crm/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportService формирует табличные выгрузки в формате XLSX
type ExportService struct {
	db *gorm.DB
}

// NewExportService создает новый сервис выгрузки
func NewExportService(db *gorm.DB) *ExportService {
	return &ExportService{db: db}
}

// username разрешает ссылку на пользователя для ячейки выгрузки
func (es *ExportService) username(id *uint) string {
	if id == nil {
		return ""
	}

	var user models.User
	if err := es.db.Select("username").First(&user, *id).Error; err != nil {
		return ""
	}
	return user.Username
}

func formatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

// writeSheet заполняет лист заголовком и строками данных
func writeSheet(f *excelize.File, sheet string, header []string, rows [][]interface{}) error {
	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return err
		}
	}

	for rowIdx, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	return nil
}

// AccountsToXLSX выгружает контрагентов на лист Accounts
func (es *ExportService) AccountsToXLSX(accounts []models.Account) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	header := []string{
		"ID", "Name", "Email", "Phone", "Website", "Account Type",
		"Industry", "Annual Revenue", "Employees", "Assigned To", "Created At",
	}

	rows := make([][]interface{}, len(accounts))
	for i, a := range accounts {
		rows[i] = []interface{}{
			a.ID, a.Name, a.Email, a.Phone, a.Website, a.AccountType,
			a.IndustryType, a.AnnualRevenue.String(), a.EmployeeCount,
			es.username(a.AssignedToID), formatDate(a.CreatedAt),
		}
	}

	if err := writeSheet(f, "Accounts", header, rows); err != nil {
		return nil, fmt.Errorf("failed to build accounts sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LeadsToXLSX выгружает лидов на лист Leads
func (es *ExportService) LeadsToXLSX(leads []models.Lead) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	header := []string{
		"ID", "Title", "First Name", "Last Name", "Company", "Email",
		"Mobile", "Status", "Lead Source", "Assigned To", "Created At",
	}

	rows := make([][]interface{}, len(leads))
	for i, l := range leads {
		rows[i] = []interface{}{
			l.ID, l.Title, l.FirstName, l.LastName, l.Company, l.EmailAddress,
			l.Mobile, l.Status, l.LeadSource,
			es.username(l.AssignedToID), formatDate(l.CreatedAt),
		}
	}

	if err := writeSheet(f, "Leads", header, rows); err != nil {
		return nil, fmt.Errorf("failed to build leads sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
