package services

import (
	"bytes"
	"fmt"

	"backend_crm/models"

	"github.com/jung-kurt/gofpdf"
	"gorm.io/gorm"
)

// QuotePDFService формирует печатную форму коммерческого предложения
type QuotePDFService struct {
	db *gorm.DB
}

// NewQuotePDFService создает новый сервис печатных форм
func NewQuotePDFService(db *gorm.DB) *QuotePDFService {
	return &QuotePDFService{db: db}
}

// Render собирает одностраничный PDF по данным предложения
func (qs *QuotePDFService) Render(quote models.Quote) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(quote.QuoteNumber, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 12, "Quote "+quote.QuoteNumber)
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, quote.Title)
	pdf.Ln(10)

	if quote.AccountID != nil {
		var account models.Account
		if err := qs.db.Select("name").First(&account, *quote.AccountID).Error; err == nil {
			pdf.Cell(0, 8, "Account: "+account.Name)
			pdf.Ln(8)
		}
	}

	pdf.Cell(0, 8, "Stage: "+quote.QuoteStage)
	pdf.Ln(8)
	if quote.PaymentTerms != "" {
		pdf.Cell(0, 8, "Payment terms: "+quote.PaymentTerms)
		pdf.Ln(8)
	}
	if quote.ValidUntil != nil {
		pdf.Cell(0, 8, "Valid until: "+quote.ValidUntil.Format("2006-01-02"))
		pdf.Ln(8)
	}
	pdf.Ln(4)

	// Денежная разбивка
	lines := []struct {
		label string
		value string
	}{
		{"Subtotal", quote.SubTotal.StringFixed(2)},
		{"Discount", quote.Discount.StringFixed(2)},
		{"Shipping", quote.Shipping.StringFixed(2)},
		{"Shipping tax", quote.ShippingTax.StringFixed(2)},
		{"Tax", quote.Tax.StringFixed(2)},
	}

	pdf.SetFont("Helvetica", "", 11)
	for _, line := range lines {
		pdf.CellFormat(60, 8, line.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 8, line.value, "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(60, 9, "Grand total", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 9, quote.GrandTotal.StringFixed(2), "1", 1, "R", false, 0, "")

	if quote.Description != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 6, quote.Description, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render quote PDF: %w", err)
	}
	return buf.Bytes(), nil
}
