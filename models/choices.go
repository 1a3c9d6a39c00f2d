package models

// Choice представляет пару (значение, подпись) для перечисляемого поля.
// Метаданные статичны и не зависят от базы данных
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ChoiceList упорядоченный набор вариантов одного поля
type ChoiceList []Choice

// Contains проверяет, входит ли значение в набор вариантов
func (cl ChoiceList) Contains(value string) bool {
	for _, c := range cl {
		if c.Value == value {
			return true
		}
	}
	return false
}

// Values возвращает значения набора в исходном порядке
func (cl ChoiceList) Values() []string {
	values := make([]string, len(cl))
	for i, c := range cl {
		values[i] = c.Value
	}
	return values
}

func choices(values ...string) ChoiceList {
	cl := make(ChoiceList, len(values))
	for i, v := range values {
		cl[i] = Choice{Value: v, Label: v}
	}
	return cl
}

// Пользователи
var UserTypeChoices = choices("Admin", "Sales Manager", "Sales Representative", "Support")

// Контрагенты
var (
	AccountTypeChoices = choices(
		"Analyst", "Competitor", "Customer", "Integrator", "Investor",
		"Partner", "Press", "Prospect", "Reseller", "Other",
	)
	IndustryTypeChoices = choices(
		"Banking", "Biotechnology", "Chemicals", "Communications", "Construction",
		"Consulting", "Education", "Electronics", "Energy", "Engineering",
		"Entertainment", "Finance", "Government", "Healthcare", "Hospitality",
		"Insurance", "Manufacturing", "Media", "Retail", "Technology",
		"Telecommunications", "Transportation", "Utilities", "Other",
	)
)

// Общий для контактов, лидов и сделок источник обращения
var LeadSourceChoices = choices(
	"Call", "Email", "Existing Customer", "Partner",
	"Public Relations", "Campaign", "Website", "Other",
)

// Лиды
var (
	LeadTitleChoices  = choices("Mr", "Mrs", "Ms", "Dr", "Prof")
	LeadStatusChoices = choices("New", "Assigned", "In Process", "Converted", "Recycled", "Dead")
)

// Сделки
var (
	SalesStageChoices = choices(
		"Prospecting", "Qualification", "Needs Analysis", "Value Proposition",
		"Proposal/Price Quote", "Negotiation/Review", "Closed Won", "Closed Lost",
	)
	BusinessTypeChoices = choices("New Business", "Existing Business")
	CurrencyChoices     = choices("USD", "EUR", "GBP", "RUB")
)

// Задачи
var (
	TaskStatusChoices   = choices("Not Started", "In Progress", "Completed", "Pending Input", "Deferred")
	TaskPriorityChoices = choices("High", "Medium", "Low")
	TaskParentChoices   = choices("Account", "Contact", "Lead", "Opportunity", "Quote")
)

// Коммерческие предложения
var (
	ApprovalStatusChoices = choices("Not Approved", "Approved", "Rejected")
	QuoteStageChoices     = choices(
		"Draft", "Negotiation", "Delivered", "On Hold",
		"Confirmed", "Closed Accepted", "Closed Lost", "Closed Dead",
	)
	InvoiceStatusChoices = choices("Not Invoiced", "Invoiced")
	PaymentTermsChoices  = choices("Net 15", "Net 30", "Net 45", "Net 60", "Due on Receipt")
)

// Заметки
var RelatedToTypeChoices = choices("Account", "Contact", "Lead", "Opportunity", "Task", "Quote")
