package export

import (
	"time"

	"github.com/garyjia/invoice-studio/internal/domain/entity"
	"github.com/garyjia/invoice-studio/internal/domain/format"
	"github.com/garyjia/invoice-studio/internal/domain/pricing"
)

// FooterMessage closes every invoice
const FooterMessage = "Thank you for believing us!"

// View is the display-ready invoice: every amount and date already formatted.
// It is what the preview endpoint returns and what the renderers draw.
type View struct {
	Freelancer entity.FreelancerDetails `json:"freelancer"`
	Client     entity.ClientDetails     `json:"client"`

	InvoiceNumber  string `json:"invoice_number"`
	InvoiceDate    string `json:"invoice_date"`
	DueDate        string `json:"due_date"`
	OverdueOnIssue bool   `json:"overdue_on_issue"`

	Category    string               `json:"category"`
	PackageTier string               `json:"package_tier"`
	Services    []entity.ServiceItem `json:"services"`

	Subtotal           string `json:"subtotal"`
	DiscountPercentage int    `json:"discount_percentage"`
	Discount           string `json:"discount,omitempty"`
	Total              string `json:"total"`

	Notes         string `json:"notes,omitempty"`
	PaymentTerms  string `json:"payment_terms"`
	PaymentMethod string `json:"payment_method"`
	Footer        string `json:"footer"`

	Pricing pricing.Pricing `json:"-"`
}

// NewView formats an aggregate and its derived pricing for display
func NewView(data entity.InvoiceData, p pricing.Pricing) *View {
	v := &View{
		Freelancer:         data.FreelancerDetails,
		Client:             data.ClientDetails,
		InvoiceNumber:      data.InvoiceDetails.InvoiceNumber,
		InvoiceDate:        format.Date(data.InvoiceDetails.InvoiceDate),
		DueDate:            format.Date(data.InvoiceDetails.DueDate),
		OverdueOnIssue:     DueBeforeIssue(data.InvoiceDetails),
		Category:           data.ServiceSelection.Category,
		PackageTier:        data.ServiceSelection.PackageTier,
		Services:           []entity.ServiceItem{},
		Subtotal:           format.Currency(p.BasePrice),
		DiscountPercentage: data.ServiceSelection.DiscountPercentage,
		Total:              format.Currency(p.FinalPrice),
		Notes:              data.AdditionalInfo.Notes,
		PaymentTerms:       format.PaymentTerms(data.AdditionalInfo.PaymentTerms),
		PaymentMethod:      format.PaymentMethod(data.AdditionalInfo.PaymentMethod),
		Footer:             FooterMessage,
		Pricing:            p,
	}
	if p.Package != nil {
		v.Services = append(v.Services, p.Package.Services...)
	}
	if p.HasDiscount() {
		v.Discount = "-" + format.Currency(p.DiscountAmount)
	}
	return v
}

// FooterContact is the "name | email" line under the footer message
func (v *View) FooterContact() string {
	return v.Freelancer.Name + " | " + v.Freelancer.Email
}

// DueBeforeIssue reports whether both dates are set and the due date comes
// before the invoice date
func DueBeforeIssue(details entity.InvoiceDetails) bool {
	issued, err := time.Parse(entity.DateLayout, details.InvoiceDate)
	if err != nil {
		return false
	}
	due, err := time.Parse(entity.DateLayout, details.DueDate)
	if err != nil {
		return false
	}
	return due.Before(issued)
}
