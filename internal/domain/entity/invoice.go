package entity

// FreelancerDetails identifies the party issuing the invoice
type FreelancerDetails struct {
	Name    string `json:"name" yaml:"name"`
	Email   string `json:"email" yaml:"email"`
	Phone   string `json:"phone" yaml:"phone"`
	Address string `json:"address" yaml:"address"`
}

// ClientDetails identifies the billed party
type ClientDetails struct {
	Name    string `json:"name" yaml:"name"`
	Email   string `json:"email" yaml:"email"`
	Phone   string `json:"phone" yaml:"phone"`
	Address string `json:"address" yaml:"address"`
}

// InvoiceDetails holds the invoice number and its calendar dates.
// Dates are YYYY-MM-DD strings; an empty string means the date is unset.
type InvoiceDetails struct {
	InvoiceNumber string `json:"invoice_number" yaml:"invoice_number"`
	InvoiceDate   string `json:"invoice_date" yaml:"invoice_date"`
	DueDate       string `json:"due_date" yaml:"due_date"`
}

// ServiceSelection is the chosen catalog package and discount
type ServiceSelection struct {
	Category           string `json:"category" yaml:"category"`
	PackageTier        string `json:"package_tier" yaml:"package_tier"`
	DiscountPercentage int    `json:"discount_percentage" yaml:"discount_percentage"`
}

// AdditionalInfo carries notes and payment instructions
type AdditionalInfo struct {
	Notes         string `json:"notes" yaml:"notes"`
	PaymentTerms  string `json:"payment_terms" yaml:"payment_terms"`
	PaymentMethod string `json:"payment_method" yaml:"payment_method"`
}

// InvoiceData is the single source of truth for one invoice draft.
// All five parts are plain values; copying an InvoiceData never shares state.
type InvoiceData struct {
	FreelancerDetails FreelancerDetails `json:"freelancer_details" yaml:"freelancer_details"`
	ClientDetails     ClientDetails     `json:"client_details" yaml:"client_details"`
	InvoiceDetails    InvoiceDetails    `json:"invoice_details" yaml:"invoice_details"`
	ServiceSelection  ServiceSelection  `json:"service_selection" yaml:"service_selection"`
	AdditionalInfo    AdditionalInfo    `json:"additional_info" yaml:"additional_info"`
}

// WithFreelancerDetails returns a copy with only the freelancer record replaced
func (d InvoiceData) WithFreelancerDetails(details FreelancerDetails) InvoiceData {
	d.FreelancerDetails = details
	return d
}

// WithClientDetails returns a copy with only the client record replaced
func (d InvoiceData) WithClientDetails(details ClientDetails) InvoiceData {
	d.ClientDetails = details
	return d
}

// WithInvoiceDetails returns a copy with only the invoice metadata replaced
func (d InvoiceData) WithInvoiceDetails(details InvoiceDetails) InvoiceData {
	d.InvoiceDetails = details
	return d
}

// WithServiceSelection returns a copy with only the service selection replaced
func (d InvoiceData) WithServiceSelection(selection ServiceSelection) InvoiceData {
	d.ServiceSelection = selection
	return d
}

// WithAdditionalInfo returns a copy with only the additional info replaced
func (d InvoiceData) WithAdditionalInfo(info AdditionalInfo) InvoiceData {
	d.AdditionalInfo = info
	return d
}
