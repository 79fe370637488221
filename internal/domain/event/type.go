package event

import "slices"

// Type identifies the type of session event
type Type string

const (
	TypeInvoiceCreated      Type = "invoice.created"
	TypeInvoiceUpdated      Type = "invoice.updated"
	TypeInvoiceExported     Type = "invoice.exported"
	TypeInvoiceExportFailed Type = "invoice.export_failed"
	TypeSessionEnded        Type = "session.ended"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// AllTypes lists every session event type
func AllTypes() []Type {
	return []Type{
		TypeInvoiceCreated,
		TypeInvoiceUpdated,
		TypeInvoiceExported,
		TypeInvoiceExportFailed,
		TypeSessionEnded,
	}
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	return slices.Contains(AllTypes(), t)
}

// Section names carried in the "section" payload of invoice.updated
const (
	SectionFreelancer = "freelancer_details"
	SectionClient     = "client_details"
	SectionInvoice    = "invoice_details"
	SectionService    = "service_selection"
	SectionAdditional = "additional_info"
)
