package entity

import "time"

// ExportRecord is an audit row for one produced invoice artifact
type ExportRecord struct {
	ID            int64     `json:"id"`
	SessionID     string    `json:"session_id"`
	InvoiceNumber string    `json:"invoice_number"`
	ClientName    string    `json:"client_name"`
	FileName      string    `json:"file_name"`
	StoragePath   string    `json:"storage_path,omitempty"`
	Format        string    `json:"format"`
	FinalPrice    string    `json:"final_price"`
	SizeBytes     int64     `json:"size_bytes"`
	CreatedAt     time.Time `json:"created_at"`
}
