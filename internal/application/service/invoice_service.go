// Package service orchestrates invoice sessions, previews, exports and the
// export history.
package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/garyjia/invoice-studio/internal/application/dispatcher"
	"github.com/garyjia/invoice-studio/internal/application/port"
	"github.com/garyjia/invoice-studio/internal/application/session"
	"github.com/garyjia/invoice-studio/internal/domain/entity"
	"github.com/garyjia/invoice-studio/internal/domain/event"
	"github.com/garyjia/invoice-studio/internal/domain/pricing"
	"github.com/garyjia/invoice-studio/internal/export"
	"github.com/garyjia/invoice-studio/pkg/utils"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Exporter produces invoice artifacts from a view
type Exporter interface {
	ExportPDF(ctx context.Context, view *export.View) (*export.Artifact, error)
	ExportXLSX(ctx context.Context, view *export.View) (*export.Artifact, error)
}

// PricingSummary is the derived pricing of a session, as exact decimal strings
type PricingSummary struct {
	Package        string `json:"package,omitempty"`
	BasePrice      string `json:"base_price"`
	DiscountAmount string `json:"discount_amount"`
	FinalPrice     string `json:"final_price"`
}

// SessionState is a session's aggregate plus what is derived from it
type SessionState struct {
	ID       string             `json:"id"`
	Data     entity.InvoiceData `json:"data"`
	Pricing  PricingSummary     `json:"pricing"`
	Warnings []string           `json:"warnings,omitempty"`
}

// ExportResult is a produced artifact and, when history is enabled, its audit row
type ExportResult struct {
	Artifact *export.Artifact
	Record   *entity.ExportRecord
}

// InvoiceService manages invoice drafts and their exports
type InvoiceService interface {
	Catalog() *entity.Catalog
	CreateSession(ctx context.Context) (*SessionState, error)
	ImportSession(ctx context.Context, data entity.InvoiceData) (*SessionState, error)
	GetSession(ctx context.Context, id string) (*SessionState, error)
	DeleteSession(ctx context.Context, id string) error

	UpdateFreelancerDetails(ctx context.Context, id string, details entity.FreelancerDetails) (*SessionState, error)
	UpdateClientDetails(ctx context.Context, id string, details entity.ClientDetails) (*SessionState, error)
	UpdateInvoiceDetails(ctx context.Context, id string, details entity.InvoiceDetails) (*SessionState, error)
	UpdateServiceSelection(ctx context.Context, id string, selection entity.ServiceSelection) (*SessionState, error)
	UpdateAdditionalInfo(ctx context.Context, id string, info entity.AdditionalInfo) (*SessionState, error)

	Preview(ctx context.Context, id string) (*export.View, error)
	Export(ctx context.Context, id, format string) (*ExportResult, error)

	ListExports(ctx context.Context, limit, offset int) ([]*entity.ExportRecord, error)
	ListSessionExports(ctx context.Context, id string) ([]*entity.ExportRecord, error)
}

type invoiceServiceImpl struct {
	sessions   *session.Store
	catalog    *entity.Catalog
	exporter   Exporter
	dispatcher dispatcher.Dispatcher
	logger     Logger
	now        func() time.Time

	exportRepo port.ExportRepository
	txManager  port.TransactionManager
	storage    port.FileStorage
	folders    port.FolderManager
}

// Option configures the invoice service
type Option func(*invoiceServiceImpl)

// WithHistory records every successful export
func WithHistory(repo port.ExportRepository, txManager port.TransactionManager) Option {
	return func(s *invoiceServiceImpl) {
		s.exportRepo = repo
		s.txManager = txManager
	}
}

// WithArtifactStorage keeps a copy of every artifact in a per-day folder
func WithArtifactStorage(storage port.FileStorage, folders port.FolderManager) Option {
	return func(s *invoiceServiceImpl) {
		s.storage = storage
		s.folders = folders
	}
}

// WithDispatcher publishes export events
func WithDispatcher(d dispatcher.Dispatcher) Option {
	return func(s *invoiceServiceImpl) {
		s.dispatcher = d
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *invoiceServiceImpl) {
		s.now = now
	}
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	sessions *session.Store,
	catalog *entity.Catalog,
	exporter Exporter,
	logger Logger,
	opts ...Option,
) InvoiceService {
	s := &invoiceServiceImpl{
		sessions: sessions,
		catalog:  catalog,
		exporter: exporter,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the read-only price list
func (s *invoiceServiceImpl) Catalog() *entity.Catalog {
	return s.catalog
}

// CreateSession starts a draft seeded with the configured defaults
func (s *invoiceServiceImpl) CreateSession(ctx context.Context) (*SessionState, error) {
	sess := s.sessions.Create(ctx)
	return stateOf(sess), nil
}

// ImportSession starts a draft from a complete aggregate, e.g. a saved YAML draft
func (s *invoiceServiceImpl) ImportSession(ctx context.Context, data entity.InvoiceData) (*SessionState, error) {
	data.FreelancerDetails = sanitizeParty(data.FreelancerDetails)
	data.ClientDetails = entity.ClientDetails(sanitizeParty(entity.FreelancerDetails(data.ClientDetails)))
	data.AdditionalInfo.Notes = utils.SanitizeMultiline(data.AdditionalInfo.Notes)

	sess := s.sessions.CreateFrom(ctx, data)
	return stateOf(sess), nil
}

// GetSession returns the current state of a draft
func (s *invoiceServiceImpl) GetSession(ctx context.Context, id string) (*SessionState, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	return stateOf(sess), nil
}

// DeleteSession ends a draft; its data is discarded
func (s *invoiceServiceImpl) DeleteSession(ctx context.Context, id string) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Session deleted", "session_id", id)
	return nil
}

// UpdateFreelancerDetails replaces the freelancer record
func (s *invoiceServiceImpl) UpdateFreelancerDetails(ctx context.Context, id string, details entity.FreelancerDetails) (*SessionState, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	sess.UpdateFreelancerDetails(ctx, sanitizeParty(details))
	return stateOf(sess), nil
}

// UpdateClientDetails replaces the client record
func (s *invoiceServiceImpl) UpdateClientDetails(ctx context.Context, id string, details entity.ClientDetails) (*SessionState, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	sess.UpdateClientDetails(ctx, entity.ClientDetails(sanitizeParty(entity.FreelancerDetails(details))))
	return stateOf(sess), nil
}

// UpdateInvoiceDetails replaces the invoice number and dates
func (s *invoiceServiceImpl) UpdateInvoiceDetails(ctx context.Context, id string, details entity.InvoiceDetails) (*SessionState, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	details.InvoiceNumber = utils.SanitizeString(details.InvoiceNumber)
	sess.UpdateInvoiceDetails(ctx, details)
	return stateOf(sess), nil
}

// UpdateServiceSelection replaces the package selection and discount
func (s *invoiceServiceImpl) UpdateServiceSelection(ctx context.Context, id string, selection entity.ServiceSelection) (*SessionState, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	sess.UpdateServiceSelection(ctx, selection)
	return stateOf(sess), nil
}

// UpdateAdditionalInfo replaces notes and payment instructions
func (s *invoiceServiceImpl) UpdateAdditionalInfo(ctx context.Context, id string, info entity.AdditionalInfo) (*SessionState, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	info.Notes = utils.SanitizeMultiline(info.Notes)
	sess.UpdateAdditionalInfo(ctx, info)
	return stateOf(sess), nil
}

// Preview returns the display-ready invoice for a draft
func (s *invoiceServiceImpl) Preview(ctx context.Context, id string) (*export.View, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	return export.NewView(sess.Snapshot()), nil
}

// Export produces a PDF or XLSX artifact for a draft. Only one export per
// session runs at a time. ErrNothingToRender is returned unwrapped and
// leaves no trace; other failures publish invoice.export_failed and leave
// the session usable.
func (s *invoiceServiceImpl) Export(ctx context.Context, id, format string) (*ExportResult, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	var produce func(context.Context, *export.View) (*export.Artifact, error)
	switch format {
	case entity.ExportFormatPDF:
		produce = s.exporter.ExportPDF
	case entity.ExportFormatXLSX:
		produce = s.exporter.ExportXLSX
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if !sess.TryBeginExport() {
		return nil, ErrExportInProgress
	}
	defer sess.EndExport()

	data, p := sess.Snapshot()
	view := export.NewView(data, p)

	artifact, err := produce(ctx, view)
	if err != nil {
		if errors.Is(err, export.ErrNothingToRender) {
			s.logger.Info("Export aborted, nothing to render", "session_id", id, "format", format)
			return nil, err
		}
		s.logger.Error("Export failed", "session_id", id, "format", format, "error", err)
		s.publish(ctx, event.TypeInvoiceExportFailed, id, map[string]interface{}{
			"format": format,
			"error":  err.Error(),
		})
		return nil, err
	}

	record := &entity.ExportRecord{
		SessionID:     id,
		InvoiceNumber: view.InvoiceNumber,
		ClientName:    view.Client.Name,
		FileName:      artifact.FileName,
		Format:        artifact.Format,
		FinalPrice:    p.FinalPrice.String(),
		SizeBytes:     int64(len(artifact.Content)),
		CreatedAt:     s.now().UTC(),
	}

	result := &ExportResult{Artifact: artifact}
	if err := s.keep(ctx, record, artifact); err != nil {
		// The artifact is still delivered; only the audit trail is missing
		s.logger.Error("Failed to record export", "session_id", id, "file_name", artifact.FileName, "error", err)
	} else if s.exportRepo != nil {
		result.Record = record
	}

	s.logger.Info("Invoice exported",
		"session_id", id,
		"format", artifact.Format,
		"file_name", artifact.FileName,
		"size", len(artifact.Content),
	)
	s.publish(ctx, event.TypeInvoiceExported, id, map[string]interface{}{
		"format":    artifact.Format,
		"file_name": artifact.FileName,
		"size":      len(artifact.Content),
	})
	return result, nil
}

// ListExports returns the most recent export records
func (s *invoiceServiceImpl) ListExports(ctx context.Context, limit, offset int) ([]*entity.ExportRecord, error) {
	if s.exportRepo == nil {
		return []*entity.ExportRecord{}, nil
	}
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.exportRepo.ListRecent(ctx, limit, offset)
}

// ListSessionExports returns the export records of one live session
func (s *invoiceServiceImpl) ListSessionExports(ctx context.Context, id string) ([]*entity.ExportRecord, error) {
	if _, err := s.sessions.Get(id); err != nil {
		return nil, err
	}
	if s.exportRepo == nil {
		return []*entity.ExportRecord{}, nil
	}
	return s.exportRepo.ListBySession(ctx, id)
}

// keep stores the artifact in today's folder and writes its history row.
// The file is removed again when the row cannot be written.
func (s *invoiceServiceImpl) keep(ctx context.Context, record *entity.ExportRecord, artifact *export.Artifact) error {
	if s.storage != nil && s.folders != nil {
		day := record.CreatedAt.Format(entity.DateLayout)
		if _, err := s.folders.CreateFolder(ctx, day); err != nil {
			return fmt.Errorf("failed to create export folder: %w", err)
		}
		path := filepath.Join(s.folders.SanitizeName(day), artifact.FileName)
		if err := s.storage.Save(ctx, path, artifact.Content); err != nil {
			return fmt.Errorf("failed to save artifact: %w", err)
		}
		record.StoragePath = path
	}

	if s.exportRepo == nil {
		return nil
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.exportRepo.Create(txCtx, record)
	})
	if err != nil {
		if record.StoragePath != "" {
			if delErr := s.storage.Delete(ctx, record.StoragePath); delErr != nil {
				s.logger.Error("Failed to remove unrecorded artifact",
					"path", record.StoragePath,
					"error", delErr,
				)
			}
			record.StoragePath = ""
		}
		return fmt.Errorf("failed to save export record: %w", err)
	}
	return nil
}

func (s *invoiceServiceImpl) publish(ctx context.Context, eventType event.Type, sessionID string, payload map[string]interface{}) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Dispatch(ctx, event.NewEvent(eventType, sessionID, payload)); err != nil {
		s.logger.Error("Failed to publish event", "event_type", eventType, "session_id", sessionID, "error", err)
	}
}

func stateOf(sess *session.Session) *SessionState {
	data, p := sess.Snapshot()
	return &SessionState{
		ID:       sess.ID(),
		Data:     data,
		Pricing:  summarize(p),
		Warnings: warningsFor(data),
	}
}

func summarize(p pricing.Pricing) PricingSummary {
	summary := PricingSummary{
		BasePrice:      p.BasePrice.String(),
		DiscountAmount: p.DiscountAmount.String(),
		FinalPrice:     p.FinalPrice.String(),
	}
	if p.Package != nil {
		summary.Package = p.Package.Name
	}
	return summary
}

// warningsFor flags input worth a second look. Nothing here blocks an update.
func warningsFor(data entity.InvoiceData) []string {
	var warnings []string
	if email := data.FreelancerDetails.Email; email != "" {
		if err := utils.ValidateEmail(email); err != nil {
			warnings = append(warnings, "freelancer email: "+err.Error())
		}
	}
	if email := data.ClientDetails.Email; email != "" {
		if err := utils.ValidateEmail(email); err != nil {
			warnings = append(warnings, "client email: "+err.Error())
		}
	}
	if err := utils.ValidateDate(data.InvoiceDetails.InvoiceDate); err != nil {
		warnings = append(warnings, "invoice date: "+err.Error())
	}
	if err := utils.ValidateDate(data.InvoiceDetails.DueDate); err != nil {
		warnings = append(warnings, "due date: "+err.Error())
	}
	if export.DueBeforeIssue(data.InvoiceDetails) {
		warnings = append(warnings, "due date is before the invoice date")
	}
	return warnings
}

func sanitizeParty(details entity.FreelancerDetails) entity.FreelancerDetails {
	return entity.FreelancerDetails{
		Name:    utils.SanitizeString(details.Name),
		Email:   utils.SanitizeString(details.Email),
		Phone:   utils.SanitizeString(details.Phone),
		Address: utils.SanitizeMultiline(details.Address),
	}
}
