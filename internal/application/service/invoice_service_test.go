package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/invoice-studio/internal/application/dispatcher"
	"github.com/garyjia/invoice-studio/internal/application/session"
	"github.com/garyjia/invoice-studio/internal/domain/entity"
	"github.com/garyjia/invoice-studio/internal/domain/event"
	"github.com/garyjia/invoice-studio/internal/export"
)

var fixedNow = time.Date(2025, 3, 25, 10, 0, 0, 0, time.UTC)

// Mock collaborators
type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

type mockExporter struct {
	exportPDFFunc  func(ctx context.Context, view *export.View) (*export.Artifact, error)
	exportXLSXFunc func(ctx context.Context, view *export.View) (*export.Artifact, error)
}

func (m *mockExporter) ExportPDF(ctx context.Context, view *export.View) (*export.Artifact, error) {
	if m.exportPDFFunc != nil {
		return m.exportPDFFunc(ctx, view)
	}
	return &export.Artifact{
		FileName:    export.FileName(view.InvoiceNumber, view.Client.Name),
		Format:      entity.ExportFormatPDF,
		ContentType: export.ContentTypePDF,
		Content:     []byte("%PDF-1.3 fake"),
	}, nil
}

func (m *mockExporter) ExportXLSX(ctx context.Context, view *export.View) (*export.Artifact, error) {
	if m.exportXLSXFunc != nil {
		return m.exportXLSXFunc(ctx, view)
	}
	return &export.Artifact{
		FileName:    export.WorkbookFileName(view.InvoiceNumber, view.Client.Name),
		Format:      entity.ExportFormatXLSX,
		ContentType: export.ContentTypeXLSX,
		Content:     []byte("PK fake"),
	}, nil
}

type mockExportRepo struct {
	createFunc        func(ctx context.Context, record *entity.ExportRecord) error
	listRecentFunc    func(ctx context.Context, limit, offset int) ([]*entity.ExportRecord, error)
	listBySessionFunc func(ctx context.Context, sessionID string) ([]*entity.ExportRecord, error)
	created           []*entity.ExportRecord
}

func (m *mockExportRepo) Create(ctx context.Context, record *entity.ExportRecord) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, record)
	}
	record.ID = int64(len(m.created) + 1)
	m.created = append(m.created, record)
	return nil
}

func (m *mockExportRepo) GetByID(ctx context.Context, id int64) (*entity.ExportRecord, error) {
	return nil, errors.New("not found")
}

func (m *mockExportRepo) ListRecent(ctx context.Context, limit, offset int) ([]*entity.ExportRecord, error) {
	if m.listRecentFunc != nil {
		return m.listRecentFunc(ctx, limit, offset)
	}
	return m.created, nil
}

func (m *mockExportRepo) ListBySession(ctx context.Context, sessionID string) ([]*entity.ExportRecord, error) {
	if m.listBySessionFunc != nil {
		return m.listBySessionFunc(ctx, sessionID)
	}
	return []*entity.ExportRecord{}, nil
}

type mockTxManager struct {
	calls int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type mockStorage struct {
	saved     map[string][]byte
	deleted   []string
	saveErr   error
	deleteErr error
}

func (m *mockStorage) Save(ctx context.Context, path string, content []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[path] = content
	return nil
}

func (m *mockStorage) Read(ctx context.Context, path string) ([]byte, error) {
	return m.saved[path], nil
}

func (m *mockStorage) Exists(ctx context.Context, path string) bool {
	_, ok := m.saved[path]
	return ok
}

func (m *mockStorage) Delete(ctx context.Context, path string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, path)
	delete(m.saved, path)
	return nil
}

func (m *mockStorage) GetFullPath(relativePath string) string {
	return "/exports/" + relativePath
}

type mockFolders struct {
	created []string
}

func (m *mockFolders) CreateFolder(ctx context.Context, name string) (string, error) {
	m.created = append(m.created, name)
	return "/exports/" + name, nil
}

func (m *mockFolders) GetPath(name string) string { return "/exports/" + name }
func (m *mockFolders) Exists(name string) bool { return false }
func (m *mockFolders) Delete(ctx context.Context, name string) error { return nil }
func (m *mockFolders) SanitizeName(name string) string { return name }

type eventRecorder struct {
	mu     sync.Mutex
	events []*event.Event
}

func (r *eventRecorder) handle(ctx context.Context, evt *event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *eventRecorder) types() []event.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]event.Type, 0, len(r.events))
	for _, evt := range r.events {
		types = append(types, evt.Type)
	}
	return types
}

func testCatalog() *entity.Catalog {
	return &entity.Catalog{
		Categories: []entity.ServiceCategory{
			{
				Name: "Social Media Management",
				Packages: []entity.ServicePackage{
					{
						Name:         "Starter",
						MonthlyPrice: 13999,
						Services: []entity.ServiceItem{
							{Name: "Posts", Description: "Designed posts per month", Quantity: 12},
						},
					},
					{Name: "Pro", MonthlyPrice: 19999},
				},
			},
		},
	}
}

type fixture struct {
	svc      InvoiceService
	exporter *mockExporter
	repo     *mockExportRepo
	tx       *mockTxManager
	storage  *mockStorage
	folders  *mockFolders
	events   *eventRecorder
	logger   *mockLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		exporter: &mockExporter{},
		repo:     &mockExportRepo{},
		tx:       &mockTxManager{},
		storage:  &mockStorage{},
		folders:  &mockFolders{},
		events:   &eventRecorder{},
		logger:   &mockLogger{},
	}

	d := dispatcher.NewDispatcher()
	for _, eventType := range []event.Type{event.TypeInvoiceExported, event.TypeInvoiceExportFailed} {
		d.Subscribe(eventType, f.events.handle)
	}

	catalog := testCatalog()
	store := session.NewStore(session.StoreConfig{}, catalog, session.Defaults{
		Freelancer:    entity.FreelancerDetails{Name: "Configured Freelancer", Email: "hello@example.com"},
		InvoiceNumber: "INV-2025-001",
		PaymentTerms:  entity.PaymentTerms30,
		PaymentMethod: entity.PaymentMethodUPI,
	}, session.WithClock(func() time.Time { return fixedNow }), session.WithDispatcher(d))

	f.svc = NewInvoiceService(store, catalog, f.exporter, f.logger,
		WithHistory(f.repo, f.tx),
		WithArtifactStorage(f.storage, f.folders),
		WithDispatcher(d),
		WithClock(func() time.Time { return fixedNow }),
	)
	return f
}

// readySession creates a session with a client and a priced selection
func (f *fixture) readySession(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	state, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)

	_, err = f.svc.UpdateClientDetails(ctx, state.ID, entity.ClientDetails{Name: "Acme Corp", Email: "billing@acme.example"})
	require.NoError(t, err)
	_, err = f.svc.UpdateServiceSelection(ctx, state.ID, entity.ServiceSelection{
		Category:           "Social Media Management",
		DiscountPercentage: 10,
	})
	require.NoError(t, err)
	_, err = f.svc.UpdateServiceSelection(ctx, state.ID, entity.ServiceSelection{
		Category:           "Social Media Management",
		PackageTier:        "Starter",
		DiscountPercentage: 10,
	})
	require.NoError(t, err)
	return state.ID
}

func TestInvoiceService_CreateSession(t *testing.T) {
	f := newFixture(t)

	state, err := f.svc.CreateSession(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, state.ID)
	assert.Equal(t, "Configured Freelancer", state.Data.FreelancerDetails.Name)
	assert.Equal(t, "2025-03-25", state.Data.InvoiceDetails.InvoiceDate)
	assert.Equal(t, "2025-04-24", state.Data.InvoiceDetails.DueDate)
	assert.Equal(t, "0", state.Pricing.FinalPrice)
	assert.Empty(t, state.Pricing.Package)
	assert.Empty(t, state.Warnings)
}

func TestInvoiceService_PricingFollowsSelection(t *testing.T) {
	f := newFixture(t)
	id := f.readySession(t)

	state, err := f.svc.GetSession(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, "Starter", state.Pricing.Package)
	assert.Equal(t, "13999", state.Pricing.BasePrice)
	assert.Equal(t, "1399.9", state.Pricing.DiscountAmount)
	assert.Equal(t, "12599.1", state.Pricing.FinalPrice)
}

func TestInvoiceService_UpdatesSanitizeAndWarn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	state, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)

	state, err = f.svc.UpdateClientDetails(ctx, state.ID, entity.ClientDetails{
		Name:    "Acme\x00 Corp",
		Email:   "not-an-email",
		Address: "12 MG Road\nBengaluru",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", state.Data.ClientDetails.Name)
	assert.Equal(t, "12 MG Road\nBengaluru", state.Data.ClientDetails.Address)
	require.Len(t, state.Warnings, 1)
	assert.Contains(t, state.Warnings[0], "client email")

	state, err = f.svc.UpdateInvoiceDetails(ctx, state.ID, entity.InvoiceDetails{
		InvoiceNumber: "INV-7",
		InvoiceDate:   "2025-03-25",
		DueDate:       "2025-03-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", state.Data.InvoiceDetails.DueDate)
	assert.Contains(t, state.Warnings, "due date is before the invoice date")
}

func TestInvoiceService_UnknownSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	_, err = f.svc.UpdateAdditionalInfo(ctx, "missing", entity.AdditionalInfo{})
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	_, err = f.svc.Export(ctx, "missing", entity.ExportFormatPDF)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	assert.ErrorIs(t, f.svc.DeleteSession(ctx, "missing"), session.ErrSessionNotFound)
}

func TestInvoiceService_DeleteSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	state, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteSession(ctx, state.ID))
	_, err = f.svc.GetSession(ctx, state.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestInvoiceService_ImportSession(t *testing.T) {
	f := newFixture(t)

	state, err := f.svc.ImportSession(context.Background(), entity.InvoiceData{
		ClientDetails:    entity.ClientDetails{Name: "Acme Corp"},
		InvoiceDetails:   entity.InvoiceDetails{InvoiceNumber: "INV-9", InvoiceDate: "2025-01-10"},
		ServiceSelection: entity.ServiceSelection{Category: "Social Media Management", PackageTier: "Pro", DiscountPercentage: 150},
	})
	require.NoError(t, err)

	assert.Equal(t, "2025-01-10", state.Data.InvoiceDetails.InvoiceDate)
	assert.Equal(t, "2025-04-24", state.Data.InvoiceDetails.DueDate)
	assert.Equal(t, 100, state.Data.ServiceSelection.DiscountPercentage)
	assert.Equal(t, "0", state.Pricing.FinalPrice)
}

func TestInvoiceService_Preview(t *testing.T) {
	f := newFixture(t)
	id := f.readySession(t)

	view, err := f.svc.Preview(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, "₹13,999", view.Subtotal)
	assert.Equal(t, "-₹1,400", view.Discount)
	assert.Equal(t, "₹12,599", view.Total)
	assert.Equal(t, "25 March 2025", view.InvoiceDate)
	require.Len(t, view.Services, 1)
	assert.Equal(t, "Posts", view.Services[0].Name)
}

func TestInvoiceService_ExportPDF(t *testing.T) {
	f := newFixture(t)
	id := f.readySession(t)

	result, err := f.svc.Export(context.Background(), id, entity.ExportFormatPDF)
	require.NoError(t, err)

	assert.Equal(t, "Invoice_INV-2025-001_Acme_Corp.pdf", result.Artifact.FileName)

	wantPath := "2025-03-25/Invoice_INV-2025-001_Acme_Corp.pdf"
	assert.Equal(t, []string{"2025-03-25"}, f.folders.created)
	assert.Contains(t, f.storage.saved, wantPath)

	require.NotNil(t, result.Record)
	assert.Equal(t, 1, f.tx.calls)
	require.Len(t, f.repo.created, 1)
	record := f.repo.created[0]
	assert.Equal(t, id, record.SessionID)
	assert.Equal(t, "INV-2025-001", record.InvoiceNumber)
	assert.Equal(t, "Acme Corp", record.ClientName)
	assert.Equal(t, wantPath, record.StoragePath)
	assert.Equal(t, "12599.1", record.FinalPrice)
	assert.Equal(t, int64(len(result.Artifact.Content)), record.SizeBytes)
	assert.Equal(t, fixedNow, record.CreatedAt)

	assert.Equal(t, []event.Type{event.TypeInvoiceExported}, f.events.types())
}

func TestInvoiceService_ExportXLSX(t *testing.T) {
	f := newFixture(t)
	id := f.readySession(t)

	result, err := f.svc.Export(context.Background(), id, entity.ExportFormatXLSX)
	require.NoError(t, err)

	assert.Equal(t, "Invoice_INV-2025-001_Acme_Corp.xlsx", result.Artifact.FileName)
	assert.Equal(t, entity.ExportFormatXLSX, f.repo.created[0].Format)
}

func TestInvoiceService_ExportUnsupportedFormat(t *testing.T) {
	f := newFixture(t)
	id := f.readySession(t)

	_, err := f.svc.Export(context.Background(), id, "docx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Empty(t, f.repo.created)
}

func TestInvoiceService_ExportNothingToRender(t *testing.T) {
	f := newFixture(t)
	id := f.readySession(t)
	f.exporter.exportPDFFunc = func(ctx context.Context, view *export.View) (*export.Artifact, error) {
		return nil, export.ErrNothingToRender
	}

	result, err := f.svc.Export(context.Background(), id, entity.ExportFormatPDF)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, export.ErrNothingToRender)
	assert.Empty(t, f.repo.created)
	assert.Empty(t, f.storage.saved)
	assert.Empty(t, f.events.types())
}

func TestInvoiceService_ExportFailureKeepsSessionUsable(t *testing.T) {
	f := newFixture(t)
	id := f.readySession(t)
	ctx := context.Background()

	failing := true
	f.exporter.exportPDFFunc = func(ctx context.Context, view *export.View) (*export.Artifact, error) {
		if failing {
			return nil, errors.Join(export.ErrExportFailed, errors.New("rasterize: boom"))
		}
		return &export.Artifact{FileName: "Invoice.pdf", Format: entity.ExportFormatPDF, Content: []byte("%PDF")}, nil
	}

	_, err := f.svc.Export(ctx, id, entity.ExportFormatPDF)
	require.ErrorIs(t, err, export.ErrExportFailed)
	assert.Equal(t, []event.Type{event.TypeInvoiceExportFailed}, f.events.types())

	_, err = f.svc.UpdateAdditionalInfo(ctx, id, entity.AdditionalInfo{Notes: "Thanks"})
	require.NoError(t, err)

	failing = false
	_, err = f.svc.Export(ctx, id, entity.ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, []event.Type{event.TypeInvoiceExportFailed, event.TypeInvoiceExported}, f.events.types())
}

func TestInvoiceService_ExportInProgress(t *testing.T) {
	f := newFixture(t)
	id := f.readySession(t)

	started := make(chan struct{})
	release := make(chan struct{})
	f.exporter.exportPDFFunc = func(ctx context.Context, view *export.View) (*export.Artifact, error) {
		close(started)
		<-release
		return &export.Artifact{FileName: "Invoice.pdf", Format: entity.ExportFormatPDF, Content: []byte("%PDF")}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Export(context.Background(), id, entity.ExportFormatPDF)
		done <- err
	}()
	<-started

	_, err := f.svc.Export(context.Background(), id, entity.ExportFormatXLSX)
	assert.ErrorIs(t, err, ErrExportInProgress)

	close(release)
	require.NoError(t, <-done)

	_, err = f.svc.Export(context.Background(), id, entity.ExportFormatXLSX)
	assert.NoError(t, err)
}

func TestInvoiceService_ExportHistoryFailureStillDelivers(t *testing.T) {
	f := newFixture(t)
	id := f.readySession(t)
	f.repo.createFunc = func(ctx context.Context, record *entity.ExportRecord) error {
		return errors.New("database is locked")
	}

	result, err := f.svc.Export(context.Background(), id, entity.ExportFormatPDF)
	require.NoError(t, err)

	assert.NotNil(t, result.Artifact)
	assert.Nil(t, result.Record)
	assert.Equal(t, []string{"2025-03-25/Invoice_INV-2025-001_Acme_Corp.pdf"}, f.storage.deleted)
	assert.Contains(t, f.logger.errors, "Failed to record export")
}

func TestInvoiceService_ExportLogsFailedCleanup(t *testing.T) {
	f := newFixture(t)
	id := f.readySession(t)
	f.repo.createFunc = func(ctx context.Context, record *entity.ExportRecord) error {
		return errors.New("database is locked")
	}
	f.storage.deleteErr = errors.New("permission denied")

	result, err := f.svc.Export(context.Background(), id, entity.ExportFormatPDF)
	require.NoError(t, err)

	assert.NotNil(t, result.Artifact)
	assert.Empty(t, f.storage.deleted)
	assert.Contains(t, f.logger.errors, "Failed to remove unrecorded artifact")
}

func TestInvoiceService_ExportWithoutHistory(t *testing.T) {
	catalog := testCatalog()
	store := session.NewStore(session.StoreConfig{}, catalog, session.Defaults{})
	svc := NewInvoiceService(store, catalog, &mockExporter{}, &mockLogger{})

	state, err := svc.CreateSession(context.Background())
	require.NoError(t, err)

	result, err := svc.Export(context.Background(), state.ID, entity.ExportFormatPDF)
	require.NoError(t, err)
	assert.NotNil(t, result.Artifact)
	assert.Nil(t, result.Record)

	records, err := svc.ListExports(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestInvoiceService_ListExportsBounds(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", limit: 0, offset: 0, wantLimit: 20, wantOffset: 0},
		{name: "too large", limit: 500, offset: 5, wantLimit: 20, wantOffset: 5},
		{name: "negative offset", limit: 10, offset: -3, wantLimit: 10, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			var gotLimit, gotOffset int
			f.repo.listRecentFunc = func(ctx context.Context, limit, offset int) ([]*entity.ExportRecord, error) {
				gotLimit, gotOffset = limit, offset
				return []*entity.ExportRecord{}, nil
			}

			_, err := f.svc.ListExports(context.Background(), tt.limit, tt.offset)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, gotLimit)
			assert.Equal(t, tt.wantOffset, gotOffset)
		})
	}
}

func TestInvoiceService_ListSessionExports(t *testing.T) {
	f := newFixture(t)
	id := f.readySession(t)
	f.repo.listBySessionFunc = func(ctx context.Context, sessionID string) ([]*entity.ExportRecord, error) {
		return []*entity.ExportRecord{{ID: 1, SessionID: sessionID}}, nil
	}

	records, err := f.svc.ListSessionExports(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].SessionID)

	_, err = f.svc.ListSessionExports(context.Background(), "missing")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestSubscribeEventLog(t *testing.T) {
	d := dispatcher.NewDispatcher()
	logger := &mockLogger{}
	SubscribeEventLog(d, logger)

	err := d.Dispatch(context.Background(), event.NewEvent(event.TypeInvoiceUpdated, "s-1", map[string]interface{}{"section": event.SectionClient}))
	require.NoError(t, err)

	assert.Equal(t, []string{"Session event"}, logger.infos)
	assert.Len(t, d.ListHandlers(event.TypeSessionEnded), 1)
	assert.Equal(t, 5, HandlerCount(d))

	UnsubscribeEventLog(d)
	assert.Zero(t, HandlerCount(d))

	require.NoError(t, d.Dispatch(context.Background(), event.NewEvent(event.TypeInvoiceCreated, "s-1", nil)))
	assert.Len(t, logger.infos, 1)
}
