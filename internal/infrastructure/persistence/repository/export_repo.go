package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/invoice-studio/internal/application/port"
	"github.com/garyjia/invoice-studio/internal/domain/entity"
	"github.com/garyjia/invoice-studio/internal/infrastructure/persistence/sqlite"
)

// ErrNotFound is returned when a row does not exist
var ErrNotFound = errors.New("record not found")

const exportColumns = `id, session_id, invoice_number, client_name, file_name,
	storage_path, format, final_price, size_bytes, created_at`

// ExportRepository implements port.ExportRepository
type ExportRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewExportRepository creates a new export history repository
func NewExportRepository(db *sqlite.DB, logger *zap.Logger) *ExportRepository {
	return &ExportRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Create inserts a record and fills in its ID and creation time
func (r *ExportRepository) Create(ctx context.Context, record *entity.ExportRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = r.now().UTC()
	}

	query := `
		INSERT INTO invoice_exports (
			session_id, invoice_number, client_name, file_name,
			storage_path, format, final_price, size_bytes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		record.SessionID,
		record.InvoiceNumber,
		record.ClientName,
		record.FileName,
		record.StoragePath,
		record.Format,
		record.FinalPrice,
		record.SizeBytes,
		record.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create export record", zap.Error(err))
		return fmt.Errorf("failed to create export record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	record.ID = id
	return nil
}

// GetByID retrieves a single record
func (r *ExportRepository) GetByID(ctx context.Context, id int64) (*entity.ExportRecord, error) {
	query := `SELECT ` + exportColumns + ` FROM invoice_exports WHERE id = ?`

	record, err := scanExport(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get export record: %w", err)
	}
	return record, nil
}

// ListRecent returns records newest first
func (r *ExportRepository) ListRecent(ctx context.Context, limit, offset int) ([]*entity.ExportRecord, error) {
	query := `SELECT ` + exportColumns + ` FROM invoice_exports
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	return r.list(ctx, query, limit, offset)
}

// ListBySession returns a session's records oldest first
func (r *ExportRepository) ListBySession(ctx context.Context, sessionID string) ([]*entity.ExportRecord, error) {
	query := `SELECT ` + exportColumns + ` FROM invoice_exports
		WHERE session_id = ?
		ORDER BY created_at ASC, id ASC`

	return r.list(ctx, query, sessionID)
}

func (r *ExportRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.ExportRecord, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list export records", zap.Error(err))
		return nil, fmt.Errorf("failed to list export records: %w", err)
	}
	defer rows.Close()

	records := make([]*entity.ExportRecord, 0)
	for rows.Next() {
		record, err := scanExport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan export record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExport(row rowScanner) (*entity.ExportRecord, error) {
	var record entity.ExportRecord
	err := row.Scan(
		&record.ID,
		&record.SessionID,
		&record.InvoiceNumber,
		&record.ClientName,
		&record.FileName,
		&record.StoragePath,
		&record.Format,
		&record.FinalPrice,
		&record.SizeBytes,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

var _ port.ExportRepository = (*ExportRepository)(nil)
