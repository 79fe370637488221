package port

import (
	"context"

	"github.com/garyjia/invoice-studio/internal/domain/entity"
)

// ExportRepository defines persistence operations for the export history
type ExportRepository interface {
	Create(ctx context.Context, record *entity.ExportRecord) error
	GetByID(ctx context.Context, id int64) (*entity.ExportRecord, error)
	ListRecent(ctx context.Context, limit, offset int) ([]*entity.ExportRecord, error)
	ListBySession(ctx context.Context, sessionID string) ([]*entity.ExportRecord, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
