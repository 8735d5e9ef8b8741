package ledger

import (
	"context"
	"time"

	"github.com/eliasfjaere/utlaan-backend/pkg/db/models"
	"github.com/eliasfjaere/utlaan-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the loans table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, loan *models.Loan) (*models.Loan, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Loan, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Loan, error)
	MarkReturned(ctx context.Context, id uuid.UUID, returnedAt time.Time) (bool, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters ListFilters, limit int, cursor *pagination.Cursor) ([]models.Loan, error)
	FindLastByBorrower(ctx context.Context, name string) (*models.Loan, error)
	FindStockItem(ctx context.Context, id uuid.UUID) (*models.StockItem, error)
}
