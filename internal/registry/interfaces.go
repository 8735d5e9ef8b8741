package registry

import (
	"context"

	"github.com/eliasfjaere/utlaan-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for PC assets and stock items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreatePC(ctx context.Context, pc *models.PCAsset) (*models.PCAsset, error)
	FindPC(ctx context.Context, id uuid.UUID) (*models.PCAsset, error)
	LockPC(ctx context.Context, id uuid.UUID) (*models.PCAsset, error)
	ListPCs(ctx context.Context) ([]models.PCAsset, error)
	UpdatePC(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeletePC(ctx context.Context, id uuid.UUID) error
	CountActiveLoansForPC(ctx context.Context, pcID uuid.UUID) (int64, error)
	CountLoansForPC(ctx context.Context, pcID uuid.UUID) (int64, error)
	ActivePCIDs(ctx context.Context) (map[uuid.UUID]bool, error)

	CreateStockItem(ctx context.Context, item *models.StockItem) (*models.StockItem, error)
	FindStockItem(ctx context.Context, id uuid.UUID) (*models.StockItem, error)
	LockStockItem(ctx context.Context, id uuid.UUID) (*models.StockItem, error)
	ListStockItems(ctx context.Context) ([]models.StockItem, error)
	UpdateStockItem(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteStockItem(ctx context.Context, id uuid.UUID) error
	CountLoansForStockItem(ctx context.Context, itemID uuid.UUID) (int64, error)
}
