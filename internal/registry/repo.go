package registry

import (
	"context"

	"github.com/eliasfjaere/utlaan-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a registry repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// lockForUpdate applies a row lock on dialects that support it. SQLite has a
// single writer and no FOR UPDATE syntax, so the clause is skipped there.
func (r *repository) lockForUpdate(q *gorm.DB) *gorm.DB {
	if r.db.Dialector.Name() == "sqlite" {
		return q
	}
	return q.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *repository) CreatePC(ctx context.Context, pc *models.PCAsset) (*models.PCAsset, error) {
	if err := r.db.WithContext(ctx).Create(pc).Error; err != nil {
		return nil, err
	}
	return pc, nil
}

func (r *repository) FindPC(ctx context.Context, id uuid.UUID) (*models.PCAsset, error) {
	var pc models.PCAsset
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&pc).Error; err != nil {
		return nil, err
	}
	return &pc, nil
}

func (r *repository) LockPC(ctx context.Context, id uuid.UUID) (*models.PCAsset, error) {
	var pc models.PCAsset
	q := r.lockForUpdate(r.db.WithContext(ctx)).Where("id = ?", id)
	if err := q.First(&pc).Error; err != nil {
		return nil, err
	}
	return &pc, nil
}

func (r *repository) ListPCs(ctx context.Context) ([]models.PCAsset, error) {
	var pcs []models.PCAsset
	err := r.db.WithContext(ctx).Order("ok_number ASC").Find(&pcs).Error
	if err != nil {
		return nil, err
	}
	return pcs, nil
}

func (r *repository) UpdatePC(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PCAsset{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) DeletePC(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PCAsset{}).Error
}

func (r *repository) CountActiveLoansForPC(ctx context.Context, pcID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("pc_id = ? AND is_returned = ?", pcID, false).
		Count(&count).Error
	return count, err
}

func (r *repository) CountLoansForPC(ctx context.Context, pcID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("pc_id = ?", pcID).
		Count(&count).Error
	return count, err
}

// ActivePCIDs returns the set of PC ids referenced by at least one active loan.
func (r *repository) ActivePCIDs(ctx context.Context) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("pc_id IS NOT NULL AND is_returned = ?", false).
		Distinct().
		Pluck("pc_id", &ids).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *repository) CreateStockItem(ctx context.Context, item *models.StockItem) (*models.StockItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *repository) FindStockItem(ctx context.Context, id uuid.UUID) (*models.StockItem, error) {
	var item models.StockItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) LockStockItem(ctx context.Context, id uuid.UUID) (*models.StockItem, error) {
	var item models.StockItem
	q := r.lockForUpdate(r.db.WithContext(ctx)).Where("id = ?", id)
	if err := q.First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListStockItems(ctx context.Context) ([]models.StockItem, error) {
	var items []models.StockItem
	err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) UpdateStockItem(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.StockItem{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) DeleteStockItem(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.StockItem{}).Error
}

func (r *repository) CountLoansForStockItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("stock_item_id = ?", itemID).
		Count(&count).Error
	return count, err
}
