package ledger

import (
	"context"
	"time"

	"github.com/eliasfjaere/utlaan-backend/pkg/db/models"
	"github.com/eliasfjaere/utlaan-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a ledger repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, loan *models.Loan) (*models.Loan, error) {
	if err := r.db.WithContext(ctx).Create(loan).Error; err != nil {
		return nil, err
	}
	return loan, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Preload("PC").
		Preload("StockItem").
		Where("id = ?", id).
		First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// lockForUpdate applies a row lock on dialects that support it. SQLite has a
// single writer and no FOR UPDATE syntax, so the clause is skipped there.
func (r *repository) lockForUpdate(q *gorm.DB) *gorm.DB {
	if r.db.Dialector.Name() == "sqlite" {
		return q
	}
	return q.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	var loan models.Loan
	q := r.lockForUpdate(r.db.WithContext(ctx)).Where("id = ?", id)
	if err := q.First(&loan).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

// MarkReturned flips the loan to returned only when it is still active,
// reporting whether this call made the flip. The conditional update is the
// serialization point for concurrent returns of the same loan.
func (r *repository) MarkReturned(ctx context.Context, id uuid.UUID, returnedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ? AND is_returned = ?", id, false).
		Updates(map[string]any{
			"is_returned": true,
			"returned_at": returnedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Loan{}).Error
}

func (r *repository) List(ctx context.Context, filters ListFilters, limit int, cursor *pagination.Cursor) ([]models.Loan, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Preload("PC").
		Preload("StockItem")

	switch filters.State {
	case "active":
		q = q.Where("is_returned = ?", false)
	case "returned":
		q = q.Where("is_returned = ?", true)
	}

	if cursor != nil {
		q = q.Where(
			"(checkout_at < ?) OR (checkout_at = ? AND id < ?)",
			cursor.CheckoutAt, cursor.CheckoutAt, cursor.ID,
		)
	}

	var loans []models.Loan
	err := q.Order("checkout_at DESC").Order("id DESC").Limit(limit).Find(&loans).Error
	if err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *repository) FindLastByBorrower(ctx context.Context, name string) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Preload("PC").
		Preload("StockItem").
		Where("LOWER(borrower_name) = LOWER(?)", name).
		Order("checkout_at DESC").
		Order("id DESC").
		First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *repository) FindStockItem(ctx context.Context, id uuid.UUID) (*models.StockItem, error) {
	var item models.StockItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}
