package reports

import (
	"context"
	"time"

	"github.com/eliasfjaere/utlaan-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository defines the read-only aggregation queries. Nothing here mutates
// state.
type Repository interface {
	CountLoans(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
	CountReturned(ctx context.Context) (int64, error)
	CountOverdue(ctx context.Context, today time.Time) (int64, error)
	CountReturnedBetween(ctx context.Context, from, to time.Time) (int64, error)
	CountDistinctBorrowers(ctx context.Context) (int64, error)
	CountDistinctItems(ctx context.Context) (int64, error)
	LowStock(ctx context.Context, threshold int) ([]LowStockItem, error)
	TopItems(ctx context.Context, limit int) ([]CountRow, error)
	TopClasses(ctx context.Context, limit int) ([]CountRow, error)
	MonthlyTrend(ctx context.Context) ([]MonthRow, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reports repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) loans(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Loan{})
}

func (r *repository) CountLoans(ctx context.Context) (int64, error) {
	var count int64
	err := r.loans(ctx).Count(&count).Error
	return count, err
}

func (r *repository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.loans(ctx).Where("is_returned = ?", false).Count(&count).Error
	return count, err
}

func (r *repository) CountReturned(ctx context.Context) (int64, error) {
	var count int64
	err := r.loans(ctx).Where("is_returned = ?", true).Count(&count).Error
	return count, err
}

// CountOverdue counts active loans whose due date falls strictly before the
// provided day. Due dates are stored at midnight UTC, so a date-only
// comparison against the local day boundary is exact.
func (r *repository) CountOverdue(ctx context.Context, today time.Time) (int64, error) {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	var count int64
	err := r.loans(ctx).
		Where("is_returned = ? AND due_on IS NOT NULL AND due_on < ?", false, day).
		Count(&count).Error
	return count, err
}

func (r *repository) CountReturnedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.loans(ctx).
		Where("is_returned = ? AND returned_at >= ? AND returned_at < ?", true, from, to).
		Count(&count).Error
	return count, err
}

func (r *repository) CountDistinctBorrowers(ctx context.Context) (int64, error) {
	var count int64
	err := r.loans(ctx).Distinct("borrower_name").Count(&count).Error
	return count, err
}

func (r *repository) CountDistinctItems(ctx context.Context) (int64, error) {
	var count int64
	err := r.loans(ctx).Distinct("item").Count(&count).Error
	return count, err
}

func (r *repository) LowStock(ctx context.Context, threshold int) ([]LowStockItem, error) {
	var items []LowStockItem
	err := r.db.WithContext(ctx).
		Model(&models.StockItem{}).
		Select("id, name, total, available").
		Where("total > 0 AND available <= ?", threshold).
		Order("name ASC").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) TopItems(ctx context.Context, limit int) ([]CountRow, error) {
	var rows []CountRow
	err := r.loans(ctx).
		Select("item AS label, COUNT(*) AS count").
		Group("item").
		Order("count DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) TopClasses(ctx context.Context, limit int) ([]CountRow, error) {
	var rows []CountRow
	err := r.loans(ctx).
		Select("class_label AS label, COUNT(*) AS count").
		Where("class_label <> ''").
		Group("class_label").
		Order("count DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MonthlyTrend groups checkouts by calendar month. The month expression is
// dialect-specific; sqlite is only used by the test suite.
func (r *repository) MonthlyTrend(ctx context.Context) ([]MonthRow, error) {
	monthExpr := "to_char(checkout_at, 'YYYY-MM')"
	if r.db.Dialector.Name() == "sqlite" {
		monthExpr = "strftime('%Y-%m', checkout_at)"
	}

	var rows []MonthRow
	err := r.loans(ctx).
		Select(monthExpr + " AS month, COUNT(*) AS count").
		Group(monthExpr).
		Order("month ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
