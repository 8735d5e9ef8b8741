package reports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/eliasfjaere/utlaan-backend/pkg/auth"
	"github.com/eliasfjaere/utlaan-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupReportsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	stockItems := `
CREATE TABLE IF NOT EXISTS stock_items (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  total INTEGER NOT NULL DEFAULT 0,
  available INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	loans := `
CREATE TABLE IF NOT EXISTS loans (
  id TEXT PRIMARY KEY,
  borrower_name TEXT NOT NULL,
  borrower_phone TEXT NOT NULL DEFAULT '',
  class_label TEXT NOT NULL DEFAULT '',
  item TEXT NOT NULL,
  reason TEXT NOT NULL DEFAULT '',
  value_label TEXT NOT NULL DEFAULT '',
  checkout_at DATETIME NOT NULL,
  due_on DATE,
  returned_at DATETIME,
  is_returned INTEGER NOT NULL DEFAULT 0,
  user_id TEXT,
  pc_id TEXT,
  stock_item_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(stockItems).Error)
	require.NoError(t, db.Exec(loans).Error)
	return db
}

type loanSeed struct {
	borrower string
	class    string
	item     string
	checkout time.Time
	dueOn    *time.Time
	returned *time.Time
}

func seedLoans(t *testing.T, db *gorm.DB, seeds []loanSeed) {
	t.Helper()
	for _, seed := range seeds {
		loan := &models.Loan{
			ID:           uuid.New(),
			BorrowerName: seed.borrower,
			ClassLabel:   seed.class,
			Item:         seed.item,
			CheckoutAt:   seed.checkout,
			DueOn:        seed.dueOn,
			UserID:       uuid.New(),
		}
		if seed.returned != nil {
			loan.IsReturned = true
			loan.ReturnedAt = seed.returned
		}
		require.NoError(t, db.Create(loan).Error)
	}
}

func dateAt(y int, m time.Month, d int) *time.Time {
	date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &date
}

func newReportsService(t *testing.T, db *gorm.DB, frozen time.Time) *service {
	t.Helper()
	svc, err := NewService(NewRepository(db), time.UTC)
	require.NoError(t, err)
	typed := svc.(*service)
	typed.now = func() time.Time { return frozen }
	return typed
}

func TestDashboardCounts(t *testing.T) {
	db := setupReportsTestDB(t)
	// "Now" is midday on 2025-09-10 UTC.
	now := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)
	svc := newReportsService(t, db, now)
	ctx := context.Background()
	actor := auth.Actor{UserID: uuid.New()}

	returnedToday := now.Add(-2 * time.Hour)
	returnedYesterday := now.Add(-26 * time.Hour)
	seedLoans(t, db, []loanSeed{
		// active, overdue (due yesterday)
		{borrower: "Kari", item: "laptop", checkout: now.Add(-72 * time.Hour), dueOn: dateAt(2025, 9, 9)},
		// active, due today -> not overdue
		{borrower: "Ola", item: "lader", checkout: now.Add(-48 * time.Hour), dueOn: dateAt(2025, 9, 10)},
		// active, no due date
		{borrower: "Per", item: "mus", checkout: now.Add(-24 * time.Hour)},
		// returned today; its overdue due date no longer counts
		{borrower: "Lise", item: "laptop", checkout: now.Add(-96 * time.Hour), dueOn: dateAt(2025, 9, 1), returned: &returnedToday},
		// returned yesterday
		{borrower: "Nina", item: "lader", checkout: now.Add(-120 * time.Hour), returned: &returnedYesterday},
	})

	require.NoError(t, db.Create(&models.StockItem{ID: uuid.New(), Name: "Charger", Total: 5, Available: 1}).Error)
	require.NoError(t, db.Create(&models.StockItem{ID: uuid.New(), Name: "Mouse", Total: 5, Available: 4}).Error)
	require.NoError(t, db.Create(&models.StockItem{ID: uuid.New(), Name: "Unstocked", Total: 0, Available: 0}).Error)

	dash, err := svc.Dashboard(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, int64(3), dash.ActiveCount)
	assert.Equal(t, int64(1), dash.OverdueCount)
	assert.Equal(t, int64(1), dash.ReturnedTodayCount)
	assert.Equal(t, int64(2), dash.TotalReturnedCount)
	require.Len(t, dash.LowStock, 1)
	assert.Equal(t, "Charger", dash.LowStock[0].Name)

	_, err = svc.Dashboard(ctx, auth.Actor{})
	assert.Error(t, err)
}

func TestStatisticsAggregates(t *testing.T) {
	db := setupReportsTestDB(t)
	now := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)
	svc := newReportsService(t, db, now)
	ctx := context.Background()
	actor := auth.Actor{UserID: uuid.New()}

	aug := time.Date(2025, 8, 5, 10, 0, 0, 0, time.UTC)
	sep := time.Date(2025, 9, 3, 10, 0, 0, 0, time.UTC)
	ret := time.Date(2025, 9, 4, 10, 0, 0, 0, time.UTC)
	seedLoans(t, db, []loanSeed{
		{borrower: "Kari", class: "3A", item: "laptop", checkout: aug},
		{borrower: "Kari", class: "3A", item: "laptop", checkout: aug.Add(time.Hour)},
		{borrower: "Ola", class: "3B", item: "laptop", checkout: sep, returned: &ret},
		{borrower: "Per", class: "3A", item: "lader", checkout: sep.Add(time.Hour)},
	})

	stats, err := svc.Statistics(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalLoans)
	assert.Equal(t, int64(3), stats.ActiveLoans)
	assert.Equal(t, int64(1), stats.ReturnedLoans)
	assert.Equal(t, int64(3), stats.DistinctBorrowers)
	assert.Equal(t, int64(2), stats.DistinctItems)

	require.NotEmpty(t, stats.TopItems)
	assert.Equal(t, "laptop", stats.TopItems[0].Label)
	assert.Equal(t, int64(3), stats.TopItems[0].Count)

	require.NotEmpty(t, stats.TopClasses)
	assert.Equal(t, "3A", stats.TopClasses[0].Label)
	assert.Equal(t, int64(3), stats.TopClasses[0].Count)

	require.Len(t, stats.MonthlyTrend, 2)
	assert.Equal(t, "2025-08", stats.MonthlyTrend[0].Month)
	assert.Equal(t, int64(2), stats.MonthlyTrend[0].Count)
	assert.Equal(t, "2025-09", stats.MonthlyTrend[1].Month)
	assert.Equal(t, int64(2), stats.MonthlyTrend[1].Count)
}
