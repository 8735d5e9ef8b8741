package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/eliasfjaere/utlaan-backend/internal/registry"
	"github.com/eliasfjaere/utlaan-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type opCounter struct {
	ops    map[string]int
	clamps int
}

func newOpCounter() *opCounter {
	return &opCounter{ops: make(map[string]int)}
}

func (c *opCounter) IncLoanOp(operation string) { c.ops[operation]++ }
func (c *opCounter) IncStockClamp(bound string) { c.clamps++ }

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  is_admin INTEGER NOT NULL DEFAULT 0,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	pcAssets := `
CREATE TABLE IF NOT EXISTS pc_assets (
  id TEXT PRIMARY KEY,
  ok_number TEXT NOT NULL UNIQUE,
  model TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  created_at DATETIME,
  updated_at DATETIME
);`
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
	require.NoError(t, db.Exec(users).Error)
	require.NoError(t, db.Exec(pcAssets).Error)
	require.NoError(t, db.Exec(stockItems).Error)
	require.NoError(t, db.Exec(loans).Error)
	return db
}

func mustCreatePC(t *testing.T, db *gorm.DB, okNumber string) *models.PCAsset {
	t.Helper()
	pc := &models.PCAsset{ID: uuid.New(), OKNumber: okNumber, Model: "ThinkPad"}
	require.NoError(t, db.Create(pc).Error)
	return pc
}

func mustCreateStockItem(t *testing.T, db *gorm.DB, name string, total int) *models.StockItem {
	t.Helper()
	item := &models.StockItem{ID: uuid.New(), Name: name, Total: total, Available: total}
	require.NoError(t, db.Create(item).Error)
	return item
}

func stockAvailable(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var item models.StockItem
	require.NoError(t, db.Where("id = ?", id).First(&item).Error)
	return item.Available
}

// newLedgerService wires a ledger service against the real registry guard so
// stock and exclusivity effects run the production code path.
func newLedgerService(t *testing.T, db *gorm.DB, counter *opCounter) *service {
	t.Helper()
	runner := &testTxRunner{db: db}
	guard, err := registry.NewService(registry.NewRepository(db), runner, counter)
	require.NoError(t, err)
	svc, err := NewService(NewRepository(db), runner, guard, counter, time.UTC)
	require.NoError(t, err)
	return svc.(*service)
}

// gatedTxRunner runs the installed hook once, right before the next
// transaction starts. Tests use it to land a competing call in the window
// between a handler's initial load and its unit of work.
type gatedTxRunner struct {
	inner  txRunner
	before func()
}

func (g *gatedTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if g.before != nil {
		hook := g.before
		g.before = nil
		hook()
	}
	return g.inner.WithTx(ctx, fn)
}

func newGatedLedgerService(t *testing.T, db *gorm.DB, counter *opCounter) (*service, *gatedTxRunner) {
	t.Helper()
	runner := &gatedTxRunner{inner: &testTxRunner{db: db}}
	guard, err := registry.NewService(registry.NewRepository(db), runner, counter)
	require.NoError(t, err)
	svc, err := NewService(NewRepository(db), runner, guard, counter, time.UTC)
	require.NoError(t, err)
	return svc.(*service), runner
}
