package registry

import (
	"context"
	"fmt"
	"testing"

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

func setupRegistryTestDB(t *testing.T) *gorm.DB {
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

type clampCounter struct {
	lower int
	upper int
}

func (c *clampCounter) IncStockClamp(bound string) {
	switch bound {
	case "lower":
		c.lower++
	case "upper":
		c.upper++
	}
}
