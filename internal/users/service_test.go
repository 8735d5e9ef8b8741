package users

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/eliasfjaere/utlaan-backend/pkg/auth"
	"github.com/eliasfjaere/utlaan-backend/pkg/config"
	"github.com/eliasfjaere/utlaan-backend/pkg/db/models"
	pkgerrors "github.com/eliasfjaere/utlaan-backend/pkg/errors"
	"github.com/eliasfjaere/utlaan-backend/pkg/security"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
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

// testPasswordConfig keeps argon cheap so the suite stays fast.
func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

func setupUsersTestDB(t *testing.T) *gorm.DB {
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
	require.NoError(t, db.Exec(loans).Error)
	return db
}

func newUsersService(t *testing.T, db *gorm.DB, boot config.BootstrapConfig) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), &testTxRunner{db: db}, testPasswordConfig(), boot, nil)
	require.NoError(t, err)
	return svc
}

func adminActor() auth.Actor {
	return auth.Actor{UserID: uuid.New(), Username: "admin", IsAdmin: true}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr, "expected app error, got %v", err)
	assert.Equal(t, code, appErr.Code())
}

func TestCreateUser(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newUsersService(t, db, config.BootstrapConfig{})
	ctx := context.Background()
	admin := adminActor()

	_, err := svc.Create(ctx, auth.Actor{UserID: uuid.New()}, CreateUserInput{Username: "kari", Password: "hunter22"})
	assertCode(t, err, pkgerrors.CodeForbidden)

	_, err = svc.Create(ctx, admin, CreateUserInput{Username: "kari", Password: "short"})
	assertCode(t, err, pkgerrors.CodeValidation)

	user, err := svc.Create(ctx, admin, CreateUserInput{Username: " kari ", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "kari", user.Username)
	assert.False(t, user.IsAdmin)

	_, err = svc.Create(ctx, admin, CreateUserInput{Username: "kari", Password: "hunter22"})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestToggleAdminGuardsSelf(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newUsersService(t, db, config.BootstrapConfig{})
	ctx := context.Background()
	admin := adminActor()

	user, err := svc.Create(ctx, admin, CreateUserInput{Username: "kari", Password: "hunter22"})
	require.NoError(t, err)

	_, err = svc.ToggleAdmin(ctx, admin, admin.UserID)
	assertCode(t, err, pkgerrors.CodeConflict)

	toggled, err := svc.ToggleAdmin(ctx, admin, user.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsAdmin)

	toggled, err = svc.ToggleAdmin(ctx, admin, user.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsAdmin)

	_, err = svc.ToggleAdmin(ctx, admin, uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestDeleteUserGuards(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newUsersService(t, db, config.BootstrapConfig{})
	ctx := context.Background()
	admin := adminActor()

	withLoans, err := svc.Create(ctx, admin, CreateUserInput{Username: "kari", Password: "hunter22"})
	require.NoError(t, err)
	clean, err := svc.Create(ctx, admin, CreateUserInput{Username: "ola", Password: "hunter22"})
	require.NoError(t, err)

	loan := &models.Loan{
		ID:           uuid.New(),
		BorrowerName: "Per",
		Item:         "laptop",
		CheckoutAt:   time.Now().UTC(),
		UserID:       withLoans.ID,
	}
	require.NoError(t, db.Create(loan).Error)

	assertCode(t, svc.Delete(ctx, admin, admin.UserID), pkgerrors.CodeConflict)
	assertCode(t, svc.Delete(ctx, admin, withLoans.ID), pkgerrors.CodeConflict)
	require.NoError(t, svc.Delete(ctx, admin, clean.ID))
	assertCode(t, svc.Delete(ctx, admin, clean.ID), pkgerrors.CodeNotFound)
}

func TestUpdateProfile(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newUsersService(t, db, config.BootstrapConfig{})
	ctx := context.Background()
	admin := adminActor()

	user, err := svc.Create(ctx, admin, CreateUserInput{Username: "kari", Password: "hunter22"})
	require.NoError(t, err)
	actor := auth.Actor{UserID: user.ID, Username: user.Username}

	_, err = svc.UpdateProfile(ctx, actor, UpdateProfileInput{Username: "kari2", CurrentPassword: "wrong"})
	assertCode(t, err, pkgerrors.CodeForbidden)

	_, err = svc.UpdateProfile(ctx, actor, UpdateProfileInput{
		Username:        "kari2",
		CurrentPassword: "hunter22",
		NewPassword:     "newpassword",
		ConfirmPassword: "different",
	})
	assertCode(t, err, pkgerrors.CodeValidation)

	updated, err := svc.UpdateProfile(ctx, actor, UpdateProfileInput{
		Username:        "kari2",
		CurrentPassword: "hunter22",
		NewPassword:     "newpassword",
		ConfirmPassword: "newpassword",
	})
	require.NoError(t, err)
	assert.Equal(t, "kari2", updated.Username)

	var stored models.User
	require.NoError(t, db.Where("id = ?", user.ID).First(&stored).Error)
	ok, err := security.VerifyPassword("newpassword", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEnsureBootstrapAdmin(t *testing.T) {
	db := setupUsersTestDB(t)
	ctx := context.Background()

	// Empty table without a configured password is a startup error.
	svc := newUsersService(t, db, config.BootstrapConfig{AdminUsername: "admin"})
	require.Error(t, svc.EnsureBootstrapAdmin(ctx))

	svc = newUsersService(t, db, config.BootstrapConfig{AdminUsername: "admin", AdminPassword: "changeme1"})
	require.NoError(t, svc.EnsureBootstrapAdmin(ctx))

	var stored models.User
	require.NoError(t, db.Where("username = ?", "admin").First(&stored).Error)
	assert.True(t, stored.IsAdmin)

	// Second run is a no-op.
	require.NoError(t, svc.EnsureBootstrapAdmin(ctx))
	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
