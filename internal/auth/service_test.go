package auth

import (
	"context"
	"testing"
	"time"

	pkgAuth "github.com/eliasfjaere/utlaan-backend/pkg/auth"
	"github.com/eliasfjaere/utlaan-backend/pkg/config"
	"github.com/eliasfjaere/utlaan-backend/pkg/db/models"
	pkgerrors "github.com/eliasfjaere/utlaan-backend/pkg/errors"
	"github.com/eliasfjaere/utlaan-backend/pkg/security"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubUserRepo struct {
	user      *models.User
	lastLogin time.Time
}

func (r *stubUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if r.user == nil || r.user.Username != username {
		return nil, gorm.ErrRecordNotFound
	}
	return r.user, nil
}

func (r *stubUserRepo) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.lastLogin = at
	return nil
}

type stubSessions struct {
	created []string
	revoked []string
}

func (s *stubSessions) Create(ctx context.Context, accessID string) error {
	s.created = append(s.created, accessID)
	return nil
}

func (s *stubSessions) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "utlaan-test", ExpirationMinutes: 60}
}

func newTestUser(t *testing.T, username, password string, isAdmin bool) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	})
	require.NoError(t, err)
	return &models.User{ID: uuid.New(), Username: username, PasswordHash: hash, IsAdmin: isAdmin}
}

func TestLoginSuccess(t *testing.T) {
	user := newTestUser(t, "kari", "hunter22", true)
	repo := &stubUserRepo{user: user}
	sessions := &stubSessions{}
	svc, err := NewService(ServiceParams{UserRepo: repo, SessionManager: sessions, JWTConfig: testJWTConfig()})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), LoginRequest{Username: " kari ", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "kari", resp.User.Username)
	assert.True(t, resp.User.IsAdmin)
	assert.False(t, repo.lastLogin.IsZero())
	require.Len(t, sessions.created, 1)

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, sessions.created[0], claims.ID)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	user := newTestUser(t, "kari", "hunter22", false)
	svc, err := NewService(ServiceParams{
		UserRepo:       &stubUserRepo{user: user},
		SessionManager: &stubSessions{},
		JWTConfig:      testJWTConfig(),
	})
	require.NoError(t, err)
	ctx := context.Background()

	cases := []LoginRequest{
		{Username: "unknown", Password: "hunter22"},
		{Username: "kari", Password: "wrong"},
		{Username: "", Password: "hunter22"},
		{Username: "kari", Password: ""},
	}
	for _, req := range cases {
		_, err := svc.Login(ctx, req)
		require.Error(t, err)
		appErr := pkgerrors.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, pkgerrors.CodeUnauthorized, appErr.Code())
		assert.Equal(t, invalidCredentialsMessage, appErr.Message())
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := &stubSessions{}
	svc, err := NewService(ServiceParams{
		UserRepo:       &stubUserRepo{},
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), "access-123"))
	assert.Equal(t, []string{"access-123"}, sessions.revoked)

	// Blank ids are ignored.
	require.NoError(t, svc.Logout(context.Background(), "  "))
	assert.Len(t, sessions.revoked, 1)
}
