package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgAuth "github.com/eliasfjaere/utlaan-backend/pkg/auth"
	"github.com/eliasfjaere/utlaan-backend/pkg/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessionChecker struct {
	live map[string]bool
	err  error
}

func (f *fakeSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.live[accessID], nil
}

type deniedCounter struct {
	reasons map[string]int
}

func (d *deniedCounter) IncAuthDenied(reason string) {
	if d.reasons == nil {
		d.reasons = map[string]int{}
	}
	d.reasons[reason]++
}

func authTestConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "utlaan-test", ExpirationMinutes: 60}
}

func mintToken(t *testing.T, userID uuid.UUID, isAdmin bool, jti string) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(authTestConfig(), time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   userID,
		Username: "kari",
		IsAdmin:  isAdmin,
		JTI:      jti,
	})
	require.NoError(t, err)
	return token
}

func TestAuthSeedsActor(t *testing.T) {
	userID := uuid.New()
	sessions := &fakeSessionChecker{live: map[string]bool{"jti-1": true}}

	var seen pkgAuth.Actor
	handler := Auth(authTestConfig(), sessions, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, userID, true, "jti-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, seen.UserID)
	assert.Equal(t, "kari", seen.Username)
	assert.True(t, seen.IsAdmin)
}

func TestAuthRejectsMissingAndMalformedTokens(t *testing.T) {
	metrics := &deniedCounter{}
	handler := Auth(authTestConfig(), &fakeSessionChecker{}, metrics, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	cases := map[string]string{
		"missing": "",
		"garbage": "Bearer not-a-jwt",
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/loans", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
	assert.Equal(t, 1, metrics.reasons["missing_token"])
	assert.Equal(t, 1, metrics.reasons["invalid_token"])
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	metrics := &deniedCounter{}
	sessions := &fakeSessionChecker{live: map[string]bool{}}
	handler := Auth(authTestConfig(), sessions, metrics, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, uuid.New(), false, "jti-gone"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 1, metrics.reasons["revoked_session"])
}

func TestRequireAdmin(t *testing.T) {
	metrics := &deniedCounter{}
	handler := RequireAdmin(metrics, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// No actor seeded at all.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Known actor without the admin flag.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req = req.WithContext(WithActor(req.Context(), pkgAuth.Actor{UserID: uuid.New(), Username: "ola"}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 1, metrics.reasons["not_admin"])

	// Admin passes.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req = req.WithContext(WithActor(req.Context(), pkgAuth.Actor{UserID: uuid.New(), Username: "kari", IsAdmin: true}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
