package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliasfjaere/utlaan-backend/internal/auth"
	"github.com/eliasfjaere/utlaan-backend/internal/users"
	pkgAuth "github.com/eliasfjaere/utlaan-backend/pkg/auth"
	"github.com/eliasfjaere/utlaan-backend/pkg/config"
	pkgerrors "github.com/eliasfjaere/utlaan-backend/pkg/errors"
	"github.com/google/uuid"
)

type stubAuthService struct {
	resp      *auth.LoginResponse
	err       error
	loggedOut []string
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func (s *stubAuthService) Logout(ctx context.Context, accessID string) error {
	s.loggedOut = append(s.loggedOut, accessID)
	return s.err
}

func controllerJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "utlaan-test", ExpirationMinutes: 60}
}

func TestAuthLoginSuccess(t *testing.T) {
	svc := &stubAuthService{resp: &auth.LoginResponse{
		AccessToken: "token-123",
		User:        users.UserView{Username: "kari", IsAdmin: true},
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(
		`{"username":"kari","password":"hunter22"}`))
	rec := httptest.NewRecorder()
	AuthLogin(svc, nil)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data auth.LoginResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, "token-123", envelope.Data.AccessToken)
	assert.Equal(t, "kari", envelope.Data.User.Username)
}

func TestAuthLoginValidatesBody(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"kari"}`))
	rec := httptest.NewRecorder()
	AuthLogin(svc, nil)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "password")
}

func TestAuthLoginMapsUnauthorized(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(
		`{"username":"kari","password":"wrong"}`))
	rec := httptest.NewRecorder()
	AuthLogin(svc, nil)(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")
}

func TestAuthLogoutRevokesPresentedToken(t *testing.T) {
	svc := &stubAuthService{}
	cfg := controllerJWTConfig()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		JTI:    "session-42",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	AuthLogout(svc, cfg, nil)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"session-42"}, svc.loggedOut)
}

func TestAuthLogoutIgnoresMissingToken(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	rec := httptest.NewRecorder()
	AuthLogout(svc, controllerJWTConfig(), nil)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, svc.loggedOut)
}
