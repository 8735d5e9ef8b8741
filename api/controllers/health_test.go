package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eliasfjaere/utlaan-backend/pkg/config"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error {
	return f.err
}

func healthConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "dev"}}
}

func TestHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthLive(healthConfig())(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev", rec.Header().Get("X-Utlaan-Env"))
	assert.Contains(t, rec.Body.String(), "live")
}

func TestHealthReady(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthReady(healthConfig(), nil, &fakePinger{}, &fakePinger{})(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthReadyFailsWhenDatabaseDown(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthReady(healthConfig(), nil, &fakePinger{err: errors.New("refused")}, &fakePinger{})(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthReadyFailsWhenRedisDown(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthReady(healthConfig(), nil, &fakePinger{}, &fakePinger{err: errors.New("refused")})(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
