package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/eliasfjaere/utlaan-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorEnvelope {
	t.Helper()
	var envelope ErrorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope
}

func TestWriteSuccessWrapsPayload(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var envelope struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, "ok", envelope.Data["status"])
}

func TestWriteErrorMapsCodeToStatus(t *testing.T) {
	cases := []struct {
		code   pkgerrors.Code
		status int
	}{
		{pkgerrors.CodeValidation, http.StatusBadRequest},
		{pkgerrors.CodeUnauthorized, http.StatusUnauthorized},
		{pkgerrors.CodeForbidden, http.StatusForbidden},
		{pkgerrors.CodeNotFound, http.StatusNotFound},
		{pkgerrors.CodeConflict, http.StatusConflict},
		{pkgerrors.CodeRateLimit, http.StatusTooManyRequests},
		{pkgerrors.CodeDependency, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteError(context.Background(), nil, rec, pkgerrors.New(tc.code, "boom"))
		assert.Equal(t, tc.status, rec.Code, string(tc.code))
	}
}

func TestWriteErrorPassesRecoverableMessages(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeConflict, "pc is already loaned out"))

	envelope := decodeError(t, rec)
	assert.Equal(t, string(pkgerrors.CodeConflict), envelope.Error.Code)
	assert.Equal(t, "pc is already loaned out", envelope.Error.Message)
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.Wrap(pkgerrors.CodeInternal, errors.New("pq: connection refused"), "query failed")
	WriteError(context.Background(), nil, rec, err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	envelope := decodeError(t, rec)
	assert.NotContains(t, envelope.Error.Message, "connection refused")
	assert.Nil(t, envelope.Error.Details)
}

func TestWriteErrorWrapsUntypedErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, errors.New("plain failure"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	envelope := decodeError(t, rec)
	assert.Equal(t, string(pkgerrors.CodeInternal), envelope.Error.Code)
}

func TestWriteErrorIncludesValidationDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
		WithDetails(map[string]string{"borrower_name": "is required"})
	WriteError(context.Background(), nil, rec, err)

	envelope := decodeError(t, rec)
	details, ok := envelope.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "is required", details["borrower_name"])
}
