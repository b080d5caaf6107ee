package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postpulse/internal/infrastructure"
)

func TestAPIError_Error(t *testing.T) {
	err := New(http.StatusBadRequest, "INVALID_REQUEST", "bad input")
	assert.Equal(t, "bad input", err.Error())
}

func TestNewWithDetails(t *testing.T) {
	err := NewWithDetails(http.StatusNotFound, "NOT_FOUND", "dataset not found", "dataset")
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "NOT_FOUND", err.ErrorCode)
	assert.Equal(t, "dataset", err.Details)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusNotFound, TypeDatasetMissing, "No Dataset Loaded", "upload first", "/api/dashboard").
		WithExtension("trace_id", "abc-123")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, TypeDatasetMissing, decoded["type"])
	assert.Equal(t, "No Dataset Loaded", decoded["title"])
	assert.Equal(t, float64(http.StatusNotFound), decoded["status"])
	assert.Equal(t, "upload first", decoded["detail"])
	assert.Equal(t, "/api/dashboard", decoded["instance"])
	assert.Equal(t, "abc-123", decoded["trace_id"])
}

func TestProblemDetails_MarshalJSON_OmitsEmptyFields(t *testing.T) {
	pd := NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error", "", "")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.NotContains(t, decoded, "detail")
	assert.NotContains(t, decoded, "instance")
}

func TestErrorHandler_ErrorToProblem(t *testing.T) {
	handler := NewErrorHandler(slog.Default(), false)
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "dataset missing",
			err:        errors.New("no dataset loaded"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeDatasetMissing,
		},
		{
			name:       "unsupported format",
			err:        fmt.Errorf("read upload: %w", errors.New("unsupported file format \".pdf\"")),
			wantStatus: http.StatusUnsupportedMediaType,
			wantType:   TypeUnsupportedFormat,
		},
		{
			name:       "empty file",
			err:        errors.New("file has no rows"),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeDatasetEmpty,
		},
		{
			name:       "api error passthrough",
			err:        ErrDatasetNotFound,
			wantStatus: http.StatusNotFound,
			wantType:   TypeDatasetMissing,
		},
		{
			name:       "validation api error",
			err:        ErrValidation("month", "unknown month key"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "payload too large",
			err:        &http.MaxBytesError{Limit: 1024},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   TypePayloadTooLarge,
		},
		{
			name:       "unknown error becomes internal",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := handler.ErrorToProblem(tt.err, req)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, "/api/dashboard", problem.Instance)
		})
	}
}

func TestErrorHandler_HandleError_WritesProblemJSON(t *testing.T) {
	handler := NewErrorHandler(slog.Default(), false)
	req := httptest.NewRequest(http.MethodGet, "/api/filters", nil)
	rec := httptest.NewRecorder()

	req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-42"))

	handler.HandleError(rec, req, errors.New("no dataset loaded"))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, TypeDatasetMissing, decoded["type"])
	assert.Equal(t, "trace-42", decoded["trace_id"])
}

func TestErrorHandler_NotFound(t *testing.T) {
	handler := NewErrorHandler(slog.Default(), false)
	req := httptest.NewRequest(http.MethodGet, "/api/unknown", nil)
	rec := httptest.NewRecorder()

	handler.NotFound(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
