package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"postpulse/internal/dataprocessing"
	apierrors "postpulse/internal/errors"
	"postpulse/internal/services"
)

// MockAnalyticsService is a testify mock of AnalyticsServiceInterface
type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) Upload(ctx context.Context, filename string, r io.Reader) (*services.DatasetInfo, error) {
	args := m.Called(ctx, filename, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DatasetInfo), args.Error(1)
}

func (m *MockAnalyticsService) Info(ctx context.Context) (*services.DatasetInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DatasetInfo), args.Error(1)
}

func (m *MockAnalyticsService) Filters(ctx context.Context) (*services.FilterState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.FilterState), args.Error(1)
}

func (m *MockAnalyticsService) SetFilters(ctx context.Context, sel dataprocessing.Selection) (*services.FilterState, error) {
	args := m.Called(ctx, sel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.FilterState), args.Error(1)
}

func (m *MockAnalyticsService) Dashboard(ctx context.Context) (*services.Dashboard, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Dashboard), args.Error(1)
}

func newTestHandler(svc AnalyticsServiceInterface) *DashboardHandler {
	logger := slog.Default()
	return NewDashboardHandler(svc, 1<<20, logger, apierrors.NewErrorHandler(logger, false))
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUploadDataset_Success(t *testing.T) {
	svc := new(MockAnalyticsService)
	info := &services.DatasetInfo{
		ID:         "d1",
		Filename:   "posts.csv",
		UploadedAt: time.Now(),
		Records:    3,
	}
	svc.On("Upload", mock.Anything, "posts.csv", mock.Anything).Return(info, nil)

	body, contentType := multipartBody(t, "file", "posts.csv", "Date,Views Today\n2024-01-01,10\n")
	req := httptest.NewRequest(http.MethodPost, "/dataset", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	newTestHandler(svc).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, true, decoded["success"])
	dataset := decoded["dataset"].(map[string]interface{})
	assert.Equal(t, "d1", dataset["id"])
	svc.AssertExpectations(t)
}

func TestUploadDataset_MissingFileField(t *testing.T) {
	svc := new(MockAnalyticsService)

	body, contentType := multipartBody(t, "wrong", "posts.csv", "data")
	req := httptest.NewRequest(http.MethodPost, "/dataset", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	newTestHandler(svc).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Upload")
}

func TestUploadDataset_UnsupportedFormat(t *testing.T) {
	svc := new(MockAnalyticsService)
	svc.On("Upload", mock.Anything, "posts.pdf", mock.Anything).
		Return(nil, dataprocessing.ErrUnsupportedFormat)

	body, contentType := multipartBody(t, "file", "posts.pdf", "junk")
	req := httptest.NewRequest(http.MethodPost, "/dataset", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	newTestHandler(svc).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, apierrors.TypeUnsupportedFormat, decoded["type"])
}

func TestGetDataset_NoDataset(t *testing.T) {
	svc := new(MockAnalyticsService)
	svc.On("Info", mock.Anything).Return(nil, services.ErrNoDataset)

	req := httptest.NewRequest(http.MethodGet, "/dataset", nil)
	rec := httptest.NewRecorder()

	newTestHandler(svc).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, apierrors.TypeDatasetMissing, decoded["type"])
}

func TestGetFilters_Success(t *testing.T) {
	svc := new(MockAnalyticsService)
	state := &services.FilterState{
		Selection: dataprocessing.AllSelection(),
		Options: services.FilterOptions{
			Months:    []string{"2024-01"},
			PostTypes: []string{"news"},
			Weekdays:  dataprocessing.WeekdayLabels[:],
		},
	}
	svc.On("Filters", mock.Anything).Return(state, nil)

	req := httptest.NewRequest(http.MethodGet, "/filters", nil)
	rec := httptest.NewRecorder()

	newTestHandler(svc).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	filters := decoded["filters"].(map[string]interface{})
	selection := filters["selection"].(map[string]interface{})
	assert.Equal(t, "all", selection["month"])
}

func TestSetFilters_Success(t *testing.T) {
	svc := new(MockAnalyticsService)
	sel := dataprocessing.Selection{Month: "2024-01", PostType: "all", Weekday: "all"}
	state := &services.FilterState{Selection: sel}
	svc.On("SetFilters", mock.Anything, sel).Return(state, nil)

	req := httptest.NewRequest(http.MethodPut, "/filters",
		strings.NewReader(`{"month":"2024-01","post_type":"all","weekday":"all"}`))
	rec := httptest.NewRecorder()

	newTestHandler(svc).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestSetFilters_InvalidJSON(t *testing.T) {
	svc := new(MockAnalyticsService)

	req := httptest.NewRequest(http.MethodPut, "/filters", strings.NewReader("{"))
	rec := httptest.NewRecorder()

	newTestHandler(svc).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "SetFilters")
}

func TestSetFilters_UnknownValue(t *testing.T) {
	svc := new(MockAnalyticsService)
	sel := dataprocessing.Selection{Month: "2030-12", PostType: "all", Weekday: "all"}
	svc.On("SetFilters", mock.Anything, sel).Return(nil, services.ErrUnknownFilterValue)

	req := httptest.NewRequest(http.MethodPut, "/filters",
		strings.NewReader(`{"month":"2030-12","post_type":"all","weekday":"all"}`))
	rec := httptest.NewRecorder()

	newTestHandler(svc).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDashboard_Success(t *testing.T) {
	svc := new(MockAnalyticsService)
	dash := &services.Dashboard{
		GeneratedAt: time.Now(),
		Selection:   dataprocessing.AllSelection(),
		Records:     2,
		KPI:         dataprocessing.KPISummary{TotalPosts: 2, AvgViews: 75},
	}
	svc.On("Dashboard", mock.Anything).Return(dash, nil)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()

	newTestHandler(svc).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	dashboard := decoded["dashboard"].(map[string]interface{})
	kpi := dashboard["kpi"].(map[string]interface{})
	assert.Equal(t, float64(2), kpi["total_posts"])
}

func TestGetDashboard_NoDataset(t *testing.T) {
	svc := new(MockAnalyticsService)
	svc.On("Dashboard", mock.Anything).Return(nil, services.ErrNoDataset)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()

	newTestHandler(svc).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
