package app

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApplication(t *testing.T) *Application {
	t.Helper()
	t.Setenv("POSTPULSE_LOGGING_OUTPUT", "stdout")

	app, err := NewApplication()
	require.NoError(t, err)
	t.Cleanup(app.WebSocketHub.Stop)
	app.WebSocketHub.Start()
	return app
}

func TestApplication_HealthEndpoint(t *testing.T) {
	app := newTestApplication(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, "healthy", decoded["status"])
}

func TestApplication_MetricsEndpoint(t *testing.T) {
	app := newTestApplication(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "postpulse_")
}

func TestApplication_DashboardWithoutDataset(t *testing.T) {
	app := newTestApplication(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "/errors/dataset/missing")
}

func TestApplication_UploadAndDashboard(t *testing.T) {
	app := newTestApplication(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "posts.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("Date,Time,Views Today,Reactions,Post Type\n2024-01-01,10:00:00,100,10,news\n2024-01-02,12:00:00,50,5,meme\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	uploadReq := httptest.NewRequest(http.MethodPost, "/api/dataset", &buf)
	uploadReq.Header.Set("Content-Type", writer.FormDataContentType())
	uploadRec := httptest.NewRecorder()
	app.Router.ServeHTTP(uploadRec, uploadReq)

	require.Equal(t, http.StatusCreated, uploadRec.Code, uploadRec.Body.String())

	dashRec := httptest.NewRecorder()
	app.Router.ServeHTTP(dashRec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

	assert.Equal(t, http.StatusOK, dashRec.Code)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(dashRec.Body.Bytes(), &decoded))
	dashboard := decoded["dashboard"].(map[string]interface{})
	kpi := dashboard["kpi"].(map[string]interface{})
	assert.Equal(t, float64(2), kpi["total_posts"])
}

func TestApplication_UnknownRoute(t *testing.T) {
	app := newTestApplication(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
