package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maintsense/backend/internal/fleet"
	"github.com/maintsense/backend/internal/model"
	"github.com/maintsense/backend/internal/risk"
	"github.com/maintsense/backend/internal/storage/models"
	"github.com/maintsense/backend/internal/storage/sqlite"
)

type uploadResponse struct {
	Assets  []fleet.Assessment `json:"assets"`
	Summary risk.FleetSummary  `json:"summary"`
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	predictor := model.NewPredictor(0, 0)
	store := fleet.NewStore()

	uploadHandler := NewUploadHandler(predictor, store, nil)
	assetHandler := NewAssetHandler(store)
	predictHandler := NewPredictHandler(predictor)

	app := fiber.New()
	api := app.Group("/api/v1")
	api.Post("/upload", uploadHandler.HandleUpload)
	api.Get("/assets", assetHandler.ListAssets)
	api.Get("/assets/:id", assetHandler.GetAsset)
	api.Delete("/assets", assetHandler.ClearAssets)
	api.Post("/predict", predictHandler.HandlePredict)
	return app
}

func multipartCSV(t *testing.T, filename, content string) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func postUpload(t *testing.T, app *fiber.App, filename, content string) *http.Response {
	t.Helper()

	body, contentType := multipartCSV(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestUpload_SingleRowUntrainedModel(t *testing.T) {
	app := newTestApp(t)

	resp := postUpload(t, app, "sensors.csv",
		"temperature,vibration,pressure,runtime\n75.5,1.2,95.3,3200\n")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body uploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	require.Len(t, body.Assets, 1)
	asset := body.Assets[0]
	assert.Equal(t, 1, asset.ID)
	assert.GreaterOrEqual(t, asset.RiskScore, 0.0)
	assert.LessOrEqual(t, asset.RiskScore, 100.0)
	assert.Contains(t, []string{risk.LevelHealthy, risk.LevelWarning, risk.LevelCritical}, asset.RiskLevel)
	assert.GreaterOrEqual(t, asset.PredictedFailure, 0)
	assert.LessOrEqual(t, asset.PredictedFailure, 30)
	assert.InDelta(t, 75.5, asset.Temperature, 1e-9)

	assert.Equal(t, 1, body.Summary.TotalAssets)
	assert.Equal(t, model.ModeRandom, body.Summary.ModelUsed)

	// The snapshot now serves the uploaded batch.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/assets", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listed []fleet.Assessment
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	assert.Len(t, listed, 1)
}

func TestUpload_RejectsNonCSVFilename(t *testing.T) {
	app := newTestApp(t)

	resp := postUpload(t, app, "sensors.txt", "temperature\n75\n")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpload_RejectsGarbageContent(t *testing.T) {
	app := newTestApp(t)

	resp := postUpload(t, app, "sensors.csv", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpload_MissingFileField(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", strings.NewReader("temperature\n75\n"))
	req.Header.Set("Content-Type", "text/csv")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAssets_ClearThenGetIs404(t *testing.T) {
	app := newTestApp(t)

	resp := postUpload(t, app, "sensors.csv",
		"temperature,vibration,pressure,runtime\n75.5,1.2,95.3,3200\n")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/assets", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/assets/1", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPredict_SingleReading(t *testing.T) {
	app := newTestApp(t)

	payload := `{"temperature":75.5,"vibration":1.2,"pressure":95.3,"runtime":3200}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		RiskScore        float64 `json:"riskScore"`
		RiskLevel        string  `json:"riskLevel"`
		PredictedFailure int     `json:"predictedFailure"`
		ModelUsed        string  `json:"model_used"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.GreaterOrEqual(t, body.RiskScore, 0.0)
	assert.LessOrEqual(t, body.RiskScore, 100.0)
	assert.Contains(t, []string{risk.LevelHealthy, risk.LevelWarning, risk.LevelCritical}, body.RiskLevel)
	assert.Equal(t, model.ModeRandom, body.ModelUsed)
}

func TestHistory_ReturnsAuditRows(t *testing.T) {
	client, err := sqlite.NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.InitSchema())

	historyHandler := NewHistoryHandler(client)
	app := fiber.New()
	app.Get("/api/v1/history", historyHandler.GetHistory)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Uploads      []models.UploadRecord      `json:"uploads"`
		TrainingRuns []models.TrainingRunRecord `json:"training_runs"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body.Uploads)
	assert.Empty(t, body.TrainingRuns)

	require.NoError(t, client.InsertUpload(&models.UploadRecord{
		ID:        "up-1",
		Filename:  "fleet.csv",
		RowCount:  4,
		ModelUsed: "random",
		CreatedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=5", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Uploads, 1)
	assert.Equal(t, "fleet.csv", body.Uploads[0].Filename)
	assert.Equal(t, 4, body.Uploads[0].RowCount)
}
