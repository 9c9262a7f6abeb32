package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maintsense/backend/internal/dataset"
	"github.com/maintsense/backend/internal/errs"
	"github.com/maintsense/backend/internal/features"
	"github.com/maintsense/backend/internal/fleet"
	"github.com/maintsense/backend/internal/metrics"
	"github.com/maintsense/backend/internal/model"
	"github.com/maintsense/backend/internal/risk"
	"github.com/maintsense/backend/internal/storage/models"
	"github.com/maintsense/backend/internal/storage/sqlite"
	"github.com/maintsense/backend/pkg/logger"
)

type UploadHandler struct {
	predictor *model.Predictor
	fleet     *fleet.Store
	history   *sqlite.Client
}

func NewUploadHandler(predictor *model.Predictor, store *fleet.Store, history *sqlite.Client) *UploadHandler {
	return &UploadHandler{
		predictor: predictor,
		fleet:     store,
		history:   history,
	}
}

// HandleUpload scores an uploaded sensor CSV and replaces the fleet
// snapshot with the result.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	start := time.Now()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return errorResponse(c, fmt.Errorf("%w: missing file field", errs.ErrMalformedInput))
	}

	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".csv") {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return errorResponse(c, fmt.Errorf("%w: %s", errs.ErrNotCSV, fileHeader.Filename))
	}

	file, err := fileHeader.Open()
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		logger.Error("Failed to open uploaded file", zap.Error(err))
		return errorResponse(c, err)
	}
	defer file.Close()

	table, err := dataset.ParseCSV(file)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return errorResponse(c, err)
	}

	batch, err := dataset.Normalize(table, time.Now())
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return errorResponse(c, err)
	}

	aggregates := batch.Aggregates()
	X := make([][]float64, len(batch.Records))
	for i, rec := range batch.Records {
		X[i] = features.Build(features.Reading{
			Temperature: rec.Temperature,
			Vibration:   rec.Vibration,
			Pressure:    rec.Pressure,
			Runtime:     rec.Runtime,
		}, aggregates)
	}

	scores, mode, err := h.predictor.Predict(X)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		logger.Error("Prediction failed", zap.Error(err))
		return errorResponse(c, err)
	}

	assessments := make([]fleet.Assessment, 0, len(batch.Records))
	for i, rec := range batch.Records {
		score := scores[i]
		assessments = append(assessments, fleet.Assessment{
			ID:               i + 1,
			Name:             rec.AssetName,
			RiskLevel:        risk.Classify(score),
			RiskScore:        risk.Round2(score * 100),
			Temperature:      rec.Temperature,
			Vibration:        rec.Vibration,
			Pressure:         rec.Pressure,
			Runtime:          int(rec.Runtime),
			LastMaintenance:  rec.LastMaintenance,
			PredictedFailure: risk.PredictedDays(score),
		})
		metrics.RiskScores.Observe(score)
	}
	metrics.PredictionsTotal.WithLabelValues(mode).Add(float64(len(scores)))

	summary, err := risk.Aggregate(assessments, mode)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		return errorResponse(c, err)
	}

	h.fleet.Replace(assessments)
	metrics.FleetAssets.Set(float64(summary.TotalAssets))
	metrics.FleetRiskTier.WithLabelValues(risk.LevelHealthy).Set(float64(summary.Healthy))
	metrics.FleetRiskTier.WithLabelValues(risk.LevelWarning).Set(float64(summary.Warning))
	metrics.FleetRiskTier.WithLabelValues(risk.LevelCritical).Set(float64(summary.Critical))

	h.recordUpload(fileHeader.Filename, summary)

	metrics.UploadsTotal.WithLabelValues("success").Inc()
	metrics.UploadDuration.Observe(time.Since(start).Seconds())

	logger.Info("Upload scored",
		zap.String("filename", fileHeader.Filename),
		zap.Int("assets", summary.TotalAssets),
		zap.String("model_used", mode),
	)

	return c.JSON(fiber.Map{
		"assets":  assessments,
		"summary": summary,
	})
}

func (h *UploadHandler) recordUpload(filename string, summary risk.FleetSummary) {
	if h.history == nil {
		return
	}
	record := &models.UploadRecord{
		ID:           uuid.NewString(),
		Filename:     filename,
		RowCount:     summary.TotalAssets,
		ModelUsed:    summary.ModelUsed,
		AvgRiskScore: summary.AvgRiskScore,
		Healthy:      summary.Healthy,
		Warning:      summary.Warning,
		Critical:     summary.Critical,
		CreatedAt:    time.Now(),
	}
	if err := h.history.InsertUpload(record); err != nil {
		logger.Warn("Failed to record upload", zap.Error(err))
	}
}
