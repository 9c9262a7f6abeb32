package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/maintsense/backend/internal/features"
	"github.com/maintsense/backend/internal/metrics"
	"github.com/maintsense/backend/internal/model"
	"github.com/maintsense/backend/internal/risk"
	"github.com/maintsense/backend/pkg/logger"
)

type PredictHandler struct {
	predictor *model.Predictor
}

func NewPredictHandler(predictor *model.Predictor) *PredictHandler {
	return &PredictHandler{predictor: predictor}
}

// HandlePredict scores a single reading. With no batch context the
// aggregate slots fall back to the fixed defaults.
func (h *PredictHandler) HandlePredict(c *fiber.Ctx) error {
	var req struct {
		Temperature float64 `json:"temperature"`
		Vibration   float64 `json:"vibration"`
		Pressure    float64 `json:"pressure"`
		Runtime     float64 `json:"runtime"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	vector := features.Build(features.Reading{
		Temperature: req.Temperature,
		Vibration:   req.Vibration,
		Pressure:    req.Pressure,
		Runtime:     req.Runtime,
	}, features.DefaultAggregates())

	scores, mode, err := h.predictor.Predict([][]float64{vector})
	if err != nil {
		logger.Error("Prediction failed", zap.Error(err))
		return errorResponse(c, err)
	}

	metrics.PredictionsTotal.WithLabelValues(mode).Inc()
	metrics.RiskScores.Observe(scores[0])

	return c.JSON(fiber.Map{
		"riskScore":        risk.Round2(scores[0] * 100),
		"riskLevel":        risk.Classify(scores[0]),
		"predictedFailure": risk.PredictedDays(scores[0]),
		"model_used":       mode,
	})
}
