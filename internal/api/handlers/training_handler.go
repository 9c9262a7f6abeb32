package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/maintsense/backend/internal/model"
	"github.com/maintsense/backend/internal/training"
	"github.com/maintsense/backend/pkg/logger"
)

type TrainingHandler struct {
	orchestrator   *training.Orchestrator
	predictor      *model.Predictor
	artifactPath   string
	defaultSamples int
}

func NewTrainingHandler(orchestrator *training.Orchestrator, predictor *model.Predictor, artifactPath string, defaultSamples int) *TrainingHandler {
	if defaultSamples <= 0 {
		defaultSamples = 5000
	}
	return &TrainingHandler{
		orchestrator:   orchestrator,
		predictor:      predictor,
		artifactPath:   artifactPath,
		defaultSamples: defaultSamples,
	}
}

// StartTraining accepts a background training request. The response only
// acknowledges acceptance; the outcome is observable via GetStatus.
func (h *TrainingHandler) StartTraining(c *fiber.Ctx) error {
	var req struct {
		NSamples *int `json:"n_samples"`
		Retrain  bool `json:"retrain"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	nSamples := h.defaultSamples
	if req.NSamples != nil {
		nSamples = *req.NSamples
	}

	if err := h.orchestrator.Start(nSamples, req.Retrain); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status":  "started",
		"message": fmt.Sprintf("Model training initiated with %d samples", nSamples),
	})
}

func (h *TrainingHandler) GetStatus(c *fiber.Ctx) error {
	status := h.orchestrator.Status()

	return c.JSON(fiber.Map{
		"is_training":  status.IsTraining,
		"progress":     status.Progress,
		"message":      status.Message,
		"model_loaded": h.predictor.Trained(),
		"model_path":   h.artifactPath,
	})
}
