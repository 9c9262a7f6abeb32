package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/maintsense/backend/internal/storage/models"
	"github.com/maintsense/backend/internal/storage/sqlite"
	"github.com/maintsense/backend/pkg/logger"
)

const defaultHistoryLimit = 20

type HistoryHandler struct {
	history *sqlite.Client
}

func NewHistoryHandler(history *sqlite.Client) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// GetHistory returns the most recent upload and training-run audit rows.
func (h *HistoryHandler) GetHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultHistoryLimit)
	if limit < 1 || limit > 100 {
		limit = defaultHistoryLimit
	}

	uploads, err := h.history.RecentUploads(limit)
	if err != nil {
		logger.Error("Failed to read upload history", zap.Error(err))
		return errorResponse(c, err)
	}

	runs, err := h.history.RecentTrainingRuns(limit)
	if err != nil {
		logger.Error("Failed to read training history", zap.Error(err))
		return errorResponse(c, err)
	}

	if uploads == nil {
		uploads = []models.UploadRecord{}
	}
	if runs == nil {
		runs = []models.TrainingRunRecord{}
	}

	return c.JSON(fiber.Map{
		"uploads":       uploads,
		"training_runs": runs,
	})
}
