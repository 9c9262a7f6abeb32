package handlers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/maintsense/backend/internal/errs"
	"github.com/maintsense/backend/internal/fleet"
	"github.com/maintsense/backend/internal/metrics"
	"github.com/maintsense/backend/internal/risk"
	"github.com/maintsense/backend/pkg/logger"
)

type AssetHandler struct {
	fleet *fleet.Store
}

func NewAssetHandler(store *fleet.Store) *AssetHandler {
	return &AssetHandler{fleet: store}
}

func (h *AssetHandler) ListAssets(c *fiber.Ctx) error {
	return c.JSON(h.fleet.List())
}

func (h *AssetHandler) GetAsset(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return errorResponse(c, fmt.Errorf("%w: asset id must be an integer", errs.ErrValidation))
	}

	asset, err := h.fleet.Get(id)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(struct {
		fleet.Assessment
		HistoricalData []fleet.HistoryPoint `json:"historicalData"`
	}{
		Assessment:     asset,
		HistoricalData: fleet.SynthesizeHistory(),
	})
}

func (h *AssetHandler) ClearAssets(c *fiber.Ctx) error {
	count := h.fleet.Clear()

	metrics.FleetAssets.Set(0)
	metrics.FleetRiskTier.WithLabelValues(risk.LevelHealthy).Set(0)
	metrics.FleetRiskTier.WithLabelValues(risk.LevelWarning).Set(0)
	metrics.FleetRiskTier.WithLabelValues(risk.LevelCritical).Set(0)

	logger.Info("Fleet snapshot cleared", zap.Int("assets", count))

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Cleared %d assets", count),
		"status":  "success",
	})
}
