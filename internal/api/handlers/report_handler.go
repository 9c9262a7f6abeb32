package handlers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/maintsense/backend/internal/errs"
	"github.com/maintsense/backend/internal/fleet"
	"github.com/maintsense/backend/internal/model"
	"github.com/maintsense/backend/internal/report"
	"github.com/maintsense/backend/internal/risk"
	"github.com/maintsense/backend/pkg/logger"
)

type ReportHandler struct {
	fleet     *fleet.Store
	predictor *model.Predictor
}

func NewReportHandler(store *fleet.Store, predictor *model.Predictor) *ReportHandler {
	return &ReportHandler{
		fleet:     store,
		predictor: predictor,
	}
}

// ExportReport streams the current fleet and its summary as a CSV
// download. It is a pure consumer of the snapshot.
func (h *ReportHandler) ExportReport(c *fiber.Ctx) error {
	assets := h.fleet.List()
	if len(assets) == 0 {
		return errorResponse(c, fmt.Errorf("%w: no assets available, upload CSV first", errs.ErrValidation))
	}

	mode := model.ModeRandom
	if h.predictor.Trained() {
		mode = model.ModeTrained
	}

	summary, err := risk.Aggregate(assets, mode)
	if err != nil {
		return errorResponse(c, err)
	}

	now := time.Now()
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, assets, summary, now); err != nil {
		logger.Error("Failed to generate report", zap.Error(err))
		return errorResponse(c, err)
	}

	filename := fmt.Sprintf("maintenance_report_%s.csv", now.Format("20060102_150405"))
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", filename))
	return c.Send(buf.Bytes())
}
