package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/maintsense/backend/internal/fleet"
	"github.com/maintsense/backend/internal/risk"
)

// WriteCSV renders the current fleet and its summary as a downloadable
// report: an executive summary block followed by the per-asset table.
func WriteCSV(w io.Writer, assets []fleet.Assessment, summary risk.FleetSummary, generatedAt time.Time) error {
	cw := csv.NewWriter(w)

	rows := [][]string{
		{"Maintenance Risk Report"},
		{"Generated", generatedAt.Format("2006-01-02 15:04:05")},
		{},
		{"Metric", "Value"},
		{"Total Assets", strconv.Itoa(summary.TotalAssets)},
		{"Healthy", tierCell(summary.Healthy, summary.TotalAssets)},
		{"Warning", tierCell(summary.Warning, summary.TotalAssets)},
		{"Critical", tierCell(summary.Critical, summary.TotalAssets)},
		{"Average Risk Score", fmt.Sprintf("%.2f%%", summary.AvgRiskScore)},
		{"Model Used", summary.ModelUsed},
		{},
		{"ID", "Name", "Risk Level", "Risk Score", "Temperature", "Vibration", "Pressure", "Runtime", "Last Maintenance", "Predicted Failure (days)"},
	}

	for _, a := range assets {
		rows = append(rows, []string{
			strconv.Itoa(a.ID),
			a.Name,
			a.RiskLevel,
			fmt.Sprintf("%.2f", a.RiskScore),
			fmt.Sprintf("%.2f", a.Temperature),
			fmt.Sprintf("%.2f", a.Vibration),
			fmt.Sprintf("%.2f", a.Pressure),
			strconv.Itoa(a.Runtime),
			a.LastMaintenance,
			strconv.Itoa(a.PredictedFailure),
		})
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func tierCell(count, total int) string {
	if total == 0 {
		return "0"
	}
	return fmt.Sprintf("%d (%.1f%%)", count, float64(count)/float64(total)*100)
}
