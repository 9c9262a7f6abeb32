package risk

import (
	"fmt"
	"math"

	"github.com/maintsense/backend/internal/errs"
	"github.com/maintsense/backend/internal/fleet"
)

const (
	LevelHealthy  = "healthy"
	LevelWarning  = "warning"
	LevelCritical = "critical"
)

const (
	criticalThreshold = 0.7
	warningThreshold  = 0.4
)

// Classify maps a raw failure probability to a risk tier.
func Classify(score float64) string {
	switch {
	case score > criticalThreshold:
		return LevelCritical
	case score > warningThreshold:
		return LevelWarning
	default:
		return LevelHealthy
	}
}

// PredictedDays estimates days until failure from the failure probability.
// A score of 0 yields the full 30-day horizon, a score of 1 yields 0.
func PredictedDays(score float64) int {
	return int(math.Round(30 * (1 - score)))
}

// Round2 rounds a risk score to two decimals for presentation.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FleetSummary aggregates the current assessment batch.
type FleetSummary struct {
	TotalAssets  int     `json:"total_assets"`
	Healthy      int     `json:"healthy"`
	Warning      int     `json:"warning"`
	Critical     int     `json:"critical"`
	AvgRiskScore float64 `json:"avg_risk_score"`
	ModelUsed    string  `json:"model_used"`
}

// Aggregate summarizes a non-empty assessment batch. Callers must guard
// against empty fleets; a mean over zero assets is undefined.
func Aggregate(assessments []fleet.Assessment, modelUsed string) (FleetSummary, error) {
	if len(assessments) == 0 {
		return FleetSummary{}, fmt.Errorf("%w: no assessments to aggregate", errs.ErrValidation)
	}

	summary := FleetSummary{
		TotalAssets: len(assessments),
		ModelUsed:   modelUsed,
	}

	total := 0.0
	for _, a := range assessments {
		total += a.RiskScore
		switch a.RiskLevel {
		case LevelHealthy:
			summary.Healthy++
		case LevelWarning:
			summary.Warning++
		case LevelCritical:
			summary.Critical++
		}
	}
	summary.AvgRiskScore = Round2(total / float64(len(assessments)))

	return summary, nil
}
