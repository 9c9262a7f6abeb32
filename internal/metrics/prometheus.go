package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintsense_uploads_total",
			Help: "Total sensor table uploads processed",
		},
		[]string{"status"},
	)

	UploadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "maintsense_upload_duration_seconds",
			Help:    "Upload scoring duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
	)

	PredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintsense_predictions_total",
			Help: "Total per-asset predictions produced",
		},
		[]string{"mode"},
	)

	RiskScores = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "maintsense_risk_score",
			Help:    "Distribution of raw failure probabilities",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	FleetAssets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "maintsense_fleet_assets",
			Help: "Assets in the current fleet snapshot",
		},
	)

	FleetRiskTier = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "maintsense_fleet_risk_tier",
			Help: "Assets per risk tier in the current fleet snapshot",
		},
		[]string{"level"},
	)

	TrainingRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintsense_training_runs_total",
			Help: "Total training runs by outcome",
		},
		[]string{"outcome"},
	)

	TrainingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "maintsense_training_duration_seconds",
			Help:    "Training run duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)
)

func Init() {
	prometheus.MustRegister(UploadsTotal)
	prometheus.MustRegister(UploadDuration)
	prometheus.MustRegister(PredictionsTotal)
	prometheus.MustRegister(RiskScores)
	prometheus.MustRegister(FleetAssets)
	prometheus.MustRegister(FleetRiskTier)
	prometheus.MustRegister(TrainingRunsTotal)
	prometheus.MustRegister(TrainingDuration)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
