package models

import "time"

type UploadRecord struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	RowCount     int       `json:"row_count"`
	ModelUsed    string    `json:"model_used"`
	AvgRiskScore float64   `json:"avg_risk_score"`
	Healthy      int       `json:"healthy"`
	Warning      int       `json:"warning"`
	Critical     int       `json:"critical"`
	CreatedAt    time.Time `json:"created_at"`
}

type TrainingRunRecord struct {
	ID         string    `json:"id"`
	Samples    int       `json:"samples"`
	Retrain    bool      `json:"retrain"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	DurationMS int       `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
