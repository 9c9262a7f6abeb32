package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/maintsense/backend/internal/storage/models"
	"github.com/maintsense/backend/pkg/logger"
)

// Client records upload and training-run audit history. The live fleet
// snapshot itself stays in memory; these tables are operational history
// only.
type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS uploads (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		model_used TEXT NOT NULL,
		avg_risk_score REAL NOT NULL,
		healthy INTEGER NOT NULL,
		warning INTEGER NOT NULL,
		critical INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_uploads_created ON uploads(created_at);

	CREATE TABLE IF NOT EXISTS training_runs (
		id TEXT PRIMARY KEY,
		samples INTEGER NOT NULL,
		retrain INTEGER NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL,
		error TEXT,
		duration_ms INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_training_runs_created ON training_runs(created_at);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertUpload(record *models.UploadRecord) error {
	query := `
		INSERT INTO uploads (id, filename, row_count, model_used, avg_risk_score, healthy, warning, critical, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		record.ID,
		record.Filename,
		record.RowCount,
		record.ModelUsed,
		record.AvgRiskScore,
		record.Healthy,
		record.Warning,
		record.Critical,
		record.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert upload record: %w", err)
	}

	logger.Debug("Upload recorded",
		zap.String("upload_id", record.ID),
		zap.Int("rows", record.RowCount),
	)
	return nil
}

func (c *Client) RecentUploads(limit int) ([]models.UploadRecord, error) {
	query := `
		SELECT id, filename, row_count, model_used, avg_risk_score, healthy, warning, critical, created_at
		FROM uploads
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get uploads: %w", err)
	}
	defer rows.Close()

	var records []models.UploadRecord
	for rows.Next() {
		var r models.UploadRecord
		var createdAt int64

		err := rows.Scan(&r.ID, &r.Filename, &r.RowCount, &r.ModelUsed, &r.AvgRiskScore,
			&r.Healthy, &r.Warning, &r.Critical, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, r)
	}

	return records, nil
}

func (c *Client) InsertTrainingRun(record *models.TrainingRunRecord) error {
	query := `
		INSERT INTO training_runs (id, samples, retrain, outcome, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	retrain := 0
	if record.Retrain {
		retrain = 1
	}

	_, err := c.db.Exec(
		query,
		record.ID,
		record.Samples,
		retrain,
		record.Outcome,
		record.Error,
		record.DurationMS,
		record.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert training run: %w", err)
	}

	logger.Info("Training run recorded",
		zap.String("run_id", record.ID),
		zap.String("outcome", record.Outcome),
		zap.Int("samples", record.Samples),
	)
	return nil
}

func (c *Client) RecentTrainingRuns(limit int) ([]models.TrainingRunRecord, error) {
	query := `
		SELECT id, samples, retrain, outcome, error, duration_ms, created_at
		FROM training_runs
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get training runs: %w", err)
	}
	defer rows.Close()

	var records []models.TrainingRunRecord
	for rows.Next() {
		var r models.TrainingRunRecord
		var retrain int
		var createdAt int64
		var errText sql.NullString

		err := rows.Scan(&r.ID, &r.Samples, &retrain, &r.Outcome, &errText, &r.DurationMS, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.Retrain = retrain == 1
		r.Error = errText.String
		r.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, r)
	}

	return records, nil
}
