package model

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/maintsense/backend/internal/errs"
	"github.com/maintsense/backend/internal/features"
	"github.com/maintsense/backend/internal/model/artifact"
	"github.com/maintsense/backend/pkg/logger"
)

const classifierKind = "logistic"

// Prediction modes reported alongside every score batch.
const (
	ModeTrained = "trained"
	ModeRandom  = "random"
)

// Predictor owns the (scaler, classifier) pair. The pair is always swapped
// as a unit under the write lock, so concurrent Predict calls see either
// the old generation or the new one, never a mix.
type Predictor struct {
	mu         sync.RWMutex
	scaler     *standardScaler
	classifier *logisticClassifier
	trained    bool

	learningRate float64
	epochs       int
}

func NewPredictor(learningRate float64, epochs int) *Predictor {
	if learningRate <= 0 {
		learningRate = 0.1
	}
	if epochs <= 0 {
		epochs = 300
	}
	return &Predictor{
		learningRate: learningRate,
		epochs:       epochs,
	}
}

func (p *Predictor) Trained() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.trained
}

// Train fits a fresh scaler and classifier on X/y and installs them
// atomically. The previous model keeps serving predictions until the swap.
func (p *Predictor) Train(X [][]float64, y []int) error {
	if len(X) == 0 {
		return fmt.Errorf("%w: no training samples", errs.ErrTrainingData)
	}
	if len(y) != len(X) {
		return fmt.Errorf("%w: %d samples but %d labels", errs.ErrTrainingData, len(X), len(y))
	}
	for i, row := range X {
		if len(row) != features.Size {
			return fmt.Errorf("%w: row %d has %d columns, want %d", errs.ErrTrainingData, i, len(row), features.Size)
		}
	}

	scaler := &standardScaler{}
	scaler.fit(X)

	classifier := &logisticClassifier{}
	classifier.fit(scaler.transform(X), y, p.learningRate, p.epochs)

	p.mu.Lock()
	p.scaler = scaler
	p.classifier = classifier
	p.trained = true
	p.mu.Unlock()

	logger.Info("Model trained", zap.Int("samples", len(X)))
	return nil
}

// Predict returns the failure probability in [0,1] for each row plus the
// mode that actually produced the batch. An untrained predictor degrades
// to uniform-random scores rather than refusing; the returned mode keeps
// the report honest even when training finishes mid-request.
func (p *Predictor) Predict(X [][]float64) ([]float64, string, error) {
	for i, row := range X {
		if len(row) != features.Size {
			return nil, "", fmt.Errorf("%w: row %d has %d columns, want %d", errs.ErrShape, i, len(row), features.Size)
		}
	}

	p.mu.RLock()
	scaler := p.scaler
	classifier := p.classifier
	trained := p.trained
	p.mu.RUnlock()

	out := make([]float64, len(X))
	if !trained {
		for i := range out {
			out[i] = rand.Float64()
		}
		return out, ModeRandom, nil
	}

	for i, row := range scaler.transform(X) {
		out[i] = classifier.probability(row)
	}
	return out, ModeTrained, nil
}

type artifactBlob struct {
	Kind       string              `json:"kind"`
	Layout     string              `json:"layout"`
	Scaler     *standardScaler     `json:"scaler"`
	Classifier *logisticClassifier `json:"classifier"`
	SavedAt    time.Time           `json:"saved_at"`
}

// Save serializes the current pair into one opaque blob, tagged with the
// feature-layout fingerprint so a stale artifact is rejected on load.
func (p *Predictor) Save(ctx context.Context, store artifact.Store, path string) error {
	p.mu.RLock()
	blob := artifactBlob{
		Kind:       classifierKind,
		Layout:     features.Fingerprint(),
		Scaler:     p.scaler,
		Classifier: p.classifier,
		SavedAt:    time.Now().UTC(),
	}
	trained := p.trained
	p.mu.RUnlock()

	if !trained {
		return fmt.Errorf("%w: cannot save an untrained model", errs.ErrTrainingData)
	}

	data, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("failed to serialize artifact: %w", err)
	}

	if err := store.Put(ctx, path, data); err != nil {
		return err
	}

	logger.Info("Model saved", zap.String("path", path))
	return nil
}

// Load replaces the pair from a saved artifact. On any validation failure
// the predictor keeps its prior state.
func (p *Predictor) Load(ctx context.Context, store artifact.Store, path string) error {
	data, err := store.Get(ctx, path)
	if err != nil {
		return err
	}

	var blob artifactBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrArtifactCorrupt, err)
	}
	if blob.Scaler == nil || blob.Classifier == nil {
		return fmt.Errorf("%w: missing scaler or classifier", errs.ErrArtifactCorrupt)
	}
	if blob.Kind != classifierKind {
		return fmt.Errorf("%w: unsupported classifier kind %q", errs.ErrArtifactCorrupt, blob.Kind)
	}
	if len(blob.Scaler.Mean) != features.Size || len(blob.Scaler.Std) != features.Size ||
		len(blob.Classifier.Weights) != features.Size {
		return fmt.Errorf("%w: unexpected parameter width", errs.ErrArtifactCorrupt)
	}
	if blob.Layout != features.Fingerprint() {
		return fmt.Errorf("%w: feature layout mismatch, retrain required", errs.ErrArtifactCorrupt)
	}

	p.mu.Lock()
	p.scaler = blob.Scaler
	p.classifier = blob.Classifier
	p.trained = true
	p.mu.Unlock()

	logger.Info("Model loaded", zap.String("path", path), zap.Time("saved_at", blob.SavedAt))
	return nil
}

// GenerateSyntheticData draws n standard-normal feature rows and labels a
// row as failure when its temperature-like or vibration-like slot exceeds
// 1.5, then flips labels on a random 10% subsample. This bootstraps a
// usable model before real failure history exists; the labels do not
// reflect real equipment physics.
func GenerateSyntheticData(n int) ([][]float64, []int) {
	X := make([][]float64, n)
	y := make([]int, n)

	for i := 0; i < n; i++ {
		row := make([]float64, features.Size)
		for j := range row {
			row[j] = rand.NormFloat64()
		}
		X[i] = row
		if row[0] > 1.5 || row[4] > 1.5 {
			y[i] = 1
		}
	}

	for k := 0; k < n/10; k++ {
		idx := rand.Intn(n)
		y[idx] = 1 - y[idx]
	}

	return X, y
}
