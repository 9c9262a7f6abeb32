package model

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maintsense/backend/internal/errs"
	"github.com/maintsense/backend/internal/features"
	"github.com/maintsense/backend/internal/model/artifact"
)

func zeroRows(n int) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, features.Size)
	}
	return rows
}

func TestPredict_UntrainedReturnsRandomScores(t *testing.T) {
	p := NewPredictor(0, 0)
	require.False(t, p.Trained())

	scores, mode, err := p.Predict(zeroRows(5))
	require.NoError(t, err)
	require.Len(t, scores, 5)
	assert.Equal(t, ModeRandom, mode)

	for _, s := range scores {
		assert.GreaterOrEqual(t, s, 0.0)
		assert.Less(t, s, 1.0)
	}
}

func TestPredict_ShapeError(t *testing.T) {
	p := NewPredictor(0, 0)

	_, _, err := p.Predict([][]float64{{1, 2, 3}})
	assert.ErrorIs(t, err, errs.ErrShape)
}

func TestTrain_RejectsBadData(t *testing.T) {
	p := NewPredictor(0, 0)

	err := p.Train(nil, nil)
	assert.ErrorIs(t, err, errs.ErrTrainingData)

	err = p.Train([][]float64{{1, 2}}, []int{0})
	assert.ErrorIs(t, err, errs.ErrTrainingData)

	err = p.Train(zeroRows(2), []int{0})
	assert.ErrorIs(t, err, errs.ErrTrainingData)
}

func TestGenerateSyntheticData(t *testing.T) {
	X, y := GenerateSyntheticData(500)

	require.Len(t, X, 500)
	require.Len(t, y, 500)
	for _, row := range X {
		assert.Len(t, row, features.Size)
	}
	for _, label := range y {
		assert.Contains(t, []int{0, 1}, label)
	}
}

func TestTrainAndPredict_Deterministic(t *testing.T) {
	p := NewPredictor(0, 0)

	X, y := GenerateSyntheticData(300)
	require.NoError(t, p.Train(X, y))
	assert.True(t, p.Trained())

	input := X[:10]
	first, mode, err := p.Predict(input)
	require.NoError(t, err)
	assert.Equal(t, ModeTrained, mode)
	second, _, err := p.Predict(input)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	for _, s := range first {
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestTrain_LearnsSignal(t *testing.T) {
	p := NewPredictor(0, 0)

	X, y := GenerateSyntheticData(2000)
	require.NoError(t, p.Train(X, y))

	hot := make([]float64, features.Size)
	hot[0] = 3
	cold := make([]float64, features.Size)
	cold[0] = -3

	scores, _, err := p.Predict([][]float64{hot, cold})
	require.NoError(t, err)
	assert.Greater(t, scores[0], scores[1])
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	store := artifact.NewFSStore()
	path := filepath.Join(t.TempDir(), "models", "model.json")
	ctx := context.Background()

	p := NewPredictor(0, 0)
	X, y := GenerateSyntheticData(300)
	require.NoError(t, p.Train(X, y))
	require.NoError(t, p.Save(ctx, store, path))

	reloaded := NewPredictor(0, 0)
	require.NoError(t, reloaded.Load(ctx, store, path))
	assert.True(t, reloaded.Trained())

	want, _, err := p.Predict(X[:5])
	require.NoError(t, err)
	got, mode, err := reloaded.Predict(X[:5])
	require.NoError(t, err)
	assert.Equal(t, ModeTrained, mode)
	assert.Equal(t, want, got)
}

func TestSave_UntrainedFails(t *testing.T) {
	p := NewPredictor(0, 0)
	err := p.Save(context.Background(), artifact.NewFSStore(), filepath.Join(t.TempDir(), "model.json"))
	assert.ErrorIs(t, err, errs.ErrTrainingData)
}

func TestLoad_MissingArtifact(t *testing.T) {
	p := NewPredictor(0, 0)
	err := p.Load(context.Background(), artifact.NewFSStore(), filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, artifact.ErrNotExist)
	assert.False(t, p.Trained())
}

func TestLoad_CorruptBlobKeepsPriorState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	p := NewPredictor(0, 0)
	err := p.Load(context.Background(), artifact.NewFSStore(), path)
	assert.ErrorIs(t, err, errs.ErrArtifactCorrupt)
	assert.False(t, p.Trained())

	// Degraded mode still serves predictions.
	scores, mode, err := p.Predict(zeroRows(3))
	require.NoError(t, err)
	assert.Len(t, scores, 3)
	assert.Equal(t, ModeRandom, mode)
}

func TestLoad_LayoutMismatchRejected(t *testing.T) {
	store := artifact.NewFSStore()
	path := filepath.Join(t.TempDir(), "model.json")
	ctx := context.Background()

	p := NewPredictor(0, 0)
	X, y := GenerateSyntheticData(200)
	require.NoError(t, p.Train(X, y))
	require.NoError(t, p.Save(ctx, store, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var blob map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &blob))
	blob["layout"] = "stale-layout"
	data, err = json.Marshal(blob)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	reloaded := NewPredictor(0, 0)
	err = reloaded.Load(ctx, store, path)
	assert.ErrorIs(t, err, errs.ErrArtifactCorrupt)
	assert.False(t, reloaded.Trained())
}

func TestLoad_MissingFieldsRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"kind":"logistic","layout":"x"}`), 0644))

	p := NewPredictor(0, 0)
	err := p.Load(context.Background(), artifact.NewFSStore(), path)
	assert.ErrorIs(t, err, errs.ErrArtifactCorrupt)
}
