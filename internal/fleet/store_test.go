package fleet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maintsense/backend/internal/errs"
)

func sampleAssets() []Assessment {
	return []Assessment{
		{ID: 1, Name: "Pump-1", RiskLevel: "healthy", RiskScore: 12.5},
		{ID: 2, Name: "Pump-2", RiskLevel: "critical", RiskScore: 88.0},
	}
}

func TestStore_StartsEmpty(t *testing.T) {
	s := NewStore()

	assert.Empty(t, s.List())
	_, err := s.Get(1)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestStore_ReplaceAndGet(t *testing.T) {
	s := NewStore()
	s.Replace(sampleAssets())

	assert.Len(t, s.List(), 2)

	asset, err := s.Get(2)
	require.NoError(t, err)
	assert.Equal(t, "Pump-2", asset.Name)
}

func TestStore_LatestUploadWins(t *testing.T) {
	s := NewStore()
	s.Replace(sampleAssets())
	s.Replace([]Assessment{{ID: 1, Name: "Fan-1", RiskLevel: "warning", RiskScore: 50}})

	assert.Len(t, s.List(), 1)

	_, err := s.Get(2)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()
	s.Replace(sampleAssets())

	assert.Equal(t, 2, s.Clear())
	assert.Empty(t, s.List())

	_, err := s.Get(1)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	assert.Equal(t, 0, s.Clear())
}

func TestSynthesizeHistory(t *testing.T) {
	points := SynthesizeHistory()

	require.Len(t, points, 24)
	assert.Equal(t, "0:00", points[0].Time)
	assert.Equal(t, "23:00", points[23].Time)

	for _, p := range points {
		assert.Greater(t, p.Temperature, 0.0)
		assert.Greater(t, p.Pressure, 0.0)
	}
}
