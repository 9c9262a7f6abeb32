package fleet

import (
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/maintsense/backend/internal/errs"
)

// Assessment is one asset's scored state from the most recent upload.
type Assessment struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	RiskLevel        string  `json:"riskLevel"`
	RiskScore        float64 `json:"riskScore"`
	Temperature      float64 `json:"temperature"`
	Vibration        float64 `json:"vibration"`
	Pressure         float64 `json:"pressure"`
	Runtime          int     `json:"runtime"`
	LastMaintenance  string  `json:"lastMaintenance"`
	PredictedFailure int     `json:"predictedFailure"`
}

type snapshot struct {
	assets []Assessment
	byID   map[int]Assessment
}

// Store holds the current fleet as a single atomically swapped immutable
// snapshot: the latest upload wins, and readers never see a partial batch.
type Store struct {
	snap atomic.Pointer[snapshot]
}

func NewStore() *Store {
	s := &Store{}
	s.snap.Store(emptySnapshot())
	return s
}

func emptySnapshot() *snapshot {
	return &snapshot{assets: []Assessment{}, byID: map[int]Assessment{}}
}

// Replace installs a new batch wholesale, discarding the previous one.
func (s *Store) Replace(assets []Assessment) {
	next := &snapshot{
		assets: assets,
		byID:   make(map[int]Assessment, len(assets)),
	}
	for _, a := range assets {
		next.byID[a.ID] = a
	}
	s.snap.Store(next)
}

func (s *Store) List() []Assessment {
	return s.snap.Load().assets
}

func (s *Store) Get(id int) (Assessment, error) {
	a, ok := s.snap.Load().byID[id]
	if !ok {
		return Assessment{}, fmt.Errorf("%w: asset %d", errs.ErrNotFound, id)
	}
	return a, nil
}

// Clear drops the snapshot and reports how many assets were held.
func (s *Store) Clear() int {
	old := s.snap.Swap(emptySnapshot())
	return len(old.assets)
}

// HistoryPoint is one entry of the synthesized display series attached to
// asset detail responses. It is illustrative only and never feeds the model.
type HistoryPoint struct {
	Time        string  `json:"time"`
	Temperature float64 `json:"temperature"`
	Vibration   float64 `json:"vibration"`
	Pressure    float64 `json:"pressure"`
}

// SynthesizeHistory produces a 24-point hourly series with mild diurnal
// swing around nominal operating values.
func SynthesizeHistory() []HistoryPoint {
	points := make([]HistoryPoint, 0, 24)
	for i := 0; i < 24; i++ {
		points = append(points, HistoryPoint{
			Time:        fmt.Sprintf("%d:00", i),
			Temperature: 65 + rand.Float64()*20 + math.Sin(float64(i)/3)*10,
			Vibration:   1 + rand.Float64() + math.Sin(float64(i)/4)*0.5,
			Pressure:    95 + rand.Float64()*15 + math.Cos(float64(i)/5)*8,
		})
	}
	return points
}
