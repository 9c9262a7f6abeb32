package training

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maintsense/backend/internal/errs"
	"github.com/maintsense/backend/internal/model"
	"github.com/maintsense/backend/internal/model/artifact"
)

// memStore keeps artifacts in memory; an optional gate blocks Put so tests
// can hold a run in its persistence phase.
type memStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	gate  chan struct{}
	fail  bool
}

func newMemStore() *memStore {
	return &memStore{blobs: make(map[string][]byte)}
}

func (s *memStore) Put(_ context.Context, path string, blob []byte) error {
	if s.gate != nil {
		<-s.gate
	}
	if s.fail {
		return assert.AnError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[path] = blob
	return nil
}

func (s *memStore) Get(_ context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob, ok := s.blobs[path]
	if !ok {
		return nil, artifact.ErrNotExist
	}
	return blob, nil
}

func waitIdle(t *testing.T, o *Orchestrator) Status {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if s := o.Status(); !s.IsTraining {
			return s
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("training did not finish in time")
	return Status{}
}

func newTestOrchestrator(store artifact.Store) (*Orchestrator, *model.Predictor) {
	predictor := model.NewPredictor(0.1, 50)
	return NewOrchestrator(predictor, store, "model.json", nil, 100, 50000), predictor
}

func TestStatus_InitialState(t *testing.T) {
	o, _ := newTestOrchestrator(newMemStore())

	s := o.Status()
	assert.False(t, s.IsTraining)
	assert.Equal(t, 0, s.Progress)
	assert.Equal(t, "No training in progress", s.Message)
}

func TestStart_RejectsOutOfRangeSamples(t *testing.T) {
	o, _ := newTestOrchestrator(newMemStore())

	assert.ErrorIs(t, o.Start(50, false), errs.ErrValidation)
	assert.ErrorIs(t, o.Start(99, false), errs.ErrValidation)
	assert.ErrorIs(t, o.Start(50001, false), errs.ErrValidation)
}

func TestStart_AcceptsMinimumAndCompletes(t *testing.T) {
	store := newMemStore()
	o, predictor := newTestOrchestrator(store)

	require.NoError(t, o.Start(100, false))

	s := waitIdle(t, o)
	assert.Equal(t, 100, s.Progress)
	assert.Contains(t, s.Message, "Training completed")
	assert.True(t, predictor.Trained())

	_, err := store.Get(context.Background(), "model.json")
	assert.NoError(t, err)
}

func TestStart_ConflictWhileRunning(t *testing.T) {
	store := newMemStore()
	store.gate = make(chan struct{})
	o, _ := newTestOrchestrator(store)

	require.NoError(t, o.Start(100, false))

	err := o.Start(100, false)
	assert.ErrorIs(t, err, errs.ErrConflict)

	close(store.gate)
	waitIdle(t, o)

	// Once idle a new request is accepted again.
	assert.NoError(t, o.Start(100, false))
	waitIdle(t, o)
}

func TestStart_ConflictReportedBeforeRange(t *testing.T) {
	store := newMemStore()
	store.gate = make(chan struct{})
	o, _ := newTestOrchestrator(store)

	require.NoError(t, o.Start(100, false))

	// An out-of-range request against a busy trainer is still a conflict.
	err := o.Start(50, false)
	assert.ErrorIs(t, err, errs.ErrConflict)
	assert.NotErrorIs(t, err, errs.ErrValidation)

	close(store.gate)
	waitIdle(t, o)
}

func TestRun_FailureAbsorbedIntoStatus(t *testing.T) {
	store := newMemStore()
	store.fail = true
	o, _ := newTestOrchestrator(store)

	require.NoError(t, o.Start(100, false))

	s := waitIdle(t, o)
	assert.Equal(t, 0, s.Progress)
	assert.True(t, strings.HasPrefix(s.Message, "Training failed"), s.Message)
}

func TestSubscribe_ReceivesUpdates(t *testing.T) {
	o, _ := newTestOrchestrator(newMemStore())

	id, updates := o.Subscribe()
	defer o.Unsubscribe(id)

	require.NoError(t, o.Start(100, false))
	waitIdle(t, o)

	var got []Status
	for {
		select {
		case s := <-updates:
			got = append(got, s)
			continue
		default:
		}
		break
	}

	require.NotEmpty(t, got)
	last := got[len(got)-1]
	assert.False(t, last.IsTraining)
	assert.Equal(t, 100, last.Progress)
}
