package training

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maintsense/backend/internal/errs"
	"github.com/maintsense/backend/internal/metrics"
	"github.com/maintsense/backend/internal/model"
	"github.com/maintsense/backend/internal/model/artifact"
	"github.com/maintsense/backend/internal/storage/models"
	"github.com/maintsense/backend/internal/storage/sqlite"
	"github.com/maintsense/backend/pkg/logger"
)

const idleMessage = "No training in progress"

// Status is the polled projection of the training state machine. It is
// the only way a caller observes the outcome of a background run.
type Status struct {
	IsTraining bool   `json:"is_training"`
	Progress   int    `json:"progress"`
	Message    string `json:"message"`
}

// Orchestrator runs training as a single-flight background job. At most
// one run may be in flight process-wide; a second request is rejected
// while the first is running.
type Orchestrator struct {
	predictor *model.Predictor
	store     artifact.Store
	path      string
	history   *sqlite.Client

	minSamples int
	maxSamples int

	mu      sync.Mutex
	status  Status
	subs    map[int]chan Status
	nextSub int
}

func NewOrchestrator(predictor *model.Predictor, store artifact.Store, path string, history *sqlite.Client, minSamples, maxSamples int) *Orchestrator {
	if minSamples <= 0 {
		minSamples = 100
	}
	if maxSamples <= 0 {
		maxSamples = 50000
	}
	return &Orchestrator{
		predictor:  predictor,
		store:      store,
		path:       path,
		history:    history,
		minSamples: minSamples,
		maxSamples: maxSamples,
		status:     Status{IsTraining: false, Progress: 0, Message: idleMessage},
		subs:       make(map[int]chan Status),
	}
}

func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Subscribe registers a status listener for push delivery (the websocket
// stream). Slow listeners miss intermediate updates rather than blocking
// the trainer.
func (o *Orchestrator) Subscribe() (int, <-chan Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	id := o.nextSub
	o.nextSub++
	ch := make(chan Status, 8)
	o.subs[id] = ch
	return id, ch
}

// Unsubscribe drops the listener. The channel is left open so an
// in-flight broadcast can never hit a closed channel.
func (o *Orchestrator) Unsubscribe(id int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.subs, id)
}

// Start accepts or rejects a training request. On acceptance the job runs
// in the background and the caller returns immediately; the outcome is
// observable only via Status.
func (o *Orchestrator) Start(nSamples int, retrain bool) error {
	// A busy trainer is reported before any argument problem.
	o.mu.Lock()
	if o.status.IsTraining {
		o.mu.Unlock()
		return fmt.Errorf("%w: training already in progress", errs.ErrConflict)
	}
	if nSamples < o.minSamples || nSamples > o.maxSamples {
		o.mu.Unlock()
		return fmt.Errorf("%w: n_samples must be between %d and %d", errs.ErrValidation, o.minSamples, o.maxSamples)
	}
	o.status = Status{IsTraining: true, Progress: 0, Message: "Generating training data..."}
	o.mu.Unlock()
	o.broadcast()

	go o.run(nSamples, retrain)

	logger.Info("Training accepted", zap.Int("samples", nSamples), zap.Bool("retrain", retrain))
	return nil
}

func (o *Orchestrator) run(nSamples int, retrain bool) {
	start := time.Now()
	runID := uuid.NewString()

	X, y := model.GenerateSyntheticData(nSamples)
	o.setStatus(Status{IsTraining: true, Progress: 30, Message: "Training model..."})

	if err := o.predictor.Train(X, y); err != nil {
		o.fail(runID, nSamples, retrain, start, err)
		return
	}

	o.setStatus(Status{IsTraining: true, Progress: 80, Message: "Saving model..."})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := o.predictor.Save(ctx, o.store, o.path); err != nil {
		o.fail(runID, nSamples, retrain, start, err)
		return
	}

	elapsed := time.Since(start)
	o.setStatus(Status{
		IsTraining: false,
		Progress:   100,
		Message:    fmt.Sprintf("Training completed in %.2fs", elapsed.Seconds()),
	})

	metrics.TrainingRunsTotal.WithLabelValues("success").Inc()
	metrics.TrainingDuration.Observe(elapsed.Seconds())
	o.recordRun(runID, nSamples, retrain, "success", "", elapsed)

	logger.Info("Training completed",
		zap.String("run_id", runID),
		zap.Int("samples", nSamples),
		zap.Duration("elapsed", elapsed),
	)
}

// fail absorbs a background failure into the status cell; it is never
// raised to any caller synchronously and the job is not retried.
func (o *Orchestrator) fail(runID string, nSamples int, retrain bool, start time.Time, err error) {
	o.setStatus(Status{
		IsTraining: false,
		Progress:   0,
		Message:    fmt.Sprintf("Training failed: %v", err),
	})

	metrics.TrainingRunsTotal.WithLabelValues("failure").Inc()
	o.recordRun(runID, nSamples, retrain, "failure", err.Error(), time.Since(start))

	logger.Error("Training failed", zap.String("run_id", runID), zap.Error(err))
}

func (o *Orchestrator) recordRun(runID string, nSamples int, retrain bool, outcome, errText string, elapsed time.Duration) {
	if o.history == nil {
		return
	}
	record := &models.TrainingRunRecord{
		ID:         runID,
		Samples:    nSamples,
		Retrain:    retrain,
		Outcome:    outcome,
		Error:      errText,
		DurationMS: int(elapsed.Milliseconds()),
		CreatedAt:  time.Now(),
	}
	if err := o.history.InsertTrainingRun(record); err != nil {
		logger.Warn("Failed to record training run", zap.Error(err))
	}
}

func (o *Orchestrator) setStatus(s Status) {
	o.mu.Lock()
	o.status = s
	o.mu.Unlock()
	o.broadcast()
}

func (o *Orchestrator) broadcast() {
	o.mu.Lock()
	s := o.status
	channels := make([]chan Status, 0, len(o.subs))
	for _, ch := range o.subs {
		channels = append(channels, ch)
	}
	o.mu.Unlock()

	for _, ch := range channels {
		select {
		case ch <- s:
		default:
		}
	}
}
