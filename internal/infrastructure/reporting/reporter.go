// Package reporting provides training-run observers and reporters.
package reporting

import (
	"sync"

	"github.com/google/uuid"

	"github.com/phillip1029/ReAgent/internal/domain/workflow"
	"github.com/phillip1029/ReAgent/internal/shared"
)

// ActorCriticReporter accumulates the training event stream of one run and
// summarizes it into a training report. It implements
// shared.TrainingObserver and may be registered on both a trainer and an
// evaluator.
type ActorCriticReporter struct {
	mu     sync.Mutex
	events []shared.TrainingEvent

	steps       int
	epochs      int
	lossHistory []float64
	evalMetrics map[string]float64
}

// NewActorCriticReporter creates an empty reporter.
func NewActorCriticReporter() *ActorCriticReporter {
	return &ActorCriticReporter{}
}

// Notify consumes one training event.
func (r *ActorCriticReporter) Notify(event shared.TrainingEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)

	switch event.Type {
	case shared.EventTrainingStep:
		r.steps++
		r.lossHistory = append(r.lossHistory, event.Loss)
	case shared.EventEpochEnd:
		r.epochs++
	case shared.EventEvaluation:
		r.evalMetrics = shared.CopyFloat64Map(event.Metrics)
	}
}

// Events returns the accumulated event stream in arrival order.
func (r *ActorCriticReporter) Events() []shared.TrainingEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shared.TrainingEvent, len(r.events))
	copy(out, r.events)
	return out
}

// GenerateTrainingReport summarizes the accumulated stream. The reporter
// remains usable afterwards; generating twice over the same stream yields
// the same summary apart from the report id.
func (r *ActorCriticReporter) GenerateTrainingReport() workflow.TrainingReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	var finalLoss float64
	if len(r.lossHistory) > 0 {
		finalLoss = r.lossHistory[len(r.lossHistory)-1]
	}

	return workflow.TrainingReport{
		ReportID:      uuid.New().String(),
		Epochs:        r.epochs,
		TrainingSteps: r.steps,
		FinalLoss:     finalLoss,
		LossHistory:   append([]float64(nil), r.lossHistory...),
		EvalMetrics:   shared.CopyFloat64Map(r.evalMetrics),
		GeneratedAt:   shared.Now(),
	}
}
