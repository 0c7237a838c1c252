// Package shared provides shared types used across all modules in ReAgent-Go.
package shared

import (
	"time"
)

// ============================================================================
// Training Events
// ============================================================================

// TrainingEventType identifies the kind of signal emitted during a run.
type TrainingEventType string

const (
	// EventTrainingStep is emitted after each gradient step.
	EventTrainingStep TrainingEventType = "training-step"
	// EventEpochEnd is emitted after each full pass over the train dataset.
	EventEpochEnd TrainingEventType = "epoch-end"
	// EventEvaluation is emitted after each evaluation pass.
	EventEvaluation TrainingEventType = "evaluation"
)

// TrainingEvent is a well-typed record produced per step, epoch, or
// evaluation. Reporters consume the stream and summarize it at the end of
// a run.
type TrainingEvent struct {
	Type  TrainingEventType `json:"type"`
	Epoch int               `json:"epoch"`
	Step  int               `json:"step"`

	// Losses, populated on training-step events.
	Loss       float64 `json:"loss"`
	PolicyLoss float64 `json:"policyLoss"`
	ValueLoss  float64 `json:"valueLoss"`

	// Metrics, populated on evaluation events.
	Metrics map[string]float64 `json:"metrics,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// TrainingObserver receives training events. Observers are notified in
// registration order, synchronously.
type TrainingObserver interface {
	Notify(event TrainingEvent)
}

// ObserverRegistry is implemented by event producers (trainers, evaluators)
// that support observer registration. A trainer that does not implement it
// cannot be used by the training orchestrator.
type ObserverRegistry interface {
	AddObserver(observer TrainingObserver)
}

// ============================================================================
// Helper Functions
// ============================================================================

// Now returns the current time. Indirection point for tests.
var Now = time.Now

// CopyFloat64Map returns a shallow copy of a map[string]float64.
func CopyFloat64Map(source map[string]float64) map[string]float64 {
	if source == nil {
		return nil
	}
	copied := make(map[string]float64, len(source))
	for k, v := range source {
		copied[k] = v
	}
	return copied
}
