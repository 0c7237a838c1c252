// Package evaluation provides the training-time evaluator.
package evaluation

import (
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"

	domainNeural "github.com/phillip1029/ReAgent/internal/domain/neural"
	"github.com/phillip1029/ReAgent/internal/domain/workflow"
	"github.com/phillip1029/ReAgent/internal/shared"
)

// GetMetricsToScore resolves the set of auxiliary metrics to score from the
// metric-reward-value mapping. Order is deterministic (ascending name).
func GetMetricsToScore(metricRewardValues map[string]float64) []string {
	metrics := make([]string, 0, len(metricRewardValues))
	for name := range metricRewardValues {
		metrics = append(metrics, name)
	}
	sort.Strings(metrics)
	return metrics
}

// ValueEstimator exposes a critic for evaluation-time value estimates.
// Trainers implement it.
type ValueEstimator interface {
	EstimateValues(state *mat.Dense) []float64
}

// Evaluator scores eval batches and notifies registered observers with one
// evaluation event per pass. Observer order is registration order.
type Evaluator struct {
	mu             sync.Mutex
	actionNames    []string
	gamma          float64
	model          ValueEstimator
	metricsToScore []string
	observers      []shared.TrainingObserver

	passes int
}

// NewEvaluator configures an evaluator. actionNames is nil for continuous
// action spaces; model may be nil, disabling value-based metrics.
func NewEvaluator(actionNames []string, gamma float64, model ValueEstimator, metricsToScore []string) *Evaluator {
	return &Evaluator{
		actionNames:    actionNames,
		gamma:          gamma,
		model:          model,
		metricsToScore: metricsToScore,
	}
}

// AddObserver registers an observer for evaluation events.
func (e *Evaluator) AddObserver(observer shared.TrainingObserver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, observer)
}

// Evaluate scores one eval pass over raw and preprocessed batches. The raw
// batches carry the logged metric columns; the preprocessed batches feed the
// critic.
func (e *Evaluator) Evaluate(epoch int, raw []workflow.RawBatch, preprocessed []domainNeural.PreprocessedBatch) map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		rewardSum float64
		tdSum     float64
		rows      int
	)
	metricSums := make(map[string]float64, len(e.metricsToScore))

	for i, batch := range preprocessed {
		n := batch.Len()
		if n == 0 {
			continue
		}
		rows += n

		for _, r := range batch.Rewards {
			rewardSum += r
		}

		if e.model != nil {
			values := e.model.EstimateValues(batch.State)
			var nextValues []float64
			if batch.NextState != nil {
				nextValues = e.model.EstimateValues(batch.NextState)
			} else {
				nextValues = make([]float64, n)
			}
			for r := 0; r < n; r++ {
				target := batch.Rewards[r] + e.gamma*batch.NotTerminal[r]*nextValues[r]
				tdSum += math.Abs(target - values[r])
			}
		}

		if i < len(raw) {
			for _, rowMetrics := range raw[i].Metrics {
				for _, name := range e.metricsToScore {
					metricSums[name] += rowMetrics[name]
				}
			}
		}
	}

	metrics := make(map[string]float64, len(e.metricsToScore)+2)
	if rows > 0 {
		metrics["reward_mean"] = rewardSum / float64(rows)
		if e.model != nil {
			metrics["td_error_mean"] = tdSum / float64(rows)
		}
		for _, name := range e.metricsToScore {
			metrics[name+"_mean"] = metricSums[name] / float64(rows)
		}
	}

	e.passes++
	event := shared.TrainingEvent{
		Type:      shared.EventEvaluation,
		Epoch:     epoch,
		Step:      e.passes,
		Metrics:   metrics,
		Timestamp: shared.Now(),
	}
	for _, observer := range e.observers {
		observer.Notify(event)
	}

	return metrics
}
