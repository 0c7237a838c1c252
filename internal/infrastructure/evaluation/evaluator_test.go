package evaluation

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	domainNeural "github.com/phillip1029/ReAgent/internal/domain/neural"
	"github.com/phillip1029/ReAgent/internal/domain/workflow"
	"github.com/phillip1029/ReAgent/internal/shared"
)

func TestGetMetricsToScoreSorted(t *testing.T) {
	got := GetMetricsToScore(map[string]float64{
		"watch_time": 0.5,
		"ctr":        1.0,
		"likes":      0.2,
	})
	want := []string{"ctr", "likes", "watch_time"}
	if len(got) != len(want) {
		t.Fatalf("expected %d metrics, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

type fixedEstimator struct {
	value float64
}

func (e fixedEstimator) EstimateValues(state *mat.Dense) []float64 {
	rows, _ := state.Dims()
	values := make([]float64, rows)
	for i := range values {
		values[i] = e.value
	}
	return values
}

type recordingObserver struct {
	events []shared.TrainingEvent
}

func (o *recordingObserver) Notify(event shared.TrainingEvent) {
	o.events = append(o.events, event)
}

func evalBatches() ([]workflow.RawBatch, []domainNeural.PreprocessedBatch) {
	raw := []workflow.RawBatch{{
		Metrics: []map[string]float64{
			{"ctr": 0.4},
			{"ctr": 0.8},
		},
	}}
	preprocessed := []domainNeural.PreprocessedBatch{{
		State:       mat.NewDense(2, 1, []float64{0.1, 0.2}),
		Action:      mat.NewDense(2, 1, []float64{0.5, -0.5}),
		Rewards:     []float64{1.0, 3.0},
		NotTerminal: []float64{1, 0},
	}}
	return raw, preprocessed
}

func TestEvaluateComputesMeans(t *testing.T) {
	raw, preprocessed := evalBatches()
	e := NewEvaluator(nil, 0.9, nil, []string{"ctr"})

	metrics := e.Evaluate(1, raw, preprocessed)

	if got := metrics["reward_mean"]; got != 2.0 {
		t.Errorf("reward_mean: expected 2.0, got %v", got)
	}
	if got := metrics["ctr_mean"]; math.Abs(got-0.6) > 1e-12 {
		t.Errorf("ctr_mean: expected 0.6, got %v", got)
	}
	if _, ok := metrics["td_error_mean"]; ok {
		t.Errorf("td_error_mean must be absent without a model")
	}
}

func TestEvaluateTDErrorWithModel(t *testing.T) {
	raw, preprocessed := evalBatches()
	e := NewEvaluator(nil, 0.9, fixedEstimator{value: 1.0}, nil)

	metrics := e.Evaluate(1, raw, preprocessed)

	// No next state: targets are 1.0 and 3.0 against value 1.0, errors 0 and 2.
	if got := metrics["td_error_mean"]; got != 1.0 {
		t.Errorf("td_error_mean: expected 1.0, got %v", got)
	}
}

func TestEvaluateNotifiesObservers(t *testing.T) {
	raw, preprocessed := evalBatches()
	e := NewEvaluator(nil, 0.9, nil, []string{"ctr"})

	first := &recordingObserver{}
	second := &recordingObserver{}
	e.AddObserver(first)
	e.AddObserver(second)

	metrics := e.Evaluate(3, raw, preprocessed)

	for name, observer := range map[string]*recordingObserver{"first": first, "second": second} {
		if len(observer.events) != 1 {
			t.Fatalf("%s observer: expected 1 event, got %d", name, len(observer.events))
		}
		event := observer.events[0]
		if event.Type != shared.EventEvaluation {
			t.Errorf("%s observer: expected evaluation event, got %s", name, event.Type)
		}
		if event.Epoch != 3 {
			t.Errorf("%s observer: expected epoch 3, got %d", name, event.Epoch)
		}
		if event.Metrics["reward_mean"] != metrics["reward_mean"] {
			t.Errorf("%s observer: event metrics differ from returned metrics", name)
		}
	}
}

func TestEvaluateEmptyPass(t *testing.T) {
	e := NewEvaluator(nil, 0.9, nil, []string{"ctr"})
	metrics := e.Evaluate(1, nil, nil)
	if len(metrics) != 0 {
		t.Errorf("expected no metrics on an empty pass, got %v", metrics)
	}
}
