package neural

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	domainNeural "github.com/phillip1029/ReAgent/internal/domain/neural"
)

func newTestNet() *ActorCriticNetwork {
	return NewActorCriticNetwork(ActorCriticNetworkConfig{
		StateDim:         3,
		ActionDim:        2,
		HiddenDim:        8,
		ExplorationNoise: 0.2,
		Seed:             7,
	})
}

func obsBatch(rows int) domainNeural.FeatureData {
	data := make([]float64, rows*3)
	for i := range data {
		data[i] = float64(i%3) - 1
	}
	return domainNeural.FeatureData{Float: mat.NewDense(rows, 3, data)}
}

func TestDefaultNetworkConfig(t *testing.T) {
	cfg := DefaultActorCriticNetworkConfig()
	if cfg.StateDim <= 0 || cfg.ActionDim <= 0 || cfg.HiddenDim <= 0 {
		t.Errorf("default dimensions must be positive: %+v", cfg)
	}
	if cfg.ExplorationNoise <= 0 {
		t.Errorf("default exploration noise must be positive, got %v", cfg.ExplorationNoise)
	}
}

func TestNetworkStartsInTrainMode(t *testing.T) {
	net := newTestNet()
	if got := net.Mode(); got != domainNeural.ModeTrain {
		t.Errorf("expected initial mode %s, got %s", domainNeural.ModeTrain, got)
	}
}

func TestForwardRecordsTapeInTrainModeOnly(t *testing.T) {
	net := newTestNet()

	net.Forward(obsBatch(3))
	if got := net.TapeLen(); got != 3 {
		t.Errorf("train mode: expected 3 tape entries, got %d", got)
	}

	net.SetMode(domainNeural.ModeEval)
	net.Forward(obsBatch(2))
	if got := net.TapeLen(); got != 3 {
		t.Errorf("eval mode: tape must not grow, got %d", got)
	}

	net.ClearTape()
	if got := net.TapeLen(); got != 0 {
		t.Errorf("expected empty tape after clear, got %d", got)
	}
}

func TestForwardEvalModeIsDeterministic(t *testing.T) {
	net := newTestNet()
	net.SetMode(domainNeural.ModeEval)

	obs := obsBatch(1)
	first := net.Forward(obs)
	second := net.Forward(obs)
	for a := 0; a < 2; a++ {
		if first.Action.At(0, a) != second.Action.At(0, a) {
			t.Errorf("eval forward must be noise-free: %v vs %v",
				first.Action.RawRowView(0), second.Action.RawRowView(0))
		}
	}
}

func TestForwardTrainModeAddsNoise(t *testing.T) {
	net := newTestNet()

	obs := obsBatch(1)
	first := net.Forward(obs)
	second := net.Forward(obs)

	var differ bool
	for a := 0; a < 2; a++ {
		if first.Action.At(0, a) != second.Action.At(0, a) {
			differ = true
		}
	}
	if !differ {
		t.Errorf("train forward should carry exploration noise")
	}
}

func TestForwardClampsActions(t *testing.T) {
	net := NewActorCriticNetwork(ActorCriticNetworkConfig{
		StateDim:         3,
		ActionDim:        2,
		HiddenDim:        8,
		ExplorationNoise: 5.0,
		Seed:             7,
	})

	out := net.Forward(obsBatch(16))
	rows, cols := out.Action.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if v := out.Action.At(r, c); v < -1 || v > 1 {
				t.Fatalf("action (%d,%d) out of range: %v", r, c, v)
			}
		}
	}
}

func TestServingModuleIsFrozenSnapshot(t *testing.T) {
	net := newTestNet()
	net.SetMode(domainNeural.ModeEval)

	module := net.BuildServingModule()

	obs := obsBatch(1)
	before := module.Predict(obs)
	liveBefore := net.Forward(obs)
	for a := 0; a < 2; a++ {
		if before.Action.At(0, a) != liveBefore.Action.At(0, a) {
			t.Fatalf("snapshot should match the live network at export time")
		}
	}

	// Push the live weights around; the snapshot must not move.
	trainer := NewActorCriticTrainer(net, domainNeural.RLParameters{
		Gamma: 0.99, LearningRate: 0.5, ValueLossCoef: 0.5, MaxGradNorm: 1.0,
	})
	batch := domainNeural.PreprocessedBatch{
		State:       mat.NewDense(1, 3, []float64{1, -1, 0.5}),
		Action:      mat.NewDense(1, 2, []float64{0.9, -0.9}),
		NextState:   mat.NewDense(1, 3, []float64{0.5, 0.5, -0.5}),
		Rewards:     []float64{2},
		NotTerminal: []float64{1},
	}
	for i := 0; i < 5; i++ {
		trainer.TrainBatch(batch)
	}

	after := module.Predict(obs)
	for a := 0; a < 2; a++ {
		if after.Action.At(0, a) != before.Action.At(0, a) {
			t.Errorf("snapshot moved after training: %v -> %v",
				before.Action.RawRowView(0), after.Action.RawRowView(0))
		}
	}
}
