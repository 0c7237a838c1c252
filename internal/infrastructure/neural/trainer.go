package neural

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	domainNeural "github.com/phillip1029/ReAgent/internal/domain/neural"
	"github.com/phillip1029/ReAgent/internal/shared"
)

// ActorCriticTrainer performs advantage-weighted updates of an actor-critic
// network from preprocessed logged batches. It supports observer
// registration; registered observers receive one training-step event per
// batch, in registration order.
type ActorCriticTrainer struct {
	mu     sync.Mutex
	net    *ActorCriticNetwork
	params domainNeural.RLParameters

	trunkMomentum  []float64
	policyMomentum []float64
	valueMomentum  []float64

	observers []shared.TrainingObserver

	step  int
	epoch int
}

// NewActorCriticTrainer creates a trainer bound to a network.
func NewActorCriticTrainer(net *ActorCriticNetwork, params domainNeural.RLParameters) *ActorCriticTrainer {
	cfg := net.Config()
	return &ActorCriticTrainer{
		net:            net,
		params:         params,
		trunkMomentum:  make([]float64, cfg.StateDim*cfg.HiddenDim),
		policyMomentum: make([]float64, cfg.HiddenDim*cfg.ActionDim),
		valueMomentum:  make([]float64, cfg.HiddenDim),
	}
}

// AddObserver registers an observer for training-step events.
func (t *ActorCriticTrainer) AddObserver(observer shared.TrainingObserver) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, observer)
}

// Network returns the trained network.
func (t *ActorCriticTrainer) Network() *ActorCriticNetwork {
	return t.net
}

// SetEpoch records the epoch tag carried on emitted events.
func (t *ActorCriticTrainer) SetEpoch(epoch int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.epoch = epoch
}

// TrainBatch performs one gradient step on a preprocessed batch and notifies
// observers.
func (t *ActorCriticTrainer) TrainBatch(batch domainNeural.PreprocessedBatch) domainNeural.TrainStepResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows := batch.Len()
	if rows == 0 {
		return domainNeural.TrainStepResult{}
	}

	cfg := t.net.Config()

	values := t.net.StateValues(batch.State)
	var nextValues []float64
	if batch.NextState != nil {
		nextValues = t.net.StateValues(batch.NextState)
	} else {
		nextValues = make([]float64, rows)
	}

	trunkGrad := make([]float64, cfg.StateDim*cfg.HiddenDim)
	policyGrad := make([]float64, cfg.HiddenDim*cfg.ActionDim)
	valueGrad := make([]float64, cfg.HiddenDim)

	var totalPolicyLoss, totalValueLoss float64

	t.net.mu.Lock()
	for r := 0; r < rows; r++ {
		state := batch.State.RawRowView(r)
		logged := batch.Action.RawRowView(r)

		target := batch.Rewards[r] + t.params.Gamma*batch.NotTerminal[r]*nextValues[r]
		advantage := target - values[r]
		valueError := values[r] - target

		hidden := t.net.trunk(state)
		predicted := t.net.policy(hidden)

		// Advantage-weighted regression toward the logged action.
		var rowPolicyLoss float64
		actionErr := make([]float64, cfg.ActionDim)
		for a := 0; a < cfg.ActionDim; a++ {
			if a < len(logged) {
				actionErr[a] = predicted[a] - logged[a]
			} else {
				actionErr[a] = predicted[a]
			}
			rowPolicyLoss += actionErr[a] * actionErr[a]
		}
		totalPolicyLoss += advantage * rowPolicyLoss
		totalValueLoss += valueError * valueError

		for h := 0; h < cfg.HiddenDim; h++ {
			for a := 0; a < cfg.ActionDim; a++ {
				// tanh derivative through the policy head.
				dTanh := 1 - predicted[a]*predicted[a]
				policyGrad[h*cfg.ActionDim+a] += advantage * actionErr[a] * dTanh * hidden[h]
			}
			valueGrad[h] += hidden[h] * valueError * t.params.ValueLossCoef
		}

		for h := 0; h < cfg.HiddenDim; h++ {
			if hidden[h] <= 0 { // ReLU gradient
				continue
			}
			var signal float64
			for a := 0; a < cfg.ActionDim; a++ {
				dTanh := 1 - predicted[a]*predicted[a]
				signal += advantage * actionErr[a] * dTanh * t.net.policyHead[h*cfg.ActionDim+a]
			}
			signal += valueError * t.net.valueHead[h] * t.params.ValueLossCoef
			for i := 0; i < len(state) && i < cfg.StateDim; i++ {
				trunkGrad[i*cfg.HiddenDim+h] += state[i] * signal
			}
		}
	}

	t.applyGradients(trunkGrad, policyGrad, valueGrad, rows)
	t.net.tape = nil
	t.net.mu.Unlock()

	n := float64(rows)
	result := domainNeural.TrainStepResult{
		PolicyLoss: totalPolicyLoss / n,
		ValueLoss:  totalValueLoss / n,
	}
	result.Loss = result.PolicyLoss + t.params.ValueLossCoef*result.ValueLoss

	t.step++
	event := shared.TrainingEvent{
		Type:       shared.EventTrainingStep,
		Epoch:      t.epoch,
		Step:       t.step,
		Loss:       result.Loss,
		PolicyLoss: result.PolicyLoss,
		ValueLoss:  result.ValueLoss,
		Timestamp:  shared.Now(),
	}
	for _, observer := range t.observers {
		observer.Notify(event)
	}

	return result
}

// EstimateValues exposes the critic for evaluation.
func (t *ActorCriticTrainer) EstimateValues(state *mat.Dense) []float64 {
	return t.net.StateValues(state)
}

// applyGradients applies clipped momentum SGD. Caller holds the network lock.
func (t *ActorCriticTrainer) applyGradients(trunkGrad, policyGrad, valueGrad []float64, batchSize int) {
	lr := t.params.LearningRate / float64(batchSize)
	const beta = 0.9

	clip := func(g float64) float64 {
		return math.Max(math.Min(g, t.params.MaxGradNorm), -t.params.MaxGradNorm)
	}

	for i := range t.net.trunkWeights {
		t.trunkMomentum[i] = beta*t.trunkMomentum[i] + (1-beta)*clip(trunkGrad[i])
		t.net.trunkWeights[i] -= lr * t.trunkMomentum[i]
	}
	for i := range t.net.policyHead {
		t.policyMomentum[i] = beta*t.policyMomentum[i] + (1-beta)*clip(policyGrad[i])
		t.net.policyHead[i] -= lr * t.policyMomentum[i]
	}
	for i := range t.net.valueHead {
		t.valueMomentum[i] = beta*t.valueMomentum[i] + (1-beta)*clip(valueGrad[i])
		t.net.valueHead[i] -= lr * t.valueMomentum[i]
	}
}
