// Package neural provides domain types for actor-critic networks.
package neural

import (
	"gonum.org/v1/gonum/mat"
)

// Mode is the behavioral mode of a network. Training-only behavior such as
// exploration noise and gradient-tape recording is active only in ModeTrain.
type Mode string

const (
	// ModeTrain enables stochastic behavior and gradient recording.
	ModeTrain Mode = "train"
	// ModeEval disables training-only behavior for inference.
	ModeEval Mode = "eval"
)

// FeatureData is a dense batch of model input, rows are examples.
type FeatureData struct {
	Float *mat.Dense
}

// ActorOutput is the result of an actor forward pass.
type ActorOutput struct {
	// Action holds one action vector per input row.
	Action *mat.Dense
	// LogProb holds the log-probability of each emitted action.
	LogProb *mat.VecDense
}

// Detach returns a deep copy of the output that shares no storage with the
// network that produced it.
func (o ActorOutput) Detach() ActorOutput {
	detached := ActorOutput{}
	if o.Action != nil {
		detached.Action = mat.DenseCopyOf(o.Action)
	}
	if o.LogProb != nil {
		detached.LogProb = mat.VecDenseCopyOf(o.LogProb)
	}
	return detached
}

// ActorNetwork is the contract a policy wrapper needs from an actor network.
// Implementations are not safe for concurrent mode toggling; callers must
// serialize training and inference use of one instance.
type ActorNetwork interface {
	Mode() Mode
	SetMode(mode Mode)
	Forward(obs FeatureData) ActorOutput
}

// ServingModule is an exported, inference-only form of a trained actor. It
// carries no trainable state.
type ServingModule interface {
	Predict(obs FeatureData) ActorOutput
}

// PreprocessedBatch is a batch after normalization, ready for model
// consumption.
type PreprocessedBatch struct {
	State       *mat.Dense
	Action      *mat.Dense
	NextState   *mat.Dense
	Rewards     []float64
	NotTerminal []float64
}

// Len returns the number of rows in the batch.
func (b PreprocessedBatch) Len() int {
	return len(b.Rewards)
}

// TrainStepResult summarizes one gradient step.
type TrainStepResult struct {
	Loss       float64 `json:"loss"`
	PolicyLoss float64 `json:"policyLoss"`
	ValueLoss  float64 `json:"valueLoss"`
}

// RLParameters carries the reinforcement-learning hyperparameters the
// workflow needs.
type RLParameters struct {
	// Gamma is the discount factor.
	Gamma float64 `json:"gamma"`

	// LearningRate for gradient updates.
	LearningRate float64 `json:"learningRate"`

	// ValueLossCoef is the value loss coefficient.
	ValueLossCoef float64 `json:"valueLossCoef"`

	// MaxGradNorm is the maximum gradient magnitude for clipping.
	MaxGradNorm float64 `json:"maxGradNorm"`
}

// DefaultRLParameters returns the default RL parameters.
func DefaultRLParameters() RLParameters {
	return RLParameters{
		Gamma:         0.99,
		LearningRate:  0.001,
		ValueLossCoef: 0.5,
		MaxGradNorm:   0.5,
	}
}
