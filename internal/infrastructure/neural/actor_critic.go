// Package neural provides actor-critic network infrastructure.
package neural

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	domainNeural "github.com/phillip1029/ReAgent/internal/domain/neural"
)

// ActorCriticNetworkConfig configures an actor-critic network.
type ActorCriticNetworkConfig struct {
	// StateDim is the normalized state dimension.
	StateDim int `json:"stateDim"`

	// ActionDim is the action dimension.
	ActionDim int `json:"actionDim"`

	// HiddenDim is the shared trunk dimension.
	HiddenDim int `json:"hiddenDim"`

	// ExplorationNoise is the stddev of Gaussian action noise in train mode.
	ExplorationNoise float64 `json:"explorationNoise"`

	// Seed seeds weight init and exploration noise. Zero means time-based.
	Seed int64 `json:"seed,omitempty"`
}

// DefaultActorCriticNetworkConfig returns the default network configuration.
func DefaultActorCriticNetworkConfig() ActorCriticNetworkConfig {
	return ActorCriticNetworkConfig{
		StateDim:         16,
		ActionDim:        2,
		HiddenDim:        64,
		ExplorationNoise: 0.1,
	}
}

// tapeEntry records one forward pass for the backward step. Entries are
// recorded only in train mode.
type tapeEntry struct {
	state  []float64
	hidden []float64
	action []float64
}

// ActorCriticNetwork is a shared-trunk actor-critic network: a ReLU trunk
// feeding a tanh policy head and a linear value head. In train mode the
// forward pass adds exploration noise and records a gradient tape; in eval
// mode it is deterministic and records nothing.
type ActorCriticNetwork struct {
	mu     sync.RWMutex
	config ActorCriticNetworkConfig
	rng    *rand.Rand
	mode   domainNeural.Mode

	trunkWeights []float64 // stateDim x hiddenDim
	policyHead   []float64 // hiddenDim x actionDim
	valueHead    []float64 // hiddenDim

	tape []tapeEntry
}

// NewActorCriticNetwork creates a network with Xavier-style init.
func NewActorCriticNetwork(config ActorCriticNetworkConfig) *ActorCriticNetwork {
	if config.StateDim == 0 {
		config.StateDim = 16
	}
	if config.ActionDim == 0 {
		config.ActionDim = 2
	}
	if config.HiddenDim == 0 {
		config.HiddenDim = 64
	}
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	n := &ActorCriticNetwork{
		config:       config,
		rng:          rand.New(rand.NewSource(seed)),
		mode:         domainNeural.ModeTrain,
		trunkWeights: make([]float64, config.StateDim*config.HiddenDim),
		policyHead:   make([]float64, config.HiddenDim*config.ActionDim),
		valueHead:    make([]float64, config.HiddenDim),
	}

	scale := math.Sqrt(2.0 / float64(config.StateDim))
	for i := range n.trunkWeights {
		n.trunkWeights[i] = (n.rng.Float64() - 0.5) * scale
	}
	for i := range n.policyHead {
		n.policyHead[i] = (n.rng.Float64() - 0.5) * 0.1
	}
	for i := range n.valueHead {
		n.valueHead[i] = (n.rng.Float64() - 0.5) * 0.1
	}

	return n
}

// Config returns the network configuration.
func (n *ActorCriticNetwork) Config() ActorCriticNetworkConfig {
	return n.config
}

// Mode returns the current behavioral mode.
func (n *ActorCriticNetwork) Mode() domainNeural.Mode {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.mode
}

// SetMode switches between train and eval behavior.
func (n *ActorCriticNetwork) SetMode(mode domainNeural.Mode) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.mode = mode
}

// Forward runs the actor head over a batch of observations. In train mode
// the emitted actions carry exploration noise and the pass is recorded on
// the gradient tape.
func (n *ActorCriticNetwork) Forward(obs domainNeural.FeatureData) domainNeural.ActorOutput {
	n.mu.Lock()
	defer n.mu.Unlock()

	rows, _ := obs.Float.Dims()
	actions := mat.NewDense(rows, n.config.ActionDim, nil)
	logProbs := mat.NewVecDense(rows, nil)

	for r := 0; r < rows; r++ {
		state := obs.Float.RawRowView(r)
		hidden := n.trunk(state)
		action := n.policy(hidden)

		var logProb float64
		if n.mode == domainNeural.ModeTrain && n.config.ExplorationNoise > 0 {
			for i := range action {
				eps := n.rng.NormFloat64() * n.config.ExplorationNoise
				action[i] = clamp(action[i]+eps, -1, 1)
				logProb += gaussianLogProb(eps, n.config.ExplorationNoise)
			}
		}

		actions.SetRow(r, action)
		logProbs.SetVec(r, logProb)

		if n.mode == domainNeural.ModeTrain {
			n.tape = append(n.tape, tapeEntry{
				state:  append([]float64(nil), state...),
				hidden: hidden,
				action: append([]float64(nil), action...),
			})
		}
	}

	return domainNeural.ActorOutput{Action: actions, LogProb: logProbs}
}

// TapeLen returns the number of recorded forward passes.
func (n *ActorCriticNetwork) TapeLen() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.tape)
}

// ClearTape drops recorded forward passes after a backward step consumed
// them.
func (n *ActorCriticNetwork) ClearTape() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tape = nil
}

// StateValues runs the value head over a batch of normalized states.
func (n *ActorCriticNetwork) StateValues(state *mat.Dense) []float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()

	rows, _ := state.Dims()
	values := make([]float64, rows)
	for r := 0; r < rows; r++ {
		hidden := n.trunk(state.RawRowView(r))
		var v float64
		for h := 0; h < n.config.HiddenDim; h++ {
			v += hidden[h] * n.valueHead[h]
		}
		values[r] = v
	}
	return values
}

// BuildServingModule exports a frozen, inference-only snapshot of the actor.
func (n *ActorCriticNetwork) BuildServingModule() domainNeural.ServingModule {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return &ServingModule{
		config:       n.config,
		trunkWeights: append([]float64(nil), n.trunkWeights...),
		policyHead:   append([]float64(nil), n.policyHead...),
	}
}

// trunk computes the shared hidden layer for one state vector.
// Caller must hold at least a read lock.
func (n *ActorCriticNetwork) trunk(state []float64) []float64 {
	hidden := make([]float64, n.config.HiddenDim)
	for h := 0; h < n.config.HiddenDim; h++ {
		var sum float64
		for i := 0; i < len(state) && i < n.config.StateDim; i++ {
			sum += state[i] * n.trunkWeights[i*n.config.HiddenDim+h]
		}
		hidden[h] = math.Max(0, sum) // ReLU
	}
	return hidden
}

// policy computes the tanh action head for one hidden vector.
func (n *ActorCriticNetwork) policy(hidden []float64) []float64 {
	action := make([]float64, n.config.ActionDim)
	for a := 0; a < n.config.ActionDim; a++ {
		var sum float64
		for h := 0; h < n.config.HiddenDim; h++ {
			sum += hidden[h] * n.policyHead[h*n.config.ActionDim+a]
		}
		action[a] = math.Tanh(sum)
	}
	return action
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func gaussianLogProb(eps, sigma float64) float64 {
	return -0.5*(eps*eps)/(sigma*sigma) - math.Log(sigma*math.Sqrt(2*math.Pi))
}
