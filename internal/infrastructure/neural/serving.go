package neural

import (
	"math"

	"gonum.org/v1/gonum/mat"

	domainNeural "github.com/phillip1029/ReAgent/internal/domain/neural"
)

// ServingModule is a frozen snapshot of an actor network. It holds its own
// weight copies, never records a tape, and is unaffected by later training
// of the source network.
type ServingModule struct {
	config       ActorCriticNetworkConfig
	trunkWeights []float64
	policyHead   []float64
}

// Predict runs a deterministic forward pass over the frozen weights.
func (m *ServingModule) Predict(obs domainNeural.FeatureData) domainNeural.ActorOutput {
	rows, _ := obs.Float.Dims()
	actions := mat.NewDense(rows, m.config.ActionDim, nil)
	logProbs := mat.NewVecDense(rows, nil)

	for r := 0; r < rows; r++ {
		state := obs.Float.RawRowView(r)

		hidden := make([]float64, m.config.HiddenDim)
		for h := 0; h < m.config.HiddenDim; h++ {
			var sum float64
			for i := 0; i < len(state) && i < m.config.StateDim; i++ {
				sum += state[i] * m.trunkWeights[i*m.config.HiddenDim+h]
			}
			hidden[h] = math.Max(0, sum)
		}

		for a := 0; a < m.config.ActionDim; a++ {
			var sum float64
			for h := 0; h < m.config.HiddenDim; h++ {
				sum += hidden[h] * m.policyHead[h*m.config.ActionDim+a]
			}
			actions.Set(r, a, math.Tanh(sum))
		}
	}

	return domainNeural.ActorOutput{Action: actions, LogProb: logProbs}
}

// PredictorPolicy adapts a serving module to the decision-policy interface.
// The export path cannot back-propagate.
type PredictorPolicy struct {
	module domainNeural.ServingModule
}

// NewPredictorPolicy wraps a serving module.
func NewPredictorPolicy(module domainNeural.ServingModule) *PredictorPolicy {
	return &PredictorPolicy{module: module}
}

// Act returns the module's prediction for the observation.
func (p *PredictorPolicy) Act(obs domainNeural.FeatureData) (domainNeural.ActorOutput, error) {
	return p.module.Predict(obs).Detach(), nil
}
