package preprocessing

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	domainNeural "github.com/phillip1029/ReAgent/internal/domain/neural"
	"github.com/phillip1029/ReAgent/internal/domain/workflow"
)

// Preprocessor converts sparse feature maps of one feature space into a dense
// normalized matrix. The only state it carries is the captured normalization
// parameters and the device-affinity flag; applying it leaks nothing between
// calls.
type Preprocessor struct {
	params map[int64]workflow.NormalizationParameters
	order  []int64
	useGPU bool
}

// NewPreprocessor captures normalization parameters for one feature space.
// Column order is ascending feature id.
func NewPreprocessor(params map[int64]workflow.NormalizationParameters, useGPU bool) *Preprocessor {
	order := make([]int64, 0, len(params))
	for fid := range params {
		order = append(order, fid)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	return &Preprocessor{params: params, order: order, useGPU: useGPU}
}

// NumFeatures returns the dense output width.
func (p *Preprocessor) NumFeatures() int {
	return len(p.order)
}

// Apply normalizes a batch of sparse rows into a dense matrix, one column
// per captured feature in ascending id order. Missing features normalize
// as zero raw values.
func (p *Preprocessor) Apply(rows []map[int64]float64) *mat.Dense {
	out := mat.NewDense(maxInt(len(rows), 1), maxInt(len(p.order), 1), nil)
	for r, row := range rows {
		for c, fid := range p.order {
			out.Set(r, c, p.normalize(fid, row[fid]))
		}
	}
	return out
}

func (p *Preprocessor) normalize(fid int64, v float64) float64 {
	np := p.params[fid]
	switch np.FeatureType {
	case workflow.TransformDoNotPreprocess:
		return v
	case workflow.TransformBinary:
		if v != 0 {
			return 1
		}
		return 0
	case workflow.TransformContinuousAction:
		// Rescale [min, max] onto [-1, 1].
		span := np.Max - np.Min
		if span == 0 {
			return 0
		}
		return 2*(v-np.Min)/span - 1
	default:
		return (v - np.Mean) / np.Stddev
	}
}

// PolicyNetworkBatchPreprocessor composes a state and an action preprocessor
// into the batch transform consumed by policy-network training.
type PolicyNetworkBatchPreprocessor struct {
	state  *Preprocessor
	action *Preprocessor
	useGPU bool
}

// NewPolicyNetworkBatchPreprocessor composes the per-space preprocessors.
func NewPolicyNetworkBatchPreprocessor(state, action *Preprocessor, useGPU bool) *PolicyNetworkBatchPreprocessor {
	return &PolicyNetworkBatchPreprocessor{state: state, action: action, useGPU: useGPU}
}

// StatePreprocessor returns the state-space preprocessor.
func (b *PolicyNetworkBatchPreprocessor) StatePreprocessor() *Preprocessor { return b.state }

// ActionPreprocessor returns the action-space preprocessor.
func (b *PolicyNetworkBatchPreprocessor) ActionPreprocessor() *Preprocessor { return b.action }

// Preprocess maps a raw batch to normalized state and action tensors.
func (b *PolicyNetworkBatchPreprocessor) Preprocess(raw workflow.RawBatch) (domainNeural.PreprocessedBatch, error) {
	batch := domainNeural.PreprocessedBatch{
		State:       b.state.Apply(raw.StateFeatures),
		Action:      b.action.Apply(raw.Action),
		Rewards:     append([]float64(nil), raw.Rewards...),
		NotTerminal: append([]float64(nil), raw.NotTerminal...),
	}
	if raw.NextStateFeatures != nil {
		batch.NextState = b.state.Apply(raw.NextStateFeatures)
	}
	return batch, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
