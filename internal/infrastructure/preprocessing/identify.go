// Package preprocessing provides feature identification and batch
// preprocessing for the training workflow.
package preprocessing

import (
	"fmt"
	"math"

	"github.com/phillip1029/ReAgent/internal/domain/workflow"
)

// FeatureScanner reads the sparse feature maps of one column family from an
// experience table. Implemented by the data layer.
type FeatureScanner interface {
	ScanFeatures(spec workflow.TableSpec, column workflow.InputColumn) ([]map[int64]float64, error)
}

// Identifier derives per-feature normalization parameters from raw table
// columns. It is the identification capability of the workflow.
type Identifier struct {
	scanner    FeatureScanner
	maxSamples int
}

// NewIdentifier creates an identifier over a feature scanner.
func NewIdentifier(scanner FeatureScanner) *Identifier {
	return &Identifier{scanner: scanner, maxSamples: 100000}
}

// Identify computes normalization parameters for every feature the options
// whitelist, honoring per-feature transform overrides. Features never seen in
// the scanned rows still receive an entry with identity statistics, so the
// result is keyed by exactly the whitelisted ids.
func (id *Identifier) Identify(
	spec workflow.TableSpec,
	column workflow.InputColumn,
	options workflow.PreprocessingOptions,
) (map[int64]workflow.NormalizationParameters, error) {
	rows, err := id.scanner.ScanFeatures(spec, column)
	if err != nil {
		return nil, fmt.Errorf("scan %s of %s: %w", column, spec.TableName, err)
	}

	limit := options.NumSamples
	if limit <= 0 || limit > id.maxSamples {
		limit = id.maxSamples
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}

	whitelist := options.WhitelistFeatures
	allowed := make(map[int64]bool, len(whitelist))
	for _, fid := range whitelist {
		allowed[fid] = true
	}

	values := make(map[int64][]float64)
	for _, row := range rows {
		for fid, v := range row {
			if whitelist != nil && !allowed[fid] {
				continue
			}
			values[fid] = append(values[fid], v)
		}
	}

	params := make(map[int64]workflow.NormalizationParameters)
	ids := whitelist
	if ids == nil {
		ids = make([]int64, 0, len(values))
		for fid := range values {
			ids = append(ids, fid)
		}
	}
	for _, fid := range ids {
		p := summarize(values[fid])
		if override, ok := options.FeatureOverrides[fid]; ok {
			p.FeatureType = workflow.TransformKind(override)
		}
		params[fid] = p
	}

	return params, nil
}

// summarize computes the statistics for one feature. Empty samples yield
// identity parameters.
func summarize(samples []float64) workflow.NormalizationParameters {
	if len(samples) == 0 {
		return workflow.NormalizationParameters{
			FeatureType: workflow.TransformContinuous,
			Stddev:      1,
		}
	}

	min, max := samples[0], samples[0]
	var sum float64
	binary := true
	for _, v := range samples {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		if v != 0 && v != 1 {
			binary = false
		}
	}
	mean := sum / float64(len(samples))

	var sqSum float64
	for _, v := range samples {
		d := v - mean
		sqSum += d * d
	}
	stddev := math.Sqrt(sqSum / float64(len(samples)))
	if stddev == 0 {
		stddev = 1
	}

	kind := workflow.TransformContinuous
	if binary {
		kind = workflow.TransformBinary
	}

	return workflow.NormalizationParameters{
		FeatureType: kind,
		Mean:        mean,
		Stddev:      stddev,
		Min:         min,
		Max:         max,
	}
}
