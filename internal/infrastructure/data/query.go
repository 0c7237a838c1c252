package data

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/phillip1029/ReAgent/internal/domain/workflow"
)

// QueryExecutor materializes datasets from logged-experience tables. It is
// the query capability of the workflow and also serves as the batch reader
// and feature scanner over the tables and datasets it knows.
type QueryExecutor struct {
	mu       sync.RWMutex
	datasets map[string][]workflow.ExperienceRow
}

// NewQueryExecutor creates an executor with an empty dataset registry.
func NewQueryExecutor() *QueryExecutor {
	return &QueryExecutor{datasets: make(map[string][]workflow.ExperienceRow)}
}

// Query materializes a dataset from the table named by the table spec, applying
// the sample-range filter and the custom reward expression. Discrete actions
// and possible-action sets are not part of the actor-critic path.
func (q *QueryExecutor) Query(spec workflow.TableSpec, options workflow.QueryOptions) (workflow.Dataset, error) {
	if options.DiscreteAction {
		return workflow.Dataset{}, fmt.Errorf("discrete actions are not supported by this query path")
	}
	if options.IncludePossibleActions {
		return workflow.Dataset{}, fmt.Errorf("possible-action sets are not supported by this query path")
	}

	source, err := sourceFor(spec)
	if err != nil {
		return workflow.Dataset{}, err
	}
	rows, err := source.ScanRows(spec)
	if err != nil {
		return workflow.Dataset{}, fmt.Errorf("query %s: %w", spec.TableName, err)
	}

	var expr *rewardExpression
	if options.CustomRewardExpression != "" {
		expr, err = parseRewardExpression(options.CustomRewardExpression)
		if err != nil {
			return workflow.Dataset{}, err
		}
	}

	materialized := make([]workflow.ExperienceRow, 0, len(rows))
	for _, row := range rows {
		if options.SampleRange != nil {
			lo, hi := options.SampleRange[0], options.SampleRange[1]
			if row.SampleKey < lo || row.SampleKey >= hi {
				continue
			}
		}
		if expr != nil {
			row.Reward = expr.eval(row)
		}
		materialized = append(materialized, row)
	}

	dataset := workflow.Dataset{
		ID:        uuid.New().String(),
		TableName: spec.TableName,
		RowCount:  len(materialized),
	}

	q.mu.Lock()
	q.datasets[dataset.ID] = materialized
	q.mu.Unlock()

	return dataset, nil
}

// ReadBatches slices a materialized dataset into raw batches of the
// configured minibatch size.
func (q *QueryExecutor) ReadBatches(dataset workflow.Dataset, options workflow.ReaderOptions) ([]workflow.RawBatch, error) {
	q.mu.RLock()
	rows, ok := q.datasets[dataset.ID]
	q.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown dataset %s", dataset.ID)
	}

	size := options.MinibatchSize
	if size <= 0 {
		size = workflow.DefaultReaderOptions().MinibatchSize
	}

	var batches []workflow.RawBatch
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		batch := workflow.RawBatch{}
		for _, row := range rows[start:end] {
			batch.StateFeatures = append(batch.StateFeatures, row.StateFeatures)
			batch.Action = append(batch.Action, row.Action)
			batch.NextStateFeatures = append(batch.NextStateFeatures, row.NextStateFeatures)
			batch.Rewards = append(batch.Rewards, row.Reward)
			notTerminal := 0.0
			if row.NotTerminal {
				notTerminal = 1.0
			}
			batch.NotTerminal = append(batch.NotTerminal, notTerminal)
			batch.Metrics = append(batch.Metrics, row.Metrics)
		}
		batches = append(batches, batch)
	}

	return batches, nil
}

// ScanFeatures reads one column family of a table for feature
// identification.
func (q *QueryExecutor) ScanFeatures(spec workflow.TableSpec, column workflow.InputColumn) ([]map[int64]float64, error) {
	source, err := sourceFor(spec)
	if err != nil {
		return nil, err
	}
	rows, err := source.ScanRows(spec)
	if err != nil {
		return nil, err
	}

	features := make([]map[int64]float64, 0, len(rows))
	for _, row := range rows {
		switch column {
		case workflow.ColumnStateFeatures:
			features = append(features, row.StateFeatures)
		case workflow.ColumnNextStateFeatures:
			features = append(features, row.NextStateFeatures)
		case workflow.ColumnAction:
			features = append(features, row.Action)
		default:
			return nil, fmt.Errorf("column %s has no feature maps", column)
		}
	}
	return features, nil
}

// ReleaseDataset drops a materialized dataset from the registry.
func (q *QueryExecutor) ReleaseDataset(dataset workflow.Dataset) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.datasets, dataset.ID)
}
