// Package workflow provides domain types for the training workflow.
package workflow

import (
	"time"
)

// TableSource identifies the storage backing a logged-experience table.
type TableSource string

const (
	// SourceSQLite is a table inside a SQLite database file.
	SourceSQLite TableSource = "sqlite"
	// SourceParquet is a directory of Parquet files.
	SourceParquet TableSource = "parquet"
)

// TableSpec identifies the source table of logged experience. The workflow
// core passes it through to the identification and query capabilities.
type TableSpec struct {
	TableName       string      `json:"tableName"`
	Source          TableSource `json:"source"`
	Location        string      `json:"location"`
	TableSample     float64     `json:"tableSample,omitempty"`
	EvalTableSample float64     `json:"evalTableSample,omitempty"`
}

// InputColumn selects which column family of the experience table an
// identification pass reads.
type InputColumn string

const (
	ColumnStateFeatures     InputColumn = "state_features"
	ColumnNextStateFeatures InputColumn = "next_state_features"
	ColumnAction            InputColumn = "action"
	ColumnReward            InputColumn = "reward"
)

// PreprocessingOptions configures a feature identification pass.
//
// WhitelistFeatures must never be supplied by the caller: the manager derives
// it from the feature configuration. FeatureOverrides on action options is
// likewise owned by the manager.
type PreprocessingOptions struct {
	NumSamples        int              `json:"numSamples,omitempty"`
	WhitelistFeatures []int64          `json:"whitelistFeatures,omitempty"`
	FeatureOverrides  map[int64]string `json:"featureOverrides,omitempty"`
}

// ReaderOptions configures dataset batch reading.
type ReaderOptions struct {
	MinibatchSize  int `json:"minibatchSize"`
	ReaderPoolSize int `json:"readerPoolSize"`
}

// DefaultReaderOptions returns the default reader options.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{
		MinibatchSize:  1024,
		ReaderPoolSize: 2,
	}
}

// RewardOptions carries an optional custom reward expression and the mapping
// of metric name to reward-value weight used to decide which auxiliary
// metrics are scored during evaluation.
type RewardOptions struct {
	CustomRewardExpression string             `json:"customRewardExpression,omitempty"`
	MetricRewardValues     map[string]float64 `json:"metricRewardValues,omitempty"`
}

// EvaluationParameters gates evaluation behavior for a run.
type EvaluationParameters struct {
	CalcCPEInTraining bool `json:"calcCpeInTraining"`
}

// DefaultEvaluationParameters returns the default evaluation parameters.
func DefaultEvaluationParameters() EvaluationParameters {
	return EvaluationParameters{CalcCPEInTraining: true}
}

// QueryOptions configures a dataset query. The actor-critic workflow always
// queries with continuous actions and without possible-action sets.
type QueryOptions struct {
	DiscreteAction         bool        `json:"discreteAction"`
	IncludePossibleActions bool        `json:"includePossibleActions"`
	CustomRewardExpression string      `json:"customRewardExpression,omitempty"`
	SampleRange            *[2]float64 `json:"sampleRange,omitempty"`
}

// Dataset is an opaque handle to materialized training or eval data. The
// workflow core treats it as a pass-through token.
type Dataset struct {
	ID        string `json:"id"`
	TableName string `json:"tableName"`
	RowCount  int    `json:"rowCount"`
}

// ExperienceRow is one logged transition from the experience table.
type ExperienceRow struct {
	MDPID             string             `json:"mdpId"`
	SequenceNumber    int                `json:"sequenceNumber"`
	StateFeatures     map[int64]float64  `json:"stateFeatures"`
	Action            map[int64]float64  `json:"action"`
	NextStateFeatures map[int64]float64  `json:"nextStateFeatures"`
	Reward            float64            `json:"reward"`
	NotTerminal       bool               `json:"notTerminal"`
	Metrics           map[string]float64 `json:"metrics,omitempty"`

	// SampleKey is a per-row sampling key in [0, 100) used for
	// train/eval splits.
	SampleKey float64 `json:"sampleKey"`
}

// RawBatch is a batch of rows as read from a materialized dataset, before
// preprocessing.
type RawBatch struct {
	StateFeatures     []map[int64]float64
	Action            []map[int64]float64
	NextStateFeatures []map[int64]float64
	Rewards           []float64
	NotTerminal       []float64
	Metrics           []map[string]float64
}

// Len returns the number of rows in the batch.
func (b RawBatch) Len() int {
	return len(b.Rewards)
}

// ============================================================================
// Training Reports
// ============================================================================

// AlgorithmVariant tags a training report with the algorithm that produced it.
type AlgorithmVariant string

const (
	// VariantActorCritic is the actor-critic training algorithm family.
	VariantActorCritic AlgorithmVariant = "actor-critic"
)

// TrainingReport is the structured summary a reporter generates at the end of
// a run.
type TrainingReport struct {
	ReportID      string             `json:"reportId"`
	Epochs        int                `json:"epochs"`
	TrainingSteps int                `json:"trainingSteps"`
	FinalLoss     float64            `json:"finalLoss"`
	LossHistory   []float64          `json:"lossHistory"`
	EvalMetrics   map[string]float64 `json:"evalMetrics,omitempty"`
	GeneratedAt   time.Time          `json:"generatedAt"`
}

// RLTrainingReport is the algorithm-tagged union of training reports.
type RLTrainingReport struct {
	Variant     AlgorithmVariant `json:"variant"`
	ActorCritic *TrainingReport  `json:"actorCritic,omitempty"`
}

// MakeActorCriticReport wraps a reporter summary in the tagged union.
func MakeActorCriticReport(report TrainingReport) RLTrainingReport {
	return RLTrainingReport{
		Variant:     VariantActorCritic,
		ActorCritic: &report,
	}
}

// RLTrainingOutput is the final artifact returned to the caller of Train.
type RLTrainingOutput struct {
	TrainingReport RLTrainingReport `json:"trainingReport"`
}
