// Package workflow provides the actor-critic training workflow manager.
package workflow

import (
	"fmt"

	domainNeural "github.com/phillip1029/ReAgent/internal/domain/neural"
	"github.com/phillip1029/ReAgent/internal/domain/workflow"
	"github.com/phillip1029/ReAgent/internal/infrastructure/evaluation"
	"github.com/phillip1029/ReAgent/internal/infrastructure/preprocessing"
	"github.com/phillip1029/ReAgent/internal/infrastructure/reporting"
	"github.com/phillip1029/ReAgent/internal/shared"
)

// Identifier is the identification capability: it derives per-feature
// normalization parameters from one column family of a table.
type Identifier interface {
	Identify(spec workflow.TableSpec, column workflow.InputColumn, options workflow.PreprocessingOptions) (map[int64]workflow.NormalizationParameters, error)
}

// Querier is the query capability: it materializes a dataset from a table.
type Querier interface {
	Query(spec workflow.TableSpec, options workflow.QueryOptions) (workflow.Dataset, error)
}

// BatchReader reads raw batches out of a materialized dataset.
type BatchReader interface {
	ReadBatches(dataset workflow.Dataset, options workflow.ReaderOptions) ([]workflow.RawBatch, error)
}

// Trainer consumes preprocessed batches. A trainer used by Train must also
// implement shared.ObserverRegistry; one that does not is a configuration
// error.
type Trainer interface {
	TrainBatch(batch domainNeural.PreprocessedBatch) domainNeural.TrainStepResult
}

// ServingExporter builds a deployable, inference-only serving module from
// the current model state.
type ServingExporter interface {
	BuildServingModule() domainNeural.ServingModule
}

// MetricsResolver resolves the metrics-to-score set from a
// metric-reward-value mapping.
type MetricsResolver func(metricRewardValues map[string]float64) []string

// ManagerConfig is the user-facing configuration of an actor-critic
// workflow.
type ManagerConfig struct {
	StatePreprocessingOptions  *workflow.PreprocessingOptions
	ActionPreprocessingOptions *workflow.PreprocessingOptions

	// ActionFeatureOverride, when non-empty, wins over the net builder's
	// default action preprocessing for every action feature.
	ActionFeatureOverride string

	StateFloatFeatures  []workflow.FeaturePair
	ActionFloatFeatures []workflow.FeaturePair

	RLParameters   domainNeural.RLParameters
	EvalParameters workflow.EvaluationParameters
	ReaderOptions  workflow.ReaderOptions
	UseGPU         bool
}

// Dependencies are the collaborator capabilities the manager wires together.
type Dependencies struct {
	Identifier      Identifier
	Querier         Querier
	Reader          BatchReader
	Trainer         Trainer
	NetBuilder      domainNeural.ActorNetBuilder
	ActorNetwork    domainNeural.ActorNetwork
	ServingExporter ServingExporter
	MetricsResolver MetricsResolver
}

// metricsHolder is the explicit two-state value holder for the lazily
// resolved metrics-to-score set.
type metricsHolder struct {
	computed bool
	value    []string
}

// ActorCriticManager coordinates normalization, preprocessing, and the
// train/evaluate run for one actor-critic workflow. It is single-threaded:
// no two calls into the same instance may run concurrently.
type ActorCriticManager struct {
	config ManagerConfig
	deps   Dependencies

	normalizationData map[workflow.NormalizationKey]workflow.NormalizationData
	rewardOptions     *workflow.RewardOptions
	metrics           metricsHolder
}

// NewActorCriticManager validates the configuration and creates a manager.
// Whitelist features pre-set on either preprocessing options are a
// configuration error: the whitelist is always derived from the float
// feature fields.
func NewActorCriticManager(config ManagerConfig, deps Dependencies) (*ActorCriticManager, error) {
	if config.StatePreprocessingOptions != nil && config.StatePreprocessingOptions.WhitelistFeatures != nil {
		return nil, fmt.Errorf("state preprocessing options: %w (set state_float_features instead)", workflow.ErrWhitelistPreset)
	}
	if config.ActionPreprocessingOptions != nil && config.ActionPreprocessingOptions.WhitelistFeatures != nil {
		return nil, fmt.Errorf("action preprocessing options: %w (set action_float_features instead)", workflow.ErrWhitelistPreset)
	}
	if deps.MetricsResolver == nil {
		deps.MetricsResolver = evaluation.GetMetricsToScore
	}
	if (config.ReaderOptions == workflow.ReaderOptions{}) {
		config.ReaderOptions = workflow.DefaultReaderOptions()
	}

	return &ActorCriticManager{
		config:            config,
		deps:              deps,
		normalizationData: make(map[workflow.NormalizationKey]workflow.NormalizationData),
	}, nil
}

// StateFeatureConfig returns the state feature configuration. It may be
// empty.
func (m *ActorCriticManager) StateFeatureConfig() workflow.FeatureConfig {
	return workflow.NewFeatureConfig(m.config.StateFloatFeatures)
}

// ActionFeatureConfig returns the action feature configuration, which must
// be non-empty.
func (m *ActorCriticManager) ActionFeatureConfig() (workflow.FeatureConfig, error) {
	config := workflow.NewFeatureConfig(m.config.ActionFloatFeatures)
	if config.Empty() {
		return workflow.FeatureConfig{}, workflow.ErrEmptyActionFeatures
	}
	return config, nil
}

// RequiredNormalizationKeys is the exact key set RunFeatureIdentification
// produces and every consumer must supply.
func (m *ActorCriticManager) RequiredNormalizationKeys() []workflow.NormalizationKey {
	return []workflow.NormalizationKey{workflow.KeyState, workflow.KeyAction}
}

// RunFeatureIdentification derives normalization parameters for the state
// and action feature spaces from the input table. The result is keyed by
// exactly RequiredNormalizationKeys and cached on the manager for
// preprocessing.
func (m *ActorCriticManager) RunFeatureIdentification(inputTableSpec workflow.TableSpec) (map[workflow.NormalizationKey]workflow.NormalizationData, error) {
	actionFeatureConfig, err := m.ActionFeatureConfig()
	if err != nil {
		return nil, err
	}

	// State identification: whitelist comes from the feature config,
	// never from the caller.
	stateOptions := workflow.PreprocessingOptions{}
	if m.config.StatePreprocessingOptions != nil {
		stateOptions = *m.config.StatePreprocessingOptions
	}
	stateOptions.WhitelistFeatures = m.StateFeatureConfig().FeatureIDs()

	stateParams, err := m.deps.Identifier.Identify(inputTableSpec, workflow.ColumnStateFeatures, stateOptions)
	if err != nil {
		return nil, fmt.Errorf("state feature identification: %w", err)
	}

	// Action identification: the same override transform is broadcast to
	// every action feature. An explicit manager override wins over the net
	// builder's default.
	actionOptions := workflow.PreprocessingOptions{}
	if m.config.ActionPreprocessingOptions != nil {
		actionOptions = *m.config.ActionPreprocessingOptions
	}
	if actionOptions.FeatureOverrides != nil {
		return nil, workflow.ErrActionOverridesPreset
	}

	override := m.deps.NetBuilder.DefaultActionPreprocessing()
	if m.config.ActionFeatureOverride != "" {
		override = m.config.ActionFeatureOverride
	}

	actionFeatures := actionFeatureConfig.FeatureIDs()
	actionOptions.WhitelistFeatures = actionFeatures
	actionOptions.FeatureOverrides = make(map[int64]string, len(actionFeatures))
	for _, fid := range actionFeatures {
		actionOptions.FeatureOverrides[fid] = override
	}

	actionParams, err := m.deps.Identifier.Identify(inputTableSpec, workflow.ColumnAction, actionOptions)
	if err != nil {
		return nil, fmt.Errorf("action feature identification: %w", err)
	}

	result := map[workflow.NormalizationKey]workflow.NormalizationData{
		workflow.KeyState:  {DenseNormalizationParameters: stateParams},
		workflow.KeyAction: {DenseNormalizationParameters: actionParams},
	}
	m.normalizationData = result
	return result, nil
}

// SetNormalizationData installs externally computed normalization data, for
// callers that skip RunFeatureIdentification. The mapping must cover exactly
// RequiredNormalizationKeys.
func (m *ActorCriticManager) SetNormalizationData(data map[workflow.NormalizationKey]workflow.NormalizationData) error {
	for _, key := range m.RequiredNormalizationKeys() {
		if _, ok := data[key]; !ok {
			return fmt.Errorf("%w: missing %s", workflow.ErrNormalizationMissing, key)
		}
	}
	m.normalizationData = data
	return nil
}

// SetRewardOptions attaches reward options. Must happen before the first
// MetricsToScore access.
func (m *ActorCriticManager) SetRewardOptions(options workflow.RewardOptions) {
	m.rewardOptions = &options
}

// MetricsToScore lazily resolves and caches the metrics-to-score set for
// the lifetime of the manager. Accessing it before reward options are
// attached is a configuration error.
func (m *ActorCriticManager) MetricsToScore() ([]string, error) {
	if !m.metrics.computed {
		if m.rewardOptions == nil {
			return nil, workflow.ErrRewardOptionsNotSet
		}
		m.metrics.value = m.deps.MetricsResolver(m.rewardOptions.MetricRewardValues)
		m.metrics.computed = true
	}
	return m.metrics.value, nil
}

// ShouldGenerateEvalDataset reports whether the workflow wants an eval
// dataset for counterfactual policy evaluation during training.
func (m *ActorCriticManager) ShouldGenerateEvalDataset() bool {
	return m.config.EvalParameters.CalcCPEInTraining
}

// QueryData materializes a dataset for this workflow: continuous actions,
// no possible-action sets.
func (m *ActorCriticManager) QueryData(
	inputTableSpec workflow.TableSpec,
	sampleRange *[2]float64,
	rewardOptions workflow.RewardOptions,
) (workflow.Dataset, error) {
	return m.deps.Querier.Query(inputTableSpec, workflow.QueryOptions{
		DiscreteAction:         false,
		IncludePossibleActions: false,
		CustomRewardExpression: rewardOptions.CustomRewardExpression,
		SampleRange:            sampleRange,
	})
}

// BuildBatchPreprocessor composes the state and action preprocessors over
// the derived normalization data. Normalization data for both feature
// spaces must already exist.
func (m *ActorCriticManager) BuildBatchPreprocessor() (*preprocessing.PolicyNetworkBatchPreprocessor, error) {
	stateData, ok := m.normalizationData[workflow.KeyState]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", workflow.ErrNormalizationMissing, workflow.KeyState)
	}
	actionData, ok := m.normalizationData[workflow.KeyAction]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", workflow.ErrNormalizationMissing, workflow.KeyAction)
	}

	statePreprocessor := preprocessing.NewPreprocessor(stateData.DenseNormalizationParameters, m.config.UseGPU)
	actionPreprocessor := preprocessing.NewPreprocessor(actionData.DenseNormalizationParameters, m.config.UseGPU)
	return preprocessing.NewPolicyNetworkBatchPreprocessor(statePreprocessor, actionPreprocessor, m.config.UseGPU), nil
}

// Train wires the trainer, evaluator, reporter, and batch preprocessor into
// one train/evaluate run and packages the resulting report. The epoch loop
// itself is delegated to TrainAndEvaluate; an absent eval dataset is the
// runner's business to skip.
func (m *ActorCriticManager) Train(
	trainDataset workflow.Dataset,
	evalDataset *workflow.Dataset,
	numEpochs int,
	readerOptions workflow.ReaderOptions,
) (workflow.RLTrainingOutput, error) {
	reporter := reporting.NewActorCriticReporter()

	// The reporter must observe the trainer before any training step runs,
	// else early signals are lost.
	registry, ok := m.deps.Trainer.(shared.ObserverRegistry)
	if !ok {
		return workflow.RLTrainingOutput{}, workflow.ErrObserverUnsupported
	}
	registry.AddObserver(reporter)

	metricsToScore, err := m.MetricsToScore()
	if err != nil {
		return workflow.RLTrainingOutput{}, err
	}

	estimator, _ := m.deps.Trainer.(evaluation.ValueEstimator)
	evaluator := evaluation.NewEvaluator(nil, m.config.RLParameters.Gamma, estimator, metricsToScore)
	evaluator.AddObserver(reporter)

	batchPreprocessor, err := m.BuildBatchPreprocessor()
	if err != nil {
		return workflow.RLTrainingOutput{}, err
	}

	err = TrainAndEvaluate(TrainAndEvaluateParams{
		TrainDataset:      trainDataset,
		EvalDataset:       evalDataset,
		Trainer:           m.deps.Trainer,
		NumEpochs:         numEpochs,
		UseGPU:            m.config.UseGPU,
		BatchPreprocessor: batchPreprocessor,
		Reporter:          reporter,
		Evaluator:         evaluator,
		ReaderOptions:     readerOptions,
		Reader:            m.deps.Reader,
	})
	if err != nil {
		return workflow.RLTrainingOutput{}, err
	}

	report := reporter.GenerateTrainingReport()
	return workflow.RLTrainingOutput{
		TrainingReport: workflow.MakeActorCriticReport(report),
	}, nil
}
