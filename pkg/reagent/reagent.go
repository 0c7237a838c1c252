// Package reagent is the public facade of the ReAgent-Go training workflow.
package reagent

import (
	appWorkflow "github.com/phillip1029/ReAgent/internal/application/workflow"
	"github.com/phillip1029/ReAgent/internal/config"
	domainNeural "github.com/phillip1029/ReAgent/internal/domain/neural"
	"github.com/phillip1029/ReAgent/internal/domain/workflow"
	"github.com/phillip1029/ReAgent/internal/infrastructure/data"
	infraNeural "github.com/phillip1029/ReAgent/internal/infrastructure/neural"
	"github.com/phillip1029/ReAgent/internal/infrastructure/preprocessing"
)

// Workflow bundles a fully wired actor-critic training workflow.
type Workflow struct {
	Manager *appWorkflow.ActorCriticManager
	Query   *data.QueryExecutor
	Network *infraNeural.ActorCriticNetwork
	Trainer *infraNeural.ActorCriticTrainer

	tableSpec     workflow.TableSpec
	rewardOptions workflow.RewardOptions
	readerOptions workflow.ReaderOptions
	epochs        int
}

// NewWorkflowFromConfig wires the query capability, identifier, network,
// trainer, and manager from a loaded configuration.
func NewWorkflowFromConfig(cfg *config.Config) (*Workflow, error) {
	builder, err := domainNeural.NewActorNetBuilder(domainNeural.ActorNetBuilderVariant(cfg.Network.Builder))
	if err != nil {
		return nil, err
	}

	executor := data.NewQueryExecutor()
	identifier := preprocessing.NewIdentifier(executor)

	network := infraNeural.NewActorCriticNetwork(infraNeural.ActorCriticNetworkConfig{
		StateDim:         len(cfg.Features.State),
		ActionDim:        len(cfg.Features.Action),
		HiddenDim:        cfg.Network.HiddenDim,
		ExplorationNoise: cfg.Network.ExplorationNoise,
		Seed:             cfg.Network.Seed,
	})

	rlParams := domainNeural.RLParameters{
		Gamma:         cfg.RL.Gamma,
		LearningRate:  cfg.RL.LearningRate,
		ValueLossCoef: cfg.RL.ValueLossCoef,
		MaxGradNorm:   cfg.RL.MaxGradNorm,
	}
	trainer := infraNeural.NewActorCriticTrainer(network, rlParams)

	managerConfig := appWorkflow.ManagerConfig{
		ActionFeatureOverride: cfg.Features.ActionFeatureOverride,
		StateFloatFeatures:    featurePairs(cfg.Features.State),
		ActionFloatFeatures:   featurePairs(cfg.Features.Action),
		RLParameters:          rlParams,
		EvalParameters:        workflow.EvaluationParameters{CalcCPEInTraining: cfg.Training.CalcCPEInTraining},
		ReaderOptions: workflow.ReaderOptions{
			MinibatchSize:  cfg.Reader.MinibatchSize,
			ReaderPoolSize: cfg.Reader.ReaderPoolSize,
		},
		UseGPU: cfg.Training.UseGPU,
	}

	manager, err := appWorkflow.NewActorCriticManager(managerConfig, appWorkflow.Dependencies{
		Identifier:      identifier,
		Querier:         executor,
		Reader:          executor,
		Trainer:         trainer,
		NetBuilder:      builder,
		ActorNetwork:    network,
		ServingExporter: network,
	})
	if err != nil {
		return nil, err
	}

	rewardOptions := workflow.RewardOptions{
		CustomRewardExpression: cfg.Reward.CustomRewardExpression,
		MetricRewardValues:     cfg.Reward.MetricRewardValues,
	}
	manager.SetRewardOptions(rewardOptions)

	return &Workflow{
		Manager:       manager,
		Query:         executor,
		Network:       network,
		Trainer:       trainer,
		tableSpec:     tableSpec(cfg.Table),
		rewardOptions: rewardOptions,
		readerOptions: managerConfig.ReaderOptions,
		epochs:        cfg.Training.Epochs,
	}, nil
}

// TableSpec returns the configured experience table.
func (w *Workflow) TableSpec() workflow.TableSpec {
	return w.tableSpec
}

// Run executes the full workflow: identification, dataset queries, and the
// train/evaluate loop.
func (w *Workflow) Run() (workflow.RLTrainingOutput, error) {
	if _, err := w.Manager.RunFeatureIdentification(w.tableSpec); err != nil {
		return workflow.RLTrainingOutput{}, err
	}

	sample := w.tableSpec.TableSample
	if sample <= 0 || sample > 100 {
		sample = 100
	}
	trainRange := [2]float64{0, sample}
	trainDataset, err := w.Manager.QueryData(w.tableSpec, &trainRange, w.rewardOptions)
	if err != nil {
		return workflow.RLTrainingOutput{}, err
	}

	var evalDataset *workflow.Dataset
	if w.Manager.ShouldGenerateEvalDataset() && w.tableSpec.EvalTableSample > 0 {
		evalRange := [2]float64{sample, minFloat(sample+w.tableSpec.EvalTableSample, 100)}
		ds, err := w.Manager.QueryData(w.tableSpec, &evalRange, w.rewardOptions)
		if err != nil {
			return workflow.RLTrainingOutput{}, err
		}
		evalDataset = &ds
	}

	epochs := w.epochs
	if epochs <= 0 {
		epochs = 1
	}
	return w.Manager.Train(trainDataset, evalDataset, epochs, w.readerOptions)
}

func featurePairs(entries []config.FeatureEntry) []workflow.FeaturePair {
	pairs := make([]workflow.FeaturePair, 0, len(entries))
	for _, e := range entries {
		pairs = append(pairs, workflow.FeaturePair{ID: e.ID, Name: e.Name})
	}
	return pairs
}

func tableSpec(t config.TableConfig) workflow.TableSpec {
	return workflow.TableSpec{
		TableName:       t.Name,
		Source:          workflow.TableSource(t.Source),
		Location:        t.Location,
		TableSample:     t.TableSample,
		EvalTableSample: t.EvalTableSample,
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Version is the module version reported by the CLI.
const Version = "0.1.0"
