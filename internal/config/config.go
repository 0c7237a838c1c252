// Package config loads workflow configuration files.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level workflow configuration.
type Config struct {
	Table    TableConfig    `mapstructure:"table"`
	Features FeaturesConfig `mapstructure:"features"`
	RL       RLConfig       `mapstructure:"rl"`
	Reader   ReaderConfig   `mapstructure:"reader"`
	Reward   RewardConfig   `mapstructure:"reward"`
	Training TrainingConfig `mapstructure:"training"`
	Network  NetworkConfig  `mapstructure:"network"`
}

// TableConfig names the logged-experience table.
type TableConfig struct {
	Name            string  `mapstructure:"name"`
	Source          string  `mapstructure:"source"`
	Location        string  `mapstructure:"location"`
	TableSample     float64 `mapstructure:"table_sample"`
	EvalTableSample float64 `mapstructure:"eval_table_sample"`
}

// FeatureEntry is one feature of a feature space.
type FeatureEntry struct {
	ID   int64  `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

// FeaturesConfig lists the state and action feature spaces.
type FeaturesConfig struct {
	State                 []FeatureEntry `mapstructure:"state"`
	Action                []FeatureEntry `mapstructure:"action"`
	ActionFeatureOverride string         `mapstructure:"action_feature_override"`
}

// RLConfig carries the RL hyperparameters.
type RLConfig struct {
	Gamma         float64 `mapstructure:"gamma"`
	LearningRate  float64 `mapstructure:"learning_rate"`
	ValueLossCoef float64 `mapstructure:"value_loss_coef"`
	MaxGradNorm   float64 `mapstructure:"max_grad_norm"`
}

// ReaderConfig configures dataset batch reading.
type ReaderConfig struct {
	MinibatchSize  int `mapstructure:"minibatch_size"`
	ReaderPoolSize int `mapstructure:"reader_pool_size"`
}

// RewardConfig configures reward shaping and metric scoring.
type RewardConfig struct {
	CustomRewardExpression string             `mapstructure:"custom_reward_expression"`
	MetricRewardValues     map[string]float64 `mapstructure:"metric_reward_values"`
}

// TrainingConfig configures the run itself.
type TrainingConfig struct {
	Epochs            int  `mapstructure:"epochs"`
	UseGPU            bool `mapstructure:"use_gpu"`
	CalcCPEInTraining bool `mapstructure:"calc_cpe_in_training"`
}

// NetworkConfig configures the actor-critic network and its builder.
type NetworkConfig struct {
	Builder          string  `mapstructure:"builder"`
	HiddenDim        int     `mapstructure:"hidden_dim"`
	ExplorationNoise float64 `mapstructure:"exploration_noise"`
	Seed             int64   `mapstructure:"seed"`
}

// Load reads a workflow configuration file. Environment variables prefixed
// REAGENT_ override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("table.source", "sqlite")
	v.SetDefault("rl.gamma", 0.99)
	v.SetDefault("rl.learning_rate", 0.001)
	v.SetDefault("rl.value_loss_coef", 0.5)
	v.SetDefault("rl.max_grad_norm", 0.5)
	v.SetDefault("reader.minibatch_size", 1024)
	v.SetDefault("reader.reader_pool_size", 2)
	v.SetDefault("training.epochs", 1)
	v.SetDefault("training.calc_cpe_in_training", true)
	v.SetDefault("network.builder", "gaussian-fc")
	v.SetDefault("network.hidden_dim", 64)
	v.SetDefault("network.exploration_noise", 0.1)

	v.SetEnvPrefix("REAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(cfg.Features.Action) == 0 {
		return nil, fmt.Errorf("config %s: features.action must be non-empty", path)
	}

	return &cfg, nil
}
