package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workflow.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

const validConfig = `
table:
  name: experience
  location: /data/experience.db
  table_sample: 0.8
  eval_table_sample: 0.2
features:
  state:
    - id: 1
      name: pos
    - id: 2
      name: vel
  action:
    - id: 100
      name: torque
rl:
  gamma: 0.95
reward:
  metric_reward_values:
    ctr: 1.0
training:
  epochs: 5
`

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Table.Name != "experience" {
		t.Errorf("table name: expected experience, got %q", cfg.Table.Name)
	}
	if len(cfg.Features.State) != 2 || cfg.Features.State[1].ID != 2 {
		t.Errorf("state features not decoded: %+v", cfg.Features.State)
	}
	if len(cfg.Features.Action) != 1 || cfg.Features.Action[0].Name != "torque" {
		t.Errorf("action features not decoded: %+v", cfg.Features.Action)
	}
	if cfg.RL.Gamma != 0.95 {
		t.Errorf("gamma: expected 0.95, got %v", cfg.RL.Gamma)
	}
	if cfg.Reward.MetricRewardValues["ctr"] != 1.0 {
		t.Errorf("metric reward values not decoded: %v", cfg.Reward.MetricRewardValues)
	}
	if cfg.Training.Epochs != 5 {
		t.Errorf("epochs: expected 5, got %d", cfg.Training.Epochs)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
table:
  name: experience
features:
  action:
    - id: 100
      name: torque
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Table.Source != "sqlite" {
		t.Errorf("default source: expected sqlite, got %q", cfg.Table.Source)
	}
	if cfg.RL.Gamma != 0.99 {
		t.Errorf("default gamma: expected 0.99, got %v", cfg.RL.Gamma)
	}
	if cfg.Reader.MinibatchSize != 1024 {
		t.Errorf("default minibatch size: expected 1024, got %d", cfg.Reader.MinibatchSize)
	}
	if !cfg.Training.CalcCPEInTraining {
		t.Errorf("expected counterfactual evaluation enabled by default")
	}
	if cfg.Network.Builder != "gaussian-fc" {
		t.Errorf("default builder: expected gaussian-fc, got %q", cfg.Network.Builder)
	}
}

func TestLoadConfigRequiresActionFeatures(t *testing.T) {
	path := writeConfig(t, `
table:
  name: experience
features:
  state:
    - id: 1
      name: pos
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for missing action features")
	}
	if !strings.Contains(err.Error(), "features.action") {
		t.Errorf("error should name the missing field, got %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for a missing file")
	}
}
