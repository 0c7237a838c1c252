package reagent

import (
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/phillip1029/ReAgent/internal/config"
	"github.com/phillip1029/ReAgent/internal/domain/workflow"
	"github.com/phillip1029/ReAgent/internal/infrastructure/data"
)

// seedWorkflow writes an experience table and a matching config file and
// returns the loaded configuration.
func seedWorkflow(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "experience.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := data.InitExperienceTable(db, "experience"); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		row := workflow.ExperienceRow{
			MDPID:             fmt.Sprintf("mdp-%d", i/5),
			SequenceNumber:    i % 5,
			StateFeatures:     map[int64]float64{1: rng.Float64(), 2: rng.Float64() - 0.5},
			Action:            map[int64]float64{100: rng.Float64()*2 - 1},
			NextStateFeatures: map[int64]float64{1: rng.Float64(), 2: rng.Float64() - 0.5},
			Reward:            rng.Float64(),
			NotTerminal:       i%5 != 4,
			Metrics:           map[string]float64{"ctr": rng.Float64()},
			SampleKey:         float64(i) * 5,
		}
		if err := data.InsertExperienceRow(db, "experience", row); err != nil {
			t.Fatalf("failed to insert row: %v", err)
		}
	}

	configPath := filepath.Join(dir, "workflow.yaml")
	content := fmt.Sprintf(`
table:
  name: experience
  source: sqlite
  location: %s
  table_sample: 80
  eval_table_sample: 20
features:
  state:
    - id: 1
      name: pos
    - id: 2
      name: vel
  action:
    - id: 100
      name: torque
reader:
  minibatch_size: 8
reward:
  metric_reward_values:
    ctr: 1.0
training:
  epochs: 2
network:
  hidden_dim: 16
  seed: 11
`, dbPath)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func TestWorkflowRunEndToEnd(t *testing.T) {
	cfg := seedWorkflow(t)

	wf, err := NewWorkflowFromConfig(cfg)
	if err != nil {
		t.Fatalf("failed to wire workflow: %v", err)
	}

	output, err := wf.Run()
	if err != nil {
		t.Fatalf("workflow run failed: %v", err)
	}

	report := output.TrainingReport
	if report.Variant != workflow.VariantActorCritic {
		t.Fatalf("expected variant %s, got %s", workflow.VariantActorCritic, report.Variant)
	}
	if report.ActorCritic == nil {
		t.Fatal("expected a report payload")
	}
	if report.ActorCritic.Epochs != 2 {
		t.Errorf("expected 2 epochs, got %d", report.ActorCritic.Epochs)
	}
	// 16 train rows in [0, 80) at minibatch 8 over 2 epochs.
	if report.ActorCritic.TrainingSteps != 4 {
		t.Errorf("expected 4 training steps, got %d", report.ActorCritic.TrainingSteps)
	}
	if len(report.ActorCritic.EvalMetrics) == 0 {
		t.Errorf("expected eval metrics from the eval sample")
	}
	if _, ok := report.ActorCritic.EvalMetrics["ctr_mean"]; !ok {
		t.Errorf("expected the scored metric in eval metrics, got %v", report.ActorCritic.EvalMetrics)
	}
}

func TestWorkflowIdentificationEndToEnd(t *testing.T) {
	cfg := seedWorkflow(t)

	wf, err := NewWorkflowFromConfig(cfg)
	if err != nil {
		t.Fatalf("failed to wire workflow: %v", err)
	}

	result, err := wf.Manager.RunFeatureIdentification(wf.TableSpec())
	if err != nil {
		t.Fatalf("identification failed: %v", err)
	}

	state := result[workflow.KeyState].DenseNormalizationParameters
	if len(state) != 2 {
		t.Errorf("expected 2 state entries, got %d", len(state))
	}
	action := result[workflow.KeyAction].DenseNormalizationParameters
	if len(action) != 1 {
		t.Fatalf("expected 1 action entry, got %d", len(action))
	}
	// Gaussian actor: continuous-action normalization for the action space.
	if got := action[100].FeatureType; got != workflow.TransformContinuousAction {
		t.Errorf("expected %s for the action feature, got %s", workflow.TransformContinuousAction, got)
	}
}
