// Package commands provides CLI command implementations.
package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phillip1029/ReAgent/internal/config"
	"github.com/phillip1029/ReAgent/internal/domain/workflow"
	"github.com/phillip1029/ReAgent/pkg/reagent"
)

// Flag variables for workflow commands
var (
	workflowConfigPath string

	querySampleLow  float64
	querySampleHigh float64
)

// WorkflowCmd is the parent command for all workflow subcommands.
var WorkflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Actor-critic training workflow commands",
	Long: `Commands for running the actor-critic training workflow.

The workflow covers:
  - Feature identification (normalization statistics)
  - Dataset materialization from logged experience tables
  - The train/evaluate loop with progress reporting`,
}

// identifyCmd derives normalization parameters from the configured table.
var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Run feature identification",
	Long:  `Derive per-feature normalization parameters for the state and action spaces.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		wf, err := loadWorkflow()
		if err != nil {
			return err
		}

		normalization, err := wf.Manager.RunFeatureIdentification(wf.TableSpec())
		if err != nil {
			return err
		}

		return printJSON(normalization)
	},
}

// queryCmd materializes a dataset from the configured table.
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Materialize a dataset",
	Long:  `Query the logged experience table into a materialized dataset.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		wf, err := loadWorkflow()
		if err != nil {
			return err
		}

		var sampleRange *[2]float64
		if querySampleHigh > 0 {
			sampleRange = &[2]float64{querySampleLow, querySampleHigh}
		}

		cfg := wf.TableSpec()
		dataset, err := wf.Manager.QueryData(cfg, sampleRange, workflow.RewardOptions{})
		if err != nil {
			return err
		}

		return printJSON(dataset)
	},
}

// trainCmd runs the full identify/query/train workflow.
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Run the train/evaluate loop",
	Long:  `Run the full workflow: identification, dataset queries, and training.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		wf, err := loadWorkflow()
		if err != nil {
			return err
		}

		output, err := wf.Run()
		if err != nil {
			return err
		}

		return printJSON(output)
	},
}

func loadWorkflow() (*reagent.Workflow, error) {
	if workflowConfigPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(workflowConfigPath)
	if err != nil {
		return nil, err
	}
	return reagent.NewWorkflowFromConfig(cfg)
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func init() {
	WorkflowCmd.PersistentFlags().StringVarP(&workflowConfigPath, "config", "c", "", "workflow configuration file")

	queryCmd.Flags().Float64Var(&querySampleLow, "sample-low", 0, "lower bound of the sample range")
	queryCmd.Flags().Float64Var(&querySampleHigh, "sample-high", 0, "upper bound of the sample range (0 disables filtering)")

	WorkflowCmd.AddCommand(identifyCmd)
	WorkflowCmd.AddCommand(queryCmd)
	WorkflowCmd.AddCommand(trainCmd)
}
