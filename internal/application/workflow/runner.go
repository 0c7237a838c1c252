package workflow

import (
	"fmt"

	domainNeural "github.com/phillip1029/ReAgent/internal/domain/neural"
	"github.com/phillip1029/ReAgent/internal/domain/workflow"
	"github.com/phillip1029/ReAgent/internal/infrastructure/evaluation"
	"github.com/phillip1029/ReAgent/internal/shared"
)

// BatchPreprocessor maps a raw batch to normalized tensors.
type BatchPreprocessor interface {
	Preprocess(raw workflow.RawBatch) (domainNeural.PreprocessedBatch, error)
}

// epochTagger is optionally implemented by trainers that tag emitted events
// with the current epoch.
type epochTagger interface {
	SetEpoch(epoch int)
}

// TrainAndEvaluateParams wires the collaborators of one train/evaluate run.
type TrainAndEvaluateParams struct {
	TrainDataset      workflow.Dataset
	EvalDataset       *workflow.Dataset
	Trainer           Trainer
	NumEpochs         int
	UseGPU            bool
	BatchPreprocessor BatchPreprocessor
	Reporter          shared.TrainingObserver
	Evaluator         *evaluation.Evaluator
	ReaderOptions     workflow.ReaderOptions
	Reader            BatchReader
}

// TrainAndEvaluate drives the generic epoch loop: per epoch it streams the
// train dataset through the preprocessor into the trainer, then runs an
// evaluation pass when an eval dataset is present. A nil eval dataset skips
// evaluation; that decision belongs here, not to the orchestrator.
func TrainAndEvaluate(params TrainAndEvaluateParams) error {
	if params.NumEpochs <= 0 {
		return fmt.Errorf("num epochs must be positive, got %d", params.NumEpochs)
	}

	for epoch := 1; epoch <= params.NumEpochs; epoch++ {
		if tagger, ok := params.Trainer.(epochTagger); ok {
			tagger.SetEpoch(epoch)
		}

		trainBatches, err := params.Reader.ReadBatches(params.TrainDataset, params.ReaderOptions)
		if err != nil {
			return fmt.Errorf("epoch %d: read train batches: %w", epoch, err)
		}
		for _, raw := range trainBatches {
			batch, err := params.BatchPreprocessor.Preprocess(raw)
			if err != nil {
				return fmt.Errorf("epoch %d: preprocess: %w", epoch, err)
			}
			params.Trainer.TrainBatch(batch)
		}

		if params.Reporter != nil {
			params.Reporter.Notify(shared.TrainingEvent{
				Type:      shared.EventEpochEnd,
				Epoch:     epoch,
				Timestamp: shared.Now(),
			})
		}

		if params.EvalDataset == nil || params.Evaluator == nil {
			continue
		}
		rawEval, err := params.Reader.ReadBatches(*params.EvalDataset, params.ReaderOptions)
		if err != nil {
			return fmt.Errorf("epoch %d: read eval batches: %w", epoch, err)
		}
		preprocessed := make([]domainNeural.PreprocessedBatch, 0, len(rawEval))
		for _, raw := range rawEval {
			batch, err := params.BatchPreprocessor.Preprocess(raw)
			if err != nil {
				return fmt.Errorf("epoch %d: preprocess eval: %w", epoch, err)
			}
			preprocessed = append(preprocessed, batch)
		}
		params.Evaluator.Evaluate(epoch, rawEval, preprocessed)
	}

	return nil
}
