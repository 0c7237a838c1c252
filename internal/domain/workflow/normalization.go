package workflow

// NormalizationKey identifies which feature space a NormalizationData
// instance covers.
type NormalizationKey string

const (
	// KeyState is the state feature space.
	KeyState NormalizationKey = "state"
	// KeyAction is the action feature space.
	KeyAction NormalizationKey = "action"
)

// TransformKind names the preprocessing transform applied to a feature.
type TransformKind string

const (
	TransformContinuous       TransformKind = "CONTINUOUS"
	TransformBinary           TransformKind = "BINARY"
	TransformContinuousAction TransformKind = "CONTINUOUS_ACTION"
	TransformDoNotPreprocess  TransformKind = "DO_NOT_PREPROCESS"
)

// NormalizationParameters holds the per-feature statistics used to convert a
// raw feature value into a standardized range.
type NormalizationParameters struct {
	FeatureType TransformKind `json:"featureType"`
	Mean        float64       `json:"mean"`
	Stddev      float64       `json:"stddev"`
	Min         float64       `json:"min"`
	Max         float64       `json:"max"`
}

// NormalizationData owns the mapping from feature id to derived normalization
// parameters for one feature space. Instances are immutable once computed.
type NormalizationData struct {
	DenseNormalizationParameters map[int64]NormalizationParameters `json:"denseNormalizationParameters"`
}
