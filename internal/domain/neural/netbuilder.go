package neural

import "fmt"

// ActorNetBuilderVariant names a closed set of actor network builders,
// selected by configuration.
type ActorNetBuilderVariant string

const (
	// NetBuilderGaussianFC is a fully connected actor with Gaussian action
	// noise; actions are continuous and must be normalized.
	NetBuilderGaussianFC ActorNetBuilderVariant = "gaussian-fc"
	// NetBuilderDirichletFC is a fully connected actor with Dirichlet
	// outputs; actions are simplex-valued and left unpreprocessed.
	NetBuilderDirichletFC ActorNetBuilderVariant = "dirichlet-fc"
)

// ActorNetBuilder exposes the preprocessing contract of an actor network
// family. The workflow uses DefaultActionPreprocessing as the fallback
// override for every action feature.
type ActorNetBuilder interface {
	Variant() ActorNetBuilderVariant
	DefaultActionPreprocessing() string
}

// GaussianFCBuilder builds fully connected Gaussian actors.
type GaussianFCBuilder struct{}

func (GaussianFCBuilder) Variant() ActorNetBuilderVariant { return NetBuilderGaussianFC }

func (GaussianFCBuilder) DefaultActionPreprocessing() string {
	return string(TransformContinuousActionName)
}

// DirichletFCBuilder builds fully connected Dirichlet actors.
type DirichletFCBuilder struct{}

func (DirichletFCBuilder) Variant() ActorNetBuilderVariant { return NetBuilderDirichletFC }

func (DirichletFCBuilder) DefaultActionPreprocessing() string {
	return string(TransformDoNotPreprocessName)
}

// Transform names mirrored here so builders do not depend on the workflow
// package.
const (
	TransformContinuousActionName = "CONTINUOUS_ACTION"
	TransformDoNotPreprocessName  = "DO_NOT_PREPROCESS"
)

// NewActorNetBuilder selects a builder by variant.
func NewActorNetBuilder(variant ActorNetBuilderVariant) (ActorNetBuilder, error) {
	switch variant {
	case NetBuilderGaussianFC:
		return GaussianFCBuilder{}, nil
	case NetBuilderDirichletFC:
		return DirichletFCBuilder{}, nil
	default:
		return nil, fmt.Errorf("unknown actor net builder variant: %s", variant)
	}
}
