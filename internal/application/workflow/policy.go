package workflow

import (
	"fmt"

	domainNeural "github.com/phillip1029/ReAgent/internal/domain/neural"
	infraNeural "github.com/phillip1029/ReAgent/internal/infrastructure/neural"
)

// Policy is a stateless decision-policy interface over a trained actor.
type Policy interface {
	Act(obs domainNeural.FeatureData) (domainNeural.ActorOutput, error)
}

// ActorPolicyWrapper adapts a live actor network into a decision policy.
// The actor's forward pass is our act.
//
// Each Act call brackets the network in eval mode and restores the mode
// found on entry, on every exit path. Calls must not race with training
// steps or other Act calls on the same network; callers serialize access.
type ActorPolicyWrapper struct {
	actorNetwork domainNeural.ActorNetwork
}

// NewActorPolicyWrapper wraps a live actor network. The wrapper holds a
// non-owning reference.
func NewActorPolicyWrapper(actorNetwork domainNeural.ActorNetwork) *ActorPolicyWrapper {
	return &ActorPolicyWrapper{actorNetwork: actorNetwork}
}

// Act runs the actor in eval mode and returns a detached copy of its
// output. Eval mode disables exploration noise and gradient-tape recording,
// so the returned value carries no residual training dependency.
func (w *ActorPolicyWrapper) Act(obs domainNeural.FeatureData) (domainNeural.ActorOutput, error) {
	priorMode := w.actorNetwork.Mode()
	w.actorNetwork.SetMode(domainNeural.ModeEval)
	defer w.actorNetwork.SetMode(priorMode)

	output := w.actorNetwork.Forward(obs)
	return output.Detach(), nil
}

// CreatePolicy creates the online actor-critic policy. With serving true it
// exports a frozen serving module and wraps it in a predictor-backed policy;
// otherwise it returns a live wrapper bound to the in-training network.
func (m *ActorCriticManager) CreatePolicy(serving bool) (Policy, error) {
	if serving {
		if m.deps.ServingExporter == nil {
			return nil, fmt.Errorf("no serving exporter configured")
		}
		return infraNeural.NewPredictorPolicy(m.deps.ServingExporter.BuildServingModule()), nil
	}
	if m.deps.ActorNetwork == nil {
		return nil, fmt.Errorf("no actor network configured")
	}
	return NewActorPolicyWrapper(m.deps.ActorNetwork), nil
}
