package workflow

import "errors"

// Configuration errors are fatal and never retried. They surface before any
// identification or training work begins, except ErrRewardOptionsNotSet,
// whose source check is late-bound on first metric access.
var (
	// ErrWhitelistPreset is returned when preprocessing options arrive with
	// WhitelistFeatures already set. The whitelist is always derived from
	// the feature configuration, never user-supplied.
	ErrWhitelistPreset = errors.New("workflow: whitelist features must be set via the feature configuration, not preprocessing options")

	// ErrActionOverridesPreset is returned when action preprocessing options
	// arrive with per-feature overrides already set.
	ErrActionOverridesPreset = errors.New("workflow: action feature overrides must not be pre-populated on preprocessing options")

	// ErrEmptyActionFeatures is returned when the action feature
	// configuration has no entries.
	ErrEmptyActionFeatures = errors.New("workflow: action feature configuration must be non-empty")

	// ErrRewardOptionsNotSet is returned when metrics-to-score is accessed
	// before reward options are attached.
	ErrRewardOptionsNotSet = errors.New("workflow: reward options must be set before accessing metrics to score")

	// ErrObserverUnsupported is returned when the configured trainer does
	// not support observer registration.
	ErrObserverUnsupported = errors.New("workflow: trainer does not support observer registration")

	// ErrNormalizationMissing is returned when preprocessing is requested
	// before normalization data exists for both feature spaces.
	ErrNormalizationMissing = errors.New("workflow: normalization data missing, run feature identification first")
)
