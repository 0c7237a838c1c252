package workflow

// FeaturePair is one (feature-id, feature-name) entry of a feature
// configuration.
type FeaturePair struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// FloatFeatureInfo describes one float feature of a model input.
type FloatFeatureInfo struct {
	FeatureID int64  `json:"featureId"`
	Name      string `json:"name"`
}

// FeatureConfig is an ordered list of float-feature descriptors. Order is
// preserved from the caller's configuration; duplicates are the caller's
// responsibility.
type FeatureConfig struct {
	FloatFeatureInfos []FloatFeatureInfo `json:"floatFeatureInfos"`
}

// NewFeatureConfig turns (feature-id, feature-name) pairs into a structured
// feature configuration.
func NewFeatureConfig(features []FeaturePair) FeatureConfig {
	infos := make([]FloatFeatureInfo, 0, len(features))
	for _, f := range features {
		infos = append(infos, FloatFeatureInfo{FeatureID: f.ID, Name: f.Name})
	}
	return FeatureConfig{FloatFeatureInfos: infos}
}

// FeatureIDs returns the feature ids in configuration order.
func (c FeatureConfig) FeatureIDs() []int64 {
	ids := make([]int64, 0, len(c.FloatFeatureInfos))
	for _, info := range c.FloatFeatureInfos {
		ids = append(ids, info.FeatureID)
	}
	return ids
}

// Empty reports whether the configuration has no features.
func (c FeatureConfig) Empty() bool {
	return len(c.FloatFeatureInfos) == 0
}
