package workflow

import "testing"

func TestFeatureConfigPreservesOrder(t *testing.T) {
	config := NewFeatureConfig([]FeaturePair{
		{ID: 30, Name: "c"},
		{ID: 10, Name: "a"},
		{ID: 20, Name: "b"},
	})

	ids := config.FeatureIDs()
	want := []int64{30, 10, 20}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(ids))
	}
	for i, w := range want {
		if ids[i] != w {
			t.Errorf("position %d: expected %d, got %d", i, w, ids[i])
		}
	}
}

func TestFeatureConfigEmpty(t *testing.T) {
	if !NewFeatureConfig(nil).Empty() {
		t.Errorf("nil pairs should yield an empty config")
	}
	if NewFeatureConfig([]FeaturePair{{ID: 1}}).Empty() {
		t.Errorf("non-empty pairs should not yield an empty config")
	}
}
