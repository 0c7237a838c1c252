package neural

import "testing"

func TestNewActorNetBuilder(t *testing.T) {
	tests := []struct {
		variant ActorNetBuilderVariant
		want    string
	}{
		{variant: NetBuilderGaussianFC, want: TransformContinuousActionName},
		{variant: NetBuilderDirichletFC, want: TransformDoNotPreprocessName},
	}

	for _, tt := range tests {
		t.Run(string(tt.variant), func(t *testing.T) {
			builder, err := NewActorNetBuilder(tt.variant)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := builder.Variant(); got != tt.variant {
				t.Errorf("expected variant %s, got %s", tt.variant, got)
			}
			if got := builder.DefaultActionPreprocessing(); got != tt.want {
				t.Errorf("expected default preprocessing %s, got %s", tt.want, got)
			}
		})
	}
}

func TestNewActorNetBuilderUnknownVariant(t *testing.T) {
	if _, err := NewActorNetBuilder("conv-lstm"); err == nil {
		t.Fatal("expected error for unknown variant")
	}
}
