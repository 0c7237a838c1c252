package data

import (
	"testing"

	"github.com/phillip1029/ReAgent/internal/domain/workflow"
)

func TestParseRewardExpression(t *testing.T) {
	row := workflow.ExperienceRow{
		Reward:  2.0,
		Metrics: map[string]float64{"ctr": 0.5},
	}

	tests := []struct {
		expr string
		want float64
	}{
		{expr: "reward", want: 2.0},
		{expr: "reward * 3", want: 6.0},
		{expr: "reward + 1.5", want: 3.5},
		{expr: "ctr", want: 0.5},
		{expr: "ctr * 10", want: 5.0},
		{expr: "  reward*2  ", want: 4.0},
		{expr: "missing_metric", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			parsed, err := parseRewardExpression(tt.expr)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := parsed.eval(row); got != tt.want {
				t.Errorf("eval(%q): expected %v, got %v", tt.expr, tt.want, got)
			}
		})
	}
}

func TestParseRewardExpressionRejectsMalformed(t *testing.T) {
	for _, expr := range []string{"", "   ", "reward *", "* 2", "reward * two"} {
		if _, err := parseRewardExpression(expr); err == nil {
			t.Errorf("expected error for %q", expr)
		}
	}
}
