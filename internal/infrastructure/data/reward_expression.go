package data

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/phillip1029/ReAgent/internal/domain/workflow"
)

// rewardExpression is a parsed custom reward expression. Supported forms:
//
//	col
//	col * k
//	col + k
//
// where col is "reward" or the name of a logged metric, and k is a numeric
// constant.
type rewardExpression struct {
	column string
	op     byte // 0, '*' or '+'
	scalar float64
}

func parseRewardExpression(expr string) (*rewardExpression, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return nil, fmt.Errorf("empty reward expression")
	}

	for _, op := range []byte{'*', '+'} {
		idx := strings.IndexByte(trimmed, op)
		if idx < 0 {
			continue
		}
		column := strings.TrimSpace(trimmed[:idx])
		constant := strings.TrimSpace(trimmed[idx+1:])
		if column == "" || constant == "" {
			return nil, fmt.Errorf("malformed reward expression %q", expr)
		}
		scalar, err := strconv.ParseFloat(constant, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed reward expression %q: %w", expr, err)
		}
		return &rewardExpression{column: column, op: op, scalar: scalar}, nil
	}

	return &rewardExpression{column: trimmed}, nil
}

func (e *rewardExpression) eval(row workflow.ExperienceRow) float64 {
	var base float64
	if e.column == string(workflow.ColumnReward) {
		base = row.Reward
	} else {
		base = row.Metrics[e.column]
	}

	switch e.op {
	case '*':
		return base * e.scalar
	case '+':
		return base + e.scalar
	default:
		return base
	}
}
