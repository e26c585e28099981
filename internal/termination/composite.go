package termination

import (
	"context"
	"strings"

	"github.com/haasonsaas/conclave/internal/contextwindow"
)

// Mode selects how Composite combines its children.
type Mode int

const (
	// Any terminates on the first child decision that fires, checked in
	// insertion order. Later children are never evaluated once one fires —
	// required so an already over-budget deliberation isn't billed for
	// another LLM-backed judge call.
	Any Mode = iota
	// All terminates only once every child fires.
	All
)

// Composite combines child strategies under Any or All semantics. Register
// cheap bound checks (MaxRounds, MaxTokens, MaxTime) before LLM-backed
// judges under Any mode so the short-circuit actually saves the LLM call.
type Composite struct {
	Children []Strategy
	Mode     Mode
}

func (c Composite) Check(ctx context.Context, state *contextwindow.DeliberationState) (Decision, error) {
	switch c.Mode {
	case All:
		return c.checkAll(ctx, state)
	default:
		return c.checkAny(ctx, state)
	}
}

func (c Composite) checkAny(ctx context.Context, state *contextwindow.DeliberationState) (Decision, error) {
	for _, child := range c.Children {
		decision, err := child.Check(ctx, state)
		if err != nil {
			return Decision{}, err
		}
		if decision.ShouldTerminate {
			return decision, nil
		}
	}
	return no(), nil
}

func (c Composite) checkAll(ctx context.Context, state *contextwindow.DeliberationState) (Decision, error) {
	if len(c.Children) == 0 {
		return no(), nil
	}
	var reasons []string
	minConfidence := 1.0
	for _, child := range c.Children {
		decision, err := child.Check(ctx, state)
		if err != nil {
			return Decision{}, err
		}
		if !decision.ShouldTerminate {
			return no(), nil
		}
		reasons = append(reasons, decision.Reason+": "+decision.Explanation)
		if decision.Confidence < minConfidence {
			minConfidence = decision.Confidence
		}
	}
	return Decision{
		ShouldTerminate: true,
		Reason:          ReasonCompositeAll,
		Explanation:     strings.Join(reasons, "; "),
		Confidence:      minConfidence,
	}, nil
}
