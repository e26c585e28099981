package termination

import (
	"context"

	"github.com/haasonsaas/conclave/internal/contextwindow"
)

// Custom wraps an arbitrary predicate over deliberation state. Predicate may
// block (it receives ctx) so a caller can implement it as a remote check
// without needing its own Strategy type.
type Custom struct {
	Description string
	Predicate   func(ctx context.Context, state *contextwindow.DeliberationState) (bool, error)
}

func (c Custom) Check(ctx context.Context, state *contextwindow.DeliberationState) (Decision, error) {
	ok, err := c.Predicate(ctx, state)
	if err != nil {
		return Decision{}, err
	}
	if ok {
		return Decision{
			ShouldTerminate: true,
			Reason:          ReasonCustomCondition,
			Explanation:     c.Description,
			Confidence:      1.0,
		}, nil
	}
	return no(), nil
}
