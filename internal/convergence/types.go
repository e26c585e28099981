package convergence

import (
	"context"

	"github.com/haasonsaas/conclave/internal/contextwindow"
)

// Calculator scores how similar the current round's agent positions are to
// the previous round's, on [0,1]. Returns 0 before round 2 regardless of
// implementation, since there is nothing yet to compare.
type Calculator interface {
	Score(ctx context.Context, state *contextwindow.DeliberationState) (float64, error)
}
