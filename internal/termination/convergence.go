package termination

import (
	"context"
	"fmt"

	"github.com/haasonsaas/conclave/internal/contextwindow"
)

// Convergence terminates once at least MinRounds rounds have run and the
// state's convergence score (computed by internal/convergence upstream of
// this check) meets Threshold.
type Convergence struct {
	Threshold float64
	// MinRounds defaults to 2 when zero.
	MinRounds int
}

func (c Convergence) Check(_ context.Context, state *contextwindow.DeliberationState) (Decision, error) {
	minRounds := c.MinRounds
	if minRounds <= 0 {
		minRounds = 2
	}
	if state.CurrentRound < minRounds || state.ConvergenceScore == nil {
		return no(), nil
	}
	if *state.ConvergenceScore >= c.Threshold {
		return Decision{
			ShouldTerminate: true,
			Reason:          ReasonConvergenceAchieved,
			Explanation:     fmt.Sprintf("convergence %.2f reached threshold %.2f at round %d", *state.ConvergenceScore, c.Threshold, state.CurrentRound),
			Confidence:      1.0,
		}, nil
	}
	return no(), nil
}
