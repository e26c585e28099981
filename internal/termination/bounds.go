package termination

import (
	"context"
	"fmt"
	"time"

	"github.com/haasonsaas/conclave/internal/contextwindow"
)

// MaxRounds terminates once the deliberation has completed n rounds.
type MaxRounds struct{ N int }

func (m MaxRounds) Check(_ context.Context, state *contextwindow.DeliberationState) (Decision, error) {
	if state.CurrentRound >= m.N {
		return Decision{
			ShouldTerminate: true,
			Reason:          ReasonMaxRoundsReached,
			Explanation:     fmt.Sprintf("reached round %d of %d", state.CurrentRound, m.N),
			Confidence:      1.0,
		}, nil
	}
	return no(), nil
}

// MaxTokens terminates once the deliberation has consumed n tokens.
type MaxTokens struct{ N int }

func (m MaxTokens) Check(_ context.Context, state *contextwindow.DeliberationState) (Decision, error) {
	if state.TotalTokensUsed >= m.N {
		return Decision{
			ShouldTerminate: true,
			Reason:          ReasonMaxTokensReached,
			Explanation:     fmt.Sprintf("used %d of %d tokens", state.TotalTokensUsed, m.N),
			Confidence:      1.0,
		}, nil
	}
	return no(), nil
}

// MaxTime terminates once the deliberation has run for at least d.
type MaxTime struct{ D time.Duration }

func (m MaxTime) Check(_ context.Context, state *contextwindow.DeliberationState) (Decision, error) {
	if state.Elapsed >= m.D {
		return Decision{
			ShouldTerminate: true,
			Reason:          ReasonMaxTimeReached,
			Explanation:     fmt.Sprintf("elapsed %s of %s budget", state.Elapsed, m.D),
			Confidence:      1.0,
		}, nil
	}
	return no(), nil
}
