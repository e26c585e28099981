package deliberation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/haasonsaas/conclave/internal/agentcore"
	"github.com/haasonsaas/conclave/internal/contextwindow"
)

// Executor runs the multi-round state machine S0-S5 (§4.7) over a fixed,
// immutable Options bundle. Each Execute call owns its own
// DeliberationState; the Executor itself holds no per-execution state and
// is safe for concurrent reuse.
type Executor struct{}

// NewExecutor returns a ready-to-use multi-round deliberation executor.
func NewExecutor() *Executor { return &Executor{} }

// Execute runs S0 Init, then alternates S1 CheckTerminate / S2 AdvanceRound
// / S3 RunRound / S4 Convergence until S1 fires, then S5 Synthesize.
func (e *Executor) Execute(ctx context.Context, task string, opts *Options) (*Result, error) {
	start := time.Now()
	if opts.Logger != nil && opts.ExecutionID == "" {
		opts.ExecutionID = uuid.NewString()
	}
	state := &contextwindow.DeliberationState{
		OriginalTask:   task,
		ParticipantIDs: participantIDs(opts.Agents),
	}
	opts.progress(ctx, ProgressEvent{Stage: StageInitializing, Message: "starting deliberation"})

	for {
		state.Elapsed = time.Since(start)
		if ctx.Err() != nil {
			return cancelledResult(state, start), nil
		}

		// S1: CheckTerminate, evaluated before the round counter advances —
		// MaxRounds(n) therefore stops after n *completed* rounds.
		opts.progress(ctx, ProgressEvent{Stage: StageCheckingTermination, CurrentRound: state.CurrentRound, TokensUsed: state.TotalTokensUsed, Elapsed: state.Elapsed, ConvergenceScore: state.ConvergenceScore})
		decision, err := opts.Termination.Check(ctx, state)
		if err != nil {
			return nil, err
		}
		if decision.ShouldTerminate {
			return e.synthesize(ctx, task, state, opts, decision.Reason, start)
		}

		// S2: AdvanceRound
		state.CurrentRound++
		opts.progress(ctx, ProgressEvent{Stage: StageRoundStarting, CurrentRound: state.CurrentRound, TokensUsed: state.TotalTokensUsed, Elapsed: state.Elapsed})

		// S3: RunRound
		if err := e.runRound(ctx, task, state, opts); err != nil {
			if ctx.Err() != nil {
				return cancelledResult(state, start), nil
			}
			return nil, err
		}
		opts.progress(ctx, ProgressEvent{Stage: StageRoundComplete, CurrentRound: state.CurrentRound, TokensUsed: state.TotalTokensUsed, Elapsed: time.Since(start)})

		// S4: Convergence
		score, err := opts.Convergence.Score(ctx, state)
		if err != nil {
			return nil, err
		}
		state.ConvergenceScore = &score
		opts.progress(ctx, ProgressEvent{Stage: StageEvaluatingConvergence, CurrentRound: state.CurrentRound, ConvergenceScore: &score, TokensUsed: state.TotalTokensUsed, Elapsed: time.Since(start)})
	}
}

func participantIDs(agents []*agentcore.Agent) []string {
	ids := make([]string, len(agents))
	for i, a := range agents {
		ids[i] = a.ID
	}
	return ids
}

func cancelledResult(state *contextwindow.DeliberationState, start time.Time) *Result {
	return &Result{
		Success:               false,
		Error:                 "Deliberation was cancelled",
		State:                 state,
		TerminationReason:     "ManualStop",
		TotalRounds:           state.CurrentRound,
		TotalTokens:           state.TotalTokensUsed,
		TotalTime:             time.Since(start),
		FinalConvergenceScore: state.ConvergenceScore,
	}
}
