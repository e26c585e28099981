package deliberation

import (
	"context"
	"time"

	"github.com/haasonsaas/conclave/internal/agentcore"
	"github.com/haasonsaas/conclave/internal/contextwindow"
	"github.com/haasonsaas/conclave/internal/voting"
)

// synthesize is S5: vote over the last round's agent responses (or the most
// recent message per agent if the last round ran empty), extract the typed
// output, and return the final result.
func (e *Executor) synthesize(ctx context.Context, task string, state *contextwindow.DeliberationState, opts *Options, reason string, start time.Time) (*Result, error) {
	opts.progress(ctx, ProgressEvent{Stage: StageSynthesizing, CurrentRound: state.CurrentRound, TokensUsed: state.TotalTokensUsed})

	responses := asResponses(state.MessagesInRound(state.CurrentRound))
	if len(responses) == 0 {
		responses = asResponses(state.LatestMessagePerAgent())
	}

	votingResult, err := opts.VotingStrategy.Vote(ctx, task, responses, opts.VotingContext)
	if err != nil {
		return nil, err
	}

	opts.progress(ctx, ProgressEvent{Stage: StageComplete, CurrentRound: state.CurrentRound, TokensUsed: state.TotalTokensUsed, Elapsed: time.Since(start)})
	return &Result{
		Success:               true,
		Value:                extractValue(votingResult),
		State:                 state,
		TerminationReason:     reason,
		TotalRounds:           state.CurrentRound,
		TotalTokens:           state.TotalTokensUsed,
		TotalTime:             time.Since(start),
		FinalConvergenceScore: state.ConvergenceScore,
	}, nil
}

func asResponses(messages []contextwindow.DeliberationMessage) []agentcore.AgentResponse {
	responses := make([]agentcore.AgentResponse, len(messages))
	for i, m := range messages {
		responses[i] = agentcore.AgentResponse{AgentID: m.AgentID, AgentName: m.AgentName, Text: m.Content}
	}
	return responses
}

func extractValue(result *voting.Result) any {
	if result.WinningStructured != nil {
		return result.WinningStructured
	}
	return result.WinningText
}
