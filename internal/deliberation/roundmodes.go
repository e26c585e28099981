package deliberation

import (
	"context"
	"fmt"
	"sync"

	"github.com/haasonsaas/conclave/internal/agentcore"
	"github.com/haasonsaas/conclave/internal/contextwindow"
)

// runRound executes one round in the configured turn-taking discipline,
// appending every participant's message to state.Transcript before
// returning.
func (e *Executor) runRound(ctx context.Context, task string, state *contextwindow.DeliberationState, opts *Options) error {
	switch opts.Mode {
	case Debate:
		return e.runDebateRound(ctx, task, state, opts)
	case Moderated:
		if opts.Moderator == nil {
			return e.runRoundRobinRound(ctx, task, state, opts)
		}
		return e.runModeratedRound(ctx, task, state, opts)
	case FreeForm:
		return e.runFreeFormRound(ctx, task, state, opts)
	default:
		return e.runRoundRobinRound(ctx, task, state, opts)
	}
}

// runRoundRobinRound has agents speak sequentially in registration order.
// Each agent sees all earlier responses from the same round (a
// happens-before edge between invocations), since state.Transcript is
// already updated by the time the next agent's prompt is built.
func (e *Executor) runRoundRobinRound(ctx context.Context, task string, state *contextwindow.DeliberationState, opts *Options) error {
	round := state.CurrentRound
	for _, agent := range opts.Agents {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		opts.progress(ctx, ProgressEvent{Stage: StageAgentSpeaking, CurrentRound: round, CurrentSpeaker: agent.ID, TokensUsed: state.TotalTokensUsed})

		prompt := roundRobinPrompt(round, agent.ID, state)
		state.TotalTokensUsed += contextwindow.EstimateTokens(prompt)

		history, err := buildHistory(ctx, state, opts, agent.ID)
		if err != nil {
			return err
		}
		resp := agent.Process(ctx, prompt, history)
		record(state, agent, resp, round, "")
	}
	return nil
}

func roundRobinPrompt(round int, agentID string, state *contextwindow.DeliberationState) string {
	if round == 1 {
		return fmt.Sprintf("Task: %s\n\nProvide your initial perspective.", state.OriginalTask)
	}
	others := otherMessagesInRound(state, round-1, agentID)
	return fmt.Sprintf("Task: %s\n\nConsider the other perspectives from the previous round:\n%s\nRespond with your updated view.",
		state.OriginalTask, renderMessages(others))
}

// runDebateRound has every agent speak concurrently, each addressing the
// other participants' messages from the previous round directly. Messages
// from the same round are collected and appended atomically at round end,
// in the invocation order used to spawn them — no agent in this round
// observes another's round-r message.
func (e *Executor) runDebateRound(ctx context.Context, task string, state *contextwindow.DeliberationState, opts *Options) error {
	round := state.CurrentRound
	previous := state.MessagesInRound(round - 1)

	type spoken struct {
		agent        *agentcore.Agent
		resp         agentcore.AgentResponse
		inResponseTo string
	}
	results := make([]spoken, len(opts.Agents))
	var wg sync.WaitGroup
	for i, agent := range opts.Agents {
		i, agent := i, agent
		wg.Add(1)
		go func() {
			defer wg.Done()
			opts.progress(ctx, ProgressEvent{Stage: StageAgentSpeaking, CurrentRound: round, CurrentSpeaker: agent.ID})
			others := excludeAgent(previous, agent.ID)
			prompt := debatePrompt(state.OriginalTask, others)
			history, err := buildHistory(ctx, state, opts, agent.ID)
			if err != nil {
				results[i] = spoken{agent: agent, resp: agentcore.AgentResponse{AgentID: agent.ID, AgentName: agent.DisplayName, Text: "Error: " + err.Error()}}
				return
			}
			resp := agent.Process(ctx, prompt, history)
			inResponseTo := ""
			if len(others) > 0 {
				inResponseTo = others[0].AgentID
			}
			results[i] = spoken{agent: agent, resp: resp, inResponseTo: inResponseTo}
		}()
	}
	wg.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}

	for _, s := range results {
		record(state, s.agent, s.resp, round, s.inResponseTo)
	}
	return nil
}

func debatePrompt(task string, arguments []contextwindow.DeliberationMessage) string {
	if len(arguments) == 0 {
		return fmt.Sprintf("Task: %s\n\nProvide your opening argument.", task)
	}
	return fmt.Sprintf("Task: %s\n\nAddress these arguments directly:\n%s\nState where you agree or disagree and why.",
		task, renderMessages(arguments))
}

// runModeratedRound has the moderator speak first with a round-tailored
// framing prompt, then every participant replies sequentially to the
// moderator's latest message.
func (e *Executor) runModeratedRound(ctx context.Context, task string, state *contextwindow.DeliberationState, opts *Options) error {
	round := state.CurrentRound
	moderator := opts.Moderator

	if ctx.Err() != nil {
		return ctx.Err()
	}
	opts.progress(ctx, ProgressEvent{Stage: StageAgentSpeaking, CurrentRound: round, CurrentSpeaker: moderator.ID})
	modPrompt := moderatorPrompt(round, state)
	modHistory, err := buildHistory(ctx, state, opts, moderator.ID)
	if err != nil {
		return err
	}
	modResp := moderator.Process(ctx, modPrompt, modHistory)
	record(state, moderator, modResp, round, "")

	for _, agent := range opts.Agents {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		opts.progress(ctx, ProgressEvent{Stage: StageAgentSpeaking, CurrentRound: round, CurrentSpeaker: agent.ID})
		prompt := fmt.Sprintf("Task: %s\n\nThe moderator says:\n%s\n\nReply to the moderator.", task, modResp.Text)
		history, err := buildHistory(ctx, state, opts, agent.ID)
		if err != nil {
			return err
		}
		resp := agent.Process(ctx, prompt, history)
		record(state, agent, resp, round, moderator.ID)
	}
	return nil
}

func moderatorPrompt(round int, state *contextwindow.DeliberationState) string {
	if round == 1 {
		return fmt.Sprintf("Task: %s\n\nFrame the discussion for the participants and pose the opening question.", state.OriginalTask)
	}
	return fmt.Sprintf("Task: %s\n\nSummarize the discussion so far and pose the next question for the participants.", state.OriginalTask)
}

// runFreeFormRound has every agent speak concurrently, each seeing the
// entire prior transcript in its prompt (independent of whatever a context
// manager additionally projects into the attached history).
func (e *Executor) runFreeFormRound(ctx context.Context, task string, state *contextwindow.DeliberationState, opts *Options) error {
	round := state.CurrentRound
	fullTranscript := renderMessages(state.Transcript)

	type spoken struct {
		agent *agentcore.Agent
		resp  agentcore.AgentResponse
	}
	results := make([]spoken, len(opts.Agents))
	var wg sync.WaitGroup
	for i, agent := range opts.Agents {
		i, agent := i, agent
		wg.Add(1)
		go func() {
			defer wg.Done()
			opts.progress(ctx, ProgressEvent{Stage: StageAgentSpeaking, CurrentRound: round, CurrentSpeaker: agent.ID})
			prompt := freeFormPrompt(task, fullTranscript)
			history, err := buildHistory(ctx, state, opts, agent.ID)
			if err != nil {
				results[i] = spoken{agent: agent, resp: agentcore.AgentResponse{AgentID: agent.ID, AgentName: agent.DisplayName, Text: "Error: " + err.Error()}}
				return
			}
			results[i] = spoken{agent: agent, resp: agent.Process(ctx, prompt, history)}
		}()
	}
	wg.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}

	for _, s := range results {
		record(state, s.agent, s.resp, round, "")
	}
	return nil
}

func freeFormPrompt(task, transcript string) string {
	if transcript == "" {
		return fmt.Sprintf("Task: %s\n\nProvide your perspective.", task)
	}
	return fmt.Sprintf("Task: %s\n\nFull discussion so far:\n%s\nAdd your perspective, building on or challenging any of it.", task, transcript)
}

func otherMessagesInRound(state *contextwindow.DeliberationState, round int, excludeAgentID string) []contextwindow.DeliberationMessage {
	return excludeAgent(state.MessagesInRound(round), excludeAgentID)
}

func excludeAgent(messages []contextwindow.DeliberationMessage, agentID string) []contextwindow.DeliberationMessage {
	var result []contextwindow.DeliberationMessage
	for _, m := range messages {
		if m.AgentID != agentID {
			result = append(result, m)
		}
	}
	return result
}
