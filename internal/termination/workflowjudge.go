package termination

import (
	"context"
	"fmt"

	"github.com/haasonsaas/conclave/internal/contextwindow"
)

// Judge runs an entire workflow execution to produce a termination verdict,
// returning the same {shouldTerminate, confidence, reasoning} shape an
// AgentTerminator's judge agent produces. internal/workflow.Executor
// satisfies this via a thin adapter so this package never needs to import
// the workflow package (judgement is the only thing a WorkflowTerminator
// needs, not the rest of Executor's surface).
type Judge interface {
	Judge(ctx context.Context, task string) (shouldTerminate bool, confidence float64, reasoning string, err error)
}

// WorkflowTerminator asks a judge workflow whether the deliberation should
// stop, the same way AgentTerminator asks a single judge agent.
type WorkflowTerminator struct {
	Workflow Judge
	// ConfThreshold defaults to 0.7 when zero.
	ConfThreshold float64
	Prompt        string
}

func (w WorkflowTerminator) Check(ctx context.Context, state *contextwindow.DeliberationState) (Decision, error) {
	threshold := w.ConfThreshold
	if threshold <= 0 {
		threshold = 0.7
	}
	prompt := w.Prompt
	if prompt == "" {
		prompt = defaultJudgePrompt
	}

	shouldTerminate, confidence, reasoning, err := w.Workflow.Judge(ctx, prompt)
	if err != nil {
		return Decision{}, err
	}
	if !shouldTerminate || confidence < threshold {
		return no(), nil
	}
	return Decision{
		ShouldTerminate: true,
		Reason:          ReasonWorkflowDecision,
		Explanation:     fmt.Sprintf("judge workflow: %s", reasoning),
		Confidence:      confidence,
	}, nil
}
