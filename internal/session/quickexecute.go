package session

import (
	"context"
	"fmt"

	"github.com/haasonsaas/conclave/internal/voting"
	"github.com/haasonsaas/conclave/internal/workflow"
)

// QuickExecute builds a single-shot workflow over every agent currently
// registered on the session, resolves strategyTag against
// voting.Strategies() the way the declarative configuration surface
// resolves personality preset keys, and runs it to completion (§4.8).
func (s *Session) QuickExecute(ctx context.Context, task, strategyTag string) (*workflow.Result, error) {
	strategy, ok := voting.Strategies()[strategyTag]
	if !ok {
		return nil, fmt.Errorf("session: unknown voting strategy tag %q", strategyTag)
	}
	return NewWorkflowBuilder(s.Agents()...).WithVoting(strategy).Execute(ctx, task)
}
