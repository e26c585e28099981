package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/haasonsaas/conclave/internal/agentcore"
)

// ErrTimeout is returned when a workflow's deadline trips without the
// caller itself having cancelled, distinguishing the two per spec §6's
// cancellation contract.
var ErrTimeout = errors.New("workflow timed out")

// Executor runs the single-shot fan-out/vote/finalize pipeline over a fixed
// set of agents, registered once at construction and immutable thereafter —
// safe to reuse (and to call Execute on concurrently) the same way every
// other capability type in this engine is.
type Executor struct {
	Agents []*agentcore.Agent
}

// NewExecutor registers agents in the order Execute will invoke them
// sequentially, and will use to break voting ties by invocation order.
func NewExecutor(agents ...*agentcore.Agent) *Executor {
	return &Executor{Agents: agents}
}

// Execute runs the 8-step single-shot algorithm (§4.6): fan out task to
// every agent, vote over the gathered responses, optionally retry voting
// under a consensus strategy, then extract the typed winner.
func (e *Executor) Execute(ctx context.Context, task string, opts *Options) (*Result, error) {
	start := time.Now()
	if opts.Logger != nil && opts.ExecutionID == "" {
		opts.ExecutionID = uuid.NewString()
	}
	opts.progress(ctx, ProgressEvent{Stage: StageInitializing, Message: "starting workflow", TotalAgents: len(e.Agents)})

	runCtx := ctx
	var cancel context.CancelFunc
	if opts.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	responses, err := e.invokeAgents(runCtx, task, opts)
	if err != nil {
		return workflowFailure(ctx, runCtx, start, err), nil
	}
	if len(responses) == 0 {
		return &Result{Success: false, Error: "No agent responses received", Elapsed: time.Since(start)}, nil
	}

	opts.progress(runCtx, ProgressEvent{Stage: StageVoting, Message: "reconciling responses", TotalAgents: len(e.Agents), CompletedAgents: len(responses)})
	result, err := opts.VotingStrategy.Vote(runCtx, task, responses, opts.VotingContext)
	if err != nil {
		return workflowFailure(ctx, runCtx, start, err), nil
	}

	if opts.RequireConsensus && result.Consensus < opts.MinimumConsensusScore && opts.ConsensusStrategy != nil {
		opts.progress(runCtx, ProgressEvent{Stage: StageConsensusBuilding, Message: "consensus below threshold, re-voting", TotalAgents: len(e.Agents), CompletedAgents: len(responses)})
		result, err = opts.ConsensusStrategy.Vote(runCtx, task, responses, opts.VotingContext)
		if err != nil {
			return workflowFailure(ctx, runCtx, start, err), nil
		}
	}

	opts.progress(runCtx, ProgressEvent{Stage: StageFinalizing, Message: "extracting result", TotalAgents: len(e.Agents), CompletedAgents: len(responses)})
	value := extractValue(result)

	opts.progress(runCtx, ProgressEvent{Stage: StageCompleted, Message: "done", TotalAgents: len(e.Agents), CompletedAgents: len(responses)})
	return &Result{
		Success:        true,
		Value:          value,
		AgentResponses: responses,
		VotingResult:   result,
		Elapsed:        time.Since(start),
	}, nil
}

// Judge adapts Execute to termination.Judge (see internal/termination's
// WorkflowTerminator): it fans the task out to every registered agent for a
// structured termination verdict and takes the first agent's parsed
// verdict, so a WorkflowTerminator can use any Executor as its judge
// without this package depending on internal/termination.
func (e *Executor) Judge(ctx context.Context, task string) (bool, float64, string, error) {
	responses, err := e.invokeAgents(ctx, task, &Options{
		EnableParallelExecution: true,
		StructuredSchema: map[string]string{
			"shouldTerminate": "boolean",
			"confidence":      "number 0-1",
			"reasoning":       "string",
		},
	})
	if err != nil {
		return false, 0, "", err
	}
	if len(responses) == 0 {
		return false, 0, "", errors.New("no agent responses received")
	}
	for _, r := range responses {
		verdict, ok := r.Structured.(map[string]any)
		if !ok {
			continue
		}
		should, _ := verdict["shouldTerminate"].(bool)
		confidence, _ := verdict["confidence"].(float64)
		reasoning, _ := verdict["reasoning"].(string)
		return should, confidence, reasoning, nil
	}
	return false, 0, "", nil
}

func (e *Executor) invokeAgents(ctx context.Context, task string, opts *Options) ([]agentcore.AgentResponse, error) {
	if !opts.EnableParallelExecution {
		return e.invokeSequential(ctx, task, opts), nil
	}
	return e.invokeParallel(ctx, task, opts)
}

func (e *Executor) invokeSequential(ctx context.Context, task string, opts *Options) []agentcore.AgentResponse {
	var responses []agentcore.AgentResponse
	for i, agent := range e.Agents {
		if ctx.Err() != nil {
			break
		}
		opts.progress(ctx, ProgressEvent{Stage: StageAgentProcessing, CurrentAgentID: agent.ID, CompletedAgents: i, TotalAgents: len(e.Agents)})
		responses = append(responses, e.invokeOne(ctx, agent, task, opts))
		opts.progress(ctx, ProgressEvent{Stage: StageAgentProcessing, CurrentAgentID: agent.ID, CompletedAgents: i + 1, TotalAgents: len(e.Agents)})
	}
	return responses
}

// invokeParallel runs every agent concurrently. Every agent always gets a
// slot — the semaphore in the teacher's Swarm.Execute exists to bound a
// larger agent pool than worker capacity, which this flat single-shot
// fan-out doesn't need. Results are collected into a fixed-size slice
// indexed by registration order so voting sees a deterministic,
// reproducible ordering for tie-breaks regardless of which goroutine
// finishes first.
func (e *Executor) invokeParallel(ctx context.Context, task string, opts *Options) ([]agentcore.AgentResponse, error) {
	n := len(e.Agents)
	slots := make([]*agentcore.AgentResponse, n)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var completed int

	for i, agent := range e.Agents {
		i, agent := i, agent
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := e.invokeOne(ctx, agent, task, opts)
			slots[i] = &resp

			mu.Lock()
			completed++
			c := completed
			mu.Unlock()
			opts.progress(ctx, ProgressEvent{Stage: StageAgentProcessing, CurrentAgentID: agent.ID, CompletedAgents: c, TotalAgents: n})
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	responses := make([]agentcore.AgentResponse, 0, n)
	for _, r := range slots {
		if r != nil {
			responses = append(responses, *r)
		}
	}
	return responses, nil
}

func (e *Executor) invokeOne(ctx context.Context, agent *agentcore.Agent, task string, opts *Options) agentcore.AgentResponse {
	if opts.StructuredSchema != nil {
		return agent.ProcessStructured(ctx, task, nil, opts.StructuredSchema)
	}
	return agent.Process(ctx, task, nil)
}

func workflowFailure(userCtx, runCtx context.Context, start time.Time, err error) *Result {
	if userCtx.Err() != nil {
		return &Result{Success: false, Error: "Workflow was cancelled", Elapsed: time.Since(start)}
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return &Result{Success: false, Error: ErrTimeout.Error(), Elapsed: time.Since(start)}
	}
	return &Result{Success: false, Error: err.Error(), Elapsed: time.Since(start)}
}
