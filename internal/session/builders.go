package session

import (
	"context"
	"time"

	"github.com/haasonsaas/conclave/internal/agentcore"
	"github.com/haasonsaas/conclave/internal/clog"
	"github.com/haasonsaas/conclave/internal/contextwindow"
	"github.com/haasonsaas/conclave/internal/convergence"
	"github.com/haasonsaas/conclave/internal/deliberation"
	"github.com/haasonsaas/conclave/internal/llm"
	"github.com/haasonsaas/conclave/internal/termination"
	"github.com/haasonsaas/conclave/internal/voting"
	"github.com/haasonsaas/conclave/internal/workflow"
)

// AgentBuilder fluently assembles one agentcore.Agent, mirroring
// PersonalityBuilder's With*-chain style one level up the stack.
type AgentBuilder struct {
	id, displayName string
	provider        llm.Provider
	personality     agentcore.Personality
	tools           []*agentcore.ToolDefinition
}

// NewAgentBuilder starts a builder for the agent with the given stable ID.
func NewAgentBuilder(id string) *AgentBuilder {
	return &AgentBuilder{id: id, displayName: id}
}

func (b *AgentBuilder) WithDisplayName(name string) *AgentBuilder {
	b.displayName = name
	return b
}

func (b *AgentBuilder) WithProvider(p llm.Provider) *AgentBuilder {
	b.provider = p
	return b
}

func (b *AgentBuilder) WithPersonality(p agentcore.Personality) *AgentBuilder {
	b.personality = p
	return b
}

// WithPreset resolves one of the configuration surface's preset keys
// (analyst, creative, critic, diplomat, expert:<domain>) via
// agentcore.ResolvePreset.
func (b *AgentBuilder) WithPreset(key string) (*AgentBuilder, error) {
	p, err := agentcore.ResolvePreset(key)
	if err != nil {
		return b, err
	}
	b.personality = p
	return b, nil
}

func (b *AgentBuilder) WithTool(t *agentcore.ToolDefinition) *AgentBuilder {
	b.tools = append(b.tools, t)
	return b
}

// Build constructs the Agent. If WithDisplayName was never called the
// personality's own DisplayName wins, falling back to the agent ID.
func (b *AgentBuilder) Build() (*agentcore.Agent, error) {
	personality := b.personality
	if personality.DisplayName == "" {
		personality.DisplayName = b.displayName
	}
	return agentcore.NewAgent(b.id, b.displayName, personality, b.provider, b.tools...)
}

// WorkflowBuilder fluently assembles a workflow.Executor plus the Options it
// will run with, so a one-shot caller can chain configuration directly into
// Execute without hand-building an Options struct.
type WorkflowBuilder struct {
	agents []*agentcore.Agent
	opts   workflow.Options
}

// NewWorkflowBuilder starts a builder over a fixed agent set, defaulting to
// parallel execution and majority voting the way quickExecute does.
func NewWorkflowBuilder(agents ...*agentcore.Agent) *WorkflowBuilder {
	return &WorkflowBuilder{
		agents: agents,
		opts: workflow.Options{
			EnableParallelExecution: true,
			VotingStrategy:          voting.Majority{},
			VotingContext:           voting.DefaultContext(),
		},
	}
}

func (b *WorkflowBuilder) WithVoting(strategy voting.Strategy) *WorkflowBuilder {
	b.opts.VotingStrategy = strategy
	return b
}

func (b *WorkflowBuilder) WithVotingContext(vc voting.Context) *WorkflowBuilder {
	b.opts.VotingContext = vc
	return b
}

func (b *WorkflowBuilder) WithTimeout(d time.Duration) *WorkflowBuilder {
	b.opts.Timeout = d
	return b
}

func (b *WorkflowBuilder) WithSequentialExecution() *WorkflowBuilder {
	b.opts.EnableParallelExecution = false
	return b
}

func (b *WorkflowBuilder) WithConsensus(minScore float64, strategy voting.Strategy) *WorkflowBuilder {
	b.opts.RequireConsensus = true
	b.opts.MinimumConsensusScore = minScore
	b.opts.ConsensusStrategy = strategy
	return b
}

func (b *WorkflowBuilder) WithStructuredSchema(schema map[string]string) *WorkflowBuilder {
	b.opts.StructuredSchema = schema
	return b
}

func (b *WorkflowBuilder) WithProgress(fn func(workflow.ProgressEvent)) *WorkflowBuilder {
	b.opts.OnProgress = fn
	return b
}

// WithLogger attaches a structured logger; every stage transition is then
// logged alongside any OnProgress callback.
func (b *WorkflowBuilder) WithLogger(l *clog.Logger) *WorkflowBuilder {
	b.opts.Logger = l
	return b
}

// WithDeliberation hands the same agent set and voting configuration to a
// fresh DeliberationBuilder, letting a caller escalate from a single-shot
// workflow to a multi-round deliberation without re-specifying agents.
// configureBudget customizes termination/convergence/round-mode on top of
// the inherited defaults before Build/Execute.
func (b *WorkflowBuilder) WithDeliberation(configureBudget func(*DeliberationBuilder)) *DeliberationBuilder {
	db := NewDeliberationBuilder(b.agents...).WithVoting(b.opts.VotingStrategy).WithVotingContext(b.opts.VotingContext)
	if b.opts.Logger != nil {
		db.WithLogger(b.opts.Logger)
	}
	if configureBudget != nil {
		configureBudget(db)
	}
	return db
}

// Build returns the configured Executor and a copy of its Options.
func (b *WorkflowBuilder) Build() (*workflow.Executor, *workflow.Options) {
	opts := b.opts
	return workflow.NewExecutor(b.agents...), &opts
}

// Execute builds and immediately runs the workflow.
func (b *WorkflowBuilder) Execute(ctx context.Context, task string) (*workflow.Result, error) {
	executor, opts := b.Build()
	return executor.Execute(ctx, task, opts)
}

// DeliberationBuilder fluently assembles a deliberation.Executor's Options.
type DeliberationBuilder struct {
	opts deliberation.Options
}

// NewDeliberationBuilder starts a builder over a fixed agent set, defaulting
// to RoundRobin turn-taking, token-similarity convergence, a 10-round cap,
// and majority voting at synthesis.
func NewDeliberationBuilder(agents ...*agentcore.Agent) *DeliberationBuilder {
	return &DeliberationBuilder{
		opts: deliberation.Options{
			Agents:         agents,
			Mode:           deliberation.RoundRobin,
			Convergence:    convergence.TokenSimilarity{},
			Termination:    termination.MaxRounds{N: 10},
			VotingStrategy: voting.Majority{},
			VotingContext:  voting.DefaultContext(),
		},
	}
}

func (b *DeliberationBuilder) WithMode(mode deliberation.RoundMode) *DeliberationBuilder {
	b.opts.Mode = mode
	return b
}

func (b *DeliberationBuilder) WithModerator(moderator *agentcore.Agent) *DeliberationBuilder {
	b.opts.Moderator = moderator
	return b
}

func (b *DeliberationBuilder) WithContextManager(m contextwindow.Manager, budget contextwindow.Budget) *DeliberationBuilder {
	b.opts.ContextManager = m
	b.opts.ContextBudget = budget
	return b
}

func (b *DeliberationBuilder) WithTermination(strategy termination.Strategy) *DeliberationBuilder {
	b.opts.Termination = strategy
	return b
}

func (b *DeliberationBuilder) WithMaxRounds(n int) *DeliberationBuilder {
	b.opts.Termination = termination.MaxRounds{N: n}
	b.opts.MaxRoundsHint = &n
	return b
}

func (b *DeliberationBuilder) WithConvergence(calc convergence.Calculator, threshold float64) *DeliberationBuilder {
	b.opts.Convergence = calc
	b.opts.ConvergenceThresholdHint = &threshold
	return b
}

func (b *DeliberationBuilder) WithVoting(strategy voting.Strategy) *DeliberationBuilder {
	b.opts.VotingStrategy = strategy
	return b
}

func (b *DeliberationBuilder) WithVotingContext(vc voting.Context) *DeliberationBuilder {
	b.opts.VotingContext = vc
	return b
}

func (b *DeliberationBuilder) WithProgress(fn func(deliberation.ProgressEvent)) *DeliberationBuilder {
	b.opts.OnProgress = fn
	return b
}

// WithLogger attaches a structured logger; every stage transition is then
// logged alongside any OnProgress callback.
func (b *DeliberationBuilder) WithLogger(l *clog.Logger) *DeliberationBuilder {
	b.opts.Logger = l
	return b
}

// Build returns the configured Executor and a copy of its Options.
func (b *DeliberationBuilder) Build() (*deliberation.Executor, *deliberation.Options) {
	opts := b.opts
	return deliberation.NewExecutor(), &opts
}

// Execute builds and immediately runs the deliberation.
func (b *DeliberationBuilder) Execute(ctx context.Context, task string) (*deliberation.Result, error) {
	executor, opts := b.Build()
	return executor.Execute(ctx, task, opts)
}
