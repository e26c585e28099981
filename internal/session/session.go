package session

import (
	"context"
	"fmt"

	"github.com/haasonsaas/conclave/internal/agentcore"
	"github.com/haasonsaas/conclave/internal/llm"
	"github.com/haasonsaas/conclave/internal/llm/anthropicllm"
	"github.com/haasonsaas/conclave/internal/llm/geminillm"
	"github.com/haasonsaas/conclave/internal/llm/openaillm"
)

// Session is a configuration aggregate owning a set of LLM capabilities and
// the agents built against them (§4.8). It holds no per-execution state —
// workflows and deliberations built from it each own their own Options and
// DeliberationState, so a Session is safe to share across concurrent
// executions once construction finishes.
type Session struct {
	providers map[string]llm.Provider
	agents    map[string]*agentcore.Agent
}

// New returns an empty session ready for RegisterProvider/RegisterAgent
// calls or fluent builder use.
func New() *Session {
	return &Session{
		providers: map[string]llm.Provider{},
		agents:    map[string]*agentcore.Agent{},
	}
}

// FromConfig builds every configured provider and agent in one pass. Gemini
// providers take a context since their client construction can itself make
// a network round trip; the other two vendors don't need one.
func FromConfig(ctx context.Context, cfg *Config) (*Session, error) {
	s := New()
	for name, pc := range cfg.Providers {
		provider, err := buildProvider(ctx, name, pc)
		if err != nil {
			return nil, err
		}
		s.RegisterProvider(name, provider)
	}
	for _, ac := range cfg.Agents {
		provider, ok := s.Provider(ac.Provider)
		if !ok {
			return nil, fmt.Errorf("session: agent %q references unconfigured provider %q", ac.ID, ac.Provider)
		}
		personality, err := ac.Personality.resolve()
		if err != nil {
			return nil, fmt.Errorf("session: agent %q: %w", ac.ID, err)
		}
		if personality.DisplayName == "" {
			personality.DisplayName = ac.Name
		}
		agent, err := agentcore.NewAgent(ac.ID, ac.Name, personality, provider)
		if err != nil {
			return nil, fmt.Errorf("session: agent %q: %w", ac.ID, err)
		}
		if ac.Model != "" {
			agent.DefaultOptions.Model = ac.Model
		}
		s.RegisterAgent(agent)
	}
	return s, nil
}

func buildProvider(ctx context.Context, name string, pc ProviderConfig) (llm.Provider, error) {
	switch name {
	case "openai":
		return openaillm.New(openaillm.Config{APIKey: pc.APIKey, DefaultModel: pc.DefaultModel})
	case "anthropic":
		return anthropicllm.New(anthropicllm.Config{APIKey: pc.APIKey, BaseURL: pc.BaseURL, DefaultModel: pc.DefaultModel})
	case "gemini":
		return geminillm.New(ctx, geminillm.Config{APIKey: pc.APIKey, DefaultModel: pc.DefaultModel})
	default:
		return nil, fmt.Errorf("session: unknown provider %q (want one of openai, anthropic, gemini)", name)
	}
}

// RegisterProvider adds or replaces a named provider.
func (s *Session) RegisterProvider(name string, provider llm.Provider) {
	s.providers[name] = provider
}

// Provider looks up a previously registered provider by name.
func (s *Session) Provider(name string) (llm.Provider, bool) {
	p, ok := s.providers[name]
	return p, ok
}

// RegisterAgent adds or replaces an agent, keyed by its ID.
func (s *Session) RegisterAgent(agent *agentcore.Agent) {
	s.agents[agent.ID] = agent
}

// Agent looks up a previously registered agent by ID.
func (s *Session) Agent(id string) (*agentcore.Agent, bool) {
	a, ok := s.agents[id]
	return a, ok
}

// Agents returns every registered agent, in no particular order.
func (s *Session) Agents() []*agentcore.Agent {
	agents := make([]*agentcore.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		agents = append(agents, a)
	}
	return agents
}
