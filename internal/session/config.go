// Package session provides the configuration aggregate and fluent builders
// (§4.8) that wire providers, agents, workflows, and deliberations together
// without every caller hand-assembling an Options struct.
package session

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/haasonsaas/conclave/internal/agentcore"
)

// ProviderConfig names one vendor's credentials and defaults. The zero value
// means "not configured"; Config.Providers only declares the vendors a
// deployment actually has keys for.
type ProviderConfig struct {
	APIKey       string `yaml:"apiKey"`
	BaseURL      string `yaml:"baseURL,omitempty"`
	DefaultModel string `yaml:"defaultModel,omitempty"`
}

// Defaults fill in an AgentConfig entry's omitted Provider and Model.
// Temperature and MaxTokens are parsed but not applied to any agent.
type Defaults struct {
	Provider    string  `yaml:"provider,omitempty"`
	Model       string  `yaml:"model,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`
	MaxTokens   int     `yaml:"maxTokens,omitempty"`
}

// PersonalityConfig is either a preset key (resolved via
// agentcore.ResolvePreset) or a fully custom personality. Preset wins when
// both are set.
type PersonalityConfig struct {
	Preset            string            `yaml:"preset,omitempty"`
	Name              string            `yaml:"name,omitempty"`
	Description       string            `yaml:"description,omitempty"`
	SystemPrompt      string            `yaml:"systemPrompt,omitempty"`
	Expertise         string            `yaml:"expertise,omitempty"`
	Creativity        float64           `yaml:"creativity,omitempty"`
	Precision         float64           `yaml:"precision,omitempty"`
	CommunicationStyle string           `yaml:"communicationStyle,omitempty"`
	Traits            map[string]string `yaml:"traits,omitempty"`
}

func (p PersonalityConfig) resolve() (agentcore.Personality, error) {
	if p.Preset != "" {
		return agentcore.ResolvePreset(p.Preset)
	}
	return agentcore.Personality{
		DisplayName:  p.Name,
		Description:  p.Description,
		SystemPrompt: p.SystemPrompt,
		Expertise:    p.Expertise,
		Creativity:   p.Creativity,
		Precision:    p.Precision,
		Traits:       p.Traits,
		Style:        agentcore.CommunicationStyle(p.CommunicationStyle),
	}, nil
}

// AgentConfig declares one agent's identity, backing provider, and persona.
type AgentConfig struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name,omitempty"`
	Provider    string             `yaml:"provider"`
	Model       string             `yaml:"model,omitempty"`
	Personality PersonalityConfig  `yaml:"personality"`
}

// Config is the declarative configuration surface (§6): named providers,
// shared defaults, and a flat list of agents to register against them.
type Config struct {
	Providers map[string]ProviderConfig `yaml:"providers"`
	Defaults  Defaults                  `yaml:"defaults"`
	Agents    []AgentConfig             `yaml:"agents"`
}

// LoadConfig reads and parses a session configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("session: failed to read config file: %w", err)
	}
	return ParseConfigYAML(data)
}

// ParseConfigYAML parses session configuration from YAML data, applying the
// same kind of field defaults LoadConfig's teacher counterpart applies.
func ParseConfigYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("session: failed to parse YAML: %w", err)
	}
	for i := range cfg.Agents {
		if cfg.Agents[i].ID == "" {
			return nil, fmt.Errorf("session: agent at index %d has no id", i)
		}
		if cfg.Agents[i].Name == "" {
			cfg.Agents[i].Name = cfg.Agents[i].ID
		}
		if cfg.Agents[i].Provider == "" {
			cfg.Agents[i].Provider = cfg.Defaults.Provider
		}
		if cfg.Agents[i].Model == "" {
			cfg.Agents[i].Model = cfg.Defaults.Model
		}
	}
	return &cfg, nil
}

// SaveConfig serializes a session configuration back to a YAML file.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("session: failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("session: failed to write config file: %w", err)
	}
	return nil
}
