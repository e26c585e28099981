package agentcore

import "fmt"

// CommunicationStyle tags how a personality's responses should read.
type CommunicationStyle string

const (
	StyleFormal     CommunicationStyle = "formal"
	StyleCasual     CommunicationStyle = "casual"
	StyleConcise    CommunicationStyle = "concise"
	StyleDetailed   CommunicationStyle = "detailed"
	StyleSocratic   CommunicationStyle = "socratic"
)

// Personality is a declarative bundle of display name, system prompt, numeric
// dials, and a communication-style enum. Personalities are data, not a class
// hierarchy: presets below are plain values, not subtypes.
type Personality struct {
	// DisplayName is shown in transcripts and progress events.
	DisplayName string `json:"display_name" yaml:"displayName"`
	// Description is a short human-facing summary of the persona.
	Description string `json:"description" yaml:"description"`
	// SystemPrompt seeds the agent's implicit system message.
	SystemPrompt string `json:"system_prompt" yaml:"systemPrompt"`
	// Traits is a free-form bag of additional descriptive attributes, folded
	// into the system message as a bulleted list.
	Traits map[string]string `json:"traits,omitempty" yaml:"traits,omitempty"`
	// Creativity is clamped to [0,1]; maps to the completion temperature default.
	Creativity float64 `json:"creativity" yaml:"creativity"`
	// Precision is clamped to [0,1].
	Precision float64 `json:"precision" yaml:"precision"`
	// Expertise is an optional domain tag (e.g. "security", "finance").
	Expertise string `json:"expertise,omitempty" yaml:"expertise,omitempty"`
	// Style governs the suffix appended to the system prompt.
	Style CommunicationStyle `json:"style" yaml:"style"`
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// PersonalityBuilder constructs a Personality, clamping numeric fields the
// way the teacher's builder-style With* setters do for other config structs.
type PersonalityBuilder struct {
	p Personality
}

// NewPersonality starts a builder for a custom personality.
func NewPersonality(displayName, systemPrompt string) *PersonalityBuilder {
	return &PersonalityBuilder{p: Personality{
		DisplayName:  displayName,
		SystemPrompt: systemPrompt,
		Creativity:   0.5,
		Precision:    0.5,
		Style:        StyleDetailed,
	}}
}

func (b *PersonalityBuilder) WithDescription(d string) *PersonalityBuilder {
	b.p.Description = d
	return b
}

func (b *PersonalityBuilder) WithCreativity(v float64) *PersonalityBuilder {
	b.p.Creativity = clamp01(v)
	return b
}

func (b *PersonalityBuilder) WithPrecision(v float64) *PersonalityBuilder {
	b.p.Precision = clamp01(v)
	return b
}

func (b *PersonalityBuilder) WithExpertise(e string) *PersonalityBuilder {
	b.p.Expertise = e
	return b
}

func (b *PersonalityBuilder) WithStyle(s CommunicationStyle) *PersonalityBuilder {
	b.p.Style = s
	return b
}

func (b *PersonalityBuilder) WithTrait(key, value string) *PersonalityBuilder {
	if b.p.Traits == nil {
		b.p.Traits = map[string]string{}
	}
	b.p.Traits[key] = value
	return b
}

// Build returns the finished, immutable Personality value.
func (b *PersonalityBuilder) Build() Personality {
	return b.p
}

// Preset personalities. Resolved via ResolvePreset from the config surface's
// preset keys: analyst, creative, critic, diplomat, expert:<domain>.
var (
	PersonalityAnalyst = Personality{
		DisplayName:  "Analyst",
		Description:  "Data-driven, methodical, weighs evidence before concluding.",
		SystemPrompt: "You are a rigorous analyst. Ground every claim in evidence and call out uncertainty explicitly.",
		Creativity:   0.2,
		Precision:    0.9,
		Style:        StyleDetailed,
	}
	PersonalityCreative = Personality{
		DisplayName:  "Creative",
		Description:  "Explores unconventional angles and novel framings.",
		SystemPrompt: "You are an imaginative thinker. Favor novel framings and unconventional connections over the obvious answer.",
		Creativity:   0.9,
		Precision:    0.4,
		Style:        StyleCasual,
	}
	PersonalityCritic = Personality{
		DisplayName:  "Critic",
		Description:  "Finds flaws, stress-tests claims, pushes back.",
		SystemPrompt: "You are a skeptical critic. Actively look for flaws, edge cases, and unstated assumptions in any proposal.",
		Creativity:   0.3,
		Precision:    0.8,
		Style:        StyleConcise,
	}
	PersonalityDiplomat = Personality{
		DisplayName:  "Diplomat",
		Description:  "Synthesizes competing views, seeks common ground.",
		SystemPrompt: "You are a diplomat. Look for common ground between competing positions and propose balanced syntheses.",
		Creativity:   0.5,
		Precision:    0.6,
		Style:        StyleFormal,
	}
)

// ResolvePreset maps a preset key (analyst, creative, critic, diplomat,
// expert:<domain>) to a Personality value, as the declarative configuration
// surface (§6) allows.
func ResolvePreset(key string) (Personality, error) {
	switch key {
	case "analyst":
		return PersonalityAnalyst, nil
	case "creative":
		return PersonalityCreative, nil
	case "critic":
		return PersonalityCritic, nil
	case "diplomat":
		return PersonalityDiplomat, nil
	}
	const expertPrefix = "expert:"
	if len(key) > len(expertPrefix) && key[:len(expertPrefix)] == expertPrefix {
		domain := key[len(expertPrefix):]
		return Personality{
			DisplayName:  fmt.Sprintf("%s Expert", domain),
			Description:  fmt.Sprintf("Domain expert in %s.", domain),
			SystemPrompt: fmt.Sprintf("You are a domain expert in %s. Answer from deep specialist knowledge and flag when a question falls outside it.", domain),
			Creativity:   0.3,
			Precision:    0.85,
			Expertise:    domain,
			Style:        StyleDetailed,
		}, nil
	}
	return Personality{}, fmt.Errorf("agentcore: unknown personality preset %q", key)
}
