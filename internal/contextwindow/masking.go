package contextwindow

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/haasonsaas/conclave/internal/llm"
)

// MaskStrategy selects how a masked message's content is rewritten.
type MaskStrategy string

const (
	MaskTruncate         MaskStrategy = "truncate"
	MaskRemoveVerbose    MaskStrategy = "remove_verbose"
	MaskExtractKeyPoints MaskStrategy = "extract_key_points"
	MaskPlaceholder      MaskStrategy = "placeholder"
	MaskHybrid           MaskStrategy = "hybrid"
)

// decisionIndicators are fixed phrases that mark a message as load-bearing;
// such messages are never masked regardless of verbosity.
var decisionIndicators = []string{
	"i conclude",
	"final answer",
	"my position is",
	"in conclusion",
	"to summarize my view",
}

var verboseFillerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)as i mentioned`),
	regexp.MustCompile(`(?i)to elaborate`),
	regexp.MustCompile(`(?i)in other words`),
	regexp.MustCompile(`(?i)let me explain`),
	regexp.MustCompile(`(?i)for example`),
	regexp.MustCompile(`(?i)to clarify`),
	regexp.MustCompile(`(?i)what i mean is`),
	regexp.MustCompile(`(?i)specifically`),
}

// ObservationMasking rewrites (rather than drops) verbose or low-signal
// messages, preserving the recent window, the recipient's own messages,
// always-preserved agents, and any message carrying a decision indicator.
// Grounded on internal/agent/context/pruning.go's soft-trim/hard-clear
// settings and other_examples' entrhq-forge ThresholdSummarizationStrategy
// ShouldRun/Summarize shape.
type ObservationMasking struct {
	Provider             llm.Provider
	Strategy             MaskStrategy
	PreserveRecentRounds int
	PreserveOwnMessages  bool
	AlwaysPreserveAgents []string
	VerbosityThreshold   int
	MaskPatterns         []*regexp.Regexp
	DefaultMask          bool
	MaxMaskedLength      int
}

// NewObservationMasking returns an ObservationMasking with the spec's
// documented defaults (preserve own messages, preserve the last 2 rounds).
func NewObservationMasking(provider llm.Provider, strategy MaskStrategy) *ObservationMasking {
	return &ObservationMasking{
		Provider:             provider,
		Strategy:             strategy,
		PreserveRecentRounds: 2,
		PreserveOwnMessages:  true,
		VerbosityThreshold:   200,
		MaxMaskedLength:      240,
	}
}

func (m *ObservationMasking) Project(ctx context.Context, transcript []DeliberationMessage, forAgent string, _ Budget) (*ContextWindow, error) {
	if len(transcript) == 0 {
		return &ContextWindow{Metadata: map[string]int{}}, nil
	}

	currentRound := 0
	for _, msg := range transcript {
		if msg.Round > currentRound {
			currentRound = msg.Round
		}
	}

	masked := 0
	projected := make([]DeliberationMessage, len(transcript))
	for i, msg := range transcript {
		if m.shouldMask(msg, forAgent, currentRound) {
			out := msg
			out.Content = m.applyMask(ctx, msg)
			projected[i] = out
			masked++
		} else {
			projected[i] = msg
		}
	}

	return &ContextWindow{
		Messages:        projected,
		EstimatedTokens: estimateTotalTokens(projected),
		OriginalCount:   len(transcript),
		RetainedCount:   len(projected),
		Metadata: map[string]int{
			"masked_count": masked,
		},
	}, nil
}

func (m *ObservationMasking) shouldMask(msg DeliberationMessage, forAgent string, currentRound int) bool {
	if msg.Round > currentRound-m.PreserveRecentRounds {
		return false
	}
	if m.PreserveOwnMessages && msg.AgentID == forAgent {
		return false
	}
	for _, id := range m.AlwaysPreserveAgents {
		if id == msg.AgentID {
			return false
		}
	}
	if containsDecisionIndicator(msg.Content) {
		return false
	}

	tokenCount := estimateMessageTokens(msg)
	if m.VerbosityThreshold > 0 && tokenCount > m.VerbosityThreshold {
		return true
	}
	for _, pattern := range m.MaskPatterns {
		if pattern.MatchString(msg.Content) {
			return true
		}
	}
	return m.DefaultMask
}

func containsDecisionIndicator(content string) bool {
	lower := strings.ToLower(content)
	for _, phrase := range decisionIndicators {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func (m *ObservationMasking) applyMask(ctx context.Context, msg DeliberationMessage) string {
	switch m.Strategy {
	case MaskTruncate:
		return truncateMask(msg.Content, m.MaxMaskedLength)
	case MaskRemoveVerbose:
		return removeVerboseMask(msg.Content)
	case MaskExtractKeyPoints:
		return m.extractKeyPointsMask(ctx, msg)
	case MaskPlaceholder:
		return placeholderMask(msg)
	case MaskHybrid:
		condensed := removeVerboseMask(msg.Content)
		if EstimateTokens(condensed) > m.MaxMaskedLength/4 {
			return m.extractKeyPointsMask(ctx, msg)
		}
		return condensed
	default:
		return truncateMask(msg.Content, m.MaxMaskedLength)
	}
}

func truncateMask(content string, maxLen int) string {
	limit := maxLen - 20
	if limit <= 0 {
		limit = maxLen
	}
	if len(content) <= limit {
		return content
	}
	sentences := strings.Split(content, ". ")
	var b strings.Builder
	for _, s := range sentences {
		if b.Len()+len(s)+2 > limit {
			break
		}
		if b.Len() > 0 {
			b.WriteString(". ")
		}
		b.WriteString(s)
	}
	if b.Len() == 0 {
		b.WriteString(content[:limit])
	}
	return b.String() + " [truncated]"
}

func removeVerboseMask(content string) string {
	result := content
	for _, pattern := range verboseFillerPatterns {
		result = pattern.ReplaceAllString(result, "")
	}
	result = strings.Join(strings.Fields(result), " ")
	if len(content) > 0 && float64(len(result)) < 0.5*float64(len(content)) {
		return result + " [condensed]"
	}
	return result
}

func (m *ObservationMasking) extractKeyPointsMask(ctx context.Context, msg DeliberationMessage) string {
	if m.Provider == nil {
		return "[Key points from " + msg.AgentName + "] " + truncateMask(msg.Content, m.MaxMaskedLength)
	}
	s := &summarizer{provider: m.Provider}
	text, err := s.complete(ctx, "Extract at most 3 concise bullet points from the message.", msg.Content, 0.2, 150)
	if err != nil {
		return "[Key points from " + msg.AgentName + "] " + truncateMask(msg.Content, m.MaxMaskedLength)
	}
	return "[Key points from " + msg.AgentName + "] " + text
}

func placeholderMask(msg DeliberationMessage) string {
	words := len(strings.Fields(msg.Content))
	suffix := ""
	if containsDecisionIndicator(msg.Content) {
		suffix = ", contains decision"
	}
	return fmt.Sprintf("[%s - Round %d: ~%d words%s]", msg.AgentName, msg.Round, words, suffix)
}
