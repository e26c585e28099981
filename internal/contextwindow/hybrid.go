package contextwindow

import "context"

// Hybrid auto-selects among sliding/masking/recursive summarization based on
// how far the transcript exceeds budget, composing the other managers rather
// than reimplementing their logic. Grounded on the mode-switch idiom in
// internal/multiagent/context.go's BuildSharedContext.
type Hybrid struct {
	Sliding   *SlidingWindow
	Masking   *ObservationMasking
	Recursive *RecursiveSummarization
}

// NewHybrid wires a Hybrid from the other three managers, defaulting any nil
// Sliding to the documented SlidingWindow defaults.
func NewHybrid(sliding *SlidingWindow, masking *ObservationMasking, recursive *RecursiveSummarization) *Hybrid {
	if sliding == nil {
		sliding = NewSlidingWindow()
	}
	return &Hybrid{Sliding: sliding, Masking: masking, Recursive: recursive}
}

func (h *Hybrid) Project(ctx context.Context, transcript []DeliberationMessage, forAgent string, budget Budget) (*ContextWindow, error) {
	if len(transcript) == 0 {
		return &ContextWindow{Metadata: map[string]int{}}, nil
	}
	if budget.MaxTokens <= 0 {
		return h.Sliding.Project(ctx, transcript, forAgent, budget)
	}

	currentTokens := estimateTotalTokens(transcript)
	factor := float64(currentTokens) / float64(budget.MaxTokens)

	currentRound := 0
	for _, m := range transcript {
		if m.Round > currentRound {
			currentRound = m.Round
		}
	}

	switch {
	case factor <= 1.5:
		return h.Sliding.Project(ctx, transcript, forAgent, budget)

	case factor <= 2.5:
		masked, err := h.maskOrPassthrough(ctx, transcript, forAgent, budget)
		if err != nil {
			return nil, err
		}
		return h.Sliding.Project(ctx, masked.Messages, forAgent, budget)

	case currentRound > 5 && h.Recursive != nil:
		masked, err := h.maskOrPassthrough(ctx, transcript, forAgent, budget)
		if err != nil {
			return nil, err
		}
		return h.Recursive.Project(ctx, masked.Messages, forAgent, budget)

	default:
		masked, err := h.maskOrPassthrough(ctx, transcript, forAgent, budget)
		if err != nil {
			return nil, err
		}
		if fitsBudget(masked, budget) {
			return masked, nil
		}
		if h.Recursive == nil {
			return h.Sliding.Project(ctx, masked.Messages, forAgent, budget)
		}
		recursed, err := h.Recursive.Project(ctx, masked.Messages, forAgent, budget)
		if err != nil {
			return nil, err
		}
		if fitsBudget(recursed, budget) {
			return recursed, nil
		}
		return h.Sliding.Project(ctx, recursed.Messages, forAgent, budget)
	}
}

func (h *Hybrid) maskOrPassthrough(ctx context.Context, transcript []DeliberationMessage, forAgent string, budget Budget) (*ContextWindow, error) {
	if h.Masking == nil {
		return &ContextWindow{
			Messages:        transcript,
			EstimatedTokens: estimateTotalTokens(transcript),
			OriginalCount:   len(transcript),
			RetainedCount:   len(transcript),
			Metadata:        map[string]int{},
		}, nil
	}
	return h.Masking.Project(ctx, transcript, forAgent, budget)
}

func fitsBudget(w *ContextWindow, budget Budget) bool {
	return budget.MaxTokens <= 0 || w.EstimatedTokens <= budget.MaxTokens
}
