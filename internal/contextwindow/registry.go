package contextwindow

// Names of the five context-management policies, for declarative
// configuration surfaces that select one by tag.
const (
	NameSlidingWindow         = "sliding_window"
	NameRecursiveSummarization = "recursive_summarization"
	NameHierarchical          = "hierarchical"
	NameObservationMasking    = "observation_masking"
	NameHybrid                = "hybrid"
)
