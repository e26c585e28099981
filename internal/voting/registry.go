package voting

// Strategies returns one instance of each of the six reconciliation
// strategies, keyed by the Name() each reports. Useful for configuration
// surfaces that select a strategy by tag (§6 configuration surface uses the
// same preset-key convention for personalities).
func Strategies() map[string]Strategy {
	return map[string]Strategy{
		"majority":      Majority{},
		"weighted":      Weighted{},
		"ranked_choice": RankedChoice{},
		"consensus":     Consensus{},
		"aggregation":   Aggregation{},
		"expert_panel":  ExpertPanel{},
	}
}
