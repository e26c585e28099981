package workflow

import "github.com/haasonsaas/conclave/internal/voting"

// extractValue extracts the workflow's typed result from a voting result:
// the winning structured output when the voting strategy produced one,
// otherwise the winning text.
func extractValue(result *voting.Result) any {
	if result.WinningStructured != nil {
		return result.WinningStructured
	}
	return result.WinningText
}
