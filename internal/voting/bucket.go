package voting

import (
	"strings"

	"github.com/haasonsaas/conclave/internal/agentcore"
)

// normalizeKey is the bucket key shared by Majority and Weighted: lowercased,
// trimmed, truncated to the first 100 characters. Go maps key natively on
// strings, so no separate hashing step is needed.
func normalizeKey(text string) string {
	key := strings.ToLower(strings.TrimSpace(text))
	if len(key) > 100 {
		key = key[:100]
	}
	return key
}

// bucket accumulates responses under their normalized key while preserving
// first-encountered insertion order, mirroring the ordered-construction idiom
// used elsewhere in the engine for tie-break-sensitive aggregation.
type bucket struct {
	key       string
	responses []agentcore.AgentResponse
	score     float64
}
