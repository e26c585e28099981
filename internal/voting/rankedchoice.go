package voting

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/haasonsaas/conclave/internal/agentcore"
)

// RankedChoice asks an arbiter for a best-first permutation of the response
// indices, then runs instant-runoff elimination over it.
type RankedChoice struct{}

func (RankedChoice) Name() string { return "ranked_choice" }

func (RankedChoice) Vote(ctx context.Context, task string, responses []agentcore.AgentResponse, vctx Context) (*Result, error) {
	if len(responses) == 0 {
		return empty("ranked_choice"), nil
	}
	n := len(responses)

	if vctx.Arbiter == nil {
		winner := responses[0]
		return &Result{
			WinningText:       winner.Text,
			WinningStructured: winner.Structured,
			WinningAgentID:    winner.AgentID,
			Strategy:          "ranked_choice",
			Tally:             map[string]int{},
			Consensus:         1.0 / float64(n),
		}, nil
	}

	content, err := vctx.Arbiter.complete(ctx, buildRankedChoicePrompt(task, responses), 0.0)
	if err != nil {
		return nil, err
	}

	perm := parsePermutation(content, n)
	winnerIdx := instantRunoff([][]int{perm}, n)
	winner := responses[winnerIdx-1]

	tally := map[string]int{}
	for rank, idx := range perm {
		tally[responses[idx-1].AgentID] = n - rank
	}

	return &Result{
		WinningText:       winner.Text,
		WinningStructured: winner.Structured,
		WinningAgentID:    winner.AgentID,
		Strategy:          "ranked_choice",
		Tally:             tally,
		Consensus:         1.0,
	}, nil
}

func buildRankedChoicePrompt(task string, responses []agentcore.AgentResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n\nRank the following responses from best to worst.\n", task)
	for i, r := range responses {
		fmt.Fprintf(&b, "%d. (%s) %s\n", i+1, r.AgentName, r.Text)
	}
	b.WriteString("\nReply with only a comma-separated permutation of the numbers, best first (e.g. \"2,1,3\").")
	return b.String()
}

// parsePermutation parses a comma-separated 1-based permutation, deduping
// and dropping out-of-range entries, then appends any indices missing from
// the result in natural order. A completely unparseable string therefore
// yields the natural-order permutation 1..n.
func parsePermutation(s string, n int) []int {
	seen := make(map[int]bool, n)
	perm := make([]int, 0, n)
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || v < 1 || v > n || seen[v] {
			continue
		}
		seen[v] = true
		perm = append(perm, v)
	}
	for v := 1; v <= n; v++ {
		if !seen[v] {
			perm = append(perm, v)
		}
	}
	return perm
}

// instantRunoff resolves a winner by repeated elimination of the
// fewest-votes candidate until one candidate has strictly more than half of
// the votes cast in a round, or only one candidate remains. Accepting a
// slice of ballots (rather than a single permutation) keeps the algorithm
// correct if ever extended to aggregate multiple rankings.
func instantRunoff(ballots [][]int, n int) int {
	eliminated := make([]bool, n+1)
	remaining := n

	for remaining > 1 {
		tally := make([]int, n+1)
		total := 0
		for _, ballot := range ballots {
			for _, c := range ballot {
				if !eliminated[c] {
					tally[c]++
					total++
					break
				}
			}
		}
		if total == 0 {
			break
		}
		for c := 1; c <= n; c++ {
			if !eliminated[c] && tally[c]*2 > total {
				return c
			}
		}

		minC, minCount := 0, -1
		for c := 1; c <= n; c++ {
			if eliminated[c] {
				continue
			}
			if minCount == -1 || tally[c] < minCount {
				minCount = tally[c]
				minC = c
			}
		}
		if minC == 0 {
			break
		}
		eliminated[minC] = true
		remaining--
	}

	for c := 1; c <= n; c++ {
		if !eliminated[c] {
			return c
		}
	}
	return 1
}
