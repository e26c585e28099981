package termination

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/haasonsaas/conclave/internal/contextwindow"
)

func TestMaxRoundsTerminatesAtOrAfterN(t *testing.T) {
	m := MaxRounds{N: 3}
	state := &contextwindow.DeliberationState{CurrentRound: 2}

	decision, err := m.Check(context.Background(), state)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if decision.ShouldTerminate {
		t.Fatalf("round 2 of 3 should not terminate yet")
	}

	state.CurrentRound = 3
	decision, err = m.Check(context.Background(), state)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !decision.ShouldTerminate || decision.Reason != ReasonMaxRoundsReached {
		t.Fatalf("round 3 of 3 should terminate with MaxRoundsReached, got %+v", decision)
	}
	if decision.Confidence != 1.0 {
		t.Fatalf("deterministic reason must report confidence 1.0, got %v", decision.Confidence)
	}
}

func TestMaxTokensAndMaxTime(t *testing.T) {
	tokens := MaxTokens{N: 1000}
	state := &contextwindow.DeliberationState{TotalTokensUsed: 1000}
	decision, _ := tokens.Check(context.Background(), state)
	if !decision.ShouldTerminate || decision.Reason != ReasonMaxTokensReached {
		t.Fatalf("expected MaxTokensReached, got %+v", decision)
	}

	maxTime := MaxTime{D: 5 * time.Minute}
	state2 := &contextwindow.DeliberationState{Elapsed: 6 * time.Minute}
	decision2, _ := maxTime.Check(context.Background(), state2)
	if !decision2.ShouldTerminate || decision2.Reason != ReasonMaxTimeReached {
		t.Fatalf("expected MaxTimeReached, got %+v", decision2)
	}
}

func TestConvergenceRequiresMinRoundsAndThreshold(t *testing.T) {
	c := Convergence{Threshold: 0.8, MinRounds: 2}
	score := 0.9

	state := &contextwindow.DeliberationState{CurrentRound: 1, ConvergenceScore: &score}
	decision, _ := c.Check(context.Background(), state)
	if decision.ShouldTerminate {
		t.Fatalf("round 1 is below MinRounds, must not terminate even with a high score")
	}

	state.CurrentRound = 2
	decision, _ = c.Check(context.Background(), state)
	if !decision.ShouldTerminate || decision.Reason != ReasonConvergenceAchieved {
		t.Fatalf("expected ConvergenceAchieved at round 2 with score 0.9, got %+v", decision)
	}
}

func TestCustomStrategyWrapsPredicate(t *testing.T) {
	c := Custom{
		Description: "stop once a flag file appears",
		Predicate: func(_ context.Context, _ *contextwindow.DeliberationState) (bool, error) {
			return true, nil
		},
	}
	decision, err := c.Check(context.Background(), &contextwindow.DeliberationState{})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !decision.ShouldTerminate || decision.Reason != ReasonCustomCondition {
		t.Fatalf("expected CustomCondition, got %+v", decision)
	}
}

func TestCustomStrategyPropagatesPredicateError(t *testing.T) {
	wantErr := errors.New("boom")
	c := Custom{Predicate: func(_ context.Context, _ *contextwindow.DeliberationState) (bool, error) {
		return false, wantErr
	}}
	_, err := c.Check(context.Background(), &contextwindow.DeliberationState{})
	if err != wantErr {
		t.Fatalf("expected predicate error to propagate, got %v", err)
	}
}

type orderRecordingStrategy struct {
	name    string
	fires   bool
	visited *[]string
}

func (o orderRecordingStrategy) Check(_ context.Context, _ *contextwindow.DeliberationState) (Decision, error) {
	*o.visited = append(*o.visited, o.name)
	if o.fires {
		return Decision{ShouldTerminate: true, Reason: o.name, Confidence: 1.0}, nil
	}
	return no(), nil
}

func TestCompositeAnyShortCircuitsInInsertionOrder(t *testing.T) {
	var visited []string
	composite := Composite{
		Mode: Any,
		Children: []Strategy{
			orderRecordingStrategy{name: "cheap", fires: false, visited: &visited},
			orderRecordingStrategy{name: "fires-here", fires: true, visited: &visited},
			orderRecordingStrategy{name: "never-reached", fires: true, visited: &visited},
		},
	}
	decision, err := composite.Check(context.Background(), &contextwindow.DeliberationState{})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if decision.Reason != "fires-here" {
		t.Fatalf("expected the second child's decision, got %+v", decision)
	}
	if len(visited) != 2 {
		t.Fatalf("expected exactly 2 children checked before short-circuit, got %v", visited)
	}
}

func TestCompositeAllRequiresEveryChild(t *testing.T) {
	composite := Composite{
		Mode: All,
		Children: []Strategy{
			MaxRounds{N: 3},
			Convergence{Threshold: 0.8, MinRounds: 1},
		},
	}
	score := 0.5
	state := &contextwindow.DeliberationState{CurrentRound: 3, ConvergenceScore: &score}
	decision, err := composite.Check(context.Background(), state)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if decision.ShouldTerminate {
		t.Fatalf("All mode must not terminate unless every child fires; convergence score 0.5 < 0.8")
	}

	score = 0.9
	decision, err = composite.Check(context.Background(), state)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !decision.ShouldTerminate || decision.Reason != ReasonCompositeAll {
		t.Fatalf("expected CompositeAll once every child fires, got %+v", decision)
	}
}
