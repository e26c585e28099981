package agentcore

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKindIsRetryable(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want bool
	}{
		{KindProvider, true},
		{KindTimeout, true},
		{KindCancellation, false},
		{KindConfiguration, false},
		{KindSchemaParse, false},
		{KindToolInvocation, false},
	}
	for _, tt := range tests {
		if got := tt.kind.IsRetryable(); got != tt.want {
			t.Errorf("%s.IsRetryable() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestEngineErrorUnwrapAndIs(t *testing.T) {
	cause := errors.New("boom")
	ee := NewEngineError(KindProvider, "agent.process:openai", cause)

	if !errors.Is(ee, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
	if !IsEngineError(ee) {
		t.Error("expected IsEngineError(ee) to be true")
	}
	if !IsEngineError(fmt.Errorf("wrapped: %w", ee)) {
		t.Error("expected IsEngineError to see through fmt.Errorf wrapping")
	}
	if IsEngineError(cause) {
		t.Error("expected IsEngineError(cause) to be false for a plain error")
	}

	kind, ok := KindOf(ee)
	if !ok || kind != KindProvider {
		t.Errorf("KindOf = (%v, %v), want (%v, true)", kind, ok, KindProvider)
	}
	if _, ok := KindOf(cause); ok {
		t.Error("expected KindOf(plain error) to report ok=false")
	}
}

func TestEngineErrorMessageIncludesKindOpAndCause(t *testing.T) {
	ee := NewEngineError(KindConfiguration, "session.build", errors.New("no agents"))
	msg := ee.Error()
	if msg != "[configuration] session.build no agents" {
		t.Errorf("Error() = %q", msg)
	}
}

func TestEngineErrorWithOp(t *testing.T) {
	ee := NewEngineError(KindProvider, "", errors.New("boom")).WithOp("agent.process:anthropic")
	if ee.Op != "agent.process:anthropic" {
		t.Errorf("Op = %q", ee.Op)
	}
}

func TestClassifyProviderError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindProvider},
		{"timeout", errors.New("request timeout"), KindTimeout},
		{"deadline exceeded", errors.New("context deadline exceeded"), KindTimeout},
		{"canceled", errors.New("request canceled"), KindCancellation},
		{"cancelled", errors.New("operation cancelled by caller"), KindCancellation},
		{"other", errors.New("rate limit exceeded"), KindProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyProviderError(tt.err); got != tt.want {
				t.Errorf("classifyProviderError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
