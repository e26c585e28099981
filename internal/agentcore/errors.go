package agentcore

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind categorizes engine failures per the error taxonomy: provider
// failures are caught and swallowed into agent response text, timeouts and
// cancellations surface as executor-level failures, configuration errors
// propagate immediately and are never silently converted.
type ErrorKind string

const (
	// KindProvider covers HTTP failure, malformed response, or deserialization
	// failure raised by an LLM capability.
	KindProvider ErrorKind = "provider"

	// KindTimeout is raised only by the single-shot workflow under
	// enableParallelExecution when the linked deadline trips.
	KindTimeout ErrorKind = "timeout"

	// KindCancellation is user-driven; workflow/deliberation state is
	// preserved when this fires.
	KindCancellation ErrorKind = "cancellation"

	// KindConfiguration covers invalid construction input, such as a provider
	// built without an API key or an agent whose tool schema does not
	// compile. An empty agent set is not rejected with this kind.
	KindConfiguration ErrorKind = "configuration"

	// KindSchemaParse means structured output JSON could not be parsed.
	// Non-fatal: callers null out the structured field and keep the text.
	KindSchemaParse ErrorKind = "schema_parse"

	// KindToolInvocation means a tool handler raised or returned failure.
	// Surfaced into the tool-role message seen by the next model call;
	// never propagates past the agent's tool loop.
	KindToolInvocation ErrorKind = "tool_invocation"
)

// IsRetryable reports whether an error of this kind is worth retrying at the
// provider-call layer (network/rate-limit style failures), as opposed to a
// kind that indicates a permanent misconfiguration.
func (k ErrorKind) IsRetryable() bool {
	switch k {
	case KindProvider, KindTimeout:
		return true
	default:
		return false
	}
}

// Sentinel errors for conditions callers commonly check with errors.Is.
var (
	// ErrNoAgents describes a workflow/deliberation/session with zero
	// participating agents. No executor or builder in this module checks for
	// an empty agent set or returns it; a workflow with no agents ends with
	// the "No agent responses received" failure result.
	ErrNoAgents = errors.New("configuration: no agents registered")

	// ErrCancelled describes a run whose caller-provided context is done. The
	// executors do not return it; they report cancellation as a failed Result.
	ErrCancelled = errors.New("execution cancelled")

	// ErrMaxToolIterations describes the agent tool loop reaching its
	// iteration cap. The loop does not return it; it ends with a
	// "maximum iterations reached" response instead.
	ErrMaxToolIterations = errors.New("maximum tool iterations reached")
)

// EngineError is a typed, classified error carrying the operation that
// failed and the underlying cause, in the spirit of the teacher's ToolError:
// a small struct with builder-style With* setters plus errors.Is/As support.
type EngineError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", e.Kind))
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewEngineError builds an EngineError with the given kind, operation and
// cause; the kind is stored as passed, not derived from the cause.
func NewEngineError(kind ErrorKind, op string, cause error) *EngineError {
	return &EngineError{Kind: kind, Op: op, Err: cause}
}

// WithOp sets the operation name on e and returns e.
func (e *EngineError) WithOp(op string) *EngineError {
	e.Op = op
	return e
}

// IsEngineError reports whether err is or wraps an *EngineError.
func IsEngineError(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee)
}

// KindOf extracts the ErrorKind of err, if it is or wraps an *EngineError.
func KindOf(err error) (ErrorKind, bool) {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind, true
	}
	return "", false
}

// classifyProviderError inspects a raw provider error's message for common
// transient-failure patterns, mirroring the teacher's classifyToolError
// string-pattern approach.
func classifyProviderError(err error) ErrorKind {
	if err == nil {
		return KindProvider
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return KindTimeout
	case strings.Contains(msg, "canceled"), strings.Contains(msg, "cancelled"):
		return KindCancellation
	default:
		return KindProvider
	}
}
