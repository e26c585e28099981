package agentcore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ToolResult is returned by a tool Handler: either a successful output string
// or a failure, per the external tool-handler contract in §6.
type ToolResult struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
	Error   string `json:"error,omitempty"`
}

// Handler executes a tool given its raw JSON arguments. Handlers may
// suspend and must be cancellation-aware.
type Handler func(ctx context.Context, argsJSON string) (*ToolResult, error)

// ToolDefinition is static at build time; tool names are unique within an
// agent's tool set.
type ToolDefinition struct {
	Name        string
	Description string
	// Parameters is the tool's JSON-schema parameter document.
	Parameters json.RawMessage
	Handler    Handler

	compiled *jsonschema.Schema
}

// Compile validates Parameters as a JSON schema document, caching the
// compiled schema for later argument validation. Tool registration fails
// fast on a malformed schema rather than deferring to first invocation.
func (t *ToolDefinition) Compile() error {
	if len(t.Parameters) == 0 {
		return nil
	}
	compiler := jsonschema.NewCompiler()
	resourceName := fmt.Sprintf("%s.schema.json", t.Name)
	if err := compiler.AddResource(resourceName, bytes.NewReader(t.Parameters)); err != nil {
		return fmt.Errorf("agentcore: invalid schema for tool %q: %w", t.Name, err)
	}
	schema, err := compiler.Compile(resourceName)
	if err != nil {
		return fmt.Errorf("agentcore: invalid schema for tool %q: %w", t.Name, err)
	}
	t.compiled = schema
	return nil
}

// ValidateArgs checks argsJSON against the tool's compiled schema, if any.
func (t *ToolDefinition) ValidateArgs(argsJSON string) error {
	if t.compiled == nil {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(argsJSON), &v); err != nil {
		return fmt.Errorf("agentcore: tool %q arguments are not valid JSON: %w", t.Name, err)
	}
	if err := t.compiled.Validate(v); err != nil {
		return fmt.Errorf("agentcore: tool %q arguments failed schema validation: %w", t.Name, err)
	}
	return nil
}
