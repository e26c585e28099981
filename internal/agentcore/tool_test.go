package agentcore

import (
	"context"
	"encoding/json"
	"testing"
)

func TestToolDefinitionCompileEmptySchemaIsNoop(t *testing.T) {
	tool := &ToolDefinition{Name: "noop"}
	if err := tool.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := tool.ValidateArgs(`{"anything":"goes"}`); err != nil {
		t.Errorf("ValidateArgs with no schema should always pass: %v", err)
	}
}

func TestToolDefinitionCompileRejectsInvalidSchema(t *testing.T) {
	tool := &ToolDefinition{Name: "broken", Parameters: json.RawMessage(`{"type": "nonsense-type"}`)}
	if err := tool.Compile(); err == nil {
		t.Fatal("expected Compile to reject an invalid JSON schema")
	}
}

func TestToolDefinitionValidateArgsAgainstSchema(t *testing.T) {
	tool := &ToolDefinition{
		Name: "search",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {"query": {"type": "string"}},
			"required": ["query"]
		}`),
	}
	if err := tool.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if err := tool.ValidateArgs(`{"query": "hello"}`); err != nil {
		t.Errorf("expected valid args to pass: %v", err)
	}
	if err := tool.ValidateArgs(`{}`); err == nil {
		t.Error("expected missing required field to fail validation")
	}
	if err := tool.ValidateArgs(`not json`); err == nil {
		t.Error("expected malformed JSON to fail validation")
	}
}

func TestToolDefinitionHandlerInvocation(t *testing.T) {
	tool := &ToolDefinition{
		Name: "echo",
		Handler: func(ctx context.Context, argsJSON string) (*ToolResult, error) {
			return &ToolResult{Success: true, Output: argsJSON}, nil
		},
	}
	result, err := tool.Handler(context.Background(), `{"x":1}`)
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}
	if !result.Success || result.Output != `{"x":1}` {
		t.Errorf("result = %+v", result)
	}
}
