package geminillm

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/haasonsaas/conclave/internal/agentcore"
	"github.com/haasonsaas/conclave/internal/llm"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", errors.New("rate limit exceeded"), true},
		{"429", errors.New("429 too many requests"), true},
		{"resource exhausted", errors.New("RESOURCE_EXHAUSTED: quota exceeded"), true},
		{"500", errors.New("500 internal error"), true},
		{"503", errors.New("503 unavailable"), true},
		{"timeout", errors.New("request timeout"), true},
		{"deadline exceeded", errors.New("context deadline exceeded"), true},
		{"permission denied", errors.New("PERMISSION_DENIED: invalid api key"), false},
		{"invalid argument", errors.New("INVALID_ARGUMENT: bad schema"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.want {
				t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWrapErrorFormatsModel(t *testing.T) {
	p := &Provider{}
	err := p.wrapError(errors.New("boom"), "gemini-2.0-flash")
	if err == nil {
		t.Fatal("expected non-nil error")
	}
}

func TestWrapErrorNilIsNil(t *testing.T) {
	p := &Provider{}
	if err := p.wrapError(nil, "gemini-2.0-flash"); err != nil {
		t.Errorf("wrapError(nil) = %v, want nil", err)
	}
}

func TestConvertMessagesSkipsSystemRole(t *testing.T) {
	messages := []agentcore.Message{
		{Role: agentcore.RoleSystem, Content: "sys"},
		{Role: agentcore.RoleUser, Content: "hi"},
	}
	out, err := convertMessages(messages)
	if err != nil {
		t.Fatalf("convertMessages: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("len = %d, want 1 (system message should be dropped)", len(out))
	}
	if out[0].Role != "user" {
		t.Errorf("Role = %q, want user", out[0].Role)
	}
}

func TestConvertMessagesMapsAssistantToModelRole(t *testing.T) {
	messages := []agentcore.Message{{Role: agentcore.RoleAssistant, Content: "hello"}}
	out, err := convertMessages(messages)
	if err != nil {
		t.Fatalf("convertMessages: %v", err)
	}
	if len(out) != 1 || out[0].Role != "model" {
		t.Fatalf("got %+v", out)
	}
}

func TestConvertMessagesToolCallFallsBackOnInvalidArgs(t *testing.T) {
	messages := []agentcore.Message{
		{
			Role: agentcore.RoleAssistant,
			ToolCalls: []agentcore.ToolCallRecord{
				{ID: "call_1", Name: "lookup", Input: "not json"},
			},
		},
	}
	out, err := convertMessages(messages)
	if err != nil {
		t.Fatalf("convertMessages: %v", err)
	}
	if len(out) != 1 || len(out[0].Parts) != 1 {
		t.Fatalf("got %+v", out)
	}
	if out[0].Parts[0].FunctionCall == nil || out[0].Parts[0].FunctionCall.Name != "lookup" {
		t.Errorf("got %+v", out[0].Parts[0].FunctionCall)
	}
}

func TestConvertMessagesOmitsEmptyContent(t *testing.T) {
	messages := []agentcore.Message{{Role: agentcore.RoleUser, Content: ""}}
	out, err := convertMessages(messages)
	if err != nil {
		t.Fatalf("convertMessages: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("len = %d, want 0 (empty-content message should be dropped)", len(out))
	}
}

func TestToolNameFromID(t *testing.T) {
	messages := []agentcore.Message{
		{Role: agentcore.RoleAssistant, ToolCalls: []agentcore.ToolCallRecord{{ID: "call_1", Name: "lookup"}}},
	}
	if got := toolNameFromID("call_1", messages); got != "lookup" {
		t.Errorf("toolNameFromID = %q, want lookup", got)
	}
	if got := toolNameFromID("call_missing", messages); got != "" {
		t.Errorf("toolNameFromID(missing) = %q, want empty", got)
	}
}

func TestGenerateToolCallID(t *testing.T) {
	id1 := generateToolCallID("lookup", 0, 0)
	id2 := generateToolCallID("lookup", 0, 1)
	if id1 == id2 {
		t.Errorf("expected distinct IDs for distinct ordinals, got %q == %q", id1, id2)
	}
}

func TestToGeminiSchemaWalksNestedProperties(t *testing.T) {
	var schemaMap map[string]any
	raw := `{
		"type": "object",
		"description": "a query",
		"properties": {
			"q": {"type": "string"},
			"tags": {"type": "array", "items": {"type": "string"}}
		},
		"required": ["q"]
	}`
	if err := json.Unmarshal([]byte(raw), &schemaMap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	schema := toGeminiSchema(schemaMap)
	if schema.Type != "OBJECT" {
		t.Errorf("Type = %q, want OBJECT", schema.Type)
	}
	if schema.Description != "a query" {
		t.Errorf("Description = %q, want %q", schema.Description, "a query")
	}
	if len(schema.Required) != 1 || schema.Required[0] != "q" {
		t.Errorf("Required = %v, want [q]", schema.Required)
	}
	qProp, ok := schema.Properties["q"]
	if !ok || qProp.Type != "STRING" {
		t.Errorf("Properties[q] = %+v", qProp)
	}
	tagsProp, ok := schema.Properties["tags"]
	if !ok || tagsProp.Items == nil || tagsProp.Items.Type != "STRING" {
		t.Errorf("Properties[tags] = %+v", tagsProp)
	}
}

func TestToGeminiSchemaNilInput(t *testing.T) {
	if got := toGeminiSchema(nil); got != nil {
		t.Errorf("toGeminiSchema(nil) = %+v, want nil", got)
	}
}

func TestConvertToolsSkipsInvalidSchema(t *testing.T) {
	tools := []llm.ToolSpec{
		{Name: "search", Description: "search the web", Parameters: json.RawMessage(`{"type":"object","properties":{"q":{"type":"string"}}}`)},
		{Name: "broken", Parameters: json.RawMessage(`not json`)},
	}
	out := convertTools(tools)
	if len(out) != 1 {
		t.Fatalf("expected tool declarations for the one valid schema, got %d", len(out))
	}
	if len(out[0].FunctionDeclarations) != 1 || out[0].FunctionDeclarations[0].Name != "search" {
		t.Errorf("got %+v", out[0].FunctionDeclarations)
	}
}
