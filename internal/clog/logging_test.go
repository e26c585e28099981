package clog

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer) *Logger {
	return New(Config{Output: buf, Format: "json", Level: "debug"})
}

func TestLoggerRedactsAnthropicKeyInMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	key := "sk-ant-" + strings.Repeat("a", 100)
	logger.Info(context.Background(), "failed request with key "+key)

	if strings.Contains(buf.String(), key) {
		t.Fatalf("log output leaked API key: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "[REDACTED]") {
		t.Fatalf("expected redaction marker, got: %s", buf.String())
	}
}

func TestLoggerRedactsKeyInArgValue(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	key := "sk-" + strings.Repeat("b", 50)
	logger.Error(context.Background(), "provider error", "detail", key)

	if strings.Contains(buf.String(), key) {
		t.Fatalf("log output leaked API key via arg: %s", buf.String())
	}
}

func TestLoggerRedactsErrorArg(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	key := "sk-" + strings.Repeat("c", 50)
	logger.Error(context.Background(), "request failed", "error", errString(key))

	if strings.Contains(buf.String(), key) {
		t.Fatalf("log output leaked API key via error arg: %s", buf.String())
	}
}

type errString string

func (e errString) Error() string { return string(e) }

func TestContextCorrelationFieldsAppearInOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	ctx := WithExecution(context.Background(), "exec-123")
	ctx = WithRound(ctx, 3)
	ctx = WithAgent(ctx, "agent-a")

	logger.Info(ctx, "round started")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected valid JSON log line: %v", err)
	}
	if record["execution_id"] != "exec-123" {
		t.Errorf("execution_id = %v, want exec-123", record["execution_id"])
	}
	if record["round"] != float64(3) {
		t.Errorf("round = %v, want 3", record["round"])
	}
	if record["agent_id"] != "agent-a" {
		t.Errorf("agent_id = %v, want agent-a", record["agent_id"])
	}
}

func TestContextWithoutCorrelationOmitsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	logger.Info(context.Background(), "no correlation")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected valid JSON log line: %v", err)
	}
	for _, key := range []string{"execution_id", "round", "agent_id"} {
		if _, ok := record[key]; ok {
			t.Errorf("did not expect %q in output: %v", key, record)
		}
	}
}

func TestLevelFiltersBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Format: "json", Level: "warn"})

	logger.Info(context.Background(), "should be filtered")
	if buf.Len() != 0 {
		t.Fatalf("expected info log to be filtered at warn level, got: %s", buf.String())
	}

	logger.Warn(context.Background(), "should pass")
	if buf.Len() == 0 {
		t.Fatal("expected warn log to pass at warn level")
	}
}

func TestWithFieldsAppendsToEveryRecord(t *testing.T) {
	var buf bytes.Buffer
	base := newTestLogger(&buf)
	scoped := base.WithFields("component", "executor")

	scoped.Info(context.Background(), "hello")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected valid JSON log line: %v", err)
	}
	if record["component"] != "executor" {
		t.Errorf("component = %v, want executor", record["component"])
	}
}

func TestCustomRedactPatternsAreAppendedToDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Format: "json", Level: "info", RedactPatterns: []string{`secret-\d+`}})

	logger.Info(context.Background(), "leaked secret-42")
	if strings.Contains(buf.String(), "secret-42") {
		t.Fatalf("custom redact pattern did not apply: %s", buf.String())
	}
}
