package providers

import (
	"encoding/json"
	"testing"

	"github.com/relaycore/agentcore/internal/agent"
	"github.com/relaycore/agentcore/pkg/models"
)

func newTestGoogleProvider(t *testing.T) *GoogleProvider {
	t.Helper()
	p, err := NewGoogleProvider(GoogleConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestGoogleProvider_Name(t *testing.T) {
	p := newTestGoogleProvider(t)
	if p.Name() != "google" {
		t.Fatalf("expected name %q, got %q", "google", p.Name())
	}
}

func TestGoogleProvider_ConvertMessages(t *testing.T) {
	p := newTestGoogleProvider(t)

	messages := []agent.CompletionMessage{
		{Role: "system", Content: "ignored"},
		{Role: "user", Content: "hello"},
		{Role: "assistant", ToolCalls: []models.ToolCall{
			{ID: "call_1", Name: "search", Input: json.RawMessage(`{"q":"hi"}`)},
		}},
		{Role: "tool", ToolResults: []models.ToolResult{
			{ToolCallID: "call_1", Success: true, Output: `{"result":"ok"}`},
		}},
	}

	converted, err := p.convertMessages(messages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(converted) != 3 {
		t.Fatalf("expected 3 converted messages (system dropped), got %d", len(converted))
	}
}

func TestGoogleProvider_ConvertTools(t *testing.T) {
	p := newTestGoogleProvider(t)
	tools := []agent.Tool{
		fakeTool{name: "search", schema: json.RawMessage(`{"type":"object","properties":{"q":{"type":"string"}}}`)},
	}
	converted := p.convertTools(tools)
	if len(converted) != 1 {
		t.Fatalf("expected 1 converted tool group, got %d", len(converted))
	}
}
