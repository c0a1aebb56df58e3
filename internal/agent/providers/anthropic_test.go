package providers

import (
	"encoding/json"
	"testing"

	"github.com/relaycore/agentcore/internal/agent"
	"github.com/relaycore/agentcore/pkg/models"
)

func TestAnthropicProvider_Name(t *testing.T) {
	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "sk-ant-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "anthropic" {
		t.Fatalf("expected name %q, got %q", "anthropic", p.Name())
	}
}

func TestAnthropicProvider_ConvertMessages(t *testing.T) {
	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "sk-ant-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	messages := []agent.CompletionMessage{
		{Role: "system", Content: "ignored"},
		{Role: "user", Content: "what's 2+2?"},
		{Role: "assistant", ToolCalls: []models.ToolCall{
			{ID: "toolu_1", Name: "calculator", Input: json.RawMessage(`{"expr":"2+2"}`)},
		}},
		{Role: "user", ToolResults: []models.ToolResult{
			{ToolCallID: "toolu_1", Success: true, Output: "4"},
		}},
	}

	converted, err := p.convertMessages(messages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// system message is dropped; the rest map 1:1.
	if len(converted) != 3 {
		t.Fatalf("expected 3 converted messages, got %d", len(converted))
	}
}

func TestAnthropicProvider_ConvertTools(t *testing.T) {
	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "sk-ant-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tools := []agent.Tool{
		fakeTool{name: "read_file", schema: json.RawMessage(`{"type":"object","properties":{"path":{"type":"string"}}}`)},
	}
	converted, err := p.convertTools(tools)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(converted) != 1 {
		t.Fatalf("expected 1 converted tool, got %d", len(converted))
	}
}
