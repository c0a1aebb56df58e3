package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestRole_Constants(t *testing.T) {
	tests := []struct {
		constant Role
		expected string
	}{
		{RoleSystem, "system"},
		{RoleUser, "user"},
		{RoleAssistant, "assistant"},
	}
	for _, tt := range tests {
		if string(tt.constant) != tt.expected {
			t.Errorf("constant = %q, want %q", tt.constant, tt.expected)
		}
	}
}

func TestMessage_Text_PrefersContent(t *testing.T) {
	m := Message{Content: "hello", Blocks: []ContentBlock{{Text: "ignored"}}}
	if m.Text() != "hello" {
		t.Errorf("Text() = %q, want %q", m.Text(), "hello")
	}
}

func TestMessage_Text_JoinsBlocks(t *testing.T) {
	m := Message{Blocks: []ContentBlock{{Text: "a"}, {Text: "b"}}}
	if m.Text() != "ab" {
		t.Errorf("Text() = %q, want %q", m.Text(), "ab")
	}
}

func TestContentBlock_Cacheable(t *testing.T) {
	if !(ContentBlock{Kind: BlockCacheable}).Cacheable() {
		t.Error("BlockCacheable should be cacheable")
	}
	if (ContentBlock{Kind: BlockText}).Cacheable() {
		t.Error("BlockText should not be cacheable")
	}
	if !(ContentBlock{Kind: BlockText, CacheControl: true}).Cacheable() {
		t.Error("explicit CacheControl should be cacheable")
	}
}

func TestMessage_JSONRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	original := Message{
		Role:      RoleAssistant,
		Content:   "hello",
		ToolCalls: []ToolCall{{ID: "tc-1", Name: "search", Input: json.RawMessage(`{"q":"test"}`)}},
		CreatedAt: now,
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var decoded Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if decoded.Role != original.Role {
		t.Errorf("Role = %v, want %v", decoded.Role, original.Role)
	}
	if len(decoded.ToolCalls) != 1 {
		t.Errorf("ToolCalls length = %d, want 1", len(decoded.ToolCalls))
	}
}

func TestToolResult_Format(t *testing.T) {
	ok := ToolResult{ToolCallID: "tc-1", Success: true, Output: "42"}
	if got := ok.Format(); got != "Tool result:\n42" {
		t.Errorf("Format() = %q", got)
	}
	bad := ToolResult{ToolCallID: "tc-2", Success: false, Output: "boom"}
	if got := bad.Format(); got != "Tool error:\nboom" {
		t.Errorf("Format() = %q", got)
	}
}

func TestDangerLevel_Rank(t *testing.T) {
	if !(DangerSafe.Rank() < DangerModerate.Rank() && DangerModerate.Rank() < DangerDangerous.Rank() && DangerDangerous.Rank() < DangerCritical.Rank()) {
		t.Error("danger levels must be monotonically ranked safe < moderate < dangerous < critical")
	}
}
