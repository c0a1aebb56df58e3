package agent

import "testing"

// TestParseToolCall exercises the §4.1 fenced-json / plain-fenced /
// raw-brace fallback order, including the degenerate cases: no match, a
// missing "input" defaulting to "{}", and multiple candidates where only
// the first well-formed one wins.
func TestParseToolCall(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantFound bool
		wantTool  string
		wantInput string
	}{
		{
			name:      "fenced json block",
			text:      "```json\n{\"tool\":\"calculate\",\"input\":{\"expression\":\"25*4\"}}\n```",
			wantFound: true,
			wantTool:  "calculate",
			wantInput: `{"expression":"25*4"}`,
		},
		{
			name:      "plain fenced block",
			text:      "```\n{\"tool\":\"search\",\"input\":{\"query\":\"go\"}}\n```",
			wantFound: true,
			wantTool:  "search",
			wantInput: `{"query":"go"}`,
		},
		{
			name:      "raw brace object",
			text:      `Sure, calling it now: {"tool":"bash","input":"ls -la"}`,
			wantFound: true,
			wantTool:  "bash",
			wantInput: `"ls -la"`,
		},
		{
			name:      "missing input defaults to empty object",
			text:      `{"tool":"ping"}`,
			wantFound: true,
			wantTool:  "ping",
			wantInput: `{}`,
		},
		{
			name:      "no tool call present",
			text:      "The answer is 42.",
			wantFound: false,
		},
		{
			name:      "empty tool name is rejected",
			text:      `{"tool":"","input":{}}`,
			wantFound: false,
		},
		{
			name:      "malformed json is rejected",
			text:      "```json\n{tool: calculate}\n```",
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, ok := ParseToolCall(tt.text)
			if ok != tt.wantFound {
				t.Fatalf("ParseToolCall(%q) found = %v, want %v", tt.text, ok, tt.wantFound)
			}
			if !tt.wantFound {
				return
			}
			if call.Name != tt.wantTool {
				t.Errorf("Name = %q, want %q", call.Name, tt.wantTool)
			}
			if string(call.Input) != tt.wantInput {
				t.Errorf("Input = %q, want %q", string(call.Input), tt.wantInput)
			}
		})
	}
}

func TestParseToolCallPrefersFencedJSONOverRawBrace(t *testing.T) {
	text := "```json\n{\"tool\":\"calculate\",\"input\":{\"expression\":\"1+1\"}}\n```\n" +
		`and here's a plain object: {"tool":"other","input":{}}`
	call, ok := ParseToolCall(text)
	if !ok {
		t.Fatal("expected a tool call to be found")
	}
	if call.Name != "calculate" {
		t.Errorf("Name = %q, want %q (fenced json block should win)", call.Name, "calculate")
	}
}
