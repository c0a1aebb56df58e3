package agent

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/relaycore/agentcore/pkg/models"
)

var (
	fencedJSONBlockRE = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")
	plainFencedBlockRE = regexp.MustCompile("(?s)```\\s*(\\{.*?\\})\\s*```")
	rawBraceObjectRE   = regexp.MustCompile(`(?s)\{[^{}]*"tool"\s*:\s*"[^"]+".*?\}`)
)

type rawToolCall struct {
	Tool  string          `json:"tool"`
	Input json.RawMessage `json:"input"`
}

// ParseToolCall extracts a tool invocation from assistant response text.
// It tries, in order, a fenced json block, a plain fenced block, and a raw
// brace-delimited object whose top-level has a "tool" key (§4.1). The first
// candidate that parses into an object with a string "tool" property wins;
// a missing "input" defaults to an empty object.
func ParseToolCall(text string) (*models.ToolCall, bool) {
	candidates := extractCandidates(text)
	for _, candidate := range candidates {
		var raw rawToolCall
		if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
			continue
		}
		if strings.TrimSpace(raw.Tool) == "" {
			continue
		}
		input := raw.Input
		if len(input) == 0 {
			input = json.RawMessage(`{}`)
		}
		return &models.ToolCall{Name: raw.Tool, Input: input}, true
	}
	return nil, false
}

func extractCandidates(text string) []string {
	var candidates []string
	if m := fencedJSONBlockRE.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	if m := plainFencedBlockRE.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	if m := rawBraceObjectRE.FindString(text); m != "" {
		candidates = append(candidates, m)
	}
	return candidates
}
