package agent

import (
	"context"
	"encoding/json"

	"github.com/relaycore/agentcore/pkg/models"
)

// StopReason is why the model stopped generating.
type StopReason string

const (
	StopEndTurn      StopReason = "end_turn"
	StopToolUse      StopReason = "tool_use"
	StopMaxTokens    StopReason = "max_tokens"
	StopStopSequence StopReason = "stop_sequence"
)

// LLMProvider is the external contract the agent loop calls against. Vendor
// adapters (Anthropic, OpenAI, Gemini) implement this so the loop never
// imports a vendor SDK directly. Implementations must be safe for
// concurrent use.
type LLMProvider interface {
	// Complete sends a prompt and returns a streaming response.
	Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error)

	// Name returns the provider name.
	Name() string

	// Models returns available models.
	Models() []Model

	// SupportsTools returns whether the provider supports tool use.
	SupportsTools() bool
}

// CompletionRequest is one model call: the ordered message history plus
// the tool declarations currently available.
type CompletionRequest struct {
	Model                string               `json:"model"`
	System               string               `json:"system,omitempty"`
	Messages             []CompletionMessage  `json:"messages"`
	Tools                []Tool               `json:"tools,omitempty"`
	MaxTokens            int                  `json:"max_tokens,omitempty"`
	EnableThinking       bool                 `json:"enable_thinking,omitempty"`
	ThinkingBudgetTokens int                  `json:"thinking_budget_tokens,omitempty"`
}

// CompletionMessage is one message in CompletionRequest.Messages.
type CompletionMessage struct {
	Role        string             `json:"role"`
	Content     string             `json:"content,omitempty"`
	ToolCalls   []models.ToolCall  `json:"tool_calls,omitempty"`
	ToolResults []models.ToolResult `json:"tool_results,omitempty"`
}

// Usage reports token and cost accounting for one completion, normalised
// across vendor-specific cache-accounting field names.
type Usage struct {
	InputTokens      int     `json:"input_tokens,omitempty"`
	OutputTokens     int     `json:"output_tokens,omitempty"`
	CacheReadTokens  int     `json:"cache_read_tokens,omitempty"`
	CacheWriteTokens int     `json:"cache_write_tokens,omitempty"`
	Cost             float64 `json:"cost,omitempty"`
}

// CompletionChunk is one chunk of a streaming LLMProvider response.
type CompletionChunk struct {
	Text          string          `json:"text,omitempty"`
	Thinking      string          `json:"thinking,omitempty"`
	ThinkingStart bool            `json:"thinking_start,omitempty"`
	ThinkingEnd   bool            `json:"thinking_end,omitempty"`
	ToolCall      *models.ToolCall `json:"tool_call,omitempty"`
	StopReason    StopReason      `json:"stop_reason,omitempty"`
	Usage         *Usage          `json:"usage,omitempty"`
	Done          bool            `json:"done,omitempty"`
	Error         error           `json:"-"`
}

// Model describes an available LLM model and its capabilities.
type Model struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ContextSize    int    `json:"context_size"`
	SupportsVision bool   `json:"supports_vision"`
}

// Tool is the registry-facing capability surface: a name, a description,
// a declared JSON Schema, and an executor.
type Tool interface {
	Name() string
	Description() string
	Schema() json.RawMessage
	Danger() models.DangerLevel
	Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error)
}

// AsyncTool is implemented by tools that should run as a background job
// rather than block the current iteration.
type AsyncTool interface {
	Tool
	Async() bool
}

// ResponseChunk is a streaming chunk from AgenticLoop.Run, combining model
// text, tool execution results, and lifecycle events for a consumer (UI,
// bridge) to render.
type ResponseChunk struct {
	Text       string              `json:"text,omitempty"`
	Thinking   string              `json:"thinking,omitempty"`
	ToolResult *models.ToolResult  `json:"tool_result,omitempty"`
	ToolEvent  *models.ToolEvent   `json:"tool_event,omitempty"`
	Event      *models.RuntimeEvent `json:"event,omitempty"`
	Error      error               `json:"-"`
}
