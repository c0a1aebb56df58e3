package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/relaycore/agentcore/internal/observability"
	"github.com/relaycore/agentcore/internal/retry"
	"github.com/relaycore/agentcore/pkg/models"
)

// AgentLoop drives the iteration loop of §4.1: call the model, parse any
// tool call out of its response, execute it, fold the result back into
// history, and repeat until the model produces a final answer, a tool
// error aborts the run, or an iteration budget runs out.
type AgentLoop struct {
	provider LLMProvider
	registry *ToolRegistry
	opts     RuntimeOptions

	model        string
	systemPrompt string
}

// NewAgentLoop constructs a loop around a provider and tool registry. If
// opts is the zero value, DefaultRuntimeOptions is used.
func NewAgentLoop(provider LLMProvider, registry *ToolRegistry, opts RuntimeOptions) *AgentLoop {
	merged := mergeRuntimeOptions(DefaultRuntimeOptions(), opts)
	if registry == nil {
		registry = NewToolRegistry("")
	}
	return &AgentLoop{provider: provider, registry: registry, opts: merged}
}

// SetModel sets the model identifier passed with every completion request.
func (l *AgentLoop) SetModel(model string) { l.model = model }

// SetSystemPrompt sets the system prompt prepended to every run's history.
func (l *AgentLoop) SetSystemPrompt(prompt string) { l.systemPrompt = prompt }

func (l *AgentLoop) logger() *slog.Logger {
	if l.opts.Logger != nil {
		return l.opts.Logger
	}
	return slog.Default()
}

func (l *AgentLoop) metrics() *observability.Metrics {
	return l.opts.Metrics
}

// Run executes the loop for a single task and returns the terminal
// AgentResult described in §4.1. It never returns a non-nil error itself;
// failures are reported through AgentResult.Success/Message, matching the
// contract that the loop never crashes on a tool or model error.
func (l *AgentLoop) Run(ctx context.Context, task string) (*models.AgentResult, error) {
	if l.provider == nil {
		return nil, ErrNoProvider
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if l.opts.MaxWallTime > 0 {
		runCtx, cancel = context.WithTimeout(ctx, l.opts.MaxWallTime)
		defer cancel()
	}

	history := make([]models.Message, 0, l.opts.MaxIterations*2+2)
	if strings.TrimSpace(l.systemPrompt) != "" {
		history = append(history, models.Message{Role: models.RoleSystem, Content: l.systemPrompt, CreatedAt: time.Now()})
	}
	history = append(history, models.Message{Role: models.RoleUser, Content: task, CreatedAt: time.Now()})

	totalToolCalls := 0

	for iteration := 0; iteration < l.opts.MaxIterations; iteration++ {
		select {
		case <-runCtx.Done():
			return &models.AgentResult{
				Success:    false,
				Message:    fmt.Sprintf("run cancelled: %v", runCtx.Err()),
				Iterations: iteration,
				History:    history,
			}, nil
		default:
		}

		text, toolCall, err := l.callModel(runCtx, history)
		if err != nil {
			l.logger().ErrorContext(runCtx, "model call failed", "iteration", iteration, "error", err)
			if m := l.metrics(); m != nil {
				m.RecordError("loop", "llm_request_failed")
				m.RecordRunAttempt("failed")
			}
			return &models.AgentResult{
				Success:    false,
				Message:    "LLM error: " + err.Error(),
				Iterations: iteration,
				History:    history,
			}, nil
		}

		assistantMsg := models.Message{Role: models.RoleAssistant, Content: text, CreatedAt: time.Now()}
		if toolCall != nil {
			assistantMsg.ToolCalls = []models.ToolCall{*toolCall}
		}
		history = append(history, assistantMsg)

		if toolCall == nil {
			intent := AnalyzeCompletionIntent(text)
			if intent.IsIncompleteAction && intent.Confidence >= l.opts.ConfidenceHalt {
				history = append(history, models.Message{
					Role: models.RoleUser, Content: guidanceMessage(intent), CreatedAt: time.Now(),
				})
				continue
			}
			if m := l.metrics(); m != nil {
				m.RecordRunAttempt("success")
			}
			return &models.AgentResult{
				Success:    true,
				Message:    text,
				Iterations: iteration + 1,
				History:    history,
			}, nil
		}

		if l.opts.MaxToolCalls > 0 && totalToolCalls >= l.opts.MaxToolCalls {
			if m := l.metrics(); m != nil {
				m.RecordRunAttempt("failed")
			}
			return &models.AgentResult{
				Success:    false,
				Message:    fmt.Sprintf("tool calls exceed maximum of %d for run", l.opts.MaxToolCalls),
				Iterations: iteration + 1,
				History:    history,
			}, nil
		}
		totalToolCalls++

		if _, ok := l.registry.Get(toolCall.Name); !ok {
			history = append(history, models.Message{
				Role:      models.RoleUser,
				Content:   fmt.Sprintf("Error: Unknown tool %q. Available: %s", toolCall.Name, strings.Join(l.toolNames(), ", ")),
				CreatedAt: time.Now(),
			})
			continue
		}

		l.logger().DebugContext(runCtx, "executing tool", "iteration", iteration, "tool", toolCall.Name)
		result := l.executeToolWithRetry(runCtx, *toolCall)
		result.ToolCallID = toolCall.ID

		if l.opts.ToolResultGuard.active() {
			result = l.opts.ToolResultGuard.Apply(toolCall.Name, result, nil)
		}

		history = append(history, models.Message{
			Role:      models.RoleUser,
			Content:   result.Format(),
			CreatedAt: time.Now(),
		})
	}

	if m := l.metrics(); m != nil {
		m.RecordRunAttempt("failed")
	}
	return &models.AgentResult{
		Success:    false,
		Message:    fmt.Sprintf("Max iterations (%d) reached without completing the task", l.opts.MaxIterations),
		Iterations: l.opts.MaxIterations,
		History:    history,
	}, nil
}

// callModel issues one completion request and collects the streamed text
// and, if present, a single tool call — either provider-native (via
// CompletionChunk.ToolCall) or parsed out of the accumulated text per
// §4.1's fenced-json / plain-fenced / raw-brace fallback order.
func (l *AgentLoop) callModel(ctx context.Context, history []models.Message) (string, *models.ToolCall, error) {
	req := &CompletionRequest{
		Model:     l.model,
		Messages:  toCompletionMessages(history),
		Tools:     l.registry.AsLLMTools(),
		MaxTokens: maxCompletionTokens,
	}
	if strings.TrimSpace(l.systemPrompt) != "" {
		req.System = l.systemPrompt
	}

	start := time.Now()
	chunks, err := l.provider.Complete(ctx, req)
	if err != nil {
		if m := l.metrics(); m != nil {
			m.RecordLLMRequest(l.provider.Name(), l.model, "error", time.Since(start).Seconds(), 0, 0)
		}
		return "", nil, err
	}

	var text strings.Builder
	var toolCall *models.ToolCall
	var usage *Usage
	for chunk := range chunks {
		if chunk == nil {
			continue
		}
		if chunk.Error != nil {
			if m := l.metrics(); m != nil {
				m.RecordLLMRequest(l.provider.Name(), l.model, "error", time.Since(start).Seconds(), 0, 0)
			}
			return "", nil, chunk.Error
		}
		if chunk.Text != "" {
			if text.Len()+len(chunk.Text) > l.opts.MaxResponseTextSize {
				return "", nil, errors.New("response text exceeds maximum size")
			}
			text.WriteString(chunk.Text)
		}
		if chunk.ToolCall != nil && toolCall == nil {
			tc := *chunk.ToolCall
			toolCall = &tc
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
	}

	if m := l.metrics(); m != nil {
		promptTokens, completionTokens := 0, 0
		if usage != nil {
			promptTokens, completionTokens = usage.InputTokens, usage.OutputTokens
			if usage.Cost > 0 {
				m.RecordLLMCost(l.provider.Name(), l.model, usage.Cost)
			}
			m.RecordContextWindow(l.provider.Name(), l.model, usage.InputTokens+usage.CacheReadTokens)
		}
		m.RecordLLMRequest(l.provider.Name(), l.model, "success", time.Since(start).Seconds(), promptTokens, completionTokens)
	}

	final := text.String()
	if toolCall == nil {
		if parsed, ok := ParseToolCall(final); ok {
			toolCall = parsed
		}
	}
	return final, toolCall, nil
}

// executeToolWithRetry runs a tool call through the registry, retrying on
// failure up to ToolMaxAttempts with exponential backoff. The registry
// itself never returns a Go error from Execute in normal operation; a
// non-nil error here guards against a future executor panic-recovery path.
func (l *AgentLoop) executeToolWithRetry(ctx context.Context, call models.ToolCall) models.ToolResult {
	attempts := l.opts.ToolMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	cfg := retry.Config{
		MaxAttempts:  attempts,
		InitialDelay: l.opts.ToolRetryBackoff,
		MaxDelay:     l.opts.ToolRetryBackoff * time.Duration(attempts),
		Factor:       2.0,
		Jitter:       true,
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 10 * time.Second
	}

	var result models.ToolResult
	var ran bool
	start := time.Now()
	outcome := retry.Do(ctx, cfg, func() error {
		var execErr error
		result, execErr = l.registry.Execute(ctx, call, l.opts.ApprovalChecker, nil)
		ran = true
		if execErr != nil {
			return execErr
		}
		if !result.Success {
			return fmt.Errorf("tool %q failed: %s", call.Name, result.Output)
		}
		return nil
	})
	duration := time.Since(start).Seconds()

	if m := l.metrics(); m != nil {
		if outcome.Attempts > 1 {
			if outcome.Err != nil {
				m.RecordRetryAttempt("tool", "exhausted")
			} else {
				m.RecordRetryAttempt("tool", "retried")
			}
		}
		status := "success"
		if outcome.Err != nil || !result.Success {
			status = "error"
		}
		m.RecordToolExecution(call.Name, status, duration)
	}

	if !ran {
		// Context was cancelled before any attempt ran.
		if m := l.metrics(); m != nil {
			m.RecordError("tool", "context_cancelled")
		}
		return models.ToolResult{Success: false, Output: "Tool execution error: " + outcome.Err.Error()}
	}
	return result
}

func (l *AgentLoop) toolNames() []string {
	tools := l.registry.AsLLMTools()
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name()
	}
	return names
}

// maxCompletionTokens is the default per-call generation budget; callers
// needing a different value configure it on the provider/model instead.
const maxCompletionTokens = 4096

// toCompletionMessages flattens agent message history into the provider
// wire format. Tool results live in history as plain user-role text
// (§4.1 step 6), so only ToolCalls need carrying across explicitly.
func toCompletionMessages(history []models.Message) []CompletionMessage {
	out := make([]CompletionMessage, 0, len(history))
	for _, m := range history {
		cm := CompletionMessage{Role: string(m.Role), Content: m.Text()}
		if len(m.ToolCalls) > 0 {
			cm.ToolCalls = m.ToolCalls
		}
		out = append(out, cm)
	}
	return out
}
