package agent

import (
	"log/slog"
	"time"

	"github.com/relaycore/agentcore/internal/observability"
)

// RuntimeOptions configures tool execution and loop behavior.
type RuntimeOptions struct {
	// MaxIterations limits tool-use iterations per request.
	MaxIterations int

	// MaxToolCalls limits total tool calls per request (0 = unlimited).
	MaxToolCalls int

	// MaxWallTime bounds the whole run regardless of iteration count.
	MaxWallTime time.Duration

	// MaxResponseTextSize caps a single assistant response's text length.
	MaxResponseTextSize int

	// ToolParallelism caps concurrent tool execution.
	ToolParallelism int

	// ToolTimeout applies a default timeout to each tool call.
	ToolTimeout time.Duration

	// ToolMaxAttempts controls retry attempts for tool execution.
	ToolMaxAttempts int

	// ToolRetryBackoff waits between retry attempts.
	ToolRetryBackoff time.Duration

	// DisableToolEvents disables ToolEvent emission while processing.
	DisableToolEvents bool

	// ApprovalChecker evaluates approval policy for tool calls when set.
	ApprovalChecker *ApprovalChecker

	// ToolResultGuard redacts tool results before they're appended to history.
	ToolResultGuard ToolResultGuard

	// ConfidenceHalt is the minimum completion-intent confidence required
	// to treat a no-tool-call response as an incomplete action and
	// continue the loop with injected guidance. Below it, the response is
	// accepted as the final answer instead (§4.8, Open Question: the
	// narrative_action rule's 0.65 confidence is borderline by design —
	// raising this past 0.65 makes the loop stop continuing on it).
	ConfidenceHalt float64

	// Logger receives runtime diagnostics.
	Logger *slog.Logger

	// Metrics records loop and tool execution counters/histograms when set.
	// Nil disables metrics recording entirely.
	Metrics *observability.Metrics
}

// DefaultRuntimeOptions returns the baseline runtime options.
func DefaultRuntimeOptions() RuntimeOptions {
	return RuntimeOptions{
		MaxIterations:       50,
		MaxToolCalls:        0,
		MaxWallTime:         10 * time.Minute,
		MaxResponseTextSize: 1 << 20,
		ToolParallelism:     4,
		ToolTimeout:         30 * time.Second,
		ToolMaxAttempts:     1,
		ToolRetryBackoff:    0,
		DisableToolEvents:   false,
		ConfidenceHalt:      0.6,
		Logger:              slog.Default(),
	}
}

func mergeRuntimeOptions(base RuntimeOptions, override RuntimeOptions) RuntimeOptions {
	merged := base
	if override.MaxIterations > 0 {
		merged.MaxIterations = override.MaxIterations
	}
	if override.MaxToolCalls > 0 {
		merged.MaxToolCalls = override.MaxToolCalls
	}
	if override.MaxWallTime > 0 {
		merged.MaxWallTime = override.MaxWallTime
	}
	if override.MaxResponseTextSize > 0 {
		merged.MaxResponseTextSize = override.MaxResponseTextSize
	}
	if override.ToolParallelism > 0 {
		merged.ToolParallelism = override.ToolParallelism
	}
	if override.ToolTimeout > 0 {
		merged.ToolTimeout = override.ToolTimeout
	}
	if override.ToolMaxAttempts > 0 {
		merged.ToolMaxAttempts = override.ToolMaxAttempts
	}
	if override.ToolRetryBackoff > 0 {
		merged.ToolRetryBackoff = override.ToolRetryBackoff
	}
	if override.DisableToolEvents {
		merged.DisableToolEvents = true
	}
	if override.ApprovalChecker != nil {
		merged.ApprovalChecker = override.ApprovalChecker
	}
	if override.ToolResultGuard.active() {
		merged.ToolResultGuard = override.ToolResultGuard
	}
	if override.ConfidenceHalt > 0 {
		merged.ConfidenceHalt = override.ConfidenceHalt
	}
	if override.Logger != nil {
		merged.Logger = override.Logger
	}
	if override.Metrics != nil {
		merged.Metrics = override.Metrics
	}
	return merged
}
