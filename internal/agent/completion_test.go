package agent

import (
	"strings"
	"testing"
)

// TestAnalyzeCompletionIntent exercises the §4.8 ordered rule table: a
// completion signal beats a future-intent pattern, which beats a failure
// admission, which beats a short narrative-action with no fenced code,
// which falls through to "no signal" when none of the above match.
func TestAnalyzeCompletionIntent(t *testing.T) {
	tests := []struct {
		name               string
		text               string
		wantIncomplete     bool
		wantReason         CompletionReason
		minConfidence      float64
	}{
		{
			name:           "completion signal",
			text:           "I've created the file and all changes complete.",
			wantIncomplete: false,
			wantReason:     ReasonNone,
			minConfidence:  0.9,
		},
		{
			name:           "future intent",
			text:           "I'll create the config file now.",
			wantIncomplete: true,
			wantReason:     ReasonFutureIntent,
			minConfidence:  0.9,
		},
		{
			name:           "failure admission",
			text:           "I ran out of budget and could not complete the task.",
			wantIncomplete: true,
			wantReason:     ReasonFailureAdmission,
			minConfidence:  0.9,
		},
		{
			name:           "narrative action without fenced code",
			text:           "I will update the function to fix the bug in the module.",
			wantIncomplete: true,
			wantReason:     ReasonFutureIntent,
			minConfidence:  0.9,
		},
		{
			name:           "short narrative action with no future-intent phrasing",
			text:           "Updated the function in the module to fix the bug.",
			wantIncomplete: true,
			wantReason:     ReasonNarrativeAction,
			minConfidence:  0.6,
		},
		{
			name:           "plain final answer",
			text:           "The capital of France is Paris.",
			wantIncomplete: false,
			wantReason:     ReasonNone,
			minConfidence:  0.0,
		},
		{
			name: "narrative action with fenced code is not incomplete",
			text: "Updated the function in the module to fix the bug.\n```go\nfunc fixed() {}\n```",
			wantIncomplete: false,
			wantReason:     ReasonNone,
		},
		{
			name: "completion signal takes priority over future intent phrasing",
			text: "Done. I'll also mention that future cleanup could update the module further.",
			wantIncomplete: false,
			wantReason:     ReasonNone,
			minConfidence:  0.9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := AnalyzeCompletionIntent(tt.text)
			if intent.IsIncompleteAction != tt.wantIncomplete {
				t.Errorf("IsIncompleteAction = %v, want %v (reason=%v)", intent.IsIncompleteAction, tt.wantIncomplete, intent.Reason)
			}
			if intent.Reason != tt.wantReason {
				t.Errorf("Reason = %v, want %v", intent.Reason, tt.wantReason)
			}
			if intent.Confidence < tt.minConfidence {
				t.Errorf("Confidence = %v, want >= %v", intent.Confidence, tt.minConfidence)
			}
		})
	}
}

func TestGuidanceMessage(t *testing.T) {
	tests := []struct {
		reason CompletionReason
		want   string
	}{
		{ReasonFutureIntent, "Use a tool to actually perform it now."},
		{ReasonFailureAdmission, "make one; otherwise explain precisely what remains."},
		{ReasonNarrativeAction, "Use a tool to make the change, or show the resulting code."},
		{ReasonNone, "Continue the task."},
	}

	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			got := guidanceMessage(CompletionIntent{Reason: tt.reason})
			if !strings.Contains(got, tt.want) {
				t.Errorf("guidanceMessage(%v) = %q, want it to contain %q", tt.reason, got, tt.want)
			}
		})
	}
}
