package agent

import (
	"regexp"
)

// CompletionReason explains why the completion-intent analyzer judged a
// response incomplete.
type CompletionReason string

const (
	ReasonNone             CompletionReason = "none"
	ReasonFutureIntent     CompletionReason = "future_intent"
	ReasonFailureAdmission CompletionReason = "failure_admission"
	ReasonNarrativeAction  CompletionReason = "narrative_action"
)

// CompletionIntent is the result of analyzing an assistant response with no
// tool call for signs that the model only described work rather than
// finishing it.
type CompletionIntent struct {
	IsIncompleteAction bool
	Reason             CompletionReason
	Confidence         float64
}

var (
	completionSignalRE = regexp.MustCompile(`(?i)\b(done|completed|finished|created successfully|saved|wrote|all (changes|tasks) complete)\b|here is the (final|complete)`)

	futureIntentRE = regexp.MustCompile(`(?i)\b(i will|i'll|let me)\b.{0,40}\b(create|write|add|update|fix|implement|build|run|check|test|modify|refactor|generate|set up|install)\b` +
		`|\b(i need to|i should|i can)\b.{0,40}\b(create|write|add|update|fix|implement|build|run|check|test|modify|refactor|generate)\b` +
		`|\bthe next step\b|\bfirst[, ]+i\b|\bnow i\b|\bi am going to\b|\bi'm going to\b`)

	failureAdmissionRE = regexp.MustCompile(`(?i)ran out of budget|budget exhausted|unable to complete|could not complete|no changes were made|no files were modified`)

	codeConceptRE = regexp.MustCompile(`(?i)\b(file|function|class|module|component|import|export|variable|method)\b`)
	actionVerbRE  = regexp.MustCompile(`(?i)\b(update|modify|create|add|change|fix|implement|refactor|write|edit)\b`)
	fencedCodeRE  = regexp.MustCompile("```")
)

// AnalyzeCompletionIntent classifies an assistant response that produced no
// tool call, per the ordered rules of §4.8: a completion signal beats a
// future-intent pattern, which beats a failure admission, which beats a
// short narrative mentioning code concepts and an action verb with no
// fenced code block.
func AnalyzeCompletionIntent(text string) CompletionIntent {
	if completionSignalRE.MatchString(text) {
		return CompletionIntent{IsIncompleteAction: false, Reason: ReasonNone, Confidence: 0.9}
	}
	if futureIntentRE.MatchString(text) {
		return CompletionIntent{IsIncompleteAction: true, Reason: ReasonFutureIntent, Confidence: 0.95}
	}
	if failureAdmissionRE.MatchString(text) {
		return CompletionIntent{IsIncompleteAction: true, Reason: ReasonFailureAdmission, Confidence: 0.9}
	}
	if len(text) < 600 && codeConceptRE.MatchString(text) && actionVerbRE.MatchString(text) && !fencedCodeRE.MatchString(text) {
		return CompletionIntent{IsIncompleteAction: true, Reason: ReasonNarrativeAction, Confidence: 0.65}
	}
	return CompletionIntent{IsIncompleteAction: false, Reason: ReasonNone, Confidence: 0.3}
}

// guidanceMessage produces the synthesized user-role message injected when
// the loop continues past an incomplete-action classification.
func guidanceMessage(intent CompletionIntent) string {
	switch intent.Reason {
	case ReasonFutureIntent:
		return "You described an action you intend to take but did not take it. Use a tool to actually perform it now."
	case ReasonFailureAdmission:
		return "You reported being unable to finish. If a tool call would help, make one; otherwise explain precisely what remains."
	case ReasonNarrativeAction:
		return "Your response describes a change without showing it was made. Use a tool to make the change, or show the resulting code."
	default:
		return "Continue the task."
	}
}
