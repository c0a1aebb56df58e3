package budget

import "sort"

// InjectionKind names the fixed categories of per-iteration content the
// loop may want to inject into the next model call, ordered by their
// fixed priority (lower sorts first).
type InjectionKind string

const (
	InjectionBudgetWarning    InjectionKind = "budget_warning"
	InjectionTimeoutWrapup    InjectionKind = "timeout_wrapup"
	InjectionDoomLoop         InjectionKind = "doom_loop"
	InjectionFailureContext   InjectionKind = "failure_context"
	InjectionLearningContext  InjectionKind = "learning_context"
	InjectionRecitation       InjectionKind = "recitation"
	InjectionExplorationNudge InjectionKind = "exploration_nudge"
	InjectionPhaseGuidance    InjectionKind = "phase_guidance"
)

// injectionPriority is the fixed ordering from §4.5; lower values win
// when the remaining budget can't fit everything.
var injectionPriority = map[InjectionKind]int{
	InjectionBudgetWarning:    0,
	InjectionTimeoutWrapup:    0,
	InjectionDoomLoop:         1,
	InjectionFailureContext:   2,
	InjectionLearningContext:  2,
	InjectionRecitation:       3,
	InjectionExplorationNudge: 4,
	InjectionPhaseGuidance:    4,
}

// Proposal is one candidate piece of content competing for injection
// budget.
type Proposal struct {
	Kind    InjectionKind
	Content string
}

// Decision is the outcome for one proposal: either accepted verbatim,
// accepted truncated, or dropped.
type Decision struct {
	Proposal  Proposal
	Accepted  bool
	Truncated bool
	Content   string
}

const truncationSuffix = "…(truncated for context budget)"

// estimateTokens approximates token count as ceil(len/4), matching the
// coarse estimator used elsewhere for budget accounting.
func estimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}
	return (len(s) + 3) / 4
}

// Allocate sorts proposals by fixed priority and greedily accepts them
// against a remaining character-token budget: proposals that fit are
// accepted whole; a proposal that partially fits (remaining token
// budget in (100, estimated)) is truncated to remaining·4 characters
// plus a truncation marker; anything else is dropped (§4.5).
func Allocate(proposals []Proposal, remainingTokens int) []Decision {
	ordered := make([]Proposal, len(proposals))
	copy(ordered, proposals)
	sort.SliceStable(ordered, func(i, j int) bool {
		return injectionPriority[ordered[i].Kind] < injectionPriority[ordered[j].Kind]
	})

	decisions := make([]Decision, 0, len(ordered))
	remaining := remainingTokens

	for _, p := range ordered {
		estimated := estimateTokens(p.Content)
		switch {
		case remaining >= estimated:
			decisions = append(decisions, Decision{Proposal: p, Accepted: true, Content: p.Content})
			remaining -= estimated
		case remaining > 100:
			limit := remaining * 4
			if limit > len(p.Content) {
				limit = len(p.Content)
			}
			truncated := p.Content[:limit] + truncationSuffix
			decisions = append(decisions, Decision{Proposal: p, Accepted: true, Truncated: true, Content: truncated})
			remaining = 0
		default:
			decisions = append(decisions, Decision{Proposal: p, Accepted: false})
		}
	}
	return decisions
}
