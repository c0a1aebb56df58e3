package security

import "strings"

// Category classifies a bash policy decision's outcome.
type Category string

const (
	CategoryDisabled Category = "disabled"
	CategoryRead     Category = "read"
	CategoryWrite    Category = "write"
	CategoryBlocked  Category = "blocked"
)

// BashPolicyDecision is the result of evaluating a command against a
// sandbox mode and write-protection setting (§4.2).
type BashPolicyDecision struct {
	Allowed  bool
	IsWrite  bool
	Category Category
	Reason   string
}

// EvaluateBashPolicy combines a sandbox mode (disabled, read_only,
// task_scoped, full) with a write-protection flag (off,
// block_file_mutation) to decide whether cmd may run. A leading `cd X &&`
// prefix is stripped before evaluation, per StripCDPrefix.
//
// read_only allows only commands the danger classifier would call safe
// via the read-only allowlist, with no mutating construct present.
// block_file_mutation rejects any command containing a filesystem-
// mutation construct regardless of mode.
func EvaluateBashPolicy(mode, writeProtection, cmd string) BashPolicyDecision {
	terminal := strings.TrimSpace(StripCDPrefix(cmd))
	isWrite := commandWrites(terminal)

	switch mode {
	case "disabled":
		return BashPolicyDecision{Allowed: true, IsWrite: isWrite, Category: CategoryDisabled}

	case "read_only":
		if isWrite || !isReadOnly(terminal) {
			return BashPolicyDecision{
				Allowed: false, IsWrite: isWrite, Category: CategoryBlocked,
				Reason: "read_only_mode",
			}
		}
		return BashPolicyDecision{Allowed: true, IsWrite: false, Category: CategoryRead}

	case "task_scoped", "full":
		if isWrite && writeProtection == "block_file_mutation" {
			return BashPolicyDecision{
				Allowed: false, IsWrite: true, Category: CategoryBlocked,
				Reason: "block_file_mutation",
			}
		}
		if isWrite {
			return BashPolicyDecision{Allowed: true, IsWrite: true, Category: CategoryWrite}
		}
		return BashPolicyDecision{Allowed: true, IsWrite: false, Category: CategoryRead}

	default:
		return BashPolicyDecision{
			Allowed: false, IsWrite: isWrite, Category: CategoryBlocked,
			Reason: "unknown_sandbox_mode",
		}
	}
}

// commandWrites reports whether cmd mutates the filesystem, combining the
// danger classifier's mutating-construct/redirection rules with a quote-
// aware scan for unquoted redirection operators the plain regexes can
// mistake inside quoted arguments (e.g. echo "a > b" is not a redirect).
func commandWrites(cmd string) bool {
	if isMutating(cmd) || isRedirectionMutation(cmd) {
		return true
	}
	analysis := AnalyzeCommandQuoteAware(cmd)
	for _, tok := range analysis.DangerousTokens {
		if tok.Risk == "redirect" {
			return true
		}
	}
	return false
}
