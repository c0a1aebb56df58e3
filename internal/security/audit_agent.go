package security

import (
	"fmt"
	"strings"

	"github.com/relaycore/agentcore/internal/config"
)

// auditAgentConfig checks the loaded agent configuration for insecure
// defaults: a permissive tool policy, a weakened sandbox, or a budget
// that places no ceiling on spend.
func auditAgentConfig(cfg *config.Config) []AuditFinding {
	findings := make([]AuditFinding, 0)

	findings = append(findings, auditToolPolicy(cfg.Tools.Policy)...)
	findings = append(findings, auditSandbox(cfg.Sandbox)...)
	findings = append(findings, auditBudget(cfg.Budget)...)
	findings = append(findings, auditBridge(cfg.Bridge)...)

	return findings
}

func auditToolPolicy(policy config.PolicyConfig) []AuditFinding {
	var findings []AuditFinding

	if policy.Mode == "yolo" {
		findings = append(findings, AuditFinding{
			CheckID:     "config.tools.policy.yolo_mode",
			Severity:    SeverityCritical,
			Title:       "Tool policy runs in yolo mode",
			Detail:      "tools.policy.mode is \"yolo\": every tool call is auto-approved regardless of the danger classifier's verdict.",
			Remediation: "Use \"auto-safe\" or \"strict\" unless the agent runs in a fully disposable sandbox.",
		})
	}

	if containsWildcard(policy.Allowlist) {
		findings = append(findings, AuditFinding{
			CheckID:     "config.tools.policy.wildcard_allowlist",
			Severity:    SeverityWarn,
			Title:       "Tool allowlist contains a wildcard",
			Detail:      "tools.policy.allowlist contains \"*\", which approves every tool name.",
			Remediation: "List specific tool names instead of a blanket wildcard.",
		})
	}

	if len(policy.Denylist) == 0 {
		findings = append(findings, AuditFinding{
			CheckID:     "config.tools.policy.empty_denylist",
			Severity:    SeverityInfo,
			Title:       "Tool denylist is empty",
			Detail:      "tools.policy.denylist has no entries; no tool name is explicitly blocked.",
			Remediation: "Consider denylisting destructive tool names even in permissive modes.",
		})
	}

	if len(policy.SafeBins) > 0 {
		for _, bin := range policy.SafeBins {
			if isDangerousBin(bin) {
				findings = append(findings, AuditFinding{
					CheckID:     "config.tools.policy.dangerous_safe_bin",
					Severity:    SeverityWarn,
					Title:       "Dangerous binary marked as safe",
					Detail:      fmt.Sprintf("tools.policy.safe_bins includes %q, which the danger classifier would otherwise flag.", bin),
					Remediation: "Remove this binary from safe_bins unless its use is fully understood and scoped.",
				})
			}
		}
	}

	return findings
}

func auditSandbox(sb config.SandboxConfig) []AuditFinding {
	var findings []AuditFinding

	if sb.Mode == "disabled" {
		findings = append(findings, AuditFinding{
			CheckID:     "config.sandbox.disabled",
			Severity:    SeverityCritical,
			Title:       "Sandbox is disabled",
			Detail:      "sandbox.mode is \"disabled\": shell commands run directly against the host with no scoping.",
			Remediation: "Use \"task_scoped\" or \"read_only\" for untrusted tasks.",
		})
	}

	if sb.Mode == "full" && sb.WriteProtection == "off" {
		findings = append(findings, AuditFinding{
			CheckID:     "config.sandbox.full_unprotected",
			Severity:    SeverityWarn,
			Title:       "Full sandbox mode with write protection off",
			Detail:      "sandbox.mode is \"full\" and sandbox.write_protection is \"off\": the agent can mutate any file it can reach.",
			Remediation: "Set write_protection to \"block_file_mutation\" unless the task genuinely needs unrestricted writes.",
		})
	}

	return findings
}

func auditBudget(budget config.BudgetConfig) []AuditFinding {
	var findings []AuditFinding

	if budget.TotalTokens == 0 {
		findings = append(findings, AuditFinding{
			CheckID:     "config.budget.no_token_ceiling",
			Severity:    SeverityWarn,
			Title:       "No total token ceiling configured",
			Detail:      "budget.total_tokens is 0: the shared budget pool has no upper bound on token spend.",
			Remediation: "Set budget.total_tokens to a finite ceiling appropriate for the deployment.",
		})
	}

	if budget.TotalCost == 0 {
		findings = append(findings, AuditFinding{
			CheckID:     "config.budget.no_cost_ceiling",
			Severity:    SeverityInfo,
			Title:       "No total cost ceiling configured",
			Detail:      "budget.total_cost is 0: spend is bounded only by the token ceiling, if any.",
			Remediation: "Set budget.total_cost to cap spend independent of token accounting.",
		})
	}

	if budget.MaxCostPerChild > budget.TotalCost && budget.TotalCost > 0 {
		findings = append(findings, AuditFinding{
			CheckID:     "config.budget.child_exceeds_total",
			Severity:    SeverityWarn,
			Title:       "Per-child cost ceiling exceeds the total budget",
			Detail:      "budget.max_cost_per_child is larger than budget.total_cost; a single child could exhaust the whole pool.",
			Remediation: "Keep max_cost_per_child well below total_cost, accounting for parent_reserve_ratio.",
		})
	}

	return findings
}

func auditBridge(bridge config.BridgeConfig) []AuditFinding {
	var findings []AuditFinding

	if bridge.SubmissionQueueCapacity > 10_000 {
		findings = append(findings, AuditFinding{
			CheckID:     "config.bridge.oversized_queue",
			Severity:    SeverityInfo,
			Title:       "Submission queue capacity is unusually large",
			Detail:      fmt.Sprintf("bridge.submission_queue_capacity is %d; an unbounded producer could accumulate significant memory.", bridge.SubmissionQueueCapacity),
			Remediation: "Confirm this capacity is intentional for the expected submission volume.",
		})
	}

	return findings
}

func containsWildcard(patterns []string) bool {
	for _, p := range patterns {
		if strings.TrimSpace(p) == "*" {
			return true
		}
	}
	return false
}

func isDangerousBin(bin string) bool {
	switch strings.ToLower(strings.TrimSpace(bin)) {
	case "rm", "dd", "mkfs", "shutdown", "reboot", "sudo", "su", "chmod", "chown":
		return true
	default:
		return false
	}
}
