// Package main provides the CLI entry point for the agent execution core.
//
// agentcore runs a single task through the agent loop (model calls, tool
// use, and completion-intent gating) against a configured LLM provider
// and a sandboxed set of built-in tools.
//
// # Basic Usage
//
// Run a task:
//
//	agentcore run --config agentcore.yaml --task "list the files in ."
//
// Validate a configuration file without running anything:
//
//	agentcore config validate --config agentcore.yaml
//
// List persisted run history (requires store.driver to be set):
//
//	agentcore runs list --config agentcore.yaml
//
// Run or schedule a filesystem/configuration security audit:
//
//	agentcore audit run --config agentcore.yaml
//	agentcore audit schedule --cron "0 0 * * * *"
//
// # Environment Variables
//
//   - ANTHROPIC_API_KEY: Anthropic API key for Claude models
//   - OPENAI_API_KEY: OpenAI API key for GPT models
//   - GOOGLE_API_KEY: Google AI API key for Gemini models
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/relaycore/agentcore/internal/agent"
	"github.com/relaycore/agentcore/internal/agent/providers"
	"github.com/relaycore/agentcore/internal/config"
	"github.com/relaycore/agentcore/internal/observability"
	"github.com/relaycore/agentcore/internal/schedule"
	"github.com/relaycore/agentcore/internal/security"
	"github.com/relaycore/agentcore/internal/store"
	"github.com/relaycore/agentcore/internal/tools"
	"github.com/relaycore/agentcore/internal/tools/exec"
	"github.com/relaycore/agentcore/internal/tools/files"
	"github.com/relaycore/agentcore/pkg/models"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "agentcore",
		Short: "Run tasks through the agent execution core",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "agentcore.yaml", "path to the configuration file")

	root.AddCommand(newRunCmd(&configPath))
	root.AddCommand(newConfigCmd(&configPath))
	root.AddCommand(newRunsCmd(&configPath))
	root.AddCommand(newAuditCmd(&configPath))
	return root
}

func newRunCmd(configPath *string) *cobra.Command {
	var (
		task        string
		provider    string
		model       string
		verbose     bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single task through the agent loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			if task == "" {
				return fmt.Errorf("--task is required")
			}

			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			runStore, err := store.Open(cfg.Store)
			if err != nil {
				return fmt.Errorf("open run store: %w", err)
			}
			defer runStore.Close()

			metrics := observability.NewMetrics()
			if metricsAddr != "" {
				serveMetrics(metricsAddr)
			}

			llm, err := buildProvider(provider)
			if err != nil {
				return err
			}

			registry := buildRegistry(cfg)
			opts := runtimeOptionsFromConfig(cfg)
			opts.Metrics = metrics
			loop := agent.NewAgentLoop(llm, registry, opts)
			if model != "" {
				loop.SetModel(model)
			} else {
				loop.SetModel(defaultModel(llm))
			}
			loop.SetSystemPrompt(cfg.Agent.SystemPrompt)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			result, err := loop.Run(ctx, task)
			if err != nil {
				return fmt.Errorf("run task: %w", err)
			}

			runID := uuid.NewString()
			if saveErr := runStore.SaveRun(ctx, runID, task, result); saveErr != nil {
				slog.Default().Warn("failed to persist run history", "error", saveErr)
			}

			if verbose {
				printToolCallTranscript(result.History)
			}

			fmt.Println(result.Message)
			slog.Default().Info("task finished", "success", result.Success, "iterations", result.Iterations, "run_id", runID)
			if !result.Success {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&task, "task", "", "task description to give the agent (required)")
	cmd.Flags().StringVar(&provider, "provider", "anthropic", "LLM provider: anthropic, openai, or google")
	cmd.Flags().StringVar(&model, "model", "", "model id override (defaults to the provider's preferred model)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "print a human-readable tool-call transcript after the run")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :9090) for the duration of the run")
	return cmd
}

// serveMetrics starts a background HTTP server exposing /metrics on addr.
// It never blocks the caller and logs (rather than fails) on listener errors.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Default().Error("metrics server failed", "error", err)
		}
	}()
}

// printToolCallTranscript renders each tool call in history as a short,
// human-readable summary line (e.g. "Reading  file.go").
func printToolCallTranscript(history []models.Message) {
	for _, msg := range history {
		for _, call := range msg.ToolCalls {
			var args any
			if len(call.Input) > 0 {
				_ = json.Unmarshal(call.Input, &args)
			}
			display := tools.ResolveToolDisplay(call.Name, args, "")
			fmt.Println(tools.FormatToolSummary(display))
		}
	}
}

// newRunsCmd inspects persisted run history (requires store.driver to
// be set in the configuration).
func newRunsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{Use: "runs", Short: "Inspect persisted run history"}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List the most recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			runStore, err := store.Open(cfg.Store)
			if err != nil {
				return fmt.Errorf("open run store: %w", err)
			}
			defer runStore.Close()
			if runStore == nil {
				return fmt.Errorf("persistence is disabled (set store.driver in the configuration)")
			}

			runs, err := runStore.ListRuns(cmd.Context(), limit, 0)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			for _, r := range runs {
				fmt.Printf("%s\t%s\tsuccess=%v\titerations=%d\t%s\n", r.ID, r.CreatedAt.Format("2006-01-02T15:04:05"), r.Result.Success, r.Result.Iterations, r.Task)
			}
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show")
	cmd.AddCommand(list)
	return cmd
}

// newAuditCmd runs, or periodically schedules, a configuration and
// filesystem security audit.
func newAuditCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{Use: "audit", Short: "Audit configuration and filesystem security"}

	run := &cobra.Command{
		Use:   "run",
		Short: "Run the audit once and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := runConfiguredAudit(*configPath)
			if err != nil {
				return err
			}
			fmt.Println(security.FormatReport(report))
			if report.HasCritical() {
				os.Exit(1)
			}
			return nil
		},
	}

	var cronExpr string
	watch := &cobra.Command{
		Use:   "schedule",
		Short: "Run the audit on a recurring cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			sched := schedule.New(slog.Default())
			_, err := sched.AddJob(cronExpr, schedule.Job{
				Name: "security-audit",
				Run: func() error {
					report, err := runConfiguredAudit(*configPath)
					if err != nil {
						return err
					}
					if report.HasCritical() {
						slog.Default().Warn("security audit found critical findings", "count", report.CountBySeverity()[security.SeverityCritical])
					}
					return nil
				},
			})
			if err != nil {
				return fmt.Errorf("schedule audit: %w", err)
			}

			sched.Start()
			defer sched.Stop()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			<-ctx.Done()
			return nil
		},
	}
	watch.Flags().StringVar(&cronExpr, "cron", "0 0 * * * *", "cron expression (with optional leading seconds field) for the audit schedule")

	cmd.AddCommand(run, watch)
	return cmd
}

func runConfiguredAudit(configPath string) (*security.AuditReport, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	opts := security.DefaultAuditOptions()
	opts.ConfigPath = configPath
	opts.Config = cfg
	return security.RunAudit(opts)
}

func newConfigCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Inspect or validate configuration"}
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(*configPath); err != nil {
				return err
			}
			fmt.Println("configuration is valid")
			return nil
		},
	}
	schema := &cobra.Command{
		Use:   "schema",
		Short: "Print the configuration document's JSON Schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := config.JSONSchema()
			if err != nil {
				return fmt.Errorf("build schema: %w", err)
			}
			fmt.Println(string(doc))
			return nil
		},
	}
	cmd.AddCommand(validate, schema)
	return cmd
}

// buildProvider constructs the named LLM provider from its API key
// environment variable. Only anthropic, openai and google are wired; an
// unknown name is a user configuration error, not a panic.
func buildProvider(name string) (agent.LLMProvider, error) {
	switch name {
	case "anthropic":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
		}
		return providers.NewAnthropicProvider(providers.AnthropicConfig{APIKey: key})
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		return providers.NewOpenAIProvider(key), nil
	case "google":
		key := os.Getenv("GOOGLE_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY is not set")
		}
		return providers.NewGoogleProvider(providers.GoogleConfig{APIKey: key})
	default:
		return nil, fmt.Errorf("unknown provider %q (want anthropic, openai, or google)", name)
	}
}

func defaultModel(llm agent.LLMProvider) string {
	models := llm.Models()
	if len(models) == 0 {
		return ""
	}
	return models[0].ID
}

// buildRegistry registers the built-in file and shell tools, scoped to
// the configured workspace (§4.2).
func buildRegistry(cfg *config.Config) *agent.ToolRegistry {
	registry := agent.NewToolRegistry(cfg.Agent.BasePath)

	fileCfg := files.Config{Workspace: cfg.Agent.BasePath}
	mustRegister(registry, files.NewReadTool(fileCfg))
	mustRegister(registry, files.NewWriteTool(fileCfg))
	mustRegister(registry, files.NewEditTool(fileCfg))
	mustRegister(registry, files.NewApplyPatchTool(fileCfg))

	manager := exec.NewManager(cfg.Agent.BasePath)
	if cfg.Tools.Execution.Parallelism > 0 {
		manager.SetConcurrency(cfg.Tools.Execution.Parallelism)
	}
	bashTool := exec.NewExecTool("bash", manager)
	bashTool.SetSandbox(cfg.Sandbox.Mode, cfg.Sandbox.WriteProtection)
	mustRegister(registry, bashTool)
	mustRegister(registry, exec.NewProcessTool(manager))

	return registry
}

func mustRegister(registry *agent.ToolRegistry, tool agent.Tool) {
	if err := registry.Register(tool); err != nil {
		slog.Default().Error("failed to register tool", "tool", tool.Name(), "error", err)
	}
}

// runtimeOptionsFromConfig translates the loaded configuration into the
// agent loop's runtime options, including an approval checker built from
// the configured permission policy (§4.2).
func runtimeOptionsFromConfig(cfg *config.Config) agent.RuntimeOptions {
	policy := &agent.ApprovalPolicy{
		Allowlist:       cfg.Tools.Policy.Allowlist,
		Denylist:        cfg.Tools.Policy.Denylist,
		SafeBins:        cfg.Tools.Policy.SafeBins,
		SkillAllowlist:  false,
		AskFallback:     cfg.Tools.Policy.Mode == "interactive",
		DefaultDecision: defaultDecisionFor(cfg.Tools.Policy.Mode),
		RequestTTL:      cfg.Tools.Policy.RequestTTL,
	}

	return agent.RuntimeOptions{
		MaxIterations:       cfg.Agent.MaxIterations,
		MaxToolCalls:        cfg.Agent.MaxToolCalls,
		MaxWallTime:         cfg.Agent.MaxWallTime,
		MaxResponseTextSize: cfg.Agent.MaxResponseSize,
		ToolParallelism:     cfg.Tools.Execution.Parallelism,
		ToolTimeout:         cfg.Tools.Execution.Timeout,
		ApprovalChecker:     agent.NewApprovalChecker(policy),
		ConfidenceHalt:      cfg.Agent.ConfidenceHalt,
		Logger:              slog.Default(),
	}
}

func defaultDecisionFor(mode string) agent.ApprovalDecision {
	switch mode {
	case "yolo":
		return agent.ApprovalAllowed
	case "strict":
		return agent.ApprovalDenied
	default:
		return agent.ApprovalPending
	}
}
