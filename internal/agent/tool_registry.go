package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/relaycore/agentcore/internal/tools/policy"
	"github.com/relaycore/agentcore/pkg/models"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Tool parameter limits to prevent resource exhaustion.
const (
	// MaxToolNameLength is the maximum length of a tool name.
	MaxToolNameLength = 256

	// MaxToolParamsSize is the maximum size of tool parameters JSON (10MB).
	MaxToolParamsSize = 10 << 20
)

// ToolRegistry holds tools keyed by name. It is write-once per session:
// tools registered at startup are never removed at runtime in the course
// of normal operation (Unregister exists for test setup and administrative
// reconfiguration only).
type ToolRegistry struct {
	mu       sync.RWMutex
	tools    map[string]Tool
	schemas  map[string]*jsonschema.Schema
	basePath string
}

// NewToolRegistry creates an empty tool registry rooted at basePath for
// resolving relative file-tool paths.
func NewToolRegistry(basePath string) *ToolRegistry {
	return &ToolRegistry{
		tools:    make(map[string]Tool),
		schemas:  make(map[string]*jsonschema.Schema),
		basePath: basePath,
	}
}

// Register adds a tool to the registry, compiling its declared JSON Schema
// once so Execute's validation step never recompiles on the hot path.
func (r *ToolRegistry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool

	schemaBytes := tool.Schema()
	if len(schemaBytes) == 0 {
		delete(r.schemas, tool.Name())
		return nil
	}
	compiled, err := compileSchema(tool.Name(), schemaBytes)
	if err != nil {
		return fmt.Errorf("tool %q: invalid parameter schema: %w", tool.Name(), err)
	}
	r.schemas[tool.Name()] = compiled
	return nil
}

func compileSchema(name string, raw json.RawMessage) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	resource := name + ".json"
	if err := compiler.AddResource(resource, strings.NewReader(string(raw))); err != nil {
		return nil, err
	}
	return compiler.Compile(resource)
}

// Unregister removes a tool from the registry by name.
func (r *ToolRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
	delete(r.schemas, name)
}

// Get returns a tool by name and whether it was found.
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// AsLLMTools returns all registered tools for passing to LLM providers.
func (r *ToolRegistry) AsLLMTools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	return tools
}

// Execute runs a tool by name with the given JSON parameters, implementing
// the registry contract of §4.2: validate input, consult permission
// policy, resolve relative paths for file tools and the bash tool's cwd,
// invoke the executor, and emit lifecycle events through emit.
func (r *ToolRegistry) Execute(ctx context.Context, call models.ToolCall, checker *ApprovalChecker, emit func(models.ToolEventStage, string)) (models.ToolResult, error) {
	name := call.Name
	if len(name) > MaxToolNameLength {
		return models.ToolResult{ToolCallID: call.ID, Success: false,
			Output: fmt.Sprintf("tool name exceeds maximum length of %d characters", MaxToolNameLength)}, nil
	}
	if len(call.Input) > MaxToolParamsSize {
		return models.ToolResult{ToolCallID: call.ID, Success: false,
			Output: fmt.Sprintf("tool parameters exceed maximum size of %d bytes", MaxToolParamsSize)}, nil
	}

	r.mu.RLock()
	tool, ok := r.tools[name]
	schema := r.schemas[name]
	r.mu.RUnlock()
	if !ok {
		return models.ToolResult{ToolCallID: call.ID, Success: false,
			Output: "Unknown tool \"" + name + "\""}, nil
	}

	emitStage(emit, models.ToolEventRequested)

	if schema != nil {
		if err := validateAgainstSchema(schema, call.Input); err != nil {
			return models.ToolResult{ToolCallID: call.ID, Success: false,
				Output: "tool input validation failed: " + err.Error()}, nil
		}
	}

	if checker != nil {
		decision, reason := checker.Check(ctx, "", call)
		if decision == ApprovalDenied {
			emitStage(emit, models.ToolEventDenied)
			return models.ToolResult{ToolCallID: call.ID, Success: false,
				Output: "permission denied: " + reason}, nil
		}
	}

	input := r.resolvePaths(name, call.Input)

	emitStage(emit, models.ToolEventStarted)
	result, err := tool.Execute(ctx, input)
	if err != nil {
		emitStage(emit, models.ToolEventFailed)
		return models.ToolResult{ToolCallID: call.ID, Success: false,
			Output: "Tool execution error: " + err.Error()}, nil
	}
	if result == nil {
		result = &models.ToolResult{}
	}
	result.ToolCallID = call.ID
	if result.Success {
		emitStage(emit, models.ToolEventSucceeded)
	} else {
		emitStage(emit, models.ToolEventFailed)
	}
	return *result, nil
}

func emitStage(emit func(models.ToolEventStage, string), stage models.ToolEventStage) {
	if emit != nil {
		emit(stage, "")
	}
}

func validateAgainstSchema(schema *jsonschema.Schema, raw json.RawMessage) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return schema.Validate(v)
}

// pathResolvingFields names tool parameter keys that get resolved against
// basePath when they're relative. Keeping this as data rather than a type
// switch on tool structs avoids a compile-time dependency on every
// built-in tool's param struct.
var pathResolvingFields = map[string][]string{
	"read_file":  {"path"},
	"write_file": {"path"},
	"edit_file":  {"path", "file_path"},
}

func (r *ToolRegistry) resolvePaths(toolName string, input json.RawMessage) json.RawMessage {
	fields, ok := pathResolvingFields[toolName]
	if !ok || r.basePath == "" || len(input) == 0 {
		return input
	}
	var m map[string]any
	if err := json.Unmarshal(input, &m); err != nil {
		return input
	}
	changed := false
	for _, field := range fields {
		v, ok := m[field].(string)
		if !ok || v == "" || filepath.IsAbs(v) {
			continue
		}
		m[field] = filepath.Join(r.basePath, v)
		changed = true
	}
	if !changed {
		return input
	}
	out, err := json.Marshal(m)
	if err != nil {
		return input
	}
	return out
}

func normalizeToolName(name string, resolver *policy.Resolver) string {
	if resolver == nil {
		return policy.NormalizeTool(name)
	}
	return resolver.CanonicalName(name)
}

func matchesToolPatterns(patterns []string, toolName string, resolver *policy.Resolver) bool {
	if len(patterns) == 0 {
		return false
	}
	name := normalizeToolName(toolName, resolver)
	for _, pattern := range patterns {
		if matchToolPattern(normalizeToolName(pattern, resolver), name) {
			return true
		}
	}
	return false
}

// matchToolPattern supports the approval-list pattern syntax: exact match,
// "*" (all), "prefix*", "*suffix", and "mcp:*".
func matchToolPattern(pattern, toolName string) bool {
	if pattern == "" || toolName == "" {
		return false
	}
	if pattern == "*" {
		return true
	}
	if pattern == "mcp:*" {
		return strings.HasPrefix(toolName, "mcp:")
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(toolName, strings.TrimSuffix(pattern, "*"))
	}
	if strings.HasPrefix(pattern, "*") {
		return strings.HasSuffix(toolName, strings.TrimPrefix(pattern, "*"))
	}
	return pattern == toolName
}

func guardToolResult(guard ToolResultGuard, toolName string, result models.ToolResult, resolver *policy.Resolver) models.ToolResult {
	return guard.Apply(toolName, result, resolver)
}

func guardToolResults(guard ToolResultGuard, toolCalls []models.ToolCall, results []models.ToolResult, resolver *policy.Resolver) []models.ToolResult {
	if !guard.active() || len(results) == 0 {
		return results
	}
	namesByID := make(map[string]string, len(toolCalls))
	for _, tc := range toolCalls {
		if tc.ID != "" {
			namesByID[tc.ID] = tc.Name
		}
	}
	guarded := make([]models.ToolResult, len(results))
	for i, res := range results {
		toolName := namesByID[res.ToolCallID]
		if toolName == "" && i < len(toolCalls) {
			toolName = toolCalls[i].Name
		}
		guarded[i] = guardToolResult(guard, toolName, res, resolver)
	}
	return guarded
}
