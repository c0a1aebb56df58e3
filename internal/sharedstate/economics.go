package sharedstate

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
)

// DefaultGlobalDoomLoopThreshold is the call count at which a
// fingerprint is considered a cross-worker doom loop.
const DefaultGlobalDoomLoopThreshold = 10

// fingerprintStats tracks how many times a tool-call fingerprint has
// been seen and which distinct workers produced it.
type fingerprintStats struct {
	Count   int             `json:"count"`
	Workers map[string]bool `json:"workers"`
}

// EconomicsState is the cross-worker doom-loop detector of §4.7: it
// counts repeated tool-call fingerprints across every worker in the
// process, catching loops that no single worker's local history would
// flag because the repetition is spread across workers.
type EconomicsState struct {
	mu        sync.Mutex
	threshold int
	stats     map[string]*fingerprintStats
}

// NewEconomicsState creates a detector with the given threshold; a
// non-positive threshold uses DefaultGlobalDoomLoopThreshold.
func NewEconomicsState(threshold int) *EconomicsState {
	if threshold <= 0 {
		threshold = DefaultGlobalDoomLoopThreshold
	}
	return &EconomicsState{threshold: threshold, stats: make(map[string]*fingerprintStats)}
}

// Fingerprint canonically serializes a tool name and its arguments
// (sorted keys) into the signature recorded per call.
func Fingerprint(toolName string, args map[string]any) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(toolName)
	for _, k := range keys {
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString("=")
		encoded, err := json.Marshal(args[k])
		if err != nil {
			b.WriteString("?")
			continue
		}
		b.Write(encoded)
	}
	return b.String()
}

// RecordToolCall increments the call count for fingerprint and
// registers workerID as having produced it.
func (e *EconomicsState) RecordToolCall(workerID, fingerprint string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats, ok := e.stats[fingerprint]
	if !ok {
		stats = &fingerprintStats{Workers: make(map[string]bool)}
		e.stats[fingerprint] = stats
	}
	stats.Count++
	stats.Workers[workerID] = true
}

// IsGlobalDoomLoop reports whether fingerprint has been seen at least
// threshold times across all workers combined.
func (e *EconomicsState) IsGlobalDoomLoop(fingerprint string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats, ok := e.stats[fingerprint]
	if !ok {
		return false
	}
	return stats.Count >= e.threshold
}

// checkpoint is the JSON-serializable snapshot produced by ToJSON and
// consumed by RestoreFrom.
type checkpoint struct {
	Threshold int                          `json:"threshold"`
	Stats     map[string]*fingerprintStats `json:"stats"`
}

// ToJSON serializes the detector's state for checkpointing.
func (e *EconomicsState) ToJSON() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return json.Marshal(checkpoint{Threshold: e.threshold, Stats: e.stats})
}

// RestoreFrom restores detector state previously produced by ToJSON.
func (e *EconomicsState) RestoreFrom(data []byte) error {
	var cp checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if cp.Threshold > 0 {
		e.threshold = cp.Threshold
	}
	if cp.Stats == nil {
		cp.Stats = make(map[string]*fingerprintStats)
	}
	e.stats = cp.Stats
	return nil
}
