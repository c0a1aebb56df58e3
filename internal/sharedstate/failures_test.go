package sharedstate

import "testing"

func TestRecordFailurePrefixesWorkerID(t *testing.T) {
	s := New(10, 10, "")
	s.RecordFailure("worker-1", "read file.txt", "not found", "")

	ctx := s.GetFailureContext(5)
	if !containsAll(ctx, "[worker-1]", "read file.txt", "not found") {
		t.Errorf("expected formatted failure context, got %q", ctx)
	}
}

func TestFailureLogEvictsOldestFIFO(t *testing.T) {
	s := New(2, 10, "")
	s.RecordFailure("w1", "a", "err-a", "")
	s.RecordFailure("w1", "b", "err-b", "")
	s.RecordFailure("w1", "c", "err-c", "")

	ctx := s.GetFailureContext(10)
	if containsAll(ctx, "err-a") {
		t.Errorf("expected oldest failure evicted, got %q", ctx)
	}
	if !containsAll(ctx, "err-b", "err-c") {
		t.Errorf("expected two most recent failures retained, got %q", ctx)
	}
}

func TestHasRecentFailureMatchesTrimmedAction(t *testing.T) {
	s := New(10, 10, "")
	s.RecordFailure("worker-2", "write output.json", "disk full", "")

	if !s.HasRecentFailure("write output.json", 60_000) {
		t.Error("expected a match for the recorded action within the window")
	}
	if s.HasRecentFailure("totally unrelated", 60_000) {
		t.Error("expected no match for an unrelated action")
	}
}

func TestExtractInsightsRequiresMultipleWorkers(t *testing.T) {
	s := New(10, 10, "")
	s.RecordFailure("worker-1", "open config.yaml", "file not found", "")
	s.RecordFailure("worker-2", "open config.yaml", "file not found", "")
	s.RecordFailure("worker-1", "unique action", "some error", "")

	insights := s.ExtractInsights()
	found := false
	for _, i := range insights {
		if containsAll(i, "2 workers hit", "open config.yaml") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an insight about the shared failure, got %v", insights)
	}
}

func TestAddReferencesDeduplicatesByTypeAndValue(t *testing.T) {
	s := New(10, 10, "")
	s.AddReferences([]Reference{
		{Type: "file", Value: "a.go"},
		{Type: "file", Value: "a.go"},
		{Type: "url", Value: "a.go"},
	})

	results := s.SearchReferences("a.go")
	if len(results) != 2 {
		t.Errorf("expected 2 deduplicated references (file:a.go, url:a.go), got %d: %+v", len(results), results)
	}
}

func TestReferencePoolEvictsFIFO(t *testing.T) {
	s := New(10, 2, "")
	s.AddReferences([]Reference{{Type: "file", Value: "one"}})
	s.AddReferences([]Reference{{Type: "file", Value: "two"}})
	s.AddReferences([]Reference{{Type: "file", Value: "three"}})

	if len(s.SearchReferences("one")) != 0 {
		t.Error("expected the oldest reference to be evicted")
	}
	if len(s.SearchReferences("two")) == 0 || len(s.SearchReferences("three")) == 0 {
		t.Error("expected the two most recent references to remain")
	}
}

func TestGetStaticPrefixIsFrozen(t *testing.T) {
	s := New(10, 10, "shared preamble")
	if s.GetStaticPrefix() != "shared preamble" {
		t.Errorf("expected frozen static prefix, got %q", s.GetStaticPrefix())
	}
}

func containsAll(haystack string, needles ...string) bool {
	for _, n := range needles {
		if !contains(haystack, n) {
			return false
		}
	}
	return true
}

func contains(haystack, needle string) bool {
	return len(needle) == 0 || indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
