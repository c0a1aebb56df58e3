package budget

import "testing"

func TestReserveCapsAtPerChildMaximum(t *testing.T) {
	pool := NewSharedBudgetPool(1000, 10.0, 100, 1.0)
	alloc := pool.Reserve("child-1")
	if alloc == nil {
		t.Fatal("expected a non-nil allocation")
	}
	if alloc.TokenBudget != 100 || alloc.CostBudget != 1.0 {
		t.Errorf("expected per-child maxima, got tokens=%d cost=%f", alloc.TokenBudget, alloc.CostBudget)
	}
}

func TestReserveCapsAtRemainingPoolCapacity(t *testing.T) {
	pool := NewSharedBudgetPool(50, 0.3, 100, 1.0)
	alloc := pool.Reserve("child-1")
	if alloc.TokenBudget != 50 || alloc.CostBudget != 0.3 {
		t.Errorf("expected pool-capped budget, got tokens=%d cost=%f", alloc.TokenBudget, alloc.CostBudget)
	}
}

func TestReserveReturnsNilWhenExhausted(t *testing.T) {
	pool := NewSharedBudgetPool(10, 1.0, 100, 1.0)
	if pool.Reserve("first") == nil {
		t.Fatal("expected first reservation to succeed")
	}
	if pool.Reserve("second") != nil {
		t.Error("expected second reservation to fail once capacity is reserved")
	}
}

func TestRecordUsageRejectsOverAllocation(t *testing.T) {
	pool := NewSharedBudgetPool(1000, 10.0, 100, 1.0)
	pool.Reserve("child-1")
	if !pool.RecordUsage("child-1", 50, 0.5) {
		t.Fatal("expected usage within budget to succeed")
	}
	if pool.RecordUsage("child-1", 60, 0) {
		t.Error("expected usage exceeding the child's token budget to be rejected")
	}
}

func TestReleaseReturnsCapacityToPool(t *testing.T) {
	pool := NewSharedBudgetPool(100, 1.0, 100, 1.0)
	pool.Reserve("child-1")
	if pool.Reserve("child-2") != nil {
		t.Fatal("expected pool exhausted after first reservation")
	}
	pool.Release("child-1")
	if pool.Reserve("child-2") == nil {
		t.Error("expected capacity to return to the pool after release")
	}
}

func TestCreateBudgetPoolPartitionsParent(t *testing.T) {
	pool := CreateBudgetPool(100_000, 10.0, 0.25, 50_000, 5.0)
	snap := pool.Snapshot()
	if snap.TotalTokens != 75_000 {
		t.Errorf("expected 75%% of parent tokens reserved for children, got %d", snap.TotalTokens)
	}
	if snap.TotalCost != 7.5 {
		t.Errorf("expected 75%% of parent cost reserved for children, got %f", snap.TotalCost)
	}
}
