package cache

import (
	"sync"
	"time"

	"github.com/telecuidado/backend/internal/types"
)

// Snapshot holds the working dataset for one analysis run.
type Snapshot struct {
	Calls       []types.RawCallRecord
	Assignments []types.Assignment
}

// SnapshotCache is the in-memory source of truth between imports. Writers
// replace or extend whole slices; readers always get copies so an analysis
// run never observes a half-applied import.
type SnapshotCache struct {
	calls       []types.RawCallRecord
	assignments []types.Assignment
	analysis    *types.Analysis
	updatedAt   time.Time
	mu          sync.RWMutex
}

// NewSnapshotCache creates an empty snapshot cache.
func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{}
}

// ReplaceCalls swaps the call dataset for a fresh import.
func (c *SnapshotCache) ReplaceCalls(calls []types.RawCallRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append([]types.RawCallRecord(nil), calls...)
	c.updatedAt = time.Now()
}

// AppendCalls adds records from an incremental import.
func (c *SnapshotCache) AppendCalls(calls []types.RawCallRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, calls...)
	c.updatedAt = time.Now()
}

// ReplaceAssignments swaps the assignment list.
func (c *SnapshotCache) ReplaceAssignments(assignments []types.Assignment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assignments = append([]types.Assignment(nil), assignments...)
	c.updatedAt = time.Now()
}

// Snapshot returns copies of both datasets taken under one lock.
func (c *SnapshotCache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Calls:       append([]types.RawCallRecord(nil), c.calls...),
		Assignments: append([]types.Assignment(nil), c.assignments...),
	}
}

// SetAnalysis stores the latest analysis result.
func (c *SnapshotCache) SetAnalysis(a *types.Analysis) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.analysis = a
}

// Analysis returns the latest analysis, or nil when no run has completed.
func (c *SnapshotCache) Analysis() *types.Analysis {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.analysis
}

// Clear drops both datasets and the published analysis. Used by the admin
// reset so a fresh campaign starts from nothing.
func (c *SnapshotCache) Clear() (calls, assignments int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	calls, assignments = len(c.calls), len(c.assignments)
	c.calls = nil
	c.assignments = nil
	c.analysis = nil
	c.updatedAt = time.Now()
	return calls, assignments
}

// Counts reports the dataset sizes.
func (c *SnapshotCache) Counts() (calls, assignments int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.calls), len(c.assignments)
}

// UpdatedAt reports when the datasets last changed.
func (c *SnapshotCache) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}
