package models

import (
	"slices"
	"sync"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"github.com/moyoez/reelpost/pipeline"
	"github.com/moyoez/reelpost/types"
)

// RunTTL is how long a run stays queryable after it was started.
var RunTTL = 60 * time.Minute

// RunEntry is one run started through the control API.
type RunEntry struct {
	Orchestrator *pipeline.Orchestrator
	Asset        types.MediaAsset
	StartedAt    time.Time

	done     chan struct{}
	doneOnce sync.Once
}

func NewRunEntry(orchestrator *pipeline.Orchestrator, asset types.MediaAsset) *RunEntry {
	return &RunEntry{
		Orchestrator: orchestrator,
		Asset:        asset,
		StartedAt:    time.Now(),
		done:         make(chan struct{}),
	}
}

// Done is closed once the run is terminal and its notifications are flushed.
func (e *RunEntry) Done() <-chan struct{} {
	return e.done
}

// MarkDone closes Done. Later calls are no-ops.
func (e *RunEntry) MarkDone() {
	e.doneOnce.Do(func() { close(e.done) })
}

var (
	runMu    sync.RWMutex
	runs     = ttlworker.NewCache[string, *RunEntry](RunTTL)
	runOrder []string
)

func CacheRun(runID string, entry *RunEntry) {
	runMu.Lock()
	defer runMu.Unlock()
	runs.Set(runID, entry)
	runOrder = append(runOrder, runID)
}

func LookupRun(runID string) (*RunEntry, bool) {
	runMu.RLock()
	defer runMu.RUnlock()
	entry := runs.Get(runID)
	return entry, entry != nil
}

func RemoveRun(runID string) {
	runMu.Lock()
	defer runMu.Unlock()
	runs.Delete(runID)
	runOrder = slices.DeleteFunc(runOrder, func(id string) bool { return id == runID })
}

// ListRuns returns the live runs, oldest first. Expired ids are pruned on the way.
func ListRuns() []*RunEntry {
	runMu.Lock()
	defer runMu.Unlock()
	entries := make([]*RunEntry, 0, len(runOrder))
	kept := runOrder[:0]
	for _, id := range runOrder {
		if entry := runs.Get(id); entry != nil {
			entries = append(entries, entry)
			kept = append(kept, id)
		}
	}
	runOrder = kept
	return entries
}

// Snapshot is the status view of a run.
func (e *RunEntry) Snapshot() types.RunSnapshot {
	o := e.Orchestrator
	snapshot := types.RunSnapshot{
		RunID:    o.RunID(),
		State:    o.State(),
		Progress: o.Progress(),
	}
	if outcome := o.Outcome(); outcome != nil {
		snapshot.Message = outcome.Message
		snapshot.Record = outcome.Record
	}
	return snapshot
}
