// Package timing accumulates observed state-transition events into
// per-state dwell-time aggregates and answers bottleneck queries over
// them.
package timing

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BTE-AYUSH25/flowSentry-forge/types"
)

// bottleneckFactor flags a state whose average dwell time exceeds this
// multiple of the global average.
const bottleneckFactor = 1.5

// Aggregator owns the running dwell-time totals for every project scope
// it has seen. It grows monotonically for the life of the process; a
// persistence collaborator can checkpoint it via Export/Restore.
//
// All methods are safe for concurrent use. Calls for the same issue
// must still arrive in chronological order — the aggregator enforces
// the ordering, it does not repair it.
type Aggregator struct {
	mu     sync.Mutex
	totals map[string]types.StateTotal  // "scope|state"
	issues map[string]types.IssueCursor // issue ID
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		totals: make(map[string]types.StateTotal),
		issues: make(map[string]types.IssueCursor),
	}
}

// ScopeOf derives the project scope from an issue key. Issue keys are
// "PROJ-123" style; an issue key without a project prefix scopes to
// itself.
func ScopeOf(issueID string) string {
	if i := strings.Index(issueID, "-"); i > 0 {
		return issueID[:i]
	}
	return issueID
}

// RecordTransition ingests one observed status change. The timestamp is
// an ISO-8601 (RFC 3339) instant. If the issue has a previously
// recorded state, the elapsed seconds since that record are added to
// the prior state's running total before the issue cursor moves to
// (toState, timestamp).
//
// Missing fields, an unparseable timestamp, or a timestamp earlier than
// the issue's previous one fail with INVALID_TRANSITION_SEQUENCE:
// out-of-order delivery is an ingestion bug, not tolerated here.
func (a *Aggregator) RecordTransition(issueID, fromState, toState, timestamp string) error {
	if issueID == "" || fromState == "" || toState == "" {
		return types.NewError(types.CodeInvalidTransitionSequence,
			"issue, from and to states are required")
	}
	ts, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return types.NewError(types.CodeInvalidTransitionSequence,
			"timestamp %q is not a valid instant", timestamp)
	}
	millis := ts.UnixMilli()

	a.mu.Lock()
	defer a.mu.Unlock()

	if cursor, ok := a.issues[issueID]; ok {
		if millis < cursor.LastTimestamp {
			return types.NewError(types.CodeInvalidTransitionSequence,
				"issue %s: timestamp %q precedes previously recorded event", issueID, timestamp)
		}
		key := totalKey(ScopeOf(issueID), cursor.LastState)
		total := a.totals[key]
		total.TotalDurationSeconds += float64(millis-cursor.LastTimestamp) / 1000
		total.SampleCount++
		a.totals[key] = total
	}

	a.issues[issueID] = types.IssueCursor{LastState: toState, LastTimestamp: millis}
	return nil
}

// ComputeBottlenecks reports, for one project scope, the average dwell
// time of every observed state and the states whose average exceeds
// 1.5x the global average. The global average is the unweighted mean of
// the per-state averages, not a sample-weighted mean.
//
// Fails with INSUFFICIENT_DATA when the scope is empty or has no
// completed samples yet; that is an expected condition for a young
// project and callers substitute an empty report.
func (a *Aggregator) ComputeBottlenecks(scopeKey string) (*types.BottleneckReport, error) {
	if scopeKey == "" {
		return nil, types.NewError(types.CodeInsufficientData, "scope key is required")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	prefix := scopeKey + "|"
	averages := make(map[string]float64)
	for key, total := range a.totals {
		if !strings.HasPrefix(key, prefix) || total.SampleCount == 0 {
			continue
		}
		averages[key[len(prefix):]] = total.TotalDurationSeconds / float64(total.SampleCount)
	}
	if len(averages) == 0 {
		return nil, types.NewError(types.CodeInsufficientData,
			"no timing samples recorded for scope %s", scopeKey)
	}

	var sum float64
	for _, avg := range averages {
		sum += avg
	}
	globalAverage := sum / float64(len(averages))

	bottlenecks := []string{}
	for state, avg := range averages {
		if avg > bottleneckFactor*globalAverage {
			bottlenecks = append(bottlenecks, state)
		}
	}
	sort.Strings(bottlenecks)

	return &types.BottleneckReport{
		StateAverages: averages,
		Bottlenecks:   bottlenecks,
	}, nil
}

// Export returns a deep copy of the aggregate state for checkpointing.
func (a *Aggregator) Export() types.TimingState {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := types.TimingState{
		Totals: make(map[string]types.StateTotal, len(a.totals)),
		Issues: make(map[string]types.IssueCursor, len(a.issues)),
	}
	for k, v := range a.totals {
		st.Totals[k] = v
	}
	for k, v := range a.issues {
		st.Issues[k] = v
	}
	return st
}

// Restore replaces the aggregate state with a previously exported
// checkpoint.
func (a *Aggregator) Restore(st types.TimingState) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totals = make(map[string]types.StateTotal, len(st.Totals))
	a.issues = make(map[string]types.IssueCursor, len(st.Issues))
	for k, v := range st.Totals {
		a.totals[k] = v
	}
	for k, v := range st.Issues {
		a.issues[k] = v
	}
}

func totalKey(scope, state string) string {
	return scope + "|" + state
}
