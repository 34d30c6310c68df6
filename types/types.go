package types

// WorkflowGraph is the normalized workflow definition supplied by the
// workflow provider: a set of named states plus directed transitions.
type WorkflowGraph struct {
	ID          string       `json:"id"`
	States      []string     `json:"states"`
	Transitions []Transition `json:"transitions"`
}

// Transition is a directed edge between two workflow states.
type Transition struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// GraphFindings holds the structural analysis of a workflow graph.
// Computed fresh per invocation; never persisted.
type GraphFindings struct {
	Cycles      [][]string `json:"cycles"`
	DeadEnds    []string   `json:"dead_ends"`
	Unreachable []string   `json:"unreachable"`
	MaxDepth    int        `json:"max_depth"`
}

// BottleneckReport is the result of a bottleneck query against the
// timing aggregates of a single project scope.
type BottleneckReport struct {
	StateAverages map[string]float64 `json:"state_averages"`
	Bottlenecks   []string           `json:"bottlenecks"`
}

// StateTotal accumulates dwell time observed for one workflow state.
type StateTotal struct {
	TotalDurationSeconds float64 `json:"total_duration_seconds"`
	SampleCount          int64   `json:"sample_count"`
}

// IssueCursor tracks where an issue currently sits so the next
// transition event can attribute elapsed time to the right state.
type IssueCursor struct {
	LastState     string `json:"last_state"`
	LastTimestamp int64  `json:"last_timestamp"` // unix millis
}

// TimingState is an exportable snapshot of a timing aggregator: totals
// keyed by "scope|state", cursors keyed by issue ID. It exists so a
// persistence collaborator can save and restore aggregates across
// process restarts.
type TimingState struct {
	Totals map[string]StateTotal  `json:"totals"`
	Issues map[string]IssueCursor `json:"issues"`
}

// RuleAction is a single field write performed by an automation rule.
type RuleAction struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// AutomationRule is an automation rule definition supplied by the rule
// provider.
type AutomationRule struct {
	ID      string       `json:"id"`
	Trigger string       `json:"trigger"`
	Actions []RuleAction `json:"actions"`
}

// Conflict kinds.
const (
	ConflictOverwrite = "OVERWRITE"
	ConflictLoop      = "LOOP"
)

// RuleConflict is one detected conflict between two automation rules
// sharing a trigger and touching the same field.
type RuleConflict struct {
	RuleA   string `json:"rule_a"`
	RuleB   string `json:"rule_b"`
	Trigger string `json:"trigger"`
	Field   string `json:"field"`
	Kind    string `json:"kind"` // "OVERWRITE" or "LOOP"
}

// RuleFindings holds the conflict analysis of a rule set.
type RuleFindings struct {
	Conflicts []RuleConflict `json:"conflicts"`
}

// RiskBreakdown is the per-signal decomposition of a risk score. Each
// component is in [0, 1].
type RiskBreakdown struct {
	Structure  float64 `json:"structure"`
	Timing     float64 `json:"timing"`
	Automation float64 `json:"automation"`
}

// RiskScore is the aggregated project risk in [0, 1] with its breakdown.
type RiskScore struct {
	Overall   float64       `json:"overall"`
	Breakdown RiskBreakdown `json:"breakdown"`
}

// Findings bundles the three analysis outputs that feed risk
// aggregation and explanation.
type Findings struct {
	Graph  *GraphFindings    `json:"graph"`
	Timing *BottleneckReport `json:"timing"`
	Rules  *RuleFindings     `json:"rules"`
}

// Explanation is a deterministic human-readable projection of a risk
// score and its findings. Details always has at least one entry.
type Explanation struct {
	Summary string   `json:"summary"`
	Details []string `json:"details"`
}

// Improvement is the what-if projection after neutralizing the dominant
// risk driver.
type Improvement struct {
	PotentialScore        float64 `json:"potential_score"`
	ImprovementPercentage int     `json:"improvement_percentage"`
	PrimaryAction         string  `json:"primary_action"`
}

// Alert is an alert rule that fired against a computed risk snapshot.
type Alert struct {
	Name      string `json:"name"`
	Condition string `json:"condition"`
	Severity  string `json:"severity"`
}

// RiskSnapshot is the persisted output of one pipeline analysis run.
type RiskSnapshot struct {
	ID          uint64      `json:"id"`
	ProjectKey  string      `json:"project_key"`
	Score       RiskScore   `json:"score"`
	Findings    Findings    `json:"findings"`
	Explanation Explanation `json:"explanation"`
	Improvement Improvement `json:"improvement"`
	Alerts      []Alert     `json:"alerts,omitempty"`
	GeneratedAt int64       `json:"generated_at"` // unix millis
}
