// Package pipeline wires the analysis core together: it pulls workflow
// and rule definitions from their providers, runs the three analyses,
// aggregates and explains the risk, evaluates alert rules, and persists
// the resulting snapshot.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/songzhibin97/gkit/generator"

	"github.com/BTE-AYUSH25/flowSentry-forge/events"
	"github.com/BTE-AYUSH25/flowSentry-forge/graph"
	"github.com/BTE-AYUSH25/flowSentry-forge/risk"
	"github.com/BTE-AYUSH25/flowSentry-forge/rules"
	"github.com/BTE-AYUSH25/flowSentry-forge/storage"
	"github.com/BTE-AYUSH25/flowSentry-forge/timing"
	"github.com/BTE-AYUSH25/flowSentry-forge/types"
)

// Standard error definitions
var (
	ErrNilGenerator       = errors.New("generator is required")
	ErrNoWorkflowProvider = errors.New("workflow provider is required")
	ErrNoRuleProvider     = errors.New("rule provider is required")
)

// Event types published on the bus.
const (
	EventTransitionRecorded = "transition_recorded"
	EventRiskComputed       = "risk_computed"
	EventAlertFired         = "alert_fired"
)

// WorkflowProvider supplies the normalized workflow graph for a project.
type WorkflowProvider interface {
	GetWorkflow(ctx context.Context, projectKey string) (types.WorkflowGraph, error)
}

// RuleProvider supplies the automation rules configured for a project.
type RuleProvider interface {
	GetRules(ctx context.Context, projectKey string) ([]types.AutomationRule, error)
}

// AlertRule fires when its condition evaluates true against a computed
// snapshot. Conditions are expr-lang boolean expressions over the
// snapshot environment: overall, structure, timing, automation,
// bottlenecks, cycles, dead_ends, unreachable, max_depth, conflicts.
type AlertRule struct {
	Name      string `json:"name" yaml:"name"`
	Condition string `json:"condition" yaml:"condition"`
	Severity  string `json:"severity" yaml:"severity"`
}

// Pipeline orchestrates risk analysis for projects. The pure analyses
// carry no state; all mutable state lives in the injected collaborators
// and the per-pipeline timing aggregator.
type Pipeline struct {
	workflowProvider WorkflowProvider
	ruleProvider     RuleProvider
	aggregator       *timing.Aggregator
	storage          storage.Storage
	eventBus         *events.EventBus
	evaluator        rules.Evaluator
	generate         generator.Generator
	alertRules       []AlertRule
	mu               sync.RWMutex
}

// NewPipeline creates a Pipeline with the given collaborators. The
// generator and both providers are required; a nil storage falls back
// to in-memory, a nil evaluator to the expr evaluator. Bus options
// configure the internal event bus, e.g. events.WithBufferSize.
func NewPipeline(generate generator.Generator, workflows WorkflowProvider, ruleSource RuleProvider, store storage.Storage, evaluator rules.Evaluator, busOptions ...events.EventBusOption) (*Pipeline, error) {
	if generate == nil {
		return nil, ErrNilGenerator
	}
	if workflows == nil {
		return nil, ErrNoWorkflowProvider
	}
	if ruleSource == nil {
		return nil, ErrNoRuleProvider
	}
	if store == nil {
		store = storage.NewMemoryStorage()
	}
	if evaluator == nil {
		evaluator = rules.NewExprEvaluator()
	}

	return &Pipeline{
		workflowProvider: workflows,
		ruleProvider:     ruleSource,
		aggregator:       timing.NewAggregator(),
		storage:          store,
		eventBus:         events.NewEventBus(busOptions...),
		evaluator:        evaluator,
		generate:         generate,
	}, nil
}

// SubscribeEvent subscribes an event handler to a specific event type.
func (p *Pipeline) SubscribeEvent(eventType string, handler events.EventHandler) {
	p.eventBus.Subscribe(eventType, handler)
}

// SetAlertRules replaces the alert rules evaluated after each analysis.
func (p *Pipeline) SetAlertRules(alertRules []AlertRule) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alertRules = append([]AlertRule(nil), alertRules...)
}

// publishEvent publishes an event asynchronously to the event bus.
func (p *Pipeline) publishEvent(ctx context.Context, eventType, projectKey string, data map[string]interface{}) {
	go p.eventBus.Publish(ctx, events.Event{
		Type:       eventType,
		ProjectKey: projectKey,
		Data:       data,
	})
}

// RecordTransition ingests one transition event from the host
// platform's event stream. Ordering violations and malformed events
// surface as INVALID_TRANSITION_SEQUENCE and are never absorbed.
func (p *Pipeline) RecordTransition(ctx context.Context, issueID, fromState, toState, timestamp string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := p.aggregator.RecordTransition(issueID, fromState, toState, timestamp); err != nil {
		return err
	}

	p.publishEvent(ctx, EventTransitionRecorded, timing.ScopeOf(issueID), map[string]interface{}{
		"issue":     issueID,
		"from":      fromState,
		"to":        toState,
		"timestamp": timestamp,
	})
	return nil
}

// Analyze runs the full risk analysis for a project and persists the
// resulting snapshot.
//
// Missing timing data (INSUFFICIENT_DATA) is expected for young
// projects and replaced with an empty bottleneck report; every other
// analysis failure propagates to the caller.
func (p *Pipeline) Analyze(ctx context.Context, projectKey string) (*types.RiskSnapshot, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	workflowGraph, err := p.workflowProvider.GetWorkflow(ctx, projectKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workflow for %s: %w", projectKey, err)
	}

	graphFindings, err := graph.Analyze(workflowGraph)
	if err != nil {
		return nil, err
	}

	timingFindings, err := p.aggregator.ComputeBottlenecks(projectKey)
	if err != nil {
		if !types.HasCode(err, types.CodeInsufficientData) {
			return nil, err
		}
		timingFindings = &types.BottleneckReport{
			StateAverages: map[string]float64{},
			Bottlenecks:   []string{},
		}
	}

	automationRules, err := p.ruleProvider.GetRules(ctx, projectKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve rules for %s: %w", projectKey, err)
	}
	ruleFindings := rules.AnalyzeConflicts(automationRules)

	score, err := risk.Compute(graphFindings, timingFindings, ruleFindings)
	if err != nil {
		return nil, err
	}

	findings := types.Findings{
		Graph:  graphFindings,
		Timing: timingFindings,
		Rules:  ruleFindings,
	}

	explanation, err := risk.Explain(score, &findings)
	if err != nil {
		return nil, err
	}

	improvement := risk.SimulateImprovement(*score, *explanation)
	alerts := p.evaluateAlerts(score, &findings)

	id, err := p.generate.NextID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate snapshot ID: %w", err)
	}

	snap := types.RiskSnapshot{
		ID:          id,
		ProjectKey:  projectKey,
		Score:       *score,
		Findings:    findings,
		Explanation: *explanation,
		Improvement: *improvement,
		Alerts:      alerts,
		GeneratedAt: time.Now().UnixMilli(),
	}

	if err := p.storage.SaveSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to save snapshot for %s: %w", projectKey, err)
	}

	p.publishEvent(ctx, EventRiskComputed, projectKey, map[string]interface{}{
		"overall":  score.Overall,
		"summary":  explanation.Summary,
		"snapshot": snap.ID,
	})
	for _, alert := range alerts {
		p.publishEvent(ctx, EventAlertFired, projectKey, map[string]interface{}{
			"alert":    alert.Name,
			"severity": alert.Severity,
			"overall":  score.Overall,
		})
	}

	return &snap, nil
}

// evaluateAlerts runs every configured alert rule against the snapshot
// environment. A condition that fails to evaluate does not fire; alert
// rules come from operator config and must not be able to abort an
// analysis.
func (p *Pipeline) evaluateAlerts(score *types.RiskScore, findings *types.Findings) []types.Alert {
	p.mu.RLock()
	configured := p.alertRules
	p.mu.RUnlock()

	if len(configured) == 0 {
		return nil
	}

	conflicts := 0
	if findings.Rules != nil {
		conflicts = len(findings.Rules.Conflicts)
	}

	var fired []types.Alert
	for _, rule := range configured {
		env := map[string]interface{}{
			"overall":     score.Overall,
			"structure":   score.Breakdown.Structure,
			"timing":      score.Breakdown.Timing,
			"automation":  score.Breakdown.Automation,
			"bottlenecks": len(findings.Timing.Bottlenecks),
			"cycles":      len(findings.Graph.Cycles),
			"dead_ends":   len(findings.Graph.DeadEnds),
			"unreachable": len(findings.Graph.Unreachable),
			"max_depth":   findings.Graph.MaxDepth,
			"conflicts":   conflicts,
		}
		ok, err := p.evaluator.Evaluate(rule.Condition, env)
		if err != nil || !ok {
			continue
		}
		fired = append(fired, types.Alert{
			Name:      rule.Name,
			Condition: rule.Condition,
			Severity:  rule.Severity,
		})
	}
	return fired
}

// LastSnapshot returns the most recently persisted snapshot for a project.
func (p *Pipeline) LastSnapshot(ctx context.Context, projectKey string) (*types.RiskSnapshot, error) {
	snap, err := p.storage.GetSnapshot(ctx, projectKey)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// SaveTimingState checkpoints the timing aggregates under key so a
// restarted process can pick up where the last one stopped.
func (p *Pipeline) SaveTimingState(ctx context.Context, key string) error {
	return p.storage.SaveTimingState(ctx, key, p.aggregator.Export())
}

// RestoreTimingState loads a previously saved timing checkpoint.
func (p *Pipeline) RestoreTimingState(ctx context.Context, key string) error {
	st, err := p.storage.GetTimingState(ctx, key)
	if err != nil {
		return err
	}
	p.aggregator.Restore(st)
	return nil
}

// Stop gracefully stops the pipeline's event bus.
func (p *Pipeline) Stop(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.eventBus.Stop()
		return nil
	}
}
