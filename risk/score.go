// Package risk turns the three independent analyses of a project into
// one explainable risk score, its natural-language explanation, and a
// what-if projection.
package risk

import (
	"math"

	"github.com/BTE-AYUSH25/flowSentry-forge/types"
)

// Signal weights for the overall score. They must sum to 1.0 and are
// deliberately fixed constants: a score that cannot shift under
// configuration is a score whose explanation stays truthful.
const (
	weightStructure  = 0.5
	weightTiming     = 0.3
	weightAutomation = 0.2
)

// Signal normalization ceilings. A raw signal count at or beyond its
// ceiling saturates that component at 1.0.
const (
	structureCeiling  = 10.0
	timingCeiling     = 5.0
	automationCeiling = 5.0

	// depthGrace is the longest path length that carries no penalty.
	depthGrace = 5

	// loopWeight counts a LOOP conflict double: a feedback loop keeps
	// firing, an overwrite fires once.
	loopWeight      = 2
	overwriteWeight = 1
)

// Compute aggregates graph, timing and rule findings into a RiskScore.
// Pure and deterministic. Fails with MISSING_SIGNAL if any of the three
// analyses is absent; an upstream orchestrator that could not produce a
// signal must substitute an empty finding, not a nil one.
func Compute(graphF *types.GraphFindings, timingF *types.BottleneckReport, ruleF *types.RuleFindings) (*types.RiskScore, error) {
	if graphF == nil || timingF == nil || ruleF == nil {
		return nil, types.NewError(types.CodeMissingSignal,
			"graph, timing and rule findings are all required")
	}

	structureSignal := len(graphF.Cycles) + len(graphF.DeadEnds) + len(graphF.Unreachable)
	if depth := graphF.MaxDepth - depthGrace; depth > 0 {
		structureSignal += depth
	}

	automationSignal := 0
	for _, c := range ruleF.Conflicts {
		if c.Kind == types.ConflictLoop {
			automationSignal += loopWeight
		} else {
			automationSignal += overwriteWeight
		}
	}

	breakdown := types.RiskBreakdown{
		Structure:  normalize(float64(structureSignal), structureCeiling),
		Timing:     normalize(float64(len(timingF.Bottlenecks)), timingCeiling),
		Automation: normalize(float64(automationSignal), automationCeiling),
	}

	overall := weightStructure*breakdown.Structure +
		weightTiming*breakdown.Timing +
		weightAutomation*breakdown.Automation

	return &types.RiskScore{
		Overall:   round2(overall),
		Breakdown: breakdown,
	}, nil
}

func normalize(signal, ceiling float64) float64 {
	return math.Min(signal/ceiling, 1)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
