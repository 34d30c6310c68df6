package risk

import (
	"fmt"
	"strings"

	"github.com/BTE-AYUSH25/flowSentry-forge/types"
)

// Summary thresholds on the overall score.
const (
	thresholdHigh     = 0.7
	thresholdModerate = 0.4
)

// Explain renders a risk score and its raw findings into deterministic
// human-readable text. Identical inputs produce byte-identical output:
// no clock, no randomness, no recomputation of the score.
//
// Fails with EXPLANATION_MISMATCH when the score or any of the three
// findings is missing. The detail list is never empty; findings without
// issues yield a single placeholder line.
func Explain(score *types.RiskScore, findings *types.Findings) (*types.Explanation, error) {
	if score == nil || findings == nil ||
		findings.Graph == nil || findings.Timing == nil || findings.Rules == nil {
		return nil, types.NewError(types.CodeExplanationMismatch,
			"risk score and all three findings are required")
	}

	details := []string{}

	if n := len(findings.Graph.Cycles); n > 0 {
		details = append(details,
			fmt.Sprintf("Found %d cycle path(s) in the workflow graph; issues can circulate without reaching a terminal state.", n))
	}
	if len(findings.Graph.DeadEnds) > 0 {
		details = append(details,
			fmt.Sprintf("Dead-end states with no outgoing transition: %s.", strings.Join(findings.Graph.DeadEnds, ", ")))
	}
	if len(findings.Graph.Unreachable) > 0 {
		details = append(details,
			fmt.Sprintf("States unreachable from the entry state: %s.", strings.Join(findings.Graph.Unreachable, ", ")))
	}
	if findings.Graph.MaxDepth > depthGrace {
		details = append(details,
			fmt.Sprintf("Longest workflow path spans %d states, above the recommended maximum of %d.", findings.Graph.MaxDepth, depthGrace))
	}
	if len(findings.Timing.Bottlenecks) > 0 {
		details = append(details,
			fmt.Sprintf("Bottleneck states where issues dwell far longer than average: %s.", strings.Join(findings.Timing.Bottlenecks, ", ")))
	}

	loops, overwrites := 0, 0
	for _, c := range findings.Rules.Conflicts {
		switch c.Kind {
		case types.ConflictLoop:
			loops++
		case types.ConflictOverwrite:
			overwrites++
		}
	}
	if loops > 0 {
		details = append(details,
			fmt.Sprintf("%d automation rule pairing(s) can trigger feedback loops via self-referential writes.", loops))
	}
	if overwrites > 0 {
		details = append(details,
			fmt.Sprintf("%d automation rule pairing(s) overwrite the same field with different values.", overwrites))
	}

	if len(details) == 0 {
		details = append(details, "No structural, timing or automation issues detected.")
	}

	return &types.Explanation{
		Summary: summarize(score.Overall),
		Details: details,
	}, nil
}

func summarize(overall float64) string {
	switch {
	case overall >= thresholdHigh:
		return fmt.Sprintf("High risk (%.2f): this workflow needs attention before it degrades delivery.", overall)
	case overall >= thresholdModerate:
		return fmt.Sprintf("Moderate risk (%.2f): several signals warrant review.", overall)
	default:
		return fmt.Sprintf("Low risk (%.2f): the workflow looks healthy.", overall)
	}
}
