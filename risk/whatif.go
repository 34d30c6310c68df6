package risk

import (
	"math"

	"github.com/BTE-AYUSH25/flowSentry-forge/types"
)

// Reduction factors applied to the dominant breakdown component: the
// share of that component a realistic fix is assumed to remove.
// Automation conflicts are the cheapest to fix, structure the hardest.
const (
	reductionTiming     = 0.5
	reductionStructure  = 0.4
	reductionAutomation = 0.6

	// scoreFloor is the residual risk no single fix gets below.
	scoreFloor = 0.05
)

// Recommended actions per dominant driver.
const (
	ActionTiming     = "Reduce dwell time in the bottleneck states"
	ActionStructure  = "Simplify the workflow graph structure"
	ActionAutomation = "Resolve the conflicting automation rules"
)

// SimulateImprovement projects the score after neutralizing the
// dominant risk driver. Ties resolve timing over structure over
// automation, matching the order in which teams can usually act.
// The explanation travels with the score so presentation collaborators
// receive both from one call; the projection itself derives only from
// the score.
func SimulateImprovement(score types.RiskScore, explanation types.Explanation) *types.Improvement {
	b := score.Breakdown

	var reduction float64
	var action string
	switch {
	case b.Timing >= b.Structure && b.Timing >= b.Automation:
		reduction = b.Timing * reductionTiming
		action = ActionTiming
	case b.Structure >= b.Automation:
		reduction = b.Structure * reductionStructure
		action = ActionStructure
	default:
		reduction = b.Automation * reductionAutomation
		action = ActionAutomation
	}

	potential := round2(math.Max(scoreFloor, score.Overall-reduction))

	percentage := 0
	if score.Overall != 0 {
		percentage = int(math.Round((score.Overall - potential) / score.Overall * 100))
	}

	return &types.Improvement{
		PotentialScore:        potential,
		ImprovementPercentage: percentage,
		PrimaryAction:         action,
	}
}
