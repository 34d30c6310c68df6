package rules

import (
	"github.com/BTE-AYUSH25/flowSentry-forge/types"
)

// LoopSentinel is the self-referential action value that marks a rule
// as feeding its own trigger.
const LoopSentinel = "CURRENT"

// AnalyzeConflicts compares every pair of rules sharing a trigger and
// reports, per field both pairs write:
//
//   - an OVERWRITE conflict when the written values differ, and
//   - a LOOP conflict when either value is the "CURRENT" sentinel.
//
// The two checks are independent, so one pair+field can produce both
// conflicts. Quadratic in rule count and actions per rule; rule sets
// are tens of entries.
//
// It is pure over the provided slice. A nil or empty rule set yields an
// empty conflict list.
func AnalyzeConflicts(ruleSet []types.AutomationRule) *types.RuleFindings {
	findings := &types.RuleFindings{Conflicts: []types.RuleConflict{}}

	for i := 0; i < len(ruleSet); i++ {
		for j := i + 1; j < len(ruleSet); j++ {
			a, b := ruleSet[i], ruleSet[j]
			if a.Trigger != b.Trigger {
				continue
			}
			for _, actA := range a.Actions {
				for _, actB := range b.Actions {
					if actA.Field != actB.Field {
						continue
					}
					if actA.Value != actB.Value {
						findings.Conflicts = append(findings.Conflicts, types.RuleConflict{
							RuleA:   a.ID,
							RuleB:   b.ID,
							Trigger: a.Trigger,
							Field:   actA.Field,
							Kind:    types.ConflictOverwrite,
						})
					}
					if actA.Value == LoopSentinel || actB.Value == LoopSentinel {
						findings.Conflicts = append(findings.Conflicts, types.RuleConflict{
							RuleA:   a.ID,
							RuleB:   b.ID,
							Trigger: a.Trigger,
							Field:   actA.Field,
							Kind:    types.ConflictLoop,
						})
					}
				}
			}
		}
	}

	return findings
}
