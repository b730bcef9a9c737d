package validation

import (
	"fmt"

	"github.com/dukex/wflguard/pkg/models"
)

// CheckVariableOrder is the coarse pre-filter ahead of CheckDataflow. For every condition it
// collects the names produced before the first step, in document order, whose id equals the
// condition id, and requires each Variable rule to use one of them. Step ids are not required
// to be unique, so a repeated id can make this disagree with the pathwise analysis; the
// pathwise analysis is authoritative.
func CheckVariableOrder(seq models.Sequence) error {
	for path, step := range models.Walk(seq) {
		c, ok := step.(*models.Condition)
		if !ok {
			continue
		}

		before := producedBefore(seq, c.ID)

		for i, r := range c.Rules {
			if r.PropertyID != models.PropertyVariable {
				continue
			}

			if _, ok := before[r.VariablesID]; !ok {
				return dataflowViolation(path.At("rules", i), c, r.VariablesID, ReasonUnproduced,
					fmt.Sprintf("Condition %s uses variable '%s' before it is produced in this path", c.DisplayName, r.VariablesID))
			}
		}
	}

	return nil
}

func producedBefore(seq models.Sequence, upTo models.ID) map[string]struct{} {
	produced := make(map[string]struct{})

	for _, step := range models.Walk(seq) {
		if step.StepID().Equal(upTo) {
			break
		}

		if a, ok := step.(*models.Action); ok {
			if name, _, _ := produces(a); name != "" {
				produced[name] = struct{}{}
			}
		}
	}

	return produced
}
