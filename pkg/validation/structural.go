package validation

import (
	"github.com/dukex/wflguard/pkg/models"
)

// CheckStructure requires a non-empty root whose first step is the only trigger in the tree.
func CheckStructure(seq models.Sequence) error {
	if len(seq) == 0 {
		return violation(KindStructural, models.FieldSteps, nil, "workflow must contain at least one step")
	}

	if _, ok := seq[0].(*models.Trigger); !ok {
		return violation(KindStructural, models.Path("").At(models.FieldSteps, 0), seq[0], "first step must be a trigger")
	}

	first := true

	for path, step := range models.Walk(seq) {
		if first {
			first = false

			continue
		}

		if _, ok := step.(*models.Trigger); ok {
			return violation(KindStructural, path, step, "trigger may appear only once, as the first root step")
		}
	}

	return nil
}

// CheckEndPlacement requires End Workflow to be the last step of its sequence, at every level.
func CheckEndPlacement(seq models.Sequence) error {
	return checkEndPlacement("", models.FieldSteps, seq)
}

func checkEndPlacement(parent models.Path, field string, seq models.Sequence) error {
	for i, step := range seq {
		path := parent.At(field, i)

		switch s := step.(type) {
		case *models.Action:
			if s.ActionType == models.ActionEndWorkflow && i != len(seq)-1 {
				return violation(KindStructural, path, step, "End Workflow must be the last step in its branch")
			}
		case *models.Condition:
			if err := checkEndPlacement(path, models.FieldPositive, s.Positive); err != nil {
				return err
			}

			if err := checkEndPlacement(path, models.FieldNegative, s.Negative); err != nil {
				return err
			}
		}
	}

	return nil
}
