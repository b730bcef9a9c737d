package validation

import (
	"errors"
	"fmt"
	"math"

	"github.com/dukex/wflguard/pkg/models"
)

// CheckIdentifiers validates step ids, rule and VarRef workflowStepIds, and VarRef variableIds.
// Parameter lists that cannot be decoded are left to the dataflow check.
func CheckIdentifiers(seq models.Sequence) error {
	for path, step := range models.Walk(seq) {
		if id := step.StepID(); !id.IsZero() {
			if err := checkID(path.Field("id"), step, "step.id", id); err != nil {
				return err
			}
		}

		switch s := step.(type) {
		case *models.Condition:
			for i, r := range s.Rules {
				if r.WorkflowStepID.IsZero() {
					continue
				}

				if err := checkID(path.At("rules", i), s, "rule.workflowStepId", r.WorkflowStepID); err != nil {
					return err
				}
			}
		case *models.Action:
			if err := checkActionRefs(path, s); err != nil {
				return err
			}
		}
	}

	return nil
}

func checkActionRefs(path models.Path, a *models.Action) error {
	var refs []models.VariableRef

	if vars, err := a.Variables(); err == nil {
		refs = append(refs, vars...)
	}

	if a.ActionType == models.ActionSendEmail {
		if p, err := a.EmailParams(); err == nil {
			refs = append(refs, p.VariableRecipients...)
		}
	}

	for _, ref := range refs {
		if !ref.WorkflowStepID.IsZero() {
			if err := checkID(path.Field("parameters"), a, "VarRef.workflowStepId", ref.WorkflowStepID); err != nil {
				return err
			}
		}

		if !ref.VariableID.IsVariableID() {
			v := violation(KindIdentifier, path.Field("parameters"), a,
				fmt.Sprintf("VarRef.variableId must be a digit string of length >= 6, got %s", describeID(ref.VariableID)))
			v.Variable = ref.SourceID

			return v
		}
	}

	return nil
}

func checkID(path models.Path, step models.Step, where string, id models.ID) error {
	_, err := id.Int64()

	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrIDOutOfRange):
		return violation(KindIdentifier, path, step, fmt.Sprintf("%s: id must be within 0..%d, got %s", where, int64(math.MaxInt64), describeID(id)))
	default:
		return violation(KindIdentifier, path, step, fmt.Sprintf("%s: id must be an integer or numeric string (0..%d), got %s", where, int64(math.MaxInt64), describeID(id)))
	}
}

func describeID(id models.ID) string {
	switch raw := id.Raw(); raw.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", raw)
	default:
		return id.String()
	}
}
