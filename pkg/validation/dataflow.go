package validation

import (
	"fmt"
	"maps"
	"strings"

	"github.com/dukex/wflguard/pkg/catalog"
	"github.com/dukex/wflguard/pkg/models"
)

// scope maps the variables visible on the current path to their type.
type scope map[string]models.VariableType

// produces returns the variable an action registers once it has validated, if any.
func produces(a *models.Action) (string, models.VariableType, error) {
	switch {
	case catalog.IsCaptureAction(a.ActionType):
		p, err := a.CaptureParams()
		if err != nil || !p.Captures() || p.OutputVariable == "" {
			return "", 0, err
		}

		return p.OutputVariable, models.VariableText, nil
	case a.ActionType == models.ActionGetDeviceValue:
		p, err := a.DeviceValueParams()
		if err != nil || p.VariableName == "" {
			return "", 0, err
		}

		return p.VariableName, catalog.DeviceValueType(p.VariableType), nil
	default:
		return "", 0, nil
	}
}

// CheckDataflow runs the branch-scoped def-use analysis. Variable names must be unique across
// the whole tree; every consumer must see its producer earlier on its own path, with the same
// declared type. Branches get independent copies of the scope and never merge back.
func CheckDataflow(seq models.Sequence) error {
	if err := checkUniqueProducers(seq); err != nil {
		return err
	}

	return checkPath("", models.FieldSteps, seq, scope{})
}

func checkUniqueProducers(seq models.Sequence) error {
	seen := make(map[string]models.Path)

	for path, step := range models.Walk(seq) {
		a, ok := step.(*models.Action)
		if !ok {
			continue
		}

		name, _, err := produces(a)
		if err != nil {
			return dataflowViolation(path.Field("parameters"), a, "", ReasonMalformedParameters,
				fmt.Sprintf("cannot read produced variable: %v", err))
		}

		if name == "" {
			continue
		}

		if first, dup := seen[name]; dup {
			return dataflowViolation(path, a, name, ReasonDuplicate,
				fmt.Sprintf("Variable '%s' is produced more than once (first at %s)", name, first))
		}

		seen[name] = path
	}

	return nil
}

func checkPath(parent models.Path, field string, seq models.Sequence, vars scope) error {
	for i, step := range seq {
		path := parent.At(field, i)

		switch s := step.(type) {
		case *models.Action:
			if err := checkConsumer(path, s, vars); err != nil {
				return err
			}

			name, typ, _ := produces(s)
			if name != "" {
				vars[name] = typ
			}
		case *models.Condition:
			for j, r := range s.Rules {
				if r.PropertyID != models.PropertyVariable {
					continue
				}

				if _, ok := vars[r.VariablesID]; !ok {
					return dataflowViolation(path.At("rules", j), s, r.VariablesID, ReasonUnproduced,
						fmt.Sprintf("Rule references variable '%s' before it is produced on this branch", r.VariablesID))
				}
			}

			if err := checkPath(path, models.FieldPositive, s.Positive, maps.Clone(vars)); err != nil {
				return err
			}

			if err := checkPath(path, models.FieldNegative, s.Negative, maps.Clone(vars)); err != nil {
				return err
			}
		}
	}

	return nil
}

func checkConsumer(path models.Path, a *models.Action, vars scope) error {
	params := path.Field("parameters")

	refs, err := a.Variables()
	if err != nil {
		return dataflowViolation(params, a, "", ReasonMalformedReference, fmt.Sprintf("malformed variables list: %v", err))
	}

	ids := make(map[string]struct{}, len(refs))

	for _, ref := range refs {
		if s, ok := ref.VariableID.Raw().(string); ok {
			ids[s] = struct{}{}
		}
	}

	var missing []string

	for _, ph := range models.Placeholders(a.Parameters) {
		if _, ok := ids[ph]; !ok {
			missing = append(missing, ph)
		}
	}

	if len(missing) > 0 {
		return dataflowViolation(params, a, "#"+missing[0], ReasonUnresolvedPlaceholder,
			fmt.Sprintf("Missing variable references for ids: [%s]", strings.Join(missing, ", ")))
	}

	for _, ref := range refs {
		if err := checkRef(params, a, ref, vars); err != nil {
			return err
		}
	}

	if a.ActionType == models.ActionSendEmail {
		return checkRecipients(params, a, vars)
	}

	return nil
}

func checkRef(path models.Path, a *models.Action, ref models.VariableRef, vars scope) error {
	expected, ok := vars[ref.SourceID]
	if !ok {
		return dataflowViolation(path, a, ref.SourceID, ReasonUnproduced,
			fmt.Sprintf("VarRef.sourceId '%s' not produced yet in this branch", ref.SourceID))
	}

	if ref.Type == nil || !ref.Type.Valid() {
		return dataflowViolation(path, a, ref.SourceID, ReasonMalformedReference,
			fmt.Sprintf("VarRef.type for '%s' must be 0..3", ref.SourceID))
	}

	if *ref.Type != expected {
		return dataflowViolation(path, a, ref.SourceID, ReasonTypeMismatch,
			fmt.Sprintf("VarRef.type mismatch for '%s': expected %d (%s), got %d (%s)",
				ref.SourceID, int(expected), expected, int(*ref.Type), *ref.Type))
	}

	return nil
}

func checkRecipients(path models.Path, a *models.Action, vars scope) error {
	p, err := a.EmailParams()
	if err != nil {
		return dataflowViolation(path, a, "", ReasonMalformedRecipient, fmt.Sprintf("malformed email addressing: %v", err))
	}

	for _, addr := range p.Recipients {
		s, ok := addr.(string)
		if !ok || !strings.Contains(s, "@") {
			return dataflowViolation(path, a, "", ReasonMalformedRecipient, fmt.Sprintf("Invalid email recipient: %v", addr))
		}
	}

	for _, ref := range p.VariableRecipients {
		typ, ok := vars[ref.SourceID]
		if !ok {
			return dataflowViolation(path, a, ref.SourceID, ReasonUnproduced,
				fmt.Sprintf("variableRecipients source '%s' not produced yet in this branch", ref.SourceID))
		}

		if typ != models.VariableText {
			return dataflowViolation(path, a, ref.SourceID, ReasonMalformedRecipient,
				fmt.Sprintf("variableRecipients must reference Text variables; '%s' is not Text", ref.SourceID))
		}
	}

	return nil
}
