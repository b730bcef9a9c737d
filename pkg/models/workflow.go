// Package models defines the workflow tree: a root sequence of steps where each step is a
// trigger, an action or a condition carrying two mutually exclusive branches.
package models

// StepType is the wire discriminant carried by every step as "workflowStepType".
type StepType int

const (
	StepTypeAction    StepType = 0
	StepTypeTrigger   StepType = 1
	StepTypeCondition StepType = 2
)

func (t StepType) String() string {
	switch t {
	case StepTypeAction:
		return "action"
	case StepTypeTrigger:
		return "trigger"
	case StepTypeCondition:
		return "condition"
	default:
		return "unknown"
	}
}

// Field names used when rendering step positions.
const (
	FieldSteps    = "workflowSteps"
	FieldPositive = "positiveOutcome"
	FieldNegative = "negativeOutcome"
)

// Workflow is a candidate automation workflow as handed over by its producer.
type Workflow struct {
	Steps Sequence `json:"workflowSteps"`
	Text  string   `json:"text,omitempty"` // only meaningful when PSA ticket actions are used
}

// Step is implemented by *Trigger, *Action and *Condition only.
type Step interface {
	Type() StepType
	StepID() ID
	Name() string

	isStep()
}

// Sequence is an ordered list of steps: the workflow root or one condition branch.
type Sequence []Step

// Trigger returns the workflow trigger when the first step is one.
func (w *Workflow) Trigger() (*Trigger, bool) {
	if w == nil || len(w.Steps) == 0 {
		return nil, false
	}

	t, ok := w.Steps[0].(*Trigger)

	return t, ok
}
