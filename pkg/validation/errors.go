package validation

import (
	"errors"
	"strings"

	"github.com/dukex/wflguard/pkg/models"
)

// Kind classifies a rejection.
type Kind string

const (
	KindStructural    Kind = "StructuralViolation"
	KindScheduleShape Kind = "ScheduleShapeViolation"
	KindAllowList     Kind = "AllowListViolation"
	KindIdentifier    Kind = "IdentifierRangeViolation"
	KindDataflow      Kind = "DataflowViolation"
)

var (
	ErrStructuralViolation    = errors.New("structural violation")
	ErrScheduleShapeViolation = errors.New("schedule shape violation")
	ErrAllowListViolation     = errors.New("allow-list violation")
	ErrIdentifierViolation    = errors.New("identifier range violation")
	ErrDataflowViolation      = errors.New("dataflow violation")
)

var kindErrors = map[Kind]error{
	KindStructural:    ErrStructuralViolation,
	KindScheduleShape: ErrScheduleShapeViolation,
	KindAllowList:     ErrAllowListViolation,
	KindIdentifier:    ErrIdentifierViolation,
	KindDataflow:      ErrDataflowViolation,
}

// Reason refines a dataflow violation.
type Reason string

const (
	ReasonUnproduced            Reason = "unproduced"
	ReasonDuplicate             Reason = "duplicate"
	ReasonTypeMismatch          Reason = "type_mismatch"
	ReasonUnresolvedPlaceholder Reason = "unresolved_placeholder"
	ReasonMalformedRecipient    Reason = "malformed_recipient"
	ReasonMalformedReference    Reason = "malformed_reference"
	ReasonMalformedParameters   Reason = "malformed_parameters"
)

// Violation is the single rejection returned for an invalid workflow.
type Violation struct {
	Kind     Kind
	Stage    Stage
	Path     models.Path
	StepID   string
	Variable string
	Reason   Reason
	Message  string
}

func (v *Violation) Error() string {
	var b strings.Builder

	b.WriteString(string(v.Kind))

	if v.Path != "" {
		b.WriteString(" at ")
		b.WriteString(string(v.Path))
	}

	b.WriteString(": ")
	b.WriteString(v.Message)

	return b.String()
}

// Is matches the sentinel of the violation kind.
func (v *Violation) Is(target error) bool {
	sentinel, ok := kindErrors[v.Kind]

	return ok && target == sentinel
}

// AsViolation extracts a *Violation from err.
func AsViolation(err error) (*Violation, bool) {
	var v *Violation
	if errors.As(err, &v) {
		return v, true
	}

	return nil, false
}

func violation(kind Kind, path models.Path, step models.Step, message string) *Violation {
	v := &Violation{Kind: kind, Path: path, Message: message}
	if step != nil {
		v.StepID = step.StepID().String()
	}

	return v
}

func dataflowViolation(path models.Path, step models.Step, variable string, reason Reason, message string) *Violation {
	v := violation(KindDataflow, path, step, message)
	v.Variable = variable
	v.Reason = reason

	return v
}
