package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/dukex/wflguard/pkg/models"
	"github.com/dukex/wflguard/pkg/validation"
)

// Stages that run before the engine, and the stage reported for an accepted workflow.
const (
	StageExtract  = "extract"
	StageSchema   = "schema"
	StageDecode   = "decode"
	StageComplete = "complete"
)

// Kinds for rejections raised before the engine.
const (
	KindExtraction = "ExtractionError"
	KindSchema     = "SchemaViolation"
	KindDecode     = "DecodeError"
)

// SchedulePreview describes when a scheduled workflow would fire.
type SchedulePreview struct {
	Cron     string      `json:"cron,omitempty"`
	NextRuns []time.Time `json:"nextRuns,omitempty"`
	Note     string      `json:"note,omitempty"`
}

// Verdict is the outcome of validating one candidate.
type Verdict struct {
	Valid      bool             `json:"valid"`
	Stage      string           `json:"stage"`
	Kind       string           `json:"kind,omitempty"`
	Reason     string           `json:"reason,omitempty"`
	Path       string           `json:"path,omitempty"`
	StepID     string           `json:"stepId,omitempty"`
	Variable   string           `json:"variable,omitempty"`
	Message    string           `json:"message,omitempty"`
	Details    []string         `json:"details,omitempty"`
	Digest     string           `json:"digest"`
	Normalized bool             `json:"normalized,omitempty"`
	Workflow   *models.Workflow `json:"workflow,omitempty"`
	Schedule   *SchedulePreview `json:"schedule,omitempty"`
	Duration   time.Duration    `json:"-"`
	DurationMs float64          `json:"durationMs"`
}

func rejectedBy(v *validation.Violation) *Verdict {
	return &Verdict{
		Stage:    string(v.Stage),
		Kind:     string(v.Kind),
		Reason:   string(v.Reason),
		Path:     string(v.Path),
		StepID:   v.StepID,
		Variable: v.Variable,
		Message:  v.Message,
	}
}

// Summary is the one-line form used by the CLI and logs.
func (v *Verdict) Summary() string {
	if v.Valid {
		return "valid"
	}

	var b strings.Builder

	b.WriteString(v.Kind)

	if v.Path != "" {
		b.WriteString(" at ")
		b.WriteString(v.Path)
	}

	b.WriteString(": ")
	b.WriteString(v.Message)

	return b.String()
}

var hints = map[string]string{
	KindExtraction:                       "Return exactly one JSON object, optionally wrapped in <json></json>.",
	KindSchema:                           "Match the wire shape: every step needs workflowStepType and its type field; conditions need rules, positiveOutcome and negativeOutcome.",
	KindDecode:                           "Use a root object with a workflowSteps array and numeric type codes.",
	string(validation.KindStructural):    "Keep exactly one trigger at workflowSteps[0] and put End only as the last step of a sequence.",
	string(validation.KindScheduleShape): "Use a frequencyInterval and frequencySubinterval pair allowed for the chosen cadence.",
	string(validation.KindAllowList):     "Use only catalogued action types, notification types, operators, properties and scopes.",
	string(validation.KindIdentifier):    "Give every id a value that converts to a 64-bit integer.",
	string(validation.KindDataflow):      "Reference only variables captured earlier on the same path, with the type they were produced as.",
}

// Feedback renders the correction request handed back to the generator of a rejected candidate.
func (v *Verdict) Feedback() string {
	if v.Valid {
		return ""
	}

	var b strings.Builder

	b.WriteString("Validation errors:\n")
	fmt.Fprintf(&b, "- %s\n", v.Summary())

	for _, d := range v.Details {
		fmt.Fprintf(&b, "- %s\n", d)
	}

	if hint, ok := hints[v.Kind]; ok {
		fmt.Fprintf(&b, "\nHint: %s\n", hint)
	}

	b.WriteString("\nBefore emitting, ensure the trigger is step 0 and unique, every step has an id, " +
		"no forbidden keys are used and every reference resolves.\nReturn corrected JSON ONLY.\n")

	return b.String()
}
