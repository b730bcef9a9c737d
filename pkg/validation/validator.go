// Package validation decides whether a workflow tree is acceptable. Checks run in a fixed
// order and the first violation found is returned as a *Violation.
package validation

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukex/wflguard/pkg/log"
	"github.com/dukex/wflguard/pkg/models"
)

// Stage names one step of the validation pipeline.
type Stage string

const (
	StageStructure     Stage = "structure"
	StageTrigger       Stage = "trigger"
	StageNormalize     Stage = "normalize"
	StageEndPlacement  Stage = "end_placement"
	StageActions       Stage = "actions"
	StageRules         Stage = "rules"
	StageIdentifiers   Stage = "identifiers"
	StageVariableOrder Stage = "variable_order"
	StageDataflow      Stage = "dataflow"
)

// Stages lists the pipeline in execution order.
func Stages() []Stage {
	return []Stage{
		StageStructure, StageTrigger, StageNormalize, StageEndPlacement, StageActions,
		StageRules, StageIdentifiers, StageVariableOrder, StageDataflow,
	}
}

type Option func(*Validator)

// WithClock sets the time source used to fill missing start dates.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// WithStrictDates rejects a missing or malformed startDate instead of replacing it.
func WithStrictDates() Option {
	return func(v *Validator) {
		v.strictDates = true
	}
}

// Validator holds immutable configuration only and is safe for concurrent use on distinct trees.
type Validator struct {
	now         func() time.Time
	logger      *slog.Logger
	strictDates bool
}

func New(opts ...Option) *Validator {
	v := &Validator{
		now:    time.Now,
		logger: log.WithModule("validation"),
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Validate checks wf and normalizes its schedule in place. It returns nil or a *Violation.
func (v *Validator) Validate(ctx context.Context, wf *models.Workflow) error {
	if wf == nil {
		return &Violation{Kind: KindStructural, Stage: StageStructure, Path: models.FieldSteps, Message: "workflow is empty"}
	}

	for _, stage := range Stages() {
		v.logger.DebugContext(ctx, "running validation stage", "stage", stage)

		if err := v.run(ctx, stage, wf); err != nil {
			if rejected, ok := AsViolation(err); ok {
				rejected.Stage = stage
			}

			v.logger.DebugContext(ctx, "workflow rejected", "stage", stage, "error", err)

			return err
		}
	}

	return nil
}

// Check validates a deep copy of wf, leaving wf untouched, and returns the normalized copy.
func (v *Validator) Check(ctx context.Context, wf *models.Workflow) (*models.Workflow, error) {
	clone := wf.Clone()

	if err := v.Validate(ctx, clone); err != nil {
		return nil, err
	}

	return clone, nil
}

func (v *Validator) run(ctx context.Context, stage Stage, wf *models.Workflow) error {
	switch stage {
	case StageStructure:
		return CheckStructure(wf.Steps)
	case StageTrigger:
		t, _ := wf.Trigger()

		return CheckTrigger(models.Path("").At(models.FieldSteps, 0), t)
	case StageNormalize:
		return v.normalize(ctx, wf)
	case StageEndPlacement:
		return CheckEndPlacement(wf.Steps)
	case StageActions:
		return CheckActions(wf.Steps)
	case StageRules:
		return CheckRules(wf.Steps)
	case StageIdentifiers:
		return CheckIdentifiers(wf.Steps)
	case StageVariableOrder:
		return CheckVariableOrder(wf.Steps)
	case StageDataflow:
		return CheckDataflow(wf.Steps)
	default:
		return nil
	}
}

func (v *Validator) normalize(ctx context.Context, wf *models.Workflow) error {
	t, _ := wf.Trigger()
	if t.Kind() != models.TriggerKindScheduled {
		return nil
	}

	if v.strictDates && !HasValidStartDate(t.Schedule) {
		return violation(KindScheduleShape, models.Path("").At(models.FieldSteps, 0).Field("schedule"), t,
			"schedule startDate must match YYYY-MM-DDTHH:MM:SS.mmmZ")
	}

	if Normalize(wf, v.now()) {
		v.logger.DebugContext(ctx, "schedule normalized", "startDate", t.Schedule.StartDate, "timezone", t.Schedule.Timezone)
	}

	return nil
}
