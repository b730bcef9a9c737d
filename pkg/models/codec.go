package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMissingSteps    = errors.New("root must contain an array under 'workflowSteps'")
	ErrUnknownStepType = errors.New("unknown workflowStepType")
)

// DecodeError reports a workflow document that cannot be mapped onto the step model.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("decode workflow: %v", e.Err)
	}

	return fmt.Sprintf("decode workflow at %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode parses a workflow document. Numbers are kept as json.Number so that ids and
// parameters keep their wire form.
func Decode(data []byte) (*Workflow, error) {
	var root map[string]json.RawMessage
	if err := decodeJSON(data, &root); err != nil {
		return nil, &DecodeError{Err: err}
	}

	steps, ok := root[FieldSteps]
	if !ok || !bytes.HasPrefix(bytes.TrimSpace(steps), []byte("[")) {
		return nil, &DecodeError{Err: ErrMissingSteps}
	}

	wf := &Workflow{}
	if err := decodeJSON(steps, &wf.Steps); err != nil {
		return nil, prefixDecodeError(FieldSteps, err)
	}

	if text, ok := root["text"]; ok {
		if err := decodeJSON(text, &wf.Text); err != nil {
			return nil, prefixDecodeError("text", err)
		}
	}

	return wf, nil
}

// Encode renders the workflow with two-space indentation.
func Encode(wf *Workflow) ([]byte, error) {
	return json.MarshalIndent(wf, "", "  ")
}

func decodeJSON(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	return dec.Decode(v)
}

func prefixDecodeError(prefix string, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return &DecodeError{Path: prefix + de.Path, Err: de.Err}
	}

	return &DecodeError{Path: prefix, Err: err}
}

func (s *Sequence) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := decodeJSON(b, &raw); err != nil {
		return err
	}

	seq := make(Sequence, 0, len(raw))

	for i, item := range raw {
		step, err := decodeStep(item)
		if err != nil {
			return prefixDecodeError(fmt.Sprintf("[%d]", i), err)
		}

		seq = append(seq, step)
	}

	*s = seq

	return nil
}

func decodeStep(b []byte) (Step, error) {
	var header struct {
		Type *StepType `json:"workflowStepType"`
	}

	if err := decodeJSON(b, &header); err != nil {
		return nil, err
	}

	if header.Type == nil {
		return nil, fmt.Errorf("%w: missing", ErrUnknownStepType)
	}

	var step Step

	switch *header.Type {
	case StepTypeAction:
		step = &Action{}
	case StepTypeTrigger:
		step = &Trigger{}
	case StepTypeCondition:
		step = &Condition{}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownStepType, int(*header.Type))
	}

	if err := decodeJSON(b, step); err != nil {
		return nil, err
	}

	return step, nil
}

func (c *Condition) UnmarshalJSON(b []byte) error {
	type alias Condition

	var raw struct {
		*alias

		Positive json.RawMessage `json:"positiveOutcome"`
		Negative json.RawMessage `json:"negativeOutcome"`
	}

	raw.alias = (*alias)(c)

	if err := decodeJSON(b, &raw); err != nil {
		return err
	}

	c.Positive, c.Negative = nil, nil

	if len(raw.Positive) > 0 {
		if err := decodeJSON(raw.Positive, &c.Positive); err != nil {
			return prefixDecodeError("."+FieldPositive, err)
		}
	}

	if len(raw.Negative) > 0 {
		if err := decodeJSON(raw.Negative, &c.Negative); err != nil {
			return prefixDecodeError("."+FieldNegative, err)
		}
	}

	return nil
}

func (t *Trigger) MarshalJSON() ([]byte, error) {
	type alias Trigger

	return json.Marshal(struct {
		StepType StepType `json:"workflowStepType"`
		*alias
	}{StepTypeTrigger, (*alias)(t)})
}

func (a *Action) MarshalJSON() ([]byte, error) {
	type alias Action

	return json.Marshal(struct {
		StepType StepType `json:"workflowStepType"`
		*alias
	}{StepTypeAction, (*alias)(a)})
}

func (c *Condition) MarshalJSON() ([]byte, error) {
	type alias Condition

	out := struct {
		StepType StepType `json:"workflowStepType"`
		*alias

		Positive Sequence `json:"positiveOutcome"`
		Negative Sequence `json:"negativeOutcome"`
	}{StepType: StepTypeCondition, alias: (*alias)(c), Positive: c.Positive, Negative: c.Negative}

	if out.Positive == nil {
		out.Positive = Sequence{}
	}

	if out.Negative == nil {
		out.Negative = Sequence{}
	}

	return json.Marshal(out)
}
