package models

import "encoding/json"

// Clone returns a deep copy of the workflow. Parameter maps and rule values are copied
// recursively so that normalizing the clone never touches the original.
func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}

	return &Workflow{Steps: w.Steps.Clone(), Text: w.Text}
}

func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}

	out := make(Sequence, len(s))
	for i, step := range s {
		out[i] = cloneStep(step)
	}

	return out
}

func cloneStep(step Step) Step {
	switch s := step.(type) {
	case *Trigger:
		c := *s
		c.TriggerType = clonePtr(s.TriggerType)
		c.NotificationType = clonePtr(s.NotificationType)
		c.SkipOffline = clonePtr(s.SkipOffline)
		c.Schedule = s.Schedule.Clone()

		return &c
	case *Action:
		c := *s
		if s.Parameters != nil {
			c.Parameters, _ = cloneValue(s.Parameters).(map[string]any)
		}

		return &c
	case *Condition:
		c := *s
		c.RuleAggregation = clonePtr(s.RuleAggregation)
		c.Positive = s.Positive.Clone()
		c.Negative = s.Negative.Clone()

		if s.Rules != nil {
			c.Rules = make([]Rule, len(s.Rules))
			for i, r := range s.Rules {
				c.Rules[i] = r.clone()
			}
		}

		return &c
	default:
		return step
	}
}

func (r Rule) clone() Rule {
	c := r
	c.Operator = clonePtr(r.Operator)
	c.Value = cloneValue(r.Value)
	c.ScopeID = clonePtr(r.ScopeID)
	c.VariablesType = clonePtr(r.VariablesType)

	if r.ComputerIDs != nil {
		c.ComputerIDs, _ = cloneValue(r.ComputerIDs).([]any)
	}

	return c
}

// Clone returns a deep copy of the schedule, or nil.
func (s *Schedule) Clone() *Schedule {
	if s == nil {
		return nil
	}

	c := *s
	c.Frequency = clonePtr(s.Frequency)
	c.FrequencySubinterval = clonePtr(s.FrequencySubinterval)

	if s.FrequencyInterval != nil {
		fi := *s.FrequencyInterval
		fi.UUID = clonePtr(s.FrequencyInterval.UUID)
		fi.ID = clonePtr(s.FrequencyInterval.ID)
		c.FrequencyInterval = &fi
	}

	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}

	v := *p

	return &v
}

// cloneValue copies the shapes produced by JSON decoding. Scalars, json.Number included,
// are immutable and returned as is.
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}

		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}

		return out
	case json.RawMessage:
		return append(json.RawMessage(nil), val...)
	default:
		return v
	}
}
