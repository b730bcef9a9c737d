package models

import (
	"fmt"
	"iter"
)

// Path locates a step inside the tree, e.g. "workflowSteps[2].positiveOutcome[0]".
type Path string

// At appends an indexed field. The empty path only accepts the root field.
func (p Path) At(field string, i int) Path {
	if p == "" {
		return Path(fmt.Sprintf("%s[%d]", field, i))
	}

	return Path(fmt.Sprintf("%s.%s[%d]", p, field, i))
}

// Field appends a plain field name.
func (p Path) Field(name string) Path {
	if p == "" {
		return Path(name)
	}

	return Path(string(p) + "." + name)
}

func (p Path) String() string {
	return string(p)
}

// Walk visits every step depth-first in document order, descending into the positive
// branch of a condition before its negative branch. Every call starts a fresh traversal.
func Walk(seq Sequence) iter.Seq2[Path, Step] {
	return func(yield func(Path, Step) bool) {
		walkSequence("", FieldSteps, seq, yield)
	}
}

// WalkFrom is Walk for a sequence that is not the workflow root.
func WalkFrom(parent Path, field string, seq Sequence) iter.Seq2[Path, Step] {
	return func(yield func(Path, Step) bool) {
		walkSequence(parent, field, seq, yield)
	}
}

func walkSequence(parent Path, field string, seq Sequence, yield func(Path, Step) bool) bool {
	for i, step := range seq {
		path := parent.At(field, i)
		if !yield(path, step) {
			return false
		}

		if c, ok := step.(*Condition); ok {
			if !walkSequence(path, FieldPositive, c.Positive, yield) {
				return false
			}

			if !walkSequence(path, FieldNegative, c.Negative, yield) {
				return false
			}
		}
	}

	return true
}
