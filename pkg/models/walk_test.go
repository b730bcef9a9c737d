package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalk_Order(t *testing.T) {
	wf, err := Decode([]byte(sampleWorkflow))
	require.NoError(t, err)

	var (
		paths []string
		ids   []string
	)

	for path, step := range Walk(wf.Steps) {
		paths = append(paths, path.String())
		ids = append(ids, step.StepID().String())
	}

	assert.Equal(t, []string{
		"workflowSteps[0]",
		"workflowSteps[1]",
		"workflowSteps[2]",
		"workflowSteps[2].positiveOutcome[0]",
		"workflowSteps[2].negativeOutcome[0]",
	}, paths)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids)
}

func TestWalk_RestartableAndStoppable(t *testing.T) {
	wf, err := Decode([]byte(sampleWorkflow))
	require.NoError(t, err)

	walk := Walk(wf.Steps)

	count := func() int {
		n := 0
		for range walk {
			n++
		}

		return n
	}

	assert.Equal(t, 5, count())
	assert.Equal(t, 5, count())

	seen := 0

	for _, step := range walk {
		seen++

		if step.Type() == StepTypeCondition {
			break
		}
	}

	assert.Equal(t, 3, seen)
}

func TestPath(t *testing.T) {
	var root Path

	p := root.At(FieldSteps, 2).At(FieldPositive, 0)
	assert.Equal(t, Path("workflowSteps[2].positiveOutcome[0]"), p)
	assert.Equal(t, Path("workflowSteps[2].positiveOutcome[0].rules[1]"), p.At("rules", 1))
	assert.Equal(t, Path("workflowSteps[0].schedule"), root.At(FieldSteps, 0).Field("schedule"))
	assert.Equal(t, Path("schedule"), root.Field("schedule"))
}
