package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentIsJSON(t *testing.T) {
	var v map[string]any
	require.NoError(t, json.Unmarshal(Document(), &v))
	assert.Equal(t, "object", v["type"])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		valid bool
	}{
		{
			name: "minimal manual workflow",
			doc: `{"workflowSteps": [
				{"workflowStepType": 1, "id": 1, "triggerType": 2, "triggerSubType": "Manual"},
				{"workflowStepType": 0, "id": "2", "actionType": 22, "parameters": {"message": "hi"}}
			]}`,
			valid: true,
		},
		{
			name: "nested condition",
			doc: `{"workflowSteps": [
				{"workflowStepType": 1, "triggerType": 2, "triggerSubType": "Manual"},
				{"workflowStepType": 2, "ruleAggregation": 0, "rules": [{"propertyId": "oSType", "operator": 2, "value": 1}],
				 "positiveOutcome": [{"workflowStepType": 0, "actionType": 35, "parameters": null}],
				 "negativeOutcome": []}
			]}`,
			valid: true,
		},
		{name: "missing root key", doc: `{"Steps": []}`},
		{name: "unknown step type", doc: `{"workflowSteps": [{"workflowStepType": 3}]}`},
		{name: "action without actionType", doc: `{"workflowSteps": [{"workflowStepType": 0}]}`},
		{name: "id is boolean", doc: `{"workflowSteps": [{"workflowStepType": 0, "id": true, "actionType": 22}]}`},
		{
			name: "condition without branches",
			doc:  `{"workflowSteps": [{"workflowStepType": 2, "rules": []}]}`,
		},
		{
			name: "operator as string inside a branch",
			doc: `{"workflowSteps": [{"workflowStepType": 2, "rules": [], "negativeOutcome": [],
				"positiveOutcome": [{"workflowStepType": 2, "rules": [{"propertyId": "scope", "operator": "2"}], "positiveOutcome": [], "negativeOutcome": []}]}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate([]byte(tt.doc))
			if tt.valid {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSchemaViolation)

			var schemaErr *Error
			require.True(t, errors.As(err, &schemaErr))
			assert.NotEmpty(t, schemaErr.Details)
		})
	}
}

func TestValidate_NotJSON(t *testing.T) {
	err := Validate([]byte(`{"workflowSteps": [`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaViolation)
}
