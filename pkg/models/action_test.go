package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeAction(t *testing.T, raw string) *Action {
	t.Helper()

	var a Action
	require.NoError(t, decodeJSON([]byte(raw), &a))

	return &a
}

func TestAction_Views(t *testing.T) {
	t.Run("capture", func(t *testing.T) {
		a := decodeAction(t, `{"actionType": 36, "parameters": {"captureOutput": true, "outputVariable": "Result", "script": "Get-Date"}}`)

		p, err := a.CaptureParams()
		require.NoError(t, err)
		assert.True(t, p.Captures())
		assert.Equal(t, "Result", p.OutputVariable)
	})

	t.Run("device value", func(t *testing.T) {
		a := decodeAction(t, `{"actionType": 37, "parameters": {"variableName": "Uptime", "variableType": 11}}`)

		p, err := a.DeviceValueParams()
		require.NoError(t, err)
		assert.Equal(t, "Uptime", p.VariableName)
		require.NotNil(t, p.VariableType)
		assert.Equal(t, 11, *p.VariableType)
	})

	t.Run("reboot", func(t *testing.T) {
		a := decodeAction(t, `{"actionType": 26, "parameters": {"type": 1, "minutes": 30}}`)

		p, err := a.RebootParams()
		require.NoError(t, err)
		require.NotNil(t, p.Mode)
		assert.Equal(t, RebootModeDelayed, *p.Mode)
		assert.Equal(t, json.Number("30"), p.Minutes)
	})

	t.Run("email", func(t *testing.T) {
		a := decodeAction(t, `{"actionType": 9, "parameters": {
			"recipients": ["ops@example.com"],
			"variableRecipients": [{"variableId": "654321", "sourceId": "Owner", "type": 2, "workflowStepId": 4}]
		}}`)

		p, err := a.EmailParams()
		require.NoError(t, err)
		assert.Equal(t, []any{"ops@example.com"}, p.Recipients)
		require.Len(t, p.VariableRecipients, 1)

		ref := p.VariableRecipients[0]
		assert.Equal(t, "Owner", ref.SourceID)
		assert.Equal(t, "654321", ref.VariableID.Raw())
		assert.Equal(t, json.Number("4"), ref.WorkflowStepID.Raw())
		require.NotNil(t, ref.Type)
		assert.Equal(t, VariableText, *ref.Type)
	})

	t.Run("variables", func(t *testing.T) {
		a := decodeAction(t, `{"actionType": 22, "parameters": {"message": "#123456", "variables": [{"variableId": "123456", "sourceId": "X", "type": 0}]}}`)

		refs, err := a.Variables()
		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.True(t, refs[0].VariableID.IsVariableID())
		assert.True(t, refs[0].WorkflowStepID.IsZero())
		assert.Equal(t, VariableBoolean, *refs[0].Type)
	})

	t.Run("malformed variables", func(t *testing.T) {
		a := decodeAction(t, `{"actionType": 22, "parameters": {"variables": "not-a-list"}}`)

		_, err := a.Variables()
		require.Error(t, err)
	})

	t.Run("no parameters", func(t *testing.T) {
		a := &Action{ActionType: ActionLog}

		refs, err := a.Variables()
		require.NoError(t, err)
		assert.Empty(t, refs)
	})
}

func TestPlaceholders(t *testing.T) {
	params := map[string]any{
		"subject": "Disk #123456 on #1234567",
		"nested": map[string]any{
			"list": []any{"#123456", "#12345", json.Number("1"), map[string]any{"deep": "x#999999y"}},
		},
		"plain": "no placeholders",
	}

	assert.Equal(t, []string{"123456", "1234567", "999999"}, Placeholders(params))
	assert.Empty(t, Placeholders(map[string]any{}))
	assert.Empty(t, Placeholders(nil))
}

func TestAction_VariablesNullIDs(t *testing.T) {
	a := decodeAction(t, `{"workflowStepType": 0, "id": 2, "actionType": 22, "parameters": {"variables": [
		{"variableId": "123456", "sourceId": "X", "type": 2, "workflowStepId": null},
		{"variableId": null, "sourceId": "Y", "type": 2},
		{"variableId": "654321", "sourceId": "Z", "type": 2}
	]}}`)

	refs, err := a.Variables()
	require.NoError(t, err)
	require.Len(t, refs, 3)

	assert.False(t, refs[0].WorkflowStepID.IsZero())
	assert.Nil(t, refs[0].WorkflowStepID.Raw())
	assert.Equal(t, "123456", refs[0].VariableID.String())

	assert.False(t, refs[1].VariableID.IsZero())
	assert.Nil(t, refs[1].VariableID.Raw())

	assert.True(t, refs[2].WorkflowStepID.IsZero())
}

func TestCaptureParams_Captures(t *testing.T) {
	tests := []struct {
		name   string
		params string
		want   bool
	}{
		{name: "true", params: `{"captureOutput": true}`, want: true},
		{name: "false", params: `{"captureOutput": false}`},
		{name: "missing", params: `{}`},
		{name: "null", params: `{"captureOutput": null}`},
		{name: "text", params: `{"captureOutput": "true"}`, want: true},
		{name: "empty text", params: `{"captureOutput": ""}`},
		{name: "one", params: `{"captureOutput": 1}`, want: true},
		{name: "zero", params: `{"captureOutput": 0}`},
		{name: "empty list", params: `{"captureOutput": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := decodeAction(t, `{"actionType": 27, "parameters": `+tt.params+`}`)

			p, err := a.CaptureParams()
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Captures())
		})
	}
}
