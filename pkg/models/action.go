package models

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"regexp"
	"slices"

	"github.com/mitchellh/mapstructure"
)

// ActionType is the numeric "actionType" of an action step.
type ActionType int

const (
	ActionStopService        ActionType = 1
	ActionStartService       ActionType = 2
	ActionSendEmail          ActionType = 9
	ActionRestartService     ActionType = 14
	ActionEndWorkflow        ActionType = 15
	ActionCreatePSATicket    ActionType = 19
	ActionUpdatePSATicket    ActionType = 20
	ActionGetURL             ActionType = 21
	ActionLog                ActionType = 22
	ActionSendMessage        ActionType = 23
	ActionExecuteFile        ActionType = 24
	ActionCloseApplication   ActionType = 25
	ActionRebootDevice       ActionType = 26
	ActionExecuteShell       ActionType = 27
	ActionSetInRegistry      ActionType = 31
	ActionDeleteFromRegistry ActionType = 32
	ActionUnzipFile          ActionType = 33
	ActionDeleteFile         ActionType = 34
	ActionLogOffCurrentUser  ActionType = 35
	ActionExecutePowershell  ActionType = 36
	ActionGetDeviceValue     ActionType = 37
	ActionAPICall            ActionType = 38
)

// RebootModeDelayed selects a reboot after RebootParams.Minutes.
const RebootModeDelayed = 1

// Action is a workflow step that does something on the device or elsewhere.
// Parameters stay free-form; typed views are decoded on demand.
type Action struct {
	ID          ID             `json:"id,omitzero"`
	DisplayName string         `json:"displayName,omitempty"`
	ActionType  ActionType     `json:"actionType"`
	Parameters  map[string]any `json:"parameters"`
}

func (a *Action) Type() StepType { return StepTypeAction }
func (a *Action) StepID() ID     { return a.ID }
func (a *Action) Name() string   { return a.DisplayName }
func (a *Action) isStep()        {}

// CaptureParams is the output-capturing part of Execute File/Shell/Powershell parameters.
type CaptureParams struct {
	CaptureOutput  any    `mapstructure:"captureOutput"`
	OutputVariable string `mapstructure:"outputVariable"`
}

// Captures reports whether captureOutput is set to a truthy value: true, a non-zero number,
// or a non-empty string, list or object.
func (p CaptureParams) Captures() bool {
	switch v := p.CaptureOutput.(type) {
	case nil:
		return false
	case bool:
		return v
	case json.Number:
		f, err := v.Float64()

		return err != nil || f != 0
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

// DeviceValueParams is the variable-producing part of Get Device Value parameters.
type DeviceValueParams struct {
	VariableName string `mapstructure:"variableName"`
	VariableType *int   `mapstructure:"variableType"`
}

// RebootParams are the Reboot Device parameters.
type RebootParams struct {
	Mode     *int `mapstructure:"type"`
	Minutes  any  `mapstructure:"minutes"`
	DateTime any  `mapstructure:"dateTime"`
}

// EmailParams is the addressing part of Send Email parameters.
type EmailParams struct {
	Recipients         []any         `mapstructure:"recipients"`
	VariableRecipients []VariableRef `mapstructure:"variableRecipients"`
}

// CaptureParams decodes the capture settings of the action parameters.
func (a *Action) CaptureParams() (CaptureParams, error) {
	var p CaptureParams

	return p, a.decodeParams(&p)
}

// DeviceValueParams decodes the Get Device Value settings of the action parameters.
func (a *Action) DeviceValueParams() (DeviceValueParams, error) {
	var p DeviceValueParams

	return p, a.decodeParams(&p)
}

// RebootParams decodes the Reboot Device settings of the action parameters.
func (a *Action) RebootParams() (RebootParams, error) {
	var p RebootParams

	return p, a.decodeParams(&p)
}

// EmailParams decodes the Send Email addressing of the action parameters.
func (a *Action) EmailParams() (EmailParams, error) {
	var p EmailParams

	return p, a.decodeParams(&p)
}

// Variables decodes the variable references listed under parameters.variables.
func (a *Action) Variables() ([]VariableRef, error) {
	var p struct {
		Variables []VariableRef `mapstructure:"variables"`
	}

	if err := a.decodeParams(&p); err != nil {
		return nil, err
	}

	return p.Variables, nil
}

func (a *Action) decodeParams(out any) error {
	if a.Parameters == nil {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(nullIDHook, idDecodeHook),
		Result:     out,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(a.Parameters); err != nil {
		return fmt.Errorf("action %s parameters: %w", a.ID, err)
	}

	return nil
}

var (
	idType          = reflect.TypeOf(ID{})
	variableRefType = reflect.TypeOf(VariableRef{})
)

func idDecodeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != idType {
		return data, nil
	}

	if id, ok := data.(ID); ok {
		return id, nil
	}

	return NewID(data), nil
}

// nullIDHook keeps a present but null id key distinguishable from a missing one.
// mapstructure skips nil values before any hook sees them.
func nullIDHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	m, ok := data.(map[string]any)
	if !ok || to != variableRefType {
		return data, nil
	}

	var out map[string]any

	for _, key := range []string{"variableId", "workflowStepId"} {
		if v, present := m[key]; present && v == nil {
			if out == nil {
				out = maps.Clone(m)
			}

			out[key] = NewID(nil)
		}
	}

	if out == nil {
		return data, nil
	}

	return out, nil
}

var placeholderPattern = regexp.MustCompile(`#([0-9]{6,})`)

// Placeholders returns the sorted, de-duplicated variable ids referenced as "#<digits>"
// anywhere inside v, including nested maps and lists.
func Placeholders(v any) []string {
	seen := make(map[string]struct{})
	collectPlaceholders(v, seen)

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}

	slices.Sort(out)

	return out
}

func collectPlaceholders(v any, seen map[string]struct{}) {
	switch val := v.(type) {
	case string:
		for _, m := range placeholderPattern.FindAllStringSubmatch(val, -1) {
			seen[m[1]] = struct{}{}
		}
	case []any:
		for _, item := range val {
			collectPlaceholders(item, seen)
		}
	case []string:
		for _, item := range val {
			collectPlaceholders(item, seen)
		}
	case map[string]any:
		for _, item := range val {
			collectPlaceholders(item, seen)
		}
	case map[string]string:
		for _, item := range val {
			collectPlaceholders(item, seen)
		}
	}
}
