package models

import "fmt"

// VariableType is the declared type code of a produced variable.
type VariableType int

const (
	VariableBoolean  VariableType = 0
	VariableNumber   VariableType = 1
	VariableText     VariableType = 2
	VariableDateTime VariableType = 3
)

func (t VariableType) Valid() bool {
	return t >= VariableBoolean && t <= VariableDateTime
}

func (t VariableType) String() string {
	switch t {
	case VariableBoolean:
		return "Boolean"
	case VariableNumber:
		return "Number"
	case VariableText:
		return "Text"
	case VariableDateTime:
		return "DateTime"
	default:
		return fmt.Sprintf("VariableType(%d)", int(t))
	}
}

// VariableRef resolves a "#<variableId>" placeholder to a variable produced earlier on the path.
type VariableRef struct {
	VariableID       ID            `mapstructure:"variableId" json:"variableId,omitzero"`
	PropertyID       string        `mapstructure:"propertyId" json:"propertyId,omitempty"`
	WorkflowStepID   ID            `mapstructure:"workflowStepId" json:"workflowStepId,omitzero"`
	SourceID         string        `mapstructure:"sourceId" json:"sourceId"`
	DisplayName      string        `mapstructure:"displayName" json:"displayName,omitempty"`
	Type             *VariableType `mapstructure:"type" json:"type"`
	WorkflowStepName string        `mapstructure:"workflowStepName" json:"workflowStepName,omitempty"`
}
