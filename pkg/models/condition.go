package models

// Rule property kinds.
const (
	PropertyOSType   = "oSType"
	PropertyScope    = "scope"
	PropertyVariable = "Variable"
)

// Condition branches the workflow. Positive and Negative never merge back.
type Condition struct {
	ID              ID       `json:"id,omitzero"`
	DisplayName     string   `json:"displayName,omitempty"`
	RuleAggregation *int     `json:"ruleAggregation,omitempty"`
	Rules           []Rule   `json:"rules"`
	Positive        Sequence `json:"positiveOutcome"`
	Negative        Sequence `json:"negativeOutcome"`
}

func (c *Condition) Type() StepType { return StepTypeCondition }
func (c *Condition) StepID() ID     { return c.ID }
func (c *Condition) Name() string   { return c.DisplayName }
func (c *Condition) isStep()        {}

// Rule is a single predicate of a condition. Which payload fields matter depends on PropertyID.
type Rule struct {
	PropertyID     string `json:"propertyId"`
	Operator       *int   `json:"operator"`
	Value          any    `json:"value,omitempty"`
	ScopeName      string `json:"scopeName,omitempty"`
	ScopeID        *int   `json:"scopeId,omitempty"`
	ComputerIDs    []any  `json:"computerIds,omitempty"`
	VariablesID    string `json:"variablesId,omitempty"`
	VariablesType  *int   `json:"variablesType,omitempty"`
	WorkflowStepID ID     `json:"workflowStepId,omitzero"`
}
