package models

// Wire values of "triggerType".
const (
	TriggerTypeNotification = 0
	TriggerTypeExternal     = 1
	TriggerTypeDevice       = 2 // Manual or Scheduled, selected by triggerSubType
)

// Sub types used with TriggerTypeDevice.
const (
	TriggerSubTypeManual    = "Manual"
	TriggerSubTypeScheduled = "Scheduled"
)

// TriggerKind is the semantic kind derived from triggerType and triggerSubType.
type TriggerKind string

const (
	TriggerKindUnknown      TriggerKind = ""
	TriggerKindNotification TriggerKind = "Notification"
	TriggerKindExternal     TriggerKind = "External"
	TriggerKindManual       TriggerKind = "Manual"
	TriggerKindScheduled    TriggerKind = "Scheduled"
)

// Trigger is the single entry point of a workflow.
type Trigger struct {
	ID               ID        `json:"id,omitzero"`
	DisplayName      string    `json:"displayName,omitempty"`
	TriggerType      *int      `json:"triggerType"`
	TriggerSubType   string    `json:"triggerSubType,omitempty"`
	NotificationType *string   `json:"notificationType,omitempty"`
	SkipOffline      *bool     `json:"skipOffline,omitempty"`
	Schedule         *Schedule `json:"schedule,omitempty"`
}

func (t *Trigger) Type() StepType { return StepTypeTrigger }
func (t *Trigger) StepID() ID     { return t.ID }
func (t *Trigger) Name() string   { return t.DisplayName }
func (t *Trigger) isStep()        {}

// Kind resolves the trigger kind. Unknown combinations yield TriggerKindUnknown.
func (t *Trigger) Kind() TriggerKind {
	if t.TriggerType == nil {
		return TriggerKindUnknown
	}

	switch *t.TriggerType {
	case TriggerTypeNotification:
		return TriggerKindNotification
	case TriggerTypeExternal:
		return TriggerKindExternal
	case TriggerTypeDevice:
		switch t.TriggerSubType {
		case TriggerSubTypeManual:
			return TriggerKindManual
		case TriggerSubTypeScheduled:
			return TriggerKindScheduled
		}
	}

	return TriggerKindUnknown
}

// HasNotificationType reports whether a non-empty notificationType is set.
func (t *Trigger) HasNotificationType() bool {
	return t.NotificationType != nil && *t.NotificationType != ""
}
