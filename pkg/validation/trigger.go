package validation

import (
	"fmt"

	"github.com/dukex/wflguard/pkg/catalog"
	"github.com/dukex/wflguard/pkg/models"
)

// CheckTrigger validates the kind-specific fields of the trigger found at path.
// It does not normalize the schedule.
func CheckTrigger(path models.Path, t *models.Trigger) error {
	if t.TriggerType == nil {
		return violation(KindStructural, path, t, "triggerType is required")
	}

	switch t.Kind() {
	case models.TriggerKindNotification:
		if t.NotificationType == nil {
			return violation(KindAllowList, path, t, "notificationType required for notification trigger")
		}

		if !catalog.IsNotificationType(*t.NotificationType) {
			return violation(KindAllowList, path, t, fmt.Sprintf("notificationType %q not allowed", *t.NotificationType))
		}

		if t.TriggerSubType != *t.NotificationType {
			return violation(KindStructural, path, t, "triggerSubType must equal notificationType")
		}
	case models.TriggerKindExternal:
		if t.HasNotificationType() {
			return violation(KindStructural, path, t, "External trigger must NOT specify notificationType")
		}

		if t.TriggerSubType == "" {
			return violation(KindStructural, path, t, "External trigger must have non-empty triggerSubType")
		}
	case models.TriggerKindManual:
		if t.HasNotificationType() {
			return violation(KindStructural, path, t, "Manual trigger must NOT specify notificationType")
		}
	case models.TriggerKindScheduled:
		if t.Schedule == nil {
			return violation(KindScheduleShape, path.Field("schedule"), t, "Scheduled trigger requires a schedule")
		}

		if err := CheckScheduleShape(path.Field("schedule"), t.Schedule); err != nil {
			err.StepID = t.StepID().String()

			return err
		}
	default:
		if *t.TriggerType == models.TriggerTypeDevice {
			return violation(KindStructural, path, t, fmt.Sprintf("unknown triggerSubType %q for triggerType=2", t.TriggerSubType))
		}

		return violation(KindStructural, path, t, fmt.Sprintf("unknown triggerType %d", *t.TriggerType))
	}

	return nil
}
