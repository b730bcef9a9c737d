package validation

import (
	"fmt"
	"regexp"
	"time"

	"github.com/dukex/wflguard/pkg/catalog"
	"github.com/dukex/wflguard/pkg/models"
)

// DefaultTimezone fills a schedule without timezone.
const DefaultTimezone = "UTC"

var startDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`)

// CheckScheduleShape validates the frequencyInterval / frequencySubinterval combination.
func CheckScheduleShape(path models.Path, s *models.Schedule) *Violation {
	fi := s.FrequencyInterval
	if fi == nil || fi.ID == nil {
		return violation(KindScheduleShape, path, nil, "schedule frequencyInterval.id is required")
	}

	shape, ok := catalog.Cadence(models.Cadence(*fi.ID))
	if !ok {
		return violation(KindScheduleShape, path, nil, fmt.Sprintf("unknown schedule frequencyInterval.id %d", *fi.ID))
	}

	if fi.UUID == nil || *fi.UUID != shape.UUID || fi.Label != shape.Label {
		return violation(KindScheduleShape, path, nil, fmt.Sprintf(
			"%s schedule requires uuid=%d,id=%d,text=%s", shape.Label, shape.UUID, int(shape.Cadence), shape.Label))
	}

	if s.FrequencySubinterval == nil || !shape.AllowsSubinterval(*s.FrequencySubinterval) {
		return violation(KindScheduleShape, path, nil, subintervalMessage(shape))
	}

	return nil
}

func subintervalMessage(shape catalog.CadenceShape) string {
	switch shape.Cadence {
	case models.CadenceDaily:
		return "Daily frequencySubinterval must be 0"
	case models.CadenceWeekly:
		return "Weekly frequencySubinterval must be 1..127 (bitmask of days)"
	case models.CadenceMonthly:
		return "Monthly frequencySubinterval must be 0, 128 or 256"
	default:
		return "invalid frequencySubinterval"
	}
}

// HasValidStartDate reports whether startDate is exactly YYYY-MM-DDTHH:MM:SS.mmmZ.
func HasValidStartDate(s *models.Schedule) bool {
	return startDatePattern.MatchString(s.StartDate)
}

// NormalizeSchedule fills a missing or malformed startDate with now (UTC, millisecond
// precision) and an empty timezone with UTC. It reports whether anything changed.
// Normalizing a normalized schedule is a no-op.
func NormalizeSchedule(s *models.Schedule, now time.Time) bool {
	if s == nil {
		return false
	}

	changed := false

	if !HasValidStartDate(s) {
		s.StartDate = now.UTC().Format(models.StartDateLayout)
		changed = true
	}

	if s.Timezone == "" {
		s.Timezone = DefaultTimezone
		changed = true
	}

	return changed
}

// Normalize applies NormalizeSchedule to the workflow trigger when it is Scheduled.
// The workflow is mutated in place.
func Normalize(wf *models.Workflow, now time.Time) bool {
	t, ok := wf.Trigger()
	if !ok || t.Kind() != models.TriggerKindScheduled {
		return false
	}

	return NormalizeSchedule(t.Schedule, now)
}
