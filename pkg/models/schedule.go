package models

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// StartDateLayout is the only accepted startDate form: ISO-8601, UTC, millisecond precision.
const StartDateLayout = "2006-01-02T15:04:05.000Z"

// Cadence is the value of frequencyInterval.id.
type Cadence int

const (
	CadenceDaily   Cadence = 1
	CadenceWeekly  Cadence = 2
	CadenceMonthly Cadence = 3
)

func (c Cadence) String() string {
	switch c {
	case CadenceDaily:
		return "Daily"
	case CadenceWeekly:
		return "Weekly"
	case CadenceMonthly:
		return "Monthly"
	default:
		return "Cadence(" + strconv.Itoa(int(c)) + ")"
	}
}

// Weekly subinterval bits.
const (
	Monday    = 1
	Tuesday   = 2
	Wednesday = 4
	Thursday  = 8
	Friday    = 16
	Saturday  = 32
	Sunday    = 64
)

var (
	// ErrNoCronEquivalent is returned for cadences a single cron expression cannot express.
	ErrNoCronEquivalent = errors.New("schedule has no cron equivalent")

	ErrInvalidSchedule = errors.New("invalid schedule configuration")
)

// Schedule is the cadence descriptor of a Scheduled trigger.
type Schedule struct {
	StartDate            string             `json:"startDate,omitempty"`
	Timezone             string             `json:"timezone,omitempty"`
	Frequency            *int               `json:"frequency,omitempty"`
	FrequencySubinterval *int               `json:"frequencySubinterval,omitempty"`
	FrequencyInterval    *FrequencyInterval `json:"frequencyInterval,omitempty"`
}

// FrequencyInterval selects the cadence. Only specific id/uuid/text triples are valid.
type FrequencyInterval struct {
	UUID  *int   `json:"uuid"`
	ID    *int   `json:"id"`
	Label string `json:"text"`
}

// Cadence returns the selected cadence, or 0 when no interval id is set.
func (s *Schedule) Cadence() Cadence {
	if s == nil || s.FrequencyInterval == nil || s.FrequencyInterval.ID == nil {
		return 0
	}

	return Cadence(*s.FrequencyInterval.ID)
}

// Start parses StartDate.
func (s *Schedule) Start() (time.Time, error) {
	t, err := time.Parse(StartDateLayout, s.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: startDate %q", ErrInvalidSchedule, s.StartDate)
	}

	return t, nil
}

// Location loads the schedule timezone. An empty timezone means UTC.
func (s *Schedule) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q", ErrInvalidSchedule, s.Timezone)
	}

	return loc, nil
}

// CronSpec translates a validated schedule into a five-field cron expression prefixed
// with CRON_TZ. The run time is the start date's wall clock in the schedule timezone.
func (s *Schedule) CronSpec() (string, error) {
	if s == nil {
		return "", ErrInvalidSchedule
	}

	if s.Frequency != nil && *s.Frequency > 1 {
		return "", fmt.Errorf("%w: frequency %d", ErrNoCronEquivalent, *s.Frequency)
	}

	start, err := s.Start()
	if err != nil {
		return "", err
	}

	loc, err := s.Location()
	if err != nil {
		return "", err
	}

	local := start.In(loc)
	prefix := fmt.Sprintf("CRON_TZ=%s %d %d", loc.String(), local.Minute(), local.Hour())

	sub := 0
	if s.FrequencySubinterval != nil {
		sub = *s.FrequencySubinterval
	}

	switch s.Cadence() {
	case CadenceDaily:
		return prefix + " * * *", nil
	case CadenceWeekly:
		days := weekdays(sub)
		if len(days) == 0 {
			return "", fmt.Errorf("%w: empty weekday mask", ErrInvalidSchedule)
		}

		return prefix + " * * " + strings.Join(days, ","), nil
	case CadenceMonthly:
		if sub != 0 {
			return "", fmt.Errorf("%w: monthly subinterval %d", ErrNoCronEquivalent, sub)
		}

		return fmt.Sprintf("%s %d * *", prefix, local.Day()), nil
	default:
		return "", fmt.Errorf("%w: cadence %s", ErrInvalidSchedule, s.Cadence())
	}
}

// NextRuns lists the next n activations at or after max(from, start date).
func (s *Schedule) NextRuns(from time.Time, n int) ([]time.Time, error) {
	spec, err := s.CronSpec()
	if err != nil {
		return nil, err
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}

	start, _ := s.Start()

	t := from
	if start.After(t) {
		t = start.Add(-time.Second)
	}

	runs := make([]time.Time, 0, n)
	for range n {
		t = sched.Next(t)
		if t.IsZero() {
			break
		}

		runs = append(runs, t)
	}

	return runs, nil
}

// weekdays maps the Mon=1 … Sun=64 mask onto cron day-of-week numbers (Sunday=0).
func weekdays(mask int) []string {
	var days []int

	for bit := range 7 {
		if mask&(1<<bit) == 0 {
			continue
		}

		days = append(days, (bit+1)%7)
	}

	slices.Sort(days)

	out := make([]string, len(days))
	for i, d := range days {
		out[i] = strconv.Itoa(d)
	}

	return out
}
