package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func newSchedule(cadence Cadence, uuid, sub int) *Schedule {
	return &Schedule{
		StartDate:            "2025-01-06T08:30:00.000Z",
		Timezone:             "UTC",
		Frequency:            intPtr(1),
		FrequencySubinterval: intPtr(sub),
		FrequencyInterval:    &FrequencyInterval{UUID: intPtr(uuid), ID: intPtr(int(cadence)), Label: cadence.String()},
	}
}

func TestSchedule_CronSpec(t *testing.T) {
	tests := []struct {
		name     string
		schedule *Schedule
		want     string
		wantErr  error
	}{
		{name: "daily", schedule: newSchedule(CadenceDaily, 1, 0), want: "CRON_TZ=UTC 30 8 * * *"},
		{name: "weekly monday and wednesday", schedule: newSchedule(CadenceWeekly, 4, Monday|Wednesday), want: "CRON_TZ=UTC 30 8 * * 1,3"},
		{name: "weekly sunday sorts first", schedule: newSchedule(CadenceWeekly, 4, Sunday|Friday), want: "CRON_TZ=UTC 30 8 * * 0,5"},
		{name: "monthly on start day", schedule: newSchedule(CadenceMonthly, 5, 0), want: "CRON_TZ=UTC 30 8 6 * *"},
		{name: "monthly relative day", schedule: newSchedule(CadenceMonthly, 5, 128), wantErr: ErrNoCronEquivalent},
		{
			name: "every other day",
			schedule: func() *Schedule {
				s := newSchedule(CadenceDaily, 1, 0)
				s.Frequency = intPtr(2)

				return s
			}(),
			wantErr: ErrNoCronEquivalent,
		},
		{
			name: "bad start date",
			schedule: func() *Schedule {
				s := newSchedule(CadenceDaily, 1, 0)
				s.StartDate = "tomorrow"

				return s
			}(),
			wantErr: ErrInvalidSchedule,
		},
		{name: "unknown cadence", schedule: newSchedule(Cadence(9), 1, 0), wantErr: ErrInvalidSchedule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.schedule.CronSpec()
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSchedule_NextRuns(t *testing.T) {
	s := newSchedule(CadenceWeekly, 4, Monday|Wednesday)
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	runs, err := s.NextRuns(from, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	got := make([]string, len(runs))
	for i, r := range runs {
		got[i] = r.UTC().Format(time.RFC3339)
	}

	assert.Equal(t, []string{
		"2025-01-06T08:30:00Z",
		"2025-01-08T08:30:00Z",
		"2025-01-13T08:30:00Z",
	}, got)
}

func TestSchedule_NextRunsAfterStart(t *testing.T) {
	s := newSchedule(CadenceDaily, 1, 0)
	from := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

	runs, err := s.NextRuns(from, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "2025-02-02T08:30:00Z", runs[0].UTC().Format(time.RFC3339))
	assert.Equal(t, "2025-02-03T08:30:00Z", runs[1].UTC().Format(time.RFC3339))
}

func TestSchedule_Clone(t *testing.T) {
	s := newSchedule(CadenceWeekly, 4, 5)
	c := s.Clone()

	*c.FrequencySubinterval = 9
	*c.FrequencyInterval.ID = 3
	c.Timezone = "Europe/Paris"

	assert.Equal(t, 5, *s.FrequencySubinterval)
	assert.Equal(t, CadenceWeekly, s.Cadence())
	assert.Equal(t, "UTC", s.Timezone)
}
