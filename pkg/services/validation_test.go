package services

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dukex/wflguard/pkg/eventbus"
	"github.com/dukex/wflguard/pkg/events"
	"github.com/dukex/wflguard/pkg/metrics"
	"github.com/dukex/wflguard/pkg/persistence"
	"github.com/dukex/wflguard/pkg/persistence/jsonl"
	"github.com/dukex/wflguard/pkg/validation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 4, 5, 6, 7, 890_000_000, time.UTC)

const manualWorkflow = `{"workflowSteps": [
	{"workflowStepType": 1, "id": 1, "triggerType": 2, "triggerSubType": "Manual"},
	{"workflowStepType": 0, "id": 2, "actionType": 27, "parameters": {"commandLine": "hostname", "captureOutput": true, "outputVariable": "HOST"}},
	{"workflowStepType": 0, "id": 3, "actionType": 22, "parameters": {"message": "host #123456",
		"variables": [{"variableId": "123456", "workflowStepId": 2, "sourceId": "HOST", "type": 2}]}}
]}`

const weeklyWorkflow = `{"Steps": [
	{"workflowStepType": 1, "id": 1, "triggerType": 2, "triggerSubType": "Scheduled",
	 "schedule": {"frequency": 1, "frequencySubinterval": 5, "frequencyInterval": {"uuid": 4, "id": 2, "text": "Weekly"}}},
	{"workflowStepType": 0, "id": 2, "actionType": 22, "parameters": {"message": "tick"}}
]}`

const unproducedWorkflow = `{"workflowSteps": [
	{"workflowStepType": 1, "id": 1, "triggerType": 2, "triggerSubType": "Manual"},
	{"workflowStepType": 0, "id": 2, "actionType": 22, "parameters": {"message": "host #123456",
		"variables": [{"variableId": "123456", "sourceId": "HOST", "type": 2}]}}
]}`

type recordingBus struct {
	mu     sync.Mutex
	events []eventbus.Event
	keys   []string
	err    error
}

func (b *recordingBus) Publish(_ context.Context, key string, event eventbus.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.keys = append(b.keys, key)
	b.events = append(b.events, event)

	return b.err
}

func newService(opts ...Option) *Validation {
	return NewValidation(append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

func TestValidation_Accepts(t *testing.T) {
	verdict, err := newService().Validate(context.Background(), []byte(manualWorkflow), Request{Source: "cli"})
	require.NoError(t, err)

	assert.True(t, verdict.Valid)
	assert.Equal(t, StageComplete, verdict.Stage)
	assert.Empty(t, verdict.Kind)
	assert.False(t, verdict.Normalized)
	require.NotNil(t, verdict.Workflow)
	assert.Len(t, verdict.Workflow.Steps, 3)
	assert.Len(t, verdict.Digest, 16)
	assert.Empty(t, verdict.Feedback())
}

func TestValidation_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		req       Request
		wantStage string
		wantKind  string
		wantPath  string
	}{
		{
			name:      "no json in text",
			input:     "I could not build that workflow.",
			req:       Request{Extract: true},
			wantStage: StageExtract,
			wantKind:  KindExtraction,
		},
		{
			name:      "schema gate",
			input:     `{"workflowSteps": [{"workflowStepType": 0}]}`,
			wantStage: StageSchema,
			wantKind:  KindSchema,
		},
		{
			name:      "decode error when schema is skipped",
			input:     `{"workflowSteps": [{"workflowStepType": 0, "id": 1, "actionType": "22"}]}`,
			req:       Request{SkipSchema: true},
			wantStage: StageDecode,
			wantKind:  KindDecode,
			wantPath:  "workflowSteps[0]",
		},
		{
			name:      "dataflow",
			input:     unproducedWorkflow,
			wantStage: string(validation.StageDataflow),
			wantKind:  string(validation.KindDataflow),
			wantPath:  "workflowSteps[1]",
		},
		{
			name: "first step is not a trigger",
			input: `{"workflowSteps": [
				{"workflowStepType": 0, "id": 2, "actionType": 22, "parameters": {"message": "hi"}}]}`,
			wantStage: string(validation.StageStructure),
			wantKind:  string(validation.KindStructural),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := newService().Validate(context.Background(), []byte(tt.input), tt.req)
			require.NoError(t, err)

			assert.False(t, verdict.Valid)
			assert.Equal(t, tt.wantStage, verdict.Stage)
			assert.Equal(t, tt.wantKind, verdict.Kind)
			assert.NotEmpty(t, verdict.Message)
			assert.Nil(t, verdict.Workflow)
			assert.NotEmpty(t, verdict.Digest)
			assert.Contains(t, verdict.Feedback(), "Validation errors:")
			assert.Contains(t, verdict.Feedback(), tt.wantKind)

			if tt.wantPath != "" {
				assert.Contains(t, verdict.Path, tt.wantPath)
			}
		})
	}
}

func TestValidation_DataflowDetails(t *testing.T) {
	verdict, err := newService().Validate(context.Background(), []byte(unproducedWorkflow), Request{})
	require.NoError(t, err)

	assert.Equal(t, string(validation.ReasonUnproduced), verdict.Reason)
	assert.Equal(t, "HOST", verdict.Variable)
	assert.Contains(t, verdict.Summary(), "DataflowViolation at ")
}

func TestValidation_SchemaDetailsInFeedback(t *testing.T) {
	verdict, err := newService().Validate(context.Background(), []byte(`{"workflowSteps": [{"workflowStepType": 7}]}`), Request{})
	require.NoError(t, err)

	require.NotEmpty(t, verdict.Details)
	assert.Contains(t, verdict.Feedback(), verdict.Details[0])
	assert.Contains(t, verdict.Feedback(), "Return corrected JSON ONLY.")
}

func TestValidation_ExtractAndNormalize(t *testing.T) {
	text := "Sure, here it is:\n```json\n" + weeklyWorkflow + "\n```\n"

	verdict, err := newService().Validate(context.Background(), []byte(text), Request{Extract: true, Preview: 2})
	require.NoError(t, err)
	require.True(t, verdict.Valid, verdict.Summary())

	assert.True(t, verdict.Normalized)

	trigger, ok := verdict.Workflow.Trigger()
	require.True(t, ok)
	assert.Equal(t, "2025-03-04T05:06:07.890Z", trigger.Schedule.StartDate)
	assert.Equal(t, "UTC", trigger.Schedule.Timezone)

	require.NotNil(t, verdict.Schedule)
	assert.Equal(t, "CRON_TZ=UTC 6 5 * * 1,3", verdict.Schedule.Cron)
	assert.Equal(t, []time.Time{
		time.Date(2025, 3, 5, 5, 6, 0, 0, time.UTC),
		time.Date(2025, 3, 10, 5, 6, 0, 0, time.UTC),
	}, verdict.Schedule.NextRuns)
}

func TestValidation_CheckOnlyAndStrictDates(t *testing.T) {
	svc := newService()

	verdict, err := svc.Validate(context.Background(), []byte(weeklyWorkflow), Request{CheckOnly: true})
	require.NoError(t, err)
	assert.True(t, verdict.Valid)
	assert.True(t, verdict.Normalized)
	assert.Nil(t, verdict.Workflow)

	verdict, err = svc.Validate(context.Background(), []byte(weeklyWorkflow), Request{StrictDates: true})
	require.NoError(t, err)
	assert.False(t, verdict.Valid)
	assert.Equal(t, string(validation.KindScheduleShape), verdict.Kind)
	assert.Equal(t, string(validation.StageNormalize), verdict.Stage)
}

func TestValidation_DigestIgnoresFormatting(t *testing.T) {
	svc := newService()

	a, err := svc.Validate(context.Background(), []byte(`{"workflowSteps": [{"workflowStepType": 0}]}`), Request{})
	require.NoError(t, err)

	b, err := svc.Validate(context.Background(), []byte("{\n  \"workflowSteps\": [ { \"workflowStepType\": 0 } ]\n}"), Request{})
	require.NoError(t, err)

	assert.Equal(t, a.Digest, b.Digest)
}

func TestValidation_BadRequests(t *testing.T) {
	svc := newService()

	_, err := svc.Validate(context.Background(), []byte("   "), Request{})
	require.ErrorIs(t, err, ErrEmptyDocument)
	assert.True(t, IsValidationError(err))

	_, err = svc.Validate(context.Background(), []byte(manualWorkflow), Request{Preview: -1})
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Validate(context.Background(), []byte(manualWorkflow), Request{Source: "cron"})
	require.ErrorIs(t, err, ErrInvalidRequest)

	var serviceErr *ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "invalid_request", serviceErr.Code)
}

func TestValidation_SideChannels(t *testing.T) {
	ctx := context.Background()
	bus := &recordingBus{}
	reg := prometheus.NewRegistry()
	logPath := filepath.Join(t.TempDir(), "verdicts.jsonl")

	sink, err := jsonl.Open(logPath)
	require.NoError(t, err)

	svc := newService(WithEventBus(bus), WithMetrics(metrics.New(reg)), WithVerdictSink(sink), WithWorkerID("w-1"))

	ok, err := svc.Validate(ctx, []byte(manualWorkflow), Request{Source: "worker", Name: "ok.wfl"})
	require.NoError(t, err)

	bad, err := svc.Validate(ctx, []byte(unproducedWorkflow), Request{Source: "worker", Name: "bad.wfl"})
	require.NoError(t, err)

	require.NoError(t, sink.Close(ctx))

	require.Len(t, bus.events, 2)
	assert.Equal(t, []string{ok.Digest, bad.Digest}, bus.keys)

	accepted, isAccepted := bus.events[0].(events.WorkflowAccepted)
	require.True(t, isAccepted)
	assert.Equal(t, 3, accepted.Steps)
	assert.Equal(t, "w-1", accepted.WorkerID)
	assert.Equal(t, ok.Digest, accepted.WorkflowID)

	rejected, isRejected := bus.events[1].(events.WorkflowRejected)
	require.True(t, isRejected)
	assert.Equal(t, string(validation.KindDataflow), rejected.Kind)
	assert.Equal(t, "worker", rejected.Source)

	count, err := testutil.GatherAndCount(reg, "wflguard_validations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	f, err := os.Open(logPath)
	require.NoError(t, err)

	defer f.Close()

	var records []persistence.Record

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var r persistence.Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &r))
		records = append(records, r)
	}

	require.Len(t, records, 2)
	assert.Equal(t, persistence.StatusOK, records[0].Status)
	assert.Equal(t, "ok.wfl", records[0].Name)
	assert.Equal(t, fixedNow, records[0].Time)
	assert.Equal(t, persistence.StatusFail, records[1].Status)
	assert.Equal(t, string(validation.ReasonUnproduced), records[1].Reason)
	assert.Contains(t, records[1].Preview, "workflowSteps")
}

func TestValidation_PublishFailureDoesNotFail(t *testing.T) {
	bus := &recordingBus{err: errors.New("broker down")}

	verdict, err := newService(WithEventBus(bus)).Validate(context.Background(), []byte(manualWorkflow), Request{})
	require.NoError(t, err)
	assert.True(t, verdict.Valid)
	assert.Len(t, bus.events, 1)
}

func TestValidation_HealthCheck(t *testing.T) {
	msg, healthy := newService().HealthCheck(context.Background())
	assert.True(t, healthy)
	assert.Equal(t, "Verdict log disabled", msg)

	sink, err := jsonl.Open(filepath.Join(t.TempDir(), "v.jsonl"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = sink.Close(context.Background()) })

	msg, healthy = newService(WithVerdictSink(sink)).HealthCheck(context.Background())
	assert.True(t, healthy)
	assert.Equal(t, "Verdict log is healthy", msg)

	require.NoError(t, os.Remove(sink.Path()))

	_, healthy = newService(WithVerdictSink(sink)).HealthCheck(context.Background())
	assert.False(t, healthy)
}

func TestValidation_Concurrent(t *testing.T) {
	svc := newService()

	var wg sync.WaitGroup

	results := make([]*Verdict, 16)

	for i := range results {
		wg.Add(1)

		go func() {
			defer wg.Done()

			input := manualWorkflow
			if i%2 == 1 {
				input = unproducedWorkflow
			}

			results[i], _ = svc.Validate(context.Background(), []byte(input), Request{})
		}()
	}

	wg.Wait()

	for i, v := range results {
		require.NotNil(t, v)
		assert.Equal(t, i%2 == 0, v.Valid)
	}
}
