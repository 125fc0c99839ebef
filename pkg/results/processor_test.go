package results

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/laurelqa/laurel/pkg/kafka"
	"github.com/laurelqa/laurel/pkg/models"
)

type fakeRunStore struct {
	recorded    []models.RecordCaseResultRequest
	finalStatus string
	recordErr   error
	run         models.TestRun
}

func (f *fakeRunStore) RecordResults(ctx context.Context, workspaceID, runID string, results []models.RecordCaseResultRequest) (*models.TestRun, error) {
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	f.recorded = results
	run := f.run
	run.ID = runID
	run.WorkspaceID = workspaceID
	for _, res := range results {
		run.TotalCases++
		switch res.Status {
		case models.CaseResultStatusPassed:
			run.PassedCount++
		case models.CaseResultStatusFailed:
			run.FailedCount++
		default:
			run.SkippedCount++
		}
	}
	f.run = run
	return &run, nil
}

func (f *fakeRunStore) Update(ctx context.Context, workspaceID, id string, req models.UpdateTestRunRequest) (*models.TestRun, error) {
	if req.Status != nil {
		f.finalStatus = *req.Status
		f.run.Status = *req.Status
	}
	run := f.run
	return &run, nil
}

type fakeCaseMarker struct {
	marked []string
	err    error
}

func (f *fakeCaseMarker) MarkAutomated(ctx context.Context, workspaceID string, caseIDs []string) error {
	if f.err != nil {
		return f.err
	}
	f.marked = append(f.marked, caseIDs...)
	return nil
}

type fakeNotifier struct {
	runs []*models.TestRun
}

func (f *fakeNotifier) EmitRunCompleted(ctx context.Context, run *models.TestRun) {
	f.runs = append(f.runs, run)
}

func resultMessage(t *testing.T, payload *kafka.RunnerResultMessage) *kafka.IncomingMessage {
	t.Helper()
	return &kafka.IncomingMessage{RunnerResult: payload}
}

func TestProcessor_AllPassed(t *testing.T) {
	runs := &fakeRunStore{}
	cases := &fakeCaseMarker{}
	notifier := &fakeNotifier{}
	p := NewProcessor(zap.NewNop(), runs, cases, notifier)

	msg := resultMessage(t, &kafka.RunnerResultMessage{
		WorkspaceID: "ws-1",
		ProjectID:   "proj-1",
		RunID:       "run-1",
		CaseResults: []models.RecordCaseResultRequest{
			{TestCaseID: "tc-1", Status: models.CaseResultStatusPassed},
			{TestCaseID: "tc-2", Status: models.CaseResultStatusPassed},
		},
	})

	require.NoError(t, p.Process(context.Background(), msg))
	assert.Equal(t, models.TestRunStatusPassed, runs.finalStatus)
	assert.ElementsMatch(t, []string{"tc-1", "tc-2"}, cases.marked)
	require.Len(t, notifier.runs, 1)
	assert.Equal(t, 2, notifier.runs[0].PassedCount)
}

func TestProcessor_AnyFailureFailsRun(t *testing.T) {
	runs := &fakeRunStore{}
	p := NewProcessor(zap.NewNop(), runs, &fakeCaseMarker{}, nil)

	msg := resultMessage(t, &kafka.RunnerResultMessage{
		WorkspaceID: "ws-1",
		RunID:       "run-1",
		CaseResults: []models.RecordCaseResultRequest{
			{TestCaseID: "tc-1", Status: models.CaseResultStatusPassed},
			{TestCaseID: "tc-2", Status: models.CaseResultStatusFailed},
			{TestCaseID: "tc-3", Status: models.CaseResultStatusSkipped},
		},
	})

	require.NoError(t, p.Process(context.Background(), msg))
	assert.Equal(t, models.TestRunStatusFailed, runs.finalStatus)
}

func TestProcessor_MissingPayload(t *testing.T) {
	p := NewProcessor(zap.NewNop(), &fakeRunStore{}, &fakeCaseMarker{}, nil)

	err := p.Process(context.Background(), &kafka.IncomingMessage{})
	assert.Error(t, err)
}

func TestProcessor_RecordFailurePropagates(t *testing.T) {
	runs := &fakeRunStore{recordErr: errors.New("db down")}
	notifier := &fakeNotifier{}
	p := NewProcessor(zap.NewNop(), runs, &fakeCaseMarker{}, notifier)

	msg := resultMessage(t, &kafka.RunnerResultMessage{
		WorkspaceID: "ws-1",
		RunID:       "run-1",
		CaseResults: []models.RecordCaseResultRequest{
			{TestCaseID: "tc-1", Status: models.CaseResultStatusPassed},
		},
	})

	err := p.Process(context.Background(), msg)
	require.Error(t, err)
	assert.Empty(t, notifier.runs)
}

func TestParseRunnerResult(t *testing.T) {
	msg := &kafka.IncomingMessage{
		Value: []byte(`{"workspace_id":"ws-1","project_id":"proj-1","run_id":"run-1","case_results":[{"test_case_id":"tc-1","status":"passed","duration_ms":120}]}`),
	}

	require.NoError(t, msg.ParseRunnerResult())
	require.NotNil(t, msg.RunnerResult)
	assert.Equal(t, "run-1", msg.RunnerResult.RunID)
	assert.Equal(t, int64(120), msg.RunnerResult.CaseResults[0].DurationMS)
}

func TestParseRunnerResult_Invalid(t *testing.T) {
	t.Run("malformed json", func(t *testing.T) {
		msg := &kafka.IncomingMessage{Value: []byte(`{`)}
		assert.Error(t, msg.ParseRunnerResult())
	})

	t.Run("missing run id", func(t *testing.T) {
		msg := &kafka.IncomingMessage{
			Value: []byte(`{"workspace_id":"ws-1","case_results":[{"test_case_id":"tc-1","status":"passed"}]}`),
		}
		assert.Error(t, msg.ParseRunnerResult())
	})

	t.Run("no results", func(t *testing.T) {
		msg := &kafka.IncomingMessage{
			Value: []byte(`{"workspace_id":"ws-1","run_id":"run-1","case_results":[]}`),
		}
		assert.Error(t, msg.ParseRunnerResult())
	})
}
