// Package results ingests automated runner results from Kafka.
package results

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/laurelqa/laurel/pkg/kafka"
	"github.com/laurelqa/laurel/pkg/models"
	"github.com/laurelqa/laurel/pkg/tracing"
)

// RunStore records results against a run and updates its status.
type RunStore interface {
	RecordResults(ctx context.Context, workspaceID, runID string, results []models.RecordCaseResultRequest) (*models.TestRun, error)
	Update(ctx context.Context, workspaceID, id string, req models.UpdateTestRunRequest) (*models.TestRun, error)
}

// CaseMarker flips reported test cases to automated status.
type CaseMarker interface {
	MarkAutomated(ctx context.Context, workspaceID string, caseIDs []string) error
}

// RunNotifier is told when a run's results have been fully recorded.
type RunNotifier interface {
	EmitRunCompleted(ctx context.Context, run *models.TestRun)
}

// Processor applies a runner result message: it records the case outcomes,
// moves the run to its terminal status, and marks the reported cases as
// automated.
type Processor struct {
	logger   *zap.Logger
	runs     RunStore
	cases    CaseMarker
	notifier RunNotifier
}

// NewProcessor creates a runner result processor. notifier may be nil.
func NewProcessor(logger *zap.Logger, runs RunStore, cases CaseMarker, notifier RunNotifier) *Processor {
	return &Processor{
		logger:   logger,
		runs:     runs,
		cases:    cases,
		notifier: notifier,
	}
}

// Process handles one runner result message. Errors are returned so the
// consumer skips the commit and the message is retried.
func (p *Processor) Process(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "results.Processor.Process")
	defer span.End()

	payload := msg.RunnerResult
	if payload == nil {
		return fmt.Errorf("message has no runner result payload")
	}

	run, err := p.runs.RecordResults(ctx, payload.WorkspaceID, payload.RunID, payload.CaseResults)
	if err != nil {
		return fmt.Errorf("failed to record results for run %s: %w", payload.RunID, err)
	}

	status := models.TestRunStatusPassed
	if run.FailedCount > 0 {
		status = models.TestRunStatusFailed
	}
	run, err = p.runs.Update(ctx, payload.WorkspaceID, payload.RunID, models.UpdateTestRunRequest{
		Status: &status,
	})
	if err != nil {
		return fmt.Errorf("failed to finalize run %s: %w", payload.RunID, err)
	}

	caseIDs := make([]string, 0, len(payload.CaseResults))
	for _, res := range payload.CaseResults {
		caseIDs = append(caseIDs, res.TestCaseID)
	}
	if err := p.cases.MarkAutomated(ctx, payload.WorkspaceID, caseIDs); err != nil {
		return fmt.Errorf("failed to mark cases automated for run %s: %w", payload.RunID, err)
	}

	if p.notifier != nil {
		p.notifier.EmitRunCompleted(ctx, run)
	}

	p.logger.Info("Processed runner results",
		zap.String("run_id", run.ID),
		zap.String("status", run.Status),
		zap.Int("total_cases", run.TotalCases),
		zap.Int("failed_count", run.FailedCount))
	return nil
}
