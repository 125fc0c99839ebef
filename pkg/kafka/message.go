package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/laurelqa/laurel/pkg/models"
)

// IncomingMessage is a raw Kafka message plus its parsed runner payload.
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	RunnerResult *RunnerResultMessage
}

// RunnerResultMessage is the payload automated test runners publish when a
// run finishes. Each message carries the full batch of case outcomes for one
// run.
type RunnerResultMessage struct {
	WorkspaceID string                           `json:"workspace_id"`
	ProjectID   string                           `json:"project_id"`
	RunID       string                           `json:"run_id"`
	Runner      string                           `json:"runner,omitempty"`
	FinishedAt  *time.Time                       `json:"finished_at,omitempty"`
	CaseResults []models.RecordCaseResultRequest `json:"case_results"`
}

// Validate checks the payload carries the identifiers processing requires
func (m *RunnerResultMessage) Validate() error {
	if m.WorkspaceID == "" {
		return fmt.Errorf("runner result missing workspace_id")
	}
	if m.RunID == "" {
		return fmt.Errorf("runner result missing run_id")
	}
	if len(m.CaseResults) == 0 {
		return fmt.Errorf("runner result has no case results")
	}
	return nil
}

// ParseRunnerResult decodes and validates the message value as a runner
// result, storing it on the message.
func (m *IncomingMessage) ParseRunnerResult() error {
	var payload RunnerResultMessage
	if err := json.Unmarshal(m.Value, &payload); err != nil {
		return fmt.Errorf("failed to parse runner result: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return err
	}
	m.RunnerResult = &payload
	return nil
}
