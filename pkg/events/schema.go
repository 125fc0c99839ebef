package events

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Event types published on the coverage events topic
const (
	EventFeatureLinked   = "coverage.feature.linked"
	EventSnapshotCreated = "coverage.snapshot.created"
	EventRunCompleted    = "coverage.run.completed"
)
