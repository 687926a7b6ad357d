package events

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// RunStartedData contains data for RunStarted events
type RunStartedData struct {
	RunUUID   string `json:"run_uuid"`
	PathCount int    `json:"path_count"`
	Steps     int    `json:"steps"`
}

// EventType returns the event type for RunStartedData
func (d *RunStartedData) EventType() EventType {
	return RunStarted
}

// RunCompletedData contains data for RunCompleted events
type RunCompletedData struct {
	RunUUID      string  `json:"run_uuid"`
	PathCount    int     `json:"path_count"`
	FailureCount int     `json:"failure_count"`
	ElapsedMS    int64   `json:"elapsed_ms"`
	TerminalMean float64 `json:"terminal_mean"`
}

// EventType returns the event type for RunCompletedData
func (d *RunCompletedData) EventType() EventType {
	return RunCompleted
}

// RunFailedData contains data for RunFailed events
type RunFailedData struct {
	RunUUID      string `json:"run_uuid"`
	FailureCount int    `json:"failure_count"`
	Reason       string `json:"reason"`
}

// EventType returns the event type for RunFailedData
func (d *RunFailedData) EventType() EventType {
	return RunFailed
}

// RunDeletedData contains data for RunDeleted events
type RunDeletedData struct {
	RunUUID string `json:"run_uuid"`
	Source  string `json:"source"` // "api" or "retention"
}

// EventType returns the event type for RunDeletedData
func (d *RunDeletedData) EventType() EventType {
	return RunDeleted
}

// BackupCompletedData contains data for BackupCompleted events
type BackupCompletedData struct {
	Archive   string `json:"archive"`
	SizeBytes int64  `json:"size_bytes"`
}

// EventType returns the event type for BackupCompletedData
func (d *BackupCompletedData) EventType() EventType {
	return BackupCompleted
}
