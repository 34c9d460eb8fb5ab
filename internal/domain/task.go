package domain

import "time"

// TaskStatus enumerates conversion task lifecycle states.
//
// pending → running → {completed | completed-fallback | failed}
//
// The three right-hand states are terminal: once a task leaves running it
// never transitions again, and the status write is atomic with the content
// write (both land in a single UPDATE guarded on status = 'running').
type TaskStatus string

const (
	TaskStatusPending           TaskStatus = "pending"
	TaskStatusRunning           TaskStatus = "running"
	TaskStatusCompleted         TaskStatus = "completed"
	TaskStatusCompletedFallback TaskStatus = "completed-fallback"
	TaskStatusFailed            TaskStatus = "failed"
)

// Terminal reports whether s is a terminal status.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusCompletedFallback, TaskStatusFailed:
		return true
	}
	return false
}

// ConversionTask is one unit of translation work: a single SAS source file
// and, once a worker has finished with it, its SQL or PySpark rendition.
type ConversionTask struct {
	ID           string
	ProjectID    string
	FileName     string
	SourceCode   string
	TargetCode   *string
	Rationale    string
	Status       TaskStatus
	Version      int
	ErrorMessage *string
	StartedAt    *time.Time
	FinishedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TaskOutcome is the terminal result a worker persists for a claimed task.
type TaskOutcome struct {
	Status       TaskStatus
	TargetCode   *string
	Rationale    string
	ErrorMessage *string
}
