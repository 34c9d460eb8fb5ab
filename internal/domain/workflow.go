package domain

import "time"

// WorkflowStatus enumerates the states of one migration workflow stage.
type WorkflowStatus string

const (
	WorkflowStatusPending    WorkflowStatus = "pending"
	WorkflowStatusInProgress WorkflowStatus = "in-progress"
	WorkflowStatusCompleted  WorkflowStatus = "completed"
	WorkflowStatusFailed     WorkflowStatus = "failed"
)

// ValidWorkflowStatus reports whether s is a known workflow status.
func ValidWorkflowStatus(s WorkflowStatus) bool {
	switch s {
	case WorkflowStatusPending, WorkflowStatusInProgress,
		WorkflowStatusCompleted, WorkflowStatusFailed:
		return true
	}
	return false
}

// WorkflowStep is one stage of a project's migration checklist. Steps are
// presentation-level state the team advances by hand; they do not gate the
// translation worker.
type WorkflowStep struct {
	ID          string
	ProjectID   string
	Name        string
	Description string
	Status      WorkflowStatus
	Order       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DefaultWorkflowSteps returns the checklist every new project starts with.
// IDs are left for the caller to assign.
func DefaultWorkflowSteps(projectID string) []WorkflowStep {
	names := []struct {
		name, description string
	}{
		{"Upload & Analyze", "SAS files uploaded and dependency analysis completed"},
		{"Dependency Mapping", "Extracted and visualized code dependencies"},
		{"Code Translation", "AI agents converting SAS code to target platform"},
		{"Validation & Testing", "Run parity tests and validate output equivalence"},
		{"Team Review", "Collaborative review and approval process"},
		{"Deployment", "Deploy to target environment and monitor"},
	}
	steps := make([]WorkflowStep, 0, len(names))
	for i, n := range names {
		steps = append(steps, WorkflowStep{
			ProjectID:   projectID,
			Name:        n.name,
			Description: n.description,
			Status:      WorkflowStatusPending,
			Order:       i + 1,
		})
	}
	return steps
}
