package domain

import (
	"context"
	"time"
)

// UserRepository defines access methods for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*User, error)
	RotateAPIKey(ctx context.Context, userID, newKey string) error
	SetMonthlyLimit(ctx context.Context, userID string, limit int) error
}

// UsageRepository is the usage ledger. Admit performs the check-then-increment
// for one request unit as a single conditional update: it returns the counter
// value after the increment, or a *RateLimitError (without incrementing) when
// the counter has already reached limit.
type UsageRepository interface {
	Admit(ctx context.Context, userID string, period Period, limit int) (int, error)
	Current(ctx context.Context, userID string, period Period) (int, error)
}

// ProjectRepository defines persistence for projects. GetByID is scoped to
// the owning user for request handling; Get is unscoped and meant for the
// worker, which acts across all users.
type ProjectRepository interface {
	Create(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, id, userID string) (*Project, error)
	Get(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context, userID string) ([]Project, error)
	Update(ctx context.Context, project *Project) error
	Delete(ctx context.Context, id, userID string) error
	SetProgress(ctx context.Context, id string, status ProjectStatus, progress int) error
}

// TaskRepository defines persistence for conversion tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *ConversionTask) error
	GetByID(ctx context.Context, id string) (*ConversionTask, error)
	ListByProject(ctx context.Context, projectID string) ([]ConversionTask, error)
	// ClaimNext flips the oldest claimable pending task to running and
	// returns it, or ErrNotFound when no task is ready. A task is claimable
	// once its project has been released for translation.
	ClaimNext(ctx context.Context, now time.Time) (*ConversionTask, error)
	// Finalize writes the terminal outcome for a running task. Status and
	// content land in one update; ErrNotFound means the task was not in the
	// running state.
	Finalize(ctx context.Context, taskID string, outcome TaskOutcome, finishedAt time.Time) error
	UpdateReview(ctx context.Context, taskID string, status *TaskStatus, targetCode, rationale *string) (*ConversionTask, error)
	// Requeue resets a terminal task to pending with its outcome cleared so
	// the worker translates it again. ErrNotFound when the task does not
	// exist under the project or is not terminal.
	Requeue(ctx context.Context, taskID, projectID string) (*ConversionTask, error)
	// Progress reports total and terminal task counts for a project.
	Progress(ctx context.Context, projectID string) (total, terminal int, err error)
	Stats(ctx context.Context, userID string) (*DashboardStats, error)
	Recent(ctx context.Context, userID string, limit int) ([]ActivityItem, error)
}

// WorkflowRepository defines persistence for project workflow checklists.
type WorkflowRepository interface {
	CreateAll(ctx context.Context, steps []WorkflowStep) error
	ListByProject(ctx context.Context, projectID string) ([]WorkflowStep, error)
	// SetStatus is scoped to the step's project, mirroring SetResolved.
	SetStatus(ctx context.Context, stepID, projectID string, status WorkflowStatus) (*WorkflowStep, error)
}

// CommentRepository defines persistence for task review comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *Comment) error
	ListByTask(ctx context.Context, taskID string) ([]Comment, error)
	// SetResolved is scoped to the comment's task so a caller can only touch
	// comments under a task it has already been authorized for.
	SetResolved(ctx context.Context, commentID, taskID string, resolved bool) (*Comment, error)
}
