package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sasbridge/internal/domain"
)

// TaskRepositoryPG implements domain.TaskRepository.
type TaskRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new conversion-task repository backed by
// PostgreSQL.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepositoryPG {
	return &TaskRepositoryPG{pool: pool}
}

const taskColumns = `id, project_id, file_name, source_code, target_code, rationale, status, version, error_message, started_at, finished_at, created_at, updated_at`

// Create inserts a new conversion task in the pending state.
func (r *TaskRepositoryPG) Create(ctx context.Context, task *domain.ConversionTask) error {
	query := `
INSERT INTO conversion_tasks (id, project_id, file_name, source_code, rationale, status, version)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at, updated_at;
`
	return r.pool.QueryRow(ctx, query,
		task.ID,
		task.ProjectID,
		task.FileName,
		task.SourceCode,
		task.Rationale,
		task.Status,
		task.Version,
	).Scan(&task.CreatedAt, &task.UpdatedAt)
}

func scanTask(row pgx.Row) (*domain.ConversionTask, error) {
	var t domain.ConversionTask
	if err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&t.FileName,
		&t.SourceCode,
		&t.TargetCode,
		&t.Rationale,
		&t.Status,
		&t.Version,
		&t.ErrorMessage,
		&t.StartedAt,
		&t.FinishedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// GetByID fetches a task by identifier.
func (r *TaskRepositoryPG) GetByID(ctx context.Context, id string) (*domain.ConversionTask, error) {
	return scanTask(r.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM conversion_tasks WHERE id = $1;`, id))
}

// ListByProject returns a project's tasks in creation order.
func (r *TaskRepositoryPG) ListByProject(ctx context.Context, projectID string) ([]domain.ConversionTask, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM conversion_tasks WHERE project_id = $1 ORDER BY created_at ASC;`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.ConversionTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// ClaimNext flips the oldest claimable pending task to running and returns
// it. A task becomes claimable once its project is in the converting state.
// FOR UPDATE SKIP LOCKED keeps concurrent workers from claiming the same
// row.
func (r *TaskRepositoryPG) ClaimNext(ctx context.Context, now time.Time) (*domain.ConversionTask, error) {
	query := `
WITH next_task AS (
    SELECT t.id
    FROM conversion_tasks t
    JOIN projects p ON p.id = t.project_id
    WHERE t.status = 'pending' AND p.status = 'converting'
    ORDER BY t.created_at ASC
    FOR UPDATE OF t SKIP LOCKED
    LIMIT 1
)
UPDATE conversion_tasks
SET status = 'running', started_at = $1, updated_at = NOW()
WHERE id IN (SELECT id FROM next_task)
RETURNING ` + taskColumns + `;
`
	return scanTask(r.pool.QueryRow(ctx, query, now))
}

// Finalize writes the terminal outcome for a running task. Status, content,
// rationale and error land in one UPDATE guarded on status = 'running', so a
// task cannot be finalized twice and status never changes without its
// content.
func (r *TaskRepositoryPG) Finalize(ctx context.Context, taskID string, outcome domain.TaskOutcome, finishedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE conversion_tasks
SET status = $2,
    target_code = $3,
    rationale = $4,
    error_message = $5,
    finished_at = $6,
    version = version + 1,
    updated_at = NOW()
WHERE id = $1 AND status = 'running';
`, taskID, outcome.Status, outcome.TargetCode, outcome.Rationale, outcome.ErrorMessage, finishedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateReview applies reviewer edits; nil fields keep their stored values.
// The version bumps only when the target code changes.
func (r *TaskRepositoryPG) UpdateReview(ctx context.Context, taskID string, status *domain.TaskStatus, targetCode, rationale *string) (*domain.ConversionTask, error) {
	query := `
UPDATE conversion_tasks
SET status = COALESCE($2, status),
    target_code = COALESCE($3, target_code),
    rationale = COALESCE($4, rationale),
    version = CASE WHEN $3::text IS NULL THEN version ELSE version + 1 END,
    updated_at = NOW()
WHERE id = $1
RETURNING ` + taskColumns + `;
`
	return scanTask(r.pool.QueryRow(ctx, query, taskID, status, targetCode, rationale))
}

// Requeue resets a terminal task so the worker picks it up again. The status
// predicate keeps a pending or running task out of reach: re-queueing one
// would race the claim loop.
func (r *TaskRepositoryPG) Requeue(ctx context.Context, taskID, projectID string) (*domain.ConversionTask, error) {
	query := `
UPDATE conversion_tasks
SET status = 'pending',
    target_code = NULL,
    rationale = '',
    error_message = NULL,
    started_at = NULL,
    finished_at = NULL,
    updated_at = NOW()
WHERE id = $1 AND project_id = $2
  AND status IN ('completed', 'completed-fallback', 'failed')
RETURNING ` + taskColumns + `;
`
	return scanTask(r.pool.QueryRow(ctx, query, taskID, projectID))
}

// Progress reports total and terminal task counts for a project.
func (r *TaskRepositoryPG) Progress(ctx context.Context, projectID string) (int, int, error) {
	var total, terminal int
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE status IN ('completed', 'completed-fallback', 'failed'))
FROM conversion_tasks
WHERE project_id = $1;
`, projectID).Scan(&total, &terminal)
	return total, terminal, err
}

// Stats aggregates the dashboard counters for one user.
func (r *TaskRepositoryPG) Stats(ctx context.Context, userID string) (*domain.DashboardStats, error) {
	var s domain.DashboardStats
	err := r.pool.QueryRow(ctx, `
SELECT
    (SELECT COUNT(*) FROM projects WHERE user_id = $1),
    (SELECT COUNT(*) FROM projects WHERE user_id = $1 AND status IN ('ready', 'converting')),
    (SELECT COUNT(*) FROM projects WHERE user_id = $1 AND status = 'completed'),
    COUNT(t.id),
    COUNT(t.id) FILTER (WHERE t.status IN ('pending', 'running')),
    COUNT(t.id) FILTER (WHERE t.status IN ('completed', 'completed-fallback')),
    COUNT(t.id) FILTER (WHERE t.status = 'failed')
FROM conversion_tasks t
JOIN projects p ON p.id = t.project_id
WHERE p.user_id = $1;
`, userID).Scan(
		&s.TotalProjects,
		&s.ActiveProjects,
		&s.CompletedProjects,
		&s.TotalTasks,
		&s.PendingTasks,
		&s.TranslatedTasks,
		&s.FailedTasks,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Recent returns the user's most recently updated tasks with their project
// names.
func (r *TaskRepositoryPG) Recent(ctx context.Context, userID string, limit int) ([]domain.ActivityItem, error) {
	rows, err := r.pool.Query(ctx, `
SELECT p.id, p.name, t.id, t.file_name, t.status, t.updated_at
FROM conversion_tasks t
JOIN projects p ON p.id = t.project_id
WHERE p.user_id = $1
ORDER BY t.updated_at DESC
LIMIT $2;
`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.ActivityItem
	for rows.Next() {
		var it domain.ActivityItem
		if err := rows.Scan(&it.ProjectID, &it.ProjectName, &it.TaskID, &it.FileName, &it.Status, &it.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
