package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sasbridge/internal/domain"
)

// WorkflowRepositoryPG implements domain.WorkflowRepository.
type WorkflowRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepository creates a new workflow repository backed by PostgreSQL.
func NewWorkflowRepository(pool *pgxpool.Pool) *WorkflowRepositoryPG {
	return &WorkflowRepositoryPG{pool: pool}
}

// CreateAll inserts a project's checklist in one batch.
func (r *WorkflowRepositoryPG) CreateAll(ctx context.Context, steps []domain.WorkflowStep) error {
	batch := &pgx.Batch{}
	for i := range steps {
		batch.Queue(`
INSERT INTO workflow_steps (id, project_id, name, description, status, step_order)
VALUES ($1, $2, $3, $4, $5, $6);
`, steps[i].ID, steps[i].ProjectID, steps[i].Name, steps[i].Description, steps[i].Status, steps[i].Order)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

// ListByProject returns a project's workflow steps in checklist order.
func (r *WorkflowRepositoryPG) ListByProject(ctx context.Context, projectID string) ([]domain.WorkflowStep, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, project_id, name, description, status, step_order, created_at, updated_at
FROM workflow_steps
WHERE project_id = $1
ORDER BY step_order ASC;
`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []domain.WorkflowStep
	for rows.Next() {
		var s domain.WorkflowStep
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Name, &s.Description, &s.Status, &s.Order, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

// SetStatus advances one step. The project_id predicate keeps the update
// inside the project the caller was authorized for.
func (r *WorkflowRepositoryPG) SetStatus(ctx context.Context, stepID, projectID string, status domain.WorkflowStatus) (*domain.WorkflowStep, error) {
	row := r.pool.QueryRow(ctx, `
UPDATE workflow_steps SET status = $3, updated_at = NOW()
WHERE id = $1 AND project_id = $2
RETURNING id, project_id, name, description, status, step_order, created_at, updated_at;
`, stepID, projectID, status)
	var s domain.WorkflowStep
	if err := row.Scan(&s.ID, &s.ProjectID, &s.Name, &s.Description, &s.Status, &s.Order, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}
