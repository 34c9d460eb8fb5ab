package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sasbridge/internal/domain"
)

// ProjectRepositoryPG implements domain.ProjectRepository.
type ProjectRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewProjectRepository creates a new project repository backed by PostgreSQL.
func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepositoryPG {
	return &ProjectRepositoryPG{pool: pool}
}

const projectColumns = `id, user_id, name, description, status, source_type, target_type, progress, file_count, created_at, updated_at`

// Create inserts a new project record.
func (r *ProjectRepositoryPG) Create(ctx context.Context, project *domain.Project) error {
	query := `
INSERT INTO projects (id, user_id, name, description, status, source_type, target_type, progress, file_count)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING created_at, updated_at;
`
	return r.pool.QueryRow(ctx, query,
		project.ID,
		project.UserID,
		project.Name,
		project.Description,
		project.Status,
		project.SourceType,
		project.TargetType,
		project.Progress,
		project.FileCount,
	).Scan(&project.CreatedAt, &project.UpdatedAt)
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var p domain.Project
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Description,
		&p.Status,
		&p.SourceType,
		&p.TargetType,
		&p.Progress,
		&p.FileCount,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetByID fetches a project scoped to its owner.
func (r *ProjectRepositoryPG) GetByID(ctx context.Context, id, userID string) (*domain.Project, error) {
	return scanProject(r.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1 AND user_id = $2;`, id, userID))
}

// Get fetches a project regardless of owner. Used by the worker.
func (r *ProjectRepositoryPG) Get(ctx context.Context, id string) (*domain.Project, error) {
	return scanProject(r.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1;`, id))
}

// List returns the owner's projects, newest first.
func (r *ProjectRepositoryPG) List(ctx context.Context, userID string) ([]domain.Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE user_id = $1 ORDER BY created_at DESC;`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// Update writes the mutable project fields.
func (r *ProjectRepositoryPG) Update(ctx context.Context, project *domain.Project) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE projects
SET name = $2, description = $3, status = $4, progress = $5, file_count = $6, updated_at = NOW()
WHERE id = $1;
`, project.ID, project.Name, project.Description, project.Status, project.Progress, project.FileCount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a project and, via ON DELETE CASCADE, its tasks and their
// comments.
func (r *ProjectRepositoryPG) Delete(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1 AND user_id = $2;`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetProgress updates translation progress bookkeeping from the worker.
func (r *ProjectRepositoryPG) SetProgress(ctx context.Context, id string, status domain.ProjectStatus, progress int) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE projects SET status = $2, progress = $3, updated_at = NOW() WHERE id = $1;
`, id, status, progress)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
