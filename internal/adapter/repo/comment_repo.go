package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sasbridge/internal/domain"
)

// CommentRepositoryPG implements domain.CommentRepository.
type CommentRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewCommentRepository creates a new comment repository backed by PostgreSQL.
func NewCommentRepository(pool *pgxpool.Pool) *CommentRepositoryPG {
	return &CommentRepositoryPG{pool: pool}
}

// Create inserts a review comment.
func (r *CommentRepositoryPG) Create(ctx context.Context, comment *domain.Comment) error {
	query := `
INSERT INTO comments (id, task_id, author, content, line_number, resolved)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at;
`
	return r.pool.QueryRow(ctx, query,
		comment.ID,
		comment.TaskID,
		comment.Author,
		comment.Content,
		comment.LineNumber,
		comment.Resolved,
	).Scan(&comment.CreatedAt)
}

// ListByTask returns a task's comments in creation order.
func (r *CommentRepositoryPG) ListByTask(ctx context.Context, taskID string) ([]domain.Comment, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, task_id, author, content, line_number, resolved, created_at
FROM comments
WHERE task_id = $1
ORDER BY created_at ASC;
`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.Author, &c.Content, &c.LineNumber, &c.Resolved, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// SetResolved toggles a comment's resolved flag. The task_id predicate keeps
// the update inside the task the caller was authorized for; a mismatched
// comment is ErrNotFound, not a write.
func (r *CommentRepositoryPG) SetResolved(ctx context.Context, commentID, taskID string, resolved bool) (*domain.Comment, error) {
	row := r.pool.QueryRow(ctx, `
UPDATE comments SET resolved = $3 WHERE id = $1 AND task_id = $2
RETURNING id, task_id, author, content, line_number, resolved, created_at;
`, commentID, taskID, resolved)
	var c domain.Comment
	if err := row.Scan(&c.ID, &c.TaskID, &c.Author, &c.Content, &c.LineNumber, &c.Resolved, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
