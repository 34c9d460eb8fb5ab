package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"sasbridge/internal/domain"
)

type taskDTO struct {
	ID           string     `json:"id"`
	ProjectID    string     `json:"project_id"`
	FileName     string     `json:"file_name"`
	SourceCode   string     `json:"source_code"`
	TargetCode   *string    `json:"target_code"`
	Rationale    string     `json:"rationale"`
	Status       string     `json:"status"`
	Version      int        `json:"version"`
	ErrorMessage *string    `json:"error_message"`
	StartedAt    *time.Time `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func toTaskDTO(t *domain.ConversionTask) taskDTO {
	return taskDTO{
		ID:           t.ID,
		ProjectID:    t.ProjectID,
		FileName:     t.FileName,
		SourceCode:   t.SourceCode,
		TargetCode:   t.TargetCode,
		Rationale:    t.Rationale,
		Status:       string(t.Status),
		Version:      t.Version,
		ErrorMessage: t.ErrorMessage,
		StartedAt:    t.StartedAt,
		FinishedAt:   t.FinishedAt,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

type commentDTO struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"task_id"`
	Author     string    `json:"author"`
	Content    string    `json:"content"`
	LineNumber *int      `json:"line_number"`
	Resolved   bool      `json:"resolved"`
	CreatedAt  time.Time `json:"created_at"`
}

func toCommentDTO(c *domain.Comment) commentDTO {
	return commentDTO{
		ID:         c.ID,
		TaskID:     c.TaskID,
		Author:     c.Author,
		Content:    c.Content,
		LineNumber: c.LineNumber,
		Resolved:   c.Resolved,
		CreatedAt:  c.CreatedAt,
	}
}

// loadTask fetches a task and verifies the caller owns its project.
func (a *App) loadTask(w http.ResponseWriter, r *http.Request, taskID string) *domain.ConversionTask {
	user := a.currentUser(r)
	task, err := a.Tasks.GetByID(r.Context(), taskID)
	if err == nil {
		_, err = a.Projects.GetByID(r.Context(), task.ProjectID, user.ID)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "task not found")
		} else {
			a.Logger.Error().Err(err).Msg("load task failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to load task")
		}
		return nil
	}
	return task
}

func (a *App) TasksGet(w http.ResponseWriter, r *http.Request) {
	task := a.loadTask(w, r, chi.URLParam(r, "id"))
	if task == nil {
		return
	}
	comments, err := a.Comments.ListByTask(r.Context(), task.ID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list comments failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load comments")
		return
	}
	items := make([]commentDTO, 0, len(comments))
	for i := range comments {
		items = append(items, toCommentDTO(&comments[i]))
	}
	a.json(w, http.StatusOK, map[string]any{
		"task":     toTaskDTO(task),
		"comments": items,
	})
}

type updateTaskRequest struct {
	Status     *string `json:"status"`
	TargetCode *string `json:"target_code"`
	Rationale  *string `json:"rationale"`
}

// TasksUpdate applies reviewer edits to a terminal task: corrected target
// code, a rationale note, or a status change between the terminal states.
func (a *App) TasksUpdate(w http.ResponseWriter, r *http.Request) {
	task := a.loadTask(w, r, chi.URLParam(r, "id"))
	if task == nil {
		return
	}
	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if !task.Status.Terminal() {
		a.error(w, http.StatusConflict, "conflict", "task is still being translated")
		return
	}
	var status *domain.TaskStatus
	if req.Status != nil {
		s := domain.TaskStatus(*req.Status)
		if !s.Terminal() {
			a.error(w, http.StatusBadRequest, "bad_request", "status must be terminal")
			return
		}
		status = &s
	}
	updated, err := a.Tasks.UpdateReview(r.Context(), task.ID, status, req.TargetCode, req.Rationale)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "task not found")
			return
		}
		a.Logger.Error().Err(err).Msg("update task failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update task")
		return
	}
	a.json(w, http.StatusOK, toTaskDTO(updated))
}

// TasksRegenerate queues a terminal task for re-translation: status back to
// pending with the previous outcome cleared. 202: the worker picks it up on
// its next poll.
func (a *App) TasksRegenerate(w http.ResponseWriter, r *http.Request) {
	task := a.loadTask(w, r, chi.URLParam(r, "id"))
	if task == nil {
		return
	}
	if !task.Status.Terminal() {
		a.error(w, http.StatusConflict, "conflict", "task is still being translated")
		return
	}
	requeued, err := a.Tasks.Requeue(r.Context(), task.ID, task.ProjectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusConflict, "conflict", "task is no longer re-queueable")
			return
		}
		a.Logger.Error().Err(err).Msg("requeue task failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to requeue task")
		return
	}
	a.json(w, http.StatusAccepted, toTaskDTO(requeued))
}

type createCommentRequest struct {
	Content    string `json:"content"`
	LineNumber *int   `json:"line_number"`
}

func (a *App) CommentsCreate(w http.ResponseWriter, r *http.Request) {
	task := a.loadTask(w, r, chi.URLParam(r, "id"))
	if task == nil {
		return
	}
	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "content required")
		return
	}
	user := a.currentUser(r)
	comment := &domain.Comment{
		ID:         uuid.NewString(),
		TaskID:     task.ID,
		Author:     user.Email,
		Content:    strings.TrimSpace(req.Content),
		LineNumber: req.LineNumber,
	}
	if err := a.Comments.Create(r.Context(), comment); err != nil {
		a.Logger.Error().Err(err).Msg("create comment failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create comment")
		return
	}
	a.json(w, http.StatusCreated, toCommentDTO(comment))
}

type resolveCommentRequest struct {
	Resolved bool `json:"resolved"`
}

func (a *App) CommentsResolve(w http.ResponseWriter, r *http.Request) {
	task := a.loadTask(w, r, chi.URLParam(r, "id"))
	if task == nil {
		return
	}
	var req resolveCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	comment, err := a.Comments.SetResolved(r.Context(), chi.URLParam(r, "commentID"), task.ID, req.Resolved)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "comment not found")
			return
		}
		a.Logger.Error().Err(err).Msg("resolve comment failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update comment")
		return
	}
	a.json(w, http.StatusOK, toCommentDTO(comment))
}
