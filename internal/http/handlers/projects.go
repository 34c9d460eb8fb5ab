package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"sasbridge/internal/domain"
	"sasbridge/pkg/zip"
)

// maxUploadBytes caps a single multipart upload.
const maxUploadBytes = 16 << 20

type projectDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	SourceType  string    `json:"source_type"`
	TargetType  string    `json:"target_type"`
	Progress    int       `json:"progress"`
	FileCount   int       `json:"file_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProjectDTO(p *domain.Project) projectDTO {
	return projectDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Status:      string(p.Status),
		SourceType:  string(p.SourceType),
		TargetType:  string(p.TargetType),
		Progress:    p.Progress,
		FileCount:   p.FileCount,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SourceType  string `json:"source_type"`
	TargetType  string `json:"target_type"`
}

func (a *App) ProjectsCreate(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(r)
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "name required")
		return
	}
	source := domain.SourceType(req.SourceType)
	if source == "" {
		source = domain.SourceTypeSASCode
	}
	if source != domain.SourceTypeSASCode && source != domain.SourceTypeSASEG {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown source_type")
		return
	}
	target := domain.TargetType(req.TargetType)
	if target == "" {
		target = domain.TargetTypeSQL
	}
	if target != domain.TargetTypeSQL && target != domain.TargetTypePySpark {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown target_type")
		return
	}
	project := &domain.Project{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Status:      domain.ProjectStatusAnalyzing,
		SourceType:  source,
		TargetType:  target,
	}
	if err := a.Projects.Create(r.Context(), project); err != nil {
		a.Logger.Error().Err(err).Msg("create project failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create project")
		return
	}
	steps := domain.DefaultWorkflowSteps(project.ID)
	for i := range steps {
		steps[i].ID = uuid.NewString()
	}
	if err := a.Workflow.CreateAll(r.Context(), steps); err != nil {
		a.Logger.Error().Err(err).Str("project_id", project.ID).Msg("seed workflow steps failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create project")
		return
	}
	a.json(w, http.StatusCreated, toProjectDTO(project))
}

func (a *App) ProjectsList(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(r)
	projects, err := a.Projects.List(r.Context(), user.ID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list projects failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list projects")
		return
	}
	items := make([]projectDTO, 0, len(projects))
	for i := range projects {
		items = append(items, toProjectDTO(&projects[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// loadProject fetches an owner-scoped project or writes the error response.
func (a *App) loadProject(w http.ResponseWriter, r *http.Request) *domain.Project {
	user := a.currentUser(r)
	project, err := a.Projects.GetByID(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "project not found")
		} else {
			a.Logger.Error().Err(err).Msg("load project failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to load project")
		}
		return nil
	}
	return project
}

func (a *App) ProjectsGet(w http.ResponseWriter, r *http.Request) {
	if project := a.loadProject(w, r); project != nil {
		a.json(w, http.StatusOK, toProjectDTO(project))
	}
}

type updateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

func (a *App) ProjectsUpdate(w http.ResponseWriter, r *http.Request) {
	project := a.loadProject(w, r)
	if project == nil {
		return
	}
	var req updateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			a.error(w, http.StatusBadRequest, "bad_request", "name cannot be empty")
			return
		}
		project.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		project.Description = strings.TrimSpace(*req.Description)
	}
	if req.Status != nil {
		status := domain.ProjectStatus(*req.Status)
		if !domain.ValidProjectStatus(status) {
			a.error(w, http.StatusBadRequest, "bad_request", "unknown status")
			return
		}
		project.Status = status
	}
	if err := a.Projects.Update(r.Context(), project); err != nil {
		a.Logger.Error().Err(err).Msg("update project failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update project")
		return
	}
	a.json(w, http.StatusOK, toProjectDTO(project))
}

func (a *App) ProjectsDelete(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(r)
	err := a.Projects.Delete(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "project not found")
			return
		}
		a.Logger.Error().Err(err).Msg("delete project failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to delete project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ProjectsUploadFiles accepts multipart SAS source files and creates one
// pending conversion task per file.
func (a *App) ProjectsUploadFiles(w http.ResponseWriter, r *http.Request) {
	project := a.loadProject(w, r)
	if project == nil {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "no files uploaded")
		return
	}
	var created []taskDTO
	for _, fh := range files {
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".sas") {
			a.error(w, http.StatusBadRequest, "bad_request", "only .sas files are accepted")
			return
		}
		f, err := fh.Open()
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "unreadable file "+fh.Filename)
			return
		}
		source, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "unreadable file "+fh.Filename)
			return
		}
		task := &domain.ConversionTask{
			ID:         uuid.NewString(),
			ProjectID:  project.ID,
			FileName:   filepath.Base(fh.Filename),
			SourceCode: string(source),
			Status:     domain.TaskStatusPending,
			Version:    1,
		}
		if err := a.Tasks.Create(r.Context(), task); err != nil {
			a.Logger.Error().Err(err).Msg("create task failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to store file")
			return
		}
		created = append(created, toTaskDTO(task))
	}
	project.FileCount += len(created)
	if project.Status == domain.ProjectStatusAnalyzing {
		project.Status = domain.ProjectStatusReady
	}
	if err := a.Projects.Update(r.Context(), project); err != nil {
		a.Logger.Error().Err(err).Msg("update project after upload failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update project")
		return
	}
	a.json(w, http.StatusCreated, map[string]any{
		"project": toProjectDTO(project),
		"tasks":   created,
	})
}

func (a *App) ProjectsListTasks(w http.ResponseWriter, r *http.Request) {
	project := a.loadProject(w, r)
	if project == nil {
		return
	}
	tasks, err := a.Tasks.ListByProject(r.Context(), project.ID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list tasks failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list tasks")
		return
	}
	items := make([]taskDTO, 0, len(tasks))
	for i := range tasks {
		items = append(items, toTaskDTO(&tasks[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// ProjectsTranslate releases a project's pending tasks to the worker by
// flipping the project into the converting state. 202: translation happens
// asynchronously.
func (a *App) ProjectsTranslate(w http.ResponseWriter, r *http.Request) {
	project := a.loadProject(w, r)
	if project == nil {
		return
	}
	if project.FileCount == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "project has no files to translate")
		return
	}
	if project.Status == domain.ProjectStatusConverting {
		a.error(w, http.StatusConflict, "conflict", "translation already in progress")
		return
	}
	if err := a.Projects.SetProgress(r.Context(), project.ID, domain.ProjectStatusConverting, 0); err != nil {
		a.Logger.Error().Err(err).Msg("start translation failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to start translation")
		return
	}
	project.Status = domain.ProjectStatusConverting
	project.Progress = 0
	a.json(w, http.StatusAccepted, toProjectDTO(project))
}

// ProjectsExport streams a zip archive of the translated artifacts produced
// so far. Only terminal tasks with target code contribute; fallback stubs
// are included since they carry the marker reviewers look for.
func (a *App) ProjectsExport(w http.ResponseWriter, r *http.Request) {
	project := a.loadProject(w, r)
	if project == nil {
		return
	}
	tasks, err := a.Tasks.ListByProject(r.Context(), project.ID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list tasks for export failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list tasks")
		return
	}
	artifacts := make([]zip.Artifact, 0, len(tasks))
	for i := range tasks {
		task := &tasks[i]
		if !task.Status.Terminal() || task.TargetCode == nil {
			continue
		}
		artifacts = append(artifacts, zip.Artifact{
			Name: artifactName(task.FileName, project.TargetType),
			Data: []byte(*task.TargetCode),
		})
	}
	if len(artifacts) == 0 {
		a.error(w, http.StatusConflict, "conflict", "no translated artifacts to export yet")
		return
	}
	archive, err := zip.Archive(artifacts)
	if err != nil {
		a.Logger.Error().Err(err).Msg("build export archive failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+project.Name+`.zip"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

type workflowStepDTO struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toWorkflowStepDTO(s *domain.WorkflowStep) workflowStepDTO {
	return workflowStepDTO{
		ID:          s.ID,
		ProjectID:   s.ProjectID,
		Name:        s.Name,
		Description: s.Description,
		Status:      string(s.Status),
		Order:       s.Order,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func (a *App) ProjectsWorkflow(w http.ResponseWriter, r *http.Request) {
	project := a.loadProject(w, r)
	if project == nil {
		return
	}
	steps, err := a.Workflow.ListByProject(r.Context(), project.ID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list workflow steps failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list workflow steps")
		return
	}
	items := make([]workflowStepDTO, 0, len(steps))
	for i := range steps {
		items = append(items, toWorkflowStepDTO(&steps[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

type updateWorkflowStepRequest struct {
	Status string `json:"status"`
}

// WorkflowStepUpdate advances one checklist step. The update is scoped to
// the owner's project, so a step ID from another project reads as not found.
func (a *App) WorkflowStepUpdate(w http.ResponseWriter, r *http.Request) {
	project := a.loadProject(w, r)
	if project == nil {
		return
	}
	var req updateWorkflowStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	status := domain.WorkflowStatus(req.Status)
	if !domain.ValidWorkflowStatus(status) {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown status")
		return
	}
	step, err := a.Workflow.SetStatus(r.Context(), chi.URLParam(r, "stepID"), project.ID, status)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "workflow step not found")
			return
		}
		a.Logger.Error().Err(err).Msg("update workflow step failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update workflow step")
		return
	}
	a.json(w, http.StatusOK, toWorkflowStepDTO(step))
}

// artifactName swaps a .sas extension for the target language's.
func artifactName(fileName string, target domain.TargetType) string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	if target == domain.TargetTypePySpark {
		return base + ".py"
	}
	return base + ".sql"
}
