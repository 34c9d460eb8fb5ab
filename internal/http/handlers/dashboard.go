package handlers

import (
	"net/http"
	"time"
)

const recentActivityLimit = 10

type activityDTO struct {
	ProjectID   string    `json:"project_id"`
	ProjectName string    `json:"project_name"`
	TaskID      string    `json:"task_id"`
	FileName    string    `json:"file_name"`
	Status      string    `json:"status"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Dashboard aggregates project/task counters and the recent-activity feed.
func (a *App) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(r)
	stats, err := a.Tasks.Stats(r.Context(), user.ID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("load dashboard stats failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load dashboard")
		return
	}
	recent, err := a.Tasks.Recent(r.Context(), user.ID, recentActivityLimit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("load recent activity failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load dashboard")
		return
	}
	activity := make([]activityDTO, 0, len(recent))
	for _, item := range recent {
		activity = append(activity, activityDTO{
			ProjectID:   item.ProjectID,
			ProjectName: item.ProjectName,
			TaskID:      item.TaskID,
			FileName:    item.FileName,
			Status:      string(item.Status),
			UpdatedAt:   item.UpdatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{
		"stats": map[string]int{
			"total_projects":     stats.TotalProjects,
			"active_projects":    stats.ActiveProjects,
			"completed_projects": stats.CompletedProjects,
			"total_tasks":        stats.TotalTasks,
			"pending_tasks":      stats.PendingTasks,
			"translated_tasks":   stats.TranslatedTasks,
			"failed_tasks":       stats.FailedTasks,
		},
		"recent_activity": activity,
	})
}
