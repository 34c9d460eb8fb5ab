package domain

import "time"

// DashboardStats aggregates a user's projects and tasks for the overview
// endpoint.
type DashboardStats struct {
	TotalProjects     int
	ActiveProjects    int
	CompletedProjects int
	TotalTasks        int
	PendingTasks      int
	TranslatedTasks   int
	FailedTasks       int
}

// ActivityItem is one row of the recent-activity feed.
type ActivityItem struct {
	ProjectID   string
	ProjectName string
	TaskID      string
	FileName    string
	Status      TaskStatus
	UpdatedAt   time.Time
}
