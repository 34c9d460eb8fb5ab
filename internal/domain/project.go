package domain

import "time"

// ProjectStatus enumerates project lifecycle states.
type ProjectStatus string

const (
	ProjectStatusAnalyzing  ProjectStatus = "analyzing"
	ProjectStatusReady      ProjectStatus = "ready"
	ProjectStatusConverting ProjectStatus = "converting"
	ProjectStatusReviewing  ProjectStatus = "reviewing"
	ProjectStatusCompleted  ProjectStatus = "completed"
)

// SourceType enumerates accepted SAS input flavours.
type SourceType string

const (
	SourceTypeSASCode SourceType = "sas-code"
	SourceTypeSASEG   SourceType = "sas-eg"
)

// TargetType enumerates translation targets.
type TargetType string

const (
	TargetTypeSQL     TargetType = "sql"
	TargetTypePySpark TargetType = "pyspark"
)

// ValidProjectStatus reports whether s is a known project status.
func ValidProjectStatus(s ProjectStatus) bool {
	switch s {
	case ProjectStatusAnalyzing, ProjectStatusReady, ProjectStatusConverting,
		ProjectStatusReviewing, ProjectStatusCompleted:
		return true
	}
	return false
}

// Project groups the conversion tasks of one migration effort.
type Project struct {
	ID          string
	UserID      string
	Name        string
	Description string
	Status      ProjectStatus
	SourceType  SourceType
	TargetType  TargetType
	Progress    int
	FileCount   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
