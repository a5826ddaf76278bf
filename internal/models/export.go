package models

import "time"

// ExportJobStatus tracks the lifecycle of a background report export.
type ExportJobStatus string

const (
	ExportStatusPending    ExportJobStatus = "pending"
	ExportStatusProcessing ExportJobStatus = "processing"
	ExportStatusCompleted  ExportJobStatus = "completed"
	ExportStatusFailed     ExportJobStatus = "failed"
)

// ExportFormats lists the renderable report formats.
var ExportFormats = map[string]bool{"csv": true, "pdf": true}

// ExportJob is a queued report export. Jobs live in memory only and do not
// survive a restart; clients poll by id until the download link appears.
type ExportJob struct {
	ID          string          `json:"_id"`
	CourseID    string          `json:"courseId"`
	Intake      string          `json:"intake,omitempty"`
	Section     string          `json:"section,omitempty"`
	Format      string          `json:"format"`
	Status      ExportJobStatus `json:"status"`
	Error       string          `json:"error,omitempty"`
	FileName    string          `json:"fileName,omitempty"`
	DownloadURL string          `json:"downloadUrl,omitempty"`
	ExpiresAt   *time.Time      `json:"expiresAt,omitempty"`
	RequestedBy string          `json:"requestedBy,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}
