package api

import (
	"issuesync/internal/models"
	"issuesync/internal/notify"
	"issuesync/internal/poll"
)

// ErrorResponse is a generic JSON error wrapper.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// InfoResponse describes the running server and its store.
type InfoResponse struct {
	DBPath        string             `json:"db_path"`
	SchemaVersion int                `json:"schema_version"`
	Projects      int                `json:"projects"`
	TaskCounts    map[string]int     `json:"task_counts"`
	TotalTasks    int                `json:"total_tasks"`
	ActiveContext models.WorkContext `json:"active_context"`
	AuthRequired  bool               `json:"auth_required"`
}

// ProjectCreateRequest creates a project.
type ProjectCreateRequest struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// ProviderConfigRequest replaces a project's GitHub provider settings.
type ProviderConfigRequest struct {
	Enabled          bool   `json:"enabled"`
	AutoAddToBacklog bool   `json:"auto_add_to_backlog"`
	AutoPoll         bool   `json:"auto_poll"`
	Repo             string `json:"repo"`
}

// ContextRequest sets the active work context.
type ContextRequest struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// TaskCreateRequest creates a local task.
type TaskCreateRequest struct {
	ProjectID string   `json:"project_id"`
	Title     string   `json:"title"`
	Status    *string  `json:"status,omitempty"`
	Notes     *string  `json:"notes,omitempty"`
	Backlog   bool     `json:"backlog,omitempty"`
	Labels    []string `json:"labels,omitempty"`
}

// LabelsRequest adds or removes task labels.
type LabelsRequest struct {
	Labels []string `json:"labels"`
}

// RefreshResponse reports the outcome of a task refresh.
type RefreshResponse struct {
	Task    models.Task `json:"task"`
	Updated bool        `json:"updated"`
}

// SyncStatusResponse reports poll scheduler state.
type SyncStatusResponse struct {
	Pipelines []poll.PipelineStatus `json:"pipelines"`
}

// SyncTriggerResponse acknowledges a manual trigger.
type SyncTriggerResponse struct {
	Triggered bool `json:"triggered"`
}

// NotificationsResponse lists recent notifications, newest first.
type NotificationsResponse struct {
	Notifications []notify.Notification `json:"notifications"`
}
