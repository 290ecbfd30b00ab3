package models

import "time"

// Project groups tasks and owns at most one provider configuration.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProviderConfig is a project's GitHub issue provider settings.
type ProviderConfig struct {
	ProjectID        string    `json:"project_id" toml:"-"`
	Enabled          bool      `json:"enabled" toml:"enabled"`
	AutoAddToBacklog bool      `json:"auto_add_to_backlog" toml:"auto_add_to_backlog"`
	AutoPoll         bool      `json:"auto_poll" toml:"auto_poll"`
	Repo             string    `json:"repo" toml:"repo"`
	UpdatedAt        time.Time `json:"updated_at" toml:"-"`
}

// WorkContext is what the user is currently working in: a project or a tag.
type WorkContext struct {
	Type WorkContextType `json:"type"`
	ID   string          `json:"id"`
}

// IsProject reports whether the context resolves to a single project.
func (w WorkContext) IsProject() bool {
	return w.Type == ContextProject && w.ID != ""
}

// IsZero reports whether no context has been selected yet.
func (w WorkContext) IsZero() bool {
	return w.Type == "" && w.ID == ""
}

// RemoteIssue is an issue as fetched from the provider. It is never persisted as-is.
type RemoteIssue struct {
	ExternalID string    `json:"external_id"`
	Number     int       `json:"number"`
	Title      string    `json:"title"`
	Body       string    `json:"body,omitempty"`
	State      string    `json:"state"`
	URL        string    `json:"url,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}
