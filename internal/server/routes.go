package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check, info and metrics.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/info", s.handleInfo)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Projects and provider configs.
	mux.HandleFunc("GET /v1/projects", s.handleListProjects)
	mux.HandleFunc("POST /v1/projects", s.handleCreateProject)
	mux.HandleFunc("GET /v1/projects/{id}", s.handleGetProject)
	mux.HandleFunc("GET /v1/projects/{id}/provider", s.handleGetProvider)
	mux.HandleFunc("PUT /v1/projects/{id}/provider", s.handleSetProvider)

	// Active work context.
	mux.HandleFunc("GET /v1/context", s.handleGetContext)
	mux.HandleFunc("PUT /v1/context", s.handleSetContext)

	// Tasks.
	mux.HandleFunc("GET /v1/tasks", s.handleListTasks)
	mux.HandleFunc("POST /v1/tasks", s.handleCreateTask)
	mux.HandleFunc("GET /v1/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("POST /v1/tasks/{id}/refresh", s.handleRefreshTask)

	// Task labels.
	mux.HandleFunc("POST /v1/tasks/{id}/labels", s.handleAddTaskLabels)
	mux.HandleFunc("DELETE /v1/tasks/{id}/labels", s.handleRemoveTaskLabels)

	// Notifications and sync.
	mux.HandleFunc("GET /v1/notifications", s.handleNotifications)
	mux.HandleFunc("GET /v1/sync/status", s.handleSyncStatus)
	mux.HandleFunc("POST /v1/sync/trigger", s.handleSyncTrigger)

	return mux
}
