package server

import (
	"context"
	"net/http"
	"strings"

	"issuesync/internal/api"
	"issuesync/internal/models"
	"issuesync/internal/store"
)

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req api.TaskCreateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	task, err := s.service.Create(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}

	task, err := s.service.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	tasks, err := s.service.List(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleRefreshTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	force, err := queryBool(r, "force")
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	task, updated, err := s.service.RefreshTaskByID(r.Context(), id, force)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.RefreshResponse{Task: task, Updated: updated})
}

func (s *Server) handleAddTaskLabels(w http.ResponseWriter, r *http.Request) {
	s.handleTaskLabels(w, r, s.service.AddLabels)
}

func (s *Server) handleRemoveTaskLabels(w http.ResponseWriter, r *http.Request) {
	s.handleTaskLabels(w, r, s.service.RemoveLabels)
}

func (s *Server) handleTaskLabels(w http.ResponseWriter, r *http.Request, apply func(context.Context, string, []string) ([]string, error)) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}

	var req api.LabelsRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	labels, err := apply(r.Context(), id, req.Labels)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, labels)
}

func parseListFilter(r *http.Request) (store.ListFilter, error) {
	var filter store.ListFilter
	query := r.URL.Query()

	if project := strings.TrimSpace(query.Get("project")); project != "" {
		id, err := normalizeProjectID(project)
		if err != nil {
			return filter, err
		}
		filter.ProjectID = id
	}
	if label := strings.TrimSpace(query.Get("label")); label != "" {
		normalized, err := normalizeLabel(label)
		if err != nil {
			return filter, err
		}
		filter.Label = normalized
	}
	for _, raw := range splitCSV(query.Get("status")) {
		status, err := normalizeStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	if raw := strings.TrimSpace(query.Get("issue_type")); raw != "" {
		issueType, err := models.ParseIssueType(raw)
		if err != nil {
			return filter, badRequestCode(err, ErrCodeInvalidQuery)
		}
		filter.IssueType = &issueType
	}

	backlog, err := queryOptionalBool(r, "backlog")
	if err != nil {
		return filter, err
	}
	filter.Backlog = backlog

	if filter.Limit, err = queryIntDefault(r, "limit", 0); err != nil {
		return filter, err
	}
	if filter.Offset, err = queryIntDefault(r, "offset", 0); err != nil {
		return filter, err
	}
	return filter, nil
}
