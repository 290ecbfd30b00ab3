package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"issuesync/internal/api"
	"issuesync/internal/events"
	"issuesync/internal/models"
	"issuesync/internal/store"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	s.writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req api.ProjectCreateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	id, err := normalizeProjectID(req.ID)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = id
	}

	now := time.Now().UTC()
	project := models.Project{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}
	if err := s.store.CreateProject(r.Context(), &project); err != nil {
		if errors.Is(err, store.ErrProjectExists) {
			s.writeServiceError(w, r, conflictCode(err, ErrCodeProjectExists))
			return
		}
		s.writeStoreError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathProjectOrBadRequest(w, r)
	if !ok {
		return
	}

	project, err := s.store.GetProject(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if project == nil {
		s.writeServiceError(w, r, notFoundCode(fmt.Errorf("project %s not found", id), ErrCodeProjectNotFound))
		return
	}
	s.writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleGetProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathProjectOrBadRequest(w, r)
	if !ok {
		return
	}

	cfg, err := s.store.ProviderConfig(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if cfg == nil {
		s.writeServiceError(w, r, notFoundCode(fmt.Errorf("project %s has no provider config", id), ErrCodeNoProvider))
		return
	}
	s.writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleSetProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathProjectOrBadRequest(w, r)
	if !ok {
		return
	}

	var req api.ProviderConfigRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	repo, err := normalizeRepo(req.Repo)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}
	if req.Enabled && repo == "" {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(fmt.Errorf("repo is required when enabled"), ErrCodeMissingRequired))
		return
	}

	cfg := models.ProviderConfig{
		ProjectID:        id,
		Enabled:          req.Enabled,
		AutoAddToBacklog: req.AutoAddToBacklog,
		AutoPoll:         req.AutoPoll,
		Repo:             repo,
		UpdatedAt:        time.Now().UTC(),
	}
	if err := s.store.SetProviderConfig(r.Context(), &cfg); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeServiceError(w, r, notFoundCode(fmt.Errorf("project %s not found", id), ErrCodeProjectNotFound))
			return
		}
		s.writeStoreError(w, r, err)
		return
	}

	s.publish(events.Event{Kind: events.ProviderConfigChanged, ProjectID: id})
	s.writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleGetContext(w http.ResponseWriter, r *http.Request) {
	wc, err := s.store.ActiveContext(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, wc)
}

func (s *Server) handleSetContext(w http.ResponseWriter, r *http.Request) {
	var req api.ContextRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	wc, err := normalizeContext(contextInput{Type: req.Type, ID: req.ID})
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}
	if wc.IsProject() {
		if err := s.service.requireProject(r.Context(), wc.ID); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	}

	if err := s.store.SetActiveContext(r.Context(), wc); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	s.publish(events.Event{Kind: events.ContextChanged, Context: wc})
	s.writeJSON(w, http.StatusOK, wc)
}
