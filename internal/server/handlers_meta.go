package server

import (
	"fmt"
	"net/http"

	"issuesync/internal/api"
	"issuesync/internal/events"
	"issuesync/internal/notify"
	"issuesync/internal/poll"
)

const defaultNotificationLimit = 50

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.store.StoreInfo(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	wc, err := s.store.ActiveContext(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	resp := api.InfoResponse{
		DBPath:        s.dbPath,
		SchemaVersion: info.SchemaVersion,
		Projects:      info.Projects,
		TaskCounts:    info.TaskCounts,
		TotalTasks:    info.TotalTasks,
		ActiveContext: wc,
		AuthRequired:  s.authRequired(),
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := queryIntDefault(r, "limit", defaultNotificationLimit)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	list := []notify.Notification{}
	if s.notifications != nil {
		list = s.notifications.List(limit)
	}
	s.writeJSON(w, http.StatusOK, api.NotificationsResponse{Notifications: list})
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	pipelines := []poll.PipelineStatus{}
	if s.sync != nil {
		pipelines = s.sync.Status()
	}
	s.writeJSON(w, http.StatusOK, api.SyncStatusResponse{Pipelines: pipelines})
}

func (s *Server) handleSyncTrigger(w http.ResponseWriter, r *http.Request) {
	if s.bus == nil {
		s.writeServiceError(w, r, unavailable(fmt.Errorf("poll scheduler is not running")))
		return
	}
	s.publish(events.Event{Kind: events.ManualTrigger})
	s.writeJSON(w, http.StatusAccepted, api.SyncTriggerResponse{Triggered: true})
}
