package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"issuesync/internal/events"
	"issuesync/internal/notify"
	"issuesync/internal/poll"
	"issuesync/internal/store"
)

const (
	apiTokenEnvKey    = "ISSUESYNC_API_TOKEN"
	allowRemoteEnvKey = "ISSUESYNC_ALLOW_REMOTE"
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Store is the storage surface the API needs.
type Store interface {
	store.TaskStore
	store.ProjectStore
	StoreInfo(ctx context.Context) (store.Info, error)
}

// SyncStatus reports the poll scheduler's pipelines.
type SyncStatus interface {
	Status() []poll.PipelineStatus
}

// Options wires a Server to its collaborators.
type Options struct {
	Addr          string
	DBPath        string
	Store         Store
	Issues        IssueLookup
	Notifier      notify.Notifier
	// Service overrides the task service built from Store, Issues and Notifier.
	Service       *TaskService
	Notifications *notify.Memory
	Bus           *events.Bus
	Sync          SyncStatus
	APITokenHash  string
	Logger        *slog.Logger
}

// Server wraps HTTP handlers for the issuesync API.
type Server struct {
	addr          string
	dbPath        string
	store         Store
	service       *TaskService
	notifications *notify.Memory
	bus           *events.Bus
	sync          SyncStatus
	logger        *slog.Logger
	apiToken      string
	apiTokenHash  string
	authLimiter   *authLimiter
}

// New creates a new server instance.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	service := opts.Service
	if service == nil {
		service = NewTaskService(opts.Store, opts.Issues, opts.Notifier, logger)
	}

	return &Server{
		addr:          opts.Addr,
		dbPath:        opts.DBPath,
		store:         opts.Store,
		service:       service,
		notifications: opts.Notifications,
		bus:           opts.Bus,
		sync:          opts.Sync,
		logger:        logger,
		apiToken:      strings.TrimSpace(os.Getenv(apiTokenEnvKey)),
		apiTokenHash:  strings.TrimSpace(opts.APITokenHash),
		authLimiter:   newAuthLimiter(authMaxFailures, authWindow, authBlockFor),
	}
}

// Service returns the task service shared with the poll pipelines.
func (s *Server) Service() *TaskService {
	return s.service
}

// ListenAndServe serves the API until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.log().Info("starting server", "addr", s.addr)
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handler() http.Handler {
	return s.withRequestLogging(s.withAuth(s.routes()))
}

// ListenAddr converts a base API URL into a listen address.
func ListenAddr(apiURL string) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(apiURL)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}

	return apiURL, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

func (s *Server) publish(ev events.Event) {
	if s.bus == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	s.bus.Publish(ev)
}
