package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"issuesync/internal/config"
	"issuesync/internal/events"
	"issuesync/internal/github"
	"issuesync/internal/notify"
	"issuesync/internal/poll"
	"issuesync/internal/server"
	"issuesync/internal/store"
)

const (
	notificationCapacity = 200
	configLookupLimit    = 8
	taskRefreshLimit     = 4
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the issuesync API server and GitHub poller",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("db path is required")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg, slog.Default())
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config, baseLogger *slog.Logger) error {
	logger := baseLogger.With("component", "server")

	addr, err := server.ListenAddr(cfg.APIURL)
	if err != nil {
		return err
	}

	logger.Info("opening database", "path", cfg.DBPath)
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if _, err := config.ApplyProjects(ctx, st, cfg.Projects, time.Now()); err != nil {
		return err
	}

	memory := notify.NewMemory(notificationCapacity)
	notifier, closeNotifier, err := buildNotifier(ctx, cfg, memory, baseLogger)
	if err != nil {
		return err
	}
	defer closeNotifier()

	ghClient := github.NewClient(cfg.GitHub.Token).
		WithBaseURL(cfg.GitHub.APIURL).
		WithHTTPClient(&http.Client{Timeout: cfg.GitHub.Timeout.Duration})
	fetcher := github.NewFetcher(ghClient)
	if cfg.GitHub.Token == "" {
		logger.Warn("no github token configured; requests are unauthenticated and rate limited")
	}

	service := server.NewTaskService(st, fetcher, notifier, baseLogger)
	deps := poll.Deps{
		Contexts:     st,
		Configs:      st,
		Fetcher:      fetcher,
		Tasks:        service,
		Notifier:     notifier,
		Logger:       baseLogger,
		Placement:    cfg.Placement(),
		LookupLimit:  configLookupLimit,
		RefreshLimit: taskRefreshLimit,
	}
	scheduler := poll.NewScheduler(
		poll.SchedulerConfig{InitialDelay: cfg.Poll.InitialDelay.Duration, Interval: cfg.Poll.Interval.Duration},
		st,
		poll.BacklogTick(poll.NewImporter(deps)),
		poll.RefreshTick(poll.NewRefresher(deps)),
		baseLogger,
	)

	bus := events.NewBus()
	triggers, unsubscribe := bus.Subscribe()
	defer unsubscribe()
	defer func() {
		if dropped := bus.Dropped(); dropped > 0 {
			logger.Warn("trigger events dropped", "count", dropped)
		}
	}()

	srv := server.New(server.Options{
		Addr:          addr,
		DBPath:        cfg.DBPath,
		Store:         st,
		Issues:        fetcher,
		Notifier:      notifier,
		Service:       service,
		Notifications: memory,
		Bus:           bus,
		Sync:          scheduler,
		APITokenHash:  cfg.APITokenHash,
		Logger:        logger,
	})
	watcher := config.NewWatcher(cfg.Sources, baseLogger, reloadProjects(st, bus, baseLogger))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCanceled(scheduler.Run(gctx, triggers))
	})
	g.Go(func() error {
		return watcher.Run(gctx)
	})
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})
	return g.Wait()
}

// buildNotifier logs every notification and keeps it for the API. Redis is
// added when a URL is configured.
func buildNotifier(ctx context.Context, cfg *config.Config, memory *notify.Memory, logger *slog.Logger) (notify.Notifier, func(), error) {
	sinks := notify.Multi{notify.NewLogSink(logger), memory}
	if cfg.Notify.RedisURL == "" {
		return sinks, func() {}, nil
	}

	redisSink, err := notify.DialRedis(ctx, cfg.Notify.RedisURL, cfg.Notify.RedisChannel, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("publishing notifications to redis", "channel", redisSink.Channel())
	sinks = append(sinks, redisSink)
	return sinks, func() { _ = redisSink.Close() }, nil
}

// reloadProjects re-reads config after a file change. Each provider it
// writes re-arms polling.
func reloadProjects(w config.ProjectWriter, bus *events.Bus, logger *slog.Logger) func(context.Context) {
	logger = logger.With("component", "config_reload")
	return func(ctx context.Context) {
		next, err := config.Load()
		if err != nil {
			logger.Warn("config reload failed", "error", err)
			return
		}
		written, err := config.ApplyProjects(ctx, w, next.Projects, time.Now())
		if err != nil {
			logger.Warn("applying reloaded projects failed", "error", err)
		}
		for _, projectID := range written {
			bus.Publish(events.Event{Kind: events.ProviderConfigChanged, ProjectID: projectID, At: time.Now().UTC()})
		}
		logger.Info("config reloaded", "projects", len(next.Projects), "providers", len(written))
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
