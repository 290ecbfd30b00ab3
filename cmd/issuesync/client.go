package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"time"

	"github.com/cenkalti/backoff/v4"

	"issuesync/internal/api"
	"issuesync/internal/config"
)

const (
	serverStartTimeout = 5 * time.Second
	serverPollInterval = 100 * time.Millisecond
)

func withClient(cfg *config.Config, fn func(*api.Client) error) error {
	cleanup, err := ensureServer(cfg)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	client := api.NewClient(cfg.APIURL)
	return fn(client)
}

// ensureServer starts a short-lived server when none answers at the API URL.
// The returned cleanup stops it again.
func ensureServer(cfg *config.Config) (func(), error) {
	client := api.NewClient(cfg.APIURL)
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if err := client.Ping(ctx); err == nil {
		return nil, nil
	}

	cmd, err := startServerProcess(cfg)
	if err != nil {
		return nil, err
	}

	if err := waitForServer(client, serverStartTimeout); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}

	cleanup := func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}

	return cleanup, nil
}

func startServerProcess(cfg *config.Config) (*exec.Cmd, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(exe, "srv")
	cmd.Env = append(os.Environ(),
		"ISSUESYNC_DB="+cfg.DBPath,
		"ISSUESYNC_API_URL="+cfg.APIURL,
	)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func waitForServer(client *api.Client, timeout time.Duration) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = serverPollInterval
	policy.MaxInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = timeout

	err := backoff.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		err := client.Ping(ctx)
		if err != nil && !isConnRefused(err) {
			// Port is in use but the API is not ours.
			return backoff.Permanent(err)
		}
		return err
	}, policy)
	if err == nil {
		return nil
	}
	if isConnRefused(err) {
		return fmt.Errorf("server did not start in time: %w", err)
	}
	return err
}

func isConnRefused(err error) bool {
	var netErr *net.OpError
	return errors.As(err, &netErr)
}
