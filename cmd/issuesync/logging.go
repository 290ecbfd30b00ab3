package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"issuesync/internal/config"
)

const (
	logLevelEnvKey  = "ISSUESYNC_LOG_LEVEL"
	logFormatEnvKey = "ISSUESYNC_LOG_FORMAT"
)

// configureLoggerForCLI installs the default logger. Flag wins over env, env
// over config. A bad flag is an error; a bad env or config value falls back to
// the default level and returns a warning line for stderr.
func configureLoggerForCLI(flagLevel, configLevel string) (string, error) {
	envLevel := os.Getenv(logLevelEnvKey)
	rawLevel, source := selectedLogLevel(flagLevel, envLevel, configLevel)
	level, err := parseLogLevel(rawLevel)
	if err == nil {
		slog.SetDefault(newLogger(os.Stderr, level, os.Getenv(logFormatEnvKey)))
		return "", nil
	}

	if source == "flag" {
		return "", fmt.Errorf("invalid --log-level %q", flagLevel)
	}
	slog.SetDefault(newLogger(os.Stderr, slog.LevelDebug, os.Getenv(logFormatEnvKey)))
	switch source {
	case "env":
		return fmt.Sprintf("warning: invalid %s=%q; defaulting to %s", logLevelEnvKey, envLevel, config.DefaultLogLevel), nil
	case "config":
		return fmt.Sprintf("warning: invalid log_level=%q; defaulting to %s", configLevel, config.DefaultLogLevel), nil
	default:
		return "", nil
	}
}

func selectedLogLevel(flagLevel, envLevel, configLevel string) (string, string) {
	if strings.TrimSpace(flagLevel) != "" {
		return flagLevel, "flag"
	}
	if strings.TrimSpace(envLevel) != "" {
		return envLevel, "env"
	}
	if strings.TrimSpace(configLevel) != "" {
		return configLevel, "config"
	}
	return "", "default"
}

func parseLogLevel(raw string) (slog.Level, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return slog.LevelDebug, nil
	}
	if strings.EqualFold(value, "warning") {
		value = "warn"
	}

	if numeric, err := strconv.Atoi(value); err == nil {
		return slog.Level(numeric), nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelDebug, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}

// newLogger builds a text logger, or a JSON logger when logFormat is "json".
func newLogger(w io.Writer, level slog.Level, logFormat string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(strings.TrimSpace(logFormat), "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
