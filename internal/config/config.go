package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"issuesync/internal/models"
)

const (
	DefaultAPIURL          = "http://127.0.0.1:7433"
	DefaultDBFileName      = ".issuesync.db"
	DefaultLogLevel        = "debug"
	DefaultGitHubAPIURL    = "https://api.github.com"
	DefaultGitHubTimeout   = 30 * time.Second
	DefaultInitialDelay    = 8 * time.Second
	DefaultPollInterval    = 5 * time.Minute
	DefaultRedisChannel    = "issuesync:notifications"
	DefaultBacklogPosition = string(models.PlacementBottom)

	FileName = ".issuesync.toml"

	configDirEnvKey          = "ISSUESYNC_CONFIG_DIR"
	trustProjectConfigEnvKey = "ISSUESYNC_TRUST_PROJECT_CONFIG"
	apiURLEnvKey             = "ISSUESYNC_API_URL"
	dbPathEnvKey             = "ISSUESYNC_DB"
	githubTokenEnvKey        = "ISSUESYNC_GITHUB_TOKEN"
	redisURLEnvKey           = "ISSUESYNC_REDIS_URL"
)

// Duration is a time.Duration written as a Go duration string ("5m").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := parseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// PollConfig tunes the poll scheduler.
type PollConfig struct {
	InitialDelay     Duration `toml:"initial_delay"`
	Interval         Duration `toml:"interval"`
	BacklogPlacement string   `toml:"backlog_placement"`
}

// GitHubConfig configures the GitHub REST client.
type GitHubConfig struct {
	APIURL  string   `toml:"api_url"`
	Token   string   `toml:"token"`
	Timeout Duration `toml:"timeout"`
}

// NotifyConfig configures optional notification sinks.
type NotifyConfig struct {
	RedisURL     string `toml:"redis_url"`
	RedisChannel string `toml:"redis_channel"`
}

// ProjectConfig declares a project and its GitHub provider in the config file.
type ProjectConfig struct {
	ID     string                 `toml:"id"`
	Name   string                 `toml:"name"`
	GitHub *models.ProviderConfig `toml:"github"`
}

// Config defines runtime configuration for issuesync.
type Config struct {
	APIURL                   string          `toml:"api_url"`
	DBPath                   string          `toml:"db_path"`
	LogLevel                 string          `toml:"log_level"`
	APITokenHash             string          `toml:"api_token_hash"`
	Poll                     PollConfig      `toml:"poll"`
	GitHub                   GitHubConfig    `toml:"github"`
	Notify                   NotifyConfig    `toml:"notify"`
	Projects                 []ProjectConfig `toml:"projects"`
	TrustedProjectConfigPath string          `toml:"-"`
	// Sources lists the config files that were read, in load order.
	Sources []string `toml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:   DefaultAPIURL,
		LogLevel: DefaultLogLevel,
		Poll: PollConfig{
			InitialDelay:     Duration{DefaultInitialDelay},
			Interval:         Duration{DefaultPollInterval},
			BacklogPlacement: DefaultBacklogPosition,
		},
		GitHub: GitHubConfig{
			APIURL:  DefaultGitHubAPIURL,
			Timeout: Duration{DefaultGitHubTimeout},
		},
		Notify: NotifyConfig{RedisChannel: DefaultRedisChannel},
	}
}

// Placement returns the configured backlog placement, defaulting to bottom.
func (c *Config) Placement() models.Placement {
	placement, err := models.ParsePlacement(c.Poll.BacklogPlacement)
	if err != nil {
		return models.PlacementBottom
	}
	return placement
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Sources = append(cfg.Sources, path)
	return true, nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, FileName), true
}

func trustProjectConfig() bool {
	raw := strings.TrimSpace(os.Getenv(trustProjectConfigEnvKey))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}

var allowedKeys = []string{
	"api_url",
	"db_path",
	"log_level",
	"api_token_hash",
	"poll.initial_delay",
	"poll.interval",
	"poll.backlog_placement",
	"github.api_url",
	"github.token",
	"github.timeout",
	"notify.redis_url",
	"notify.redis_channel",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "db_path":
		return c.DBPath, nil
	case "log_level":
		return c.LogLevel, nil
	case "api_token_hash":
		return c.APITokenHash, nil
	case "poll.initial_delay":
		return c.Poll.InitialDelay.String(), nil
	case "poll.interval":
		return c.Poll.Interval.String(), nil
	case "poll.backlog_placement":
		return c.Poll.BacklogPlacement, nil
	case "github.api_url":
		return c.GitHub.APIURL, nil
	case "github.token":
		if c.GitHub.Token == "" {
			return "", nil
		}
		return "<redacted>", nil
	case "github.timeout":
		return c.GitHub.Timeout.String(), nil
	case "notify.redis_url":
		return c.Notify.RedisURL, nil
	case "notify.redis_channel":
		return c.Notify.RedisChannel, nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, FileName), nil
}

// ProjectPath returns the path to the project config file.
func ProjectPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, FileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads config from trusted files and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			if err := loadFile(filepath.Join(home, FileName), &cfg); err != nil {
				return nil, err
			}
		}

		if trustProjectConfig() {
			if cwd, err := os.Getwd(); err == nil {
				projectPath := filepath.Join(cwd, FileName)
				loaded, err := loadFileIfExists(projectPath, &cfg)
				if err != nil {
					return nil, err
				}
				if loaded {
					cfg.TrustedProjectConfigPath = projectPath
				}
			}
		}
	}

	if cfg.DBPath == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfg.DBPath = filepath.Join(cwd, DefaultDBFileName)
		}
	}

	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if apiURL := os.Getenv(apiURLEnvKey); apiURL != "" {
		c.APIURL = apiURL
	}
	if dbPath := os.Getenv(dbPathEnvKey); dbPath != "" {
		c.DBPath = dbPath
	}
	if token := strings.TrimSpace(os.Getenv(githubTokenEnvKey)); token != "" {
		c.GitHub.Token = token
	}
	if redisURL := strings.TrimSpace(os.Getenv(redisURLEnvKey)); redisURL != "" {
		c.Notify.RedisURL = redisURL
	}
}

// Validate checks values that cannot be defaulted silently.
func (c *Config) Validate() error {
	if c.Poll.Interval.Duration <= 0 {
		return fmt.Errorf("poll.interval must be positive")
	}
	if c.Poll.InitialDelay.Duration < 0 {
		return fmt.Errorf("poll.initial_delay must not be negative")
	}
	if _, err := models.ParsePlacement(c.Poll.BacklogPlacement); err != nil {
		return fmt.Errorf("poll.backlog_placement: %w", err)
	}
	seen := make(map[string]struct{}, len(c.Projects))
	for i, project := range c.Projects {
		id, err := models.NormalizeProjectID(project.ID)
		if err != nil {
			return fmt.Errorf("projects[%d]: %w", i, err)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("projects[%d]: duplicate project id %s", i, id)
		}
		seen[id] = struct{}{}
		if project.GitHub != nil && project.GitHub.Repo != "" {
			if _, _, err := models.ParseRepo(project.GitHub.Repo); err != nil {
				return fmt.Errorf("projects[%d].github: %w", i, err)
			}
		}
	}
	return nil
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "poll.initial_delay", "poll.interval", "github.timeout":
		parsed, err := parseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return parsed.String(), nil
	case "poll.backlog_placement":
		placement, err := models.ParsePlacement(value)
		if err != nil {
			return nil, err
		}
		return string(placement), nil
	case "log_level":
		return strings.ToLower(value), nil
	default:
		return value, nil
	}
}

func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if seconds, err := strconv.Atoi(raw); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	return parsed, nil
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}
