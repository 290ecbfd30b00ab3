package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	busyTimeoutMS   = 5000
	maxOpenConns    = 1
	maxIdleConns    = 1
	connMaxLifetime = 5 * time.Minute
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrIssueAlreadyLinked is returned when a project already has a task for a remote issue.
	ErrIssueAlreadyLinked = errors.New("issue already linked to a task in this project")
	// ErrProjectExists is returned when creating a project whose id is taken.
	ErrProjectExists = errors.New("project already exists")
	// ErrTaskIDExists is returned when a generated task id collides.
	ErrTaskIDExists = errors.New("task id already exists")
)

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Info summarizes store contents for the info endpoint.
type Info struct {
	SchemaVersion int            `json:"schema_version"`
	Projects      int            `json:"projects"`
	TotalTasks    int            `json:"total_tasks"`
	TaskCounts    map[string]int `json:"task_counts"`
}

// Open opens the SQLite database and applies pending migrations.
func Open(path string) (*Store, error) {
	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := configureDB(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// TaskExists checks whether a task exists by id.
func (s *Store) TaskExists(id string) (bool, error) {
	var exists int
	err := s.db.QueryRow("SELECT 1 FROM tasks WHERE id = ? LIMIT 1", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// StoreInfo reports schema version and row counts.
func (s *Store) StoreInfo(ctx context.Context) (Info, error) {
	info := Info{TaskCounts: map[string]int{}}

	version, err := currentVersion(s.db)
	if err != nil {
		return info, err
	}
	info.SchemaVersion = version

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&info.Projects); err != nil {
		return info, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM tasks GROUP BY status")
	if err != nil {
		return info, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return info, err
		}
		info.TaskCounts[status] = count
		info.TotalTasks += count
	}
	return info, rows.Err()
}

func configureDB(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA foreign_keys = ON;",
		fmt.Sprintf("PRAGMA busy_timeout = %d;", busyTimeoutMS),
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	// A single connection serializes writes from the poll pipelines and the API.
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	return nil
}

func sqliteDSN(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("db path is required")
	}
	u := url.URL{Scheme: "file", Path: path}
	return u.String(), nil
}

func isUniqueConstraint(err error, target string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") && strings.Contains(err.Error(), target)
}

func isForeignKeyConstraint(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
