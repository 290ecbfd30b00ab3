package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"issuesync/internal/models"
)

const taskColumns = `id, project_id, title, status, notes, issue_type, issue_id, issue_number, issue_state,
	issue_url, issue_last_updated, issue_was_updated, backlog, sort_order, created_at, updated_at, closed_at`

// ListFilter narrows ListTasks results. Zero values do not filter.
type ListFilter struct {
	ProjectID string
	Statuses  []string
	Label     string
	IssueType *models.IssueType
	Backlog   *bool
	Limit     int
	Offset    int
}

// IssueUpdate carries remote issue fields copied onto a linked task.
type IssueUpdate struct {
	Title            string
	IssueState       string
	IssueURL         string
	IssueLastUpdated time.Time
	UpdatedAt        time.Time
}

// CreateTask inserts a task with optional labels. Backlog tasks are ordered
// according to placement; other tasks are appended.
func (s *Store) CreateTask(ctx context.Context, task *models.Task, labels []string, placement models.Placement) error {
	if task == nil {
		return fmt.Errorf("task is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	task.SortOrder, err = nextSortOrder(ctx, tx, task.ProjectID, task.Backlog, placement)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		task.ID,
		task.ProjectID,
		task.Title,
		task.Status,
		nullIfEmpty(task.Notes),
		string(task.IssueType),
		nullIfEmpty(task.IssueID),
		nullIfZero(task.IssueNumber),
		nullIfEmpty(task.IssueState),
		nullIfEmpty(task.IssueURL),
		nullTime(task.IssueLastUpdated),
		boolInt(task.IssueWasUpdated),
		boolInt(task.Backlog),
		task.SortOrder,
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
		nullTime(task.ClosedAt),
	)
	if err != nil {
		if isUniqueConstraint(err, "tasks.issue_id") {
			err = ErrIssueAlreadyLinked
		} else if isUniqueConstraint(err, "tasks.id") {
			err = fmt.Errorf("%w: %s", ErrTaskIDExists, task.ID)
		} else if isForeignKeyConstraint(err) {
			err = fmt.Errorf("project %s: %w", task.ProjectID, ErrNotFound)
		}
		return err
	}

	if err = insertLabels(ctx, tx, task.ID, labels); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	task.Labels = append([]string(nil), labels...)
	sort.Strings(task.Labels)
	return nil
}

func nextSortOrder(ctx context.Context, tx *sql.Tx, projectID string, backlog bool, placement models.Placement) (int, error) {
	agg := "COALESCE(MAX(sort_order), 0) + 1"
	if backlog && placement == models.PlacementTop {
		agg = "COALESCE(MIN(sort_order), 0) - 1"
	}
	var order int
	err := tx.QueryRowContext(ctx,
		"SELECT "+agg+" FROM tasks WHERE project_id = ? AND backlog = ?",
		projectID, boolInt(backlog),
	).Scan(&order)
	return order, err
}

// GetTask returns a task by id, or nil when it does not exist.
func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	task, err := scanTask(row)
	if err != nil || task == nil {
		return task, err
	}
	labels, err := s.ListLabels(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(labels) > 0 {
		task.Labels = labels
	}
	return task, nil
}

// ListTasks returns tasks matching the provided filter, with labels attached.
func (s *Store) ListTasks(ctx context.Context, filter ListFilter) ([]models.Task, error) {
	query, args := buildListQuery(filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachLabels(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// VisibleTasks returns the tasks shown in a work context: every task of the
// project for a project context, every task carrying the tag for a tag context.
func (s *Store) VisibleTasks(ctx context.Context, wc models.WorkContext) ([]models.Task, error) {
	switch wc.Type {
	case models.ContextProject:
		if wc.ID == "" {
			return []models.Task{}, nil
		}
		return s.ListTasks(ctx, ListFilter{ProjectID: wc.ID})
	case models.ContextTag:
		if wc.ID == "" {
			return []models.Task{}, nil
		}
		return s.ListTasks(ctx, ListFilter{Label: wc.ID})
	default:
		return []models.Task{}, nil
	}
}

// KnownIssueIDs returns the set of remote issue ids already linked to tasks of
// the project for the given issue type.
func (s *Store) KnownIssueIDs(ctx context.Context, projectID string, issueType models.IssueType) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT issue_id FROM tasks WHERE project_id = ? AND issue_type = ? AND issue_id IS NOT NULL",
		projectID, string(issueType),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	known := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		known[id] = struct{}{}
	}
	return known, rows.Err()
}

// UpdateIssueFields copies remote issue fields onto a task and marks it updated.
func (s *Store) UpdateIssueFields(ctx context.Context, id string, update IssueUpdate) error {
	if id == "" {
		return fmt.Errorf("id is required")
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, issue_state = ?, issue_url = ?, issue_last_updated = ?,
			issue_was_updated = 1, updated_at = ?
		WHERE id = ?
	`,
		update.Title,
		nullIfEmpty(update.IssueState),
		nullIfEmpty(update.IssueURL),
		nullTime(&update.IssueLastUpdated),
		formatTime(update.UpdatedAt),
		id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddLabels adds labels to a task.
func (s *Store) AddLabels(ctx context.Context, id string, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO task_labels (task_id, label) VALUES "+labelValues(len(labels)), labelArgs(id, labels)...)
	return err
}

// RemoveLabels removes labels from a task.
func (s *Store) RemoveLabels(ctx context.Context, id string, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	args := []any{id}
	for _, label := range labels {
		args = append(args, label)
	}
	query := fmt.Sprintf("DELETE FROM task_labels WHERE task_id = ? AND label IN (%s)", placeholders(len(labels)))
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// ListLabels returns labels for a task.
func (s *Store) ListLabels(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT label FROM task_labels WHERE task_id = ? ORDER BY label ASC", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	labels := []string{}
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

// ListLabelsForTasks returns labels mapped by task id.
func (s *Store) ListLabelsForTasks(ctx context.Context, ids []string) (map[string][]string, error) {
	labels := make(map[string][]string)
	if len(ids) == 0 {
		return labels, nil
	}

	query := fmt.Sprintf("SELECT task_id, label FROM task_labels WHERE task_id IN (%s)", placeholders(len(ids)))
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var taskID, label string
		if err := rows.Scan(&taskID, &label); err != nil {
			return nil, err
		}
		labels[taskID] = append(labels[taskID], label)
	}

	for _, list := range labels {
		sort.Strings(list)
	}

	return labels, rows.Err()
}

func (s *Store) attachLabels(ctx context.Context, tasks []models.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	byTask, err := s.ListLabelsForTasks(ctx, ids)
	if err != nil {
		return err
	}
	for i := range tasks {
		tasks[i].Labels = byTask[tasks[i].ID]
	}
	return nil
}

func scanTask(scanner interface {
	Scan(dest ...any) error
}) (*models.Task, error) {
	var task models.Task
	var issueType string
	var notes, issueID, issueState, issueURL, issueLastUpdated sql.NullString
	var issueNumber sql.NullInt64
	var wasUpdated, backlog int
	var createdAt, updatedAt string
	var closedAt sql.NullString

	if err := scanner.Scan(
		&task.ID,
		&task.ProjectID,
		&task.Title,
		&task.Status,
		&notes,
		&issueType,
		&issueID,
		&issueNumber,
		&issueState,
		&issueURL,
		&issueLastUpdated,
		&wasUpdated,
		&backlog,
		&task.SortOrder,
		&createdAt,
		&updatedAt,
		&closedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	task.Notes = notes.String
	task.IssueType = models.IssueType(issueType)
	task.IssueID = issueID.String
	task.IssueNumber = int(issueNumber.Int64)
	task.IssueState = issueState.String
	task.IssueURL = issueURL.String
	task.IssueWasUpdated = wasUpdated != 0
	task.Backlog = backlog != 0

	var err error
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if task.IssueLastUpdated, err = parseNullTime(issueLastUpdated); err != nil {
		return nil, err
	}
	if task.ClosedAt, err = parseNullTime(closedAt); err != nil {
		return nil, err
	}

	return &task, nil
}

func insertLabels(ctx context.Context, tx *sql.Tx, id string, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO task_labels (task_id, label) VALUES "+labelValues(len(labels)), labelArgs(id, labels)...)
	return err
}

func placeholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimRight(strings.Repeat("?,", count), ",")
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullIfZero(value int) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullTime(value *time.Time) any {
	if value == nil || value.IsZero() {
		return nil
	}
	return formatTime(*value)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}

func parseNullTime(value sql.NullString) (*time.Time, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	parsed, err := parseTime(value.String)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func labelValues(count int) string {
	values := make([]string, count)
	for i := 0; i < count; i++ {
		values[i] = "(?, ?)"
	}
	return strings.Join(values, ",")
}

func labelArgs(id string, labels []string) []any {
	args := make([]any, 0, len(labels)*2)
	for _, label := range labels {
		args = append(args, id, label)
	}
	return args
}
