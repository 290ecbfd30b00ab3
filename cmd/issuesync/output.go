package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"issuesync/internal/format"
	"issuesync/internal/models"
	"issuesync/internal/notify"
	"issuesync/internal/poll"
)

var outputFormatter format.Formatter = format.JSONFormatter{}

// writeStructured writes payload with the selected structured formatter.
func writeStructured(payload any) error {
	return outputFormatter.Write(os.Stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

func writeTaskList(tasks []models.Task) error {
	for _, task := range tasks {
		if err := writePlain("%s\n", formatTaskLine(task)); err != nil {
			return err
		}
	}
	return nil
}

func writeTaskDetail(task models.Task) error {
	lines := []string{
		fmt.Sprintf("id: %s", task.ID),
		fmt.Sprintf("project: %s", task.ProjectID),
		fmt.Sprintf("title: %s", task.Title),
		fmt.Sprintf("status: %s", task.Status),
		fmt.Sprintf("backlog: %t", task.Backlog),
		fmt.Sprintf("created_at: %s", formatTime(task.CreatedAt)),
		fmt.Sprintf("updated_at: %s", formatTime(task.UpdatedAt)),
	}

	if task.IssueType != models.IssueTypeNone {
		lines = append(lines, fmt.Sprintf("issue: %s #%d (%s)", task.IssueType, task.IssueNumber, task.IssueState))
		if task.IssueURL != "" {
			lines = append(lines, fmt.Sprintf("issue_url: %s", task.IssueURL))
		}
		if task.IssueLastUpdated != nil {
			lines = append(lines, fmt.Sprintf("issue_last_updated: %s", formatTime(*task.IssueLastUpdated)))
		}
		if task.IssueWasUpdated {
			lines = append(lines, "issue_was_updated: true")
		}
	}
	if task.Notes != "" {
		lines = append(lines, fmt.Sprintf("notes: %s", task.Notes))
	}
	if task.ClosedAt != nil {
		lines = append(lines, fmt.Sprintf("closed_at: %s", formatTime(*task.ClosedAt)))
	}
	if len(task.Labels) > 0 {
		lines = append(lines, fmt.Sprintf("labels: %s", strings.Join(task.Labels, ", ")))
	}

	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func formatTaskLine(task models.Task) string {
	marker := "○"
	switch models.TaskStatus(task.Status) {
	case models.StatusInProgress:
		marker = "◐"
	case models.StatusDone:
		marker = "●"
	}
	line := fmt.Sprintf("%s %s [%s] - %s", marker, task.ID, task.ProjectID, task.Title)
	if task.IssueNumber > 0 {
		line += fmt.Sprintf(" (#%d)", task.IssueNumber)
	}
	if task.IssueWasUpdated {
		line += " *"
	}
	return line
}

func formatProjectLine(project models.Project) string {
	if project.Name == "" || project.Name == project.ID {
		return project.ID
	}
	return fmt.Sprintf("%s - %s", project.ID, project.Name)
}

func writeProvider(cfg models.ProviderConfig) error {
	return writePlain("project: %s\nrepo: %s\nenabled: %t\nauto_add_to_backlog: %t\nauto_poll: %t\n",
		cfg.ProjectID, cfg.Repo, cfg.Enabled, cfg.AutoAddToBacklog, cfg.AutoPoll)
}

func formatContext(wc models.WorkContext) string {
	if wc.IsZero() {
		return "(none)"
	}
	return fmt.Sprintf("%s:%s", wc.Type, wc.ID)
}

func formatNotificationLine(n notify.Notification) string {
	return fmt.Sprintf("%s %s", n.CreatedAt.Local().Format("15:04:05"), n.Message)
}

func formatPipelineLine(p poll.PipelineStatus) string {
	line := fmt.Sprintf("%s: %s (generation %d, ticks %d)", p.Pipeline, p.State, p.Generation, p.Ticks)
	if p.LastTick != nil {
		line += fmt.Sprintf(" last tick %s", formatTime(*p.LastTick))
	}
	if p.LastError != "" {
		line += fmt.Sprintf(" error: %s", p.LastError)
	}
	return line
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
