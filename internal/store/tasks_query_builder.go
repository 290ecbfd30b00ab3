package store

import (
	"fmt"
	"strings"
)

type listQueryBuilder struct {
	filter ListFilter
	query  string
	args   []any
	where  []string
}

func buildListQuery(filter ListFilter) (string, []any) {
	builder := &listQueryBuilder{filter: filter}
	builder.query = "SELECT " + taskColumns + " FROM tasks"
	builder.buildWhere()
	builder.query += " ORDER BY project_id ASC, backlog ASC, sort_order ASC, created_at ASC"
	builder.buildPagination()
	return builder.query, builder.args
}

func (b *listQueryBuilder) buildWhere() {
	b.appendProject()
	b.appendStatuses()
	b.appendLabel()
	b.appendIssueType()
	b.appendBacklog()

	if len(b.where) == 0 {
		return
	}
	b.query += " WHERE " + strings.Join(b.where, " AND ")
}

func (b *listQueryBuilder) appendProject() {
	if b.filter.ProjectID == "" {
		return
	}
	b.where = append(b.where, "project_id = ?")
	b.args = append(b.args, b.filter.ProjectID)
}

func (b *listQueryBuilder) appendStatuses() {
	if len(b.filter.Statuses) == 0 {
		return
	}
	b.where = append(b.where, fmt.Sprintf("status IN (%s)", placeholders(len(b.filter.Statuses))))
	for _, status := range b.filter.Statuses {
		b.args = append(b.args, status)
	}
}

func (b *listQueryBuilder) appendLabel() {
	if b.filter.Label == "" {
		return
	}
	b.where = append(b.where, "id IN (SELECT task_id FROM task_labels WHERE label = ?)")
	b.args = append(b.args, b.filter.Label)
}

func (b *listQueryBuilder) appendIssueType() {
	if b.filter.IssueType == nil {
		return
	}
	b.where = append(b.where, "issue_type = ?")
	b.args = append(b.args, string(*b.filter.IssueType))
}

func (b *listQueryBuilder) appendBacklog() {
	if b.filter.Backlog == nil {
		return
	}
	b.where = append(b.where, "backlog = ?")
	b.args = append(b.args, boolInt(*b.filter.Backlog))
}

func (b *listQueryBuilder) buildPagination() {
	if b.filter.Limit > 0 {
		b.query += " LIMIT ?"
		b.args = append(b.args, b.filter.Limit)
	}
	if b.filter.Offset > 0 {
		if b.filter.Limit <= 0 {
			b.query += " LIMIT -1"
		}
		b.query += " OFFSET ?"
		b.args = append(b.args, b.filter.Offset)
	}
}
