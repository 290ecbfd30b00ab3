package server

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"issuesync/internal/models"
)

var idRegex = regexp.MustCompile(`^[a-z]{2}-[0-9a-z]{4,8}$`)

func validateID(id string) bool {
	return idRegex.MatchString(id)
}

func normalizeStatus(value string) (string, error) {
	status, err := models.ParseTaskStatus(value)
	if err != nil {
		return "", badRequestCode(err, ErrCodeInvalidStatus)
	}
	return string(status), nil
}

func normalizeProjectID(value string) (string, error) {
	id, err := models.NormalizeProjectID(value)
	if err != nil {
		return "", badRequestCode(err, ErrCodeInvalidProject)
	}
	return id, nil
}

func normalizeRepo(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	owner, name, err := models.ParseRepo(value)
	if err != nil {
		return "", badRequestCode(err, ErrCodeInvalidRepo)
	}
	return owner + "/" + name, nil
}

func normalizeLabel(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", badRequestCode(fmt.Errorf("label is required"), ErrCodeMissingRequired)
	}
	for _, r := range value {
		if r > unicode.MaxASCII || unicode.IsSpace(r) {
			return "", badRequestCode(fmt.Errorf("label must be ascii and non-space"), ErrCodeInvalidLabel)
		}
	}
	return strings.ToLower(value), nil
}

func normalizeLabels(values []string) ([]string, error) {
	labels := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, value := range values {
		label, err := normalizeLabel(value)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels, nil
}

func normalizeContext(req contextInput) (models.WorkContext, error) {
	contextType, err := models.ParseWorkContextType(req.Type)
	if err != nil {
		return models.WorkContext{}, badRequestCode(err, ErrCodeInvalidContext)
	}
	switch contextType {
	case models.ContextProject:
		id, err := normalizeProjectID(req.ID)
		if err != nil {
			return models.WorkContext{}, err
		}
		return models.WorkContext{Type: contextType, ID: id}, nil
	default:
		label, err := normalizeLabel(req.ID)
		if err != nil {
			return models.WorkContext{}, err
		}
		return models.WorkContext{Type: contextType, ID: label}, nil
	}
}

type contextInput struct {
	Type string
	ID   string
}
