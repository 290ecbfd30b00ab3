package main

import (
	"context"
	"errors"
	"net"

	"issuesync/internal/api"
)

// noProviderErrorCode is the server's numeric code for a project without a
// usable GitHub provider.
const noProviderErrorCode = 2007

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case "unauthorized":
			lines = append(lines, "hint: verify ISSUESYNC_API_TOKEN matches the server token.")
		case "resource_exhausted":
			lines = append(lines, "hint: too many failed auth attempts; wait a few minutes and retry.")
		case "provider_failed":
			lines = append(lines, "hint: GitHub rejected the request; check ISSUESYNC_GITHUB_TOKEN and the repo name.")
		}
		if apiErr.ErrorCode == noProviderErrorCode {
			lines = append(lines, "hint: enable GitHub for the project with: issuesync provider set <project> --repo owner/name")
		}
		if apiErr.Code == "" {
			lines = append(lines, "hint: verify ISSUESYNC_API_URL points to an issuesync server.")
		}
		if apiErr.Status >= 500 && apiErr.Code != "provider_failed" {
			lines = append(lines, "hint: server returned an internal error; check server logs for details.")
		}
		return uniqueLines(lines)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; check server health or increase ISSUESYNC_HTTP_TIMEOUT.")
		return uniqueLines(lines)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines,
			"hint: ensure an issuesync server is running at ISSUESYNC_API_URL.",
			"hint: start the server manually with: issuesync srv",
		)
		return uniqueLines(lines)
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
