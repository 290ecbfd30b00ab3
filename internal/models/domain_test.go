package models

import "testing"

func TestParseTaskStatus(t *testing.T) {
	got, err := ParseTaskStatus(" OPEN ")
	if err != nil {
		t.Fatalf("parse status: %v", err)
	}
	if got != StatusOpen {
		t.Fatalf("expected %q, got %q", StatusOpen, got)
	}

	if _, err := ParseTaskStatus("invalid"); err == nil {
		t.Fatal("expected invalid status error")
	}
}

func TestParseIssueType(t *testing.T) {
	got, err := ParseIssueType(" GitHub ")
	if err != nil {
		t.Fatalf("parse issue type: %v", err)
	}
	if got != IssueTypeGitHub {
		t.Fatalf("expected %q, got %q", IssueTypeGitHub, got)
	}

	got, err = ParseIssueType("")
	if err != nil || got != IssueTypeNone {
		t.Fatalf("expected empty issue type to be none, got %q err=%v", got, err)
	}

	if _, err := ParseIssueType("jira"); err == nil {
		t.Fatal("expected invalid issue type error")
	}
}

func TestParsePlacement(t *testing.T) {
	tests := []struct {
		raw     string
		want    Placement
		wantErr bool
	}{
		{raw: "", want: PlacementBottom},
		{raw: "bottom", want: PlacementBottom},
		{raw: " TOP ", want: PlacementTop},
		{raw: "middle", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParsePlacement(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("expected error for %q", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parse %q: %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("parse %q: expected %q, got %q", tt.raw, tt.want, got)
		}
	}
}

func TestNormalizeProjectID(t *testing.T) {
	got, err := NormalizeProjectID(" Web-App ")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got != "web-app" {
		t.Fatalf("expected web-app, got %q", got)
	}
	if _, err := NormalizeProjectID("has space"); err == nil {
		t.Fatal("expected invalid project id error")
	}
	if _, err := NormalizeProjectID(""); err == nil {
		t.Fatal("expected missing project id error")
	}
}

func TestParseRepo(t *testing.T) {
	owner, name, err := ParseRepo("octo-org/hello.world")
	if err != nil {
		t.Fatalf("parse repo: %v", err)
	}
	if owner != "octo-org" || name != "hello.world" {
		t.Fatalf("unexpected split: %q %q", owner, name)
	}

	for _, raw := range []string{"", "noslash", "/name", "owner/", "a/b/c"} {
		if _, _, err := ParseRepo(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestWorkContextIsProject(t *testing.T) {
	if !(WorkContext{Type: ContextProject, ID: "web"}).IsProject() {
		t.Fatal("expected project context")
	}
	if (WorkContext{Type: ContextTag, ID: "urgent"}).IsProject() {
		t.Fatal("tag context is not a project")
	}
	if (WorkContext{Type: ContextProject}).IsProject() {
		t.Fatal("project context without id is not a project")
	}
}
