package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	jsoniter "github.com/json-iterator/go"

	"github.com/masmgr/filehistory-go/internal/output"
	"github.com/masmgr/filehistory-go/internal/revlist"
)

func TestGetOutputFormat(t *testing.T) {
	tests := []struct {
		input string
		want  output.OutputFormat
	}{
		{input: "json", want: output.FormatJSON},
		{input: "csv", want: output.FormatCSV},
		{input: "markdown", want: output.FormatMarkdown},
		{input: "md", want: output.FormatMarkdown},
		{input: "ci", want: output.FormatCI},
		{input: "ndjson", want: output.FormatCI},
		{input: "", want: output.FormatConsole},
		{input: "unknown", want: output.FormatConsole},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := getOutputFormat(tt.input); got != tt.want {
				t.Fatalf("getOutputFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFailureNote(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "Nil", err: nil, want: ""},
		{name: "NoRepository", err: &revlist.WalkError{Kind: revlist.ErrNoRepository}, want: "not under version control"},
		{name: "Cancelled", err: &revlist.WalkError{Kind: revlist.ErrCancelled}, want: "history walk cancelled"},
		{name: "SourceUnavailable", err: &revlist.WalkError{Kind: revlist.ErrSourceUnavailable, Err: errors.New("git exited 128")}, want: "commit source unavailable: git exited 128"},
		{name: "Other", err: errors.New("bad exclude pattern"), want: "bad exclude pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := failureNote(tt.err); got != tt.want {
				t.Fatalf("failureNote() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAbsResources(t *testing.T) {
	got, err := absResources([]string{"a.go", "/tmp/b.go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range got {
		if !filepath.IsAbs(p) {
			t.Errorf("%q is not absolute", p)
		}
	}
}

// fixtureRepo creates a repository where main.go is edited by c1 and c3, and
// other.go by c2.
func fixtureRepo(t *testing.T) (dir string, ids []string) {
	t.Helper()
	dir = t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}

	epoch := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	steps := []struct{ file, content, msg string }{
		{"main.go", "package main\n", "add main"},
		{"other.go", "package main\n", "add other"},
		{"main.go", "package main\n\nfunc main() {}\n", "fix empty main"},
	}
	for i, s := range steps {
		if err := os.WriteFile(filepath.Join(dir, s.file), []byte(s.content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if _, err := wt.Add(s.file); err != nil {
			t.Fatalf("Add: %v", err)
		}
		sig := &object.Signature{Name: "Test", Email: "test@example.com", When: epoch.Add(time.Duration(i) * time.Hour)}
		hash, err := wt.Commit(s.msg, &gogit.CommitOptions{Author: sig, Committer: sig})
		if err != nil {
			t.Fatalf("Commit: %v", err)
		}
		ids = append(ids, hash.String())
	}
	return dir, ids
}

func runApp(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return App().Run(append([]string{"filehistory"}, args...))
}

func TestHistoryCommand_JSON(t *testing.T) {
	dir, ids := fixtureRepo(t)
	out := filepath.Join(t.TempDir(), "history.json")

	if err := runApp(t, "history", "--format", "json", "--output", out, filepath.Join(dir, "main.go")); err != nil {
		t.Fatalf("history failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var report output.JSONHistoryReport
	if err := jsoniter.Unmarshal(data, &report); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if report.Path != "main.go" || report.Mode != "full" {
		t.Errorf("unexpected report header %+v", report)
	}
	if len(report.Items) != 2 || report.Items[0].ID != ids[2] || report.Items[1].ID != ids[0] {
		t.Fatalf("unexpected items %+v", report.Items)
	}
	if !report.Items[0].Bugfix || report.Items[1].Bugfix {
		t.Errorf("bugfix labels = %v/%v, want true/false", report.Items[0].Bugfix, report.Items[1].Bugfix)
	}
}

func TestHistoryCommand_Single(t *testing.T) {
	dir, ids := fixtureRepo(t)
	out := filepath.Join(t.TempDir(), "single.json")

	if err := runApp(t, "history", "--single", "-f", "json", "-o", out, filepath.Join(dir, "main.go")); err != nil {
		t.Fatalf("history failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var report output.JSONHistoryReport
	if err := jsoniter.Unmarshal(data, &report); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if report.Mode != "single" || len(report.Items) != 1 || report.Items[0].ID != ids[2] {
		t.Fatalf("unexpected single report %+v", report)
	}
}

func TestHistoryCommand_Unversioned(t *testing.T) {
	out := filepath.Join(t.TempDir(), "none.json")
	resource := filepath.Join(t.TempDir(), "loose.txt")

	if err := runApp(t, "history", "-f", "json", "-o", out, resource); err != nil {
		t.Fatalf("history should not fail outside a repository: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var report output.JSONHistoryReport
	if err := jsoniter.Unmarshal(data, &report); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(report.Items) != 0 || report.Note != "not under version control" {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestHistoryCommand_Arguments(t *testing.T) {
	if err := runApp(t, "history"); err == nil {
		t.Error("expected an error without FILE")
	}
	if err := runApp(t, "history", "-o", "x.json", "a.go", "b.go"); err == nil {
		t.Error("expected an error for --output with several files")
	}
	if err := runApp(t, "history", "--order", "random", "a.go"); err == nil {
		t.Error("expected an error for an invalid order")
	}
}

func TestContributorsAndTargetsCommands(t *testing.T) {
	dir, ids := fixtureRepo(t)
	file := filepath.Join(dir, "main.go")

	out := filepath.Join(t.TempDir(), "contributors.json")
	if err := runApp(t, "contributors", "-f", "json", "-o", out, file, ids[2][:10]); err != nil {
		t.Fatalf("contributors failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var report output.JSONAncestryReport
	if err := jsoniter.Unmarshal(data, &report); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if report.Relation != "contributors" || report.Count != 1 || report.Items[0].ID != ids[0] {
		t.Fatalf("unexpected contributors %+v", report)
	}

	out = filepath.Join(t.TempDir(), "targets.json")
	if err := runApp(t, "targets", "-f", "json", "-o", out, file, ids[2]); err != nil {
		t.Fatalf("targets failed: %v", err)
	}
	data, err = os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	report = output.JSONAncestryReport{}
	if err := jsoniter.Unmarshal(data, &report); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if report.Count != 0 {
		t.Fatalf("newest revision should have no targets, got %d", report.Count)
	}
}

func TestShowCommand(t *testing.T) {
	dir, ids := fixtureRepo(t)
	out := filepath.Join(t.TempDir(), "show.json")

	if err := runApp(t, "show", "-f", "json", "-o", out, filepath.Join(dir, "main.go"), ids[0]); err != nil {
		t.Fatalf("show failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var report output.JSONRevisionReport
	if err := jsoniter.Unmarshal(data, &report); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if report.Revision.ID != ids[0] || report.Targets != 1 || report.Contributors != 0 {
		t.Fatalf("unexpected revision report %+v", report)
	}

	if err := runApp(t, "show", filepath.Join(dir, "main.go"), ids[1]); err == nil {
		t.Error("expected an error for a commit that did not change the file")
	}
}
