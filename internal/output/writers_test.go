package output

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/masmgr/filehistory-go/internal/bugfix"
	"github.com/masmgr/filehistory-go/internal/git"
	"github.com/masmgr/filehistory-go/internal/history"
)

func TestNewRevisionItems(t *testing.T) {
	src := git.NewMemorySource()
	src.Add(git.CommitNode{ID: "a1", When: testEpoch, Author: git.AuthorInfo{Name: "dev"}, Message: "add main"}, "main.go")
	src.Add(git.CommitNode{ID: "b2", ParentIDs: []string{"a1"}, When: testEpoch.Add(time.Hour), Author: git.AuthorInfo{Name: "dev"}, Message: "fix crash\n\ndetails"}, "main.go")

	h := history.Build(context.Background(), src, "main.go", history.Full, history.Options{})
	if h.Err() != nil {
		t.Fatalf("Build failed: %v", h.Err())
	}

	detector, err := bugfix.NewDetector([]string{`\bfix`})
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}
	nodes := make([]git.CommitNode, 0, h.Len())
	for _, rev := range h.FileRevisions() {
		nodes = append(nodes, rev.Commit())
	}

	items := NewRevisionItems(h.FileRevisions(), detector.Detect(nodes))
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != "b2" || items[0].Subject != "fix crash" || !items[0].IsBugfix {
		t.Errorf("unexpected newest item %+v", items[0])
	}
	if items[1].ID != "a1" || items[1].IsBugfix || len(items[1].Parents) != 0 {
		t.Errorf("unexpected oldest item %+v", items[1])
	}

	if item := NewRevisionItem(h.Latest(), nil); item.IsBugfix {
		t.Error("IsBugfix should be false without a bugfix result")
	}
}

func TestJSONHistoryWriter_Write(t *testing.T) {
	report := &HistoryReport{
		Resource:    "/repo/main.go",
		Path:        "main.go",
		Ref:         "HEAD",
		Flags:       history.SingleRevision,
		GeneratedAt: testEpoch,
		Items:       testItems(),
	}

	tmpFile := t.TempDir() + "/history.json"
	if err := (&JSONHistoryWriter{}).Write(report, OutputOptions{Top: 2, OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := readTestFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	var got JSONHistoryReport
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if got.Mode != "single" || got.TotalRevisions != 3 || len(got.Items) != 2 {
		t.Errorf("unexpected report mode=%s total=%d items=%d", got.Mode, got.TotalRevisions, len(got.Items))
	}
	if got.Items[0].Parents[1] != "aaaa0000" || !got.Items[0].Merge {
		t.Errorf("unexpected first item %+v", got.Items[0])
	}
	if got.Items[1].Timestamp != "2026-02-10T10:00:00Z" {
		t.Errorf("Timestamp = %q", got.Items[1].Timestamp)
	}
}

func TestJSONRevisionWriter_Write(t *testing.T) {
	item := testItems()[2]
	item.Message = "add file\n\nlong body"
	report := &RevisionReport{Path: "main.go", Revision: item, Contributors: 0, Targets: 2, GeneratedAt: testEpoch}

	tmpFile := t.TempDir() + "/revision.json"
	if err := (&JSONRevisionWriter{}).Write(report, OutputOptions{OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := readTestFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	var got JSONRevisionReport
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if got.Targets != 2 || got.Message != item.Message {
		t.Errorf("unexpected report %+v", got)
	}
	if got.Revision.Parents == nil {
		t.Error("Parents should encode as an empty array")
	}
}

func TestCSVAncestryWriter_Write(t *testing.T) {
	items := testItems()
	report := &AncestryReport{Path: "main.go", Relation: RelationTargets, Revision: items[2], Items: items[:2]}

	tmpFile := t.TempDir() + "/targets.csv"
	if err := (&CSVAncestryWriter{}).Write(report, OutputOptions{OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := readTestFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if records[0][0] != "ID" {
		t.Errorf("header = %v", records[0])
	}
	if records[1][5] != "bbbb0000 aaaa0000" || records[1][6] != "true" {
		t.Errorf("unexpected merge row %v", records[1])
	}
	if records[2][7] != "true" {
		t.Errorf("unexpected bugfix row %v", records[2])
	}
}

func TestMarkdownHistoryWriter_Write(t *testing.T) {
	report := &HistoryReport{Resource: "/repo/my_file.go", Path: "my_file.go", Items: testItems()}

	tmpFile := t.TempDir() + "/history.md"
	if err := (&MarkdownHistoryWriter{}).Write(report, OutputOptions{OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := readTestFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	out := string(data)
	for _, want := range []string{"# History of my\\_file.go", "| 2 | `bbbb0000` | 2026-02-10 10:00 | dev | fix: nil deref | yes |", "**Revisions:** 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConsoleHistoryWriter_Empty(t *testing.T) {
	report := &HistoryReport{Resource: "/tmp/x.go", Note: "not under version control"}

	tmpFile := t.TempDir() + "/history.txt"
	if err := (&ConsoleHistoryWriter{}).Write(report, OutputOptions{OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := readTestFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "Revisions: 0") || !strings.Contains(out, "not under version control") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestConsoleAncestryWriter_Write(t *testing.T) {
	items := testItems()
	report := &AncestryReport{Path: "main.go", Relation: RelationContributors, Revision: items[0], Items: items[1:]}

	tmpFile := t.TempDir() + "/ancestry.txt"
	if err := (&ConsoleAncestryWriter{}).Write(report, OutputOptions{OutputPath: tmpFile, DateLayout: "2006-01-02"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := readTestFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	out := string(data)
	for _, want := range []string{"Contributors of cccc0000", "Count: 2", "aaaa0000", "2026-02-10"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
