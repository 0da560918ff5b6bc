package output

import (
	"fmt"
	"io"
	"time"
)

// CIHistoryWriter writes history reports as NDJSON (one JSON object per line) for CI pipelines.
type CIHistoryWriter struct{}

// CISummary is the first line of CI output, containing aggregate statistics.
type CISummary struct {
	Type        string `json:"type"`
	Path        string `json:"path"`
	Relation    string `json:"relation,omitempty"`
	Revision    string `json:"revision,omitempty"`
	Total       int    `json:"total"`
	Bugfixes    int    `json:"bugfixes"`
	Merges      int    `json:"merges"`
	Newest      string `json:"newest,omitempty"`
	Oldest      string `json:"oldest,omitempty"`
	Note        string `json:"note,omitempty"`
	GeneratedAt string `json:"generatedAt"`
}

// CIRevisionEntry represents a single revision in CI output.
type CIRevisionEntry struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Author    string `json:"author"`
	Subject   string `json:"subject"`
	Bugfix    bool   `json:"bugfix"`
}

// Write outputs the history report as NDJSON.
func (w *CIHistoryWriter) Write(report *HistoryReport, options OutputOptions) error {
	summary := newCISummary(report.Items)
	summary.Path = report.Path
	summary.Note = report.Note
	summary.GeneratedAt = report.GeneratedAt.Format(time.RFC3339)
	return writeCIRevisions(summary, limitTop(report.Items, options.Top), options.OutputPath)
}

// CIAncestryWriter writes ancestry reports as NDJSON.
type CIAncestryWriter struct{}

// Write outputs the ancestry report as NDJSON.
func (w *CIAncestryWriter) Write(report *AncestryReport, options OutputOptions) error {
	summary := newCISummary(report.Items)
	summary.Path = report.Path
	summary.Relation = string(report.Relation)
	summary.Revision = report.Revision.ID
	summary.GeneratedAt = report.GeneratedAt.Format(time.RFC3339)
	return writeCIRevisions(summary, limitTop(report.Items, options.Top), options.OutputPath)
}

func newCISummary(items []RevisionItem) CISummary {
	summary := CISummary{Type: "summary", Total: len(items)}
	for _, item := range items {
		if item.IsBugfix {
			summary.Bugfixes++
		}
		if item.IsMerge {
			summary.Merges++
		}
	}
	if len(items) > 0 {
		summary.Newest = items[0].ID
		summary.Oldest = items[len(items)-1].ID
	}
	return summary
}

func writeCIRevisions(summary CISummary, items []RevisionItem, outputPath string) error {
	out, file, err := openOutputWriter(outputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	if err := writeNDJSONLine(out, summary); err != nil {
		return err
	}

	for _, item := range items {
		entry := CIRevisionEntry{
			Type:      "revision",
			ID:        item.ID,
			Timestamp: item.Timestamp.Format(time.RFC3339),
			Author:    item.Author.String(),
			Subject:   item.Subject,
			Bugfix:    item.IsBugfix,
		}
		if err := writeNDJSONLine(out, entry); err != nil {
			return err
		}
	}

	return nil
}

func writeNDJSONLine(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal NDJSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
