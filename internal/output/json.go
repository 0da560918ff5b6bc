package output

import (
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONRevisionItem is the JSON output structure for a single revision.
type JSONRevisionItem struct {
	ID        string   `json:"id"`
	ShortID   string   `json:"shortId"`
	Timestamp string   `json:"timestamp"`
	Author    string   `json:"author"`
	Email     string   `json:"email"`
	Subject   string   `json:"subject"`
	Parents   []string `json:"parents"`
	Merge     bool     `json:"merge"`
	Bugfix    bool     `json:"bugfix"`
}

func newJSONRevisionItem(item RevisionItem) JSONRevisionItem {
	parents := item.Parents
	if parents == nil {
		parents = []string{}
	}
	return JSONRevisionItem{
		ID:        item.ID,
		ShortID:   item.ShortID,
		Timestamp: item.Timestamp.Format(time.RFC3339),
		Author:    item.Author.Name,
		Email:     item.Author.Email,
		Subject:   item.Subject,
		Parents:   parents,
		Merge:     item.IsMerge,
		Bugfix:    item.IsBugfix,
	}
}

func newJSONRevisionItems(items []RevisionItem) []JSONRevisionItem {
	out := make([]JSONRevisionItem, len(items))
	for i, item := range items {
		out[i] = newJSONRevisionItem(item)
	}
	return out
}

// JSONHistoryWriter writes history reports as JSON.
type JSONHistoryWriter struct{}

// JSONHistoryReport is the JSON output structure for a history.
type JSONHistoryReport struct {
	Resource       string             `json:"resource"`
	Path           string             `json:"path"`
	Ref            string             `json:"ref,omitempty"`
	Mode           string             `json:"mode"`
	GeneratedAt    string             `json:"generatedAt"`
	TotalRevisions int                `json:"totalRevisions"`
	Note           string             `json:"note,omitempty"`
	Items          []JSONRevisionItem `json:"items"`
}

// Write outputs the history report as JSON.
func (w *JSONHistoryWriter) Write(report *HistoryReport, options OutputOptions) error {
	return writeJSON(JSONHistoryReport{
		Resource:       report.Resource,
		Path:           report.Path,
		Ref:            report.Ref,
		Mode:           report.Flags.String(),
		GeneratedAt:    report.GeneratedAt.Format(time.RFC3339),
		TotalRevisions: len(report.Items),
		Note:           report.Note,
		Items:          newJSONRevisionItems(limitTop(report.Items, options.Top)),
	}, options.OutputPath)
}

// JSONAncestryWriter writes ancestry reports as JSON.
type JSONAncestryWriter struct{}

// JSONAncestryReport is the JSON output structure for an ancestry query.
type JSONAncestryReport struct {
	Path        string             `json:"path"`
	Relation    string             `json:"relation"`
	Revision    JSONRevisionItem   `json:"revision"`
	GeneratedAt string             `json:"generatedAt"`
	Count       int                `json:"count"`
	Items       []JSONRevisionItem `json:"items"`
}

// Write outputs the ancestry report as JSON.
func (w *JSONAncestryWriter) Write(report *AncestryReport, options OutputOptions) error {
	return writeJSON(JSONAncestryReport{
		Path:        report.Path,
		Relation:    string(report.Relation),
		Revision:    newJSONRevisionItem(report.Revision),
		GeneratedAt: report.GeneratedAt.Format(time.RFC3339),
		Count:       len(report.Items),
		Items:       newJSONRevisionItems(limitTop(report.Items, options.Top)),
	}, options.OutputPath)
}

// JSONRevisionWriter writes a single revision as JSON.
type JSONRevisionWriter struct{}

// JSONRevisionReport is the JSON output structure for a single revision.
type JSONRevisionReport struct {
	Path         string           `json:"path"`
	Revision     JSONRevisionItem `json:"revision"`
	Message      string           `json:"message"`
	Contributors int              `json:"contributors"`
	Targets      int              `json:"targets"`
	GeneratedAt  string           `json:"generatedAt"`
}

// Write outputs the revision report as JSON.
func (w *JSONRevisionWriter) Write(report *RevisionReport, options OutputOptions) error {
	return writeJSON(JSONRevisionReport{
		Path:         report.Path,
		Revision:     newJSONRevisionItem(report.Revision),
		Message:      report.Revision.Message,
		Contributors: report.Contributors,
		Targets:      report.Targets,
		GeneratedAt:  report.GeneratedAt.Format(time.RFC3339),
	}, options.OutputPath)
}

func writeJSON(data interface{}, outputPath string) error {
	encoder := json.NewEncoder(os.Stdout)
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer file.Close()
		encoder = json.NewEncoder(file)
	}

	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
