package output

import (
	"encoding/csv"
	"os"
	"strings"
)

var csvHeaders = []string{"ID", "Timestamp", "Author", "Email", "Subject", "Parents", "Merge", "Bugfix"}

// CSVHistoryWriter writes history reports as CSV.
type CSVHistoryWriter struct{}

// Write outputs the history report as CSV.
func (w *CSVHistoryWriter) Write(report *HistoryReport, options OutputOptions) error {
	return writeCSVRevisions(limitTop(report.Items, options.Top), options.OutputPath)
}

// CSVAncestryWriter writes ancestry reports as CSV.
type CSVAncestryWriter struct{}

// Write outputs the ancestry report as CSV.
func (w *CSVAncestryWriter) Write(report *AncestryReport, options OutputOptions) error {
	return writeCSVRevisions(limitTop(report.Items, options.Top), options.OutputPath)
}

func writeCSVRevisions(items []RevisionItem, outputPath string) error {
	writer, file, err := createCSVWriter(outputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	if err := writer.Write(csvHeaders); err != nil {
		return err
	}

	for _, item := range items {
		row := []string{
			item.ID,
			item.Timestamp.Format(reportDateTimeLayout),
			item.Author.Name,
			item.Author.Email,
			item.Subject,
			strings.Join(item.Parents, " "),
			boolString(item.IsMerge),
			boolString(item.IsBugfix),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func createCSVWriter(outputPath string) (*csv.Writer, *os.File, error) {
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return nil, nil, err
		}
		return csv.NewWriter(file), file, nil
	}
	return csv.NewWriter(os.Stdout), nil, nil
}
