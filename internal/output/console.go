package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

const consoleSubjectWidth = 60

// ConsoleHistoryWriter writes history reports to the console.
type ConsoleHistoryWriter struct{}

// Write outputs the history report to the console.
func (w *ConsoleHistoryWriter) Write(report *HistoryReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	items := limitTop(report.Items, options.Top)

	color.New(color.FgGreen).Fprintln(out, "File History")
	fmt.Fprintf(out, "Resource: %s\n", report.Resource)
	if report.Path != "" {
		fmt.Fprintf(out, "Path: %s\n", report.Path)
	}
	if report.Ref != "" {
		fmt.Fprintf(out, "Ref: %s\n", report.Ref)
	}
	fmt.Fprintf(out, "Mode: %s\n", report.Flags)
	fmt.Fprintf(out, "Revisions: %d\n\n", len(report.Items))

	if len(report.Items) == 0 {
		if report.Note != "" {
			color.New(color.FgYellow).Fprintf(out, "No history: %s\n", report.Note)
		} else {
			color.New(color.FgYellow).Fprintln(out, "No history")
		}
		return nil
	}

	writeConsoleRevisions(out, items, options)
	return nil
}

// ConsoleAncestryWriter writes ancestry reports to the console.
type ConsoleAncestryWriter struct{}

// Write outputs the ancestry report to the console.
func (w *ConsoleAncestryWriter) Write(report *AncestryReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	title := "Contributors"
	if report.Relation == RelationTargets {
		title = "Targets"
	}
	color.New(color.FgGreen).Fprintf(out, "%s of %s\n", title, report.Revision.ShortID)
	fmt.Fprintf(out, "Path: %s\n", report.Path)
	fmt.Fprintf(out, "Revision: %s %s\n", report.Revision.ShortID, report.Revision.Subject)
	fmt.Fprintf(out, "Count: %d\n\n", len(report.Items))

	if len(report.Items) == 0 {
		return nil
	}
	writeConsoleRevisions(out, limitTop(report.Items, options.Top), options)
	return nil
}

// ConsoleRevisionWriter writes a single revision to the console.
type ConsoleRevisionWriter struct{}

// Write outputs the revision report to the console.
func (w *ConsoleRevisionWriter) Write(report *RevisionReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	rev := report.Revision
	color.New(color.FgYellow).Fprintf(out, "revision %s\n", rev.ID)
	fmt.Fprintf(out, "Path:         %s\n", report.Path)
	fmt.Fprintf(out, "Author:       %s\n", rev.Author)
	fmt.Fprintf(out, "Date:         %s\n", formatTimestamp(rev.Timestamp, options.DateLayout))
	if len(rev.Parents) > 0 {
		fmt.Fprintf(out, "Parents:      %s\n", strings.Join(rev.Parents, " "))
	}
	fmt.Fprintf(out, "Contributors: %d\n", report.Contributors)
	fmt.Fprintf(out, "Targets:      %d\n", report.Targets)
	if rev.IsBugfix {
		color.New(color.FgRed).Fprintln(out, "Bug fix:      yes")
	}
	fmt.Fprintln(out)
	for _, line := range strings.Split(rev.Message, "\n") {
		fmt.Fprintf(out, "    %s\n", line)
	}
	return nil
}

func writeConsoleRevisions(out io.Writer, items []RevisionItem, options OutputOptions) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tRevision\tDate\tAuthor\tSubject")
	for i, item := range items {
		subject := truncateMessage(item.Subject, consoleSubjectWidth)
		switch {
		case item.IsBugfix:
			subject = color.RedString("%s", subject)
		case item.IsMerge:
			subject = color.CyanString("%s", subject)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			i+1,
			item.ShortID,
			formatTimestamp(item.Timestamp, options.DateLayout),
			item.Author.Name,
			subject,
		)
	}
	tw.Flush()
}

func truncateMessage(msg string, maxLen int) string {
	if len(msg) <= maxLen {
		return msg
	}
	return msg[:maxLen-3] + "..."
}
