package output

import (
	"fmt"
	"io"
	"strings"
)

// MarkdownHistoryWriter writes history reports as Markdown.
type MarkdownHistoryWriter struct{}

// Write outputs the history report as Markdown.
func (w *MarkdownHistoryWriter) Write(report *HistoryReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintf(out, "# History of %s\n\n", escapeMarkdown(report.Path))
	fmt.Fprintf(out, "**Resource:** %s\n\n", escapeMarkdown(report.Resource))
	if report.Ref != "" {
		fmt.Fprintf(out, "**Ref:** %s\n\n", escapeMarkdown(report.Ref))
	}
	fmt.Fprintf(out, "**Mode:** %s\n\n", report.Flags)
	fmt.Fprintf(out, "**Revisions:** %d\n\n", len(report.Items))

	if len(report.Items) == 0 {
		if report.Note != "" {
			fmt.Fprintf(out, "_No history: %s_\n", escapeMarkdown(report.Note))
		}
		return nil
	}

	writeMarkdownRevisions(out, limitTop(report.Items, options.Top), options)
	return nil
}

// MarkdownAncestryWriter writes ancestry reports as Markdown.
type MarkdownAncestryWriter struct{}

// Write outputs the ancestry report as Markdown.
func (w *MarkdownAncestryWriter) Write(report *AncestryReport, options OutputOptions) error {
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
	fmt.Fprintf(out, "# %s of `%s`\n\n", title, report.Revision.ShortID)
	fmt.Fprintf(out, "**Path:** %s\n\n", escapeMarkdown(report.Path))
	fmt.Fprintf(out, "**Revision:** `%s` %s\n\n", report.Revision.ShortID, escapeMarkdown(report.Revision.Subject))
	fmt.Fprintf(out, "**Count:** %d\n\n", len(report.Items))

	if len(report.Items) == 0 {
		return nil
	}
	writeMarkdownRevisions(out, limitTop(report.Items, options.Top), options)
	return nil
}

// MarkdownRevisionWriter writes a single revision as Markdown.
type MarkdownRevisionWriter struct{}

// Write outputs the revision report as Markdown.
func (w *MarkdownRevisionWriter) Write(report *RevisionReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	rev := report.Revision
	fmt.Fprintf(out, "# Revision `%s`\n\n", rev.ShortID)
	fmt.Fprintf(out, "| Field | Value |\n")
	fmt.Fprintf(out, "|-------|-------|\n")
	fmt.Fprintf(out, "| Path | %s |\n", escapeMarkdown(report.Path))
	fmt.Fprintf(out, "| ID | `%s` |\n", rev.ID)
	fmt.Fprintf(out, "| Author | %s |\n", escapeMarkdown(rev.Author.String()))
	fmt.Fprintf(out, "| Date | %s |\n", formatTimestamp(rev.Timestamp, options.DateLayout))
	fmt.Fprintf(out, "| Contributors | %d |\n", report.Contributors)
	fmt.Fprintf(out, "| Targets | %d |\n", report.Targets)
	if rev.IsBugfix {
		fmt.Fprintf(out, "| Bug fix | yes |\n")
	}
	fmt.Fprintf(out, "\n```\n%s\n```\n", rev.Message)
	return nil
}

func writeMarkdownRevisions(out io.Writer, items []RevisionItem, options OutputOptions) {
	fmt.Fprintln(out, "| # | Revision | Date | Author | Subject | Bugfix |")
	fmt.Fprintln(out, "|---|----------|------|--------|---------|--------|")
	for i, item := range items {
		fmt.Fprintf(out, "| %d | `%s` | %s | %s | %s | %s |\n",
			i+1,
			item.ShortID,
			formatTimestamp(item.Timestamp, options.DateLayout),
			escapeMarkdown(item.Author.Name),
			escapeMarkdown(item.Subject),
			bugfixMark(item.IsBugfix),
		)
	}
}

func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"|", "\\|",
		"*", "\\*",
		"_", "\\_",
		"`", "\\`",
	)
	return replacer.Replace(s)
}
