package output

import (
	"time"

	"github.com/masmgr/filehistory-go/internal/bugfix"
	"github.com/masmgr/filehistory-go/internal/git"
	"github.com/masmgr/filehistory-go/internal/history"
)

// Compile-time interface conformance checks.
// These ensure that all writer types correctly implement their respective interfaces.
var (
	// HistoryReportWriter implementations
	_ HistoryReportWriter = (*ConsoleHistoryWriter)(nil)
	_ HistoryReportWriter = (*JSONHistoryWriter)(nil)
	_ HistoryReportWriter = (*CSVHistoryWriter)(nil)
	_ HistoryReportWriter = (*MarkdownHistoryWriter)(nil)
	_ HistoryReportWriter = (*CIHistoryWriter)(nil)

	// AncestryReportWriter implementations
	_ AncestryReportWriter = (*ConsoleAncestryWriter)(nil)
	_ AncestryReportWriter = (*JSONAncestryWriter)(nil)
	_ AncestryReportWriter = (*CSVAncestryWriter)(nil)
	_ AncestryReportWriter = (*MarkdownAncestryWriter)(nil)
	_ AncestryReportWriter = (*CIAncestryWriter)(nil)

	// RevisionReportWriter implementations
	_ RevisionReportWriter = (*ConsoleRevisionWriter)(nil)
	_ RevisionReportWriter = (*JSONRevisionWriter)(nil)
	_ RevisionReportWriter = (*MarkdownRevisionWriter)(nil)
)

// OutputFormat represents the output format type.
type OutputFormat string

const (
	FormatConsole  OutputFormat = "console"
	FormatJSON     OutputFormat = "json"
	FormatCSV      OutputFormat = "csv"
	FormatMarkdown OutputFormat = "markdown"
	FormatCI       OutputFormat = "ci" // NDJSON
)

// ParseFormat maps a format name to an OutputFormat. "ndjson" is an alias of
// "ci"; unknown names map to FormatConsole.
func ParseFormat(s string) OutputFormat {
	switch OutputFormat(s) {
	case FormatJSON, FormatCSV, FormatMarkdown, FormatCI:
		return OutputFormat(s)
	case "ndjson":
		return FormatCI
	default:
		return FormatConsole
	}
}

// OutputOptions controls output behavior.
type OutputOptions struct {
	Format     OutputFormat
	Top        int
	OutputPath string
	DateLayout string // Console and Markdown timestamp layout
}

// Relation names an ancestry query.
type Relation string

const (
	RelationContributors Relation = "contributors"
	RelationTargets      Relation = "targets"
)

// RevisionItem is one row of a report.
type RevisionItem struct {
	ID        string
	ShortID   string
	Timestamp time.Time
	Author    git.AuthorInfo
	Subject   string
	Message   string
	Parents   []string
	IsMerge   bool
	IsBugfix  bool
}

// NewRevisionItem builds a report row. bugfixes may be nil.
func NewRevisionItem(rev *history.FileRevision, bugfixes *bugfix.Result) RevisionItem {
	node := rev.Commit()
	item := RevisionItem{
		ID:        node.ID,
		ShortID:   node.ShortID(),
		Timestamp: node.When,
		Author:    node.Author,
		Subject:   node.Subject(),
		Message:   node.Message,
		Parents:   rev.ParentIDs(),
		IsMerge:   node.IsMerge(),
	}
	if bugfixes != nil {
		item.IsBugfix = bugfixes.Contains(node.ID)
	}
	return item
}

// NewRevisionItems builds report rows in history order.
func NewRevisionItems(revs []*history.FileRevision, bugfixes *bugfix.Result) []RevisionItem {
	items := make([]RevisionItem, len(revs))
	for i, rev := range revs {
		items[i] = NewRevisionItem(rev, bugfixes)
	}
	return items
}

// HistoryReport holds the revisions of one resource.
type HistoryReport struct {
	Resource    string
	Path        string
	Ref         string
	Flags       history.Flags
	GeneratedAt time.Time
	Items       []RevisionItem
	// Note explains an empty history (unversioned resource, cancelled walk), if any.
	Note string
}

// AncestryReport holds the contributors or targets of one revision.
type AncestryReport struct {
	Path        string
	Relation    Relation
	Revision    RevisionItem
	GeneratedAt time.Time
	Items       []RevisionItem
}

// RevisionReport holds the details of one revision.
type RevisionReport struct {
	Path         string
	Revision     RevisionItem
	Contributors int
	Targets      int
	GeneratedAt  time.Time
}

// HistoryReportWriter writes history reports.
type HistoryReportWriter interface {
	Write(report *HistoryReport, options OutputOptions) error
}

// AncestryReportWriter writes ancestry reports.
type AncestryReportWriter interface {
	Write(report *AncestryReport, options OutputOptions) error
}

// RevisionReportWriter writes single revision reports.
type RevisionReportWriter interface {
	Write(report *RevisionReport, options OutputOptions) error
}

// NewHistoryReportWriter creates a report writer for the specified format.
func NewHistoryReportWriter(format OutputFormat) HistoryReportWriter {
	switch format {
	case FormatJSON:
		return &JSONHistoryWriter{}
	case FormatCSV:
		return &CSVHistoryWriter{}
	case FormatMarkdown:
		return &MarkdownHistoryWriter{}
	case FormatCI:
		return &CIHistoryWriter{}
	default:
		return &ConsoleHistoryWriter{}
	}
}

// NewAncestryReportWriter creates an ancestry report writer for the specified format.
func NewAncestryReportWriter(format OutputFormat) AncestryReportWriter {
	switch format {
	case FormatJSON:
		return &JSONAncestryWriter{}
	case FormatCSV:
		return &CSVAncestryWriter{}
	case FormatMarkdown:
		return &MarkdownAncestryWriter{}
	case FormatCI:
		return &CIAncestryWriter{}
	default:
		return &ConsoleAncestryWriter{}
	}
}

// NewRevisionReportWriter creates a revision report writer for the specified format.
// Tabular formats fall back to JSON.
func NewRevisionReportWriter(format OutputFormat) RevisionReportWriter {
	switch format {
	case FormatJSON, FormatCSV, FormatCI:
		return &JSONRevisionWriter{}
	case FormatMarkdown:
		return &MarkdownRevisionWriter{}
	default:
		return &ConsoleRevisionWriter{}
	}
}
