package cmd

import (
	"time"

	"github.com/maxbolgarin/errm"
	"github.com/urfave/cli/v2"

	"github.com/masmgr/filehistory-go/internal/history"
	"github.com/masmgr/filehistory-go/internal/output"
)

// ContributorsCmd returns the contributors command.
func ContributorsCmd() *cli.Command {
	return &cli.Command{
		Name:      "contributors",
		Usage:     "List the revisions of FILE that REV descends from",
		ArgsUsage: "FILE REV",
		Flags:     commonFlags(),
		Action: func(c *cli.Context) error {
			return ancestryAction(c, output.RelationContributors)
		},
	}
}

// TargetsCmd returns the targets command.
func TargetsCmd() *cli.Command {
	return &cli.Command{
		Name:      "targets",
		Usage:     "List the revisions of FILE that descend from REV",
		ArgsUsage: "FILE REV",
		Flags:     commonFlags(),
		Action: func(c *cli.Context) error {
			return ancestryAction(c, output.RelationTargets)
		},
	}
}

// ShowCmd returns the show command.
func ShowCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one revision of FILE",
		ArgsUsage: "FILE REV",
		Flags:     commonFlags(),
		Action:    showAction,
	}
}

// revisionQuery is a full history of one file and the revision named on the command line.
type revisionQuery struct {
	cc       *CommandContext
	history  *history.FileHistory
	revision *history.FileRevision
}

func newRevisionQuery(c *cli.Context) (*revisionQuery, error) {
	if c.NArg() != 2 {
		return nil, errm.New("expected FILE and REV arguments")
	}

	cc, err := NewCommandContext(c)
	if err != nil {
		return nil, err
	}

	q, err := loadRevision(cc, c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		cc.Close()
		return nil, err
	}
	return q, nil
}

func loadRevision(cc *CommandContext, file, rev string) (*revisionQuery, error) {
	resources, err := absResources([]string{file})
	if err != nil {
		return nil, err
	}
	repo, err := cc.OpenRepository(resources[0])
	if err != nil {
		return nil, err
	}
	opts, err := cc.HistoryOptions()
	if err != nil {
		return nil, err
	}

	h := history.Build(cc.Ctx, repo, resources[0], history.Full, opts)
	if h.Len() == 0 {
		if note := failureNote(h.Err()); note != "" {
			return nil, errm.New("no history for " + file + ": " + note)
		}
		return nil, errm.New("no history for " + file)
	}

	r, err := h.Lookup(rev)
	if err != nil {
		return nil, err
	}
	return &revisionQuery{cc: cc, history: h, revision: r}, nil
}

func ancestryAction(c *cli.Context, relation output.Relation) error {
	q, err := newRevisionQuery(c)
	if err != nil {
		return err
	}
	defer q.cc.Close()

	var related []*history.FileRevision
	if relation == output.RelationTargets {
		related = q.history.Targets(q.revision)
	} else {
		related = q.history.Contributors(q.revision)
	}

	bugfixes, err := detectBugfixes(q.cc.Config.Bugfix.Patterns, append(related, q.revision)...)
	if err != nil {
		return err
	}

	report := &output.AncestryReport{
		Path:        q.history.Path(),
		Relation:    relation,
		Revision:    output.NewRevisionItem(q.revision, bugfixes),
		GeneratedAt: time.Now(),
		Items:       output.NewRevisionItems(related, bugfixes),
	}

	opts := q.cc.OutputOptions(c)
	return output.NewAncestryReportWriter(opts.Format).Write(report, opts)
}

func showAction(c *cli.Context) error {
	q, err := newRevisionQuery(c)
	if err != nil {
		return err
	}
	defer q.cc.Close()

	bugfixes, err := detectBugfixes(q.cc.Config.Bugfix.Patterns, q.revision)
	if err != nil {
		return err
	}

	report := &output.RevisionReport{
		Path:         q.history.Path(),
		Revision:     output.NewRevisionItem(q.revision, bugfixes),
		Contributors: len(q.history.Contributors(q.revision)),
		Targets:      len(q.history.Targets(q.revision)),
		GeneratedAt:  time.Now(),
	}

	opts := q.cc.OutputOptions(c)
	return output.NewRevisionReportWriter(opts.Format).Write(report, opts)
}
