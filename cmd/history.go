package cmd

import (
	"time"

	"github.com/maxbolgarin/errm"
	"github.com/urfave/cli/v2"

	"github.com/masmgr/filehistory-go/internal/history"
	"github.com/masmgr/filehistory-go/internal/output"
)

// HistoryCmd returns the history command.
func HistoryCmd() *cli.Command {
	flags := append(commonFlags(),
		&cli.BoolFlag{
			Name:    "single",
			Aliases: []string{"s"},
			Usage:   "Only find the newest revision of each file",
		},
		&cli.IntFlag{
			Name:  "max-results",
			Usage: "Stop after this many revisions (0: unbounded)",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Number of histories built concurrently",
		},
	)

	return &cli.Command{
		Name:      "history",
		Aliases:   []string{"log"},
		Usage:     "List the revisions that changed one or more files",
		ArgsUsage: "FILE...",
		Flags:     flags,
		Action:    historyAction,
	}
}

func historyAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return errm.New("at least one FILE is required")
	}
	if c.NArg() > 1 && c.String("output") != "" {
		return errm.New("--output requires a single FILE")
	}

	cc, err := NewCommandContext(c)
	if err != nil {
		return err
	}
	defer cc.Close()

	resources, err := absResources(c.Args().Slice())
	if err != nil {
		return err
	}
	repo, err := cc.OpenRepository(resources[0])
	if err != nil {
		return err
	}
	opts, err := cc.HistoryOptions()
	if err != nil {
		return err
	}

	flags := history.Full
	if c.Bool("single") {
		flags = history.SingleRevision
	}

	start := time.Now()
	var histories []*history.FileHistory
	if len(resources) == 1 {
		histories = []*history.FileHistory{history.Build(cc.Ctx, repo, resources[0], flags, opts)}
	} else {
		histories, err = history.BuildAll(cc.Ctx, repo, resources, flags, opts, cc.Config.Batch.Workers)
		if err != nil {
			return err
		}
	}
	cc.Log.Debug("histories built", "count", len(histories), "elapsed", formatDuration(time.Since(start)))

	outOpts := cc.OutputOptions(c)
	writer := output.NewHistoryReportWriter(outOpts.Format)
	for _, h := range histories {
		report, err := newHistoryReport(h, cc.Config.History.Ref, cc.Config.Bugfix.Patterns)
		if err != nil {
			return err
		}
		if err := writer.Write(report, outOpts); err != nil {
			return err
		}
	}
	return nil
}
