package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
	"github.com/urfave/cli/v2"

	"github.com/masmgr/filehistory-go/config"
	"github.com/masmgr/filehistory-go/internal/output"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "filehistory",
		Usage:   "Per-file revision history for Git repositories",
		Version: "1.0.0",
		Commands: []*cli.Command{
			HistoryCmd(),
			ContributorsCmd(),
			TargetsCmd(),
			ShowCmd(),
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
	}
}

// Common flags shared across commands
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "ref",
			Usage: "Revision to start the walk from (default: HEAD)",
		},
		&cli.StringFlag{
			Name:  "order",
			Usage: "Walk order (date, topo)",
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: "Commit source backend (go-git, cli)",
		},
		&cli.StringSliceFlag{
			Name:  "exclude",
			Usage: "Glob patterns to exclude (can be specified multiple times)",
		},
		&cli.StringSliceFlag{
			Name:  "bug-patterns",
			Usage: "Regex patterns marking bug-fix commits (can be specified multiple times)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Abort the walk after this duration (e.g. 30s)",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (console, json, csv, markdown, ci)",
		},
		&cli.IntFlag{
			Name:    "top",
			Aliases: []string{"n"},
			Usage:   "Number of revisions to show (0: all)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file path (default: stdout)",
		},
	}
}

// getOutputFormat parses the output format flag.
func getOutputFormat(s string) output.OutputFormat {
	if s == "md" {
		return output.FormatMarkdown
	}
	return output.ParseFormat(s)
}

// loadConfig loads configuration from file or defaults and applies CLI overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, errm.Wrap(err, "failed to load config")
	}

	if c.IsSet("ref") {
		cfg.History.Ref = c.String("ref")
	}
	if c.IsSet("order") {
		cfg.History.Order = c.String("order")
	}
	if c.IsSet("timeout") {
		cfg.History.Timeout = config.Duration(c.Duration("timeout"))
	}
	if c.IsSet("max-results") {
		cfg.History.MaxResults = c.Int("max-results")
	}
	if excludes := c.StringSlice("exclude"); len(excludes) > 0 {
		cfg.History.Exclude = excludes
	}
	if c.IsSet("backend") {
		cfg.Source.Backend = c.String("backend")
	}
	if patterns := c.StringSlice("bug-patterns"); len(patterns) > 0 {
		cfg.Bugfix.Patterns = patterns
	}
	if c.IsSet("format") {
		cfg.Output.Format = c.String("format")
	}
	if c.IsSet("top") {
		cfg.Output.Top = c.Int("top")
	}
	if c.IsSet("workers") {
		cfg.Batch.Workers = c.Int("workers")
	}
	if c.Bool("verbose") {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// initLogger configures the global logger. Reports go to stdout, so logs stay on the console writer.
func initLogger(level string) {
	lc := logze.C().WithConsole()
	switch level {
	case "debug":
		lc = lc.WithLevel(logze.LevelDebug)
	case "info":
		lc = lc.WithLevel(logze.LevelInfo)
	case "error":
		lc = lc.WithLevel(logze.LevelError)
	default:
		lc = lc.WithLevel(logze.LevelWarn)
	}
	logze.Init(lc)
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

// Run executes the CLI application.
func Run() {
	if err := App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
