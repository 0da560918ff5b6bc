package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
	"github.com/urfave/cli/v2"

	"github.com/masmgr/filehistory-go/config"
	"github.com/masmgr/filehistory-go/internal/git"
	"github.com/masmgr/filehistory-go/internal/history"
	"github.com/masmgr/filehistory-go/internal/output"
	"github.com/masmgr/filehistory-go/internal/revlist"
)

// CommandContext holds common state for command execution.
type CommandContext struct {
	Config *config.Config
	Ctx    context.Context
	Log    logze.Logger

	cancel context.CancelFunc
}

// NewCommandContext loads configuration, initialises logging and installs
// signal and timeout cancellation. Close must be called when done.
func NewCommandContext(c *cli.Context) (*CommandContext, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	initLogger(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	cancel := stop
	if cfg.History.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, cfg.History.Timeout.Std())
		cancel = func() {
			cancelTimeout()
			stop()
		}
	}

	return &CommandContext{
		Config: cfg,
		Ctx:    ctx,
		Log:    logze.With("component", "cmd"),
		cancel: cancel,
	}, nil
}

// Close releases the signal handler and deadline.
func (cc *CommandContext) Close() {
	cc.cancel()
}

// OpenRepository opens the Commit Source enclosing resource with the
// configured backend. A resource outside any repository yields a nil
// Repository and no error; history construction reports it as an empty history.
func (cc *CommandContext) OpenRepository(resource string) (git.Repository, error) {
	var (
		repo git.Repository
		err  error
	)
	switch cc.Config.Source.Backend {
	case "cli":
		var src *git.CLISource
		src, err = git.OpenCLI(cc.Ctx, resource, cc.Config.History.Ref)
		if err == nil {
			cc.Log.Debug("loaded commit graph", "backend", "cli", "commits", src.Len())
			repo = src
		}
	default:
		var src *git.RepositorySource
		src, err = git.OpenForResource(resource)
		if err == nil {
			cc.Log.Debug("opened repository", "backend", "go-git", "root", src.Root())
			repo = src
		}
	}

	if errors.Is(err, git.ErrNoRepository) {
		cc.Log.Debug("resource is not under version control", "resource", resource)
		return nil, nil
	}
	if err != nil {
		return nil, errm.Wrap(err, "failed to open repository")
	}
	return repo, nil
}

// HistoryOptions converts the configuration into history build options.
func (cc *CommandContext) HistoryOptions() (history.Options, error) {
	order, err := revlist.ParseOrder(cc.Config.History.Order)
	if err != nil {
		return history.Options{}, err
	}
	log := cc.Log
	return history.Options{
		Ref:         cc.Config.History.Ref,
		Order:       order,
		MaxResults:  cc.Config.History.MaxResults,
		CheckStride: cc.Config.History.CancelCheckStride,
		Exclude:     cc.Config.History.Exclude,
		OnProgress: func(processed int) {
			log.Debug("walk progress", "processed", processed)
		},
	}, nil
}

// OutputOptions creates OutputOptions from configuration and CLI flags.
func (cc *CommandContext) OutputOptions(c *cli.Context) output.OutputOptions {
	return output.OutputOptions{
		Format:     getOutputFormat(cc.Config.Output.Format),
		Top:        cc.Config.Output.Top,
		OutputPath: c.String("output"),
		DateLayout: cc.Config.Output.DateLayout,
	}
}

// absResources converts command arguments to absolute paths.
func absResources(args []string) ([]string, error) {
	out := make([]string, len(args))
	for i, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, errm.Wrap(err, "resolve "+arg)
		}
		out[i] = abs
	}
	return out, nil
}
