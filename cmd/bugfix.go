package cmd

import (
	"github.com/maxbolgarin/errm"

	"github.com/masmgr/filehistory-go/internal/bugfix"
	"github.com/masmgr/filehistory-go/internal/git"
	"github.com/masmgr/filehistory-go/internal/history"
)

// detectBugfixes classifies the commits of the given revisions with the configured patterns.
func detectBugfixes(patterns []string, revs ...*history.FileRevision) (*bugfix.Result, error) {
	detector, err := bugfix.NewDetector(patterns)
	if err != nil {
		return nil, errm.Wrap(err, "invalid bug pattern")
	}

	nodes := make([]git.CommitNode, 0, len(revs))
	for _, rev := range revs {
		if rev != nil {
			nodes = append(nodes, rev.Commit())
		}
	}
	return detector.Detect(nodes), nil
}
