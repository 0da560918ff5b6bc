package cmd

import (
	"errors"
	"time"

	"github.com/masmgr/filehistory-go/internal/history"
	"github.com/masmgr/filehistory-go/internal/output"
	"github.com/masmgr/filehistory-go/internal/revlist"
)

func newHistoryReport(h *history.FileHistory, ref string, bugPatterns []string) (*output.HistoryReport, error) {
	revs := h.FileRevisions()
	bugfixes, err := detectBugfixes(bugPatterns, revs...)
	if err != nil {
		return nil, err
	}

	return &output.HistoryReport{
		Resource:    h.Resource(),
		Path:        h.Path(),
		Ref:         ref,
		Flags:       h.Flags(),
		GeneratedAt: time.Now(),
		Items:       output.NewRevisionItems(revs, bugfixes),
		Note:        failureNote(h.Err()),
	}, nil
}

// failureNote describes why a history came out empty.
func failureNote(err error) string {
	if err == nil {
		return ""
	}
	switch revlist.KindOf(err) {
	case revlist.ErrNoRepository:
		return "not under version control"
	case revlist.ErrCancelled:
		return "history walk cancelled"
	case revlist.ErrSourceUnavailable:
		var werr *revlist.WalkError
		if errors.As(err, &werr) && werr.Err != nil {
			return "commit source unavailable: " + werr.Err.Error()
		}
		return "commit source unavailable"
	default:
		return err.Error()
	}
}
