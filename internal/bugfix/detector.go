package bugfix

import (
	"regexp"
	"strings"

	"github.com/maxbolgarin/errm"

	"github.com/masmgr/filehistory-go/internal/git"
)

// Result holds the bug-fix classification of a set of commits.
type Result struct {
	// Commits is the set of commit ids identified as bug fixes.
	Commits map[string]struct{}
	// AuthorCounts maps contributor keys to the number of bug-fix commits they authored.
	AuthorCounts map[string]int
	// Total is the number of bug-fix commits detected.
	Total int
}

// Contains reports whether the commit id was classified as a bug fix.
func (r *Result) Contains(id string) bool {
	_, ok := r.Commits[id]
	return ok
}

// Detector detects bugfix commits by matching commit messages against regex patterns.
type Detector struct {
	patterns []*regexp.Regexp
}

// NewDetector creates a new Detector from a list of regex pattern strings.
// Patterns are compiled as case-insensitive. Returns an error if any pattern fails to compile.
func NewDetector(patterns []string) (*Detector, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		// Add case-insensitive flag if not already present
		if !strings.HasPrefix(p, "(?i)") {
			p = "(?i)" + p
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, errm.Wrap(err, "compile bugfix pattern")
		}
		compiled = append(compiled, re)
	}
	return &Detector{patterns: compiled}, nil
}

// IsBugfix returns true if the given commit message matches any of the detector's patterns.
func (d *Detector) IsBugfix(message string) bool {
	for _, re := range d.patterns {
		if re.MatchString(message) {
			return true
		}
	}
	return false
}

// Match reports whether the commit message marks a bug fix.
func (d *Detector) Match(node git.CommitNode) bool {
	return d.IsBugfix(node.Message)
}

// Detect classifies the given commits.
func (d *Detector) Detect(nodes []git.CommitNode) *Result {
	result := &Result{
		Commits:      make(map[string]struct{}),
		AuthorCounts: make(map[string]int),
	}

	if len(d.patterns) == 0 {
		return result
	}

	for _, node := range nodes {
		if !d.Match(node) {
			continue
		}
		if _, ok := result.Commits[node.ID]; ok {
			continue
		}
		result.Commits[node.ID] = struct{}{}
		result.AuthorCounts[node.Author.ContributorKey()]++
		result.Total++
	}

	return result
}
