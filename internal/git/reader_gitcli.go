package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/maxbolgarin/errm"
)

// CLISource serves commits loaded from the git executable.
// The whole history reachable from the loaded refs is read up front with two
// `git log` invocations; afterwards the source is read-only and safe for
// concurrent use.
type CLISource struct {
	repoPath string
	root     string
	commits  map[string]CommitNode
	// diffs holds, per commit, the changed paths of each non-empty diff against
	// one of its parents (or against the empty tree for root commits).
	diffs map[string][][]string
}

type gitRawEntry struct {
	srcMode filemode.FileMode
	dstMode filemode.FileMode
	status  string // e.g. "M", "A", "D", "R100"
	path    string // destination path (or path for non-renames)
	oldPath string // source path for renames
}

// OpenCLI loads the history reachable from refs of the repository enclosing
// resource. With no refs, HEAD is loaded.
func OpenCLI(ctx context.Context, resource string, refs ...string) (*CLISource, error) {
	dir := existingDir(resource)

	out, err := exec.CommandContext(ctx, "git", "-C", dir, "rev-parse", "--show-toplevel").CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoRepository, strings.TrimSpace(string(out)))
	}

	s := &CLISource{
		repoPath: dir,
		root:     canonicalPath(strings.TrimSpace(string(out))),
		commits:  make(map[string]CommitNode, 1024),
		diffs:    make(map[string][][]string, 1024),
	}

	if len(refs) == 0 {
		refs = []string{"HEAD"}
	}
	for _, ref := range refs {
		if ref == "HEAD" && !s.hasHead(ctx) {
			continue
		}
		if err := s.load(ctx, ref); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// hasHead reports whether HEAD points at a commit; it does not in a fresh repository.
func (s *CLISource) hasHead(ctx context.Context) bool {
	return exec.CommandContext(ctx, "git", "-C", s.repoPath, "rev-parse", "--verify", "--quiet", "HEAD").Run() == nil
}

// Len returns the number of loaded commits.
func (s *CLISource) Len() int {
	return len(s.commits)
}

// ResolveRef resolves a revision expression with `git rev-parse`.
func (s *CLISource) ResolveRef(ctx context.Context, ref string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		ref = "HEAD"
	}
	if _, ok := s.commits[ref]; ok {
		return ref, nil
	}

	out, err := exec.CommandContext(ctx, "git", "-C", s.repoPath, "rev-parse", "--verify", "--quiet", ref+"^{commit}").Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if ref == "HEAD" && len(s.commits) == 0 {
			return "", ErrEmptyRepository
		}
		return "", fmt.Errorf("%w: %s", ErrRefNotFound, ref)
	}
	return strings.TrimSpace(string(out)), nil
}

// Commit returns a loaded commit.
func (s *CLISource) Commit(_ context.Context, id string) (CommitNode, error) {
	c, ok := s.commits[id]
	if !ok {
		return CommitNode{}, fmt.Errorf("%w: %s", ErrCommitNotFound, id)
	}
	return c, nil
}

// TouchesPath applies the TREESAME rule to the per-parent diffs of the commit.
func (s *CLISource) TouchesPath(_ context.Context, node CommitNode, filter PathFilter) (bool, error) {
	if filter.IsZero() {
		return true, nil
	}
	if _, ok := s.commits[node.ID]; !ok {
		return false, fmt.Errorf("%w: %s", ErrCommitNotFound, node.ID)
	}
	return touchesByParentDiffs(s.diffs[node.ID], len(node.ParentIDs), filter), nil
}

// RelativePath returns the repository-relative path of resource.
func (s *CLISource) RelativePath(resource string) (string, bool) {
	return relativeTo(s.root, resource)
}

// touchesByParentDiffs reports whether every parent diff selects a path.
// Git omits empty diffs, so fewer selecting diffs than parents means the
// commit is TREESAME to at least one parent.
func touchesByParentDiffs(diffs [][]string, parents int, filter PathFilter) bool {
	selecting := 0
	for _, paths := range diffs {
		if filter.MatchesAny(paths) {
			selecting++
		}
	}
	if parents == 0 {
		return selecting > 0
	}
	return selecting >= parents
}

func (s *CLISource) load(ctx context.Context, ref string) error {
	// Each commit header line is prefixed by 0x1e (record separator), then NUL-separated fields.
	const metaFormat = "%x1e%H%x00%P%x00%cI%x00%an%x00%ae%x00%B"

	out, err := exec.CommandContext(ctx, "git",
		"-C", s.repoPath,
		"log",
		"--no-color",
		"--pretty=format:"+metaFormat,
		ref,
	).CombinedOutput()
	if err != nil {
		return fmt.Errorf("git log failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	if err := s.parseMetadata(out); err != nil {
		return err
	}

	// -m shows merges against each parent separately; --root diffs root commits
	// against the empty tree.
	out, err = exec.CommandContext(ctx, "git",
		"-C", s.repoPath,
		"log",
		"--no-color",
		"--no-renames",
		"-m",
		"--root",
		"--pretty=format:%x1e%H%n",
		"--raw", "-z",
		ref,
	).CombinedOutput()
	if err != nil {
		return fmt.Errorf("git log --raw failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return s.parseDiffs(out)
}

func (s *CLISource) parseMetadata(out []byte) error {
	for _, rec := range bytes.Split(out, []byte{0x1e}) {
		rec = bytes.TrimRight(rec, "\n\x00")
		if len(rec) == 0 {
			continue
		}

		fields := bytes.SplitN(rec, []byte{0x00}, 6)
		if len(fields) < 6 {
			return errm.New("unexpected git log header format")
		}

		sha := string(fields[0])
		if _, ok := s.commits[sha]; ok {
			continue
		}

		when, err := time.Parse(time.RFC3339, string(fields[2]))
		if err != nil {
			return fmt.Errorf("parse committer date: %w", err)
		}

		s.commits[sha] = CommitNode{
			ID:        sha,
			ParentIDs: strings.Fields(string(fields[1])),
			When:      when,
			Author:    AuthorInfo{Name: string(fields[3]), Email: string(fields[4])},
			Message:   strings.TrimRight(string(fields[5]), "\n"),
		}
	}
	return nil
}

func (s *CLISource) parseDiffs(out []byte) error {
	loaded := make(map[string][][]string)

	for _, rec := range bytes.Split(out, []byte{0x1e}) {
		if len(rec) == 0 {
			continue
		}

		header, body := splitHeaderBody(rec)
		sha := string(bytes.Trim(header, "\x00\n"))
		if sha == "" {
			continue
		}

		entries, _, err := parseGitRawEntries(body)
		if err != nil {
			return err
		}

		paths := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.srcMode.IsFile() && !e.dstMode.IsFile() {
				continue
			}
			paths = append(paths, e.path)
			if e.oldPath != "" {
				paths = append(paths, e.oldPath)
			}
		}
		if len(paths) > 0 {
			// Merges appear once per parent with -m.
			loaded[sha] = append(loaded[sha], paths)
		}
	}

	// A second ref repeats commits that are already loaded.
	for sha, diffs := range loaded {
		if _, ok := s.diffs[sha]; !ok {
			s.diffs[sha] = diffs
		}
	}
	return nil
}

func splitHeaderBody(rec []byte) (header []byte, body []byte) {
	// The pretty line is followed by '\n', then diff output.
	if idx := bytes.IndexByte(rec, '\n'); idx != -1 {
		return rec[:idx], rec[idx+1:]
	}
	return rec, nil
}

func parseGitRawEntries(body []byte) ([]gitRawEntry, int, error) {
	i := 0
	for i < len(body) && (body[i] == '\n' || body[i] == '\r' || body[i] == 0) {
		i++
	}

	entries := make([]gitRawEntry, 0, 16)

	for i < len(body) && body[i] == ':' {
		meta, ok := readUntilNUL(body, &i)
		if !ok {
			return nil, 0, errm.New("unexpected git --raw format (missing NUL)")
		}

		fields := strings.Fields(string(meta))
		if len(fields) < 5 {
			return nil, 0, fmt.Errorf("unexpected git --raw meta: %q", string(meta))
		}

		srcMode, err := parseGitFileMode(strings.TrimPrefix(fields[0], ":"))
		if err != nil {
			return nil, 0, err
		}
		dstMode, err := parseGitFileMode(fields[1])
		if err != nil {
			return nil, 0, err
		}

		status := fields[len(fields)-1]

		path1, ok := readStringUntilNUL(body, &i)
		if !ok {
			return nil, 0, errm.New("unexpected git --raw format (missing path)")
		}

		path := path1
		oldPath := ""
		if len(status) > 0 && (status[0] == 'R' || status[0] == 'C') {
			path2, ok := readStringUntilNUL(body, &i)
			if !ok {
				return nil, 0, errm.New("unexpected git --raw format (missing rename path)")
			}
			oldPath = path1
			path = path2
		}

		entries = append(entries, gitRawEntry{
			srcMode: srcMode,
			dstMode: dstMode,
			status:  status,
			path:    path,
			oldPath: oldPath,
		})

		for i < len(body) && (body[i] == '\n' || body[i] == '\r') {
			i++
		}
	}

	return entries, i, nil
}

func parseGitFileMode(s string) (filemode.FileMode, error) {
	if s == "" {
		return filemode.Empty, nil
	}
	// Modes are printed as octal (e.g. 100644, 120000, 160000, 000000).
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return filemode.Empty, fmt.Errorf("parse file mode %q: %w", s, err)
	}
	return filemode.FileMode(v), nil
}

func readUntilNUL(b []byte, i *int) ([]byte, bool) {
	if *i >= len(b) {
		return nil, false
	}
	j := bytes.IndexByte(b[*i:], 0)
	if j == -1 {
		return nil, false
	}
	start := *i
	end := *i + j
	*i = end + 1
	return b[start:end], true
}

func readStringUntilNUL(b []byte, i *int) (string, bool) {
	raw, ok := readUntilNUL(b, i)
	if !ok {
		return "", false
	}
	return string(raw), true
}
