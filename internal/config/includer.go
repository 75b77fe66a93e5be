package config

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
)

// Includer resolves a remote `include:` reference of the form
// "<git-url>[#ref]//<path/to/fragment.yaml>" by shallow-cloning the
// repository into memory and reading the fragment out of its worktree.
type Includer struct {
	// Depth bounds the history fetched; clones are always shallow.
	Depth int
}

// NewIncluder returns an Includer configured for a depth-1 shallow clone.
func NewIncluder() *Includer {
	return &Includer{Depth: 1}
}

// Fetch clones ref's repository into memory and returns the named fragment's
// contents.
func (inc *Includer) Fetch(ctx context.Context, ref string) ([]byte, error) {
	repoURL, gitRef, fragmentPath, err := parseIncludeRef(ref)
	if err != nil {
		return nil, err
	}

	depth := inc.Depth
	if depth <= 0 {
		depth = 1
	}

	opts := &git.CloneOptions{
		URL:          repoURL,
		Depth:        depth,
		SingleBranch: gitRef != "",
	}
	if gitRef != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(string(gitRef))
	}

	fs := memfs.New()
	_, err = git.CloneContext(ctx, memory.NewStorage(), fs, opts)
	if err != nil {
		return nil, fmt.Errorf("cloning %s: %w", repoURL, err)
	}

	f, err := fs.Open(fragmentPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s from %s: %w", fragmentPath, repoURL, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s from %s: %w", fragmentPath, repoURL, err)
	}
	return data, nil
}

// includeRef is a branch name parsed out of a `#fragment`; empty means
// "repository default branch". Tags are not resolved.
type includeRef string

// parseIncludeRef splits "<url>[#branch]//<path>" into its parts.
func parseIncludeRef(ref string) (repoURL string, gitRef includeRef, fragmentPath string, err error) {
	parts := strings.SplitN(ref, "//", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", "", fmt.Errorf("include %q: expected <repo-url>[#ref]//<path>", ref)
	}
	fragmentPath = parts[1]

	head := parts[0]
	branch := ""
	if idx := strings.LastIndex(head, "#"); idx >= 0 {
		branch = head[idx+1:]
		head = head[:idx]
	}

	if _, err := url.Parse(head); err != nil {
		return "", "", "", fmt.Errorf("include %q: invalid repository url: %w", ref, err)
	}

	return head, includeRef(branch), fragmentPath, nil
}
