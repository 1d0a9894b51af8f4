package git

import (
	"context"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/rs/zerolog"
)

// References understood by every Adapter in addition to commit ids.
const (
	// HeadRef is the commit a local clone is checked out at
	HeadRef = "HEAD"
	// FetchHeadRef is the tip of the default branch as of the latest fetch
	FetchHeadRef = "FETCH_HEAD"
)

// DiffContextLines is the unified diff context width used for archived diffs
const DiffContextLines = 10

// Backend names accepted by NewAdapter
const (
	BackendGoGit = "gogit"
	BackendExec  = "exec"
)

// Adapter performs the version-control operations on a local clone.
// Every operation is synchronous and returns the tool's failure unchanged
// apart from wrapping; nothing is retried.
type Adapter interface {
	// Clone creates a full-history clone of url at path.
	Clone(ctx context.Context, url, path string) error
	// Fetch updates FetchHeadRef from url.
	Fetch(ctx context.Context, path, url string) error
	// Checkout moves the working tree to commit with a detached HEAD.
	Checkout(ctx context.Context, path, commit string) error
	// RevListBefore returns the newest commit reachable from ref whose
	// commit time is at or before cutoff, or "" when there is none.
	RevListBefore(ctx context.Context, path, ref string, cutoff time.Time) (string, error)
	// Diff renders the unified diff from one commit to another.
	Diff(ctx context.Context, path, from, to string, contextLines int) (string, error)
}

// AdapterOptions configures NewAdapter
type AdapterOptions struct {
	Backend string
	Binary  string
	Auth    transport.AuthMethod
	Logger  zerolog.Logger
}

// NewAdapter builds the Adapter for the configured backend
func NewAdapter(opts AdapterOptions) (Adapter, error) {
	switch opts.Backend {
	case "", BackendGoGit:
		return NewGoGitAdapter(opts.Auth, opts.Logger), nil
	case BackendExec:
		return NewExecAdapter(opts.Binary, opts.Logger), nil
	default:
		return nil, fmt.Errorf("unknown git backend %q", opts.Backend)
	}
}
