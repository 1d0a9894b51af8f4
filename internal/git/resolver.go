package git

import (
	"context"
	"time"

	"docsdiff/pkg/errors"
	"docsdiff/pkg/models"
)

// Resolver maps a reference and a cutoff timestamp to a commit
type Resolver struct {
	adapter Adapter
}

// NewResolver creates a resolver on top of an adapter
func NewResolver(adapter Adapter) *Resolver {
	return &Resolver{adapter: adapter}
}

// Resolve returns the newest commit reachable from ref whose commit time is
// at or before cutoff. It fails with ErrCodeCommitNotFound when no commit
// qualifies.
func (r *Resolver) Resolve(ctx context.Context, path, ref string, cutoff time.Time) (string, error) {
	commit, err := r.adapter.RevListBefore(ctx, path, ref, cutoff)
	if err != nil {
		return "", err
	}
	if commit == "" {
		return "", errors.NotFound(ref, cutoff).WithContext("path", path)
	}
	return commit, nil
}

// ResolvePair pins both HEAD and FETCH_HEAD of a clone at cutoff
func (r *Resolver) ResolvePair(ctx context.Context, path string, cutoff time.Time) (models.ResolvedPair, error) {
	head, err := r.Resolve(ctx, path, HeadRef, cutoff)
	if err != nil {
		return models.ResolvedPair{}, err
	}
	fetchHead, err := r.Resolve(ctx, path, FetchHeadRef, cutoff)
	if err != nil {
		return models.ResolvedPair{}, err
	}
	return models.ResolvedPair{Head: head, FetchHead: fetchHead}, nil
}
