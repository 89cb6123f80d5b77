// Copyright © 2018 One Concern

package hub

import (
	"context"
	"fmt"

	"github.com/oneconcern/comfyrestore/pkg/storage"
	"go.uber.org/zap"
)

// SnapshotRequest describes a filtered snapshot download
type SnapshotRequest struct {
	Kind          RepoKind
	RepoID        string
	Revision      string
	AllowPatterns []string
	Dest          storage.Store
}

// Snapshot downloads the files of a repository matching the allow patterns into the destination store.
//
// Files keep their relative path in the repository. It returns the list of downloaded files.
func (c *Client) Snapshot(ctx context.Context, req SnapshotRequest) ([]string, error) {
	if req.Dest == nil {
		return nil, fmt.Errorf("snapshot of %q: no destination", req.RepoID)
	}
	matcher, err := NewMatcher(req.AllowPatterns)
	if err != nil {
		return nil, err
	}
	revision := req.Revision
	if revision == "" {
		revision = DefaultRevision
	}
	info, err := c.RepoInfo(ctx, req.Kind, req.RepoID, revision)
	if err != nil {
		return nil, err
	}
	// pin the commit, so all files come from the same state of the repository
	if info.SHA != "" {
		revision = info.SHA
	}

	downloaded := make([]string, 0, len(info.Siblings))
	for _, sibling := range info.Siblings {
		if !matcher.Match(sibling.RFilename) {
			continue
		}
		if err = c.fetch(ctx, req, revision, sibling.RFilename); err != nil {
			return downloaded, err
		}
		downloaded = append(downloaded, sibling.RFilename)
	}
	c.l.Debug("snapshot downloaded",
		zap.String("repo", req.RepoID),
		zap.Stringer("kind", req.Kind),
		zap.String("revision", revision),
		zap.Int("files", len(downloaded)),
		zap.Stringer("destination", req.Dest),
	)
	return downloaded, nil
}

func (c *Client) fetch(ctx context.Context, req SnapshotRequest, revision, file string) error {
	rdr, size, err := c.Open(ctx, req.Kind, req.RepoID, revision, file)
	if err != nil {
		return err
	}
	defer func() {
		_ = rdr.Close()
	}()
	if err = req.Dest.Put(ctx, file, c.withProgress(rdr, size, file)); err != nil {
		// a download cut short must not be mistaken for a complete file
		if derr := req.Dest.Delete(ctx, file); derr != nil {
			c.l.Warn("could not remove partial download", zap.String("file", file), zap.Error(derr))
		}
		return fmt.Errorf("storing %q: %w", file, err)
	}
	return nil
}
