// Copyright © 2018 One Concern

package restore

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/oneconcern/comfyrestore/pkg/reconcile"
	"github.com/oneconcern/comfyrestore/pkg/restore/status"
	"github.com/oneconcern/comfyrestore/pkg/storage"
	"go.uber.org/zap"
)

// Models restores the models saved in the backup into the local models directory.
//
// Files are merged: local models absent from the backup are kept, and files present in both are overwritten.
// Running it twice against the same backup leaves the same result.
func (r *Restorer) Models(ctx context.Context) (*Report, error) {
	report := &Report{Stage: StageStart}
	r.l.Info("STAGE: Restoring backup", zap.String("repo", r.repoID), zap.String("content", "models"))

	ok, err := r.preflight(ctx, report)
	if err != nil || !ok {
		return report, err
	}

	dir, store, ok := r.download(ctx, report, ModelsWorkDir, r.layout.ModelPatterns())
	if !ok {
		return report, nil
	}

	report.Stage = StageReconcile
	n, err := r.countModels(ctx, store)
	if err != nil {
		r.l.Warn("could not list downloaded models, skipping restore", zap.Error(err))
		report.record(err)
		return report.skip(status.ErrDownload.Error()), nil
	}
	if n == 0 {
		r.l.Info("nothing to restore", zap.String("repo", r.repoID), zap.String("path", r.layout.ModelsPrefix))
		return report.skip(status.ErrNothingToRestore.Error()), nil
	}
	r.l.Debug("models downloaded", zap.Int("files", n))

	src := filepath.Join(dir, filepath.FromSlash(r.layout.ModelsPrefix))

	target := r.layout.ModelsDir()
	_, err = reconcile.Merge(r.fs, src, target, reconcile.OnCopy(func(c reconcile.Copied) {
		r.restored(report, r.rel(filepath.Join(target, filepath.FromSlash(c.Path))), c.Size)
	}))
	if err != nil {
		r.l.Error("could not restore models", zap.String("path", r.layout.ModelsPrefix), zap.Error(err))
		report.record(err)
	}
	return r.done(report), nil
}

func (r *Restorer) countModels(ctx context.Context, store storage.Store) (int, error) {
	keys, err := store.Keys(ctx)
	if err != nil {
		return 0, status.ErrDownload.Wrap(err)
	}
	prefix := strings.TrimSuffix(r.layout.ModelsPrefix, "/") + "/"
	var n int
	for _, key := range keys {
		if strings.HasPrefix(key, prefix) {
			n++
		}
	}
	return n, nil
}
