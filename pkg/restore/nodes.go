// Copyright © 2018 One Concern

package restore

import (
	"context"
	"path/filepath"

	"github.com/oneconcern/comfyrestore/pkg/manifest"
	"github.com/oneconcern/comfyrestore/pkg/reconcile"
	"github.com/oneconcern/comfyrestore/pkg/restore/status"
	"github.com/oneconcern/comfyrestore/pkg/storage"
	"go.uber.org/zap"
)

// Nodes restores user settings, workflows and subgraphs, then reinstalls the custom nodes listed by
// the snapshot manifest of the backup.
//
// Settings overwrite the local settings file. Workflows replace the local workflows directory entirely,
// whereas subgraphs are merged into the local subgraphs directory. Each of them is optional in the backup.
//
// Nodes which fail to install are reported, they do not interrupt the run.
func (r *Restorer) Nodes(ctx context.Context) (*Report, error) {
	report := &Report{Stage: StageStart}

	ok, err := r.preflight(ctx, report)
	if err != nil || !ok {
		return report, err
	}

	dir, store, ok := r.download(ctx, report, NodesWorkDir, r.layout.NodePatterns())
	if !ok {
		return report, nil
	}

	report.Stage = StageReconcile
	found := r.restoreSettings(dir, report)
	found = r.restoreWorkflows(dir, report) || found
	found = r.restoreSubgraphs(dir, report) || found

	snapshot, hasManifest := r.loadManifest(ctx, store, report)
	if !found && !hasManifest {
		r.l.Info("nothing to restore", zap.String("repo", r.repoID), zap.String("content", "nodes & settings"))
		return report.skip(status.ErrNothingToRestore.Error()), nil
	}

	report.Stage = StageInstallPlugins
	r.l.Info("STAGE: Preparing ComfyUI Manager")
	if err = r.installer.WarmCache(ctx); err != nil {
		r.l.Warn("could not warm up the plugin manager cache, continuing", zap.Error(err))
	}

	if snapshot != nil {
		r.l.Info("STAGE: Installing nodes from backup", zap.Int("nodes", len(snapshot.Nodes())))
		install := r.installer.InstallAll(ctx, snapshot)
		report.Install = install
		report.Failed = append(report.Failed, install.Failed...)
		if install.Err != nil {
			report.record(install.Err)
		}
	}

	r.l.Info("[restore] nodes & settings done")
	return r.done(report), nil
}

func (r *Restorer) restoreSettings(dir string, report *Report) bool {
	src, ok := reconcile.FirstExisting(r.fs, r.layout.candidates(dir, settingsFile)...)
	if !ok {
		r.l.Debug("no settings in backup")
		return false
	}
	target := r.layout.SettingsFile()
	n, err := reconcile.CopyFile(r.fs, src, target)
	if err != nil {
		r.l.Error("could not restore settings", zap.String("source", src), zap.Error(err))
		report.record(err)
		return true
	}
	r.restored(report, r.rel(target), n)
	return true
}

func (r *Restorer) restoreWorkflows(dir string, report *Report) bool {
	src, ok := reconcile.FirstExisting(r.fs, r.layout.candidates(dir, workflowsDir)...)
	if !ok {
		r.l.Debug("no workflows in backup")
		return false
	}
	target := r.layout.WorkflowsDir()
	_, err := reconcile.Replace(r.fs, src, target, reconcile.OnCopy(func(c reconcile.Copied) {
		r.restored(report, r.rel(filepath.Join(target, filepath.FromSlash(c.Path))), c.Size)
	}))
	if err != nil {
		r.l.Error("could not restore workflows", zap.String("source", src), zap.Error(err))
		report.record(err)
	}
	return true
}

func (r *Restorer) restoreSubgraphs(dir string, report *Report) bool {
	src, ok := reconcile.FirstExisting(r.fs, r.layout.candidates(dir, subgraphsDir)...)
	if !ok {
		r.l.Debug("no subgraphs in backup")
		return false
	}
	target := r.layout.SubgraphsDir()
	_, err := reconcile.Merge(r.fs, src, target, reconcile.OnCopy(func(c reconcile.Copied) {
		r.restored(report, r.rel(filepath.Join(target, filepath.FromSlash(c.Path))), c.Size)
	}))
	if err != nil {
		r.l.Error("could not restore subgraphs", zap.String("source", src), zap.Error(err))
		report.record(err)
	}
	return true
}

func (r *Restorer) loadManifest(ctx context.Context, store storage.Store, report *Report) (*manifest.Snapshot, bool) {
	key := r.layout.ManifestPath
	if has, _ := store.Has(ctx, key); !has {
		r.l.Info("no custom nodes snapshot in backup")
		return nil, false
	}
	data, err := storage.ReadAll(ctx, store, key)
	if err == nil {
		var snapshot *manifest.Snapshot
		if snapshot, err = manifest.Parse(data); err == nil {
			return snapshot, true
		}
	}
	r.l.Error("could not read custom nodes snapshot", zap.String("path", key), zap.Stringer("store", store), zap.Error(err))
	report.record(err)
	return nil, true
}
