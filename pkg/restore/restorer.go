// Copyright © 2018 One Concern

package restore

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/docker/go-units"
	"github.com/oneconcern/comfyrestore/pkg/errors"
	"github.com/oneconcern/comfyrestore/pkg/hub"
	"github.com/oneconcern/comfyrestore/pkg/installer"
	"github.com/oneconcern/comfyrestore/pkg/restore/status"
	"github.com/oneconcern/comfyrestore/pkg/storage"
	"github.com/oneconcern/comfyrestore/pkg/storage/localfs"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Restorer restores a backup repository into a local ComfyUI installation
type Restorer struct {
	repoID    string
	revision  string
	hub       Hub
	fs        afero.Fs
	layout    Layout
	workDir   string
	installer NodeInstaller
	l         *zap.Logger
}

// Report of a restore run
type Report struct {
	// Stage reached. A completed run is always done.
	Stage Stage

	// Skipped is set when the backup was not restored, for the reason given
	Skipped bool
	Reason  string

	// Kind of the backup repository
	Kind hub.RepoKind

	// Restored lists the local files written, relative to the ComfyUI directory
	Restored []string
	Bytes    int64

	// Failed lists custom nodes which could not be installed
	Failed  []string
	Install *installer.Report

	// Err combines the failures which did not interrupt the run
	Err error
}

func (r *Report) skip(reason string) *Report {
	r.Skipped = true
	r.Reason = reason
	r.Stage = StageDone
	return r
}

func (r *Report) record(err error) {
	r.Err = multierr.Append(r.Err, err)
}

// New restorer of a backup repository
func New(repoID string, opts ...Option) (*Restorer, error) {
	repoID = strings.TrimSpace(repoID)
	if repoID == "" {
		return nil, status.ErrMissingBackup
	}
	r := &Restorer{
		repoID:  repoID,
		fs:      afero.NewOsFs(),
		layout:  DefaultLayout(DefaultComfyUIDir),
		workDir: DefaultWorkDir,
		l:       zap.NewNop(),
	}
	for _, apply := range opts {
		apply(r)
	}
	if r.hub == nil {
		r.hub = hub.New(hub.Logger(r.l))
	}
	if r.installer == nil {
		i, err := installer.New(
			installer.CustomNodesDir(r.layout.CustomNodesDir()),
			installer.Fs(r.fs),
			installer.Logger(r.l),
		)
		if err != nil {
			return nil, err
		}
		r.installer = i
	}
	return r, nil
}

// RepoID of the backup
func (r *Restorer) RepoID() string {
	return r.repoID
}

// Preflight checks that the backup repository is accessible, first as a model repository, then as a dataset.
//
// It returns ErrBackupUnavailable when the hub answers with an error status for both kinds. Any other error,
// such as an unreachable hub or an invalid repository id, is returned as is.
func (r *Restorer) Preflight(ctx context.Context) (hub.RepoKind, error) {
	var merr error
	for _, kind := range hub.Kinds() {
		info, err := r.hub.RepoInfo(ctx, kind, r.repoID, r.revision)
		if err == nil {
			r.l.Debug("backup repository found",
				zap.String("repo", r.repoID),
				zap.Stringer("kind", kind),
				zap.Bool("private", info.Private),
				zap.Bool("gated", info.IsGated()),
			)
			return kind, nil
		}
		if !hub.IsHTTPError(err) {
			return "", err
		}
		merr = multierr.Append(merr, err)
	}
	return "", status.ErrBackupUnavailable.Wrap(merr)
}

// preflight runs the preflight stage. It returns false and no error when the run must be skipped.
func (r *Restorer) preflight(ctx context.Context, report *Report) (bool, error) {
	report.Stage = StagePreflight
	kind, err := r.Preflight(ctx)
	if err != nil {
		if errors.Is(err, status.ErrBackupUnavailable) {
			r.l.Info("backup "+r.repoID+" is not accessible, skipping restore", zap.Error(err))
			report.skip(status.ErrBackupUnavailable.Error())
			return false, nil
		}
		return false, err
	}
	report.Kind = kind
	return true, nil
}

// download clears the work subdirectory, then fetches the files of the backup matching patterns into it.
//
// It returns the work subdirectory and the store over it.
func (r *Restorer) download(ctx context.Context, report *Report, subdir string, patterns []string) (string, storage.Store, bool) {
	report.Stage = StageDownload
	dir := filepath.Join(r.workDir, subdir)
	store := localfs.New(afero.NewBasePathFs(r.fs, dir))
	if err := r.fetch(ctx, store, report.Kind, patterns); err != nil {
		r.l.Warn("could not download backup "+r.repoID+", skipping restore", zap.Error(err))
		report.skip(status.ErrDownload.Error())
		report.record(err)
		return "", nil, false
	}
	return dir, store, true
}

func (r *Restorer) fetch(ctx context.Context, store storage.Store, kind hub.RepoKind, patterns []string) error {
	if err := store.Clear(ctx); err != nil {
		return status.ErrDownload.Wrap(err)
	}
	files, err := r.hub.Snapshot(ctx, hub.SnapshotRequest{
		Kind:          kind,
		RepoID:        r.repoID,
		Revision:      r.revision,
		AllowPatterns: patterns,
		Dest:          store,
	})
	if err != nil {
		return status.ErrDownload.Wrap(err)
	}
	r.l.Debug("backup downloaded", zap.Int("files", len(files)), zap.Stringer("store", store))
	return nil
}

func (r *Restorer) restored(report *Report, path string, size int64) {
	report.Restored = append(report.Restored, path)
	report.Bytes += size
	r.l.Info("restored "+path, zap.String("size", units.HumanSize(float64(size))))
}

func (r *Restorer) rel(localPath string) string {
	rel, err := filepath.Rel(r.layout.ComfyUIDir, localPath)
	if err != nil {
		return filepath.ToSlash(localPath)
	}
	return filepath.ToSlash(rel)
}

func (r *Restorer) done(report *Report) *Report {
	report.Stage = StageDone
	r.l.Info("restore complete",
		zap.String("repo", r.repoID),
		zap.Int("files", len(report.Restored)),
		zap.String("size", units.HumanSize(float64(report.Bytes))),
		zap.Int("failed", len(report.Failed)),
	)
	return report
}
