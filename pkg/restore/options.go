// Copyright © 2018 One Concern

package restore

import (
	"context"

	"github.com/oneconcern/comfyrestore/pkg/hub"
	"github.com/oneconcern/comfyrestore/pkg/installer"
	"github.com/oneconcern/comfyrestore/pkg/manifest"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Hub is the part of the hub client used to restore
type Hub interface {
	RepoInfo(context.Context, hub.RepoKind, string, string) (*hub.RepoInfo, error)
	Snapshot(context.Context, hub.SnapshotRequest) ([]string, error)
}

// NodeInstaller reinstalls the custom nodes of a snapshot manifest
type NodeInstaller interface {
	WarmCache(context.Context) error
	InstallAll(context.Context, *manifest.Snapshot) *installer.Report
}

var (
	_ Hub           = &hub.Client{}
	_ NodeInstaller = &installer.Installer{}
)

// Option for a restorer
type Option func(*Restorer)

// WithHub sets the hub client. It defaults to a client on the public hub.
func WithHub(h Hub) Option {
	return func(r *Restorer) {
		if h != nil {
			r.hub = h
		}
	}
}

// Fs sets the file system holding both the work directory and the ComfyUI installation
func Fs(fs afero.Fs) Option {
	return func(r *Restorer) {
		if fs != nil {
			r.fs = fs
		}
	}
}

// WithLayout sets the backup to local paths mapping
func WithLayout(l Layout) Option {
	return func(r *Restorer) {
		r.layout = l
	}
}

// WorkDir sets the directory receiving downloads. Its restorer subdirectory is emptied at the start of each run.
func WorkDir(dir string) Option {
	return func(r *Restorer) {
		if dir != "" {
			r.workDir = dir
		}
	}
}

// Revision of the backup to restore. It defaults to the main branch.
func Revision(rev string) Option {
	return func(r *Restorer) {
		r.revision = rev
	}
}

// WithInstaller sets the custom nodes installer
func WithInstaller(i NodeInstaller) Option {
	return func(r *Restorer) {
		if i != nil {
			r.installer = i
		}
	}
}

// Logger for the restorer
func Logger(l *zap.Logger) Option {
	return func(r *Restorer) {
		if l != nil {
			r.l = l
		}
	}
}
