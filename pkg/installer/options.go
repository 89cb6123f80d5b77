// Copyright © 2018 One Concern

package installer

import (
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Option for the installer
type Option func(*Installer)

// CustomNodesDir sets the directory where git nodes are cloned
func CustomNodesDir(dir string) Option {
	return func(i *Installer) {
		if dir != "" {
			i.nodesDir = dir
		}
	}
}

// ManagerCommand sets the command line invoking the plugin manager CLI, e.g. "python /path/to/cm-cli.py".
//
// It is split like a shell would. It defaults to the cm-cli script of ComfyUI-Manager under the custom nodes directory.
func ManagerCommand(cmdLine string) Option {
	return func(i *Installer) {
		i.managerLine = cmdLine
	}
}

// PinVersions installs registry nodes at the version recorded by the snapshot
func PinVersions(pin bool) Option {
	return func(i *Installer) {
		i.pin = pin
	}
}

// WithRunner sets the command runner. It defaults to ExecRunner.
func WithRunner(r Runner) Option {
	return func(i *Installer) {
		if r != nil {
			i.runner = r
		}
	}
}

// Fs sets the file system used to check for already installed nodes
func Fs(fs afero.Fs) Option {
	return func(i *Installer) {
		if fs != nil {
			i.fs = fs
		}
	}
}

// Logger for the installer
func Logger(l *zap.Logger) Option {
	return func(i *Installer) {
		if l != nil {
			i.l = l
		}
	}
}
