// Copyright © 2018 One Concern

package waitpage

import (
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Option for the monitor
type Option func(*Monitor)

// Fs sets the file system holding the log and the snapshot manifest
func Fs(fs afero.Fs) Option {
	return func(m *Monitor) {
		if fs != nil {
			m.fs = fs
		}
	}
}

// LogFile sets the boot log to follow
func LogFile(path string) Option {
	return func(m *Monitor) {
		if path != "" {
			m.logPath = path
		}
	}
}

// SnapshotPath sets the location of the downloaded snapshot manifest
func SnapshotPath(path string) Option {
	return func(m *Monitor) {
		if path != "" {
			m.snapshotPath = path
		}
	}
}

// WithProfile sets the boot sequence to follow
func WithProfile(p Profile) Option {
	return func(m *Monitor) {
		m.profile = p
	}
}

// WithEnv sets the restore configuration
func WithEnv(env Env) Option {
	return func(m *Monitor) {
		m.env = env
	}
}

// Logger for the monitor
func Logger(l *zap.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.l = l
		}
	}
}
