// Copyright © 2018 One Concern

package restore

// Stage of a restore sequence
type Stage string

// Stages, in the order they are reached
const (
	StageStart          Stage = "start"
	StagePreflight      Stage = "preflight"
	StageDownload       Stage = "download"
	StageReconcile      Stage = "reconcile"
	StageInstallPlugins Stage = "install-plugins"
	StageDone           Stage = "done"
)

func (s Stage) String() string {
	return string(s)
}
