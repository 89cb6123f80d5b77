// Copyright © 2018 One Concern

package restore

import (
	"path"
	"path/filepath"
)

// Defaults matching the container layout
const (
	DefaultComfyUIDir = "/workspace/ComfyUI"
	DefaultWorkDir    = "/workspace/.backup_tmp"

	// ModelsWorkDir is the download directory of the model restorer, under the work directory
	ModelsWorkDir = "hf_models"

	// NodesWorkDir is the download directory of the node restorer, under the work directory
	NodesWorkDir = "hf_pull"
)

const (
	settingsFile = "comfy.settings.json"
	workflowsDir = "workflows"
	subgraphsDir = "subgraphs"
)

// Layout maps paths in the backup repository to local paths
type Layout struct {
	// ComfyUIDir is the local ComfyUI installation
	ComfyUIDir string

	// ModelsPrefix is the backup path holding models
	ModelsPrefix string

	// ManifestPath is the backup path of the custom nodes snapshot
	ManifestPath string

	// UserPrefixes are the candidate backup paths of user data, tried in order
	UserPrefixes []string
}

// DefaultLayout of backups made from a ComfyUI installation at comfyUIDir.
//
// User data was saved under "ComfyUI/user/default" by recent backups and under "user/default" by older ones.
func DefaultLayout(comfyUIDir string) Layout {
	if comfyUIDir == "" {
		comfyUIDir = DefaultComfyUIDir
	}
	return Layout{
		ComfyUIDir:   comfyUIDir,
		ModelsPrefix: "ComfyUI/models",
		ManifestPath: "ComfyUI/custom_nodes_snapshot.yaml",
		UserPrefixes: []string{"ComfyUI/user/default", "user/default"},
	}
}

// ModelPatterns selects the files downloaded by the model restorer
func (l Layout) ModelPatterns() []string {
	return []string{l.ModelsPrefix + "/*"}
}

// NodePatterns selects the files downloaded by the node restorer
func (l Layout) NodePatterns() []string {
	patterns := []string{l.ManifestPath}
	for _, prefix := range l.UserPrefixes {
		patterns = append(patterns,
			path.Join(prefix, settingsFile),
			path.Join(prefix, workflowsDir)+"/*",
			path.Join(prefix, subgraphsDir)+"/*",
		)
	}
	return patterns
}

// candidates lists the downloaded locations of a user data entry, in order of preference
func (l Layout) candidates(root, name string) []string {
	c := make([]string, 0, len(l.UserPrefixes))
	for _, prefix := range l.UserPrefixes {
		c = append(c, filepath.Join(root, filepath.FromSlash(prefix), name))
	}
	return c
}

// ModelsDir is the local models directory
func (l Layout) ModelsDir() string {
	return filepath.Join(l.ComfyUIDir, "models")
}

// UserDir is the local directory of the default user
func (l Layout) UserDir() string {
	return filepath.Join(l.ComfyUIDir, "user", "default")
}

// SettingsFile is the local settings file
func (l Layout) SettingsFile() string {
	return filepath.Join(l.UserDir(), settingsFile)
}

// WorkflowsDir is the local workflows directory
func (l Layout) WorkflowsDir() string {
	return filepath.Join(l.UserDir(), workflowsDir)
}

// SubgraphsDir is the local subgraphs directory
func (l Layout) SubgraphsDir() string {
	return filepath.Join(l.UserDir(), subgraphsDir)
}

// CustomNodesDir is the local custom nodes directory
func (l Layout) CustomNodesDir() string {
	return filepath.Join(l.ComfyUIDir, "custom_nodes")
}
