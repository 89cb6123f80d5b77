// Copyright © 2018 One Concern

package waitpage

import (
	"fmt"
	"strings"

	"github.com/oneconcern/comfyrestore/pkg/manifest"
)

// Install statuses of a backup node
const (
	NodePending    = "pending"
	NodeInstalling = "installing"
	NodeDone       = "done"
	NodeFailed     = "failed"
)

var (
	restoreCloneRe    = ci(`\[restore\]\s+cloning\s+(\S+)`)
	restoreCnrRe      = ci(`\[restore\]\s+cnr install\s+([A-Za-z0-9._-]+)`)
	restoreSkipRe     = ci(`\[restore\]\s+([A-Za-z0-9._-]+)\s+already present`)
	restoreErrRe      = ci(`\[restore\]\[err[^\]]*\]\s*(\S+)`)
	restoreDoneRe     = ci(`\[restore\]\s+nodes\s+&\s+settings\s+done`)
	restoreFailListRe = ci(`\[restore\]\[warn\].*failed:\s*\[([^\]]+)\]`)
)

// NodeState is a node of the backup manifest with its install status
type NodeState struct {
	manifest.Node
	Status string `json:"status"`
}

// BackupState reports the progress of a backup restore
type BackupState struct {
	Enabled     bool        `json:"enabled"`
	Repo        string      `json:"repo,omitempty"`
	Nodes       []NodeState `json:"nodes"`
	HasManifest bool        `json:"has_manifest"`
	Message     string      `json:"message"`
}

func repoLabel(repoURL string) string {
	if name, err := manifest.RepoDirName(repoURL); err == nil {
		return name
	}
	return manifest.NormalizeRepo(repoURL)
}

type nodeIndex struct {
	byKey  map[string]int
	byRepo map[string]int
}

func newNodeIndex(nodes []NodeState) nodeIndex {
	idx := nodeIndex{byKey: make(map[string]int, len(nodes)), byRepo: make(map[string]int, len(nodes))}
	for i, node := range nodes {
		idx.byKey[node.Key] = i
		if node.Repo != "" {
			idx.byRepo[node.Repo] = i
		}
	}
	return idx
}

// find a node by key, then by repository URL
func (x nodeIndex) find(ref string) (int, bool) {
	ref = strings.TrimSpace(ref)
	if i, ok := x.byKey[ref]; ok {
		return i, true
	}
	i, ok := x.byRepo[manifest.NormalizeRepo(ref)]
	return i, ok
}

// applyProgress sets node statuses from the restore markers found in log lines.
//
// A node becomes installing when its clone or install starts, and done when the next one starts.
// Nodes preceding the node being installed are considered done.
func applyProgress(nodes []NodeState, lines []string) {
	if len(nodes) == 0 {
		return
	}
	for i := range nodes {
		if nodes[i].Status == "" {
			nodes[i].Status = NodePending
		}
	}
	idx := newNodeIndex(nodes)
	active := -1
	start := func(i int) {
		if active >= 0 && active != i && nodes[active].Status == NodeInstalling {
			nodes[active].Status = NodeDone
		}
		active = i
		nodes[i].Status = NodeInstalling
	}

	for _, line := range lines {
		if m := restoreCloneRe.FindStringSubmatch(line); m != nil {
			if i, ok := idx.byRepo[manifest.NormalizeRepo(m[1])]; ok {
				start(i)
			}
			continue
		}
		if m := restoreCnrRe.FindStringSubmatch(line); m != nil {
			if i, ok := idx.byKey[m[1]]; ok {
				start(i)
			}
			continue
		}
		if m := restoreSkipRe.FindStringSubmatch(line); m != nil {
			if i, ok := idx.find(m[1]); ok {
				nodes[i].Status = NodeDone
			}
			continue
		}
		if m := restoreErrRe.FindStringSubmatch(line); m != nil {
			if i, ok := idx.find(m[1]); ok {
				nodes[i].Status = NodeFailed
			}
			continue
		}
		if m := restoreFailListRe.FindStringSubmatch(line); m != nil {
			for _, ref := range strings.Split(m[1], ",") {
				if i, ok := idx.find(ref); ok {
					nodes[i].Status = NodeFailed
				}
			}
			continue
		}
		if restoreDoneRe.MatchString(line) {
			for i := range nodes {
				if nodes[i].Status == NodePending || nodes[i].Status == NodeInstalling {
					nodes[i].Status = NodeDone
				}
			}
			active = -1
		}
	}

	if active >= 0 && nodes[active].Status == NodeInstalling {
		for i := 0; i < active; i++ {
			if nodes[i].Status == NodePending {
				nodes[i].Status = NodeDone
			}
		}
	}
}

func backupMessage(env Env, backup *BackupState) string {
	switch {
	case env.BackupRepo == "":
		return "Backup is not set."
	case !env.RestoreEnabled:
		return "Backup is configured but RESTORE_BACKUP=0."
	case len(backup.Nodes) == 0:
		return "Waiting for backup snapshot manifest..."
	default:
		completed := 0
		for _, node := range backup.Nodes {
			if node.Status == NodeDone {
				completed++
			}
		}
		return fmt.Sprintf("%d/%d nodes processed from %s.", completed, len(backup.Nodes), env.BackupRepo)
	}
}
