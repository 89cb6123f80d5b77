// Copyright © 2018 One Concern

package hub

import (
	"net/url"
	"strings"

	"github.com/oneconcern/comfyrestore/pkg/hub/status"
)

// RepoKind classifies a repository on the hub
type RepoKind string

const (
	// KindModel is a model repository
	KindModel RepoKind = "model"

	// KindDataset is a dataset repository
	KindDataset RepoKind = "dataset"

	// DefaultRevision is the branch used when no revision is specified
	DefaultRevision = "main"
)

// Kinds lists the repository kinds, in the order a lookup should try them
func Kinds() []RepoKind {
	return []RepoKind{KindModel, KindDataset}
}

func (k RepoKind) String() string {
	return string(k)
}

// apiPrefix for metadata calls
func (k RepoKind) apiPrefix() string {
	if k == KindDataset {
		return "api/datasets"
	}
	return "api/models"
}

// resolvePrefix for file downloads
func (k RepoKind) resolvePrefix() string {
	if k == KindDataset {
		return "datasets/"
	}
	return ""
}

// ValidateRepoID checks the id is either "name" or "namespace/name"
func ValidateRepoID(repoID string) error {
	if repoID == "" {
		return status.ErrInvalidRepo.Wrapf("empty repository id")
	}
	parts := strings.Split(repoID, "/")
	if len(parts) > 2 {
		return status.ErrInvalidRepo.Wrapf("%q: expected namespace/name", repoID)
	}
	for _, part := range parts {
		if part == "" || part == "." || part == ".." || strings.TrimSpace(part) != part {
			return status.ErrInvalidRepo.Wrapf("%q", repoID)
		}
		if strings.Contains(part, "--") || strings.Contains(part, "..") {
			return status.ErrInvalidRepo.Wrapf("%q: '--' and '..' are forbidden", repoID)
		}
	}
	return nil
}

func escapeRepoID(repoID string) string {
	parts := strings.Split(repoID, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func escapeFilePath(file string) string {
	parts := strings.Split(strings.TrimPrefix(file, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
