// Copyright © 2018 One Concern

package hub_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/oneconcern/comfyrestore/pkg/errors"
	"github.com/oneconcern/comfyrestore/pkg/hub"
	"github.com/oneconcern/comfyrestore/pkg/hub/hubtest"
	"github.com/oneconcern/comfyrestore/pkg/hub/status"
	"github.com/oneconcern/comfyrestore/pkg/storage"
	"github.com/oneconcern/comfyrestore/pkg/storage/localfs"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	backupRepo  = "someone/comfy-backup"
	privateRepo = "someone/private-backup"
	secret      = "hf_secret"
)

func testHub(t testing.TB) *hubtest.Server {
	srv := hubtest.New(
		hubtest.Repo{
			Kind: hub.KindModel,
			ID:   backupRepo,
			Files: map[string]string{
				"ComfyUI/models/checkpoints/sd15.safetensors": "weights",
				"ComfyUI/models/loras/style.safetensors":      "lora",
				"ComfyUI/custom_nodes_snapshot.yaml":          "git_custom_nodes: {}",
				"ComfyUI/user/default/comfy.settings.json":    "{}",
				"README.md": "backup",
			},
		},
		hubtest.Repo{
			Kind:  hub.KindDataset,
			ID:    privateRepo,
			Token: secret,
			Files: map[string]string{"ComfyUI/models/vae/vae.pt": "vae"},
		},
	)
	t.Cleanup(srv.Close)
	return srv
}

func TestRepoInfo(t *testing.T) {
	srv := testHub(t)
	client := hub.New(hub.Endpoint(srv.URL + "/"))

	info, err := client.RepoInfo(context.Background(), hub.KindModel, backupRepo, "")
	require.NoError(t, err)
	assert.Equal(t, backupRepo, info.ID)
	assert.Equal(t, hub.KindModel, info.Kind)
	assert.Len(t, info.Siblings, 5)
	assert.False(t, info.IsGated())

	_, err = client.RepoInfo(context.Background(), hub.KindDataset, backupRepo, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNotFound))
	assert.True(t, hub.IsHTTPError(err))

	_, err = client.RepoInfo(context.Background(), hub.KindDataset, privateRepo, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrUnauthorized))

	authed := hub.New(hub.Endpoint(srv.URL), hub.Token(secret))
	assert.True(t, authed.HasToken())
	info, err = authed.RepoInfo(context.Background(), hub.KindDataset, privateRepo, hub.DefaultRevision)
	require.NoError(t, err)
	assert.Equal(t, hub.KindDataset, info.Kind)
	assert.Contains(t, srv.Requests(), "GET /api/datasets/"+privateRepo+"/revision/main")
}

func TestRepoInfoStatusMapping(t *testing.T) {
	srv := hubtest.New(
		hubtest.Repo{Kind: hub.KindModel, ID: "a/forbidden", Status: 403},
		hubtest.Repo{Kind: hub.KindModel, ID: "a/broken", Status: 502},
	)
	defer srv.Close()
	client := hub.New(hub.Endpoint(srv.URL))

	_, err := client.RepoInfo(context.Background(), hub.KindModel, "a/forbidden", "")
	assert.True(t, errors.Is(err, status.ErrForbidden))

	_, err = client.RepoInfo(context.Background(), hub.KindModel, "a/broken", "")
	assert.True(t, errors.Is(err, status.ErrHubAPI))
	var httpErr *hub.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, 502, httpErr.StatusCode)
}

func TestRepoInfoTransportError(t *testing.T) {
	srv := testHub(t)
	endpoint := srv.URL
	srv.Close()

	_, err := hub.New(hub.Endpoint(endpoint)).RepoInfo(context.Background(), hub.KindModel, backupRepo, "")
	require.Error(t, err)
	assert.False(t, hub.IsHTTPError(err))
}

func TestValidateRepoID(t *testing.T) {
	for _, valid := range []string{"backup", "someone/backup", "some-one/back_up.v2"} {
		assert.NoError(t, hub.ValidateRepoID(valid), valid)
	}
	for _, invalid := range []string{"", "/", "a/b/c", "../etc", "a/..", "a--b/c", " a/b"} {
		err := hub.ValidateRepoID(invalid)
		assert.True(t, errors.Is(err, status.ErrInvalidRepo), invalid)
	}
}

func TestTokenFromHome(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, "token"), []byte(secret+"\n"), 0600))

	assert.True(t, hub.New(hub.TokenFromHome(home)).HasToken())
	assert.False(t, hub.New(hub.TokenFromHome(t.TempDir())).HasToken())

	srv := testHub(t)
	client := hub.New(hub.Endpoint(srv.URL), hub.Token(""), hub.TokenFromHome(home))
	_, err := client.RepoInfo(context.Background(), hub.KindDataset, privateRepo, "")
	require.NoError(t, err)
}

func TestSnapshotRemovesPartialDownloads(t *testing.T) {
	srv := hubtest.New(hubtest.Repo{
		Kind:              hub.KindModel,
		ID:                backupRepo,
		Files:             map[string]string{"ComfyUI/models/checkpoints/sd15.safetensors": "a large checkpoint"},
		TruncateDownloads: true,
	})
	defer srv.Close()
	var progress bytes.Buffer
	client := hub.New(hub.Endpoint(srv.URL), hub.Progress(&progress))
	dest := localfs.New(afero.NewBasePathFs(afero.NewMemMapFs(), "/tmp/hf_models"))

	files, err := client.Snapshot(context.Background(), hub.SnapshotRequest{
		Kind:   hub.KindModel,
		RepoID: backupRepo,
		Dest:   dest,
	})
	require.Error(t, err)
	assert.Empty(t, files)

	has, err := dest.Has(context.Background(), "ComfyUI/models/checkpoints/sd15.safetensors")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestSnapshot(t *testing.T) {
	srv := testHub(t)
	client := hub.New(hub.Endpoint(srv.URL))
	dest := localfs.New(afero.NewBasePathFs(afero.NewMemMapFs(), "/tmp/hf_models"))

	files, err := client.Snapshot(context.Background(), hub.SnapshotRequest{
		Kind:          hub.KindModel,
		RepoID:        backupRepo,
		AllowPatterns: []string{"ComfyUI/models/*"},
		Dest:          dest,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ComfyUI/models/checkpoints/sd15.safetensors",
		"ComfyUI/models/loras/style.safetensors",
	}, files)

	keys, err := dest.Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, files, keys)

	b, err := storage.ReadAll(context.Background(), dest, "ComfyUI/models/checkpoints/sd15.safetensors")
	require.NoError(t, err)
	assert.Equal(t, "weights", string(b))

	// downloads are pinned to the commit described by the metadata
	assert.Contains(t, srv.Requests(),
		"GET /"+backupRepo+"/resolve/0123456789abcdef0123456789abcdef01234567/ComfyUI/models/loras/style.safetensors")
}

func TestSnapshotFailures(t *testing.T) {
	srv := hubtest.New(hubtest.Repo{
		Kind:          hub.KindDataset,
		ID:            backupRepo,
		Files:         map[string]string{"ComfyUI/models/a.bin": "a"},
		FailDownloads: true,
	})
	defer srv.Close()
	client := hub.New(hub.Endpoint(srv.URL))
	dest := localfs.New(afero.NewBasePathFs(afero.NewMemMapFs(), "/tmp/hf_models"))

	_, err := client.Snapshot(context.Background(), hub.SnapshotRequest{
		Kind:   hub.KindDataset,
		RepoID: backupRepo,
		Dest:   dest,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrHubAPI))

	_, err = client.Snapshot(context.Background(), hub.SnapshotRequest{Kind: hub.KindDataset, RepoID: backupRepo})
	require.Error(t, err)

	_, err = client.Snapshot(context.Background(), hub.SnapshotRequest{
		Kind:          hub.KindDataset,
		RepoID:        backupRepo,
		AllowPatterns: []string{"[z-a]"},
		Dest:          dest,
	})
	assert.True(t, errors.Is(err, status.ErrInvalidPattern))
}
