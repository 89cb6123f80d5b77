// Copyright © 2018 One Concern

package installer

import (
	"context"
	"errors"
	"testing"

	"github.com/oneconcern/comfyrestore/pkg/manifest"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const nodesDir = "/workspace/ComfyUI/custom_nodes"

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(_ context.Context, cmd Command) error {
	return m.Called(cmd.String()).Error(0)
}

func setupInstaller(t testing.TB, opts ...Option) (*Installer, *mockRunner, afero.Fs, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	fs := afero.NewMemMapFs()
	runner := &mockRunner{}
	i, err := New(append([]Option{
		CustomNodesDir(nodesDir),
		ManagerCommand("python /opt/cm-cli.py"),
		WithRunner(runner),
		Fs(fs),
		Logger(zap.New(core)),
	}, opts...)...)
	require.NoError(t, err)
	return i, runner, fs, logs
}

func messages(logs *observer.ObservedLogs) []string {
	entries := logs.All()
	msgs := make([]string, 0, len(entries))
	for _, e := range entries {
		msgs = append(msgs, e.Message)
	}
	return msgs
}

func TestInstallSkipsExistingClones(t *testing.T) {
	i, runner, fs, logs := setupInstaller(t)
	require.NoError(t, fs.MkdirAll(nodesDir+"/ComfyUI-Impact-Pack", 0755))

	runner.On("Run", "git clone --depth 1 https://github.com/kijai/ComfyUI-KJNodes.git "+nodesDir+"/ComfyUI-KJNodes").Return(nil).Once()

	report := i.InstallAll(context.Background(), &manifest.Snapshot{
		GitCustomNodes: manifest.GitNodes{
			{URL: "https://github.com/ltdrdata/ComfyUI-Impact-Pack"},
			{URL: "https://github.com/kijai/ComfyUI-KJNodes.git"},
			{URL: "https://github.com/some/disabled-node", Disabled: true},
		},
	})

	runner.AssertExpectations(t)
	runner.AssertNumberOfCalls(t, "Run", 1)
	require.NoError(t, report.Err)
	assert.Equal(t, []string{"https://github.com/kijai/ComfyUI-KJNodes.git"}, report.Cloned)
	assert.Equal(t, []string{"ComfyUI-Impact-Pack"}, report.Skipped)
	assert.Empty(t, report.Failed)

	msgs := messages(logs)
	assert.Contains(t, msgs, "[restore] ComfyUI-Impact-Pack already present")
	assert.Contains(t, msgs, "[restore] cloning https://github.com/kijai/ComfyUI-KJNodes.git")
	for _, msg := range msgs {
		assert.NotContains(t, msg, "[restore][warn]")
	}
}

func TestInstallRecordsFailures(t *testing.T) {
	i, runner, _, logs := setupInstaller(t)

	runner.On("Run", "git clone --depth 1 https://github.com/broken/repo "+nodesDir+"/repo").Return(errors.New("exit status 128")).Once()
	runner.On("Run", "python /opt/cm-cli.py install rgthree-comfy --no-deps --mode cache").Return(errors.New("exit status 1")).Once()
	runner.On("Run", "python /opt/cm-cli.py install comfyui-kjnodes --no-deps --mode cache").Return(nil).Once()

	report := i.InstallAll(context.Background(), &manifest.Snapshot{
		GitCustomNodes: manifest.GitNodes{{URL: "https://github.com/broken/repo"}},
		CnrCustomNodes: manifest.CnrNodes{
			{Name: "rgthree-comfy", Version: "1.0.0"},
			{Name: "comfyui-kjnodes", Version: "1.1.2"},
		},
	})

	runner.AssertExpectations(t)
	require.Error(t, report.Err)
	assert.Equal(t, []string{"https://github.com/broken/repo", "rgthree-comfy"}, report.Failed)
	assert.Equal(t, []string{"comfyui-kjnodes"}, report.Installed)

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "[restore][warn] some nodes failed: [https://github.com/broken/repo, rgthree-comfy]", warnings[0].Message)

	msgs := messages(logs)
	assert.Contains(t, msgs, "[restore][err clone] https://github.com/broken/repo")
	assert.Contains(t, msgs, "[restore][err cnr] rgthree-comfy")
	assert.Contains(t, msgs, "[restore] cnr install comfyui-kjnodes")
}

func TestInstallPinnedVersions(t *testing.T) {
	i, runner, _, _ := setupInstaller(t, PinVersions(true))

	runner.On("Run", "python /opt/cm-cli.py install rgthree-comfy@1.0.0 --no-deps --mode cache").Return(nil).Once()
	runner.On("Run", "python /opt/cm-cli.py install unversioned --no-deps --mode cache").Return(nil).Once()

	report := i.InstallAll(context.Background(), &manifest.Snapshot{
		CnrCustomNodes: manifest.CnrNodes{{Name: "rgthree-comfy", Version: "1.0.0"}, {Name: "unversioned"}},
	})
	runner.AssertExpectations(t)
	require.NoError(t, report.Err)
}

func TestInstallPinnedVersionsFromSnapshot(t *testing.T) {
	i, runner, _, _ := setupInstaller(t, PinVersions(true))

	snapshot, err := manifest.Parse([]byte("cnr_custom_nodes:\n  rgthree-comfy: 1.10\n  comfyui-kjnodes: 2.0\n"))
	require.NoError(t, err)

	runner.On("Run", "python /opt/cm-cli.py install rgthree-comfy@1.10 --no-deps --mode cache").Return(nil).Once()
	runner.On("Run", "python /opt/cm-cli.py install comfyui-kjnodes@2.0 --no-deps --mode cache").Return(nil).Once()

	report := i.InstallAll(context.Background(), snapshot)
	runner.AssertExpectations(t)
	require.NoError(t, report.Err)
	assert.Equal(t, []string{"rgthree-comfy", "comfyui-kjnodes"}, report.Installed)
}

func TestInstallMalformedGitEntry(t *testing.T) {
	i, runner, _, logs := setupInstaller(t)

	snapshot, err := manifest.Parse([]byte("git_custom_nodes:\n  https://github.com/kijai/ComfyUI-KJNodes.git: true\n"))
	require.NoError(t, err)

	runner.On("Run", "git clone --depth 1 https://github.com/kijai/ComfyUI-KJNodes.git "+nodesDir+"/ComfyUI-KJNodes").Return(nil).Once()

	report := i.InstallAll(context.Background(), snapshot)
	runner.AssertExpectations(t)
	require.NoError(t, report.Err)
	assert.Equal(t, []string{"https://github.com/kijai/ComfyUI-KJNodes.git"}, report.Cloned)

	warnings := logs.FilterMessageSnippet("has no settings").FilterLevelExact(zapcore.WarnLevel).All()
	assert.Len(t, warnings, 1)
}

func TestInstallNilSnapshot(t *testing.T) {
	i, runner, _, _ := setupInstaller(t)
	report := i.InstallAll(context.Background(), nil)
	require.NoError(t, report.Err)
	runner.AssertNotCalled(t, "Run", mock.Anything)
}

func TestWarmCache(t *testing.T) {
	i, runner, _, _ := setupInstaller(t)
	runner.On("Run", "python /opt/cm-cli.py simple-show all --mode remote").Return(nil).Once()
	require.NoError(t, i.WarmCache(context.Background()))

	runner.On("Run", "python /opt/cm-cli.py simple-show all --mode remote").Return(errors.New("no network")).Once()
	require.Error(t, i.WarmCache(context.Background()))
	runner.AssertExpectations(t)
}

func TestManagerCommand(t *testing.T) {
	i, err := New(CustomNodesDir("/my nodes/custom_nodes"))
	require.NoError(t, err)
	assert.Equal(t, []string{"python", "/my nodes/custom_nodes/ComfyUI-Manager/cm-cli.py"}, i.manager)

	cmd := i.managerCommand("install", "x")
	assert.Equal(t, "/my nodes", cmd.Dir)
	assert.Equal(t, []string{"COMFYUI_PATH=/my nodes"}, cmd.Env)

	_, err = New(ManagerCommand(`python "unterminated`))
	require.Error(t, err)
}
