// Copyright © 2018 One Concern

package waitpage

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testLog      = "/server.log"
	testSnapshot = "/workspace/.backup_tmp/hf_pull/ComfyUI/custom_nodes_snapshot.yaml"
	testRepo     = "someone/comfy-backup"
)

const testManifest = `git_custom_nodes:
  https://github.com/ltdrdata/ComfyUI-Impact-Pack:
    disabled: false
  https://github.com/kijai/ComfyUI-KJNodes.git:
    disabled: false
  https://github.com/cubiq/ComfyUI_essentials:
    disabled: false
  https://github.com/some/disabled-node:
    disabled: true
cnr_custom_nodes:
  rgthree-comfy: 1.0.0
  broken-node: 0.1.0
`

func setupMonitor(t testing.TB, log string, opts ...Option) (*Monitor, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	if log != "" {
		require.NoError(t, afero.WriteFile(fs, testLog, []byte(log), 0644))
	}
	m := New(append([]Option{
		Fs(fs),
		LogFile(testLog),
		SnapshotPath(testSnapshot),
		WithEnv(Env{BackupRepo: testRepo, RestoreEnabled: true, HFToken: true}),
	}, opts...)...)
	m.now = func() time.Time { return time.Unix(1700000000, 0) }
	return m, fs
}

func statuses(stages []StageState) map[string]string {
	s := make(map[string]string, len(stages))
	for _, stage := range stages {
		s[stage.ID] = stage.Status
	}
	return s
}

func nodeStatuses(backup *BackupState) map[string]string {
	s := make(map[string]string, len(backup.Nodes))
	for _, node := range backup.Nodes {
		s[node.Key] = node.Status
	}
	return s
}

func TestTailLines(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.Empty(t, TailLines(fs, "/missing.log", 100))

	require.NoError(t, afero.WriteFile(fs, "/boot.log", []byte("first line\r\nsecond line\nthird line\n"), 0644))
	assert.Equal(t, []string{"first line", "second line", "third line"}, TailLines(fs, "/boot.log", 1000))
	assert.Equal(t, []string{"line", "third line"}, TailLines(fs, "/boot.log", 16))

	require.NoError(t, afero.WriteFile(fs, "/bad.log", []byte("ok\xff\xfe line"), 0644))
	assert.Equal(t, []string{"ok line"}, TailLines(fs, "/bad.log", 1000))
}

func TestStagesBeforeAnyMarker(t *testing.T) {
	m, _ := setupMonitor(t, "")
	state := m.State()

	require.Len(t, state.Stages, 8)
	assert.Equal(t, StageActive, state.Stages[0].Status)
	for _, stage := range state.Stages[1:] {
		assert.Equal(t, StagePending, stage.Status, stage.ID)
	}
	assert.InDelta(t, 1700000000.0, state.Timestamp, 0.001)
	require.NotNil(t, state.Env)
	assert.True(t, state.Env.HFToken)
	assert.False(t, state.Env.CivitaiToken)
	assert.Equal(t, "Waiting for backup snapshot manifest...", state.Backup.Message)
	assert.Equal(t, "Restoring backup from "+testRepo, state.Stages[4].Detail)
}

func TestStagesFollowMarkers(t *testing.T) {
	m, _ := setupMonitor(t, strings.Join([]string{
		"STAGE: Checking CUDA",
		"Creating venv at /workspace/venv",
		"STAGE: Installing sageattention",
		"STAGE: Preparing ComfyUI Manager",
		"some noise",
	}, "\n"))

	state := m.State()
	assert.Equal(t, map[string]string{
		"bootstrap":      StageDone,
		"venv":           StageDone,
		"wheels":         StageDone,
		"backup-manager": StageActive,
		"backup-nodes":   StagePending,
		"core":           StagePending,
		"custom":         StagePending,
		"launch":         StagePending,
	}, statuses(state.Stages))
	active, ok := state.Active()
	require.True(t, ok)
	assert.Equal(t, "backup-manager", active.ID)
}

func TestBackupStagesSkippedWhenRestoreDisabled(t *testing.T) {
	m, _ := setupMonitor(t, "STAGE: Checking CUDA\nSTAGE: Preparing ComfyUI Manager\n",
		WithEnv(Env{BackupRepo: testRepo}))

	state := m.State()
	assert.False(t, state.Backup.Enabled)
	assert.Equal(t, "Backup is configured but RESTORE_BACKUP=0.", state.Backup.Message)
	for _, stage := range state.Stages {
		switch stage.ID {
		case "backup-manager", "backup-nodes":
			assert.True(t, stage.Skipped)
			assert.Equal(t, StageDone, stage.Status)
		case "bootstrap":
			assert.Equal(t, StageActive, stage.Status)
		default:
			assert.False(t, stage.Skipped)
		}
	}
	assert.Equal(t, "Backup "+testRepo+" configured but RESTORE_BACKUP=0", state.Stages[4].Detail)

	m, _ = setupMonitor(t, "", WithEnv(Env{}))
	assert.Equal(t, "Backup is not set.", m.State().Backup.Message)
}

func TestBackupProgress(t *testing.T) {
	log := strings.Join([]string{
		"STAGE: Preparing ComfyUI Manager",
		"STAGE: Installing nodes from backup",
		"2024-05-01T10:00:00.000Z\tINFO\t[restore] ComfyUI-Impact-Pack already present",
		"2024-05-01T10:00:01.000Z\tINFO\t[restore] cloning https://github.com/kijai/ComfyUI-KJNodes.git",
		"2024-05-01T10:00:05.000Z\tINFO\t[restore] cloning https://github.com/cubiq/ComfyUI_essentials",
		`2024-05-01T10:00:06.000Z	ERROR	[restore][err clone] https://github.com/cubiq/ComfyUI_essentials	{"error": "exit status 128"}`,
		"2024-05-01T10:00:07.000Z\tINFO\t[restore] cnr install rgthree-comfy",
	}, "\n")
	m, fs := setupMonitor(t, log)
	require.NoError(t, afero.WriteFile(fs, testSnapshot, []byte(testManifest), 0644))

	state := m.State()
	require.True(t, state.Backup.HasManifest)
	assert.Equal(t, map[string]string{
		"ComfyUI-Impact-Pack": NodeDone,
		"ComfyUI-KJNodes":     NodeDone,
		"ComfyUI_essentials":  NodeFailed,
		"rgthree-comfy":       NodeInstalling,
		"broken-node":         NodePending,
	}, nodeStatuses(state.Backup))
	assert.Equal(t, "2/5 nodes processed from "+testRepo+".", state.Backup.Message)

	backupStage := state.Stages[4]
	assert.Equal(t, StageActive, backupStage.Status)
	assert.Equal(t, "Installing rgthree-comfy from snapshot", backupStage.Detail)

	// completion
	log += "\n\tINFO\t[restore] cnr install broken-node"
	log += "\n\tERROR\t[restore][err cnr] broken-node"
	log += "\n\tWARN\t[restore][warn] some nodes failed: [https://github.com/cubiq/ComfyUI_essentials, broken-node]"
	log += "\n\tINFO\t[restore] nodes & settings done"
	log += "\nSTAGE: Updating ComfyUI core\n"
	require.NoError(t, afero.WriteFile(fs, testLog, []byte(log), 0644))

	state = m.State()
	assert.Equal(t, map[string]string{
		"ComfyUI-Impact-Pack": NodeDone,
		"ComfyUI-KJNodes":     NodeDone,
		"ComfyUI_essentials":  NodeFailed,
		"rgthree-comfy":       NodeDone,
		"broken-node":         NodeFailed,
	}, nodeStatuses(state.Backup))
	assert.Equal(t, StageDone, state.Stages[4].Status)
	assert.Equal(t, StageActive, state.Stages[5].Status)
}

func TestSnapshotCache(t *testing.T) {
	m, fs := setupMonitor(t, "")
	assert.Empty(t, m.snapshotNodes())

	require.NoError(t, afero.WriteFile(fs, testSnapshot, []byte(testManifest), 0644))
	mtime := time.Unix(1700000000, 0)
	require.NoError(t, fs.Chtimes(testSnapshot, mtime, mtime))
	assert.Len(t, m.snapshotNodes(), 5)

	// unchanged modification time: the cached nodes are kept
	require.NoError(t, afero.WriteFile(fs, testSnapshot, []byte("cnr_custom_nodes:\n  one: 1\n"), 0644))
	require.NoError(t, fs.Chtimes(testSnapshot, mtime, mtime))
	assert.Len(t, m.snapshotNodes(), 5)

	later := mtime.Add(time.Second)
	require.NoError(t, fs.Chtimes(testSnapshot, later, later))
	assert.Len(t, m.snapshotNodes(), 1)

	require.NoError(t, fs.Remove(testSnapshot))
	assert.Empty(t, m.snapshotNodes())
}

func TestProfileDefaults(t *testing.T) {
	assert.Equal(t, DefaultLogFile, New().LogPath())
	assert.Equal(t, ":8188", New().Profile().Addr)

	p, err := GetProfile(ProfileAIToolkit)
	require.NoError(t, err)
	m := New(WithProfile(p))
	assert.Equal(t, DefaultAIToolkitLogFile, m.LogPath())
	assert.Equal(t, ":8675", m.Profile().Addr)

	m = New(WithProfile(p), LogFile("/var/log/boot.log"))
	assert.Equal(t, "/var/log/boot.log", m.LogPath())
}

func TestAIToolkitProfile(t *testing.T) {
	p, err := GetProfile(ProfileAIToolkit)
	require.NoError(t, err)

	m, _ := setupMonitor(t, strings.Join([]string{
		"[ai-toolkit] cloning repo",
		"[ai-toolkit] creating venv",
		"[ai-toolkit] installing requirements",
		"[ai-toolkit] installing UI dependencies",
	}, "\n"), WithProfile(p))

	state := m.State()
	assert.Nil(t, state.Backup)
	assert.Nil(t, state.Env)
	assert.Equal(t, map[string]string{
		"repo":     StageDone,
		"venv":     StageDone,
		"deps":     StageDone,
		"ui-build": StageActive,
		"start":    StagePending,
	}, statuses(state.Stages))
	assert.Equal(t, "Cloning fresh repo", state.Stages[0].Detail)
	assert.Equal(t, "Installing npm dependencies", state.Stages[3].Detail)

	_, err = GetProfile("nope")
	require.Error(t, err)
	assert.Equal(t, []string{ProfileAIToolkit, ProfileComfy}, ProfileNames())
}

func TestIsEnabled(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " on "} {
		assert.True(t, IsEnabled(v), v)
	}
	for _, v := range []string{"", "0", "false", "off", "maybe"} {
		assert.False(t, IsEnabled(v), v)
	}
}
