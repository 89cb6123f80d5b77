// Copyright © 2018 One Concern

package waitpage

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/oneconcern/comfyrestore/pkg/manifest"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Defaults matching the container layout
const (
	DefaultLogFile          = "/server.log"
	DefaultAIToolkitLogFile = "/ai_toolkit_setup.log"
	DefaultSnapshotPath     = "/workspace/.backup_tmp/hf_pull/ComfyUI/custom_nodes_snapshot.yaml"
)

// Stage statuses
const (
	StagePending = "pending"
	StageActive  = "active"
	StageDone    = "done"
)

// Env summarizes the restore configuration shown on the page. Tokens are only reported as set or not.
type Env struct {
	BackupRepo     string `json:"backup_repo"`
	RestoreEnabled bool   `json:"restore_enabled"`
	HFToken        bool   `json:"hf_token"`
	CivitaiToken   bool   `json:"civitai_token"`
}

// IsEnabled interprets a boolean environment value
func IsEnabled(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// StageState is the status of a boot stage
type StageState struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Detail  string `json:"detail"`
	Status  string `json:"status"`
	Skipped bool   `json:"skipped"`
}

// State of the boot sequence
type State struct {
	Timestamp float64      `json:"timestamp"`
	Stages    []StageState `json:"stages"`
	Backup    *BackupState `json:"backup,omitempty"`
	Env       *Env         `json:"env,omitempty"`
}

// Active stage, if any
func (s State) Active() (StageState, bool) {
	for _, stage := range s.Stages {
		if stage.Status == StageActive {
			return stage, true
		}
	}
	return StageState{}, false
}

type snapshotCache struct {
	modTime time.Time
	nodes   []manifest.Node
}

// Monitor computes the boot state from the boot log
type Monitor struct {
	fs           afero.Fs
	logPath      string
	snapshotPath string
	profile      Profile
	env          Env
	l            *zap.Logger
	now          func() time.Time

	mu    sync.Mutex
	cache snapshotCache
}

// New boot monitor
func New(opts ...Option) *Monitor {
	m := &Monitor{
		fs:           afero.NewOsFs(),
		snapshotPath: DefaultSnapshotPath,
		profile:      comfyProfile(),
		l:            zap.NewNop(),
		now:          time.Now,
	}
	for _, apply := range opts {
		apply(m)
	}
	if m.logPath == "" {
		m.logPath = m.profile.LogFile
	}
	return m
}

// LogPath is the boot log followed by the monitor
func (m *Monitor) LogPath() string {
	return m.logPath
}

// Profile of the monitored application
func (m *Monitor) Profile() Profile {
	return m.profile
}

// State of the boot sequence, computed from the current tail of the log
func (m *Monitor) State() State {
	lines := TailLines(m.fs, m.logPath, m.profile.TailBytes)
	state := State{
		Timestamp: float64(m.now().UnixNano()) / float64(time.Second),
	}
	if m.profile.Backup {
		env := m.env
		state.Env = &env
		state.Backup = m.backupState(lines)
	}
	state.Stages = m.stages(lines, state.Backup)
	return state
}

func (m *Monitor) backupState(lines []string) *BackupState {
	enabled := m.env.RestoreEnabled && m.env.BackupRepo != ""
	backup := &BackupState{
		Enabled: enabled,
		Repo:    m.env.BackupRepo,
		Nodes:   []NodeState{},
	}
	if enabled {
		for _, node := range m.snapshotNodes() {
			backup.Nodes = append(backup.Nodes, NodeState{Node: node})
		}
		backup.HasManifest = len(backup.Nodes) > 0
		applyProgress(backup.Nodes, lines)
	}
	backup.Message = backupMessage(m.env, backup)
	return backup
}

// snapshotNodes lists the nodes of the snapshot manifest, parsed again only when the file changes
func (m *Monitor) snapshotNodes() []manifest.Node {
	m.mu.Lock()
	defer m.mu.Unlock()

	fi, err := m.fs.Stat(m.snapshotPath)
	if err != nil {
		if !os.IsNotExist(err) {
			m.l.Debug("cannot stat snapshot manifest", zap.String("path", m.snapshotPath), zap.Error(err))
		}
		m.cache = snapshotCache{}
		return nil
	}
	if !m.cache.modTime.IsZero() && fi.ModTime().Equal(m.cache.modTime) {
		return m.cache.nodes
	}
	snapshot, err := manifest.Load(m.fs, m.snapshotPath)
	if err != nil {
		// the manifest may be partially downloaded
		m.l.Debug("cannot read snapshot manifest", zap.String("path", m.snapshotPath), zap.Error(err))
		return nil
	}
	m.cache = snapshotCache{modTime: fi.ModTime(), nodes: snapshot.Nodes()}
	return m.cache.nodes
}

// stages locates the boot sequence from the last stage marker found in the log
func (m *Monitor) stages(lines []string, backup *BackupState) []StageState {
	defs := m.profile.Stages
	skipBackup := m.profile.Backup && (backup == nil || !backup.Enabled)

	stages := make([]StageState, len(defs))
	for i, def := range defs {
		detail := def.Detail
		if def.DetailFunc != nil {
			detail = def.DetailFunc(m.env, backup)
		}
		stages[i] = StageState{
			ID:      def.ID,
			Label:   def.Label,
			Detail:  detail,
			Status:  StagePending,
			Skipped: def.Backup && skipBackup,
		}
		if stages[i].Skipped {
			stages[i].Status = StageDone
		}
	}

	current := -1
	for _, line := range lines {
		for i, def := range defs {
			if stages[i].Skipped || !def.matches(line) {
				continue
			}
			current = i
			break
		}
		if current >= 0 && defs[current].DetailFromLine != nil {
			stages[current].Detail = defs[current].DetailFromLine(line, stages[current].Detail)
		}
	}

	if current < 0 {
		// nothing logged yet: the first stage is starting
		for i := range stages {
			if !stages[i].Skipped {
				stages[i].Status = StageActive
				break
			}
		}
		return stages
	}
	for i := range stages {
		if stages[i].Skipped {
			continue
		}
		switch {
		case i < current:
			stages[i].Status = StageDone
		case i == current:
			stages[i].Status = StageActive
		}
	}
	return stages
}
