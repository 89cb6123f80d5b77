// Copyright © 2018 One Concern

package waitpage

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Profile describes the boot sequence of an application
type Profile struct {
	Name  string
	Title string

	// TailBytes is the size of the log tail scanned on each state computation
	TailBytes int64

	// Backup enables the backup progress panel
	Backup bool

	// LogFile and Addr are the default boot log followed and the address served for this application
	LogFile string
	Addr    string

	Stages []StageDef
}

// StageDef defines a boot stage and the log markers announcing it
type StageDef struct {
	ID       string
	Label    string
	Detail   string
	Patterns []*regexp.Regexp

	// Backup stages are skipped when no restore is expected
	Backup bool

	// DetailFunc computes the initial detail from the environment and the backup state
	DetailFunc func(Env, *BackupState) string

	// DetailFromLine refines the detail from log lines received while the stage is active
	DetailFromLine func(line, current string) string
}

func (d StageDef) matches(line string) bool {
	for _, pattern := range d.Patterns {
		if pattern.MatchString(line) {
			return true
		}
	}
	return false
}

func ci(pattern string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + pattern)
}

// Profile names
const (
	ProfileComfy     = "comfy"
	ProfileAIToolkit = "ai-toolkit"
)

var profiles = map[string]Profile{
	ProfileComfy:     comfyProfile(),
	ProfileAIToolkit: aiToolkitProfile(),
}

// GetProfile by name
func GetProfile(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q, expected one of %s", name, strings.Join(ProfileNames(), ", "))
	}
	return p, nil
}

// ProfileNames lists the known profiles
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var nodeProgress = []*regexp.Regexp{
	ci(`\[nodes\]\s+refreshing\s+([A-Za-z0-9._-]+)`),
	ci(`(?:Updating|Installing)\s+([A-Za-z0-9._-]+)`),
	ci(`\[manager][^\]]*\]\s*([A-Za-z0-9._-]+)`),
}

func comfyProfile() Profile {
	return Profile{
		Name:      ProfileComfy,
		Title:     "ComfyUI",
		TailBytes: 200000,
		Backup:    true,
		LogFile:   DefaultLogFile,
		Addr:      ":8188",
		Stages: []StageDef{
			{
				ID:     "bootstrap",
				Label:  "GPU & workspace",
				Detail: "Checking CUDA drivers and preparing /workspace",
				Patterns: []*regexp.Regexp{
					ci(`STAGE:\s*Checking CUDA`),
					ci(`Persisting ComfyUI`),
					ci(`ComfyUI already present`),
				},
			},
			{
				ID:       "venv",
				Label:    "Python environment",
				Detail:   "Creating venv and upgrading pip",
				Patterns: []*regexp.Regexp{ci(`Creating venv`), ci(`VIRTUAL_ENV:`)},
			},
			{
				ID:       "wheels",
				Label:    "Extra wheels",
				Detail:   "Installing sageattention",
				Patterns: []*regexp.Regexp{ci(`STAGE:\s*Installing sageattention`)},
			},
			{
				ID:       "backup-manager",
				Label:    "ComfyUI manager",
				Detail:   "Fetching ComfyUI manager metadata (first boot can take up to 2 minutes while registry downloads)",
				Patterns: []*regexp.Regexp{ci(`STAGE:\s*Preparing ComfyUI Manager`)},
				Backup:   true,
			},
			{
				ID:    "backup-nodes",
				Label: "Backup restore",
				Patterns: []*regexp.Regexp{
					ci(`STAGE:\s*Installing nodes from backup`),
					ci(`STAGE:\s*Restoring backup`),
				},
				Backup:         true,
				DetailFunc:     backupDetail,
				DetailFromLine: backupDetailFromLine,
			},
			{
				ID:       "core",
				Label:    "ComfyUI core",
				Detail:   "Updating base repo and Python dependencies",
				Patterns: []*regexp.Regexp{ci(`STAGE:\s*Updating ComfyUI core`)},
			},
			{
				ID:             "custom",
				Label:          "Custom nodes",
				Detail:         "Updating registered nodes",
				Patterns:       []*regexp.Regexp{ci(`STAGE:\s*Updating custom nodes`)},
				DetailFromLine: customDetailFromLine,
			},
			{
				ID:       "launch",
				Label:    "Launch",
				Detail:   "Starting ComfyUI on :8188",
				Patterns: []*regexp.Regexp{ci(`STAGE:\s*Starting ComfyUI`)},
			},
		},
	}
}

func aiToolkitProfile() Profile {
	return Profile{
		Name:      ProfileAIToolkit,
		Title:     "AI Toolkit",
		TailBytes: 120000,
		LogFile:   DefaultAIToolkitLogFile,
		Addr:      ":8675",
		Stages: []StageDef{
			{
				ID:     "repo",
				Label:  "Repository",
				Detail: "Cloning ai-toolkit source",
				Patterns: []*regexp.Regexp{
					ci(`\[ai-toolkit].*cloning repo`),
					ci(`\[ai-toolkit].*updating repo`),
				},
				DetailFromLine: func(line, current string) string {
					lower := strings.ToLower(line)
					switch {
					case strings.Contains(lower, "cloning"):
						return "Cloning fresh repo"
					case strings.Contains(lower, "updating repo"):
						return "Updating existing repo"
					default:
						return current
					}
				},
			},
			{
				ID:       "venv",
				Label:    "Python environment",
				Detail:   "Creating virtualenv and upgrading pip",
				Patterns: []*regexp.Regexp{ci(`\[ai-toolkit].*creating venv`), ci(`pip install --upgrade pip`)},
			},
			{
				ID:       "deps",
				Label:    "Python deps",
				Detail:   "Installing requirements",
				Patterns: []*regexp.Regexp{ci(`\[ai-toolkit].*installing requirements`)},
			},
			{
				ID:     "ui-build",
				Label:  "UI build",
				Detail: "Preparing AI Toolkit UI",
				Patterns: []*regexp.Regexp{
					ci(`installing UI dependencies`),
					ci(`npm run build`),
					ci(`npm run update_db`),
				},
				DetailFromLine: func(line, current string) string {
					lower := strings.ToLower(line)
					switch {
					case strings.Contains(lower, "installing ui dependencies"):
						return "Installing npm dependencies"
					case strings.Contains(lower, "building ui"), strings.Contains(lower, "npm run build"):
						return "Building UI bundle"
					case strings.Contains(lower, "update_db"):
						return "Updating database schema"
					default:
						return current
					}
				},
			},
			{
				ID:       "start",
				Label:    "UI startup",
				Detail:   "Starting ai-toolkit on :8675",
				Patterns: []*regexp.Regexp{ci(`\[ai-toolkit].*starting UI`)},
			},
		},
	}
}

func backupDetail(env Env, backup *BackupState) string {
	switch {
	case env.BackupRepo == "":
		return "Backup is not set"
	case !env.RestoreEnabled:
		return fmt.Sprintf("Backup %s configured but RESTORE_BACKUP=0", env.BackupRepo)
	case backup != nil && len(backup.Nodes) > 0:
		return fmt.Sprintf("Restoring %d custom nodes from %s", len(backup.Nodes), env.BackupRepo)
	default:
		return "Restoring backup from " + env.BackupRepo
	}
}

func backupDetailFromLine(line, current string) string {
	if m := restoreCloneRe.FindStringSubmatch(line); m != nil {
		return "Cloning " + repoLabel(m[1])
	}
	if m := restoreCnrRe.FindStringSubmatch(line); m != nil {
		return "Installing " + m[1] + " from snapshot"
	}
	return current
}

func customDetailFromLine(line, current string) string {
	for _, pattern := range nodeProgress {
		if m := pattern.FindStringSubmatch(line); m != nil {
			name := m[1]
			if strings.HasPrefix(strings.ToLower(name), "http") {
				name = repoLabel(name)
			}
			return "Updating " + name
		}
	}
	return current
}
