// Copyright © 2018 One Concern

package cmd

import (
	"time"

	"github.com/oneconcern/comfyrestore/pkg/waitpage"
	"github.com/spf13/cobra"
)

type flagsT struct {
	root struct {
		logLevel  string
		logFormat string
		backup    string
	}
	hub struct {
		endpoint string
		token    string
		hfHome   string
		revision string
		progress bool
		timeout  time.Duration
	}
	restore struct {
		comfyUIDir  string
		workDir     string
		managerCLI  string
		pinVersions bool
	}
	manifest struct {
		file string
	}
	waitpage struct {
		addr     string
		profile  string
		logFile  string
		snapshot string
	}
}

var restoreFlags = flagsT{}

func addLogLevelFlag(cmd *cobra.Command) string {
	logLevel := "loglevel"
	cmd.PersistentFlags().StringVar(&restoreFlags.root.logLevel, logLevel, "info", "The logging level: none, error, warn, info or debug")
	return logLevel
}

func addLogFormatFlag(cmd *cobra.Command) string {
	logFormat := "log-format"
	cmd.PersistentFlags().StringVar(&restoreFlags.root.logFormat, logFormat, "console",
		"The logging encoding: console or json. The wait page follows console logs")
	return logFormat
}

func addBackupFlag(cmd *cobra.Command) string {
	backup := "backup"
	cmd.PersistentFlags().StringVar(&restoreFlags.root.backup, backup, "",
		"The backup repository on the hub, as namespace/name. Defaults to $COMFYUI_BACKUP")
	return backup
}

func addEndpointFlag(cmd *cobra.Command) string {
	endpoint := "endpoint"
	cmd.Flags().StringVar(&restoreFlags.hub.endpoint, endpoint, "", "The hub endpoint. Defaults to $HF_ENDPOINT, then to the public hub")
	return endpoint
}

func addRevisionFlag(cmd *cobra.Command) string {
	revision := "revision"
	cmd.Flags().StringVar(&restoreFlags.hub.revision, revision, "", "The revision of the backup to restore (branch, tag or commit). Defaults to main")
	return revision
}

func addProgressFlag(cmd *cobra.Command) string {
	progress := "progress"
	cmd.Flags().BoolVar(&restoreFlags.hub.progress, progress, false, "Show a progress bar for each downloaded file")
	return progress
}

func addTimeoutFlag(cmd *cobra.Command) string {
	timeout := "timeout"
	cmd.Flags().DurationVar(&restoreFlags.hub.timeout, timeout, 0, "The timeout of each call to the hub, 0 for none")
	return timeout
}

func addComfyUIDirFlag(cmd *cobra.Command) string {
	comfyUIDir := "comfyui-dir"
	cmd.Flags().StringVar(&restoreFlags.restore.comfyUIDir, comfyUIDir, "", "The ComfyUI installation directory. Defaults to $COMFYUI_DIR, then /workspace/ComfyUI")
	return comfyUIDir
}

func addWorkDirFlag(cmd *cobra.Command) string {
	workDir := "work-dir"
	cmd.Flags().StringVar(&restoreFlags.restore.workDir, workDir, "",
		"The directory receiving the backup downloads. Defaults to $BACKUP_TMP, then /workspace/.backup_tmp")
	return workDir
}

func addManagerCLIFlag(cmd *cobra.Command) string {
	managerCLI := "manager-cli"
	cmd.Flags().StringVar(&restoreFlags.restore.managerCLI, managerCLI, "",
		"The command line of the ComfyUI-Manager CLI. Defaults to $COMFY_MANAGER_CLI, then to python <comfyui-dir>/custom_nodes/ComfyUI-Manager/cm-cli.py")
	return managerCLI
}

func addPinVersionsFlag(cmd *cobra.Command) string {
	pin := "pin-versions"
	cmd.Flags().BoolVar(&restoreFlags.restore.pinVersions, pin, false, "Install registry nodes at the version recorded in the backup snapshot")
	return pin
}

func addManifestFileFlag(cmd *cobra.Command) string {
	file := "file"
	cmd.Flags().StringVar(&restoreFlags.manifest.file, file, "",
		"The custom nodes snapshot to show. Defaults to the snapshot downloaded by the last restore")
	return file
}

func addAddrFlag(cmd *cobra.Command) string {
	addr := "addr"
	cmd.Flags().StringVar(&restoreFlags.waitpage.addr, addr, "", "The address the wait page listens on. Defaults to :8188 for comfy, :8675 for ai-toolkit")
	return addr
}

func addProfileFlag(cmd *cobra.Command) string {
	profile := "profile"
	cmd.Flags().StringVar(&restoreFlags.waitpage.profile, profile, waitpage.ProfileComfy, "The boot sequence to follow: comfy or ai-toolkit")
	return profile
}

func addLogFileFlag(cmd *cobra.Command) string {
	logFile := "log-file"
	cmd.Flags().StringVar(&restoreFlags.waitpage.logFile, logFile, "",
		"The boot log to follow. Defaults to "+waitpage.DefaultLogFile+" for comfy, "+waitpage.DefaultAIToolkitLogFile+" for ai-toolkit")
	return logFile
}

func addSnapshotFlag(cmd *cobra.Command) string {
	snapshot := "snapshot"
	cmd.Flags().StringVar(&restoreFlags.waitpage.snapshot, snapshot, "",
		"The custom nodes snapshot downloaded by the restore. Defaults to the one under the work directory")
	return snapshot
}
