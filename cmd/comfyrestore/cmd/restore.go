// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"strings"

	units "github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/oneconcern/comfyrestore/pkg/restore"
	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Commands to restore a ComfyUI installation from its backup",
	Long: `Commands to restore a ComfyUI installation from its backup repository on the hub.

A backup which is not accessible, or which cannot be downloaded, is skipped: the command ends normally.
The command only fails when no backup is configured or when the hub answers unexpectedly.`,
}

type restoreFunc func(*restore.Restorer, context.Context) (*restore.Report, error)

var (
	restoreModels restoreFunc = (*restore.Restorer).Models
	restoreNodes  restoreFunc = (*restore.Restorer).Nodes
)

func runRestore(what string, steps ...restoreFunc) {
	if !requireBackup() {
		return
	}
	l, err := getLogger()
	if err != nil {
		wrapFatalln("failed to set log level", err)
		return
	}
	defer func() { _ = l.Sync() }()

	r, err := newRestorer(l)
	if err != nil {
		wrapFatalln("restore "+what, err)
		return
	}
	ctx := context.Background()
	for _, step := range steps {
		report, err := step(r, ctx)
		if err != nil {
			wrapFatalln("restore "+what+" from "+r.RepoID(), err)
			return
		}
		printReport(report)
	}
}

func printReport(report *restore.Report) {
	if report.Skipped {
		logStdOut("%s %s\n", color.YellowString("skipped:"), report.Reason)
		return
	}
	logStdOut("%s %d files (%s) from %s backup\n",
		color.GreenString("restored:"), len(report.Restored), units.HumanSize(float64(report.Bytes)), report.Kind)
	if report.Install != nil {
		logStdOut("%s %d cloned, %d already present, %d installed from the registry\n",
			color.GreenString("custom nodes:"),
			len(report.Install.Cloned), len(report.Install.Skipped), len(report.Install.Installed))
	}
	if len(report.Failed) > 0 {
		logStdOut("%s %s\n", color.RedString("failed:"), strings.Join(report.Failed, ", "))
	}
	if report.Err != nil {
		logStdOut("%s %v\n", color.HiBlackString("warnings:"), report.Err)
	}
}

var restoreModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Restores the models of the backup",
	Long: `Downloads the ComfyUI/models tree of the backup and merges it file by file into the local models directory.

Existing local files are overwritten by the backup, other local files are left untouched.`,
	Example: `% comfyrestore restore models --backup my-org/comfy-backup
restored: 3 files (4.2GB) from model backup`,
	Run: func(cmd *cobra.Command, args []string) {
		runRestore("models", restoreModels)
	},
}

var restoreNodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "Restores user settings, workflows and custom nodes of the backup",
	Long: `Restores the user settings, workflows and subgraphs of the backup, then reinstalls the custom nodes
listed by the snapshot manifest of the backup.

Workflows replace the local workflows directory. Subgraphs are merged into the local subgraphs directory.
Custom nodes which fail to install are reported but do not stop the restore.`,
	Run: func(cmd *cobra.Command, args []string) {
		runRestore("nodes", restoreNodes)
	},
}

var restoreAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Restores models, then settings and custom nodes",
	Run: func(cmd *cobra.Command, args []string) {
		runRestore("all", restoreModels, restoreNodes)
	},
}

func addRestoreFlags(cmd *cobra.Command) {
	addHubFlags(cmd)
	addProgressFlag(cmd)
	addComfyUIDirFlag(cmd)
	addWorkDirFlag(cmd)
}

func init() {
	for _, cmd := range []*cobra.Command{restoreModelsCmd, restoreNodesCmd, restoreAllCmd} {
		addRestoreFlags(cmd)
		restoreCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{restoreNodesCmd, restoreAllCmd} {
		addManagerCLIFlag(cmd)
		addPinVersionsFlag(cmd)
	}
	rootCmd.AddCommand(restoreCmd)
}
