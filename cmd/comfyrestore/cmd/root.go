// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "comfyrestore",
	Short: "comfyrestore restores a ComfyUI installation from a backup on the Hugging Face hub",
	Long: `comfyrestore restores a ComfyUI installation from a backup repository on the Hugging Face hub.

It runs when the container boots: models, user settings, workflows and subgraphs are restored
from the backup, then the custom nodes listed by the backup snapshot are reinstalled.

A backup which is missing or not accessible is skipped: ComfyUI starts anyway.

The backup repository is set with --backup or the COMFYUI_BACKUP environment variable.
`,
	SilenceUsage: true,
}

var config *CLIConfig

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)

	addLogLevelFlag(rootCmd)
	addLogFormatFlag(rootCmd)
	addBackupFlag(rootCmd)
}
