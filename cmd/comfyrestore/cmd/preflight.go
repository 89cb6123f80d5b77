// Copyright © 2018 One Concern

package cmd

import (
	"context"

	"github.com/oneconcern/comfyrestore/pkg/errors"
	"github.com/oneconcern/comfyrestore/pkg/restore"
	"github.com/oneconcern/comfyrestore/pkg/restore/status"
	"github.com/spf13/cobra"
)

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Checks that the backup repository is accessible",
	Long: `Checks that the backup repository is accessible on the hub, first as a model repository,
then as a dataset repository.

The command exits with status 2 (ENOENT) when the backup is missing, private or otherwise denied,
so that boot scripts may test it.`,
	Example: `% comfyrestore preflight --backup my-org/comfy-backup
model`,
	Run: func(cmd *cobra.Command, args []string) {
		if !requireBackup() {
			return
		}
		l, err := getLogger()
		if err != nil {
			wrapFatalln("failed to set log level", err)
			return
		}
		r, err := restore.New(restoreFlags.root.backup,
			restore.WithHub(hubClient(l)),
			restore.Revision(restoreFlags.hub.revision),
			restore.Logger(l),
		)
		if err != nil {
			wrapFatalln("preflight", err)
			return
		}
		kind, err := r.Preflight(context.Background())
		switch {
		case errors.Is(err, status.ErrBackupUnavailable):
			fatalUnavailable(r.RepoID(), err)
			return
		case err != nil:
			wrapFatalln("preflight check of "+r.RepoID(), err)
			return
		}
		infoLogger.Println(kind)
	},
}

func addHubFlags(cmd *cobra.Command) {
	addEndpointFlag(cmd)
	addRevisionFlag(cmd)
	addTimeoutFlag(cmd)
}

func init() {
	addHubFlags(preflightCmd)
	rootCmd.AddCommand(preflightCmd)
}
