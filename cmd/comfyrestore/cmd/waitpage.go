// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/oneconcern/comfyrestore/pkg/hub"
	"github.com/oneconcern/comfyrestore/pkg/restore"
	"github.com/oneconcern/comfyrestore/pkg/waitpage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var waitpageCmd = &cobra.Command{
	Use:   "waitpage",
	Short: "Serves a page following the boot sequence until the application takes over",
	Long: `Serves a page showing the progress of the container boot sequence, computed from the boot log.

When a backup restore is enabled, the page also follows the reinstallation of each custom node listed
by the snapshot manifest of the backup.

Routes:
  /healthz   liveness check
  /status    identifies the wait page to readiness checks
  /state     boot progress, as JSON
  /metrics   boot progress, as prometheus metrics`,
	Run: func(cmd *cobra.Command, args []string) {
		l, err := getLogger()
		if err != nil {
			wrapFatalln("failed to set log level", err)
			return
		}
		m, err := newMonitor(l)
		if err != nil {
			wrapFatalln("wait page", err)
			return
		}
		srv, err := waitpage.NewServer(m)
		if err != nil {
			wrapFatalln("wait page", err)
			return
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		addr := listenAddr(m)
		if err := waitpage.ListenAndServe(ctx, addr, waitpage.InitRouter(srv), l); err != nil {
			wrapFatalln("serve wait page on "+addr, err)
			return
		}
	},
}

// listenAddr is the address set by flag, else the one of the monitored application's profile
func listenAddr(m *waitpage.Monitor) string {
	if restoreFlags.waitpage.addr != "" {
		return restoreFlags.waitpage.addr
	}
	return m.Profile().Addr
}

func waitpageEnv() waitpage.Env {
	token := hub.New(hub.Token(restoreFlags.hub.token), hub.TokenFromHome(restoreFlags.hub.hfHome))
	env := waitpage.Env{
		BackupRepo: restoreFlags.root.backup,
		HFToken:    token.HasToken(),
	}
	if config != nil {
		env.RestoreEnabled = waitpage.IsEnabled(config.RestoreBackup)
		env.CivitaiToken = config.CivitaiToken != ""
	}
	return env
}

func newMonitor(l *zap.Logger) (*waitpage.Monitor, error) {
	profile, err := waitpage.GetProfile(restoreFlags.waitpage.profile)
	if err != nil {
		return nil, err
	}
	snapshot := restoreFlags.waitpage.snapshot
	if snapshot == "" {
		layout := restore.DefaultLayout(restoreFlags.restore.comfyUIDir)
		snapshot = filepath.Join(restoreFlags.restore.workDir, restore.NodesWorkDir, filepath.FromSlash(layout.ManifestPath))
	}
	return waitpage.New(
		waitpage.WithProfile(profile),
		waitpage.WithEnv(waitpageEnv()),
		waitpage.LogFile(restoreFlags.waitpage.logFile),
		waitpage.SnapshotPath(snapshot),
		waitpage.Logger(l),
	), nil
}

func init() {
	addAddrFlag(waitpageCmd)
	addProfileFlag(waitpageCmd)
	addLogFileFlag(waitpageCmd)
	addSnapshotFlag(waitpageCmd)
	addWorkDirFlag(waitpageCmd)
	rootCmd.AddCommand(waitpageCmd)
}
