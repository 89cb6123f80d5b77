// Copyright © 2018 One Concern

package cmd

import (
	"net/http"
	"os"

	"github.com/oneconcern/comfyrestore/pkg/dlogger"
	"github.com/oneconcern/comfyrestore/pkg/hub"
	"github.com/oneconcern/comfyrestore/pkg/installer"
	"github.com/oneconcern/comfyrestore/pkg/restore"
	"go.uber.org/zap"
)

func getLogger() (*zap.Logger, error) {
	return dlogger.GetLoggerWithEncoding(restoreFlags.root.logLevel, restoreFlags.root.logFormat)
}

func hubClient(l *zap.Logger) *hub.Client {
	opts := []hub.Option{
		hub.Endpoint(restoreFlags.hub.endpoint),
		hub.Token(restoreFlags.hub.token),
		hub.TokenFromHome(restoreFlags.hub.hfHome),
		hub.UserAgent("comfyrestore/" + NewVersionInfo().Version),
		hub.Logger(l),
	}
	if restoreFlags.hub.timeout > 0 {
		opts = append(opts, hub.HTTPClient(&http.Client{Timeout: restoreFlags.hub.timeout}))
	}
	if restoreFlags.hub.progress {
		opts = append(opts, hub.Progress(os.Stderr))
	}
	c := hub.New(opts...)
	if !c.HasToken() {
		l.Debug("no hub token configured, only public backups are accessible")
	}
	return c
}

// newRestorer builds a restorer from the flags, after config defaults have been applied
func newRestorer(l *zap.Logger) (*restore.Restorer, error) {
	layout := restore.DefaultLayout(restoreFlags.restore.comfyUIDir)
	nodes, err := installer.New(
		installer.CustomNodesDir(layout.CustomNodesDir()),
		installer.ManagerCommand(restoreFlags.restore.managerCLI),
		installer.PinVersions(restoreFlags.restore.pinVersions),
		installer.Logger(l),
	)
	if err != nil {
		return nil, err
	}
	return restore.New(restoreFlags.root.backup,
		restore.WithHub(hubClient(l)),
		restore.WithLayout(layout),
		restore.WorkDir(restoreFlags.restore.workDir),
		restore.Revision(restoreFlags.hub.revision),
		restore.WithInstaller(nodes),
		restore.Logger(l),
	)
}

func requireBackup() bool {
	if restoreFlags.root.backup == "" {
		wrapFatalln("COMFYUI_BACKUP is not set: use --backup or set the environment variable", nil)
		return false
	}
	return true
}
