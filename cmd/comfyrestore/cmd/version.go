// Copyright © 2018 One Concern

package cmd

import (
	"runtime"
	"runtime/debug"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

// Build information, set with -ldflags "-X github.com/oneconcern/comfyrestore/cmd/comfyrestore/cmd.Version=..."
var (
	Version   string
	BuildDate string
	GitCommit string
	GitState  string
)

// VersionInfo describes the build of the binary
type VersionInfo struct {
	Version   string `json:"version,omitempty"`
	BuildDate string `json:"buildDate,omitempty"`
	GitCommit string `json:"gitCommit,omitempty"`
	GitState  string `json:"gitState,omitempty"`
	GoVersion string `json:"goVersion,omitempty"`
	Platform  string `json:"platform,omitempty"`
}

// NewVersionInfo from the link-time variables, completed by the build settings recorded by the go toolchain
func NewVersionInfo() VersionInfo {
	ver := VersionInfo{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GitState:  GitState,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		ver.fromBuildInfo(info)
	}
	if ver.Version == "" {
		ver.Version = "dev"
	}
	return ver
}

func (v *VersionInfo) fromBuildInfo(info *debug.BuildInfo) {
	if v.Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		v.Version = info.Main.Version
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if v.GitCommit == "" {
				v.GitCommit = setting.Value
			}
		case "vcs.time":
			if v.BuildDate == "" {
				v.BuildDate = setting.Value
			}
		case "vcs.modified":
			if v.GitState == "" {
				v.GitState = "clean"
				if setting.Value == "true" {
					v.GitState = "dirty"
				}
			}
		}
	}
}

func (v VersionInfo) String() string {
	table := uitable.New()
	table.AddRow("Version:", v.Version)
	table.AddRow("Build date:", v.BuildDate)
	table.AddRow("Commit:", v.GitCommit)
	table.AddRow("Working tree:", v.GitState)
	table.AddRow("Go:", v.GoVersion)
	table.AddRow("Platform:", v.Platform)
	return table.String() + "\n"
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version of comfyrestore",
	Long: `Prints the version of comfyrestore: release tag, build date, commit and state of the working tree
it was built from, go version and platform.

Values not set when linking the binary are taken from the build settings recorded by the go toolchain.`,
	Run: func(cmd *cobra.Command, args []string) {
		logStdOut("%s", NewVersionInfo().String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
