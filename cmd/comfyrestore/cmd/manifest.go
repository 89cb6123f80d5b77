// Copyright © 2018 One Concern

package cmd

import (
	"os"
	"path/filepath"

	units "github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/oneconcern/comfyrestore/pkg/manifest"
	"github.com/oneconcern/comfyrestore/pkg/restore"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const (
	nodeInstalled = "installed"
	nodeMissing   = "missing"
	nodeDisabled  = "disabled"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Commands to inspect the custom nodes snapshot of a backup",
}

var manifestShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Lists the custom nodes of a snapshot manifest, and whether they are installed",
	Long: `Lists the custom nodes recorded in a snapshot manifest, by default the one downloaded by the last
restore, and checks whether each of them is present in the local custom_nodes directory.`,
	Example: `% comfyrestore manifest show
NAME                    SOURCE  REF                                             STATE       SIZE
ComfyUI-Impact-Pack     git     https://github.com/ltdrdata/ComfyUI-Impact-Pack  installed   12.3MB
comfyui-kjnodes         cnr     1.0.5                                           missing`,
	Run: func(cmd *cobra.Command, args []string) {
		fs := afero.NewOsFs()
		layout := restore.DefaultLayout(restoreFlags.restore.comfyUIDir)
		file := restoreFlags.manifest.file
		if file == "" {
			file = filepath.Join(restoreFlags.restore.workDir, restore.NodesWorkDir, filepath.FromSlash(layout.ManifestPath))
		}
		snapshot, err := manifest.Load(fs, file)
		if err != nil {
			if os.IsNotExist(err) {
				wrapFatalln("no snapshot manifest at "+file+": run a restore first or use --file", nil)
				return
			}
			wrapFatalln("read snapshot manifest "+file, err)
			return
		}
		logStdOut("%s", manifestTable(fs, layout.CustomNodesDir(), snapshot))
	},
}

func manifestTable(fs afero.Fs, nodesDir string, snapshot *manifest.Snapshot) string {
	table := uitable.New()
	table.MaxColWidth = 64
	table.AddRow("NAME", "SOURCE", "REF", "STATE", "SIZE")
	for _, node := range snapshot.GitCustomNodes {
		dir, err := manifest.RepoDirName(node.URL)
		if err != nil {
			table.AddRow(node.URL, manifest.SourceGit, node.URL, color.RedString(err.Error()), "")
			continue
		}
		state, size := nodeState(fs, filepath.Join(nodesDir, dir), node.Disabled)
		table.AddRow(dir, manifest.SourceGit, manifest.NormalizeRepo(node.URL), state, size)
	}
	for _, node := range snapshot.CnrCustomNodes {
		state, size := nodeState(fs, filepath.Join(nodesDir, node.Name), false)
		table.AddRow(node.Name, manifest.SourceCnr, node.Version, state, size)
	}
	return table.String() + "\n"
}

func nodeState(fs afero.Fs, dir string, disabled bool) (string, string) {
	if disabled {
		return color.HiBlackString(nodeDisabled), ""
	}
	exists, _ := afero.DirExists(fs, dir)
	if !exists {
		return color.YellowString(nodeMissing), ""
	}
	var size int64
	_ = afero.Walk(fs, dir, func(_ string, info os.FileInfo, err error) error {
		if err == nil && info.Mode().IsRegular() {
			size += info.Size()
		}
		return nil
	})
	return color.GreenString(nodeInstalled), units.HumanSize(float64(size))
}

func init() {
	addManifestFileFlag(manifestShowCmd)
	addComfyUIDirFlag(manifestShowCmd)
	addWorkDirFlag(manifestShowCmd)
	manifestCmd.AddCommand(manifestShowCmd)
	rootCmd.AddCommand(manifestCmd)
}
