// Copyright © 2018 One Concern

package installer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/oneconcern/comfyrestore/pkg/manifest"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultCustomNodesDir is where ComfyUI looks for custom nodes in the container
const DefaultCustomNodesDir = "/workspace/ComfyUI/custom_nodes"

// Installer of custom nodes
type Installer struct {
	nodesDir    string
	managerLine string
	manager     []string
	pin         bool
	runner      Runner
	fs          afero.Fs
	l           *zap.Logger
}

// Report of an installation round
type Report struct {
	// Cloned git repositories, by URL
	Cloned []string
	// Skipped install directories, already present
	Skipped []string
	// Installed registry nodes, by name
	Installed []string
	// Failed installs: repository URLs and registry node names
	Failed []string
	// Err combines all failures
	Err error
}

func (r *Report) fail(id string, err error) {
	r.Failed = append(r.Failed, id)
	r.Err = multierr.Append(r.Err, fmt.Errorf("%s: %w", id, err))
}

// New installer
func New(opts ...Option) (*Installer, error) {
	i := &Installer{
		nodesDir: DefaultCustomNodesDir,
		runner:   ExecRunner{},
		fs:       afero.NewOsFs(),
		l:        zap.NewNop(),
	}
	for _, apply := range opts {
		apply(i)
	}
	if i.managerLine == "" {
		i.managerLine = DefaultManagerCommand(i.nodesDir)
	}
	args, err := shellwords.Parse(i.managerLine)
	if err != nil {
		return nil, fmt.Errorf("could not parse plugin manager command %q: %w", i.managerLine, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("empty plugin manager command")
	}
	i.manager = args
	return i, nil
}

// DefaultManagerCommand invokes the ComfyUI-Manager CLI script installed among the custom nodes
func DefaultManagerCommand(nodesDir string) string {
	return "python " + shellQuote(filepath.Join(nodesDir, "ComfyUI-Manager", "cm-cli.py"))
}

func shellQuote(s string) string {
	if !strings.ContainsAny(s, " \t'\"\\$") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func (i *Installer) managerCommand(args ...string) Command {
	return Command{
		Name: i.manager[0],
		Args: append(append([]string{}, i.manager[1:]...), args...),
		Dir:  filepath.Dir(i.nodesDir),
		Env:  []string{"COMFYUI_PATH=" + filepath.Dir(i.nodesDir)},
	}
}

// WarmCache fetches the remote node listing of the plugin manager once, in read-only mode
func (i *Installer) WarmCache(ctx context.Context) error {
	cmd := i.managerCommand("simple-show", "all", "--mode", "remote")
	i.l.Debug("warming plugin manager cache", zap.Stringer("command", cmd))
	if err := i.runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("warming plugin manager cache: %w", err)
	}
	return nil
}

// InstallAll installs the enabled nodes of a snapshot, git nodes first, in manifest order
func (i *Installer) InstallAll(ctx context.Context, snapshot *manifest.Snapshot) *Report {
	report := &Report{}
	if snapshot == nil {
		return report
	}
	for _, node := range snapshot.GitCustomNodes {
		if node.Disabled {
			i.l.Debug("skipping disabled node", zap.String("repo", node.URL))
			continue
		}
		i.clone(ctx, node, report)
	}
	for _, node := range snapshot.CnrCustomNodes {
		i.install(ctx, node, report)
	}

	if len(report.Failed) > 0 {
		i.l.Warn(fmt.Sprintf("[restore][warn] some nodes failed: [%s]", strings.Join(report.Failed, ", ")))
	}
	return report
}

func (i *Installer) clone(ctx context.Context, node manifest.GitNode, report *Report) {
	dir, err := manifest.RepoDirName(node.URL)
	if err != nil {
		i.l.Error("[restore][err clone] "+node.URL, zap.Error(err))
		report.fail(node.URL, err)
		return
	}
	if node.Malformed {
		i.l.Warn("snapshot entry has no settings, cloning the default branch", zap.String("repo", node.URL))
	}
	target := filepath.Join(i.nodesDir, dir)
	if exists, _ := afero.Exists(i.fs, target); exists {
		i.l.Info("[restore] " + dir + " already present")
		report.Skipped = append(report.Skipped, dir)
		return
	}
	if err = i.fs.MkdirAll(i.nodesDir, 0755); err != nil {
		i.l.Error("[restore][err clone] "+node.URL, zap.Error(err))
		report.fail(node.URL, err)
		return
	}

	i.l.Info("[restore] cloning " + node.URL)
	cmd := Command{
		Name: "git",
		Args: []string{"clone", "--depth", "1", node.URL, target},
		Dir:  i.nodesDir,
	}
	if err = i.runner.Run(ctx, cmd); err != nil {
		i.l.Error("[restore][err clone] "+node.URL, zap.Error(err))
		report.fail(node.URL, err)
		return
	}
	report.Cloned = append(report.Cloned, node.URL)
}

func (i *Installer) install(ctx context.Context, node manifest.CnrNode, report *Report) {
	target := node.Name
	if i.pin && node.Version != "" {
		target += "@" + node.Version
	}
	i.l.Info("[restore] cnr install " + node.Name)
	cmd := i.managerCommand("install", target, "--no-deps", "--mode", "cache")
	if err := i.runner.Run(ctx, cmd); err != nil {
		i.l.Error("[restore][err cnr] "+node.Name, zap.Error(err))
		report.fail(node.Name, err)
		return
	}
	report.Installed = append(report.Installed, node.Name)
}
