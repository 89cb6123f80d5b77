// Copyright © 2018 One Concern

// Package manifest reads the custom nodes snapshot exported by the ComfyUI plugin manager.
//
// The snapshot is a YAML document. Only the sections driving a restore are interpreted:
//
//	comfyui: <commit>
//	git_custom_nodes:
//	  https://github.com/owner/repo:
//	    hash: <commit>
//	    disabled: false
//	cnr_custom_nodes:
//	  some-registry-node: 1.2.3
//	file_custom_nodes:
//	  - filename: single_file_node.py
//	    disabled: false
//	pips:
//	  package==1.0: ""
package manifest

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

// GitNode is a custom node installed from a git repository
type GitNode struct {
	URL      string `yaml:"-"`
	Name     string `yaml:"name,omitempty"`
	Hash     string `yaml:"hash,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`

	// Malformed is set when the snapshot entry carries no settings mapping
	Malformed bool `yaml:"-"`
}

// CnrNode is a custom node installed from the plugin registry
type CnrNode struct {
	Name    string
	Version string
}

// FileNode is a single-file custom node
type FileNode struct {
	Filename string `yaml:"filename"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// GitNodes keeps the order in which git nodes appear in the snapshot
type GitNodes []GitNode

// CnrNodes keeps the order in which registry nodes appear in the snapshot
type CnrNodes []CnrNode

// Snapshot of the custom nodes active at export time
type Snapshot struct {
	ComfyUI         string            `yaml:"comfyui,omitempty"`
	GitCustomNodes  GitNodes          `yaml:"git_custom_nodes,omitempty"`
	CnrCustomNodes  CnrNodes          `yaml:"cnr_custom_nodes,omitempty"`
	FileCustomNodes []FileNode        `yaml:"file_custom_nodes,omitempty"`
	Pips            map[string]string `yaml:"pips,omitempty"`
}

// UnmarshalYAML decodes the git_custom_nodes mapping, preserving its order.
//
// An entry whose value is not a mapping keeps its URL only and is flagged as Malformed.
func (g *GitNodes) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw yaml.MapSlice
	if err := unmarshal(&raw); err != nil {
		return err
	}
	nodes := make(GitNodes, 0, len(raw))
	for _, item := range raw {
		url, ok := item.Key.(string)
		if !ok {
			return fmt.Errorf("git_custom_nodes: expected a repository URL as key, got %v", item.Key)
		}
		node := GitNode{URL: url}
		switch value := item.Value.(type) {
		case nil:
		case yaml.MapSlice:
			b, err := yaml.Marshal(value)
			if err != nil {
				return err
			}
			if err = yaml.Unmarshal(b, &node); err != nil {
				return fmt.Errorf("git_custom_nodes: %s: %w", url, err)
			}
		default:
			node.Malformed = true
		}
		nodes = append(nodes, node)
	}
	*g = nodes
	return nil
}

// MarshalYAML encodes git nodes back as a mapping
func (g GitNodes) MarshalYAML() (interface{}, error) {
	out := make(yaml.MapSlice, 0, len(g))
	for _, node := range g {
		out = append(out, yaml.MapItem{Key: node.URL, Value: node})
	}
	return out, nil
}

// UnmarshalYAML decodes the cnr_custom_nodes mapping, preserving its order.
//
// Versions keep their text in the document: 1.10 stays "1.10".
func (c *CnrNodes) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var order yaml.MapSlice
	if err := unmarshal(&order); err != nil {
		return err
	}
	var versions map[string]string
	if err := unmarshal(&versions); err != nil {
		return fmt.Errorf("cnr_custom_nodes: %w", err)
	}
	nodes := make(CnrNodes, 0, len(order))
	for _, item := range order {
		name := fmt.Sprint(item.Key)
		node := CnrNode{Name: name}
		if version, ok := versions[name]; ok {
			node.Version = version
		} else if item.Value != nil {
			node.Version = fmt.Sprint(item.Value)
		}
		nodes = append(nodes, node)
	}
	*c = nodes
	return nil
}

// MarshalYAML encodes registry nodes back as a mapping
func (c CnrNodes) MarshalYAML() (interface{}, error) {
	out := make(yaml.MapSlice, 0, len(c))
	for _, node := range c {
		out = append(out, yaml.MapItem{Key: node.Name, Value: node.Version})
	}
	return out, nil
}

// Parse a snapshot document
func Parse(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing custom nodes snapshot: %w", err)
	}
	return &s, nil
}

// Load a snapshot file
func Load(fs afero.Fs, path string) (*Snapshot, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// RepoDirName derives the local install directory of a git node from its URL: the final path segment,
// without any ".git" suffix.
func RepoDirName(repoURL string) (string, error) {
	cleaned := NormalizeRepo(repoURL)
	name := cleaned
	if i := strings.LastIndexAny(cleaned, "/:"); i >= 0 {
		name = cleaned[i+1:]
	}
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `\`) {
		return "", fmt.Errorf("cannot derive a directory name from repository URL %q", repoURL)
	}
	return name, nil
}

// NormalizeRepo trims spaces, any ".git" suffix and trailing slashes from a repository URL
func NormalizeRepo(repoURL string) string {
	cleaned := strings.TrimRight(strings.TrimSpace(repoURL), "/")
	cleaned = strings.TrimSuffix(cleaned, ".git")
	return strings.TrimRight(cleaned, "/")
}

// Node sources
const (
	SourceGit = "git"
	SourceCnr = "cnr"
)

// Node is an enabled custom node listed by a snapshot, whatever its source
type Node struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Source  string `json:"source"`
	Repo    string `json:"repo,omitempty"`
	Version string `json:"version,omitempty"`
}

// Nodes lists enabled git nodes, then registry nodes, in snapshot order
func (s *Snapshot) Nodes() []Node {
	nodes := make([]Node, 0, len(s.GitCustomNodes)+len(s.CnrCustomNodes))
	for _, git := range s.GitCustomNodes {
		if git.Disabled {
			continue
		}
		key, err := RepoDirName(git.URL)
		if err != nil {
			key = NormalizeRepo(git.URL)
		}
		name := git.Name
		if name == "" {
			name = key
		}
		nodes = append(nodes, Node{Key: key, Name: name, Source: SourceGit, Repo: NormalizeRepo(git.URL)})
	}
	for _, cnr := range s.CnrCustomNodes {
		nodes = append(nodes, Node{Key: cnr.Name, Name: cnr.Name, Source: SourceCnr, Version: cnr.Version})
	}
	return nodes
}
