// Copyright © 2018 One Concern

// Package installer reinstalls ComfyUI custom nodes listed by a snapshot manifest.
//
// Git-sourced nodes are shallow-cloned into the custom nodes directory. Registry nodes are installed
// through the plugin manager command line, without their dependencies, preferring its local cache.
//
// Individual failures never abort the sequence: they are collected in a Report.
package installer
