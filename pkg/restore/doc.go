// Copyright © 2018 One Concern

// Package restore brings a ComfyUI installation back to the state saved in a backup repository on the hub.
//
// Two restorers share the same sequence:
//
//	start -> preflight -> download -> reconcile [-> install-plugins] -> done
//
// The model restorer merges the saved models into the local models directory.
// The node restorer restores user settings, workflows and subgraphs, then reinstalls the custom nodes
// listed by the snapshot manifest.
//
// A backup that cannot be reached or downloaded is skipped: restoring is optional and must never prevent
// ComfyUI from starting. Only an unexpected failure while checking the backup is returned as an error.
package restore
