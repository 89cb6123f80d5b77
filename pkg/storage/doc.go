// Copyright © 2018 One Concern

// Package storage provides interface to handle storage objects.
//
// Snapshots pulled from a backup repository are written to a Store.
// This package supports the following backends:
//   - local file system
package storage
