// Copyright © 2018 One Concern

// Package status exports errors produced by the restore sequence.
package status

import "github.com/oneconcern/comfyrestore/pkg/errors"

var (
	// ErrMissingBackup indicates that no backup repository is configured
	ErrMissingBackup = errors.New("no backup repository configured")

	// ErrBackupUnavailable indicates that the backup repository is neither a reachable model nor dataset repository
	ErrBackupUnavailable = errors.New("backup repository is not accessible")

	// ErrNothingToRestore indicates that the backup holds nothing for this restorer
	ErrNothingToRestore = errors.New("nothing to restore")

	// ErrDownload indicates that the backup snapshot could not be downloaded
	ErrDownload = errors.New("backup download failed")
)
