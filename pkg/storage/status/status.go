// Copyright © 2018 One Concern

// Package status declares error constants returned by
// implementations of the Store interface.
//
// NOTE: such constants are located in a separate package to avoid
// creating undue cyclical dependencies between pkg/storage and one
// of its implementions.
package status

import "github.com/oneconcern/comfyrestore/pkg/errors"

var (
	// ErrNotExists indicates that the fetched object does not exist on storage
	ErrNotExists = errors.New("object doesn't exist")

	// ErrInvalidKey indicates that the key escapes the store or is empty
	ErrInvalidKey = errors.New("invalid storage key")

	// ErrStorage indicates any other storage error
	ErrStorage = errors.New("storage error")
)
