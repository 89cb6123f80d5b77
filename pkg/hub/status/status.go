// Copyright © 2018 One Concern

// Package status exports errors produced by the hub client.
package status

import "github.com/oneconcern/comfyrestore/pkg/errors"

var (
	// ErrNotFound indicates that the repository, revision or file does not exist
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates that no valid credentials were provided. The hub also answers this for missing repositories.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates that the credentials do not grant access to the repository
	ErrForbidden = errors.New("forbidden")

	// ErrHubAPI indicates any other error answered by the hub API
	ErrHubAPI = errors.New("hub API error")

	// ErrInvalidRepo indicates a malformed repository id
	ErrInvalidRepo = errors.New("invalid repository id")

	// ErrInvalidPattern indicates a malformed allow pattern
	ErrInvalidPattern = errors.New("invalid allow pattern")
)
