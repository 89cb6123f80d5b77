// Copyright © 2018 One Concern

/*
Package hub is a minimal client for a Hugging Face compatible content hub.

It supports what a backup restore needs: looking up repository metadata
under the "model" or "dataset" kind, and downloading a snapshot of the
repository files matching a set of allow patterns into a storage.Store.
*/
package hub
