// Copyright © 2018 One Concern

package localfs

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/oneconcern/comfyrestore/pkg/storage"
	"github.com/oneconcern/comfyrestore/pkg/storage/status"
	"github.com/spf13/afero"
)

const root = "."

// New creates a new local file system backed storage model.
//
// The file system is expected to be rooted at the store location, e.g. with afero.NewBasePathFs.
func New(fs afero.Fs) storage.Store {
	if fs == nil {
		fs = afero.NewBasePathFs(afero.NewOsFs(), root)
	}
	return &localFS{
		fs: fs,
	}
}

type localFS struct {
	fs afero.Fs
}

func cleanKey(key string) (string, error) {
	k := path.Clean("/" + filepath.ToSlash(key))
	k = strings.TrimPrefix(k, "/")
	if k == "" || k == "." {
		return "", status.ErrInvalidKey.Wrapf("%q", key)
	}
	return filepath.FromSlash(k), nil
}

func (l *localFS) Has(ctx context.Context, key string) (bool, error) {
	k, err := cleanKey(key)
	if err != nil {
		return false, err
	}
	fi, err := l.fs.Stat(k)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, status.ErrStorage.Wrap(err)
	}
	return !fi.IsDir(), nil
}

func (l *localFS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	has, err := l.Has(ctx, key)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, status.ErrNotExists.Wrapf("%q", key)
	}
	k, _ := cleanKey(key)
	return l.fs.Open(k)
}

func (l *localFS) Put(ctx context.Context, key string, source io.Reader) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(k); dir != root {
		if err = l.fs.MkdirAll(dir, 0755); err != nil {
			return status.ErrStorage.Wrapf("ensuring directories for %q: %v", key, err)
		}
	}
	target, err := l.fs.OpenFile(k, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return status.ErrStorage.Wrapf("create record for %q: %v", key, err)
	}
	if _, err = io.Copy(target, source); err != nil {
		_ = target.Close()
		return status.ErrStorage.Wrapf("write record for %q: %v", key, err)
	}
	return target.Close()
}

func (l *localFS) Delete(ctx context.Context, key string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := l.fs.Remove(k); err != nil && !os.IsNotExist(err) {
		return status.ErrStorage.Wrapf("removing %q: %v", key, err)
	}
	return nil
}

func (l *localFS) Keys(ctx context.Context) ([]string, error) {
	var res []string
	exists, err := afero.DirExists(l.fs, root)
	if err != nil || !exists {
		return res, err
	}
	e := afero.Walk(l.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p == root || info.IsDir() {
			return nil
		}
		res = append(res, filepath.ToSlash(p))
		return nil
	})
	if e != nil {
		return nil, status.ErrStorage.Wrap(e)
	}
	return res, nil
}

// Clear removes all objects and leaves an empty store behind.
func (l *localFS) Clear(ctx context.Context) error {
	if err := l.fs.RemoveAll(root); err != nil {
		return status.ErrStorage.Wrap(err)
	}
	if err := l.fs.MkdirAll(root, 0755); err != nil {
		return status.ErrStorage.Wrap(err)
	}
	return nil
}

func (l *localFS) String() string {
	const localfs = "localfs"
	switch fs := l.fs.(type) {
	case *afero.BasePathFs:
		pp, err := fs.RealPath("")
		if err != nil {
			return localfs
		}
		return localfs + "@" + pp
	default:
		return localfs
	}
}
