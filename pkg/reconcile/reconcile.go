// Copyright © 2018 One Concern

package reconcile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FirstExisting returns the first candidate path that exists.
//
// Candidates are tried in order: later candidates are fallbacks, not merged with earlier ones.
func FirstExisting(fs afero.Fs, candidates ...string) (string, bool) {
	for _, candidate := range candidates {
		if ok, err := afero.Exists(fs, candidate); err == nil && ok {
			return candidate, true
		}
	}
	return "", false
}

// Merge copies every file under src into the corresponding path under dst.
//
// Directories are created as needed. A pre-existing destination file is removed first,
// unless it is a symbolic link, in which case the link target is overwritten.
// Files present only under dst are preserved.
func Merge(fs afero.Fs, src, dst string, opts ...Option) ([]Copied, error) {
	s := defaultSettings(opts)
	info, err := fs.Stat(src)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("merge source %q is not a directory", src)
	}

	var copied []Copied
	err = afero.Walk(fs, src, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if err = fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("creating parent of %q: %w", target, err)
		}
		if err = removeUnlessSymlink(fs, target); err != nil {
			return err
		}
		n, err := copyFile(fs, p, target, fi)
		if err != nil {
			return err
		}
		c := Copied{Path: filepath.ToSlash(rel), Size: n}
		copied = append(copied, c)
		s.onCopy(c)
		return nil
	})
	return copied, err
}

// Replace removes dst entirely, then copies the src tree in its place.
//
// Files present only under dst are lost.
func Replace(fs afero.Fs, src, dst string, opts ...Option) ([]Copied, error) {
	if _, err := fs.Stat(src); err != nil {
		return nil, err
	}
	if err := fs.RemoveAll(dst); err != nil {
		return nil, fmt.Errorf("removing %q: %w", dst, err)
	}
	if err := fs.MkdirAll(dst, 0755); err != nil {
		return nil, fmt.Errorf("creating %q: %w", dst, err)
	}
	return Merge(fs, src, dst, opts...)
}

// CopyFile copies src over dst, creating parent directories as needed
func CopyFile(fs afero.Fs, src, dst string) (int64, error) {
	fi, err := fs.Stat(src)
	if err != nil {
		return 0, err
	}
	if fi.IsDir() {
		return 0, fmt.Errorf("copy source %q is a directory", src)
	}
	if err = fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, fmt.Errorf("creating parent of %q: %w", dst, err)
	}
	return copyFile(fs, src, dst, fi)
}

func removeUnlessSymlink(fs afero.Fs, target string) error {
	var (
		fi  os.FileInfo
		err error
	)
	if lstater, ok := fs.(afero.Lstater); ok {
		fi, _, err = lstater.LstatIfPossible(target)
	} else {
		fi, err = fs.Stat(target)
	}
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		return nil
	}
	if fi.IsDir() {
		return fmt.Errorf("cannot overwrite directory %q with a file", target)
	}
	if err = fs.Remove(target); err != nil {
		return fmt.Errorf("removing %q: %w", target, err)
	}
	return nil
}

// copyFile copies content, permissions and modification time. It is not atomic.
func copyFile(fs afero.Fs, src, dst string, fi os.FileInfo) (int64, error) {
	in, err := fs.Open(src)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = in.Close()
	}()
	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return 0, fmt.Errorf("creating %q: %w", dst, err)
	}
	n, err := io.Copy(out, in)
	if err != nil {
		_ = out.Close()
		return n, fmt.Errorf("copying %q to %q: %w", src, dst, err)
	}
	if err = out.Close(); err != nil {
		return n, err
	}
	_ = fs.Chtimes(dst, fi.ModTime(), fi.ModTime())
	return n, nil
}
