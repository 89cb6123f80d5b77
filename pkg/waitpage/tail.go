// Copyright © 2018 One Concern

package waitpage

import (
	"io"
	"strings"

	"github.com/spf13/afero"
)

// TailLines reads the last maxBytes of a file, split into lines.
//
// A missing or unreadable file yields no lines. Invalid UTF-8 sequences are dropped.
func TailLines(fs afero.Fs, path string, maxBytes int64) []string {
	f, err := fs.Open(path)
	if err != nil {
		return nil
	}
	defer func() {
		_ = f.Close()
	}()
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil
	}
	offset := size - maxBytes
	if offset < 0 || maxBytes <= 0 {
		offset = 0
	}
	if _, err = f.Seek(offset, io.SeekStart); err != nil {
		return nil
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil
	}
	text := strings.ToValidUTF8(string(data), "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
