// Copyright © 2018 One Concern

package hub

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

const progressThrottle = 250 * time.Millisecond

func (c *Client) withProgress(rdr io.Reader, size int64, file string) io.Reader {
	if c.progress == nil {
		return rdr
	}
	bar := progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(c.progress),
		progressbar.OptionSetDescription(file),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(progressThrottle),
		progressbar.OptionOnCompletion(func() {
			_, _ = io.WriteString(c.progress, "\n")
		}),
	)
	reader := progressbar.NewReader(rdr, bar)
	return &reader
}
