// Copyright © 2018 One Concern

package reconcile

// Copied describes a file written to the destination
type Copied struct {
	// Path relative to the destination root, slash-separated
	Path string
	Size int64
}

// Option tunes a reconciliation
type Option func(*settings)

type settings struct {
	onCopy func(Copied)
}

// OnCopy registers a callback invoked after each copied file
func OnCopy(fn func(Copied)) Option {
	return func(s *settings) {
		s.onCopy = fn
	}
}

func defaultSettings(opts []Option) settings {
	s := settings{onCopy: func(Copied) {}}
	for _, apply := range opts {
		apply(&s)
	}
	return s
}
