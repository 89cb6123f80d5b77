// Copyright © 2018 One Concern

// Package hubtest provides an in-process fake hub, to exercise hub clients in tests.
package hubtest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/oneconcern/comfyrestore/pkg/hub"
)

// Repo hosted by the fake hub
type Repo struct {
	Kind  hub.RepoKind
	ID    string
	SHA   string
	Files map[string]string

	// Token, when set, is required as a bearer token. Other callers get a 401.
	Token string

	// Status, when set, is answered to every call on this repository
	Status int

	// FailDownloads answers 500 to file downloads
	FailDownloads bool

	// TruncateDownloads announces the full size of files but sends only half of their content
	TruncateDownloads bool
}

// Server is a fake hub
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	repos    map[string]*Repo
	requests []string
}

// New fake hub serving some repositories
func New(repos ...Repo) *Server {
	s := &Server{repos: make(map[string]*Repo, len(repos))}
	for i := range repos {
		repo := repos[i]
		if repo.SHA == "" {
			repo.SHA = "0123456789abcdef0123456789abcdef01234567"
		}
		s.repos[key(repo.Kind, repo.ID)] = &repo
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

func key(kind hub.RepoKind, id string) string {
	return string(kind) + ":" + id
}

// Requests served so far, as "METHOD path"
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.Method+" "+r.URL.Path)
	s.mu.Unlock()

	p := r.URL.Path
	switch {
	case strings.HasPrefix(p, "/api/models/"):
		s.info(w, r, hub.KindModel, strings.TrimPrefix(p, "/api/models/"))
	case strings.HasPrefix(p, "/api/datasets/"):
		s.info(w, r, hub.KindDataset, strings.TrimPrefix(p, "/api/datasets/"))
	case strings.HasPrefix(p, "/datasets/"):
		s.resolve(w, r, hub.KindDataset, strings.TrimPrefix(p, "/datasets/"))
	default:
		s.resolve(w, r, hub.KindModel, strings.TrimPrefix(p, "/"))
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request, kind hub.RepoKind, id string) *Repo {
	repo, ok := s.repos[key(kind, id)]
	if !ok {
		http.Error(w, "Repository Not Found", http.StatusNotFound)
		return nil
	}
	if repo.Status != 0 {
		http.Error(w, http.StatusText(repo.Status), repo.Status)
		return nil
	}
	if repo.Token != "" && r.Header.Get("Authorization") != "Bearer "+repo.Token {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return nil
	}
	return repo
}

func (s *Server) info(w http.ResponseWriter, r *http.Request, kind hub.RepoKind, rest string) {
	id := rest
	if i := strings.Index(rest, "/revision/"); i >= 0 {
		id = rest[:i]
	}
	repo := s.lookup(w, r, kind, id)
	if repo == nil {
		return
	}
	names := make([]string, 0, len(repo.Files))
	for name := range repo.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	siblings := make([]hub.Sibling, 0, len(names))
	for _, name := range names {
		siblings = append(siblings, hub.Sibling{RFilename: name, Size: int64(len(repo.Files[name]))})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = jsoniter.NewEncoder(w).Encode(map[string]interface{}{
		"id":       repo.ID,
		"sha":      repo.SHA,
		"private":  repo.Token != "",
		"gated":    false,
		"siblings": siblings,
	})
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request, kind hub.RepoKind, rest string) {
	i := strings.Index(rest, "/resolve/")
	if i < 0 {
		http.NotFound(w, r)
		return
	}
	repo := s.lookup(w, r, kind, rest[:i])
	if repo == nil {
		return
	}
	revAndFile := strings.SplitN(rest[i+len("/resolve/"):], "/", 2)
	if len(revAndFile) != 2 || (revAndFile[0] != hub.DefaultRevision && revAndFile[0] != repo.SHA) {
		http.Error(w, "Revision Not Found", http.StatusNotFound)
		return
	}
	if repo.FailDownloads {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}
	content, ok := repo.Files[revAndFile[1]]
	if !ok {
		http.Error(w, "Entry Not Found", http.StatusNotFound)
		return
	}
	if repo.TruncateDownloads {
		w.Header().Set("Content-Length", strconv.Itoa(len(content)))
		content = content[:len(content)/2]
	}
	_, _ = io.WriteString(w, content)
}
