// Copyright © 2018 One Concern

package hub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Sibling is a file in a repository
type Sibling struct {
	RFilename string `json:"rfilename"`
	Size      int64  `json:"size,omitempty"`
}

// RepoInfo describes a repository as returned by the hub API
type RepoInfo struct {
	ID           string      `json:"id"`
	SHA          string      `json:"sha,omitempty"`
	Private      bool        `json:"private"`
	Gated        interface{} `json:"gated,omitempty"` // false, "auto" or "manual"
	LastModified time.Time   `json:"lastModified,omitempty"`
	Siblings     []Sibling   `json:"siblings,omitempty"`
	Kind         RepoKind    `json:"-"`
}

// IsGated tells if access to the repository requires approval
func (r RepoInfo) IsGated() bool {
	switch g := r.Gated.(type) {
	case bool:
		return g
	case string:
		return g != "" && g != "false"
	default:
		return false
	}
}

// Client to a hub
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	userAgent  string
	progress   io.Writer
	l          *zap.Logger
}

// New hub client
func New(opts ...Option) *Client {
	c := &Client{
		endpoint:   DefaultEndpoint,
		httpClient: http.DefaultClient,
		userAgent:  "comfyrestore",
		l:          zap.NewNop(),
	}
	for _, apply := range opts {
		apply(c)
	}
	return c
}

// HasToken tells if calls are authenticated
func (c *Client) HasToken() bool {
	return c.token != ""
}

func (c *Client) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling hub at %s: %w", req.URL.Redacted(), err)
	}
	if err = checkResponse(resp); err != nil {
		_ = resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// RepoInfo retrieves the metadata of a repository.
//
// The revision is optional: when empty, the default branch is described.
func (c *Client) RepoInfo(ctx context.Context, kind RepoKind, repoID, revision string) (*RepoInfo, error) {
	if err := ValidateRepoID(repoID); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/%s/%s", c.endpoint, kind.apiPrefix(), escapeRepoID(repoID))
	if revision != "" {
		url += "/revision/" + escapeFilePath(revision)
	}
	req, err := c.newRequest(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	c.l.Debug("repo info", zap.String("repo", repoID), zap.Stringer("kind", kind), zap.String("revision", revision))
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var info RepoInfo
	if err = json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decoding repo info for %q: %w", repoID, err)
	}
	info.Kind = kind
	return &info, nil
}

// Open a file from a repository for reading. The caller must close the returned reader.
//
// The returned size is -1 when unknown.
func (c *Client) Open(ctx context.Context, kind RepoKind, repoID, revision, file string) (io.ReadCloser, int64, error) {
	if err := ValidateRepoID(repoID); err != nil {
		return nil, 0, err
	}
	if revision == "" {
		revision = DefaultRevision
	}
	url := fmt.Sprintf("%s/%s%s/resolve/%s/%s",
		c.endpoint, kind.resolvePrefix(), escapeRepoID(repoID), escapeFilePath(revision), escapeFilePath(file))
	req, err := c.newRequest(ctx, http.MethodGet, url)
	if err != nil {
		return nil, 0, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, 0, err
	}
	return resp.Body, resp.ContentLength, nil
}
