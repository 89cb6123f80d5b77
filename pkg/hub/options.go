// Copyright © 2018 One Concern

package hub

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// DefaultEndpoint of the public hub
const DefaultEndpoint = "https://huggingface.co"

// Option configures a hub client
type Option func(*Client)

// Endpoint sets the base URL of the hub. It defaults to DefaultEndpoint.
func Endpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint == "" {
			return
		}
		c.endpoint = strings.TrimRight(endpoint, "/")
	}
}

// Token sets the access token sent as a bearer token
func Token(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// TokenFromHome reads the token stored by the hub CLI login under hfHome, unless a token is already set.
//
// Options are applied in order: place it after Token.
func TokenFromHome(hfHome string) Option {
	return func(c *Client) {
		if c.token != "" || hfHome == "" {
			return
		}
		b, err := os.ReadFile(filepath.Join(hfHome, "token"))
		if err != nil {
			return
		}
		c.token = strings.TrimSpace(string(b))
	}
}

// HTTPClient sets the http client used for all calls
func HTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// UserAgent sets the user agent header
func UserAgent(agent string) Option {
	return func(c *Client) {
		c.userAgent = agent
	}
}

// Progress renders a progress bar for each downloaded file on w
func Progress(w io.Writer) Option {
	return func(c *Client) {
		c.progress = w
	}
}

// Logger for the hub client
func Logger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.l = l
		}
	}
}
