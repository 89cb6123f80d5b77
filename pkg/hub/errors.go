// Copyright © 2018 One Concern

package hub

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/oneconcern/comfyrestore/pkg/errors"
	"github.com/oneconcern/comfyrestore/pkg/hub/status"
)

const maxErrorBody = 4096

// HTTPError is an error response from the hub
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%d %s for %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// IsHTTPError tells if the hub answered with an error status somewhere in this error chain
func IsHTTPError(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr)
}

func apiErrors(err *HTTPError) error {
	switch err.StatusCode {
	case http.StatusUnauthorized:
		return status.ErrUnauthorized.Wrap(err)
	case http.StatusForbidden:
		return status.ErrForbidden.Wrap(err)
	case http.StatusNotFound:
		return status.ErrNotFound.Wrap(err)
	default:
		return status.ErrHubAPI.Wrap(err)
	}
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	httpErr := &HTTPError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
	if resp.Request != nil {
		httpErr.URL = resp.Request.URL.Redacted()
	}
	return apiErrors(httpErr)
}
