package httpx

import (
	"fmt"
	"net/http"

	"github.com/Ratio1/chipstage_sdk_go/pkg/stream"
)

// HTTPError is a response with a 4xx or 5xx status.
type HTTPError struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	// JSON holds the decoded body when the response declared JSON.
	JSON any
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("httpx: status %d: %s", e.StatusCode, string(e.Body))
}

// Retryable reports whether the status is transient.
func (e *HTTPError) Retryable() bool {
	if e == nil {
		return false
	}
	switch {
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode == http.StatusRequestTimeout:
		return true
	default:
		return e.StatusCode >= 500 && e.StatusCode <= 599
	}
}

// newHTTPError consumes and closes the response body.
func newHTTPError(resp *http.Response) error {
	body, err := ReadAllAndClose(resp.Body)
	if err != nil {
		return fmt.Errorf("httpx: read error body: %w", err)
	}
	httpErr := &HTTPError{
		StatusCode: resp.StatusCode,
		Body:       body,
		Header:     resp.Header.Clone(),
	}
	if isJSON(resp.Header.Get("Content-Type")) && len(body) > 0 {
		if v, err := stream.DecodeBytes(body); err == nil {
			httpErr.JSON = v
		}
	}
	return httpErr
}
