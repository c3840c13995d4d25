package model

import (
	"fmt"
	"time"
)

// FetchResult is the outcome of fetching a single URL.
// A failed fetch is an ordinary value with Err set or a non-2xx status,
// never a panic.
type FetchResult struct {
	// URL is the requested URL.
	URL string

	// FinalURL is the URL after redirects were followed.
	FinalURL string

	// StatusCode is the final HTTP status, zero when no response arrived.
	StatusCode int

	// ContentType is the Content-Type header of the final response.
	ContentType string

	// Body is the (possibly truncated) response body.
	Body []byte

	// Err is the transport error, if any.
	Err error

	// Duration is how long the fetch took.
	Duration time.Duration

	// FetchedAt is when the fetch completed.
	FetchedAt time.Time
}

// OK reports whether the fetch succeeded with a 2xx status.
func (r FetchResult) OK() bool {
	return r.Err == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// IsHTML reports whether the response declares an HTML content type.
func (r FetchResult) IsHTML() bool {
	return isHTMLContentType(r.ContentType)
}

// Reason returns a short human readable description of why the fetch failed.
// It returns an empty string for successful results.
func (r FetchResult) Reason() string {
	switch {
	case r.Err != nil:
		return r.Err.Error()
	case r.OK():
		return ""
	default:
		return fmt.Sprintf("unexpected status %d", r.StatusCode)
	}
}
