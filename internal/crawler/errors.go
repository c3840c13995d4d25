package crawler

import "errors"

// Link rejection errors returned by Validator.Validate.
// Rejections are routine during a crawl; callers count them by reason
// and move on.
var (
	// ErrRelativeLink is returned for links that are neither root-relative
	// nor absolute, such as "page.html", "#top" or "mailto:a@b".
	ErrRelativeLink = errors.New("relative link")

	// ErrMalformedLink is returned when an absolute-looking link does not
	// parse as an http(s) URL with a host.
	ErrMalformedLink = errors.New("malformed link")

	// ErrOutOfScope is returned when the link host is outside the crawl scope.
	ErrOutOfScope = errors.New("link out of scope")

	// ErrAlreadyCompleted is returned when the link was already processed.
	ErrAlreadyCompleted = errors.New("link already completed")
)

// ErrInvalidSeed is returned when the seed URL cannot start a crawl.
// This is the only fatal error of a crawl and it is raised before any
// page is fetched.
var ErrInvalidSeed = errors.New("invalid seed URL: must be an absolute http or https URL")
