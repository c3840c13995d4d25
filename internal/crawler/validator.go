package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/nao1215/sitecrawl/internal/model"
)

// CompletionChecker reports whether a URL has already been processed.
// Frontier implements it.
type CompletionChecker interface {
	IsCompleted(url string) bool
}

// Validator turns raw href values into absolute in-scope URLs.
//
// The rules are applied in order:
//  1. "/path" is joined to the seed origin.
//  2. A link starting with "http" or "www" is absolute. A "www" link gets
//     the seed scheme prepended. Either way it must parse as an http(s)
//     URL with a host.
//  3. Anything else is rejected as relative.
//  4. The host must be in scope.
//  5. The URL must not be completed already.
//
// The resulting string is used as-is for deduplication; no
// canonicalization is applied.
type Validator struct {
	origin    string
	scheme    string
	scope     *Scope
	completed CompletionChecker
}

// NewValidator creates a Validator relative to seed.
// seed must already have passed ParseSeed.
func NewValidator(seed string, scope *Scope, completed CompletionChecker) (*Validator, error) {
	u, err := ParseSeed(seed)
	if err != nil {
		return nil, err
	}
	return &Validator{
		origin:    u.Scheme + "://" + u.Host,
		scheme:    u.Scheme,
		scope:     scope,
		completed: completed,
	}, nil
}

// Validate returns the absolute URL for raw, or one of ErrRelativeLink,
// ErrMalformedLink, ErrOutOfScope or ErrAlreadyCompleted.
func (v *Validator) Validate(raw string) (string, error) {
	var candidate string
	switch {
	case strings.HasPrefix(raw, "/"):
		candidate = v.origin + raw
	case strings.HasPrefix(raw, "www"):
		candidate = v.scheme + "://" + raw
	case strings.HasPrefix(raw, "http"):
		candidate = raw
	default:
		return "", ErrRelativeLink
	}

	u, err := url.Parse(candidate)
	if err != nil || !isHTTPScheme(u.Scheme) || u.Hostname() == "" {
		return "", ErrMalformedLink
	}

	if v.scope != nil && !v.scope.Allows(u.Hostname()) {
		return "", ErrOutOfScope
	}

	if v.completed != nil && v.completed.IsCompleted(candidate) {
		return "", ErrAlreadyCompleted
	}

	return candidate, nil
}

// ParseSeed checks that seed is an absolute http or https URL with a host.
func ParseSeed(seed string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(seed))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	if !isHTTPScheme(u.Scheme) || u.Hostname() == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSeed, seed)
	}
	return u, nil
}

// rejectionReason maps a validation error to its report key.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrRelativeLink):
		return model.RejectRelative
	case errors.Is(err, ErrMalformedLink):
		return model.RejectMalformed
	case errors.Is(err, ErrOutOfScope):
		return model.RejectScope
	case errors.Is(err, ErrAlreadyCompleted):
		return model.RejectCompleted
	default:
		return "other"
	}
}

func isHTTPScheme(scheme string) bool {
	return scheme == "http" || scheme == "https"
}
