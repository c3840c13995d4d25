package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// They are sentinels so callers can branch with errors.Is.
var (
	// ErrNoSeed is returned when no seed URL was given.
	ErrNoSeed = errors.New("no seed specified: provide the URL to start crawling from")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	// Every fetch must be bounded or a stuck server could stall a worker
	// forever.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidProxyAddress is returned when the SOCKS5 proxy address is
	// not in "host:port" form.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: must be host:port")

	// ErrConflictingProxy is returned when both --tor and --proxy are
	// specified.
	ErrConflictingProxy = errors.New("conflicting proxies: --tor and --proxy cannot be used together")

	// ErrOnionNeedsProxy is returned when the seed is a .onion URL but
	// neither Tor nor a SOCKS5 proxy is configured.
	ErrOnionNeedsProxy = errors.New("onion seed requires --tor or --proxy")
)
