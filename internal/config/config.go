package config

import (
	"maps"
	"net"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "sitecrawl"

	// DefaultWorkers is the number of concurrent crawl workers.
	DefaultWorkers = 4

	// DefaultTimeout bounds each fetch, redirects included.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies sitecrawl in HTTP requests so that site
	// operators can recognize the traffic in their logs.
	DefaultUserAgent = "sitecrawl/1.0 (+https://github.com/nao1215/sitecrawl)"

	// DefaultMaxBodySize limits how much of each response is read.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultTorStartupTimeout bounds the bootstrap of the embedded Tor
	// daemon.
	DefaultTorStartupTimeout = 3 * time.Minute
)

// Config holds all options of a crawl run.
// It is populated from defaults, the config file and CLI flags, and then
// passed down explicitly rather than kept in global state.
type Config struct {
	// Seed is the URL the crawl starts from.
	Seed string

	// Scope lists allowed host suffixes. Empty means the registrable domain
	// of the seed host.
	Scope []string

	// Workers is the size of the worker pool.
	Workers int

	// Timeout bounds each fetch.
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// MaxBodySize caps the bytes read per response. 0 uses the default.
	MaxBodySize int64

	// Headers are extra request headers.
	Headers map[string]string

	// Cookie is sent as the Cookie header with every request.
	Cookie string

	// ProxyAddress routes requests through a SOCKS5 proxy ("host:port").
	// Empty means direct connections.
	ProxyAddress string

	// UseTor starts an embedded Tor daemon and crawls through its SOCKS5
	// port. Mutually exclusive with ProxyAddress.
	UseTor bool

	// TorStartupTimeout bounds the embedded Tor bootstrap.
	TorStartupTimeout time.Duration

	// OutputDir is where fetched pages are written as pageN.html files.
	// Empty disables page saving.
	OutputDir string

	// SaveToDB records the run in the SQLite history database.
	SaveToDB bool

	// DBDir is the directory holding the history database.
	// Defaults to the XDG data directory (~/.local/share/sitecrawl on Linux).
	DBDir string

	// JSONReport selects JSON report output. Mutually exclusive with
	// MarkdownReport.
	JSONReport bool

	// MarkdownReport selects GitHub Flavored Markdown report output.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// MetricsAddr serves Prometheus metrics on this address while the crawl
	// runs (for example ":9090"). Empty disables the endpoint.
	MetricsAddr string

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON switches log output to JSON.
	LogJSON bool

	// ConfigFilePath is an explicit path to the config file.
	// If empty, .sitecrawl is searched in the current and home directories.
	ConfigFilePath string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Workers:     DefaultWorkers,
		Timeout:     DefaultTimeout,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		Headers:     make(map[string]string),
		SaveToDB:    true,
		DBDir:       XDGDataDir(),

		TorStartupTimeout: DefaultTorStartupTimeout,
	}
}

// ApplySiteConfig overlays the non-zero fields of site onto c.
// Headers are merged; everything else is replaced.
func (c *Config) ApplySiteConfig(site SiteConfig) {
	if len(site.Scope) > 0 {
		c.Scope = append([]string(nil), site.Scope...)
	}
	if site.Workers > 0 {
		c.Workers = site.Workers
	}
	if site.Timeout > 0 {
		c.Timeout = site.Timeout
	}
	if site.UserAgent != "" {
		c.UserAgent = site.UserAgent
	}
	if site.Cookie != "" {
		c.Cookie = site.Cookie
	}
	if len(site.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(site.Headers))
		}
		maps.Copy(c.Headers, site.Headers)
	}
}

// XDGDataDir returns the XDG data directory for sitecrawl.
// On Linux: ~/.local/share/sitecrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sitecrawl.
// On Linux: ~/.config/sitecrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if c.Seed == "" {
		return ErrNoSeed
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.ProxyAddress != "" {
		if _, _, err := net.SplitHostPort(c.ProxyAddress); err != nil {
			return ErrInvalidProxyAddress
		}
	}
	if c.UseTor && c.ProxyAddress != "" {
		return ErrConflictingProxy
	}
	if c.UseTor && c.TorStartupTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if !c.UseTor && c.ProxyAddress == "" && isOnionSeed(c.Seed) {
		return ErrOnionNeedsProxy
	}
	return nil
}

func isOnionSeed(seed string) bool {
	u, err := url.Parse(seed)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Hostname()), ".onion")
}
