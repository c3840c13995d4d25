package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"

	"github.com/nao1215/sitecrawl/internal/model"
)

// Fetcher defaults.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultUserAgent   = "sitecrawl/1.0 (+https://github.com/nao1215/sitecrawl)"
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB
	maxRedirects       = 10
)

// ErrTooManyRedirects is reported when a redirect chain exceeds the limit.
var ErrTooManyRedirects = errors.New("too many redirects")

// Fetcher retrieves one URL.
// Implementations must always return, within a finite time, a FetchResult
// describing either the page or the failure.
type Fetcher interface {
	Fetch(ctx context.Context, url string) model.FetchResult
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) model.FetchResult

// Fetch calls f(ctx, url).
func (f FetcherFunc) Fetch(ctx context.Context, url string) model.FetchResult {
	return f(ctx, url)
}

// HTTPFetcher fetches pages over HTTP(S), following redirects.
type HTTPFetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	headers     map[string]string
	cookie      string
}

// HTTPFetcherOption configures an HTTPFetcher.
type HTTPFetcherOption func(*HTTPFetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize caps how many body bytes are read. Zero keeps the default.
func WithMaxBodySize(size int64) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithHeaders adds custom request headers.
func WithHeaders(headers map[string]string) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		for k, v := range headers {
			f.headers[k] = v
		}
	}
}

// WithCookie sets the Cookie header sent with every request.
func WithCookie(cookie string) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.cookie = cookie
	}
}

// NewHTTPFetcher creates a fetcher that uses client.
// The client must have a finite Timeout; NewHTTPClient builds a suitable one.
func NewHTTPFetcher(client *http.Client, opts ...HTTPFetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:      client,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		headers:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewHTTPClient creates an HTTP client with the given timeout.
// When proxyAddress ("host:port") is not empty, every connection goes
// through that SOCKS5 proxy.
func NewHTTPClient(timeout time.Duration, proxyAddress string) (*http.Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // DefaultTransport is always *http.Transport
	transport.MaxIdleConnsPerHost = 8
	transport.IdleConnTimeout = 30 * time.Second

	if proxyAddress != "" {
		if _, _, err := net.SplitHostPort(proxyAddress); err != nil {
			return nil, fmt.Errorf("invalid proxy address %q: %w", proxyAddress, err)
		}
		dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}, nil
}

// Fetch performs a GET request for pageURL. It never panics; every failure
// is reported through the returned FetchResult.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) model.FetchResult {
	start := time.Now()
	result := model.FetchResult{URL: pageURL, FinalURL: pageURL}

	finish := func() model.FetchResult {
		result.FetchedAt = time.Now()
		result.Duration = result.FetchedAt.Sub(start)
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		result.Err = fmt.Errorf("build request: %w", err)
		return finish()
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
	if f.cookie != "" {
		req.Header.Set("Cookie", f.cookie)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		result.Err = err
		return finish()
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	result.ContentType = resp.Header.Get("Content-Type")
	if resp.Request != nil && resp.Request.URL != nil {
		result.FinalURL = resp.Request.URL.String()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		result.Err = fmt.Errorf("read body: %w", err)
		return finish()
	}
	result.Body = body

	return finish()
}
