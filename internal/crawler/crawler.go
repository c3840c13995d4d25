package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/sitecrawl/internal/metrics"
	"github.com/nao1215/sitecrawl/internal/model"
)

// DefaultWorkers is the default size of the worker pool.
const DefaultWorkers = 4

// PageSink receives every successfully fetched page.
// Store errors are logged by the crawler and never stop the crawl.
type PageSink interface {
	Store(ctx context.Context, page *model.Page) error
}

// Crawler runs breadth-first crawls of a single site with a fixed pool of
// workers.
type Crawler struct {
	fetcher Fetcher
	workers int
	scope   *Scope
	logger  *slog.Logger
	sink    PageSink
	metrics *metrics.Collector
	runID   func() string
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithWorkers sets the number of concurrent workers.
// Values below one keep the default.
func WithWorkers(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithScope sets the allowed host suffixes.
// Without it, the scope is derived from the seed with DefaultScope.
func WithScope(scope *Scope) Option {
	return func(c *Crawler) {
		c.scope = scope
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSink sets where fetched pages are persisted.
func WithSink(sink PageSink) Option {
	return func(c *Crawler) {
		c.sink = sink
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Crawler) {
		c.metrics = m
	}
}

// WithRunID overrides how run IDs are generated.
func WithRunID(fn func() string) Option {
	return func(c *Crawler) {
		if fn != nil {
			c.runID = fn
		}
	}
}

// New creates a Crawler that fetches pages with fetcher.
func New(fetcher Fetcher, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher: fetcher,
		workers: DefaultWorkers,
		logger:  slog.New(slog.DiscardHandler),
		runID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Crawl crawls from seed until no work is left or ctx is done.
//
// The returned report lists every completed URL. When ctx is cancelled,
// workers finish the page they are processing and the partial report is
// returned together with the context error. An invalid seed, or one whose
// host is outside the scope, returns ErrInvalidSeed before anything is
// fetched.
func (c *Crawler) Crawl(ctx context.Context, seed string) (*model.CrawlReport, error) {
	seed = strings.TrimSpace(seed)
	seedURL, err := ParseSeed(seed)
	if err != nil {
		return nil, err
	}

	scope := c.scope
	if scope == nil {
		if scope, err = DefaultScope(seed); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
		}
	}
	if !scope.Allows(seedURL.Hostname()) {
		return nil, fmt.Errorf("%w: %w: %s not in %s", ErrInvalidSeed, ErrOutOfScope, seedURL.Hostname(), scope)
	}

	frontier := NewFrontier()
	validator, err := NewValidator(seed, scope, frontier)
	if err != nil {
		return nil, err
	}

	r := &run{
		crawler:   c,
		frontier:  frontier,
		validator: validator,
		report:    model.NewCrawlReport(c.runID(), seed, scope.Domains(), c.workers),
		logger:    c.logger,
	}
	r.logger.Info("crawl started",
		"run_id", r.report.RunID,
		"seed", seed,
		"scope", scope.String(),
		"workers", c.workers)

	frontier.Offer(seed)
	c.metrics.SetFrontier(frontier.PendingCount(), frontier.InFlightCount(), frontier.CompletedCount())

	var g errgroup.Group
	for id := range c.workers {
		g.Go(func() error {
			return r.work(ctx, id)
		})
	}

	waitErr := frontier.WaitQuiescent(ctx)
	frontier.Close()
	workErr := g.Wait()

	report := r.finish(waitErr != nil)
	r.logger.Info("crawl finished",
		"run_id", report.RunID,
		"completed", len(report.Completed),
		"failed", report.PagesFailed,
		"elapsed", report.Elapsed().Round(time.Millisecond),
		"interrupted", report.Interrupted)

	if err := errors.Join(workErr, waitErr); err != nil {
		return report, fmt.Errorf("crawl interrupted: %w", err)
	}
	return report, nil
}

// run holds the state of one Crawl call.
type run struct {
	crawler   *Crawler
	frontier  *Frontier
	validator *Validator
	logger    *slog.Logger

	// mutex guards report counters. The frontier has its own lock.
	mutex  sync.Mutex
	report *model.CrawlReport
}

// work is the worker loop: claim, process, repeat until the frontier closes
// or ctx is done.
func (r *run) work(ctx context.Context, id int) error {
	logger := r.logger.With("worker", id)
	for {
		if ctx.Err() != nil {
			return nil
		}
		url, err := r.frontier.Claim(ctx)
		if err != nil {
			if errors.Is(err, ErrFrontierClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		r.process(ctx, logger, url)
	}
}

// process handles one claimed URL. The URL is always marked done, after any
// links it produced have been offered, so the frontier never looks idle
// while this page can still add work.
func (r *run) process(ctx context.Context, logger *slog.Logger, url string) {
	m := r.crawler.metrics
	defer func() {
		r.frontier.MarkDone(url)
		m.SetFrontier(r.frontier.PendingCount(), r.frontier.InFlightCount(), r.frontier.CompletedCount())
	}()

	// A started fetch is allowed to finish when the crawl is stopped; the
	// fetcher's own timeout bounds it.
	result := r.crawler.fetcher.Fetch(context.WithoutCancel(ctx), url)
	m.ObserveFetch(result)

	if !result.OK() {
		logger.Warn("fetch failed", "url", url, "status", result.StatusCode, "reason", result.Reason())
		r.recordFailure(result)
		return
	}

	page := model.NewPage(result)
	if result.IsHTML() {
		page.Title = ExtractTitle(result.Body)
	}
	if sink := r.crawler.sink; sink != nil {
		if err := sink.Store(context.WithoutCancel(ctx), page); err != nil {
			logger.Error("failed to store page", "url", url, "error", err)
			m.IncSinkError()
		}
	}

	var discovered, enqueued int
	rejected := make(map[string]int)
	for raw := range ExtractLinks(string(result.Body)) {
		discovered++
		link, err := r.validator.Validate(raw)
		if err != nil {
			reason := rejectionReason(err)
			rejected[reason]++
			m.IncRejected(reason)
			logger.Debug("link rejected", "link", raw, "reason", reason)
			continue
		}
		added, err := r.frontier.Add(link)
		if err != nil {
			// Stopped crawl; the remaining links are dropped uncounted.
			logger.Debug("frontier closed, dropping links", "url", url)
			break
		}
		if added {
			enqueued++
			m.IncEnqueued()
		} else {
			rejected[model.RejectDuplicate]++
			m.IncRejected(model.RejectDuplicate)
		}
	}
	m.AddDiscovered(discovered)

	logger.Debug("page processed",
		"url", url,
		"status", result.StatusCode,
		"links", discovered,
		"enqueued", enqueued,
		"duration", result.Duration)
	r.recordSuccess(discovered, enqueued, rejected)
}

func (r *run) recordSuccess(discovered, enqueued int, rejected map[string]int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.report.PagesSucceeded++
	r.report.LinksDiscovered += discovered
	r.report.LinksEnqueued += enqueued
	for reason, n := range rejected {
		r.report.LinksRejected[reason] += n
	}
}

func (r *run) recordFailure(result model.FetchResult) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.report.PagesFailed++
	r.report.Failures = append(r.report.Failures, model.Failure{
		URL:        result.URL,
		StatusCode: result.StatusCode,
		Reason:     result.Reason(),
	})
}

// finish fills in the final fields of the report. It must only be called
// after every worker has returned.
func (r *run) finish(interrupted bool) *model.CrawlReport {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.report.Completed = r.frontier.Completed()
	slices.SortFunc(r.report.Failures, func(a, b model.Failure) int {
		return strings.Compare(a.URL, b.URL)
	})
	r.report.FinishedAt = time.Now()
	r.report.Interrupted = interrupted
	return r.report
}
