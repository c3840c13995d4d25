package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nao1215/sitecrawl/internal/config"
	"github.com/nao1215/sitecrawl/internal/crawler"
	"github.com/nao1215/sitecrawl/internal/database"
	"github.com/nao1215/sitecrawl/internal/log"
	"github.com/nao1215/sitecrawl/internal/metrics"
	"github.com/nao1215/sitecrawl/internal/model"
	"github.com/nao1215/sitecrawl/internal/report"
	"github.com/nao1215/sitecrawl/internal/storage"
	"github.com/nao1215/sitecrawl/internal/tor"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <seed-url>",
		Short: "Crawl a web site starting from a seed URL",
		Long: `Crawl fetches every page of a site reachable from the seed URL.

Links are taken from href="..." attributes. Root-relative links ("/about")
are resolved against the seed's origin, links starting with "www" get the
seed's scheme, and absolute http(s) links are used as they are. Other
relative links are ignored. Only hosts inside the scope are followed; by
default the scope is the registrable domain of the seed host.

The crawl ends when every discovered page has been processed. Press Ctrl+C
to stop early; pages being fetched are finished and a partial report is
printed.

Examples:
  # Crawl a site with the default 4 workers
  sitecrawl crawl http://example.com/

  # Use 16 workers and also follow a CDN host
  sitecrawl crawl -w 16 -s example.com -s cdn.example.net https://example.com/

  # Save every page as pageN.html and print a JSON report
  sitecrawl crawl -d ./pages --json https://example.com/

  # Crawl a hidden service through an embedded Tor daemon
  sitecrawl crawl --tor http://<56-char-address>.onion/

  # Expose Prometheus metrics while crawling
  sitecrawl crawl --metrics-addr :9090 https://example.com/

Configuration file (.sitecrawl) example:
  defaults:
    workers: 8
  sites:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	// Crawl behavior
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of concurrent workers")
	cmd.Flags().StringSliceP("scope", "s", nil,
		"Allowed host suffix (repeatable; default: registrable domain of the seed)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each fetch")

	// Requests
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum bytes read per response")
	cmd.Flags().StringArrayP("header", "H", nil,
		`Extra request header as "Name: value" (repeatable)`)
	cmd.Flags().String("cookie", "",
		"Cookie header sent with every request")
	cmd.Flags().StringP("proxy", "x", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool("tor", false,
		"Start an embedded Tor daemon and crawl through it (required for .onion seeds without --proxy)")
	cmd.Flags().Duration("tor-timeout", config.DefaultTorStartupTimeout,
		"Maximum time to wait for the embedded Tor daemon to bootstrap")

	// Persistence
	cmd.Flags().StringP("output-dir", "d", "",
		"Save fetched pages as pageN.html in this directory")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")
	cmd.Flags().Bool("no-db", false,
		"Do not record the run in the history database")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sitecrawl in current or home directory)")

	// Report
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	cmd.Flags().String("metrics-addr", "",
		"Serve Prometheus metrics on this address while crawling")

	return cmd
}

func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := checkOnionSeed(cfg.Seed); err != nil {
		return err
	}

	logger := log.NewLogger(cmd.ErrOrStderr(), log.Options{Verbose: cfg.Verbose, JSON: cfg.LogJSON})
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// buildConfig layers defaults, the config file entry for the seed host and
// explicitly set flags, in that order.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.LogJSON = getBoolFlag(cmd, "log-json")

	if len(args) > 0 {
		cfg.Seed = strings.TrimSpace(args[0])
	}
	seedURL, err := crawler.ParseSeed(cfg.Seed)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	siteFile, err := loadSiteFile(cfg.ConfigFilePath)
	if err != nil {
		return nil, err
	}
	cfg.ApplySiteConfig(siteFile.GetSiteConfig(seedURL.Hostname()))

	if flags.Changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("scope") {
		if cfg.Scope, err = flags.GetStringSlice("scope"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("cookie") {
		if cfg.Cookie, err = flags.GetString("cookie"); err != nil {
			return nil, err
		}
	}

	rawHeaders, err := flags.GetStringArray("header")
	if err != nil {
		return nil, err
	}
	headers, err := parseHeaders(rawHeaders)
	if err != nil {
		return nil, err
	}
	maps.Copy(cfg.Headers, headers)

	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
		return nil, err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return nil, err
	}
	if cfg.OutputDir, err = flags.GetString("output-dir"); err != nil {
		return nil, err
	}

	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}
	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.MetricsAddr, err = flags.GetString("metrics-addr"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadSiteFile loads the config file. A missing file is an error only when
// its path was given explicitly.
func loadSiteFile(explicitPath string) (*config.File, error) {
	path := config.FindConfigFile(explicitPath)
	if path == "" {
		if explicitPath != "" {
			return nil, fmt.Errorf("configuration file not found: %s", explicitPath)
		}
		return &config.File{Sites: make(map[string]config.SiteConfig)}, nil
	}

	file, err := config.LoadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return file, nil
}

// parseHeaders parses "Name: value" pairs.
func parseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q (expected \"Name: value\")", h)
		}
		headers[http.CanonicalHeaderKey(name)] = strings.TrimSpace(value)
	}
	return headers, nil
}

// checkOnionSeed rejects malformed .onion seeds before any network
// activity; ordinary hosts pass.
func checkOnionSeed(seed string) error {
	u, err := crawler.ParseSeed(seed)
	if err != nil {
		return err
	}
	host := u.Hostname()
	if !tor.IsOnionHost(host) {
		return nil
	}
	if err := tor.CheckOnionHost(host); err != nil {
		return fmt.Errorf("%s: %w", host, err)
	}
	return nil
}

// runCrawl performs one crawl and writes its report to out. Progress
// messages go to errOut so that JSON reports on stdout stay parseable.
func runCrawl(ctx context.Context, cfg *config.Config, out, errOut io.Writer, logger *slog.Logger) error {
	proxyAddr := cfg.ProxyAddress
	if cfg.UseTor {
		fmt.Fprintf(errOut, "Starting embedded Tor (this can take a few minutes)...\n")
		daemon := tor.NewDaemon(tor.WithStartupTimeout(cfg.TorStartupTimeout))
		if err := daemon.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := daemon.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}()
		addr, err := daemon.SocksAddr()
		if err != nil {
			return err
		}
		logger.Debug("embedded Tor ready", "socks_addr", addr)
		proxyAddr = addr
	}

	client, err := crawler.NewHTTPClient(cfg.Timeout, proxyAddr)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}
	fetcher := crawler.NewHTTPFetcher(client,
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithHeaders(cfg.Headers),
		crawler.WithCookie(cfg.Cookie),
	)

	runID := uuid.NewString()
	opts := []crawler.Option{
		crawler.WithWorkers(cfg.Workers),
		crawler.WithLogger(logger),
		crawler.WithRunID(func() string { return runID }),
	}
	if len(cfg.Scope) > 0 {
		opts = append(opts, crawler.WithScope(crawler.NewScope(cfg.Scope...)))
	}

	var sinks []storage.Sink

	var db *database.CrawlDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "path", db.Path())
		sinks = append(sinks, db.NewRecorder(runID))
	}

	if cfg.OutputDir != "" {
		files, err := storage.NewFileStore(cfg.OutputDir)
		if err != nil {
			return err
		}
		defer func() {
			if err := files.Close(); err != nil {
				logger.Error("failed to write page index", "error", err)
			}
		}()
		sinks = append(sinks, files)
	}

	if len(sinks) > 0 {
		opts = append(opts, crawler.WithSink(storage.NewMultiSink(sinks...)))
	}

	if cfg.MetricsAddr != "" {
		collector := metrics.New()
		opts = append(opts, crawler.WithMetrics(collector))
		shutdown := serveMetrics(cfg.MetricsAddr, collector, logger)
		defer shutdown()
	}

	fmt.Fprintf(errOut, "Crawling %s with %d workers...\n", cfg.Seed, cfg.Workers)

	crawlReport, crawlErr := crawler.New(fetcher, opts...).Crawl(ctx, cfg.Seed)
	if crawlReport == nil {
		return crawlErr
	}

	fmt.Fprintf(errOut, "Crawl finished in %s: %d completed, %d failed\n\n",
		crawlReport.Elapsed().Round(time.Millisecond),
		crawlReport.CompletedCount(),
		crawlReport.PagesFailed)

	if db != nil {
		// Record interrupted runs too.
		if err := db.SaveRun(context.WithoutCancel(ctx), crawlReport); err != nil {
			logger.Error("failed to save crawl run", "run_id", crawlReport.RunID, "error", err)
		} else {
			logger.Debug("crawl run saved", "run_id", crawlReport.RunID)
		}
	}

	if err := outputReport(cfg, out, crawlReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return crawlErr
}

// serveMetrics starts the metrics endpoint and returns a function that
// stops it.
func serveMetrics(addr string, collector *metrics.Collector, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// outputReport writes the report in the configured format to the report
// file, or to out if none is set.
func outputReport(cfg *config.Config, out io.Writer, crawlReport *model.CrawlReport) error {
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports can contain session URLs; keep them private to the owner.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}
	_, err := w.Write(crawlReport)
	return err
}
