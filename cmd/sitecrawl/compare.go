package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nao1215/markdown"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/nao1215/sitecrawl/internal/config"
	"github.com/nao1215/sitecrawl/internal/database"
	"github.com/nao1215/sitecrawl/internal/model"
	"github.com/nao1215/sitecrawl/internal/report"
)

const sinceLayout = "2006-01-02"

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [host]",
		Short: "Compare crawl runs of a site",
		Long: `Compare shows how the set of reachable pages of a site changed between runs.

It reads the run history recorded by 'sitecrawl crawl' and reports:
- Pages reached now that were not reached before
- Pages that are no longer reached
- Pages that started or stopped failing

By default the two most recent runs are compared.

Examples:
  # Compare the latest two runs of a site
  sitecrawl compare example.com

  # List the run history of a site
  sitecrawl compare --list example.com

  # Compare the latest run with a specific run
  sitecrawl compare --with-run-id 3f2c... example.com

  # Compare the latest run with the first run since a date
  sitecrawl compare --since 2026-01-01 example.com

  # List all crawled hosts
  sitecrawl compare --list-hosts`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List run history for the specified host")
	cmd.Flags().BoolP("list-hosts", "L", false,
		"List all hosts in the history database")

	cmd.Flags().StringP("with-run-id", "i", "",
		"Compare the latest run with this run (use --list to see IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare the latest run with the first run on or after this date (YYYY-MM-DD)")

	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// compareOptions holds the parsed compare flags.
type compareOptions struct {
	host      string
	listHosts bool
	list      bool
	withRunID string
	since     time.Time
	json      bool
	markdown  bool
	dbDir     string
}

func parseCompareOptions(cmd *cobra.Command, args []string) (*compareOptions, error) {
	flags := cmd.Flags()
	opts := &compareOptions{}
	var err error

	if opts.listHosts, err = flags.GetBool("list-hosts"); err != nil {
		return nil, err
	}
	if !opts.listHosts {
		if len(args) == 0 {
			return nil, errors.New("host is required (use --list-hosts to see crawled hosts)")
		}
		opts.host = normalizeHost(args[0])
	}

	if opts.list, err = flags.GetBool("list"); err != nil {
		return nil, err
	}
	if opts.withRunID, err = flags.GetString("with-run-id"); err != nil {
		return nil, err
	}
	since, err := flags.GetString("since")
	if err != nil {
		return nil, err
	}
	if since != "" {
		if opts.since, err = time.Parse(sinceLayout, since); err != nil {
			return nil, fmt.Errorf("invalid date format %q (expected YYYY-MM-DD): %w", since, err)
		}
	}
	if opts.json, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if opts.markdown, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if opts.json && opts.markdown {
		return nil, config.ErrConflictingReportFormats
	}
	if opts.dbDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	if opts.dbDir == "" {
		opts.dbDir = config.XDGDataDir()
	}
	return opts, nil
}

// normalizeHost accepts either a host or a URL.
func normalizeHost(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "://") {
		return database.HostOf(s)
	}
	return strings.ToLower(strings.TrimSuffix(s, "/"))
}

func runCompareCmd(cmd *cobra.Command, args []string) error {
	// Validate flags before opening the database.
	opts, err := parseCompareOptions(cmd, args)
	if err != nil {
		return err
	}

	db, err := database.Open(opts.dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	switch {
	case opts.listHosts:
		return listHosts(ctx, out, db)
	case opts.list:
		return listRunHistory(ctx, out, db, opts.host)
	default:
		return runComparison(ctx, out, db, opts)
	}
}

func listHosts(ctx context.Context, out io.Writer, db *database.CrawlDB) error {
	hosts, err := db.ListHosts(ctx)
	if err != nil {
		return err
	}
	if len(hosts) == 0 {
		fmt.Fprintln(out, "No crawled hosts found in the database.")
		fmt.Fprintln(out, "\nUse 'sitecrawl crawl <seed-url>' to crawl a site.")
		return nil
	}

	fmt.Fprintf(out, "Crawled hosts (%d):\n\n", len(hosts))
	for _, h := range hosts {
		fmt.Fprintf(out, "  • %s\n", h)
	}
	fmt.Fprintln(out, "\nUse 'sitecrawl compare --list <host>' to see the run history of a host.")
	return nil
}

func listRunHistory(ctx context.Context, out io.Writer, db *database.CrawlDB, host string) error {
	runs, err := db.ListRuns(ctx, host, time.Time{})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintf(out, "No crawl history found for %s\n", host)
		return nil
	}

	fmt.Fprintf(out, "Crawl history for %s (%d runs):\n\n", host, len(runs))

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run ID", "Started", "Completed", "Failed", "Elapsed", "Status"})
	for _, r := range runs {
		status := "complete"
		if r.Interrupted {
			status = "interrupted"
		}
		t.AppendRow(table.Row{
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Completed,
			r.Failed,
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
			status,
		})
	}
	t.Render()
	return nil
}

// RunSummary identifies one side of a comparison.
type RunSummary struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	Completed   int       `json:"completed"`
	Failed      int       `json:"failed"`
	Interrupted bool      `json:"interrupted"`
}

func summarize(r *model.CrawlReport) RunSummary {
	return RunSummary{
		ID:          r.RunID,
		StartedAt:   r.StartedAt,
		Completed:   r.CompletedCount(),
		Failed:      r.PagesFailed,
		Interrupted: r.Interrupted,
	}
}

// ComparisonResult is the difference between two runs of a site.
type ComparisonResult struct {
	Host     string     `json:"host"`
	Previous RunSummary `json:"previous"`
	Current  RunSummary `json:"current"`

	// Added are URLs completed in the current run only.
	Added []string `json:"added"`

	// Removed are URLs completed in the previous run only.
	Removed []string `json:"removed"`

	// NewFailures are URLs that failed now but not before.
	NewFailures []string `json:"new_failures"`

	// FixedFailures are URLs that failed before but not now.
	FixedFailures []string `json:"fixed_failures"`

	UnchangedCount int `json:"unchanged_count"`
}

// HasChanges reports whether the runs differ.
func (c *ComparisonResult) HasChanges() bool {
	return len(c.Added) > 0 || len(c.Removed) > 0 || len(c.NewFailures) > 0 || len(c.FixedFailures) > 0
}

func runComparison(ctx context.Context, out io.Writer, db *database.CrawlDB, opts *compareOptions) error {
	previous, current, err := selectRuns(ctx, db, opts)
	if err != nil {
		return err
	}

	result := compareReports(opts.host, previous, current)

	switch {
	case opts.json:
		_, err = report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(result)
		return err
	case opts.markdown:
		return outputComparisonMarkdown(out, result)
	default:
		return outputComparisonText(out, result)
	}
}

// selectRuns loads the latest run of the host and the run it is compared
// with.
func selectRuns(ctx context.Context, db *database.CrawlDB, opts *compareOptions) (previous, current *model.CrawlReport, err error) {
	runs, err := db.ListRuns(ctx, opts.host, time.Time{})
	if err != nil {
		return nil, nil, err
	}
	if len(runs) == 0 {
		return nil, nil, fmt.Errorf("no crawl history found for %s", opts.host)
	}
	latest := runs[0]

	var previousID string
	switch {
	case opts.withRunID != "":
		previousID = opts.withRunID
	case !opts.since.IsZero():
		since, err := db.ListRuns(ctx, opts.host, opts.since)
		if err != nil {
			return nil, nil, err
		}
		if len(since) == 0 {
			return nil, nil, fmt.Errorf("no runs of %s since %s", opts.host, opts.since.Format(sinceLayout))
		}
		previousID = since[len(since)-1].ID
	default:
		if len(runs) < 2 {
			return nil, nil, fmt.Errorf("need at least two runs of %s to compare (found %d)", opts.host, len(runs))
		}
		previousID = runs[1].ID
	}

	if previousID == latest.ID {
		return nil, nil, errors.New("cannot compare a run with itself")
	}

	if previous, err = db.GetRun(ctx, previousID); err != nil {
		return nil, nil, fmt.Errorf("run %s: %w", previousID, err)
	}
	if current, err = db.GetRun(ctx, latest.ID); err != nil {
		return nil, nil, fmt.Errorf("run %s: %w", latest.ID, err)
	}
	return previous, current, nil
}

func failedURLs(r *model.CrawlReport) []string {
	return lo.Map(r.Failures, func(f model.Failure, _ int) string { return f.URL })
}

// compareReports diffs the completed and failed URL sets of two runs.
func compareReports(host string, previous, current *model.CrawlReport) *ComparisonResult {
	prevFailed, curFailed := failedURLs(previous), failedURLs(current)

	return &ComparisonResult{
		Host:           host,
		Previous:       summarize(previous),
		Current:        summarize(current),
		Added:          lo.Without(current.Completed, previous.Completed...),
		Removed:        lo.Without(previous.Completed, current.Completed...),
		NewFailures:    lo.Without(curFailed, prevFailed...),
		FixedFailures:  lo.Intersect(lo.Without(prevFailed, curFailed...), current.Completed),
		UnchangedCount: len(lo.Intersect(previous.Completed, current.Completed)),
	}
}

func outputComparisonText(out io.Writer, result *ComparisonResult) error {
	fmt.Fprintf(out, "Crawl Comparison: %s\n\n", result.Host)

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"", "Previous", "Current"})
	t.AppendRows([]table.Row{
		{"Run ID", result.Previous.ID, result.Current.ID},
		{"Started", result.Previous.StartedAt.Local().Format("2006-01-02 15:04:05"), result.Current.StartedAt.Local().Format("2006-01-02 15:04:05")},
		{"Completed", result.Previous.Completed, result.Current.Completed},
		{"Failed", result.Previous.Failed, result.Current.Failed},
	})
	t.Render()

	if !result.HasChanges() {
		fmt.Fprintf(out, "\nNo changes (%d pages unchanged)\n", result.UnchangedCount)
		return nil
	}

	writeURLList(out, "Added pages", "+", result.Added)
	writeURLList(out, "Removed pages", "-", result.Removed)
	writeURLList(out, "New failures", "!", result.NewFailures)
	writeURLList(out, "Fixed failures", "✓", result.FixedFailures)
	fmt.Fprintf(out, "\n%d pages unchanged\n", result.UnchangedCount)
	return nil
}

func writeURLList(out io.Writer, title, marker string, urls []string) {
	if len(urls) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s (%d):\n", title, len(urls))
	for _, u := range urls {
		fmt.Fprintf(out, "  %s %s\n", marker, u)
	}
}

func outputComparisonMarkdown(out io.Writer, result *ComparisonResult) error {
	md := markdown.NewMarkdown(out)

	md.H1("Crawl Comparison: " + result.Host)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"", "Previous", "Current"},
		Rows: [][]string{
			{"Run ID", "`" + result.Previous.ID + "`", "`" + result.Current.ID + "`"},
			{"Started", result.Previous.StartedAt.Format(time.RFC3339), result.Current.StartedAt.Format(time.RFC3339)},
			{"Completed", strconv.Itoa(result.Previous.Completed), strconv.Itoa(result.Current.Completed)},
			{"Failed", strconv.Itoa(result.Previous.Failed), strconv.Itoa(result.Current.Failed)},
		},
	})
	md.PlainText("")

	sections := []struct {
		title string
		urls  []string
	}{
		{"Added Pages", result.Added},
		{"Removed Pages", result.Removed},
		{"New Failures", result.NewFailures},
		{"Fixed Failures", result.FixedFailures},
	}
	for _, s := range sections {
		if len(s.urls) == 0 {
			continue
		}
		md.H2(s.title + " (" + strconv.Itoa(len(s.urls)) + ")")
		md.PlainText("")
		md.BulletList(s.urls...)
		md.PlainText("")
	}

	if !result.HasChanges() {
		md.Note("No changes between the two runs.")
		md.PlainText("")
	}
	md.PlainTextf("*%d pages unchanged*", result.UnchangedCount)

	return md.Build()
}
