package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sitecrawl/internal/model"
)

// FileName is the database file name inside the database directory.
const FileName = "sitecrawl.db"

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("crawl run not found")

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02 15:04:05.000000"

// CrawlDB provides SQLite storage for crawl runs and their pages.
type CrawlDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables write-ahead logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the database in dbDir.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	mode := "rw"
	if opts.CreateIfNotExists {
		mode = "rwc"
	}
	// busy_timeout lets a compare run wait for a crawl that is writing.
	dsn := dbPath + "?mode=" + mode + "&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Workers store pages concurrently; SQLite has a single writer, so
	// serialize through one connection instead of fighting over locks.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

func (cdb *CrawlDB) createTables(ctx context.Context) error {
	schema := `
	-- One row per crawl run
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed TEXT NOT NULL,
		host TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		interrupted INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_host ON runs(host);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Successfully fetched pages of each run
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		url TEXT NOT NULL,
		final_url TEXT,
		status_code INTEGER,
		content_type TEXT,
		title TEXT,
		content_hash TEXT,
		size INTEGER,
		fetched_at TEXT NOT NULL,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
	`

	_, err := cdb.db.ExecContext(ctx, schema)
	return err
}

// PageRecord is a stored page of a run.
type PageRecord struct {
	ID          int64
	RunID       string
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	Title       string
	ContentHash string
	Size        int
	FetchedAt   time.Time
}

// InsertPage stores a fetched page for runID.
// Storing the same URL twice for a run updates the existing row.
func (cdb *CrawlDB) InsertPage(ctx context.Context, runID string, page *model.Page) error {
	query := `
	INSERT INTO pages (run_id, url, final_url, status_code, content_type, title, content_hash, size, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, url) DO UPDATE SET
		final_url = excluded.final_url,
		status_code = excluded.status_code,
		content_type = excluded.content_type,
		title = excluded.title,
		content_hash = excluded.content_hash,
		size = excluded.size,
		fetched_at = excluded.fetched_at
	`

	fetchedAt := page.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	_, err := cdb.db.ExecContext(ctx, query,
		runID,
		page.URL,
		page.FinalURL,
		page.StatusCode,
		page.ContentType,
		page.Title,
		page.Hash,
		len(page.Raw),
		formatTime(fetchedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert page: %w", err)
	}
	return nil
}

// GetPages returns the stored pages of a run ordered by URL.
func (cdb *CrawlDB) GetPages(ctx context.Context, runID string) ([]PageRecord, error) {
	query := `
	SELECT id, run_id, url, final_url, status_code, content_type, title, content_hash, size, fetched_at
	FROM pages
	WHERE run_id = ?
	ORDER BY url
	`

	rows, err := cdb.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	var records []PageRecord
	for rows.Next() {
		var (
			r         PageRecord
			finalURL  sql.NullString
			ctype     sql.NullString
			title     sql.NullString
			hash      sql.NullString
			status    sql.NullInt64
			size      sql.NullInt64
			fetchedAt string
		)
		if err := rows.Scan(&r.ID, &r.RunID, &r.URL, &finalURL, &status, &ctype, &title, &hash, &size, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		r.FinalURL = finalURL.String
		r.StatusCode = int(status.Int64)
		r.ContentType = ctype.String
		r.Title = title.String
		r.ContentHash = hash.String
		r.Size = int(size.Int64)
		r.FetchedAt = parseTimestamp(fetchedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// SaveRun stores a finished run. Saving the same run ID again replaces it.
func (cdb *CrawlDB) SaveRun(ctx context.Context, report *model.CrawlReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	finishedAt := report.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = time.Now()
	}

	query := `
	INSERT INTO runs (id, seed, host, started_at, finished_at, completed, failed, interrupted, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		finished_at = excluded.finished_at,
		completed = excluded.completed,
		failed = excluded.failed,
		interrupted = excluded.interrupted,
		report_json = excluded.report_json
	`

	_, err = cdb.db.ExecContext(ctx, query,
		report.RunID,
		report.Seed,
		HostOf(report.Seed),
		formatTime(report.StartedAt),
		formatTime(finishedAt),
		len(report.Completed),
		report.PagesFailed,
		report.Interrupted,
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun returns the report of a run. It returns ErrRunNotFound for an
// unknown ID.
func (cdb *CrawlDB) GetRun(ctx context.Context, runID string) (*model.CrawlReport, error) {
	var reportJSON string
	err := cdb.db.QueryRowContext(ctx, `SELECT report_json FROM runs WHERE id = ?`, runID).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.CrawlReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// RunMetadata summarizes a run without loading its report.
type RunMetadata struct {
	ID          string
	Seed        string
	Host        string
	StartedAt   time.Time
	FinishedAt  time.Time
	Completed   int
	Failed      int
	Interrupted bool
}

// ListRuns returns runs for host, newest first. An empty host lists all
// runs. A non-zero since drops runs that started before it.
func (cdb *CrawlDB) ListRuns(ctx context.Context, host string, since time.Time) ([]RunMetadata, error) {
	query := `
	SELECT id, seed, host, started_at, finished_at, completed, failed, interrupted
	FROM runs
	WHERE 1=1
	`
	args := make([]any, 0, 2)
	if host != "" {
		query += " AND host = ?"
		args = append(args, strings.ToLower(host))
	}
	if !since.IsZero() {
		query += " AND started_at >= ?"
		args = append(args, formatTime(since))
	}
	query += " ORDER BY started_at DESC"

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunMetadata
	for rows.Next() {
		var (
			m                 RunMetadata
			started, finished string
		)
		if err := rows.Scan(&m.ID, &m.Seed, &m.Host, &started, &finished, &m.Completed, &m.Failed, &m.Interrupted); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		m.StartedAt = parseTimestamp(started)
		m.FinishedAt = parseTimestamp(finished)
		runs = append(runs, m)
	}
	return runs, rows.Err()
}

// ListHosts returns every host that has at least one run.
func (cdb *CrawlDB) ListHosts(ctx context.Context) ([]string, error) {
	rows, err := cdb.db.QueryContext(ctx, `SELECT DISTINCT host FROM runs ORDER BY host`)
	if err != nil {
		return nil, fmt.Errorf("failed to list hosts: %w", err)
	}
	defer rows.Close()

	var hosts []string
	for rows.Next() {
		var host string
		if err := rows.Scan(&host); err != nil {
			return nil, fmt.Errorf("failed to scan host: %w", err)
		}
		hosts = append(hosts, host)
	}
	return hosts, rows.Err()
}

// HostOf returns the lower-cased host name of rawURL, or rawURL itself
// if it has none.
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return strings.ToLower(rawURL)
	}
	return strings.ToLower(u.Hostname())
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// timestampFormats are the layouts parseTimestamp accepts, most specific
// first.
var timestampFormats = []string{
	timeLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
}

// parseTimestamp parses a stored timestamp, returning the zero time if no
// layout matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
