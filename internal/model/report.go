package model

import (
	"slices"
	"time"
)

// Rejection reasons used as keys of CrawlReport.LinksRejected.
const (
	RejectRelative  = "relative"
	RejectMalformed = "malformed"
	RejectScope     = "out_of_scope"
	RejectCompleted = "completed"
	RejectDuplicate = "duplicate"
)

// CrawlReport summarizes a crawl run.
// It is produced both for runs that reached quiescence and for runs that
// were stopped early, in which case Interrupted is true.
type CrawlReport struct {
	// RunID uniquely identifies the run (UUID).
	RunID string `json:"run_id"`

	// Seed is the validated seed URL.
	Seed string `json:"seed"`

	// Scope lists the allowed host suffixes.
	Scope []string `json:"scope"`

	// Workers is the size of the worker pool.
	Workers int `json:"workers"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Completed is the sorted set of URLs that were processed, whether the
	// fetch succeeded or not.
	Completed []string `json:"completed"`

	// PagesSucceeded counts fetches with a 2xx status.
	PagesSucceeded int `json:"pages_succeeded"`

	// PagesFailed counts fetches with a transport error or non-2xx status.
	PagesFailed int `json:"pages_failed"`

	// LinksDiscovered counts every href captured by the extractor.
	LinksDiscovered int `json:"links_discovered"`

	// LinksEnqueued counts links the frontier accepted as new work.
	LinksEnqueued int `json:"links_enqueued"`

	// LinksRejected counts discarded links by reason.
	LinksRejected map[string]int `json:"links_rejected,omitempty"`

	// Failures lists every failed fetch.
	Failures []Failure `json:"failures,omitempty"`

	// Interrupted is true when the crawl was stopped before quiescence.
	Interrupted bool `json:"interrupted"`
}

// Failure records one failed fetch.
type Failure struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code,omitempty"`
	Reason     string `json:"reason"`
}

// NewCrawlReport creates an empty report for the given run.
func NewCrawlReport(runID, seed string, scope []string, workers int) *CrawlReport {
	return &CrawlReport{
		RunID:         runID,
		Seed:          seed,
		Scope:         slices.Clone(scope),
		Workers:       workers,
		StartedAt:     time.Now(),
		Completed:     make([]string, 0),
		LinksRejected: make(map[string]int),
		Failures:      make([]Failure, 0),
	}
}

// Elapsed returns how long the run took.
// It returns zero if the run has not finished.
func (r *CrawlReport) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// CompletedCount returns the number of processed URLs.
func (r *CrawlReport) CompletedCount() int {
	return len(r.Completed)
}

// TotalRejected returns the number of rejected links across all reasons.
func (r *CrawlReport) TotalRejected() int {
	total := 0
	for _, n := range r.LinksRejected {
		total += n
	}
	return total
}

// RejectionReasons returns the rejection reasons in stable order.
func (r *CrawlReport) RejectionReasons() []string {
	reasons := make([]string, 0, len(r.LinksRejected))
	for reason := range r.LinksRejected {
		reasons = append(reasons, reason)
	}
	slices.Sort(reasons)
	return reasons
}
