package database

import (
	"context"

	"github.com/nao1215/sitecrawl/internal/model"
)

// Recorder stores the pages of one run. It satisfies the crawler's page
// sink interface.
type Recorder struct {
	db    *CrawlDB
	runID string
}

// NewRecorder returns a Recorder that files pages under runID.
func (cdb *CrawlDB) NewRecorder(runID string) *Recorder {
	return &Recorder{db: cdb, runID: runID}
}

// Store records page.
func (r *Recorder) Store(ctx context.Context, page *model.Page) error {
	return r.db.InsertPage(ctx, r.runID, page)
}

// RunID returns the run the recorder writes to.
func (r *Recorder) RunID() string {
	return r.runID
}
