// Package database stores the history of crawl runs in SQLite.
//
// The CrawlDB keeps:
//   - one row per finished run, including the full report as JSON
//   - one row per successfully fetched page of each run
//
// Frontier state is never persisted; an interrupted run is recorded as
// interrupted and a new run always starts from its seed.
//
// SQLite is accessed through modernc.org/sqlite, a CGO-free driver, so the
// binary cross-compiles without a C toolchain and the database is a single
// file under the XDG data directory.
package database
