// Package model defines the core data structures shared by sitecrawl.
//
// This package contains the following main types:
//   - FetchResult: The typed outcome of fetching one URL
//   - Page: A successfully fetched page handed to persistence sinks
//   - CrawlReport: The summary of a finished (or interrupted) crawl run
//
// Models live in their own package so that crawler, storage, database and
// report can share them without import cycles. All of them serialize to
// JSON for report output and database storage.
package model
