// Package metrics exposes crawl progress as Prometheus metrics.
//
// A Collector owns its own registry instead of the global default one, so
// several crawls (and tests) can run in one process without duplicate
// registration panics. All Collector methods are safe on a nil receiver,
// which lets the crawler call them unconditionally.
package metrics
