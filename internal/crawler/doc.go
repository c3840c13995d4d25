// Package crawler implements a concurrent breadth-first crawler for a
// single site.
//
// # Components
//
//   - Frontier: pending, in-flight and completed URL sets; the only place
//     where duplicates are filtered
//   - Validator: turns a raw href into an absolute in-scope URL or rejects
//     it with a sentinel error
//   - ExtractLinks: regex scan for href="..." values
//   - HTTPFetcher: performs the GET and classifies the outcome as a
//     model.FetchResult
//   - Crawler: the worker pool that ties them together
//
// # Termination
//
// Workers block on the frontier until it hands out a URL or reports
// quiescence: nothing pending and nothing in flight. A URL is marked done
// only after the links found on its page were offered back to the
// frontier, so the pool can never see an empty frontier while a worker is
// still about to add work.
//
// # Usage
//
//	fetcher := crawler.NewHTTPFetcher(client)
//	report, err := crawler.New(fetcher, crawler.WithWorkers(8)).Crawl(ctx, "https://example.com/")
package crawler
