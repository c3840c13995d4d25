// Package main provides the entry point for the sitecrawl CLI.
//
// sitecrawl crawls a single web site breadth-first with a pool of workers
// and reports every URL it reached.
//
// Usage:
//
//	sitecrawl crawl http://example.com/
//	sitecrawl compare example.com
//
// See --help for all available options.
package main

func main() {
	Execute()
}
