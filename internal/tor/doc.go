// Package tor lets sitecrawl reach sites through the Tor network.
//
// Daemon wraps tornago's embedded Tor process: it starts a private tor
// binary, waits for it to bootstrap and exposes its SOCKS5 address, which
// the crawler's HTTP client then dials through. The onion helpers check
// v3 .onion host names before a crawl starts so that a mistyped address
// fails fast instead of timing out inside Tor.
package tor
