// Package log builds the slog loggers used by sitecrawl.
//
// Every logger is wrapped in a SecureHandler, which masks values that should
// not end up in log files: configured cookies and auth headers, token-like
// values, and credentials embedded in crawled URLs (user info passwords and
// query parameters such as "token" or "sessionid").
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, log.Options{Verbose: true})
//	logger.Debug("link rejected", "link", "http://example.com/?sid=abc") // sid is masked
//	slog.SetDefault(logger)
package log
