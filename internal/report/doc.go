// Package report renders crawl reports.
//
// Three formats are provided:
//   - SimpleWriter: plain text for the terminal
//   - JSONWriter: JSON for scripts and other tools
//   - MarkdownWriter: Markdown with tables and a mermaid chart
//
// All writers implement Writer and can be combined with MultiWriter.
package report
