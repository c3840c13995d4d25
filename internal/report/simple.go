package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/sitecrawl/internal/model"
)

const ruleWidth = 70

// SimpleWriter outputs plain text reports for the terminal.
type SimpleWriter struct {
	baseWriter

	// listCompleted prints every completed URL.
	listCompleted bool

	// verbose adds failure reasons and rejection breakdowns.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithCompletedList controls whether completed URLs are listed one per
// line. It is on by default.
func WithCompletedList(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.listCompleted = show
	}
}

// WithVerbose enables additional detail in the output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter:    newBaseWriter(output),
		listCompleted: true,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeCounts(&sb, report)
	w.writeCompleted(&sb, report)
	w.writeFailures(&sb, report)
	w.writeFooter(&sb, report)

	return io.WriteString(w.output, sb.String())
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                         SITECRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Seed:     %s\n", report.Seed)
	fmt.Fprintf(sb, "Scope:    %s\n", strings.Join(report.Scope, ", "))
	fmt.Fprintf(sb, "Workers:  %d\n", report.Workers)
	fmt.Fprintf(sb, "Started:  %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if report.RunID != "" {
		fmt.Fprintf(sb, "Run ID:   %s\n", report.RunID)
	}
	if report.Interrupted {
		sb.WriteString("Status:   INTERRUPTED (partial results)\n")
	} else {
		sb.WriteString("Status:   Complete\n")
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeCounts(sb *strings.Builder, report *model.CrawlReport) {
	writeSection(sb, "SUMMARY")

	fmt.Fprintf(sb, "  Completed:  %d\n", report.CompletedCount())
	fmt.Fprintf(sb, "  Succeeded:  %d\n", report.PagesSucceeded)
	fmt.Fprintf(sb, "  Failed:     %d\n", report.PagesFailed)
	fmt.Fprintf(sb, "  Discovered: %d links\n", report.LinksDiscovered)
	fmt.Fprintf(sb, "  Enqueued:   %d links\n", report.LinksEnqueued)
	fmt.Fprintf(sb, "  Rejected:   %d links\n", report.TotalRejected())
	if w.verbose {
		for _, reason := range report.RejectionReasons() {
			fmt.Fprintf(sb, "    %-14s %d\n", reason+":", report.LinksRejected[reason])
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeCompleted(sb *strings.Builder, report *model.CrawlReport) {
	if !w.listCompleted {
		return
	}
	writeSection(sb, "COMPLETED")

	if len(report.Completed) == 0 {
		sb.WriteString("  No pages completed\n\n")
		return
	}
	for _, u := range report.Completed {
		sb.WriteString(u)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFailures(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.Failures) == 0 {
		return
	}
	writeSection(sb, "FAILURES")

	for _, f := range report.Failures {
		fmt.Fprintf(sb, "  [!] %s\n", f.URL)
		if w.verbose {
			fmt.Fprintf(sb, "      %s\n", f.Reason)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Elapsed: %d ms\n", report.Elapsed().Milliseconds())
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
}
