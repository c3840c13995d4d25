package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/sitecrawl/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeRejections(md, report)
	w.writeFailures(md, report)
	w.writeCompleted(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Sitecrawl Report")
	md.PlainText("")

	rows := [][]string{
		{"Seed", "`" + report.Seed + "`"},
		{"Scope", strings.Join(report.Scope, ", ")},
		{"Workers", strconv.Itoa(report.Workers)},
		{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Elapsed", strconv.FormatInt(report.Elapsed().Milliseconds(), 10) + " ms"},
		{"Status", statusText(report)},
	}
	if report.RunID != "" {
		rows = append(rows, []string{"Run ID", "`" + report.RunID + "`"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func statusText(report *model.CrawlReport) string {
	if report.Interrupted {
		return "⚠️ Interrupted (partial results)"
	}
	return "✅ Complete"
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Completed", strconv.Itoa(report.CompletedCount())},
			{"Succeeded", strconv.Itoa(report.PagesSucceeded)},
			{"Failed", strconv.Itoa(report.PagesFailed)},
			{"Links discovered", strconv.Itoa(report.LinksDiscovered)},
			{"Links enqueued", strconv.Itoa(report.LinksEnqueued)},
			{"Links rejected", strconv.Itoa(report.TotalRejected())},
		},
	})
	md.PlainText("")

	if report.CompletedCount() > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Fetch Outcomes"),
			piechart.WithShowData(true),
		)
		if report.PagesSucceeded > 0 {
			chart.LabelAndIntValue("Succeeded", uint64(report.PagesSucceeded))
		}
		if report.PagesFailed > 0 {
			chart.LabelAndIntValue("Failed", uint64(report.PagesFailed))
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case report.Interrupted:
		md.Warningf("The crawl was stopped before the frontier drained. %d page(s) were processed.", report.CompletedCount())
	case report.PagesFailed > 0:
		md.Importantf("%d page(s) could not be fetched.", report.PagesFailed)
	default:
		md.Note("Every discovered page was fetched successfully.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeRejections(md *markdown.Markdown, report *model.CrawlReport) {
	reasons := report.RejectionReasons()
	if len(reasons) == 0 {
		return
	}
	md.H2("Rejected Links")
	md.PlainText("")

	title := cases.Title(language.English)
	rows := make([][]string, 0, len(reasons))
	for _, reason := range reasons {
		rows = append(rows, []string{
			title.String(strings.ReplaceAll(reason, "_", " ")),
			strconv.Itoa(report.LinksRejected[reason]),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Reason", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.CrawlReport) {
	if len(report.Failures) == 0 {
		return
	}
	md.H2("Failures")
	md.PlainText("")

	rows := make([][]string, 0, len(report.Failures))
	for _, f := range report.Failures {
		status := "-"
		if f.StatusCode != 0 {
			status = strconv.Itoa(f.StatusCode)
		}
		rows = append(rows, []string{truncateString(f.URL, 80), status, truncateString(f.Reason, 60)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeCompleted(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Completed URLs")
	md.PlainText("")

	if len(report.Completed) == 0 {
		md.PlainText("No pages completed.")
		md.PlainText("")
		return
	}
	md.BulletList(report.Completed...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [sitecrawl](https://github.com/nao1215/sitecrawl)*")
}
