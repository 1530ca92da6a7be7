package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/kjstillabower/route-audit/internal/audit"
)

// MarkdownWriter renders the report as GitHub-flavored markdown, suitable for a CI job summary.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter returns a MarkdownWriter that writes to output.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write renders report as a markdown document with a summary table, the orphaned
// routes and any unexpected errors.
func (w *MarkdownWriter) Write(report *audit.Report) error {
	md := markdown.NewMarkdown(w.output)
	md.H1("Route Audit Report")
	md.PlainText("")

	w.writeAlert(md, report)
	w.writeSummary(md, report)
	w.writeOrphans(md, report)
	w.writeUnexpected(md, report)

	return md.Build()
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *audit.Report) {
	switch orphans := len(report.Orphaned()); {
	case orphans > 0:
		md.Cautionf("%d route(s) lead to nowhere.", orphans)
	case len(report.Unexpected()) > 0:
		md.Warningf("No orphaned routes, but %d route(s) raised unexpected errors.", len(report.Unexpected()))
	default:
		md.Tip("No orphaned routes.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *audit.Report) {
	counts := report.Counts()
	rows := make([][]string, 0, len(classifications)+1)
	for _, c := range classifications {
		rows = append(rows, []string{c.String(), strconv.Itoa(counts[c])})
	}
	rows = append(rows, []string{"total", strconv.Itoa(len(report.Results))})

	md.H2("Summary")
	md.Table(markdown.TableSet{
		Header: []string{"Classification", "Routes"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeOrphans(md *markdown.Markdown, report *audit.Report) {
	orphans := report.Orphaned()
	if len(orphans) == 0 {
		return
	}
	md.H2("Orphaned Routes")
	items := make([]string, len(orphans))
	for i, o := range orphans {
		items[i] = "`" + o + "`"
	}
	md.BulletList(items...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeUnexpected(md *markdown.Markdown, report *audit.Report) {
	unexpected := report.Unexpected()
	if len(unexpected) == 0 {
		return
	}
	rows := make([][]string, 0, len(unexpected))
	for _, res := range unexpected {
		errText := ""
		if res.Outcome.Err != nil {
			errText = res.Outcome.Err.Error()
		}
		rows = append(rows, []string{"`" + res.Request.String() + "`", strconv.Itoa(res.Outcome.Status), errText})
	}
	md.H2("Unexpected Errors")
	md.Table(markdown.TableSet{
		Header: []string{"Route", "Status", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}
