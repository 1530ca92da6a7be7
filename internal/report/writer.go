// Package report renders audit reports.
package report

import (
	"fmt"
	"io"

	"github.com/kjstillabower/route-audit/internal/audit"
)

// Formats accepted by New.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// Writer renders a report to its output.
type Writer interface {
	Write(report *audit.Report) error
}

// New returns the Writer for format.
func New(format string, output io.Writer) (Writer, error) {
	switch format {
	case FormatText, "":
		return NewTextWriter(output), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// classifications lists classifications in display order.
var classifications = []audit.Classification{
	audit.ClassOrphaned,
	audit.ClassUnexpected,
	audit.ClassExpectedNoise,
	audit.ClassHandled,
	audit.ClassSkipped,
}
