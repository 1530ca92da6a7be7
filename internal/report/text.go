package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kjstillabower/route-audit/internal/audit"
)

// TextWriter prints the pass/fail line, the orphan list and a summary.
type TextWriter struct {
	output io.Writer
}

// NewTextWriter returns a TextWriter that writes to output.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{output: output}
}

// Write renders report as plain text. It fails only when output does.
func (w *TextWriter) Write(report *audit.Report) error {
	var b strings.Builder
	if err := report.Err(); err != nil {
		fmt.Fprintf(&b, "FAIL: %v\n", err)
	} else {
		b.WriteString("PASS: no orphaned routes\n")
	}
	for _, res := range report.Unexpected() {
		fmt.Fprintf(&b, "Route: %s\nRaised an exception:\n\t%v\n", res.Request, res.Outcome.Err)
	}

	counts := report.Counts()
	parts := make([]string, 0, len(classifications))
	for _, c := range classifications {
		parts = append(parts, fmt.Sprintf("%s=%d", c, counts[c]))
	}
	fmt.Fprintf(&b, "%d routes probed in %s (%s)\n", len(report.Results), report.Duration.Round(time.Millisecond), strings.Join(parts, " "))

	_, err := io.WriteString(w.output, b.String())
	return err
}
