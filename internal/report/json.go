package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/kjstillabower/route-audit/internal/audit"
)

// JSONWriter emits the report as a single JSON document.
type JSONWriter struct {
	output io.Writer
}

// NewJSONWriter returns a JSONWriter that writes indented JSON to output.
func NewJSONWriter(output io.Writer) *JSONWriter {
	return &JSONWriter{output: output}
}

type jsonReport struct {
	Passed     bool           `json:"passed"`
	Orphaned   []string       `json:"orphaned"`
	Counts     map[string]int `json:"counts"`
	Results    []jsonResult   `json:"results"`
	StartedAt  time.Time      `json:"startedAt"`
	DurationMs int64          `json:"durationMs"`
}

type jsonResult struct {
	Method         string `json:"method"`
	URL            string `json:"url"`
	Template       string `json:"template"`
	Host           string `json:"host,omitempty"`
	Outcome        string `json:"outcome"`
	Classification string `json:"classification"`
	Status         int    `json:"status,omitempty"`
	Error          string `json:"error,omitempty"`
	DurationMs     int64  `json:"durationMs"`
}

// Write encodes report, including every probe result, as one JSON object.
func (w *JSONWriter) Write(report *audit.Report) error {
	out := jsonReport{
		Passed:     report.Passed(),
		Orphaned:   report.Orphaned(),
		Counts:     make(map[string]int),
		Results:    make([]jsonResult, 0, len(report.Results)),
		StartedAt:  report.StartedAt.UTC(),
		DurationMs: report.Duration.Milliseconds(),
	}
	for c, n := range report.Counts() {
		out.Counts[c.String()] = n
	}
	for _, res := range report.Results {
		r := jsonResult{
			Method:         res.Request.Method,
			URL:            res.Request.URL,
			Template:       res.Route.Template,
			Host:           res.Route.Host,
			Outcome:        res.Outcome.Kind.String(),
			Classification: res.Classification.String(),
			Status:         res.Outcome.Status,
			DurationMs:     res.Duration.Milliseconds(),
		}
		if res.Outcome.Err != nil {
			r.Error = res.Outcome.Err.Error()
		}
		out.Results = append(out.Results, r)
	}

	enc := json.NewEncoder(w.output)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
