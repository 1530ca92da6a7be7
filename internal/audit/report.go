package audit

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrOrphanedRoutes is wrapped by Report.Err when at least one route leads nowhere.
var ErrOrphanedRoutes = errors.New("the following routes lead to nowhere")

// ProbeResult records one route's probe.
type ProbeResult struct {
	Route          RouteDescriptor
	Request        Request
	Outcome        Outcome
	Classification Classification
	Duration       time.Duration
}

// Report accumulates the results of an audit run.
type Report struct {
	StartedAt time.Time
	Duration  time.Duration
	Results   []ProbeResult

	orphaned []string
	seen     map[string]struct{}
}

// NewReport returns an empty report stamped with the current time.
func NewReport() *Report {
	return &Report{
		StartedAt: time.Now(),
		seen:      make(map[string]struct{}),
	}
}

// Add records a result. Orphaned results add their "verb path" entry once.
func (r *Report) Add(res ProbeResult) {
	r.Results = append(r.Results, res)
	if res.Classification != ClassOrphaned {
		return
	}
	entry := res.Request.String()
	if r.seen == nil {
		r.seen = make(map[string]struct{})
	}
	if _, dup := r.seen[entry]; dup {
		return
	}
	r.seen[entry] = struct{}{}
	r.orphaned = append(r.orphaned, entry)
}

// Orphaned returns the distinct "verb path" entries in first-seen order.
func (r *Report) Orphaned() []string {
	out := make([]string, len(r.orphaned))
	copy(out, r.orphaned)
	return out
}

// Passed reports whether no orphaned routes were found.
func (r *Report) Passed() bool {
	return len(r.orphaned) == 0
}

// Counts returns the number of results per classification.
func (r *Report) Counts() map[Classification]int {
	counts := make(map[Classification]int)
	for _, res := range r.Results {
		counts[res.Classification]++
	}
	return counts
}

// Unexpected returns results whose outcome could not be attributed to routing or sentinel data.
func (r *Report) Unexpected() []ProbeResult {
	var out []ProbeResult
	for _, res := range r.Results {
		if res.Classification == ClassUnexpected {
			out = append(out, res)
		}
	}
	return out
}

// Err returns nil when the audit passed, otherwise an error wrapping ErrOrphanedRoutes
// whose message lists every orphaned route.
func (r *Report) Err() error {
	if r.Passed() {
		return nil
	}
	return fmt.Errorf("%w: \n\t%s", ErrOrphanedRoutes, strings.Join(r.orphaned, "\n\t"))
}
