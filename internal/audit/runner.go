package audit

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/route-audit/internal/observability"
)

// Harness issues synthetic requests against a test instance of the application.
// Do never returns an error: every failure is folded into the Outcome.
type Harness interface {
	Reset(ctx context.Context) error
	Do(ctx context.Context, method, target string) Outcome
}

// Exclusion decides whether a synthesized request path is skipped.
type Exclusion interface {
	Excluded(path string) bool
}

// PrefixExclusion skips any path starting with one of its prefixes.
type PrefixExclusion []string

func (p PrefixExclusion) Excluded(path string) bool {
	for _, prefix := range p {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// ExcludeFunc adapts a predicate to Exclusion.
type ExcludeFunc func(path string) bool

func (f ExcludeFunc) Excluded(path string) bool { return f(path) }

// DefaultExclusion skips static assets.
var DefaultExclusion = PrefixExclusion{"/assets"}

// DefaultProbeTimeout bounds a single probe, redirects included.
const DefaultProbeTimeout = 10 * time.Second

// Runner probes routes one at a time through a Harness.
type Runner struct {
	harness      Harness
	logger       *zap.Logger
	exclude      Exclusion
	probeTimeout time.Duration
}

// NewRunner returns a Runner. A nil exclude uses DefaultExclusion; a non-positive
// probeTimeout uses DefaultProbeTimeout.
func NewRunner(harness Harness, logger *zap.Logger, exclude Exclusion, probeTimeout time.Duration) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if exclude == nil {
		exclude = DefaultExclusion
	}
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	return &Runner{
		harness:      harness,
		logger:       logger,
		exclude:      exclude,
		probeTimeout: probeTimeout,
	}
}

// Run probes every route sequentially and returns the report. Probe failures never
// stop the run; only cancellation of ctx does, in which case the partial report is
// returned together with ctx.Err().
func (r *Runner) Run(ctx context.Context, routes []RouteDescriptor) (*Report, error) {
	report := NewReport()
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	for _, route := range routes {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := r.probe(ctx, route)
		observability.RecordProbe(res.Classification.String(), res.Duration)
		report.Add(res)
	}
	observability.SetOrphanedRoutes(len(report.orphaned))
	return report, nil
}

func (r *Runner) probe(ctx context.Context, route RouteDescriptor) (res ProbeResult) {
	req := Synthesize(route)
	res = ProbeResult{Route: route, Request: req}
	logger := r.logger.With(zap.String("method", req.Method), zap.String("url", req.URL))

	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	if err := r.harness.Reset(ctx); err != nil {
		res.Outcome = Outcome{Kind: OutcomeFault, Err: err}
		res.Classification = ClassUnexpected
		logger.Warn("harness reset failed", zap.Error(err))
		return res
	}

	if r.exclude.Excluded(req.Path()) {
		res.Classification = ClassSkipped
		logger.Debug("route excluded")
		return res
	}

	probeCtx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()
	res.Outcome = r.harness.Do(probeCtx, req.Method, req.URL)
	res.Classification = Classify(res.Outcome)

	switch res.Classification {
	case ClassOrphaned:
		logger.Info("orphaned route", zap.String("outcome", res.Outcome.Kind.String()))
	case ClassUnexpected:
		logger.Warn("route raised an unexpected error",
			zap.String("template", route.Template),
			zap.Int("status", res.Outcome.Status),
			zap.Error(res.Outcome.Err))
	default:
		logger.Debug("route probed",
			zap.String("classification", res.Classification.String()),
			zap.String("outcome", res.Outcome.Kind.String()))
	}
	return res
}
