// Package audit finds orphaned routes: declared routes that resolve to no handler.
//
// An audit enumerates a RouteSource, synthesizes one concrete request per route by
// substituting a sentinel for every placeholder, and issues each request through a
// Harness. Failures raised downstream of routing (missing records, missing parameters,
// nil references, template errors) prove a handler exists and are not reported.
package audit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Config holds audit settings. Zero values use package defaults.
type Config struct {
	Exclude      Exclusion
	TestDomain   string
	Scheme       string
	ProbeTimeout time.Duration
}

// Auditor chains enumeration and probing.
type Auditor struct {
	enumerator *Enumerator
	runner     *Runner
	logger     *zap.Logger
}

// New returns an Auditor that reads routes from source and probes them through harness.
func New(source RouteSource, harness Harness, logger *zap.Logger, cfg Config) *Auditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditor{
		enumerator: NewEnumerator(source, logger, cfg.TestDomain, cfg.Scheme),
		runner:     NewRunner(harness, logger, cfg.Exclude, cfg.ProbeTimeout),
		logger:     logger,
	}
}

// Run performs one audit. The returned error is non-nil only when the route table
// cannot be read or ctx is cancelled; orphaned routes are reported through Report.Err.
func (a *Auditor) Run(ctx context.Context) (*Report, error) {
	routes, err := a.enumerator.Enumerate(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate routes: %w", err)
	}
	report, err := a.runner.Run(ctx, routes)
	if err != nil {
		return report, fmt.Errorf("probe routes: %w", err)
	}
	counts := report.Counts()
	a.logger.Info("audit complete",
		zap.Int("routes", len(routes)),
		zap.Int("orphaned", len(report.Orphaned())),
		zap.Int("unexpected", counts[ClassUnexpected]),
		zap.Int("skipped", counts[ClassSkipped]),
		zap.Duration("duration", report.Duration))
	return report, nil
}
