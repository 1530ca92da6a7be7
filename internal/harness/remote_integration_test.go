//go:build integration
// +build integration

package harness_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/kjstillabower/route-audit/internal/audit"
	"github.com/kjstillabower/route-audit/internal/testhelpers"
)

// TestRemote_LiveAudit runs a full audit against ROUTEAUDIT_TARGET. It fails only on
// transport problems; orphaned routes are logged since the live app's state is unknown.
func TestRemote_LiveAudit(t *testing.T) {
	cfg := testhelpers.GetIntegrationConfig(t)
	h := testhelpers.SetupIntegrationHarness(t, cfg)
	src := testhelpers.SetupIntegrationSource(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	rep, err := audit.New(src, h, zaptest.NewLogger(t), audit.Config{}).Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rep.Results) == 0 {
		t.Fatal("expected at least one probe result")
	}
	for _, res := range rep.Results {
		if res.Outcome.Kind == audit.OutcomeFault && res.Outcome.Status == 0 {
			t.Errorf("%s: no response: %v", res.Request, res.Outcome.Err)
		}
	}
	if err := rep.Err(); err != nil {
		t.Logf("%v", err)
	}
}
