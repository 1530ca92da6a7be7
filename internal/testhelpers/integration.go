//go:build integration
// +build integration

package testhelpers

import (
	"os"
	"testing"
	"time"

	"github.com/kjstillabower/route-audit/internal/audit"
	"github.com/kjstillabower/route-audit/internal/harness"
	"github.com/kjstillabower/route-audit/internal/observability"
	"github.com/kjstillabower/route-audit/internal/routesource"
)

// IntegrationTestConfig holds configuration for integration tests against a live application.
type IntegrationTestConfig struct {
	TargetURL  string
	Token      string
	RoutesFile string
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips test if ROUTEAUDIT_TARGET or ROUTEAUDIT_ROUTES_FILE is not set.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	target := os.Getenv("ROUTEAUDIT_TARGET")
	if target == "" {
		t.Skip("ROUTEAUDIT_TARGET not set, skipping integration test")
	}
	routesFile := os.Getenv("ROUTEAUDIT_ROUTES_FILE")
	if routesFile == "" {
		t.Skip("ROUTEAUDIT_ROUTES_FILE not set, skipping integration test")
	}
	return IntegrationTestConfig{
		TargetURL:  target,
		Token:      os.Getenv("ROUTEAUDIT_TARGET_TOKEN"),
		RoutesFile: routesFile,
	}
}

// SetupIntegrationHarness creates a remote harness for the live target.
func SetupIntegrationHarness(t *testing.T, cfg IntegrationTestConfig) *harness.Remote {
	logger, err := observability.NewLogger()
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	h, err := harness.NewRemote(harness.RemoteConfig{
		BaseURL: cfg.TargetURL,
		Token:   cfg.Token,
		Timeout: 5 * time.Second,
		Markers: harness.DefaultMarkers(),
		Logger:  logger,
	})
	if err != nil {
		t.Fatalf("NewRemote() error = %v", err)
	}
	return h
}

// SetupIntegrationSource loads the route table the live target was generated from.
func SetupIntegrationSource(t *testing.T, cfg IntegrationTestConfig) audit.RouteSource {
	src, err := routesource.LoadFile(cfg.RoutesFile)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	return src
}
