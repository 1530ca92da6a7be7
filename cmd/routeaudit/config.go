package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kjstillabower/route-audit/internal/audit"
	"github.com/kjstillabower/route-audit/internal/config"
	"github.com/kjstillabower/route-audit/internal/harness"
	"github.com/kjstillabower/route-audit/internal/observability"
	"github.com/kjstillabower/route-audit/internal/routesource"
)

// addSourceFlags registers the flags shared by commands that read a route table.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: $ROUTEAUDIT_CONFIG or config/$ENV_NAME.yaml)")
	cmd.Flags().StringP("routes", "r", "",
		"Route table file: `rails routes` output, or .yaml/.yml")
	cmd.Flags().String("test-domain", "",
		"Domain appended to host constraints (default lvh.me:3232)")
	cmd.Flags().String("scheme", "", "Scheme for host-constrained routes: http or https")
}

// buildConfig loads the config file and applies flag overrides. Without an explicit
// path a missing config file falls back to defaults.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	var cfg *config.Config
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
		if errors.Is(err, config.ErrNotFound) && os.Getenv("ROUTEAUDIT_CONFIG") == "" {
			cfg, err = config.Default()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	overrides := []struct {
		flag string
		dst  *string
	}{
		{"routes", &cfg.RoutesFile},
		{"test-domain", &cfg.TestDomain},
		{"scheme", &cfg.Scheme},
		{"target", &cfg.TargetURL},
		{"format", &cfg.ReportFormat},
		{"output", &cfg.ReportOutput},
		{"metrics-file", &cfg.MetricsTextfile},
	}
	for _, o := range overrides {
		if cmd.Flags().Lookup(o.flag) == nil || !cmd.Flags().Changed(o.flag) {
			continue
		}
		v, err := cmd.Flags().GetString(o.flag)
		if err != nil {
			return nil, err
		}
		*o.dst = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

func setupLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return observability.NewLoggerAt("DEBUG")
	}
	return observability.NewLogger()
}

func loadSource(cfg *config.Config) (audit.RouteSource, error) {
	if cfg.RoutesFile == "" {
		return nil, errors.New("no route table: set --routes, routes.file or ROUTEAUDIT_ROUTES_FILE")
	}
	src, err := routesource.LoadFile(cfg.RoutesFile)
	if err != nil {
		return nil, err
	}
	return src, nil
}

func newRemoteHarness(cfg *config.Config, logger *zap.Logger) (*harness.Remote, error) {
	if cfg.TargetURL == "" {
		return nil, errors.New("no target: set --target, target.base_url or ROUTEAUDIT_TARGET")
	}
	return harness.NewRemote(harness.RemoteConfig{
		BaseURL:        cfg.TargetURL,
		Token:          cfg.TargetToken,
		Timeout:        cfg.TargetTimeout,
		MaxRedirects:   cfg.MaxRedirects,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Retry: harness.RetryPolicy{
			Attempts:  cfg.RetryAttempts,
			BaseDelay: cfg.RetryBaseDelay,
			MaxDelay:  cfg.RetryMaxDelay,
		},
		BreakerFailures: cfg.BreakerFailures,
		BreakerCooldown: cfg.BreakerCooldown,
		Markers:         mergeMarkers(harness.DefaultMarkers(), cfg.Markers),
		Logger:          logger,
	})
}

// mergeMarkers replaces each default list that the config sets.
func mergeMarkers(m harness.Markers, override config.Markers) harness.Markers {
	pick := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = src
		}
	}
	pick(&m.NoRoute, override.NoRoute)
	pick(&m.NoAction, override.NoAction)
	pick(&m.RecordNotFound, override.RecordNotFound)
	pick(&m.ParameterMissing, override.ParameterMissing)
	pick(&m.NilReference, override.NilReference)
	pick(&m.TemplateError, override.TemplateError)
	return m
}
