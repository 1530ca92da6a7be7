package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when the selected config file does not exist.
var ErrNotFound = errors.New("config file not found")

// Config holds audit configuration loaded from YAML and env.
type Config struct {
	// ExcludePrefixes skips synthesized paths with these prefixes. Nil in the file means
	// the default ["/assets"]; an explicit empty list disables exclusion.
	ExcludePrefixes []string
	TestDomain      string
	Scheme          string
	ProbeTimeout    time.Duration

	RoutesFile string

	TargetURL      string
	TargetToken    string
	TargetTimeout  time.Duration
	MaxRedirects   int
	RateLimitRPS   float64
	RateLimitBurst int
	Markers        Markers

	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	// BreakerFailures of 0 disables the target circuit breaker.
	BreakerFailures int
	BreakerCooldown time.Duration

	ReportFormat string
	ReportOutput string

	MetricsTextfile string
}

// Markers overrides the response body fragments a remote target is classified by.
// Empty lists keep the harness defaults.
type Markers struct {
	NoRoute          []string `yaml:"no_route"`
	NoAction         []string `yaml:"no_action"`
	RecordNotFound   []string `yaml:"record_not_found"`
	ParameterMissing []string `yaml:"parameter_missing"`
	NilReference     []string `yaml:"nil_reference"`
	TemplateError    []string `yaml:"template_error"`
}

type fileConfig struct {
	Audit struct {
		ExcludePrefixes []string `yaml:"exclude_prefixes"`
		TestDomain      string   `yaml:"test_domain"`
		Scheme          string   `yaml:"scheme"`
		ProbeTimeout    string   `yaml:"probe_timeout"`
	} `yaml:"audit"`

	Routes struct {
		File string `yaml:"file"`
	} `yaml:"routes"`

	Target struct {
		BaseURL        string  `yaml:"base_url"`
		Timeout        string  `yaml:"timeout"`
		MaxRedirects   int     `yaml:"max_redirects"`
		RateLimitRPS   float64 `yaml:"rate_limit_rps"`
		RateLimitBurst int     `yaml:"rate_limit_burst"`
		Markers        Markers `yaml:"markers"`

		RetryMaxAttempts int    `yaml:"retry_max_attempts"`
		RetryBaseDelay   string `yaml:"retry_base_delay"`
		RetryMaxDelay    string `yaml:"retry_max_delay"`

		CircuitBreaker struct {
			FailureThreshold *int   `yaml:"failure_threshold"`
			Cooldown         string `yaml:"cooldown"`
		} `yaml:"circuit_breaker"`
	} `yaml:"target"`

	Report struct {
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"report"`

	Metrics struct {
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`
}

type secretsFile struct {
	TargetToken string `yaml:"target_token"`
}

// Load reads configuration from ROUTEAUDIT_CONFIG when set, otherwise from
// config/{ENV_NAME}.yaml (default dev) in the working directory.
func Load() (*Config, error) {
	if path := os.Getenv("ROUTEAUDIT_CONFIG"); path != "" {
		return LoadFile(path)
	}
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	return LoadFile(filepath.Join(cwd, "config", env+".yaml"))
}

// LoadFile reads configuration from path. A secrets.yaml beside it supplies the
// target token unless ROUTEAUDIT_TARGET_TOKEN is set.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return build(fc, filepath.Dir(path))
}

// Default returns the configuration used when no file exists, with env overrides applied.
func Default() (*Config, error) {
	return build(fileConfig{}, "")
}

func build(fc fileConfig, secretsDir string) (*Config, error) {
	cfg := &Config{}

	cfg.ExcludePrefixes = fc.Audit.ExcludePrefixes
	if cfg.ExcludePrefixes == nil {
		cfg.ExcludePrefixes = []string{"/assets"}
	}
	cfg.TestDomain = strings.TrimSpace(fc.Audit.TestDomain)
	if cfg.TestDomain == "" {
		cfg.TestDomain = "lvh.me:3232"
	}
	cfg.Scheme = strings.TrimSpace(strings.ToLower(fc.Audit.Scheme))
	if cfg.Scheme == "" {
		cfg.Scheme = "http"
	}
	cfg.ProbeTimeout = parseDuration(fc.Audit.ProbeTimeout, 10*time.Second)

	cfg.RoutesFile = strings.TrimSpace(os.Getenv("ROUTEAUDIT_ROUTES_FILE"))
	if cfg.RoutesFile == "" {
		cfg.RoutesFile = strings.TrimSpace(fc.Routes.File)
	}

	cfg.TargetURL = strings.TrimSpace(os.Getenv("ROUTEAUDIT_TARGET"))
	if cfg.TargetURL == "" {
		cfg.TargetURL = strings.TrimSpace(fc.Target.BaseURL)
	}
	cfg.TargetTimeout = parseDuration(fc.Target.Timeout, 5*time.Second)
	cfg.MaxRedirects = fc.Target.MaxRedirects
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = 10
	}
	cfg.RateLimitRPS = fc.Target.RateLimitRPS
	cfg.RateLimitBurst = fc.Target.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 1
	}
	cfg.Markers = fc.Target.Markers

	cfg.RetryAttempts = fc.Target.RetryMaxAttempts
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 2
	}
	cfg.RetryBaseDelay = parseDuration(fc.Target.RetryBaseDelay, 200*time.Millisecond)
	cfg.RetryMaxDelay = parseDuration(fc.Target.RetryMaxDelay, 2*time.Second)
	cfg.BreakerFailures = 5
	if fc.Target.CircuitBreaker.FailureThreshold != nil {
		cfg.BreakerFailures = *fc.Target.CircuitBreaker.FailureThreshold
	}
	cfg.BreakerCooldown = parseDuration(fc.Target.CircuitBreaker.Cooldown, 30*time.Second)

	token, err := loadTargetToken(secretsDir)
	if err != nil {
		return nil, err
	}
	cfg.TargetToken = token

	cfg.ReportFormat = strings.TrimSpace(strings.ToLower(os.Getenv("ROUTEAUDIT_REPORT_FORMAT")))
	if cfg.ReportFormat == "" {
		cfg.ReportFormat = strings.TrimSpace(strings.ToLower(fc.Report.Format))
	}
	if cfg.ReportFormat == "" {
		cfg.ReportFormat = "text"
	}
	cfg.ReportOutput = strings.TrimSpace(fc.Report.Output)
	cfg.MetricsTextfile = strings.TrimSpace(fc.Metrics.Textfile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadTargetToken returns ROUTEAUDIT_TARGET_TOKEN, or target_token from dir/secrets.yaml.
// A missing secrets file is not an error.
func loadTargetToken(dir string) (string, error) {
	if token := os.Getenv("ROUTEAUDIT_TARGET_TOKEN"); token != "" {
		return token, nil
	}
	if dir == "" {
		return "", nil
	}
	data, err := os.ReadFile(filepath.Join(dir, "secrets.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read secrets file: %w", err)
	}
	var sec secretsFile
	if err := yaml.Unmarshal(data, &sec); err != nil {
		return "", fmt.Errorf("parse secrets file: %w", err)
	}
	return sec.TargetToken, nil
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// Validate checks values that may also be set from CLI flags after loading.
func (c *Config) Validate() error {
	switch c.ReportFormat {
	case "text", "markdown", "json":
	default:
		return fmt.Errorf("report.format must be text, markdown or json, got %q", c.ReportFormat)
	}
	switch c.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("audit.scheme must be http or https, got %q", c.Scheme)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("target.rate_limit_rps must not be negative")
	}
	if c.BreakerFailures < 0 {
		return fmt.Errorf("target.circuit_breaker.failure_threshold must not be negative")
	}
	if c.TargetURL != "" {
		u, err := url.Parse(c.TargetURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("target.base_url must be an absolute URL, got %q", c.TargetURL)
		}
	}
	return nil
}
