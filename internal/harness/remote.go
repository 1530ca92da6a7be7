package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/route-audit/internal/audit"
	"github.com/kjstillabower/route-audit/internal/circuitbreaker"
	"github.com/kjstillabower/route-audit/internal/observability"
)

// maxBodyBytes caps how much of a response body is scanned for markers.
const maxBodyBytes = 1 << 20

// Markers are response body fragments that identify how a request failed. A live
// server gives no structured signal, so the audit relies on the error pages the
// framework renders in development mode.
type Markers struct {
	NoRoute          []string
	NoAction         []string
	RecordNotFound   []string
	ParameterMissing []string
	NilReference     []string
	TemplateError    []string
}

// DefaultMarkers matches the Rails development error pages.
func DefaultMarkers() Markers {
	return Markers{
		NoRoute:          []string{"No route matches", "ActionController::RoutingError"},
		NoAction:         []string{"could not be found for", "AbstractController::ActionNotFound"},
		RecordNotFound:   []string{"ActiveRecord::RecordNotFound"},
		ParameterMissing: []string{"ActionController::ParameterMissing"},
		NilReference:     []string{"NoMethodError"},
		TemplateError:    []string{"ActionView::Template::Error"},
	}
}

// RemoteConfig configures a Remote harness.
type RemoteConfig struct {
	BaseURL string
	// Token, when set, is sent as a bearer token on every request.
	Token        string
	Timeout      time.Duration
	MaxRedirects int
	// RateLimitRPS paces requests to the target; 0 disables pacing.
	RateLimitRPS   float64
	RateLimitBurst int
	// Retry re-sends requests that got no response or a 429.
	Retry RetryPolicy
	// BreakerFailures consecutive transport failures stop requests to the target for
	// BreakerCooldown; 0 disables the breaker.
	BreakerFailures int
	BreakerCooldown time.Duration
	Markers         Markers
	Logger          *zap.Logger
}

// Remote probes a running instance of the application over HTTP.
type Remote struct {
	base    *url.URL
	token   string
	client  *http.Client
	limiter *rate.Limiter
	retry   RetryPolicy
	breaker *circuitbreaker.CircuitBreaker
	markers Markers
	logger  *zap.Logger
}

// NewRemote returns a harness targeting cfg.BaseURL. Host-relative targets are
// resolved against it; fully qualified targets are requested as they are.
func NewRemote(cfg RemoteConfig) (*Remote, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must include scheme and host", cfg.BaseURL)
	}
	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}
	r := &Remote{
		base:    base,
		token:   cfg.Token,
		retry:   cfg.Retry,
		markers: cfg.Markers,
		logger:  cfg.Logger,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Jar:     newJar(),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return fmt.Errorf("%w: stopped after %d", ErrTooManyRedirects, maxRedirects)
				}
				return nil
			},
		},
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}
	if cfg.BreakerFailures > 0 {
		target := base.Host
		r.breaker = circuitbreaker.New(circuitbreaker.Config{
			FailureThreshold: cfg.BreakerFailures,
			Cooldown:         cfg.BreakerCooldown,
			Name:             target,
			IsFailure:        isTransportFailure,
			OnStateChange: func(from, to circuitbreaker.State) {
				observability.RecordCircuitTransition(target, from.String(), to.String(), int(to))
				r.logger.Warn("target circuit state changed",
					zap.String("target", target),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
	}
	return r, nil
}

// Reset drops the session cookies.
func (r *Remote) Reset(ctx context.Context) error {
	r.client.Jar = newJar()
	return nil
}

// Do issues method target against the live application and classifies the final response.
func (r *Remote) Do(ctx context.Context, method, target string) audit.Outcome {
	u, err := resolve(r.base, target)
	if err != nil {
		return audit.Outcome{Kind: audit.OutcomeFault, Err: err}
	}
	corrID := newCorrelationID()
	logger := r.logger.With(zap.String("correlation_id", corrID), zap.String("method", method), zap.String("url", u.String()))

	resp, err := r.send(ctx, method, u, corrID)
	if err != nil {
		return audit.Outcome{Kind: audit.OutcomeFault, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return audit.Outcome{Kind: audit.OutcomeFault, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	o := r.classify(resp.StatusCode, string(body))
	logger.Debug("response classified", zap.Int("status", resp.StatusCode), zap.String("outcome", o.Kind.String()))
	return o
}

// send performs the request, retrying per r.retry. A 429 on the last attempt is
// returned as a response and left to classify.
func (r *Remote) send(ctx context.Context, method string, u *url.URL, corrID string) (*http.Response, error) {
	attempts := r.retry.attempts()
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			observability.RecordTargetRetry()
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("request timeout: %w", ctx.Err())
			case <-time.After(r.retry.backoff(attempt)):
			}
		}

		resp, err := r.attempt(ctx, method, u, corrID)
		if err == nil {
			if resp.StatusCode == http.StatusTooManyRequests && attempt < attempts-1 {
				resp.Body.Close()
				lastErr = ErrThrottled
				continue
			}
			return resp, nil
		}
		lastErr = err
		if !isRetryable(err) || ctx.Err() != nil {
			return nil, err
		}
	}
	if attempts > 1 {
		return nil, fmt.Errorf("exhausted retries: %w", lastErr)
	}
	return nil, lastErr
}

func (r *Remote) attempt(ctx context.Context, method string, u *url.URL, corrID string) (*http.Response, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", errRateWait, err)
		}
	}

	var resp *http.Response
	roundTrip := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set(CorrelationHeader, corrID)
		if r.token != "" {
			req.Header.Set("Authorization", "Bearer "+r.token)
		}
		resp, err = r.client.Do(req)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return fmt.Errorf("request timeout: %w", err)
			}
			return fmt.Errorf("http request failed: %w", err)
		}
		return nil
	}

	var err error
	if r.breaker != nil {
		err = r.breaker.Call(ctx, roundTrip)
	} else {
		err = roundTrip(ctx)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// classify maps a final response to an Outcome. A 429 means a throttling layer
// answered before routing. Markers are only read from error responses, routing
// markers first, then noise markers; otherwise the status decides.
func (r *Remote) classify(status int, body string) audit.Outcome {
	if status == http.StatusTooManyRequests {
		return audit.Outcome{Kind: audit.OutcomeFault, Status: status, Err: fmt.Errorf("%w: status %d", ErrThrottled, status)}
	}
	if status < http.StatusBadRequest {
		return audit.Outcome{Kind: audit.OutcomeHandled, Status: status}
	}
	checks := []struct {
		markers []string
		kind    audit.OutcomeKind
	}{
		{r.markers.NoRoute, audit.OutcomeNoRoute},
		{r.markers.NoAction, audit.OutcomeNoAction},
		{r.markers.RecordNotFound, audit.OutcomeRecordNotFound},
		{r.markers.ParameterMissing, audit.OutcomeParameterMissing},
		{r.markers.NilReference, audit.OutcomeNilReference},
		{r.markers.TemplateError, audit.OutcomeTemplateError},
	}
	for _, c := range checks {
		if containsAny(body, c.markers) {
			return audit.Outcome{Kind: c.kind, Status: status}
		}
	}
	if status >= 500 {
		return audit.Outcome{Kind: audit.OutcomeFault, Status: status, Err: fmt.Errorf("%w: status %d", ErrServerError, status)}
	}
	return audit.Outcome{Kind: audit.OutcomeHandled, Status: status}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(s, m) {
			return true
		}
	}
	return false
}
