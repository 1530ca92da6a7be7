// Package harness issues synthetic requests for the route audit and reports what
// happened as an audit.Outcome.
package harness

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	"github.com/kjstillabower/route-audit/internal/audit"
)

// DefaultMaxRedirects bounds how many redirects one probe follows.
const DefaultMaxRedirects = 10

// CorrelationHeader carries a per-request ID so probes can be found in application logs.
const CorrelationHeader = "X-Correlation-ID"

var (
	// ErrTooManyRedirects is returned when a probe exceeds its redirect limit.
	ErrTooManyRedirects = errors.New("too many redirects")
	// ErrServerError wraps a 5xx response that carried no recognised marker.
	ErrServerError = errors.New("server error")
)

func newJar() http.CookieJar {
	// cookiejar.New never returns a non-nil error
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return jar
}

func newCorrelationID() string {
	return uuid.New().String()
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// redirectMethod mirrors net/http.Client: 301, 302 and 303 switch to GET, 307 and 308 keep the method.
func redirectMethod(code int, method string) string {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther:
		if method != http.MethodGet && method != http.MethodHead {
			return http.MethodGet
		}
	}
	return method
}

func resolve(base *url.URL, target string) (*url.URL, error) {
	ref, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse target %q: %w", target, err)
	}
	return base.ResolveReference(ref), nil
}

// statusOutcome classifies a response status produced by a handler that was reached.
func statusOutcome(status int) audit.Outcome {
	switch {
	case status == http.StatusNotFound:
		return audit.Outcome{Kind: audit.OutcomeRecordNotFound, Status: status}
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return audit.Outcome{Kind: audit.OutcomeParameterMissing, Status: status}
	case status >= 500:
		return audit.Outcome{Kind: audit.OutcomeFault, Status: status, Err: fmt.Errorf("%w: status %d", ErrServerError, status)}
	default:
		return audit.Outcome{Kind: audit.OutcomeHandled, Status: status}
	}
}
