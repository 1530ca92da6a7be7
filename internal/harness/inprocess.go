package harness

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/route-audit/internal/audit"
)

// defaultBase is the origin host-relative targets are issued against.
var defaultBase = &url.URL{Scheme: "http", Host: "example.com"}

// InProcessConfig holds optional settings for an InProcess harness.
type InProcessConfig struct {
	// Handler serves requests; defaults to the router. Set it when the router is
	// wrapped in application-wide middleware.
	Handler      http.Handler
	MaxRedirects int
	// Reset, when set, is called between probes to drop application state
	// (in-memory stores, open transactions).
	Reset  func(ctx context.Context) error
	Logger *zap.Logger
}

// InProcess dispatches synthetic requests straight into a gorilla/mux application.
// Each hop is matched against the router first, so a missing route or a route
// without a handler is told apart from a handler that answers 404.
type InProcess struct {
	router       *mux.Router
	handler      http.Handler
	maxRedirects int
	reset        func(ctx context.Context) error
	logger       *zap.Logger
	jar          http.CookieJar
}

// NewInProcess returns a harness over router.
func NewInProcess(router *mux.Router, cfg InProcessConfig) *InProcess {
	h := &InProcess{
		router:       router,
		handler:      cfg.Handler,
		maxRedirects: cfg.MaxRedirects,
		reset:        cfg.Reset,
		logger:       cfg.Logger,
		jar:          newJar(),
	}
	if h.handler == nil {
		h.handler = router
	}
	if h.maxRedirects <= 0 {
		h.maxRedirects = DefaultMaxRedirects
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

// Reset drops cookies and runs the configured application reset hook.
func (h *InProcess) Reset(ctx context.Context) error {
	h.jar = newJar()
	if h.reset != nil {
		if err := h.reset(ctx); err != nil {
			return fmt.Errorf("reset application state: %w", err)
		}
	}
	return nil
}

// Do issues method target and follows redirects.
func (h *InProcess) Do(ctx context.Context, method, target string) audit.Outcome {
	u, err := resolve(defaultBase, target)
	if err != nil {
		return audit.Outcome{Kind: audit.OutcomeFault, Err: err}
	}

	for hop := 0; ; hop++ {
		if hop > h.maxRedirects {
			return audit.Outcome{Kind: audit.OutcomeFault, Err: fmt.Errorf("%w: stopped after %d", ErrTooManyRedirects, h.maxRedirects)}
		}
		if err := ctx.Err(); err != nil {
			return audit.Outcome{Kind: audit.OutcomeFault, Err: err}
		}

		req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
		if err != nil {
			return audit.Outcome{Kind: audit.OutcomeFault, Err: fmt.Errorf("build request: %w", err)}
		}
		corrID := newCorrelationID()
		req.Header.Set(CorrelationHeader, corrID)
		for _, c := range h.jar.Cookies(u) {
			req.AddCookie(c)
		}
		logger := h.logger.With(zap.String("correlation_id", corrID), zap.String("method", method), zap.String("url", u.String()))

		if o, routed := h.match(req); !routed {
			logger.Debug("no handler matched")
			return o
		}

		rec := httptest.NewRecorder()
		if fault := serve(h.handler, rec, req); fault != nil {
			logger.Debug("handler panicked", zap.Error(fault))
			o := audit.OutcomeFromError(fault)
			o.Status = http.StatusInternalServerError
			return o
		}
		resp := rec.Result()
		h.jar.SetCookies(u, resp.Cookies())

		if loc := resp.Header.Get("Location"); isRedirect(resp.StatusCode) && loc != "" {
			next, err := resolve(u, loc)
			if err != nil {
				return audit.Outcome{Kind: audit.OutcomeFault, Status: resp.StatusCode, Err: err}
			}
			logger.Debug("following redirect", zap.Int("status", resp.StatusCode), zap.String("location", next.String()))
			method = redirectMethod(resp.StatusCode, method)
			u = next
			continue
		}
		return statusOutcome(resp.StatusCode)
	}
}

// match reports whether req reaches handler code. When it does not, the returned
// Outcome says why.
func (h *InProcess) match(req *http.Request) (audit.Outcome, bool) {
	var m mux.RouteMatch
	if !h.router.Match(req, &m) || m.MatchErr != nil {
		status := http.StatusNotFound
		if m.MatchErr == mux.ErrMethodMismatch {
			status = http.StatusMethodNotAllowed
		}
		return audit.Outcome{Kind: audit.OutcomeNoRoute, Status: status}, false
	}
	if m.Route != nil && m.Route.GetHandler() == nil {
		return audit.Outcome{Kind: audit.OutcomeNoAction}, false
	}
	return audit.Outcome{}, true
}

// serve runs the handler and converts a panic into an error.
func serve(h http.Handler, w http.ResponseWriter, r *http.Request) (fault error) {
	defer func() {
		if v := recover(); v != nil {
			if err, ok := v.(error); ok {
				fault = err
				return
			}
			fault = fmt.Errorf("panic: %v", v)
		}
	}()
	h.ServeHTTP(w, r)
	return nil
}
