package audit

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/kjstillabower/route-audit/internal/validation"
)

const (
	// DefaultTestDomain resolves to 127.0.0.1 for every subdomain, so host-constrained
	// routes can be reached against a local instance.
	DefaultTestDomain = "lvh.me:3232"
	DefaultScheme     = "http"
)

var (
	// ErrUnknownVerb is returned when a verb spec matches none of the canonical verbs.
	ErrUnknownVerb = errors.New("verb matches no canonical method")
	// ErrInvalidTemplate wraps the reason a template or host constraint was rejected.
	ErrInvalidTemplate = errors.New("invalid route template")
)

// Enumerator reads a RouteSource and produces RouteDescriptors.
type Enumerator struct {
	source     RouteSource
	logger     *zap.Logger
	testDomain string
	scheme     string
}

// NewEnumerator returns an Enumerator over source. Empty testDomain and scheme use the defaults.
func NewEnumerator(source RouteSource, logger *zap.Logger, testDomain, scheme string) *Enumerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if testDomain == "" {
		testDomain = DefaultTestDomain
	}
	if scheme == "" {
		scheme = DefaultScheme
	}
	return &Enumerator{
		source:     source,
		logger:     logger,
		testDomain: testDomain,
		scheme:     scheme,
	}
}

// Enumerate returns one descriptor per usable route, in route table order.
// Routes whose verb or template cannot be normalized are logged and skipped.
func (e *Enumerator) Enumerate(ctx context.Context) ([]RouteDescriptor, error) {
	raw, err := e.source.Routes(ctx)
	if err != nil {
		return nil, fmt.Errorf("read route table: %w", err)
	}

	routes := make([]RouteDescriptor, 0, len(raw))
	for _, r := range raw {
		d, err := e.describe(r)
		if err != nil {
			e.logger.Warn("skipping route",
				zap.String("template", r.Template),
				zap.String("verb_spec", r.VerbSpec),
				zap.Error(err))
			continue
		}
		routes = append(routes, d)
	}
	e.logger.Debug("routes enumerated", zap.Int("total", len(raw)), zap.Int("usable", len(routes)))
	return routes, nil
}

func (e *Enumerator) describe(r RawRoute) (RouteDescriptor, error) {
	template, err := validation.ValidateTemplate(r.Template)
	if err != nil {
		return RouteDescriptor{}, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}
	if r.Host != "" {
		if err := validation.ValidateHost(r.Host); err != nil {
			return RouteDescriptor{}, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
		}
	}
	verb, err := NormalizeVerb(r.VerbSpec)
	if err != nil {
		return RouteDescriptor{}, err
	}
	d := RouteDescriptor{
		Name:     r.Name,
		Template: template,
		Verb:     verb,
		Host:     r.Host,
		Target:   template,
	}
	if r.Host != "" {
		d.Target = e.scheme + "://" + r.Host + "." + e.testDomain + template
	}
	return d, nil
}

// NormalizeVerb resolves a verb spec to the first canonical verb it matches.
// Matching is case-insensitive; an empty pattern matches GET.
func NormalizeVerb(spec string) (Verb, error) {
	re, err := regexp.Compile("(?i)" + spec)
	if err != nil {
		return "", fmt.Errorf("compile verb spec %q: %w", spec, err)
	}
	for _, v := range canonicalVerbs {
		if re.MatchString(string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVerb, spec)
}
