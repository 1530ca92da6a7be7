package routesource

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/gorilla/mux"

	"github.com/kjstillabower/route-audit/internal/audit"
)

// Mux exposes the route table of a gorilla/mux router.
//
// Path variables ({id}, {id:[0-9]+}) become :id placeholders. A host template
// contributes its leftmost label as the host constraint, so a router matching
// "tenant.example.com" should be audited with test domain "example.com".
type Mux struct {
	router *mux.Router
}

// NewMux returns a RouteSource over router.
func NewMux(router *mux.Router) *Mux {
	return &Mux{router: router}
}

// Routes walks the router. Subrouter parent routes are not reported themselves,
// only the routes registered beneath them.
func (m *Mux) Routes(ctx context.Context) ([]audit.RawRoute, error) {
	var walked []*mux.Route
	parents := make(map[*mux.Route]struct{})
	err := m.router.Walk(func(route *mux.Route, _ *mux.Router, ancestors []*mux.Route) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		walked = append(walked, route)
		for _, a := range ancestors {
			parents[a] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk router: %w", err)
	}

	routes := make([]audit.RawRoute, 0, len(walked))
	for _, r := range walked {
		if _, ok := parents[r]; ok {
			continue
		}
		tpl, err := r.GetPathTemplate()
		if err != nil {
			// host- or header-only route; there is no path to probe
			continue
		}
		routes = append(routes, audit.RawRoute{
			Name:     r.GetName(),
			Template: convertTemplate(tpl),
			VerbSpec: verbSpec(r),
			Host:     hostConstraint(r),
		})
	}
	return routes, nil
}

func verbSpec(r *mux.Route) string {
	methods, err := r.GetMethods()
	if err != nil || len(methods) == 0 {
		return ""
	}
	quoted := make([]string, len(methods))
	for i, m := range methods {
		quoted[i] = regexp.QuoteMeta(m)
	}
	return "^(" + strings.Join(quoted, "|") + ")$"
}

func hostConstraint(r *mux.Route) string {
	host, err := r.GetHostTemplate()
	if err != nil {
		return ""
	}
	label, rest, ok := strings.Cut(host, ".")
	if !ok || rest == "" {
		return ""
	}
	return convertTemplate(label)
}

// convertTemplate rewrites mux variables to :name placeholders. Patterns may
// themselves contain braces, e.g. {code:[0-9]{3}}.
func convertTemplate(tpl string) string {
	var b strings.Builder
	for i := 0; i < len(tpl); {
		if tpl[i] != '{' {
			b.WriteByte(tpl[i])
			i++
			continue
		}
		end := closingBrace(tpl, i)
		if end < 0 {
			b.WriteString(tpl[i:])
			break
		}
		name, _, _ := strings.Cut(tpl[i+1:end], ":")
		b.WriteString(":" + placeholderName(name))
		i = end + 1
	}
	return b.String()
}

func closingBrace(s string, open int) int {
	depth := 0
	for j := open; j < len(s); j++ {
		switch s[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

// placeholderName keeps letters and underscores so the whole name is consumed
// by sentinel substitution.
func placeholderName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || r == '_') {
			return r
		}
		return '_'
	}, strings.TrimSpace(name))
	if name == "" {
		return "param"
	}
	return name
}
